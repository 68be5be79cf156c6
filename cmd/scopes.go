// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/render"
	"github.com/mikroscope/console/scopes"
)

// scopesCmd represents the `mikroscope scopes` command
var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List the recently applied scopes",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat(rootViper)
		if err != nil {
			return err
		}

		c, release, err := createConsole(context.Background(), rootViper)
		if err != nil {
			return err
		}
		defer release()

		recent := c.RecentScopes()
		if consoleOutputFormat != render.Text {
			return render.Serialize(os.Stdout, consoleOutputFormat, recent)
		}
		return render.Scopes(os.Stdout, recent, time.Now())
	},
}

// scopesLocatorCmd represents the `mikroscope scopes locator` command
var scopesLocatorCmd = &cobra.Command{
	Use:   "locator ID",
	Short: "Print the locator of a recent scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		c, release, err := createConsole(context.Background(), rootViper)
		if err != nil {
			return err
		}
		defer release()

		snapshot, err := findRecentScope(c.RecentScopes(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, query.BuildViewPath("/", "", "", snapshot.Query))
		return err
	},
}

func findRecentScope(recent []scopes.Snapshot, id string) (scopes.Snapshot, error) {
	for _, snapshot := range recent {
		if snapshot.ID == id {
			return snapshot, nil
		}
	}
	return scopes.Snapshot{}, fmt.Errorf("unknown scope %q", id)
}

func init() {
	scopesCmd.AddCommand(scopesLocatorCmd)
}
