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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/render"
)

// savedCmd represents the `mikroscope saved` command
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage the saved queries",
	Args:  cobra.NoArgs,
}

// savedListCmd represents the `mikroscope saved list` command
var savedListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the saved queries, most recently updated first",
	Args:    cobra.NoArgs,
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

		entries := c.SavedQueries()
		if consoleOutputFormat != render.Text {
			return render.Serialize(os.Stdout, consoleOutputFormat, entries)
		}
		return render.SavedQueries(os.Stdout, entries, time.Now())
	},
}

// savedSaveViper represents the configuration of the `mikroscope saved save` command
var savedSaveViper = viper.New()

// savedSaveCmd represents the `mikroscope saved save` command
var savedSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Save the query defined by the flags, replacing any query with the same name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		c, release, err := createConsole(context.Background(), rootViper)
		if err != nil {
			return err
		}
		defer release()

		if err := hydrateConsole(c, savedSaveViper); err != nil {
			return err
		}
		if err := c.SaveQuery(context.Background(), strings.Join(args, " ")); err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, c.Status())
		return err
	},
}

// savedRunViper represents the configuration of the `mikroscope saved run` command
var savedRunViper = viper.New()

// savedRunCmd represents the `mikroscope saved run` command
var savedRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run a saved query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat(rootViper)
		if err != nil {
			return err
		}

		ctx := contextWithUserTermination(context.Background())
		c, release, err := createConsole(ctx, rootViper)
		if err != nil {
			return err
		}
		defer release()

		outcome, err := c.RunSavedQuery(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if outcome.Cancelled {
			return context.Canceled
		}
		for page := uint(0); page < savedRunViper.GetUint(pagesKey) && c.HasMore(); page++ {
			if _, err := c.FetchMoreLogs(ctx); err != nil {
				return err
			}
		}
		return writeQueryResult(os.Stdout, c, consoleOutputFormat, false)
	},
}

// savedDeleteCmd represents the `mikroscope saved delete` command
var savedDeleteCmd = &cobra.Command{
	Use:     "delete NAME",
	Aliases: []string{"rm"},
	Short:   "Delete a saved query",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(_cmd *cobra.Command, args []string) error {
		c, release, err := createConsole(context.Background(), rootViper)
		if err != nil {
			return err
		}
		defer release()

		if err := c.DeleteSavedQuery(context.Background(), strings.Join(args, " ")); err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, c.Status())
		return err
	},
}

func init() {
	addQueryFlags(savedSaveCmd.Flags(), savedSaveViper)

	savedRunViper.SetDefault(pagesKey, 0)
	savedRunCmd.Flags().Uint(pagesKey, savedRunViper.GetUint(pagesKey), "Number of additional pages to load")
	_ = savedRunViper.BindPFlags(savedRunCmd.Flags())

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedSaveCmd)
	savedCmd.AddCommand(savedRunCmd)
	savedCmd.AddCommand(savedDeleteCmd)
}
