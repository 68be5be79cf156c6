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
	"path"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/shell"
)

// shellViper represents the configuration of the `mikroscope shell` command
var shellViper = viper.New()

const (
	shellHistoryFileKey = "history_file"
	shellWidthKey       = "width"
	shellNoRunKey       = "no_run"
)

// shellCmd represents the `mikroscope shell` command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Explore the logs interactively",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		ctx := context.Background()
		c, release, err := createConsole(ctx, rootViper)
		if err != nil {
			return err
		}
		defer release()

		if err := hydrateConsole(c, shellViper); err != nil {
			return err
		}

		historyFile := shellViper.GetString(shellHistoryFileKey)
		if historyFile == "" {
			historyFile = path.Join(rootViper.GetString(storePathKey), "shell_history")
		}
		reader, err := shell.NewReadlineReader("mikroscope> ", historyFile)
		if err != nil {
			return err
		}

		s := shell.New(c, reader, os.Stdout, shell.Options{TimelineWidth: shellViper.GetInt(shellWidthKey)})
		if !shellViper.GetBool(shellNoRunKey) {
			if err := s.Execute(ctx, "run"); err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
			}
		}
		return s.Run(ctx)
	},
}

func init() {
	addQueryFlags(shellCmd.Flags(), shellViper)

	flags := shellCmd.Flags()
	_ = shellViper.BindEnv(shellHistoryFileKey, "MIKROSCOPE_SHELL_HISTORY_FILE")
	flags.String(shellHistoryFileKey, "", "File of the command history (default is in the store directory)")

	shellViper.SetDefault(shellWidthKey, console.DefaultTimelineWidth/6)
	flags.Int(shellWidthKey, shellViper.GetInt(shellWidthKey), "Plotting width of the timeline view")

	flags.Bool(shellNoRunKey, false, "Don't run the query on start")

	_ = shellViper.BindPFlags(flags)
}
