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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/correlation"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/render"
)

// correlationsViper represents the configuration of the `mikroscope correlations` command
var correlationsViper = viper.New()

// correlationsCmd represents the `mikroscope correlations` command
var correlationsCmd = &cobra.Command{
	Use:     "correlations",
	Aliases: []string{"groups"},
	Short:   "Group the matching entries by correlation",
	Args:    cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
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

		if err := hydrateConsole(c, correlationsViper); err != nil {
			return err
		}
		if err := fetchPages(ctx, c, correlationsViper.GetUint(pagesKey)); err != nil {
			return err
		}

		groups := c.CorrelationGroups()
		if consoleOutputFormat != render.Text {
			return render.Serialize(os.Stdout, consoleOutputFormat, groups)
		}
		return render.Groups(os.Stdout, groups)
	},
}

// chainCmd represents the `mikroscope chain` command
var chainCmd = &cobra.Command{
	Use:   "chain FIELD VALUE",
	Short: "Export every entry of a trace in chronological order",
	Long: fmt.Sprintf(
		"Export every entry of a trace in chronological order, FIELD is one of %q, %q or %q to pick it from the value",
		query.TraceFieldCorrelationID, query.TraceFieldRequestID, query.TraceModeAuto,
	),
	Args: cobra.ExactArgs(2),
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

		if err := hydrateConsole(c, chainViper); err != nil {
			return err
		}
		field := query.ResolveTraceField(args[0], args[1])
		c.SetServerFilter(field, args[1])
		if err := fetchPages(ctx, c, chainViper.GetUint(pagesKey)); err != nil {
			return err
		}

		chain, err := c.CorrelationChain(field, args[1])
		if err != nil {
			return err
		}
		if consoleOutputFormat != render.Text {
			return render.Serialize(os.Stdout, consoleOutputFormat, chain)
		}
		return renderChain(chain)
	},
}

// chainViper represents the configuration of the `mikroscope chain` command
var chainViper = viper.New()

func renderChain(chain correlation.Chain) error {
	if chain.Correlation.Count == 0 {
		_, err := fmt.Fprintf(os.Stdout, "No loaded entry for %s=%s.\n", chain.Correlation.Field, chain.Correlation.Value)
		return err
	}
	return render.Chain(os.Stdout, chain)
}

func init() {
	addQueryFlags(correlationsCmd.Flags(), correlationsViper)
	addQueryFlags(chainCmd.Flags(), chainViper)
}
