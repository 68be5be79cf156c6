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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/render"
	"github.com/mikroscope/console/view"
)

// queryViper represents the configuration of the `mikroscope query` command
var queryViper = viper.New()

const (
	queryFilterFieldKey   = "filter_field"
	queryFilterValueKey   = "filter_value"
	queryFilterModeKey    = "filter_mode"
	querySortKey          = "sort"
	querySortDirectionKey = "sort_direction"
	querySummaryKey       = "summary"
)

type queryResult struct {
	Query   query.RemoteQuery `json:"query"`
	Entries []api.LogEntry    `json:"entries"`
	HasMore bool              `json:"hasMore"`
	Summary *console.Summary  `json:"summary,omitempty"`
}

// queryCmd represents the `mikroscope query` command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the logs and list the matching entries",
	Args:  cobra.NoArgs,
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

		if err := hydrateConsole(c, queryViper); err != nil {
			return err
		}
		if err := fetchPages(ctx, c, queryViper.GetUint(pagesKey)); err != nil {
			return err
		}
		applyLocalView(c, queryViper)

		return writeQueryResult(os.Stdout, c, consoleOutputFormat, queryViper.GetBool(querySummaryKey))
	},
}

// applyLocalView applies the local filter and sort flags to the loaded entries
func applyLocalView(c *console.Console, cfg *viper.Viper) {
	if value := cfg.GetString(queryFilterValueKey); value != "" {
		c.SetLocalFilter(view.LocalFilter{
			Field: cfg.GetString(queryFilterFieldKey),
			Value: value,
			Mode:  view.ParseMatchMode(cfg.GetString(queryFilterModeKey)),
		})
	}
	if field := cfg.GetString(querySortKey); field != "" {
		c.SetSort(view.Sort{
			Field:     field,
			Direction: view.ParseDirection(cfg.GetString(querySortDirectionKey)),
		})
	}
}

func writeQueryResult(w io.Writer, c *console.Console, format render.Format, withSummary bool) error {
	if format != render.Text {
		result := queryResult{
			Query:   c.Query(),
			Entries: c.Visible(),
			HasMore: c.HasMore(),
		}
		if withSummary {
			summary := c.Summary()
			result.Summary = &summary
		}
		return render.Serialize(w, format, result)
	}

	if err := render.Logs(w, c.Visible()); err != nil {
		return err
	}
	if withSummary {
		if err := render.Summary(w, c.Summary()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, c.Status())
	return err
}

func init() {
	addQueryFlags(queryCmd.Flags(), queryViper)

	flags := queryCmd.Flags()
	flags.String(queryFilterFieldKey, "", "Field of the loaded entries to filter on, every field when empty")
	flags.String(queryFilterValueKey, "", "Value searched in the loaded entries")
	flags.String(
		queryFilterModeKey,
		string(view.MatchContains),
		fmt.Sprintf("Local filter mode as one of %v", []view.MatchMode{view.MatchContains, view.MatchEquals}),
	)
	flags.String(querySortKey, "", "Field of the loaded entries to sort on")
	flags.String(
		querySortDirectionKey,
		string(view.Descending),
		fmt.Sprintf("Sort direction as one of %v", []view.Direction{view.Ascending, view.Descending}),
	)
	flags.Bool(querySummaryKey, false, "Include the summary of the visible entries")

	_ = queryViper.BindPFlags(flags)
}
