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

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/correlation"
)

func countsTable(w io.Writer, title string, counts []console.Count) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetHeader([]string{title, "count"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, count := range counts {
		table.Append([]string{count.Key, humanize.Comma(count.Count)})
	}
	table.Render()
}

// Summary renders the counters followed by the level distribution and the top lists
func Summary(w io.Writer, summary console.Summary) error {
	levels := make([]string, 0, len(summary.Levels))
	for _, level := range summary.Levels {
		levels = append(levels, fmt.Sprintf("%s %s", coloredLevel(level.Key), humanize.Comma(level.Count)))
	}
	if err := writeColumns(w, []string{
		fmt.Sprintf("loaded|%s", humanize.Comma(int64(summary.Loaded))),
		fmt.Sprintf("visible|%s", humanize.Comma(int64(summary.Visible))),
		fmt.Sprintf("errors|%s", humanize.Comma(int64(summary.Errors))),
		fmt.Sprintf("correlations|%s", humanize.Comma(int64(summary.Correlations))),
		fmt.Sprintf("levels|%s", strings.Join(levels, ", ")),
	}); err != nil {
		return err
	}
	countsTable(w, "top events", summary.TopEvents)
	countsTable(w, "top components", summary.TopComponents)
	countsTable(w, "error correlations", summary.ErrorCorrelations)
	return nil
}

// Chain renders a correlation chain in chronological order
func Chain(w io.Writer, chain correlation.Chain) error {
	if _, err := fmt.Fprintf(
		w,
		"%s=%s, %d entries from %s to %s\n",
		chain.Correlation.Field,
		chain.Correlation.Value,
		chain.Correlation.Count,
		chain.Correlation.FirstTimestamp,
		chain.Correlation.LastTimestamp,
	); err != nil {
		return err
	}
	return Logs(w, chain.Entries)
}
