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
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/ryanuber/columnize"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/correlation"
	"github.com/mikroscope/console/saved"
	"github.com/mikroscope/console/scopes"
	"github.com/mikroscope/console/timeline"
)

// sparks are ordered by increasing intensity
var sparks = []rune("▁▂▃▄▅▆▇█")

func coloredLevel(level string) string {
	switch strings.ToUpper(level) {
	case "ERROR":
		return color.RedString(level)
	case "WARN":
		return color.YellowString(level)
	case "DEBUG":
		return color.WhiteString(level)
	default:
		return color.CyanString(level)
	}
}

func escapeColumn(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, "|", "/"), "\n", " ")
}

func writeColumns(w io.Writer, rows []string) error {
	_, err := fmt.Fprintln(w, columnize.SimpleFormat(rows))
	return err
}

// Logs lists entries, one per line
func Logs(w io.Writer, entries []api.LogEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No log entries.")
		return err
	}
	rows := []string{"TIMESTAMP|LEVEL|EVENT|TRACE|MESSAGE"}
	for _, entry := range entries {
		trace := correlation.InfoOf(entry).Value
		rows = append(rows, strings.Join([]string{
			escapeColumn(entry.Timestamp),
			coloredLevel(escapeColumn(entry.Level)),
			escapeColumn(entry.Event),
			escapeColumn(trace),
			escapeColumn(entry.Message),
		}, "|"))
	}
	return writeColumns(w, rows)
}

func formatMs(ms int64, ok bool) string {
	if !ok {
		return "-"
	}
	return api.FormatTimestampMs(ms)
}

// Groups renders the correlation groups as a table
func Groups(w io.Writer, groups []correlation.Group) error {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetHeader([]string{"field", "value", "entries", "errors", "first seen", "last seen"})
	for _, group := range groups {
		table.Append([]string{
			group.Field,
			group.Value,
			humanize.Comma(int64(group.Count)),
			humanize.Comma(int64(group.ErrorCount)),
			formatMs(group.FirstMs, group.HasTimestamps),
			formatMs(group.LastMs, group.HasTimestamps),
		})
	}
	table.SetCaption(true, fmt.Sprintf("%d correlation groups", len(groups)))
	table.Render()
	return nil
}

// Spark returns the glyph of a bucket, empty buckets render as a blank
func Spark(bucket timeline.Bucket) rune {
	if bucket.Count <= 0 {
		return ' '
	}
	idx := int(bucket.Intensity*float64(len(sparks)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sparks) {
		idx = len(sparks) - 1
	}
	return sparks[idx]
}

// Timeline renders a sparkline of the buckets followed by the non empty buckets
func Timeline(w io.Writer, tl timeline.Timeline, active *timeline.Filter) error {
	line := make([]rune, 0, len(tl.Buckets))
	for _, bucket := range tl.Buckets {
		line = append(line, Spark(bucket))
	}
	mode := "auto"
	if tl.Manual {
		mode = "manual"
	}
	if _, err := fmt.Fprintf(
		w,
		"%s\n|%s|\n%s buckets (%s), %s entries, peak %d\n",
		tl.Label,
		string(line),
		timeline.FormatBucketSize(tl.BucketMs),
		mode,
		humanize.Comma(int64(tl.Total())),
		tl.Stats.Max,
	); err != nil {
		return err
	}

	rows := []string{"#|BUCKET|COUNT|"}
	for idx, bucket := range tl.Buckets {
		if bucket.Count <= 0 {
			continue
		}
		marker := ""
		if active != nil && active.Key == bucket.Key {
			marker = "*"
		}
		rows = append(rows, fmt.Sprintf("%d|%s|%d|%s", idx, escapeColumn(bucket.Label), bucket.Count, marker))
	}
	if len(rows) == 1 {
		return nil
	}
	return writeColumns(w, rows)
}

// Scopes lists snapshots with their age relative to now
func Scopes(w io.Writer, snapshots []scopes.Snapshot, now time.Time) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "No scopes.")
		return err
	}
	rows := []string{"ID|LABEL|VIEW|REASON|CREATED"}
	for _, snapshot := range snapshots {
		rows = append(rows, strings.Join([]string{
			snapshot.ID,
			escapeColumn(snapshot.Label),
			string(snapshot.ActiveView),
			escapeColumn(snapshot.Reason),
			humanize.RelTime(time.UnixMilli(snapshot.CreatedAt), now, "ago", "from now"),
		}, "|"))
	}
	return writeColumns(w, rows)
}

// Trail renders the scope trail, restorable steps are prefixed with their history index
func Trail(w io.Writer, items []scopes.TrailItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No scope applied yet.")
		return err
	}
	steps := make([]string, 0, len(items))
	for _, item := range items {
		if item.Current {
			steps = append(steps, fmt.Sprintf("[%s]", item.Snapshot.Label))
		} else {
			steps = append(steps, fmt.Sprintf("%d: %s", item.HistoryIndex, item.Snapshot.Label))
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(steps, " > "))
	return err
}

func SavedQueries(w io.Writer, entries []saved.Query, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No saved queries.")
		return err
	}
	rows := []string{"NAME|QUERY|UPDATED"}
	for _, entry := range entries {
		rows = append(rows, strings.Join([]string{
			escapeColumn(entry.Name),
			escapeColumn(entry.Query.Encode()),
			humanize.RelTime(time.UnixMilli(entry.UpdatedAt), now, "ago", "from now"),
		}, "|"))
	}
	return writeColumns(w, rows)
}
