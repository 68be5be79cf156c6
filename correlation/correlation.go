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

package correlation

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
)

const MaxGroups = 200

// Info identifies the trace an entry belongs to
type Info struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (i Info) IsZero() bool {
	return i.Value == ""
}

func (i Info) Key() string {
	return fmt.Sprintf("%s:%s", i.Field, i.Value)
}

// InfoOf prefers `data.correlationId` over `data.requestId`, the zero Info is returned when
// neither is set.
func InfoOf(entry api.LogEntry) Info {
	for _, field := range []string{query.TraceFieldCorrelationID, query.TraceFieldRequestID} {
		value := entry.Data.Get(field)
		if value.Truthy() {
			return Info{Field: field, Value: value.Text()}
		}
	}
	return Info{}
}

type Group struct {
	Field      string `json:"field"`
	Value      string `json:"value"`
	Count      int    `json:"count"`
	ErrorCount int    `json:"errorCount"`
	// FirstMs and LastMs are only meaningful when HasTimestamps is set
	FirstMs       int64 `json:"firstMs"`
	LastMs        int64 `json:"lastMs"`
	HasTimestamps bool  `json:"hasTimestamps"`
}

// lastSeenAfter orders groups without any parsable timestamp last
func lastSeenAfter(a *Group, b *Group) bool {
	if a.HasTimestamps != b.HasTimestamps {
		return a.HasTimestamps
	}
	return a.LastMs > b.LastMs
}

// BuildGroups groups the entries by trace, most erroneous then largest then most recent first.
func BuildGroups(entries []api.LogEntry) []Group {
	groups := []*Group{}
	byKey := map[string]*Group{}
	for _, entry := range entries {
		info := InfoOf(entry)
		if info.IsZero() {
			continue
		}
		group, ok := byKey[info.Key()]
		if !ok {
			group = &Group{Field: info.Field, Value: info.Value}
			byKey[info.Key()] = group
			groups = append(groups, group)
		}

		group.Count++
		if entry.IsError() {
			group.ErrorCount++
		}
		if ms, ok := entry.TimestampMs(); ok {
			if !group.HasTimestamps || ms < group.FirstMs {
				group.FirstMs = ms
			}
			if !group.HasTimestamps || ms > group.LastMs {
				group.LastMs = ms
			}
			group.HasTimestamps = true
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.ErrorCount != b.ErrorCount {
			return a.ErrorCount > b.ErrorCount
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return lastSeenAfter(a, b)
	})

	if len(groups) > MaxGroups {
		groups = groups[:MaxGroups]
	}
	result := make([]Group, 0, len(groups))
	for _, group := range groups {
		result = append(result, *group)
	}
	return result
}

// SortChronologically orders entries by timestamp, entries with an unparsable timestamp come
// last, ties are broken on the id.
func SortChronologically(entries []api.LogEntry) []api.LogEntry {
	sorted := append([]api.LogEntry{}, entries...)
	collator := collate.New(language.English)
	sort.SliceStable(sorted, func(i, j int) bool {
		leftMs, leftOk := sorted[i].TimestampMs()
		rightMs, rightOk := sorted[j].TimestampMs()
		switch {
		case leftOk && rightOk && leftMs != rightMs:
			return leftMs < rightMs
		case leftOk != rightOk:
			return leftOk
		}
		return collator.CompareString(sorted[i].ID, sorted[j].ID) < 0
	})
	return sorted
}

type ChainSummary struct {
	Count          int    `json:"count" yaml:"count"`
	Field          string `json:"field" yaml:"field"`
	FirstTimestamp string `json:"firstTimestamp" yaml:"firstTimestamp"`
	LastTimestamp  string `json:"lastTimestamp" yaml:"lastTimestamp"`
	Value          string `json:"value" yaml:"value"`
}

// Chain is the export of every loaded entry of a trace
type Chain struct {
	Correlation ChainSummary      `json:"correlation"`
	Query       query.RemoteQuery `json:"query"`
	Entries     []api.LogEntry    `json:"entries"`
}

// BuildChain selects the loaded entries belonging to the trace, in chronological order.
func BuildChain(loaded []api.LogEntry, trace Info, scope query.RemoteQuery) Chain {
	matching := []api.LogEntry{}
	for _, entry := range loaded {
		if InfoOf(entry) == trace {
			matching = append(matching, entry)
		}
	}
	entries := SortChronologically(matching)

	summary := ChainSummary{Count: len(entries), Field: trace.Field, Value: trace.Value}
	if len(entries) > 0 {
		summary.FirstTimestamp = entries[0].Timestamp
		summary.LastTimestamp = entries[len(entries)-1].Timestamp
	}
	return Chain{Correlation: summary, Query: scope, Entries: entries}
}
