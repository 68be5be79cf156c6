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

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/timeline"
)

func fixtureEntries() []api.LogEntry {
	return []api.LogEntry{
		api.NewLogEntry("1", "2024-01-01T00:00:00.000Z", "INFO", "login", "user logged in",
			api.MustParseValue(`{"user":{"id":7},"latency":12}`)),
		api.NewLogEntry("2", "2024-01-01T01:00:00.000Z", "ERROR", "checkout", "payment declined",
			api.MustParseValue(`{"latency":3,"requestId":"req-A"}`)),
		api.NewLogEntry("3", "bad", "WARN", "Logout", "",
			api.MustParseValue(`{"latency":null}`)),
		api.NewLogEntry("4", "2024-01-01T02:00:00.000Z", "INFO", "apple", "", nil),
	}
}

func ids(entries []api.LogEntry) []string {
	result := []string{}
	for _, entry := range entries {
		result = append(result, entry.ID)
	}
	return result
}

func TestDeriveSort(t *testing.T) {
	var tests = []struct {
		name     string
		sort     Sort
		expected []string
	}{
		{"default", DefaultSort, []string{"3", "4", "2", "1"}},
		{"empty field falls back on timestamp", Sort{Direction: Ascending}, []string{"1", "2", "4", "3"}},
		{"numeric ascending, missing last", Sort{Field: "latency", Direction: Ascending}, []string{"2", "1", "3", "4"}},
		{"numeric descending, missing last", Sort{Field: "data.latency", Direction: Descending}, []string{"1", "2", "3", "4"}},
		{"text ascending", Sort{Field: "event", Direction: Ascending}, []string{"4", "2", "1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible := Derive(fixtureEntries(), DefaultFilter, tt.sort, nil)
			assert.Equal(t, tt.expected, ids(visible))
		})
	}
}

func TestDeriveFilter(t *testing.T) {
	var tests = []struct {
		name     string
		filter   LocalFilter
		expected []string
	}{
		{"empty value", LocalFilter{Field: "level", Value: "  "}, []string{"1", "2", "3", "4"}},
		{"equals is case insensitive", LocalFilter{Field: "level", Value: "error", Mode: MatchEquals}, []string{"2"}},
		{"equals needs the whole value", LocalFilter{Field: "level", Value: "inf", Mode: MatchEquals}, []string{}},
		{"contains", LocalFilter{Field: "level", Value: "inf", Mode: MatchContains}, []string{"1", "4"}},
		{"falls back under data", LocalFilter{Field: "latency", Value: "12"}, []string{"1"}},
		{"nested path", LocalFilter{Field: "data.user.id", Value: "7", Mode: MatchEquals}, []string{"1"}},
		{"wildcard", LocalFilter{Field: WildcardField, Value: "REQ-a"}, []string{"2"}},
		{"no field matches the whole entry", LocalFilter{Value: "declined"}, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible := Derive(fixtureEntries(), tt.filter, Sort{Field: "id", Direction: Ascending}, nil)
			assert.Equal(t, tt.expected, ids(visible))
		})
	}
}

func TestDeriveTimelineWindow(t *testing.T) {
	from, _ := api.ParseTimestampMs("2024-01-01T00:00:00.000Z")
	to, _ := api.ParseTimestampMs("2024-01-01T02:00:00.000Z")
	window := &timeline.Filter{FromMs: from, ToMs: to, Key: "k", Label: "l"}

	visible := Derive(fixtureEntries(), DefaultFilter, Sort{Field: "id", Direction: Ascending}, window)
	assert.Equal(t, []string{"1", "2"}, ids(visible))
}

func TestDeriveKeepsLoadedOrder(t *testing.T) {
	loaded := fixtureEntries()
	_ = Derive(loaded, DefaultFilter, Sort{Field: "event", Direction: Ascending}, nil)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(loaded))
}

func TestCompare(t *testing.T) {
	comparator := NewComparator()

	assert.Equal(t, -1, comparator.Compare(api.NewNumber(2), api.NewNumber(10), Ascending))
	assert.Equal(t, 1, comparator.Compare(api.NewNumber(2), api.NewNumber(10), Descending))
	assert.Equal(t, 0, comparator.Compare(api.NewString("a"), api.NewString("a"), Descending))
	assert.Equal(t, 1, comparator.Compare(nil, api.NewString("a"), Ascending))
	assert.Equal(t, 1, comparator.Compare(api.Null(), api.NewString("a"), Descending))
	assert.Equal(t, -1, comparator.Compare(api.NewString("a"), nil, Descending))
	assert.Equal(t, 0, comparator.Compare(nil, api.Null(), Ascending))
	assert.Less(t, comparator.Compare(api.NewString("apple"), api.NewString("Banana"), Ascending), 0)
}

func TestFieldPaths(t *testing.T) {
	entries := fixtureEntries()

	assert.Equal(t, []string{
		"data.latency",
		"data.requestId",
		"data.user.id",
		"event",
		"id",
		"level",
		"message",
		"timestamp",
	}, FieldPaths(entries))

	options := SortFieldOptions(entries)
	assert.Equal(t, []string{
		"timestamp", "level", "event", "message",
		"data.correlationId", "data.requestId", "data.customerId", "data.component",
		"data.latency", "data.user.id", "id",
	}, options)
	assert.Equal(t, WildcardField, FilterFieldOptions(entries)[0])

	assert.Equal(t, "data.latency", ResolveSortField("data.latency", options))
	assert.Equal(t, "timestamp", ResolveSortField("data.unknown", options))
}

func TestParseOptions(t *testing.T) {
	assert.Equal(t, MatchEquals, ParseMatchMode(" EQUALS "))
	assert.Equal(t, MatchContains, ParseMatchMode("regex"))
	assert.Equal(t, Ascending, ParseDirection("asc"))
	assert.Equal(t, Descending, ParseDirection(""))
}
