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
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/timeline"
)

type MatchMode string

const (
	MatchContains MatchMode = "contains"
	MatchEquals   MatchMode = "equals"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// WildcardField matches against the whole serialized entry
const WildcardField = "*"

// LocalFilter is applied to the loaded entries without querying the server
type LocalFilter struct {
	Field string    `json:"field"`
	Value string    `json:"value"`
	Mode  MatchMode `json:"mode"`
}

type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

var (
	DefaultFilter = LocalFilter{Mode: MatchContains}
	DefaultSort   = Sort{Field: "timestamp", Direction: Descending}
)

func ParseMatchMode(mode string) MatchMode {
	if MatchMode(strings.ToLower(strings.TrimSpace(mode))) == MatchEquals {
		return MatchEquals
	}
	return MatchContains
}

func ParseDirection(direction string) Direction {
	if Direction(strings.ToLower(strings.TrimSpace(direction))) == Ascending {
		return Ascending
	}
	return Descending
}

// Resolve looks up a dotted path on the entry, falling back to the same path under `data`.
func Resolve(entry api.LogEntry, path string) *api.Value {
	value := entry.Lookup(path)
	if value == nil && !strings.HasPrefix(path, "data.") {
		value = entry.Data.Lookup(path)
	}
	return value
}

// Matches tells if the entry passes the local filter, an empty value matches everything.
func Matches(entry api.LogEntry, filter LocalFilter) bool {
	value := strings.TrimSpace(filter.Value)
	if value == "" {
		return true
	}
	needle := strings.ToLower(value)

	field := strings.TrimSpace(filter.Field)
	if field == "" || field == WildcardField {
		serialized, err := entry.MarshalJSON()
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(string(serialized)), needle)
	}

	candidate := strings.ToLower(Resolve(entry, field).Text())
	if filter.Mode == MatchEquals {
		return candidate == needle
	}
	return strings.Contains(candidate, needle)
}

func inWindow(entry api.LogEntry, window *timeline.Filter) bool {
	if window == nil {
		return true
	}
	ms, ok := entry.TimestampMs()
	return ok && window.Contains(ms)
}

// Derive computes the visible entries: the loaded entries passing the filter and the timeline
// window, sorted. The loaded slice is left untouched.
func Derive(loaded []api.LogEntry, filter LocalFilter, order Sort, window *timeline.Filter) []api.LogEntry {
	visible := make([]api.LogEntry, 0, len(loaded))
	for _, entry := range loaded {
		if inWindow(entry, window) && Matches(entry, filter) {
			visible = append(visible, entry)
		}
	}

	field := strings.TrimSpace(order.Field)
	if field == "" {
		field = DefaultSort.Field
	}
	keys := make([]*api.Value, len(visible))
	for idx, entry := range visible {
		keys[idx] = Resolve(entry, field)
	}
	indices := make([]int, len(visible))
	for idx := range indices {
		indices[idx] = idx
	}

	comparator := NewComparator()
	sort.SliceStable(indices, func(i, j int) bool {
		return comparator.Compare(keys[indices[i]], keys[indices[j]], order.Direction) < 0
	})

	sorted := make([]api.LogEntry, len(visible))
	for idx, original := range indices {
		sorted[idx] = visible[original]
	}
	return sorted
}

// Comparator orders sort keys, it is not safe for concurrent use.
type Comparator struct {
	collator *collate.Collator
}

func NewComparator() *Comparator {
	return &Comparator{collator: collate.New(language.English)}
}

func isMissing(value *api.Value) bool {
	return value == nil || value.IsNull()
}

// Compare returns a negative number when a sorts before b. Missing values always sort last,
// numbers compare numerically, anything else compares as locale aware text.
func (c *Comparator) Compare(a *api.Value, b *api.Value, direction Direction) int {
	aMissing, bMissing := isMissing(a), isMissing(b)
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	}

	multiplier := 1
	if direction == Descending {
		multiplier = -1
	}

	if a.Kind() == api.KindNumber && b.Kind() == api.KindNumber {
		an, _ := a.Number()
		bn, _ := b.Number()
		switch {
		case an < bn:
			return -multiplier
		case an > bn:
			return multiplier
		}
		return 0
	}

	at, bt := a.Text(), b.Text()
	if at == bt {
		return 0
	}
	return c.collator.CompareString(at, bt) * multiplier
}
