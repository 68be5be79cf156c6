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

package fixture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/correlation"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/view"
)

const (
	defaultPageLimit      = query.DefaultLimit
	maxPageLimit          = query.MaxLimit
	defaultAggregateLimit = 10
	maxAggregateLimit     = 100
)

type filters struct {
	fromMs   *int64
	toMs     *int64
	level    string
	audit    string
	field    string
	value    string
	hasField bool
}

func parseInstant(c *gin.Context, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	ms, ok := api.ParseTimestampMs(raw)
	if !ok {
		return nil, fmt.Errorf("invalid %q timestamp %q", key, raw)
	}
	return &ms, nil
}

func parseFilters(c *gin.Context) (filters, error) {
	f := filters{
		level: strings.ToUpper(strings.TrimSpace(c.Query("level"))),
		audit: strings.ToLower(strings.TrimSpace(c.Query("audit"))),
		field: strings.TrimSpace(c.Query("field")),
		value: strings.TrimSpace(c.Query("value")),
	}
	f.hasField = f.field != "" && f.value != ""

	var err error
	if f.fromMs, err = parseInstant(c, "from"); err != nil {
		return filters{}, err
	}
	if f.toMs, err = parseInstant(c, "to"); err != nil {
		return filters{}, err
	}
	if f.audit != "" && f.audit != "true" && f.audit != "false" {
		return filters{}, fmt.Errorf("invalid audit filter %q, expecting true or false", f.audit)
	}
	return f, nil
}

func isAudit(entry api.LogEntry) bool {
	return entry.Lookup("audit").Truthy() || entry.Data.Get("audit").Truthy()
}

func (f filters) matches(entry api.LogEntry) bool {
	if f.fromMs != nil || f.toMs != nil {
		ms, ok := entry.TimestampMs()
		if !ok || (f.fromMs != nil && ms < *f.fromMs) || (f.toMs != nil && ms > *f.toMs) {
			return false
		}
	}
	if f.level != "" && strings.ToUpper(entry.Level) != f.level {
		return false
	}
	if f.audit != "" && isAudit(entry) != (f.audit == "true") {
		return false
	}
	if f.hasField && view.Resolve(entry, f.field).Text() != f.value {
		return false
	}
	return true
}

func (f filters) apply(entries []api.LogEntry) []api.LogEntry {
	result := []api.LogEntry{}
	for _, entry := range entries {
		if f.matches(entry) {
			result = append(result, entry)
		}
	}
	return result
}

// parseLimit clamps the limit to [1, max], anything unparsable gives the default
func parseLimit(raw string, defaultLimit int, max int) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

type cursor struct {
	Offset int `json:"offset"`
}

func encodeCursor(offset int) string {
	raw, _ := json.Marshal(cursor{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(encoded string) (int, error) {
	if encoded == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q", encoded)
	}
	decoded := cursor{}
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.Offset < 0 {
		return 0, fmt.Errorf("invalid cursor %q", encoded)
	}
	return decoded.Offset, nil
}

type grouping struct {
	by    string
	field string
}

func parseGrouping(by string, field string) (grouping, error) {
	g := grouping{by: strings.TrimSpace(by), field: strings.TrimSpace(field)}
	switch g.by {
	case logs.GroupByLevel, logs.GroupByEvent, logs.GroupByCorrelation:
		return g, nil
	case logs.GroupByField:
		if g.field == "" {
			return grouping{}, fmt.Errorf("groupBy %q requires a groupField", g.by)
		}
		return g, nil
	}
	return grouping{}, fmt.Errorf(
		"invalid groupBy %q, expecting one of %v",
		g.by,
		[]string{logs.GroupByLevel, logs.GroupByEvent, logs.GroupByField, logs.GroupByCorrelation},
	)
}

func (g grouping) key(entry api.LogEntry) string {
	switch g.by {
	case logs.GroupByLevel:
		return strings.ToUpper(entry.Level)
	case logs.GroupByEvent:
		return entry.Event
	case logs.GroupByField:
		return view.Resolve(entry, g.field).Text()
	case logs.GroupByCorrelation:
		info := correlation.InfoOf(entry)
		if info.IsZero() {
			return ""
		}
		return info.Key()
	}
	return ""
}

// aggregate counts entries per key, largest counts first, entries with an empty key are ignored
func aggregate(entries []api.LogEntry, g grouping, limit int) []api.AggregateBucket {
	counts := map[string]int64{}
	for _, entry := range entries {
		if key := g.key(entry); key != "" {
			counts[key]++
		}
	}
	buckets := make([]api.AggregateBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, api.AggregateBucket{Key: key, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}
