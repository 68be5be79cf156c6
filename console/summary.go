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

package console

import (
	"sort"
	"strings"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/correlation"
)

const (
	maxSummaryEntries = 10
	missingKey        = "(none)"
)

// Levels lists the levels of the level distribution, most severe first
var Levels = []string{"ERROR", "WARN", "INFO", "DEBUG"}

type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Summary describes the visible logs, the top lists come from the server insights when available
type Summary struct {
	Loaded            int     `json:"loaded"`
	Visible           int     `json:"visible"`
	Errors            int     `json:"errors"`
	Correlations      int     `json:"correlations"`
	Levels            []Count `json:"levels"`
	TopEvents         []Count `json:"topEvents"`
	TopComponents     []Count `json:"topComponents"`
	ErrorCorrelations []Count `json:"errorCorrelations"`
}

// counter counts keys preserving their first seen order
type counter struct {
	keys   []string
	counts map[string]int64
}

func newCounter() *counter {
	return &counter{keys: []string{}, counts: map[string]int64{}}
}

func (c *counter) add(key string, count int64) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += count
}

// top drops empty keys and non positive counts, keeping the largest counts
func (c *counter) top(limit int) []Count {
	result := []Count{}
	for _, key := range c.keys {
		if key == "" || c.counts[key] <= 0 {
			continue
		}
		result = append(result, Count{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func fromBuckets(buckets []api.AggregateBucket) *counter {
	c := newCounter()
	for _, bucket := range buckets {
		c.add(bucket.Key, bucket.Count)
	}
	return c
}

func orMissing(value string) string {
	if value == "" {
		return missingKey
	}
	return value
}

func levelDistribution(visible []api.LogEntry, buckets []api.AggregateBucket) []Count {
	c := newCounter()
	if len(buckets) > 0 {
		for _, bucket := range buckets {
			c.add(strings.ToUpper(bucket.Key), bucket.Count)
		}
	} else {
		for _, entry := range visible {
			level := strings.ToUpper(entry.Level)
			if level == "" {
				level = "UNKNOWN"
			}
			c.add(level, 1)
		}
	}
	result := make([]Count, 0, len(Levels))
	for _, level := range Levels {
		result = append(result, Count{Key: level, Count: c.counts[level]})
	}
	return result
}

// BuildSummary summarizes the visible logs, non empty insights replace the local top lists
func BuildSummary(loaded []api.LogEntry, visible []api.LogEntry, insights Insights) Summary {
	summary := Summary{Loaded: len(loaded), Visible: len(visible)}

	events := newCounter()
	components := newCounter()
	errorCorrelations := newCounter()
	correlations := map[string]struct{}{}
	for _, entry := range visible {
		events.add(orMissing(entry.Event), 1)
		components.add(orMissing(entry.Lookup("data.component").Text()), 1)
		info := correlation.InfoOf(entry)
		if !info.IsZero() {
			correlations[info.Value] = struct{}{}
		}
		if entry.IsError() {
			summary.Errors++
			if info.IsZero() {
				errorCorrelations.add("(missing)", 1)
			} else {
				errorCorrelations.add(info.Key(), 1)
			}
		}
	}
	summary.Correlations = len(correlations)

	if len(insights.Events) > 0 {
		events = fromBuckets(insights.Events)
	}
	if len(insights.Components) > 0 {
		components = fromBuckets(insights.Components)
	}
	if len(insights.ErrorCorrelations) > 0 {
		errorCorrelations = fromBuckets(insights.ErrorCorrelations)
	}
	summary.TopEvents = events.top(maxSummaryEntries)
	summary.TopComponents = components.top(maxSummaryEntries)
	summary.ErrorCorrelations = errorCorrelations.top(maxSummaryEntries)
	summary.Levels = levelDistribution(visible, insights.Levels)
	return summary
}

func (c *Console) Summary() Summary {
	c.lock.Lock()
	defer c.lock.Unlock()
	return BuildSummary(c.loaded, c.visible, c.insights)
}
