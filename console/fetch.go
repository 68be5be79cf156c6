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
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/view"
)

func elapsedMs(start time.Time) int64 {
	return int64(math.Max(1, math.Round(float64(time.Since(start).Microseconds())/1000)))
}

func loadedStatus(count int, hasMore bool, elapsed int64) string {
	if hasMore {
		return fmt.Sprintf("Loaded %d log entries (more available) in %dms.", count, elapsed)
	}
	return fmt.Sprintf("Loaded %d log entries in %dms.", count, elapsed)
}

// resolveSortField keeps the sort field only while it still is a valid option, the lock must be held
func (c *Console) resolveSortField() {
	c.sort.Field = view.ResolveSortField(c.sort.Field, view.SortFieldOptions(c.loaded))
}

// FetchLogs runs the remote query, replacing the loaded logs.
//
// Starting a fetch supersedes both the previous fetch and any insights request. Once applied,
// the scope is committed and the server insights are refreshed.
func (c *Console) FetchLogs(parent context.Context) (Outcome, error) {
	c.lock.Lock()
	ctx, generation := c.logsRequests.Begin(parent)
	c.insightsRequests.Invalidate()
	q := c.query
	c.setStatus("Loading logs...")
	c.lock.Unlock()

	start := time.Now()
	page, err := c.api.FetchLogs(ctx, q, "")

	c.lock.Lock()
	c.logsRequests.Finish(generation)
	if !c.logsRequests.IsCurrent(generation) {
		c.lock.Unlock()
		log.WithField("generation", generation).Debug("discarding stale logs")
		return Outcome{Stale: true}, nil
	}
	if logs.IsCancellation(err) {
		c.lock.Unlock()
		return Outcome{Cancelled: true}, nil
	}
	if err != nil {
		c.setStatus(err.Error())
		c.lock.Unlock()
		return Outcome{}, err
	}

	c.loaded = page.Entries
	c.hasMore = page.HasMore
	c.nextCursor = page.Cursor()
	c.insights = Insights{}
	c.resolveSortField()
	c.applyLocalView(parent, true, "server query")
	c.setStatus(loadedStatus(len(c.loaded), c.hasMore, elapsedMs(start)))
	c.lock.Unlock()

	c.RefreshInsights(parent)
	return Outcome{Applied: true}, nil
}

// FetchMoreLogs appends the next page of the current query, entries already loaded are skipped.
//
// Without a continuation cursor nothing happens.
func (c *Console) FetchMoreLogs(parent context.Context) (Outcome, error) {
	c.lock.Lock()
	if c.nextCursor == "" {
		c.lock.Unlock()
		return Outcome{}, nil
	}
	ctx, generation := c.logsRequests.Begin(parent)
	q := c.query
	cursor := c.nextCursor
	c.setStatus("Loading more logs...")
	c.lock.Unlock()

	start := time.Now()
	page, err := c.api.FetchLogs(ctx, q, cursor)

	c.lock.Lock()
	defer c.lock.Unlock()
	c.logsRequests.Finish(generation)
	if !c.logsRequests.IsCurrent(generation) {
		return Outcome{Stale: true}, nil
	}
	if logs.IsCancellation(err) {
		return Outcome{Cancelled: true}, nil
	}
	if err != nil {
		c.setStatus(err.Error())
		return Outcome{}, err
	}

	c.loaded = appendUnseen(c.loaded, page.Entries)
	c.hasMore = page.HasMore
	c.nextCursor = page.Cursor()
	c.resolveSortField()
	c.applyLocalView(parent, true, "server query (load more)")
	c.setStatus(loadedStatus(len(c.loaded), c.hasMore, elapsedMs(start)))
	return Outcome{Applied: true}, nil
}

func appendUnseen(loaded []api.LogEntry, page []api.LogEntry) []api.LogEntry {
	seen := make(map[string]struct{}, len(loaded))
	result := make([]api.LogEntry, 0, len(loaded)+len(page))
	for _, entry := range loaded {
		seen[entry.ID] = struct{}{}
		result = append(result, entry)
	}
	for _, entry := range page {
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		seen[entry.ID] = struct{}{}
		result = append(result, entry)
	}
	return result
}

// RunQuery drops the timeline drilldown and fetches the current query
func (c *Console) RunQuery(ctx context.Context) (Outcome, error) {
	c.lock.Lock()
	c.timelineFilter = nil
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}
