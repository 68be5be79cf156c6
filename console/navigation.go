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
	"errors"
	"fmt"
	"strings"

	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/scopes"
	"github.com/mikroscope/console/timeline"
	"github.com/mikroscope/console/view"
)

// primaryFilterChanged drops the trace focus and the timeline drilldown, the lock must be held
func (c *Console) primaryFilterChanged(reason string) {
	if c.query.HasTraceFilter() {
		c.query.Field = ""
		c.query.Value = ""
		c.setStatus(fmt.Sprintf("Correlation filter cleared (%s).", reason))
	}
	c.timelineFilter = nil
	c.applyLocalView(context.Background(), false, "")
}

// SetLevel changes the level filter of the remote query without fetching
func (c *Console) SetLevel(level string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.primaryFilterChanged("level changed")
	c.query = c.canonicalQuery(query.With(c.query, "level", level))
}

// SetAudit changes the audit filter of the remote query without fetching
func (c *Console) SetAudit(audit string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.primaryFilterChanged("audit changed")
	c.query = c.canonicalQuery(query.With(c.query, "audit", audit))
}

// SetRange changes the time range of the remote query without fetching, bounds may be local date times
func (c *Console) SetRange(from string, to string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.primaryFilterChanged("from/to changed")
	q := c.query
	q.From = from
	q.To = to
	c.query = c.canonicalQuery(q)
}

// SetRangeHours sets the range to the last hours and fetches, zero hours clears the range
func (c *Console) SetRangeHours(ctx context.Context, hours int) (Outcome, error) {
	c.lock.Lock()
	c.primaryFilterChanged("range change")
	if hours > 0 {
		c.query.From, c.query.To = query.RangeHours(c.now(), hours)
	} else {
		c.query.From, c.query.To = "", ""
	}
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

// SetServerFilter changes the field filter of the remote query without fetching
func (c *Console) SetServerFilter(field string, value string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	q := c.query
	q.Field = field
	q.Value = value
	c.query = c.canonicalQuery(q)
	c.changed()
}

// SetLimit changes the page size, it is clamped to [1, 1000]
func (c *Console) SetLimit(limit string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.query = c.canonicalQuery(query.With(c.query, "limit", limit))
	c.changed()
}

// ApplyPreset replaces the remote query by a pinned query and fetches
func (c *Console) ApplyPreset(ctx context.Context, name string) (Outcome, error) {
	c.lock.Lock()
	q, err := query.Preset(name, c.now())
	if err != nil {
		c.setStatus(err.Error())
		c.lock.Unlock()
		return Outcome{}, err
	}
	c.timelineFilter = nil
	c.query = q
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

// ResetToBaseline goes back to the unfiltered last 30 days in the stream view
func (c *Console) ResetToBaseline(ctx context.Context) (Outcome, error) {
	c.lock.Lock()
	c.query = query.Baseline(c.now())
	c.filter = view.DefaultFilter
	c.sort = view.DefaultSort
	c.timelineFilter = nil
	c.bucketOverride = nil
	c.activeView = scopes.ViewStream
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

// focusTrace filters the remote query on a trace and fetches it in the stream view
func (c *Console) focusTrace(ctx context.Context, field string, value string) (Outcome, error) {
	c.lock.Lock()
	c.query.Field = field
	c.query.Value = value
	c.timelineFilter = nil
	c.activeView = scopes.ViewStream
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

// DrilldownCorrelation focuses the remote query on a correlation group, the "trace" field
// picks the correlation or request id field from the value.
func (c *Console) DrilldownCorrelation(ctx context.Context, field string, value string) (Outcome, error) {
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return Outcome{}, nil
	}
	if field == "trace" {
		field = query.ResolveTraceField(query.TraceModeAuto, value)
	}
	return c.focusTrace(ctx, field, value)
}

// NavigateTrace focuses the remote query on a trace, an empty value clears the trace focus.
func (c *Console) NavigateTrace(ctx context.Context, mode string, value string) (Outcome, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return c.ClearTrace(ctx)
	}
	return c.focusTrace(ctx, query.ResolveTraceField(mode, value), value)
}

func (c *Console) ClearTrace(ctx context.Context) (Outcome, error) {
	c.lock.Lock()
	c.query.Field = ""
	c.query.Value = ""
	c.timelineFilter = nil
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

// Timeline builds the timeline of the loaded logs for the given plotting width
func (c *Console) Timeline(width int) timeline.Timeline {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.buildTimeline(width)
}

func (c *Console) buildTimeline(width int) timeline.Timeline {
	if width <= 0 {
		width = DefaultTimelineWidth
	}
	window := timeline.ResolveWindow(c.query, c.loaded, c.now())
	return timeline.Build(c.loaded, window, timeline.Options{
		BucketMsOverride: c.bucketOverride,
		AvailableWidth:   width,
		Location:         c.loc,
	})
}

func (c *Console) TimelineFilter() *timeline.Filter {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.timelineFilter.Clone()
}

func (c *Console) TimelineBucketOverride() *int64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return copyOverride(c.bucketOverride)
}

// SelectTimelineBucket toggles the drilldown on a bucket and commits the resulting scope
func (c *Console) SelectTimelineBucket(ctx context.Context, bucket timeline.Bucket) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	filter, err := timeline.Toggle(c.timelineFilter, bucket)
	if errors.Is(err, timeline.ErrEmptyBucket) {
		c.setStatus("No logs for selected timeline bucket.")
		return err
	}
	if err != nil {
		return err
	}

	c.timelineFilter = filter
	c.activeView = scopes.ViewStream
	if filter == nil {
		c.applyLocalView(ctx, true, "timeline drilldown cleared")
		c.setStatus("Timeline drilldown cleared.")
		return nil
	}
	c.applyLocalView(ctx, true, "timeline drilldown")
	c.setStatus("Drilled into " + filter.Label)
	return nil
}

func (c *Console) ClearTimelineFilter(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.timelineFilter = nil
	c.applyLocalView(ctx, true, "timeline drilldown cleared")
}

// SetTimelineBucketOverride forces the bucket size, nil or a non positive size goes back to
// auto-fit. The drilldown is dropped as bucket boundaries change.
func (c *Console) SetTimelineBucketOverride(ctx context.Context, bucketMs *int64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.timelineFilter = nil
	if bucketMs == nil || *bucketMs <= 0 {
		c.bucketOverride = nil
		c.applyLocalView(ctx, true, "timeline bucket")
		c.setStatus("Timeline bucket size set to auto-fit.")
		return
	}
	c.bucketOverride = copyOverride(bucketMs)
	c.applyLocalView(ctx, true, "timeline bucket")
	c.setStatus("Timeline bucket size set to " + timeline.FormatBucketSize(*bucketMs) + ".")
}

// HydrateFromLocator applies the query encoded in a locator query string, it reports whether
// one was found. Without any, the range defaults to the last 30 days.
func (c *Console) HydrateFromLocator(rawQuery string) (bool, error) {
	q, hasQuery, err := query.Parse(rawQuery)
	if err != nil {
		return false, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if hasQuery {
		c.query = c.canonicalQuery(q)
	}
	if c.query.From == "" && c.query.To == "" {
		c.query.From, c.query.To = query.RangeHours(c.now(), query.BaselineRangeHours)
	}
	c.changed()
	return hasQuery, nil
}

// Locator renders the current query as a shareable locator
func (c *Console) Locator(path string, rawQuery string, fragment string) string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return query.BuildViewPath(path, rawQuery, fragment, c.query)
}
