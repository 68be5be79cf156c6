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
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/correlation"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/saved"
	"github.com/mikroscope/console/scopes"
	"github.com/mikroscope/console/store"
	"github.com/mikroscope/console/timeline"
	"github.com/mikroscope/console/utils"
	"github.com/mikroscope/console/view"
)

var log = logrus.WithField("component", "console")

// DefaultTimelineWidth is the plotting width used when none is provided
const DefaultTimelineWidth = 720

// LogsAPI is the remote service queried by the console, *logs.Client implements it.
type LogsAPI interface {
	FetchLogs(ctx context.Context, q query.RemoteQuery, cursor string) (*api.LogsPage, error)
	Aggregate(ctx context.Context, scope query.RemoteQuery, request logs.AggregateRequest) ([]api.AggregateBucket, error)
}

// Outcome describes what happened to a fetch class operation.
//
// A cancelled or stale operation is not an error, it simply has no effect.
type Outcome struct {
	Applied   bool
	Cancelled bool
	Stale     bool
}

type Options struct {
	// Location is used to interpret local date times and to render labels, defaults to time.Local
	Location *time.Location
	// Now defaults to time.Now
	Now func() time.Time
}

// Console owns the exploration state: the remote query, the loaded and visible logs, the
// local view parameters, the timeline filter and the scope history.
//
// Every method is safe for concurrent use. The state lock is never held during a network call,
// results are applied only when their request generation is still current.
type Console struct {
	lock sync.Mutex

	api LogsAPI
	kv  store.Store
	loc *time.Location
	now func() time.Time

	query          query.RemoteQuery
	filter         view.LocalFilter
	sort           view.Sort
	activeView     scopes.View
	timelineFilter *timeline.Filter
	bucketOverride *int64

	loaded     []api.LogEntry
	visible    []api.LogEntry
	groups     []correlation.Group
	hasMore    bool
	nextCursor string
	insights   Insights
	status     string
	theme      string

	logsRequests     utils.RequestTracker
	insightsRequests utils.RequestTracker

	history    *scopes.History
	saved      *saved.List
	observable *utils.Observable
}

// New creates a console querying logsAPI and persisting its preferences to kv
func New(logsAPI LogsAPI, kv store.Store, options Options) *Console {
	loc := options.Location
	if loc == nil {
		loc = time.Local
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &Console{
		api:        logsAPI,
		kv:         kv,
		loc:        loc,
		now:        now,
		query:      query.RemoteQuery{Limit: strconv.Itoa(query.DefaultLimit)},
		filter:     view.DefaultFilter,
		sort:       view.DefaultSort,
		activeView: scopes.ViewStream,
		loaded:     []api.LogEntry{},
		visible:    []api.LogEntry{},
		groups:     []correlation.Group{},
		history:    scopes.NewHistory(kv, scopes.Options{Location: loc, Now: now}),
		saved:      saved.NewList(kv, now),
		observable: utils.NewObservable(),
	}
}

// Load reads the persisted preferences, corrupted values are reset and never fail the load.
func (c *Console) Load(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.saved.Load(ctx); err != nil {
		log.WithError(err).Debug("saved queries reset")
	}
	if err := c.history.Load(ctx); err != nil {
		log.WithError(err).Debug("recent scopes reset")
	}
	c.loadTheme(ctx)
	c.changed()
}

// Subscribe returns an observer notified after every state change
func (c *Console) Subscribe() *utils.Observer {
	return c.observable.Subscribe()
}

func (c *Console) Unsubscribe(observer *utils.Observer) {
	c.observable.Unsubscribe(observer)
}

func (c *Console) changed() {
	c.observable.Emit()
}

func (c *Console) setStatus(status string) {
	c.status = status
	c.changed()
}

func (c *Console) Status() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.status
}

// canonicalQuery resolves local date times and normalizes the query, an empty limit is
// replaced by the default one.
func (c *Console) canonicalQuery(q query.RemoteQuery) query.RemoteQuery {
	canonical := query.Normalize(query.CanonicalRange(q, c.loc))
	if canonical.Limit == "" {
		canonical.Limit = strconv.Itoa(query.DefaultLimit)
	}
	return canonical
}

// SetQuery replaces the remote query without fetching
func (c *Console) SetQuery(q query.RemoteQuery) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.query = c.canonicalQuery(q)
	c.changed()
}

func (c *Console) Query() query.RemoteQuery {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.query
}

// scope captures the current scope, the lock must be held
func (c *Console) scope(reason string) scopes.Snapshot {
	return c.history.Capture(scopes.Snapshot{
		ActiveView:               c.activeView,
		Query:                    c.query,
		TimelineFilter:           c.timelineFilter.Clone(),
		TimelineBucketMsOverride: copyOverride(c.bucketOverride),
	}, reason)
}

func copyOverride(override *int64) *int64 {
	if override == nil {
		return nil
	}
	value := *override
	return &value
}

// commitScope records the current scope in the history, the lock must be held
func (c *Console) commitScope(ctx context.Context, reason string) {
	if _, err := c.history.Commit(ctx, c.scope(reason)); err != nil {
		c.setStatus("Could not persist recent scopes.")
	}
}

// CommitScope records the current scope in the scope history
func (c *Console) CommitScope(ctx context.Context, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.commitScope(ctx, reason)
	c.changed()
}

// applyLocalView recomputes the visible logs and their derived structures, the lock must be held
func (c *Console) applyLocalView(ctx context.Context, commit bool, reason string) {
	c.visible = view.Derive(c.loaded, c.filter, c.sort, c.timelineFilter)
	c.groups = correlation.BuildGroups(c.visible)
	if commit {
		if reason == "" {
			reason = "scope change"
		}
		c.commitScope(ctx, reason)
	}
	c.changed()
}

// ApplyLocalView recomputes the visible logs, optionally committing the resulting scope
func (c *Console) ApplyLocalView(ctx context.Context, commit bool, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.applyLocalView(ctx, commit, reason)
}

func (c *Console) SetLocalFilter(filter view.LocalFilter) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.filter = view.LocalFilter{Field: filter.Field, Value: filter.Value, Mode: view.ParseMatchMode(string(filter.Mode))}
	c.applyLocalView(context.Background(), false, "")
}

func (c *Console) LocalFilter() view.LocalFilter {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.filter
}

// SetSort changes the sort, an unknown field falls back on the timestamp
func (c *Console) SetSort(order view.Sort) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sort = view.Sort{
		Field:     view.ResolveSortField(order.Field, view.SortFieldOptions(c.loaded)),
		Direction: view.ParseDirection(string(order.Direction)),
	}
	c.applyLocalView(context.Background(), false, "")
}

func (c *Console) Sort() view.Sort {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sort
}

// ClearLocalFilter resets both the local filter and the sort
func (c *Console) ClearLocalFilter() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.filter = view.DefaultFilter
	c.sort = view.DefaultSort
	c.applyLocalView(context.Background(), false, "")
}

func (c *Console) SetActiveView(v scopes.View) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.activeView = scopes.ParseView(string(v))
	c.changed()
}

func (c *Console) ActiveView() scopes.View {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.activeView
}

// Loaded returns a copy of the loaded logs
func (c *Console) Loaded() []api.LogEntry {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]api.LogEntry{}, c.loaded...)
}

// Visible returns a copy of the visible logs
func (c *Console) Visible() []api.LogEntry {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]api.LogEntry{}, c.visible...)
}

func (c *Console) CorrelationGroups() []correlation.Group {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]correlation.Group{}, c.groups...)
}

// HasMore reports whether a next page can be loaded
func (c *Console) HasMore() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.hasMore && c.nextCursor != ""
}

// FieldPaths lists the filter field options: the wildcard, the base fields and the loaded paths
func (c *Console) FieldPaths() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return view.FilterFieldOptions(c.loaded)
}

// SortFields lists the sort field options
func (c *Console) SortFields() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return view.SortFieldOptions(c.loaded)
}

// CorrelationChain exports every loaded entry of the trace in chronological order
func (c *Console) CorrelationChain(field string, value string) (correlation.Chain, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if field == "" || value == "" {
		return correlation.Chain{}, errors.New("a correlation field and value are required")
	}
	return correlation.BuildChain(c.loaded, correlation.Info{Field: field, Value: value}, c.query), nil
}
