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
	"strings"

	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/scopes"
)

var ErrMissingScopeID = errors.New("missing recent scope id")

func (c *Console) History() []scopes.Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.history.Stack()
}

func (c *Console) RecentScopes() []scopes.Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.history.Recent()
}

func (c *Console) Trail() []scopes.TrailItem {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.history.Trail()
}

// CurrentScope returns the last committed scope
func (c *Console) CurrentScope() (scopes.Snapshot, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.history.LastApplied()
}

// restore applies a snapshot, refetching only when its remote query differs from the current
// one. It reports whether the snapshot was applied.
func (c *Console) restore(ctx context.Context, snapshot scopes.Snapshot, reason string) (bool, error) {
	c.lock.Lock()
	snapshot.Query = c.canonicalQuery(snapshot.Query)
	target := scopes.Normalize(snapshot, reason, c.now(), c.loc)
	queryChanged := query.Signature(target.Query) != query.Signature(c.query)

	c.history.BeginRestore()
	c.query = target.Query
	c.timelineFilter = target.TimelineFilter.Clone()
	c.bucketOverride = copyOverride(target.TimelineBucketMsOverride)
	c.activeView = target.ActiveView
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		c.history.EndRestore()
		c.lock.Unlock()
	}()

	if queryChanged {
		outcome, err := c.FetchLogs(ctx)
		if err != nil || !outcome.Applied {
			return false, err
		}
	} else {
		c.ApplyLocalView(ctx, true, reason)
	}

	c.lock.Lock()
	c.setStatus("Restored scope: " + target.Label)
	c.lock.Unlock()
	return true, nil
}

// RestoreScope applies an arbitrary snapshot, e.g. one exported earlier
func (c *Console) RestoreScope(ctx context.Context, snapshot scopes.Snapshot, reason string) (bool, error) {
	if reason == "" {
		reason = "scope restore"
	}
	return c.restore(ctx, snapshot, reason)
}

// RestorePreviousScope pops the back history and restores its top, the history is left
// unchanged when the restore does not apply.
func (c *Console) RestorePreviousScope(ctx context.Context) (bool, error) {
	c.lock.Lock()
	target, rollback, err := c.history.PopPrevious()
	if err != nil {
		c.setStatus("No previous scope available.")
		c.lock.Unlock()
		return false, err
	}
	c.lock.Unlock()

	return c.restoreOrRollback(ctx, target, "scope back", rollback)
}

// RestoreScopeByHistoryIndex drops every history entry from index on and restores the entry at index
func (c *Console) RestoreScopeByHistoryIndex(ctx context.Context, index int) (bool, error) {
	c.lock.Lock()
	target, rollback, err := c.history.TruncateAt(index)
	c.lock.Unlock()
	if err != nil {
		return false, err
	}

	return c.restoreOrRollback(ctx, target, "scope trail", rollback)
}

func (c *Console) restoreOrRollback(ctx context.Context, target scopes.Snapshot, reason string, rollback func()) (bool, error) {
	applied, err := c.restore(ctx, target, reason)
	if !applied {
		c.lock.Lock()
		rollback()
		c.changed()
		c.lock.Unlock()
	}
	return applied, err
}

// RestoreRecentScope restores one of the recent scopes by id
func (c *Console) RestoreRecentScope(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	c.lock.Lock()
	if id == "" {
		c.setStatus("Select a recent scope to restore.")
		c.lock.Unlock()
		return false, ErrMissingScopeID
	}
	target, err := c.history.FindRecent(id)
	if err != nil {
		c.setStatus("Selected scope was not found.")
		c.lock.Unlock()
		return false, err
	}
	c.lock.Unlock()

	return c.restore(ctx, target, "recent scope")
}
