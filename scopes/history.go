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

package scopes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/store"
)

var log = logrus.WithField("component", "scopes")

const (
	MaxRecent   = 16
	MaxHistory  = 24
	TrailWindow = 3
)

var (
	ErrNoPreviousScope = errors.New("no previous scope available")
	ErrUnknownScope    = errors.New("scope not found")
)

type InvalidHistoryIndexError struct {
	Index int
	Size  int
}

func (e *InvalidHistoryIndexError) Error() string {
	return fmt.Sprintf("invalid scope history index %d, expecting a value in [0, %d)", e.Index, e.Size)
}

// CommitResult tells what a commit changed
type CommitResult struct {
	// Pushed is set when the previous scope was pushed on the back history
	Pushed bool
	// Changed is set when the committed scope differs from the previous one
	Changed bool
}

// TrailItem is one step of the trail, non current items can be restored by their history index
type TrailItem struct {
	Snapshot     Snapshot
	HistoryIndex int
	Current      bool
}

// History tracks the last applied scope, the back history stack and the recent scopes ring.
//
// It is not safe for concurrent use.
type History struct {
	kv          store.Store
	loc         *time.Location
	now         func() time.Time
	lastApplied *Snapshot
	stack       []Snapshot
	recent      []Snapshot
	restoring   bool
}

type Options struct {
	Location *time.Location
	// Now defaults to time.Now
	Now func() time.Time
}

// NewHistory creates an empty history persisting recent scopes to kv
func NewHistory(kv store.Store, options Options) *History {
	h := &History{
		kv:     kv,
		loc:    options.Location,
		now:    options.Now,
		stack:  []Snapshot{},
		recent: []Snapshot{},
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Load reads the persisted recent scopes, a corrupted document resets them and is reported.
func (h *History) Load(ctx context.Context) error {
	h.recent = []Snapshot{}

	document := &api.Value{}
	err := store.LoadJSON(ctx, h.kv, store.KeyRecentScopes, document)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if document.Kind() != api.KindArray {
		return store.NewCorruptedValueError(
			store.KeyRecentScopes,
			fmt.Errorf("expected a list got %s", document.Kind()),
		)
	}

	now := h.now()
	for _, item := range document.Items() {
		snapshot, ok := FromValue(item, now, h.loc)
		if !ok {
			continue
		}
		h.recent = append(h.recent, snapshot)
		if len(h.recent) == MaxRecent {
			break
		}
	}
	return nil
}

func (h *History) persistRecent(ctx context.Context) error {
	if err := store.SaveJSON(ctx, h.kv, store.KeyRecentScopes, h.recent); err != nil {
		log.WithError(err).Debug("unable to persist recent scopes")
		return err
	}
	return nil
}

// Capture builds a normalized snapshot of the given scope at the current time
func (h *History) Capture(s Snapshot, reason string) Snapshot {
	now := h.now()
	s.ID = ""
	s.Label = ""
	s.Signature = ""
	s.CreatedAt = now.UnixMilli()
	s.Reason = reason
	return Normalize(s, reason, now, h.loc)
}

// upsertRecent moves a fresh copy of the snapshot at the front of the recent scopes
func (h *History) upsertRecent(ctx context.Context, s Snapshot) error {
	now := h.now()
	s.CreatedAt = now.UnixMilli()
	s.ID = ""
	snapshot := Normalize(s, "", now, h.loc)

	recent := make([]Snapshot, 0, len(h.recent)+1)
	recent = append(recent, snapshot)
	for _, existing := range h.recent {
		if existing.Signature != snapshot.Signature {
			recent = append(recent, existing)
		}
	}
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	h.recent = recent
	return h.persistRecent(ctx)
}

// Commit records the snapshot as the last applied scope.
//
// The previous scope is pushed on the back history when the signature changes, unless a
// restore is in progress or it already is on top. The returned error only reports a
// persistence failure, the history itself is always updated.
func (h *History) Commit(ctx context.Context, s Snapshot) (CommitResult, error) {
	if h.lastApplied == nil {
		h.lastApplied = &s
		return CommitResult{Changed: true}, h.upsertRecent(ctx, s)
	}

	if h.lastApplied.Signature == s.Signature {
		h.lastApplied = &s
		return CommitResult{}, nil
	}

	result := CommitResult{Changed: true}
	if !h.restoring {
		previous := *h.lastApplied
		if len(h.stack) == 0 || h.stack[len(h.stack)-1].Signature != previous.Signature {
			h.stack = append(h.stack, previous)
			if len(h.stack) > MaxHistory {
				h.stack = append([]Snapshot{}, h.stack[len(h.stack)-MaxHistory:]...)
			}
			result.Pushed = true
		}
	}
	h.lastApplied = &s
	return result, h.upsertRecent(ctx, s)
}

func (h *History) LastApplied() (Snapshot, bool) {
	if h.lastApplied == nil {
		return Snapshot{}, false
	}
	return *h.lastApplied, true
}

// Stack returns a copy of the back history, oldest first
func (h *History) Stack() []Snapshot {
	return append([]Snapshot{}, h.stack...)
}

// Recent returns a copy of the recent scopes, most recent first
func (h *History) Recent() []Snapshot {
	return append([]Snapshot{}, h.recent...)
}

func (h *History) FindRecent(id string) (Snapshot, error) {
	for _, snapshot := range h.recent {
		if snapshot.ID == id {
			return snapshot, nil
		}
	}
	return Snapshot{}, ErrUnknownScope
}

func (h *History) Restoring() bool {
	return h.restoring
}

// BeginRestore suppresses back history pushes until EndRestore is called
func (h *History) BeginRestore() {
	h.restoring = true
}

func (h *History) EndRestore() {
	h.restoring = false
}

func (h *History) restoreStack(stack []Snapshot) func() {
	return func() {
		h.stack = stack
	}
}

// PopPrevious removes the top of the back history, the returned rollback puts it back.
func (h *History) PopPrevious() (Snapshot, func(), error) {
	if len(h.stack) == 0 {
		return Snapshot{}, func() {}, ErrNoPreviousScope
	}
	previous := h.Stack()
	target := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1:len(h.stack)-1]
	return target, h.restoreStack(previous), nil
}

// TruncateAt returns the history entry at index and drops it along with every later entry,
// the returned rollback restores them.
func (h *History) TruncateAt(index int) (Snapshot, func(), error) {
	if index < 0 || index >= len(h.stack) {
		return Snapshot{}, func() {}, &InvalidHistoryIndexError{Index: index, Size: len(h.stack)}
	}
	previous := h.Stack()
	target := h.stack[index]
	h.stack = h.stack[:index:index]
	return target, h.restoreStack(previous), nil
}

// Trail returns the last TrailWindow history entries followed by the current scope.
func (h *History) Trail() []TrailItem {
	start := len(h.stack) - TrailWindow
	if start < 0 {
		start = 0
	}
	trail := []TrailItem{}
	for idx := start; idx < len(h.stack); idx++ {
		trail = append(trail, TrailItem{Snapshot: h.stack[idx], HistoryIndex: idx})
	}
	if h.lastApplied != nil {
		trail = append(trail, TrailItem{Snapshot: *h.lastApplied, HistoryIndex: -1, Current: true})
	}
	return trail
}
