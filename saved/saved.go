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

package saved

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/store"
)

var log = logrus.WithField("component", "saved")

var (
	ErrMissingName  = errors.New("missing saved query name")
	ErrNotPersisted = errors.New("saved queries could not be persisted")
)

type UnknownQueryError struct {
	Name string
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("saved query %q was not found", e.Name)
}

// Query is a named remote query
type Query struct {
	Name      string            `json:"name"`
	Query     query.RemoteQuery `json:"query"`
	UpdatedAt int64             `json:"updatedAt"`
}

// List holds the saved queries, most recently updated first.
//
// It is not safe for concurrent use.
type List struct {
	kv      store.Store
	now     func() time.Time
	entries []Query
}

// NewList creates an empty list persisted to kv, now defaults to time.Now
func NewList(kv store.Store, now func() time.Time) *List {
	if now == nil {
		now = time.Now
	}
	return &List{kv: kv, now: now, entries: []Query{}}
}

func (l *List) sort() {
	collator := collate.New(language.English)
	sort.SliceStable(l.entries, func(i, j int) bool {
		left, right := l.entries[i], l.entries[j]
		if left.UpdatedAt != right.UpdatedAt {
			return left.UpdatedAt > right.UpdatedAt
		}
		return collator.CompareString(left.Name, right.Name) < 0
	})
}

func (l *List) persist(ctx context.Context) error {
	if err := store.SaveJSON(ctx, l.kv, store.KeySavedQueries, l.entries); err != nil {
		log.WithError(err).Debug("unable to persist saved queries")
		return fmt.Errorf("%w: %s", ErrNotPersisted, err.Error())
	}
	return nil
}

// Load reads the persisted queries, entries without a name are skipped. A corrupted document
// empties the list and is reported.
func (l *List) Load(ctx context.Context) error {
	l.entries = []Query{}

	document := &api.Value{}
	err := store.LoadJSON(ctx, l.kv, store.KeySavedQueries, document)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if document.Kind() != api.KindArray {
		return store.NewCorruptedValueError(
			store.KeySavedQueries,
			fmt.Errorf("expected a list got %s", document.Kind()),
		)
	}

	for _, item := range document.Items() {
		if item.Kind() != api.KindObject {
			continue
		}
		name := strings.TrimSpace(item.Get("name").Text())
		if name == "" {
			continue
		}
		entry := Query{Name: name}
		if raw := item.Get("query"); raw.Kind() == api.KindObject {
			for _, key := range query.Keys {
				entry.Query = query.With(entry.Query, key, raw.Get(key).Text())
			}
		}
		entry.Query = query.Normalize(entry.Query)
		updatedAt, err := strconv.ParseInt(strings.TrimSpace(item.Get("updatedAt").Text()), 10, 64)
		if err != nil {
			updatedAt = l.now().UnixMilli()
		}
		entry.UpdatedAt = updatedAt
		l.entries = append(l.entries, entry)
	}
	l.sort()
	return nil
}

// Entries returns a copy of the saved queries
func (l *List) Entries() []Query {
	return append([]Query{}, l.entries...)
}

func (l *List) index(name string) int {
	for idx, entry := range l.entries {
		if entry.Name == name {
			return idx
		}
	}
	return -1
}

// Find returns the saved query named name
func (l *List) Find(name string) (Query, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Query{}, ErrMissingName
	}
	idx := l.index(name)
	if idx < 0 {
		return Query{}, &UnknownQueryError{Name: name}
	}
	return l.entries[idx], nil
}

// Save adds or replaces the query named name, updated reports a replacement. An
// ErrNotPersisted error leaves the in memory list updated.
func (l *List) Save(ctx context.Context, name string, q query.RemoteQuery) (Query, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Query{}, false, ErrMissingName
	}

	entry := Query{Name: name, Query: query.Normalize(q), UpdatedAt: l.now().UnixMilli()}
	idx := l.index(name)
	updated := idx >= 0
	if updated {
		l.entries[idx] = entry
	} else {
		l.entries = append(l.entries, entry)
	}
	l.sort()
	return entry, updated, l.persist(ctx)
}

// Delete removes the query named name
func (l *List) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingName
	}
	idx := l.index(name)
	if idx < 0 {
		return &UnknownQueryError{Name: name}
	}
	l.entries = append(l.entries[:idx:idx], l.entries[idx+1:]...)
	return l.persist(ctx)
}
