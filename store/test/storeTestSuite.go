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

package test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikroscope/console/store"
)

type savedEntry struct {
	Name      string `json:"name"`
	UpdatedAt int64  `json:"updatedAt"`
}

// RunSuite runs the behavior every store backend must implement
func RunSuite(t *testing.T, createStore func() store.Store, destroyStore func(store.Store)) {
	t.Run("TestCreateStore", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		assert.NotNil(t, s)
	})
	t.Run("TestGetMissingKey", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})
	t.Run("TestSetGetRemove", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		ctx := context.Background()
		assert.NoError(t, s.Set(ctx, store.KeyTheme, "dark"))
		value, err := s.Get(ctx, store.KeyTheme)
		assert.NoError(t, err)
		assert.Equal(t, "dark", value)

		assert.NoError(t, s.Set(ctx, store.KeyTheme, "light"))
		value, err = s.Get(ctx, store.KeyTheme)
		assert.NoError(t, err)
		assert.Equal(t, "light", value)

		assert.NoError(t, s.Remove(ctx, store.KeyTheme))
		_, err = s.Get(ctx, store.KeyTheme)
		assert.ErrorIs(t, err, store.ErrKeyNotFound)

		// Removing twice is fine
		assert.NoError(t, s.Remove(ctx, store.KeyTheme))
	})
	t.Run("TestKeysAreIndependent", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		ctx := context.Background()
		assert.NoError(t, s.Set(ctx, store.KeyRecentScopes, "[]"))
		assert.NoError(t, s.Set(ctx, store.KeySavedQueries, "{not json"))

		value, err := s.Get(ctx, store.KeyRecentScopes)
		assert.NoError(t, err)
		assert.Equal(t, "[]", value)

		_, err = s.Get(ctx, store.KeyTheme)
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})
	t.Run("TestJSONRoundTrip", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		ctx := context.Background()
		entries := []savedEntry{{Name: "errors", UpdatedAt: 12}, {Name: "audit", UpdatedAt: 7}}
		assert.NoError(t, store.SaveJSON(ctx, s, store.KeySavedQueries, entries))

		loaded := []savedEntry{}
		assert.NoError(t, store.LoadJSON(ctx, s, store.KeySavedQueries, &loaded))
		assert.Equal(t, entries, loaded)
	})
	t.Run("TestLoadCorruptedJSON", func(t *testing.T) {
		s := createStore()
		defer destroyStore(s)

		ctx := context.Background()
		assert.NoError(t, s.Set(ctx, store.KeySavedQueries, "{not json"))

		loaded := []savedEntry{}
		err := store.LoadJSON(ctx, s, store.KeySavedQueries, &loaded)
		corrupted := &store.CorruptedValueError{}
		assert.True(t, errors.As(err, &corrupted))
		assert.Equal(t, store.KeySavedQueries, corrupted.Key)
		assert.Empty(t, loaded)

		err = store.LoadJSON(ctx, s, store.KeyRecentScopes, &loaded)
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})
}
