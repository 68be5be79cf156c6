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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyTheme        = "mikroscope-console-theme"
	KeyRecentScopes = "mikroscope-console-recent-scopes"
	KeySavedQueries = "mikroscope-console-saved-queries"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
)

// Store is a string key value store without any transactional guarantee.
type Store interface {
	// Get returns ErrKeyNotFound when the key is absent
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	// Remove is a no-op when the key is absent
	Remove(ctx context.Context, key string) error
	Close() error
}

type UnexpectedError struct {
	err error
}

func NewUnexpectedError(format string, args ...interface{}) *UnexpectedError {
	return &UnexpectedError{err: fmt.Errorf(format, args...)}
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected store error: %s", e.err.Error())
}

func (e *UnexpectedError) Unwrap() error {
	return e.err
}

type CorruptedValueError struct {
	Key string
	err error
}

func NewCorruptedValueError(key string, err error) *CorruptedValueError {
	return &CorruptedValueError{Key: key, err: err}
}

func (e *CorruptedValueError) Error() string {
	return fmt.Sprintf("value stored at %q can't be decoded: %s", e.Key, e.err.Error())
}

func (e *CorruptedValueError) Unwrap() error {
	return e.err
}

// LoadJSON decodes the JSON document stored at key into target.
//
// target is left untouched when the key is absent (ErrKeyNotFound) or when the stored
// document is invalid (*CorruptedValueError), callers fall back to their defaults.
func LoadJSON(ctx context.Context, s Store, key string, target interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if raw == "" {
		return ErrKeyNotFound
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return &CorruptedValueError{Key: key, err: err}
	}
	return nil
}

func SaveJSON(ctx context.Context, s Store, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to encode value for %q: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
