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

package memory

import (
	"context"
	"sync"

	"github.com/mikroscope/console/store"
)

type memoryStore struct {
	lock   sync.RWMutex
	values map[string]string
	closed bool
}

func CreateMemoryStore() store.Store {
	return &memoryStore{
		values: make(map[string]string),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return "", store.ErrStoreClosed
	}
	value, ok := s.values[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return value, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}
	s.values[key] = value
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}
	delete(s.values, key)
	return nil
}

func (s *memoryStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}
