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

package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/mikroscope/console/store"
)

// fileStore keeps one file per key in a directory
type fileStore struct {
	lock   sync.Mutex
	fs     afero.Fs
	dir    string
	closed bool
}

func CreateFileStore(fs afero.Fs, dir string) (store.Store, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, store.NewUnexpectedError("unable to create the store directory %q (%w)", dir, err)
	}
	return &fileStore{
		fs:  fs,
		dir: dir,
	}, nil
}

func (s *fileStore) keyPath(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *fileStore) Get(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return "", store.ErrStoreClosed
	}

	content, err := afero.ReadFile(s.fs, s.keyPath(key))
	if os.IsNotExist(err) {
		return "", store.ErrKeyNotFound
	}
	if err != nil {
		return "", store.NewUnexpectedError("unable to read %q (%w)", key, err)
	}
	return string(content), nil
}

func (s *fileStore) Set(_ context.Context, key string, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}

	// Write then rename so that a reader never sees a partially written value
	path := s.keyPath(key)
	tmpPath := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, []byte(value), 0600); err != nil {
		return store.NewUnexpectedError("unable to write %q (%w)", key, err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		return store.NewUnexpectedError("unable to write %q (%w)", key, err)
	}
	return nil
}

func (s *fileStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return store.ErrStoreClosed
	}

	err := s.fs.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return store.NewUnexpectedError("unable to remove %q (%w)", key, err)
	}
	return nil
}

func (s *fileStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}
