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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mikroscope/console/store"
	"github.com/mikroscope/console/store/test"
)

func TestSuiteFileStore(t *testing.T) {
	test.RunSuite(t, func() store.Store {
		s, err := CreateFileStore(afero.NewMemMapFs(), "/home/user/.mikroscope")
		assert.NoError(t, err)
		return s
	}, func(s store.Store) {
		s.Close()
	})
}

func TestFileStoreLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := CreateFileStore(fs, "/data")
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Set(context.Background(), store.KeyTheme, "dark"))

	content, err := afero.ReadFile(fs, "/data/mikroscope-console-theme.json")
	assert.NoError(t, err)
	assert.Equal(t, "dark", string(content))

	exists, err := afero.Exists(fs, "/data/mikroscope-console-theme.json.tmp")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStoreClosed(t *testing.T) {
	s, err := CreateFileStore(afero.NewMemMapFs(), "/data")
	assert.NoError(t, err)
	s.Close()

	_, err = s.Get(context.Background(), store.KeyTheme)
	assert.ErrorIs(t, err, store.ErrStoreClosed)
}
