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

package bolt

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikroscope/console/store"
	"github.com/mikroscope/console/store/test"
)

func createTempBoltStore(t *testing.T) store.Store {
	// create and close a temporary file, bolt reopens it
	f, err := os.CreateTemp("", "console-store-bolt-test")
	assert.NoError(t, err)
	defer f.Close()

	s, err := CreateBoltStore(f.Name())
	assert.NoError(t, err)
	return s
}

func destroyBoltStore(s store.Store) {
	bs := s.(*boltStore)

	defer os.Remove(bs.filePath)
	defer bs.Close()
}

func TestSuiteBoltStore(t *testing.T) {
	test.RunSuite(t, func() store.Store {
		return createTempBoltStore(t)
	}, destroyBoltStore)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	s := createTempBoltStore(t)
	filePath := s.(*boltStore).filePath
	defer os.Remove(filePath)

	assert.NoError(t, s.Set(context.Background(), store.KeyTheme, "dark"))
	assert.NoError(t, s.Close())

	reopened, err := CreateBoltStore(filePath)
	assert.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(context.Background(), store.KeyTheme)
	assert.NoError(t, err)
	assert.Equal(t, "dark", value)
}
