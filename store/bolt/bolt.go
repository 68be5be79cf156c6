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
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mikroscope/console/store"
)

type boltStore struct {
	db       *bolt.DB
	filePath string
}

// Bucket structure is
//	console	> {key}	> {value}

var consoleBucketName = []byte("console")

func CreateBoltStore(filePath string) (store.Store, error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, store.NewUnexpectedError("unable to open %q (%w)", filePath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(consoleBucketName)
		if err != nil {
			return store.NewUnexpectedError("unable to create the console bucket (%w)", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &boltStore{
		db:       db,
		filePath: filePath,
	}, nil
}

func (s *boltStore) Get(_ context.Context, key string) (string, error) {
	if s.db == nil {
		return "", store.ErrStoreClosed
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(consoleBucketName).Get([]byte(key))
		if stored == nil {
			return store.ErrKeyNotFound
		}
		// The slice is only valid during the transaction
		value = append([]byte{}, stored...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (s *boltStore) Set(_ context.Context, key string, value string) error {
	if s.db == nil {
		return store.ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(consoleBucketName).Put([]byte(key), []byte(value))
		if err != nil {
			return store.NewUnexpectedError("unable to write %q (%w)", key, err)
		}
		return nil
	})
}

func (s *boltStore) Remove(_ context.Context, key string) error {
	if s.db == nil {
		return store.ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(consoleBucketName).Delete([]byte(key))
		if err != nil {
			return store.NewUnexpectedError("unable to remove %q (%w)", key, err)
		}
		return nil
	})
}

func (s *boltStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
