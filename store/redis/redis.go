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

package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mikroscope/console/store"
)

const DefaultKeyPrefix = "mikroscope:"

type redisStore struct {
	client *redis.Client
	prefix string
}

// CreateRedisStore shares the console state between machines, keys are namespaced by prefix.
func CreateRedisStore(opt *redis.Options, prefix string) store.Store {
	return &redisStore{
		client: redis.NewClient(opt),
		prefix: prefix,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrKeyNotFound
	}
	if err != nil {
		return "", store.NewUnexpectedError("unable to read %q (%w)", key, err)
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return store.NewUnexpectedError("unable to write %q (%w)", key, err)
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return store.NewUnexpectedError("unable to remove %q (%w)", key, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
