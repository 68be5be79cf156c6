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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/render"
	"github.com/mikroscope/console/store"
	"github.com/mikroscope/console/store/bolt"
	"github.com/mikroscope/console/store/file"
	"github.com/mikroscope/console/store/memory"
	"github.com/mikroscope/console/store/redis"
)

type storeKind string

const (
	memoryStore storeKind = "memory"
	fileStore   storeKind = "file"
	boltStore   storeKind = "bolt"
	redisStore  storeKind = "redis"
)

var expectedStoreKinds = []storeKind{memoryStore, fileStore, boltStore, redisStore}

const boltFileName = "console.db"

func retrieveConsoleOutputFormat(cfg *viper.Viper) (render.Format, error) {
	return render.ParseFormat(cfg.GetString(consoleOutputFormatKey))
}

func retrieveLocation(cfg *viper.Viper) (*time.Location, error) {
	name := cfg.GetString(timezoneKey)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid argument \"--%s\" specified, %w", timezoneKey, err)
	}
	return loc, nil
}

func createStore(cfg *viper.Viper) (store.Store, error) {
	kind := storeKind(cfg.GetString(storeKey))
	storePath := cfg.GetString(storePathKey)
	switch kind {
	case memoryStore:
		return memory.CreateMemoryStore(), nil
	case fileStore:
		return file.CreateFileStore(afero.NewOsFs(), storePath)
	case boltStore:
		if err := os.MkdirAll(storePath, 0755); err != nil {
			return nil, fmt.Errorf("unable to create the store directory %q: %w", storePath, err)
		}
		return bolt.CreateBoltStore(path.Join(storePath, boltFileName))
	case redisStore:
		return redis.CreateRedisStore(
			&goredis.Options{Addr: cfg.GetString(redisAddrKey)},
			cfg.GetString(redisPrefixKey),
		), nil
	}
	return nil, fmt.Errorf("invalid store specified %q expecting one of %v", kind, expectedStoreKinds)
}

// retrieveAPIOrigin resolves the logs API origin, a config url takes precedence over the flag
func retrieveAPIOrigin(ctx context.Context, cfg *viper.Viper) string {
	configURL := cfg.GetString(configURLKey)
	if configURL == "" {
		return logs.TrimTrailingSlash(cfg.GetString(apiOriginKey))
	}
	rest := resty.New().SetTimeout(cfg.GetDuration(timeoutKey))
	clientConfig := logs.LoadClientConfig(ctx, rest, configURL)
	log.WithField("api_origin", clientConfig.APIOrigin).Debug("loaded client config")
	return clientConfig.APIOrigin
}

// createConsole builds a console with its preferences loaded, the returned function releases
// the store.
func createConsole(ctx context.Context, cfg *viper.Viper) (*console.Console, func(), error) {
	loc, err := retrieveLocation(cfg)
	if err != nil {
		return nil, nil, err
	}
	kv, err := createStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := logs.CreateClient(retrieveAPIOrigin(ctx, cfg), cfg.GetDuration(timeoutKey))
	c := console.New(client, kv, console.Options{Location: loc})
	c.Load(ctx)

	return c, func() {
		if err := kv.Close(); err != nil {
			log.WithError(err).Debug("unable to close the store")
		}
	}, nil
}
