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

package api

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const timestampCacheSize = 8192

// Zone-less layouts are interpreted as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

type parsedTimestamp struct {
	ms int64
	ok bool
}

var timestampCache *lru.Cache

func init() {
	cache, err := lru.New(timestampCacheSize)
	if err != nil {
		panic(err)
	}
	timestampCache = cache
}

// ParseTimestampMs parses an ISO 8601 style timestamp into unix milliseconds.
func ParseTimestampMs(timestamp string) (int64, bool) {
	trimmed := strings.TrimSpace(timestamp)
	if trimmed == "" {
		return 0, false
	}
	if cached, ok := timestampCache.Get(trimmed); ok {
		result := cached.(parsedTimestamp)
		return result.ms, result.ok
	}

	result := parsedTimestamp{}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			result = parsedTimestamp{ms: t.UnixMilli(), ok: true}
			break
		}
	}
	timestampCache.Add(trimmed, result)
	return result.ms, result.ok
}

// FormatTimestampMs renders unix milliseconds as an UTC ISO 8601 string with millisecond precision
func FormatTimestampMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
