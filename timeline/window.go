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

package timeline

import (
	"time"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
)

const (
	minuteMs = int64(time.Minute / time.Millisecond)
	hourMs   = 60 * minuteMs
	dayMs    = 24 * hourMs

	defaultWindowMs = 24 * hourMs
	minimumWindowMs = hourMs
)

// Window is the [FromMs, ToMs) interval covered by the timeline
type Window struct {
	FromMs int64
	ToMs   int64
}

func (w Window) RangeMs() int64 {
	if w.ToMs-w.FromMs < 1 {
		return 1
	}
	return w.ToMs - w.FromMs
}

// LoadedRange returns the min and max parsable timestamps of entries
func LoadedRange(entries []api.LogEntry) (int64, int64, bool) {
	var minMs, maxMs int64
	found := false
	for _, entry := range entries {
		ms, ok := entry.TimestampMs()
		if !ok {
			continue
		}
		if !found || ms < minMs {
			minMs = ms
		}
		if !found || ms > maxMs {
			maxMs = ms
		}
		found = true
	}
	return minMs, maxMs, found
}

// ResolveWindow derives the timeline window from the query range, then from the loaded entries
// range, then defaults to the 24 hours ending at now.
func ResolveWindow(q query.RemoteQuery, entries []api.LogEntry, now time.Time) Window {
	fromMs, hasFrom := api.ParseTimestampMs(q.From)
	toMs, hasTo := api.ParseTimestampMs(q.To)

	if !hasFrom || !hasTo {
		minMs, maxMs, ok := LoadedRange(entries)
		if ok && !hasFrom {
			fromMs, hasFrom = minMs, true
		}
		if ok && !hasTo {
			toMs, hasTo = maxMs, true
		}
	}

	switch {
	case !hasFrom && !hasTo:
		toMs = now.UnixMilli()
		fromMs = toMs - defaultWindowMs
	case !hasFrom:
		fromMs = toMs - defaultWindowMs
	case !hasTo:
		toMs = fromMs + defaultWindowMs
	}

	if toMs <= fromMs {
		toMs = fromMs + minimumWindowMs
	}
	return Window{FromMs: fromMs, ToMs: toMs}
}
