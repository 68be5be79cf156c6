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
	"testing"
	"time"

	"github.com/openlyinc/pointy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
)

var origin = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func entryAt(id string, offset time.Duration) api.LogEntry {
	return api.NewLogEntry(id, origin.Add(offset).Format(time.RFC3339Nano), "INFO", "tick", "", nil)
}

func TestChooseBucketMs(t *testing.T) {
	var tests = []struct {
		name     string
		rangeMs  int64
		width    int
		expected int64
	}{
		{"one hour narrow", hourMs, 0, 15 * minuteMs},
		{"one day wide", dayMs, 600, 15 * minuteMs},
		{"one day very wide", dayMs, 6 * 1440, minuteMs},
		{"tiny range", 1, 0, minuteMs},
		{"beyond the ladder", 400 * dayMs, 0, 30 * dayMs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChooseBucketMs(tt.rangeMs, tt.width))
		})
	}
}

func TestBuild(t *testing.T) {
	entries := []api.LogEntry{
		entryAt("a", 0),
		entryAt("b", time.Minute),
		entryAt("c", 16*time.Minute),
		entryAt("d", 59*time.Minute),
		entryAt("e", time.Hour),
		api.NewLogEntry("f", "not a date", "INFO", "tick", "", nil),
	}
	window := Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(time.Hour).UnixMilli()}

	tl := Build(entries, window, Options{Location: time.UTC})

	assert.Equal(t, 15*minuteMs, tl.BucketMs)
	assert.False(t, tl.Manual)
	require.Len(t, tl.Buckets, 4)

	counts := []int{}
	for _, bucket := range tl.Buckets {
		counts = append(counts, bucket.Count)
	}
	assert.Equal(t, []int{2, 1, 0, 1}, counts)
	assert.Equal(t, 4, tl.Total())

	first := tl.Buckets[0]
	assert.Equal(t, BucketKey(window.FromMs, window.FromMs+15*minuteMs), first.Key)
	assert.Equal(t, "Jan 1, 00:00 to Jan 1, 00:15", first.Label)
	assert.Equal(t, float64(0), tl.Buckets[2].Intensity)

	assert.Equal(t, Stats{Max: 2, Median: 1, P90: 1.8}.Max, tl.Stats.Max)
	assert.InDelta(t, 1, tl.Stats.Median, 1e-9)
	assert.InDelta(t, 1.8, tl.Stats.P90, 1e-9)

	found, ok := tl.Find(first.Key)
	assert.True(t, ok)
	assert.Equal(t, first, found)
}

func TestBuildLastBucketIsCapped(t *testing.T) {
	window := Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(50 * time.Minute).UnixMilli()}

	tl := Build([]api.LogEntry{entryAt("a", 49*time.Minute)}, window, Options{Location: time.UTC})

	require.Len(t, tl.Buckets, 4)
	last := tl.Buckets[3]
	assert.Equal(t, window.ToMs, last.ToMs)
	assert.Equal(t, 1, last.Count)
}

func TestBuildWithOverride(t *testing.T) {
	window := Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(time.Hour).UnixMilli()}

	tl := Build([]api.LogEntry{entryAt("a", 0)}, window, Options{
		BucketMsOverride: pointy.Int64(5 * minuteMs),
		Location:         time.UTC,
	})
	assert.True(t, tl.Manual)
	assert.Len(t, tl.Buckets, 12)

	tl = Build([]api.LogEntry{entryAt("a", 0)}, window, Options{
		BucketMsOverride: pointy.Int64(0),
		Location:         time.UTC,
	})
	assert.False(t, tl.Manual)
	assert.Equal(t, 15*minuteMs, tl.BucketMs)
}

func TestBuildWidensTinyOverrides(t *testing.T) {
	window := Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(720 * time.Hour).UnixMilli()}

	tl := Build([]api.LogEntry{entryAt("a", 0), entryAt("b", 719*time.Hour)}, window, Options{
		BucketMsOverride: pointy.Int64(1),
		Location:         time.UTC,
	})
	assert.True(t, tl.Manual)
	assert.Len(t, tl.Buckets, MaxBuckets)
	assert.Equal(t, int64(51840), tl.BucketMs)
	assert.Equal(t, 2, tl.Total())

	tl = Build(nil, window, Options{BucketMsOverride: pointy.Int64(minuteMs), Location: time.UTC})
	assert.Equal(t, int64(minuteMs), tl.BucketMs)
	assert.Len(t, tl.Buckets, 43200)
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, float64(0), Quantile(nil, 0.5))
	assert.Equal(t, float64(5), Quantile([]float64{5}, 0.9))
	assert.InDelta(t, 2.5, Quantile([]float64{4, 1, 3, 2}, 0.5), 1e-9)
	assert.InDelta(t, 3.7, Quantile([]float64{1, 2, 3, 4}, 0.9), 1e-9)
}

func TestIntensity(t *testing.T) {
	var tests = []struct {
		name     string
		count    int
		stats    Stats
		expected float64
	}{
		{"empty bucket", 0, Stats{Max: 2, Median: 1, P90: 1.8}, 0},
		{"peak bucket", 2, Stats{Max: 2, Median: 1, P90: 1.8}, 0.35 + 0.25*(1.2/2.8) + 0.4},
		{"flat distribution", 3, Stats{Max: 3, Median: 3, P90: 3}, 0.35 + 0.65*(0.2/2.8)},
		{"floor", 1, Stats{Max: 1000, Median: 500, P90: 900}, 0.08},
		{"ceiling", 1000, Stats{Max: 1000, Median: 1, P90: 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Intensity(tt.count, tt.stats), 1e-9)
		})
	}
}

func TestFormatBucketSize(t *testing.T) {
	assert.Equal(t, "1m", FormatBucketSize(minuteMs))
	assert.Equal(t, "15m", FormatBucketSize(15*minuteMs))
	assert.Equal(t, "2h", FormatBucketSize(90*minuteMs))
	assert.Equal(t, "3h", FormatBucketSize(3*hourMs))
	assert.Equal(t, "7d", FormatBucketSize(7*dayMs))
}

func TestResolveWindow(t *testing.T) {
	now := origin.Add(48 * time.Hour)
	entries := []api.LogEntry{entryAt("a", time.Hour), entryAt("b", 3*time.Hour)}

	var tests = []struct {
		name     string
		q        query.RemoteQuery
		entries  []api.LogEntry
		expected Window
	}{
		{
			"nothing known",
			query.RemoteQuery{},
			nil,
			Window{FromMs: now.Add(-24 * time.Hour).UnixMilli(), ToMs: now.UnixMilli()},
		},
		{
			"query range",
			query.RemoteQuery{From: "2024-01-01T00:00:00.000Z", To: "2024-01-01T06:00:00.000Z"},
			entries,
			Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(6 * time.Hour).UnixMilli()},
		},
		{
			"loaded range",
			query.RemoteQuery{},
			entries,
			Window{FromMs: origin.Add(time.Hour).UnixMilli(), ToMs: origin.Add(3 * time.Hour).UnixMilli()},
		},
		{
			"only from",
			query.RemoteQuery{From: "2024-01-01T00:00:00.000Z"},
			nil,
			Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(24 * time.Hour).UnixMilli()},
		},
		{
			"only to",
			query.RemoteQuery{To: "2024-01-02T00:00:00.000Z"},
			nil,
			Window{FromMs: origin.UnixMilli(), ToMs: origin.Add(24 * time.Hour).UnixMilli()},
		},
		{
			"inverted range",
			query.RemoteQuery{From: "2024-01-01T06:00:00.000Z", To: "2024-01-01T00:00:00.000Z"},
			nil,
			Window{FromMs: origin.Add(6 * time.Hour).UnixMilli(), ToMs: origin.Add(7 * time.Hour).UnixMilli()},
		},
		{
			"single loaded entry",
			query.RemoteQuery{},
			entries[:1],
			Window{FromMs: origin.Add(time.Hour).UnixMilli(), ToMs: origin.Add(2 * time.Hour).UnixMilli()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveWindow(tt.q, tt.entries, now))
		})
	}
}

func TestToggle(t *testing.T) {
	bucket := Bucket{FromMs: 0, ToMs: 10, Key: "0-10", Label: "first", Count: 3}

	filter, err := Toggle(nil, bucket)
	require.NoError(t, err)
	assert.Equal(t, &Filter{FromMs: 0, Key: "0-10", Label: "first", ToMs: 10}, filter)
	assert.True(t, filter.Contains(0))
	assert.False(t, filter.Contains(10))

	cleared, err := Toggle(filter, bucket)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	empty := bucket
	empty.Count = 0
	unchanged, err := Toggle(filter, empty)
	assert.ErrorIs(t, err, ErrEmptyBucket)
	assert.Equal(t, filter, unchanged)

	_, err = Toggle(nil, Bucket{FromMs: 10, ToMs: 10, Key: "k", Label: "l", Count: 1})
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestNormalizeFilter(t *testing.T) {
	assert.Nil(t, NormalizeFilter(nil, time.UTC))
	assert.Nil(t, NormalizeFilter(&Filter{FromMs: 5, ToMs: 5}, time.UTC))

	from := origin.UnixMilli()
	to := origin.Add(time.Hour).UnixMilli()
	normalized := NormalizeFilter(&Filter{FromMs: from, ToMs: to, Key: " "}, time.UTC)
	require.NotNil(t, normalized)
	assert.Equal(t, BucketKey(from, to), normalized.Key)
	assert.Equal(t, "Jan 1, 00:00 to Jan 1, 01:00", normalized.Label)
}
