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
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mikroscope/console/api"
)

const (
	MinPitch   = 6
	MinBuckets = 8
	// MaxBuckets bounds the bucket count of manual overrides, wider buckets are used past it
	MaxBuckets = 50000
)

// BucketLadder lists the automatic bucket widths in ascending order
var BucketLadder = []int64{
	minuteMs,
	5 * minuteMs,
	15 * minuteMs,
	30 * minuteMs,
	hourMs,
	3 * hourMs,
	6 * hourMs,
	12 * hourMs,
	dayMs,
	2 * dayMs,
	7 * dayMs,
	14 * dayMs,
	30 * dayMs,
}

func ceilDiv(a int64, b int64) int64 {
	return (a + b - 1) / b
}

// MaxBucketsForWidth is the number of buckets fitting in the available width
func MaxBucketsForWidth(availableWidth int) int64 {
	maxBuckets := int64(availableWidth / MinPitch)
	if maxBuckets < MinBuckets {
		return MinBuckets
	}
	return maxBuckets
}

// ChooseBucketMs returns the smallest ladder width producing no more than MaxBuckets buckets,
// falling back to the largest width.
func ChooseBucketMs(rangeMs int64, availableWidth int) int64 {
	if rangeMs < 1 {
		rangeMs = 1
	}
	maxBuckets := MaxBucketsForWidth(availableWidth)
	for _, candidate := range BucketLadder {
		if ceilDiv(rangeMs, candidate) <= maxBuckets {
			return candidate
		}
	}
	return BucketLadder[len(BucketLadder)-1]
}

type Bucket struct {
	FromMs    int64   `json:"fromMs"`
	ToMs      int64   `json:"toMs"`
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
}

type Stats struct {
	Max    int     `json:"max"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

type Timeline struct {
	Window
	BucketMs int64    `json:"bucketMs"`
	Manual   bool     `json:"manual"`
	Label    string   `json:"label"`
	Stats    Stats    `json:"stats"`
	Buckets  []Bucket `json:"buckets"`
}

// Options controls how a timeline is built
type Options struct {
	// BucketMsOverride bypasses the automatic width selection when set
	BucketMsOverride *int64
	AvailableWidth   int
	Location         *time.Location
}

// Build buckets the entries of the window, entries without a parsable timestamp or outside
// of the window are ignored.
func Build(entries []api.LogEntry, window Window, options Options) Timeline {
	loc := options.Location
	if loc == nil {
		loc = time.Local
	}
	rangeMs := window.RangeMs()

	manual := options.BucketMsOverride != nil && *options.BucketMsOverride > 0
	var bucketMs int64
	if manual {
		bucketMs = *options.BucketMsOverride
		if ceilDiv(rangeMs, bucketMs) > MaxBuckets {
			bucketMs = ceilDiv(rangeMs, MaxBuckets)
		}
	} else {
		bucketMs = ChooseBucketMs(rangeMs, options.AvailableWidth)
	}

	bucketCount := ceilDiv(rangeMs, bucketMs)
	if bucketCount < 1 {
		bucketCount = 1
	}
	counts := make([]int, bucketCount)
	for _, entry := range entries {
		ms, ok := entry.TimestampMs()
		if !ok || ms < window.FromMs || ms >= window.ToMs {
			continue
		}
		idx := (ms - window.FromMs) / bucketMs
		if idx > bucketCount-1 {
			idx = bucketCount - 1
		}
		counts[idx]++
	}

	stats := ComputeStats(counts)
	buckets := make([]Bucket, 0, bucketCount)
	for idx, count := range counts {
		fromMs := window.FromMs + int64(idx)*bucketMs
		toMs := fromMs + bucketMs
		if toMs > window.ToMs {
			toMs = window.ToMs
		}
		buckets = append(buckets, Bucket{
			FromMs:    fromMs,
			ToMs:      toMs,
			Key:       BucketKey(fromMs, toMs),
			Label:     BucketLabel(fromMs, toMs, bucketMs, loc),
			Count:     count,
			Intensity: Intensity(count, stats),
		})
	}

	return Timeline{
		Window:   window,
		BucketMs: bucketMs,
		Manual:   manual,
		Label:    BucketLabel(window.FromMs, window.ToMs, bucketMs, loc),
		Stats:    stats,
		Buckets:  buckets,
	}
}

// Total is the number of entries counted in the timeline
func (t Timeline) Total() int {
	total := 0
	for _, bucket := range t.Buckets {
		total += bucket.Count
	}
	return total
}

// Find returns the bucket with the given key
func (t Timeline) Find(key string) (Bucket, bool) {
	for _, bucket := range t.Buckets {
		if bucket.Key == key {
			return bucket, true
		}
	}
	return Bucket{}, false
}

// ComputeStats computes the maximum over all counts, median and 90th percentile over the non zero ones
func ComputeStats(counts []int) Stats {
	stats := Stats{Max: 1}
	nonZero := []float64{}
	for _, count := range counts {
		if count > stats.Max {
			stats.Max = count
		}
		if count > 0 {
			nonZero = append(nonZero, float64(count))
		}
	}
	stats.Median = Quantile(nonZero, 0.5)
	stats.P90 = Quantile(nonZero, 0.9)
	return stats
}

func clamp(value float64, min float64, max float64) float64 {
	return math.Min(max, math.Max(min, value))
}

// Quantile uses linear interpolation between the closest ranks
func Quantile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	index := clamp(percentile, 0, 1) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// Intensity is the heat value of a bucket: 0 for an empty bucket, within [0.08, 1] otherwise.
func Intensity(count int, stats Stats) float64 {
	if count <= 0 {
		return 0
	}
	c := float64(count)
	max := math.Max(1, float64(stats.Max))

	logShare := math.Log1p(c) / math.Log1p(max)
	baselineShare := c
	if stats.Median > 0 {
		baselineShare = c / stats.Median
	}
	baselineScore := clamp((baselineShare-0.8)/2.8, 0, 1)
	outlierScore := baselineScore
	if stats.P90 > stats.Median {
		outlierScore = clamp((c-stats.Median)/(stats.P90-stats.Median), 0, 1)
	}
	return clamp(logShare*0.35+baselineScore*0.25+outlierScore*0.4, 0.08, 1)
}

func BucketKey(fromMs int64, toMs int64) string {
	return fmt.Sprintf("%d-%d", fromMs, toMs)
}

// FormatBucketSize renders a bucket width as "5m", "3h" or "7d"
func FormatBucketSize(bucketMs int64) string {
	round := func(unit int64) int64 {
		n := int64(math.Round(float64(bucketMs) / float64(unit)))
		if n < 1 {
			return 1
		}
		return n
	}
	switch {
	case bucketMs < hourMs:
		return fmt.Sprintf("%dm", round(minuteMs))
	case bucketMs < dayMs:
		return fmt.Sprintf("%dh", round(hourMs))
	default:
		return fmt.Sprintf("%dd", round(dayMs))
	}
}

// FormatTime renders a bucket boundary with a precision matching the bucket width
func FormatTime(ms int64, bucketMs int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	switch {
	case bucketMs < dayMs:
		return t.Format("Jan 2, 15:04")
	case bucketMs < 14*dayMs:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func BucketLabel(fromMs int64, toMs int64, bucketMs int64, loc *time.Location) string {
	return fmt.Sprintf("%s to %s", FormatTime(fromMs, bucketMs, loc), FormatTime(toMs, bucketMs, loc))
}
