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
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyBucket   = errors.New("no logs for selected timeline bucket")
	ErrInvalidBucket = errors.New("invalid timeline bucket")
)

// Filter narrows the local view to [FromMs, ToMs).
//
// The field order is the one used when a filter is part of a scope signature.
type Filter struct {
	FromMs int64  `json:"fromMs"`
	Key    string `json:"key"`
	Label  string `json:"label"`
	ToMs   int64  `json:"toMs"`
}

func (f *Filter) Contains(ms int64) bool {
	return ms >= f.FromMs && ms < f.ToMs
}

func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// NormalizeFilter validates a filter, filling the key and the label when missing.
// nil is returned for an absent or empty interval.
func NormalizeFilter(f *Filter, loc *time.Location) *Filter {
	if f == nil || f.ToMs <= f.FromMs {
		return nil
	}
	normalized := &Filter{
		FromMs: f.FromMs,
		Key:    strings.TrimSpace(f.Key),
		Label:  strings.TrimSpace(f.Label),
		ToMs:   f.ToMs,
	}
	if normalized.Key == "" {
		normalized.Key = BucketKey(f.FromMs, f.ToMs)
	}
	if normalized.Label == "" {
		normalized.Label = BucketLabel(f.FromMs, f.ToMs, f.ToMs-f.FromMs, loc)
	}
	return normalized
}

// Toggle selects a bucket: selecting the active bucket clears the filter, selecting an
// empty bucket is refused.
func Toggle(current *Filter, bucket Bucket) (*Filter, error) {
	if bucket.ToMs <= bucket.FromMs || bucket.Key == "" || bucket.Label == "" {
		return current, ErrInvalidBucket
	}
	if bucket.Count <= 0 {
		return current, ErrEmptyBucket
	}
	if current != nil && current.Key == bucket.Key {
		return nil, nil
	}
	return &Filter{
		FromMs: bucket.FromMs,
		Key:    bucket.Key,
		Label:  bucket.Label,
		ToMs:   bucket.ToMs,
	}, nil
}
