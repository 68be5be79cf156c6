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

package scopes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/timeline"
)

type View string

const (
	ViewStream       View = "stream"
	ViewCorrelations View = "correlations"
	ViewTimeline     View = "timeline"
)

var Views = []View{ViewStream, ViewCorrelations, ViewTimeline}

// ParseView defaults to the stream view
func ParseView(view string) View {
	switch View(strings.TrimSpace(view)) {
	case ViewCorrelations:
		return ViewCorrelations
	case ViewTimeline:
		return ViewTimeline
	}
	return ViewStream
}

// Snapshot is the complete description of what is visible at a point of the exploration.
type Snapshot struct {
	ID                       string            `json:"id"`
	CreatedAt                int64             `json:"createdAt"`
	ActiveView               View              `json:"activeView"`
	Query                    query.RemoteQuery `json:"query"`
	TimelineFilter           *timeline.Filter  `json:"timelineFilter"`
	TimelineBucketMsOverride *int64            `json:"timelineBucketMsOverride"`
	Reason                   string            `json:"reason"`
	Label                    string            `json:"label"`
	Signature                string            `json:"signature"`
}

// signed lists what the signature covers, in serialization order
type signed struct {
	ActiveView               View              `json:"activeView"`
	Query                    query.RemoteQuery `json:"query"`
	TimelineBucketMsOverride *int64            `json:"timelineBucketMsOverride"`
	TimelineFilter           *timeline.Filter  `json:"timelineFilter"`
}

// ComputeSignature serializes the view, the query, the bucket override and the timeline filter.
func ComputeSignature(s Snapshot) string {
	b := &bytes.Buffer{}
	encoder := json.NewEncoder(b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(signed{
		ActiveView:               s.ActiveView,
		Query:                    s.Query,
		TimelineBucketMsOverride: s.TimelineBucketMsOverride,
		TimelineFilter:           s.TimelineFilter,
	}); err != nil {
		// Only plain strings and integers are encoded
		panic(err)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func newID(createdAt int64) string {
	return fmt.Sprintf("%d-%s", createdAt, uuid.NewString()[:8])
}

// Normalize canonicalizes every field of the snapshot, computes its signature and fills the
// missing id, reason and label.
func Normalize(s Snapshot, fallbackReason string, now time.Time, loc *time.Location) Snapshot {
	normalized := Snapshot{
		ID:             strings.TrimSpace(s.ID),
		CreatedAt:      s.CreatedAt,
		ActiveView:     ParseView(string(s.ActiveView)),
		Query:          query.Normalize(s.Query),
		TimelineFilter: timeline.NormalizeFilter(s.TimelineFilter, loc),
		Reason:         strings.TrimSpace(s.Reason),
		Label:          strings.TrimSpace(s.Label),
	}
	if s.TimelineBucketMsOverride != nil && *s.TimelineBucketMsOverride > 0 {
		override := *s.TimelineBucketMsOverride
		normalized.TimelineBucketMsOverride = &override
	}
	if normalized.CreatedAt <= 0 {
		normalized.CreatedAt = now.UnixMilli()
	}
	if normalized.ID == "" {
		normalized.ID = newID(normalized.CreatedAt)
	}
	if normalized.Reason == "" {
		normalized.Reason = fallbackReason
	}
	normalized.Signature = ComputeSignature(normalized)
	if normalized.Label == "" {
		normalized.Label = BuildLabel(normalized, loc)
	}
	return normalized
}

func parseInteger(value *api.Value) (int64, bool) {
	if n, ok := value.Number(); ok && value.Kind() == api.KindNumber {
		return int64(n), true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value.Text()), 10, 64)
	return n, err == nil
}

// FromValue reads a snapshot from a loosely typed document, ok is false for non object documents.
func FromValue(document *api.Value, now time.Time, loc *time.Location) (Snapshot, bool) {
	if document.Kind() != api.KindObject {
		return Snapshot{}, false
	}
	s := Snapshot{
		ID:         document.Get("id").Text(),
		ActiveView: View(document.Get("activeView").Text()),
		Reason:     document.Get("reason").Text(),
		Label:      document.Get("label").Text(),
	}
	if createdAt, ok := parseInteger(document.Get("createdAt")); ok {
		s.CreatedAt = createdAt
	}
	if raw := document.Get("query"); raw.Kind() == api.KindObject {
		for _, key := range query.Keys {
			s.Query = query.With(s.Query, key, raw.Get(key).Text())
		}
	}
	if raw := document.Get("timelineFilter"); raw.Kind() == api.KindObject {
		fromMs, fromOk := parseInteger(raw.Get("fromMs"))
		toMs, toOk := parseInteger(raw.Get("toMs"))
		if fromOk && toOk {
			s.TimelineFilter = &timeline.Filter{
				FromMs: fromMs,
				Key:    raw.Get("key").Text(),
				Label:  raw.Get("label").Text(),
				ToMs:   toMs,
			}
		}
	}
	if override, ok := parseInteger(document.Get("timelineBucketMsOverride")); ok {
		s.TimelineBucketMsOverride = &override
	}
	return Normalize(s, "", now, loc), true
}

// TruncateMiddle shortens value to maxLength by eliding its middle
func TruncateMiddle(value string, maxLength int) string {
	runes := []rune(value)
	if len(runes) <= maxLength {
		return value
	}
	chunk := (maxLength - 3) / 2
	if chunk < 1 {
		chunk = 1
	}
	return string(runes[:chunk]) + "..." + string(runes[len(runes)-chunk:])
}

func formatScopeDate(value string, loc *time.Location) string {
	ms, ok := api.ParseTimestampMs(strings.TrimSpace(value))
	if !ok {
		return ""
	}
	return time.UnixMilli(ms).In(loc).Format("Jan 2, 15:04")
}

// BuildLabel describes a scope as "<focus> | <range>", the timeline filter label replacing the
// range when set.
func BuildLabel(s Snapshot, loc *time.Location) string {
	q := query.Normalize(s.Query)

	focus := "all logs"
	switch {
	case q.Field != "" && q.Value != "":
		focus = fmt.Sprintf("%s=%s", q.Field, TruncateMiddle(q.Value, 32))
	case q.Level != "":
		focus = fmt.Sprintf("level=%s", q.Level)
	case q.Audit != "":
		focus = fmt.Sprintf("audit=%s", q.Audit)
	}

	if s.TimelineFilter != nil {
		if timelineLabel := strings.TrimSpace(s.TimelineFilter.Label); timelineLabel != "" {
			return fmt.Sprintf("%s | %s", focus, TruncateMiddle(timelineLabel, 44))
		}
	}

	fromLabel := formatScopeDate(q.From, loc)
	toLabel := formatScopeDate(q.To, loc)
	rangeLabel := "all time"
	switch {
	case fromLabel != "" && toLabel != "":
		rangeLabel = fmt.Sprintf("%s -> %s", fromLabel, toLabel)
	case fromLabel != "":
		rangeLabel = fmt.Sprintf("from %s", fromLabel)
	case toLabel != "":
		rangeLabel = fmt.Sprintf("to %s", toLabel)
	}
	return fmt.Sprintf("%s | %s", focus, rangeLabel)
}
