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

package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikroscope/console/api"
)

const (
	PresetErrors24h = "errors24h"
	PresetAudit7d   = "audit7d"

	BaselineRangeHours = 720

	TraceFieldCorrelationID = "correlationId"
	TraceFieldRequestID     = "requestId"
	TraceModeAuto           = "auto"
)

var PresetNames = []string{PresetErrors24h, PresetAudit7d}

type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q, expecting one of %v", e.Name, PresetNames)
}

// RangeHours returns the [now - hours, now] range at second precision
func RangeHours(now time.Time, hours int) (string, string) {
	to := now.Truncate(time.Second)
	from := to.Add(-time.Duration(hours) * time.Hour)
	return api.FormatTimestampMs(from.UnixMilli()), api.FormatTimestampMs(to.UnixMilli())
}

// Preset builds one of the pinned queries
func Preset(name string, now time.Time) (RemoteQuery, error) {
	q := RemoteQuery{Limit: strconv.Itoa(DefaultLimit)}
	switch name {
	case PresetErrors24h:
		q.From, q.To = RangeHours(now, 24)
		q.Level = "ERROR"
	case PresetAudit7d:
		q.From, q.To = RangeHours(now, 168)
		q.Audit = "true"
	default:
		return RemoteQuery{}, &UnknownPresetError{Name: name}
	}
	return q, nil
}

// Baseline is the unfiltered query over the last 30 days
func Baseline(now time.Time) RemoteQuery {
	q := RemoteQuery{Limit: strconv.Itoa(DefaultLimit)}
	q.From, q.To = RangeHours(now, BaselineRangeHours)
	return q
}

func IsTraceField(field string) bool {
	return field == TraceFieldCorrelationID || field == TraceFieldRequestID
}

// ResolveTraceField picks the field to filter a trace on, in auto mode request ids are
// recognized by their prefix.
func ResolveTraceField(mode string, traceValue string) string {
	if IsTraceField(mode) {
		return mode
	}
	normalized := strings.ToLower(strings.TrimSpace(traceValue))
	if strings.HasPrefix(normalized, "req-") || strings.HasPrefix(normalized, "request-") {
		return TraceFieldRequestID
	}
	return TraceFieldCorrelationID
}

// HasTraceFilter reports whether the query is focused on a single correlation or request
func (q RemoteQuery) HasTraceFilter() bool {
	return IsTraceField(strings.TrimSpace(q.Field)) && strings.TrimSpace(q.Value) != ""
}
