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
	"fmt"
	"strings"
)

// LogEntry is a single record returned by the log query endpoint.
//
// The well known fields are extracted for convenience, the complete document
// (including unknown top-level fields) is kept to support path lookups and
// whole entry matching.
type LogEntry struct {
	ID        string
	Timestamp string
	Level     string
	Event     string
	Message   string
	Data      *Value

	document *Value
}

func NewLogEntry(id string, timestamp string, level string, event string, message string, data *Value) LogEntry {
	document := NewObject(
		Member{Key: "id", Value: NewString(id)},
		Member{Key: "timestamp", Value: NewString(timestamp)},
		Member{Key: "level", Value: NewString(level)},
		Member{Key: "event", Value: NewString(event)},
		Member{Key: "message", Value: NewString(message)},
	)
	if data != nil {
		document.Set("data", data)
	}
	return entryFromDocument(document)
}

func entryFromDocument(document *Value) LogEntry {
	return LogEntry{
		ID:        document.Get("id").Text(),
		Timestamp: document.Get("timestamp").Text(),
		Level:     document.Get("level").Text(),
		Event:     document.Get("event").Text(),
		Message:   document.Get("message").Text(),
		Data:      document.Get("data"),
		document:  document,
	}
}

// Document returns the entry as a generic tree
func (e LogEntry) Document() *Value {
	if e.document != nil {
		return e.document
	}
	document := NewLogEntry(e.ID, e.Timestamp, e.Level, e.Event, e.Message, e.Data).document
	return document
}

func (e LogEntry) Lookup(path string) *Value {
	return e.Document().Lookup(path)
}

// TimestampMs returns the parsed timestamp of the entry
func (e LogEntry) TimestampMs() (int64, bool) {
	return ParseTimestampMs(e.Timestamp)
}

func (e LogEntry) IsError() bool {
	return strings.ToUpper(e.Level) == "ERROR"
}

func (e LogEntry) MarshalJSON() ([]byte, error) {
	return e.Document().MarshalJSON()
}

func (e *LogEntry) UnmarshalJSON(data []byte) error {
	document, err := ParseValue(data)
	if err != nil {
		return err
	}
	if document.Kind() != KindObject {
		return fmt.Errorf("invalid log entry, expected an object got %s", document.Kind())
	}
	*e = entryFromDocument(document)
	return nil
}

// LogsPage is the response of `GET /api/logs`
type LogsPage struct {
	Entries    []LogEntry `json:"entries"`
	HasMore    bool       `json:"hasMore"`
	NextCursor *string    `json:"nextCursor"`
}

// Cursor returns the opaque continuation cursor, empty when there is none
func (p *LogsPage) Cursor() string {
	if p.NextCursor == nil {
		return ""
	}
	return *p.NextCursor
}

type AggregateBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// AggregateResult is the response of `GET /api/logs/aggregate`
type AggregateResult struct {
	Buckets []AggregateBucket `json:"buckets"`
}

// UnmarshalJSON is lenient, buckets with an empty key or a non positive count are dropped.
func (r *AggregateResult) UnmarshalJSON(data []byte) error {
	document, err := ParseValue(data)
	if err != nil {
		return err
	}
	r.Buckets = NormalizeBuckets(document.Get("buckets"))
	return nil
}

func NormalizeBuckets(buckets *Value) []AggregateBucket {
	result := []AggregateBucket{}
	for _, bucket := range buckets.Items() {
		key := bucket.Get("key").Text()
		count, ok := bucket.Get("count").Number()
		if key == "" || !ok || count <= 0 {
			continue
		}
		result = append(result, AggregateBucket{Key: key, Count: int64(count)})
	}
	return result
}

// ClientConfig is served as `config.json` next to the console
type ClientConfig struct {
	APIOrigin string `json:"apiOrigin"`
}
