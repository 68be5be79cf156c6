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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKeepsMemberOrder(t *testing.T) {
	value := MustParseValue(`{"zeta":1,"alpha":{"b":true,"a":null},"mid":[1,"two"]}`)

	b, err := json.Marshal(value)
	assert.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":{"b":true,"a":null},"mid":[1,"two"]}`, string(b))

	keys := []string{}
	for _, member := range value.Members() {
		keys = append(keys, member.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
}

func TestValueLookup(t *testing.T) {
	value := MustParseValue(`{"data":{"user":{"id":"u-1"},"tags":["a","b"],"count":3}}`)

	assert.Equal(t, "u-1", value.Lookup("data.user.id").Text())
	assert.Equal(t, "b", value.Lookup("data.tags.1").Text())
	assert.Equal(t, "3", value.Lookup("data.count").Text())
	assert.Nil(t, value.Lookup("data.user.missing"))
	assert.Nil(t, value.Lookup("data.count.deeper"))
	assert.Nil(t, value.Lookup(""))
}

func TestValueText(t *testing.T) {
	testCases := []struct {
		name     string
		document string
		expected string
	}{
		{"null", `null`, ""},
		{"bool", `false`, "false"},
		{"integer", `42`, "42"},
		{"float", `1.5`, "1.5"},
		{"string", `"hello"`, "hello"},
		{"array", `[1, "a"]`, `[1,"a"]`},
		{"object", `{"k": "v"}`, `{"k":"v"}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, MustParseValue(testCase.document).Text())
		})
	}
}

func TestValueTruthy(t *testing.T) {
	assert.False(t, MustParseValue(`""`).Truthy())
	assert.False(t, MustParseValue(`0`).Truthy())
	assert.False(t, MustParseValue(`null`).Truthy())
	assert.False(t, (*Value)(nil).Truthy())
	assert.True(t, MustParseValue(`"x"`).Truthy())
	assert.True(t, MustParseValue(`7`).Truthy())
	assert.True(t, MustParseValue(`{}`).Truthy())
}

func TestLogEntryUnmarshal(t *testing.T) {
	entry := LogEntry{}
	err := json.Unmarshal(
		[]byte(`{"id":"1","timestamp":"2024-01-01T00:00:00.000Z","level":"ERROR","event":"x","audit":true,"data":{"correlationId":"c-1"}}`),
		&entry,
	)
	require.NoError(t, err)

	assert.Equal(t, "1", entry.ID)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "", entry.Message)
	assert.True(t, entry.IsError())
	assert.Equal(t, "c-1", entry.Data.Get("correlationId").Text())
	assert.True(t, entry.Lookup("audit").Bool())

	ms, ok := entry.TimestampMs()
	assert.True(t, ok)
	assert.Equal(t, int64(1704067200000), ms)

	b, err := json.Marshal(entry)
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"audit":true`)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &entry))
}

func TestAggregateResultDropsInvalidBuckets(t *testing.T) {
	result := AggregateResult{}
	err := json.Unmarshal(
		[]byte(`{"buckets":[{"key":"ERROR","count":3},{"key":"","count":2},{"key":"INFO","count":0},{"key":"WARN","count":"4"}]}`),
		&result,
	)
	require.NoError(t, err)
	assert.Equal(t, []AggregateBucket{{Key: "ERROR", Count: 3}, {Key: "WARN", Count: 4}}, result.Buckets)
}

func TestParseTimestampMs(t *testing.T) {
	testCases := []struct {
		timestamp string
		expected  int64
		ok        bool
	}{
		{"2024-01-01T00:00:00.000Z", 1704067200000, true},
		{"2024-01-01T01:00:00+01:00", 1704067200000, true},
		{"2024-01-01T00:00:00", 1704067200000, true},
		{"2024-01-01", 1704067200000, true},
		{"2024-01-01T00:00:00.250Z", 1704067200250, true},
		{"yesterday", 0, false},
		{"", 0, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.timestamp, func(t *testing.T) {
			ms, ok := ParseTimestampMs(testCase.timestamp)
			assert.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.expected, ms)
		})
	}
}
