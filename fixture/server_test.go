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

package fixture

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikroscope/console/api"
)

const fixtureEntries = `{"entries": [
	{"id": "1", "timestamp": "2024-03-01T10:00:00.000Z", "level": "INFO", "event": "request.start", "message": "a",
	 "data": {"correlationId": "c1", "component": "api"}},
	{"id": "2", "timestamp": "2024-03-01T10:05:00.000Z", "level": "ERROR", "event": "request.failed", "message": "b",
	 "data": {"correlationId": "c1", "component": "api"}},
	{"id": "3", "timestamp": "2024-03-01T10:20:00.000Z", "level": "error", "event": "db.timeout", "message": "c",
	 "data": {"requestId": "req-9", "component": "db", "audit": true}},
	{"id": "4", "timestamp": "2024-03-01T10:30:00.000Z", "level": "WARN", "event": "", "message": "d"}
]}`

func createTestServer(t *testing.T) *Server {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixture.json", []byte(fixtureEntries), 0600))
	entries, err := LoadEntries(fs, "/fixture.json")
	require.NoError(t, err)
	return New(":0", entries, api.ClientConfig{APIOrigin: "http://logs.example.com"})
}

func get(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, target, nil)
	server.Handler.ServeHTTP(recorder, request)
	return recorder
}

type pageResponse struct {
	Entries []struct {
		ID string `json:"id"`
	} `json:"entries"`
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor"`
}

func decodePage(t *testing.T, recorder *httptest.ResponseRecorder) ([]string, pageResponse) {
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	page := pageResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	ids := []string{}
	for _, entry := range page.Entries {
		ids = append(ids, entry.ID)
	}
	return ids, page
}

func TestListLogs(t *testing.T) {
	server := createTestServer(t)

	var tests = []struct {
		name     string
		target   string
		expected []string
	}{
		{"all, newest first", "/api/logs", []string{"4", "3", "2", "1"}},
		{"level", "/api/logs?level=ERROR", []string{"3", "2"}},
		{"audit", "/api/logs?audit=true", []string{"3"}},
		{"not audit", "/api/logs?audit=false", []string{"4", "2", "1"}},
		{"field", "/api/logs?field=correlationId&value=c1", []string{"2", "1"}},
		{"data field", "/api/logs?field=data.component&value=db", []string{"3"}},
		{"range", "/api/logs?from=2024-03-01T10:05:00.000Z&to=2024-03-01T10:20:00.000Z", []string{"3", "2"}},
		{"limit clamp", "/api/logs?limit=0", []string{"4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, _ := decodePage(t, get(t, server, tt.target))
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestListLogsPagination(t *testing.T) {
	server := createTestServer(t)

	ids, page := decodePage(t, get(t, server, "/api/logs?limit=3"))
	assert.Equal(t, []string{"4", "3", "2"}, ids)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	ids, page = decodePage(t, get(t, server, "/api/logs?limit=3&cursor="+*page.NextCursor))
	assert.Equal(t, []string{"1"}, ids)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)

	assert.Equal(t, http.StatusBadRequest, get(t, server, "/api/logs?cursor=%21%21").Code)
}

func TestAggregateLogs(t *testing.T) {
	server := createTestServer(t)

	var tests = []struct {
		name     string
		target   string
		expected []api.AggregateBucket
	}{
		{"level", "/api/logs/aggregate?groupBy=level", []api.AggregateBucket{{Key: "ERROR", Count: 2}, {Key: "INFO", Count: 1}, {Key: "WARN", Count: 1}}},
		{"event with limit", "/api/logs/aggregate?groupBy=event&limit=1", []api.AggregateBucket{{Key: "db.timeout", Count: 1}}},
		{"field", "/api/logs/aggregate?groupBy=field&groupField=component", []api.AggregateBucket{{Key: "api", Count: 2}, {Key: "db", Count: 1}}},
		{
			"correlation",
			"/api/logs/aggregate?groupBy=correlation&level=ERROR",
			[]api.AggregateBucket{{Key: "correlationId:c1", Count: 1}, {Key: "requestId:req-9", Count: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := get(t, server, tt.target)
			require.Equal(t, http.StatusOK, recorder.Code)
			result := api.AggregateResult{}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
			assert.Equal(t, tt.expected, result.Buckets)
		})
	}

	assert.Equal(t, http.StatusBadRequest, get(t, server, "/api/logs/aggregate?groupBy=field").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, server, "/api/logs/aggregate?groupBy=nope").Code)
}

func TestConfigAndHealth(t *testing.T) {
	server := createTestServer(t)

	recorder := get(t, server, "/config.json")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"apiOrigin": "http://logs.example.com"}`, recorder.Body.String())

	recorder = get(t, server, "/health")
	assert.JSONEq(t, `{"ok": true, "entries": 4}`, recorder.Body.String())

	recorder = get(t, server, "/nope")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"message": "not found"}`, recorder.Body.String())
}

func TestLoadEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/list.json", []byte(`[{"id": "a"}]`), 0600))
	require.NoError(t, afero.WriteFile(fs, "/bad.json", []byte(`{"entries": 3}`), 0600))

	entries, err := LoadEntries(fs, "/list.json")
	require.NoError(t, err)
	assert.Equal(t, "a", entries[0].ID)

	_, err = LoadEntries(fs, "/bad.json")
	assert.Error(t, err)
	_, err = LoadEntries(fs, "/missing.json")
	assert.Error(t, err)
}
