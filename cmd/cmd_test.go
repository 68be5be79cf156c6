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

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/render"
	"github.com/mikroscope/console/store/memory"
)

const testOrigin = "http://mikroscope.test"

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func createViper(values map[string]interface{}) *viper.Viper {
	cfg := viper.New()
	for key, value := range values {
		cfg.Set(key, value)
	}
	return cfg
}

func TestRetrieveQuery(t *testing.T) {
	var tests = []struct {
		name     string
		values   map[string]interface{}
		expected query.RemoteQuery
		hasErr   bool
	}{
		{"empty", map[string]interface{}{}, query.RemoteQuery{}, false},
		{
			"locator",
			map[string]interface{}{locatorKey: "level=warn&limit=50&other=1"},
			query.RemoteQuery{Level: "WARN", Limit: "50"},
			false,
		},
		{
			"flags override the locator",
			map[string]interface{}{locatorKey: "level=warn&limit=50", levelKey: "error", fieldKey: "requestId", valueKey: "req-1"},
			query.RemoteQuery{Level: "error", Limit: "50", Field: "requestId", Value: "req-1"},
			false,
		},
		{
			"preset",
			map[string]interface{}{presetKey: query.PresetErrors24h},
			query.RemoteQuery{From: "2024-02-29T12:00:00.000Z", To: "2024-03-01T12:00:00.000Z", Level: "ERROR", Limit: "1000"},
			false,
		},
		{
			"hours override the range",
			map[string]interface{}{fromKey: "2024-01-01T00:00:00Z", hoursKey: 2},
			query.RemoteQuery{From: "2024-03-01T10:00:00.000Z", To: "2024-03-01T12:00:00.000Z"},
			false,
		},
		{"unknown preset", map[string]interface{}{presetKey: "everything"}, query.RemoteQuery{}, true},
		{"invalid locator", map[string]interface{}{locatorKey: "level=%zz"}, query.RemoteQuery{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := retrieveQuery(createViper(tt.values), testNow)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q)
		})
	}
}

func TestConfigureLog(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	var tests = []struct {
		values   map[string]interface{}
		expected logrus.Level
		hasErr   bool
	}{
		{map[string]interface{}{logLevelKey: "debug"}, logrus.DebugLevel, false},
		{map[string]interface{}{logLevelKey: "off"}, logrus.PanicLevel, false},
		{map[string]interface{}{logLevelKey: "warn", logFormatKey: "json"}, logrus.WarnLevel, false},
		{map[string]interface{}{logLevelKey: "warning"}, logrus.WarnLevel, false},
		{map[string]interface{}{logLevelKey: "verbose"}, logrus.InfoLevel, true},
		{map[string]interface{}{logLevelKey: "fatal"}, logrus.InfoLevel, true},
		{map[string]interface{}{logLevelKey: "info", logFormatKey: "xml"}, logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(describeValues(tt.values), func(t *testing.T) {
			logrus.SetLevel(logrus.InfoLevel)
			err := configureLog(createViper(tt.values))
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, logrus.GetLevel())
		})
	}
}

func describeValues(values map[string]interface{}) string {
	b := &bytes.Buffer{}
	for _, key := range []string{logLevelKey, logFormatKey} {
		if value, ok := values[key]; ok {
			b.WriteString(key + "=" + value.(string) + " ")
		}
	}
	return b.String()
}

func TestCreateStore(t *testing.T) {
	kv, err := createStore(createViper(map[string]interface{}{storeKey: "memory"}))
	require.NoError(t, err)
	assert.NoError(t, kv.Close())

	kv, err = createStore(createViper(map[string]interface{}{storeKey: "bolt", storePathKey: t.TempDir()}))
	require.NoError(t, err)
	assert.NoError(t, kv.Close())

	_, err = createStore(createViper(map[string]interface{}{storeKey: "cloud"}))
	assert.EqualError(t, err, `invalid store specified "cloud" expecting one of [memory file bolt redis]`)
}

func TestRetrieveLocation(t *testing.T) {
	loc, err := retrieveLocation(createViper(map[string]interface{}{timezoneKey: "UTC"}))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = retrieveLocation(createViper(map[string]interface{}{timezoneKey: "Nowhere/Land"}))
	assert.Error(t, err)
}

func TestQueryWithStatusCode(t *testing.T) {
	rest := resty.New()
	httpmock.ActivateNonDefault(rest.GetClient())
	defer httpmock.DeactivateAndReset()

	var tests = []struct {
		statusCode int
		hasErr     bool
	}{
		{200, false},
		{400, true},
		{500, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testOrigin+"/api/logs",
				func(req *http.Request) (*http.Response, error) {
					if tt.statusCode != 200 {
						return httpmock.NewStringResponse(tt.statusCode, "boom"), nil
					}
					return httpmock.NewJsonResponse(200, map[string]interface{}{
						"entries": []map[string]interface{}{
							{"id": "1", "timestamp": "2024-03-01T10:00:00.000Z", "level": "INFO", "event": "boot"},
							{"id": "2", "timestamp": "2024-03-01T11:00:00.000Z", "level": "ERROR", "event": "crash", "data": map[string]interface{}{"requestId": "req-1"}},
						},
						"hasMore":    false,
						"nextCursor": nil,
					})
				},
			)
			httpmock.RegisterResponder("GET", testOrigin+"/api/logs/aggregate",
				func(req *http.Request) (*http.Response, error) {
					return httpmock.NewJsonResponse(200, map[string]interface{}{"buckets": []interface{}{}})
				},
			)

			c := console.New(logs.CreateClientWithResty(rest, testOrigin), memory.CreateMemoryStore(), console.Options{
				Location: time.UTC,
				Now:      func() time.Time { return testNow },
			})
			_, err := c.HydrateFromLocator("level=&limit=10")
			require.NoError(t, err)

			err = fetchPages(context.Background(), c, 3)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			b := &bytes.Buffer{}
			require.NoError(t, writeQueryResult(b, c, render.JSON, true))
			assert.Contains(t, b.String(), `"hasMore":false`)
			assert.Contains(t, b.String(), `"errors":1`)
			assert.Contains(t, b.String(), `"requestId":"req-1"`)
		})
	}
}
