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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimeInput(t *testing.T) {
	assert.Equal(t, "09:05:00", NormalizeTimeInput("09:05"))
	assert.Equal(t, "23:59:59", NormalizeTimeInput(" 23:59:59 "))
	assert.Equal(t, "", NormalizeTimeInput("24:00"))
	assert.Equal(t, "", NormalizeTimeInput("12:60"))
	assert.Equal(t, "", NormalizeTimeInput("9:05"))
	assert.Equal(t, "", NormalizeTimeInput(""))
}

func TestExtractParts(t *testing.T) {
	assert.Equal(t, "2024-03-04", ExtractLocalDatePart("2024-03-04T10:11:12"))
	assert.Equal(t, "", ExtractLocalDatePart("03/04/2024"))
	assert.Equal(t, "10:11:12", ExtractLocalTimePart("2024-03-04T10:11:12"))
	assert.Equal(t, "10:11:00", ExtractLocalTimePart("2024-03-04 10:11"))
	assert.Equal(t, "", ExtractLocalTimePart("2024-03-04"))
}

func TestCombineDateAndTime(t *testing.T) {
	assert.Equal(t, "2024-03-04T00:00:00", CombineDateAndTime("2024-03-04", ""))
	assert.Equal(t, "2024-03-04T08:30:00", CombineDateAndTime("2024-03-04", "08:30"))
	assert.Equal(t, "2024-03-04T10:11:12", CombineDateAndTime("2024-03-04T10:11:12", ""))
	assert.Equal(t, "2024-03-04T08:30:00", CombineDateAndTime("2024-03-04T10:11:12", "08:30"))
	assert.Equal(t, "", CombineDateAndTime("", "08:30"))
}

func TestLocalDateTimeToISO(t *testing.T) {
	paris := time.FixedZone("CET", 3600)

	assert.Equal(t, "2024-03-04T00:00:00.000Z", LocalDateTimeToISO("2024-03-04", time.UTC))
	assert.Equal(t, "2024-03-03T23:00:00.000Z", LocalDateTimeToISO("2024-03-04", paris))
	assert.Equal(t, "2024-03-04T09:30:00.000Z", LocalDateTimeToISO("2024-03-04T10:30", paris))
	assert.Equal(t, "2024-03-04T10:30:15.000Z", LocalDateTimeToISO("2024-03-04T10:30:15Z", paris))
	assert.Equal(t, "", LocalDateTimeToISO("not a date", paris))
	assert.Equal(t, "", LocalDateTimeToISO("", paris))
}

func TestQueryDateToLocalInput(t *testing.T) {
	paris := time.FixedZone("CET", 3600)

	assert.Equal(t, "2024-03-04T10:30:00", QueryDateToLocalInput("2024-03-04T10:30", paris))
	assert.Equal(t, "2024-03-04T10:30:15", QueryDateToLocalInput("2024-03-04T10:30:15", paris))
	assert.Equal(t, "2024-03-04T11:30:15", QueryDateToLocalInput("2024-03-04T10:30:15.000Z", paris))
	assert.Equal(t, "", QueryDateToLocalInput("garbage", paris))
}

func TestCanonicalInstantKeepsSeconds(t *testing.T) {
	paris := time.FixedZone("CET", 3600)

	assert.Equal(t, "2024-03-04T10:30:15.000Z", CanonicalInstant("2024-03-04T10:30:15.250Z", paris))
	assert.Equal(t, "", CanonicalInstant("", paris))

	datePart, timePart := SplitLocalInput("2024-03-04T23:30:15.000Z", paris)
	assert.Equal(t, "2024-03-05", datePart)
	assert.Equal(t, "00:30:15", timePart)
}

func TestPresets(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 500000000, time.UTC)

	errors, err := Preset(PresetErrors24h, now)
	assert.NoError(t, err)
	assert.Equal(t, RemoteQuery{
		From:  "2024-03-03T12:00:00.000Z",
		To:    "2024-03-04T12:00:00.000Z",
		Level: "ERROR",
		Limit: "1000",
	}, errors)

	audit, err := Preset(PresetAudit7d, now)
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-26T12:00:00.000Z", audit.From)
	assert.Equal(t, "true", audit.Audit)

	_, err = Preset("everything", now)
	assert.Error(t, err)

	baseline := Baseline(now)
	assert.Equal(t, "2024-02-03T12:00:00.000Z", baseline.From)
	assert.Equal(t, "", baseline.Level)
}
