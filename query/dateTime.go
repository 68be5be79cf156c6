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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mikroscope/console/api"
)

const localInputLayout = "2006-01-02T15:04:05"

var (
	timeInputPattern      = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	datePartPattern       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	timePartPattern       = regexp.MustCompile(`[T ](\d{2}:\d{2})(?::(\d{2}))?$`)
	dateOnlyPattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateHourMinutePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)
	dateSecondsPattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
)

// NormalizeTimeInput validates a time of day ("HH:MM" or "HH:MM:SS") and returns it as "HH:MM:SS".
func NormalizeTimeInput(value string) string {
	match := timeInputPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return ""
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds := 0
	if match[3] != "" {
		seconds, _ = strconv.Atoi(match[3])
	}
	if hours > 23 || minutes > 59 || seconds > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func ExtractLocalDatePart(value string) string {
	match := datePartPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return ""
	}
	return match[1]
}

func ExtractLocalTimePart(value string) string {
	match := timePartPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return ""
	}
	seconds := match[2]
	if seconds == "" {
		seconds = "00"
	}
	return NormalizeTimeInput(match[1] + ":" + seconds)
}

// CombineDateAndTime merges a date (or date time) value with an optional time of day.
// The separate time of day wins over the one embedded in dateTime, midnight is the default.
func CombineDateAndTime(dateTime string, fallbackTime string) string {
	datePart := ExtractLocalDatePart(dateTime)
	if datePart == "" {
		return ""
	}
	timePart := NormalizeTimeInput(fallbackTime)
	if timePart == "" {
		timePart = ExtractLocalTimePart(dateTime)
	}
	if timePart == "" {
		timePart = "00:00:00"
	}
	return datePart + "T" + timePart
}

// LocalDateTimeToISO interprets a local date time in loc and returns it as an UTC ISO 8601 string.
// Values carrying their own offset are accepted as is. An empty string is returned for invalid input.
func LocalDateTimeToISO(value string, loc *time.Location) string {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return ""
	}
	if dateOnlyPattern.MatchString(normalized) {
		normalized += "T00:00:00"
	} else if dateHourMinutePattern.MatchString(normalized) {
		normalized += ":00"
	}

	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", normalized, loc); err == nil {
		return api.FormatTimestampMs(t.UnixMilli())
	}
	if t, err := time.Parse(time.RFC3339Nano, normalized); err == nil {
		return api.FormatTimestampMs(t.UnixMilli())
	}
	return ""
}

// FormatLocalInput renders an instant as a local "YYYY-MM-DDTHH:MM:SS" value
func FormatLocalInput(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localInputLayout)
}

// QueryDateToLocalInput converts a stored query instant back into a local date time value.
func QueryDateToLocalInput(value string, loc *time.Location) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if dateHourMinutePattern.MatchString(trimmed) {
		return trimmed + ":00"
	}
	if dateSecondsPattern.MatchString(trimmed) {
		return trimmed
	}
	ms, ok := api.ParseTimestampMs(trimmed)
	if !ok {
		return ""
	}
	return FormatLocalInput(time.UnixMilli(ms), loc)
}

// SplitLocalInput returns the separate date and time of day values of a stored query instant
func SplitLocalInput(value string, loc *time.Location) (string, string) {
	local := QueryDateToLocalInput(value, loc)
	return ExtractLocalDatePart(local), ExtractLocalTimePart(local)
}

// CanonicalInstant round trips a query instant through its local date and time of day values,
// the result is what a user editing that same range would submit.
func CanonicalInstant(value string, loc *time.Location) string {
	datePart, timePart := SplitLocalInput(value, loc)
	return LocalDateTimeToISO(CombineDateAndTime(datePart, timePart), loc)
}

// CanonicalRange applies CanonicalInstant to both ends of the query range
func CanonicalRange(q RemoteQuery, loc *time.Location) RemoteQuery {
	q.From = CanonicalInstant(q.From, loc)
	q.To = CanonicalInstant(q.To, loc)
	return q
}
