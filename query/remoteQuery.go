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
	"net/url"
	"strconv"
	"strings"

	"github.com/mikroscope/console/api"
)

const (
	DefaultLimit = 1000
	MaxLimit     = 1000
)

// Keys lists the remote query parameters in their canonical order
var Keys = []string{"from", "to", "level", "audit", "field", "value", "limit"}

var validLevels = map[string]struct{}{
	"":      {},
	"DEBUG": {},
	"INFO":  {},
	"WARN":  {},
	"ERROR": {},
}

// RemoteQuery holds the server side filter parameters, every field is kept in its textual form.
//
// The field order matches the canonical key order, it is relied upon when a query is
// serialized as part of a scope signature.
type RemoteQuery struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Level string `json:"level"`
	Audit string `json:"audit"`
	Field string `json:"field"`
	Value string `json:"value"`
	Limit string `json:"limit"`
}

// UnmarshalJSON accepts any scalar for any field (e.g. a numeric limit) and ignores unknown fields.
func (q *RemoteQuery) UnmarshalJSON(data []byte) error {
	document, err := api.ParseValue(data)
	if err != nil {
		return err
	}
	*q = RemoteQuery{}
	for _, key := range Keys {
		q.set(key, document.Get(key).Text())
	}
	return nil
}

func (q *RemoteQuery) set(key string, value string) {
	switch key {
	case "from":
		q.From = value
	case "to":
		q.To = value
	case "level":
		q.Level = value
	case "audit":
		q.Audit = value
	case "field":
		q.Field = value
	case "value":
		q.Value = value
	case "limit":
		q.Limit = value
	}
}

func (q RemoteQuery) get(key string) string {
	switch key {
	case "from":
		return q.From
	case "to":
		return q.To
	case "level":
		return q.Level
	case "audit":
		return q.Audit
	case "field":
		return q.Field
	case "value":
		return q.Value
	case "limit":
		return q.Limit
	}
	return ""
}

// With returns a copy of q with key set to value, unknown keys are ignored
func With(q RemoteQuery, key string, value string) RemoteQuery {
	q.set(key, value)
	return q
}

// Get returns the raw value of key
func (q RemoteQuery) Get(key string) string {
	return q.get(key)
}

// NormalizeLimit parses a limit, returning an empty string when it is invalid or lower than 1
func NormalizeLimit(limit string) string {
	trimmed := strings.TrimSpace(limit)
	if trimmed == "" {
		return ""
	}
	parsed, err := strconv.Atoi(leadingInteger(trimmed))
	if err != nil || parsed < 1 {
		return ""
	}
	if parsed > MaxLimit {
		parsed = MaxLimit
	}
	return strconv.Itoa(parsed)
}

// leadingInteger keeps the optional sign and the leading digits ("25abc" -> "25")
func leadingInteger(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// Normalize canonicalizes a query, it never fails: invalid values degrade to empty.
func Normalize(q RemoteQuery) RemoteQuery {
	normalized := RemoteQuery{
		From:  strings.TrimSpace(q.From),
		To:    strings.TrimSpace(q.To),
		Level: strings.ToUpper(strings.TrimSpace(q.Level)),
		Audit: strings.ToLower(strings.TrimSpace(q.Audit)),
		Field: strings.TrimSpace(q.Field),
		Value: strings.TrimSpace(q.Value),
		Limit: NormalizeLimit(q.Limit),
	}
	if _, ok := validLevels[normalized.Level]; !ok {
		normalized.Level = ""
	}
	if normalized.Audit != "true" && normalized.Audit != "false" {
		normalized.Audit = ""
	}
	return normalized
}

// Param is a single key/value pair of an encoded query
type Param struct {
	Key   string
	Value string
}

// Params returns the non empty parameters of the normalized query in canonical order
func (q RemoteQuery) Params() []Param {
	normalized := Normalize(q)
	params := []Param{}
	for _, key := range Keys {
		if value := normalized.get(key); value != "" {
			params = append(params, Param{Key: key, Value: value})
		}
	}
	return params
}

// EncodeParams builds a form encoded query string, keeping the given order
func EncodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, param := range params {
		parts = append(parts, url.QueryEscape(param.Key)+"="+url.QueryEscape(param.Value))
	}
	return strings.Join(parts, "&")
}

// Encode serializes the normalized query as a query string with a stable key order
func (q RemoteQuery) Encode() string {
	return EncodeParams(q.Params())
}

// Signature is the equality fingerprint of a query
func Signature(q RemoteQuery) string {
	return Normalize(q).Encode()
}

func Equivalent(left RemoteQuery, right RemoteQuery) bool {
	return Signature(left) == Signature(right)
}

// Parse reads the query keys from a raw query string, hasQuery reports whether any was present.
func Parse(rawQuery string) (q RemoteQuery, hasQuery bool, err error) {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return RemoteQuery{}, false, err
	}
	for _, key := range Keys {
		if _, ok := values[key]; !ok {
			continue
		}
		hasQuery = true
		q.set(key, values.Get(key))
	}
	return Normalize(q), hasQuery, nil
}

// BuildViewPath replaces the query keys of a locator with the ones of q, other parameters are kept.
func BuildViewPath(path string, rawQuery string, fragment string, q RemoteQuery) string {
	isQueryKey := map[string]bool{}
	for _, key := range Keys {
		isQueryKey[key] = true
	}

	kept := []string{}
	for _, part := range strings.Split(strings.TrimPrefix(rawQuery, "?"), "&") {
		if part == "" {
			continue
		}
		key := part
		if idx := strings.IndexByte(part, '='); idx >= 0 {
			key = part[:idx]
		}
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if !isQueryKey[key] {
			kept = append(kept, part)
		}
	}
	if encoded := q.Encode(); encoded != "" {
		kept = append(kept, encoded)
	}

	result := path
	if len(kept) > 0 {
		result += "?" + strings.Join(kept, "&")
	}
	if fragment != "" {
		result += "#" + strings.TrimPrefix(fragment, "#")
	}
	return result
}
