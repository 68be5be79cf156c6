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

package view

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mikroscope/console/api"
)

// BaseSortFields are always offered, whatever the loaded entries
var BaseSortFields = []string{
	"timestamp",
	"level",
	"event",
	"message",
	"data.correlationId",
	"data.requestId",
	"data.customerId",
	"data.component",
}

func flatten(value *api.Value, prefix string, paths map[string]struct{}) {
	for _, member := range value.Members() {
		path := member.Key
		if prefix != "" {
			path = prefix + "." + member.Key
		}
		if member.Value.Kind() == api.KindObject {
			flatten(member.Value, path, paths)
			continue
		}
		paths[path] = struct{}{}
	}
}

// FieldPaths lists the distinct leaf paths of the entries, arrays and nulls are leaves.
func FieldPaths(entries []api.LogEntry) []string {
	set := map[string]struct{}{}
	for _, entry := range entries {
		flatten(entry.Document(), "", set)
	}
	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	collator := collate.New(language.English)
	sort.SliceStable(paths, func(i, j int) bool {
		return collator.CompareString(paths[i], paths[j]) < 0
	})
	return paths
}

// SortFieldOptions lists the base sort fields followed by the discovered paths
func SortFieldOptions(entries []api.LogEntry) []string {
	seen := map[string]struct{}{}
	options := []string{}
	add := func(field string) {
		if _, ok := seen[field]; ok {
			return
		}
		seen[field] = struct{}{}
		options = append(options, field)
	}
	for _, field := range BaseSortFields {
		add(field)
	}
	for _, field := range FieldPaths(entries) {
		add(field)
	}
	return options
}

// FilterFieldOptions is the sort field options preceded by the wildcard
func FilterFieldOptions(entries []api.LogEntry) []string {
	return append([]string{WildcardField}, SortFieldOptions(entries)...)
}

// ResolveSortField keeps field when it is one of the options, otherwise falls back on the timestamp
func ResolveSortField(field string, options []string) string {
	for _, option := range options {
		if option == field {
			return field
		}
	}
	return DefaultSort.Field
}
