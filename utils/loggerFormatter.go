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

package utils

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// LoggerFormatter renders "<time> [LEVL] [component>sub_component] message [key:value]..."
type LoggerFormatter struct {
	// PrefixFields - the fields that will appear in the prefix in this order
	PrefixFields []string
	// DisableColors - never colorize the level and prefix
	DisableColors bool
}

func (f *LoggerFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prefixFields, otherFields := f.splitFields(entry)

	b := &bytes.Buffer{}
	b.WriteString(entry.Time.Format(time.RFC3339))

	if entry.HasCaller() {
		fmt.Fprintf(b, " (%s:%d)", entry.Caller.File, entry.Caller.Line)
	}

	prefixValues := make([]string, 0, len(prefixFields))
	for _, field := range prefixFields {
		prefixValues = append(prefixValues, fmt.Sprint(entry.Data[field]))
	}
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	header := fmt.Sprintf("[%s] [%s]", level, strings.Join(prefixValues, ">"))
	if f.DisableColors {
		b.WriteString(" " + header + " ")
	} else {
		b.WriteString(" " + levelColor(entry.Level).Sprint(header) + " ")
	}

	b.WriteString(strings.TrimSpace(entry.Message))

	for _, field := range otherFields {
		fmt.Fprintf(b, " [%s:%v]", field, entry.Data[field])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *LoggerFormatter) splitFields(entry *logrus.Entry) ([]string, []string) {
	prefixFields := []string{}
	otherFields := []string{}
	isPrefixField := map[string]bool{}
	for _, field := range f.PrefixFields {
		isPrefixField[field] = true
		if _, ok := entry.Data[field]; ok {
			prefixFields = append(prefixFields, field)
		}
	}
	for field := range entry.Data {
		if !isPrefixField[field] {
			otherFields = append(otherFields, field)
		}
	}
	sort.Strings(otherFields)
	return prefixFields, otherFields
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgWhite)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}
