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
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFormatter(t *testing.T) {
	formatter := LoggerFormatter{PrefixFields: []string{"component", "sub_component"}, DisableColors: true}

	entry := &logrus.Entry{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: " insights failed ",
		Data: logrus.Fields{
			"component":     "console",
			"sub_component": "insights",
			"status":        500,
			"generation":    3,
		},
	}

	b, err := formatter.Format(entry)
	assert.NoError(t, err)
	assert.Equal(
		t,
		"2024-01-02T03:04:05Z [WARN] [console>insights] insights failed [generation:3] [status:500]\n",
		string(b),
	)
}
