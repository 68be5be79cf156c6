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

package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/fixture"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/scopes"
	"github.com/mikroscope/console/store/memory"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
}

type scriptedReader struct {
	lines   []string
	closed  bool
	prompts []string
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func entries() []api.LogEntry {
	result := []api.LogEntry{}
	base := testNow.Add(-time.Hour)
	for idx := 0; idx < 12; idx++ {
		level := "INFO"
		if idx%4 == 0 {
			level = "ERROR"
		}
		result = append(result, api.NewLogEntry(
			fmt.Sprintf("e%02d", idx),
			api.FormatTimestampMs(base.Add(time.Duration(idx)*time.Minute).UnixMilli()),
			level,
			"tick",
			fmt.Sprintf("message %d", idx),
			api.MustParseValue(fmt.Sprintf(`{"requestId": "r%d", "component": "api"}`, idx%3)),
		))
	}
	return result
}

func createShell(t *testing.T, lines ...string) (*Shell, *console.Console, *scriptedReader, *bytes.Buffer) {
	server := fixture.New(":0", entries(), api.ClientConfig{})
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	c := console.New(logs.CreateClient(ts.URL, 5*time.Second), memory.CreateMemoryStore(), console.Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	reader := &scriptedReader{lines: lines}
	out := &bytes.Buffer{}
	return New(c, reader, out, Options{Now: func() time.Time { return testNow }, TimelineWidth: 240}), c, reader, out
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("run renders the stream", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		assert.Len(t, c.Loaded(), 12)
		assert.Contains(t, out.String(), "message 11")
		assert.Contains(t, out.String(), "Loaded 12 log entries in")
	})

	t.Run("server filters are applied on the next run", func(t *testing.T) {
		s, c, _, _ := createShell(t)
		require.NoError(t, s.Execute(ctx, "level error"))
		assert.Equal(t, "ERROR", c.Query().Level)
		require.NoError(t, s.Execute(ctx, "run"))
		assert.Len(t, c.Loaded(), 3)

		require.NoError(t, s.Execute(ctx, "level all"))
		assert.Equal(t, "", c.Query().Level)
	})

	t.Run("local filter and sort", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		require.NoError(t, s.Execute(ctx, "filter data.requestId r1 equals"))
		assert.Len(t, c.Visible(), 4)
		require.NoError(t, s.Execute(ctx, "sort timestamp asc"))
		assert.Equal(t, "e01", c.Visible()[0].ID)
		require.NoError(t, s.Execute(ctx, "filter clear"))
		assert.Len(t, c.Visible(), 12)
		assert.NotEmpty(t, out.String())
	})

	t.Run("views", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		out.Reset()
		require.NoError(t, s.Execute(ctx, "view correlations"))
		assert.Equal(t, scopes.ViewCorrelations, c.ActiveView())
		assert.Contains(t, out.String(), "3 correlation groups")

		out.Reset()
		require.NoError(t, s.Execute(ctx, "view timeline"))
		assert.Contains(t, out.String(), "buckets (auto)")
	})

	t.Run("back restores the previous scope", func(t *testing.T) {
		s, c, _, _ := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		require.NoError(t, s.Execute(ctx, "level error"))
		require.NoError(t, s.Execute(ctx, "run"))
		require.Len(t, c.History(), 1)

		require.NoError(t, s.Execute(ctx, "back"))
		assert.Equal(t, "", c.Query().Level)
		assert.Len(t, c.Loaded(), 12)
	})

	t.Run("trace and chain", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		require.NoError(t, s.Execute(ctx, "trace requestId r2"))
		assert.Equal(t, query.RemoteQuery{Field: "requestId", Value: "r2"}, query.RemoteQuery{Field: c.Query().Field, Value: c.Query().Value})
		assert.Len(t, c.Loaded(), 4)

		out.Reset()
		require.NoError(t, s.Execute(ctx, "chain requestId r2"))
		assert.Contains(t, out.String(), "requestId=r2, 4 entries")
	})

	t.Run("saved queries", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "level error"))
		require.NoError(t, s.Execute(ctx, "save only errors"))
		require.Len(t, c.SavedQueries(), 1)
		assert.Equal(t, "only errors", c.SavedQueries()[0].Name)

		require.NoError(t, s.Execute(ctx, "level all"))
		require.NoError(t, s.Execute(ctx, "load only errors"))
		assert.Len(t, c.Loaded(), 3)

		out.Reset()
		require.NoError(t, s.Execute(ctx, "saved"))
		assert.Contains(t, out.String(), "level=ERROR")

		require.NoError(t, s.Execute(ctx, "delete only errors"))
		assert.Empty(t, c.SavedQueries())
	})

	t.Run("theme", func(t *testing.T) {
		s, c, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "theme dark"))
		assert.Equal(t, "dark", c.Theme())
		require.NoError(t, s.Execute(ctx, "theme toggle"))
		assert.Equal(t, "light", c.Theme())
		assert.Contains(t, out.String(), "theme: light")
		assert.Error(t, s.Execute(ctx, "theme blue"))
	})

	t.Run("errors", func(t *testing.T) {
		s, _, _, _ := createShell(t)
		var unknown *UnknownCommandError
		assert.ErrorAs(t, s.Execute(ctx, "frobnicate"), &unknown)
		var usage *UsageError
		assert.ErrorAs(t, s.Execute(ctx, "goto"), &usage)
		assert.ErrorAs(t, s.Execute(ctx, "sort"), &usage)
		assert.Error(t, s.Execute(ctx, "bucket 1000"))
		assert.Error(t, s.Execute(ctx, "bucket size 3s"))
		assert.Equal(t, ErrQuit, s.Execute(ctx, "exit"))
		assert.NoError(t, s.Execute(ctx, "   "))
	})

	t.Run("help lists the aliased commands once", func(t *testing.T) {
		s, _, _, out := createShell(t)
		require.NoError(t, s.Execute(ctx, "help"))
		assert.Equal(t, 1, strings.Count(out.String(), "leave the shell"))
		assert.Equal(t, 1, strings.Count(out.String(), "drill into a timeline bucket"))
	})

	t.Run("drill is an alias of bucket", func(t *testing.T) {
		s, _, _, _ := createShell(t)
		require.NoError(t, s.Execute(ctx, "run"))
		assert.NoError(t, s.Execute(ctx, "drill clear"))
		var usage *UsageError
		assert.ErrorAs(t, s.Execute(ctx, "window"), &usage)
	})
}

func TestParseBucketSize(t *testing.T) {
	size, err := parseBucketSize("auto")
	require.NoError(t, err)
	assert.Nil(t, size)

	size, err = parseBucketSize("15m")
	require.NoError(t, err)
	assert.Equal(t, int64(15*60000), *size)

	size, err = parseBucketSize("2d")
	require.NoError(t, err)
	assert.Equal(t, int64(2*24*3600000), *size)

	_, err = parseBucketSize("0d")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Run("stops on quit and reports failures", func(t *testing.T) {
		s, c, reader, out := createShell(t, "run", "bogus", "level warn", "quit", "level error")
		require.NoError(t, s.Run(context.Background()))
		assert.True(t, reader.closed)
		assert.Contains(t, out.String(), `Error: unknown command "bogus"`)
		assert.Equal(t, "WARN", c.Query().Level)
		assert.Equal(t, []string{"level error"}, reader.lines)
	})

	t.Run("stops on an interrupt of an empty line", func(t *testing.T) {
		s, c, _, _ := createShell(t, "^C", "level info")
		require.NoError(t, s.Run(context.Background()))
		assert.Equal(t, "", c.Query().Level)
	})

	t.Run("prompt follows the console", func(t *testing.T) {
		s, _, reader, _ := createShell(t, "run", "filter data.requestId r1 equals", "quit")
		require.NoError(t, s.Run(context.Background()))
		assert.Equal(t, []string{
			"mikroscope stream 0/0> ",
			"mikroscope stream 12/12> ",
			"mikroscope stream 4/12> ",
		}, reader.prompts)
	})

	t.Run("stops at the end of the input", func(t *testing.T) {
		s, c, reader, _ := createShell(t, "level info")
		require.NoError(t, s.Run(context.Background()))
		assert.True(t, reader.closed)
		assert.Equal(t, "INFO", c.Query().Level)
	})
}
