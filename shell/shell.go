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
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"

	"github.com/mikroscope/console/console"
)

var log = logrus.WithField("component", "shell")

// ErrQuit is returned by Execute when the user asks to leave the shell
var ErrQuit = errors.New("quit")

type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q, type \"help\" for the list of commands", e.Name)
}

type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// LineReader is the source of the shell input lines, *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// promptSetter is implemented by line readers able to change their prompt
type promptSetter interface {
	SetPrompt(prompt string)
}

// NewReadlineReader creates a line reader with history and line edition
func NewReadlineReader(prompt string, historyFile string) (LineReader, error) {
	instance, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

type command struct {
	usage       string
	description string
	run         func(ctx context.Context, args []string) error
}

// Shell is an interactive front end over a console
type Shell struct {
	console  *console.Console
	reader   LineReader
	out      io.Writer
	now      func() time.Time
	width    int
	commands map[string]command
}

type Options struct {
	// Now defaults to time.Now
	Now func() time.Time
	// TimelineWidth defaults to the console default width
	TimelineWidth int
}

func New(c *console.Console, reader LineReader, out io.Writer, options Options) *Shell {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	width := options.TimelineWidth
	if width <= 0 {
		width = console.DefaultTimelineWidth
	}
	s := &Shell{
		console: c,
		reader:  reader,
		out:     out,
		now:     now,
		width:   width,
	}
	s.commands = s.buildCommands()
	return s
}

// Execute runs a single command line
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := s.commands[name]
	if !ok {
		return &UnknownCommandError{Name: name}
	}
	log.WithField("command", name).Debug("executing command")
	return cmd.run(ctx, fields[1:])
}

// Run reads and executes lines until the input ends, the context is done or the user quits.
//
// Command failures are reported on the output and do not stop the shell.
func (s *Shell) Run(ctx context.Context) error {
	defer s.reader.Close()

	refreshPrompt := func() {}
	if setter, ok := s.reader.(promptSetter); ok {
		// the prompt follows the console state
		observer := s.console.Subscribe()
		defer s.console.Unsubscribe(observer)
		setter.SetPrompt(s.Prompt())
		refreshPrompt = func() {
			select {
			case <-observer.Receive():
				setter.SetPrompt(s.Prompt())
			default:
			}
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		refreshPrompt()
		line, err := s.reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = s.Execute(ctx, line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// Prompt shows the active view with the visible and loaded counts
func (s *Shell) Prompt() string {
	return fmt.Sprintf(
		"mikroscope %s %d/%d> ",
		s.console.ActiveView(),
		len(s.console.Visible()),
		len(s.console.Loaded()),
	)
}

func (s *Shell) help() error {
	names := make([]string, 0, len(s.commands))
	for name, cmd := range s.commands {
		// aliases share the usage of their command
		if strings.Fields(cmd.usage)[0] != name {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := s.commands[name]
		if _, err := fmt.Fprintf(s.out, "  %-36s %s\n", cmd.usage, cmd.description); err != nil {
			return err
		}
	}
	return nil
}
