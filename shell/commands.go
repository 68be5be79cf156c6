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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/query"
	"github.com/mikroscope/console/render"
	"github.com/mikroscope/console/scopes"
	"github.com/mikroscope/console/view"
)

func (s *Shell) buildCommands() map[string]command {
	commands := map[string]command{
		"help": {"help", "list the commands", func(context.Context, []string) error {
			return s.help()
		}},
		"quit": {"quit", "leave the shell", func(context.Context, []string) error {
			return ErrQuit
		}},
		"run": {"run", "run the current query", s.fetching(func(ctx context.Context, _ []string) (console.Outcome, error) {
			return s.console.RunQuery(ctx)
		})},
		"more": {"more", "load the next page", s.fetching(func(ctx context.Context, _ []string) (console.Outcome, error) {
			return s.console.FetchMoreLogs(ctx)
		})},
		"level": {"level <level|all>", "filter the server query on a level", s.setLevel},
		"audit": {"audit <true|false|all>", "filter the server query on audit entries", s.setAudit},
		"range": {"range <from|-> <to|->", "set the server query time range", s.setRange},
		"hours": {"hours <n>", "query the last n hours, 0 clears the range", s.fetching(s.setHours)},
		"where": {"where <field> <value> | where clear", "filter the server query on a field", s.setServerFilter},
		"limit": {"limit <n>", "set the page size", s.setLimit},
		"filter": {"filter <field|*> <value> [contains|equals] | filter clear", "filter the loaded logs", s.setLocalFilter},
		"sort": {"sort <field> [asc|desc]", "sort the loaded logs", s.setSort},
		"view": {"view [stream|correlations|timeline]", "select and render a view", s.setView},
		"show": {"show", "render the active view", func(context.Context, []string) error {
			return s.show()
		}},
		"bucket": {"bucket <index> | bucket clear | bucket size <auto|duration>", "drill into a timeline bucket", s.bucket},
		"back": {"back", "restore the previous scope", s.restoring(func(ctx context.Context, _ []string) (bool, error) {
			return s.console.RestorePreviousScope(ctx)
		})},
		"goto": {"goto <history index>", "restore a scope of the trail", s.restoring(s.gotoScope)},
		"trail": {"trail", "show the scope trail", func(context.Context, []string) error {
			return render.Trail(s.out, s.console.Trail())
		}},
		"recent": {"recent", "list the recent scopes", func(context.Context, []string) error {
			return render.Scopes(s.out, s.console.RecentScopes(), s.now())
		}},
		"restore": {"restore <scope id>", "restore a recent scope", s.restoring(s.restoreRecent)},
		"save": {"save <name>", "save the current query", s.saveQuery},
		"saved": {"saved", "list the saved queries", func(context.Context, []string) error {
			return render.SavedQueries(s.out, s.console.SavedQueries(), s.now())
		}},
		"load": {"load <name>", "run a saved query", s.fetching(s.runSaved)},
		"delete": {"delete <name>", "delete a saved query", s.deleteSaved},
		"preset": {"preset <" + strings.Join(query.PresetNames, "|") + ">", "run a pinned query", s.fetching(s.preset)},
		"baseline": {"baseline", "go back to the last 30 days", s.fetching(func(ctx context.Context, _ []string) (console.Outcome, error) {
			return s.console.ResetToBaseline(ctx)
		})},
		"trace": {"trace <field|auto> <value> | trace clear", "focus the server query on a trace", s.fetching(s.trace)},
		"chain": {"chain <field> <value>", "export the loaded entries of a trace", s.chain},
		"summary": {"summary", "show the counters and top lists", func(context.Context, []string) error {
			return render.Summary(s.out, s.console.Summary())
		}},
		"status": {"status", "show the query and the last status", func(context.Context, []string) error {
			return s.status()
		}},
		"theme": {"theme [light|dark|toggle]", "show or change the theme", s.theme},
	}
	commands["exit"] = commands["quit"]
	commands["drill"] = commands["bucket"]
	commands["window"] = commands["bucket"]
	return commands
}

func (s *Shell) printStatus() error {
	if status := s.console.Status(); status != "" {
		_, err := fmt.Fprintln(s.out, status)
		return err
	}
	return nil
}

// fetching wraps an operation reaching the server, the resulting view is rendered once applied
func (s *Shell) fetching(op func(ctx context.Context, args []string) (console.Outcome, error)) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		outcome, err := op(ctx, args)
		if err != nil {
			return err
		}
		if !outcome.Applied {
			return nil
		}
		if err := s.show(); err != nil {
			return err
		}
		return s.printStatus()
	}
}

func (s *Shell) restoring(op func(ctx context.Context, args []string) (bool, error)) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		applied, err := op(ctx, args)
		if err != nil {
			return err
		}
		if applied {
			if err := s.show(); err != nil {
				return err
			}
		}
		return s.printStatus()
	}
}

func (s *Shell) show() error {
	switch s.console.ActiveView() {
	case scopes.ViewCorrelations:
		return render.Groups(s.out, s.console.CorrelationGroups())
	case scopes.ViewTimeline:
		return render.Timeline(s.out, s.console.Timeline(s.width), s.console.TimelineFilter())
	}
	return render.Logs(s.out, s.console.Visible())
}

func (s *Shell) status() error {
	q := s.console.Query()
	encoded := q.Encode()
	if encoded == "" {
		encoded = "(no filter)"
	}
	if _, err := fmt.Fprintf(
		s.out,
		"query: %s\nview: %s\nloaded: %d, visible: %d, more: %t\n",
		encoded,
		s.console.ActiveView(),
		len(s.console.Loaded()),
		len(s.console.Visible()),
		s.console.HasMore(),
	); err != nil {
		return err
	}
	return s.printStatus()
}

func (s *Shell) setLevel(_ context.Context, args []string) error {
	if len(args) != 1 {
		return &UsageError{Usage: s.commands["level"].usage}
	}
	level := args[0]
	if strings.EqualFold(level, "all") {
		level = ""
	}
	s.console.SetLevel(level)
	return nil
}

func (s *Shell) setAudit(_ context.Context, args []string) error {
	if len(args) != 1 {
		return &UsageError{Usage: s.commands["audit"].usage}
	}
	audit := args[0]
	if strings.EqualFold(audit, "all") {
		audit = ""
	}
	s.console.SetAudit(audit)
	return nil
}

func rangeBound(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func (s *Shell) setRange(_ context.Context, args []string) error {
	if len(args) != 2 {
		return &UsageError{Usage: s.commands["range"].usage}
	}
	s.console.SetRange(rangeBound(args[0]), rangeBound(args[1]))
	return nil
}

func (s *Shell) setHours(ctx context.Context, args []string) (console.Outcome, error) {
	if len(args) != 1 {
		return console.Outcome{}, &UsageError{Usage: s.commands["hours"].usage}
	}
	hours, err := strconv.Atoi(args[0])
	if err != nil || hours < 0 {
		return console.Outcome{}, fmt.Errorf("invalid number of hours %q", args[0])
	}
	return s.console.SetRangeHours(ctx, hours)
}

func (s *Shell) setServerFilter(_ context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		s.console.SetServerFilter("", "")
		return nil
	}
	if len(args) < 2 {
		return &UsageError{Usage: s.commands["where"].usage}
	}
	s.console.SetServerFilter(args[0], strings.Join(args[1:], " "))
	return nil
}

func (s *Shell) setLimit(_ context.Context, args []string) error {
	if len(args) != 1 {
		return &UsageError{Usage: s.commands["limit"].usage}
	}
	s.console.SetLimit(args[0])
	return nil
}

func (s *Shell) setLocalFilter(_ context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		s.console.ClearLocalFilter()
		return render.Logs(s.out, s.console.Visible())
	}
	if len(args) < 2 {
		return &UsageError{Usage: s.commands["filter"].usage}
	}
	field := args[0]
	if field == "*" {
		field = ""
	}
	value := args[1:]
	mode := view.MatchContains
	if last := value[len(value)-1]; len(value) > 1 && (last == string(view.MatchEquals) || last == string(view.MatchContains)) {
		mode = view.ParseMatchMode(last)
		value = value[:len(value)-1]
	}
	s.console.SetLocalFilter(view.LocalFilter{Field: field, Value: strings.Join(value, " "), Mode: mode})
	return render.Logs(s.out, s.console.Visible())
}

func (s *Shell) setSort(_ context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return &UsageError{Usage: s.commands["sort"].usage}
	}
	order := view.Sort{Field: args[0], Direction: view.Descending}
	if len(args) == 2 {
		order.Direction = view.ParseDirection(args[1])
	}
	s.console.SetSort(order)
	return render.Logs(s.out, s.console.Visible())
}

func (s *Shell) setView(_ context.Context, args []string) error {
	if len(args) > 1 {
		return &UsageError{Usage: s.commands["view"].usage}
	}
	if len(args) == 1 {
		s.console.SetActiveView(scopes.ParseView(args[0]))
	}
	return s.show()
}

// parseBucketSize reads a duration, with an additional support of day units
func parseBucketSize(arg string) (*int64, error) {
	if arg == "auto" {
		return nil, nil
	}
	if strings.HasSuffix(arg, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(arg, "d"))
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid bucket size %q", arg)
		}
		ms := int64(days) * (24 * time.Hour).Milliseconds()
		return &ms, nil
	}
	duration, err := time.ParseDuration(arg)
	if err != nil || duration < time.Minute {
		return nil, fmt.Errorf("invalid bucket size %q", arg)
	}
	ms := duration.Milliseconds()
	return &ms, nil
}

func (s *Shell) bucket(ctx context.Context, args []string) error {
	switch {
	case len(args) == 1 && args[0] == "clear":
		s.console.ClearTimelineFilter(ctx)
	case len(args) == 2 && args[0] == "size":
		size, err := parseBucketSize(args[1])
		if err != nil {
			return err
		}
		s.console.SetTimelineBucketOverride(ctx, size)
	case len(args) == 1:
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return &UsageError{Usage: s.commands["bucket"].usage}
		}
		buckets := s.console.Timeline(s.width).Buckets
		if index < 0 || index >= len(buckets) {
			return fmt.Errorf("no timeline bucket at index %d", index)
		}
		if err := s.console.SelectTimelineBucket(ctx, buckets[index]); err != nil {
			return err
		}
	default:
		return &UsageError{Usage: s.commands["bucket"].usage}
	}
	if err := s.show(); err != nil {
		return err
	}
	return s.printStatus()
}

func (s *Shell) gotoScope(ctx context.Context, args []string) (bool, error) {
	if len(args) != 1 {
		return false, &UsageError{Usage: s.commands["goto"].usage}
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return false, &UsageError{Usage: s.commands["goto"].usage}
	}
	return s.console.RestoreScopeByHistoryIndex(ctx, index)
}

func (s *Shell) restoreRecent(ctx context.Context, args []string) (bool, error) {
	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	return s.console.RestoreRecentScope(ctx, id)
}

func (s *Shell) saveQuery(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return &UsageError{Usage: s.commands["save"].usage}
	}
	if err := s.console.SaveQuery(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	return s.printStatus()
}

func (s *Shell) runSaved(ctx context.Context, args []string) (console.Outcome, error) {
	if len(args) == 0 {
		return console.Outcome{}, &UsageError{Usage: s.commands["load"].usage}
	}
	return s.console.RunSavedQuery(ctx, strings.Join(args, " "))
}

func (s *Shell) deleteSaved(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return &UsageError{Usage: s.commands["delete"].usage}
	}
	if err := s.console.DeleteSavedQuery(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	return s.printStatus()
}

func (s *Shell) preset(ctx context.Context, args []string) (console.Outcome, error) {
	if len(args) != 1 {
		return console.Outcome{}, &UsageError{Usage: s.commands["preset"].usage}
	}
	return s.console.ApplyPreset(ctx, args[0])
}

func (s *Shell) trace(ctx context.Context, args []string) (console.Outcome, error) {
	if len(args) == 1 && args[0] == "clear" {
		return s.console.ClearTrace(ctx)
	}
	if len(args) != 2 {
		return console.Outcome{}, &UsageError{Usage: s.commands["trace"].usage}
	}
	return s.console.NavigateTrace(ctx, args[0], args[1])
}

func (s *Shell) chain(_ context.Context, args []string) error {
	if len(args) != 2 {
		return &UsageError{Usage: s.commands["chain"].usage}
	}
	chain, err := s.console.CorrelationChain(args[0], args[1])
	if err != nil {
		return err
	}
	return render.Chain(s.out, chain)
}

func (s *Shell) theme(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "toggle":
		if _, err := s.console.ToggleTheme(ctx); err != nil {
			return err
		}
	case len(args) == 1:
		if err := s.console.SetTheme(ctx, args[0]); err != nil {
			return err
		}
	default:
		return &UsageError{Usage: s.commands["theme"].usage}
	}
	_, err := fmt.Fprintln(s.out, "theme: "+s.console.Theme())
	return err
}
