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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/query"
)

const (
	locatorKey = "locator"
	presetKey  = "preset"
	hoursKey   = "hours"
	fromKey    = "from"
	toKey      = "to"
	levelKey   = "level"
	auditKey   = "audit"
	fieldKey   = "field"
	valueKey   = "value"
	limitKey   = "limit"
	pagesKey   = "pages"
)

// addQueryFlags defines the remote query flags of a command and binds them to cfg
func addQueryFlags(flags *pflag.FlagSet, cfg *viper.Viper) {
	flags.String(locatorKey, "", "Query string of a console locator, e.g. \"level=ERROR&limit=50\"")
	flags.String(presetKey, "", fmt.Sprintf("Pinned query as one of %v", query.PresetNames))
	flags.Int(hoursKey, 0, "Query the last hours, overrides --from and --to")
	flags.String(fromKey, "", "Lower bound of the time range, local date times are supported")
	flags.String(toKey, "", "Upper bound of the time range, local date times are supported")
	flags.String(levelKey, "", "Level of the entries")
	flags.String(auditKey, "", "Only the audit entries when \"true\", only the others when \"false\"")
	flags.String(fieldKey, "", "Field of the entries to filter on")
	flags.String(valueKey, "", "Value of the filtered field")
	flags.String(limitKey, "", fmt.Sprintf("Page size, at most %d", query.MaxLimit))

	cfg.SetDefault(pagesKey, 0)
	flags.Uint(pagesKey, cfg.GetUint(pagesKey), "Number of additional pages to load")

	// Don't sort alphabetically, keep insertion order
	flags.SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = cfg.BindPFlags(flags)
}

// retrieveQuery composes the locator, the preset and the explicit flags, in that order
func retrieveQuery(cfg *viper.Viper, now time.Time) (query.RemoteQuery, error) {
	q, _, err := query.Parse(cfg.GetString(locatorKey))
	if err != nil {
		return query.RemoteQuery{}, fmt.Errorf("invalid argument \"--%s\" specified, %w", locatorKey, err)
	}

	if preset := cfg.GetString(presetKey); preset != "" {
		q, err = query.Preset(preset, now)
		if err != nil {
			return query.RemoteQuery{}, fmt.Errorf("invalid argument \"--%s\" specified, %w", presetKey, err)
		}
	}

	for _, key := range []string{fromKey, toKey, levelKey, auditKey, fieldKey, valueKey, limitKey} {
		if value := cfg.GetString(key); value != "" {
			q = query.With(q, key, value)
		}
	}

	if hours := cfg.GetInt(hoursKey); hours > 0 {
		q.From, q.To = query.RangeHours(now, hours)
	}
	return q, nil
}

// hydrateConsole applies the query flags to the console, without any range the last 30 days
// are queried.
func hydrateConsole(c *console.Console, cfg *viper.Viper) error {
	q, err := retrieveQuery(cfg, time.Now())
	if err != nil {
		return err
	}
	_, err = c.HydrateFromLocator(q.Encode())
	return err
}

// fetchPages runs the console query then loads the additional pages
func fetchPages(ctx context.Context, c *console.Console, pages uint) error {
	outcome, err := c.RunQuery(ctx)
	if err != nil {
		return err
	}
	if outcome.Cancelled {
		return context.Canceled
	}
	for page := uint(0); page < pages && c.HasMore(); page++ {
		outcome, err := c.FetchMoreLogs(ctx)
		if err != nil {
			return err
		}
		if outcome.Cancelled {
			return context.Canceled
		}
	}
	return nil
}

// contextWithUserTermination returns a context cancelled on SIGINT or SIGTERM
func contextWithUserTermination(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	// using a buffered channel cf. https://link.medium.com/M8dPZv9Wuob
	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interruptChan
		log.Debug("SIGTERM received")
		signal.Stop(interruptChan)
		cancel()
	}()

	return ctx
}
