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

package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikroscope/console/store"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type InvalidThemeError struct {
	Theme string
}

func (e *InvalidThemeError) Error() string {
	return fmt.Sprintf("invalid theme %q, expecting %q or %q", e.Theme, ThemeLight, ThemeDark)
}

func ParseTheme(theme string) (string, bool) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme == ThemeLight || theme == ThemeDark {
		return theme, true
	}
	return "", false
}

// loadTheme reads the stored preference, anything else than a known theme leaves it unset
func (c *Console) loadTheme(ctx context.Context) {
	c.theme = ""
	stored, err := c.kv.Get(ctx, store.KeyTheme)
	if err != nil {
		return
	}
	if theme, ok := ParseTheme(stored); ok {
		c.theme = theme
	}
}

// Theme returns the preferred theme, empty when none was chosen
func (c *Console) Theme() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.theme
}

func (c *Console) SetTheme(ctx context.Context, theme string) error {
	parsed, ok := ParseTheme(theme)
	if !ok {
		return &InvalidThemeError{Theme: theme}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.theme = parsed
	c.changed()
	if err := c.kv.Set(ctx, store.KeyTheme, parsed); err != nil {
		log.WithError(err).Debug("unable to persist theme")
		c.setStatus("Could not persist theme preference.")
	}
	return nil
}

// ToggleTheme switches between the light and dark themes, an unset theme toggles to dark
func (c *Console) ToggleTheme(ctx context.Context) (string, error) {
	next := ThemeDark
	if c.Theme() == ThemeDark {
		next = ThemeLight
	}
	return next, c.SetTheme(ctx, next)
}
