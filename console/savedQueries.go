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
	"errors"
	"fmt"
	"strings"

	"github.com/mikroscope/console/saved"
	"github.com/mikroscope/console/scopes"
)

const savedNotPersistedStatus = "Could not persist saved queries."

func (c *Console) SavedQueries() []saved.Query {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.saved.Entries()
}

// savedQueryFailure turns a saved query lookup failure into a status, the lock must be held
func (c *Console) savedQueryFailure(err error, missingNameStatus string) {
	unknown := &saved.UnknownQueryError{}
	switch {
	case errors.Is(err, saved.ErrMissingName):
		c.setStatus(missingNameStatus)
	case errors.As(err, &unknown):
		c.setStatus(fmt.Sprintf("Saved query %q was not found.", unknown.Name))
	}
}

// SaveQuery saves the current remote query under name, replacing any query with the same name.
//
// A persistence failure keeps the query in memory and is only reported in the status.
func (c *Console) SaveQuery(ctx context.Context, name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, updated, err := c.saved.Save(ctx, name, c.query)
	if errors.Is(err, saved.ErrNotPersisted) {
		c.setStatus(savedNotPersistedStatus)
		return nil
	}
	if err != nil {
		c.savedQueryFailure(err, "Provide a query name before saving.")
		return err
	}
	if updated {
		c.setStatus(fmt.Sprintf("Updated saved query %q.", entry.Name))
	} else {
		c.setStatus(fmt.Sprintf("Saved query %q.", entry.Name))
	}
	return nil
}

// RunSavedQuery replaces the remote query by a saved one and fetches it in the stream view
func (c *Console) RunSavedQuery(ctx context.Context, name string) (Outcome, error) {
	c.lock.Lock()
	entry, err := c.saved.Find(name)
	if err != nil {
		c.savedQueryFailure(err, "Select a saved query to run.")
		c.lock.Unlock()
		return Outcome{}, err
	}
	c.query = c.canonicalQuery(entry.Query)
	c.timelineFilter = nil
	c.activeView = scopes.ViewStream
	c.lock.Unlock()
	return c.FetchLogs(ctx)
}

func (c *Console) DeleteSavedQuery(ctx context.Context, name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	err := c.saved.Delete(ctx, name)
	if errors.Is(err, saved.ErrNotPersisted) {
		c.setStatus(savedNotPersistedStatus)
		return nil
	}
	if err != nil {
		c.savedQueryFailure(err, "Select a saved query to delete.")
		return err
	}
	c.setStatus(fmt.Sprintf("Deleted saved query %q.", strings.TrimSpace(name)))
	return nil
}
