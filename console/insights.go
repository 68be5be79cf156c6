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

	"golang.org/x/sync/errgroup"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/query"
)

// Insights are server side aggregations over the whole scope of the remote query,
// as opposed to the loaded page.
type Insights struct {
	Levels            []api.AggregateBucket
	Events            []api.AggregateBucket
	Components        []api.AggregateBucket
	ErrorCorrelations []api.AggregateBucket
}

func (i Insights) IsEmpty() bool {
	return len(i.Levels) == 0 && len(i.Events) == 0 && len(i.Components) == 0 && len(i.ErrorCorrelations) == 0
}

func (c *Console) Insights() Insights {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.insights
}

// insightsScopes derives the aggregation scopes from a query, the error scope defaults the level to ERROR
func insightsScopes(q query.RemoteQuery) (query.RemoteQuery, query.RemoteQuery) {
	scope := q
	scope.Limit = ""
	errorScope := scope
	if errorScope.Level == "" {
		errorScope.Level = "ERROR"
	}
	return scope, errorScope
}

// RefreshInsights requests the server aggregations for the current query.
//
// The four aggregations run concurrently, a failure of any of them resets the insights.
func (c *Console) RefreshInsights(parent context.Context) (Outcome, error) {
	c.lock.Lock()
	ctx, generation := c.insightsRequests.Begin(parent)
	scope, errorScope := insightsScopes(c.query)
	c.lock.Unlock()

	insights := Insights{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		insights.Levels, err = c.api.Aggregate(gctx, scope, logs.AggregateRequest{GroupBy: logs.GroupByLevel, Limit: 12})
		return err
	})
	g.Go(func() (err error) {
		insights.Events, err = c.api.Aggregate(gctx, scope, logs.AggregateRequest{GroupBy: logs.GroupByEvent, Limit: 10})
		return err
	})
	g.Go(func() (err error) {
		insights.Components, err = c.api.Aggregate(
			gctx,
			scope,
			logs.AggregateRequest{GroupBy: logs.GroupByField, GroupField: "component", Limit: 10},
		)
		return err
	})
	g.Go(func() (err error) {
		insights.ErrorCorrelations, err = c.api.Aggregate(
			gctx,
			errorScope,
			logs.AggregateRequest{GroupBy: logs.GroupByCorrelation, Limit: 10},
		)
		return err
	})
	err := g.Wait()

	c.lock.Lock()
	defer c.lock.Unlock()
	c.insightsRequests.Finish(generation)
	if !c.insightsRequests.IsCurrent(generation) {
		return Outcome{Stale: true}, nil
	}
	if logs.IsCancellation(err) {
		return Outcome{Cancelled: true}, nil
	}
	if err != nil {
		log.WithError(err).Debug("server insights unavailable")
		c.insights = Insights{}
		c.changed()
		return Outcome{}, err
	}
	c.insights = insights
	c.changed()
	return Outcome{Applied: true}, nil
}
