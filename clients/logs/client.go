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

package logs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/query"
)

var log = logrus.WithField("component", "logs-client")

const (
	DefaultAPIOrigin = "http://127.0.0.1:4310"

	logsPath      = "/api/logs"
	aggregatePath = "/api/logs/aggregate"
)

const (
	GroupByLevel       = "level"
	GroupByEvent       = "event"
	GroupByField       = "field"
	GroupByCorrelation = "correlation"
)

// Client talks to the log query and aggregation endpoints of a mikroscope service
type Client struct {
	rest *resty.Client
}

// CreateClient creates a client for the given origin, a zero timeout means no timeout
func CreateClient(apiOrigin string, timeout time.Duration) *Client {
	rest := resty.New()
	rest.SetHeader("Accept", "application/json")
	if timeout > 0 {
		rest.SetTimeout(timeout)
	}
	return CreateClientWithResty(rest, apiOrigin)
}

func CreateClientWithResty(rest *resty.Client, apiOrigin string) *Client {
	rest.SetBaseURL(TrimTrailingSlash(apiOrigin))
	return &Client{rest: rest}
}

func (c *Client) Origin() string {
	return c.rest.BaseURL
}

func (c *Client) get(ctx context.Context, path string, params []query.Param, result interface{}) error {
	request := c.rest.R().SetContext(ctx).SetResult(result)
	if len(params) > 0 {
		request.SetQueryString(query.EncodeParams(params))
	}

	if ctx.Err() != nil {
		return fmt.Errorf("request to %q cancelled: %w", path, context.Canceled)
	}

	log.WithField("path", path).WithField("query", query.EncodeParams(params)).Debug("sending request")
	resp, err := request.Get(path)
	// Cancellation is checked at completion too, a late response is never reported as a success
	if IsCancellation(err) || ctx.Err() != nil {
		return fmt.Errorf("request to %q cancelled: %w", path, context.Canceled)
	}
	if err != nil {
		return fmt.Errorf("request to %q failed: %w", path, err)
	}
	if !resp.IsSuccess() {
		return &HTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// FetchLogs requests one page of logs, an empty cursor requests the first page.
func (c *Client) FetchLogs(ctx context.Context, q query.RemoteQuery, cursor string) (*api.LogsPage, error) {
	params := q.Params()
	if cursor != "" {
		params = append(params, query.Param{Key: "cursor", Value: cursor})
	}

	page := &api.LogsPage{}
	if err := c.get(ctx, logsPath, params, page); err != nil {
		return nil, err
	}
	if page.Entries == nil {
		page.Entries = []api.LogEntry{}
	}
	return page, nil
}

// AggregateRequest describes one aggregation over the entries matching a scope
type AggregateRequest struct {
	GroupBy    string
	GroupField string
	Limit      int
}

// Aggregate counts the entries matching scope grouped as requested, the scope limit is ignored.
func (c *Client) Aggregate(
	ctx context.Context,
	scope query.RemoteQuery,
	request AggregateRequest,
) ([]api.AggregateBucket, error) {
	params := []query.Param{}
	for _, param := range scope.Params() {
		if param.Key != "limit" {
			params = append(params, param)
		}
	}
	params = append(params, query.Param{Key: "groupBy", Value: request.GroupBy})
	if request.GroupField != "" {
		params = append(params, query.Param{Key: "groupField", Value: request.GroupField})
	}
	if request.Limit > 0 {
		params = append(params, query.Param{Key: "limit", Value: strconv.Itoa(request.Limit)})
	}

	result := &api.AggregateResult{}
	if err := c.get(ctx, aggregatePath, params, result); err != nil {
		return nil, err
	}
	if result.Buckets == nil {
		result.Buckets = []api.AggregateBucket{}
	}
	return result.Buckets, nil
}

func TrimTrailingSlash(origin string) string {
	return strings.TrimSuffix(origin, "/")
}

// LoadClientConfig fetches the console config, any failure falls back to the defaults.
func LoadClientConfig(ctx context.Context, rest *resty.Client, configURL string) api.ClientConfig {
	defaults := api.ClientConfig{APIOrigin: DefaultAPIOrigin}

	config := api.ClientConfig{}
	resp, err := rest.R().SetContext(ctx).SetResult(&config).Get(configURL)
	switch {
	case err != nil:
		log.WithField("url", configURL).WithError(err).Debug("unable to fetch client config, using defaults")
		return defaults
	case !resp.IsSuccess():
		log.WithField("url", configURL).WithField("status", resp.StatusCode()).Debug("unable to fetch client config, using defaults")
		return defaults
	}

	config.APIOrigin = TrimTrailingSlash(strings.TrimSpace(config.APIOrigin))
	if err := mergo.Merge(&config, defaults); err != nil {
		return defaults
	}
	return config
}
