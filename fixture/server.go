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

package fixture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/mikroscope/console/api"
)

var log = logrus.WithField("component", "fixture")

// Server serves a fixed set of log entries through the log query and aggregation endpoints
type Server struct {
	http.Server
	entries []api.LogEntry
	config  api.ClientConfig
	gin     *gin.Engine
}

// LoadEntries reads a fixture file, either a list of entries or an object with an `entries` list
func LoadEntries(fs afero.Fs, path string) ([]api.LogEntry, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("unable to read fixture file %q: %w", path, err)
	}
	document, err := api.ParseValue(content)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture file %q: %w", path, err)
	}
	if document.Kind() == api.KindObject {
		document = document.Get("entries")
	}
	if document.Kind() != api.KindArray {
		return nil, fmt.Errorf("invalid fixture file %q: expected a list of entries", path)
	}

	entries := []api.LogEntry{}
	for idx, item := range document.Items() {
		raw, err := item.MarshalJSON()
		if err != nil {
			return nil, err
		}
		entry := api.LogEntry{}
		if err := entry.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("invalid entry #%d in fixture file %q: %w", idx, path, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// newestFirst sorts by descending timestamp, entries without a timestamp go last
func newestFirst(entries []api.LogEntry) []api.LogEntry {
	sorted := append([]api.LogEntry{}, entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, leftOk := sorted[i].TimestampMs()
		right, rightOk := sorted[j].TimestampMs()
		if leftOk != rightOk {
			return leftOk
		}
		return left > right
	})
	return sorted
}

// New creates a server listening on addr, an empty config.APIOrigin is served as is
func New(addr string, entries []api.LogEntry, config api.ClientConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	server := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: engine,
		},
		entries: newestFirst(entries),
		config:  config,
		gin:     engine,
	}

	engine.HandleMethodNotAllowed = true

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	engine.Use(cors.New(corsConfig))
	engine.Use(errorHandlerMiddleware)
	engine.Use(loggerMiddleware)
	engine.Use(gin.Recovery())

	engine.GET("/health", server.health)
	engine.GET("/config.json", server.clientConfig)
	engine.GET("/api/logs", server.listLogs)
	engine.GET("/api/logs/aggregate", server.aggregateLogs)

	engine.NoRoute(func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusNotFound, errors.New("not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	return server
}

// Serve accepts connections on listener until ctx is done
func (server *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	log.WithField("address", listener.Addr().String()).Info("fixture server listening")
	err := server.Server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (server *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": len(server.entries)})
}

func (server *Server) clientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, server.config)
}

func (server *Server) listLogs(c *gin.Context) {
	scope, err := parseFilters(c)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	limit := parseLimit(c.Query("limit"), defaultPageLimit, maxPageLimit)
	offset, err := decodeCursor(c.Query("cursor"))
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	matching := scope.apply(server.entries)
	if offset > len(matching) {
		offset = len(matching)
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}

	page := api.LogsPage{Entries: matching[offset:end], HasMore: end < len(matching)}
	if page.HasMore {
		cursor := encodeCursor(end)
		page.NextCursor = &cursor
	}
	c.JSON(http.StatusOK, page)
}

func (server *Server) aggregateLogs(c *gin.Context) {
	scope, err := parseFilters(c)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	groups, err := parseGrouping(c.Query("groupBy"), c.Query("groupField"))
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	limit := parseLimit(c.Query("limit"), defaultAggregateLimit, maxAggregateLimit)

	c.JSON(http.StatusOK, api.AggregateResult{
		Buckets: aggregate(scope.apply(server.entries), groups, limit),
	})
}
