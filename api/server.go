// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/rag"
	"github.com/poiesic/kinfolk/search"
	"github.com/poiesic/kinfolk/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the request ID in requests and responses.
const RequestIDHeader = "X-Request-ID"

// Searcher runs the search modes exposed over HTTP.
type Searcher interface {
	SemanticSearch(ctx context.Context, query string, opts ...search.SearchOption) ([]core.SearchResult, error)
	KeywordSearch(ctx context.Context, query string, opts ...search.SearchOption) ([]core.SearchResult, error)
	FindRelatedContent(ctx context.Context, category string, id core.ID, opts ...search.SearchOption) ([]core.SearchResult, error)
}

// Answerer answers chat queries.
type Answerer interface {
	GenerateResponse(ctx context.Context, query string, opts ...rag.RequestOption) core.Response
}

var (
	_ Searcher = (*search.Searcher)(nil)
	_ Answerer = (*rag.Orchestrator)(nil)
)

// Server is the HTTP front end.
type Server struct {
	config   *Config
	searcher Searcher
	answerer Answerer
	sessions storage.SessionRepository
	engine   *gin.Engine
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer builds the router. A nil config uses DefaultConfig.
func NewServer(config *Config, searcher Searcher, answerer Answerer, sessions storage.SessionRepository, opts ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if searcher == nil || answerer == nil || sessions == nil {
		return nil, errors.New("searcher, answerer and sessions are required")
	}

	s := &Server{
		config:   config,
		searcher: searcher,
		answerer: answerer,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "api")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), s.accessLog(), timeout(config.RequestTimeout))
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.POST("/search", s.handleSearch)
	api.POST("/keyword", s.handleKeyword)
	api.POST("/chat", s.handleChat)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id/logs", s.handleQueryLogs)
	api.GET("/related/:type/:id", s.handleRelated)

	s.engine = engine
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
