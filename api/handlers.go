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
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/search"
	"github.com/poiesic/kinfolk/storage"
)

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit" binding:"omitempty,gte=1"`
	Threshold *float64 `json:"threshold" binding:"omitempty,gte=-1,lte=1"`
	Types     []string `json:"types"`
}

type searchResponse struct {
	Query     string              `json:"query"`
	Results   []core.SearchResult `json:"results"`
	Count     int                 `json:"count"`
	Threshold float64             `json:"threshold,omitempty"`
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type sessionRequest struct {
	Title string `json:"title" binding:"max=200"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if !s.bindQuery(c, &req, &req.Query) {
		return
	}

	threshold := s.config.SearchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	results, err := s.searcher.SemanticSearch(c.Request.Context(), req.Query,
		search.WithTypes(req.Types...),
		search.WithLimit(s.limit(req.Limit, search.DefaultLimit)),
		search.WithThreshold(threshold))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{Query: req.Query, Results: nonNil(results), Count: len(results), Threshold: threshold})
}

func (s *Server) handleKeyword(c *gin.Context) {
	var req searchRequest
	if !s.bindQuery(c, &req, &req.Query) {
		return
	}

	results, err := s.searcher.KeywordSearch(c.Request.Context(), req.Query,
		search.WithTypes(req.Types...),
		search.WithLimit(s.limit(req.Limit, search.DefaultLimit)))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{Query: req.Query, Results: nonNil(results), Count: len(results)})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if !s.bindQuery(c, &req, &req.Query) {
		return
	}
	ctx := c.Request.Context()

	resp := s.answerer.GenerateResponse(ctx, req.Query)

	if req.SessionID != "" {
		_, err := s.sessions.AddQueryLog(ctx, core.NewQueryLog(req.SessionID, &resp))
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("session not found", "session_id", req.SessionID)
		case err != nil:
			s.logger.Error("failed to log query", "session_id", req.SessionID, "err", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := &core.ChatSession{ID: uuid.NewString(), Title: strings.TrimSpace(req.Title)}
	if err := s.sessions.CreateSession(c.Request.Context(), session); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (s *Server) handleQueryLogs(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.sessions.GetSession(ctx, id); err != nil {
		s.fail(c, err)
		return
	}

	logs, err := s.sessions.GetQueryLogs(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if logs == nil {
		logs = []*core.QueryLog{}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "logs": logs})
}

func (s *Server) handleRelated(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	limit := search.DefaultRelatedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	results, err := s.searcher.FindRelatedContent(c.Request.Context(), c.Param("type"), core.ID(id),
		search.WithLimit(s.limit(limit, search.DefaultRelatedLimit)))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Results: nonNil(results), Count: len(results)})
}

// bindQuery decodes the body into req and rejects a blank query with 400.
func (s *Server) bindQuery(c *gin.Context, req any, query *string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	*query = strings.TrimSpace(*query)
	if *query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": core.ErrEmptyQuery.Error()})
		return false
	}
	return true
}

func (s *Server) limit(requested, fallback int) int {
	if requested <= 0 {
		requested = fallback
	}
	return min(requested, s.config.MaxLimit)
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(c.Request.Context().Err(), context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func nonNil(results []core.SearchResult) []core.SearchResult {
	if results == nil {
		return []core.SearchResult{}
	}
	return results
}
