package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/rag"
	"github.com/poiesic/kinfolk/search"
	"github.com/poiesic/kinfolk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results  []core.SearchResult
	err      error
	lastKind string
	lastID   core.ID
}

func (s *stubSearcher) SemanticSearch(ctx context.Context, query string, opts ...search.SearchOption) ([]core.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearcher) KeywordSearch(ctx context.Context, query string, opts ...search.SearchOption) ([]core.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearcher) FindRelatedContent(ctx context.Context, category string, id core.ID, opts ...search.SearchOption) ([]core.SearchResult, error) {
	s.lastKind, s.lastID = category, id
	return s.results, s.err
}

type stubAnswerer struct {
	calls int
}

func (a *stubAnswerer) GenerateResponse(ctx context.Context, query string, opts ...rag.RequestOption) core.Response {
	a.calls++
	return core.Response{
		Query:    query,
		Response: "Grandma folded dumplings every New Year.",
		Sources:  []core.Source{{Type: core.ContentTypeStory, ID: 1, Title: "Grandma's Dumplings", Relevance: 0.9}},
		Metadata: core.ResponseMetadata{QueryType: core.QueryTypeCulturalHeritage, Confidence: 1, Language: core.LanguageEnglish, SourcesCount: 1},
	}
}

type testServer struct {
	server   *Server
	searcher *stubSearcher
	answerer *stubAnswerer
	repos    *badger.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	searcher := &stubSearcher{results: []core.SearchResult{{ID: 1, ContentType: core.ContentTypeStory, Title: "Grandma's Dumplings", Similarity: 0.9}}}
	answerer := &stubAnswerer{}
	server, err := NewServer(nil, searcher, answerer, repos.Sessions)
	require.NoError(t, err)

	return &testServer{server: server, searcher: searcher, answerer: answerer, repos: repos}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing addr", func(c *Config) { c.Addr = "" }},
		{"bad addr", func(c *Config) { c.Addr = "localhost" }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"threshold too high", func(c *Config) { c.SearchThreshold = 1.5 }},
		{"zero max limit", func(c *Config) { c.MaxLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestEmptyQueryRejected(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/search", "/api/keyword", "/api/chat"} {
		t.Run(path, func(t *testing.T) {
			for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`} {
				rec := ts.do(t, http.MethodPost, path, body)
				assert.Equal(t, http.StatusBadRequest, rec.Code, body)
				assert.Contains(t, rec.Body.String(), "query cannot be empty")
			}
		})
	}
	assert.Equal(t, 0, ts.answerer.calls)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/search", `{"query": "traditional cooking recipes", "limit": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	resp := decode[searchResponse](t, rec)
	assert.Equal(t, "traditional cooking recipes", resp.Query)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 0.6, resp.Threshold)
	assert.Equal(t, "Grandma's Dumplings", resp.Results[0].Title)

	rec = ts.do(t, http.MethodPost, "/api/search", `{"query": "x", "threshold": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/search", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.searcher.results, ts.searcher.err = nil, errors.New("boom")
	rec = ts.do(t, http.MethodPost, "/api/search", `{"query": "x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestKeyword_EmptyResultsIsArray(t *testing.T) {
	ts := newTestServer(t)
	ts.searcher.results = nil

	rec := ts.do(t, http.MethodPost, "/api/keyword", `{"query": "dumplings", "types": ["stories"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestChatWithSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/sessions", `{"title": "New Year"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[core.ChatSession](t, rec)
	require.NotEmpty(t, session.ID)

	rec = ts.do(t, http.MethodPost, "/api/chat", `{"query": "What did grandma cook?", "session_id": "`+session.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[core.Response](t, rec)
	assert.Equal(t, core.QueryTypeCulturalHeritage, answer.Metadata.QueryType)

	rec = ts.do(t, http.MethodGet, "/api/sessions/"+session.ID+"/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[struct {
		Logs []core.QueryLog `json:"logs"`
	}](t, rec)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "What did grandma cook?", logs.Logs[0].QueryText)
	assert.Equal(t, "Grandma folded dumplings every New Year.", logs.Logs[0].ResponseText)
}

func TestChatUnknownSessionStillAnswers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/chat", `{"query": "hello", "session_id": "missing"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.answerer.calls)

	rec = ts.do(t, http.MethodGet, "/api/sessions/missing/logs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelated(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/related/stories/42?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stories", ts.searcher.lastKind)
	assert.Equal(t, core.ID(42), ts.searcher.lastID)

	tests := []struct {
		path string
		code int
	}{
		{"/api/related/story/abc", http.StatusBadRequest},
		{"/api/related/story/1?limit=0", http.StatusBadRequest},
		{"/api/related/story/1?limit=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ts.do(t, http.MethodGet, tt.path, "").Code, tt.path)
	}
}

func TestOperationalRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = ts.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	ts.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	config := DefaultConfig()
	config.Addr = "127.0.0.1:38471"
	server, err := NewServer(config, &stubSearcher{}, &stubAnswerer{}, repos.Sessions)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
