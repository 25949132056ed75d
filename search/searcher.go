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

package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/poiesic/kinfolk/search")

const (
	// DefaultLimit caps the merged result list of semantic and keyword searches.
	DefaultLimit        = 10
	// DefaultThreshold is the minimum similarity of a semantic search hit.
	DefaultThreshold    = 0.7
	// DefaultRelatedLimit caps FindRelatedContent results.
	DefaultRelatedLimit = 5

	// KeywordSimilarity is the similarity assigned to every keyword hit.
	KeywordSimilarity = 0.5
)

// QueryEmbedder turns query text into a vector, returning nil when it cannot.
type QueryEmbedder interface {
	Generate(ctx context.Context, text string) []float32
}

// RecordSource provides reference records and per-kind collections.
type RecordSource interface {
	GetRecord(ctx context.Context, kind core.ContentType, id core.ID) (core.Record, error)
	Collection(kind core.ContentType) storage.Collection
}

var aliases = map[string]core.ContentType{
	"story":      core.ContentTypeStory,
	"stories":    core.ContentTypeStory,
	"memories":   core.ContentTypeStory,
	"event":      core.ContentTypeEvent,
	"events":     core.ContentTypeEvent,
	"heritage":   core.ContentTypeHeritage,
	"traditions": core.ContentTypeHeritage,
	"health":     core.ContentTypeHealth,
}

// Searcher searches the registered categories.
type Searcher struct {
	records     RecordSource
	embedder    QueryEmbedder
	categories  []core.ContentType
	collections map[core.ContentType]storage.Collection
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCollection replaces the collection searched for a category.
func WithCollection(kind core.ContentType, collection storage.Collection) Option {
	return func(s *Searcher) error {
		if _, ok := s.collections[kind]; !ok {
			return core.ErrUnknownContentType
		}
		s.collections[kind] = collection
		return nil
	}
}

// WithPoolSize queries categories concurrently on a worker pool of the given size.
// Result order does not depend on it.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a searcher over the searchable record kinds.
func NewSearcher(records RecordSource, embedder QueryEmbedder, opts ...Option) (*Searcher, error) {
	if records == nil {
		return nil, ErrRecordSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		records:     records,
		embedder:    embedder,
		categories:  slices.Clone(core.SearchableTypes),
		collections: make(map[core.ContentType]storage.Collection, len(core.SearchableTypes)),
		logger:      slog.Default(),
	}
	for _, kind := range s.categories {
		s.collections[kind] = records.Collection(kind)
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Release releases the worker pool, if any.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Categories returns the registered categories in registry order.
func (s *Searcher) Categories() []core.ContentType {
	return slices.Clone(s.categories)
}

// ResolveCategory maps a case-insensitive category name or alias to a
// registered category.
func (s *Searcher) ResolveCategory(name string) (core.ContentType, bool) {
	kind, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	_, registered := s.collections[kind]
	return kind, registered
}

// resolveCategories returns the categories to search, in request order.
// An empty request selects every category. Unknown names are skipped.
func (s *Searcher) resolveCategories(names []string) []core.ContentType {
	if len(names) == 0 {
		return s.Categories()
	}
	kinds := make([]core.ContentType, 0, len(names))
	for _, name := range names {
		kind, ok := s.ResolveCategory(name)
		if !ok {
			s.logger.Warn("skipping unknown search category", "category", name)
			continue
		}
		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// forEachCategory calls fn once per category, on the pool when one is set.
// fn receives the category's index so callers can keep results in order.
func (s *Searcher) forEachCategory(kinds []core.ContentType, fn func(i int, kind core.ContentType)) {
	if s.pool == nil || len(kinds) < 2 {
		for i, kind := range kinds {
			fn(i, kind)
		}
		return
	}

	done := make(chan struct{}, len(kinds))
	for i, kind := range kinds {
		task := func() {
			defer func() { done <- struct{}{} }()
			fn(i, kind)
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("search pool unavailable, querying inline", "category", kind, "err", err)
			task()
		}
	}
	for range kinds {
		<-done
	}
}
