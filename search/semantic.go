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
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/metrics"
	"github.com/poiesic/kinfolk/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// searchConfig holds per-call search parameters.
type searchConfig struct {
	types            []string
	limit            int
	perCategoryLimit int
	threshold        float64
	monitor          SearchMonitor
}

// SearchOption configures a single search call.
type SearchOption func(*searchConfig)

// WithTypes restricts the search to the named categories. Aliases are accepted.
func WithTypes(types ...string) SearchOption {
	return func(c *searchConfig) {
		c.types = types
	}
}

// WithLimit caps the merged result list. Values <= 0 keep the default.
func WithLimit(limit int) SearchOption {
	return func(c *searchConfig) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithPerCategoryLimit caps each category's hits before merging.
// By default it equals the overall limit.
func WithPerCategoryLimit(limit int) SearchOption {
	return func(c *searchConfig) {
		if limit > 0 {
			c.perCategoryLimit = limit
		}
	}
}

// WithThreshold sets the minimum similarity of a hit.
func WithThreshold(threshold float64) SearchOption {
	return func(c *searchConfig) {
		c.threshold = threshold
	}
}

// WithMonitor observes each stage of the search.
func WithMonitor(monitor SearchMonitor) SearchOption {
	return func(c *searchConfig) {
		if monitor != nil {
			c.monitor = monitor
		}
	}
}

func newSearchConfig(limit int, threshold float64, opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		limit:     limit,
		threshold: threshold,
		monitor:   &noopMonitor{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.perCategoryLimit <= 0 {
		cfg.perCategoryLimit = cfg.limit
	}
	return cfg
}

// SemanticSearch embeds query and returns the most similar records across
// the requested categories, highest similarity first.
//
// A blank query or a failed query embedding yields no results. The only
// error returned is the context's, when it is canceled mid-search.
func (s *Searcher) SemanticSearch(ctx context.Context, query string, opts ...SearchOption) ([]core.SearchResult, error) {
	cfg := newSearchConfig(DefaultLimit, DefaultThreshold, opts)
	start := time.Now()
	defer func() { metrics.SearchDuration("semantic", time.Since(start)) }()

	cfg.monitor.Start(query)
	if strings.TrimSpace(query) == "" {
		cfg.monitor.Finish(nil)
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "search.semantic", trace.WithAttributes(
		attribute.Int("limit", cfg.limit),
		attribute.Float64("threshold", cfg.threshold),
	))
	defer span.End()

	vector := s.embedder.Generate(ctx, query)
	if vector == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Warn("query embedding unavailable, returning no results")
		cfg.monitor.Finish(nil)
		return nil, nil
	}
	cfg.monitor.AfterQueryEmbedding(len(vector))

	kinds := s.resolveCategories(cfg.types)
	results, err := s.searchVector(ctx, vector, kinds, cfg, nil)
	if err != nil {
		return nil, err
	}
	cfg.monitor.Finish(results)
	return results, nil
}

// SearchByCategory runs SemanticSearch restricted to one category.
// An unknown category yields no results.
func (s *Searcher) SearchByCategory(ctx context.Context, query, category string, opts ...SearchOption) ([]core.SearchResult, error) {
	kind, ok := s.ResolveCategory(category)
	if !ok {
		s.logger.Warn("unknown search category", "category", category)
		return nil, nil
	}
	return s.SemanticSearch(ctx, query, append(opts, WithTypes(string(kind)))...)
}

// FindRelatedContent returns records from every category that resemble the
// reference record, using its stored embedding as the query vector.
// The reference itself is excluded. No similarity threshold applies.
// An unknown category, a missing reference or a reference without an
// embedding yields no results.
func (s *Searcher) FindRelatedContent(ctx context.Context, category string, id core.ID, opts ...SearchOption) ([]core.SearchResult, error) {
	cfg := newSearchConfig(DefaultRelatedLimit, -1, opts)
	start := time.Now()
	defer func() { metrics.SearchDuration("related", time.Since(start)) }()

	kind, ok := s.ResolveCategory(category)
	if !ok {
		s.logger.Warn("unknown content type for related search", "type", category)
		return nil, nil
	}

	reference, err := s.records.GetRecord(ctx, kind, id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("failed to load reference record", "type", kind, "id", id, "err", err)
		}
		return nil, nil
	}
	vector := reference.GetEmbedding()
	if len(vector) == 0 {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "search.related", trace.WithAttributes(
		attribute.String("record.kind", string(kind)),
		attribute.Int64("record.id", int64(id)),
	))
	defer span.End()

	exclude := map[core.ContentType]core.ID{kind: id}
	return s.searchVector(ctx, vector, s.Categories(), cfg, exclude)
}

// searchVector queries each category, merges the hits in category order and
// sorts them by similarity, keeping equal scores in merge order.
func (s *Searcher) searchVector(ctx context.Context, vector []float32, kinds []core.ContentType, cfg *searchConfig, exclude map[core.ContentType]core.ID) ([]core.SearchResult, error) {
	perCategory := make([][]core.SearchResult, len(kinds))

	s.forEachCategory(kinds, func(i int, kind core.ContentType) {
		var skip []core.ID
		if id, ok := exclude[kind]; ok {
			skip = append(skip, id)
		}
		matches, err := s.collections[kind].FindSimilar(ctx, vector, cfg.threshold, cfg.perCategoryLimit, skip...)
		cfg.monitor.CategorySearched(kind, len(matches), err)
		if err != nil {
			if ctx.Err() == nil {
				metrics.CategoryError(string(kind))
				s.logger.Error("category search failed", "category", kind, "err", err)
			}
			return
		}
		results := make([]core.SearchResult, 0, len(matches))
		for _, match := range matches {
			results = append(results, FormatResult(match.Record, match.Similarity))
		}
		perCategory[i] = results
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := slices.Concat(perCategory...)
	slices.SortStableFunc(merged, func(a, b core.SearchResult) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if len(merged) > cfg.limit {
		merged = merged[:cfg.limit]
	}
	return merged, nil
}
