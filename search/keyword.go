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
	"strings"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/metrics"
)

// KeywordSearch matches query as a case-insensitive substring of each
// record's title and body. It needs no embeddings. Every hit carries
// KeywordSimilarity. Each category contributes at most limit hits and the
// combined list, in category order, is truncated to limit.
func (s *Searcher) KeywordSearch(ctx context.Context, query string, opts ...SearchOption) ([]core.SearchResult, error) {
	cfg := newSearchConfig(DefaultLimit, 0, opts)
	start := time.Now()
	defer func() { metrics.SearchDuration("keyword", time.Since(start)) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	kinds := s.resolveCategories(cfg.types)
	perCategory := make([][]core.SearchResult, len(kinds))
	s.forEachCategory(kinds, func(i int, kind core.ContentType) {
		records, err := s.collections[kind].KeywordSearch(ctx, query, cfg.perCategoryLimit)
		if err != nil {
			if ctx.Err() == nil {
				metrics.CategoryError(string(kind))
				s.logger.Error("keyword search failed", "category", kind, "err", err)
			}
			return
		}
		results := make([]core.SearchResult, 0, len(records))
		for _, record := range records {
			results = append(results, FormatResult(record, KeywordSimilarity))
		}
		perCategory[i] = results
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []core.SearchResult
	for _, hits := range perCategory {
		results = append(results, hits...)
	}
	if len(results) > cfg.limit {
		results = results[:cfg.limit]
	}
	return results, nil
}
