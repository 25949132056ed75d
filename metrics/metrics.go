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

// Package metrics holds the Prometheus collectors shared by the retrieval pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	embeddingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinfolk_embedding_cache_lookups_total",
		Help: "Embedding cache lookups by outcome",
	}, []string{"outcome"})

	embeddingGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinfolk_embedding_generations_total",
		Help: "Calls to the embedding API by status",
	}, []string{"status"})

	recordUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinfolk_record_embedding_updates_total",
		Help: "Record embedding updates by kind and outcome",
	}, []string{"kind", "outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kinfolk_search_duration_seconds",
		Help:    "Search duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"mode"})

	searchCategoryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinfolk_search_category_errors_total",
		Help: "Per-category search failures that were isolated",
	}, []string{"category"})

	ragResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinfolk_rag_responses_total",
		Help: "Generated answers by query type and path",
	}, []string{"query_type", "path"})

	ragDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kinfolk_rag_duration_seconds",
		Help:    "End-to-end answer generation time in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

// CacheLookup counts an embedding cache lookup.
func CacheLookup(outcome string) {
	embeddingCacheLookups.WithLabelValues(outcome).Inc()
}

// Generation counts a call to the embedding API.
func Generation(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	embeddingGenerations.WithLabelValues(status).Inc()
}

// RecordUpdate counts the outcome of a record embedding update:
// updated, skipped or failed.
func RecordUpdate(kind, outcome string) {
	recordUpdates.WithLabelValues(kind, outcome).Inc()
}

// SearchDuration observes how long a search mode took.
func SearchDuration(mode string, d time.Duration) {
	searchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// CategoryError counts a per-category search failure.
func CategoryError(category string) {
	searchCategoryErrors.WithLabelValues(category).Inc()
}

// RAGResponse counts an answer by query type and path (generated, fallback or error)
// and observes its processing time.
func RAGResponse(queryType, path string, d time.Duration) {
	ragResponses.WithLabelValues(queryType, path).Inc()
	ragDuration.Observe(d.Seconds())
}
