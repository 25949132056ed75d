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

package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/ingestion"
	"github.com/poiesic/kinfolk/metrics"
	"github.com/poiesic/kinfolk/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/poiesic/kinfolk/embedding")

// Service generates embeddings through an ai.Embedder and caches them by content hash.
// It is safe for concurrent use when its collaborators are.
type Service struct {
	embedder   ai.Embedder
	cache      storage.EmbeddingCacheStore
	writer     storage.EmbeddingWriter
	extractors map[core.ContentType]TextExtractor
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithExtractor overrides the text extractor for a record kind.
func WithExtractor(kind core.ContentType, extractor TextExtractor) Option {
	return func(s *Service) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", core.ErrUnknownContentType, kind)
		}
		if extractor == nil {
			delete(s.extractors, kind)
			return nil
		}
		s.extractors[kind] = extractor
		return nil
	}
}

// WithClock sets the source of embedding and cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// NewService creates an embedding service.
// writer persists record embeddings computed by UpdateRecord.
func NewService(embedder ai.Embedder, cache storage.EmbeddingCacheStore, writer storage.EmbeddingWriter, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}

	s := &Service{
		embedder:   embedder,
		cache:      cache,
		writer:     writer,
		extractors: DefaultExtractors(),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "embedding")
	return s, nil
}

// Hash returns the hex SHA-256 digest of text's exact UTF-8 bytes.
func Hash(text string) string {
	return core.ContentHash(text)
}

// Generate embeds text. Blank text returns nil without calling the embedder.
// Any upstream failure is logged and returns nil.
func (s *Service) Generate(ctx context.Context, text string) []float32 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "embedding.generate", trace.WithAttributes(attribute.Int("text.length", len(text))))
	defer span.End()

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		metrics.Generation(false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		s.logger.Error("failed to generate embedding", "err", err)
		return nil
	}
	if len(vector) == 0 {
		metrics.Generation(false)
		span.SetStatus(codes.Error, "empty embedding")
		s.logger.Error("embedder returned an empty vector")
		return nil
	}
	metrics.Generation(true)
	return vector
}

// GetOrCreate returns the cached embedding for text, generating and caching it on a miss.
// The cache entry records kind and id as its current owner.
// Returns nil when generation fails; nothing is cached in that case.
func (s *Service) GetOrCreate(ctx context.Context, text string, kind core.ContentType, id core.ID) []float32 {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	hash := Hash(text)

	entry, err := s.cache.GetEmbedding(ctx, hash)
	switch {
	case err == nil && len(entry.Embedding) > 0:
		metrics.CacheLookup(metrics.CacheHit)
		s.logger.Debug("embedding cache hit", "hash", hash)
		return entry.Embedding
	case err == nil, errors.Is(err, storage.ErrNotFound):
		metrics.CacheLookup(metrics.CacheMiss)
	default:
		metrics.CacheLookup(metrics.CacheError)
		s.logger.Warn("embedding cache read failed, treating as miss", "hash", hash, "err", err)
	}

	vector := s.Generate(ctx, text)
	if vector == nil {
		return nil
	}

	err = s.cache.PutEmbedding(ctx, &core.EmbeddingCacheEntry{
		ContentHash: hash,
		ContentType: kind,
		ContentID:   id,
		Embedding:   vector,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to cache embedding", "hash", hash, "err", err)
	}
	return vector
}

// ExtractText returns the canonical text embedded for record.
func (s *Service) ExtractText(record core.Record) string {
	if extractor, ok := s.extractors[record.Kind()]; ok {
		return extractor.ExtractText(record)
	}
	return GenericExtractor.ExtractText(record)
}

// UpdateRecord refreshes record's embedding and persists it.
//
// It returns false without side effects when the record has no text, when
// generation fails, or, unless force is set, when the stored embedding
// already matches the cache entry for the record's current text.
// An error is returned only when persisting the embedding fails.
func (s *Service) UpdateRecord(ctx context.Context, record core.Record, force bool) (bool, error) {
	kind := string(record.Kind())
	text := s.ExtractText(record)
	if strings.TrimSpace(text) == "" {
		metrics.RecordUpdate(kind, "skipped")
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "embedding.update_record", trace.WithAttributes(
		attribute.String("record.kind", kind),
		attribute.Int64("record.id", int64(record.RecordID())),
		attribute.Bool("force", force),
	))
	defer span.End()

	if !force && s.isCurrent(ctx, record, text) {
		metrics.RecordUpdate(kind, "skipped")
		return false, nil
	}

	vector := s.GetOrCreate(ctx, text, record.Kind(), record.RecordID())
	if vector == nil {
		metrics.RecordUpdate(kind, "skipped")
		return false, nil
	}

	record.SetEmbedding(vector, s.now())
	if err := s.writer.UpdateEmbedding(ctx, record); err != nil {
		metrics.RecordUpdate(kind, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return false, fmt.Errorf("failed to persist embedding for %s %d: %w", kind, record.RecordID(), err)
	}
	metrics.RecordUpdate(kind, "updated")
	s.logger.Debug("record embedding updated", "kind", kind, "id", record.RecordID())
	return true, nil
}

// isCurrent reports whether record's stored embedding equals the cached
// embedding for text.
func (s *Service) isCurrent(ctx context.Context, record core.Record, text string) bool {
	if record.NeedsEmbedding() {
		return false
	}
	entry, err := s.cache.GetEmbedding(ctx, Hash(text))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("embedding cache read failed during freshness check", "err", err)
		}
		return false
	}
	return sameVector(entry.Embedding, record.GetEmbedding())
}

// Hook returns a post-write hook that refreshes a record's embedding,
// forcing the refresh when the record was just created.
func (s *Service) Hook() ingestion.Hook {
	return func(ctx context.Context, record core.Record, created bool) error {
		_, err := s.UpdateRecord(ctx, record, created)
		return err
	}
}

// sameVector compares two vectors bit for bit.
func sameVector(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
