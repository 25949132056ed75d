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

package kinfolk

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/ai/openai"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/embedding"
	"github.com/poiesic/kinfolk/ingestion"
	"github.com/poiesic/kinfolk/rag"
	"github.com/poiesic/kinfolk/reembed"
	"github.com/poiesic/kinfolk/search"
	"github.com/poiesic/kinfolk/storage"
	"github.com/poiesic/kinfolk/storage/badger"
	"github.com/poiesic/kinfolk/storage/memory"
)

// Database owns the record store and every service built on it.
type Database struct {
	repos      *badger.Repositories
	cache      storage.EmbeddingCacheStore
	provider   ai.AIProvider
	embeddings *embedding.Service
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	rag        *rag.Orchestrator
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig       *ai.Config
	provider       ai.AIProvider
	cache          storage.EmbeddingCacheStore
	lruSize        int
	inMemory       bool
	searchPoolSize int
	hookPoolSize   int
	logger         *slog.Logger
}

// WithAIConfig sets the configuration used to build the AI provider.
// Ignored when WithProvider is used.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready AI provider. The Database closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithCacheStore replaces the BadgerDB embedding cache, for example with a
// shared Redis store. The Database closes it.
func WithCacheStore(cache storage.EmbeddingCacheStore) DatabaseOption {
	return func(o *databaseOptions) {
		o.cache = cache
	}
}

// WithMemoryCache puts an in-process LRU of size entries in front of the
// embedding cache.
func WithMemoryCache(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.lruSize = size
	}
}

// WithInMemory keeps all records in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSearchPoolSize queries search categories concurrently.
func WithSearchPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.searchPoolSize = size
	}
}

// WithHookPoolSize runs post-save embedding updates on a worker pool instead
// of inline. The embeddings land in the store; records passed to Save are not
// updated in place.
func WithHookPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.hookPoolSize = size
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the record store at filePath and wires the embedding,
// ingestion, search and answer services on top of it.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}
	logger := options.logger

	repos, err := badger.OpenRepositories(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	db := &Database{
		repos:    repos,
		cache:    repos.Cache,
		provider: options.provider,
		logger:   logger.With("component", "database"),
	}

	if options.cache != nil {
		db.cache = options.cache
	}
	if options.lruSize > 0 {
		lru, err := memory.NewCacheStore(options.lruSize, db.cache)
		if err != nil {
			return nil, db.abort(err)
		}
		db.cache = lru
	}

	if db.provider == nil {
		db.provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, db.abort(err)
		}
	}

	db.embeddings, err = embedding.NewService(db.provider.Embedder(), db.cache, repos.Records, embedding.WithLogger(logger))
	if err != nil {
		return nil, db.abort(err)
	}

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(logger), ingestion.WithHook(db.embeddings.Hook())}
	if options.hookPoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.hookPoolSize))
	}
	db.pipeline, err = ingestion.NewPipeline(repos.Records, pipelineOpts...)
	if err != nil {
		return nil, db.abort(err)
	}

	searchOpts := []search.Option{search.WithLogger(logger)}
	if options.searchPoolSize > 0 {
		searchOpts = append(searchOpts, search.WithPoolSize(options.searchPoolSize))
	}
	db.searcher, err = search.NewSearcher(repos.Records, db.embeddings, searchOpts...)
	if err != nil {
		return nil, db.abort(err)
	}

	ragOpts := []rag.Option{rag.WithLogger(logger)}
	if options.provider == nil {
		ragOpts = append(ragOpts,
			rag.WithMaxTokens(options.aiConfig.MaxTokens),
			rag.WithTemperature(options.aiConfig.Temperature))
	}
	db.rag, err = rag.NewOrchestrator(db.searcher, db.provider.ChatModel(), ragOpts...)
	if err != nil {
		return nil, db.abort(err)
	}

	return db, nil
}

// abort releases whatever was built before a construction failure.
func (db *Database) abort(err error) error {
	if closeErr := db.Close(); closeErr != nil {
		db.logger.Error("error cleaning up after failed open", "err", closeErr)
	}
	return err
}

// Close stops background work and releases every resource, in reverse
// order of construction.
func (db *Database) Close() error {
	var errs []error
	if db.pipeline != nil {
		db.pipeline.Release()
	}
	if db.searcher != nil {
		db.searcher.Release()
	}
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if db.cache != db.repos.Cache {
		if err := db.cache.Close(); err != nil {
			db.logger.Error("error closing embedding cache", "err", err)
			errs = append(errs, err)
		}
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Save stores records and refreshes their embeddings through the ingestion hooks.
func (db *Database) Save(ctx context.Context, records ...core.Record) error {
	return db.pipeline.Save(ctx, records...)
}

// Records returns the record repository. Writes through it bypass the embedding hooks.
func (db *Database) Records() storage.RecordRepository {
	return db.repos.Records
}

// Sessions returns the chat session and query log repository.
func (db *Database) Sessions() storage.SessionRepository {
	return db.repos.Sessions
}

// Checkpoints returns the reembed checkpoint repository.
func (db *Database) Checkpoints() storage.CheckpointRepository {
	return db.repos.Checkpoints
}

// Embeddings returns the embedding service.
func (db *Database) Embeddings() *embedding.Service {
	return db.embeddings
}

// Pipeline returns the ingestion pipeline behind Save.
func (db *Database) Pipeline() *ingestion.Pipeline {
	return db.pipeline
}

// Searcher returns the semantic and keyword search engine.
func (db *Database) Searcher() *search.Searcher {
	return db.searcher
}

// RAG returns the question answering orchestrator.
func (db *Database) RAG() *rag.Orchestrator {
	return db.rag
}

// NewReembedder creates a bulk re-embedding run that checkpoints into this database.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repos.Records, db.embeddings, config, progress,
		reembed.WithCheckpoints(db.repos.Checkpoints),
		reembed.WithLogger(db.logger))
}
