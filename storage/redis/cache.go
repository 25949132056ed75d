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

// Package redis provides a Redis-backed embedding cache store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces cache keys so several stores can share a Redis DB.
	DefaultKeyPrefix = "kinfolk:embc:"
	defaultTimeout   = 5 * time.Second
)

// CacheStore implements storage.EmbeddingCacheStore on Redis.
type CacheStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	password string
	db       int
	timeout  time.Duration
}

var _ storage.EmbeddingCacheStore = (*CacheStore)(nil)

// Option configures a CacheStore.
type Option func(*CacheStore) error

// WithPrefix sets the key prefix for cache entries.
func WithPrefix(prefix string) Option {
	return func(s *CacheStore) error {
		s.prefix = prefix
		return nil
	}
}

// WithTTL expires entries after ttl. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *CacheStore) error {
		if ttl < 0 {
			return fmt.Errorf("ttl must not be negative: %s", ttl)
		}
		s.ttl = ttl
		return nil
	}
}

// WithPassword authenticates to the Redis server.
func WithPassword(password string) Option {
	return func(s *CacheStore) error {
		s.password = password
		return nil
	}
}

// WithDB selects the Redis logical database.
func WithDB(db int) Option {
	return func(s *CacheStore) error {
		s.db = db
		return nil
	}
}

// WithDialTimeout bounds connection setup and the initial ping.
func WithDialTimeout(timeout time.Duration) Option {
	return func(s *CacheStore) error {
		s.timeout = timeout
		return nil
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *CacheStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewCacheStore connects to the Redis server at addr and verifies it answers.
func NewCacheStore(ctx context.Context, addr string, opts ...Option) (storage.EmbeddingCacheStore, error) {
	return newCacheStore(ctx, addr, opts...)
}

func newCacheStore(ctx context.Context, addr string, opts ...Option) (*CacheStore, error) {
	s := &CacheStore{
		prefix:  DefaultKeyPrefix,
		logger:  slog.Default(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "redis-cache")

	s.client = goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    s.password,
		DB:          s.db,
		DialTimeout: s.timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		s.client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	s.logger.Debug("connected", "addr", addr, "prefix", s.prefix)
	return s, nil
}

func (s *CacheStore) key(hash string) string {
	return s.prefix + hash
}

// GetEmbedding returns the entry for hash, or storage.ErrNotFound.
func (s *CacheStore) GetEmbedding(ctx context.Context, hash string) (*core.EmbeddingCacheEntry, error) {
	data, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	entry, err := storage.UnmarshalCacheEntry(data)
	if err != nil {
		s.logger.Warn("dropping corrupt cache entry", "hash", hash, "err", err)
		_ = s.client.Del(ctx, s.key(hash)).Err()
		return nil, storage.ErrNotFound
	}
	return entry, nil
}

// PutEmbedding inserts or replaces the entry keyed by its content hash.
func (s *CacheStore) PutEmbedding(ctx context.Context, entry *core.EmbeddingCacheEntry) error {
	data, err := storage.MarshalCacheEntry(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(entry.ContentHash), data, s.ttl).Err()
}

func (s *CacheStore) Close() error {
	return s.client.Close()
}
