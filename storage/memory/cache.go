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

// Package memory provides an in-process LRU embedding cache that can sit
// in front of a slower EmbeddingCacheStore.
package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// DefaultSize is the capacity used when NewCacheStore gets a size <= 0.
const DefaultSize = 4096

// CacheStore implements storage.EmbeddingCacheStore with a bounded LRU.
// When a backing store is set, misses read through to it and writes go to both.
type CacheStore struct {
	entries *lru.Cache[string, *core.EmbeddingCacheEntry]
	backing storage.EmbeddingCacheStore
}

var _ storage.EmbeddingCacheStore = (*CacheStore)(nil)

// NewCacheStore creates an LRU cache holding up to size entries.
// backing may be nil.
func NewCacheStore(size int, backing storage.EmbeddingCacheStore) (storage.EmbeddingCacheStore, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, *core.EmbeddingCacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CacheStore{entries: entries, backing: backing}, nil
}

func (s *CacheStore) GetEmbedding(ctx context.Context, hash string) (*core.EmbeddingCacheEntry, error) {
	if entry, ok := s.entries.Get(hash); ok {
		return entry, nil
	}
	if s.backing == nil {
		return nil, storage.ErrNotFound
	}
	entry, err := s.backing.GetEmbedding(ctx, hash)
	if err != nil {
		return nil, err
	}
	s.entries.Add(hash, entry)
	return entry, nil
}

func (s *CacheStore) PutEmbedding(ctx context.Context, entry *core.EmbeddingCacheEntry) error {
	if s.backing != nil {
		if err := s.backing.PutEmbedding(ctx, entry); err != nil {
			return err
		}
	}
	s.entries.Add(entry.ContentHash, entry)
	return nil
}

// Close purges the LRU and closes the backing store.
func (s *CacheStore) Close() error {
	s.entries.Purge()
	if s.backing != nil {
		return s.backing.Close()
	}
	return nil
}
