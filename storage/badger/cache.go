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

package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// CacheStore implements storage.EmbeddingCacheStore for BadgerDB.
// The backend is owned by the caller; Close does not close it.
type CacheStore struct {
	backend *Backend
}

var _ storage.EmbeddingCacheStore = (*CacheStore)(nil)

// NewCacheStore creates an embedding cache store on top of backend.
func NewCacheStore(backend *Backend) storage.EmbeddingCacheStore {
	return &CacheStore{backend: backend}
}

// GetEmbedding returns the cache entry for hash, or storage.ErrNotFound.
func (s *CacheStore) GetEmbedding(ctx context.Context, hash string) (*core.EmbeddingCacheEntry, error) {
	var entry *core.EmbeddingCacheEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCacheKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalCacheEntry(val)
			return unmarshalErr
		})
	}, false)
	return entry, err
}

// PutEmbedding inserts or replaces the entry keyed by its content hash.
func (s *CacheStore) PutEmbedding(ctx context.Context, entry *core.EmbeddingCacheEntry) error {
	value, err := storage.MarshalCacheEntry(entry)
	if err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCacheKey(entry.ContentHash), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (s *CacheStore) Close() error {
	return nil
}
