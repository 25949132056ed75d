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

// Package storage provides the storage abstraction layer for kinfolk.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Records, the embedding cache, chat sessions and bulk-run
// checkpoints each have their own interface so backends can be mixed: records
// in BadgerDB, the embedding cache in Redis with an in-process LRU in front.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	records, err := badger.NewRecordRepository(backend)  // storage.RecordRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
//   - RecordRepository: family records of every kind, with embeddings
//   - Collection: per-kind similarity and keyword search
//   - EmbeddingCacheStore: content hash to embedding
//   - SessionRepository: chat sessions and query logs
//   - CheckpointRepository: outcome of the last bulk embedding run per kind
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
