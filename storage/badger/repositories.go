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
	"errors"

	"github.com/poiesic/kinfolk/storage"
)

// Repositories bundles every BadgerDB repository sharing one backend.
type Repositories struct {
	Backend     *Backend
	Records     storage.RecordRepository
	Cache       storage.EmbeddingCacheStore
	Sessions    *SessionRepository
	Checkpoints *CheckpointRepository
}

// OpenRepositories opens a backend at path and builds the repositories on it.
func OpenRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	records, err := NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	sessions, err := NewSessionRepository(backend)
	if err != nil {
		records.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Backend:     backend,
		Records:     records,
		Cache:       NewCacheStore(backend),
		Sessions:    sessions,
		Checkpoints: NewCheckpointRepository(backend),
	}, nil
}

// Close releases sequences and closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.Records.Close(),
		r.Sessions.Close(),
		r.Cache.Close(),
		r.Backend.Close(),
	)
}
