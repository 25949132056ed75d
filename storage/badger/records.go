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
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a record repository on top of backend.
func NewRecordRepository(backend *Backend) (storage.RecordRepository, error) {
	return newRecordRepository(backend)
}

func newRecordRepository(backend *Backend) (*RecordRepository, error) {
	idSeq, err := backend.GetSequence(recordIDSeq)
	if err != nil {
		return nil, err
	}

	return &RecordRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RecordRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Collection returns the searchable view over one kind.
func (r *RecordRepository) Collection(kind core.ContentType) storage.Collection {
	return &collection{backend: r.backend, kind: kind}
}

// SaveRecord inserts or replaces a record.
func (r *RecordRepository) SaveRecord(ctx context.Context, record core.Record) (bool, error) {
	if !record.Kind().Valid() {
		return false, core.ErrUnknownContentType
	}

	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if record.RecordID() == 0 {
			id, err := r.nextID()
			if err != nil {
				return err
			}
			record.SetRecordID(id)
		}

		key := makeRecordKey(record.Kind(), record.RecordID())
		old, err := readRecord(tx, record.Kind(), key)
		if err != nil {
			return err
		}
		created = old == nil
		if old != nil && record.Created().IsZero() {
			record.Touch(old.Created())
		}
		record.Touch(time.Now().UTC())

		value, err := storage.MarshalRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return created, err
}

func (r *RecordRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		if nextID, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// UpdateEmbedding writes only the embedding fields of an existing record.
func (r *RecordRepository) UpdateEmbedding(ctx context.Context, record core.Record) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(record.Kind(), record.RecordID())
		stored, err := readRecord(tx, record.Kind(), key)
		if err != nil {
			return err
		}
		if stored == nil {
			return storage.ErrNotFound
		}

		stored.SetEmbedding(record.GetEmbedding(), record.GetEmbeddingUpdated())
		value, err := storage.MarshalRecord(stored)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single record by kind and ID.
func (r *RecordRepository) GetRecord(ctx context.Context, kind core.ContentType, id core.ID) (core.Record, error) {
	var result core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, kind, makeRecordKey(kind, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteRecord removes a record by kind and ID.
func (r *RecordRepository) DeleteRecord(ctx context.Context, kind core.ContentType, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(kind, id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListRecords returns every record of a kind in ID order.
func (r *RecordRepository) ListRecords(ctx context.Context, kind core.ContentType) ([]core.Record, error) {
	var records []core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(ctx, tx, kind, func(record core.Record) error {
			records = append(records, record)
			return nil
		})
	}, false)
	return records, err
}

// NeedingEmbedding returns records of a kind missing an embedding or its timestamp.
func (r *RecordRepository) NeedingEmbedding(ctx context.Context, kind core.ContentType) ([]core.Record, error) {
	var records []core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(ctx, tx, kind, func(record core.Record) error {
			if record.NeedsEmbedding() {
				records = append(records, record)
			}
			return nil
		})
	}, false)
	return records, err
}

// CountRecords returns the total number of records of a kind and how many are embedded.
func (r *RecordRepository) CountRecords(ctx context.Context, kind core.ContentType) (int, int, error) {
	var total, embedded int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(ctx, tx, kind, func(record core.Record) error {
			total++
			if !record.NeedsEmbedding() {
				embedded++
			}
			return nil
		})
	}, false)
	return total, embedded, err
}

// readRecord reads a record from a transaction.
// Returns nil if the record doesn't exist.
func readRecord(tx *badger.Txn, kind core.ContentType, key []byte) (core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(kind, val)
		return unmarshalErr
	})
	return record, err
}

// collection is the per-kind view handed out by RecordRepository.Collection.
type collection struct {
	backend *Backend
	kind    core.ContentType
}

var _ storage.Collection = (*collection)(nil)

func (c *collection) Kind() core.ContentType {
	return c.kind
}

func (c *collection) FindSimilar(ctx context.Context, vector []float32, minSimilarity float64, limit int, exclude ...core.ID) ([]*core.Match, error) {
	return c.backend.FindSimilar(ctx, c.kind, vector, minSimilarity, limit, exclude...)
}

// KeywordSearch matches query against title and body, ignoring case.
// Results follow ID order.
func (c *collection) KeywordSearch(ctx context.Context, query string, limit int) ([]core.Record, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	var records []core.Record
	errLimit := errors.New("limit reached")
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		return scanRecords(ctx, tx, c.kind, func(record core.Record) error {
			title, body := core.TitleAndBody(record)
			if strings.Contains(strings.ToLower(title), needle) || strings.Contains(strings.ToLower(body), needle) {
				records = append(records, record)
				if limit > 0 && len(records) >= limit {
					return errLimit
				}
			}
			return nil
		})
	}, false)
	if err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}
	return records, nil
}
