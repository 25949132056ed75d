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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a session repository on top of backend.
func NewSessionRepository(backend *Backend) (*SessionRepository, error) {
	idSeq, err := backend.GetSequence(queryLogIDSeq)
	if err != nil {
		return nil, err
	}
	return &SessionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the query log ID sequence.
func (r *SessionRepository) Close() error {
	return r.idSeq.Release()
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *core.ChatSession) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(session.ID)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		now := time.Now().UTC()
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now

		value, err := storage.MarshalSession(session)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*core.ChatSession, error) {
	var session *core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		session, err = readSession(tx, id)
		return err
	}, false)
	return session, err
}

// AddQueryLog assigns the entry an ID and creation time and bumps the session's UpdatedAt.
func (r *SessionRepository) AddQueryLog(ctx context.Context, log *core.QueryLog) (*core.QueryLog, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		session, err := readSession(tx, log.SessionID)
		if err != nil {
			return err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			if nextID, err = r.idSeq.Next(); err != nil {
				return err
			}
		}
		log.ID = core.ID(nextID)
		log.CreatedAt = time.Now().UTC()

		value, err := storage.MarshalQueryLog(log)
		if err != nil {
			return err
		}
		if err := tx.Set(makeQueryLogKey(log.SessionID, log.ID), value); err != nil {
			return err
		}

		session.UpdatedAt = log.CreatedAt
		sessionValue, err := storage.MarshalSession(session)
		if err != nil {
			return err
		}
		if err := tx.Set(makeSessionKey(session.ID), sessionValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *SessionRepository) GetQueryLogs(ctx context.Context, sessionID string) ([]*core.QueryLog, error) {
	var logs []*core.QueryLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeQueryLogPrefix(sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				log, err := storage.UnmarshalQueryLog(val)
				if err != nil {
					return err
				}
				logs = append(logs, log)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return logs, err
}

func readSession(tx *badger.Txn, id string) (*core.ChatSession, error) {
	item, err := tx.Get(makeSessionKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var session *core.ChatSession
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		session, unmarshalErr = storage.UnmarshalSession(val)
		return unmarshalErr
	})
	return session, err
}
