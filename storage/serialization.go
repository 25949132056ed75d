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

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/poiesic/kinfolk/core"
)

// MarshalID serializes an ID to 8 big-endian bytes so keys sort numerically.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// MarshalRecord serializes a record of any kind.
func MarshalRecord(record core.Record) ([]byte, error) {
	return marshal(record)
}

// UnmarshalRecord deserializes a record of the given kind.
func UnmarshalRecord(kind core.ContentType, data []byte) (core.Record, error) {
	record, err := core.NewRecord(kind)
	if err != nil {
		return nil, err
	}
	if err := unmarshal(data, record); err != nil {
		return nil, err
	}
	return record, nil
}

// MarshalCacheEntry serializes an embedding cache entry.
func MarshalCacheEntry(entry *core.EmbeddingCacheEntry) ([]byte, error) {
	return marshal(entry)
}

// UnmarshalCacheEntry deserializes an embedding cache entry.
func UnmarshalCacheEntry(data []byte) (*core.EmbeddingCacheEntry, error) {
	var entry core.EmbeddingCacheEntry
	if err := unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalSession serializes a chat session.
func MarshalSession(session *core.ChatSession) ([]byte, error) {
	return marshal(session)
}

// UnmarshalSession deserializes a chat session.
func UnmarshalSession(data []byte) (*core.ChatSession, error) {
	var session core.ChatSession
	if err := unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// MarshalQueryLog serializes a query log entry.
func MarshalQueryLog(log *core.QueryLog) ([]byte, error) {
	return marshal(log)
}

// UnmarshalQueryLog deserializes a query log entry.
func UnmarshalQueryLog(data []byte) (*core.QueryLog, error) {
	var log core.QueryLog
	if err := unmarshal(data, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) ([]byte, error) {
	return marshal(checkpoint)
}

// UnmarshalCheckpoint deserializes a Checkpoint.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var checkpoint core.Checkpoint
	if err := unmarshal(data, &checkpoint); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

func marshal(v any) ([]byte, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}
