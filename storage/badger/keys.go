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
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// Key prefixes for different data types
const (
	recordPrefix     = "rec:"
	recordIDSeq      = "recseq"
	cachePrefix      = "embc:"
	sessionPrefix    = "sess:"
	queryLogPrefix   = "qlog:"
	queryLogIDSeq    = "qlogseq"
	checkpointPrefix = "chkpt:"
)

// makeRecordKindPrefix generates the prefix shared by every record of a kind.
// Format: rec:kind:
func makeRecordKindPrefix(kind core.ContentType) []byte {
	return []byte(recordPrefix + string(kind) + ":")
}

// makeRecordKey generates a key for a record by kind and ID.
// The ID is written BigEndian so iteration follows ID order.
func makeRecordKey(kind core.ContentType, id core.ID) []byte {
	prefix := makeRecordKindPrefix(kind)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	copy(buf[offset:], storage.MarshalID(id))
	return buf
}

func makeCacheKey(hash string) []byte {
	return []byte(cachePrefix + hash)
}

func makeSessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// makeQueryLogPrefix generates the prefix shared by a session's log entries.
// Format: qlog:session:
func makeQueryLogPrefix(sessionID string) []byte {
	return []byte(queryLogPrefix + sessionID + ":")
}

// makeQueryLogKey generates a composite key for a query log entry.
// Format: qlog:session:id
func makeQueryLogKey(sessionID string, id core.ID) []byte {
	prefix := makeQueryLogPrefix(sessionID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	copy(buf[offset:], storage.MarshalID(id))
	return buf
}

// makeCheckpointKey generates a key for a kind's bulk embedding checkpoint.
func makeCheckpointKey(kind core.ContentType) []byte {
	return []byte(checkpointPrefix + string(kind))
}
