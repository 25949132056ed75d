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

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ContentHash returns the SHA-256 digest of text as 64 lowercase hex characters.
// The input is hashed exactly as given; callers normalize first.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// EmbeddingCacheEntry maps a content hash to a previously computed embedding.
// ContentType and ContentID describe the record that last produced the entry.
type EmbeddingCacheEntry struct {
	ContentHash string      `json:"content_hash"`
	ContentType ContentType `json:"content_type"`
	ContentID   ID          `json:"content_id"`
	Embedding   []float32   `json:"embedding"`
	CreatedAt   time.Time   `json:"created_at"`
}
