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

package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrCacheRequired is returned when a cache store is not provided.
	ErrCacheRequired = errors.New("embedding cache store required")

	// ErrWriterRequired is returned when an embedding writer is not provided.
	ErrWriterRequired = errors.New("embedding writer required")

	// ErrPanic wraps a panic recovered while updating a record.
	ErrPanic = errors.New("panic while updating record")
)
