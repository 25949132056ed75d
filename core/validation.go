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
	"fmt"
	"strings"
	"time"
)

// ValidateRecord validates a record according to domain rules.
//
// Validation rules:
//   - The record must be one of the known kinds
//   - Title (Name for events and people) must not be blank
//   - Story and health dates must not be in the future
//
// NOT validated (populated by the embedding service):
//   - Embedding and EmbeddingUpdated
//   - ID (0 is valid, the repository assigns one)
//
// Event start dates may be in the future since events can be planned ahead.
func ValidateRecord(record Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	var title string
	var date time.Time
	switch r := record.(type) {
	case *Story:
		title, date = r.Title, r.DateOccurred
	case *Event:
		title = r.Name
	case *Heritage:
		title = r.Title
	case *Health:
		title, date = r.Title, r.Date
	case *Person:
		title = r.Name
	default:
		return fmt.Errorf("%w: %w: %T", ErrInvalidRecord, ErrUnknownContentType, record)
	}

	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyTitle)
	}

	if !date.IsZero() && !IsValidTimestamp(date) {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateQuery rejects queries that are empty after trimming whitespace.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
