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

package kinfolk

import (
	"context"
	"fmt"

	"github.com/poiesic/kinfolk/core"
)

// KindStatus reports embedding coverage for one record kind.
type KindStatus struct {
	Kind       core.ContentType `json:"kind"`
	Total      int              `json:"total"`
	Embedded   int              `json:"embedded"`
	Checkpoint *core.Checkpoint `json:"checkpoint,omitempty"`
}

// Coverage returns the embedded share of records, or 1 when there are none.
func (s KindStatus) Coverage() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Embedded) / float64(s.Total)
}

// Status counts records and embeddings for every embeddable kind, with the
// last bulk re-embedding checkpoint when one exists.
func (db *Database) Status(ctx context.Context) ([]KindStatus, error) {
	statuses := make([]KindStatus, 0, len(core.EmbeddableTypes))
	for _, kind := range core.EmbeddableTypes {
		total, embedded, err := db.repos.Records.CountRecords(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s records: %w", kind, err)
		}
		checkpoint, err := db.repos.Checkpoints.LoadCheckpoint(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s checkpoint: %w", kind, err)
		}
		statuses = append(statuses, KindStatus{
			Kind:       kind,
			Total:      total,
			Embedded:   embedded,
			Checkpoint: checkpoint,
		})
	}
	return statuses, nil
}
