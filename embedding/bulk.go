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

import (
	"context"
	"fmt"

	"github.com/poiesic/kinfolk/core"
	"golang.org/x/time/rate"
)

// DefaultBatchSize is the number of records processed per batch by BulkUpdate.
const DefaultBatchSize = 10

// Stats counts the outcomes of a bulk update.
type Stats struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Total returns the number of records that were attempted.
func (s Stats) Total() int {
	return s.Updated + s.Skipped + s.Failed
}

// ProgressFunc is called after every batch with the number of records
// attempted so far and the number selected for the run.
type ProgressFunc func(processed, total int, stats Stats)

type bulkConfig struct {
	limiter  *rate.Limiter
	progress ProgressFunc
	force    bool
}

// BulkOption configures BulkUpdate.
type BulkOption func(*bulkConfig)

// WithRateLimiter waits on limiter before each record.
func WithRateLimiter(limiter *rate.Limiter) BulkOption {
	return func(c *bulkConfig) {
		c.limiter = limiter
	}
}

// WithProgress registers a callback invoked after each batch.
func WithProgress(fn ProgressFunc) BulkOption {
	return func(c *bulkConfig) {
		c.progress = fn
	}
}

// WithForce processes every record, embedded or not, and bypasses the
// freshness check.
func WithForce(force bool) BulkOption {
	return func(c *bulkConfig) {
		c.force = force
	}
}

// BulkUpdate refreshes the embeddings of records that lack an embedding or
// its freshness timestamp, batchSize records at a time, one batch after another.
// An error or panic while updating a record counts as failed and processing
// continues. Only context cancellation stops the run early; the stats
// gathered so far are returned with the context error.
func (s *Service) BulkUpdate(ctx context.Context, records []core.Record, batchSize int, opts ...BulkOption) (Stats, error) {
	cfg := &bulkConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	pending := records
	if !cfg.force {
		pending = make([]core.Record, 0, len(records))
		for _, record := range records {
			if record.NeedsEmbedding() {
				pending = append(pending, record)
			}
		}
	}

	var stats Stats
	total := len(pending)
	s.logger.Info("bulk embedding update started", "records", total, "batch_size", batchSize, "force", cfg.force)

	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)
		for _, record := range pending[start:end] {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if cfg.limiter != nil {
				if err := cfg.limiter.Wait(ctx); err != nil {
					return stats, err
				}
			}

			updated, err := s.safeUpdate(ctx, record, cfg.force)
			switch {
			case err != nil:
				stats.Failed++
				s.logger.Error("failed to update record embedding", "kind", record.Kind(), "id", record.RecordID(), "err", err)
			case updated:
				stats.Updated++
			default:
				stats.Skipped++
			}
		}
		if cfg.progress != nil {
			cfg.progress(end, total, stats)
		}
	}

	s.logger.Info("bulk embedding update finished", "updated", stats.Updated, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

func (s *Service) safeUpdate(ctx context.Context, record core.Record, force bool) (updated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.UpdateRecord(ctx, record, force)
}
