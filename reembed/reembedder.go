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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/embedding"
	"github.com/poiesic/kinfolk/storage"
	"golang.org/x/time/rate"
)

// Config controls a reembedding run.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for reading records
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// RatePerSecond limits embedding updates per second. Zero means unlimited.
	RatePerSecond float64

	// Force recomputes every record, not only those lacking an embedding.
	Force bool
}

// DefaultConfig returns the settings used by the reembed command.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      embedding.DefaultBatchSize,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Updater refreshes record embeddings in bulk.
type Updater interface {
	BulkUpdate(ctx context.Context, records []core.Record, batchSize int, opts ...embedding.BulkOption) (embedding.Stats, error)
}

var _ Updater = (*embedding.Service)(nil)

// Result is the outcome of a run, per kind and in total.
type Result struct {
	Kinds map[core.ContentType]embedding.Stats
	Total embedding.Stats
}

// Reembedder fills in or recomputes stored embeddings kind by kind.
type Reembedder struct {
	records     storage.RecordRepository
	updater     Updater
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithCheckpoints saves a checkpoint per kind after it completes.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(r *Reembedder) {
		r.checkpoints = checkpoints
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReembedder creates a reembedder. A nil config uses DefaultConfig and a nil
// progress writer discards progress output.
func NewReembedder(records storage.RecordRepository, updater Updater, config *Config, progress io.Writer, opts ...Option) (*Reembedder, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if updater == nil {
		return nil, ErrUpdaterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		records:  records,
		updater:  updater,
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembed")

	return r, nil
}

// Run refreshes the given kinds, or every embeddable kind when none are given.
// Per-record failures are counted, not returned. A store read that keeps
// failing or a cancelled context stops the run.
func (r *Reembedder) Run(ctx context.Context, kinds ...core.ContentType) (Result, error) {
	if len(kinds) == 0 {
		kinds = core.EmbeddableTypes
	}
	result := Result{Kinds: make(map[core.ContentType]embedding.Stats, len(kinds))}

	opts := []embedding.BulkOption{embedding.WithForce(r.config.Force)}
	if r.config.RatePerSecond > 0 {
		opts = append(opts, embedding.WithRateLimiter(rate.NewLimiter(rate.Limit(r.config.RatePerSecond), 1)))
	}

	start := time.Now()
	for _, kind := range kinds {
		stats, err := r.runKind(ctx, kind, opts)
		result.Kinds[kind] = stats
		result.Total.Add(stats)
		if err != nil {
			return result, err
		}
	}

	elapsed := time.Since(start)
	fmt.Fprintf(r.progress, "Reembedding complete. Updated %d, skipped %d, failed %d in %v\n",
		result.Total.Updated, result.Total.Skipped, result.Total.Failed, elapsed.Round(time.Millisecond))

	return result, nil
}

func (r *Reembedder) runKind(ctx context.Context, kind core.ContentType, opts []embedding.BulkOption) (embedding.Stats, error) {
	var records []core.Record
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		if r.config.Force {
			records, err = r.records.ListRecords(ctx, kind)
		} else {
			records, err = r.records.NeedingEmbedding(ctx, kind)
		}
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return embedding.Stats{}, fmt.Errorf("failed to query %s records: %w", kind, err)
	}

	if len(records) == 0 {
		fmt.Fprintf(r.progress, "%s: nothing to do\n", kind)
		return embedding.Stats{}, r.saveCheckpoint(ctx, kind, embedding.Stats{})
	}

	fmt.Fprintf(r.progress, "%s: reembedding %d records (batch size: %d)\n", kind, len(records), r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, kind, len(records), r.config.ReportInterval)

	stats, err := r.updater.BulkUpdate(ctx, records, r.config.BatchSize, append(opts, embedding.WithProgress(tracker.Observe))...)
	tracker.Finish(stats)
	if err != nil {
		return stats, err
	}

	r.logger.Info("kind reembedded", "kind", kind, "updated", stats.Updated, "skipped", stats.Skipped,
		"failed", stats.Failed, "elapsed", tracker.Elapsed())
	return stats, r.saveCheckpoint(ctx, kind, stats)
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, kind core.ContentType, stats embedding.Stats) error {
	if r.checkpoints == nil {
		return nil
	}
	checkpoint := &core.Checkpoint{
		Kind:    kind,
		Updated: stats.Updated,
		Skipped: stats.Skipped,
		Failed:  stats.Failed,
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save %s checkpoint: %w", kind, err)
	}
	return nil
}
