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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
)

// Hook runs after a record has been written.
// created is true when the write inserted a new record.
type Hook func(ctx context.Context, record core.Record, created bool) error

// Pipeline validates and saves records, then runs the registered hooks.
type Pipeline struct {
	records storage.RecordRepository
	hooks   []Hook
	pool    *ants.Pool
	pending sync.WaitGroup
	mu      sync.RWMutex
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize runs hooks asynchronously on a worker pool of the given size.
// Pooled hooks receive a freshly loaded copy of each saved record, never the
// caller's value. Without it hooks run synchronously inside Save on the
// caller's record.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithHook registers a post-write hook.
func WithHook(hook Hook) Option {
	return func(p *Pipeline) error {
		return p.AddHook(hook)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(records storage.RecordRepository, opts ...Option) (*Pipeline, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}

	p := &Pipeline{
		records: records,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// AddHook registers a post-write hook. Hooks run in registration order.
func (p *Pipeline) AddHook(hook Hook) error {
	if hook == nil {
		return ErrNilHook
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
	return nil
}

// Save validates every record, then writes them one at a time.
// Each successful write is followed by the registered hooks.
// Validation failures abort before anything is written; a storage failure
// stops at the failing record and is returned.
func (p *Pipeline) Save(ctx context.Context, records ...core.Record) error {
	for i, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	for _, record := range records {
		created, err := p.records.SaveRecord(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to save %s %d: %w", record.Kind(), record.RecordID(), err)
		}
		p.logger.Debug("record saved", "kind", record.Kind(), "id", record.RecordID(), "created", created)
		p.afterSave(ctx, record, created)
	}
	return nil
}

func (p *Pipeline) afterSave(ctx context.Context, record core.Record, created bool) {
	p.mu.RLock()
	hooks := append([]Hook(nil), p.hooks...)
	p.mu.RUnlock()
	if len(hooks) == 0 {
		return
	}

	if p.pool == nil {
		p.runHooks(ctx, hooks, record, created)
		return
	}

	// The caller owns record once Save returns, so pooled hooks work on a
	// copy read back from the store.
	hookCtx := context.WithoutCancel(ctx)
	kind, id := record.Kind(), record.RecordID()
	p.pending.Add(1)
	err := p.pool.Submit(func() {
		defer p.pending.Done()
		stored, err := p.records.GetRecord(hookCtx, kind, id)
		if err != nil {
			p.logger.Error("failed to reload record for post-write hooks", "kind", kind, "id", id, "err", err)
			return
		}
		p.runHooks(hookCtx, hooks, stored, created)
	})
	if err != nil {
		p.pending.Done()
		p.logger.Warn("hook pool unavailable, running hooks inline", "err", err)
		p.runHooks(ctx, hooks, record, created)
	}
}

func (p *Pipeline) runHooks(ctx context.Context, hooks []Hook, record core.Record, created bool) {
	for i, hook := range hooks {
		p.runHook(ctx, i, hook, record, created)
	}
}

func (p *Pipeline) runHook(ctx context.Context, index int, hook Hook, record core.Record, created bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("post-write hook panicked", "hook", index, "kind", record.Kind(), "id", record.RecordID(), "panic", r)
		}
	}()
	if err := hook(ctx, record, created); err != nil {
		p.logger.Error("post-write hook failed", "hook", index, "kind", record.Kind(), "id", record.RecordID(), "err", err)
	}
}

// Drain waits for asynchronously running hooks to finish.
func (p *Pipeline) Drain() {
	p.pending.Wait()
}

// Release waits for outstanding hooks and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.Drain()
	if p.pool != nil {
		p.pool.Release()
	}
}
