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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/embedding"
)

// ProgressTracker writes a single updating progress line for one record kind.
type ProgressTracker struct {
	writer         io.Writer
	kind           core.ContentType
	total          int
	current        int
	stats          embedding.Stats
	reportInterval int
	lastReported   int
	startTime      time.Time
	now            func() time.Time
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker that reports at most once every
// reportInterval records, plus once when finished.
func NewProgressTracker(writer io.Writer, kind core.ContentType, total, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		kind:           kind,
		total:          total,
		reportInterval: reportInterval,
		startTime:      time.Now(),
		now:            time.Now,
	}
}

// Observe matches embedding.ProgressFunc and is passed to BulkUpdate.
func (p *ProgressTracker) Observe(processed, total int, stats embedding.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = min(processed, total)
	p.stats = stats
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish reports the final state and ends the progress line.
func (p *ProgressTracker) Finish(stats embedding.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = stats.Total()
	p.stats = stats
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Sub(p.startTime)
}

func (p *ProgressTracker) report() {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - updated %d, skipped %d, failed %d",
		p.kind, p.current, p.total, percentage, p.stats.Updated, p.stats.Skipped, p.stats.Failed)
}
