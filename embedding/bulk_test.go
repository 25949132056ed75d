package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// panicRecord panics when its text is read.
type panicRecord struct {
	core.Story
}

func (p *panicRecord) Field(name string) (string, bool) {
	panic("corrupt record")
}

func (p *panicRecord) Kind() core.ContentType {
	return core.ContentTypePerson
}

func TestBulkUpdate_Counts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	embedded := &core.Story{ID: 1, Title: "Already done"}
	embedded.SetEmbedding([]float32{1}, fixedNow)

	records := []core.Record{
		embedded,
		&core.Story{ID: 2, Title: "Needs embedding"},
		&core.Story{ID: 3, Embedded: core.Embedded{Embedding: []float32{1}}}, // no timestamp, no text
		&core.Person{ID: 4, Name: "Mei"},
		&panicRecord{Story: core.Story{ID: 5}},
	}

	stats, err := env.svc.BulkUpdate(ctx, records, 2)
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 2, Skipped: 1, Failed: 1}, stats)
	assert.Equal(t, 4, stats.Total())
	assert.Equal(t, 2, env.writer.count())
}

func TestBulkUpdate_PersistenceFailuresCountAsFailed(t *testing.T) {
	env := newTestEnv(t)
	env.writer.err = assert.AnError

	records := []core.Record{
		&core.Story{ID: 1, Title: "One"},
		&core.Story{ID: 2, Title: "Two"},
	}
	stats, err := env.svc.BulkUpdate(context.Background(), records, 0)
	require.NoError(t, err)
	assert.Equal(t, Stats{Failed: 2}, stats)
}

func TestBulkUpdate_ProgressPerBatch(t *testing.T) {
	env := newTestEnv(t)

	var records []core.Record
	for i := 1; i <= 5; i++ {
		records = append(records, &core.Heritage{ID: core.ID(i), Title: "Tradition " + string(rune('A'+i))})
	}

	var processed []int
	stats, err := env.svc.BulkUpdate(context.Background(), records, 2, WithProgress(func(done, total int, s Stats) {
		assert.Equal(t, 5, total)
		processed = append(processed, done)
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Updated)
	assert.Equal(t, []int{2, 4, 5}, processed)
}

func TestBulkUpdate_Force(t *testing.T) {
	env := newTestEnv(t)

	story := &core.Story{ID: 1, Title: "Dumplings"}
	_, err := env.svc.UpdateRecord(context.Background(), story, false)
	require.NoError(t, err)

	stats, err := env.svc.BulkUpdate(context.Background(), []core.Record{story}, 10)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	stats, err = env.svc.BulkUpdate(context.Background(), []core.Record{story}, 10, WithForce(true))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
}

func TestBulkUpdate_Cancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := env.svc.BulkUpdate(ctx, []core.Record{&core.Story{ID: 1, Title: "x"}}, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Stats{}, stats)
}

func TestBulkUpdate_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)

	records := []core.Record{
		&core.Story{ID: 1, Title: "One"},
		&core.Story{ID: 2, Title: "Two"},
		&core.Story{ID: 3, Title: "Three"},
	}
	start := time.Now()
	stats, err := env.svc.BulkUpdate(context.Background(), records, 10, WithRateLimiter(limiter))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Updated)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestStats_Add(t *testing.T) {
	s := Stats{Updated: 1}
	s.Add(Stats{Updated: 2, Skipped: 3, Failed: 4})
	assert.Equal(t, Stats{Updated: 3, Skipped: 3, Failed: 4}, s)
}
