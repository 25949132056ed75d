package ingestion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	"github.com/poiesic/kinfolk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecords(t *testing.T) storage.RecordRepository {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos.Records
}

type hookCall struct {
	id      core.ID
	created bool
}

// recordingHook collects the calls it receives.
type recordingHook struct {
	mu    sync.Mutex
	calls []hookCall
	err   error
}

func (h *recordingHook) hook(ctx context.Context, record core.Record, created bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, hookCall{id: record.RecordID(), created: created})
	return h.err
}

func (h *recordingHook) Calls() []hookCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hookCall(nil), h.calls...)
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrRecordRepositoryRequired)

	_, err = NewPipeline(newTestRecords(t), WithHook(nil))
	assert.ErrorIs(t, err, ErrNilHook)
}

func TestSave_RunsHooksWithCreatedFlag(t *testing.T) {
	records := newTestRecords(t)
	recorder := &recordingHook{}

	p, err := NewPipeline(records, WithHook(recorder.hook))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	story := &core.Story{Title: "Grandma's Dumplings", Content: "Folded every New Year"}
	require.NoError(t, p.Save(ctx, story))

	story.Content = "Folded every Lunar New Year"
	require.NoError(t, p.Save(ctx, story))

	calls := recorder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, hookCall{id: story.ID, created: true}, calls[0])
	assert.Equal(t, hookCall{id: story.ID, created: false}, calls[1])
}

func TestSave_HookFailuresDoNotAbortWrite(t *testing.T) {
	records := newTestRecords(t)
	failing := &recordingHook{err: errors.New("embedding API down")}
	after := &recordingHook{}
	panicking := func(ctx context.Context, record core.Record, created bool) error {
		panic("boom")
	}

	p, err := NewPipeline(records, WithHook(failing.hook), WithHook(panicking), WithHook(after.hook))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	event := &core.Event{Name: "Reunion", Description: "Lake house"}
	require.NoError(t, p.Save(ctx, event))

	stored, err := records.GetRecord(ctx, core.ContentTypeEvent, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reunion", stored.(*core.Event).Name)
	assert.Len(t, failing.Calls(), 1)
	assert.Len(t, after.Calls(), 1)
}

func TestSave_InvalidRecordWritesNothing(t *testing.T) {
	records := newTestRecords(t)
	recorder := &recordingHook{}

	p, err := NewPipeline(records, WithHook(recorder.hook))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	err = p.Save(ctx, &core.Story{Title: "Valid"}, &core.Story{Title: "  "})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)

	all, err := records.ListRecords(ctx, core.ContentTypeStory)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, recorder.Calls())
}

func TestSave_AsyncHooks(t *testing.T) {
	records := newTestRecords(t)
	var count atomic.Int32
	hook := func(ctx context.Context, record core.Record, created bool) error {
		count.Add(1)
		return nil
	}

	p, err := NewPipeline(records, WithPoolSize(2), WithHook(hook))
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Save(ctx, &core.Heritage{Title: "Tradition"}))
	}
	p.Drain()

	assert.Equal(t, int32(5), count.Load())
}

func TestSave_AsyncHooksGetTheirOwnCopy(t *testing.T) {
	records := newTestRecords(t)
	seen := make(chan core.Record, 1)
	hook := func(ctx context.Context, record core.Record, created bool) error {
		record.SetEmbedding([]float32{1, 0, 0}, time.Now())
		seen <- record
		return nil
	}

	p, err := NewPipeline(records, WithPoolSize(2), WithHook(hook))
	require.NoError(t, err)
	defer p.Release()

	story := &core.Story{Title: "Grandma's Dumplings", Content: "Pork and chives"}
	require.NoError(t, p.Save(context.Background(), story))

	// Reads race with the pooled hook unless the hook works on its own value.
	for i := 0; i < 100; i++ {
		_ = story.GetEmbedding()
		_ = story.NeedsEmbedding()
	}
	p.Drain()

	got := <-seen
	assert.NotSame(t, story, got)
	assert.Equal(t, story.ID, got.RecordID())
	assert.Equal(t, "Grandma's Dumplings", got.(*core.Story).Title)
	assert.True(t, story.NeedsEmbedding())
}

func TestAddHook(t *testing.T) {
	p, err := NewPipeline(newTestRecords(t))
	require.NoError(t, err)
	defer p.Release()

	assert.ErrorIs(t, p.AddHook(nil), ErrNilHook)

	recorder := &recordingHook{}
	require.NoError(t, p.AddHook(recorder.hook))
	require.NoError(t, p.Save(context.Background(), &core.Person{Name: "Mei"}))
	assert.Len(t, recorder.Calls(), 1)
}
