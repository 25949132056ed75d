package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	hash := core.ContentHash("Grandma's Dumplings\n\nFolded every New Year")

	_, err := repos.Cache.GetEmbedding(ctx, hash)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entry := &core.EmbeddingCacheEntry{
		ContentHash: hash,
		ContentType: core.ContentTypeStory,
		ContentID:   1,
		Embedding:   []float32{0.1, 0.2},
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repos.Cache.PutEmbedding(ctx, entry))

	got, err := repos.Cache.GetEmbedding(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	// Upsert replaces the entry
	entry.Embedding = []float32{0.3}
	require.NoError(t, repos.Cache.PutEmbedding(ctx, entry))
	got, err = repos.Cache.GetEmbedding(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3}, got.Embedding)
}

func TestCheckpointRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	checkpoint, err := repos.Checkpoints.LoadCheckpoint(ctx, core.ContentTypeStory)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		Kind:    core.ContentTypeStory,
		Updated: 5,
		Failed:  1,
	}))

	checkpoint, err = repos.Checkpoints.LoadCheckpoint(ctx, core.ContentTypeStory)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, 5, checkpoint.Updated)
	assert.Equal(t, 1, checkpoint.Failed)
	assert.False(t, checkpoint.CompletedAt.IsZero())

	other, err := repos.Checkpoints.LoadCheckpoint(ctx, core.ContentTypeEvent)
	require.NoError(t, err)
	assert.Nil(t, other)
}
