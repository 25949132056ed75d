package memory

import (
	"context"
	"testing"

	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore is a map-backed store that counts reads.
type countingStore struct {
	entries map[string]*core.EmbeddingCacheEntry
	gets    int
	closed  bool
}

func newCountingStore() *countingStore {
	return &countingStore{entries: map[string]*core.EmbeddingCacheEntry{}}
}

func (c *countingStore) GetEmbedding(ctx context.Context, hash string) (*core.EmbeddingCacheEntry, error) {
	c.gets++
	entry, ok := c.entries[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return entry, nil
}

func (c *countingStore) PutEmbedding(ctx context.Context, entry *core.EmbeddingCacheEntry) error {
	c.entries[entry.ContentHash] = entry
	return nil
}

func (c *countingStore) Close() error {
	c.closed = true
	return nil
}

func TestCacheStore_Standalone(t *testing.T) {
	s, err := NewCacheStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.GetEmbedding(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, s.PutEmbedding(ctx, &core.EmbeddingCacheEntry{ContentHash: core.ContentHash(text)}))
	}

	// "a" was evicted
	_, err = s.GetEmbedding(ctx, core.ContentHash("a"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetEmbedding(ctx, core.ContentHash("c"))
	assert.NoError(t, err)
}

func TestCacheStore_ReadThrough(t *testing.T) {
	backing := newCountingStore()
	hash := core.ContentHash("story")
	backing.entries[hash] = &core.EmbeddingCacheEntry{ContentHash: hash, Embedding: []float32{1}}

	s, err := NewCacheStore(0, backing)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry, err := s.GetEmbedding(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, entry.Embedding)
	}
	assert.Equal(t, 1, backing.gets)

	other := &core.EmbeddingCacheEntry{ContentHash: core.ContentHash("other")}
	require.NoError(t, s.PutEmbedding(ctx, other))
	assert.Contains(t, backing.entries, other.ContentHash)

	require.NoError(t, s.Close())
	assert.True(t, backing.closed)
}
