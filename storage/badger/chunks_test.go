package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaches(t *testing.T, opts ...Option) (*ChunkCache, *GuideCache) {
	t.Helper()
	chunks, guides, backend, err := NewMemoryCaches(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return chunks, guides
}

func TestChunkCache_PutGet(t *testing.T) {
	cache, _ := newTestCaches(t)
	ctx := context.Background()

	set := &core.ChunkSet{UploadID: 7, Chunks: core.NewChunks("alpha", "beta")}
	require.NoError(t, cache.PutChunks(ctx, set))
	assert.False(t, set.CreatedAt.IsZero(), "CreatedAt should be set")

	got, err := cache.GetChunks(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, set.Chunks, got.Chunks)
	assert.Equal(t, core.ID(7), got.UploadID)
}

func TestChunkCache_Missing(t *testing.T) {
	cache, _ := newTestCaches(t)

	_, err := cache.GetChunks(context.Background(), 123)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkCache_EvictsOldest(t *testing.T) {
	cache, _ := newTestCaches(t, WithMaxEntries(3))
	ctx := context.Background()

	for id := core.ID(1); id <= 5; id++ {
		require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: id, Chunks: core.NewChunks("x")}))
	}

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, id := range []core.ID{1, 2} {
		_, err := cache.GetChunks(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound, "id %d should be evicted", id)
	}
	for _, id := range []core.ID{3, 4, 5} {
		_, err := cache.GetChunks(ctx, id)
		assert.NoError(t, err, "id %d should be cached", id)
	}
}

func TestChunkCache_ReplaceDoesNotEvict(t *testing.T) {
	cache, _ := newTestCaches(t, WithMaxEntries(2))
	ctx := context.Background()

	require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: 1, Chunks: core.NewChunks("a")}))
	require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: 2, Chunks: core.NewChunks("b")}))
	require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: 2, Chunks: core.NewChunks("b2")}))

	got, err := cache.GetChunks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Chunks[0].Text)

	got, err = cache.GetChunks(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Chunks[0].Text)
}

func TestChunkCache_Unbounded(t *testing.T) {
	cache, _ := newTestCaches(t, WithMaxEntries(0))
	ctx := context.Background()

	for id := core.ID(1); id <= 8; id++ {
		require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: id}))
	}
	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestChunkCache_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for TTL expiry")
	}
	cache, _ := newTestCaches(t, WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: 1, Chunks: core.NewChunks("x")}))
	time.Sleep(2100 * time.Millisecond)

	_, err := cache.GetChunks(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkCache_Clear(t *testing.T) {
	cache, guides := newTestCaches(t)
	ctx := context.Background()

	require.NoError(t, cache.PutChunks(ctx, &core.ChunkSet{UploadID: 1}))
	require.NoError(t, guides.PutGuide(ctx, &core.GuideRecord{UploadID: 1, Subject: "Bio", Body: "b"}))
	require.NoError(t, cache.Clear(ctx))

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = guides.GetGuide(ctx, 1, "Bio")
	assert.NoError(t, err, "clearing chunks must not touch guides")
}
