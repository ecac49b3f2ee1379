package badger

import (
	"context"
	"testing"

	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuideCache_PutGetDelete(t *testing.T) {
	_, cache := newTestCaches(t)
	ctx := context.Background()

	record := &core.GuideRecord{UploadID: 9, Subject: "Biology", Body: "guide body", Total: 3, Failed: 1}
	require.NoError(t, cache.PutGuide(ctx, record))

	got, err := cache.GetGuide(ctx, 9, "Biology")
	require.NoError(t, err)
	assert.Equal(t, "guide body", got.Body)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Failed)

	_, err = cache.GetGuide(ctx, 9, "Chemistry")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, cache.DeleteGuide(ctx, 9, "Biology"))
	_, err = cache.GetGuide(ctx, 9, "Biology")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, cache.DeleteGuide(ctx, 9, "Biology"), "deleting a missing guide is not an error")
}

func TestGuideCache_Clear(t *testing.T) {
	_, cache := newTestCaches(t)
	ctx := context.Background()

	require.NoError(t, cache.PutGuide(ctx, &core.GuideRecord{UploadID: 1, Subject: "A", Body: "a"}))
	require.NoError(t, cache.PutGuide(ctx, &core.GuideRecord{UploadID: 2, Subject: "B", Body: "b"}))
	require.NoError(t, cache.Clear(ctx))

	_, err := cache.GetGuide(ctx, 1, "A")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = cache.GetGuide(ctx, 2, "B")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGuideCache_DeleteGuides(t *testing.T) {
	_, cache := newTestCaches(t)
	ctx := context.Background()

	require.NoError(t, cache.PutGuide(ctx, &core.GuideRecord{UploadID: 1, Subject: "A", Body: "a"}))
	require.NoError(t, cache.PutGuide(ctx, &core.GuideRecord{UploadID: 1, Subject: "B", Body: "b"}))
	require.NoError(t, cache.PutGuide(ctx, &core.GuideRecord{UploadID: 2, Subject: "A", Body: "c"}))

	require.NoError(t, cache.DeleteGuides(ctx, 1))

	_, err := cache.GetGuide(ctx, 1, "A")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = cache.GetGuide(ctx, 1, "B")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := cache.GetGuide(ctx, 2, "A")
	require.NoError(t, err)
	assert.Equal(t, "c", got.Body)
}
