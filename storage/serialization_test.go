package storage

import (
	"testing"
	"time"

	"github.com/poiesic/studyguide/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent([]byte("test content"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestChunkSetRoundTrip(t *testing.T) {
	set := &core.ChunkSet{
		UploadID:  core.IDFromContent([]byte("notes.txt")),
		Chunks:    core.NewChunks("first chunk", "", "third chunk with ünïcode"),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC),
	}

	decoded, err := UnmarshalChunkSet(MarshalChunkSet(set))
	require.NoError(t, err)

	assert.Equal(t, set.UploadID, decoded.UploadID)
	assert.Equal(t, set.Chunks, decoded.Chunks)
	assert.True(t, set.CreatedAt.Equal(decoded.CreatedAt))
}

func TestChunkSet_EmptyChunks(t *testing.T) {
	decoded, err := UnmarshalChunkSet(MarshalChunkSet(&core.ChunkSet{UploadID: 7, Chunks: []core.Chunk{}}))
	require.NoError(t, err)
	assert.Empty(t, decoded.Chunks)
}

func TestGuideRecordRoundTrip(t *testing.T) {
	record := &core.GuideRecord{
		UploadID:  99,
		Subject:   "Biology",
		Body:      "a0 a2\n\nGenerated by Johnny - Study Assistant",
		Total:     3,
		Failed:    1,
		CreatedAt: time.Unix(1700000000, 0),
	}

	decoded, err := UnmarshalGuideRecord(MarshalGuideRecord(record))
	require.NoError(t, err)

	assert.Equal(t, record.UploadID, decoded.UploadID)
	assert.Equal(t, record.Subject, decoded.Subject)
	assert.Equal(t, record.Body, decoded.Body)
	assert.Equal(t, record.Total, decoded.Total)
	assert.Equal(t, record.Failed, decoded.Failed)
	assert.True(t, record.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshal_Truncated(t *testing.T) {
	set := MarshalChunkSet(&core.ChunkSet{UploadID: 1, Chunks: core.NewChunks("hello world")})
	_, err := UnmarshalChunkSet(set[:len(set)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	guide := MarshalGuideRecord(&core.GuideRecord{UploadID: 1, Subject: "s", Body: "body"})
	_, err = UnmarshalGuideRecord(guide[:2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
