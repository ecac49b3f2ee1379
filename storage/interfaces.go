package storage

import (
	"context"

	"github.com/poiesic/studyguide/core"
)

// ChunkCache stores chunked uploads.
// Implementations must be thread-safe and support concurrent access.
type ChunkCache interface {
	// PutChunks stores set under set.UploadID, replacing any existing entry.
	// If the cache is full the oldest entries are evicted.
	PutChunks(ctx context.Context, set *core.ChunkSet) error

	// GetChunks returns the chunk set for id.
	// Returns ErrNotFound if it is missing or expired.
	GetChunks(ctx context.Context, id core.ID) (*core.ChunkSet, error)

	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	Close() error
}

// GuideCache stores generated guides per upload and subject.
type GuideCache interface {
	// PutGuide stores record, replacing any guide for the same upload and subject.
	PutGuide(ctx context.Context, record *core.GuideRecord) error

	// GetGuide returns the guide for uploadID and subject.
	// Returns ErrNotFound if it is missing or expired.
	GetGuide(ctx context.Context, uploadID core.ID, subject string) (*core.GuideRecord, error)

	// DeleteGuide removes the guide for uploadID and subject. Missing entries are not an error.
	DeleteGuide(ctx context.Context, uploadID core.ID, subject string) error

	// DeleteGuides removes every guide generated for uploadID.
	DeleteGuides(ctx context.Context, uploadID core.ID) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	Close() error
}
