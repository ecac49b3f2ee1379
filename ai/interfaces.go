package ai

import "context"

// Generator writes the learning-guide section for one chunk of study material.
// Implementations must be thread-safe for concurrent use: the generation driver
// calls GenerateGuide from many goroutines at once.
type Generator interface {
	// GenerateGuide produces guide text for chunk, written for the given subject.
	// A returned error, or ErrEmptyResponse when the model produced nothing,
	// marks the chunk as failed. Implementations do not retry.
	GenerateGuide(ctx context.Context, chunk, subject string) (string, error)
}

// Closer is implemented by generators that hold client resources.
type Closer interface {
	Close() error
}
