package ai

import "errors"

var (
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrEmptyChunk is returned when asked to generate from a blank chunk.
	ErrEmptyChunk = errors.New("chunk text is empty")
)
