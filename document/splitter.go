package document

import (
	"fmt"
	"strings"

	"github.com/poiesic/studyguide/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 4000
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 200
)

// Splitter cuts text into ordered chunks on paragraph, line and word boundaries.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(size int) SplitterOption {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *Splitter) {
		s.chunkOverlap = overlap
	}
}

// NewSplitter creates a splitter. Overlap must be smaller than the chunk size.
func NewSplitter(opts ...SplitterOption) (*Splitter, error) {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 || s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunkSize, s.chunkSize, s.chunkOverlap)
	}

	s.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
	)
	return s, nil
}

// Split returns the indexed chunks of text. Whitespace-only pieces are dropped.
func (s *Splitter) Split(text string) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return []core.Chunk{}, nil
	}

	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	texts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			texts = append(texts, p)
		}
	}
	return core.NewChunks(texts...), nil
}
