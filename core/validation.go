// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateSubject validates a guide subject.
//
// Validation rules:
//   - Subject must not be empty or whitespace only
//   - Subject must not contain '/' or '\' (it is used to build a file name)
func ValidateSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSubject, ErrEmptySubject)
	}

	if strings.ContainsAny(subject, `/\`) {
		return fmt.Errorf("%w: %w", ErrInvalidSubject, ErrSubjectPath)
	}

	return nil
}

// ValidateChunks checks that every chunk's Index equals its position.
// An empty sequence is valid.
func ValidateChunks(chunks []Chunk) error {
	for i, c := range chunks {
		if c.Index != i {
			return fmt.Errorf("%w: %w: position %d has index %d", ErrInvalidChunks, ErrChunkIndex, i, c.Index)
		}
	}
	return nil
}

// NewChunks builds an indexed chunk sequence from raw texts.
func NewChunks(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Index: i, Text: t}
	}
	return chunks
}

// NewRun validates subject and chunks and returns a run sized to the chunks.
func NewRun(subject string, chunks []Chunk) (Run, error) {
	if err := ValidateSubject(subject); err != nil {
		return Run{}, err
	}
	if err := ValidateChunks(chunks); err != nil {
		return Run{}, err
	}
	return Run{Subject: subject, Size: len(chunks)}, nil
}
