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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSubject indicates a subject failed validation.
	ErrInvalidSubject = errors.New("invalid subject")

	// ErrEmptySubject indicates the subject is empty or whitespace only.
	ErrEmptySubject = errors.New("subject cannot be empty")

	// ErrSubjectPath indicates the subject contains a path separator.
	// Subjects become file names, so separators are rejected.
	ErrSubjectPath = errors.New("subject cannot contain path separators")

	// ErrInvalidChunks indicates a chunk sequence failed validation.
	ErrInvalidChunks = errors.New("invalid chunk sequence")

	// ErrChunkIndex indicates a chunk index does not match its position.
	ErrChunkIndex = errors.New("chunk index does not match position")
)
