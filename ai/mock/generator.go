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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/studyguide/ai"
)

// MockGenerator is a test double for ai.Generator.
// It is safe for concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by GenerateGuide if set.
	// If nil, returns "<subject>: <chunk>".
	GenerateFunc func(ctx context.Context, chunk, subject string) (string, error)

	mu     sync.Mutex
	calls  int
	chunks []string
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default behavior.
// Returns the concrete type to allow behavior injection and assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithGenerateFunc sets custom generation behavior.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, chunk, subject string) (string, error)) *MockGenerator {
	m.GenerateFunc = fn
	return m
}

// GenerateGuide records the call and returns mock guide text.
func (m *MockGenerator) GenerateGuide(ctx context.Context, chunk, subject string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.chunks = append(m.chunks, chunk)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, chunk, subject)
	}
	return subject + ": " + chunk, nil
}

// CallCount returns the number of times GenerateGuide was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Chunks returns the chunks passed to GenerateGuide in call order.
func (m *MockGenerator) Chunks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Reset clears the call history and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.chunks = nil
	m.GenerateFunc = nil
}
