// Package mock provides test double implementations of AI service interfaces.
//
// MockGenerator implements ai.Generator for unit tests. It runs without
// external services and supports controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	gen := mock.NewMockGenerator()
//	section, err := gen.GenerateGuide(ctx, "chunk", "subject")
//
//	// Custom behavior injection
//	gen := mock.NewMockGenerator().
//	    WithGenerateFunc(func(ctx context.Context, chunk, subject string) (string, error) {
//	        return "", errors.New("boom")
//	    })
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
// The default generator returns "<subject>: <chunk>" so tests can match a
// result slot back to its chunk.
package mock
