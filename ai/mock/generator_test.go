package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_Default(t *testing.T) {
	gen := NewMockGenerator()

	text, err := gen.GenerateGuide(context.Background(), "photosynthesis", "Biology")
	require.NoError(t, err)
	assert.Equal(t, "Biology: photosynthesis", text)
	assert.Equal(t, 1, gen.CallCount())
	assert.Equal(t, []string{"photosynthesis"}, gen.Chunks())
}

func TestMockGenerator_CustomFunc(t *testing.T) {
	failure := errors.New("boom")
	gen := NewMockGenerator().WithGenerateFunc(func(ctx context.Context, chunk, subject string) (string, error) {
		return "", failure
	})

	_, err := gen.GenerateGuide(context.Background(), "x", "y")
	assert.ErrorIs(t, err, failure)

	gen.Reset()
	assert.Equal(t, 0, gen.CallCount())

	text, err := gen.GenerateGuide(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "y: x", text)
}

func TestMockGenerator_Concurrent(t *testing.T) {
	gen := NewMockGenerator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.GenerateGuide(context.Background(), "chunk", "subject")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, gen.CallCount())
	assert.Len(t, gen.Chunks(), 50)
}
