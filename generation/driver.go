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


package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyguide/ai"
	"github.com/poiesic/studyguide/core"
)

const (
	// DefaultConcurrency bounds in-flight generator calls so a large upload
	// does not flood the remote API.
	DefaultConcurrency = 4

	// DefaultRetryDelay is the base backoff delay used when retries are enabled.
	DefaultRetryDelay = time.Second
)

// Driver fans chunk generation out over a worker pool.
// A Driver may serve several runs at once; they share the pool.
type Driver struct {
	generator   ai.Generator
	pool        *ants.Pool
	concurrency int
	maxAttempts int
	retryDelay  time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver) error

// WithConcurrency sets the maximum number of concurrent generator calls.
// A value <= 0 removes the bound. Default is DefaultConcurrency.
func WithConcurrency(size int) Option {
	return func(d *Driver) error {
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if d.pool != nil {
			d.pool.Release()
		}
		d.pool = pool
		d.concurrency = size
		return nil
	}
}

// WithMaxAttempts sets how many times a chunk's generation is attempted.
// Default is 1 (no retry).
func WithMaxAttempts(n int) Option {
	return func(d *Driver) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		d.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base backoff delay between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Driver) error {
		d.retryDelay = delay
		return nil
	}
}

// WithCallTimeout bounds each individual generator call. Zero means no timeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Driver) error {
		d.callTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDriver creates a generation driver for the given generator.
func NewDriver(generator ai.Generator, opts ...Option) (*Driver, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	d := &Driver{
		generator:   generator,
		maxAttempts: 1,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			d.Release()
			return nil, err
		}
	}

	if d.pool == nil {
		if err := WithConcurrency(DefaultConcurrency)(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Concurrency returns the configured concurrency bound (<= 0 means unbounded).
func (d *Driver) Concurrency() int {
	return d.concurrency
}

// Generate runs the generator once per chunk and returns one result per chunk,
// slot i holding the outcome for chunks[i] regardless of completion order.
//
// After each chunk finishes, successfully or not, the completed count is sent
// on progress (when non-nil). Sends are serialized, so the channel observes
// 1, 2, ..., len(chunks) in that order. The channel must be buffered for the
// run size or drained concurrently; Generate blocks on a full channel.
//
// Generate returns once every slot is recorded and the final count was sent.
// It returns the results and the final completed count.
func (d *Driver) Generate(ctx context.Context, chunks []core.Chunk, subject string, progress chan<- core.Progress) (core.Results, int) {
	results := make(core.Results, len(chunks))
	if len(chunks) == 0 {
		return results, 0
	}

	start := time.Now()
	var (
		completed atomic.Int64
		emitMu    sync.Mutex
		wg        sync.WaitGroup
	)

	// finish records slot i and emits the new count.
	// Slots are disjoint per index so the write needs no lock.
	finish := func(i int, r core.Result) {
		results[i] = r
		emitMu.Lock()
		n := completed.Add(1)
		if progress != nil {
			progress <- core.Progress(n)
		}
		emitMu.Unlock()
	}

	for i, chunk := range chunks {
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			finish(i, d.generateOne(ctx, i, chunk, subject))
		})
		if err != nil {
			d.logger.Error("error submitting chunk", "chunk", i, "err", err)
			finish(i, core.AbsentResult(i, fmt.Errorf("submit chunk %d: %w", i, err)))
			wg.Done()
		}
	}

	wg.Wait()

	failed := results.AbsentCount()
	logArgs := []any{"subject", subject, "chunks", len(chunks), "failed", failed, "elapsed", time.Since(start).Round(time.Millisecond)}
	if failed > 0 {
		d.logger.Warn("generation run finished with failures", logArgs...)
	} else {
		d.logger.Info("generation run finished", logArgs...)
	}

	return results, int(completed.Load())
}

// generateOne produces the result for a single chunk. It never panics.
func (d *Driver) generateOne(ctx context.Context, i int, chunk core.Chunk, subject string) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("generator panicked", "chunk", i, "panic", r)
			res = core.AbsentResult(i, fmt.Errorf("chunk %d: %w: %v", i, ErrGeneratorPanic, r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return core.AbsentResult(i, fmt.Errorf("chunk %d: %w", i, err))
	}

	text, err := d.attemptChunk(ctx, chunk, subject)
	if err != nil {
		d.logger.Warn("chunk generation failed", "chunk", i, "err", err)
		return core.AbsentResult(i, fmt.Errorf("chunk %d: %w", i, err))
	}

	d.logger.Debug("chunk generated", "chunk", i, "length", len(text))
	return core.PresentResult(i, text)
}

// Release releases the worker pool.
// The driver should not be used after calling Release.
func (d *Driver) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}
