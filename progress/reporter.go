package progress

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/studyguide/core"
)

// Reporter consumes progress values on a single goroutine and renders each new one.
//
// Repeated values are rendered once. Stop is cooperative: the goroutine
// finishes its current step, renders anything already queued, and exits.
// Once Stop returns the renderer is never called again.
type Reporter struct {
	total    int
	renderer Renderer
	events   chan core.Progress
	logger   *slog.Logger

	last    atomic.Int64
	started atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	exited    chan struct{}
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithBuffer sets the event channel capacity. Default is the run total.
func WithBuffer(size int) Option {
	return func(r *Reporter) {
		if size < 1 {
			size = 1
		}
		r.events = make(chan core.Progress, size)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReporter creates a reporter for a run of total chunks.
func NewReporter(total int, renderer Renderer, opts ...Option) *Reporter {
	r := &Reporter{
		total:    total,
		renderer: renderer,
		logger:   slog.Default().With("component", "progress"),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.events == nil {
		WithBuffer(total)(r)
	}
	return r
}

// Events returns the channel producers send completed counts on.
// Producers must not send more than the buffer size after Stop.
func (r *Reporter) Events() chan<- core.Progress {
	return r.events
}

// Last returns the most recently rendered value, 0 if none.
func (r *Reporter) Last() int {
	return int(r.last.Load())
}

// Start launches the consumer goroutine. Calls after the first, or after Stop, do nothing.
// Cancelling ctx ends the goroutine without rendering queued values.
func (r *Reporter) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		select {
		case <-r.done:
			return
		default:
		}
		r.started.Store(true)
		go r.loop(ctx)
	})
}

// Stop signals the consumer goroutine and waits for it to exit. It is idempotent.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	// Block Start from launching after Stop.
	r.startOnce.Do(func() {})
	if r.started.Load() {
		<-r.exited
	}
}

func (r *Reporter) loop(ctx context.Context) {
	defer close(r.exited)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			r.flush()
			return
		case p := <-r.events:
			r.render(int(p))
		}
	}
}

// flush renders values that were queued before Stop.
func (r *Reporter) flush() {
	for {
		select {
		case p := <-r.events:
			r.render(int(p))
		default:
			return
		}
	}
}

func (r *Reporter) render(completed int) {
	if int64(completed) == r.last.Load() {
		return
	}
	r.last.Store(int64(completed))

	if r.renderer == nil {
		return
	}
	if err := r.renderer.Render(completed, r.total); err != nil {
		r.logger.Warn("error rendering progress", "completed", completed, "total", r.total, "err", err)
	}
}
