package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker is a Renderer that also reports throughput.
// It only writes when at least reportInterval chunks completed since the last
// line, or when the run reaches its total.
type Tracker struct {
	writer         io.Writer
	reportInterval int
	total          int
	current        int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewTracker creates a new tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report every N chunks (values < 1 report every chunk)
func NewTracker(writer io.Writer, reportInterval int) *Tracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &Tracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start resets the tracker for a run of total chunks.
func (t *Tracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = time.Now()
	t.started = true
	t.total = total
	t.current = 0
	t.lastReported = 0
}

// Render implements Renderer. The first call starts the clock if Start was not called.
func (t *Tracker) Render(completed, total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		t.startTime = time.Now()
		t.started = true
	}
	t.total = total

	if completed > total {
		completed = total
	}
	t.current = completed

	if t.current-t.lastReported >= t.reportInterval || t.current == t.total {
		t.lastReported = t.current
		return t.report()
	}
	return nil
}

// Finish prints the final line followed by a newline.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}

	_ = t.report()
	fmt.Fprintln(t.writer)
}

// Elapsed returns the time since the run started.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return 0
	}
	return time.Since(t.startTime)
}

// Summary describes the run so far, e.g. "10/10 chunks in 2.1s".
func (t *Tracker) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var elapsed time.Duration
	if t.started {
		elapsed = time.Since(t.startTime).Round(100 * time.Millisecond)
	}
	return fmt.Sprintf("%d/%d chunks in %s", t.current, t.total, elapsed)
}

// report must be called with lock held.
func (t *Tracker) report() error {
	rate := 0.0
	if secs := time.Since(t.startTime).Seconds(); secs > 0 {
		rate = float64(t.current) / secs
	}

	_, err := fmt.Fprintf(t.writer, "\r%s (%.1f%%) - %.1f chunks/s",
		FormatStep(t.current, t.total), Percent(t.current, t.total), rate)
	return err
}
