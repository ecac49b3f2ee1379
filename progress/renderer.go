package progress

import (
	"fmt"
	"io"
	"sync"
)

// Renderer displays a progress value.
// Implementations are only ever called from one goroutine at a time.
type Renderer interface {
	Render(completed, total int) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(completed, total int) error

// Render calls f(completed, total).
func (f RendererFunc) Render(completed, total int) error {
	return f(completed, total)
}

// FormatStep returns the user-facing progress text, e.g. "Step: 3/10".
func FormatStep(completed, total int) string {
	return fmt.Sprintf("Step: %d/%d", completed, total)
}

// Percent returns completed as a percentage of total; 0 for an empty run.
func Percent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100.0
}

// TextRenderer writes a single self-overwriting progress line.
type TextRenderer struct {
	mu       sync.Mutex
	w        io.Writer
	rendered bool
}

// NewTextRenderer creates a renderer writing to w (typically os.Stderr).
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Render implements Renderer.
func (r *TextRenderer) Render(completed, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rendered = true
	_, err := fmt.Fprintf(r.w, "\r%s (%.1f%%)", FormatStep(completed, total), Percent(completed, total))
	return err
}

// Finish terminates the progress line. It writes nothing if nothing was rendered.
func (r *TextRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rendered {
		fmt.Fprintln(r.w)
	}
}
