// Package generation runs the guide generator over an ordered chunk sequence.
//
// The Driver submits one generation call per chunk to a bounded worker pool,
// writes each outcome into the chunk's fixed result slot, and emits the
// running completed count after every chunk finishes. A failed chunk becomes
// an absent result; it never aborts the run.
package generation
