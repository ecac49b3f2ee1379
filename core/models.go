package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for cached entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from content using BLAKE2b hashing.
// Parts are hashed in order with a separator so that ("ab","c") and ("a","bc")
// produce different IDs.
func IDFromContent(parts ...[]byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is one ordered piece of extracted document text.
// Index is its 0-based position in the sequence the chunker produced.
type Chunk struct {
	Index int
	Text  string
}

// Result is the outcome of generating an artifact for one chunk.
// A Result is either present (Artifact holds the generated text) or absent
// (generation failed and Err records why). Absent results never carry an artifact.
type Result struct {
	Index    int
	Artifact string
	Present  bool
	Err      error
}

// PresentResult returns a successful result for the chunk at index.
func PresentResult(index int, artifact string) Result {
	return Result{Index: index, Artifact: artifact, Present: true}
}

// AbsentResult returns a failed result for the chunk at index.
func AbsentResult(index int, err error) Result {
	return Result{Index: index, Err: err}
}

// Results is an ordered result sequence, one slot per chunk.
type Results []Result

// HasAbsent reports whether any slot is absent.
func (rs Results) HasAbsent() bool {
	for _, r := range rs {
		if !r.Present {
			return true
		}
	}
	return false
}

// AbsentCount returns the number of absent slots.
func (rs Results) AbsentCount() int {
	n := 0
	for _, r := range rs {
		if !r.Present {
			n++
		}
	}
	return n
}

// Artifacts returns the artifacts of the present slots in chunk order.
func (rs Results) Artifacts() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.Present {
			out = append(out, r.Artifact)
		}
	}
	return out
}

// Progress is the number of chunks that reached a terminal state in a run.
type Progress int

// Run describes one invocation of the generation pipeline.
// Size is fixed when the run starts.
type Run struct {
	Subject string
	Size    int
}
