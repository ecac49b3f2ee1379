package badger

import (
	"encoding/binary"

	"github.com/poiesic/studyguide/core"
)

// Key prefixes for different data types
const (
	chunkSetPrefix = "chunks:"
	guidePrefix    = "guide:"
)

// makeChunkSetKey generates a key for a chunk set by upload ID.
// Format: prefix + 8-byte big-endian id
func makeChunkSetKey(id core.ID) []byte {
	buf := make([]byte, len(chunkSetPrefix)+8)
	offset := copy(buf, chunkSetPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeGuideKey generates a composite key for a guide.
// Format: prefix + 8-byte big-endian upload id + subject
func makeGuideKey(uploadID core.ID, subject string) []byte {
	buf := make([]byte, len(guidePrefix)+8+len(subject))
	offset := copy(buf, guidePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(uploadID))
	copy(buf[offset+8:], subject)
	return buf
}
