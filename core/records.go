package core

import "time"

// ChunkSet is the chunked text of one upload, keyed by the upload's content ID.
type ChunkSet struct {
	UploadID  ID
	Chunks    []Chunk
	CreatedAt time.Time
}

// GuideRecord is a generated guide kept for an upload and subject until it is downloaded.
type GuideRecord struct {
	UploadID  ID
	Subject   string
	Body      string
	Total     int
	Failed    int
	CreatedAt time.Time
}
