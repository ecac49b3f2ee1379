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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/studyguide/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalChunkSet serializes a ChunkSet to bytes.
// Layout: upload id, created-at (unix nanos), chunk count, then index and text per chunk.
func MarshalChunkSet(set *core.ChunkSet) []byte {
	created := set.CreatedAt.UnixNano()

	size := varint.Uint64.Size(uint64(set.UploadID)) +
		varint.Int64.Size(created) +
		varint.Int.Size(len(set.Chunks))
	for _, c := range set.Chunks {
		size += varint.Int.Size(c.Index) + ord.String.Size(c.Text)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(set.UploadID), buf)
	n += varint.Int64.Marshal(created, buf[n:])
	n += varint.Int.Marshal(len(set.Chunks), buf[n:])
	for _, c := range set.Chunks {
		n += varint.Int.Marshal(c.Index, buf[n:])
		n += ord.String.Marshal(c.Text, buf[n:])
	}
	return buf
}

// UnmarshalChunkSet deserializes a ChunkSet from bytes.
func UnmarshalChunkSet(data []byte) (*core.ChunkSet, error) {
	r := reader{data: data}

	id := r.readUint64("upload id")
	created := r.readInt64("created at")
	count := r.readInt("chunk count")
	if r.err != nil {
		return nil, r.err
	}
	if count < 0 || count > len(data) {
		return nil, fmt.Errorf("%w: chunk count %d", ErrTruncatedData, count)
	}

	chunks := make([]core.Chunk, count)
	for i := range chunks {
		chunks[i].Index = r.readInt("chunk index")
		chunks[i].Text = r.readString("chunk text")
	}
	if r.err != nil {
		return nil, r.err
	}

	return &core.ChunkSet{
		UploadID:  core.ID(id),
		Chunks:    chunks,
		CreatedAt: time.Unix(0, created),
	}, nil
}

// MarshalGuideRecord serializes a GuideRecord to bytes.
func MarshalGuideRecord(record *core.GuideRecord) []byte {
	created := record.CreatedAt.UnixNano()

	size := varint.Uint64.Size(uint64(record.UploadID)) +
		ord.String.Size(record.Subject) +
		ord.String.Size(record.Body) +
		varint.Int.Size(record.Total) +
		varint.Int.Size(record.Failed) +
		varint.Int64.Size(created)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(record.UploadID), buf)
	n += ord.String.Marshal(record.Subject, buf[n:])
	n += ord.String.Marshal(record.Body, buf[n:])
	n += varint.Int.Marshal(record.Total, buf[n:])
	n += varint.Int.Marshal(record.Failed, buf[n:])
	varint.Int64.Marshal(created, buf[n:])
	return buf
}

// UnmarshalGuideRecord deserializes a GuideRecord from bytes.
func UnmarshalGuideRecord(data []byte) (*core.GuideRecord, error) {
	r := reader{data: data}

	record := &core.GuideRecord{
		UploadID: core.ID(r.readUint64("upload id")),
		Subject:  r.readString("subject"),
		Body:     r.readString("body"),
		Total:    r.readInt("total"),
		Failed:   r.readInt("failed"),
	}
	created := r.readInt64("created at")
	if r.err != nil {
		return nil, r.err
	}
	record.CreatedAt = time.Unix(0, created)
	return record, nil
}

// reader walks a byte slice field by field.
// After the first failure every read is a no-op and err holds the cause.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) fail(field string, err error) {
	r.err = fmt.Errorf("%w: %s: %w", ErrSerializationFailed, field, err)
}

func (r *reader) readUint64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.data[r.off:])
	if err != nil {
		r.fail(field, err)
		return 0
	}
	r.off += n
	return v
}

func (r *reader) readInt64(field string) int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.data[r.off:])
	if err != nil {
		r.fail(field, err)
		return 0
	}
	r.off += n
	return v
}

func (r *reader) readInt(field string) int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.data[r.off:])
	if err != nil {
		r.fail(field, err)
		return 0
	}
	r.off += n
	return v
}

func (r *reader) readString(field string) string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.data[r.off:])
	if err != nil {
		r.fail(field, err)
		return ""
	}
	r.off += n
	return v
}
