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


// Package storage defines the caches used to avoid repeating work across requests.
//
// Two caches exist:
//
//   - ChunkCache keeps the chunked text of recent uploads, keyed by content ID,
//     so uploading the same files again skips extraction and splitting.
//   - GuideCache keeps a generated guide per upload and subject until it is
//     downloaded or the user uploads new files.
//
// Entries expire on their own after a TTL. Implementations live in subpackages
// (see storage/badger) and must be safe for concurrent use.
package storage
