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


// Package studyguide turns uploaded study materials into a learning guide.
//
// A Service ties the pieces together: uploads are extracted and split into
// chunks (document), chunks are cached by content (storage), every chunk is
// sent to the configured language model concurrently (generation) while
// progress is rendered (progress), and the results are assembled into a
// downloadable guide (guide).
//
// Typical use:
//
//	svc, err := studyguide.NewService(ctx, studyguide.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	id, _, err := svc.Prepare(ctx, uploads...)
//	doc, err := svc.Generate(ctx, id, "Biology", progress.NewTextRenderer(os.Stderr))
package studyguide
