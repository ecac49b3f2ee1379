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


// Package ai provides abstractions for the language-model services used to
// write learning guides.
//
// The package defines a single capability, Generator, which turns one chunk
// of study material into one guide section. Callers depend on the interface;
// concrete clients live in sub-packages.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/gemini: Google Gemini through the generative-ai-go client
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewGenerator, gemini.NewGenerator) return the
// ai.Generator interface. mock.NewMockGenerator returns the concrete type so
// tests can inject behavior and read call counts.
//
// # Failure Contract
//
// A Generator either returns text or an error. Empty model output is reported
// as ErrEmptyResponse. Generators never retry on their own; retry policy
// belongs to the generation driver.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(key))
//	gen, err := openai.NewGenerator(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	section, err := gen.GenerateGuide(ctx, chunkText, "Biology 101")
package ai
