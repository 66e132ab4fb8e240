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


// Package ai provides abstractions for the AI services used in stancewatch.
//
// This package defines interfaces for text embeddings and stance extraction.
// It follows the dependency inversion principle, allowing the ingest and
// analysis pipelines to depend on abstractions rather than concrete services.
//
// # Implementation Packages
//
//   - ai/ollama: production gateways against a local Ollama server
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (ollama.NewProvider, ollama.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// a concrete gateway.
//
//	provider, err := ollama.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockStanceExtractor)
// return CONCRETE types to enable test assertions and behavior injection.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := ollama.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, chunks)
package ai
