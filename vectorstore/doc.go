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


// Package vectorstore defines the vector index abstraction used for chunk
// embeddings.
//
// Point ids are deterministic ("{sourceID}-{chunkIndex}") so that
// re-ingesting a source overwrites its existing points instead of
// duplicating them. The index owns the embedding dimensionality: it is
// bootstrapped from the first successful embedding call through
// EnsureCollection and reused to size and validate the collection from then
// on. There is no process-global dimensionality state.
//
// # Implementation Packages
//
//   - vectorstore/qdrant: production client against a Qdrant server
//   - vectorstore/memory: in-process index for tests
package vectorstore
