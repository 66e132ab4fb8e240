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

// Package analysis implements the analyze operation and its derived queries.
//
// Analyze retrieves ranked evidence for a natural-language query, builds a
// deterministic prompt, asks the generative model for a structured stance
// extraction, attributes the generated evidence quote back to a stored
// source, persists the statement, and reconciles it against the previous
// statement for the same (politician, topic) pair. Timeline and Summary are
// read-only companions over the same repositories.
//
// Only independent reads run concurrently (entity lookups, summary
// aggregates); the pipeline stages themselves are sequential and there is no
// retry anywhere. A failed stage fails the whole analyze call, and the
// operator retries by resubmitting.
package analysis
