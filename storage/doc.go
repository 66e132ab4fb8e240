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

// Package storage defines the persistence interfaces for sources, domain
// policies, politicians, topics, statements, and stance changes, together
// with the shared error taxonomy and value codec.
//
// The repository interfaces are deliberately storage-agnostic. The only
// production implementation lives in storage/badger; tests use the same
// implementation with an in-memory badger instance, so there is no separate
// mock repository layer to keep in sync.
package storage
