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

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when an insert would violate a uniqueness
	// constraint, such as a topic slug that is already taken.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed is returned when an operation is attempted on a
	// closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps encoding or decoding failures of stored
	// values.
	ErrSerializationFailed = errors.New("serialization failed")
)
