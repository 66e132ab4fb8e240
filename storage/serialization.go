package storage

import (
	"encoding/json"
	"fmt"
)

// Stored values are encoded as JSON. The entity structs are small and read
// paths are dominated by badger itself, so a compact binary codec buys
// nothing here while JSON keeps the on-disk values inspectable with
// badger's own tooling.

// Marshal encodes a stored entity, wrapping failures in
// ErrSerializationFailed.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal decodes a stored entity, wrapping failures in
// ErrSerializationFailed.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return nil
}
