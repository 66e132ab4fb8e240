package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// readValue reads and decodes the value stored under key into v.
// Returns false without error when the key does not exist.
func readValue(tx *badger.Txn, key []byte, v any) (bool, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}

	err = item.Value(func(val []byte) error {
		return storage.Unmarshal(val, v)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// readID reads an entity ID stored under a lookup key.
// Returns the empty ID without error when the key does not exist.
func readID(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		id = core.ID(val)
		return nil
	})
	return id, err
}

// setValue encodes v and stores it under key.
func setValue(tx *badger.Txn, key []byte, v any) error {
	data, err := storage.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Set(key, data)
}
