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

package badger

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) (*SourceRepository, error) {
	return &SourceRepository{backend: backend}, nil
}

// Close releases resources. SourceRepository has no resources to release.
func (r *SourceRepository) Close() error {
	return nil
}

// UpsertSource inserts a source keyed by URL. When the URL is already known
// the existing row keeps its id and insertion time and the remaining fields
// are replaced.
func (r *SourceRepository) UpsertSource(ctx context.Context, source *core.Source) (*core.Source, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()

		existingID, err := readID(tx, makeLookupKey(sourceURLPrefix, source.URL))
		if err != nil {
			return err
		}

		if existingID != "" {
			var old core.Source
			found, err := readValue(tx, makeEntityKey(sourcePrefix, existingID), &old)
			if err != nil {
				return err
			}
			if !found {
				return storage.ErrNotFound
			}
			source.Id = old.Id
			source.InsertedAt = old.InsertedAt
			source.UpdatedAt = now
			if err := setValue(tx, makeEntityKey(sourcePrefix, source.Id), source); err != nil {
				return err
			}
			return tx.Commit()
		}

		if source.Id == "" {
			source.Id = core.NewID()
		}
		source.InsertedAt = now
		source.UpdatedAt = now

		if err := setValue(tx, makeEntityKey(sourcePrefix, source.Id), source); err != nil {
			return err
		}
		if err := tx.Set(makeLookupKey(sourceURLPrefix, source.URL), []byte(source.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeDateKey(sourceDatePrefix, source.InsertedAt, source.Id), []byte(source.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// GetSource retrieves a source by ID.
func (r *SourceRepository) GetSource(ctx context.Context, id core.ID) (*core.Source, error) {
	var result core.Source
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readValue(tx, makeEntityKey(sourcePrefix, id), &result)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSourceByURL retrieves a source by its unique URL.
func (r *SourceRepository) GetSourceByURL(ctx context.Context, url string) (*core.Source, error) {
	var result core.Source
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readID(tx, makeLookupKey(sourceURLPrefix, url))
		if err != nil {
			return err
		}
		if id == "" {
			return storage.ErrNotFound
		}
		found, err := readValue(tx, makeEntityKey(sourcePrefix, id), &result)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSources walks the date index newest first, filters, and returns the
// requested page plus the total match count.
func (r *SourceRepository) ListSources(ctx context.Context, filter storage.SourceFilter) ([]*core.Source, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var matched []*core.Source
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(sourceDatePrefix + ":")
		for iter.Seek(seekLast(prefix)); iter.ValidForPrefix(prefix); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				id = core.ID(val)
				return nil
			})
			if err != nil {
				return err
			}

			var source core.Source
			found, err := readValue(tx, makeEntityKey(sourcePrefix, id), &source)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if filter.Domain != "" && source.Domain != filter.Domain {
				continue
			}
			if filter.URLContains != "" && !strings.Contains(source.URL, filter.URLContains) {
				continue
			}
			matched = append(matched, &source)
		}
		return nil
	}, false)
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*core.Source{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// UpdateSourcePolicy applies the non-nil patch fields to a source.
func (r *SourceRepository) UpdateSourcePolicy(ctx context.Context, id core.ID, patch storage.PolicyPatch) (*core.Source, error) {
	var result core.Source
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(sourcePrefix, id)
		found, err := readValue(tx, key, &result)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		if patch.AllowIngest != nil {
			result.AllowIngest = *patch.AllowIngest
		}
		if patch.AllowStoreSnippet != nil {
			result.AllowStoreSnippet = *patch.AllowStoreSnippet
		}
		if patch.AllowFulltext != nil {
			result.AllowFulltext = *patch.AllowFulltext
		}
		if patch.SnippetMaxLen != nil {
			result.SnippetMaxLen = *patch.SnippetMaxLen
		}
		if patch.AccessTier != nil {
			result.AccessTier = *patch.AccessTier
		}
		result.UpdatedAt = time.Now().UTC()

		if err := setValue(tx, key, &result); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CountSources returns the total number of sources.
func (r *SourceRepository) CountSources(ctx context.Context) (int, error) {
	return countPrefix(r.backend, sourcePrefix+":")
}

// LatestSourceTime returns the insertion time of the newest source, or the
// zero time when the repository is empty.
func (r *SourceRepository) LatestSourceTime(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(sourceDatePrefix + ":")
		iter.Seek(seekLast(prefix))
		if !iter.ValidForPrefix(prefix) {
			return nil
		}

		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			id = core.ID(val)
			return nil
		})
		if err != nil {
			return err
		}

		var source core.Source
		found, err := readValue(tx, makeEntityKey(sourcePrefix, id), &source)
		if err != nil {
			return err
		}
		if found {
			latest = source.InsertedAt
		}
		return nil
	}, false)
	return latest, err
}

// countPrefix counts the keys carrying a prefix without loading values.
func countPrefix(backend *Backend, prefix string) (int, error) {
	count := 0
	err := backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
