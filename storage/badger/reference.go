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
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// ReferenceRepository implements storage.ReferenceRepository for BadgerDB.
type ReferenceRepository struct {
	backend *Backend
}

var _ storage.ReferenceRepository = (*ReferenceRepository)(nil)

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(backend *Backend) (*ReferenceRepository, error) {
	return &ReferenceRepository{backend: backend}, nil
}

// Close releases resources. ReferenceRepository has no resources to release.
func (r *ReferenceRepository) Close() error {
	return nil
}

// AddPolitician inserts a politician, generating its ID.
func (r *ReferenceRepository) AddPolitician(ctx context.Context, politician *core.Politician) (*core.Politician, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if politician.Id == "" {
			politician.Id = core.NewID()
		}
		politician.InsertedAt = time.Now().UTC()
		politician.UpdatedAt = politician.InsertedAt

		if err := setValue(tx, makeEntityKey(politicianPrefix, politician.Id), politician); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return politician, nil
}

// UpdatePolitician updates an existing politician.
func (r *ReferenceRepository) UpdatePolitician(ctx context.Context, politician *core.Politician) (*core.Politician, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(politicianPrefix, politician.Id)

		var old core.Politician
		found, err := readValue(tx, key, &old)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		politician.InsertedAt = old.InsertedAt
		politician.UpdatedAt = time.Now().UTC()

		if err := setValue(tx, key, politician); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return politician, nil
}

// GetPolitician retrieves a politician by ID.
func (r *ReferenceRepository) GetPolitician(ctx context.Context, id core.ID) (*core.Politician, error) {
	var result core.Politician
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readValue(tx, makeEntityKey(politicianPrefix, id), &result)
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

// ListPoliticians returns all politicians ordered by name.
func (r *ReferenceRepository) ListPoliticians(ctx context.Context) ([]*core.Politician, error) {
	var results []*core.Politician
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(politicianPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var politician core.Politician
			err := iter.Item().Value(func(val []byte) error {
				return storage.Unmarshal(val, &politician)
			})
			if err != nil {
				return err
			}
			results = append(results, &politician)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Politician) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// AddTopic inserts a topic, generating its ID. The slug must be unique.
func (r *ReferenceRepository) AddTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		taken, err := readID(tx, makeLookupKey(topicSlugPrefix, topic.Slug))
		if err != nil {
			return err
		}
		if taken != "" {
			return storage.ErrDuplicateKey
		}

		if topic.Id == "" {
			topic.Id = core.NewID()
		}
		topic.InsertedAt = time.Now().UTC()
		topic.UpdatedAt = topic.InsertedAt

		if err := setValue(tx, makeEntityKey(topicPrefix, topic.Id), topic); err != nil {
			return err
		}
		if err := tx.Set(makeLookupKey(topicSlugPrefix, topic.Slug), []byte(topic.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// UpdateTopic updates an existing topic, moving the slug index entry if the
// slug changed.
func (r *ReferenceRepository) UpdateTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(topicPrefix, topic.Id)

		var old core.Topic
		found, err := readValue(tx, key, &old)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		if old.Slug != topic.Slug {
			taken, err := readID(tx, makeLookupKey(topicSlugPrefix, topic.Slug))
			if err != nil {
				return err
			}
			if taken != "" && taken != topic.Id {
				return storage.ErrDuplicateKey
			}
			if err := tx.Delete(makeLookupKey(topicSlugPrefix, old.Slug)); err != nil {
				return err
			}
			if err := tx.Set(makeLookupKey(topicSlugPrefix, topic.Slug), []byte(topic.Id)); err != nil {
				return err
			}
		}

		topic.InsertedAt = old.InsertedAt
		topic.UpdatedAt = time.Now().UTC()

		if err := setValue(tx, key, topic); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// GetTopic retrieves a topic by ID.
func (r *ReferenceRepository) GetTopic(ctx context.Context, id core.ID) (*core.Topic, error) {
	var result core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readValue(tx, makeEntityKey(topicPrefix, id), &result)
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

// GetTopicBySlug retrieves a topic by its unique slug.
func (r *ReferenceRepository) GetTopicBySlug(ctx context.Context, slug string) (*core.Topic, error) {
	var result core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readID(tx, makeLookupKey(topicSlugPrefix, slug))
		if err != nil {
			return err
		}
		if id == "" {
			return storage.ErrNotFound
		}
		found, err := readValue(tx, makeEntityKey(topicPrefix, id), &result)
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

// ListTopics returns all topics ordered by name.
func (r *ReferenceRepository) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(topicPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var topic core.Topic
			err := iter.Item().Value(func(val []byte) error {
				return storage.Unmarshal(val, &topic)
			})
			if err != nil {
				return err
			}
			results = append(results, &topic)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Topic) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}
