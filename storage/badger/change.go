package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// StanceChangeRepository implements storage.StanceChangeRepository for
// BadgerDB.
type StanceChangeRepository struct {
	backend *Backend
}

var _ storage.StanceChangeRepository = (*StanceChangeRepository)(nil)

// NewStanceChangeRepository creates a new StanceChangeRepository.
func NewStanceChangeRepository(backend *Backend) (*StanceChangeRepository, error) {
	return &StanceChangeRepository{backend: backend}, nil
}

// Close releases resources. StanceChangeRepository has no resources to release.
func (r *StanceChangeRepository) Close() error {
	return nil
}

// AddStanceChange inserts a stance change, generating its ID and insertion
// time.
func (r *StanceChangeRepository) AddStanceChange(ctx context.Context, change *core.StanceChange) (*core.StanceChange, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if change.Id == "" {
			change.Id = core.NewID()
		}
		change.InsertedAt = time.Now().UTC()

		if err := setValue(tx, makeEntityKey(changePrefix, change.Id), change); err != nil {
			return err
		}

		dateKey := makeDateKey(changeDatePrefix, change.InsertedAt, change.Id)
		if err := tx.Set(dateKey, []byte(change.Id)); err != nil {
			return err
		}

		pairKey := makePairDateKey(changePairPrefix, change.PoliticianId, change.TopicId, change.InsertedAt, change.Id)
		if err := tx.Set(pairKey, []byte(change.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return change, nil
}

// ListStanceChanges returns changes newest first. When both IDs are set the
// pair index drives the scan; otherwise the global date index is walked and
// rows are filtered after loading.
func (r *StanceChangeRepository) ListStanceChanges(ctx context.Context, politicianID, topicID core.ID) ([]*core.StanceChange, error) {
	var prefix []byte
	if politicianID != "" && topicID != "" {
		prefix = makePairScanPrefix(changePairPrefix, politicianID, topicID)
	} else {
		prefix = []byte(changeDatePrefix + ":")
	}

	var results []*core.StanceChange
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekLast(prefix)); iter.ValidForPrefix(prefix); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				id = core.ID(val)
				return nil
			})
			if err != nil {
				return err
			}

			var change core.StanceChange
			found, err := readValue(tx, makeEntityKey(changePrefix, id), &change)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if politicianID != "" && change.PoliticianId != politicianID {
				continue
			}
			if topicID != "" && change.TopicId != topicID {
				continue
			}
			results = append(results, &change)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CountStanceChanges returns the total number of stance changes.
func (r *StanceChangeRepository) CountStanceChanges(ctx context.Context) (int, error) {
	return countPrefix(r.backend, changePrefix+":")
}
