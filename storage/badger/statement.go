package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

const defaultStatementLimit = 50

// StatementRepository implements storage.StatementRepository for BadgerDB.
// Statements are append-only: rows are written once and never touched again.
type StatementRepository struct {
	backend *Backend
}

var _ storage.StatementRepository = (*StatementRepository)(nil)

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(backend *Backend) (*StatementRepository, error) {
	return &StatementRepository{backend: backend}, nil
}

// Close releases resources. StatementRepository has no resources to release.
func (r *StatementRepository) Close() error {
	return nil
}

// AddStatement inserts a statement, generating its ID and insertion time,
// and maintains both the global and the per-(politician, topic) date index.
func (r *StatementRepository) AddStatement(ctx context.Context, statement *core.Statement) (*core.Statement, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if statement.Id == "" {
			statement.Id = core.NewID()
		}
		statement.InsertedAt = time.Now().UTC()

		if err := setValue(tx, makeEntityKey(statementPrefix, statement.Id), statement); err != nil {
			return err
		}

		dateKey := makeDateKey(statementDatePrefix, statement.InsertedAt, statement.Id)
		if err := tx.Set(dateKey, []byte(statement.Id)); err != nil {
			return err
		}

		pairKey := makePairDateKey(statementPairPrefix, statement.PoliticianId, statement.TopicId, statement.InsertedAt, statement.Id)
		if err := tx.Set(pairKey, []byte(statement.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return statement, nil
}

// GetStatement retrieves a statement by ID.
func (r *StatementRepository) GetStatement(ctx context.Context, id core.ID) (*core.Statement, error) {
	var result core.Statement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readValue(tx, makeEntityKey(statementPrefix, id), &result)
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

// LatestStatement walks the pair index backwards and returns the newest
// statement for the (politician, topic) pair whose ID differs from exclude.
func (r *StatementRepository) LatestStatement(ctx context.Context, politicianID, topicID, exclude core.ID) (*core.Statement, error) {
	var result *core.Statement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makePairScanPrefix(statementPairPrefix, politicianID, topicID)
		for iter.Seek(seekLast(prefix)); iter.ValidForPrefix(prefix); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				id = core.ID(val)
				return nil
			})
			if err != nil {
				return err
			}
			if id == exclude {
				continue
			}

			var statement core.Statement
			found, err := readValue(tx, makeEntityKey(statementPrefix, id), &statement)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			result = &statement
			return nil
		}
		return storage.ErrNotFound
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListStatements returns statements newest first. When both politician and
// topic are set the pair index drives the scan; otherwise the global date
// index is walked and rows are filtered after loading.
func (r *StatementRepository) ListStatements(ctx context.Context, filter storage.StatementFilter) ([]*core.Statement, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = defaultStatementLimit
	}

	var prefix []byte
	if filter.PoliticianId != "" && filter.TopicId != "" {
		prefix = makePairScanPrefix(statementPairPrefix, filter.PoliticianId, filter.TopicId)
	} else {
		prefix = []byte(statementDatePrefix + ":")
	}

	var results []*core.Statement
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekLast(prefix)); iter.ValidForPrefix(prefix) && len(results) < limit; iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				id = core.ID(val)
				return nil
			})
			if err != nil {
				return err
			}

			var statement core.Statement
			found, err := readValue(tx, makeEntityKey(statementPrefix, id), &statement)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if filter.PoliticianId != "" && statement.PoliticianId != filter.PoliticianId {
				continue
			}
			if filter.TopicId != "" && statement.TopicId != filter.TopicId {
				continue
			}
			results = append(results, &statement)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CountStatements returns the total number of statements.
func (r *StatementRepository) CountStatements(ctx context.Context) (int, error) {
	return countPrefix(r.backend, statementPrefix+":")
}

// LatestStatementTime returns the insertion time of the newest statement, or
// the zero time when there are none.
func (r *StatementRepository) LatestStatementTime(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(statementDatePrefix + ":")
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

		var statement core.Statement
		found, err := readValue(tx, makeEntityKey(statementPrefix, id), &statement)
		if err != nil {
			return err
		}
		if found {
			latest = statement.InsertedAt
		}
		return nil
	}, false)
	return latest, err
}
