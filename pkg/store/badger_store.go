package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/types"
)

// Validate that BadgerStore implements the Store interface
var _ Store = &BadgerStore{}

// BadgerStore implements the Store interface using BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger log.Logger

	// InMemory keeps the database out of the filesystem. Open ignores its
	// path argument when set.
	InMemory bool
}

// NewBadgerStore creates a new BadgerDB-backed store.
func NewBadgerStore(logger log.Logger) *BadgerStore {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &BadgerStore{logger: logger.WithComponent("store")}
}

// Open opens the BadgerDB database.
func (s *BadgerStore) Open(path string) error {
	s.path = path

	opts := badger.DefaultOptions(path)
	if s.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogAdapter{logger: s.logger}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger db: %w", err)
	}
	s.db = db

	s.logger.Debug("history store opened", log.Str("path", path))
	return nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing history store", log.Str("path", s.path))
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveRun records a finished run.
func (s *BadgerStore) SaveRun(ctx context.Context, run *types.ProbeRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("probe run has no id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize probe run: %w", err)
	}

	key := MakeKey(run.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, run.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing run: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("saved probe run", log.Str(log.RunIDKey, run.ID), log.Int("attempts", len(run.Attempts)))
	return nil
}

// GetRun retrieves a run by id.
func (s *BadgerStore) GetRun(ctx context.Context, id string) (*types.ProbeRun, error) {
	var run types.ProbeRun
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		} else if err != nil {
			return fmt.Errorf("failed to get probe run: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every run, oldest first.
func (s *BadgerStore) ListRuns(ctx context.Context) ([]*types.ProbeRun, error) {
	var runs []*types.ProbeRun
	prefix := MakePrefix()

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var run types.ProbeRun
				if err := json.Unmarshal(val, &run); err != nil {
					return fmt.Errorf("failed to deserialize probe run: %w", err)
				}
				runs = append(runs, &run)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortRuns(runs)
	return runs, nil
}

// DeleteRun removes a run.
func (s *BadgerStore) DeleteRun(ctx context.Context, id string) error {
	key := MakeKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		} else if err != nil {
			return fmt.Errorf("failed to check existing run: %w", err)
		}
		return txn.Delete(key)
	})
}

// badgerLogAdapter adapts our logger to BadgerDB's logger interface.
type badgerLogAdapter struct {
	logger log.Logger
}

// Errorf implements badger.Logger.
func (l *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Error("BadgerDB: " + fmt.Sprintf(format, args...))
}

// Warningf implements badger.Logger.
func (l *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warn("BadgerDB: " + fmt.Sprintf(format, args...))
}

// Infof implements badger.Logger.
func (l *badgerLogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debug("BadgerDB: " + fmt.Sprintf(format, args...))
}

// Debugf implements badger.Logger.
func (l *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debug("BadgerDB: " + fmt.Sprintf(format, args...))
}
