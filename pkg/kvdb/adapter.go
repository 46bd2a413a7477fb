// Package kvdb wraps an embedded cometbft-db key-value database with the
// narrow surface the Block Stream Store and Checkpoint Store need: get,
// set, range iteration, and atomic batched writes.
package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// Store wraps a cometbft-db dbm.DB instance.
type Store struct {
	db dbm.DB
}

// Open opens (creating if absent) a goleveldb-backed store rooted at dir
// under the given name.
func Open(name, dir string) (*Store, error) {
	db, err := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-open dbm.DB, primarily for tests against
// dbm.NewMemDB().
func NewStore(db dbm.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, or nil if the key is absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.db.Get(key)
}

// Has reports whether key is present.
func (s *Store) Has(key []byte) (bool, error) {
	return s.db.Has(key)
}

// Set durably writes key/value, fsyncing before returning so a commit is
// never lost to a crash immediately after.
func (s *Store) Set(key, value []byte) error {
	return s.db.SetSync(key, value)
}

// Delete durably removes key.
func (s *Store) Delete(key []byte) error {
	return s.db.DeleteSync(key)
}

// Iterator returns an ascending iterator over [start, end).
func (s *Store) Iterator(start, end []byte) (dbm.Iterator, error) {
	return s.db.Iterator(start, end)
}

// Batch begins an atomic write batch; callers must call Write or Close.
func (s *Store) Batch() dbm.Batch {
	return s.db.NewBatch()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
