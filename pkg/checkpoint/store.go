// Package checkpoint implements the tiny per-consumer progress store:
// each consumer's last durably-committed height, keyed by consumer
// name.
package checkpoint

import (
	"fmt"
	"sync"

	"github.com/chainswarm/indexer/pkg/kvdb"
	"github.com/chainswarm/indexer/pkg/retry"
)

// Store is the Checkpoint Store. One instance is shared by every
// consumer of a network running in the same process (each consumer uses
// its own key); the underlying database directory is locked by the
// process that opens it.
type Store struct {
	mu sync.Mutex
	db *kvdb.Store
}

// Open opens or creates the checkpoint database rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := kvdb.Open("checkpoints", dir)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns consumer's last committed height, or 0 if it has never
// committed one.
func (s *Store) Get(consumer string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get([]byte(consumer))
	if err != nil {
		return 0, retry.New(retry.StorageTransient, "checkpoint.Get", err)
	}
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 4 {
		return 0, retry.New(retry.StorageFatal, "checkpoint.Get", fmt.Errorf("corrupt checkpoint value for %q", consumer))
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), nil
}

// Set durably records consumer's last committed height before returning.
// Callers must only call Set after the corresponding batch's downstream
// writes are durable. A height below the stored one is
// refused: checkpoints are monotonically non-decreasing, and a regression
// indicates a bug, not recoverable state.
func (s *Store) Set(consumer string, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get([]byte(consumer))
	if err != nil {
		return retry.New(retry.StorageTransient, "checkpoint.Set", err)
	}
	if len(raw) == 4 {
		existing := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
		if height < existing {
			return retry.New(retry.InvariantViolation, "checkpoint.Set",
				fmt.Errorf("checkpoint for %q would regress from %d to %d", consumer, existing, height))
		}
	}

	value := []byte{byte(height >> 24), byte(height >> 16), byte(height >> 8), byte(height)}
	if err := s.db.Set([]byte(consumer), value); err != nil {
		return retry.New(retry.StorageTransient, "checkpoint.Set", err)
	}
	return nil
}

// Reset deletes consumer's checkpoint so its projection can be rebuilt
// from genesis. This is the one sanctioned way to move a checkpoint
// backwards.
func (s *Store) Reset(consumer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Delete([]byte(consumer)); err != nil {
		return retry.New(retry.StorageTransient, "checkpoint.Reset", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
