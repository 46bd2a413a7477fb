// Package blockstream implements the canonical, append-only, height-
// partitioned log of block records every consumer reads from. It is
// built on pkg/kvdb (cometbft-db) and pkg/partition.
package blockstream

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/kvdb"
	"github.com/chainswarm/indexer/pkg/partition"
	"github.com/chainswarm/indexer/pkg/retry"
)

const metaMaxHeightKey = "max_height"

// Store is the append-only Block Stream Store. One instance serves one
// network.
type Store struct {
	baseDir string

	mu         sync.Mutex
	partitions map[uint32]*kvdb.Store
	meta       *kvdb.Store
	maxHeight  uint32
	hasBlocks  bool
}

// Open opens or creates the store rooted at baseDir, seeding MaxHeight
// from durable metadata.
func Open(baseDir string) (*Store, error) {
	meta, err := kvdb.Open("meta", baseDir)
	if err != nil {
		return nil, fmt.Errorf("open meta store: %w", err)
	}
	s := &Store{
		baseDir:    baseDir,
		partitions: make(map[uint32]*kvdb.Store),
		meta:       meta,
	}
	raw, err := meta.Get([]byte(metaMaxHeightKey))
	if err != nil {
		return nil, fmt.Errorf("read max height: %w", err)
	}
	if raw != nil {
		h, ok := decodeHeightBytes(raw)
		if !ok {
			return nil, fmt.Errorf("corrupt max height metadata")
		}
		s.maxHeight = h
		s.hasBlocks = true
	}
	return s, nil
}

func partitionDir(baseDir string, p uint32) string {
	return filepath.Join(baseDir, fmt.Sprintf("p%08d", p))
}

func (s *Store) partitionStore(p uint32) (*kvdb.Store, error) {
	if db, ok := s.partitions[p]; ok {
		return db, nil
	}
	db, err := kvdb.Open("blocks", partitionDir(s.baseDir, p))
	if err != nil {
		return nil, fmt.Errorf("open partition %d: %w", p, err)
	}
	s.partitions[p] = db
	return db, nil
}

// existingPartitionStore returns the store for partition p if p has ever
// been written, opening it on demand after a restart. It never creates a
// partition directory.
func (s *Store) existingPartitionStore(p uint32) (*kvdb.Store, bool, error) {
	if db, ok := s.partitions[p]; ok {
		return db, true, nil
	}
	if _, err := os.Stat(partitionDir(s.baseDir, p)); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat partition %d: %w", p, err)
	}
	db, err := s.partitionStore(p)
	if err != nil {
		return nil, false, err
	}
	return db, true, nil
}

// Append atomically writes batch to its partition(s). Appending a block
// at a height already stored with the same hash is a no-op. Appending a
// block at a height already stored with a different hash is refused with
// an InvariantViolation rather than silently superseding, so reorgs
// surface instead of being masked.
func (s *Store) Append(batch []chainmodel.Block) error {
	if len(batch) == 0 {
		return nil
	}
	for i := 1; i < len(batch); i++ {
		if uint32(batch[i].Height) != uint32(batch[i-1].Height)+1 {
			return retry.New(retry.InvariantViolation, "blockstream.Append",
				fmt.Errorf("batch heights not contiguous: %d follows %d", batch[i].Height, batch[i-1].Height))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A gap between the stored tip and the batch would break the
	// contiguous-from-genesis guarantee every consumer ranges over.
	if s.hasBlocks && uint32(batch[0].Height) > s.maxHeight+1 {
		return retry.New(retry.InvariantViolation, "blockstream.Append",
			fmt.Errorf("batch starts at %d, leaving a gap after stored tip %d", batch[0].Height, s.maxHeight))
	}

	byPartition := make(map[uint32][]chainmodel.Block)
	for _, b := range batch {
		p := partition.Of(uint32(b.Height))
		byPartition[p] = append(byPartition[p], b)
	}

	highest := s.maxHeight
	sawBlocks := s.hasBlocks
	for p, blocks := range byPartition {
		db, err := s.partitionStore(p)
		if err != nil {
			return retry.New(retry.StorageFatal, "blockstream.Append", err)
		}
		if err := s.appendToPartition(db, blocks); err != nil {
			return err
		}
		for _, b := range blocks {
			h := uint32(b.Height)
			if !sawBlocks || h > highest {
				highest = h
				sawBlocks = true
			}
		}
	}

	if sawBlocks && (!s.hasBlocks || highest > s.maxHeight) {
		if err := s.meta.Set([]byte(metaMaxHeightKey), encodeHeightBytes(highest)); err != nil {
			return retry.New(retry.StorageTransient, "blockstream.Append:commit-max-height", err)
		}
		s.maxHeight = highest
		s.hasBlocks = true
	}
	return nil
}

func (s *Store) appendToPartition(db *kvdb.Store, blocks []chainmodel.Block) error {
	batch := db.Batch()
	defer batch.Close()

	for _, b := range blocks {
		key := heightKey(uint32(b.Height))
		existing, err := db.Get(key)
		if err != nil {
			return retry.New(retry.StorageTransient, "blockstream.Append:read-existing", err)
		}
		if existing != nil {
			prior, err := decodeBlock(existing)
			if err != nil {
				return retry.New(retry.StorageFatal, "blockstream.Append:decode-existing", err)
			}
			if prior.Hash == b.Hash {
				continue // identical append, idempotent no-op
			}
			return retry.New(retry.InvariantViolation, "blockstream.Append",
				fmt.Errorf("height %d already stored with hash %s, refusing rewrite with hash %s", b.Height, prior.Hash, b.Hash))
		}
		data, err := encodeBlock(b)
		if err != nil {
			return retry.New(retry.StorageFatal, "blockstream.Append:encode", err)
		}
		if err := batch.Set(key, data); err != nil {
			return retry.New(retry.StorageTransient, "blockstream.Append:batch-set", err)
		}
	}
	if err := batch.WriteSync(); err != nil {
		return retry.New(retry.StorageTransient, "blockstream.Append:write", err)
	}
	return nil
}

// Range returns the contiguous blocks in [start, end], sorted by height.
func (s *Store) Range(start, end uint32) ([]chainmodel.Block, error) {
	if end < start {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []chainmodel.Block
	for _, p := range partition.Span(start, end) {
		db, ok, err := s.existingPartitionStore(p)
		if err != nil {
			return nil, retry.New(retry.StorageFatal, "blockstream.Range", err)
		}
		if !ok {
			continue // partition never written, nothing to range over
		}
		blocks, err := s.rangePartition(db, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks...)
	}
	return out, nil
}

func (s *Store) rangePartition(db *kvdb.Store, start, end uint32) ([]chainmodel.Block, error) {
	lowKey := heightKey(start)
	// Iterator end bound is exclusive; end+1 would overflow at max uint32,
	// in practice block heights never approach that, so this stays safe.
	highKey := heightKey(end + 1)

	it, err := db.Iterator(lowKey, highKey)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "blockstream.Range:iterator", err)
	}
	defer it.Close()

	var out []chainmodel.Block
	for ; it.Valid(); it.Next() {
		b, err := decodeBlock(it.Value())
		if err != nil {
			return nil, retry.New(retry.StorageFatal, "blockstream.Range:decode", err)
		}
		out = append(out, b)
	}
	if err := it.Error(); err != nil {
		return nil, retry.New(retry.StorageTransient, "blockstream.Range:iterator", err)
	}
	return out, nil
}

// MaxHeight returns the highest stored height, and false if the store is
// empty.
func (s *Store) MaxHeight() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxHeight, s.hasBlocks
}

// Close releases all partition and metadata database handles.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, db := range s.partitions {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.meta.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func encodeHeightBytes(h uint32) []byte {
	return []byte{byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h)}
}

func decodeHeightBytes(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), true
}
