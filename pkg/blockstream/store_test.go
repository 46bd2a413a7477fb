package blockstream

import (
	"testing"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/retry"
)

func block(height uint32, hash string) chainmodel.Block {
	return chainmodel.Block{Height: chainmodel.Height(height), Hash: hash}
}

func TestAppendRangeMaxHeight(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, ok := s.MaxHeight(); ok {
		t.Fatal("expected empty store to report no max height")
	}

	batch := []chainmodel.Block{block(1, "h1"), block(2, "h2"), block(3, "h3")}
	if err := s.Append(batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	max, ok := s.MaxHeight()
	if !ok || max != 3 {
		t.Fatalf("MaxHeight() = (%d, %v), want (3, true)", max, ok)
	}

	got, err := s.Range(1, 3)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Range returned %d blocks, want 3", len(got))
	}
	for i, b := range got {
		if uint32(b.Height) != uint32(i+1) {
			t.Errorf("Range()[%d].Height = %d, want %d", i, b.Height, i+1)
		}
	}
}

func TestAppendIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Append([]chainmodel.Block{block(5, "hash-a")}); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := s.Append([]chainmodel.Block{block(5, "hash-a")}); err != nil {
		t.Fatalf("repeat Append should be a no-op, got: %v", err)
	}
}

func TestAppendRejectsHashRewrite(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Append([]chainmodel.Block{block(5, "hash-a")}); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	err = s.Append([]chainmodel.Block{block(5, "hash-b")})
	if err == nil {
		t.Fatal("expected error rewriting height 5 with a different hash")
	}
	if retry.ClassOf(err) != retry.InvariantViolation {
		t.Errorf("ClassOf(err) = %v, want InvariantViolation", retry.ClassOf(err))
	}
}

func TestRangeAfterReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append([]chainmodel.Block{block(1, "h1"), block(2, "h2")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	max, ok := reopened.MaxHeight()
	if !ok || max != 2 {
		t.Fatalf("MaxHeight() after reopen = (%d, %v), want (2, true)", max, ok)
	}
	got, err := reopened.Range(1, 2)
	if err != nil {
		t.Fatalf("Range after reopen: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Range after reopen returned %d blocks, want 2", len(got))
	}
}

func TestRangeAcrossPartitions(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	batch := []chainmodel.Block{block(99_999, "a"), block(100_000, "b"), block(100_001, "c")}
	if err := s.Append(batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Range(99_999, 100_001)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Range returned %d blocks spanning two partitions, want 3", len(got))
	}
}

func TestAppendRefusesGaps(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	err = s.Append([]chainmodel.Block{block(1, "h1"), block(3, "h3")})
	if err == nil {
		t.Fatal("expected error appending a non-contiguous batch")
	}
	if retry.ClassOf(err) != retry.InvariantViolation {
		t.Errorf("ClassOf(err) = %v, want InvariantViolation", retry.ClassOf(err))
	}

	if err := s.Append([]chainmodel.Block{block(1, "h1"), block(2, "h2")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err = s.Append([]chainmodel.Block{block(5, "h5")})
	if err == nil {
		t.Fatal("expected error leaving a gap after the stored tip")
	}
	if retry.ClassOf(err) != retry.InvariantViolation {
		t.Errorf("ClassOf(err) = %v, want InvariantViolation", retry.ClassOf(err))
	}
}
