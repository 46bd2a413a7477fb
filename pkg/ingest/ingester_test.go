package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/retry"
	"github.com/chainswarm/indexer/pkg/telemetry"
)

// fakeChain serves a fixed contiguous range of blocks up to its head.
type fakeChain struct {
	head      chainmodel.Height
	failFetch error
}

func (f *fakeChain) Network() string { return "testnet" }

func (f *fakeChain) FinalizedHead(context.Context) (chainmodel.Height, error) {
	return f.head, nil
}

func (f *fakeChain) FetchBlocks(_ context.Context, start chainmodel.Height, count int) ([]chainmodel.Block, error) {
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	var out []chainmodel.Block
	for h := start; h <= f.head && len(out) < count; h++ {
		out = append(out, chainmodel.Block{Height: h, Hash: fmt.Sprintf("hash-%d", h)})
	}
	return out, nil
}

func TestRunAppendsUpToFinalizedHead(t *testing.T) {
	store, err := blockstream.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blockstream.Open: %v", err)
	}
	defer store.Close()

	chain := &fakeChain{head: 9}
	ing := New(chain, store, Config{Network: "testnet", BatchSize: 4, PollInterval: 10 * time.Millisecond}, telemetry.New("Ingester", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := ing.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	max, ok := store.MaxHeight()
	if !ok || max != 9 {
		t.Fatalf("MaxHeight() = (%d, %v), want (9, true)", max, ok)
	}
	blocks, err := store.Range(0, 9)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(blocks) != 10 {
		t.Fatalf("stored %d blocks, want 10 (contiguous from genesis)", len(blocks))
	}
}

func TestRunResumesAboveStoredTip(t *testing.T) {
	dir := t.TempDir()
	store, err := blockstream.Open(dir)
	if err != nil {
		t.Fatalf("blockstream.Open: %v", err)
	}
	defer store.Close()

	chain := &fakeChain{head: 3}
	tc := telemetry.New("Ingester", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	if err := New(chain, store, Config{Network: "testnet", PollInterval: 10 * time.Millisecond}, tc).Run(ctx); err != nil {
		cancel()
		t.Fatalf("first Run: %v", err)
	}
	cancel()

	// The head advances; a second run appends only the new heights.
	chain.head = 6
	ctx, cancel = context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := New(chain, store, Config{Network: "testnet", PollInterval: 10 * time.Millisecond}, tc).Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	max, ok := store.MaxHeight()
	if !ok || max != 6 {
		t.Fatalf("MaxHeight() = (%d, %v), want (6, true)", max, ok)
	}
}

func TestRunHaltsOnMalformedBlock(t *testing.T) {
	store, err := blockstream.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blockstream.Open: %v", err)
	}
	defer store.Close()

	chain := &fakeChain{head: 5, failFetch: retry.New(retry.ChainMalformed, "fetch", errors.New("bad event shape"))}
	ing := New(chain, store, Config{Network: "testnet", PollInterval: 10 * time.Millisecond}, telemetry.New("Ingester", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err = ing.Run(ctx)
	if err == nil {
		t.Fatal("expected Run to halt on a fatal fetch classification")
	}
	if retry.ClassOf(err) != retry.ChainMalformed {
		t.Errorf("ClassOf(err) = %v, want ChainMalformed", retry.ClassOf(err))
	}
}
