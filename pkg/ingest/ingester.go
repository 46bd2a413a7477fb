// Package ingest implements the Block Stream Ingester: it polls one
// network's finalized head, fetches new blocks through the chain client,
// and appends them to the Block Stream Store for every downstream
// consumer to read from.
package ingest

import (
	"context"
	"time"

	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/retry"
	"github.com/chainswarm/indexer/pkg/telemetry"
)

// Config holds the ingester's tunables.
type Config struct {
	Network string

	// BatchSize is the maximum number of blocks fetched per poll.
	BatchSize int

	// PollInterval is how long to sleep when caught up to the finalized
	// head, or after a transient fetch failure.
	PollInterval time.Duration

	// MilestoneInterval is the block-count cadence for progress milestones.
	MilestoneInterval uint32
}

// Ingester drives one network's chain client into its block stream.
type Ingester struct {
	client chainclient.ChainClient
	store  *blockstream.Store
	cfg    Config
	tc     *telemetry.Context
}

// New builds an Ingester.
func New(client chainclient.ChainClient, store *blockstream.Store, cfg Config, tc *telemetry.Context) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Ingester{client: client, store: store, cfg: cfg, tc: tc}
}

// Run polls the finalized head and appends new blocks until ctx is
// cancelled or a fatal error halts it. Transient failures are logged and
// retried on the next poll; fatal classifications (ChainMalformed, a
// store invariant violation) are returned so the process can exit for
// operator intervention.
func (i *Ingester) Run(ctx context.Context) error {
	milestones := telemetry.NewMilestoneTracker(i.cfg.MilestoneInterval)

	if h, ok := i.store.MaxHeight(); ok {
		i.tc.Decision("ingester: resume appending above stored height %d", h)
	} else {
		i.tc.Decision("ingester: start from genesis, stream is empty")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		head, err := i.client.FinalizedHead(ctx)
		if err != nil {
			if !retry.ClassOf(err).Retryable() {
				return err
			}
			i.tc.Errorf("fetch finalized head: %v", err)
			if !sleepOrDone(ctx, i.cfg.PollInterval) {
				return nil
			}
			continue
		}

		next := chainmodel.Height(0)
		if h, ok := i.store.MaxHeight(); ok {
			next = chainmodel.Height(h) + 1
		}
		if next > head {
			if !sleepOrDone(ctx, i.cfg.PollInterval) {
				return nil
			}
			continue
		}

		blocks, err := i.client.FetchBlocks(ctx, next, i.cfg.BatchSize)
		if err != nil {
			// ChainMalformed is fatal for the affected height: halt for
			// operator intervention rather than silently skipping it.
			if !retry.ClassOf(err).Retryable() {
				return err
			}
			i.tc.Errorf("fetch blocks from %d: %v", next, err)
			if !sleepOrDone(ctx, i.cfg.PollInterval) {
				return nil
			}
			continue
		}
		if len(blocks) == 0 {
			if !sleepOrDone(ctx, i.cfg.PollInterval) {
				return nil
			}
			continue
		}

		if err := i.store.Append(blocks); err != nil {
			if !retry.ClassOf(err).Retryable() {
				return err
			}
			i.tc.Errorf("append blocks from %d: %v", next, err)
			if !sleepOrDone(ctx, i.cfg.PollInterval) {
				return nil
			}
			continue
		}

		first, last := blocks[0].Height, blocks[len(blocks)-1].Height
		if i.tc.Metrics != nil {
			i.tc.Metrics.CheckpointHeight.WithLabelValues("ingester", i.cfg.Network).Set(float64(last))
			i.tc.Metrics.ItemsProcessed.WithLabelValues("ingester", i.cfg.Network).Add(float64(len(blocks)))
		}
		if msg, crossed := milestones.Record(uint32(first), uint32(last), int64(len(blocks))); crossed {
			i.tc.Logger.Println(msg)
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
