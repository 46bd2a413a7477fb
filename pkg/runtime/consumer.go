// Package runtime implements the generic consumer loop shared by every
// downstream indexer: read checkpoint, fetch a batch, process it, commit
// the checkpoint, report progress, retry or halt on failure. Cancellation
// is context-driven; the loop has a single caller and no pause/resume
// states.
package runtime

import (
	"context"
	"time"

	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/checkpoint"
	"github.com/chainswarm/indexer/pkg/retry"
	"github.com/chainswarm/indexer/pkg/telemetry"
)

// Config holds a consumer's tunables.
type Config struct {
	Network string

	// BatchSize is the maximum number of blocks fetched per iteration.
	BatchSize uint32

	// PollInterval is how long to sleep when caught up to the stream tip.
	PollInterval time.Duration

	// CatchUpThreshold is how far behind tip triggers a one-time
	// "catching up" decision log on startup.
	CatchUpThreshold uint32

	// MilestoneInterval is the block-count cadence for progress milestones.
	MilestoneInterval uint32

	// RetryPolicy governs backoff for classified-retryable failures.
	RetryPolicy retry.Policy
}

// DefaultConfig returns conservative defaults: short poll, few-second
// backoff.
func DefaultConfig(network string) Config {
	return Config{
		Network:           network,
		BatchSize:         200,
		PollInterval:      3 * time.Second,
		CatchUpThreshold:  1000,
		MilestoneInterval: 1000,
		RetryPolicy:       retry.DefaultPolicy(),
	}
}

// Consumer drives one Indexer against one network's block stream.
type Consumer struct {
	indexer     Indexer
	blocks      *blockstream.Store
	checkpoints *checkpoint.Store
	cfg         Config
	tc          *telemetry.Context
}

// New builds a Consumer. tc's Metrics may be nil in tests.
func New(indexer Indexer, blocks *blockstream.Store, checkpoints *checkpoint.Store, cfg Config, tc *telemetry.Context) *Consumer {
	return &Consumer{indexer: indexer, blocks: blocks, checkpoints: checkpoints, cfg: cfg, tc: tc}
}

// Run executes the consumer loop until ctx is cancelled or a fatal error
// halts it. It returns nil on a clean cancellation and the fatal error
// otherwise.
func (c *Consumer) Run(ctx context.Context) error {
	name := c.indexer.Name()
	milestones := telemetry.NewMilestoneTracker(c.cfg.MilestoneInterval)
	failures := retry.NewConsecutiveFailureTracker(name, c.tc.Logger)

	h, err := c.checkpoints.Get(name)
	if err != nil {
		return err
	}
	if h == 0 {
		c.tc.Decision("%s: start from genesis because no checkpoint", name)
	} else {
		c.tc.Decision("%s: resume from checkpoint %d", name, h)
	}

	loggedCatchUp := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		tip, ok := c.blocks.MaxHeight()
		if !ok || h >= tip {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.PollInterval):
			}
			continue
		}

		if behind := tip - h; behind >= c.cfg.CatchUpThreshold && !loggedCatchUp {
			c.tc.Decision("%s: catching up, %d blocks behind tip", name, behind)
			loggedCatchUp = true
		}

		end := h + c.cfg.BatchSize
		if end > tip {
			end = tip
		}
		start := h + 1

		err := c.runBatch(ctx, name, start, end, milestones, failures)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.tc.Errorf("%s: halting on fatal error processing [%d,%d]: kind=%s op=%s: %v",
				name, start, end, retry.ClassOf(err), name, err)
			if c.tc.Metrics != nil {
				c.tc.Metrics.BatchFailures.WithLabelValues(name, c.cfg.Network, retry.ClassOf(err).String()).Inc()
			}
			return err
		}
		h = end
	}
}

func (c *Consumer) runBatch(ctx context.Context, name string, start, end uint32, milestones *telemetry.MilestoneTracker, failures *retry.ConsecutiveFailureTracker) error {
	return retry.Do(ctx, c.cfg.RetryPolicy, failures, func() error {
		began := time.Now()

		blocks, err := c.blocks.Range(start, end)
		if err != nil {
			return err
		}
		items, err := c.indexer.ProcessBatch(ctx, blocks)
		if err != nil {
			return err
		}
		if err := c.checkpoints.Set(name, end); err != nil {
			return err
		}

		if c.tc.Metrics != nil {
			c.tc.Metrics.CheckpointHeight.WithLabelValues(name, c.cfg.Network).Set(float64(end))
			c.tc.Metrics.BatchDuration.WithLabelValues(name, c.cfg.Network).Observe(time.Since(began).Seconds())
			c.tc.Metrics.ItemsProcessed.WithLabelValues(name, c.cfg.Network).Add(float64(items))
		}

		if msg, crossed := milestones.Record(start, end, items); crossed {
			c.tc.Logger.Println(msg)
		}
		return nil
	})
}
