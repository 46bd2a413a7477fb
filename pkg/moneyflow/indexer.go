package moneyflow

import (
	"context"
	"log"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/networkadapter"
)

// AnalyticsRunner performs the periodic community/PageRank/embedding
// recomputation. A failed run is best-effort: it
// is logged and retried on the next cadence, leaving prior results valid.
type AnalyticsRunner interface {
	Run(ctx context.Context, network string) error
}

// Indexer implements runtime.Indexer for Money Flow.
type Indexer struct {
	network    string
	adapter    networkadapter.Adapter
	repository *Repository
	analytics  AnalyticsRunner
	logger     *log.Logger

	// analyticsIntervalBlocks is the block-count cadence for periodic
	// analytics. A block count rather than a wall-clock timer keeps
	// recomputation deterministic against a fixed block sequence.
	analyticsIntervalBlocks uint32
	blocksSinceAnalytics    uint32
	seededGenesisLabels     bool
}

// New builds a Money Flow Indexer. analyticsIntervalBlocks defaults to
// 2000 when zero.
func New(network string, adapter networkadapter.Adapter, repository *Repository, analytics AnalyticsRunner, analyticsIntervalBlocks uint32, logger *log.Logger) *Indexer {
	if analyticsIntervalBlocks == 0 {
		analyticsIntervalBlocks = 2000
	}
	return &Indexer{
		network:                 network,
		adapter:                 adapter,
		repository:              repository,
		analytics:               analytics,
		analyticsIntervalBlocks: analyticsIntervalBlocks,
		logger:                  logger,
	}
}

func (ix *Indexer) Name() string { return "money-flow" }

// ProcessBatch implements runtime.Indexer.
func (ix *Indexer) ProcessBatch(ctx context.Context, blocks []chainmodel.Block) (int64, error) {
	var items int64

	for _, block := range blocks {
		if block.Height == 0 && !ix.seededGenesisLabels {
			if err := ix.seedGenesisLabels(ctx); err != nil {
				return items, err
			}
			ix.seededGenesisLabels = true
		}

		for _, event := range block.Events {
			for _, t := range ix.adapter.ExtractTransfers(event) {
				n, err := ix.applyTransfer(ctx, t, block)
				if err != nil {
					return items, err
				}
				items += n
			}
			for _, label := range ix.adapter.ExtractLabels(event) {
				if err := ix.repository.UpsertLabel(ctx, ix.network, label.Address, label.Label); err != nil {
					return items, err
				}
				items++
			}
			for _, rel := range ix.adapter.ExtractRelations(event) {
				if err := ix.repository.UpsertRelation(ctx, ix.network, rel.From, rel.To, rel.Kind); err != nil {
					return items, err
				}
				items++
			}
		}

		ix.blocksSinceAnalytics++
	}

	if ix.blocksSinceAnalytics >= ix.analyticsIntervalBlocks && ix.analytics != nil {
		if err := ix.analytics.Run(ctx, ix.network); err != nil {
			// Best-effort: log and move on. Per-block mutations above
			// already committed, and prior analytics results stay valid
			// until the next cadence succeeds.
			ix.logger.Printf("ERROR periodic analytics run failed, will retry next cadence: %v", err)
		}
		ix.blocksSinceAnalytics = 0
	}

	return items, nil
}

func (ix *Indexer) seedGenesisLabels(ctx context.Context) error {
	labeler, ok := ix.adapter.(networkadapter.GenesisLabeler)
	if !ok {
		return nil
	}
	for _, label := range labeler.GenesisLabels() {
		if err := ix.repository.UpsertLabel(ctx, ix.network, label.Address, label.Label); err != nil {
			return err
		}
	}
	return nil
}

// applyTransfer applies one transfer fact's node/edge mutations: upsert
// nodes, upsert/increment the edge. Self-transfers update node counters
// only; no edge is created.
func (ix *Indexer) applyTransfer(ctx context.Context, t networkadapter.Transfer, block chainmodel.Block) (int64, error) {
	if t.From == "" || t.To == "" {
		return 0, nil
	}
	height := uint32(block.Height)
	var items int64

	if t.From == t.To {
		if _, err := ix.repository.TouchNode(ctx, ix.network, t.From, block.TimestampMs, height); err != nil {
			return items, err
		}
		if err := ix.repository.IncrementTransferCount(ctx, ix.network, t.From); err != nil {
			return items, err
		}
		return 1, nil
	}

	if _, err := ix.repository.TouchNode(ctx, ix.network, t.From, block.TimestampMs, height); err != nil {
		return items, err
	}
	if _, err := ix.repository.TouchNode(ctx, ix.network, t.To, block.TimestampMs, height); err != nil {
		return items, err
	}
	if err := ix.repository.IncrementTransferCount(ctx, ix.network, t.From); err != nil {
		return items, err
	}
	if err := ix.repository.IncrementTransferCount(ctx, ix.network, t.To); err != nil {
		return items, err
	}

	touch, err := ix.repository.UpsertEdge(ctx, ix.network, t.From, t.To, t.Asset, t.Amount, block.TimestampMs, height)
	if err != nil {
		return items, err
	}
	items++
	if touch.NewPair {
		if err := ix.repository.IncrementNeighborCount(ctx, ix.network, t.From); err != nil {
			return items, err
		}
		if err := ix.repository.IncrementNeighborCount(ctx, ix.network, t.To); err != nil {
			return items, err
		}
	}
	if touch.NewDirectedPair {
		if err := ix.repository.IncrementUniqueReceivers(ctx, ix.network, t.From); err != nil {
			return items, err
		}
		if err := ix.repository.IncrementUniqueSenders(ctx, ix.network, t.To); err != nil {
			return items, err
		}
	}
	return items, nil
}
