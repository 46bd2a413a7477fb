// Package transfers implements the Balance Transfers Indexer: extracts
// transfer rows from block events and bulk-inserts them.
package transfers

import (
	"context"
	"log"
	"time"

	"github.com/chainswarm/indexer/pkg/assets"
	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/networkadapter"
)

// Indexer implements runtime.Indexer for Balance Transfers.
type Indexer struct {
	network    string
	adapter    networkadapter.Adapter
	repository *Repository
	assets     assets.Dictionary
	logger     *log.Logger
}

// New builds a Balance Transfers Indexer.
func New(network string, adapter networkadapter.Adapter, repository *Repository, dictionary assets.Dictionary, logger *log.Logger) *Indexer {
	return &Indexer{network: network, adapter: adapter, repository: repository, assets: dictionary, logger: logger}
}

func (ix *Indexer) Name() string { return "transfers" }

// ProcessBatch implements runtime.Indexer.
func (ix *Indexer) ProcessBatch(ctx context.Context, blocks []chainmodel.Block) (int64, error) {
	var rows []Row
	seenAssets := make(map[[2]string]bool)

	for _, block := range blocks {
		blockRows := extractFromBlock(block, ix.network, ix.adapter, ix.logger)
		rows = append(rows, blockRows...)

		for _, row := range blockRows {
			key := [2]string{row.Asset, row.AssetContract}
			if seenAssets[key] {
				continue
			}
			seenAssets[key] = true
			firstSeenAt := time.UnixMilli(block.TimestampMs)
			if err := ix.assets.EnsureExists(ctx, ix.network, row.AssetContract, row.Asset, row.Asset, 18, row.BlockHeight, firstSeenAt); err != nil {
				return 0, err
			}
		}
	}

	if err := ix.repository.BulkInsert(ctx, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
