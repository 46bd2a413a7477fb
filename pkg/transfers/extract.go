package transfers

import (
	"log"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/networkadapter"
)

// extractFromBlock walks every event in block and returns the transfer
// rows it yields, using adapter to recognize both the generic
// Balances.Transfer event and per-network synthetic transfers.
func extractFromBlock(block chainmodel.Block, network string, adapter networkadapter.Adapter, logger *log.Logger) []Row {
	var rows []Row
	for _, event := range block.Events {
		for _, t := range adapter.ExtractTransfers(event) {
			contract := t.AssetContract
			if contract == "" && t.Asset != "native" {
				logger.Printf("WARN transfer of unknown-contract asset %q in event %s, recording with empty contract", t.Asset, event.ID)
			}
			rows = append(rows, Row{
				ExtrinsicID:   event.ExtrinsicID,
				EventIdx:      event.Index,
				Network:       network,
				BlockHeight:   uint32(block.Height),
				BlockTimeMs:   block.TimestampMs,
				From:          t.From,
				To:            t.To,
				Asset:         t.Asset,
				AssetContract: contract,
				Amount:        t.Amount,
				Fee:           t.Fee,
			})
		}
	}
	return rows
}
