package transfers

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/retry"
)

const columnsPerRow = 11

// Repository bulk-writes transfer rows to Postgres.
type Repository struct {
	db *database.Client
}

// NewRepository builds a Repository.
func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

// BulkInsert writes rows in a single statement, keyed by
// (extrinsic_id, event_idx, asset) with a monotonically increasing
// version. A conflicting key is superseded, never duplicated.
func (r *Repository) BulkInsert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO transfers (extrinsic_id, event_idx, network, block_height, block_time_ms,
		from_address, to_address, asset, asset_contract, amount, fee, version)
		VALUES `)

	args := make([]interface{}, 0, len(rows)*columnsPerRow)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i*columnsPerRow + 1
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, 1)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args, row.ExtrinsicID, row.EventIdx, row.Network, row.BlockHeight, row.BlockTimeMs,
			row.From, row.To, row.Asset, row.AssetContract, row.Amount, row.Fee)
	}

	sb.WriteString(`
		ON CONFLICT (extrinsic_id, event_idx, asset) DO UPDATE SET
			network = excluded.network,
			block_height = excluded.block_height,
			block_time_ms = excluded.block_time_ms,
			from_address = excluded.from_address,
			to_address = excluded.to_address,
			asset_contract = excluded.asset_contract,
			amount = excluded.amount,
			fee = excluded.fee,
			version = transfers.version + 1`)

	if _, err := r.db.DB().ExecContext(ctx, sb.String(), args...); err != nil {
		return retry.New(retry.StorageTransient, "transfers.BulkInsert", err)
	}
	return nil
}
