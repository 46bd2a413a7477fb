package balanceseries

import (
	"context"
	"database/sql"

	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/retry"
)

// Repository persists Balance Series records and the small pending-period
// accumulator that lets an in-progress period survive a consumer
// restart.
type Repository struct {
	db *database.Client
}

// NewRepository builds a Repository.
func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

// Upsert writes rec, keyed by (network, period_start, address, asset).
func (r *Repository) Upsert(ctx context.Context, rec Record) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO balance_series (network, period_start_ms, address, asset, period_end_ms, block_height,
			free, reserved, staked, total, delta_free, delta_reserved, delta_staked, delta_total, percent_change, written_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (network, period_start_ms, address, asset) DO UPDATE SET
			period_end_ms = excluded.period_end_ms,
			block_height = excluded.block_height,
			free = excluded.free, reserved = excluded.reserved, staked = excluded.staked, total = excluded.total,
			delta_free = excluded.delta_free, delta_reserved = excluded.delta_reserved,
			delta_staked = excluded.delta_staked, delta_total = excluded.delta_total,
			percent_change = excluded.percent_change, written_at = excluded.written_at
	`, rec.Network, rec.PeriodStartMs, rec.Address, rec.Asset, rec.PeriodEndMs, rec.BlockHeight,
		rec.Free, rec.Reserved, rec.Staked, rec.Total,
		rec.DeltaFree, rec.DeltaReserved, rec.DeltaStaked, rec.DeltaTotal, rec.PercentChange, rec.WrittenAt)
	if err != nil {
		return retry.New(retry.StorageTransient, "balanceseries.Upsert", err)
	}
	return nil
}

// LatestBefore returns the most recent record for (network, address, asset)
// with period_start_ms < beforePeriodStart, used to compute deltas against
// the prior period.
func (r *Repository) LatestBefore(ctx context.Context, network, address, asset string, beforePeriodStart int64) (Record, bool, error) {
	row := r.db.DB().QueryRowContext(ctx, `
		SELECT network, period_start_ms, address, asset, period_end_ms, block_height,
			free, reserved, staked, total, delta_free, delta_reserved, delta_staked, delta_total, percent_change, written_at
		FROM balance_series
		WHERE network = $1 AND address = $2 AND asset = $3 AND period_start_ms < $4
		ORDER BY period_start_ms DESC LIMIT 1
	`, network, address, asset, beforePeriodStart)

	var rec Record
	err := row.Scan(&rec.Network, &rec.PeriodStartMs, &rec.Address, &rec.Asset, &rec.PeriodEndMs, &rec.BlockHeight,
		&rec.Free, &rec.Reserved, &rec.Staked, &rec.Total,
		&rec.DeltaFree, &rec.DeltaReserved, &rec.DeltaStaked, &rec.DeltaTotal, &rec.PercentChange, &rec.WrittenAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, retry.New(retry.StorageTransient, "balanceseries.LatestBefore", err)
	}
	return rec, true, nil
}

// MarkDirty records that address's balance may have changed during the
// still-open period (network, periodStartMs) at block height. Repeat
// marks for the same key only advance last_height, so the accumulator
// remembers the latest in-period block that touched each address even
// across a consumer restart.
func (r *Repository) MarkDirty(ctx context.Context, network string, periodStartMs int64, address string, height uint32) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO balance_series_pending (network, period_start_ms, address, last_height)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network, period_start_ms, address) DO UPDATE SET
			last_height = GREATEST(balance_series_pending.last_height, excluded.last_height)
	`, network, periodStartMs, address, height)
	if err != nil {
		return retry.New(retry.StorageTransient, "balanceseries.MarkDirty", err)
	}
	return nil
}

// OpenPeriod is one still-open period with dirty addresses: its start and
// the highest block height that dirtied it.
type OpenPeriod struct {
	PeriodStartMs int64
	LastHeight    uint32
}

// OpenPeriods returns every pending period older than beforePeriodStartMs,
// ascending. These are periods whose end the consumer has crossed (or is
// about to cross) and which must be materialized before their accumulator
// is cleared.
func (r *Repository) OpenPeriods(ctx context.Context, network string, beforePeriodStartMs int64) ([]OpenPeriod, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT period_start_ms, MAX(last_height)
		FROM balance_series_pending
		WHERE network = $1 AND period_start_ms < $2
		GROUP BY period_start_ms ORDER BY period_start_ms
	`, network, beforePeriodStartMs)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "balanceseries.OpenPeriods", err)
	}
	defer rows.Close()

	var out []OpenPeriod
	for rows.Next() {
		var p OpenPeriod
		if err := rows.Scan(&p.PeriodStartMs, &p.LastHeight); err != nil {
			return nil, retry.New(retry.StorageTransient, "balanceseries.OpenPeriods", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DirtyAddresses returns every address marked dirty for the still-open
// period (network, periodStartMs).
func (r *Repository) DirtyAddresses(ctx context.Context, network string, periodStartMs int64) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT address FROM balance_series_pending WHERE network = $1 AND period_start_ms = $2
	`, network, periodStartMs)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "balanceseries.DirtyAddresses", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, retry.New(retry.StorageTransient, "balanceseries.DirtyAddresses", err)
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

// ClearDirty removes the pending accumulator for a period once it has
// closed and its series records are durable.
func (r *Repository) ClearDirty(ctx context.Context, network string, periodStartMs int64) error {
	_, err := r.db.DB().ExecContext(ctx, `
		DELETE FROM balance_series_pending WHERE network = $1 AND period_start_ms = $2
	`, network, periodStartMs)
	if err != nil {
		return retry.New(retry.StorageTransient, "balanceseries.ClearDirty", err)
	}
	return nil
}
