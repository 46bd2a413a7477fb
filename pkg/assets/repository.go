package assets

import (
	"context"
	"database/sql"
	"time"

	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/retry"
)

// Repository implements Dictionary over Postgres.
type Repository struct {
	db *database.Client
}

// NewRepository builds a Repository.
func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

var _ Dictionary = (*Repository)(nil)

// EnsureExists implements Dictionary. The insert is a no-op on conflict
// so concurrent callers racing to discover the same asset never
// duplicate a row or clobber an existing one.
func (r *Repository) EnsureExists(ctx context.Context, network, contract, symbol, displayName string, decimals int, firstSeenHeight uint32, firstSeenAt time.Time) error {
	status := Unknown
	if contract == NativeContract {
		status = Verified
	}
	now := firstSeenAt
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO assets (network, contract, symbol, display_name, decimals, status,
			first_seen_height, first_seen_at, last_updated_at, updated_by, notes, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', '', 1)
		ON CONFLICT (network, contract) DO NOTHING
	`, network, contract, symbol, displayName, decimals, status, firstSeenHeight, firstSeenAt, now)
	if err != nil {
		return retry.New(retry.StorageTransient, "assets.EnsureExists", err)
	}
	return nil
}

// UpdateVerification implements Dictionary.
func (r *Repository) UpdateVerification(ctx context.Context, network, contract string, status VerificationStatus, updater, notes string) error {
	res, err := r.db.DB().ExecContext(ctx, `
		UPDATE assets
		SET status = $3, updated_by = $4, notes = $5, last_updated_at = now(), version = version + 1
		WHERE network = $1 AND contract = $2
	`, network, contract, status, updater, notes)
	if err != nil {
		return retry.New(retry.StorageTransient, "assets.UpdateVerification", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return retry.New(retry.StorageTransient, "assets.UpdateVerification", err)
	}
	if rows == 0 {
		return retry.New(retry.StorageFatal, "assets.UpdateVerification", sql.ErrNoRows)
	}
	return nil
}

// Lookup implements Dictionary.
func (r *Repository) Lookup(ctx context.Context, network, contract string) (Record, bool, error) {
	row := r.db.DB().QueryRowContext(ctx, `
		SELECT network, contract, symbol, display_name, decimals, status,
			first_seen_height, first_seen_at, last_updated_at, updated_by, notes, version
		FROM assets WHERE network = $1 AND contract = $2
	`, network, contract)

	var rec Record
	err := row.Scan(&rec.Network, &rec.Contract, &rec.Symbol, &rec.DisplayName, &rec.Decimals, &rec.Status,
		&rec.FirstSeenHeight, &rec.FirstSeenAt, &rec.LastUpdatedAt, &rec.UpdatedBy, &rec.Notes, &rec.Version)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, retry.New(retry.StorageTransient, "assets.Lookup", err)
	}
	return rec, true, nil
}

// List implements Dictionary.
func (r *Repository) List(ctx context.Context, network string, status VerificationStatus) ([]Record, error) {
	query := `
		SELECT network, contract, symbol, display_name, decimals, status,
			first_seen_height, first_seen_at, last_updated_at, updated_by, notes, version
		FROM assets WHERE network = $1`
	args := []interface{}{network}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY contract"

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "assets.List", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Network, &rec.Contract, &rec.Symbol, &rec.DisplayName, &rec.Decimals, &rec.Status,
			&rec.FirstSeenHeight, &rec.FirstSeenAt, &rec.LastUpdatedAt, &rec.UpdatedBy, &rec.Notes, &rec.Version); err != nil {
			return nil, retry.New(retry.StorageTransient, "assets.List", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, retry.New(retry.StorageTransient, "assets.List", err)
	}
	return out, nil
}
