// Package assets is the Asset Dictionary: the single source of truth for
// per-network asset identity and verification status.
package assets

import (
	"context"
	"time"
)

// Dictionary is the Asset Dictionary's operation set. It is called
// concurrently from multiple indexer processes and must tolerate the
// race without duplicating rows for the same (network, contract) key.
type Dictionary interface {
	// EnsureExists inserts a row for (network, contract) if absent.
	// Status defaults to Unknown; contract == NativeContract is
	// pre-seeded as Verified. A second concurrent EnsureExists for the
	// same key is a no-op: earliest write wins on first-seen fields.
	EnsureExists(ctx context.Context, network, contract, symbol, displayName string, decimals int, firstSeenHeight uint32, firstSeenAt time.Time) error

	// UpdateVerification records a new verification status. Latest
	// write wins.
	UpdateVerification(ctx context.Context, network, contract string, status VerificationStatus, updater, notes string) error

	// Lookup returns the record for (network, contract), and false if
	// no such asset has been seen.
	Lookup(ctx context.Context, network, contract string) (Record, bool, error)

	// List returns every asset for network, optionally filtered by
	// status ("" means no filter).
	List(ctx context.Context, network string, status VerificationStatus) ([]Record, error)
}
