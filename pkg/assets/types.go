package assets

import "time"

// VerificationStatus is an asset's trust classification.
type VerificationStatus string

const (
	Verified  VerificationStatus = "verified"
	Unknown   VerificationStatus = "unknown"
	Malicious VerificationStatus = "malicious"
)

// NativeContract is the reserved asset_contract value for a chain's
// native asset.
const NativeContract = "native"

// Record is a single entry in the Asset Dictionary, keyed by
// (Network, Contract).
type Record struct {
	Network         string
	Contract        string
	Symbol          string
	DisplayName     string
	Decimals        int
	Status          VerificationStatus
	FirstSeenHeight uint32
	FirstSeenAt     time.Time
	LastUpdatedAt   time.Time
	UpdatedBy       string
	Notes           string
	Version         int64
}
