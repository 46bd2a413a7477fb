package balanceseries

import "time"

// Record is one Balance Series entry, keyed by (PeriodStartMs, Address,
// Asset).
type Record struct {
	PeriodStartMs int64
	Address       string
	Asset         string
	Network       string

	PeriodEndMs int64
	BlockHeight uint32

	Free     string
	Reserved string
	Staked   string
	Total    string

	DeltaFree     string
	DeltaReserved string
	DeltaStaked   string
	DeltaTotal    string
	PercentChange float64

	WrittenAt time.Time
}
