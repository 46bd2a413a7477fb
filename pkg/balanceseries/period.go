package balanceseries

import "time"

// DefaultPeriodLength is the fixed period length used when no override
// is configured.
const DefaultPeriodLength = 4 * time.Hour

// PeriodStart returns the start of the period containing tsMs, aligned to
// the Unix epoch so period boundaries are deterministic across runs and
// independent of when a consumer happens to start.
func PeriodStart(tsMs int64, length time.Duration) int64 {
	lengthMs := length.Milliseconds()
	if lengthMs <= 0 {
		lengthMs = DefaultPeriodLength.Milliseconds()
	}
	if tsMs < 0 {
		// floor division toward negative infinity
		return ((tsMs - lengthMs + 1) / lengthMs) * lengthMs
	}
	return (tsMs / lengthMs) * lengthMs
}

// PeriodEnd returns the exclusive end of the period starting at periodStart.
func PeriodEnd(periodStart int64, length time.Duration) int64 {
	lengthMs := length.Milliseconds()
	if lengthMs <= 0 {
		lengthMs = DefaultPeriodLength.Milliseconds()
	}
	return periodStart + lengthMs
}
