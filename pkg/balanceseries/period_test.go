package balanceseries

import (
	"testing"
	"time"
)

func TestPeriodStartAlignsToEpoch(t *testing.T) {
	length := 4 * time.Hour
	lengthMs := length.Milliseconds()

	cases := []struct {
		name  string
		tsMs  int64
		wantN int64 // expected periodStart / lengthMs
	}{
		{"exact boundary", lengthMs * 10, 10},
		{"mid period", lengthMs*10 + 1000, 10},
		{"just before next boundary", lengthMs*11 - 1, 10},
		{"zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PeriodStart(tc.tsMs, length)
			want := tc.wantN * lengthMs
			if got != want {
				t.Errorf("PeriodStart(%d) = %d, want %d", tc.tsMs, got, want)
			}
		})
	}
}

func TestPeriodStartDeterministicAcrossRuns(t *testing.T) {
	length := 4 * time.Hour
	ts := int64(1_700_000_123_456)
	a := PeriodStart(ts, length)
	b := PeriodStart(ts, length)
	if a != b {
		t.Fatalf("PeriodStart not deterministic: %d != %d", a, b)
	}
	if ts < a || ts >= PeriodEnd(a, length) {
		t.Fatalf("ts %d not within [periodStart=%d, periodEnd=%d)", ts, a, PeriodEnd(a, length))
	}
}

func TestPeriodEndIsExclusiveLengthLater(t *testing.T) {
	length := 4 * time.Hour
	start := PeriodStart(12345, length)
	end := PeriodEnd(start, length)
	if end-start != length.Milliseconds() {
		t.Errorf("period span = %d, want %d", end-start, length.Milliseconds())
	}
}

func TestPeriodStartZeroLengthFallsBackToDefault(t *testing.T) {
	got := PeriodStart(DefaultPeriodLength.Milliseconds()*3+1, 0)
	want := DefaultPeriodLength.Milliseconds() * 3
	if got != want {
		t.Errorf("PeriodStart with zero length = %d, want %d", got, want)
	}
}
