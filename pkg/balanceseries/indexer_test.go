// End-to-end indexer tests over a real Postgres database (or skipped),
// driving the period lifecycle with a stubbed chain-state querier.
package balanceseries

import (
	"context"
	"testing"
	"time"

	"github.com/chainswarm/indexer/pkg/assets"
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// stubQuerier answers balance queries from a fixed height->free table.
type stubQuerier struct {
	freeByHeight map[uint32]string
}

func (s stubQuerier) QueryBalance(_ context.Context, height chainmodel.Height, _, _ string) (chainclient.Balance, error) {
	free, ok := s.freeByHeight[uint32(height)]
	if !ok {
		free = "0"
	}
	return chainclient.Balance{Free: free, Reserved: "0", Staked: "0"}, nil
}

// stubDictionary records EnsureExists calls without a backing table.
type stubDictionary struct {
	seen map[string]bool
}

func (d *stubDictionary) EnsureExists(_ context.Context, network, contract string, _ string, _ string, _ int, _ uint32, _ time.Time) error {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	d.seen[network+"/"+contract] = true
	return nil
}

func (d *stubDictionary) UpdateVerification(context.Context, string, string, assets.VerificationStatus, string, string) error {
	return nil
}

func (d *stubDictionary) Lookup(context.Context, string, string) (assets.Record, bool, error) {
	return assets.Record{}, false, nil
}

func (d *stubDictionary) List(context.Context, string, assets.VerificationStatus) ([]assets.Record, error) {
	return nil, nil
}

func activityBlock(height uint32, tsMs int64, addrs ...string) chainmodel.Block {
	return chainmodel.Block{Height: chainmodel.Height(height), TimestampMs: tsMs, Addresses: addrs}
}

func TestPeriodsMaterializeAcrossBatchBoundaries(t *testing.T) {
	if testClient == nil {
		t.Skip("INDEXER_TEST_DATABASE_URL not configured")
	}
	network := "test-period-lifecycle"
	cleanupSeries(t, network)

	hour := time.Hour.Milliseconds()
	querier := stubQuerier{freeByHeight: map[uint32]string{
		1: "100", 2: "100", 3: "150", 4: "150", 5: "150",
	}}
	dict := &stubDictionary{}
	repo := NewRepository(testClient)
	indexer := New(network, 4*time.Hour, querier, repo, dict, nil, nil)

	// Address A is active at 0h, 1h, 5h, 9h; the 13h block only closes
	// the final period. One block per batch exercises the durable
	// accumulator across batch boundaries.
	blocks := []chainmodel.Block{
		activityBlock(1, 0*hour, "A"),
		activityBlock(2, 1*hour, "A"),
		activityBlock(3, 5*hour, "A"),
		activityBlock(4, 9*hour, "A"),
		activityBlock(5, 13*hour),
	}
	ctx := context.Background()
	for _, b := range blocks {
		if _, err := indexer.ProcessBatch(ctx, []chainmodel.Block{b}); err != nil {
			t.Fatalf("ProcessBatch(height %d): %v", b.Height, err)
		}
	}

	type want struct {
		periodStart int64
		total       string
		deltaTotal  string
		percent     float64
		height      uint32
	}
	wants := []want{
		{0 * hour, "100", "100", 0, 2},
		{4 * hour, "150", "50", 50, 3},
		{8 * hour, "150", "0", 0, 4},
	}

	for _, w := range wants {
		rec, ok, err := repo.LatestBefore(ctx, network, "A", "native", w.periodStart+1)
		if err != nil {
			t.Fatalf("LatestBefore(%d): %v", w.periodStart, err)
		}
		if !ok || rec.PeriodStartMs != w.periodStart {
			t.Fatalf("no record at period start %d", w.periodStart)
		}
		if rec.Total != w.total || rec.DeltaTotal != w.deltaTotal || rec.PercentChange != w.percent {
			t.Errorf("period %d = (total=%s, delta=%s, pct=%v), want (%s, %s, %v)",
				w.periodStart, rec.Total, rec.DeltaTotal, rec.PercentChange, w.total, w.deltaTotal, w.percent)
		}
		if rec.BlockHeight != w.height {
			t.Errorf("period %d block_height = %d, want %d", w.periodStart, rec.BlockHeight, w.height)
		}
	}

	if !dict.seen[network+"/native"] {
		t.Error("expected EnsureExists for the native asset on period close")
	}

	// The 12h period is still open: no fourth record.
	var count int
	if err := testClient.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM balance_series WHERE network = $1 AND address = 'A'", network).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d series records, want 3 (one per closed period)", count)
	}
}
