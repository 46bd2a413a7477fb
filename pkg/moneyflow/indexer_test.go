// Integration tests for Indexer: run against a real Postgres database
// when INDEXER_TEST_DATABASE_URL is set, skipped otherwise. These pin
// the self-transfer behavior: edges are suppressed, node counters still
// update.
package moneyflow

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/networkadapter"
	"github.com/chainswarm/indexer/pkg/schema"

	_ "github.com/lib/pq"
)

var testClient *database.Client

func TestMain(m *testing.M) {
	dsn := os.Getenv("INDEXER_TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(0)
	}

	var err error
	testClient, err = database.New(database.Config{DSN: dsn})
	if err != nil {
		panic("connect test database: " + err.Error())
	}

	mgr := schema.NewManager(testClient.DB(), nil)
	if err := mgr.Apply(context.Background(), schema.MoneyFlowDDL); err != nil {
		panic("apply money flow schema: " + err.Error())
	}

	code := m.Run()
	testClient.Close()
	os.Exit(code)
}

func cleanupGraph(t *testing.T, network string) {
	t.Helper()
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = testClient.DB().ExecContext(ctx, "DELETE FROM money_flow_nodes WHERE network = $1", network)
		_, _ = testClient.DB().ExecContext(ctx, "DELETE FROM money_flow_edges WHERE network = $1", network)
		_, _ = testClient.DB().ExecContext(ctx, "DELETE FROM money_flow_communities WHERE network = $1", network)
	})
}

func transferEvent(id string, idx uint32, from, to, amount string) chainmodel.Event {
	attrs, _ := json.Marshal(map[string]string{"from": from, "to": to, "amount": amount, "fee": "1"})
	return chainmodel.Event{ID: id, Index: idx, ModuleID: "Balances", EventID: "Transfer", Attributes: attrs}
}

func TestSelfTransferSuppressesEdgeButUpdatesNodeCounters(t *testing.T) {
	if testClient == nil {
		t.Skip("INDEXER_TEST_DATABASE_URL not configured")
	}
	network := "test-self-transfer"
	cleanupGraph(t, network)

	repo := NewRepository(testClient)
	indexer := New(network, networkadapter.Torus{}, repo, nil, 0, nil)

	block := chainmodel.Block{
		Height:      1,
		TimestampMs: 1000,
		Addresses:   []string{"X"},
		Events:      []chainmodel.Event{transferEvent("1-0", 0, "X", "X", "50")},
	}

	if _, err := indexer.ProcessBatch(context.Background(), []chainmodel.Block{block}); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	edges, err := repo.ListEdges(context.Background(), network)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("got %d edges for a self-transfer, want 0", len(edges))
	}

	nodes, err := repo.ListNodes(context.Background(), network)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].TransferCount != 1 {
		t.Errorf("TransferCount = %d, want 1 (node counters still update)", nodes[0].TransferCount)
	}
	if nodes[0].NeighborCount != 0 {
		t.Errorf("NeighborCount = %d, want 0", nodes[0].NeighborCount)
	}
}

func TestDistinctTransferCreatesSymmetricEdgeAndCounters(t *testing.T) {
	if testClient == nil {
		t.Skip("INDEXER_TEST_DATABASE_URL not configured")
	}
	network := "test-distinct-transfer"
	cleanupGraph(t, network)

	repo := NewRepository(testClient)
	indexer := New(network, networkadapter.Torus{}, repo, nil, 0, nil)

	blocks := []chainmodel.Block{
		{Height: 10, TimestampMs: 1000, Addresses: []string{"X", "Y"}, Events: []chainmodel.Event{transferEvent("10-0", 0, "X", "Y", "100")}},
		{Height: 20, TimestampMs: 2000, Addresses: []string{"X", "Y"}, Events: []chainmodel.Event{transferEvent("20-0", 0, "X", "Y", "100")}},
	}

	if _, err := indexer.ProcessBatch(context.Background(), blocks); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	edges, err := repo.ListEdges(context.Background(), network)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	if edges[0].Volume != "200" || edges[0].TransferCount != 2 {
		t.Errorf("edge = (volume=%s, count=%d), want (volume=200, count=2)", edges[0].Volume, edges[0].TransferCount)
	}

	nodes, err := repo.ListNodes(context.Background(), network)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	byAddr := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byAddr[n.Address] = n
	}
	if byAddr["X"].TransferCount != 2 || byAddr["X"].NeighborCount != 1 || byAddr["X"].UniqueReceivers != 1 {
		t.Errorf("X = %+v, want transfer_count=2 neighbor_count=1 unique_receivers=1", byAddr["X"])
	}
	if byAddr["Y"].TransferCount != 2 || byAddr["Y"].NeighborCount != 1 || byAddr["Y"].UniqueSenders != 1 {
		t.Errorf("Y = %+v, want transfer_count=2 neighbor_count=1 unique_senders=1", byAddr["Y"])
	}
}

func assetTransferEvent(id string, idx uint32, from, to, symbol, contract, amount string) chainmodel.Event {
	attrs, _ := json.Marshal(map[string]string{
		"assetSymbol": symbol, "contract": contract, "from": from, "to": to, "amount": amount,
	})
	return chainmodel.Event{ID: id, Index: idx, ModuleID: "Assets", EventID: "Transferred", Attributes: attrs}
}

func TestNeighborCountsDistinctCounterparties(t *testing.T) {
	if testClient == nil {
		t.Skip("INDEXER_TEST_DATABASE_URL not configured")
	}
	network := "test-distinct-counterparty"
	cleanupGraph(t, network)

	repo := NewRepository(testClient)
	indexer := New(network, networkadapter.Torus{}, repo, nil, 0, nil)

	// Three edges, one counterparty pair: native X->Y, token X->Y, native Y->X.
	blocks := []chainmodel.Block{
		{Height: 1, TimestampMs: 1000, Addresses: []string{"X", "Y"}, Events: []chainmodel.Event{transferEvent("1-0", 0, "X", "Y", "100")}},
		{Height: 2, TimestampMs: 2000, Addresses: []string{"X", "Y"}, Events: []chainmodel.Event{assetTransferEvent("2-0", 0, "X", "Y", "USDX", "0xabc", "40")}},
		{Height: 3, TimestampMs: 3000, Addresses: []string{"X", "Y"}, Events: []chainmodel.Event{transferEvent("3-0", 0, "Y", "X", "10")}},
	}
	if _, err := indexer.ProcessBatch(context.Background(), blocks); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	edges, err := repo.ListEdges(context.Background(), network)
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}

	nodes, err := repo.ListNodes(context.Background(), network)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	byAddr := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byAddr[n.Address] = n
	}
	// X and Y have exactly one distinct counterparty each, no matter how
	// many assets or directions connect them.
	if byAddr["X"].NeighborCount != 1 {
		t.Errorf("X.NeighborCount = %d, want 1", byAddr["X"].NeighborCount)
	}
	if byAddr["Y"].NeighborCount != 1 {
		t.Errorf("Y.NeighborCount = %d, want 1", byAddr["Y"].NeighborCount)
	}
	if byAddr["X"].UniqueReceivers != 1 || byAddr["X"].UniqueSenders != 1 {
		t.Errorf("X unique counters = (senders=%d, receivers=%d), want (1, 1)", byAddr["X"].UniqueSenders, byAddr["X"].UniqueReceivers)
	}
	if byAddr["Y"].UniqueReceivers != 1 || byAddr["Y"].UniqueSenders != 1 {
		t.Errorf("Y unique counters = (senders=%d, receivers=%d), want (1, 1)", byAddr["Y"].UniqueSenders, byAddr["Y"].UniqueReceivers)
	}
	if byAddr["X"].TransferCount != 3 || byAddr["Y"].TransferCount != 3 {
		t.Errorf("transfer counts = (X=%d, Y=%d), want (3, 3)", byAddr["X"].TransferCount, byAddr["Y"].TransferCount)
	}
}

func TestAnalyticsRunTwiceIsIdempotent(t *testing.T) {
	if testClient == nil {
		t.Skip("INDEXER_TEST_DATABASE_URL not configured")
	}
	network := "test-analytics-idempotent"
	cleanupGraph(t, network)

	repo := NewRepository(testClient)
	indexer := New(network, networkadapter.Torus{}, repo, nil, 0, nil)

	blocks := []chainmodel.Block{
		{Height: 1, TimestampMs: 1000, Addresses: []string{"A", "B"}, Events: []chainmodel.Event{transferEvent("1-0", 0, "A", "B", "100")}},
		{Height: 2, TimestampMs: 2000, Addresses: []string{"B", "C"}, Events: []chainmodel.Event{transferEvent("2-0", 0, "B", "C", "50")}},
		{Height: 3, TimestampMs: 3000, Addresses: []string{"C", "A"}, Events: []chainmodel.Event{transferEvent("3-0", 0, "C", "A", "25")}},
	}
	if _, err := indexer.ProcessBatch(context.Background(), blocks); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	analytics := NewAnalytics(repo)
	if err := analytics.Run(context.Background(), network); err != nil {
		t.Fatalf("first analytics run: %v", err)
	}
	first, err := repo.ListNodes(context.Background(), network)
	if err != nil {
		t.Fatalf("ListNodes after first run: %v", err)
	}

	if err := analytics.Run(context.Background(), network); err != nil {
		t.Fatalf("second analytics run: %v", err)
	}
	second, err := repo.ListNodes(context.Background(), network)
	if err != nil {
		t.Fatalf("ListNodes after second run: %v", err)
	}

	firstByAddr := make(map[string]Node, len(first))
	for _, n := range first {
		firstByAddr[n.Address] = n
	}
	for _, n := range second {
		prev, ok := firstByAddr[n.Address]
		if !ok {
			t.Fatalf("node %s appeared between runs", n.Address)
		}
		if n.CommunityID != prev.CommunityID {
			t.Errorf("%s community_id changed between back-to-back runs: %d -> %d", n.Address, prev.CommunityID, n.CommunityID)
		}
		if n.CommunityPageRank != prev.CommunityPageRank {
			t.Errorf("%s community_page_rank changed between back-to-back runs: %v -> %v", n.Address, prev.CommunityPageRank, n.CommunityPageRank)
		}
	}
}
