package moneyflow

import (
	"context"
	"math/big"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// Periodic-analytics tuning. Community detection runs modularity-based
// clustering over a volume-weighted undirected projection of the graph;
// PageRank then runs per community on the induced directed subgraph of
// that community's own members.
const (
	pageRankDamping     = 0.85
	pageRankTolerance   = 1e-6
	communityResolution = 1.0
)

// Analytics implements AnalyticsRunner over gonum's graph/community and
// graph/network packages, loading the current graph from Postgres,
// computing community/PageRank/embedding values, and writing them
// back.
type Analytics struct {
	repo *Repository
}

// NewAnalytics builds an Analytics runner over repo.
func NewAnalytics(repo *Repository) *Analytics {
	return &Analytics{repo: repo}
}

var _ AnalyticsRunner = (*Analytics)(nil)

// Run implements AnalyticsRunner.
func (a *Analytics) Run(ctx context.Context, net string) error {
	edges, err := a.repo.ListEdges(ctx, net)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}

	ids := make(map[string]int64)
	var addrs []string
	idOf := func(addr string) int64 {
		if id, ok := ids[addr]; ok {
			return id
		}
		id := int64(len(ids))
		ids[addr] = id
		addrs = append(addrs, addr)
		return id
	}

	type pair struct{ from, to int64 }
	directedWeight := make(map[pair]float64)
	undirectedWeight := make(map[pair]float64)

	for _, e := range edges {
		from, to := idOf(e.From), idOf(e.To)
		w := weightOf(e.Volume)
		directedWeight[pair{from, to}] += w

		u, v := from, to
		if u > v {
			u, v = v, u
		}
		undirectedWeight[pair{u, v}] += w
	}

	undirected := simple.NewWeightedUndirectedGraph(0, 0)
	for _, addr := range addrs {
		undirected.AddNode(simple.Node(ids[addr]))
	}
	for p, w := range undirectedWeight {
		undirected.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(p.from), T: simple.Node(p.to), W: w})
	}

	// community.Modularize runs Louvain-style modularity optimization; a
	// nil rand.Source falls back to the package-global generator.
	reduced := community.Modularize(undirected, communityResolution, nil)
	structure := reduced.Structure()

	communityOf := make(map[int64]int64, len(addrs))
	for commID, nodes := range structure {
		for _, n := range nodes {
			communityOf[n.ID()] = int64(commID)
		}
	}

	for addr, id := range ids {
		commID, ok := communityOf[id]
		if !ok {
			continue
		}
		if err := a.repo.WriteCommunityID(ctx, net, addr, commID); err != nil {
			return err
		}
	}

	byCommunity := make(map[int64][]int64)
	for id, commID := range communityOf {
		byCommunity[commID] = append(byCommunity[commID], id)
	}

	for _, members := range byCommunity {
		memberSet := make(map[int64]bool, len(members))
		for _, id := range members {
			memberSet[id] = true
		}

		sub := simple.NewWeightedDirectedGraph(0, 0)
		for _, id := range members {
			sub.AddNode(simple.Node(id))
		}
		for p, w := range directedWeight {
			if memberSet[p.from] && memberSet[p.to] {
				sub.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(p.from), T: simple.Node(p.to), W: w})
			}
		}

		ranks := network.PageRank(sub, pageRankDamping, pageRankTolerance)
		for _, id := range members {
			if err := a.repo.WritePageRank(ctx, net, addrs[id], ranks[id]); err != nil {
				return err
			}
		}
	}

	nodes, err := a.repo.ListNodes(ctx, net)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		embedding := [6]float64{
			float64(n.TransferCount),
			float64(n.UniqueSenders),
			float64(n.UniqueReceivers),
			float64(n.NeighborCount),
			float64(n.CommunityID),
			n.CommunityPageRank,
		}
		if err := a.repo.WriteEmbedding(ctx, net, n.Address, embedding); err != nil {
			return err
		}
	}
	return nil
}

func weightOf(volume string) float64 {
	v, ok := new(big.Int).SetString(volume, 10)
	if !ok {
		return 0
	}
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}
