// Package moneyflow implements the Money Flow Indexer: an
// aggregated directed transfer graph plus periodic community/PageRank/
// embedding analytics, persisted as a small set of property tables over
// the same Postgres connection the columnar projections use.
package moneyflow

// Node is one Address node in the money-flow graph.
type Node struct {
	Network string
	Address string

	FirstSeenAtMs   int64
	FirstSeenHeight uint32
	LastSeenAtMs    int64
	LastSeenHeight  uint32

	NeighborCount   int64
	UniqueSenders   int64
	UniqueReceivers int64
	TransferCount   int64

	CommunityID       int64
	HasCommunity      bool
	CommunityPageRank float64

	// Embedding is the 6-tuple (transfer_count, unique_senders,
	// unique_receivers, neighbor_count, community_id,
	// community_page_rank).
	Embedding [6]float64
}

// Edge is one aggregated (from, to, asset) transfer edge.
type Edge struct {
	Network string
	From    string
	To      string
	Asset   string

	Volume        string // fixed-point, 18-digit scale, big.Int string
	TransferCount int64

	FirstSeenAtMs   int64
	FirstSeenHeight uint32
	LastSeenAtMs    int64
	LastSeenHeight  uint32
}

// Label attaches a network-specific tag to an address node, such as
// "agent", "validator", or "genesis".
type Label struct {
	Network string
	Address string
	Label   string
}

// Relation is a typed, directed relation between two network-specific
// entities, such as subnet ownership.
type Relation struct {
	Network string
	From    string
	To      string
	Kind    string
}
