// Package networkadapter maps chain-neutral events onto each network's
// transfer semantics and special-entity labels: synthetic transfers for
// staking and treasury activity, plus per-network labels and typed
// relations. One Adapter is implemented per Substrate network and looked
// up through the Registry.
package networkadapter

import "github.com/chainswarm/indexer/pkg/chainmodel"

// Transfer is a single (from, to, asset, amount, fee) fact extracted from
// one event, whether a generic Balances.Transfer or a network-specific
// synthetic transfer (stake add/remove, rewards, treasury payouts).
type Transfer struct {
	From          string
	To            string
	Asset         string
	AssetContract string // "native" for the chain-native asset
	Amount        string // fixed-point, 18-digit scale, as produced by chainclient
	Fee           string
}

// Label attaches a network-specific tag to an address, such as "agent",
// "validator", or "genesis".
type Label struct {
	Address string
	Label   string
}

// Relation is a typed, directed relation between two network-specific
// entities, such as subnet ownership.
type Relation struct {
	From string
	To   string
	Kind string
}

// Adapter is implemented once per network.
type Adapter interface {
	// Network returns the network name this adapter serves.
	Network() string

	// ExtractTransfers returns every transfer-yielding fact in event,
	// including synthetic ones. Most events yield none.
	ExtractTransfers(event chainmodel.Event) []Transfer

	// ExtractLabels returns any address labels event implies (e.g. agent
	// or neuron registration). Genesis labels are not event-derived; they
	// come from GenesisLabeler.
	ExtractLabels(event chainmodel.Event) []Label

	// ExtractRelations returns any typed relations event implies (e.g.
	// subnet ownership).
	ExtractRelations(event chainmodel.Event) []Relation
}
