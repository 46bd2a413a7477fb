package networkadapter

import (
	"encoding/json"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// Polkadot is the adapter for the Polkadot network: validator labels
// from session-validator-set changes, and a genesis label applied to
// the well-known genesis distribution addresses.
type Polkadot struct {
	GenesisAddresses map[string]bool
}

func NewPolkadot(genesisAddresses []string) Polkadot {
	set := make(map[string]bool, len(genesisAddresses))
	for _, a := range genesisAddresses {
		set[a] = true
	}
	return Polkadot{GenesisAddresses: set}
}

func (Polkadot) Network() string { return "polkadot" }

func (Polkadot) ExtractTransfers(event chainmodel.Event) []Transfer {
	return extractCommonSyntheticTransfers(event)
}

type newSessionEvent struct {
	Validators []string `json:"validators"`
}

func (p Polkadot) ExtractLabels(event chainmodel.Event) []Label {
	if event.ModuleID != "Session" || event.EventID != "NewSession" {
		return nil
	}
	var fields newSessionEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil {
		return nil
	}
	labels := make([]Label, 0, len(fields.Validators))
	for _, v := range fields.Validators {
		labels = append(labels, Label{Address: v, Label: "validator"})
	}
	return labels
}

// GenesisLabels returns the "genesis" label for every well-known genesis
// distribution address. The money flow indexer calls this once, when
// processing the height-0 block, rather than per-event: the genesis
// endowment is a block-level fact, not an event.
func (p Polkadot) GenesisLabels() []Label {
	labels := make([]Label, 0, len(p.GenesisAddresses))
	for addr := range p.GenesisAddresses {
		labels = append(labels, Label{Address: addr, Label: "genesis"})
	}
	return labels
}

func (Polkadot) ExtractRelations(chainmodel.Event) []Relation {
	return nil
}
