package networkadapter

import (
	"encoding/json"
	"fmt"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// Bittensor is the adapter for the Bittensor network: neuron
// registration labels, subnet creation/ownership relations.
type Bittensor struct{}

func (Bittensor) Network() string { return "bittensor" }

func (Bittensor) ExtractTransfers(event chainmodel.Event) []Transfer {
	return extractCommonSyntheticTransfers(event)
}

type neuronRegisteredEvent struct {
	Hotkey  string `json:"hotkey"`
	SubnetID uint32 `json:"subnetId"`
}

func (Bittensor) ExtractLabels(event chainmodel.Event) []Label {
	if event.ModuleID != "SubtensorModule" || event.EventID != "NeuronRegistered" {
		return nil
	}
	var fields neuronRegisteredEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Hotkey == "" {
		return nil
	}
	return []Label{{Address: fields.Hotkey, Label: "agent"}}
}

type subnetCreatedEvent struct {
	Owner    string `json:"owner"`
	SubnetID uint32 `json:"subnetId"`
}

func (Bittensor) ExtractRelations(event chainmodel.Event) []Relation {
	if event.ModuleID != "SubtensorModule" || event.EventID != "NetworkAdded" {
		return nil
	}
	var fields subnetCreatedEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Owner == "" {
		return nil
	}
	subnet := fmt.Sprintf("subnet:%d", fields.SubnetID)
	return []Relation{{From: fields.Owner, To: subnet, Kind: "owns_subnet"}}
}
