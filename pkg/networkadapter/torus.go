package networkadapter

import (
	"encoding/json"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// Torus is the adapter for the Torus network: agent registration
// labels for its permissionless agent registry.
type Torus struct{}

func (Torus) Network() string { return "torus" }

func (Torus) ExtractTransfers(event chainmodel.Event) []Transfer {
	return extractCommonSyntheticTransfers(event)
}

type agentRegisteredEvent struct {
	Agent string `json:"agent"`
}

func (Torus) ExtractLabels(event chainmodel.Event) []Label {
	if event.ModuleID != "Torus0" || event.EventID != "AgentRegistered" {
		return nil
	}
	var fields agentRegisteredEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Agent == "" {
		return nil
	}
	return []Label{{Address: fields.Agent, Label: "agent"}}
}

func (Torus) ExtractRelations(chainmodel.Event) []Relation {
	return nil
}
