package networkadapter

import (
	"encoding/json"
	"testing"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

func eventOf(module, id string, attrs map[string]string) chainmodel.Event {
	data, _ := json.Marshal(attrs)
	return chainmodel.Event{ModuleID: module, EventID: id, Attributes: data}
}

func TestExtractGenericTransfer(t *testing.T) {
	ev := eventOf("Balances", "Transfer", map[string]string{
		"from": "5Alice", "to": "5Bob", "amount": "1000", "fee": "1",
	})
	tr, ok := extractGenericTransfer(ev)
	if !ok {
		t.Fatal("expected a transfer to be extracted")
	}
	if tr.From != "5Alice" || tr.To != "5Bob" || tr.Asset != "native" || tr.AssetContract != "native" {
		t.Errorf("unexpected transfer: %+v", tr)
	}
}

func TestExtractGenericTransferIgnoresOtherEvents(t *testing.T) {
	ev := eventOf("System", "ExtrinsicSuccess", nil)
	if _, ok := extractGenericTransfer(ev); ok {
		t.Fatal("expected no transfer for an unrelated event")
	}
}

func TestExtractStakeTransferBondedAndUnbonded(t *testing.T) {
	bonded := eventOf("Staking", "Bonded", map[string]string{"stash": "5Stash", "amount": "500"})
	tr, ok := extractStakeTransfer(bonded, "Bonded")
	if !ok || tr.From != "5Stash" || tr.To != "system:staking" {
		t.Fatalf("Bonded: got %+v, ok=%v", tr, ok)
	}

	unbonded := eventOf("Staking", "Unbonded", map[string]string{"stash": "5Stash", "amount": "500"})
	tr, ok = extractStakeTransfer(unbonded, "Unbonded")
	if !ok || tr.From != "system:staking" || tr.To != "5Stash" {
		t.Fatalf("Unbonded: got %+v, ok=%v", tr, ok)
	}
}

func TestExtractRewardTransfer(t *testing.T) {
	ev := eventOf("Staking", "Reward", map[string]string{"stash": "5Stash", "amount": "10"})
	tr, ok := extractRewardTransfer(ev)
	if !ok || tr.From != "staking" || tr.To != "5Stash" {
		t.Fatalf("got %+v, ok=%v", tr, ok)
	}
}

func TestExtractTreasuryTransfer(t *testing.T) {
	ev := eventOf("Treasury", "Awarded", map[string]string{"recipient": "5Recipient", "amount": "20"})
	tr, ok := extractTreasuryTransfer(ev)
	if !ok || tr.From != "treasury" || tr.To != "5Recipient" {
		t.Fatalf("got %+v, ok=%v", tr, ok)
	}
}

func TestBittensorNeuronRegisteredLabel(t *testing.T) {
	ev := eventOf("SubtensorModule", "NeuronRegistered", map[string]string{"hotkey": "5Hot"})
	labels := Bittensor{}.ExtractLabels(ev)
	if len(labels) != 1 || labels[0].Address != "5Hot" || labels[0].Label != "agent" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestTorusAgentRegisteredLabel(t *testing.T) {
	ev := eventOf("Torus0", "AgentRegistered", map[string]string{"agent": "5Agent"})
	labels := Torus{}.ExtractLabels(ev)
	if len(labels) != 1 || labels[0].Address != "5Agent" || labels[0].Label != "agent" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestPolkadotGenesisLabels(t *testing.T) {
	p := NewPolkadot([]string{"5Gen1", "5Gen2"})
	labels := p.GenesisLabels()
	if len(labels) != 2 {
		t.Fatalf("expected 2 genesis labels, got %d", len(labels))
	}
	for _, l := range labels {
		if l.Label != "genesis" {
			t.Errorf("unexpected label kind: %s", l.Label)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(Torus{}, Bittensor{}, NewPolkadot(nil))
	if _, err := r.Get("torus"); err != nil {
		t.Errorf("Get(torus): %v", err)
	}
	if _, err := r.Get("unknown"); err == nil {
		t.Error("expected an error for an unregistered network")
	}
}
