package chainclient

import (
	"encoding/json"
	"testing"
)

func TestScaleAmount(t *testing.T) {
	cases := []struct {
		name           string
		amount         string
		nativeDecimals int
		want           string
	}{
		{"already 18 decimals", "1000000000000000000", 18, "1000000000000000000"},
		{"9 decimals scales up", "1000000000", 9, "1000000000000000000"},
		{"10 decimals scales up", "1", 10, "100000000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := scaleAmount(c.amount, c.nativeDecimals)
			if !ok {
				t.Fatalf("scaleAmount(%q, %d) failed to parse", c.amount, c.nativeDecimals)
			}
			if got.String() != c.want {
				t.Errorf("scaleAmount(%q, %d) = %s, want %s", c.amount, c.nativeDecimals, got.String(), c.want)
			}
		})
	}
}

func TestNormalizeEventAmounts(t *testing.T) {
	raw := json.RawMessage(`{"from":"5Alice","to":"5Bob","amount":"1000000000"}`)
	out, err := normalizeEventAmounts(raw, 9)
	if err != nil {
		t.Fatalf("normalizeEventAmounts: %v", err)
	}
	var fields map[string]string
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if fields["amount"] != "1000000000000000000" {
		t.Errorf("amount = %s, want 1000000000000000000", fields["amount"])
	}
	if fields["from"] != "5Alice" || fields["to"] != "5Bob" {
		t.Errorf("non-amount fields were mutated: %+v", fields)
	}
}

func TestNormalizeEventAmountsRejectsBadAmount(t *testing.T) {
	raw := json.RawMessage(`{"amount":"not-a-number"}`)
	if _, err := normalizeEventAmounts(raw, 9); err == nil {
		t.Fatal("expected an error for a non-numeric amount field")
	}
}

func TestToBlockAddressSetCoversSyntheticEventKinds(t *testing.T) {
	c := &SubstrateClient{network: "polkadot", decimals: 10}

	extIdx := uint32(0)
	wb := wireBlock{
		Number:      42,
		Hash:        "0xblock",
		TimestampMs: 1_000,
		Extrinsics: []wireExtrinsic{
			{Hash: "0xext", Signer: "5Signer", Module: "Balances", Function: "transfer", Success: true},
		},
		Events: []wireEvent{
			{ExtrinsicIndex: &extIdx, Module: "Balances", Event: "Transfer", Data: json.RawMessage(`{"from":"5Alice","to":"5Bob","amount":"10"}`)},
			{Module: "Staking", Event: "Reward", Data: json.RawMessage(`{"stash":"5Stash","amount":"5"}`)},
			{Module: "Treasury", Event: "Awarded", Data: json.RawMessage(`{"recipient":"5Recipient","amount":"7"}`)},
			{Module: "SubtensorModule", Event: "NetworkAdded", Data: json.RawMessage(`{"owner":"5Owner","subnetId":3}`)},
			{Module: "Session", Event: "NewSession", Data: json.RawMessage(`{"validators":["5Val1","5Val2"]}`)},
		},
	}

	block, err := c.toBlock(wb)
	if err != nil {
		t.Fatalf("toBlock: %v", err)
	}

	got := make(map[string]bool, len(block.Addresses))
	for _, a := range block.Addresses {
		got[a] = true
	}
	for _, want := range []string{"5Signer", "5Alice", "5Bob", "5Stash", "5Recipient", "5Owner", "5Val1", "5Val2"} {
		if !got[want] {
			t.Errorf("Addresses missing %q; the balance series indexer relies on the set covering every event-named address", want)
		}
	}

	if block.Events[0].ID != "42-0" || block.Events[0].ExtrinsicID != "42-0" {
		t.Errorf("event ids = (%s, %s), want (42-0, 42-0)", block.Events[0].ID, block.Events[0].ExtrinsicID)
	}
	// 10 decimals scale up to 18: "10" becomes "1000000000".
	var attrs map[string]string
	if err := json.Unmarshal(block.Events[0].Attributes, &attrs); err != nil {
		t.Fatalf("unmarshal normalized attributes: %v", err)
	}
	if attrs["amount"] != "1000000000" {
		t.Errorf("normalized amount = %s, want 1000000000", attrs["amount"])
	}
}
