package networkadapter

import (
	"encoding/json"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// genericTransferEvent is the attribute shape of Balances.Transfer,
// identical across every Substrate network.
type genericTransferEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

// extractGenericTransfer recognizes the module-agnostic Balances.Transfer
// event every network emits the same way.
func extractGenericTransfer(event chainmodel.Event) (Transfer, bool) {
	if event.ModuleID != "Balances" || event.EventID != "Transfer" {
		return Transfer{}, false
	}
	var fields genericTransferEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil {
		return Transfer{}, false
	}
	if fields.From == "" || fields.To == "" {
		return Transfer{}, false
	}
	return Transfer{
		From:          fields.From,
		To:            fields.To,
		Asset:         "native",
		AssetContract: "native",
		Amount:        fields.Amount,
		Fee:           fields.Fee,
	}, true
}

// stakeEvent is the shape of Staking.Bonded/Unbonded events: a
// counterparty-to-system transfer for stake add/remove.
type stakeEvent struct {
	Stash  string `json:"stash"`
	Amount string `json:"amount"`
}

func extractStakeTransfer(event chainmodel.Event, addOrRemove string) (Transfer, bool) {
	if event.ModuleID != "Staking" || event.EventID != addOrRemove {
		return Transfer{}, false
	}
	var fields stakeEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Stash == "" {
		return Transfer{}, false
	}
	t := Transfer{Asset: "native", AssetContract: "native", Amount: fields.Amount, Fee: "0"}
	if addOrRemove == "Bonded" {
		t.From, t.To = fields.Stash, "system:staking"
	} else {
		t.From, t.To = "system:staking", fields.Stash
	}
	return t, true
}

// rewardEvent is the shape of Staking.Reward events, recorded as a
// "staking" -> stash transfer.
type rewardEvent struct {
	Stash  string `json:"stash"`
	Amount string `json:"amount"`
}

func extractRewardTransfer(event chainmodel.Event) (Transfer, bool) {
	if event.ModuleID != "Staking" || event.EventID != "Reward" {
		return Transfer{}, false
	}
	var fields rewardEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Stash == "" {
		return Transfer{}, false
	}
	return Transfer{From: "staking", To: fields.Stash, Asset: "native", AssetContract: "native", Amount: fields.Amount, Fee: "0"}, true
}

// treasuryEvent is the shape of Treasury.Awarded payouts:
// "treasury" -> recipient.
type treasuryEvent struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func extractTreasuryTransfer(event chainmodel.Event) (Transfer, bool) {
	if event.ModuleID != "Treasury" || event.EventID != "Awarded" {
		return Transfer{}, false
	}
	var fields treasuryEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.Recipient == "" {
		return Transfer{}, false
	}
	return Transfer{From: "treasury", To: fields.Recipient, Asset: "native", AssetContract: "native", Amount: fields.Amount, Fee: "0"}, true
}

// assetTransferEvent is the shape of Assets.Transferred events: a
// non-native token transfer, which may or may not carry a contract
// identifier depending on how the issuing pallet records it.
type assetTransferEvent struct {
	AssetSymbol string `json:"assetSymbol"`
	Contract    string `json:"contract"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
}

func extractAssetTransfer(event chainmodel.Event) (Transfer, bool) {
	if event.ModuleID != "Assets" || event.EventID != "Transferred" {
		return Transfer{}, false
	}
	var fields assetTransferEvent
	if err := json.Unmarshal(event.Attributes, &fields); err != nil || fields.From == "" || fields.To == "" {
		return Transfer{}, false
	}
	return Transfer{
		From:          fields.From,
		To:            fields.To,
		Asset:         fields.AssetSymbol,
		AssetContract: fields.Contract, // may be empty; caller treats as unknown-but-recorded
		Amount:        fields.Amount,
		Fee:           "0",
	}, true
}

// extractCommonSyntheticTransfers covers the transfer kinds every
// supported network shares: generic Balances.Transfer, staking
// bond/unbond/reward, treasury awards and Assets.Transferred. Every
// network adapter returns its result as-is.
func extractCommonSyntheticTransfers(event chainmodel.Event) []Transfer {
	var out []Transfer
	if t, ok := extractGenericTransfer(event); ok {
		out = append(out, t)
	}
	if t, ok := extractStakeTransfer(event, "Bonded"); ok {
		out = append(out, t)
	}
	if t, ok := extractStakeTransfer(event, "Unbonded"); ok {
		out = append(out, t)
	}
	if t, ok := extractRewardTransfer(event); ok {
		out = append(out, t)
	}
	if t, ok := extractTreasuryTransfer(event); ok {
		out = append(out, t)
	}
	if t, ok := extractAssetTransfer(event); ok {
		out = append(out, t)
	}
	return out
}
