package chainclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/retry"
)

// TargetDecimals is the system-wide fixed-point scale every normalized
// amount is expressed in.
const TargetDecimals = 18

// SubstrateClient implements ChainClient against one Substrate-based
// node. Blocks are fetched through a decoded-block JSON-RPC method
// ("blocks_getBlock") in the style of a Substrate API sidecar, rather
// than raw SCALE-encoded extrinsics, since the node's sidecar (or an
// equivalent decoding proxy) is assumed to sit in front of the raw chain
// RPC for this system's network-adapter layer to consume.
type SubstrateClient struct {
	network   string
	transport *rpcTransport
	decimals  int
}

// NewSubstrateClient dials endpoint and builds a client for cfg.
func NewSubstrateClient(ctx context.Context, cfg NetworkConfig) (*SubstrateClient, error) {
	t, err := dial(ctx, cfg.RPCEndpoint, cfg.RequestsPerSecond)
	if err != nil {
		return nil, err
	}
	return &SubstrateClient{
		network:   cfg.Name,
		transport: t,
		decimals:  cfg.NativeDecimals,
	}, nil
}

func (c *SubstrateClient) Network() string { return c.network }

// Close releases the underlying RPC connection.
func (c *SubstrateClient) Close() { c.transport.Close() }

type finalizedHeadResponse struct {
	Hash string `json:"hash"`
}

type headerResponse struct {
	Number uint32 `json:"number"`
}

// FinalizedHead implements ChainClient.
func (c *SubstrateClient) FinalizedHead(ctx context.Context) (chainmodel.Height, error) {
	var headHash finalizedHeadResponse
	if err := c.transport.call(ctx, &headHash, "chain_getFinalizedHead"); err != nil {
		return 0, err
	}
	var header headerResponse
	if err := c.transport.call(ctx, &header, "chain_getHeader", headHash.Hash); err != nil {
		return 0, err
	}
	return chainmodel.Height(header.Number), nil
}

// wireExtrinsic/wireEvent/wireBlock mirror the decoded JSON shape a
// sidecar-style endpoint returns: already-parsed extrinsics and events
// instead of raw SCALE bytes.
type wireExtrinsic struct {
	Hash     string `json:"hash"`
	Signer   string `json:"signer"`
	Module   string `json:"module"`
	Function string `json:"function"`
	Success  bool   `json:"success"`
}

type wireEvent struct {
	ExtrinsicIndex *uint32         `json:"extrinsicIndex"`
	Module         string          `json:"module"`
	Event          string          `json:"event"`
	Data           json.RawMessage `json:"data"`
}

type wireBlock struct {
	Number      uint32          `json:"number"`
	Hash        string          `json:"hash"`
	TimestampMs int64           `json:"timestampMs"`
	Extrinsics  []wireExtrinsic `json:"extrinsics"`
	Events      []wireEvent     `json:"events"`
}

// FetchBlocks implements ChainClient. It fetches blocks one height at a
// time; it stops at the first missing height (not yet produced, or
// pruned) rather than erroring, yielding a short result.
func (c *SubstrateClient) FetchBlocks(ctx context.Context, start chainmodel.Height, count int) ([]chainmodel.Block, error) {
	if count <= 0 {
		return nil, nil
	}
	out := make([]chainmodel.Block, 0, count)
	for i := 0; i < count; i++ {
		height := uint32(start) + uint32(i)

		var wb *wireBlock
		if err := c.transport.call(ctx, &wb, "blocks_getBlock", height); err != nil {
			return out, err
		}
		if wb == nil {
			break // height not yet produced or pruned; stop at the first gap
		}
		block, err := c.toBlock(*wb)
		if err != nil {
			return out, retry.New(retry.ChainMalformed, fmt.Sprintf("chainclient.FetchBlocks:height=%d", height), err)
		}
		out = append(out, block)
	}
	return out, nil
}

func (c *SubstrateClient) toBlock(wb wireBlock) (chainmodel.Block, error) {
	extrinsics := make([]chainmodel.Extrinsic, 0, len(wb.Extrinsics))
	signers := make([]string, 0, len(wb.Extrinsics))
	height := chainmodel.Height(wb.Number)

	for idx, we := range wb.Extrinsics {
		status := chainmodel.ExtrinsicFailed
		if we.Success {
			status = chainmodel.ExtrinsicSuccess
		}
		extrinsics = append(extrinsics, chainmodel.Extrinsic{
			ID:       chainmodel.ExtrinsicID(height, uint32(idx)),
			Hash:     we.Hash,
			Signer:   we.Signer,
			Module:   we.Module,
			Function: we.Function,
			Index:    uint32(idx),
			Status:   status,
		})
		if we.Signer != "" {
			signers = append(signers, we.Signer)
		}
	}

	events := make([]chainmodel.Event, 0, len(wb.Events))
	for idx, we := range wb.Events {
		extrinsicID := ""
		if we.ExtrinsicIndex != nil {
			extrinsicID = chainmodel.ExtrinsicID(height, *we.ExtrinsicIndex)
		}
		data, err := normalizeEventAmounts(we.Data, c.decimals)
		if err != nil {
			return chainmodel.Block{}, fmt.Errorf("normalize event %d: %w", idx, err)
		}
		events = append(events, chainmodel.Event{
			ID:          chainmodel.EventID(height, uint32(idx)),
			Index:       uint32(idx),
			ExtrinsicID: extrinsicID,
			ModuleID:    we.Module,
			EventID:     we.Event,
			Attributes:  data,
		})
	}

	return chainmodel.Block{
		Height:      height,
		Hash:        wb.Hash,
		TimestampMs: wb.TimestampMs,
		Extrinsics:  extrinsics,
		Events:      events,
		Addresses:   chainmodel.AddressSet(signers, eventAddresses(events)...),
	}, nil
}

// addressKeys are the attribute keys that name an address in any event
// the network adapters recognize: generic transfers (from/to/who/account),
// staking and treasury synthetics (stash/recipient), and the per-network
// registration/session events (agent/hotkey/owner, plus the validators
// list). The block's address set must cover all of them, since the
// balance series indexer treats it as the complete set of addresses whose
// balances may have changed.
var addressKeys = []string{"from", "to", "who", "account", "stash", "recipient", "agent", "hotkey", "owner"}

func eventAddresses(events []chainmodel.Event) []string {
	var addrs []string
	for _, e := range events {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(e.Attributes, &fields); err != nil {
			continue
		}
		for _, key := range addressKeys {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var addr string
			if err := json.Unmarshal(raw, &addr); err == nil && addr != "" {
				addrs = append(addrs, addr)
			}
		}
		if raw, ok := fields["validators"]; ok {
			var validators []string
			if err := json.Unmarshal(raw, &validators); err == nil {
				addrs = append(addrs, validators...)
			}
		}
	}
	return addrs
}

// normalizeEventAmounts rescales any "amount"/"fee"/"value" numeric-string
// field in a wire event's JSON attributes from the network's native
// decimals up to TargetDecimals.
func normalizeEventAmounts(data json.RawMessage, nativeDecimals int) (json.RawMessage, error) {
	if len(data) == 0 {
		return data, nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return data, nil // not an object; leave as-is (e.g. already a scalar or array)
	}

	for _, key := range []string{"amount", "fee", "value"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		scaled, ok := scaleAmount(s, nativeDecimals)
		if !ok {
			return nil, fmt.Errorf("field %q is not a valid integer amount: %q", key, s)
		}
		fields[key] = scaled.String()
	}
	return json.Marshal(fields)
}

// scaleAmount rescales a base-unit integer amount string from
// nativeDecimals to TargetDecimals.
func scaleAmount(s string, nativeDecimals int) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	diff := TargetDecimals - nativeDecimals
	if diff == 0 {
		return amount, true
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(diff))), nil)
	if diff > 0 {
		return amount.Mul(amount, factor), true
	}
	return amount.Quo(amount, factor), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
