package chainclient

import (
	"context"

	"github.com/chainswarm/indexer/pkg/chainmodel"
	"github.com/chainswarm/indexer/pkg/retry"
)

// Balance is one address's free/reserved/staked components at a given
// height, already normalized to TargetDecimals.
type Balance struct {
	Free     string
	Reserved string
	Staked   string
}

// BalanceQuerier is implemented by chain clients that can answer
// point-in-time balance queries, used by the Balance Series Indexer.
// It is a separate interface from ChainClient because the ingester
// never needs it.
type BalanceQuerier interface {
	QueryBalance(ctx context.Context, height chainmodel.Height, address, asset string) (Balance, error)
}

type balanceResponse struct {
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
	Staked   string `json:"staked"`
}

// QueryBalance implements BalanceQuerier for SubstrateClient.
func (c *SubstrateClient) QueryBalance(ctx context.Context, height chainmodel.Height, address, asset string) (Balance, error) {
	var resp balanceResponse
	if err := c.transport.call(ctx, &resp, "state_getBalance", uint32(height), address, asset); err != nil {
		return Balance{}, err
	}
	free, ok := scaleAmount(resp.Free, c.decimals)
	if !ok {
		return Balance{}, retry.New(retry.ChainMalformed, "chainclient.QueryBalance", errInvalidBalanceField("free", resp.Free))
	}
	reserved, ok := scaleAmount(resp.Reserved, c.decimals)
	if !ok {
		return Balance{}, retry.New(retry.ChainMalformed, "chainclient.QueryBalance", errInvalidBalanceField("reserved", resp.Reserved))
	}
	staked, ok := scaleAmount(resp.Staked, c.decimals)
	if !ok {
		return Balance{}, retry.New(retry.ChainMalformed, "chainclient.QueryBalance", errInvalidBalanceField("staked", resp.Staked))
	}
	return Balance{Free: free.String(), Reserved: reserved.String(), Staked: staked.String()}, nil
}

type invalidBalanceFieldError struct {
	field string
	value string
}

func (e invalidBalanceFieldError) Error() string {
	return "invalid balance field " + e.field + ": " + e.value
}

func errInvalidBalanceField(field, value string) error {
	return invalidBalanceFieldError{field: field, value: value}
}
