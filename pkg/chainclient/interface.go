// Package chainclient talks to a Substrate-based chain node and returns
// blocks, events, and head information in the chain-neutral shape
// pkg/chainmodel defines.
package chainclient

import (
	"context"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// ChainClient is implemented once per network.
type ChainClient interface {
	// FinalizedHead returns the latest finalized block height. Fails
	// with a retry.ChainUnavailable error on transport failure.
	FinalizedHead(ctx context.Context) (chainmodel.Height, error)

	// FetchBlocks returns up to count contiguous blocks starting at
	// start, fully populated. Missing or unfinalized heights yield a
	// short result without error. Fails with retry.ChainUnavailable on
	// transport error, retry.ChainMalformed if a fetched block cannot
	// be decoded into the chain-neutral shape.
	FetchBlocks(ctx context.Context, start chainmodel.Height, count int) ([]chainmodel.Block, error)

	// Network returns the network name this client talks to.
	Network() string
}
