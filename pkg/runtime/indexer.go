package runtime

import (
	"context"

	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// Indexer is implemented by each downstream consumer. ProcessBatch must
// durably commit every destination write it makes before returning; the
// runtime advances the checkpoint only after ProcessBatch returns
// successfully.
type Indexer interface {
	// Name identifies this consumer for checkpointing and metrics
	// (e.g. "transfers", "balance-series", "money-flow").
	Name() string

	// ProcessBatch processes a contiguous batch of blocks and returns
	// the number of projection rows/nodes/edges it wrote, used for
	// progress milestones.
	ProcessBatch(ctx context.Context, blocks []chainmodel.Block) (itemCount int64, err error)
}
