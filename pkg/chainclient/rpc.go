package chainclient

import (
	"context"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/chainswarm/indexer/pkg/retry"
)

// rpcTransport wraps a JSON-RPC 2.0 client with outbound throttling.
// Substrate nodes speak the same JSON-RPC 2.0 envelope go-ethereum's rpc
// package already implements, so the transport is reused as-is rather
// than hand-rolled.
type rpcTransport struct {
	client  *gethrpc.Client
	limiter *rate.Limiter
}

func dial(ctx context.Context, endpoint string, requestsPerSecond float64) (*rpcTransport, error) {
	client, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, retry.New(retry.ChainUnavailable, "chainclient.dial", err)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 20
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &rpcTransport{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}, nil
}

// call performs one throttled JSON-RPC request, classifying any failure
// as ChainUnavailable.
func (t *rpcTransport) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return retry.New(retry.ChainUnavailable, "chainclient.rate-limit", err)
	}
	if err := t.client.CallContext(ctx, result, method, args...); err != nil {
		return retry.New(retry.ChainUnavailable, fmt.Sprintf("chainclient.call:%s", method), err)
	}
	return nil
}

func (t *rpcTransport) Close() {
	t.client.Close()
}
