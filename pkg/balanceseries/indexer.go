// Package balanceseries implements the Balance Series Indexer: periodic
// free/reserved/staked snapshots per (address, asset) with deltas against
// the prior period.
package balanceseries

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/chainswarm/indexer/pkg/assets"
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/chainmodel"
)

// WatchedAsset is one (symbol, contract) pair the indexer snapshots
// balances for. Native is always implicitly watched.
type WatchedAsset struct {
	Symbol   string
	Contract string
}

// Indexer implements runtime.Indexer for Balance Series.
type Indexer struct {
	network      string
	periodLength time.Duration
	querier      chainclient.BalanceQuerier
	repository   *Repository
	assets       assets.Dictionary
	watched      []WatchedAsset
	logger       *log.Logger
}

// New builds a Balance Series Indexer. periodLength defaults to
// DefaultPeriodLength when zero.
func New(network string, periodLength time.Duration, querier chainclient.BalanceQuerier, repository *Repository, dictionary assets.Dictionary, watched []WatchedAsset, logger *log.Logger) *Indexer {
	if periodLength <= 0 {
		periodLength = DefaultPeriodLength
	}
	all := append([]WatchedAsset{{Symbol: "native", Contract: assets.NativeContract}}, watched...)
	return &Indexer{network: network, periodLength: periodLength, querier: querier, repository: repository, assets: dictionary, watched: all, logger: logger}
}

func (ix *Indexer) Name() string { return "balance-series" }

// ProcessBatch implements runtime.Indexer. It groups the
// batch's blocks into periods, accumulates dirty addresses for the still-
// open period, and materializes every period whose end the batch crosses.
// The accumulator is durable (balance_series_pending), so a period left
// open at a batch or process boundary is still closed by the first later
// block that lands in a newer period.
func (ix *Indexer) ProcessBatch(ctx context.Context, blocks []chainmodel.Block) (int64, error) {
	var written int64
	var current int64
	for i, block := range blocks {
		period := PeriodStart(block.TimestampMs, ix.periodLength)

		if i == 0 || period != current {
			open, err := ix.repository.OpenPeriods(ctx, ix.network, period)
			if err != nil {
				return written, err
			}
			for _, p := range open {
				n, err := ix.closePeriod(ctx, p.PeriodStartMs, chainmodel.Height(p.LastHeight))
				if err != nil {
					return written, err
				}
				written += n
			}
			current = period
		}

		for _, addr := range block.Addresses {
			if err := ix.repository.MarkDirty(ctx, ix.network, period, addr, uint32(block.Height)); err != nil {
				return written, err
			}
		}
	}
	// The batch's final period stays open; the next batch that crosses
	// its end writes it.
	return written, nil
}

func (ix *Indexer) closePeriod(ctx context.Context, periodStart int64, closingHeight chainmodel.Height) (int64, error) {
	addresses, err := ix.repository.DirtyAddresses(ctx, ix.network, periodStart)
	if err != nil {
		return 0, err
	}
	if len(addresses) == 0 {
		return 0, nil
	}

	periodEnd := PeriodEnd(periodStart, ix.periodLength)
	var written int64
	for _, addr := range addresses {
		for _, wa := range ix.watched {
			rec, err := ix.snapshot(ctx, addr, wa, periodStart, periodEnd, closingHeight)
			if err != nil {
				return written, err
			}
			if err := ix.repository.Upsert(ctx, rec); err != nil {
				return written, err
			}
			if err := ix.assets.EnsureExists(ctx, ix.network, wa.Contract, wa.Symbol, wa.Symbol, 18, uint32(closingHeight), time.UnixMilli(periodEnd)); err != nil {
				return written, err
			}
			written++
		}
	}
	if err := ix.repository.ClearDirty(ctx, ix.network, periodStart); err != nil {
		return written, err
	}
	return written, nil
}

func (ix *Indexer) snapshot(ctx context.Context, address string, wa WatchedAsset, periodStart, periodEnd int64, closingHeight chainmodel.Height) (Record, error) {
	bal, err := ix.querier.QueryBalance(ctx, closingHeight, address, wa.Symbol)
	if err != nil {
		return Record{}, err
	}
	total := addDecimal(bal.Free, bal.Reserved, bal.Staked)

	prior, ok, err := ix.repository.LatestBefore(ctx, ix.network, address, wa.Symbol, periodStart)
	if err != nil {
		return Record{}, err
	}

	var deltaFree, deltaReserved, deltaStaked, deltaTotal string
	var percent float64
	if ok {
		deltaFree = subDecimal(bal.Free, prior.Free)
		deltaReserved = subDecimal(bal.Reserved, prior.Reserved)
		deltaStaked = subDecimal(bal.Staked, prior.Staked)
		deltaTotal = subDecimal(total, prior.Total)
		percent = percentChange(prior.Total, deltaTotal)
	} else {
		// First record for this (address, asset): deltas equal the
		// balances themselves.
		deltaFree, deltaReserved, deltaStaked, deltaTotal = bal.Free, bal.Reserved, bal.Staked, total
		percent = 0
	}

	return Record{
		PeriodStartMs: periodStart,
		Address:       address,
		Asset:         wa.Symbol,
		Network:       ix.network,
		PeriodEndMs:   periodEnd,
		BlockHeight:   uint32(closingHeight),
		Free:          bal.Free,
		Reserved:      bal.Reserved,
		Staked:        bal.Staked,
		Total:         total,
		DeltaFree:     deltaFree,
		DeltaReserved: deltaReserved,
		DeltaStaked:   deltaStaked,
		DeltaTotal:    deltaTotal,
		PercentChange: percent,
		WrittenAt:     time.Now(),
	}, nil
}

func bigOrZero(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func addDecimal(parts ...string) string {
	sum := big.NewInt(0)
	for _, p := range parts {
		sum.Add(sum, bigOrZero(p))
	}
	return sum.String()
}

func subDecimal(a, b string) string {
	return new(big.Int).Sub(bigOrZero(a), bigOrZero(b)).String()
}

// percentChange returns 100*delta/priorTotal, or 0 if priorTotal is 0.
func percentChange(priorTotal, delta string) float64 {
	prior := bigOrZero(priorTotal)
	if prior.Sign() == 0 {
		return 0
	}
	d := new(big.Float).SetInt(bigOrZero(delta))
	p := new(big.Float).SetInt(prior)
	ratio := new(big.Float).Quo(d, p)
	ratio.Mul(ratio, big.NewFloat(100))
	f, _ := ratio.Float64()
	return f
}
