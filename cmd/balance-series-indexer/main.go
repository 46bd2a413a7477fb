// Command balance-series-indexer runs the Balance Series Indexer
// as an independent process against one network's Block
// Stream Store, snapshotting balances at each period boundary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chainswarm/indexer/pkg/assets"
	"github.com/chainswarm/indexer/pkg/balanceseries"
	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/checkpoint"
	"github.com/chainswarm/indexer/pkg/config"
	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/runtime"
	"github.com/chainswarm/indexer/pkg/schema"
	"github.com/chainswarm/indexer/pkg/telemetry"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)

	var (
		network  = flag.String("network", "", "Network to index (overrides NETWORK env var)")
		showHelp = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if *network != "" {
		cfg.Network = *network
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	networks, err := config.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		log.Fatalf("load networks file: %v", err)
	}
	netCfg, ok := networks[cfg.Network]
	if !ok {
		log.Fatalf("unknown network %q", cfg.Network)
	}

	metrics := telemetry.NewMetrics()
	tc := telemetry.New("BalanceSeries", metrics)
	tc.Lifecycle("start", fmt.Sprintf("network=%s period_hours=%d batch_size=%d", cfg.Network, cfg.PeriodHours, cfg.BalanceSeriesBatchSize))

	ctx := context.Background()

	querier, err := chainclient.NewSubstrateClient(ctx, netCfg)
	if err != nil {
		log.Fatalf("dial chain client: %v", err)
	}
	defer querier.Close()

	db, err := database.New(database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	mgr := schema.NewManager(db.DB(), log.New(log.Writer(), "[Schema] ", log.LstdFlags))
	if err := mgr.Apply(ctx, append(append([]schema.Chunk{}, schema.AssetsDDL...), schema.BalanceSeriesDDL...)); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	store, err := blockstream.Open(filepath.Join(cfg.DataDir, cfg.Network, "blockstream"))
	if err != nil {
		log.Fatalf("open block stream store: %v", err)
	}
	defer store.Close()

	checkpoints, err := checkpoint.Open(filepath.Join(cfg.DataDir, cfg.Network, "checkpoints"))
	if err != nil {
		log.Fatalf("open checkpoint store: %v", err)
	}
	defer checkpoints.Close()

	dictionary := assets.NewRepository(db)
	if err := dictionary.EnsureExists(ctx, cfg.Network, assets.NativeContract, netCfg.NativeSymbol, netCfg.NativeSymbol, 18, 0, time.Now()); err != nil {
		log.Fatalf("seed native asset: %v", err)
	}
	repository := balanceseries.NewRepository(db)
	indexer := balanceseries.New(cfg.Network, cfg.PeriodLength(), querier, repository, dictionary, nil, tc.Logger)

	runtimeCfg := runtime.DefaultConfig(cfg.Network)
	runtimeCfg.BatchSize = cfg.BalanceSeriesBatchSize
	runtimeCfg.MilestoneInterval = cfg.BalanceSeriesMilestoneInterval
	runtimeCfg.PollInterval = cfg.PollInterval
	consumer := runtime.New(indexer, store, checkpoints, runtimeCfg, tc)

	runCtx, cancel := context.WithCancel(ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		tc.Lifecycle("stop", "received shutdown signal")
		cancel()
	}()

	if err := consumer.Run(runCtx); err != nil {
		tc.Errorf("consumer halted: %v", err)
		os.Exit(1)
	}
	tc.Lifecycle("stop", "balance series indexer stopped")
}

func printHelp() {
	fmt.Println("Balance Series Indexer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  balance-series-indexer [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --network=NAME   Network to index (torus, bittensor, polkadot)")
	fmt.Println("  --help           Show this help message")
}
