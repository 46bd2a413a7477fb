// Command money-flow-indexer runs the Money Flow Indexer
// as an independent process against one network's Block Stream Store,
// maintaining the money-flow graph and its periodic community/PageRank
// analytics.
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

	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/checkpoint"
	"github.com/chainswarm/indexer/pkg/config"
	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/moneyflow"
	"github.com/chainswarm/indexer/pkg/networkadapter"
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
	tc := telemetry.New("MoneyFlow", metrics)
	tc.Lifecycle("start", fmt.Sprintf("network=%s analytics_interval_blocks=%d batch_size=%d", cfg.Network, cfg.AnalyticsIntervalBlocks, cfg.MoneyFlowBatchSize))

	ctx := context.Background()

	db, err := database.New(database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	mgr := schema.NewManager(db.DB(), log.New(log.Writer(), "[Schema] ", log.LstdFlags))
	if err := mgr.Apply(ctx, schema.MoneyFlowDDL); err != nil {
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

	registry := networkadapter.NewRegistry(networkadapter.Torus{}, networkadapter.Bittensor{}, networkadapter.NewPolkadot(netCfg.GenesisAddresses))
	adapter, err := registry.Get(cfg.Network)
	if err != nil {
		log.Fatalf("network adapter: %v", err)
	}

	repository := moneyflow.NewRepository(db)
	analytics := moneyflow.NewAnalytics(repository)
	indexer := moneyflow.New(cfg.Network, adapter, repository, analytics, cfg.AnalyticsIntervalBlocks, tc.Logger)

	runtimeCfg := runtime.DefaultConfig(cfg.Network)
	runtimeCfg.BatchSize = cfg.MoneyFlowBatchSize
	runtimeCfg.MilestoneInterval = cfg.MoneyFlowMilestoneInterval
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
	tc.Lifecycle("stop", "money flow indexer stopped")
}

func printHelp() {
	fmt.Println("Money Flow Indexer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  money-flow-indexer [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --network=NAME   Network to index (torus, bittensor, polkadot)")
	fmt.Println("  --help           Show this help message")
}
