// Command indexerd runs the ingester and every downstream indexer for
// one network inside a single process, sharing one block stream, one
// checkpoint store, and one database connection pool. The embedded
// block stream and checkpoint databases take an exclusive lock on their
// directory, so this is the deployment mode when all consumers share a
// data directory; the single-purpose binaries suit running one consumer
// at a time against that directory (e.g. an offline projection rebuild).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/chainswarm/indexer/pkg/assets"
	"github.com/chainswarm/indexer/pkg/balanceseries"
	"github.com/chainswarm/indexer/pkg/blockstream"
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/checkpoint"
	"github.com/chainswarm/indexer/pkg/config"
	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/ingest"
	"github.com/chainswarm/indexer/pkg/moneyflow"
	"github.com/chainswarm/indexer/pkg/networkadapter"
	"github.com/chainswarm/indexer/pkg/runtime"
	"github.com/chainswarm/indexer/pkg/schema"
	"github.com/chainswarm/indexer/pkg/telemetry"
	"github.com/chainswarm/indexer/pkg/transfers"
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
	tc := telemetry.New("Indexerd", metrics)
	tc.Lifecycle("start", fmt.Sprintf("network=%s rpc=%s", cfg.Network, netCfg.RPCEndpoint))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := chainclient.NewSubstrateClient(ctx, netCfg)
	if err != nil {
		log.Fatalf("dial chain client: %v", err)
	}
	defer client.Close()

	db, err := database.New(database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	mgr := schema.NewManager(db.DB(), log.New(log.Writer(), "[Schema] ", log.LstdFlags))
	ddl := append([]schema.Chunk{}, schema.AssetsDDL...)
	ddl = append(ddl, schema.TransfersDDL...)
	ddl = append(ddl, schema.BalanceSeriesDDL...)
	ddl = append(ddl, schema.MoneyFlowDDL...)
	if err := mgr.Apply(ctx, ddl); err != nil {
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

	dictionary := assets.NewRepository(db)
	if err := dictionary.EnsureExists(ctx, cfg.Network, assets.NativeContract, netCfg.NativeSymbol, netCfg.NativeSymbol, 18, 0, time.Now()); err != nil {
		log.Fatalf("seed native asset: %v", err)
	}

	ingester := ingest.New(client, store, ingest.Config{
		Network:           cfg.Network,
		BatchSize:         cfg.IngesterBatchSize,
		PollInterval:      cfg.PollInterval,
		MilestoneInterval: cfg.BlockStreamMilestoneInterval,
	}, telemetry.New("Ingester", metrics))

	consumers := []*runtime.Consumer{
		newConsumer(
			transfers.New(cfg.Network, adapter, transfers.NewRepository(db), dictionary, telemetry.New("Transfers", metrics).Logger),
			store, checkpoints, cfg, cfg.TransfersBatchSize, cfg.TransfersMilestoneInterval, metrics, "Transfers"),
		newConsumer(
			balanceseries.New(cfg.Network, cfg.PeriodLength(), client, balanceseries.NewRepository(db), dictionary, nil, telemetry.New("BalanceSeries", metrics).Logger),
			store, checkpoints, cfg, cfg.BalanceSeriesBatchSize, cfg.BalanceSeriesMilestoneInterval, metrics, "BalanceSeries"),
		newConsumer(
			newMoneyFlow(cfg, adapter, db, metrics),
			store, checkpoints, cfg, cfg.MoneyFlowBatchSize, cfg.MoneyFlowMilestoneInterval, metrics, "MoneyFlow"),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		tc.Lifecycle("stop", "received shutdown signal")
		cancel()
	}()

	// The first fatal error cancels every sibling; each loop finishes its
	// current batch's durable commit before exiting.
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ingester.Run(ctx); err != nil {
			fail(err)
		}
	}()
	for _, c := range consumers {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				fail(err)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		tc.Errorf("halted: %v", firstErr)
		os.Exit(1)
	}
	tc.Lifecycle("stop", "indexerd stopped")
}

func newConsumer(ix runtime.Indexer, store *blockstream.Store, checkpoints *checkpoint.Store, cfg *config.Config, batchSize, milestoneInterval uint32, metrics *telemetry.Metrics, component string) *runtime.Consumer {
	rc := runtime.DefaultConfig(cfg.Network)
	rc.BatchSize = batchSize
	rc.MilestoneInterval = milestoneInterval
	rc.PollInterval = cfg.PollInterval
	return runtime.New(ix, store, checkpoints, rc, telemetry.New(component, metrics))
}

func newMoneyFlow(cfg *config.Config, adapter networkadapter.Adapter, db *database.Client, metrics *telemetry.Metrics) *moneyflow.Indexer {
	repository := moneyflow.NewRepository(db)
	analytics := moneyflow.NewAnalytics(repository)
	return moneyflow.New(cfg.Network, adapter, repository, analytics, cfg.AnalyticsIntervalBlocks, telemetry.New("MoneyFlow", metrics).Logger)
}

func printHelp() {
	fmt.Println("Combined Indexer Daemon")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  indexerd [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --network=NAME   Network to index (torus, bittensor, polkadot)")
	fmt.Println("  --help           Show this help message")
}
