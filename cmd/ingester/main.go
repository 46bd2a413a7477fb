// Command ingester runs the Block Stream Ingester as an independent
// process: it polls one network's finalized head, fetches new blocks,
// and appends them to the local Block Stream Store.
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
	"github.com/chainswarm/indexer/pkg/chainclient"
	"github.com/chainswarm/indexer/pkg/config"
	"github.com/chainswarm/indexer/pkg/ingest"
	"github.com/chainswarm/indexer/pkg/telemetry"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)

	var (
		network  = flag.String("network", "", "Network to ingest (overrides NETWORK env var)")
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
	tc := telemetry.New("Ingester", metrics)
	tc.Lifecycle("start", fmt.Sprintf("network=%s rpc=%s batch_size=%d", cfg.Network, netCfg.RPCEndpoint, cfg.IngesterBatchSize))

	ctx, cancel := context.WithCancel(context.Background())

	client, err := chainclient.NewSubstrateClient(ctx, netCfg)
	if err != nil {
		log.Fatalf("dial chain client: %v", err)
	}
	defer client.Close()

	store, err := blockstream.Open(filepath.Join(cfg.DataDir, cfg.Network, "blockstream"))
	if err != nil {
		log.Fatalf("open block stream store: %v", err)
	}
	defer store.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		tc.Lifecycle("stop", "received shutdown signal")
		cancel()
	}()

	ingester := ingest.New(client, store, ingest.Config{
		Network:           cfg.Network,
		BatchSize:         cfg.IngesterBatchSize,
		PollInterval:      cfg.PollInterval,
		MilestoneInterval: cfg.BlockStreamMilestoneInterval,
	}, tc)
	if err := ingester.Run(ctx); err != nil {
		tc.Errorf("ingest loop halted: %v", err)
		os.Exit(1)
	}
	tc.Lifecycle("stop", "ingester stopped")
}

func printHelp() {
	fmt.Println("Block Stream Ingester")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ingester [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --network=NAME   Network to ingest (torus, bittensor, polkadot)")
	fmt.Println("  --help           Show this help message")
}
