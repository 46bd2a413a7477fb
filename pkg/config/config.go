// Package config loads each consumer's configuration surface: a required
// network identifier, per-consumer batch/milestone tuning, and the
// connection strings for the block stream, columnar store, graph store,
// and chain node. The multi-network surface (per-network decimals, RPC
// endpoints, genesis hash) doesn't fit a flat env-var schema cleanly, so
// it additionally loads a YAML network-definition file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chainswarm/indexer/pkg/chainclient"
)

// Config holds one consumer process's tunables.
type Config struct {
	// Network is the configured network identifier this process serves
	// (required): one of "torus", "bittensor", "polkadot", or any
	// network added to the network definition file.
	Network string

	// NetworksFile points at the YAML file describing every network's
	// connection/normalization parameters.
	NetworksFile string

	// DataDir roots the embedded block stream and checkpoint stores.
	DataDir string

	// DatabaseURL is the Postgres DSN backing the columnar and
	// graph-property stores.
	DatabaseURL string

	// MetricsAddr is where the Prometheus registry is served, if the
	// caller wires an HTTP exporter.
	MetricsAddr string

	// TransfersBatchSize / BalanceSeriesBatchSize / MoneyFlowBatchSize /
	// IngesterBatchSize are each consumer's batch size.
	TransfersBatchSize     uint32
	BalanceSeriesBatchSize uint32
	MoneyFlowBatchSize     uint32
	IngesterBatchSize      int

	// PeriodHours is the Balance Series Indexer's period length.
	PeriodHours int

	// AnalyticsIntervalBlocks is the Money Flow Indexer's periodic-
	// analytics cadence, in blocks processed.
	AnalyticsIntervalBlocks uint32

	// TransfersMilestoneInterval / BalanceSeriesMilestoneInterval /
	// MoneyFlowMilestoneInterval / BlockStreamMilestoneInterval
	// control each consumer's progress-milestone cadence.
	TransfersMilestoneInterval     uint32
	BalanceSeriesMilestoneInterval uint32
	MoneyFlowMilestoneInterval     uint32
	BlockStreamMilestoneInterval   uint32

	// PollInterval is how long a caught-up consumer sleeps before
	// rechecking the block stream tip.
	PollInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Network:      getEnv("NETWORK", ""),
		NetworksFile: getEnv("NETWORKS_FILE", "networks.yaml"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MetricsAddr:  getEnv("METRICS_ADDR", "0.0.0.0:9090"),

		TransfersBatchSize:     uint32(getEnvInt("TRANSFERS_BATCH_SIZE", 100)),
		BalanceSeriesBatchSize: uint32(getEnvInt("BALANCE_SERIES_BATCH_SIZE", 100)),
		MoneyFlowBatchSize:     uint32(getEnvInt("MONEY_FLOW_BATCH_SIZE", 200)),
		IngesterBatchSize:      getEnvInt("INGESTER_BATCH_SIZE", 50),

		PeriodHours: getEnvInt("PERIOD_HOURS", 4),

		AnalyticsIntervalBlocks: uint32(getEnvInt("ANALYTICS_INTERVAL_BLOCKS", 2000)),

		TransfersMilestoneInterval:     uint32(getEnvInt("TRANSFERS_MILESTONE_INTERVAL", 10_000)),
		BalanceSeriesMilestoneInterval: uint32(getEnvInt("BALANCE_SERIES_MILESTONE_INTERVAL", 10_000)),
		MoneyFlowMilestoneInterval:     uint32(getEnvInt("MONEY_FLOW_MILESTONE_INTERVAL", 1_000)),
		BlockStreamMilestoneInterval:   uint32(getEnvInt("BLOCK_STREAM_MILESTONE_INTERVAL", 5_000)),

		PollInterval: getEnvDuration("POLL_INTERVAL", 3*time.Second),
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var errs []string
	if c.Network == "" {
		errs = append(errs, "NETWORK is required")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.PeriodHours <= 0 {
		errs = append(errs, "PERIOD_HOURS must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration invalid:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PeriodLength returns the Balance Series period length as a
// time.Duration.
func (c *Config) PeriodLength() time.Duration {
	return time.Duration(c.PeriodHours) * time.Hour
}

// NetworkFile is the YAML shape of the network definition file: a map of
// network name to connection/normalization parameters, loaded on top of
// pkg/chainclient.KnownNetworks defaults.
type NetworkFile struct {
	Networks map[string]struct {
		RPCEndpoint       string   `yaml:"rpc_endpoint"`
		NativeDecimals    int      `yaml:"native_decimals"`
		NativeSymbol      string   `yaml:"native_symbol"`
		GenesisHash       string   `yaml:"genesis_hash"`
		GenesisAddresses  []string `yaml:"genesis_addresses"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
	} `yaml:"networks"`
}

// LoadNetworks reads the YAML network definition file at path, if
// present, and overlays it onto pkg/chainclient.KnownNetworks. A missing
// file is not an error: the built-in defaults are used as-is.
func LoadNetworks(path string) (map[string]chainclient.NetworkConfig, error) {
	out := make(map[string]chainclient.NetworkConfig, len(chainclient.KnownNetworks))
	for name, nc := range chainclient.KnownNetworks {
		out[name] = nc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("config: read networks file: %w", err)
	}

	var file NetworkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse networks file: %w", err)
	}

	for name, def := range file.Networks {
		nc := out[name]
		nc.Name = name
		if def.RPCEndpoint != "" {
			nc.RPCEndpoint = def.RPCEndpoint
		}
		if def.NativeDecimals != 0 {
			nc.NativeDecimals = def.NativeDecimals
		}
		if def.NativeSymbol != "" {
			nc.NativeSymbol = def.NativeSymbol
		}
		if def.GenesisHash != "" {
			nc.GenesisHash = def.GenesisHash
		}
		if len(def.GenesisAddresses) > 0 {
			nc.GenesisAddresses = def.GenesisAddresses
		}
		if def.RequestsPerSecond != 0 {
			nc.RequestsPerSecond = def.RequestsPerSecond
		}
		out[name] = nc
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
