package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNetworksMissingFileUsesDefaults(t *testing.T) {
	networks, err := LoadNetworks(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadNetworks: %v", err)
	}
	nc, ok := networks["bittensor"]
	if !ok {
		t.Fatal("built-in bittensor definition missing")
	}
	if nc.NativeDecimals != 9 || nc.NativeSymbol != "TAO" {
		t.Errorf("bittensor defaults = (decimals=%d, symbol=%s), want (9, TAO)", nc.NativeDecimals, nc.NativeSymbol)
	}
}

func TestLoadNetworksOverlaysFileOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	content := `
networks:
  polkadot:
    rpc_endpoint: "wss://node.example"
    genesis_addresses:
      - "5Gen1"
      - "5Gen2"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write networks file: %v", err)
	}

	networks, err := LoadNetworks(path)
	if err != nil {
		t.Fatalf("LoadNetworks: %v", err)
	}
	nc := networks["polkadot"]
	if nc.RPCEndpoint != "wss://node.example" {
		t.Errorf("RPCEndpoint = %q, want overlay value", nc.RPCEndpoint)
	}
	if nc.NativeDecimals != 10 || nc.NativeSymbol != "DOT" {
		t.Errorf("unset fields should keep defaults, got (decimals=%d, symbol=%s)", nc.NativeDecimals, nc.NativeSymbol)
	}
	if len(nc.GenesisAddresses) != 2 || nc.GenesisAddresses[0] != "5Gen1" || nc.GenesisAddresses[1] != "5Gen2" {
		t.Errorf("GenesisAddresses = %v, want [5Gen1 5Gen2]", nc.GenesisAddresses)
	}
}
