package chainclient

// NetworkConfig describes one Substrate-based network's connection and
// normalization parameters.
type NetworkConfig struct {
	Name string

	// RPCEndpoint is the node's JSON-RPC 2.0 endpoint (HTTP or WS).
	RPCEndpoint string

	// NativeDecimals is the native asset's on-chain decimal precision
	// (e.g. 18 for Torus, 9 for Bittensor, 10 for Polkadot). The chain
	// client scales raw balances by 10^(18-NativeDecimals) so every
	// amount leaving it is already at the system-wide 18-digit scale.
	NativeDecimals int

	// NativeSymbol is the native asset's ticker.
	NativeSymbol string

	// GenesisHash records the expected chain genesis hash. It is carried
	// in the configuration only; the client does not compare it against
	// the node.
	GenesisHash string

	// GenesisAddresses lists the well-known genesis distribution
	// addresses, labeled "genesis" in the money-flow graph when the
	// network's adapter supports it.
	GenesisAddresses []string

	// RequestsPerSecond caps outbound JSON-RPC calls to this node.
	RequestsPerSecond float64
}

// KnownNetworks holds the built-in definitions for the three supported
// networks. Deployments may override any field via the YAML network file
// (pkg/config).
var KnownNetworks = map[string]NetworkConfig{
	"torus": {
		Name:              "torus",
		NativeDecimals:    18,
		NativeSymbol:      "TORUS",
		RequestsPerSecond: 20,
	},
	"bittensor": {
		Name:              "bittensor",
		NativeDecimals:    9,
		NativeSymbol:      "TAO",
		RequestsPerSecond: 20,
	},
	"polkadot": {
		Name:              "polkadot",
		NativeDecimals:    10,
		NativeSymbol:      "DOT",
		RequestsPerSecond: 20,
	},
}
