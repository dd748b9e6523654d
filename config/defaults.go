package config

import "time"

// Public fullnode endpoints.
const (
	MainnetURL  = "https://api.mainnet.iota.cafe"
	TestnetURL  = "https://api.testnet.iota.cafe"
	DevnetURL   = "https://api.devnet.iota.cafe"
	LocalnetURL = "http://127.0.0.1:9000"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			URL:     MainnetURL,
			Timeout: 30 * time.Second,
		},
		Wallet: WalletConfig{
			Name:       "default",
			Scheme:     "ed25519",
			CoinType:   "0x2::iota::IOTA",
			Decimals:   9,
			GasBudget:  5_000_000,
			NetworkKey: "iota_rebased_mainnet",
			CacheTxs:   true,
		},
		Decode: DecodeConfig{
			MaxSize: 1 << 20,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.URL = TestnetURL
	cfg.Wallet.NetworkKey = "iota_rebased_testnet"
	return cfg
}

// DefaultDevnet returns the default configuration for devnet.
func DefaultDevnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Devnet
	cfg.RPC.URL = DevnetURL
	cfg.Wallet.NetworkKey = "iota_rebased_devnet"
	return cfg
}

// DefaultLocalnet returns the default configuration for a local node.
func DefaultLocalnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Localnet
	cfg.RPC.URL = LocalnetURL
	cfg.Wallet.NetworkKey = "iota_rebased_localnet"
	cfg.Wallet.CacheTxs = false
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Devnet:
		return DefaultDevnet()
	case Localnet:
		return DefaultLocalnet()
	default:
		return DefaultMainnet()
	}
}
