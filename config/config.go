// Package config handles wallet client configuration.
//
// Settings come from three layers, later ones winning:
//   - Network defaults (node endpoint, network key)
//   - The config file in the data directory
//   - Command-line flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies the IOTA Rebased network the wallet talks to.
type NetworkType string

const (
	Mainnet  NetworkType = "mainnet"
	Testnet  NetworkType = "testnet"
	Devnet   NetworkType = "devnet"
	Localnet NetworkType = "localnet"
)

// Config holds the client's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Node connection
	RPC RPCConfig

	// Wallet
	Wallet WalletConfig

	// Wire decoding limits
	Decode DecodeConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds node connection settings.
type RPCConfig struct {
	URL       string        `conf:"rpc.url"`
	Timeout   time.Duration `conf:"rpc.timeout"`
	NoTimeout bool          `conf:"rpc.notimeout"` // Bound calls by context only.
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	Name       string `conf:"wallet.name"`
	Scheme     string `conf:"wallet.scheme"` // ed25519 or secp256k1
	Account    uint32 `conf:"wallet.account"`
	Index      uint32 `conf:"wallet.index"`
	CoinType   string `conf:"wallet.cointype"`
	Decimals   int    `conf:"wallet.decimals"`
	GasBudget  uint64 `conf:"wallet.gasbudget"`
	NetworkKey string `conf:"wallet.networkkey"`
	CacheTxs   bool   `conf:"wallet.cachetxs"`
}

// DecodeConfig bounds untrusted BCS input.
type DecodeConfig struct {
	MaxSize int `conf:"decode.maxsize"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.rebased-wallet
//	macOS:   ~/Library/Application Support/RebasedWallet
//	Windows: %APPDATA%\RebasedWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rebased-wallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "RebasedWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "RebasedWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "RebasedWallet")
	default:
		return filepath.Join(home, ".rebased-wallet")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StoreDir returns the Badger directory holding vaults and the tx cache.
func (c *Config) StoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "store")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "wallet.conf")
}
