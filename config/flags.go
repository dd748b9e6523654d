package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrHelp is returned by Load when --help was requested.
var ErrHelp = flag.ErrHelp

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	Testnet bool
	DataDir string
	Config  string

	// RPC
	RPCURL       string
	RPCTimeout   time.Duration
	RPCNoTimeout bool

	// Wallet
	Wallet    string
	Scheme    string
	Account   uint
	Index     uint
	GasBudget uint64
	NoCache   bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Command and its arguments
	Args []string

	// Explicitly-set flags whose zero value is meaningful.
	SetAccount      bool
	SetIndex        bool
	SetRPCNoTimeout bool
	SetLogJSON      bool
}

// ParseFlags parses command-line arguments, excluding the program name.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("rebased-wallet", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network (mainnet, testnet, devnet, localnet)")
	fs.BoolVar(&f.Testnet, "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// RPC
	fs.StringVar(&f.RPCURL, "rpc-url", "", "Fullnode JSON-RPC URL")
	fs.DurationVar(&f.RPCTimeout, "rpc-timeout", 0, "Per-request timeout")
	fs.BoolVar(&f.RPCNoTimeout, "rpc-notimeout", false, "Disable the per-request timeout")

	// Wallet
	fs.StringVar(&f.Wallet, "wallet", "", "Wallet name")
	fs.StringVar(&f.Scheme, "scheme", "", "Key scheme for new wallets (ed25519, secp256k1)")
	fs.UintVar(&f.Account, "account", 0, "Derivation account")
	fs.UintVar(&f.Index, "index", 0, "Derivation address index")
	fs.Uint64Var(&f.GasBudget, "gas-budget", 0, "Gas budget for transfers")
	fs.BoolVar(&f.NoCache, "no-cache", false, "Do not cache settled transactions")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if f.Testnet {
		f.Network = string(Testnet)
	}
	f.SetAccount = isFlagSet(fs, "account")
	f.SetIndex = isFlagSet(fs, "index")
	f.SetRPCNoTimeout = isFlagSet(fs, "rpc-notimeout")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// RPC
	if f.RPCURL != "" {
		cfg.RPC.URL = f.RPCURL
	}
	if f.RPCTimeout != 0 {
		cfg.RPC.Timeout = f.RPCTimeout
	}
	if f.SetRPCNoTimeout {
		cfg.RPC.NoTimeout = f.RPCNoTimeout
	}

	// Wallet
	if f.Wallet != "" {
		cfg.Wallet.Name = f.Wallet
	}
	if f.Scheme != "" {
		cfg.Wallet.Scheme = strings.ToLower(f.Scheme)
	}
	if f.SetAccount {
		cfg.Wallet.Account = uint32(f.Account)
	}
	if f.SetIndex {
		cfg.Wallet.Index = uint32(f.Index)
	}
	if f.GasBudget != 0 {
		cfg.Wallet.GasBudget = f.GasBudget
	}
	if f.NoCache {
		cfg.Wallet.CacheTxs = false
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the command-line help to w.
func PrintUsage(w io.Writer) {
	usage := `Rebased Wallet - command-line wallet for the IOTA Rebased network

Usage:
  rebased-wallet [options] <command> [arguments]

Commands:
  mnemonic [words]              Generate a new mnemonic (default 24 words)
  create                        Create a wallet from a new mnemonic
  import                        Create a wallet from an existing mnemonic
  list                          List stored wallets
  delete                        Delete the selected wallet
  export-key                    Print the wallet's Bech32 private key
  address                       Show the wallet address
  balance                       Show the wallet balance
  send <to> <amount>            Send coins and wait for confirmation
  estimate <to> <amount>        Dry-run a transfer and report its gas
  history [start] [limit]       List transaction digests touching the wallet
  tx <digest>                   Show a wallet transaction
  gas-price                     Show the reference gas price
  decode-tx <base64>            Decode transaction bytes
  clear-cache                   Drop cached transactions

Core Options:
  --network       Network: mainnet (default), testnet, devnet, localnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.rebased-wallet)
  --config, -c    Config file path (default: <datadir>/wallet.conf)

RPC Options:
  --rpc-url        Fullnode JSON-RPC URL (default: public node for the network)
  --rpc-timeout    Per-request timeout (default: 30s)
  --rpc-notimeout  Bound calls by the command only

Wallet Options:
  --wallet        Wallet name (default: default)
  --scheme        Key scheme for new wallets: ed25519 (default) or secp256k1
  --account       Derivation account (default: 0)
  --index         Derivation address index (default: 0)
  --gas-budget    Gas budget for transfers (default: 5000000)
  --no-cache      Do not cache settled transactions

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stdout)
  --log-json      Output logs as JSON

Examples:
  rebased-wallet --testnet create
  rebased-wallet --testnet balance
  rebased-wallet --testnet send 0x1f2e... 1.5
`
	fmt.Fprint(w, usage)
}

// Load loads configuration with the following precedence:
// 1. Network defaults
// 2. Config file
// 3. Command-line flags
//
// The data directory and a default config file are created on first use.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, ErrHelp
		}
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default(NetworkType(strings.ToLower(flags.Network)))
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)

	// The endpoint and network key follow the final network unless set
	// explicitly.
	def := Default(cfg.Network)
	if _, ok := fileValues["rpc.url"]; !ok && flags.RPCURL == "" {
		cfg.RPC.URL = def.RPC.URL
	}
	if _, ok := fileValues["wallet.networkkey"]; !ok {
		cfg.Wallet.NetworkKey = def.Wallet.NetworkKey
	}

	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(cfg.StoreDir(), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating store dir: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory and a default config file if
// they don't already exist. Safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
