package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments). A missing file yields
// no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.url", "rpc":
		cfg.RPC.URL = value
	case "rpc.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d
	case "rpc.notimeout":
		cfg.RPC.NoTimeout = parseBool(value)

	// Wallet
	case "wallet.name", "wallet":
		cfg.Wallet.Name = value
	case "wallet.scheme":
		cfg.Wallet.Scheme = strings.ToLower(value)
	case "wallet.account":
		n, err := parseUint32(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Account = n
	case "wallet.index":
		n, err := parseUint32(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Index = n
	case "wallet.cointype":
		cfg.Wallet.CoinType = value
	case "wallet.decimals":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Decimals = n
	case "wallet.gasbudget":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Wallet.GasBudget = n
	case "wallet.networkkey":
		cfg.Wallet.NetworkKey = value
	case "wallet.cachetxs":
		cfg.Wallet.CacheTxs = parseBool(value)

	// Decoding
	case "decode.maxsize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Decode.MaxSize = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Rebased Wallet Configuration

# Network: mainnet, testnet, devnet or localnet
network = ` + string(network) + `

# Data directory (default: ~/.rebased-wallet)
# datadir = ~/.rebased-wallet

# ============================================================================
# Node connection
# ============================================================================

# Fullnode endpoint (default: public node for the network)
# rpc.url = ` + cfg.RPC.URL + `
rpc.timeout = 30s
# Bound calls by the command context only
# rpc.notimeout = false

# ============================================================================
# Wallet
# ============================================================================

wallet.name = default
# Key scheme for new wallets: ed25519 or secp256k1
wallet.scheme = ed25519
# wallet.account = 0
# wallet.index = 0
# wallet.gasbudget = 5000000
# wallet.networkkey = ` + cfg.Wallet.NetworkKey + `
# Cache settled transactions locally
wallet.cachetxs = ` + strconv.FormatBool(cfg.Wallet.CacheTxs) + `

# ============================================================================
# Decoding
# ============================================================================

# Largest transaction payload accepted by decode-tx, in bytes
# decode.maxsize = 1048576

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
