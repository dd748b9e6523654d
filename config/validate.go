package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
)

// Validate checks the configuration for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Devnet, Localnet:
	default:
		return fmt.Errorf("network must be one of %q, %q, %q, %q", Mainnet, Testnet, Devnet, Localnet)
	}

	u, err := url.Parse(cfg.RPC.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rpc.url must be an http(s) URL, got %q", cfg.RPC.URL)
	}
	if cfg.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}

	if cfg.Wallet.Name == "" {
		return fmt.Errorf("wallet.name is empty")
	}
	if _, err := crypto.ParseScheme(cfg.Wallet.Scheme); err != nil {
		return fmt.Errorf("wallet.scheme: %w", err)
	}
	if cfg.Wallet.Account >= 1<<31 || cfg.Wallet.Index >= 1<<31 {
		return fmt.Errorf("wallet.account and wallet.index must be below 2^31")
	}
	if cfg.Wallet.CoinType == "" {
		return fmt.Errorf("wallet.cointype is empty")
	}
	if cfg.Wallet.Decimals < 0 || cfg.Wallet.Decimals > 38 {
		return fmt.Errorf("wallet.decimals must be in range [0, 38]")
	}
	if cfg.Wallet.GasBudget == 0 {
		return fmt.Errorf("wallet.gasbudget must be positive")
	}

	if cfg.Decode.MaxSize <= 0 {
		return fmt.Errorf("decode.maxsize must be positive")
	}

	if !slices.Contains(klog.Levels, cfg.Log.Level) {
		return fmt.Errorf("log.level must be one of %s", strings.Join(klog.Levels, ", "))
	}
	return nil
}
