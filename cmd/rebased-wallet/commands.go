package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Klingon-tech/rebased-wallet/config"
	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
	"github.com/Klingon-tech/rebased-wallet/internal/storage"
	"github.com/Klingon-tech/rebased-wallet/internal/wallet"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/tx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// app runs one command against the configured node and local store.
type app struct {
	cfg          *config.Config
	db           storage.DB
	vault        *wallet.Vault
	out          io.Writer
	readPassword func(prompt string) ([]byte, error)
	logger       zerolog.Logger
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "mnemonic":
		return a.cmdMnemonic(rest)
	case "create":
		return a.cmdCreate()
	case "import":
		return a.cmdImport()
	case "list":
		return a.cmdList()
	case "delete":
		return a.cmdDelete()
	case "export-key":
		return a.cmdExportKey()
	case "address":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdAddress(ctx, w) })
	case "balance":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdBalance(ctx, w) })
	case "send":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdSend(ctx, w, rest) })
	case "estimate":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdEstimate(ctx, w, rest) })
	case "history":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdHistory(ctx, w, rest) })
	case "tx":
		return a.withWallet(func(w *wallet.Wallet) error { return a.cmdTx(ctx, w, rest) })
	case "gas-price":
		return a.cmdGasPrice(ctx)
	case "decode-tx":
		return a.cmdDecodeTx(rest)
	case "clear-cache":
		return a.txCache().Clear()
	case "help":
		config.PrintUsage(a.out)
		return nil
	}
	return fmt.Errorf("unknown command %q (see --help)", cmd)
}

func (a *app) client() *rpcclient.Client {
	opts := []rpcclient.Option{rpcclient.WithLogger(klog.RPC)}
	if a.cfg.RPC.NoTimeout {
		return rpcclient.DialNoTimeout(a.cfg.RPC.URL, opts...)
	}
	return rpcclient.Dial(a.cfg.RPC.URL, append(opts, rpcclient.WithTimeout(a.cfg.RPC.Timeout))...)
}

func (a *app) txCache() *wallet.TxCache {
	return wallet.NewTxCache(a.db, a.cfg.Wallet.NetworkKey)
}

// withWallet unlocks the configured wallet, runs fn and wipes the keys.
func (a *app) withWallet(fn func(*wallet.Wallet) error) error {
	name := a.cfg.Wallet.Name
	password, err := a.readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	keys, err := a.vault.Unlock(name, password, a.cfg.Wallet.Account, a.cfg.Wallet.Index)
	clear(password)
	if err != nil {
		return err
	}
	defer keys.Clear()

	opts := []wallet.Option{
		wallet.WithCoinType(a.cfg.Wallet.CoinType),
		wallet.WithDecimals(uint32(a.cfg.Wallet.Decimals)),
		wallet.WithGasBudget(a.cfg.Wallet.GasBudget),
		wallet.WithNetworkKey(a.cfg.Wallet.NetworkKey),
		wallet.WithLogger(klog.Wallet),
	}
	if a.cfg.Wallet.CacheTxs {
		opts = append(opts, wallet.WithTxCache(a.txCache()))
	}
	w, err := wallet.New(a.client(), keys, opts...)
	if err != nil {
		return err
	}
	return fn(w)
}

func (a *app) cmdMnemonic(args []string) error {
	words := 24
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("word count: %w", err)
		}
		words = n
	}
	m, err := wallet.GenerateMnemonicWords(words)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, m)
	return nil
}

func (a *app) cmdCreate() error {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return fmt.Errorf("generate mnemonic: %w", err)
	}
	fmt.Fprintln(a.out, "Mnemonic (write this down!):")
	fmt.Fprintf(a.out, "  %s\n\n", mnemonic)
	return a.store(mnemonic)
}

func (a *app) cmdImport() error {
	raw, err := a.readPassword("Mnemonic: ")
	if err != nil {
		return fmt.Errorf("read mnemonic: %w", err)
	}
	mnemonic := wallet.NormalizeMnemonic(string(raw))
	clear(raw)
	if !wallet.ValidateMnemonic(mnemonic) {
		return wallet.ErrInvalidMnemonic
	}
	return a.store(mnemonic)
}

// store seals mnemonic under a new password and records the configured
// account.
func (a *app) store(mnemonic string) error {
	scheme, err := crypto.ParseScheme(a.cfg.Wallet.Scheme)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer clear(password)
	confirm, err := a.readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	match := string(password) == string(confirm)
	clear(confirm)
	if !match {
		return errors.New("passwords do not match")
	}

	name := a.cfg.Wallet.Name
	if err := a.vault.Create(name, mnemonic, password, scheme); err != nil {
		return err
	}
	keys, err := a.vault.Unlock(name, password, a.cfg.Wallet.Account, a.cfg.Wallet.Index)
	if err != nil {
		return err
	}
	defer keys.Clear()

	a.logger.Info().Str("wallet", name).Str("scheme", scheme.String()).Msg("wallet created")
	fmt.Fprintf(a.out, "Wallet %q created\n", name)
	for _, addr := range keys.Addresses() {
		fmt.Fprintf(a.out, "Address: %s\n", addr)
	}
	return nil
}

func (a *app) cmdList() error {
	names, err := a.vault.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No wallets")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCHEME\tCREATED\tPATH\tADDRESS")
	for _, name := range names {
		info, err := a.vault.Info(name)
		if err != nil {
			return err
		}
		accounts, err := a.vault.ListAccounts(name)
		if err != nil {
			return err
		}
		created := info.CreatedAt.Format("2006-01-02")
		if len(accounts) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\n", name, info.Scheme, created)
		}
		for _, acct := range accounts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, info.Scheme, created, acct.Path, acct.Address)
		}
	}
	return tw.Flush()
}

func (a *app) cmdDelete() error {
	name := a.cfg.Wallet.Name
	password, err := a.readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	_, err = a.vault.Load(name, password)
	clear(password)
	if err != nil {
		return err
	}
	if err := a.vault.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wallet %q deleted\n", name)
	return nil
}

func (a *app) cmdExportKey() error {
	name := a.cfg.Wallet.Name
	password, err := a.readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	keys, err := a.vault.Unlock(name, password, a.cfg.Wallet.Account, a.cfg.Wallet.Index)
	clear(password)
	if err != nil {
		return err
	}
	defer keys.Clear()

	for _, addr := range keys.Addresses() {
		kp, err := keys.Get(addr)
		if err != nil {
			return err
		}
		encoded, err := crypto.EncodePrivateKey(kp)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s\n", addr, encoded)
	}
	return nil
}

func (a *app) cmdAddress(ctx context.Context, w *wallet.Wallet) error {
	addr, err := w.GetAddress(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, addr)
	return nil
}

func (a *app) cmdBalance(ctx context.Context, w *wallet.Wallet) error {
	bal, err := w.GetBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", bal.String(), coinSymbol(a.cfg.Wallet.CoinType))
	return nil
}

func parseIntent(args []string) (wallet.TransactionIntent, error) {
	if len(args) != 2 {
		return wallet.TransactionIntent{}, errors.New("expected <to> <amount>")
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return wallet.TransactionIntent{}, fmt.Errorf("amount %q: %w", args[1], err)
	}
	return wallet.TransactionIntent{AddressTo: args[0], Amount: amount}, nil
}

func (a *app) cmdSend(ctx context.Context, w *wallet.Wallet, args []string) error {
	intent, err := parseIntent(args)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	digest, err := w.SendAmount(ctx, intent)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Transaction confirmed: %s\n", digest)
	return nil
}

func (a *app) cmdEstimate(ctx context.Context, w *wallet.Wallet, args []string) error {
	intent, err := parseIntent(args)
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	est, err := w.EstimateGasCost(ctx, intent)
	if err != nil {
		return err
	}
	budget, err := w.SuggestGasBudget(ctx, intent)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Gas used:         %d\n", est.GasLimit)
	fmt.Fprintf(a.out, "Suggested budget: %d\n", budget)
	return nil
}

func (a *app) cmdHistory(ctx context.Context, w *wallet.Wallet, args []string) error {
	var bounds [2]int
	for i := 0; i < len(args) && i < 2; i++ {
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			return fmt.Errorf("history: invalid bound %q", args[i])
		}
		bounds[i] = n
	}
	digests, err := w.GetWalletTxList(ctx, bounds[0], bounds[1])
	if err != nil {
		return err
	}
	for _, d := range digests {
		fmt.Fprintln(a.out, d)
	}
	return nil
}

func (a *app) cmdTx(ctx context.Context, w *wallet.Wallet, args []string) error {
	if len(args) != 1 {
		return errors.New("tx: expected <digest>")
	}
	wtx, err := w.GetWalletTx(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(a.out, wtx)
}

func (a *app) cmdGasPrice(ctx context.Context) error {
	price, err := a.client().GetReferenceGasPrice(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, price)
	return nil
}

func (a *app) cmdDecodeTx(args []string) error {
	if len(args) != 1 {
		return errors.New("decode-tx: expected <base64>")
	}
	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decode-tx: %w", err)
	}
	td, err := tx.DecodeTransactionData(raw, a.cfg.Decode.MaxSize)
	if err != nil {
		return err
	}
	digest, err := td.Digest()
	if err != nil {
		return err
	}
	gas := td.GasData()
	fmt.Fprintf(a.out, "Digest:     %s\n", digest)
	fmt.Fprintf(a.out, "Sender:     %s\n", td.Sender())
	fmt.Fprintf(a.out, "Gas owner:  %s\n", gas.Owner)
	fmt.Fprintf(a.out, "Gas price:  %d\n", gas.Price)
	fmt.Fprintf(a.out, "Gas budget: %d\n", gas.Budget)
	fmt.Fprintf(a.out, "Payment:    %d coin(s)\n", len(gas.Payment))
	pt := td.Programmable()
	fmt.Fprintf(a.out, "Inputs:     %d\n", len(pt.Inputs))
	for i, c := range pt.Commands {
		fmt.Fprintf(a.out, "Command %d:  %s\n", i, c.Kind)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// coinSymbol returns the struct name of a coin type, e.g. IOTA.
func coinSymbol(coinType string) string {
	if i := strings.LastIndex(coinType, "::"); i >= 0 {
		return coinType[i+2:]
	}
	return coinType
}
