package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/tx"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Defaults for a Wallet.
const (
	DefaultCoinType   = "0x2::iota::IOTA"
	DefaultDecimals   = 9
	DefaultGasBudget  = 5_000_000
	DefaultNetworkKey = "iota_rebased_testnet"
	// listPageSize is the page requested per direction by GetWalletTxList.
	listPageSize = 25
)

// Façade errors.
var (
	ErrNoKeys                = errors.New("keystore holds no keys")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrFeatureNotImplemented = errors.New("wallet feature not implemented")
	ErrConfirmTimeout        = errors.New("failed to confirm transaction status")
)

// ConfirmTimeoutError is returned by SendAmount when the executed
// transaction did not become readable before the poll timeout.
type ConfirmTimeoutError struct {
	Digest  string
	Elapsed time.Duration
}

func (e *ConfirmTimeoutError) Error() string {
	return fmt.Sprintf("failed to confirm transaction %s status after %ds", e.Digest, int(e.Elapsed.Seconds()))
}

func (e *ConfirmTimeoutError) Unwrap() error { return ErrConfirmTimeout }

// PollConfig controls how SendAmount waits for a submitted transaction.
type PollConfig struct {
	Delay    time.Duration // before the first poll
	Interval time.Duration // between polls
	Timeout  time.Duration // overall bound
}

// DefaultPollConfig waits 200ms, then polls every 2s for up to 60s.
func DefaultPollConfig() PollConfig {
	return PollConfig{Delay: 200 * time.Millisecond, Interval: 2 * time.Second, Timeout: 60 * time.Second}
}

// WalletUser is the surface the application layer drives.
type WalletUser interface {
	GetAddress(ctx context.Context) (string, error)
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	SendAmount(ctx context.Context, intent TransactionIntent) (string, error)
	GetWalletTxList(ctx context.Context, start, limit int) ([]string, error)
	GetWalletTx(ctx context.Context, txHash string) (*WalletTransaction, error)
	EstimateGasCost(ctx context.Context, intent TransactionIntent) (*GasCostEstimation, error)
}

var _ WalletUser = (*Wallet)(nil)

// Wallet implements WalletUser for one unlocked key registry. The account
// in use is the lowest registered address.
type Wallet struct {
	client     *rpcclient.Client
	keys       *Keystore
	coinType   string
	decimals   uint32
	gasBudget  uint64
	networkKey string
	poll       PollConfig
	cache      *TxCache
	logger     zerolog.Logger
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithCoinType sets the coin type used for balances and transfers.
func WithCoinType(coinType string) Option { return func(w *Wallet) { w.coinType = coinType } }

// WithDecimals sets the number of fractional digits of the coin.
func WithDecimals(d uint32) Option { return func(w *Wallet) { w.decimals = d } }

// WithGasBudget sets the budget attached to transfers.
func WithGasBudget(b uint64) Option { return func(w *Wallet) { w.gasBudget = b } }

// WithNetworkKey sets the network key reported on transactions.
func WithNetworkKey(k string) Option { return func(w *Wallet) { w.networkKey = k } }

// WithPolling replaces DefaultPollConfig.
func WithPolling(p PollConfig) Option { return func(w *Wallet) { w.poll = p } }

// WithTxCache enables the settled transaction cache.
func WithTxCache(c *TxCache) Option { return func(w *Wallet) { w.cache = c } }

// WithLogger sets the wallet logger.
func WithLogger(l zerolog.Logger) Option { return func(w *Wallet) { w.logger = l } }

// New returns a wallet signing with keys and talking to client.
func New(client *rpcclient.Client, keys *Keystore, opts ...Option) (*Wallet, error) {
	if keys.Len() == 0 {
		return nil, ErrNoKeys
	}
	w := &Wallet{
		client:     client,
		keys:       keys,
		coinType:   DefaultCoinType,
		decimals:   DefaultDecimals,
		gasBudget:  DefaultGasBudget,
		networkKey: DefaultNetworkKey,
		poll:       DefaultPollConfig(),
		logger:     klog.Wallet,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.decimals > maxDecimals {
		return nil, fmt.Errorf("%w: %d decimals not supported", ErrConversion, w.decimals)
	}
	w.logger = klog.WithNetwork(w.logger, w.networkKey)
	return w, nil
}

// Address returns the account the wallet acts for.
func (w *Wallet) Address() (types.AccountAddress, error) {
	addrs := w.keys.Addresses()
	if len(addrs) == 0 {
		return types.AccountAddress{}, ErrNoKeys
	}
	return addrs[0], nil
}

// GetAddress returns the account address in canonical form.
func (w *Wallet) GetAddress(context.Context) (string, error) {
	addr, err := w.Address()
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// GetBalance returns the total balance of the wallet's coin type.
func (w *Wallet) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	addr, err := w.Address()
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := w.client.GetBalance(ctx, addr, &w.coinType)
	if err != nil {
		return decimal.Zero, err
	}
	return FromBaseUnits(bal.TotalBalance, w.decimals), nil
}

// SendAmount transfers intent.Amount to intent.AddressTo, then polls until
// the node serves the transaction. It returns the transaction digest.
func (w *Wallet) SendAmount(ctx context.Context, intent TransactionIntent) (string, error) {
	signed, err := w.signTransfer(ctx, intent)
	if err != nil {
		return "", err
	}
	txBytes, sigs, err := signed.ToTxBytesAndSignatures()
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := w.client.ExecuteTransactionBlock(ctx, txBytes, sigs, &rpcclient.ResponseOptions{}, nil)
	if err != nil {
		return "", err
	}
	w.logger.Info().Str("digest", resp.Digest.String()).Msg("transaction submitted")
	if len(resp.Errors) > 0 {
		w.logger.Warn().Strs("errors", resp.Errors).Str("digest", resp.Digest.String()).Msg("node reported errors")
	}

	confirmed, err := w.waitForTransaction(ctx, resp.Digest, start)
	if err != nil {
		return "", err
	}
	return confirmed.Digest.String(), nil
}

// waitForTransaction polls getTransactionBlock per w.poll. Cancellation of
// ctx is returned as is; running out of w.poll.Timeout yields a
// ConfirmTimeoutError.
func (w *Wallet) waitForTransaction(ctx context.Context, digest types.TransactionDigest, start time.Time) (*rpcclient.TransactionBlockResponse, error) {
	pollCtx, cancel := context.WithTimeout(ctx, w.poll.Timeout)
	defer cancel()

	timer := time.NewTimer(w.poll.Delay)
	defer timer.Stop()
	for {
		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, &ConfirmTimeoutError{Digest: digest.String(), Elapsed: time.Since(start)}
		case <-timer.C:
		}

		resp, err := w.client.GetTransactionBlock(pollCtx, digest, nil)
		if err == nil {
			return resp, nil
		}
		w.logger.Debug().Err(err).Str("digest", digest.String()).Msg("transaction not visible yet")
		timer.Reset(w.poll.Interval)
	}
}

// GetWalletTxList returns the digests of transactions sent from or to the
// wallet, newest first, without duplicates. The window [start, start+limit)
// is applied to the merged list; limit <= 0 means no upper bound.
func (w *Wallet) GetWalletTxList(ctx context.Context, start, limit int) ([]string, error) {
	addr, err := w.Address()
	if err != nil {
		return nil, err
	}
	w.logger.Debug().Str("address", addr.String()).Msg("querying transactions")

	pageSize := uint(listPageSize)
	seen := make(map[types.TransactionDigest]bool)
	var digests []string
	for _, filter := range []*rpcclient.TransactionFilter{rpcclient.FromAddress(addr), rpcclient.ToAddress(addr)} {
		page, err := w.client.QueryTransactionBlocks(ctx, rpcclient.TransactionBlockResponseQuery{
			Filter:  filter,
			Options: &rpcclient.ResponseOptions{},
		}, nil, &pageSize, true)
		if err != nil {
			return nil, err
		}
		for _, t := range page.Data {
			if !seen[t.Digest] {
				seen[t.Digest] = true
				digests = append(digests, t.Digest.String())
			}
		}
	}

	if start < 0 {
		start = 0
	}
	if start >= len(digests) {
		return []string{}, nil
	}
	digests = digests[start:]
	if limit > 0 && limit < len(digests) {
		digests = digests[:limit]
	}
	return digests, nil
}

// GetWalletTx returns the details of one transaction. Settled results are
// served from the cache when one is configured.
func (w *Wallet) GetWalletTx(ctx context.Context, txHash string) (*WalletTransaction, error) {
	digest, err := types.ParseTransactionDigest(txHash)
	if err != nil {
		return nil, err
	}
	if w.cache != nil {
		cached, err := w.cache.Get(digest.String())
		if err == nil {
			return cached, nil
		}
		if !isMiss(err) {
			w.logger.Warn().Err(err).Str("digest", digest.String()).Msg("tx cache read failed")
		}
	}

	resp, err := w.client.GetTransactionBlock(ctx, digest, rpcclient.FullContent())
	if rpcclient.IsInvalidParams(err) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, digest)
	}
	if err != nil {
		return nil, err
	}

	out, err := w.walletTransaction(ctx, resp)
	if err != nil {
		return nil, err
	}
	if w.cache != nil {
		if _, err := w.cache.Put(out); err != nil {
			w.logger.Warn().Err(err).Str("digest", out.TransactionHash).Msg("tx cache write failed")
		}
	}
	return out, nil
}

func (w *Wallet) walletTransaction(ctx context.Context, resp *rpcclient.TransactionBlockResponse) (*WalletTransaction, error) {
	out := &WalletTransaction{
		Date:            time.Unix(0, 0).UTC(),
		TransactionHash: resp.Digest.String(),
		NetworkKey:      w.networkKey,
		Status:          TxPending,
	}
	if resp.TimestampMs != nil {
		out.Date = time.UnixMilli(int64(*resp.TimestampMs)).UTC()
	}

	if resp.Checkpoint != nil {
		seq := uint64(*resp.Checkpoint)
		cp, err := w.client.GetCheckpoint(ctx, rpcclient.CheckpointBySequence(seq))
		if err != nil {
			return nil, err
		}
		out.BlockNumberHash = &BlockRef{Number: seq, Hash: cp.Digest.String()}
	}

	if resp.Effects != nil {
		if resp.Effects.Status().IsOK() {
			out.Status = TxConfirmed
		} else {
			out.Status = TxConflicting
		}
	}

	sender, receiver, amount, fee, err := transferFromChanges(resp.BalanceChanges)
	if err != nil {
		return nil, err
	}
	out.Sender = sender
	out.Receiver = receiver
	out.Amount = amount.Shift(-int32(w.decimals))
	gasFee := fee.Shift(-int32(w.decimals))
	out.GasFee = &gasFee

	if addr, err := w.Address(); err == nil {
		out.IsSender = addr.String() == sender
	}
	return out, nil
}

// transferFromChanges reads a transfer out of balance changes. The first
// negative change is the sender and what it spent; the first positive change
// is the receiver and the amount. The fee is spent minus amount. Without a
// positive change the transaction is a self-send: amount zero, fee spent.
func transferFromChanges(changes []rpcclient.BalanceChange) (sender, receiver string, amount, fee decimal.Decimal, err error) {
	amount, fee = decimal.Zero, decimal.Zero
	var neg, pos *rpcclient.BalanceChange
	for i := range changes {
		switch s := changes[i].Amount.Sign(); {
		case s < 0 && neg == nil:
			neg = &changes[i]
		case s > 0 && pos == nil:
			pos = &changes[i]
		}
	}
	if neg == nil {
		return "", "", amount, fee, nil
	}

	if sender, err = ownerString(neg.Owner); err != nil {
		return "", "", amount, fee, err
	}
	spent := neg.Amount.Abs()
	if pos == nil {
		return sender, sender, amount, spent, nil
	}
	if receiver, err = ownerString(pos.Owner); err != nil {
		return "", "", amount, fee, err
	}
	amount = pos.Amount.Decimal()
	if fee = spent.Sub(amount); fee.IsNegative() {
		fee = decimal.Zero
	}
	return sender, receiver, amount, fee, nil
}

func ownerString(o types.Owner) (string, error) {
	addr, ok := o.Address()
	if !ok {
		return "", fmt.Errorf("%w: balance change owned by %s", ErrFeatureNotImplemented, o)
	}
	return addr.String(), nil
}

// EstimateGasCost dry-runs the transfer and reports its net gas.
func (w *Wallet) EstimateGasCost(ctx context.Context, intent TransactionIntent) (*GasCostEstimation, error) {
	cost, err := w.dryRun(ctx, intent)
	if err != nil {
		return nil, err
	}
	used := cost.NetGasUsed()
	w.logger.Info().Uint64("gas_used", used).Msg("estimated gas")
	return &GasCostEstimation{GasLimit: used}, nil
}

// SuggestGasBudget dry-runs the transfer and derives a budget from its costs
// at the current reference gas price.
func (w *Wallet) SuggestGasBudget(ctx context.Context, intent TransactionIntent) (uint64, error) {
	cost, err := w.dryRun(ctx, intent)
	if err != nil {
		return 0, err
	}
	price, err := w.client.GetReferenceGasPrice(ctx)
	if err != nil {
		return 0, err
	}
	return tx.GasBudgetFromCosts(uint64(cost.ComputationCost), uint64(cost.StorageCost), uint64(cost.StorageRebate), price), nil
}

func (w *Wallet) dryRun(ctx context.Context, intent TransactionIntent) (rpcclient.GasCostSummary, error) {
	signed, err := w.signTransfer(ctx, intent)
	if err != nil {
		return rpcclient.GasCostSummary{}, err
	}
	txBytes, _, err := signed.ToTxBytesAndSignatures()
	if err != nil {
		return rpcclient.GasCostSummary{}, err
	}
	resp, err := w.client.DryRunTransactionBlock(ctx, txBytes)
	if err != nil {
		return rpcclient.GasCostSummary{}, err
	}
	return resp.Effects.GasUsed(), nil
}

// signTransfer builds and signs the transfer described by intent.
func (w *Wallet) signTransfer(ctx context.Context, intent TransactionIntent) (tx.Transaction, error) {
	sender, err := w.Address()
	if err != nil {
		return tx.Transaction{}, err
	}
	recipient, err := types.ParseAddress(intent.AddressTo)
	if err != nil {
		return tx.Transaction{}, err
	}
	amount, err := ToBaseUnits(intent.Amount, w.decimals)
	if err != nil {
		return tx.Transaction{}, err
	}

	td, err := w.prepareTxData(ctx, sender, recipient, amount)
	if err != nil {
		return tx.Transaction{}, err
	}
	sig, err := w.keys.SignSecure(sender, td, crypto.IotaTransactionIntent())
	if err != nil {
		return tx.Transaction{}, err
	}
	return tx.FromData(td, []crypto.Signature{sig}), nil
}

// prepareTxData funds the transfer from the sender's coins (see
// SelectGasCoins), merges extra coins into the gas coin when needed, then
// splits amount off the gas coin and transfers it to recipient.
func (w *Wallet) prepareTxData(ctx context.Context, sender, recipient types.AccountAddress, amount uint64) (tx.TransactionData, error) {
	coins, err := w.client.GetAllCoins(ctx, sender, &w.coinType)
	if err != nil {
		return tx.TransactionData{}, err
	}
	sel, err := SelectGasCoins(coins, amount, w.gasBudget)
	if err != nil {
		return tx.TransactionData{}, err
	}
	w.logger.Debug().
		Str("gas_coin", sel.Gas.CoinObjectID.String()).
		Int("merged", len(sel.Merge)).
		Uint64("total", sel.Total).
		Msg("selected coins")

	b := tx.NewBuilder()
	if len(sel.Merge) > 0 {
		sources := make([]tx.Argument, len(sel.Merge))
		for i, c := range sel.Merge {
			if sources[i], err = b.Obj(tx.ImmOrOwnedObject(c.ObjRef())); err != nil {
				return tx.TransactionData{}, err
			}
		}
		b.Command(tx.MergeCoinsCommand(tx.GasCoin, sources))
	}

	amt, err := b.Pure(bcs.U64(amount))
	if err != nil {
		return tx.TransactionData{}, err
	}
	rec, err := b.Pure(recipient)
	if err != nil {
		return tx.TransactionData{}, err
	}
	split := b.Command(tx.SplitCoinsCommand(tx.GasCoin, []tx.Argument{amt}))
	b.Command(tx.TransferObjectsCommand([]tx.Argument{tx.NestedResult(split.Index, 0)}, rec))

	price, err := w.client.GetReferenceGasPrice(ctx)
	if err != nil {
		return tx.TransactionData{}, err
	}
	return tx.NewTransactionData(sender, b.Finish(), []types.ObjectRef{sel.Gas.ObjRef()}, w.gasBudget, price), nil
}
