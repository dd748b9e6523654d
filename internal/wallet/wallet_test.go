package wallet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
	"github.com/Klingon-tech/rebased-wallet/internal/rpctest"
	"github.com/Klingon-tech/rebased-wallet/internal/storage"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var recipient = types.MustParseAddress("0xbeef")

type walletEnv struct {
	node   *rpctest.Node
	server *rpctest.Server
	client *rpcclient.Client
	wallet *Wallet
	addr   types.AccountAddress
}

func fastPoll() PollConfig {
	return PollConfig{Delay: time.Millisecond, Interval: 5 * time.Millisecond, Timeout: 5 * time.Second}
}

func setupWallet(t *testing.T, opts ...Option) *walletEnv {
	t.Helper()
	node, srv := rpctest.StartNode(t)
	ks := NewKeystore()
	addr, err := ks.ImportFromMnemonic(abandonAbout, "", crypto.Ed25519, Ed25519Path(0, 0))
	if err != nil {
		t.Fatalf("ImportFromMnemonic() error: %v", err)
	}
	client := rpcclient.Dial(srv.URL())
	w, err := New(client, ks, append([]Option{WithPolling(fastPoll())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return &walletEnv{node: node, server: srv, client: client, wallet: w, addr: addr}
}

func send(amount string) TransactionIntent {
	return TransactionIntent{AddressTo: recipient.String(), Amount: decimal.RequireFromString(amount)}
}

func TestNew_NoKeys(t *testing.T) {
	if _, err := New(rpcclient.Dial("http://127.0.0.1:1"), NewKeystore()); !errors.Is(err, ErrNoKeys) {
		t.Errorf("New() error = %v, want ErrNoKeys", err)
	}
}

func TestWallet_AddressAndBalance(t *testing.T) {
	env := setupWallet(t)
	ctx := context.Background()

	got, err := env.wallet.GetAddress(ctx)
	if err != nil {
		t.Fatalf("GetAddress() error: %v", err)
	}
	if got != env.addr.String() {
		t.Errorf("GetAddress() = %s, want %s", got, env.addr)
	}

	env.node.AddCoin(env.addr, 1_500_000_000)
	env.node.AddCoin(env.addr, 500_000_001)
	env.node.AddCoin(recipient, 7)

	bal, err := env.wallet.GetBalance(ctx)
	if err != nil {
		t.Fatalf("GetBalance() error: %v", err)
	}
	if bal.String() != "2.000000001" {
		t.Errorf("GetBalance() = %s, want 2.000000001", bal)
	}
}

func TestWallet_SendAmount(t *testing.T) {
	tests := []struct {
		name          string
		coins         []uint64
		amount        string
		wantRecipient uint64
		wantSender    uint64
		wantCoins     int
	}{
		{"single coin", []uint64{10_000_000}, "0.001", 1_000_000, 7_500_000, 1},
		{"merge coins", []uint64{5_000_000, 3_000_000, 2_000_000}, "0.004", 4_000_000, 4_500_000, 1},
		{"merge keeps unused coins", []uint64{2_000_000, 5_000_000, 1_000_000, 9_000}, "0.001", 1_000_000, 5_500_000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupWallet(t)
			for _, b := range tt.coins {
				env.node.AddCoin(env.addr, b)
			}

			digest, err := env.wallet.SendAmount(context.Background(), send(tt.amount))
			if err != nil {
				t.Fatalf("SendAmount() error: %v", err)
			}
			d, err := types.ParseTransactionDigest(digest)
			if err != nil {
				t.Fatalf("returned digest %q: %v", digest, err)
			}
			if _, ok := env.node.Transaction(d); !ok {
				t.Error("node should know the returned digest")
			}
			if got := env.node.BalanceOf(recipient); got != tt.wantRecipient {
				t.Errorf("recipient balance = %d, want %d", got, tt.wantRecipient)
			}
			if got := env.node.BalanceOf(env.addr); got != tt.wantSender {
				t.Errorf("sender balance = %d, want %d", got, tt.wantSender)
			}
			if got := len(env.node.Coins(env.addr)); got != tt.wantCoins {
				t.Errorf("sender coin count = %d, want %d", got, tt.wantCoins)
			}
		})
	}
}

func TestWallet_SendAmount_Rejects(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 1_000_000)
	ctx := context.Background()

	tests := []struct {
		name   string
		intent TransactionIntent
		want   error
	}{
		{"insufficient", send("0.0001"), ErrInsufficientFunds},
		{"negative", send("-1"), ErrConversion},
		{"too precise", send("0.0000000001"), ErrConversion},
		{"bad address", TransactionIntent{AddressTo: "nope", Amount: decimal.NewFromInt(1)}, types.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.wallet.SendAmount(ctx, tt.intent); !errors.Is(err, tt.want) {
				t.Errorf("SendAmount() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(env.server.Calls(rpcclient.MethodExecuteTransaction)); n != 0 {
		t.Errorf("rejected sends reached the node %d times", n)
	}
}

func TestWallet_SendAmount_Polls(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 10_000_000)
	env.node.SetVisibilityDelay(2)

	if _, err := env.wallet.SendAmount(context.Background(), send("0.001")); err != nil {
		t.Fatalf("SendAmount() error: %v", err)
	}
	if n := len(env.server.Calls(rpcclient.MethodGetTransactionBlock)); n != 3 {
		t.Errorf("getTransactionBlock calls = %d, want 3", n)
	}
}

func TestWallet_SendAmount_ConfirmTimeout(t *testing.T) {
	poll := fastPoll()
	poll.Timeout = 50 * time.Millisecond
	env := setupWallet(t, WithPolling(poll))
	env.node.AddCoin(env.addr, 10_000_000)
	env.node.SetVisibilityDelay(1 << 30)

	_, err := env.wallet.SendAmount(context.Background(), send("0.001"))
	var timeout *ConfirmTimeoutError
	if !errors.As(err, &timeout) || !errors.Is(err, ErrConfirmTimeout) {
		t.Fatalf("SendAmount() error = %v, want ConfirmTimeoutError", err)
	}
	if timeout.Digest == "" {
		t.Error("timeout error should carry the digest")
	}
}

func TestWallet_SendAmount_ContextCancel(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 10_000_000)
	env.node.SetVisibilityDelay(1 << 30)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := env.wallet.SendAmount(ctx, send("0.001"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SendAmount() error = %v, want context.DeadlineExceeded", err)
	}
	var timeout *ConfirmTimeoutError
	if errors.As(err, &timeout) {
		t.Error("caller cancellation should not be reported as a confirm timeout")
	}
}

func TestWallet_GetWalletTx_AfterSend(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 10_000_000)
	ctx := context.Background()

	digest, err := env.wallet.SendAmount(ctx, send("0.001"))
	if err != nil {
		t.Fatalf("SendAmount() error: %v", err)
	}
	got, err := env.wallet.GetWalletTx(ctx, digest)
	if err != nil {
		t.Fatalf("GetWalletTx() error: %v", err)
	}

	if got.Status != TxConfirmed {
		t.Errorf("status = %s, want Confirmed", got.Status)
	}
	if got.Sender != env.addr.String() || got.Receiver != recipient.String() || !got.IsSender {
		t.Errorf("sender/receiver = %s/%s is_sender=%v", got.Sender, got.Receiver, got.IsSender)
	}
	if !got.Amount.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("amount = %s, want 0.001", got.Amount)
	}
	if got.GasFee == nil || !got.GasFee.Equal(decimal.RequireFromString("0.0015")) {
		t.Errorf("gas fee = %v, want 0.0015", got.GasFee)
	}
	if got.NetworkKey != DefaultNetworkKey || got.TransactionHash != digest {
		t.Errorf("network/hash = %s/%s", got.NetworkKey, got.TransactionHash)
	}

	d, _ := types.ParseTransactionDigest(digest)
	raw, _ := env.node.Transaction(d)
	if got.BlockNumberHash == nil || got.BlockNumberHash.Number != uint64(*raw.Checkpoint) {
		t.Fatalf("block ref = %+v, want checkpoint %d", got.BlockNumberHash, *raw.Checkpoint)
	}
	cp, err := env.client.GetCheckpoint(ctx, rpcclient.CheckpointBySequence(got.BlockNumberHash.Number))
	if err != nil {
		t.Fatalf("GetCheckpoint() error: %v", err)
	}
	if got.BlockNumberHash.Hash != cp.Digest.String() {
		t.Errorf("block hash = %s, want %s", got.BlockNumberHash.Hash, cp.Digest)
	}
	if !got.Date.Equal(time.UnixMilli(int64(*raw.TimestampMs))) {
		t.Errorf("date = %s", got.Date)
	}
}

func change(owner types.Owner, amount int64) rpcclient.BalanceChange {
	return rpcclient.BalanceChange{Owner: owner, CoinType: rpctest.IotaCoinType, Amount: types.NewI128(amount)}
}

func effects(status string) *rpcclient.TransactionBlockEffects {
	return &rpcclient.TransactionBlockEffects{V1: rpcclient.TransactionBlockEffectsV1{
		Status: rpcclient.ExecutionStatus{Status: status},
	}}
}

func TestWallet_GetWalletTx_Mapping(t *testing.T) {
	other := types.MustParseAddress("0xabc")

	tests := []struct {
		name         string
		effects      *rpcclient.TransactionBlockEffects
		changes      []rpcclient.BalanceChange
		wantStatus   TxStatus
		wantSender   string
		wantReceiver string
		wantAmount   string
		wantFee      string
		wantIsSender bool
	}{
		{
			name:       "no effects is pending",
			changes:    nil,
			wantStatus: TxPending,
			wantAmount: "0",
			wantFee:    "0",
		},
		{
			name:         "failure is conflicting",
			effects:      effects("failure"),
			changes:      []rpcclient.BalanceChange{change(types.AddressOwner(other), -2_000_000)},
			wantStatus:   TxConflicting,
			wantSender:   other.String(),
			wantReceiver: other.String(),
			wantAmount:   "0",
			wantFee:      "0.002",
		},
		{
			name:    "incoming transfer",
			effects: effects("success"),
			changes: []rpcclient.BalanceChange{
				change(types.AddressOwner(other), -3_500_000_000),
				change(types.AddressOwner(recipient), 3_000_000_000),
			},
			wantStatus:   TxConfirmed,
			wantSender:   other.String(),
			wantReceiver: recipient.String(),
			wantAmount:   "3",
			wantFee:      "0.5",
		},
		{
			name:    "positive change listed first",
			effects: effects("success"),
			changes: []rpcclient.BalanceChange{
				change(types.ObjectOwner(recipient), 10),
				change(types.AddressOwner(other), -25),
			},
			wantStatus:   TxConfirmed,
			wantSender:   other.String(),
			wantReceiver: recipient.String(),
			wantAmount:   "0.00000001",
			wantFee:      "0.000000015",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupWallet(t)
			digest := types.TransactionDigest(types.RandomDigest())
			env.node.AddTransaction(rpcclient.TransactionBlockResponse{
				Digest:         digest,
				Effects:        tt.effects,
				BalanceChanges: tt.changes,
			}, other)

			got, err := env.wallet.GetWalletTx(context.Background(), digest.String())
			if err != nil {
				t.Fatalf("GetWalletTx() error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Sender != tt.wantSender || got.Receiver != tt.wantReceiver {
				t.Errorf("sender/receiver = %q/%q, want %q/%q", got.Sender, got.Receiver, tt.wantSender, tt.wantReceiver)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.wantAmount)
			}
			if !got.GasFee.Equal(decimal.RequireFromString(tt.wantFee)) {
				t.Errorf("fee = %s, want %s", got.GasFee, tt.wantFee)
			}
			if got.IsSender {
				t.Error("is_sender should be false for foreign transactions")
			}
			if got.BlockNumberHash != nil || !got.Date.Equal(time.Unix(0, 0)) {
				t.Errorf("unsettled tx should have no block and epoch date, got %+v %s", got.BlockNumberHash, got.Date)
			}
		})
	}
}

func TestWallet_GetWalletTx_Errors(t *testing.T) {
	env := setupWallet(t)
	ctx := context.Background()

	missing := types.TransactionDigest(types.RandomDigest()).String()
	if _, err := env.wallet.GetWalletTx(ctx, missing); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("unknown digest error = %v, want ErrTransactionNotFound", err)
	}
	if _, err := env.wallet.GetWalletTx(ctx, "not-a-digest"); err == nil {
		t.Error("malformed digest should fail")
	}

	shared := types.TransactionDigest(types.RandomDigest())
	env.node.AddTransaction(rpcclient.TransactionBlockResponse{
		Digest:         shared,
		Effects:        effects("success"),
		BalanceChanges: []rpcclient.BalanceChange{change(types.SharedOwner(1), -5)},
	}, env.addr)
	if _, err := env.wallet.GetWalletTx(ctx, shared.String()); !errors.Is(err, ErrFeatureNotImplemented) {
		t.Errorf("shared owner error = %v, want ErrFeatureNotImplemented", err)
	}
}

func TestWallet_GetWalletTx_Cache(t *testing.T) {
	cache := NewTxCache(storage.NewMemory(), "testnet")
	env := setupWallet(t, WithTxCache(cache))
	env.node.AddCoin(env.addr, 10_000_000)
	ctx := context.Background()

	confirmed, err := env.wallet.SendAmount(ctx, send("0.001"))
	if err != nil {
		t.Fatalf("SendAmount() error: %v", err)
	}
	pending := types.TransactionDigest(types.RandomDigest())
	env.node.AddTransaction(rpcclient.TransactionBlockResponse{Digest: pending}, env.addr)

	before := len(env.server.Calls(rpcclient.MethodGetTransactionBlock))
	for range 2 {
		if _, err := env.wallet.GetWalletTx(ctx, confirmed); err != nil {
			t.Fatalf("GetWalletTx(confirmed) error: %v", err)
		}
		if _, err := env.wallet.GetWalletTx(ctx, pending.String()); err != nil {
			t.Fatalf("GetWalletTx(pending) error: %v", err)
		}
	}
	if n := len(env.server.Calls(rpcclient.MethodGetTransactionBlock)) - before; n != 3 {
		t.Errorf("node lookups = %d, want 3 (confirmed once, pending twice)", n)
	}

	digests, _ := cache.Digests()
	if len(digests) != 1 || digests[0] != confirmed {
		t.Errorf("cached digests = %v, want [%s]", digests, confirmed)
	}
}

func TestWallet_GetWalletTxList(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 20_000_000)
	ctx := context.Background()

	var sent []string
	for range 2 {
		d, err := env.wallet.SendAmount(ctx, send("0.001"))
		if err != nil {
			t.Fatalf("SendAmount() error: %v", err)
		}
		sent = append(sent, d)
	}
	self := types.TransactionDigest(types.RandomDigest())
	env.node.AddTransaction(rpcclient.TransactionBlockResponse{Digest: self}, env.addr, env.addr)
	incoming := types.TransactionDigest(types.RandomDigest())
	env.node.AddTransaction(rpcclient.TransactionBlockResponse{Digest: incoming}, recipient, env.addr)
	env.node.AddTransaction(rpcclient.TransactionBlockResponse{Digest: types.TransactionDigest(types.RandomDigest())}, recipient, recipient)

	all, err := env.wallet.GetWalletTxList(ctx, 0, 0)
	if err != nil {
		t.Fatalf("GetWalletTxList() error: %v", err)
	}
	want := []string{self.String(), sent[1], sent[0], incoming.String()}
	if len(all) != len(want) {
		t.Fatalf("GetWalletTxList() = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, all[i], want[i])
		}
	}

	window, _ := env.wallet.GetWalletTxList(ctx, 1, 2)
	if len(window) != 2 || window[0] != want[1] || window[1] != want[2] {
		t.Errorf("window = %v, want %v", window, want[1:3])
	}
	if past, _ := env.wallet.GetWalletTxList(ctx, 10, 5); len(past) != 0 {
		t.Errorf("window past the end = %v", past)
	}
}

func TestWallet_EstimateGasCost(t *testing.T) {
	env := setupWallet(t)
	env.node.AddCoin(env.addr, 10_000_000)
	ctx := context.Background()

	est, err := env.wallet.EstimateGasCost(ctx, send("0.001"))
	if err != nil {
		t.Fatalf("EstimateGasCost() error: %v", err)
	}
	if est.GasLimit != 1_500_000 || est.MaxFeePerGas != 0 || est.MaxPriorityFeePerGas != 0 {
		t.Errorf("EstimateGasCost() = %+v, want gas limit 1500000", est)
	}

	budget, err := env.wallet.SuggestGasBudget(ctx, send("0.001"))
	if err != nil {
		t.Fatalf("SuggestGasBudget() error: %v", err)
	}
	if budget != 2_500_000 {
		t.Errorf("SuggestGasBudget() = %d, want 2500000", budget)
	}

	if env.node.BalanceOf(env.addr) != 10_000_000 {
		t.Error("a dry run must not change balances")
	}
	if n := len(env.server.Calls(rpcclient.MethodExecuteTransaction)); n != 0 {
		t.Errorf("estimation executed %d transactions", n)
	}
}

func TestWallet_LogsCarryNetwork(t *testing.T) {
	var buf bytes.Buffer
	env := setupWallet(t, WithLogger(zerolog.New(&buf)), WithNetworkKey("iota_rebased_testnet"))
	env.node.AddCoin(env.addr, 10_000_000)

	if _, err := env.wallet.EstimateGasCost(context.Background(), send("0.001")); err != nil {
		t.Fatalf("EstimateGasCost() error: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, `"message":"estimated gas"`) {
		t.Fatalf("expected an estimate log line, got %q", line)
	}
	if !strings.Contains(line, `"network":"iota_rebased_testnet"`) {
		t.Errorf("log line %q lacks the network key", line)
	}
}
