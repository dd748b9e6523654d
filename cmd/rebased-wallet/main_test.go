package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/config"
	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
	"github.com/Klingon-tech/rebased-wallet/internal/rpctest"
	"github.com/Klingon-tech/rebased-wallet/internal/storage"
	"github.com/Klingon-tech/rebased-wallet/internal/wallet"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type harness struct {
	app     *app
	out     *bytes.Buffer
	node    *rpctest.Node
	server  *rpctest.Server
	answers []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	node, srv := rpctest.StartNode(t)
	cfg := config.DefaultLocalnet()
	cfg.RPC.URL = srv.URL()
	cfg.Wallet.CacheTxs = true

	db := storage.NewMemory()
	h := &harness{out: &bytes.Buffer{}, node: node, server: srv}
	h.app = &app{
		cfg:   cfg,
		db:    db,
		vault: wallet.NewVault(db, wallet.EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}),
		out:   h.out,
		readPassword: func(string) ([]byte, error) {
			if len(h.answers) == 0 {
				return nil, errors.New("no input")
			}
			a := h.answers[0]
			h.answers = h.answers[1:]
			return []byte(a), nil
		},
		logger: klog.CLI,
	}
	return h
}

// exec runs a command with the given prompt answers and returns its output.
func (h *harness) exec(t *testing.T, answers []string, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	h.answers = answers
	err := h.app.run(context.Background(), args)
	return h.out.String(), err
}

func (h *harness) mustExec(t *testing.T, answers []string, args ...string) string {
	t.Helper()
	out, err := h.exec(t, answers, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func testAddress(t *testing.T) types.AccountAddress {
	t.Helper()
	addr, err := wallet.NewKeystore().ImportFromMnemonic(testMnemonic, "", crypto.Ed25519, wallet.Ed25519Path(0, 0))
	if err != nil {
		t.Fatalf("ImportFromMnemonic() error: %v", err)
	}
	return addr
}

func TestCLI_ImportAndInspect(t *testing.T) {
	h := newHarness(t)
	addr := testAddress(t)

	out := h.mustExec(t, []string{"  ABANDON " + testMnemonic[8:], "pw", "pw"}, "import")
	if !strings.Contains(out, "Address: "+addr.String()) {
		t.Fatalf("import output = %q, want address %s", out, addr)
	}

	out = h.mustExec(t, nil, "list")
	if !strings.Contains(out, "default") || !strings.Contains(out, addr.String()) || !strings.Contains(out, "m/44'/4218'/0'/0'/0'") {
		t.Errorf("list output = %q", out)
	}

	if out := h.mustExec(t, []string{"pw"}, "address"); strings.TrimSpace(out) != addr.String() {
		t.Errorf("address = %q, want %s", out, addr)
	}

	h.node.AddCoin(addr, 2_000_000_000)
	if out := h.mustExec(t, []string{"pw"}, "balance"); strings.TrimSpace(out) != "2 IOTA" {
		t.Errorf("balance = %q, want \"2 IOTA\"", out)
	}

	out = h.mustExec(t, []string{"pw"}, "export-key")
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != addr.String() {
		t.Fatalf("export-key output = %q", out)
	}
	kp, err := crypto.DecodePrivateKey(fields[1])
	if err != nil || kp.Address() != addr {
		t.Errorf("exported key does not round-trip: %v", err)
	}

	if _, err := h.exec(t, []string{"wrong"}, "balance"); !errors.Is(err, wallet.ErrDecrypt) {
		t.Errorf("wrong password error = %v, want ErrDecrypt", err)
	}
}

func TestCLI_CreateRejects(t *testing.T) {
	h := newHarness(t)

	if _, err := h.exec(t, []string{"a", "b"}, "create"); err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Errorf("mismatched passwords error = %v", err)
	}
	if _, err := h.exec(t, []string{"not a mnemonic"}, "import"); !errors.Is(err, wallet.ErrInvalidMnemonic) {
		t.Errorf("bad mnemonic error = %v", err)
	}
	h.mustExec(t, []string{"pw", "pw"}, "create")
	if _, err := h.exec(t, []string{"pw", "pw"}, "create"); !errors.Is(err, wallet.ErrWalletExists) {
		t.Errorf("second create error = %v, want ErrWalletExists", err)
	}
}

func TestCLI_SendAndHistory(t *testing.T) {
	h := newHarness(t)
	addr := testAddress(t)
	h.mustExec(t, []string{testMnemonic, "pw", "pw"}, "import")
	h.node.AddCoin(addr, 10_000_000)
	to := types.MustParseAddress("0xbeef")

	out := h.mustExec(t, []string{"pw"}, "send", to.String(), "0.001")
	digest, ok := strings.CutPrefix(strings.TrimSpace(out), "Transaction confirmed: ")
	if !ok {
		t.Fatalf("send output = %q", out)
	}
	if got := h.node.BalanceOf(to); got != 1_000_000 {
		t.Errorf("recipient balance = %d, want 1000000", got)
	}

	if out := h.mustExec(t, []string{"pw"}, "history"); strings.TrimSpace(out) != digest {
		t.Errorf("history = %q, want %s", out, digest)
	}

	out = h.mustExec(t, []string{"pw"}, "tx", digest)
	var wtx wallet.WalletTransaction
	if err := json.Unmarshal([]byte(out), &wtx); err != nil {
		t.Fatalf("tx output is not JSON: %v\n%s", err, out)
	}
	if wtx.Status != wallet.TxConfirmed || wtx.Receiver != to.String() || !wtx.IsSender {
		t.Errorf("tx = %+v", wtx)
	}
	if wtx.NetworkKey != "iota_rebased_localnet" {
		t.Errorf("network key = %s", wtx.NetworkKey)
	}

	cached, _ := h.app.txCache().Digests()
	if len(cached) != 1 || cached[0] != digest {
		t.Errorf("cache = %v, want [%s]", cached, digest)
	}
	h.mustExec(t, nil, "clear-cache")
	if cached, _ := h.app.txCache().Digests(); len(cached) != 0 {
		t.Errorf("cache after clear-cache = %v", cached)
	}

	calls := h.server.Calls(rpcclient.MethodExecuteTransaction)
	if len(calls) != 1 {
		t.Fatalf("execute calls = %d", len(calls))
	}
	var txBytes string
	if err := json.Unmarshal(calls[0].Params[0], &txBytes); err != nil {
		t.Fatalf("tx bytes param: %v", err)
	}
	out = h.mustExec(t, nil, "decode-tx", txBytes)
	for _, want := range []string{"Digest:     " + digest, "Sender:     " + addr.String(), "SplitCoins", "TransferObjects"} {
		if !strings.Contains(out, want) {
			t.Errorf("decode-tx output missing %q:\n%s", want, out)
		}
	}

	h.app.cfg.Decode.MaxSize = 16
	if _, err := h.exec(t, nil, "decode-tx", txBytes); err == nil {
		t.Error("decode-tx should honour decode.maxsize")
	}
}

func TestCLI_Estimate(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, []string{testMnemonic, "pw", "pw"}, "import")
	h.node.AddCoin(testAddress(t), 10_000_000)

	out := h.mustExec(t, []string{"pw"}, "estimate", "0xbeef", "0.001")
	if !strings.Contains(out, "Gas used:         1500000") || !strings.Contains(out, "Suggested budget: 2500000") {
		t.Errorf("estimate output = %q", out)
	}
	if _, err := h.exec(t, []string{"pw"}, "estimate", "0xbeef"); err == nil {
		t.Error("estimate without amount should fail")
	}
}

func TestCLI_Misc(t *testing.T) {
	h := newHarness(t)

	if out := h.mustExec(t, nil, "gas-price"); strings.TrimSpace(out) != "1000" {
		t.Errorf("gas-price = %q", out)
	}
	if out := h.mustExec(t, nil, "mnemonic", "12"); len(strings.Fields(out)) != 12 {
		t.Errorf("mnemonic 12 = %q", out)
	}
	if _, err := h.exec(t, nil, "mnemonic", "13"); err == nil {
		t.Error("13 words should fail")
	}
	if out := h.mustExec(t, nil, "list"); strings.TrimSpace(out) != "No wallets" {
		t.Errorf("empty list = %q", out)
	}
	if _, err := h.exec(t, nil, "frobnicate"); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestCLI_Delete(t *testing.T) {
	h := newHarness(t)
	h.mustExec(t, []string{testMnemonic, "pw", "pw"}, "import")

	if _, err := h.exec(t, []string{"nope"}, "delete"); !errors.Is(err, wallet.ErrDecrypt) {
		t.Errorf("delete with wrong password error = %v", err)
	}
	h.mustExec(t, []string{"pw"}, "delete")
	if out := h.mustExec(t, nil, "list"); strings.TrimSpace(out) != "No wallets" {
		t.Errorf("list after delete = %q", out)
	}
}

func TestCoinSymbol(t *testing.T) {
	for in, want := range map[string]string{
		"0x2::iota::IOTA": "IOTA",
		"plain":           "plain",
	} {
		if got := coinSymbol(in); got != want {
			t.Errorf("coinSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
