package rpcclient

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
	"github.com/mr-tron/base58"
)

func TestCheckpointID_JSON(t *testing.T) {
	byNum := CheckpointBySequence(42)
	raw, err := json.Marshal(byNum)
	if err != nil || string(raw) != `"42"` {
		t.Fatalf("sequence form = %s (%v)", raw, err)
	}
	var back CheckpointID
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n, ok := back.Sequence(); !ok || n != 42 {
		t.Errorf("sequence = %d, %v", n, ok)
	}

	d := types.CheckpointDigest(types.RandomDigest())
	raw, err = json.Marshal(CheckpointByDigest(d))
	if err != nil {
		t.Fatalf("Marshal digest: %v", err)
	}
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal digest: %v", err)
	}
	if got, ok := back.Digest(); !ok || got != d {
		t.Errorf("digest = %s, %v", got, ok)
	}
	if _, ok := back.Sequence(); ok {
		t.Error("digest id should not carry a sequence")
	}

	if err := json.Unmarshal([]byte(`"not-a-digest!"`), &back); err == nil {
		t.Error("garbage id should fail")
	}
	if _, err := json.Marshal(CheckpointID{}); err == nil {
		t.Error("empty id should not marshal")
	}
}

func TestResponseOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    ResponseOptions
		effects bool
		input   bool
		rt      RequestType
	}{
		{"empty", ResponseOptions{}, false, false, WaitForEffectsCert},
		{"input only", ResponseOptions{}.WithInput(), false, true, WaitForEffectsCert},
		{"raw input", ResponseOptions{}.WithRawInput(), false, true, WaitForEffectsCert},
		{"effects", ResponseOptions{}.WithEffects(), true, false, WaitForLocalExecution},
		{"events", ResponseOptions{}.WithEvents(), true, false, WaitForLocalExecution},
		{"balance changes", ResponseOptions{}.WithBalanceChanges(), true, false, WaitForLocalExecution},
		{"object changes", ResponseOptions{}.WithObjectChanges(), true, true, WaitForLocalExecution},
		{"raw effects", ResponseOptions{}.WithRawEffects(), true, false, WaitForLocalExecution},
		{"full", *FullContent(), true, true, WaitForLocalExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.RequireEffects(); got != tt.effects {
				t.Errorf("RequireEffects = %v", got)
			}
			if got := tt.opts.RequireInput(); got != tt.input {
				t.Errorf("RequireInput = %v", got)
			}
			if got := tt.opts.DefaultRequestType(); got != tt.rt {
				t.Errorf("DefaultRequestType = %s", got)
			}
		})
	}
	if FullContent().ShowRawEffects {
		t.Error("full content excludes raw effects")
	}
	if !(ResponseOptions{}).OnlyDigest() || FullContent().OnlyDigest() {
		t.Error("OnlyDigest")
	}

	raw, _ := json.Marshal(ResponseOptions{}.WithEffects())
	if !strings.Contains(string(raw), `"showEffects":true`) || !strings.Contains(string(raw), `"showRawEffects":false`) {
		t.Errorf("options json = %s", raw)
	}
}

func TestGasCostSummary_NetGasUsed(t *testing.T) {
	tests := []struct {
		comp, storage, rebate uint64
		want                  uint64
	}{
		{1_000_000, 2_000_000, 1_500_000, 1_500_000},
		{1000, 0, 0, 1000},
		{1000, 500, 5000, 0},
	}
	for _, tt := range tests {
		g := GasCostSummary{
			ComputationCost: types.BigUint64(tt.comp),
			StorageCost:     types.BigUint64(tt.storage),
			StorageRebate:   types.BigUint64(tt.rebate),
		}
		if got := g.NetGasUsed(); got != tt.want {
			t.Errorf("NetGasUsed(%d,%d,%d) = %d, want %d", tt.comp, tt.storage, tt.rebate, got, tt.want)
		}
	}
}

const effectsJSON = `{
	"messageVersion": "v1",
	"status": {"status": "failure", "error": "InsufficientGas"},
	"executedEpoch": "7",
	"gasUsed": {
		"computationCost": "1000000",
		"computationCostBurned": "1000000",
		"storageCost": "2000000",
		"storageRebate": "500000",
		"nonRefundableStorageFee": "0"
	},
	"transactionDigest": "11111111111111111111111111111111",
	"gasObject": {
		"owner": {"AddressOwner": "0x2"},
		"reference": {"objectId": "0x5", "version": "3", "digest": "11111111111111111111111111111111"}
	},
	"mutated": [],
	"dependencies": []
}`

func TestTransactionBlockEffects_JSON(t *testing.T) {
	var eff TransactionBlockEffects
	if err := json.Unmarshal([]byte(effectsJSON), &eff); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if eff.Status().IsOK() || eff.Status().String() != "failure due to InsufficientGas" {
		t.Errorf("status = %s", eff.Status())
	}
	if eff.V1.ExecutedEpoch != 7 || eff.GasUsed().NetGasUsed() != 2_500_000 {
		t.Errorf("epoch %d net %d", eff.V1.ExecutedEpoch, eff.GasUsed().NetGasUsed())
	}
	if addr, ok := eff.V1.GasObject.Owner.Address(); !ok || addr != types.MustParseAddress("0x2") {
		t.Errorf("gas owner = %s", eff.V1.GasObject.Owner)
	}

	raw, err := json.Marshal(eff)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"messageVersion":"v1"`) {
		t.Errorf("marshalled effects lack the version tag: %s", raw)
	}

	bad := strings.Replace(effectsJSON, `"v1"`, `"v2"`, 1)
	if err := json.Unmarshal([]byte(bad), &eff); err == nil {
		t.Error("unknown messageVersion should fail")
	}
}

func TestEvent_BcsEncodings(t *testing.T) {
	contents := []byte{1, 2, 3, 250}
	base := `{"id":{"txDigest":"11111111111111111111111111111111","eventSeq":"0"},` +
		`"packageId":"0x2","transactionModule":"coin","sender":"0x1","type":"0x2::coin::CoinEvent"`
	tests := []struct {
		name string
		json string
	}{
		{"base64", base + `,"bcsEncoding":"base64","bcs":"` + base64.StdEncoding.EncodeToString(contents) + `"}`},
		{"base58", base + `,"bcsEncoding":"base58","bcs":"` + base58.Encode(contents) + `"}`},
		{"untagged", base + `,"bcs":"` + base58.Encode(contents) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			if err := json.Unmarshal([]byte(tt.json), &ev); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !bytes.Equal(ev.BCS, contents) {
				t.Errorf("bcs = %v", ev.BCS)
			}
			tag, err := ev.StructTag()
			if err != nil || tag.String() != "0x2::coin::CoinEvent" {
				t.Errorf("StructTag = %s (%v)", tag, err)
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if !strings.Contains(string(raw), `"bcsEncoding":"base64"`) {
				t.Errorf("re-encoded event should be base64: %s", raw)
			}
		})
	}

	var ev Event
	if err := json.Unmarshal([]byte(base+`,"bcsEncoding":"hex","bcs":"00"}`), &ev); err == nil {
		t.Error("unknown encoding should fail")
	}
}

func TestTransactionFilter_JSON(t *testing.T) {
	a := types.MustParseAddress("0x7")
	raw, _ := json.Marshal(FromAddress(a))
	if string(raw) != `{"FromAddress":"`+a.String()+`"}` {
		t.Errorf("from filter = %s", raw)
	}
	raw, _ = json.Marshal(ToAddress(a))
	if string(raw) != `{"ToAddress":"`+a.String()+`"}` {
		t.Errorf("to filter = %s", raw)
	}
}

func TestBalanceChange_JSON(t *testing.T) {
	var bc BalanceChange
	in := `{"owner":{"AddressOwner":"0x3"},"coinType":"0x2::iota::IOTA","amount":"-170141183460469231731687303715884105728"}`
	if err := json.Unmarshal([]byte(in), &bc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if bc.Amount.Sign() >= 0 {
		t.Errorf("amount = %s", bc.Amount)
	}
}

func TestPage_TerminalDecode(t *testing.T) {
	const terminal = `{"data":[],"nextCursor":null,"hasNextPage":false}`

	var coins CoinPage
	if err := json.Unmarshal([]byte(terminal), &coins); err != nil {
		t.Fatalf("decode coin page: %v", err)
	}
	if coins.Data == nil || len(coins.Data) != 0 || coins.NextCursor != nil || coins.HasNextPage {
		t.Errorf("coin page = %+v", coins)
	}

	var txs TransactionBlocksPage
	if err := json.Unmarshal([]byte(terminal), &txs); err != nil {
		t.Fatalf("decode transaction page: %v", err)
	}
	if len(txs.Data) != 0 || txs.NextCursor != nil || txs.HasNextPage {
		t.Errorf("transaction page = %+v", txs)
	}

	// A cursor that was set must not survive a terminal page decoded into it.
	id := types.ObjectID(types.MustParseAddress("0x5"))
	reused := CoinPage{NextCursor: &id, HasNextPage: true}
	if err := json.Unmarshal([]byte(terminal), &reused); err != nil {
		t.Fatalf("decode into used page: %v", err)
	}
	if reused.NextCursor != nil || reused.HasNextPage {
		t.Errorf("reused page = %+v", reused)
	}
}
