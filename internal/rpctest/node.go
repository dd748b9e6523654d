package rpctest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
	"github.com/Klingon-tech/rebased-wallet/pkg/crypto"
	"github.com/Klingon-tech/rebased-wallet/pkg/tx"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// IotaCoinType is the only coin type the node holds.
const IotaCoinType = "0x2::iota::IOTA"

// defaultPageSize applies when a listing request carries no limit.
const defaultPageSize = 50

// Default gas figures. The net charge is 1_500_000.
const (
	DefaultGasPrice    = 1000
	DefaultComputation = 1_000_000
	DefaultStorage     = 2_000_000
	DefaultRebate      = 1_500_000
)

type coinState struct {
	owner   types.AccountAddress
	balance uint64
	version types.SequenceNumber
	digest  types.ObjectDigest
	prevTx  types.TransactionDigest
}

type txRecord struct {
	resp        rpcclient.TransactionBlockResponse
	from        types.AccountAddress
	to          []types.AccountAddress
	hiddenPolls int
}

// Node is an in-memory ledger holding native coins. It executes
// programmable transactions made of SplitCoins, MergeCoins and
// TransferObjects, charging a fixed gas cost, and serves the results over
// the read and indexer methods.
type Node struct {
	mu sync.Mutex

	gasPrice uint64
	gasCost  rpcclient.GasCostSummary
	epoch    uint64
	hideFor  int
	clockMs  uint64
	nextID   uint64

	coins     map[types.ObjectID]*coinState
	coinOrder []types.ObjectID

	txs     map[types.TransactionDigest]*txRecord
	txOrder []types.TransactionDigest

	checkpoints []rpcclient.Checkpoint
}

// NewNode returns an empty ledger with the default gas figures.
func NewNode() *Node {
	return &Node{
		gasPrice: DefaultGasPrice,
		gasCost: rpcclient.GasCostSummary{
			ComputationCost:       DefaultComputation,
			ComputationCostBurned: DefaultComputation,
			StorageCost:           DefaultStorage,
			StorageRebate:         DefaultRebate,
		},
		epoch:   1,
		clockMs: 1_700_000_000_000,
		coins:   make(map[types.ObjectID]*coinState),
		txs:     make(map[types.TransactionDigest]*txRecord),
	}
}

// StartNode starts a server backed by a fresh Node and stops it when the
// test ends.
func StartNode(tb testing.TB) (*Node, *Server) {
	tb.Helper()
	n := NewNode()
	s := New()
	n.Register(s)
	if err := s.Start(); err != nil {
		tb.Fatalf("start rpctest server: %v", err)
	}
	tb.Cleanup(func() { s.Stop() })
	return n, s
}

// Register installs the node's methods on s.
func (n *Node) Register(s *Server) {
	s.Handle(rpcclient.MethodGetCoins, n.handleGetCoins)
	s.Handle(rpcclient.MethodGetBalance, n.handleGetBalance)
	s.Handle(rpcclient.MethodGetReferenceGasPrice, n.handleGetReferenceGasPrice)
	s.Handle(rpcclient.MethodGetTransactionBlock, n.handleGetTransactionBlock)
	s.Handle(rpcclient.MethodGetCheckpoint, n.handleGetCheckpoint)
	s.Handle(rpcclient.MethodQueryTransactionBlocks, n.handleQueryTransactionBlocks)
	s.Handle(rpcclient.MethodExecuteTransaction, n.handleExecute)
	s.Handle(rpcclient.MethodDryRunTransaction, n.handleDryRun)
}

// SetGasPrice sets the reference gas price.
func (n *Node) SetGasPrice(p uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasPrice = p
}

// SetGasCost sets the cost charged to every transaction.
func (n *Node) SetGasCost(g rpcclient.GasCostSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasCost = g
}

// SetVisibilityDelay makes executed transactions invisible to the next
// polls getTransactionBlock calls.
func (n *Node) SetVisibilityDelay(polls int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hideFor = polls
}

// AddCoin mints a coin of balance for owner.
func (n *Node) AddCoin(owner types.AccountAddress, balance uint64) rpcclient.Coin {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.newObjectID()
	c := &coinState{owner: owner, balance: balance, version: 1, digest: objectDigest(id, 1)}
	n.coins[id] = c
	n.coinOrder = append(n.coinOrder, id)
	return toCoin(id, c)
}

// Coins returns the coins owned by owner in creation order.
func (n *Node) Coins(owner types.AccountAddress) []rpcclient.Coin {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []rpcclient.Coin
	for _, id := range n.coinOrder {
		if c := n.coins[id]; c.owner == owner {
			out = append(out, toCoin(id, c))
		}
	}
	return out
}

// BalanceOf sums the coins owned by owner.
func (n *Node) BalanceOf(owner types.AccountAddress) uint64 {
	var total uint64
	for _, c := range n.Coins(owner) {
		total += uint64(c.Balance)
	}
	return total
}

// AddCheckpoint appends a checkpoint and returns it.
func (n *Node) AddCheckpoint() rpcclient.Checkpoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addCheckpoint(nil)
}

// AddTransaction stores a prepared response, indexed under from and to.
func (n *Node) AddTransaction(resp rpcclient.TransactionBlockResponse, from types.AccountAddress, to ...types.AccountAddress) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.record(&txRecord{resp: resp, from: from, to: to})
}

// Transaction returns the stored response for digest.
func (n *Node) Transaction(digest types.TransactionDigest) (rpcclient.TransactionBlockResponse, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	rec, ok := n.txs[digest]
	if !ok {
		return rpcclient.TransactionBlockResponse{}, false
	}
	return rec.resp, true
}

func (n *Node) record(rec *txRecord) {
	if _, ok := n.txs[rec.resp.Digest]; !ok {
		n.txOrder = append(n.txOrder, rec.resp.Digest)
	}
	n.txs[rec.resp.Digest] = rec
}

func (n *Node) addCheckpoint(txs []types.TransactionDigest) rpcclient.Checkpoint {
	seq := uint64(len(n.checkpoints))
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], seq)
	n.clockMs += 1000
	cp := rpcclient.Checkpoint{
		Epoch:          types.BigUint64(n.epoch),
		SequenceNumber: types.BigUint64(seq),
		Digest:         types.CheckpointDigest(crypto.Blake2b256Concat([]byte("checkpoint"), raw[:])),
		TimestampMs:    types.BigUint64(n.clockMs),
		Transactions:   txs,
	}
	if seq > 0 {
		prev := n.checkpoints[seq-1].Digest
		cp.PreviousDigest = &prev
	}
	n.checkpoints = append(n.checkpoints, cp)
	return cp
}

func (n *Node) newObjectID() types.ObjectID {
	n.nextID++
	var id types.ObjectID
	id[0] = 0xc0
	binary.BigEndian.PutUint64(id[24:], n.nextID)
	return id
}

func objectDigest(id types.ObjectID, v types.SequenceNumber) types.ObjectDigest {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], uint64(v))
	return types.ObjectDigest(crypto.Blake2b256Concat(id[:], raw[:]))
}

func toCoin(id types.ObjectID, c *coinState) rpcclient.Coin {
	return rpcclient.Coin{
		CoinType:            IotaCoinType,
		CoinObjectID:        id,
		Version:             c.version,
		Digest:              c.digest,
		Balance:             types.BigUint64(c.balance),
		PreviousTransaction: c.prevTx,
	}
}

// paginate returns the items after cursor, at most limit of them, and
// whether more remain.
func paginate[T any, C comparable](items []T, key func(T) C, cursor *C, limit *uint) ([]T, *C, bool) {
	start := 0
	if cursor != nil {
		start = len(items)
		for i, it := range items {
			if key(it) == *cursor {
				start = i + 1
				break
			}
		}
	}
	size := defaultPageSize
	if limit != nil && *limit > 0 {
		size = int(*limit)
	}
	end := min(start+size, len(items))
	page := items[start:end]
	var next *C
	if len(page) > 0 {
		k := key(page[len(page)-1])
		next = &k
	}
	return page, next, end < len(items)
}

func (n *Node) handleGetCoins(params []json.RawMessage) (any, *Error) {
	var (
		owner    types.AccountAddress
		coinType *string
		cursor   *types.ObjectID
		limit    *uint
	)
	if len(params) == 0 {
		return nil, InvalidParams("owner required")
	}
	for i, target := range []any{&owner, &coinType, &cursor, &limit} {
		if err := param(params, i, target); err != nil {
			return nil, err
		}
	}
	var coins []rpcclient.Coin
	if coinType == nil || *coinType == IotaCoinType {
		coins = n.Coins(owner)
	}
	data, next, more := paginate(coins, func(c rpcclient.Coin) types.ObjectID { return c.CoinObjectID }, cursor, limit)
	if data == nil {
		data = []rpcclient.Coin{}
	}
	return rpcclient.CoinPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

func (n *Node) handleGetBalance(params []json.RawMessage) (any, *Error) {
	var (
		owner    types.AccountAddress
		coinType *string
	)
	if len(params) == 0 {
		return nil, InvalidParams("owner required")
	}
	if err := param(params, 0, &owner); err != nil {
		return nil, err
	}
	if err := param(params, 1, &coinType); err != nil {
		return nil, err
	}
	bal := rpcclient.Balance{CoinType: IotaCoinType, TotalBalance: types.NewU128(0)}
	if coinType != nil {
		bal.CoinType = *coinType
	}
	if bal.CoinType == IotaCoinType {
		coins := n.Coins(owner)
		bal.CoinObjectCount = len(coins)
		bal.TotalBalance = types.NewU128(n.BalanceOf(owner))
	}
	return bal, nil
}

func (n *Node) handleGetReferenceGasPrice([]json.RawMessage) (any, *Error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return types.BigUint64(n.gasPrice), nil
}

func (n *Node) handleGetTransactionBlock(params []json.RawMessage) (any, *Error) {
	var (
		digest types.TransactionDigest
		opts   *rpcclient.ResponseOptions
	)
	if len(params) == 0 {
		return nil, InvalidParams("digest required")
	}
	if err := param(params, 0, &digest); err != nil {
		return nil, err
	}
	if err := param(params, 1, &opts); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	rec, ok := n.txs[digest]
	if ok && rec.hiddenPolls > 0 {
		rec.hiddenPolls--
		ok = false
	}
	if !ok {
		return nil, InvalidParams("Could not find the referenced transaction [TransactionDigest(%s)]", digest)
	}
	return filterResponse(rec.resp, opts), nil
}

func (n *Node) handleGetCheckpoint(params []json.RawMessage) (any, *Error) {
	var id rpcclient.CheckpointID
	if len(params) == 0 {
		return nil, InvalidParams("checkpoint id required")
	}
	if err := param(params, 0, &id); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if seq, ok := id.Sequence(); ok {
		if seq < uint64(len(n.checkpoints)) {
			return n.checkpoints[seq], nil
		}
		return nil, InvalidParams("Verified checkpoint not found for sequence number: %d", seq)
	}
	d, _ := id.Digest()
	for _, cp := range n.checkpoints {
		if cp.Digest == d {
			return cp, nil
		}
	}
	return nil, InvalidParams("Verified checkpoint not found for digest: %s", d)
}

func (n *Node) handleQueryTransactionBlocks(params []json.RawMessage) (any, *Error) {
	var (
		query      rpcclient.TransactionBlockResponseQuery
		cursor     *types.TransactionDigest
		limit      *uint
		descending bool
	)
	for i, target := range []any{&query, &cursor, &limit, &descending} {
		if err := param(params, i, target); err != nil {
			return nil, err
		}
	}

	n.mu.Lock()
	var matched []rpcclient.TransactionBlockResponse
	for _, d := range n.txOrder {
		rec := n.txs[d]
		if matches(rec, query.Filter) {
			matched = append(matched, filterResponse(rec.resp, query.Options))
		}
	}
	n.mu.Unlock()

	if descending {
		slices.Reverse(matched)
	}
	data, next, more := paginate(matched, func(r rpcclient.TransactionBlockResponse) types.TransactionDigest { return r.Digest }, cursor, limit)
	if data == nil {
		data = []rpcclient.TransactionBlockResponse{}
	}
	return rpcclient.TransactionBlocksPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

func matches(rec *txRecord, f *rpcclient.TransactionFilter) bool {
	switch {
	case f == nil:
		return true
	case f.FromAddress != nil:
		return rec.from == *f.FromAddress
	case f.ToAddress != nil:
		return slices.Contains(rec.to, *f.ToAddress)
	}
	return false
}

func filterResponse(r rpcclient.TransactionBlockResponse, opts *rpcclient.ResponseOptions) rpcclient.TransactionBlockResponse {
	var o rpcclient.ResponseOptions
	if opts != nil {
		o = *opts
	}
	if !o.ShowEffects {
		r.Effects = nil
	}
	if !o.ShowEvents {
		r.Events = nil
	}
	if !o.ShowBalanceChanges {
		r.BalanceChanges = nil
	}
	if !o.ShowObjectChanges {
		r.ObjectChanges = nil
	}
	if !o.ShowRawInput {
		r.RawTransaction = nil
	}
	if !o.ShowRawEffects {
		r.RawEffects = nil
	}
	return r
}

func decodeTxBytes(s string) (tx.TransactionData, *Error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return tx.TransactionData{}, InvalidParams("tx bytes are not base64: %v", err)
	}
	td, err := tx.DecodeTransactionData(raw, 0)
	if err != nil {
		return tx.TransactionData{}, InvalidParams("%v", err)
	}
	return td, nil
}

func (n *Node) handleExecute(params []json.RawMessage) (any, *Error) {
	var (
		txBytes     string
		sigStrings  []string
		opts        *rpcclient.ResponseOptions
		requestType *rpcclient.RequestType
	)
	for i, target := range []any{&txBytes, &sigStrings, &opts, &requestType} {
		if err := param(params, i, target); err != nil {
			return nil, err
		}
	}
	td, rpcErr := decodeTxBytes(txBytes)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sigs := make([]crypto.Signature, len(sigStrings))
	for i, s := range sigStrings {
		sig, err := crypto.ParseSignature(s)
		if err != nil {
			return nil, InvalidParams("signature %d: %v", i, err)
		}
		sigs[i] = sig
	}
	if err := tx.FromData(td, sigs).VerifySignatures(); err != nil {
		return nil, InvalidParams("%v", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	res, err := n.run(td)
	if err != nil {
		return nil, InvalidParams("%v", err)
	}
	if rec, ok := n.txs[res.resp.Digest]; ok {
		return filterResponse(rec.resp, opts), nil
	}

	n.coins = res.coins
	n.coinOrder = slices.DeleteFunc(append(n.coinOrder, res.created...), func(id types.ObjectID) bool {
		_, ok := n.coins[id]
		return !ok
	})
	cp := n.addCheckpoint([]types.TransactionDigest{res.resp.Digest})
	seq := cp.SequenceNumber
	ts := cp.TimestampMs
	res.resp.Checkpoint = &seq
	res.resp.TimestampMs = &ts
	n.record(&txRecord{resp: res.resp, from: td.Sender(), to: res.recipients, hiddenPolls: n.hideFor})

	out := filterResponse(res.resp, opts)
	if requestType != nil && *requestType == rpcclient.WaitForLocalExecution {
		confirmed := true
		out.ConfirmedLocalExecution = &confirmed
	}
	return out, nil
}

func (n *Node) handleDryRun(params []json.RawMessage) (any, *Error) {
	var txBytes string
	if err := param(params, 0, &txBytes); err != nil {
		return nil, err
	}
	td, rpcErr := decodeTxBytes(txBytes)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	res, err := n.run(td)
	if err != nil {
		return nil, InvalidParams("%v", err)
	}
	return rpcclient.DryRunTransactionBlockResponse{
		Effects:        *res.resp.Effects,
		Events:         []rpcclient.Event{},
		ObjectChanges:  []rpcclient.ObjectChange{},
		BalanceChanges: res.resp.BalanceChanges,
	}, nil
}

var errUnsupported = errors.New("rpctest: unsupported command")

type runResult struct {
	resp       rpcclient.TransactionBlockResponse
	coins      map[types.ObjectID]*coinState
	created    []types.ObjectID
	recipients []types.AccountAddress
}

// run executes td against a copy of the ledger. An error means the node
// rejects the transaction outright; execution failures are reported in the
// effects status instead.
func (n *Node) run(td tx.TransactionData) (*runResult, error) {
	digest, err := td.Digest()
	if err != nil {
		return nil, err
	}
	gas := td.GasData()
	if len(gas.Payment) == 0 {
		return nil, tx.ErrNoGasPayment
	}
	if gas.Price < n.gasPrice {
		return nil, fmt.Errorf("gas price %d below reference gas price %d", gas.Price, n.gasPrice)
	}

	base := cloneCoins(n.coins)
	inputs := make(map[types.ObjectID]bool)
	for _, ref := range gas.Payment {
		if err := checkRef(base, ref, gas.Owner); err != nil {
			return nil, fmt.Errorf("gas payment: %w", err)
		}
		inputs[ref.ObjectID] = true
	}
	pt := td.Programmable()
	for _, in := range pt.Inputs {
		if in.IsPure() {
			continue
		}
		if in.Object.Kind != tx.ObjImmOrOwned {
			return nil, errUnsupported
		}
		if err := checkRef(base, in.Object.Ref, td.Sender()); err != nil {
			return nil, err
		}
		inputs[in.Object.Ref.ObjectID] = true
	}

	gasID := gas.Payment[0].ObjectID
	for _, ref := range gas.Payment[1:] {
		base[gasID].balance += base[ref.ObjectID].balance
		delete(base, ref.ObjectID)
	}
	if base[gasID].balance < gas.Budget {
		return nil, fmt.Errorf("balance of gas object %d is lower than the needed amount: %d", base[gasID].balance, gas.Budget)
	}

	charged := n.gasCost.NetGasUsed()
	status := rpcclient.ExecutionStatus{Status: "success"}
	after := base
	exec := &ptbRun{
		st:     cloneCoins(base),
		gas:    gasID,
		sender: td.Sender(),
		inputs: pt.Inputs,
		newID:  n.newObjectID,
	}
	if charged > gas.Budget {
		charged = gas.Budget
		status = rpcclient.ExecutionStatus{Status: "failure", Error: "InsufficientGas"}
	} else if err := exec.run(pt.Commands); err != nil {
		if errors.Is(err, errUnsupported) {
			return nil, err
		}
		status = rpcclient.ExecutionStatus{Status: "failure", Error: err.Error()}
	} else {
		after = exec.st
	}
	if !status.IsOK() {
		exec.created = nil
		exec.recipients = nil
	}
	after[gasID].balance -= charged

	var lamport types.SequenceNumber
	for id := range inputs {
		lamport = max(lamport, n.coins[id].version)
	}
	lamport++

	effects := rpcclient.TransactionBlockEffectsV1{
		Status:            status,
		ExecutedEpoch:     types.BigUint64(n.epoch),
		GasUsed:           n.gasCost,
		TransactionDigest: digest,
	}
	if charged < n.gasCost.NetGasUsed() {
		effects.GasUsed = rpcclient.GasCostSummary{ComputationCost: types.BigUint64(charged)}
	}
	touch := func(id types.ObjectID) rpcclient.OwnedObjectRef {
		c := after[id]
		c.version = lamport
		c.digest = objectDigest(id, lamport)
		c.prevTx = digest
		return rpcclient.OwnedObjectRef{
			Owner:     types.AddressOwner(c.owner),
			Reference: types.ObjectRef{ObjectID: id, Version: c.version, Digest: c.digest},
		}
	}
	for _, id := range sortedIDs(inputs) {
		orig := n.coins[id]
		if _, ok := after[id]; !ok {
			effects.Deleted = append(effects.Deleted, types.ObjectRef{ObjectID: id, Version: lamport, Digest: orig.digest})
			continue
		}
		ref := touch(id)
		if id == gasID {
			effects.GasObject = ref
		}
		effects.Mutated = append(effects.Mutated, ref)
	}
	var created []types.ObjectID
	for _, id := range exec.created {
		if _, ok := after[id]; ok {
			effects.Created = append(effects.Created, touch(id))
			created = append(created, id)
		}
	}

	resp := rpcclient.TransactionBlockResponse{
		Digest:         digest,
		Effects:        &rpcclient.TransactionBlockEffects{V1: effects},
		BalanceChanges: balanceChanges(n.coins, after),
	}
	if raw, err := td.Bytes(); err == nil {
		resp.RawTransaction = raw
	}
	return &runResult{resp: resp, coins: after, created: created, recipients: exec.recipients}, nil
}

func checkRef(coins map[types.ObjectID]*coinState, ref types.ObjectRef, owner types.AccountAddress) error {
	c, ok := coins[ref.ObjectID]
	if !ok {
		return fmt.Errorf("object %s not found", ref.ObjectID)
	}
	if c.version != ref.Version || c.digest != ref.Digest {
		return fmt.Errorf("object %s is not available for consumption, current version: %d", ref.ObjectID, c.version)
	}
	if c.owner != owner {
		return fmt.Errorf("object %s is not owned by %s", ref.ObjectID, owner)
	}
	return nil
}

func cloneCoins(in map[types.ObjectID]*coinState) map[types.ObjectID]*coinState {
	out := make(map[types.ObjectID]*coinState, len(in))
	for id, c := range in {
		cp := *c
		out[id] = &cp
	}
	return out
}

func sortedIDs(set map[types.ObjectID]bool) []types.ObjectID {
	ids := make([]types.ObjectID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, types.ObjectID.Compare)
	return ids
}

func balanceChanges(before, after map[types.ObjectID]*coinState) []rpcclient.BalanceChange {
	delta := make(map[types.AccountAddress]int64)
	for _, c := range before {
		delta[c.owner] -= int64(c.balance)
	}
	for _, c := range after {
		delta[c.owner] += int64(c.balance)
	}
	var owners []types.AccountAddress
	for a, d := range delta {
		if d != 0 {
			owners = append(owners, a)
		}
	}
	slices.SortFunc(owners, types.AccountAddress.Compare)
	out := make([]rpcclient.BalanceChange, 0, len(owners))
	for _, a := range owners {
		out = append(out, rpcclient.BalanceChange{
			Owner:    types.AddressOwner(a),
			CoinType: IotaCoinType,
			Amount:   types.NewI128(delta[a]),
		})
	}
	return out
}

// ptbRun interprets coin commands over a ledger copy.
type ptbRun struct {
	st         map[types.ObjectID]*coinState
	gas        types.ObjectID
	sender     types.AccountAddress
	inputs     []tx.CallArg
	results    [][]types.ObjectID
	created    []types.ObjectID
	recipients []types.AccountAddress
	newID      func() types.ObjectID
}

func (r *ptbRun) run(cmds []tx.Command) error {
	for i, cmd := range cmds {
		out, err := r.command(cmd)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Kind, err)
		}
		r.results = append(r.results, out)
	}
	return nil
}

func (r *ptbRun) command(cmd tx.Command) ([]types.ObjectID, error) {
	switch cmd.Kind {
	case tx.CmdSplitCoins:
		src, err := r.coin(cmd.Arg)
		if err != nil {
			return nil, err
		}
		out := make([]types.ObjectID, 0, len(cmd.Args))
		for _, a := range cmd.Args {
			amount, err := r.pureU64(a)
			if err != nil {
				return nil, err
			}
			if r.st[src].balance < amount {
				return nil, fmt.Errorf("InsufficientCoinBalance: %d < %d", r.st[src].balance, amount)
			}
			r.st[src].balance -= amount
			id := r.newID()
			r.st[id] = &coinState{owner: r.sender, balance: amount}
			r.created = append(r.created, id)
			out = append(out, id)
		}
		return out, nil

	case tx.CmdMergeCoins:
		target, err := r.coin(cmd.Arg)
		if err != nil {
			return nil, err
		}
		for _, a := range cmd.Args {
			src, err := r.coin(a)
			if err != nil {
				return nil, err
			}
			if src == target || src == r.gas {
				return nil, fmt.Errorf("cannot merge %s into %s", src, target)
			}
			r.st[target].balance += r.st[src].balance
			delete(r.st, src)
		}
		return nil, nil

	case tx.CmdTransferObjects:
		rec, err := r.pureAddress(cmd.Arg)
		if err != nil {
			return nil, err
		}
		for _, a := range cmd.Args {
			id, err := r.coin(a)
			if err != nil {
				return nil, err
			}
			r.st[id].owner = rec
		}
		if !slices.Contains(r.recipients, rec) {
			r.recipients = append(r.recipients, rec)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnsupported, cmd.Kind)
}

func (r *ptbRun) coin(a tx.Argument) (types.ObjectID, error) {
	var id types.ObjectID
	switch a.Kind {
	case tx.ArgGasCoin:
		id = r.gas
	case tx.ArgInput:
		if int(a.Index) >= len(r.inputs) || r.inputs[a.Index].IsPure() {
			return id, fmt.Errorf("%s is not an object input", a)
		}
		id = r.inputs[a.Index].Object.ID()
	case tx.ArgResult, tx.ArgNestedResult:
		if int(a.Index) >= len(r.results) || int(a.SubIndex) >= len(r.results[a.Index]) {
			return id, fmt.Errorf("%s has no coin", a)
		}
		id = r.results[a.Index][a.SubIndex]
	}
	if _, ok := r.st[id]; !ok {
		return id, fmt.Errorf("%s refers to a consumed coin", a)
	}
	return id, nil
}

func (r *ptbRun) pure(a tx.Argument) ([]byte, error) {
	if a.Kind != tx.ArgInput || int(a.Index) >= len(r.inputs) || !r.inputs[a.Index].IsPure() {
		return nil, fmt.Errorf("%s is not a pure input", a)
	}
	return r.inputs[a.Index].Pure, nil
}

func (r *ptbRun) pureU64(a tx.Argument) (uint64, error) {
	raw, err := r.pure(a)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("%s is not a u64", a)
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func (r *ptbRun) pureAddress(a tx.Argument) (types.AccountAddress, error) {
	raw, err := r.pure(a)
	if err != nil {
		return types.AccountAddress{}, err
	}
	return types.AddressFromBytes(raw)
}
