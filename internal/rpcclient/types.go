package rpcclient

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
	"github.com/mr-tron/base58"
)

// Page is one page of a cursor-paginated listing. NextCursor points at the
// last item of the page; reading from it continues after that item.
type Page[T, C any] struct {
	Data        []T  `json:"data"`
	NextCursor  *C   `json:"nextCursor"`
	HasNextPage bool `json:"hasNextPage"`
}

// Coin is one coin object owned by an address.
type Coin struct {
	CoinType            string                  `json:"coinType"`
	CoinObjectID        types.ObjectID          `json:"coinObjectId"`
	Version             types.SequenceNumber    `json:"version"`
	Digest              types.ObjectDigest      `json:"digest"`
	Balance             types.BigUint64         `json:"balance"`
	PreviousTransaction types.TransactionDigest `json:"previousTransaction"`
}

// ObjRef returns the coin's object reference.
func (c Coin) ObjRef() types.ObjectRef {
	return types.ObjectRef{ObjectID: c.CoinObjectID, Version: c.Version, Digest: c.Digest}
}

// CoinPage is a page of coins keyed by object ID.
type CoinPage = Page[Coin, types.ObjectID]

// Balance is the total balance of one coin type owned by an address.
type Balance struct {
	CoinType        string     `json:"coinType"`
	CoinObjectCount int        `json:"coinObjectCount"`
	TotalBalance    types.U128 `json:"totalBalance"`
}

// Checkpoint is the subset of a checkpoint summary the wallet reads.
type Checkpoint struct {
	Epoch                    types.BigUint64           `json:"epoch"`
	SequenceNumber           types.BigUint64           `json:"sequenceNumber"`
	Digest                   types.CheckpointDigest    `json:"digest"`
	NetworkTotalTransactions types.BigUint64           `json:"networkTotalTransactions,omitempty"`
	PreviousDigest           *types.CheckpointDigest   `json:"previousDigest,omitempty"`
	TimestampMs              types.BigUint64           `json:"timestampMs,omitempty"`
	Transactions             []types.TransactionDigest `json:"transactions,omitempty"`
}

// CheckpointID selects a checkpoint by sequence number or by digest. On the
// wire it is untagged: a decimal string for the number, Base58 for the digest.
type CheckpointID struct {
	seq    *uint64
	digest *types.CheckpointDigest
}

// CheckpointBySequence selects checkpoint n.
func CheckpointBySequence(n uint64) CheckpointID { return CheckpointID{seq: &n} }

// CheckpointByDigest selects the checkpoint with digest d.
func CheckpointByDigest(d types.CheckpointDigest) CheckpointID { return CheckpointID{digest: &d} }

// Sequence returns the sequence number, if this ID holds one.
func (id CheckpointID) Sequence() (uint64, bool) {
	if id.seq == nil {
		return 0, false
	}
	return *id.seq, true
}

// Digest returns the digest, if this ID holds one.
func (id CheckpointID) Digest() (types.CheckpointDigest, bool) {
	if id.digest == nil {
		return types.CheckpointDigest{}, false
	}
	return *id.digest, true
}

func (id CheckpointID) MarshalJSON() ([]byte, error) {
	switch {
	case id.seq != nil:
		return json.Marshal(types.BigUint64(*id.seq))
	case id.digest != nil:
		return json.Marshal(*id.digest)
	}
	return nil, errors.New("empty checkpoint id")
}

func (id *CheckpointID) UnmarshalJSON(data []byte) error {
	var n types.BigUint64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = CheckpointBySequence(uint64(n))
		return nil
	}
	var d types.CheckpointDigest
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("checkpoint id is neither a sequence number nor a digest: %w", err)
	}
	*id = CheckpointByDigest(d)
	return nil
}

// ResponseOptions selects which parts of a transaction response the node
// returns. The zero value returns only the digest.
type ResponseOptions struct {
	ShowInput          bool `json:"showInput"`
	ShowRawInput       bool `json:"showRawInput"`
	ShowEffects        bool `json:"showEffects"`
	ShowEvents         bool `json:"showEvents"`
	ShowObjectChanges  bool `json:"showObjectChanges"`
	ShowBalanceChanges bool `json:"showBalanceChanges"`
	ShowRawEffects     bool `json:"showRawEffects"`
}

// FullContent requests everything except raw effects.
func FullContent() *ResponseOptions {
	return &ResponseOptions{
		ShowInput:          true,
		ShowRawInput:       true,
		ShowEffects:        true,
		ShowEvents:         true,
		ShowObjectChanges:  true,
		ShowBalanceChanges: true,
	}
}

func (o ResponseOptions) WithInput() ResponseOptions          { o.ShowInput = true; return o }
func (o ResponseOptions) WithRawInput() ResponseOptions       { o.ShowRawInput = true; return o }
func (o ResponseOptions) WithEffects() ResponseOptions        { o.ShowEffects = true; return o }
func (o ResponseOptions) WithEvents() ResponseOptions         { o.ShowEvents = true; return o }
func (o ResponseOptions) WithObjectChanges() ResponseOptions  { o.ShowObjectChanges = true; return o }
func (o ResponseOptions) WithBalanceChanges() ResponseOptions { o.ShowBalanceChanges = true; return o }
func (o ResponseOptions) WithRawEffects() ResponseOptions     { o.ShowRawEffects = true; return o }

// RequireInput reports whether the node must load the transaction input.
func (o ResponseOptions) RequireInput() bool {
	return o.ShowInput || o.ShowRawInput || o.ShowObjectChanges
}

// RequireEffects reports whether any requested field depends on effects.
func (o ResponseOptions) RequireEffects() bool {
	return o.ShowEffects || o.ShowEvents || o.ShowBalanceChanges || o.ShowObjectChanges || o.ShowRawEffects
}

// OnlyDigest reports whether nothing beyond the digest is requested.
func (o ResponseOptions) OnlyDigest() bool { return o == ResponseOptions{} }

// DefaultRequestType is the request type used when the caller gives none.
func (o ResponseOptions) DefaultRequestType() RequestType {
	if o.RequireEffects() {
		return WaitForLocalExecution
	}
	return WaitForEffectsCert
}

// RequestType says how long executeTransactionBlock waits before answering.
type RequestType string

const (
	WaitForEffectsCert    RequestType = "WaitForEffectsCert"
	WaitForLocalExecution RequestType = "WaitForLocalExecution"
)

// TransactionFilter selects transactions by sender or by recipient. Exactly
// one field is set.
type TransactionFilter struct {
	FromAddress *types.AccountAddress `json:"FromAddress,omitempty"`
	ToAddress   *types.AccountAddress `json:"ToAddress,omitempty"`
}

// FromAddress filters by sender.
func FromAddress(a types.AccountAddress) *TransactionFilter {
	return &TransactionFilter{FromAddress: &a}
}

// ToAddress filters by recipient.
func ToAddress(a types.AccountAddress) *TransactionFilter {
	return &TransactionFilter{ToAddress: &a}
}

// TransactionBlockResponseQuery is the query of queryTransactionBlocks.
type TransactionBlockResponseQuery struct {
	Filter  *TransactionFilter `json:"filter"`
	Options *ResponseOptions   `json:"options"`
}

// ExecutionStatus is the outcome of executing a transaction.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// IsOK reports success.
func (s ExecutionStatus) IsOK() bool { return s.Status == "success" }

func (s ExecutionStatus) String() string {
	if s.IsOK() {
		return "success"
	}
	return "failure due to " + s.Error
}

// GasCostSummary is the gas charged to a transaction, in base units.
type GasCostSummary struct {
	ComputationCost         types.BigUint64 `json:"computationCost"`
	ComputationCostBurned   types.BigUint64 `json:"computationCostBurned"`
	StorageCost             types.BigUint64 `json:"storageCost"`
	StorageRebate           types.BigUint64 `json:"storageRebate"`
	NonRefundableStorageFee types.BigUint64 `json:"nonRefundableStorageFee"`
}

// NetGasUsed is computation + storage - rebate, floored at zero.
func (g GasCostSummary) NetGasUsed() uint64 {
	spent := uint64(g.ComputationCost) + uint64(g.StorageCost)
	if rebate := uint64(g.StorageRebate); rebate < spent {
		return spent - rebate
	}
	return 0
}

// OwnedObjectRef is an object reference together with its new owner.
type OwnedObjectRef struct {
	Owner     types.Owner     `json:"owner"`
	Reference types.ObjectRef `json:"reference"`
}

// ModifiedAtVersion records the version an input object had before execution.
type ModifiedAtVersion struct {
	ObjectID       types.ObjectID       `json:"objectId"`
	SequenceNumber types.SequenceNumber `json:"sequenceNumber"`
}

// TransactionBlockEffectsV1 are the effects of an executed transaction.
type TransactionBlockEffectsV1 struct {
	Status               ExecutionStatus                `json:"status"`
	ExecutedEpoch        types.BigUint64                `json:"executedEpoch"`
	GasUsed              GasCostSummary                 `json:"gasUsed"`
	ModifiedAtVersions   []ModifiedAtVersion            `json:"modifiedAtVersions,omitempty"`
	SharedObjects        []types.ObjectRef              `json:"sharedObjects,omitempty"`
	TransactionDigest    types.TransactionDigest        `json:"transactionDigest"`
	Created              []OwnedObjectRef               `json:"created,omitempty"`
	Mutated              []OwnedObjectRef               `json:"mutated,omitempty"`
	Unwrapped            []OwnedObjectRef               `json:"unwrapped,omitempty"`
	Deleted              []types.ObjectRef              `json:"deleted,omitempty"`
	UnwrappedThenDeleted []types.ObjectRef              `json:"unwrappedThenDeleted,omitempty"`
	Wrapped              []types.ObjectRef              `json:"wrapped,omitempty"`
	GasObject            OwnedObjectRef                 `json:"gasObject"`
	EventsDigest         *types.TransactionEventsDigest `json:"eventsDigest,omitempty"`
	Dependencies         []types.TransactionDigest      `json:"dependencies,omitempty"`
}

// TransactionBlockEffects is tagged by messageVersion; only "v1" exists.
type TransactionBlockEffects struct {
	V1 TransactionBlockEffectsV1
}

func (e TransactionBlockEffects) MarshalJSON() ([]byte, error) {
	type tagged struct {
		MessageVersion string `json:"messageVersion"`
		TransactionBlockEffectsV1
	}
	return json.Marshal(tagged{MessageVersion: "v1", TransactionBlockEffectsV1: e.V1})
}

func (e *TransactionBlockEffects) UnmarshalJSON(data []byte) error {
	var version struct {
		MessageVersion string `json:"messageVersion"`
	}
	if err := json.Unmarshal(data, &version); err != nil {
		return err
	}
	if version.MessageVersion != "v1" {
		return fmt.Errorf("unknown effects messageVersion %q", version.MessageVersion)
	}
	return json.Unmarshal(data, &e.V1)
}

// Status returns the execution status.
func (e TransactionBlockEffects) Status() ExecutionStatus { return e.V1.Status }

// GasUsed returns the gas summary.
func (e TransactionBlockEffects) GasUsed() GasCostSummary { return e.V1.GasUsed }

// BalanceChange is the net change of one coin type for one owner.
type BalanceChange struct {
	Owner    types.Owner `json:"owner"`
	CoinType string      `json:"coinType"`
	Amount   types.I128  `json:"amount"`
}

// EventID identifies an event within a transaction.
type EventID struct {
	TxDigest types.TransactionDigest `json:"txDigest"`
	EventSeq types.BigUint64         `json:"eventSeq"`
}

// Event is a Move event as rendered by the node. BCS holds the raw event
// contents regardless of which text encoding the node used.
type Event struct {
	ID                EventID               `json:"id"`
	PackageID         types.ObjectID        `json:"packageId"`
	TransactionModule string                `json:"transactionModule"`
	Sender            types.AccountAddress  `json:"sender"`
	Type              string                `json:"type"`
	ParsedJSON        json.RawMessage       `json:"parsedJson,omitempty"`
	BCS               []byte                `json:"-"`
	TimestampMs       *types.BigUint64      `json:"timestampMs,omitempty"`
}

// StructTag parses the event type.
func (e Event) StructTag() (types.StructTag, error) {
	return types.ParseStructTag(e.Type)
}

type eventAlias Event

type eventWire struct {
	eventAlias
	BcsEncoding string `json:"bcsEncoding,omitempty"`
	Bcs         string `json:"bcs"`
}

// MarshalJSON always writes Base64 contents.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire{
		eventAlias:  eventAlias(e),
		BcsEncoding: "base64",
		Bcs:         base64.StdEncoding.EncodeToString(e.BCS),
	})
}

// UnmarshalJSON accepts contents tagged "base64" or "base58", and untagged
// Base58 from older nodes.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var (
		raw []byte
		err error
	)
	switch w.BcsEncoding {
	case "base64":
		raw, err = base64.StdEncoding.DecodeString(w.Bcs)
	case "base58", "":
		raw, err = base58.Decode(w.Bcs)
	default:
		return fmt.Errorf("unknown bcsEncoding %q", w.BcsEncoding)
	}
	if err != nil {
		return fmt.Errorf("decode event bcs (%s): %w", w.BcsEncoding, err)
	}
	*e = Event(w.eventAlias)
	e.BCS = raw
	return nil
}

// ObjectChange describes one object touched by a transaction. Type is one of
// published, transferred, mutated, deleted, wrapped or created; the other
// fields are set as the type requires.
type ObjectChange struct {
	Type            string                `json:"type"`
	Sender          *types.AccountAddress `json:"sender,omitempty"`
	Owner           *types.Owner          `json:"owner,omitempty"`
	Recipient       *types.Owner          `json:"recipient,omitempty"`
	ObjectType      string                `json:"objectType,omitempty"`
	ObjectID        *types.ObjectID       `json:"objectId,omitempty"`
	PackageID       *types.ObjectID       `json:"packageId,omitempty"`
	Version         *types.SequenceNumber `json:"version,omitempty"`
	PreviousVersion *types.SequenceNumber `json:"previousVersion,omitempty"`
	Digest          *types.ObjectDigest   `json:"digest,omitempty"`
	Modules         []string              `json:"modules,omitempty"`
}

// TransactionBlockResponse is the node's view of one transaction. Which
// fields are set depends on the ResponseOptions of the request.
type TransactionBlockResponse struct {
	Digest                  types.TransactionDigest  `json:"digest"`
	Transaction             json.RawMessage          `json:"transaction,omitempty"`
	RawTransaction          []byte                   `json:"rawTransaction,omitempty"`
	Effects                 *TransactionBlockEffects `json:"effects,omitempty"`
	Events                  []Event                  `json:"events,omitempty"`
	ObjectChanges           []ObjectChange           `json:"objectChanges,omitempty"`
	BalanceChanges          []BalanceChange          `json:"balanceChanges,omitempty"`
	TimestampMs             *types.BigUint64         `json:"timestampMs,omitempty"`
	ConfirmedLocalExecution *bool                    `json:"confirmedLocalExecution,omitempty"`
	Checkpoint              *types.BigUint64         `json:"checkpoint,omitempty"`
	Errors                  []string                 `json:"errors,omitempty"`
	RawEffects              []byte                   `json:"rawEffects,omitempty"`
}

// TransactionBlocksPage is a page of transactions keyed by digest.
type TransactionBlocksPage = Page[TransactionBlockResponse, types.TransactionDigest]

// DryRunTransactionBlockResponse is the simulated outcome of a transaction.
type DryRunTransactionBlockResponse struct {
	Effects        TransactionBlockEffects `json:"effects"`
	Events         []Event                 `json:"events"`
	ObjectChanges  []ObjectChange          `json:"objectChanges"`
	BalanceChanges []BalanceChange         `json:"balanceChanges"`
	Input          json.RawMessage         `json:"input,omitempty"`
}
