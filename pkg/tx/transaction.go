// Package tx defines the programmable transaction model, its canonical
// encoding, the transaction builder and the signed envelope.
package tx

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// TransactionKind is what a transaction does. Only programmable
// transactions can be built by clients; system kinds are never constructed
// here.
type TransactionKind struct {
	Programmable ProgrammableTransaction
}

// NewProgrammableKind wraps pt.
func NewProgrammableKind(pt ProgrammableTransaction) TransactionKind {
	return TransactionKind{Programmable: pt}
}

func (k TransactionKind) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(0)
	k.Programmable.MarshalBCS(e)
}

func (k *TransactionKind) UnmarshalBCS(d *bcs.Decoder) {
	if v := d.ReadVariant(); d.Err() == nil && v != 0 {
		d.UnknownVariant("TransactionKind", v)
		return
	}
	k.Programmable.UnmarshalBCS(d)
}

// GasData says which coins pay for the transaction and how much.
type GasData struct {
	Payment []types.ObjectRef
	Owner   types.AccountAddress
	Price   uint64
	Budget  uint64
}

func (g GasData) MarshalBCS(e *bcs.Encoder) {
	bcs.WriteSeq(e, g.Payment)
	g.Owner.MarshalBCS(e)
	e.WriteU64(g.Price)
	e.WriteU64(g.Budget)
}

func (g *GasData) UnmarshalBCS(d *bcs.Decoder) {
	g.Payment = bcs.ReadSeq[types.ObjectRef](d)
	g.Owner.UnmarshalBCS(d)
	g.Price = d.ReadU64()
	g.Budget = d.ReadU64()
}

// TransactionExpiration is either none or the last epoch in which the
// transaction may execute.
type TransactionExpiration struct {
	Epoch *uint64
}

// NoExpiration never expires.
var NoExpiration = TransactionExpiration{}

// ExpireAtEpoch expires after epoch.
func ExpireAtEpoch(epoch uint64) TransactionExpiration {
	return TransactionExpiration{Epoch: &epoch}
}

func (x TransactionExpiration) String() string {
	if x.Epoch == nil {
		return "None"
	}
	return fmt.Sprintf("Epoch(%d)", *x.Epoch)
}

func (x TransactionExpiration) MarshalBCS(e *bcs.Encoder) {
	if x.Epoch == nil {
		e.WriteVariant(0)
		return
	}
	e.WriteVariant(1)
	e.WriteU64(*x.Epoch)
}

func (x *TransactionExpiration) UnmarshalBCS(d *bcs.Decoder) {
	switch v := d.ReadVariant(); {
	case d.Err() != nil:
	case v == 0:
		x.Epoch = nil
	case v == 1:
		epoch := d.ReadU64()
		x.Epoch = &epoch
	default:
		d.UnknownVariant("TransactionExpiration", v)
	}
}

// TransactionData is the unsigned transaction. Only the V1 layout exists;
// it encodes as enum variant 0.
type TransactionData struct {
	Kind       TransactionKind
	SenderAddr types.AccountAddress
	Gas        GasData
	Expiration TransactionExpiration
}

// NewTransactionData builds V1 transaction data for a programmable
// transaction paid from gasPayment and owned by sender.
func NewTransactionData(sender types.AccountAddress, pt ProgrammableTransaction, gasPayment []types.ObjectRef, budget, price uint64) TransactionData {
	return TransactionData{
		Kind:       NewProgrammableKind(pt),
		SenderAddr: sender,
		Gas: GasData{
			Payment: gasPayment,
			Owner:   sender,
			Price:   price,
			Budget:  budget,
		},
		Expiration: NoExpiration,
	}
}

// Sender returns the signing address.
func (t TransactionData) Sender() types.AccountAddress { return t.SenderAddr }

// GasData returns the gas section.
func (t TransactionData) GasData() GasData { return t.Gas }

// Programmable returns the programmable transaction.
func (t TransactionData) Programmable() ProgrammableTransaction { return t.Kind.Programmable }

// Digest is the transaction identifier.
func (t TransactionData) Digest() (types.TransactionDigest, error) {
	d, err := Digest(t)
	return types.TransactionDigest(d), err
}

func (t TransactionData) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(0)
	t.Kind.MarshalBCS(e)
	t.SenderAddr.MarshalBCS(e)
	t.Gas.MarshalBCS(e)
	t.Expiration.MarshalBCS(e)
}

func (t *TransactionData) UnmarshalBCS(d *bcs.Decoder) {
	if v := d.ReadVariant(); d.Err() == nil && v != 0 {
		d.UnknownVariant("TransactionData", v)
		return
	}
	t.Kind.UnmarshalBCS(d)
	t.SenderAddr.UnmarshalBCS(d)
	t.Gas.UnmarshalBCS(d)
	t.Expiration.UnmarshalBCS(d)
}

// Bytes returns the canonical encoding, the txBytes sent to the node.
func (t TransactionData) Bytes() ([]byte, error) {
	return bcs.Marshal(t)
}

// DecodeTransactionData decodes txBytes with the given size budget. A
// non-positive maxSize uses bcs.DefaultMaxSize.
func DecodeTransactionData(raw []byte, maxSize int) (TransactionData, error) {
	if maxSize <= 0 {
		maxSize = bcs.DefaultMaxSize
	}
	var t TransactionData
	if err := bcs.UnmarshalWithLimit(raw, &t, maxSize); err != nil {
		return TransactionData{}, fmt.Errorf("decode transaction data: %w", err)
	}
	return t, nil
}

func (TransactionData) signableName() string { return "TransactionData" }
