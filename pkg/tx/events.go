package tx

import (
	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Event is a Move event emitted during execution.
type Event struct {
	PackageID         types.ObjectID
	TransactionModule types.Identifier
	Sender            types.AccountAddress
	Type              types.StructTag
	Contents          []byte
}

func (ev Event) MarshalBCS(e *bcs.Encoder) {
	ev.PackageID.MarshalBCS(e)
	ev.TransactionModule.MarshalBCS(e)
	ev.Sender.MarshalBCS(e)
	ev.Type.MarshalBCS(e)
	e.WriteBytes(ev.Contents)
}

func (ev *Event) UnmarshalBCS(d *bcs.Decoder) {
	ev.PackageID.UnmarshalBCS(d)
	ev.TransactionModule.UnmarshalBCS(d)
	ev.Sender.UnmarshalBCS(d)
	ev.Type.UnmarshalBCS(d)
	ev.Contents = d.ReadBytes()
}

// TransactionEvents is the ordered list of events one transaction emitted.
type TransactionEvents struct {
	Data []Event
}

func (t TransactionEvents) MarshalBCS(e *bcs.Encoder) {
	bcs.WriteSeq(e, t.Data)
}

func (t *TransactionEvents) UnmarshalBCS(d *bcs.Decoder) {
	t.Data = bcs.ReadSeq[Event](d)
}

// Digest is the events digest referenced from transaction effects.
func (t TransactionEvents) Digest() (types.TransactionEventsDigest, error) {
	d, err := Digest(t)
	return types.TransactionEventsDigest(d), err
}

func (TransactionEvents) signableName() string { return "TransactionEvents" }
