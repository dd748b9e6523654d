package types

import (
	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// ObjectID identifies a ledger object. It shares the address text and
// binary forms.
type ObjectID AccountAddress

// Well-known framework object IDs.
var (
	ClockObjectID = ObjectID{31: 0x06}
)

// ParseObjectID parses an object ID using the address text rules.
func ParseObjectID(s string) (ObjectID, error) {
	a, err := ParseAddress(s)
	return ObjectID(a), err
}

// ObjectIDFromBytes copies a 32-byte slice into an object ID.
func ObjectIDFromBytes(b []byte) (ObjectID, error) {
	a, err := AddressFromBytes(b)
	return ObjectID(a), err
}

// Address returns the object ID as an account address.
func (id ObjectID) Address() AccountAddress {
	return AccountAddress(id)
}

// IsZero returns true if the ID is all zeros.
func (id ObjectID) IsZero() bool {
	return AccountAddress(id).IsZero()
}

// String returns 0x followed by 64 lowercase hex characters.
func (id ObjectID) String() string {
	return AccountAddress(id).String()
}

// Compare orders object IDs byte-wise.
func (id ObjectID) Compare(other ObjectID) int {
	return AccountAddress(id).Compare(AccountAddress(other))
}

// MarshalJSON encodes the ID as its canonical string.
func (id ObjectID) MarshalJSON() ([]byte, error) {
	return AccountAddress(id).MarshalJSON()
}

// UnmarshalJSON decodes an ID from either accepted text form.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	return (*AccountAddress)(id).UnmarshalJSON(data)
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return AccountAddress(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	return (*AccountAddress)(id).UnmarshalText(text)
}

func (id ObjectID) MarshalBCS(e *bcs.Encoder)    { AccountAddress(id).MarshalBCS(e) }
func (id *ObjectID) UnmarshalBCS(d *bcs.Decoder) { (*AccountAddress)(id).UnmarshalBCS(d) }
