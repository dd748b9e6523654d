// Package types defines the ledger-native primitives of the IOTA Rebased
// network: addresses, object identifiers, versions, digests and the Move
// type model.
package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// AddressSize is the length of an account address in bytes.
const AddressSize = 32

// AccountAddress identifies an account on the ledger.
type AccountAddress [AddressSize]byte

// Well-known framework addresses.
var (
	StdAddress       = AccountAddress{31: 0x01}
	FrameworkAddress = AccountAddress{31: 0x02}
	SystemAddress    = AccountAddress{31: 0x03}
)

// AddressFromBytes copies b into an address. b must be exactly 32 bytes.
func AddressFromBytes(b []byte) (AccountAddress, error) {
	var a AccountAddress
	if len(b) != AddressSize {
		return a, parseErr(ErrInvalidAddress, hex.EncodeToString(b), "address must be %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress parses a 0x-prefixed hex literal (short forms are zero
// padded on the left) or, failing that, raw hex of exactly 64 characters.
func ParseAddress(s string) (AccountAddress, error) {
	if a, err := AddressFromHexLiteral(s); err == nil {
		return a, nil
	}
	return AddressFromHex(s)
}

// AddressFromHexLiteral parses "0x" followed by up to 64 hex characters.
func AddressFromHexLiteral(s string) (AccountAddress, error) {
	if !strings.HasPrefix(s, "0x") {
		return AccountAddress{}, parseErr(ErrInvalidAddress, s, "missing 0x prefix")
	}
	digits := s[2:]
	if len(digits) < AddressSize*2 {
		digits = strings.Repeat("0", AddressSize*2-len(digits)) + digits
	}
	a, reason := decodeAddressHex(digits)
	if reason != "" {
		return AccountAddress{}, parseErr(ErrInvalidAddress, s, "%s", reason)
	}
	return a, nil
}

// AddressFromHex parses exactly 64 hex characters with no prefix.
func AddressFromHex(s string) (AccountAddress, error) {
	a, reason := decodeAddressHex(s)
	if reason != "" {
		return AccountAddress{}, parseErr(ErrInvalidAddress, s, "%s", reason)
	}
	return a, nil
}

func decodeAddressHex(s string) (AccountAddress, string) {
	var a AccountAddress
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, "invalid hex: " + err.Error()
	}
	if len(b) != AddressSize {
		return a, fmt.Sprintf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, ""
}

// MustParseAddress is ParseAddress for constants; it panics on bad input.
func MustParseAddress(s string) AccountAddress {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero returns true if the address is all zeros.
func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

// String returns 0x followed by 64 lowercase hex characters.
func (a AccountAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Hex returns the 64-character hex form without prefix.
func (a AccountAddress) Hex() string {
	return hex.EncodeToString(a[:])
}

// ShortString returns the hex form with leading zeros removed and no prefix.
// The zero address renders as "0".
func (a AccountAddress) ShortString() string {
	s := strings.TrimLeft(hex.EncodeToString(a[:]), "0")
	if s == "" {
		return "0"
	}
	return s
}

// Bytes returns a copy of the address as a byte slice.
func (a AccountAddress) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// Compare orders addresses byte-wise.
func (a AccountAddress) Compare(other AccountAddress) int {
	return bytes.Compare(a[:], other[:])
}

// MarshalJSON encodes the address as its canonical string.
func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes either accepted text form.
func (a *AccountAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler so addresses work as map keys.
func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalBCS writes the 32 raw bytes.
func (a AccountAddress) MarshalBCS(e *bcs.Encoder) {
	e.WriteFixedBytes(a[:])
}

// UnmarshalBCS reads 32 raw bytes.
func (a *AccountAddress) UnmarshalBCS(d *bcs.Decoder) {
	d.ReadInto(a[:])
}
