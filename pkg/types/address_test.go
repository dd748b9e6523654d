package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

func TestParseAddress_ZeroPadding(t *testing.T) {
	short, err := ParseAddress("0x2")
	if err != nil {
		t.Fatalf("ParseAddress(0x2): %v", err)
	}
	full, err := ParseAddress("0x" + strings.Repeat("0", 63) + "2")
	if err != nil {
		t.Fatalf("ParseAddress(full): %v", err)
	}
	if short != full {
		t.Errorf("0x2 = %s, padded = %s", short, full)
	}
	var want AccountAddress
	want[31] = 2
	if short != want {
		t.Errorf("0x2 = %x, want last byte 2", short[:])
	}
	if short != FrameworkAddress {
		t.Error("0x2 should equal FrameworkAddress")
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	raw := strings.Repeat("0", 61) + "abc"
	a, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress(%s): %v", raw, err)
	}
	if a[30] != 0x0a || a[31] != 0xbc {
		t.Errorf("decoded = %x", a[:])
	}
}

func TestParseAddress_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"31 bytes raw", strings.Repeat("ab", 31)},
		{"33 bytes raw", strings.Repeat("ab", 33)},
		{"too long literal", "0x" + strings.Repeat("1", 65)},
		{"not hex", "0xzz"},
		{"empty", ""},
		{"odd raw", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("error kind = %v, want ErrInvalidAddress", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Input != tt.input {
				t.Errorf("error does not carry input %q: %v", tt.input, err)
			}
		})
	}
}

func TestParseAddress_LengthError(t *testing.T) {
	_, err := ParseAddress(strings.Repeat("ab", 31))
	if err == nil || !strings.Contains(err.Error(), "got 31") {
		t.Errorf("expected a 31-byte length error, got %v", err)
	}
}

func TestAddress_DisplayRoundTrip(t *testing.T) {
	addrs := []AccountAddress{
		{},
		StdAddress,
		SystemAddress,
		MustParseAddress("0xdeadbeef"),
		MustParseAddress("0x" + strings.Repeat("ff", 32)),
	}
	for _, a := range addrs {
		s := a.String()
		if len(s) != 66 || !strings.HasPrefix(s, "0x") || strings.ToLower(s) != s {
			t.Errorf("String() = %q, want 0x + 64 lowercase hex", s)
		}
		back, err := ParseAddress(s)
		if err != nil {
			t.Fatalf("ParseAddress(%s): %v", s, err)
		}
		if back != a {
			t.Errorf("round trip %s -> %s", a, back)
		}

		id := ObjectID(a)
		backID, err := ParseObjectID(id.String())
		if err != nil || backID != id {
			t.Errorf("object id round trip %s: %v", id, err)
		}
	}
}

func TestAddress_ShortString(t *testing.T) {
	if got := (AccountAddress{}).ShortString(); got != "0" {
		t.Errorf("zero ShortString = %q", got)
	}
	if got := FrameworkAddress.ShortString(); got != "2" {
		t.Errorf("0x2 ShortString = %q", got)
	}
}

func TestAddress_Compare(t *testing.T) {
	if StdAddress.Compare(FrameworkAddress) >= 0 {
		t.Error("0x1 should sort before 0x2")
	}
	if FrameworkAddress.Compare(FrameworkAddress) != 0 {
		t.Error("equal addresses should compare 0")
	}
}

func TestAddress_JSONAndBCS(t *testing.T) {
	a := MustParseAddress("0x1234")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if string(data) != `"`+a.String()+`"` {
		t.Errorf("json = %s", data)
	}
	var back AccountAddress
	if err := json.Unmarshal(data, &back); err != nil || back != a {
		t.Fatalf("json round trip: %v", err)
	}

	raw := bcs.MustMarshal(a)
	if len(raw) != AddressSize {
		t.Fatalf("bcs length = %d, want %d (no length prefix)", len(raw), AddressSize)
	}
	var fromBCS AccountAddress
	if err := bcs.Unmarshal(raw, &fromBCS); err != nil || fromBCS != a {
		t.Fatalf("bcs round trip: %v", err)
	}
}

func TestAddressFromBytes(t *testing.T) {
	if _, err := AddressFromBytes(make([]byte, 31)); err == nil {
		t.Error("expected error for 31 bytes")
	}
	a, err := AddressFromBytes(FrameworkAddress.Bytes())
	if err != nil || a != FrameworkAddress {
		t.Errorf("AddressFromBytes = %s, %v", a, err)
	}
}
