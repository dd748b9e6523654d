package types

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

func TestIdentifier_Grammar(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"coin", true},
		{"Coin_2", true},
		{"_private", true},
		{"<SELF>", true},
		{"_", false},
		{"", false},
		{"2fast", false},
		{"has-dash", false},
		{"ünicode", false},
		{"<self>", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := NewIdentifier(tt.input)
			if tt.valid {
				if err != nil {
					t.Fatalf("NewIdentifier(%q): %v", tt.input, err)
				}
				if id.String() != tt.input {
					t.Errorf("String() = %q", id)
				}
				return
			}
			if !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("expected ErrInvalidIdentifier for %q, got %v", tt.input, err)
			}
		})
	}
}

func TestParseTypeTag_Primitives(t *testing.T) {
	for kind, name := range primitiveNames {
		tag, err := ParseTypeTag(name)
		if err != nil {
			t.Fatalf("ParseTypeTag(%s): %v", name, err)
		}
		if tag.Kind != kind {
			t.Errorf("ParseTypeTag(%s).Kind = %d, want %d", name, tag.Kind, kind)
		}
	}
}

func TestParseStructTag(t *testing.T) {
	tag, err := ParseStructTag("0x2::coin::Coin<0x2::iota::IOTA>")
	if err != nil {
		t.Fatalf("ParseStructTag: %v", err)
	}
	if tag.Address != FrameworkAddress || tag.Module.String() != "coin" || tag.Name.String() != "Coin" {
		t.Errorf("parsed = %+v", tag)
	}
	if len(tag.TypeParams) != 1 || !tag.TypeParams[0].Equal(StructTypeTag(IotaCoinType)) {
		t.Errorf("type params = %v", tag.TypeParams)
	}
	if !tag.IsCoin() {
		t.Error("IsCoin() = false")
	}
	if !tag.Equal(CoinStructTag(StructTypeTag(IotaCoinType))) {
		t.Error("should equal CoinStructTag(IOTA)")
	}
}

func TestParseTypeTag_NamedAndNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"iota::coin::Coin<iota::iota::IOTA>", "0x2::coin::Coin<0x2::iota::IOTA>"},
		{"std::string::String", "0x1::string::String"},
		{"iota_system::staking_pool::StakedIota", "0x3::staking_pool::StakedIota"},
		{"2::coin::Coin<u64>", "0x2::coin::Coin<u64>"},
		{"0x0_2::coin::Coin<u64>", "0x2::coin::Coin<u64>"},
		{"256::m::S", "0x100::m::S"},
		{"0x2::m::S< u8 , bool , >", "0x2::m::S<u8, bool>"},
		{"vector<vector<u8>>", "vector<vector<u8>>"},
		{"  address  ", "address"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tag, err := ParseTypeTag(tt.input)
			if err != nil {
				t.Fatalf("ParseTypeTag(%q): %v", tt.input, err)
			}
			if got := tag.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTypeTag_CustomResolver(t *testing.T) {
	resolve := func(name string) (AccountAddress, bool) {
		if name == "my_pkg" {
			return MustParseAddress("0xabc"), true
		}
		return AccountAddress{}, false
	}
	tag, err := ParseStructTagWith("my_pkg::m::T", resolve)
	if err != nil {
		t.Fatalf("ParseStructTagWith: %v", err)
	}
	if tag.Address != MustParseAddress("0xabc") {
		t.Errorf("address = %s", tag.Address)
	}
	if _, err := ParseStructTagWith("std::m::T", resolve); err == nil {
		t.Error("custom resolver should not know std")
	}
}

func TestParseTypeTag_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unbound name", "unknown::m::T"},
		{"unmatched open", "vector<u8"},
		{"unmatched close", "u8>"},
		{"empty generics", "0x2::m::T<>"},
		{"missing name", "0x2::m"},
		{"single colon", "0x2:m::T"},
		{"trailing tokens", "u8 u8"},
		{"bad char", "0x2::m::T<$>"},
		{"vector without arg", "vector"},
		{"hex too long", "0x" + strings.Repeat("1", 65) + "::m::T"},
		{"decimal overflow", strings.Repeat("9", 78) + "::m::T"},
		{"not a type", ","},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTypeTag(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Input != tt.input {
				t.Errorf("error should carry input %q: %v", tt.input, err)
			}
		})
	}
}

func TestParseTypeTag_UnboundMessage(t *testing.T) {
	_, err := ParseTypeTag("unknown::m::T")
	if err == nil || !strings.Contains(err.Error(), "unbound named address") {
		t.Errorf("err = %v", err)
	}
}

func TestParseTypeTag_DepthLimit(t *testing.T) {
	deep := strings.Repeat("vector<", MaxTypeDepth+1) + "u8" + strings.Repeat(">", MaxTypeDepth+1)
	if _, err := ParseTypeTag(deep); err == nil {
		t.Error("expected depth error")
	}
	ok := strings.Repeat("vector<", 10) + "u8" + strings.Repeat(">", 10)
	if _, err := ParseTypeTag(ok); err != nil {
		t.Errorf("shallow nesting: %v", err)
	}
}

func TestParseStructTag_NotStruct(t *testing.T) {
	if _, err := ParseStructTag("u64"); !errors.Is(err, ErrInvalidTypeTag) {
		t.Errorf("err = %v", err)
	}
}

func TestTypeTag_DisplayRoundTrip(t *testing.T) {
	pair := StructTag{
		Address: MustParseAddress("0xdee9"),
		Module:  MustIdentifier("pool"),
		Name:    MustIdentifier("Pool"),
		TypeParams: []TypeTag{
			StructTypeTag(IotaCoinType),
			VectorTag(StructTypeTag(CoinStructTag(U64Tag))),
		},
	}
	tags := []TypeTag{
		BoolTag, U8Tag, U16Tag, U32Tag, U64Tag, U128Tag, U256Tag, AddressTag, SignerTag,
		VectorTag(U8Tag),
		VectorTag(VectorTag(AddressTag)),
		StructTypeTag(IotaCoinType),
		StructTypeTag(pair),
		StructTypeTag(StructTag{Address: AccountAddress{}, Module: MustIdentifier("m"), Name: MustIdentifier("_S")}),
	}
	for _, tag := range tags {
		s := tag.String()
		back, err := ParseTypeTag(s)
		if err != nil {
			t.Fatalf("ParseTypeTag(%q): %v", s, err)
		}
		if !back.Equal(tag) {
			t.Errorf("round trip %q -> %q", s, back)
		}
	}
}

func TestStructTag_SelfNotAllowed(t *testing.T) {
	addr := MustParseAddress("0x7")
	self := MustIdentifier(SelfIdentifier)

	if _, err := NewStructTag(addr, SelfIdentifier, "S"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("<SELF> module: %v", err)
	}
	if _, err := NewStructTag(addr, "m", SelfIdentifier); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("<SELF> name: %v", err)
	}
	nested := StructTypeTag(StructTag{Address: addr, Module: self, Name: MustIdentifier("S")})
	if _, err := NewStructTag(addr, "m", "S", VectorTag(nested)); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("<SELF> in a type argument: %v", err)
	}

	st, err := NewStructTag(addr, "m", "S", U64Tag, VectorTag(StructTypeTag(IotaCoinType)))
	if err != nil {
		t.Fatalf("NewStructTag: %v", err)
	}
	back, err := ParseStructTag(st.String())
	if err != nil || !back.Equal(st) {
		t.Errorf("round trip %q -> %v (%v)", st, back, err)
	}

	literal := StructTag{Address: addr, Module: MustIdentifier("m"), Name: self}
	if err := literal.Validate(); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Validate: %v", err)
	}
	if err := (StructTag{Address: addr}).Validate(); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Validate of an empty tag: %v", err)
	}
	if err := StructTypeTag(IotaCoinType).Struct.Validate(); err != nil {
		t.Errorf("Validate(IOTA): %v", err)
	}

	var decoded StructTag
	if err := bcs.Unmarshal(bcs.MustMarshal(literal), &decoded); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("bcs decode of a <SELF> tag: %v", err)
	}
}

func TestTypeTag_BCS(t *testing.T) {
	tag := VectorTag(StructTypeTag(IotaCoinType))
	raw := bcs.MustMarshal(tag)

	want := []byte{6, 7}
	want = append(want, FrameworkAddress[:]...)
	want = append(want, 4, 'i', 'o', 't', 'a', 4, 'I', 'O', 'T', 'A', 0)
	if !bytes.Equal(raw, want) {
		t.Fatalf("bcs = %x, want %x", raw, want)
	}

	var back TypeTag
	if err := bcs.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(tag) {
		t.Errorf("decoded %s", back)
	}

	if err := bcs.Unmarshal([]byte{11}, &back); !errors.Is(err, bcs.ErrUnknownVariant) {
		t.Errorf("unknown ordinal: %v", err)
	}
}

func TestParseNumericAddress(t *testing.T) {
	tests := []struct {
		input string
		want  AccountAddress
	}{
		{"0x1", StdAddress},
		{"1", StdAddress},
		{"0", AccountAddress{}},
		{"0x0000", AccountAddress{}},
		{"1_000", AccountAddress{30: 0x03, 31: 0xe8}},
	}
	for _, tt := range tests {
		got, err := ParseNumericAddress(tt.input)
		if err != nil {
			t.Fatalf("ParseNumericAddress(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseNumericAddress(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
