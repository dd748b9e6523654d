package types

import (
	"encoding/json"
	"strings"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// TypeTagKind is the variant of a TypeTag. The values are the BCS ordinals.
type TypeTagKind uint8

const (
	TypeBool    TypeTagKind = 0
	TypeU8      TypeTagKind = 1
	TypeU64     TypeTagKind = 2
	TypeU128    TypeTagKind = 3
	TypeAddress TypeTagKind = 4
	TypeSigner  TypeTagKind = 5
	TypeVector  TypeTagKind = 6
	TypeStruct  TypeTagKind = 7
	TypeU16     TypeTagKind = 8
	TypeU32     TypeTagKind = 9
	TypeU256    TypeTagKind = 10
)

var primitiveNames = map[TypeTagKind]string{
	TypeBool:    "bool",
	TypeU8:      "u8",
	TypeU16:     "u16",
	TypeU32:     "u32",
	TypeU64:     "u64",
	TypeU128:    "u128",
	TypeU256:    "u256",
	TypeAddress: "address",
	TypeSigner:  "signer",
}

// TypeTag is a Move type: a primitive, a vector of a type, or a struct.
// Elem is set only for vectors and Struct only for structs.
type TypeTag struct {
	Kind   TypeTagKind
	Elem   *TypeTag
	Struct *StructTag
}

// Primitive type tags.
var (
	BoolTag    = TypeTag{Kind: TypeBool}
	U8Tag      = TypeTag{Kind: TypeU8}
	U16Tag     = TypeTag{Kind: TypeU16}
	U32Tag     = TypeTag{Kind: TypeU32}
	U64Tag     = TypeTag{Kind: TypeU64}
	U128Tag    = TypeTag{Kind: TypeU128}
	U256Tag    = TypeTag{Kind: TypeU256}
	AddressTag = TypeTag{Kind: TypeAddress}
	SignerTag  = TypeTag{Kind: TypeSigner}
)

// VectorTag returns vector<elem>.
func VectorTag(elem TypeTag) TypeTag {
	return TypeTag{Kind: TypeVector, Elem: &elem}
}

// StructTypeTag wraps a struct tag.
func StructTypeTag(s StructTag) TypeTag {
	return TypeTag{Kind: TypeStruct, Struct: &s}
}

// Equal reports structural equality.
func (t TypeTag) Equal(other TypeTag) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypeVector:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	case TypeStruct:
		if t.Struct == nil || other.Struct == nil {
			return t.Struct == other.Struct
		}
		return t.Struct.Equal(*other.Struct)
	}
	return true
}

// String renders the tag in Move surface syntax.
func (t TypeTag) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t TypeTag) write(b *strings.Builder) {
	switch t.Kind {
	case TypeVector:
		b.WriteString("vector<")
		if t.Elem != nil {
			t.Elem.write(b)
		}
		b.WriteByte('>')
	case TypeStruct:
		if t.Struct != nil {
			t.Struct.write(b)
		}
	default:
		b.WriteString(primitiveNames[t.Kind])
	}
}

// MarshalJSON encodes the tag in its text form.
func (t TypeTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses the text form with the default named addresses.
func (t *TypeTag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTypeTag(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TypeTag) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(uint32(t.Kind))
	switch t.Kind {
	case TypeVector:
		if t.Elem == nil {
			e.SetErr(parseErr(ErrInvalidTypeTag, "vector", "missing element type"))
			return
		}
		t.Elem.MarshalBCS(e)
	case TypeStruct:
		if t.Struct == nil {
			e.SetErr(parseErr(ErrInvalidTypeTag, "struct", "missing struct tag"))
			return
		}
		t.Struct.MarshalBCS(e)
	}
}

func (t *TypeTag) UnmarshalBCS(d *bcs.Decoder) {
	kind := TypeTagKind(d.ReadVariant())
	if d.Err() != nil {
		return
	}
	switch kind {
	case TypeVector:
		var elem TypeTag
		elem.UnmarshalBCS(d)
		*t = TypeTag{Kind: kind, Elem: &elem}
	case TypeStruct:
		var s StructTag
		s.UnmarshalBCS(d)
		*t = TypeTag{Kind: kind, Struct: &s}
	default:
		if _, ok := primitiveNames[kind]; !ok {
			d.UnknownVariant("TypeTag", uint32(kind))
			return
		}
		*t = TypeTag{Kind: kind}
	}
}

// StructTag names a Move struct type and its type arguments. Module and
// Name are never <SELF>: that name exists only inside bytecode and has no
// text form in a type tag. NewStructTag and the decoders enforce this; a
// literal built by hand should be checked with Validate.
type StructTag struct {
	Address    AccountAddress
	Module     Identifier
	Name       Identifier
	TypeParams []TypeTag
}

// NewStructTag builds address::module::name<params> from validated parts.
func NewStructTag(addr AccountAddress, module, name string, params ...TypeTag) (StructTag, error) {
	m, err := NewIdentifier(module)
	if err != nil {
		return StructTag{}, err
	}
	n, err := NewIdentifier(name)
	if err != nil {
		return StructTag{}, err
	}
	st := StructTag{Address: addr, Module: m, Name: n, TypeParams: params}
	if err := st.Validate(); err != nil {
		return StructTag{}, err
	}
	return st, nil
}

// Validate reports whether s, including nested type arguments, has a text
// form that ParseStructTag reads back to s.
func (s StructTag) Validate() error {
	for _, id := range []Identifier{s.Module, s.Name} {
		if id.s == "" || id.IsSelf() {
			return parseErr(ErrInvalidIdentifier, id.s, "not allowed in a struct tag")
		}
	}
	for _, p := range s.TypeParams {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t TypeTag) validate() error {
	switch {
	case t.Kind == TypeVector && t.Elem != nil:
		return t.Elem.validate()
	case t.Kind == TypeStruct && t.Struct != nil:
		return t.Struct.Validate()
	case t.Kind == TypeVector:
		return parseErr(ErrInvalidTypeTag, "vector", "missing element type")
	case t.Kind == TypeStruct:
		return parseErr(ErrInvalidTypeTag, "struct", "missing struct tag")
	}
	return nil
}

// Equal reports structural equality.
func (s StructTag) Equal(other StructTag) bool {
	if s.Address != other.Address || s.Module != other.Module || s.Name != other.Name {
		return false
	}
	if len(s.TypeParams) != len(other.TypeParams) {
		return false
	}
	for i := range s.TypeParams {
		if !s.TypeParams[i].Equal(other.TypeParams[i]) {
			return false
		}
	}
	return true
}

// String renders 0xADDR::module::Name<T1, T2> with the short address form.
func (s StructTag) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s StructTag) write(b *strings.Builder) {
	b.WriteString("0x")
	b.WriteString(s.Address.ShortString())
	b.WriteString("::")
	b.WriteString(s.Module.String())
	b.WriteString("::")
	b.WriteString(s.Name.String())
	if len(s.TypeParams) == 0 {
		return
	}
	b.WriteByte('<')
	for i, p := range s.TypeParams {
		if i > 0 {
			b.WriteString(", ")
		}
		p.write(b)
	}
	b.WriteByte('>')
}

// IsCoin reports whether s is 0x2::coin::Coin<T>.
func (s StructTag) IsCoin() bool {
	return s.Address == FrameworkAddress && s.Module.String() == "coin" && s.Name.String() == "Coin" && len(s.TypeParams) == 1
}

// MarshalJSON encodes the tag in its text form.
func (s StructTag) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the text form with the default named addresses.
func (s *StructTag) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStructTag(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s StructTag) MarshalBCS(e *bcs.Encoder) {
	s.Address.MarshalBCS(e)
	s.Module.MarshalBCS(e)
	s.Name.MarshalBCS(e)
	bcs.WriteSeq(e, s.TypeParams)
}

func (s *StructTag) UnmarshalBCS(d *bcs.Decoder) {
	s.Address.UnmarshalBCS(d)
	s.Module.UnmarshalBCS(d)
	s.Name.UnmarshalBCS(d)
	if d.Err() == nil && (s.Module.IsSelf() || s.Name.IsSelf()) {
		d.SetErr(parseErr(ErrInvalidIdentifier, SelfIdentifier, "not allowed in a struct tag"))
		return
	}
	s.TypeParams = bcs.ReadSeq[TypeTag](d)
}

// IotaCoinType is the struct tag of the native coin, 0x2::iota::IOTA.
var IotaCoinType = StructTag{
	Address: FrameworkAddress,
	Module:  Identifier{s: "iota"},
	Name:    Identifier{s: "IOTA"},
}

// CoinStructTag returns 0x2::coin::Coin<coinType>.
func CoinStructTag(coinType TypeTag) StructTag {
	return StructTag{
		Address:    FrameworkAddress,
		Module:     Identifier{s: "coin"},
		Name:       Identifier{s: "Coin"},
		TypeParams: []TypeTag{coinType},
	}
}
