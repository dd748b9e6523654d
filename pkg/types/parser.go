package types

import (
	"strings"

	"github.com/holiman/uint256"
)

// Parser limits for type tags.
const (
	MaxTypeDepth     = 128
	MaxTypeNodeCount = 256

	// Longest decimal rendering of a 256-bit integer.
	u256MaxDecimalDigits = 241*AddressSize/100 + 1
)

// NamedAddressResolver maps a named address such as "std" to its value.
type NamedAddressResolver func(name string) (AccountAddress, bool)

// DefaultNamedAddresses resolves the framework aliases std, iota and iota_system.
func DefaultNamedAddresses(name string) (AccountAddress, bool) {
	switch name {
	case "std":
		return StdAddress, true
	case "iota":
		return FrameworkAddress, true
	case "iota_system":
		return SystemAddress, true
	}
	return AccountAddress{}, false
}

// ParseTypeTag parses Move type syntax, resolving named addresses with
// DefaultNamedAddresses.
func ParseTypeTag(s string) (TypeTag, error) {
	return ParseTypeTagWith(s, DefaultNamedAddresses)
}

// ParseTypeTagWith parses Move type syntax with a caller-supplied resolver.
func ParseTypeTagWith(s string, resolve NamedAddressResolver) (TypeTag, error) {
	p, err := newTypeParser(s, resolve)
	if err != nil {
		return TypeTag{}, err
	}
	t, err := p.parseType(0)
	if err != nil {
		return TypeTag{}, err
	}
	if err := p.finish(); err != nil {
		return TypeTag{}, err
	}
	return t, nil
}

// ParseStructTag parses a struct type such as 0x2::coin::Coin<0x2::iota::IOTA>.
func ParseStructTag(s string) (StructTag, error) {
	return ParseStructTagWith(s, DefaultNamedAddresses)
}

// ParseStructTagWith parses a struct type with a caller-supplied resolver.
func ParseStructTagWith(s string, resolve NamedAddressResolver) (StructTag, error) {
	t, err := ParseTypeTagWith(s, resolve)
	if err != nil {
		return StructTag{}, err
	}
	if t.Kind != TypeStruct {
		return StructTag{}, parseErr(ErrInvalidTypeTag, s, "not a struct type")
	}
	return *t.Struct, nil
}

// MustParseStructTag is ParseStructTag for constants; it panics on bad input.
func MustParseStructTag(s string) StructTag {
	t, err := ParseStructTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseNumericAddress parses a decimal or 0x-prefixed hex address literal.
// Underscore separators are ignored.
func ParseNumericAddress(s string) (AccountAddress, error) {
	txt, hexBase := strings.CutPrefix(s, "0x")
	txt = strings.ReplaceAll(txt, "_", "")
	if txt == "" {
		return AccountAddress{}, parseErr(ErrInvalidNumber, s, "empty number")
	}
	limit, digits := u256MaxDecimalDigits, "decimal"
	if hexBase {
		limit, digits = AddressSize*2, "hex"
	}
	if len(txt) > limit {
		return AccountAddress{}, parseErr(ErrInvalidNumber, s, "more than %d %s digits", limit, digits)
	}
	// uint256 rejects leading zeros in hex input.
	trimmed := strings.TrimLeft(txt, "0")
	if trimmed == "" {
		return AccountAddress{}, nil
	}
	var (
		v   *uint256.Int
		err error
	)
	if hexBase {
		v, err = uint256.FromHex("0x" + trimmed)
	} else {
		v, err = uint256.FromDecimal(trimmed)
	}
	if err != nil {
		return AccountAddress{}, parseErr(ErrInvalidNumber, s, "%v", err)
	}
	return AccountAddress(v.Bytes32()), nil
}

type tokenKind int

const (
	tokWhitespace tokenKind = iota
	tokIdent
	tokAddressIdent
	tokColonColon
	tokLt
	tokGt
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokWhitespace:
		return "whitespace"
	case tokIdent:
		return "identifier"
	case tokAddressIdent:
		return "address"
	case tokColonColon:
		return "::"
	case tokLt:
		return "<"
	case tokGt:
		return ">"
	case tokComma:
		return ","
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		start := i
		var kind tokenKind
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
				i++
			}
			continue
		case c == '<':
			kind, i = tokLt, i+1
		case c == '>':
			kind, i = tokGt, i+1
		case c == ',':
			kind, i = tokComma, i+1
		case c == ':':
			if i+1 >= len(s) || s[i+1] != ':' {
				return nil, parseErr(ErrInvalidTypeTag, s, "unrecognized token at offset %d", i)
			}
			kind, i = tokColonColon, i+2
		case isDigit(c):
			kind = tokAddressIdent
			if strings.HasPrefix(s[i:], "0x") {
				i += 2
				for i < len(s) && (isHexDigit(s[i]) || s[i] == '_') {
					i++
				}
			} else {
				for i < len(s) && (isDigit(s[i]) || s[i] == '_') {
					i++
				}
			}
		case isAlpha(c) || c == '_':
			kind = tokIdent
			for i < len(s) && isIdentRest(s[i]) {
				i++
			}
		default:
			return nil, parseErr(ErrInvalidTypeTag, s, "unrecognized token %q at offset %d", c, i)
		}
		toks = append(toks, token{kind: kind, text: s[start:i]})
	}
	return toks, nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

type typeParser struct {
	input   string
	toks    []token
	pos     int
	count   int
	resolve NamedAddressResolver
}

func newTypeParser(s string, resolve NamedAddressResolver) (*typeParser, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	if resolve == nil {
		resolve = DefaultNamedAddresses
	}
	return &typeParser{input: s, toks: toks, resolve: resolve}, nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return parseErr(ErrInvalidTypeTag, p.input, format, args...)
}

func (p *typeParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *typeParser) next() (token, error) {
	t, ok := p.peek()
	if !ok {
		return token{}, p.errorf("unexpected end of tokens")
	}
	p.pos++
	return t, nil
}

func (p *typeParser) expect(kind tokenKind) (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	if t.kind != kind {
		return "", p.errorf("expected token %s, got %s", kind, t.kind)
	}
	return t.text, nil
}

func (p *typeParser) finish() error {
	if t, ok := p.peek(); ok {
		return p.errorf("expected end of token stream, got %q", t.text)
	}
	return nil
}

func (p *typeParser) parseType(depth int) (TypeTag, error) {
	p.count++
	if depth > MaxTypeDepth || p.count > MaxTypeNodeCount {
		return TypeTag{}, p.errorf("type exceeds maximum nesting depth or node count")
	}
	t, err := p.next()
	if err != nil {
		return TypeTag{}, err
	}
	if t.kind == tokIdent {
		switch t.text {
		case "bool":
			return BoolTag, nil
		case "u8":
			return U8Tag, nil
		case "u16":
			return U16Tag, nil
		case "u32":
			return U32Tag, nil
		case "u64":
			return U64Tag, nil
		case "u128":
			return U128Tag, nil
		case "u256":
			return U256Tag, nil
		case "address":
			return AddressTag, nil
		case "signer":
			return SignerTag, nil
		case "vector":
			if _, err := p.expect(tokLt); err != nil {
				return TypeTag{}, err
			}
			elem, err := p.parseType(depth + 1)
			if err != nil {
				return TypeTag{}, err
			}
			if _, err := p.expect(tokGt); err != nil {
				return TypeTag{}, err
			}
			return VectorTag(elem), nil
		}
	}
	if t.kind != tokIdent && t.kind != tokAddressIdent {
		return TypeTag{}, p.errorf("unexpected token %s, expected type", t.kind)
	}
	st, err := p.parseStruct(t, depth)
	if err != nil {
		return TypeTag{}, err
	}
	return StructTypeTag(st), nil
}

func (p *typeParser) parseStruct(first token, depth int) (StructTag, error) {
	addr, err := p.address(first)
	if err != nil {
		return StructTag{}, err
	}
	module, err := p.identifier()
	if err != nil {
		return StructTag{}, err
	}
	name, err := p.identifier()
	if err != nil {
		return StructTag{}, err
	}
	st := StructTag{Address: addr, Module: module, Name: name}
	if t, ok := p.peek(); !ok || t.kind != tokLt {
		return st, nil
	}
	p.pos++
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokGt {
			break
		}
		arg, err := p.parseType(depth + 1)
		if err != nil {
			return StructTag{}, err
		}
		st.TypeParams = append(st.TypeParams, arg)
		if t, ok := p.peek(); !ok || t.kind == tokGt {
			break
		}
		if _, err := p.expect(tokComma); err != nil {
			return StructTag{}, err
		}
	}
	if _, err := p.expect(tokGt); err != nil {
		return StructTag{}, err
	}
	if len(st.TypeParams) == 0 {
		return StructTag{}, p.errorf("expected at least one type argument")
	}
	return st, nil
}

// identifier consumes "::" followed by an identifier.
func (p *typeParser) identifier() (Identifier, error) {
	if _, err := p.expect(tokColonColon); err != nil {
		return Identifier{}, err
	}
	text, err := p.expect(tokIdent)
	if err != nil {
		return Identifier{}, err
	}
	id, err := NewIdentifier(text)
	if err != nil {
		return Identifier{}, p.errorf("%v", err)
	}
	return id, nil
}

func (p *typeParser) address(t token) (AccountAddress, error) {
	if t.kind == tokAddressIdent {
		a, err := ParseNumericAddress(t.text)
		if err != nil {
			return AccountAddress{}, p.errorf("failed to parse numerical address %q: %v", t.text, err)
		}
		return a, nil
	}
	a, ok := p.resolve(t.text)
	if !ok {
		return AccountAddress{}, p.errorf("unbound named address %q", t.text)
	}
	return a, nil
}
