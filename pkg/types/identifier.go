package types

import (
	"encoding/json"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// SelfIdentifier names the module's own type in Move bytecode.
const SelfIdentifier = "<SELF>"

// Identifier is a validated Move module, function or struct name.
type Identifier struct {
	s string
}

// NewIdentifier validates s and wraps it.
func NewIdentifier(s string) (Identifier, error) {
	if !IsValidIdentifier(s) {
		return Identifier{}, parseErr(ErrInvalidIdentifier, s, "must match [A-Za-z][A-Za-z0-9_]* or _[A-Za-z0-9_]+")
	}
	return Identifier{s: s}, nil
}

// MustIdentifier is NewIdentifier for constants; it panics on bad input.
func MustIdentifier(s string) Identifier {
	id, err := NewIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsValidIdentifier reports whether s is a well-formed identifier.
func IsValidIdentifier(s string) bool {
	if s == SelfIdentifier {
		return true
	}
	if s == "" {
		return false
	}
	switch c := s[0]; {
	case isAlpha(c):
	case c == '_':
		if len(s) == 1 {
			return false
		}
	default:
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentRest(s[i]) {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentRest(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

// String returns the identifier text.
func (id Identifier) String() string {
	return id.s
}

// IsSelf reports whether this is the <SELF> identifier.
func (id Identifier) IsSelf() bool {
	return id.s == SelfIdentifier
}

// MarshalJSON encodes the identifier as a string.
func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.s)
}

// UnmarshalJSON decodes and validates an identifier.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewIdentifier(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id Identifier) MarshalBCS(e *bcs.Encoder) {
	e.WriteString(id.s)
}

func (id *Identifier) UnmarshalBCS(d *bcs.Decoder) {
	s := d.ReadString()
	if d.Err() != nil {
		return
	}
	parsed, err := NewIdentifier(s)
	if err != nil {
		d.SetErr(err)
		return
	}
	*id = parsed
}
