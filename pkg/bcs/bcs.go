// Package bcs implements the Binary Canonical Serialization format used by
// Move-based ledgers for hashing and signing.
//
// Integers are fixed-width little-endian, sequence lengths and enum variant
// indices are ULEB128, options are a 0/1 tag followed by the value. Encoding
// is deterministic: the same value always produces the same bytes.
package bcs

import (
	"errors"
	"fmt"
)

// DefaultMaxSize bounds the input accepted by a Decoder built with NewDecoder.
const DefaultMaxSize = 1 << 20

// MaxSequenceLength is the largest length BCS can express.
const MaxSequenceLength = 1<<31 - 1

// Decoding errors.
var (
	ErrSizeLimit         = errors.New("bcs: input exceeds size limit")
	ErrUnexpectedEOF     = errors.New("bcs: unexpected end of input")
	ErrTrailingBytes     = errors.New("bcs: trailing bytes after value")
	ErrNonCanonicalULEB  = errors.New("bcs: non-canonical uleb128 encoding")
	ErrInvalidBool       = errors.New("bcs: invalid bool byte")
	ErrSequenceTooLong   = errors.New("bcs: sequence length exceeds maximum")
	ErrInvalidUTF8       = errors.New("bcs: string is not valid utf-8")
	ErrUnknownVariant    = errors.New("bcs: unknown enum variant")
	ErrUnsupportedOption = errors.New("bcs: invalid option tag")
)

// Marshaler is implemented by types with a canonical encoding.
// Errors are reported through the encoder, which stops writing after the
// first one.
type Marshaler interface {
	MarshalBCS(e *Encoder)
}

// Unmarshaler is implemented by types that can decode themselves.
type Unmarshaler interface {
	UnmarshalBCS(d *Decoder)
}

// Marshal returns the canonical encoding of v.
func Marshal(v Marshaler) ([]byte, error) {
	e := NewEncoder()
	v.MarshalBCS(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// MustMarshal is Marshal for values whose encoding cannot fail.
func MustMarshal(v Marshaler) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("bcs: marshal %T: %v", v, err))
	}
	return b
}

// Unmarshal decodes data into v using DefaultMaxSize. All of data must be
// consumed.
func Unmarshal(data []byte, v Unmarshaler) error {
	return UnmarshalWithLimit(data, v, DefaultMaxSize)
}

// UnmarshalWithLimit decodes data into v, rejecting inputs over maxSize bytes.
func UnmarshalWithLimit(data []byte, v Unmarshaler, maxSize int) error {
	d := NewDecoderWithLimit(data, maxSize)
	v.UnmarshalBCS(d)
	return d.Finish()
}

// U8 is a Marshaler for a single byte value.
type U8 uint8

func (v U8) MarshalBCS(e *Encoder)    { e.WriteU8(uint8(v)) }
func (v *U8) UnmarshalBCS(d *Decoder) { *v = U8(d.ReadU8()) }

// U16 is a Marshaler for a uint16 value.
type U16 uint16

func (v U16) MarshalBCS(e *Encoder)    { e.WriteU16(uint16(v)) }
func (v *U16) UnmarshalBCS(d *Decoder) { *v = U16(d.ReadU16()) }

// U32 is a Marshaler for a uint32 value.
type U32 uint32

func (v U32) MarshalBCS(e *Encoder)    { e.WriteU32(uint32(v)) }
func (v *U32) UnmarshalBCS(d *Decoder) { *v = U32(d.ReadU32()) }

// U64 is a Marshaler for a uint64 value, the usual type of pure amounts.
type U64 uint64

func (v U64) MarshalBCS(e *Encoder)    { e.WriteU64(uint64(v)) }
func (v *U64) UnmarshalBCS(d *Decoder) { *v = U64(d.ReadU64()) }

// Bool is a Marshaler for a bool value.
type Bool bool

func (v Bool) MarshalBCS(e *Encoder)    { e.WriteBool(bool(v)) }
func (v *Bool) UnmarshalBCS(d *Decoder) { *v = Bool(d.ReadBool()) }

// String is a Marshaler for a length-prefixed UTF-8 string.
type String string

func (v String) MarshalBCS(e *Encoder)    { e.WriteString(string(v)) }
func (v *String) UnmarshalBCS(d *Decoder) { *v = String(d.ReadString()) }

// Bytes is a Marshaler for a length-prefixed byte vector.
type Bytes []byte

func (v Bytes) MarshalBCS(e *Encoder)    { e.WriteBytes(v) }
func (v *Bytes) UnmarshalBCS(d *Decoder) { *v = d.ReadBytes() }
