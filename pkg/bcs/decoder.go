package bcs

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Decoder reads canonical encodings from a byte slice. Like Encoder it keeps
// the first error and turns every later read into a no-op returning zero
// values, so UnmarshalBCS implementations can read straight through and let
// the caller check Err once.
type Decoder struct {
	data []byte
	pos  int
	err  error
}

// NewDecoder returns a decoder over data bounded by DefaultMaxSize.
func NewDecoder(data []byte) *Decoder {
	return NewDecoderWithLimit(data, DefaultMaxSize)
}

// NewDecoderWithLimit returns a decoder that rejects data longer than maxSize
// bytes. A non-positive maxSize disables the bound.
func NewDecoderWithLimit(data []byte, maxSize int) *Decoder {
	d := &Decoder{data: data}
	if maxSize > 0 && len(data) > maxSize {
		d.err = fmt.Errorf("%w: %d bytes, limit %d", ErrSizeLimit, len(data), maxSize)
	}
	return d
}

// Err returns the first decoding error.
func (d *Decoder) Err() error {
	return d.err
}

// SetErr records err unless an earlier error is already set.
func (d *Decoder) SetErr(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// Finish returns the decoding error, or ErrTrailingBytes if input is left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, d.Remaining())
	}
	return nil
}

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Remaining() < n {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, d.pos, d.Remaining())
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

// ReadU8 reads a single byte.
func (d *Decoder) ReadU8() uint8 {
	b := d.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadU16 reads a little-endian uint16.
func (d *Decoder) ReadU16() uint16 {
	b := d.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadU32 reads a little-endian uint32.
func (d *Decoder) ReadU32() uint32 {
	b := d.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadU64 reads a little-endian uint64.
func (d *Decoder) ReadU64() uint64 {
	b := d.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadBool reads a bool; any byte other than 0 or 1 is an error.
func (d *Decoder) ReadBool() bool {
	v := d.ReadU8()
	switch {
	case d.err != nil:
		return false
	case v == 0:
		return false
	case v == 1:
		return true
	default:
		d.SetErr(fmt.Errorf("%w: 0x%02x", ErrInvalidBool, v))
		return false
	}
}

// ReadULEB128 reads an unsigned LEB128 value that fits in 32 bits and is
// minimally encoded.
func (d *Decoder) ReadULEB128() uint32 {
	var value uint64
	for shift := uint(0); shift < 35; shift += 7 {
		b := d.ReadU8()
		if d.err != nil {
			return 0
		}
		digit := uint64(b & 0x7f)
		value |= digit << shift
		if b&0x80 == 0 {
			if shift > 0 && digit == 0 {
				d.SetErr(ErrNonCanonicalULEB)
				return 0
			}
			if value > 0xffffffff {
				d.SetErr(fmt.Errorf("%w: value overflows u32", ErrNonCanonicalULEB))
				return 0
			}
			return uint32(value)
		}
	}
	d.SetErr(fmt.Errorf("%w: too many bytes", ErrNonCanonicalULEB))
	return 0
}

// ReadLength reads a sequence length and checks it against the unread input.
// Every element of every sequence this package decodes occupies at least one
// byte, so a length beyond the remaining input is malformed.
func (d *Decoder) ReadLength() int {
	n := d.ReadULEB128()
	if d.err != nil {
		return 0
	}
	if n > MaxSequenceLength {
		d.SetErr(fmt.Errorf("%w: %d", ErrSequenceTooLong, n))
		return 0
	}
	if int(n) > d.Remaining() {
		d.SetErr(fmt.Errorf("%w: sequence of %d with %d bytes left", ErrUnexpectedEOF, n, d.Remaining()))
		return 0
	}
	return int(n)
}

// ReadVariant reads an enum variant index.
func (d *Decoder) ReadVariant() uint32 {
	return d.ReadULEB128()
}

// UnknownVariant records an unknown-variant error for the named enum.
func (d *Decoder) UnknownVariant(enum string, idx uint32) {
	d.SetErr(fmt.Errorf("%w: %s variant %d", ErrUnknownVariant, enum, idx))
}

// ReadOption reads an option tag and reports whether a value follows.
func (d *Decoder) ReadOption() bool {
	v := d.ReadU8()
	switch {
	case d.err != nil:
		return false
	case v == 0:
		return false
	case v == 1:
		return true
	default:
		d.SetErr(fmt.Errorf("%w: 0x%02x", ErrUnsupportedOption, v))
		return false
	}
}

// ReadFixedBytes reads exactly n bytes and returns a copy.
func (d *Decoder) ReadFixedBytes(n int) []byte {
	b := d.next(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadInto fills dst from the input.
func (d *Decoder) ReadInto(dst []byte) {
	b := d.next(len(dst))
	if b != nil {
		copy(dst, b)
	}
}

// ReadBytes reads a length-prefixed byte vector.
func (d *Decoder) ReadBytes() []byte {
	n := d.ReadLength()
	if d.err != nil {
		return nil
	}
	return d.ReadFixedBytes(n)
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() string {
	b := d.ReadBytes()
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.SetErr(ErrInvalidUTF8)
		return ""
	}
	return string(b)
}

// Read decodes v from the input.
func (d *Decoder) Read(v Unmarshaler) {
	if d.err != nil {
		return
	}
	v.UnmarshalBCS(d)
}

// ReadSeq reads a length-prefixed sequence of values.
func ReadSeq[T any, PT interface {
	*T
	Unmarshaler
}](d *Decoder) []T {
	n := d.ReadLength()
	if d.err != nil {
		return nil
	}
	out := make([]T, n)
	for i := range out {
		PT(&out[i]).UnmarshalBCS(d)
		if d.err != nil {
			return nil
		}
	}
	return out
}

// ReadOptional reads an option, returning nil for None.
func ReadOptional[T any, PT interface {
	*T
	Unmarshaler
}](d *Decoder) *T {
	if !d.ReadOption() {
		return nil
	}
	v := new(T)
	PT(v).UnmarshalBCS(d)
	if d.err != nil {
		return nil
	}
	return v
}
