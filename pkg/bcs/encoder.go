package bcs

import (
	"encoding/binary"
	"fmt"
)

// Encoder accumulates the canonical encoding of a value.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Err returns the first error recorded by the encoder.
func (e *Encoder) Err() error {
	return e.err
}

// SetErr records err unless an earlier error is already set.
func (e *Encoder) SetErr(err error) {
	if e.err == nil {
		e.err = err
	}
}

// WriteU8 writes a single byte.
func (e *Encoder) WriteU8(v uint8) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, v)
}

// WriteU16 writes a little-endian uint16.
func (e *Encoder) WriteU16(v uint16) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// WriteU32 writes a little-endian uint32.
func (e *Encoder) WriteU32(v uint32) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteU64 writes a little-endian uint64.
func (e *Encoder) WriteU64(v uint64) {
	if e.err != nil {
		return
	}
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// WriteBool writes 0x01 for true and 0x00 for false.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteU8(1)
	} else {
		e.WriteU8(0)
	}
}

// WriteULEB128 writes v as unsigned LEB128.
func (e *Encoder) WriteULEB128(v uint32) {
	if e.err != nil {
		return
	}
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteLength writes a sequence length prefix.
func (e *Encoder) WriteLength(n int) {
	if n < 0 || n > MaxSequenceLength {
		e.SetErr(fmt.Errorf("%w: %d", ErrSequenceTooLong, n))
		return
	}
	e.WriteULEB128(uint32(n))
}

// WriteVariant writes an enum variant index.
func (e *Encoder) WriteVariant(idx uint32) {
	e.WriteULEB128(idx)
}

// WriteOption writes the option tag. The caller writes the value when
// present is true.
func (e *Encoder) WriteOption(present bool) {
	e.WriteBool(present)
}

// WriteFixedBytes writes b with no length prefix.
func (e *Encoder) WriteFixedBytes(b []byte) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, b...)
}

// WriteBytes writes a length-prefixed byte vector.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteLength(len(b))
	e.WriteFixedBytes(b)
}

// WriteString writes a length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) {
	e.WriteLength(len(s))
	e.WriteFixedBytes([]byte(s))
}

// Write encodes v into the encoder.
func (e *Encoder) Write(v Marshaler) {
	if e.err != nil {
		return
	}
	v.MarshalBCS(e)
}

// WriteSeq writes a length-prefixed sequence of values.
func WriteSeq[T Marshaler](e *Encoder, items []T) {
	e.WriteLength(len(items))
	for _, it := range items {
		e.Write(it)
	}
}

// WriteOptional writes a pointer as an option: nil encodes None.
func WriteOptional[T Marshaler](e *Encoder, v *T) {
	if v == nil {
		e.WriteOption(false)
		return
	}
	e.WriteOption(true)
	e.Write(*v)
}
