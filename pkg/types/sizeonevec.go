package types

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// ErrSizeOneVec is returned when a SizeOneVec is built from the wrong number
// of elements.
var ErrSizeOneVec = errors.New("expected a vector of exactly one element")

// SizeOneVec is a sequence that always holds exactly one element. It is
// encoded as an ordinary BCS vector.
type SizeOneVec[T any] struct {
	e T
}

// NewSizeOneVec wraps e.
func NewSizeOneVec[T any](e T) SizeOneVec[T] {
	return SizeOneVec[T]{e: e}
}

// SizeOneVecFromSlice fails unless xs has exactly one element.
func SizeOneVecFromSlice[T any](xs []T) (SizeOneVec[T], error) {
	if len(xs) != 1 {
		return SizeOneVec[T]{}, fmt.Errorf("%w, got %d", ErrSizeOneVec, len(xs))
	}
	return SizeOneVec[T]{e: xs[0]}, nil
}

// Element returns the single element.
func (v SizeOneVec[T]) Element() T {
	return v.e
}

// ElementMut returns a pointer to the single element.
func (v *SizeOneVec[T]) ElementMut() *T {
	return &v.e
}

// Slice returns the element as a one-element slice.
func (v SizeOneVec[T]) Slice() []T {
	return []T{v.e}
}

// WriteSizeOneVec encodes v as a one-element vector.
func WriteSizeOneVec[T bcs.Marshaler](e *bcs.Encoder, v SizeOneVec[T]) {
	e.WriteLength(1)
	v.e.MarshalBCS(e)
}

// ReadSizeOneVec decodes a vector and fails unless it has one element.
func ReadSizeOneVec[T any, PT interface {
	*T
	bcs.Unmarshaler
}](d *bcs.Decoder) SizeOneVec[T] {
	n := d.ReadLength()
	if d.Err() != nil {
		return SizeOneVec[T]{}
	}
	if n != 1 {
		d.SetErr(fmt.Errorf("%w, got %d", ErrSizeOneVec, n))
		return SizeOneVec[T]{}
	}
	var v SizeOneVec[T]
	PT(&v.e).UnmarshalBCS(d)
	return v
}
