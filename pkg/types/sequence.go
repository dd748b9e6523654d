package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
)

// SequenceNumber is an object or checkpoint version.
type SequenceNumber uint64

// Reserved sequence numbers above the valid range.
const (
	MaxSequenceNumber             SequenceNumber = 0x7fff_ffff_ffff_ffff
	CancelledReadSequence         SequenceNumber = MaxSequenceNumber + 1
	CongestedSequence             SequenceNumber = MaxSequenceNumber + 2
	RandomnessUnavailableSequence SequenceNumber = MaxSequenceNumber + 3
)

// Sequence number ordering errors.
var (
	ErrSequenceOverflow  = errors.New("sequence number overflow")
	ErrSequenceUnderflow = errors.New("sequence number underflow")
	ErrSequenceOrder     = errors.New("sequence number out of order")
)

// Value returns the raw counter.
func (s SequenceNumber) Value() uint64 {
	return uint64(s)
}

// Increment returns s+1. It fails instead of wrapping at the top of the range.
func (s SequenceNumber) Increment() (SequenceNumber, error) {
	if uint64(s) == math.MaxUint64 {
		return s, ErrSequenceOverflow
	}
	return s + 1, nil
}

// Decrement returns s-1. It fails at zero.
func (s SequenceNumber) Decrement() (SequenceNumber, error) {
	if s == 0 {
		return s, ErrSequenceUnderflow
	}
	return s - 1, nil
}

// IncrementTo moves s forward to next, which must be strictly greater.
func (s SequenceNumber) IncrementTo(next SequenceNumber) (SequenceNumber, error) {
	if s >= next {
		return s, fmt.Errorf("%w: %d is not below %d", ErrSequenceOrder, s, next)
	}
	return next, nil
}

// DecrementTo moves s back to prev, which must be strictly smaller.
func (s SequenceNumber) DecrementTo(prev SequenceNumber) (SequenceNumber, error) {
	if prev >= s {
		return s, fmt.Errorf("%w: %d is not below %d", ErrSequenceOrder, prev, s)
	}
	return prev, nil
}

// IsCancelled reports whether s is one of the cancellation sentinels.
func (s SequenceNumber) IsCancelled() bool {
	return s == CancelledReadSequence || s == CongestedSequence || s == RandomnessUnavailableSequence
}

// IsValid reports whether s is an ordinary version.
func (s SequenceNumber) IsValid() bool {
	return s < MaxSequenceNumber
}

// String renders the version as 0x-prefixed hex.
func (s SequenceNumber) String() string {
	return "0x" + strconv.FormatUint(uint64(s), 16)
}

// MarshalJSON encodes the version as a decimal string.
func (s SequenceNumber) MarshalJSON() ([]byte, error) {
	return BigUint64(s).MarshalJSON()
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (s *SequenceNumber) UnmarshalJSON(data []byte) error {
	var v BigUint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SequenceNumber(v)
	return nil
}

func (s SequenceNumber) MarshalBCS(e *bcs.Encoder)    { e.WriteU64(uint64(s)) }
func (s *SequenceNumber) UnmarshalBCS(d *bcs.Decoder) { *s = SequenceNumber(d.ReadU64()) }
