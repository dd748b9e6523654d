package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// BigUint64 is a u64 that travels as a decimal string in JSON so that
// clients with float-only numbers do not lose precision.
type BigUint64 uint64

// MarshalJSON encodes the value as a decimal string.
func (v BigUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(v), 10))
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (v *BigUint64) UnmarshalJSON(data []byte) error {
	s, err := unquoteNumber(data)
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return parseErr(ErrInvalidNumber, s, "not a u64: %v", err)
	}
	*v = BigUint64(n)
	return nil
}

// U128 is an unsigned 128-bit integer carried as a decimal string on the wire.
type U128 struct {
	v uint256.Int
}

var maxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// MaxU128 returns 2^128-1.
func MaxU128() U128 {
	var u U128
	u.v.Set(maxU128)
	return u
}

// NewU128 returns a U128 holding a u64.
func NewU128(n uint64) U128 {
	var u U128
	u.v.SetUint64(n)
	return u
}

// ParseU128 parses a decimal string, rejecting values above 2^128-1.
func ParseU128(s string) (U128, error) {
	var u U128
	if err := u.v.SetFromDecimal(s); err != nil {
		return U128{}, parseErr(ErrInvalidNumber, s, "%v", err)
	}
	if u.v.Gt(maxU128) {
		return U128{}, parseErr(ErrInvalidNumber, s, "exceeds 128 bits")
	}
	return u, nil
}

// IsUint64 reports whether the value fits in a u64.
func (u U128) IsUint64() bool {
	return u.v.IsUint64()
}

// Uint64 returns the low 64 bits.
func (u U128) Uint64() uint64 {
	return u.v.Uint64()
}

// Cmp compares two values.
func (u U128) Cmp(other U128) int {
	return u.v.Cmp(&other.v)
}

// Decimal converts the value for arithmetic with fractional units. The
// conversion is exact.
func (u U128) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(u.v.ToBig(), 0)
}

// String renders the decimal form.
func (u U128) String() string {
	return u.v.Dec()
}

// MarshalJSON encodes the value as a decimal string.
func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (u *U128) UnmarshalJSON(data []byte) error {
	s, err := unquoteNumber(data)
	if err != nil {
		return err
	}
	parsed, err := ParseU128(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// I128 is a signed 128-bit integer carried as a decimal string, used for
// balance changes.
type I128 struct {
	d decimal.Decimal
}

var (
	maxI128 = decimal.RequireFromString("170141183460469231731687303715884105727")
	minI128 = decimal.RequireFromString("-170141183460469231731687303715884105728")
)

// NewI128 returns an I128 holding n.
func NewI128(n int64) I128 {
	return I128{d: decimal.NewFromInt(n)}
}

// ParseI128 parses a signed decimal integer within the i128 range.
func ParseI128(s string) (I128, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return I128{}, parseErr(ErrInvalidNumber, s, "%v", err)
	}
	if !d.IsInteger() {
		return I128{}, parseErr(ErrInvalidNumber, s, "not an integer")
	}
	if d.GreaterThan(maxI128) || d.LessThan(minI128) {
		return I128{}, parseErr(ErrInvalidNumber, s, "exceeds 128 bits")
	}
	return I128{d: d}, nil
}

// Sign returns -1, 0 or 1.
func (i I128) Sign() int {
	return i.d.Sign()
}

// Abs returns the magnitude as a decimal.
func (i I128) Abs() decimal.Decimal {
	return i.d.Abs()
}

// Decimal returns the value as a decimal.
func (i I128) Decimal() decimal.Decimal {
	return i.d
}

// String renders the decimal form.
func (i I128) String() string {
	return i.d.String()
}

// MarshalJSON encodes the value as a decimal string.
func (i I128) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (i *I128) UnmarshalJSON(data []byte) error {
	s, err := unquoteNumber(data)
	if err != nil {
		return err
	}
	parsed, err := ParseI128(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func unquoteNumber(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected number or numeric string: %w", err)
	}
	return n.String(), nil
}
