package wallet

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

// ErrConversion is returned when an amount cannot be represented in base
// units.
var ErrConversion = errors.New("amount conversion")

// maxDecimals bounds the configured precision so that 10^decimals stays
// well inside u128.
const maxDecimals = 38

var maxUint64 = decimal.NewFromUint64(math.MaxUint64)

// FromBaseUnits converts an integer amount of base units to a decimal with
// decimals fractional digits.
func FromBaseUnits(v types.U128, decimals uint32) decimal.Decimal {
	return v.Decimal().Shift(-int32(decimals))
}

// ToBaseUnits converts a decimal amount to base units. It rejects negative
// values, values with more fractional digits than decimals and values that
// do not fit in a u64.
func ToBaseUnits(amount decimal.Decimal, decimals uint32) (uint64, error) {
	if decimals > maxDecimals {
		return 0, fmt.Errorf("%w: %d decimals not supported", ErrConversion, decimals)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: cannot represent negative values: %s", ErrConversion, amount)
	}
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: cannot represent %s with %d decimals", ErrConversion, amount, decimals)
	}
	if scaled.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %s exceeds u64 in base units", ErrConversion, amount)
	}
	return scaled.BigInt().Uint64(), nil
}
