package tx

import "math"

// GasSafeOverhead is the number of gas units added on top of a dry-run
// computation cost when suggesting a budget.
const GasSafeOverhead = 1000

// GasBudgetFromCosts suggests a gas budget from a dry run's cost summary at
// the given reference gas price:
//
//	overhead = GasSafeOverhead * price
//	budget   = max(computation + overhead, computation + overhead + storage - rebate)
//
// The rebate never drives the budget below computation + overhead. All
// arithmetic saturates at math.MaxUint64.
func GasBudgetFromCosts(computation, storage, rebate, price uint64) uint64 {
	overhead := satMul(GasSafeOverhead, price)
	base := satAdd(computation, overhead)
	withStorage := satAdd(base, storage)
	if withStorage > rebate && withStorage-rebate > base {
		return withStorage - rebate
	}
	return base
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
