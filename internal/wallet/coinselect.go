package wallet

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/rebased-wallet/internal/rpcclient"
)

// ErrInsufficientFunds is returned when the owned coins cannot cover the
// amount plus the gas budget.
var ErrInsufficientFunds = errors.New("insufficient balance")

// GasSelection is the outcome of SelectGasCoins: the coin that pays for
// gas, and the coins to merge into it before splitting off the amount.
type GasSelection struct {
	Gas   rpcclient.Coin
	Merge []rpcclient.Coin
	Total uint64 // balance of Gas after merging
}

// SelectGasCoins picks the coins funding a transfer of amount with budget
// reserved for gas, in the order the node listed them:
//  1. The first coin whose balance strictly exceeds amount + budget.
//  2. Otherwise the first coin covering budget becomes the gas coin, and
//     the remaining coins are merged into it in order until amount + budget
//     is covered.
func SelectGasCoins(coins []rpcclient.Coin, amount, budget uint64) (*GasSelection, error) {
	if amount > math.MaxUint64-budget {
		return nil, fmt.Errorf("amount %d plus budget %d overflows", amount, budget)
	}
	required := amount + budget

	for _, c := range coins {
		if uint64(c.Balance) > required {
			return &GasSelection{Gas: c, Total: uint64(c.Balance)}, nil
		}
	}

	gasIdx := -1
	for i, c := range coins {
		if uint64(c.Balance) >= budget {
			gasIdx = i
			break
		}
	}
	if gasIdx < 0 {
		return nil, fmt.Errorf("%w: no coin covers the gas budget %d", ErrInsufficientFunds, budget)
	}

	sel := &GasSelection{Gas: coins[gasIdx], Total: uint64(coins[gasIdx].Balance)}
	for i, c := range coins {
		if sel.Total >= required {
			break
		}
		if i == gasIdx {
			continue
		}
		sel.Total = satAdd(sel.Total, uint64(c.Balance))
		sel.Merge = append(sel.Merge, c)
	}
	if sel.Total < required {
		return nil, fmt.Errorf("%w: Required: %d, found: %d", ErrInsufficientFunds, required, sel.Total)
	}
	return sel, nil
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
