package tx

import (
	"math"
	"testing"
)

func TestGasBudgetFromCosts(t *testing.T) {
	tests := []struct {
		name                                string
		computation, storage, rebate, price uint64
		want                                uint64
	}{
		{"storage exceeds rebate", 1_000_000, 2_000_000, 500_000, 1000, 1_000_000 + 1_000_000 + 1_500_000},
		{"rebate exceeds storage", 1_000_000, 100_000, 900_000, 1000, 2_000_000},
		{"rebate exceeds everything", 10, 0, 5_000_000, 1000, 1_000_010},
		{"zero price", 500, 0, 0, 0, 500},
		{"saturates", math.MaxUint64 - 1, 10, 0, 1000, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GasBudgetFromCosts(tt.computation, tt.storage, tt.rebate, tt.price)
			if got != tt.want {
				t.Errorf("GasBudgetFromCosts = %d, want %d", got, tt.want)
			}
		})
	}
}
