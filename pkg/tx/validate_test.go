package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

func TestValidate_Valid(t *testing.T) {
	if err := sampleTransactionData(t).Validate(); err != nil {
		t.Errorf("valid transaction should pass: %v", err)
	}
}

func TestProgrammableTransaction_Validate(t *testing.T) {
	twoInputs := []CallArg{PureArg([]byte{1}), PureArg([]byte{2})}
	tests := []struct {
		name string
		pt   ProgrammableTransaction
		want error
	}{
		{
			name: "no commands",
			pt:   ProgrammableTransaction{Inputs: twoInputs},
			want: ErrNoCommands,
		},
		{
			name: "input out of range",
			pt: ProgrammableTransaction{Inputs: twoInputs, Commands: []Command{
				TransferObjectsCommand([]Argument{GasCoin}, Input(2)),
			}},
			want: ErrDanglingArgument,
		},
		{
			name: "result of itself",
			pt: ProgrammableTransaction{Inputs: twoInputs, Commands: []Command{
				SplitCoinsCommand(Result(0), []Argument{Input(0)}),
			}},
			want: ErrDanglingArgument,
		},
		{
			name: "nested result of later command",
			pt: ProgrammableTransaction{Inputs: twoInputs, Commands: []Command{
				SplitCoinsCommand(GasCoin, []Argument{Input(0)}),
				TransferObjectsCommand([]Argument{NestedResult(2, 0)}, Input(1)),
			}},
			want: ErrDanglingArgument,
		},
		{
			name: "empty split",
			pt: ProgrammableTransaction{Inputs: twoInputs, Commands: []Command{
				SplitCoinsCommand(GasCoin, nil),
			}},
			want: ErrEmptyCommand,
		},
		{
			name: "untyped empty vector",
			pt: ProgrammableTransaction{Commands: []Command{
				MakeMoveVecCommand(nil, nil),
			}},
			want: ErrUntypedEmptyVec,
		},
		{
			name: "pure too large",
			pt: ProgrammableTransaction{
				Inputs:   []CallArg{PureArg(make([]byte, MaxPureArgSize+1))},
				Commands: []Command{TransferObjectsCommand([]Argument{GasCoin}, Input(0))},
			},
			want: ErrPureTooLarge,
		},
		{
			name: "too many commands",
			pt: ProgrammableTransaction{
				Inputs:   twoInputs,
				Commands: make([]Command, MaxCommands+1),
			},
			want: ErrTooManyCommands,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.pt.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionData_ValidateGas(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(td *TransactionData)
		want   error
	}{
		{"no payment", func(td *TransactionData) { td.Gas.Payment = nil }, ErrNoGasPayment},
		{"zero budget", func(td *TransactionData) { td.Gas.Budget = 0 }, ErrZeroGasBudget},
		{"zero price", func(td *TransactionData) { td.Gas.Price = 0 }, ErrZeroGasPrice},
		{"duplicate coin", func(td *TransactionData) {
			td.Gas.Payment = append(td.Gas.Payment, td.Gas.Payment[0])
		}, ErrDuplicateGasCoin},
		{"too many coins", func(td *TransactionData) {
			td.Gas.Payment = make([]types.ObjectRef, MaxGasPaymentCoins+1)
		}, ErrTooManyGasCoins},
		{"gas coin used as input", func(td *TransactionData) {
			b := NewBuilder()
			if err := b.Pay([]types.ObjectRef{td.Gas.Payment[0]}, []types.AccountAddress{testAddress(9)}, []uint64{1}); err != nil {
				t.Fatalf("Pay: %v", err)
			}
			td.Kind = NewProgrammableKind(b.Finish())
		}, ErrGasCoinIsArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := sampleTransactionData(t)
			tt.mutate(&td)
			if err := td.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
