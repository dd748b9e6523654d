package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Protocol limits checked before a transaction is signed.
const (
	MaxInputs          = 2048
	MaxCommands        = 1024
	MaxPureArgSize     = 16 * 1024
	MaxGasPaymentCoins = 256
)

// Validation errors.
var (
	ErrNoCommands        = errors.New("transaction has no commands")
	ErrTooManyInputs     = errors.New("too many inputs")
	ErrTooManyCommands   = errors.New("too many commands")
	ErrPureTooLarge      = errors.New("pure argument too large")
	ErrDanglingArgument  = errors.New("argument references a missing input or later result")
	ErrEmptyCommand      = errors.New("command has no arguments")
	ErrUntypedEmptyVec   = errors.New("empty vector requires an element type")
	ErrNoGasPayment      = errors.New("no gas payment coins")
	ErrTooManyGasCoins   = errors.New("too many gas payment coins")
	ErrZeroGasBudget     = errors.New("gas budget is zero")
	ErrZeroGasPrice      = errors.New("gas price is zero")
	ErrDuplicateGasCoin  = errors.New("duplicate gas payment coin")
	ErrGasCoinIsArgument = errors.New("gas payment coin is also an input")
)

// Validate checks structure and static limits. It does not check object
// ownership or versions; the node does that.
func (p ProgrammableTransaction) Validate() error {
	if len(p.Commands) == 0 {
		return ErrNoCommands
	}
	if len(p.Inputs) > MaxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(p.Inputs), MaxInputs)
	}
	if len(p.Commands) > MaxCommands {
		return fmt.Errorf("%w: %d commands, max %d", ErrTooManyCommands, len(p.Commands), MaxCommands)
	}
	for i, in := range p.Inputs {
		if in.IsPure() && len(in.Pure) > MaxPureArgSize {
			return fmt.Errorf("input %d: %w: %d bytes, max %d", i, ErrPureTooLarge, len(in.Pure), MaxPureArgSize)
		}
	}

	for i, cmd := range p.Commands {
		if err := p.validateCommand(i, cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Kind, err)
		}
	}
	return nil
}

func (p ProgrammableTransaction) validateCommand(i int, cmd Command) error {
	switch cmd.Kind {
	case CmdTransferObjects, CmdSplitCoins, CmdMergeCoins:
		if len(cmd.Args) == 0 {
			return ErrEmptyCommand
		}
	case CmdMakeMoveVec:
		if cmd.VecType == nil && len(cmd.Args) == 0 {
			return ErrUntypedEmptyVec
		}
	case CmdPublish, CmdUpgrade:
		if len(cmd.Modules) == 0 {
			return ErrEmptyCommand
		}
	case CmdMoveCall:
		if cmd.Call == nil {
			return ErrEmptyCommand
		}
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
	for _, a := range cmd.Arguments() {
		if !p.argumentInScope(i, a) {
			return fmt.Errorf("%w: %s", ErrDanglingArgument, a)
		}
	}
	return nil
}

// argumentInScope reports whether a, used by command cmd, names an existing
// input or the result of an earlier command.
func (p ProgrammableTransaction) argumentInScope(cmd int, a Argument) bool {
	switch a.Kind {
	case ArgGasCoin:
		return true
	case ArgInput:
		return int(a.Index) < len(p.Inputs)
	case ArgResult, ArgNestedResult:
		return int(a.Index) < cmd
	}
	return false
}

// Validate checks the programmable transaction and the gas section.
func (t TransactionData) Validate() error {
	if err := t.Kind.Programmable.Validate(); err != nil {
		return err
	}
	g := t.Gas
	if len(g.Payment) == 0 {
		return ErrNoGasPayment
	}
	if len(g.Payment) > MaxGasPaymentCoins {
		return fmt.Errorf("%w: %d coins, max %d", ErrTooManyGasCoins, len(g.Payment), MaxGasPaymentCoins)
	}
	if g.Budget == 0 {
		return ErrZeroGasBudget
	}
	if g.Price == 0 {
		return ErrZeroGasPrice
	}

	inputs := make(map[types.ObjectID]bool)
	for _, id := range t.Kind.Programmable.InputObjects() {
		inputs[id] = true
	}
	seen := make(map[types.ObjectID]bool, len(g.Payment))
	for i, ref := range g.Payment {
		if seen[ref.ObjectID] {
			return fmt.Errorf("gas coin %d: %w: %s", i, ErrDuplicateGasCoin, ref.ObjectID)
		}
		seen[ref.ObjectID] = true
		if inputs[ref.ObjectID] {
			return fmt.Errorf("gas coin %d: %w: %s", i, ErrGasCoinIsArgument, ref.ObjectID)
		}
	}
	return nil
}
