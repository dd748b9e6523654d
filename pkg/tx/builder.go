package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// Builder errors.
var (
	ErrInvariantViolation = errors.New("builder invariant violation")
	ErrLengthMismatch     = errors.New("length mismatch")
	ErrMismatch           = errors.New("mismatched object argument")
)

type inputKeyKind uint8

const (
	keyObject inputKeyKind = iota
	keyPure
	keyForcedPure
)

// inputKey identifies an input for deduplication: objects by ID, pure values
// by their bytes. Forced-separate pure inputs are keyed by position and never
// merge.
type inputKey struct {
	kind   inputKeyKind
	id     types.ObjectID
	pure   string
	forced int
}

// Builder constructs a programmable transaction incrementally. Identical pure
// values and repeated objects share one input slot.
type Builder struct {
	inputs   []CallArg
	index    map[inputKey]int
	commands []Command
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[inputKey]int)}
}

// insert stores arg under key, replacing an existing slot with the same key.
func (b *Builder) insert(key inputKey, arg CallArg) Argument {
	if i, ok := b.index[key]; ok {
		b.inputs[i] = arg
		return Input(uint16(i))
	}
	i := len(b.inputs)
	b.index[key] = i
	b.inputs = append(b.inputs, arg)
	return Input(uint16(i))
}

// PureBytes adds already-encoded bytes as a pure input. Unless forceSeparate
// is set, identical bytes reuse the existing input.
func (b *Builder) PureBytes(raw []byte, forceSeparate bool) Argument {
	key := inputKey{kind: keyPure, pure: string(raw)}
	if forceSeparate {
		key = inputKey{kind: keyForcedPure, forced: len(b.inputs)}
	}
	return b.insert(key, PureArg(append([]byte(nil), raw...)))
}

// Pure encodes v and adds it as a deduplicated pure input.
func (b *Builder) Pure(v bcs.Marshaler) (Argument, error) {
	raw, err := bcs.Marshal(v)
	if err != nil {
		return Argument{}, fmt.Errorf("encode pure argument: %w", err)
	}
	return b.PureBytes(raw, false), nil
}

// ForceSeparatePure encodes v into a fresh input slot even if an identical
// value already exists.
func (b *Builder) ForceSeparatePure(v bcs.Marshaler) (Argument, error) {
	raw, err := bcs.Marshal(v)
	if err != nil {
		return Argument{}, fmt.Errorf("encode pure argument: %w", err)
	}
	return b.PureBytes(raw, true), nil
}

// Obj adds an object input. Adding the same shared object twice at the same
// initial version merges mutability; any other difference from an earlier
// use of the same ID is ErrMismatch.
func (b *Builder) Obj(o ObjectArg) (Argument, error) {
	id := o.ID()
	key := inputKey{kind: keyObject, id: id}
	merged := o
	if i, ok := b.index[key]; ok {
		old := b.inputs[i]
		if old.IsPure() {
			return Argument{}, fmt.Errorf("%w: object %s has pure argument", ErrInvariantViolation, id)
		}
		prev := *old.Object
		switch {
		case prev.Kind == ObjShared && o.Kind == ObjShared && prev.InitialSharedVersion == o.InitialSharedVersion:
			if prev.SharedID != o.SharedID {
				return Argument{}, fmt.Errorf("%w: object id mismatch %s != %s", ErrInvariantViolation, prev.SharedID, o.SharedID)
			}
			merged = SharedObject(id, o.InitialSharedVersion, prev.Mutable || o.Mutable)
		case prev != o:
			return Argument{}, fmt.Errorf("%w: %s vs %s", ErrMismatch, prev, o)
		}
	}
	return b.insert(key, ObjectCallArg(merged)), nil
}

// Input adds a call argument of either kind.
func (b *Builder) Input(arg CallArg) (Argument, error) {
	if arg.IsPure() {
		return b.PureBytes(arg.Pure, false), nil
	}
	return b.Obj(*arg.Object)
}

// MakeObjVec adds objs and builds a vector of them.
func (b *Builder) MakeObjVec(objs []ObjectArg) (Argument, error) {
	args := make([]Argument, 0, len(objs))
	for _, o := range objs {
		a, err := b.Obj(o)
		if err != nil {
			return Argument{}, err
		}
		args = append(args, a)
	}
	return b.Command(MakeMoveVecCommand(nil, args)), nil
}

// Command appends cmd and returns a reference to its result.
func (b *Builder) Command(cmd Command) Argument {
	b.commands = append(b.commands, cmd)
	return Result(uint16(len(b.commands) - 1))
}

// MoveCall adds args as inputs and calls package::module::function.
func (b *Builder) MoveCall(pkg types.ObjectID, module, function types.Identifier, typeArgs []types.TypeTag, args []CallArg) error {
	converted := make([]Argument, 0, len(args))
	for _, a := range args {
		in, err := b.Input(a)
		if err != nil {
			return err
		}
		converted = append(converted, in)
	}
	b.Command(MoveCallCommand(pkg, module, function, typeArgs, converted))
	return nil
}

// ProgrammableMoveCall calls a function with arguments already in the graph
// and returns its result.
func (b *Builder) ProgrammableMoveCall(pkg types.ObjectID, module, function types.Identifier, typeArgs []types.TypeTag, args []Argument) Argument {
	return b.Command(MoveCallCommand(pkg, module, function, typeArgs, args))
}

// TransferArg sends one value to recipient.
func (b *Builder) TransferArg(recipient types.AccountAddress, arg Argument) error {
	return b.TransferArgs(recipient, []Argument{arg})
}

// TransferArgs sends values to recipient.
func (b *Builder) TransferArgs(recipient types.AccountAddress, args []Argument) error {
	rec, err := b.Pure(recipient)
	if err != nil {
		return err
	}
	b.Command(TransferObjectsCommand(args, rec))
	return nil
}

// TransferObject sends an owned object to recipient.
func (b *Builder) TransferObject(recipient types.AccountAddress, ref types.ObjectRef) error {
	rec, err := b.Pure(recipient)
	if err != nil {
		return err
	}
	obj, err := b.Obj(ImmOrOwnedObject(ref))
	if err != nil {
		return err
	}
	b.Command(TransferObjectsCommand([]Argument{obj}, rec))
	return nil
}

// TransferIota sends amount from the gas coin to recipient, or the whole gas
// coin when amount is nil.
func (b *Builder) TransferIota(recipient types.AccountAddress, amount *uint64) error {
	rec, err := b.Pure(recipient)
	if err != nil {
		return err
	}
	coin := GasCoin
	if amount != nil {
		amt, err := b.Pure(bcs.U64(*amount))
		if err != nil {
			return err
		}
		coin = b.Command(SplitCoinsCommand(GasCoin, []Argument{amt}))
	}
	b.Command(TransferObjectsCommand([]Argument{coin}, rec))
	return nil
}

// PayAllIota sends the entire gas coin to recipient.
func (b *Builder) PayAllIota(recipient types.AccountAddress) error {
	rec, err := b.Pure(recipient)
	if err != nil {
		return err
	}
	b.Command(TransferObjectsCommand([]Argument{GasCoin}, rec))
	return nil
}

// PayIota splits amounts off the gas coin and sends recipients[i] amounts[i].
func (b *Builder) PayIota(recipients []types.AccountAddress, amounts []uint64) error {
	return b.payImpl(recipients, amounts, GasCoin)
}

// Pay merges coins into the first one, then splits amounts off it and sends
// recipients[i] amounts[i].
func (b *Builder) Pay(coins []types.ObjectRef, recipients []types.AccountAddress, amounts []uint64) error {
	if len(coins) == 0 {
		return fmt.Errorf("%w: coins vector is empty", ErrLengthMismatch)
	}
	coin, err := b.Obj(ImmOrOwnedObject(coins[0]))
	if err != nil {
		return err
	}
	if len(coins) > 1 {
		rest := make([]Argument, 0, len(coins)-1)
		for _, c := range coins[1:] {
			a, err := b.Obj(ImmOrOwnedObject(c))
			if err != nil {
				return err
			}
			rest = append(rest, a)
		}
		b.Command(MergeCoinsCommand(coin, rest))
	}
	return b.payImpl(recipients, amounts, coin)
}

// payImpl performs one split for all amounts, then one transfer per distinct
// recipient in first-seen order.
func (b *Builder) payImpl(recipients []types.AccountAddress, amounts []uint64, coin Argument) error {
	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: got %d recipients but %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}
	if len(amounts) == 0 {
		return nil
	}

	var order []types.AccountAddress
	groups := make(map[types.AccountAddress][]uint16)
	amtArgs := make([]Argument, 0, len(amounts))
	for i, rec := range recipients {
		if _, seen := groups[rec]; !seen {
			order = append(order, rec)
		}
		groups[rec] = append(groups[rec], uint16(i))
		a, err := b.Pure(bcs.U64(amounts[i]))
		if err != nil {
			return err
		}
		amtArgs = append(amtArgs, a)
	}
	split := b.Command(SplitCoinsCommand(coin, amtArgs))
	for _, rec := range order {
		recArg, err := b.Pure(rec)
		if err != nil {
			return err
		}
		idxs := groups[rec]
		coins := make([]Argument, len(idxs))
		for k, j := range idxs {
			coins[k] = NestedResult(split.Index, j)
		}
		b.Command(TransferObjectsCommand(coins, recArg))
	}
	return nil
}

// Finish returns the built transaction. The builder may keep being used;
// later changes do not affect the returned value.
func (b *Builder) Finish() ProgrammableTransaction {
	return ProgrammableTransaction{
		Inputs:   append([]CallArg(nil), b.inputs...),
		Commands: append([]Command(nil), b.commands...),
	}
}
