package tx

import (
	"fmt"

	"github.com/Klingon-tech/rebased-wallet/pkg/bcs"
	"github.com/Klingon-tech/rebased-wallet/pkg/types"
)

// ArgumentKind is the variant of an Argument. The values are the BCS ordinals.
type ArgumentKind uint8

const (
	ArgGasCoin      ArgumentKind = 0
	ArgInput        ArgumentKind = 1
	ArgResult       ArgumentKind = 2
	ArgNestedResult ArgumentKind = 3
)

// Argument references a value in the transaction graph: the gas coin, an
// input, the result of an earlier command, or one element of a command's
// tuple result.
type Argument struct {
	Kind     ArgumentKind
	Index    uint16
	SubIndex uint16
}

// GasCoin is the coin paying for gas.
var GasCoin = Argument{Kind: ArgGasCoin}

// Input references the i-th transaction input.
func Input(i uint16) Argument { return Argument{Kind: ArgInput, Index: i} }

// Result references the result of the i-th command.
func Result(i uint16) Argument { return Argument{Kind: ArgResult, Index: i} }

// NestedResult references element j of the i-th command's result.
func NestedResult(i, j uint16) Argument {
	return Argument{Kind: ArgNestedResult, Index: i, SubIndex: j}
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgGasCoin:
		return "GasCoin"
	case ArgInput:
		return fmt.Sprintf("Input(%d)", a.Index)
	case ArgResult:
		return fmt.Sprintf("Result(%d)", a.Index)
	case ArgNestedResult:
		return fmt.Sprintf("NestedResult(%d,%d)", a.Index, a.SubIndex)
	}
	return fmt.Sprintf("Argument(%d)", a.Kind)
}

func (a Argument) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(uint32(a.Kind))
	switch a.Kind {
	case ArgGasCoin:
	case ArgInput, ArgResult:
		e.WriteU16(a.Index)
	case ArgNestedResult:
		e.WriteU16(a.Index)
		e.WriteU16(a.SubIndex)
	default:
		e.SetErr(fmt.Errorf("unknown argument kind %d", a.Kind))
	}
}

func (a *Argument) UnmarshalBCS(d *bcs.Decoder) {
	kind := ArgumentKind(d.ReadVariant())
	if d.Err() != nil {
		return
	}
	*a = Argument{Kind: kind}
	switch kind {
	case ArgGasCoin:
	case ArgInput, ArgResult:
		a.Index = d.ReadU16()
	case ArgNestedResult:
		a.Index = d.ReadU16()
		a.SubIndex = d.ReadU16()
	default:
		d.UnknownVariant("Argument", uint32(kind))
	}
}

// ObjectArgKind is the variant of an ObjectArg.
type ObjectArgKind uint8

const (
	ObjImmOrOwned ObjectArgKind = 0
	ObjShared     ObjectArgKind = 1
	ObjReceiving  ObjectArgKind = 2
)

// ObjectArg is an object input: an owned or immutable object pinned to a
// version, a shared object, or an object being received.
type ObjectArg struct {
	Kind ObjectArgKind
	// Ref is set for owned and receiving objects.
	Ref types.ObjectRef
	// The shared-object fields.
	SharedID             types.ObjectID
	InitialSharedVersion types.SequenceNumber
	Mutable              bool
}

// ImmOrOwnedObject returns an owned or immutable object argument.
func ImmOrOwnedObject(ref types.ObjectRef) ObjectArg {
	return ObjectArg{Kind: ObjImmOrOwned, Ref: ref}
}

// SharedObject returns a shared object argument.
func SharedObject(id types.ObjectID, initialSharedVersion types.SequenceNumber, mutable bool) ObjectArg {
	return ObjectArg{Kind: ObjShared, SharedID: id, InitialSharedVersion: initialSharedVersion, Mutable: mutable}
}

// ReceivingObject returns an argument for an object sent to another object.
func ReceivingObject(ref types.ObjectRef) ObjectArg {
	return ObjectArg{Kind: ObjReceiving, Ref: ref}
}

// ID returns the object ID regardless of the argument shape.
func (o ObjectArg) ID() types.ObjectID {
	if o.Kind == ObjShared {
		return o.SharedID
	}
	return o.Ref.ObjectID
}

func (o ObjectArg) String() string {
	switch o.Kind {
	case ObjImmOrOwned:
		return "ImmOrOwnedObject(" + o.Ref.String() + ")"
	case ObjShared:
		return fmt.Sprintf("SharedObject(%s, %d, mutable=%t)", o.SharedID, uint64(o.InitialSharedVersion), o.Mutable)
	case ObjReceiving:
		return "Receiving(" + o.Ref.String() + ")"
	}
	return fmt.Sprintf("ObjectArg(%d)", o.Kind)
}

func (o ObjectArg) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(uint32(o.Kind))
	switch o.Kind {
	case ObjImmOrOwned, ObjReceiving:
		o.Ref.MarshalBCS(e)
	case ObjShared:
		o.SharedID.MarshalBCS(e)
		o.InitialSharedVersion.MarshalBCS(e)
		e.WriteBool(o.Mutable)
	default:
		e.SetErr(fmt.Errorf("unknown object arg kind %d", o.Kind))
	}
}

func (o *ObjectArg) UnmarshalBCS(d *bcs.Decoder) {
	kind := ObjectArgKind(d.ReadVariant())
	if d.Err() != nil {
		return
	}
	*o = ObjectArg{Kind: kind}
	switch kind {
	case ObjImmOrOwned, ObjReceiving:
		o.Ref.UnmarshalBCS(d)
	case ObjShared:
		o.SharedID.UnmarshalBCS(d)
		o.InitialSharedVersion.UnmarshalBCS(d)
		o.Mutable = d.ReadBool()
	default:
		d.UnknownVariant("ObjectArg", uint32(kind))
	}
}

// CallArg is a transaction input: either BCS-encoded pure bytes or an object.
type CallArg struct {
	// Pure holds the encoded value when Object is nil.
	Pure   []byte
	Object *ObjectArg
}

// PureArg returns a pure input holding already-encoded bytes.
func PureArg(b []byte) CallArg { return CallArg{Pure: b} }

// ObjectCallArg returns an object input.
func ObjectCallArg(o ObjectArg) CallArg { return CallArg{Object: &o} }

// IsPure reports whether the input is a pure value.
func (c CallArg) IsPure() bool { return c.Object == nil }

func (c CallArg) MarshalBCS(e *bcs.Encoder) {
	if c.Object == nil {
		e.WriteVariant(0)
		e.WriteBytes(c.Pure)
		return
	}
	e.WriteVariant(1)
	c.Object.MarshalBCS(e)
}

func (c *CallArg) UnmarshalBCS(d *bcs.Decoder) {
	switch v := d.ReadVariant(); {
	case d.Err() != nil:
	case v == 0:
		*c = CallArg{Pure: d.ReadBytes()}
	case v == 1:
		var o ObjectArg
		o.UnmarshalBCS(d)
		*c = CallArg{Object: &o}
	default:
		d.UnknownVariant("CallArg", v)
	}
}

// ProgrammableMoveCall calls a Move function.
type ProgrammableMoveCall struct {
	Package       types.ObjectID
	Module        types.Identifier
	Function      types.Identifier
	TypeArguments []types.TypeTag
	Arguments     []Argument
}

func (m ProgrammableMoveCall) MarshalBCS(e *bcs.Encoder) {
	m.Package.MarshalBCS(e)
	m.Module.MarshalBCS(e)
	m.Function.MarshalBCS(e)
	bcs.WriteSeq(e, m.TypeArguments)
	bcs.WriteSeq(e, m.Arguments)
}

func (m *ProgrammableMoveCall) UnmarshalBCS(d *bcs.Decoder) {
	m.Package.UnmarshalBCS(d)
	m.Module.UnmarshalBCS(d)
	m.Function.UnmarshalBCS(d)
	m.TypeArguments = bcs.ReadSeq[types.TypeTag](d)
	m.Arguments = bcs.ReadSeq[Argument](d)
}

// CommandKind is the variant of a Command. The values are the BCS ordinals.
type CommandKind uint8

const (
	CmdMoveCall        CommandKind = 0
	CmdTransferObjects CommandKind = 1
	CmdSplitCoins      CommandKind = 2
	CmdMergeCoins      CommandKind = 3
	CmdPublish         CommandKind = 4
	CmdMakeMoveVec     CommandKind = 5
	CmdUpgrade         CommandKind = 6
)

var commandNames = map[CommandKind]string{
	CmdMoveCall:        "MoveCall",
	CmdTransferObjects: "TransferObjects",
	CmdSplitCoins:      "SplitCoins",
	CmdMergeCoins:      "MergeCoins",
	CmdPublish:         "Publish",
	CmdMakeMoveVec:     "MakeMoveVec",
	CmdUpgrade:         "Upgrade",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", uint8(k))
}

// Command is one step of a programmable transaction. Which fields are used
// depends on Kind:
//
//	MoveCall         Call
//	TransferObjects  Args (objects), Arg (recipient)
//	SplitCoins       Arg (coin), Args (amounts)
//	MergeCoins       Arg (target), Args (sources)
//	Publish          Modules, Dependencies
//	MakeMoveVec      VecType (optional), Args
//	Upgrade          Modules, Dependencies, Package, Arg (ticket)
type Command struct {
	Kind         CommandKind
	Call         *ProgrammableMoveCall
	Arg          Argument
	Args         []Argument
	Modules      [][]byte
	Dependencies []types.ObjectID
	Package      types.ObjectID
	VecType      *types.TypeTag
}

// MoveCallCommand returns a MoveCall command.
func MoveCallCommand(pkg types.ObjectID, module, function types.Identifier, typeArgs []types.TypeTag, args []Argument) Command {
	return Command{Kind: CmdMoveCall, Call: &ProgrammableMoveCall{
		Package:       pkg,
		Module:        module,
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}}
}

// TransferObjectsCommand sends objects to the address held in recipient.
func TransferObjectsCommand(objects []Argument, recipient Argument) Command {
	return Command{Kind: CmdTransferObjects, Args: objects, Arg: recipient}
}

// SplitCoinsCommand splits amounts off coin.
func SplitCoinsCommand(coin Argument, amounts []Argument) Command {
	return Command{Kind: CmdSplitCoins, Arg: coin, Args: amounts}
}

// MergeCoinsCommand merges sources into target.
func MergeCoinsCommand(target Argument, sources []Argument) Command {
	return Command{Kind: CmdMergeCoins, Arg: target, Args: sources}
}

// PublishCommand publishes a package.
func PublishCommand(modules [][]byte, deps []types.ObjectID) Command {
	return Command{Kind: CmdPublish, Modules: modules, Dependencies: deps}
}

// MakeMoveVecCommand builds a vector from elems. elemType may be nil for
// non-empty object vectors.
func MakeMoveVecCommand(elemType *types.TypeTag, elems []Argument) Command {
	return Command{Kind: CmdMakeMoveVec, VecType: elemType, Args: elems}
}

// UpgradeCommand upgrades pkg using the ticket produced by an earlier command.
func UpgradeCommand(modules [][]byte, deps []types.ObjectID, pkg types.ObjectID, ticket Argument) Command {
	return Command{Kind: CmdUpgrade, Modules: modules, Dependencies: deps, Package: pkg, Arg: ticket}
}

// Arguments returns every argument the command reads, in encoding order.
func (c Command) Arguments() []Argument {
	switch c.Kind {
	case CmdMoveCall:
		if c.Call == nil {
			return nil
		}
		return c.Call.Arguments
	case CmdTransferObjects:
		return append(append([]Argument(nil), c.Args...), c.Arg)
	case CmdSplitCoins, CmdMergeCoins:
		return append([]Argument{c.Arg}, c.Args...)
	case CmdMakeMoveVec:
		return c.Args
	case CmdUpgrade:
		return []Argument{c.Arg}
	}
	return nil
}

func writeModules(e *bcs.Encoder, modules [][]byte) {
	e.WriteLength(len(modules))
	for _, m := range modules {
		e.WriteBytes(m)
	}
}

func readModules(d *bcs.Decoder) [][]byte {
	n := d.ReadLength()
	if d.Err() != nil {
		return nil
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n && d.Err() == nil; i++ {
		out = append(out, d.ReadBytes())
	}
	return out
}

func (c Command) MarshalBCS(e *bcs.Encoder) {
	e.WriteVariant(uint32(c.Kind))
	switch c.Kind {
	case CmdMoveCall:
		if c.Call == nil {
			e.SetErr(fmt.Errorf("move call command without call"))
			return
		}
		c.Call.MarshalBCS(e)
	case CmdTransferObjects:
		bcs.WriteSeq(e, c.Args)
		c.Arg.MarshalBCS(e)
	case CmdSplitCoins, CmdMergeCoins:
		c.Arg.MarshalBCS(e)
		bcs.WriteSeq(e, c.Args)
	case CmdPublish:
		writeModules(e, c.Modules)
		bcs.WriteSeq(e, c.Dependencies)
	case CmdMakeMoveVec:
		bcs.WriteOptional(e, c.VecType)
		bcs.WriteSeq(e, c.Args)
	case CmdUpgrade:
		writeModules(e, c.Modules)
		bcs.WriteSeq(e, c.Dependencies)
		c.Package.MarshalBCS(e)
		c.Arg.MarshalBCS(e)
	default:
		e.SetErr(fmt.Errorf("unknown command kind %d", c.Kind))
	}
}

func (c *Command) UnmarshalBCS(d *bcs.Decoder) {
	kind := CommandKind(d.ReadVariant())
	if d.Err() != nil {
		return
	}
	*c = Command{Kind: kind}
	switch kind {
	case CmdMoveCall:
		var call ProgrammableMoveCall
		call.UnmarshalBCS(d)
		c.Call = &call
	case CmdTransferObjects:
		c.Args = bcs.ReadSeq[Argument](d)
		c.Arg.UnmarshalBCS(d)
	case CmdSplitCoins, CmdMergeCoins:
		c.Arg.UnmarshalBCS(d)
		c.Args = bcs.ReadSeq[Argument](d)
	case CmdPublish:
		c.Modules = readModules(d)
		c.Dependencies = bcs.ReadSeq[types.ObjectID](d)
	case CmdMakeMoveVec:
		c.VecType = bcs.ReadOptional[types.TypeTag](d)
		c.Args = bcs.ReadSeq[Argument](d)
	case CmdUpgrade:
		c.Modules = readModules(d)
		c.Dependencies = bcs.ReadSeq[types.ObjectID](d)
		c.Package.UnmarshalBCS(d)
		c.Arg.UnmarshalBCS(d)
	default:
		d.UnknownVariant("Command", uint32(kind))
	}
}

// ProgrammableTransaction is a list of inputs and the commands that consume
// them.
type ProgrammableTransaction struct {
	Inputs   []CallArg
	Commands []Command
}

// InputObjects returns the IDs of all object inputs in order.
func (p ProgrammableTransaction) InputObjects() []types.ObjectID {
	var ids []types.ObjectID
	for _, in := range p.Inputs {
		if in.Object != nil {
			ids = append(ids, in.Object.ID())
		}
	}
	return ids
}

func (p ProgrammableTransaction) MarshalBCS(e *bcs.Encoder) {
	bcs.WriteSeq(e, p.Inputs)
	bcs.WriteSeq(e, p.Commands)
}

func (p *ProgrammableTransaction) UnmarshalBCS(d *bcs.Decoder) {
	p.Inputs = bcs.ReadSeq[CallArg](d)
	p.Commands = bcs.ReadSeq[Command](d)
}
