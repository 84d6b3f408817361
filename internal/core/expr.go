package core

import (
	"fmt"

	"sable/internal/source"
	"sable/internal/symbols"
)

// VarID identifies one virtual register of a function. Lowering mints
// fresh ids; they do not coincide with the mid-level ids. Zero is the
// invalid sentinel.
type VarID uint32

// NoVarID is the invalid register sentinel.
const NoVarID VarID = 0

// IsValid reports whether the id refers to a register.
func (v VarID) IsValid() bool { return v != NoVarID }

func (v VarID) String() string { return fmt.Sprintf("r%d", uint32(v)) }

// ExprKind enumerates machine-level expression kinds.
type ExprKind uint8

const (
	// ExprUnit produces no value; it fills value positions that have
	// nothing to produce.
	ExprUnit ExprKind = iota
	// ExprNum is an integer constant.
	ExprNum
	// ExprVar reads a virtual register.
	ExprVar
	// ExprSetVar writes a virtual register.
	ExprSetVar
	// ExprGlobal is the address of a module-level symbol.
	ExprGlobal
	// ExprCall is a function call with an explicit machine signature.
	ExprCall
	// ExprReturn leaves the function.
	ExprReturn
	// ExprLet binds a register over Body.
	ExprLet
	// ExprSeq evaluates First for effect, then yields Second.
	ExprSeq
	// ExprStackSlot reserves frame memory; its value is the slot
	// address.
	ExprStackSlot
	// ExprStore writes a primitive through an address.
	ExprStore
	// ExprLoad reads a primitive through an address.
	ExprLoad
	// ExprAddr offsets an address by a constant.
	ExprAddr
	// ExprAddrIndex offsets an address by index times stride.
	ExprAddrIndex
	// ExprIf is a conditional; both branches produce the node's type.
	ExprIf
	// ExprWhile is a loop; it produces no value.
	ExprWhile
	// ExprBuiltin applies a primitive operation by name.
	ExprBuiltin
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprUnit:
		return "Unit"
	case ExprNum:
		return "Num"
	case ExprVar:
		return "Var"
	case ExprSetVar:
		return "SetVar"
	case ExprGlobal:
		return "Global"
	case ExprCall:
		return "Call"
	case ExprReturn:
		return "Return"
	case ExprLet:
		return "Let"
	case ExprSeq:
		return "Seq"
	case ExprStackSlot:
		return "StackSlot"
	case ExprStore:
		return "Store"
	case ExprLoad:
		return "Load"
	case ExprAddr:
		return "Addr"
	case ExprAddrIndex:
		return "AddrIndex"
	case ExprIf:
		return "If"
	case ExprWhile:
		return "While"
	case ExprBuiltin:
		return "Builtin"
	default:
		return "Unknown"
	}
}

// Expr is one machine-level node. Type is the primitive the node
// produces; Void marks effect-only nodes.
type Expr struct {
	Kind ExprKind
	Type Type
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	coreExprData()
}

// UnitData holds data for ExprUnit.
type UnitData struct{}

func (UnitData) coreExprData() {}

// NumData holds data for ExprNum.
type NumData struct {
	Value int64
}

func (NumData) coreExprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	ID VarID
}

func (VarData) coreExprData() {}

// SetVarData holds data for ExprSetVar.
type SetVarData struct {
	ID    VarID
	Value *Expr
}

func (SetVarData) coreExprData() {}

// GlobalData holds data for ExprGlobal.
type GlobalData struct {
	Symbol symbols.SymbolID
	Name   string
}

func (GlobalData) coreExprData() {}

// Signature is the machine interface of a call: parameter and result
// primitives after aggregates have been rewritten to addresses. Results
// is empty for void calls, including calls returning through an out
// pointer.
type Signature struct {
	Params  []Type
	Results []Type
}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
	Sig    Signature
}

func (CallData) coreExprData() {}

// ReturnData holds data for ExprReturn. A nil Value is a void return.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) coreExprData() {}

// LetData holds data for ExprLet.
type LetData struct {
	ID    VarID
	Bound *Expr
	Body  *Expr
}

func (LetData) coreExprData() {}

// SeqData holds data for ExprSeq.
type SeqData struct {
	First  *Expr
	Second *Expr
}

func (SeqData) coreExprData() {}

// StackSlotData holds data for ExprStackSlot.
type StackSlotData struct {
	Size  uint32
	Align uint32
}

func (StackSlotData) coreExprData() {}

// StoreData holds data for ExprStore. The value is written at
// Addr+Offset with the width of Type.
type StoreData struct {
	Addr   *Expr
	Value  *Expr
	Offset uint32
	Type   Type
}

func (StoreData) coreExprData() {}

// LoadData holds data for ExprLoad. The value is read at Addr+Offset
// with the width of Type.
type LoadData struct {
	Addr   *Expr
	Offset uint32
	Type   Type
}

func (LoadData) coreExprData() {}

// AddrData holds data for ExprAddr.
type AddrData struct {
	Base   *Expr
	Offset uint32
}

func (AddrData) coreExprData() {}

// AddrIndexData holds data for ExprAddrIndex: Base plus Index times
// Stride.
type AddrIndexData struct {
	Base   *Expr
	Index  *Expr
	Stride uint32
}

func (AddrIndexData) coreExprData() {}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) coreExprData() {}

// WhileData holds data for ExprWhile.
type WhileData struct {
	Cond *Expr
	Body *Expr
}

func (WhileData) coreExprData() {}

// BuiltinData holds data for ExprBuiltin.
type BuiltinData struct {
	Op   string
	Args []*Expr
}

func (BuiltinData) coreExprData() {}

// ParamClass says how a parameter arrives: a scalar value, or the
// address of an aggregate that lives in the caller's memory. Return
// slots are addresses too.
type ParamClass uint8

const (
	ParamValue ParamClass = iota
	ParamAddr
)

func (c ParamClass) String() string {
	if c == ParamAddr {
		return "addr"
	}
	return "value"
}

// Param is one machine parameter of a function.
type Param struct {
	ID    VarID
	Type  Type
	Class ParamClass
}

// Func is one lowered function. NumVars counts minted registers
// including the invalid sentinel, so codegen can size its tables.
type Func struct {
	Name string
	// LinkName is the linker-visible name: mangled for ordinary
	// functions, the verbatim source name for extern and no_mangle
	// symbols.
	LinkName string
	Sym      symbols.SymbolID
	Span     source.Span
	Params   []Param
	Results  []Type
	NumVars  uint32
	Body     *Expr // nil for extern declarations
}

// Program is the machine-level form of one module.
type Program struct {
	Module string
	Funcs  []*Func
}
