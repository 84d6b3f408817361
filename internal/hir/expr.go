package hir

import (
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// ExprKind enumerates HIR expression kinds. The tree arrives fully typed;
// every node carries the Type the checker assigned to it.
type ExprKind uint8

const (
	// ExprNum represents an integer literal.
	ExprNum ExprKind = iota
	// ExprChar represents a character literal.
	ExprChar
	// ExprBool represents a boolean literal.
	ExprBool
	// ExprUnit represents the unit value.
	ExprUnit
	// ExprVar represents a reference to a local binding or parameter.
	ExprVar
	// ExprGlobal represents a reference to a module-level symbol.
	ExprGlobal
	// ExprTuple represents tuple construction.
	ExprTuple
	// ExprStructCons represents struct construction with field values in
	// declaration order.
	ExprStructCons
	// ExprCall represents a function call.
	ExprCall
	// ExprField represents struct field or tuple element projection.
	ExprField
	// ExprIndex represents array indexing.
	ExprIndex
	// ExprBlock represents a block of bindings with an optional result.
	ExprBlock
	// ExprReturn represents an early return.
	ExprReturn
	// ExprAssign represents assignment to a place.
	ExprAssign
	// ExprRef takes the address of a place.
	ExprRef
	// ExprRefMut takes the mutable address of a place.
	ExprRefMut
	// ExprDeref loads through a pointer.
	ExprDeref
	// ExprIf represents a conditional expression.
	ExprIf
	// ExprWhile represents a while loop; its value is unit.
	ExprWhile
	// ExprArrayLit represents an array literal with explicit elements.
	ExprArrayLit
	// ExprArrayRepeat represents an array literal repeating one element.
	ExprArrayRepeat
	// ExprBuiltin represents a primitive operation by name (arithmetic,
	// comparison, pointer math).
	ExprBuiltin
	// ExprTag reads the discriminant of an enum value.
	ExprTag
	// ExprPayload projects one payload component out of an enum value.
	ExprPayload
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprNum:
		return "Num"
	case ExprChar:
		return "Char"
	case ExprBool:
		return "Bool"
	case ExprUnit:
		return "Unit"
	case ExprVar:
		return "Var"
	case ExprGlobal:
		return "Global"
	case ExprTuple:
		return "Tuple"
	case ExprStructCons:
		return "StructCons"
	case ExprCall:
		return "Call"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprBlock:
		return "Block"
	case ExprReturn:
		return "Return"
	case ExprAssign:
		return "Assign"
	case ExprRef:
		return "Ref"
	case ExprRefMut:
		return "RefMut"
	case ExprDeref:
		return "Deref"
	case ExprIf:
		return "If"
	case ExprWhile:
		return "While"
	case ExprArrayLit:
		return "ArrayLit"
	case ExprArrayRepeat:
		return "ArrayRepeat"
	case ExprBuiltin:
		return "Builtin"
	case ExprTag:
		return "Tag"
	case ExprPayload:
		return "Payload"
	default:
		return "Unknown"
	}
}

// Expr is one typed HIR expression.
type Expr struct {
	Kind ExprKind
	Type types.Type  // always filled by the type checker
	Span source.Span // source location for diagnostics
	Data ExprData    // kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// NumData holds data for ExprNum.
type NumData struct {
	Text  string // raw literal text
	Value int64
}

func (NumData) exprData() {}

// CharData holds data for ExprChar.
type CharData struct {
	Value rune
}

func (CharData) exprData() {}

// BoolData holds data for ExprBool.
type BoolData struct {
	Value bool
}

func (BoolData) exprData() {}

// UnitData holds data for ExprUnit.
type UnitData struct{}

func (UnitData) exprData() {}

// VarData holds data for ExprVar. Locals are identified by name; the MIR
// builder resolves them against its own scope stack.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// GlobalData holds data for ExprGlobal.
type GlobalData struct {
	Name   string
	Symbol symbols.SymbolID
}

func (GlobalData) exprData() {}

// TupleData holds data for ExprTuple.
type TupleData struct {
	Elems []*Expr
}

func (TupleData) exprData() {}

// StructConsData holds data for ExprStructCons. Values appear in field
// declaration order; the checker already reordered named initializers.
type StructConsData struct {
	Fields []*Expr
}

func (StructConsData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) exprData() {}

// FieldData holds data for ExprField. Index is the resolved member
// position inside the object's type; Name is kept for printing only.
type FieldData struct {
	Object *Expr
	Index  uint32
	Name   string
}

func (FieldData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// BlockItemKind discriminates block entries.
type BlockItemKind uint8

const (
	// ItemLet introduces a binding scoped to the rest of the block.
	ItemLet BlockItemKind = iota
	// ItemExpr evaluates an expression for its effects.
	ItemExpr
)

// BlockItem is one entry of a block.
type BlockItem struct {
	Kind BlockItemKind
	Name string // ItemLet only
	Mut  bool   // ItemLet only
	Type types.Type
	Init *Expr
	Span source.Span
}

// BlockData holds data for ExprBlock. A nil Result means the block ends
// with a binding or effect and yields unit.
type BlockData struct {
	Items  []BlockItem
	Result *Expr
}

func (BlockData) exprData() {}

// ReturnData holds data for ExprReturn. A nil Value returns unit.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) exprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) exprData() {}

// RefData holds data for ExprRef and ExprRefMut.
type RefData struct {
	Operand *Expr
}

func (RefData) exprData() {}

// DerefData holds data for ExprDeref.
type DerefData struct {
	Operand *Expr
}

func (DerefData) exprData() {}

// IfData holds data for ExprIf. A nil Else yields unit.
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

// WhileData holds data for ExprWhile.
type WhileData struct {
	Cond *Expr
	Body *Expr
}

func (WhileData) exprData() {}

// ArrayLitData holds data for ExprArrayLit.
type ArrayLitData struct {
	Elems []*Expr
}

func (ArrayLitData) exprData() {}

// ArrayRepeatData holds data for ExprArrayRepeat.
type ArrayRepeatData struct {
	Elem  *Expr
	Count uint32
}

func (ArrayRepeatData) exprData() {}

// BuiltinData holds data for ExprBuiltin.
type BuiltinData struct {
	Op   string
	Args []*Expr
}

func (BuiltinData) exprData() {}

// TagData holds data for ExprTag.
type TagData struct {
	Operand *Expr
}

func (TagData) exprData() {}

// PayloadData holds data for ExprPayload. Variant selects the enum
// variant, Index the component inside its payload tuple. The projection
// is only evaluated on values known to carry that variant.
type PayloadData struct {
	Operand *Expr
	Variant uint32
	Index   uint32
}

func (PayloadData) exprData() {}
