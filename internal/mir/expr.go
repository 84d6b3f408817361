// Package mir is the mid-level representation: a typed expression tree
// with blocks already flattened into binary sequencing, every node
// annotated with its storage layout, and every binding carrying a
// storage class. It sits between the checked input tree and the Core
// machine-level tree.
package mir

import (
	"sable/internal/layout"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// ExprKind enumerates MIR expression kinds.
type ExprKind uint8

const (
	// ExprNum represents an integer constant.
	ExprNum ExprKind = iota
	// ExprVar represents a local variable read.
	ExprVar
	// ExprGlobal represents a module-level symbol reference.
	ExprGlobal
	// ExprMakeTuple constructs a tuple or struct value; the node's
	// layout decides the member offsets. An empty MakeTuple is unit.
	ExprMakeTuple
	// ExprMakeVariant constructs an enum value: tag plus payload.
	ExprMakeVariant
	// ExprCall represents a function call.
	ExprCall
	// ExprField projects one member of an aggregate.
	ExprField
	// ExprIndex projects one element of an array.
	ExprIndex
	// ExprSeq evaluates First for effects, then yields Second.
	ExprSeq
	// ExprLetIn binds a variable over Body.
	ExprLetIn
	// ExprReturn leaves the function.
	ExprReturn
	// ExprAssign stores Value into the place Target.
	ExprAssign
	// ExprRef takes the address of a place.
	ExprRef
	// ExprRefMut takes the mutable address of a place.
	ExprRefMut
	// ExprDeref loads through a pointer.
	ExprDeref
	// ExprIf represents a conditional expression.
	ExprIf
	// ExprWhile represents a loop; its value is unit.
	ExprWhile
	// ExprArrayLit builds an array from explicit elements.
	ExprArrayLit
	// ExprArrayRepeat builds an array repeating one element.
	ExprArrayRepeat
	// ExprBuiltin applies a primitive operation by name.
	ExprBuiltin
	// ExprTag reads an enum discriminant.
	ExprTag
	// ExprPayload projects a component of an enum payload.
	ExprPayload
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprNum:
		return "Num"
	case ExprVar:
		return "Var"
	case ExprGlobal:
		return "Global"
	case ExprMakeTuple:
		return "MakeTuple"
	case ExprMakeVariant:
		return "MakeVariant"
	case ExprCall:
		return "Call"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprSeq:
		return "Seq"
	case ExprLetIn:
		return "LetIn"
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

// Expr is one MIR node. Every node carries both its checked type and the
// layout that type resolves to; lowering relies on the annotation and
// never recomputes layout.
type Expr struct {
	Kind   ExprKind
	Type   types.Type
	Layout *layout.Layout
	Span   source.Span
	Data   ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	mirExprData()
}

// NumData holds data for ExprNum.
type NumData struct {
	Value int64
}

func (NumData) mirExprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	ID   VarID
	Name string // for listings only
}

func (VarData) mirExprData() {}

// GlobalData holds data for ExprGlobal.
type GlobalData struct {
	Symbol symbols.SymbolID
	Name   string
}

func (GlobalData) mirExprData() {}

// MakeTupleData holds data for ExprMakeTuple.
type MakeTupleData struct {
	Elems []*Expr
}

func (MakeTupleData) mirExprData() {}

// MakeVariantData holds data for ExprMakeVariant. Payload is the layout
// of the variant's payload tuple, resolved during translation so that
// lowering can place the components without consulting the cache.
type MakeVariantData struct {
	Tag     uint32
	Elems   []*Expr
	Payload *layout.Layout
}

func (MakeVariantData) mirExprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) mirExprData() {}

// FieldData holds data for ExprField. Index picks the member; its offset
// comes from the object's layout.
type FieldData struct {
	Object *Expr
	Index  uint32
}

func (FieldData) mirExprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Array *Expr
	Index *Expr
}

func (IndexData) mirExprData() {}

// SeqData holds data for ExprSeq.
type SeqData struct {
	First  *Expr
	Second *Expr
}

func (SeqData) mirExprData() {}

// LetInData holds data for ExprLetIn. The binding is in scope exactly
// inside Body.
type LetInData struct {
	ID    VarID
	Name  string
	Mut   bool
	Bound *Expr
	Body  *Expr
}

func (LetInData) mirExprData() {}

// ReturnData holds data for ExprReturn. A nil Value is a void return,
// produced when the result has already been stored through the return
// slot.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) mirExprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) mirExprData() {}

// RefData holds data for ExprRef and ExprRefMut.
type RefData struct {
	Place *Expr
}

func (RefData) mirExprData() {}

// DerefData holds data for ExprDeref.
type DerefData struct {
	Operand *Expr
}

func (DerefData) mirExprData() {}

// IfData holds data for ExprIf. Else is never nil; an absent else branch
// arrives as an empty MakeTuple.
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) mirExprData() {}

// WhileData holds data for ExprWhile.
type WhileData struct {
	Cond *Expr
	Body *Expr
}

func (WhileData) mirExprData() {}

// ArrayLitData holds data for ExprArrayLit.
type ArrayLitData struct {
	Elems []*Expr
}

func (ArrayLitData) mirExprData() {}

// ArrayRepeatData holds data for ExprArrayRepeat.
type ArrayRepeatData struct {
	Elem  *Expr
	Count uint32
}

func (ArrayRepeatData) mirExprData() {}

// BuiltinData holds data for ExprBuiltin.
type BuiltinData struct {
	Op   string
	Args []*Expr
}

func (BuiltinData) mirExprData() {}

// TagData holds data for ExprTag. The operand's layout is the enum
// layout the discriminant is read from.
type TagData struct {
	Operand *Expr
}

func (TagData) mirExprData() {}

// PayloadData holds data for ExprPayload. Offset is the component's
// byte distance from the enum base, resolved during translation.
type PayloadData struct {
	Operand *Expr
	Variant uint32
	Index   uint32
	Offset  uint32
}

func (PayloadData) mirExprData() {}

// children returns e's direct subexpressions in evaluation order.
func children(e *Expr) []*Expr {
	switch d := e.Data.(type) {
	case MakeTupleData:
		return d.Elems
	case MakeVariantData:
		return d.Elems
	case CallData:
		out := make([]*Expr, 0, len(d.Args)+1)
		out = append(out, d.Callee)
		return append(out, d.Args...)
	case FieldData:
		return []*Expr{d.Object}
	case IndexData:
		return []*Expr{d.Array, d.Index}
	case SeqData:
		return []*Expr{d.First, d.Second}
	case LetInData:
		return []*Expr{d.Bound, d.Body}
	case ReturnData:
		if d.Value != nil {
			return []*Expr{d.Value}
		}
		return nil
	case AssignData:
		return []*Expr{d.Target, d.Value}
	case RefData:
		return []*Expr{d.Place}
	case DerefData:
		return []*Expr{d.Operand}
	case IfData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case WhileData:
		return []*Expr{d.Cond, d.Body}
	case ArrayLitData:
		return d.Elems
	case ArrayRepeatData:
		return []*Expr{d.Elem}
	case BuiltinData:
		return d.Args
	case TagData:
		return []*Expr{d.Operand}
	case PayloadData:
		return []*Expr{d.Operand}
	default:
		return nil
	}
}
