package hir

import (
	"fmt"

	"sable/internal/symbols"
	"sable/internal/types"
)

// Builder constructs typed HIR expressions. The upstream checker is the
// real producer; the builder exists for the demo harness and for tests,
// which have to assemble well-typed trees by hand. Spans are left zero
// (synthetic); callers that care set them afterwards.
type Builder struct {
	Reg *types.Registry
}

// NewBuilder returns a builder over the given registry.
func NewBuilder(reg *types.Registry) *Builder {
	return &Builder{Reg: reg}
}

// Num builds an integer literal of the given type.
func (b *Builder) Num(t types.Type, value int64) *Expr {
	return &Expr{Kind: ExprNum, Type: t, Data: NumData{Text: fmt.Sprintf("%d", value), Value: value}}
}

// Char builds a character literal. Characters are u8 values.
func (b *Builder) Char(value rune) *Expr {
	return &Expr{Kind: ExprChar, Type: b.Reg.Named(b.Reg.Builtins().U8), Data: CharData{Value: value}}
}

// Bool builds a boolean literal.
func (b *Builder) Bool(value bool) *Expr {
	return &Expr{Kind: ExprBool, Type: b.Reg.Named(b.Reg.Builtins().Bool), Data: BoolData{Value: value}}
}

// Unit builds the unit value.
func (b *Builder) Unit() *Expr {
	return &Expr{Kind: ExprUnit, Type: b.Reg.Unit(), Data: UnitData{}}
}

// Var builds a reference to a local binding or parameter.
func (b *Builder) Var(name string, t types.Type) *Expr {
	return &Expr{Kind: ExprVar, Type: t, Data: VarData{Name: name}}
}

// Global builds a reference to a module-level symbol.
func (b *Builder) Global(name string, sym symbols.SymbolID, t types.Type) *Expr {
	return &Expr{Kind: ExprGlobal, Type: t, Data: GlobalData{Name: name, Symbol: sym}}
}

// Tuple builds a tuple from its elements; the type follows.
func (b *Builder) Tuple(elems ...*Expr) *Expr {
	ts := make([]types.Type, len(elems))
	for i, e := range elems {
		ts[i] = e.Type
	}
	return &Expr{Kind: ExprTuple, Type: b.Reg.Tuple(ts...), Data: TupleData{Elems: elems}}
}

// Struct builds a struct value of type t with field values in
// declaration order.
func (b *Builder) Struct(t types.Type, fields ...*Expr) *Expr {
	return &Expr{Kind: ExprStructCons, Type: t, Data: StructConsData{Fields: fields}}
}

// Call builds a function call; the result type comes from the callee's
// function type.
func (b *Builder) Call(callee *Expr, args ...*Expr) *Expr {
	n := b.Reg.MustShape(callee.Type)
	if n.Kind != types.KindFunc {
		panic(fmt.Errorf("hir: callee is %s, not a function", b.Reg.TypeString(callee.Type)))
	}
	return &Expr{Kind: ExprCall, Type: n.Elem, Data: CallData{Callee: callee, Args: args}}
}

// Field projects member index out of obj; t is the member's type.
func (b *Builder) Field(t types.Type, obj *Expr, index uint32, name string) *Expr {
	return &Expr{Kind: ExprField, Type: t, Data: FieldData{Object: obj, Index: index, Name: name}}
}

// Index builds an array element access; the element type comes from the
// array type.
func (b *Builder) Index(obj, index *Expr) *Expr {
	n := b.Reg.MustShape(obj.Type)
	if n.Kind != types.KindArray {
		panic(fmt.Errorf("hir: indexing %s, not an array", b.Reg.TypeString(obj.Type)))
	}
	return &Expr{Kind: ExprIndex, Type: n.Elem, Data: IndexData{Object: obj, Index: index}}
}

// Let makes a binding block item; the binding type follows the
// initializer.
func (b *Builder) Let(name string, mut bool, init *Expr) BlockItem {
	return BlockItem{Kind: ItemLet, Name: name, Mut: mut, Type: init.Type, Init: init}
}

// Stmt makes an effect-only block item.
func (b *Builder) Stmt(e *Expr) BlockItem {
	return BlockItem{Kind: ItemExpr, Type: e.Type, Init: e}
}

// Block builds a block; a nil result yields unit.
func (b *Builder) Block(result *Expr, items ...BlockItem) *Expr {
	t := b.Reg.Unit()
	if result != nil {
		t = result.Type
	}
	return &Expr{Kind: ExprBlock, Type: t, Data: BlockData{Items: items, Result: result}}
}

// Return builds an early return; its own type is never.
func (b *Builder) Return(value *Expr) *Expr {
	return &Expr{Kind: ExprReturn, Type: b.Reg.Named(b.Reg.Builtins().Never), Data: ReturnData{Value: value}}
}

// Assign builds an assignment; assignments yield unit.
func (b *Builder) Assign(target, value *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Type: b.Reg.Unit(), Data: AssignData{Target: target, Value: value}}
}

// Ref takes the address of a place.
func (b *Builder) Ref(operand *Expr) *Expr {
	return &Expr{Kind: ExprRef, Type: b.Reg.Ptr(operand.Type), Data: RefData{Operand: operand}}
}

// RefMut takes the mutable address of a place.
func (b *Builder) RefMut(operand *Expr) *Expr {
	return &Expr{Kind: ExprRefMut, Type: b.Reg.MutPtr(operand.Type), Data: RefData{Operand: operand}}
}

// Deref loads through a pointer.
func (b *Builder) Deref(operand *Expr) *Expr {
	n := b.Reg.MustShape(operand.Type)
	if n.Kind != types.KindPtr && n.Kind != types.KindMutPtr {
		panic(fmt.Errorf("hir: dereferencing %s, not a pointer", b.Reg.TypeString(operand.Type)))
	}
	return &Expr{Kind: ExprDeref, Type: n.Elem, Data: DerefData{Operand: operand}}
}

// If builds a conditional; with a nil else branch the type is unit.
func (b *Builder) If(cond, then, els *Expr) *Expr {
	t := b.Reg.Unit()
	if els != nil {
		t = then.Type
	}
	return &Expr{Kind: ExprIf, Type: t, Data: IfData{Cond: cond, Then: then, Else: els}}
}

// While builds a loop; loops yield unit.
func (b *Builder) While(cond, body *Expr) *Expr {
	return &Expr{Kind: ExprWhile, Type: b.Reg.Unit(), Data: WhileData{Cond: cond, Body: body}}
}

// Array builds an array literal; the type follows the first element.
func (b *Builder) Array(elems ...*Expr) *Expr {
	if len(elems) == 0 {
		panic(fmt.Errorf("hir: array literal needs at least one element"))
	}
	return &Expr{
		Kind: ExprArrayLit,
		Type: b.Reg.Array(uint32(len(elems)), elems[0].Type),
		Data: ArrayLitData{Elems: elems},
	}
}

// Repeat builds an array literal repeating elem count times.
func (b *Builder) Repeat(elem *Expr, count uint32) *Expr {
	return &Expr{Kind: ExprArrayRepeat, Type: b.Reg.Array(count, elem.Type), Data: ArrayRepeatData{Elem: elem, Count: count}}
}

// Builtin builds a primitive operation; the result type is the
// operation's to declare.
func (b *Builder) Builtin(op string, t types.Type, args ...*Expr) *Expr {
	return &Expr{Kind: ExprBuiltin, Type: t, Data: BuiltinData{Op: op, Args: args}}
}

// Tag reads an enum discriminant as a usize.
func (b *Builder) Tag(operand *Expr) *Expr {
	return &Expr{Kind: ExprTag, Type: b.Reg.Named(b.Reg.Builtins().Usize), Data: TagData{Operand: operand}}
}

// Payload projects component index of the given variant's payload; t is
// that component's type.
func (b *Builder) Payload(t types.Type, operand *Expr, variant, index uint32) *Expr {
	return &Expr{Kind: ExprPayload, Type: t, Data: PayloadData{Operand: operand, Variant: variant, Index: index}}
}
