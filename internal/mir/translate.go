package mir

import (
	"fmt"

	"fortio.org/safecast"

	"sable/internal/hir"
	"sable/internal/layout"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// Builder translates typed input functions into MIR. Translation is a
// pure function of its inputs; a Builder is safe to share across
// goroutines once the layout cache is sealed.
type Builder struct {
	reg   *types.Registry
	syms  *symbols.Table
	cache *layout.Cache
}

// NewBuilder returns a translator over the given registry, symbol table
// and layout cache.
func NewBuilder(reg *types.Registry, syms *symbols.Table, cache *layout.Cache) *Builder {
	return &Builder{reg: reg, syms: syms, cache: cache}
}

// Program translates every function of the module in input order.
func (b *Builder) Program(m *hir.Module) (*Program, error) {
	p := &Program{Module: m.Name, Funcs: make([]*Func, 0, len(m.Funcs))}
	for _, f := range m.Funcs {
		mf, err := b.Function(f)
		if err != nil {
			return nil, err
		}
		p.Funcs = append(p.Funcs, mf)
	}
	return p, nil
}

// Function translates one function: parameters and the return slot
// first, then the body, then the whole-body storage analysis, and
// finally sequencing canonicalization.
func (b *Builder) Function(hf *hir.Func) (*Func, error) {
	f := &Func{
		Name:   hf.Name,
		Sym:    hf.Symbol,
		Span:   hf.Span,
		Result: hf.Result,
		locals: make([]Local, 1, len(hf.Params)+8),
	}
	st := &state{b: b, f: f}
	st.push()
	defer st.pop()

	for _, p := range hf.Params {
		pl, err := st.layoutOf(p.Type)
		if err != nil {
			return nil, fault(hf, err)
		}
		f.Params = append(f.Params, st.declare(p.Name, p.Type, pl, false, true))
	}

	rl, err := st.layoutOf(hf.Result)
	if err != nil {
		return nil, fault(hf, err)
	}
	f.ResultLayout = rl
	if returnsThroughSlot(b.reg, rl, hf.Result) {
		slotType := b.reg.MutPtr(hf.Result)
		sl, err := st.layoutOf(slotType)
		if err != nil {
			return nil, fault(hf, err)
		}
		f.RetSlot = st.declare(retSlotName, slotType, sl, false, true)
		f.Params = append(f.Params, f.RetSlot)
	}

	if hf.Body == nil {
		analyzeStorage(f)
		return f, nil
	}

	body, err := st.expr(hf.Body)
	if err != nil {
		return nil, fault(hf, err)
	}
	if f.HasRetSlot() && !isNever(b.reg, body.Type) {
		// the trailing value is the result; store it through the slot
		body, err = st.storeThroughRet(body, body.Span)
		if err != nil {
			return nil, fault(hf, err)
		}
	}
	f.Body = body
	analyzeStorage(f)
	f.Body = Flatten(f.Body)
	return f, nil
}

// retSlotName is the synthesized out-pointer parameter for aggregate
// results.
const retSlotName = "__ret_var"

// returnsThroughSlot reports whether a result of this layout is returned
// via an out pointer. Unit results return nothing at all.
func returnsThroughSlot(reg *types.Registry, l *layout.Layout, t types.Type) bool {
	return !l.IsScalar() && t != reg.Unit()
}

func isNever(reg *types.Registry, t types.Type) bool {
	return t == reg.Named(reg.Builtins().Never)
}

func fault(f *hir.Func, err error) error {
	return fmt.Errorf("function %q: %w", f.Name, err)
}

type state struct {
	b      *Builder
	f      *Func
	scopes []map[string]VarID
}

func (st *state) push() {
	st.scopes = append(st.scopes, make(map[string]VarID))
}

func (st *state) pop() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

func (st *state) declare(name string, t types.Type, l *layout.Layout, mut, param bool) VarID {
	lenLocals, err := safecast.Conv[uint32](len(st.f.locals))
	if err != nil {
		panic(fmt.Errorf("len(locals) overflow: %w", err))
	}
	id := VarID(lenLocals)
	st.f.locals = append(st.f.locals, Local{
		ID:     id,
		Name:   name,
		Type:   t,
		Layout: l,
		Mut:    mut,
		Param:  param,
	})
	st.scopes[len(st.scopes)-1][name] = id
	return id
}

func (st *state) lookup(name string) (VarID, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if id, ok := st.scopes[i][name]; ok {
			return id, true
		}
	}
	return NoVarID, false
}

func (st *state) layoutOf(t types.Type) (*layout.Layout, error) {
	l, ok := st.b.cache.Of(t)
	if !ok {
		return nil, fmt.Errorf("no cached layout for %s", st.b.reg.TypeString(t))
	}
	return l, nil
}

// node builds an annotated MIR expression for a known type.
func (st *state) node(k ExprKind, t types.Type, sp source.Span, d ExprData) (*Expr, error) {
	l, err := st.layoutOf(t)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: k, Type: t, Layout: l, Span: sp, Data: d}, nil
}

func (st *state) unitValue(sp source.Span) (*Expr, error) {
	return st.node(ExprMakeTuple, st.b.reg.Unit(), sp, MakeTupleData{})
}

// storeThroughRet rewrites a produced result value into a store through
// the return slot. The resulting expression yields unit.
func (st *state) storeThroughRet(val *Expr, sp source.Span) (*Expr, error) {
	slot := st.f.Local(st.f.RetSlot)
	ptr, err := st.node(ExprVar, slot.Type, sp, VarData{ID: slot.ID, Name: slot.Name})
	if err != nil {
		return nil, err
	}
	target, err := st.node(ExprDeref, st.f.Result, sp, DerefData{Operand: ptr})
	if err != nil {
		return nil, err
	}
	return st.node(ExprAssign, st.b.reg.Unit(), sp, AssignData{Target: target, Value: val})
}

func (st *state) exprList(in []*hir.Expr) ([]*Expr, error) {
	out := make([]*Expr, len(in))
	for i, e := range in {
		var err error
		out[i], err = st.expr(e)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (st *state) expr(e *hir.Expr) (*Expr, error) {
	switch d := e.Data.(type) {
	case hir.NumData:
		return st.scalarConst(e, d.Value)
	case hir.CharData:
		return st.scalarConst(e, int64(d.Value))
	case hir.BoolData:
		v := int64(0)
		if d.Value {
			v = 1
		}
		return st.scalarConst(e, v)
	case hir.UnitData:
		return st.unitValue(e.Span)
	case hir.VarData:
		id, ok := st.lookup(d.Name)
		if !ok {
			return nil, fmt.Errorf("unresolved local %q at %s", d.Name, e.Span)
		}
		return st.node(ExprVar, e.Type, e.Span, VarData{ID: id, Name: d.Name})
	case hir.GlobalData:
		sym, ok := st.b.syms.Lookup(d.Symbol)
		if !ok {
			return nil, fmt.Errorf("unresolved symbol %q at %s", d.Name, e.Span)
		}
		if sym.Kind == symbols.SymbolTypeCons {
			return nil, fmt.Errorf("enum constructor %q used as a value at %s", d.Name, e.Span)
		}
		return st.node(ExprGlobal, e.Type, e.Span, GlobalData{Symbol: d.Symbol, Name: d.Name})
	case hir.TupleData:
		elems, err := st.exprList(d.Elems)
		if err != nil {
			return nil, err
		}
		return st.node(ExprMakeTuple, e.Type, e.Span, MakeTupleData{Elems: elems})
	case hir.StructConsData:
		fields, err := st.exprList(d.Fields)
		if err != nil {
			return nil, err
		}
		return st.node(ExprMakeTuple, e.Type, e.Span, MakeTupleData{Elems: fields})
	case hir.CallData:
		return st.call(e, d)
	case hir.FieldData:
		obj, err := st.expr(d.Object)
		if err != nil {
			return nil, err
		}
		if int(d.Index) >= len(obj.Layout.Members) {
			return nil, fmt.Errorf("member #%d out of range on %s at %s",
				d.Index, st.b.reg.TypeString(obj.Type), e.Span)
		}
		return st.node(ExprField, e.Type, e.Span, FieldData{Object: obj, Index: d.Index})
	case hir.IndexData:
		obj, err := st.expr(d.Object)
		if err != nil {
			return nil, err
		}
		idx, err := st.expr(d.Index)
		if err != nil {
			return nil, err
		}
		return st.node(ExprIndex, e.Type, e.Span, IndexData{Array: obj, Index: idx})
	case hir.BlockData:
		return st.block(e, d)
	case hir.ReturnData:
		return st.ret(e, d)
	case hir.AssignData:
		target, err := st.expr(d.Target)
		if err != nil {
			return nil, err
		}
		val, err := st.expr(d.Value)
		if err != nil {
			return nil, err
		}
		return st.node(ExprAssign, st.b.reg.Unit(), e.Span, AssignData{Target: target, Value: val})
	case hir.RefData:
		place, err := st.expr(d.Operand)
		if err != nil {
			return nil, err
		}
		kind := ExprRef
		if e.Kind == hir.ExprRefMut {
			kind = ExprRefMut
		}
		return st.node(kind, e.Type, e.Span, RefData{Place: place})
	case hir.DerefData:
		op, err := st.expr(d.Operand)
		if err != nil {
			return nil, err
		}
		return st.node(ExprDeref, e.Type, e.Span, DerefData{Operand: op})
	case hir.IfData:
		cond, err := st.expr(d.Cond)
		if err != nil {
			return nil, err
		}
		then, err := st.expr(d.Then)
		if err != nil {
			return nil, err
		}
		var els *Expr
		if d.Else != nil {
			els, err = st.expr(d.Else)
		} else {
			els, err = st.unitValue(e.Span)
		}
		if err != nil {
			return nil, err
		}
		return st.node(ExprIf, e.Type, e.Span, IfData{Cond: cond, Then: then, Else: els})
	case hir.WhileData:
		cond, err := st.expr(d.Cond)
		if err != nil {
			return nil, err
		}
		body, err := st.expr(d.Body)
		if err != nil {
			return nil, err
		}
		return st.node(ExprWhile, st.b.reg.Unit(), e.Span, WhileData{Cond: cond, Body: body})
	case hir.ArrayLitData:
		elems, err := st.exprList(d.Elems)
		if err != nil {
			return nil, err
		}
		return st.node(ExprArrayLit, e.Type, e.Span, ArrayLitData{Elems: elems})
	case hir.ArrayRepeatData:
		elem, err := st.expr(d.Elem)
		if err != nil {
			return nil, err
		}
		return st.node(ExprArrayRepeat, e.Type, e.Span, ArrayRepeatData{Elem: elem, Count: d.Count})
	case hir.BuiltinData:
		args, err := st.exprList(d.Args)
		if err != nil {
			return nil, err
		}
		return st.node(ExprBuiltin, e.Type, e.Span, BuiltinData{Op: d.Op, Args: args})
	case hir.TagData:
		op, err := st.expr(d.Operand)
		if err != nil {
			return nil, err
		}
		if !op.Layout.IsEnum() {
			return nil, fmt.Errorf("tag read on non-enum %s at %s",
				st.b.reg.TypeString(op.Type), e.Span)
		}
		return st.node(ExprTag, e.Type, e.Span, TagData{Operand: op})
	case hir.PayloadData:
		return st.payload(e, d)
	default:
		return nil, fmt.Errorf("unrecognized expression %v at %s", e.Kind, e.Span)
	}
}

// scalarConst checks that a literal's type really is scalar before
// emitting the constant.
func (st *state) scalarConst(e *hir.Expr, v int64) (*Expr, error) {
	out, err := st.node(ExprNum, e.Type, e.Span, NumData{Value: v})
	if err != nil {
		return nil, err
	}
	if !out.Layout.IsScalar() {
		return nil, fmt.Errorf("literal of non-scalar type %s at %s",
			st.b.reg.TypeString(e.Type), e.Span)
	}
	return out, nil
}

// call translates a function call. A call whose callee resolves to a
// type constructor builds an enum value instead.
func (st *state) call(e *hir.Expr, d hir.CallData) (*Expr, error) {
	if g, ok := d.Callee.Data.(hir.GlobalData); ok {
		sym, found := st.b.syms.Lookup(g.Symbol)
		if !found {
			return nil, fmt.Errorf("unresolved symbol %q at %s", g.Name, e.Span)
		}
		if sym.Kind == symbols.SymbolTypeCons {
			elems, err := st.exprList(d.Args)
			if err != nil {
				return nil, err
			}
			pt, err := variantPayloadType(st.b.reg, e.Type, sym.Cons.Variant)
			if err != nil {
				return nil, fmt.Errorf("%w at %s", err, e.Span)
			}
			pl, err := st.layoutOf(pt)
			if err != nil {
				return nil, err
			}
			return st.node(ExprMakeVariant, e.Type, e.Span, MakeVariantData{
				Tag:     sym.Cons.Variant,
				Elems:   elems,
				Payload: pl,
			})
		}
	}
	callee, err := st.expr(d.Callee)
	if err != nil {
		return nil, err
	}
	args, err := st.exprList(d.Args)
	if err != nil {
		return nil, err
	}
	return st.node(ExprCall, e.Type, e.Span, CallData{Callee: callee, Args: args})
}

// block translates items in order (so bindings scope over later items),
// then folds right-to-left into the canonical Seq/LetIn spine. A block
// without a result expression yields unit.
func (st *state) block(e *hir.Expr, d hir.BlockData) (*Expr, error) {
	st.push()
	defer st.pop()

	type entry struct {
		let   bool
		id    VarID
		name  string
		mut   bool
		bound *Expr
		span  source.Span
	}
	entries := make([]entry, 0, len(d.Items))
	for _, it := range d.Items {
		bound, err := st.expr(it.Init)
		if err != nil {
			return nil, err
		}
		if it.Kind == hir.ItemLet {
			bl, err := st.layoutOf(it.Type)
			if err != nil {
				return nil, err
			}
			id := st.declare(it.Name, it.Type, bl, it.Mut, false)
			entries = append(entries, entry{let: true, id: id, name: it.Name, mut: it.Mut, bound: bound, span: it.Span})
		} else {
			entries = append(entries, entry{bound: bound, span: it.Span})
		}
	}

	var acc *Expr
	var err error
	if d.Result != nil {
		acc, err = st.expr(d.Result)
	} else {
		acc, err = st.unitValue(e.Span)
	}
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		en := entries[i]
		if en.let {
			acc = &Expr{Kind: ExprLetIn, Type: acc.Type, Layout: acc.Layout, Span: en.span,
				Data: LetInData{ID: en.id, Name: en.name, Mut: en.mut, Bound: en.bound, Body: acc}}
		} else {
			acc = &Expr{Kind: ExprSeq, Type: acc.Type, Layout: acc.Layout, Span: en.span,
				Data: SeqData{First: en.bound, Second: acc}}
		}
	}
	return acc, nil
}

// ret translates an early return. With a return slot the value is stored
// through the slot and the return itself becomes void; unit values are
// evaluated for effects only.
func (st *state) ret(e *hir.Expr, d hir.ReturnData) (*Expr, error) {
	voidReturn, err := st.node(ExprReturn, e.Type, e.Span, ReturnData{})
	if err != nil {
		return nil, err
	}
	if d.Value == nil {
		return voidReturn, nil
	}
	val, err := st.expr(d.Value)
	if err != nil {
		return nil, err
	}
	if st.f.HasRetSlot() && !isNever(st.b.reg, val.Type) {
		store, err := st.storeThroughRet(val, e.Span)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprSeq, Type: e.Type, Layout: voidReturn.Layout, Span: e.Span,
			Data: SeqData{First: store, Second: voidReturn}}, nil
	}
	if val.Type == st.b.reg.Unit() || isNever(st.b.reg, val.Type) {
		return &Expr{Kind: ExprSeq, Type: e.Type, Layout: voidReturn.Layout, Span: e.Span,
			Data: SeqData{First: val, Second: voidReturn}}, nil
	}
	return st.node(ExprReturn, e.Type, e.Span, ReturnData{Value: val})
}

// payload translates an enum payload projection, resolving the component
// offset against the variant's payload layout.
func (st *state) payload(e *hir.Expr, d hir.PayloadData) (*Expr, error) {
	op, err := st.expr(d.Operand)
	if err != nil {
		return nil, err
	}
	if !op.Layout.IsEnum() {
		return nil, fmt.Errorf("payload read on non-enum %s at %s",
			st.b.reg.TypeString(op.Type), e.Span)
	}
	pt, err := variantPayloadType(st.b.reg, op.Type, d.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w at %s", err, e.Span)
	}
	pl, err := st.layoutOf(pt)
	if err != nil {
		return nil, err
	}
	if int(d.Index) >= len(pl.Members) {
		return nil, fmt.Errorf("payload component #%d out of range at %s", d.Index, e.Span)
	}
	offset := op.Layout.PayloadOffset + pl.Members[d.Index].Offset
	return st.node(ExprPayload, e.Type, e.Span, PayloadData{
		Operand: op,
		Variant: d.Variant,
		Index:   d.Index,
		Offset:  offset,
	})
}

// variantPayloadType resolves the payload tuple type of one variant of
// the enum type t, substituting t's type arguments.
func variantPayloadType(reg *types.Registry, t types.Type, variant uint32) (types.Type, error) {
	n := reg.MustShape(t)
	if n.Kind != types.KindNamed {
		return types.NoType, fmt.Errorf("%s is not an enum type", reg.TypeString(t))
	}
	pt, ok := reg.VariantPayload(n.TVar, int(variant))
	if !ok {
		return types.NoType, fmt.Errorf("no variant #%d on %s", variant, reg.TypeString(t))
	}
	if len(n.Args) > 0 {
		pt = reg.Substitute(pt, n.Args)
	}
	return pt, nil
}
