package core

import (
	"fmt"

	"fortio.org/safecast"

	"sable/internal/layout"
	"sable/internal/mir"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// Lowerer rewrites MIR into the machine-level form. Every decision is
// driven by the layout annotations the translator left on the tree;
// the lowerer never consults the layout cache. A Lowerer is safe to
// share across goroutines.
type Lowerer struct {
	reg   *types.Registry
	syms  *symbols.Table
	unit  types.Type
	never types.Type
}

// NewLowerer returns a lowerer over the given registry and symbol
// table. The table supplies linker names for lowered functions.
func NewLowerer(reg *types.Registry, syms *symbols.Table) *Lowerer {
	return &Lowerer{
		reg:   reg,
		syms:  syms,
		unit:  reg.Unit(),
		never: reg.Named(reg.Builtins().Never),
	}
}

// Program lowers every function in input order.
func (lo *Lowerer) Program(p *mir.Program) (*Program, error) {
	out := &Program{Module: p.Module, Funcs: make([]*Func, 0, len(p.Funcs))}
	for _, f := range p.Funcs {
		cf, err := lo.Function(f)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, cf)
	}
	return out, nil
}

// Function lowers one function. Scalar parameters whose local needs a
// stack slot are spilled in a prologue; aggregate parameters already
// arrive as addresses.
func (lo *Lowerer) Function(mf *mir.Func) (*Func, error) {
	st := &lstate{lo: lo, src: mf, vars: make(map[mir.VarID]VarID, mf.NumLocals()), next: 1}
	f := &Func{Name: mf.Name, Sym: mf.Sym, Span: mf.Span}
	if mf.Sym.IsValid() {
		f.LinkName = lo.syms.Mangled(mf.Sym)
	}

	type spill struct {
		in   VarID
		addr VarID
		l    *layout.Layout
		t    Type
	}
	var spills []spill
	for _, pid := range mf.Params {
		l := mf.Local(pid)
		in := st.bind(pid)
		if l.Layout.IsScalar() {
			pt, err := FromScalar(l.Layout.Scalar)
			if err != nil {
				return nil, fault(mf, err)
			}
			cls := ParamValue
			if pid == mf.RetSlot {
				// the return slot is a pointer into the caller's frame
				cls = ParamAddr
			}
			f.Params = append(f.Params, Param{ID: in, Type: pt, Class: cls})
			if l.Storage == mir.StorageStack {
				// the body addresses this parameter; give it a slot
				addr := st.fresh()
				st.vars[pid] = addr
				spills = append(spills, spill{in: in, addr: addr, l: l.Layout, t: pt})
			}
			continue
		}
		f.Params = append(f.Params, Param{ID: in, Type: Usize, Class: ParamAddr})
	}

	rt, err := lo.resultType(mf)
	if err != nil {
		return nil, fault(mf, err)
	}
	if rt != Void {
		f.Results = []Type{rt}
	}

	if mf.Body == nil {
		f.NumVars = st.next
		return f, nil
	}

	var body *Expr
	if rt != Void {
		v, verr := st.value(mf.Body)
		if verr != nil {
			return nil, fault(mf, verr)
		}
		body = mk(ExprReturn, Void, mf.Span, ReturnData{Value: v})
	} else {
		eff, eerr := st.effect(mf.Body)
		if eerr != nil {
			return nil, fault(mf, eerr)
		}
		body = seq(eff, mk(ExprReturn, Void, mf.Span, ReturnData{}), mf.Span)
	}

	for i := len(spills) - 1; i >= 0; i-- {
		sp := spills[i]
		store := mk(ExprStore, Void, mf.Span, StoreData{
			Addr:   varRef(sp.addr, mf.Span),
			Value:  mk(ExprVar, sp.t, mf.Span, VarData{ID: sp.in}),
			Offset: 0,
			Type:   sp.t,
		})
		body = mk(ExprLet, body.Type, mf.Span, LetData{
			ID:    sp.addr,
			Bound: mk(ExprStackSlot, Usize, mf.Span, StackSlotData{Size: sp.l.Size, Align: sp.l.Align}),
			Body:  seq(store, body, mf.Span),
		})
	}

	f.Body = body
	f.NumVars = st.next
	return f, nil
}

// resultType classifies the function result: Void for unit, never, and
// for results returned through the slot parameter.
func (lo *Lowerer) resultType(mf *mir.Func) (Type, error) {
	if mf.Result == lo.unit || mf.Result == lo.never || mf.HasRetSlot() {
		return Void, nil
	}
	if !mf.ResultLayout.IsScalar() {
		return Void, fmt.Errorf("core: aggregate result of %q missing its slot", mf.Name)
	}
	return FromScalar(mf.ResultLayout.Scalar)
}

func fault(f *mir.Func, err error) error {
	return fmt.Errorf("function %q: %w", f.Name, err)
}

type lstate struct {
	lo   *Lowerer
	src  *mir.Func
	vars map[mir.VarID]VarID
	next uint32
}

func (st *lstate) fresh() VarID {
	id := VarID(st.next)
	st.next++
	return id
}

func (st *lstate) bind(mid mir.VarID) VarID {
	id := st.fresh()
	st.vars[mid] = id
	return id
}

func (st *lstate) lookup(mid mir.VarID) (VarID, error) {
	id, ok := st.vars[mid]
	if !ok {
		return NoVarID, fmt.Errorf("core: local %v was never bound", mid)
	}
	return id, nil
}

// class maps an annotated expression to the primitive that carries it:
// unit carries nothing, scalars keep their width, aggregates travel as
// addresses.
func (st *lstate) class(t types.Type, l *layout.Layout) (Type, error) {
	if t == st.lo.unit {
		return Void, nil
	}
	if l.IsScalar() {
		return FromScalar(l.Scalar)
	}
	return Usize, nil
}

// value lowers e in value position: the result always produces a
// machine value. A unit value materializes as the address of a dummy
// slot, which only happens when unit is passed around first class.
func (st *lstate) value(e *mir.Expr) (*Expr, error) {
	out, err := st.expr(e, false)
	if err != nil {
		return nil, err
	}
	if out.Type == Void && out.Kind != ExprReturn {
		s := st.fresh()
		slot := mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: 1, Align: 1})
		return mk(ExprLet, Usize, e.Span, LetData{
			ID:    s,
			Bound: slot,
			Body:  seq(out, varRef(s, e.Span), e.Span),
		}), nil
	}
	return out, nil
}

// effect lowers e for its side effects only.
func (st *lstate) effect(e *mir.Expr) (*Expr, error) {
	return st.expr(e, true)
}

func (st *lstate) expr(e *mir.Expr, effectCtx bool) (*Expr, error) {
	switch d := e.Data.(type) {
	case mir.NumData:
		t, err := FromScalar(e.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		return mk(ExprNum, t, e.Span, NumData{Value: d.Value}), nil

	case mir.VarData:
		return st.varUse(e, d)

	case mir.GlobalData:
		return mk(ExprGlobal, Usize, e.Span, GlobalData{Symbol: d.Symbol, Name: d.Name}), nil

	case mir.MakeTupleData:
		if len(d.Elems) == 0 && e.Type == st.lo.unit {
			return mk(ExprUnit, Void, e.Span, UnitData{}), nil
		}
		return st.construct(e)

	case mir.MakeVariantData:
		return st.construct(e)

	case mir.ArrayLitData:
		return st.construct(e)

	case mir.ArrayRepeatData:
		return st.construct(e)

	case mir.CallData:
		return st.call(e, d)

	case mir.FieldData:
		obj, err := st.value(d.Object)
		if err != nil {
			return nil, err
		}
		m := d.Object.Layout.Members[d.Index]
		return st.project(e, obj, m.Offset, m.Layout)

	case mir.IndexData:
		arr, err := st.value(d.Array)
		if err != nil {
			return nil, err
		}
		idx, err := st.value(d.Index)
		if err != nil {
			return nil, err
		}
		elem := d.Array.Layout.Elem
		at := mk(ExprAddrIndex, Usize, e.Span, AddrIndexData{Base: arr, Index: idx, Stride: elem.Size})
		if elem.IsScalar() {
			t, err := FromScalar(elem.Scalar)
			if err != nil {
				return nil, err
			}
			return mk(ExprLoad, t, e.Span, LoadData{Addr: at, Offset: 0, Type: t}), nil
		}
		return at, nil

	case mir.SeqData:
		first, err := st.effect(d.First)
		if err != nil {
			return nil, err
		}
		second, err := st.expr(d.Second, effectCtx)
		if err != nil {
			return nil, err
		}
		return seq(first, second, e.Span), nil

	case mir.LetInData:
		return st.letIn(e, d, effectCtx)

	case mir.ReturnData:
		if d.Value == nil {
			return mk(ExprReturn, Void, e.Span, ReturnData{}), nil
		}
		if !d.Value.Layout.IsScalar() {
			return nil, fmt.Errorf("core: aggregate return of %s without a slot",
				st.lo.reg.TypeString(d.Value.Type))
		}
		v, err := st.value(d.Value)
		if err != nil {
			return nil, err
		}
		return mk(ExprReturn, Void, e.Span, ReturnData{Value: v}), nil

	case mir.AssignData:
		return st.assign(e, d)

	case mir.RefData:
		return st.placeAddr(d.Place)

	case mir.DerefData:
		p, err := st.value(d.Operand)
		if err != nil {
			return nil, err
		}
		return st.project(e, p, 0, e.Layout)

	case mir.IfData:
		return st.branch(e, d, effectCtx)

	case mir.WhileData:
		cond, err := st.value(d.Cond)
		if err != nil {
			return nil, err
		}
		body, err := st.effect(d.Body)
		if err != nil {
			return nil, err
		}
		return mk(ExprWhile, Void, e.Span, WhileData{Cond: cond, Body: body}), nil

	case mir.BuiltinData:
		args := make([]*Expr, len(d.Args))
		for i, a := range d.Args {
			var err error
			args[i], err = st.value(a)
			if err != nil {
				return nil, err
			}
		}
		t, err := st.class(e.Type, e.Layout)
		if err != nil {
			return nil, err
		}
		if e.Type == st.lo.never {
			t = Void
		}
		return mk(ExprBuiltin, t, e.Span, BuiltinData{Op: d.Op, Args: args}), nil

	case mir.TagData:
		op, err := st.value(d.Operand)
		if err != nil {
			return nil, err
		}
		tt, err := tagType(d.Operand.Layout.TagSize)
		if err != nil {
			return nil, err
		}
		load := mk(ExprLoad, tt, e.Span, LoadData{Addr: op, Offset: 0, Type: tt})
		if tt == Usize {
			return load, nil
		}
		return mk(ExprBuiltin, Usize, e.Span, BuiltinData{Op: "zext", Args: []*Expr{load}}), nil

	case mir.PayloadData:
		op, err := st.value(d.Operand)
		if err != nil {
			return nil, err
		}
		return st.project(e, op, d.Offset, e.Layout)

	default:
		return nil, fmt.Errorf("core: unrecognized expression %v at %s", e.Kind, e.Span)
	}
}

// varUse reads a local: register locals carry their value, stack
// scalars load through their slot, stack aggregates are their address.
func (st *lstate) varUse(e *mir.Expr, d mir.VarData) (*Expr, error) {
	id, err := st.lookup(d.ID)
	if err != nil {
		return nil, err
	}
	l := st.src.Local(d.ID)
	if l.Storage == mir.StorageRegister {
		t, err := FromScalar(l.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		return mk(ExprVar, t, e.Span, VarData{ID: id}), nil
	}
	if l.Layout.IsScalar() {
		t, err := FromScalar(l.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		return mk(ExprLoad, t, e.Span, LoadData{Addr: varRef(id, e.Span), Offset: 0, Type: t}), nil
	}
	return varRef(id, e.Span), nil
}

// project reads a component at a static offset: scalars load, anything
// wider stays an address.
func (st *lstate) project(e *mir.Expr, base *Expr, offset uint32, l *layout.Layout) (*Expr, error) {
	if l.IsScalar() {
		t, err := FromScalar(l.Scalar)
		if err != nil {
			return nil, err
		}
		return mk(ExprLoad, t, e.Span, LoadData{Addr: base, Offset: offset, Type: t}), nil
	}
	return addrOf(base, offset, e.Span), nil
}

// construct materializes an aggregate rvalue: a fresh slot, the member
// initialization, and the slot address as the value.
func (st *lstate) construct(e *mir.Expr) (*Expr, error) {
	s := st.fresh()
	init, err := st.into(e, s, 0)
	if err != nil {
		return nil, err
	}
	slot := mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: e.Layout.Size, Align: e.Layout.Align})
	return mk(ExprLet, Usize, e.Span, LetData{
		ID:    s,
		Bound: slot,
		Body:  seq(init, varRef(s, e.Span), e.Span),
	}), nil
}

// into initializes memory at base+offset with the value of e.
// Constructors store member by member; anything else is computed and
// then stored or block-copied.
func (st *lstate) into(e *mir.Expr, base VarID, offset uint32) (*Expr, error) {
	switch d := e.Data.(type) {
	case mir.MakeTupleData:
		parts := make([]*Expr, 0, len(d.Elems))
		for i, el := range d.Elems {
			p, err := st.into(el, base, offset+e.Layout.Members[i].Offset)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return seqChain(parts, e.Span), nil

	case mir.MakeVariantData:
		tt, err := tagType(e.Layout.TagSize)
		if err != nil {
			return nil, err
		}
		tagVal, err := safecast.Conv[int64](d.Tag)
		if err != nil {
			return nil, fmt.Errorf("tag overflow: %w", err)
		}
		parts := []*Expr{mk(ExprStore, Void, e.Span, StoreData{
			Addr:   varRef(base, e.Span),
			Value:  mk(ExprNum, tt, e.Span, NumData{Value: tagVal}),
			Offset: offset,
			Type:   tt,
		})}
		for i, el := range d.Elems {
			off := offset + e.Layout.PayloadOffset + d.Payload.Members[i].Offset
			p, err := st.into(el, base, off)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return seqChain(parts, e.Span), nil

	case mir.ArrayLitData:
		stride := e.Layout.Elem.Size
		parts := make([]*Expr, 0, len(d.Elems))
		for i, el := range d.Elems {
			idx, err := safecast.Conv[uint32](i)
			if err != nil {
				return nil, fmt.Errorf("array literal overflow: %w", err)
			}
			p, err := st.into(el, base, offset+idx*stride)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return seqChain(parts, e.Span), nil

	case mir.ArrayRepeatData:
		return st.repeatInto(e, d, base, offset)

	default:
		if e.Type == st.lo.unit {
			return st.effect(e)
		}
		src, err := st.value(e)
		if err != nil {
			return nil, err
		}
		if e.Layout.IsScalar() {
			t, err := FromScalar(e.Layout.Scalar)
			if err != nil {
				return nil, err
			}
			return mk(ExprStore, Void, e.Span, StoreData{
				Addr:   varRef(base, e.Span),
				Value:  src,
				Offset: offset,
				Type:   t,
			}), nil
		}
		sizeVal, err := safecast.Conv[int64](e.Layout.Size)
		if err != nil {
			return nil, fmt.Errorf("copy size overflow: %w", err)
		}
		return mk(ExprBuiltin, Void, e.Span, BuiltinData{Op: "copy", Args: []*Expr{
			addrOf(varRef(base, e.Span), offset, e.Span),
			src,
			mk(ExprNum, Usize, e.Span, NumData{Value: sizeVal}),
		}}), nil
	}
}

// repeatInto fills base+offset with Count copies of the element, using
// an index loop. The element is evaluated once, before the loop.
func (st *lstate) repeatInto(e *mir.Expr, d mir.ArrayRepeatData, base VarID, offset uint32) (*Expr, error) {
	if d.Count == 0 || d.Elem.Type == st.lo.unit {
		return st.effect(d.Elem)
	}
	elem := d.Elem.Layout
	ev, err := st.value(d.Elem)
	if err != nil {
		return nil, err
	}
	t := st.fresh()
	i := st.fresh()
	sp := e.Span

	at := mk(ExprAddrIndex, Usize, sp, AddrIndexData{
		Base:   addrOf(varRef(base, sp), offset, sp),
		Index:  mk(ExprVar, Usize, sp, VarData{ID: i}),
		Stride: elem.Size,
	})
	var fill *Expr
	if elem.IsScalar() {
		et, err := FromScalar(elem.Scalar)
		if err != nil {
			return nil, err
		}
		fill = mk(ExprStore, Void, sp, StoreData{Addr: at, Value: mk(ExprVar, et, sp, VarData{ID: t}), Type: et})
	} else {
		sizeVal, err := safecast.Conv[int64](elem.Size)
		if err != nil {
			return nil, fmt.Errorf("copy size overflow: %w", err)
		}
		fill = mk(ExprBuiltin, Void, sp, BuiltinData{Op: "copy", Args: []*Expr{
			at,
			mk(ExprVar, Usize, sp, VarData{ID: t}),
			mk(ExprNum, Usize, sp, NumData{Value: sizeVal}),
		}})
	}

	countVal, err := safecast.Conv[int64](d.Count)
	if err != nil {
		return nil, fmt.Errorf("repeat count overflow: %w", err)
	}
	cond := mk(ExprBuiltin, U8, sp, BuiltinData{Op: "lt_u", Args: []*Expr{
		mk(ExprVar, Usize, sp, VarData{ID: i}),
		mk(ExprNum, Usize, sp, NumData{Value: countVal}),
	}})
	bump := mk(ExprSetVar, Void, sp, SetVarData{ID: i, Value: mk(ExprBuiltin, Usize, sp, BuiltinData{Op: "add", Args: []*Expr{
		mk(ExprVar, Usize, sp, VarData{ID: i}),
		mk(ExprNum, Usize, sp, NumData{Value: 1}),
	}})})
	loop := mk(ExprWhile, Void, sp, WhileData{Cond: cond, Body: seq(fill, bump, sp)})

	return mk(ExprLet, Void, sp, LetData{
		ID:    t,
		Bound: ev,
		Body: mk(ExprLet, Void, sp, LetData{
			ID:    i,
			Bound: mk(ExprNum, Usize, sp, NumData{Value: 0}),
			Body:  loop,
		}),
	}), nil
}

// call lowers a function call: aggregate arguments pass as addresses,
// and an aggregate result turns into a caller-allocated slot passed as
// a trailing out pointer.
func (st *lstate) call(e *mir.Expr, d mir.CallData) (*Expr, error) {
	callee, err := st.value(d.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]*Expr, 0, len(d.Args)+1)
	params := make([]Type, 0, len(d.Args)+1)
	for _, a := range d.Args {
		av, err := st.value(a)
		if err != nil {
			return nil, err
		}
		args = append(args, av)
		params = append(params, av.Type)
	}

	rt, err := st.class(e.Type, e.Layout)
	if err != nil {
		return nil, err
	}
	if e.Type == st.lo.never {
		rt = Void
	}
	if rt == Void {
		return mk(ExprCall, Void, e.Span, CallData{Callee: callee, Args: args,
			Sig: Signature{Params: params}}), nil
	}
	if e.Layout.IsScalar() {
		return mk(ExprCall, rt, e.Span, CallData{Callee: callee, Args: args,
			Sig: Signature{Params: params, Results: []Type{rt}}}), nil
	}

	// aggregate result: allocate here, pass the address last
	s := st.fresh()
	args = append(args, varRef(s, e.Span))
	params = append(params, Usize)
	call := mk(ExprCall, Void, e.Span, CallData{Callee: callee, Args: args,
		Sig: Signature{Params: params}})
	slot := mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: e.Layout.Size, Align: e.Layout.Align})
	return mk(ExprLet, Usize, e.Span, LetData{
		ID:    s,
		Bound: slot,
		Body:  seq(call, varRef(s, e.Span), e.Span),
	}), nil
}

// letIn lowers a binding according to the local's storage class.
func (st *lstate) letIn(e *mir.Expr, d mir.LetInData, effectCtx bool) (*Expr, error) {
	l := st.src.Local(d.ID)

	if l.Storage == mir.StorageRegister {
		bound, err := st.value(d.Bound)
		if err != nil {
			return nil, err
		}
		id := st.bind(d.ID)
		body, err := st.expr(d.Body, effectCtx)
		if err != nil {
			return nil, err
		}
		return mk(ExprLet, body.Type, e.Span, LetData{ID: id, Bound: bound, Body: body}), nil
	}

	if l.Layout.IsScalar() {
		// an addressed scalar: bind the slot address, store the value
		bound, err := st.value(d.Bound)
		if err != nil {
			return nil, err
		}
		t, err := FromScalar(l.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		id := st.bind(d.ID)
		body, err := st.expr(d.Body, effectCtx)
		if err != nil {
			return nil, err
		}
		store := mk(ExprStore, Void, e.Span, StoreData{
			Addr:   varRef(id, e.Span),
			Value:  bound,
			Offset: 0,
			Type:   t,
		})
		return mk(ExprLet, body.Type, e.Span, LetData{
			ID:    id,
			Bound: mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: l.Layout.Size, Align: l.Layout.Align}),
			Body:  seq(store, body, e.Span),
		}), nil
	}

	if freshAggregate(d.Bound) {
		// the initializer just built this value; adopt its slot
		bound, err := st.value(d.Bound)
		if err != nil {
			return nil, err
		}
		id := st.bind(d.ID)
		body, err := st.expr(d.Body, effectCtx)
		if err != nil {
			return nil, err
		}
		return mk(ExprLet, body.Type, e.Span, LetData{ID: id, Bound: bound, Body: body}), nil
	}

	// the initializer aliases existing storage; copy into a fresh slot
	id := st.bind(d.ID)
	init, err := st.into(d.Bound, id, 0)
	if err != nil {
		return nil, err
	}
	body, err := st.expr(d.Body, effectCtx)
	if err != nil {
		return nil, err
	}
	return mk(ExprLet, body.Type, e.Span, LetData{
		ID:    id,
		Bound: mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: l.Layout.Size, Align: l.Layout.Align}),
		Body:  seq(init, body, e.Span),
	}), nil
}

// freshAggregate reports whether the expression builds a brand new
// aggregate whose slot can be adopted without copying.
func freshAggregate(e *mir.Expr) bool {
	switch e.Kind {
	case mir.ExprMakeTuple, mir.ExprMakeVariant, mir.ExprArrayLit, mir.ExprArrayRepeat, mir.ExprCall:
		return true
	default:
		return false
	}
}

// assign lowers an assignment: register scalars are written directly,
// everything else goes through the place's address.
func (st *lstate) assign(e *mir.Expr, d mir.AssignData) (*Expr, error) {
	if v, ok := d.Target.Data.(mir.VarData); ok {
		if st.src.Local(v.ID).Storage == mir.StorageRegister {
			id, err := st.lookup(v.ID)
			if err != nil {
				return nil, err
			}
			val, err := st.value(d.Value)
			if err != nil {
				return nil, err
			}
			return mk(ExprSetVar, Void, e.Span, SetVarData{ID: id, Value: val}), nil
		}
	}

	pa, err := st.placeAddr(d.Target)
	if err != nil {
		return nil, err
	}
	if d.Value.Type == st.lo.unit {
		eff, err := st.effect(d.Value)
		if err != nil {
			return nil, err
		}
		tmp := st.fresh()
		return mk(ExprLet, Void, e.Span, LetData{ID: tmp, Bound: pa, Body: eff}), nil
	}
	if d.Value.Layout.IsScalar() {
		t, err := FromScalar(d.Value.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		val, err := st.value(d.Value)
		if err != nil {
			return nil, err
		}
		return mk(ExprStore, Void, e.Span, StoreData{Addr: pa, Value: val, Offset: 0, Type: t}), nil
	}
	tmp := st.fresh()
	init, err := st.into(d.Value, tmp, 0)
	if err != nil {
		return nil, err
	}
	return mk(ExprLet, Void, e.Span, LetData{ID: tmp, Bound: pa, Body: init}), nil
}

// placeAddr lowers a place expression to the address it names.
func (st *lstate) placeAddr(e *mir.Expr) (*Expr, error) {
	switch d := e.Data.(type) {
	case mir.VarData:
		id, err := st.lookup(d.ID)
		if err != nil {
			return nil, err
		}
		if st.src.Local(d.ID).Storage != mir.StorageStack {
			return nil, fmt.Errorf("core: address of register local %v", d.ID)
		}
		return varRef(id, e.Span), nil
	case mir.DerefData:
		return st.value(d.Operand)
	case mir.FieldData:
		base, err := st.value(d.Object)
		if err != nil {
			return nil, err
		}
		m := d.Object.Layout.Members[d.Index]
		return addrOf(base, m.Offset, e.Span), nil
	case mir.IndexData:
		arr, err := st.value(d.Array)
		if err != nil {
			return nil, err
		}
		idx, err := st.value(d.Index)
		if err != nil {
			return nil, err
		}
		return mk(ExprAddrIndex, Usize, e.Span, AddrIndexData{
			Base:   arr,
			Index:  idx,
			Stride: d.Array.Layout.Elem.Size,
		}), nil
	case mir.PayloadData:
		op, err := st.value(d.Operand)
		if err != nil {
			return nil, err
		}
		return addrOf(op, d.Offset, e.Span), nil
	default:
		// address of a temporary: materialize it
		if !e.Layout.IsScalar() {
			return st.value(e)
		}
		v, err := st.value(e)
		if err != nil {
			return nil, err
		}
		t, err := FromScalar(e.Layout.Scalar)
		if err != nil {
			return nil, err
		}
		s := st.fresh()
		store := mk(ExprStore, Void, e.Span, StoreData{Addr: varRef(s, e.Span), Value: v, Offset: 0, Type: t})
		return mk(ExprLet, Usize, e.Span, LetData{
			ID:    s,
			Bound: mk(ExprStackSlot, Usize, e.Span, StackSlotData{Size: e.Layout.Size, Align: e.Layout.Align}),
			Body:  seq(store, varRef(s, e.Span), e.Span),
		}), nil
	}
}

// branch lowers a conditional. Unit and diverging conditionals produce
// no value; everything else produces its class primitive, with
// aggregate branches agreeing on an address.
func (st *lstate) branch(e *mir.Expr, d mir.IfData, effectCtx bool) (*Expr, error) {
	cond, err := st.value(d.Cond)
	if err != nil {
		return nil, err
	}
	if e.Type == st.lo.unit || e.Type == st.lo.never {
		then, err := st.effect(d.Then)
		if err != nil {
			return nil, err
		}
		els, err := st.effect(d.Else)
		if err != nil {
			return nil, err
		}
		return mk(ExprIf, Void, e.Span, IfData{Cond: cond, Then: then, Else: els}), nil
	}
	then, err := st.value(d.Then)
	if err != nil {
		return nil, err
	}
	els, err := st.value(d.Else)
	if err != nil {
		return nil, err
	}
	t, err := st.class(e.Type, e.Layout)
	if err != nil {
		return nil, err
	}
	return mk(ExprIf, t, e.Span, IfData{Cond: cond, Then: then, Else: els}), nil
}

func mk(k ExprKind, t Type, sp source.Span, d ExprData) *Expr {
	return &Expr{Kind: k, Type: t, Span: sp, Data: d}
}

func varRef(id VarID, sp source.Span) *Expr {
	return mk(ExprVar, Usize, sp, VarData{ID: id})
}

func addrOf(base *Expr, offset uint32, sp source.Span) *Expr {
	if offset == 0 {
		return base
	}
	return mk(ExprAddr, Usize, sp, AddrData{Base: base, Offset: offset})
}

func seq(first, second *Expr, sp source.Span) *Expr {
	return mk(ExprSeq, second.Type, sp, SeqData{First: first, Second: second})
}

// seqChain folds parts into a right-nested Seq ending in no value.
func seqChain(parts []*Expr, sp source.Span) *Expr {
	if len(parts) == 0 {
		return mk(ExprUnit, Void, sp, UnitData{})
	}
	out := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		out = seq(parts[i], out, sp)
	}
	return out
}
