package mir_test

import (
	"strings"
	"testing"

	"sable/internal/diag"
	"sable/internal/hir"
	"sable/internal/layout"
	"sable/internal/mir"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

func testSpan(n uint32) source.Span {
	return source.Span{File: source.FileID(1), Start: n, End: n + 1}
}

// world wires the pieces a translation test needs: declare definitions
// and symbols first, then call finish to freeze and lay everything out.
type world struct {
	reg   *types.Registry
	syms  *symbols.Table
	cache *layout.Cache
	hb    *hir.Builder
}

func newWorld() *world {
	reg := types.NewRegistry()
	return &world{reg: reg, syms: symbols.NewTable(8), hb: hir.NewBuilder(reg)}
}

func (w *world) finish(t *testing.T) {
	t.Helper()
	w.reg.Freeze()
	w.syms.Freeze()
	bag := diag.NewBag(16)
	w.cache = layout.NewEngine(w.reg, layout.X86_64LinuxGNU()).Compute(bag)
	if bag.HasErrors() {
		t.Fatalf("layout reported errors: %+v", bag.Items())
	}
}

func (w *world) translate(t *testing.T, fns ...*hir.Func) *mir.Program {
	t.Helper()
	m := &hir.Module{Name: "test", Funcs: fns, Types: w.reg, Symbols: w.syms}
	if err := mir.SeedLayouts(w.cache, w.syms, m); err != nil {
		t.Fatalf("SeedLayouts() error: %v", err)
	}
	w.cache.Seal()
	p, err := mir.NewBuilder(w.reg, w.syms, w.cache).Program(m)
	if err != nil {
		t.Fatalf("Program() error: %v", err)
	}
	return p
}

func (w *world) named(tv types.TVar) types.Type {
	return w.reg.Named(tv)
}

func TestTranslate_BlockBecomesLetInSeqSpine(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	unit := w.reg.Unit()
	hb := w.hb

	body := hb.Block(hb.Var("a", u32),
		hb.Let("a", false, hb.Num(u32, 1)),
		hb.Stmt(hb.Builtin("print", unit)),
	)
	p := w.translate(t, &hir.Func{Name: "f", Result: u32, Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(let %1 (num 1) (seq (builtin print) (var %1)))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestTranslate_StatementsKeepEvaluationOrder(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	unit := w.reg.Unit()
	hb := w.hb

	body := hb.Block(hb.Num(u32, 3),
		hb.Stmt(hb.Builtin("emit", unit, hb.Num(u32, 1))),
		hb.Stmt(hb.Builtin("emit", unit, hb.Num(u32, 2))),
	)
	p := w.translate(t, &hir.Func{Name: "g", Result: u32, Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(seq (builtin emit (num 1)) (seq (builtin emit (num 2)) (num 3)))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestTranslate_NestedBlockFlattensIntoOneSpine(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	unit := w.reg.Unit()
	hb := w.hb

	inner := hb.Block(nil,
		hb.Stmt(hb.Builtin("emit", unit, hb.Num(u32, 2))),
		hb.Stmt(hb.Builtin("emit", unit, hb.Num(u32, 3))),
	)
	body := hb.Block(hb.Num(u32, 4),
		hb.Stmt(hb.Builtin("emit", unit, hb.Num(u32, 1))),
		hb.Stmt(inner),
	)
	p := w.translate(t, &hir.Func{Name: "h", Result: u32, Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(seq (builtin emit (num 1)) (seq (builtin emit (num 2)) (seq (builtin emit (num 3)) (seq (tuple) (num 4)))))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestTranslate_TrailingBindingYieldsUnit(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	hb := w.hb

	body := hb.Block(nil, hb.Let("x", false, hb.Num(u32, 1)))
	p := w.translate(t, &hir.Func{Name: "f", Result: w.reg.Unit(), Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(let %1 (num 1) (tuple))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if bt := p.Funcs[0].Body.Type; bt != w.reg.Unit() {
		t.Fatalf("body type = %s, want ()", w.reg.TypeString(bt))
	}
}

func TestTranslate_ShadowingRebindsTheName(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	hb := w.hb

	body := hb.Block(hb.Var("x", u32),
		hb.Let("x", false, hb.Num(u32, 1)),
		hb.Let("x", false, hb.Num(u32, 2)),
	)
	p := w.translate(t, &hir.Func{Name: "f", Result: u32, Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(let %1 (num 1) (let %2 (num 2) (var %2)))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestTranslate_AddressTakenLocalMovesToStack(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u32 := w.named(w.reg.Builtins().U32)
	hb := w.hb

	body := hb.Block(nil,
		hb.Let("x", true, hb.Num(u32, 1)),
		hb.Let("p", false, hb.RefMut(hb.Var("x", u32))),
		hb.Stmt(hb.Assign(hb.Deref(hb.Var("p", w.reg.MutPtr(u32))), hb.Num(u32, 2))),
	)
	p := w.translate(t, &hir.Func{Name: "f", Result: w.reg.Unit(), Body: body})

	f := p.Funcs[0]
	if got := f.Local(mir.VarID(1)).Storage; got != mir.StorageStack {
		t.Fatalf("x storage = %v, want stack", got)
	}
	if got := f.Local(mir.VarID(2)).Storage; got != mir.StorageRegister {
		t.Fatalf("p storage = %v, want register", got)
	}
}

func TestTranslate_AggregatesGetStackStorage(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u8 := w.named(w.reg.Builtins().U8)
	u32 := w.named(w.reg.Builtins().U32)
	u64 := w.named(w.reg.Builtins().U64)
	pair := w.reg.Tuple(u8, u64)
	hb := w.hb

	body := hb.Block(nil,
		hb.Let("pair", false, hb.Tuple(hb.Num(u8, 1), hb.Num(u64, 2))),
		hb.Let("n", false, hb.Num(u32, 5)),
	)
	f := &hir.Func{
		Name: "f",
		Params: []hir.Param{
			{Name: "v", Type: pair},
			{Name: "k", Type: u32},
		},
		Result: w.reg.Unit(),
		Body:   body,
	}
	p := w.translate(t, f)

	mf := p.Funcs[0]
	if got := mf.Local(mir.VarID(1)).Storage; got != mir.StorageStack {
		t.Fatalf("aggregate param storage = %v, want stack", got)
	}
	if got := mf.Local(mir.VarID(2)).Storage; got != mir.StorageRegister {
		t.Fatalf("scalar param storage = %v, want register", got)
	}
	if got := mf.Local(mir.VarID(3)).Storage; got != mir.StorageStack {
		t.Fatalf("aggregate binding storage = %v, want stack", got)
	}
	if got := mf.Local(mir.VarID(4)).Storage; got != mir.StorageRegister {
		t.Fatalf("scalar binding storage = %v, want register", got)
	}
}

func TestTranslate_AggregateResultReturnsThroughSlot(t *testing.T) {
	w := newWorld()
	big := w.reg.RegisterStruct("Big", testSpan(1), nil)
	u64 := w.reg.Named(w.reg.Builtins().U64)
	w.reg.SetStructFields(big, []types.StructField{
		{Name: "a", Type: u64},
		{Name: "b", Type: u64},
	})
	w.finish(t)
	bigT := w.named(big)
	hb := w.hb

	p := w.translate(t,
		&hir.Func{Name: "make", Result: bigT,
			Body: hb.Struct(bigT, hb.Num(u64, 1), hb.Num(u64, 2))},
		&hir.Func{Name: "side", Result: w.reg.Unit(), Body: hb.Unit()},
	)

	f := p.Funcs[0]
	if !f.HasRetSlot() {
		t.Fatalf("expected make to return through a slot")
	}
	slot := f.Local(f.RetSlot)
	if slot.Name != "__ret_var" || !slot.Param {
		t.Fatalf("slot = %+v, want a parameter named __ret_var", slot)
	}
	if f.Params[len(f.Params)-1] != f.RetSlot {
		t.Fatalf("slot is not the trailing parameter: %v", f.Params)
	}
	if slot.Storage != mir.StorageStack {
		t.Fatalf("slot storage = %v, want stack", slot.Storage)
	}
	got := mir.ExprString(f.Body)
	want := "(assign (deref (var %1)) (tuple (num 1) (num 2)))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if _, ok := w.cache.Of(w.reg.MutPtr(bigT)); !ok {
		t.Fatalf("slot pointer type was never seeded")
	}

	if p.Funcs[1].HasRetSlot() {
		t.Fatalf("unit results must not get a return slot")
	}
}

func TestTranslate_EarlyReturnStoresThroughSlot(t *testing.T) {
	w := newWorld()
	big := w.reg.RegisterStruct("Big", testSpan(1), nil)
	u64 := w.reg.Named(w.reg.Builtins().U64)
	w.reg.SetStructFields(big, []types.StructField{
		{Name: "a", Type: u64},
		{Name: "b", Type: u64},
	})
	w.finish(t)
	bigT := w.named(big)
	hb := w.hb

	body := hb.Block(hb.Return(hb.Struct(bigT, hb.Num(u64, 9), hb.Num(u64, 9))))
	p := w.translate(t, &hir.Func{Name: "die", Result: bigT, Body: body})

	got := mir.ExprString(p.Funcs[0].Body)
	want := "(seq (assign (deref (var %1)) (tuple (num 9) (num 9))) (return))"
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestTranslate_ConstructorCallBecomesMakeVariant(t *testing.T) {
	w := newWorld()
	i64 := w.reg.Named(w.reg.Builtins().I64)
	shape := w.reg.RegisterEnum("Shape", testSpan(1), nil)
	w.reg.SetEnumVariants(shape, []types.EnumVariant{
		{Name: "Dot"},
		{Name: "Line", Payload: []types.Type{i64}},
	})
	shapeT := w.reg.Named(shape)
	lineSym := w.syms.Insert(symbols.Symbol{
		Name: "Line",
		Kind: symbols.SymbolTypeCons,
		Cons: &symbols.ConsInfo{Enum: shape, Variant: 1, Payload: []types.Type{i64}},
	})
	w.finish(t)
	hb := w.hb

	cons := hb.Global("Line", lineSym, w.reg.Func([]types.Type{i64}, shapeT))
	p := w.translate(t, &hir.Func{Name: "mk", Result: shapeT, Body: hb.Call(cons, hb.Num(i64, 7))})

	// Shape is an aggregate, so the constructor value sits inside the
	// return-slot store.
	val := p.Funcs[0].Body.Data.(mir.AssignData).Value
	if val.Kind != mir.ExprMakeVariant {
		t.Fatalf("stored value kind = %v, want MakeVariant", val.Kind)
	}
	mv := val.Data.(mir.MakeVariantData)
	if mv.Tag != 1 {
		t.Fatalf("tag = %d, want 1", mv.Tag)
	}
	if mv.Payload == nil || mv.Payload.Size != 8 || mv.Payload.Align != 8 {
		t.Fatalf("payload layout = %+v, want size 8 align 8", mv.Payload)
	}
	if got := mir.ExprString(val); got != "(variant 1 (num 7))" {
		t.Fatalf("value = %s, want (variant 1 (num 7))", got)
	}
}

func TestTranslate_ConstructorAsValueIsAnError(t *testing.T) {
	w := newWorld()
	i64 := w.reg.Named(w.reg.Builtins().I64)
	shape := w.reg.RegisterEnum("Shape", testSpan(1), nil)
	w.reg.SetEnumVariants(shape, []types.EnumVariant{
		{Name: "Dot"},
		{Name: "Line", Payload: []types.Type{i64}},
	})
	shapeT := w.reg.Named(shape)
	lineSym := w.syms.Insert(symbols.Symbol{
		Name: "Line",
		Kind: symbols.SymbolTypeCons,
		Cons: &symbols.ConsInfo{Enum: shape, Variant: 1, Payload: []types.Type{i64}},
	})
	w.finish(t)
	hb := w.hb

	fnT := w.reg.Func([]types.Type{i64}, shapeT)
	m := &hir.Module{Name: "test", Funcs: []*hir.Func{
		{Name: "bad", Result: fnT, Body: hb.Global("Line", lineSym, fnT)},
	}, Types: w.reg, Symbols: w.syms}
	if err := mir.SeedLayouts(w.cache, w.syms, m); err != nil {
		t.Fatalf("SeedLayouts() error: %v", err)
	}
	w.cache.Seal()

	_, err := mir.NewBuilder(w.reg, w.syms, w.cache).Program(m)
	if err == nil {
		t.Fatalf("expected an error for a bare constructor reference")
	}
	if !strings.Contains(err.Error(), "used as a value") {
		t.Fatalf("error = %v, want a used-as-a-value complaint", err)
	}
}

func TestTranslate_PayloadOffsetIsResolved(t *testing.T) {
	w := newWorld()
	i64 := w.reg.Named(w.reg.Builtins().I64)
	shape := w.reg.RegisterEnum("Shape", testSpan(1), nil)
	w.reg.SetEnumVariants(shape, []types.EnumVariant{
		{Name: "Dot"},
		{Name: "Line", Payload: []types.Type{i64}},
	})
	w.finish(t)
	shapeT := w.named(shape)
	hb := w.hb

	body := hb.Payload(i64, hb.Var("s", shapeT), 1, 0)
	p := w.translate(t, &hir.Func{
		Name:   "first",
		Params: []hir.Param{{Name: "s", Type: shapeT}},
		Result: i64,
		Body:   body,
	})

	pb := p.Funcs[0].Body
	if pb.Kind != mir.ExprPayload {
		t.Fatalf("body kind = %v, want Payload", pb.Kind)
	}
	pd := pb.Data.(mir.PayloadData)
	if pd.Offset != 8 {
		t.Fatalf("payload offset = %d, want 8", pd.Offset)
	}
	if got := p.Funcs[0].Local(mir.VarID(1)).Storage; got != mir.StorageStack {
		t.Fatalf("enum param storage = %v, want stack", got)
	}
}

func TestTranslate_MissingLayoutIsAnError(t *testing.T) {
	w := newWorld()
	w.finish(t)
	u8 := w.named(w.reg.Builtins().U8)
	u16 := w.named(w.reg.Builtins().U16)
	pair := w.reg.Tuple(u8, u16)

	m := &hir.Module{Name: "test", Funcs: []*hir.Func{
		{Name: "f", Params: []hir.Param{{Name: "v", Type: pair}}, Result: w.reg.Unit(), Body: w.hb.Unit()},
	}, Types: w.reg, Symbols: w.syms}
	w.cache.Seal() // deliberately skip seeding

	_, err := mir.NewBuilder(w.reg, w.syms, w.cache).Program(m)
	if err == nil {
		t.Fatalf("expected an error for an unseeded type")
	}
	if !strings.Contains(err.Error(), "no cached layout") {
		t.Fatalf("error = %v, want a missing-layout complaint", err)
	}
}

func TestDumpProgram_ListsLocalsAndStorage(t *testing.T) {
	w := newWorld()
	big := w.reg.RegisterStruct("Big", testSpan(1), nil)
	u64 := w.reg.Named(w.reg.Builtins().U64)
	w.reg.SetStructFields(big, []types.StructField{
		{Name: "a", Type: u64},
		{Name: "b", Type: u64},
	})
	w.finish(t)
	bigT := w.named(big)
	hb := w.hb

	p := w.translate(t, &hir.Func{Name: "make", Result: bigT,
		Body: hb.Struct(bigT, hb.Num(u64, 1), hb.Num(u64, 2))})

	var b strings.Builder
	if err := mir.DumpProgram(&b, p, w.reg); err != nil {
		t.Fatalf("DumpProgram() error: %v", err)
	}
	out := b.String()
	for _, want := range []string{"fn make:", "ret_slot: %1", "name=__ret_var", "[stack]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}
