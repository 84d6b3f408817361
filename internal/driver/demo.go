package driver

import (
	"fmt"
	"sort"

	"sable/internal/hir"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// Demo programs exercise the middle end without a front end: each one
// assembles a small typed module by hand. They double as living
// documentation of what the lowering accepts.

var demoBuilders = map[string]func() *hir.Module{
	"geometry": demoGeometry,
	"options":  demoOptions,
	"loops":    demoLoops,
}

// Demos lists the available demo names, sorted.
func Demos() []string {
	names := make([]string, 0, len(demoBuilders))
	for name := range demoBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildDemo assembles the named demo module.
func BuildDemo(name string) (*hir.Module, error) {
	build, ok := demoBuilders[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q (have %v)", name, Demos())
	}
	return build(), nil
}

// demoWorld carries the pieces every demo assembles: a registry, a
// symbol table and a builder over them.
type demoWorld struct {
	reg  *types.Registry
	syms *symbols.Table
	hb   *hir.Builder
}

func newDemoWorld() *demoWorld {
	reg := types.NewRegistry()
	return &demoWorld{reg: reg, syms: symbols.NewTable(8), hb: hir.NewBuilder(reg)}
}

// demoSpan gives each synthetic declaration a distinct span so
// diagnostics stay tellable apart.
func demoSpan(n uint32) source.Span {
	return source.Span{File: source.FileID(1), Start: n * 16, End: n*16 + 8}
}

func (w *demoWorld) declareFunc(name string, params []types.Type, result types.Type) symbols.SymbolID {
	return w.syms.Insert(symbols.Symbol{
		Name: name,
		Kind: symbols.SymbolFunc,
		Signature: &symbols.FuncSignature{
			Params: params,
			Result: result,
		},
	})
}

func (w *demoWorld) declareCons(name string, enum types.TVar, variant uint32, payload []types.Type) symbols.SymbolID {
	return w.syms.Insert(symbols.Symbol{
		Name: name,
		Kind: symbols.SymbolTypeCons,
		Cons: &symbols.ConsInfo{Enum: enum, Variant: variant, Payload: payload},
	})
}

func (w *demoWorld) module(name string, fns ...*hir.Func) *hir.Module {
	return &hir.Module{Name: name, Funcs: fns, Types: w.reg, Symbols: w.syms}
}

// demoGeometry builds nested structs and functions over them: a field
// chain on a by-value parameter, an aggregate return and a write
// through a pointer parameter.
func demoGeometry() *hir.Module {
	w := newDemoWorld()
	hb := w.hb
	i64 := w.reg.Named(w.reg.Builtins().I64)

	pointTV := w.reg.RegisterStruct("Point", demoSpan(1), nil)
	w.reg.SetStructFields(pointTV, []types.StructField{
		{Name: "x", Type: i64},
		{Name: "y", Type: i64},
	})
	point := w.reg.Named(pointTV)

	rectTV := w.reg.RegisterStruct("Rect", demoSpan(2), nil)
	w.reg.SetStructFields(rectTV, []types.StructField{
		{Name: "min", Type: point},
		{Name: "max", Type: point},
	})
	rect := w.reg.Named(rectTV)

	// fn area(r: Rect) -> i64 {
	//     let w = r.max.x - r.min.x;
	//     let h = r.max.y - r.min.y;
	//     w * h
	// }
	areaSym := w.declareFunc("area", []types.Type{rect}, i64)
	r := hb.Var("r", rect)
	width := hb.Builtin("sub", i64,
		hb.Field(i64, hb.Field(point, r, 1, "max"), 0, "x"),
		hb.Field(i64, hb.Field(point, r, 0, "min"), 0, "x"))
	height := hb.Builtin("sub", i64,
		hb.Field(i64, hb.Field(point, r, 1, "max"), 1, "y"),
		hb.Field(i64, hb.Field(point, r, 0, "min"), 1, "y"))
	area := &hir.Func{
		Name:   "area",
		Symbol: areaSym,
		Params: []hir.Param{{Name: "r", Type: rect}},
		Result: i64,
		Body: hb.Block(
			hb.Builtin("mul", i64, hb.Var("w", i64), hb.Var("h", i64)),
			hb.Let("w", false, width),
			hb.Let("h", false, height),
		),
	}

	// fn origin() -> Point { Point { x: 0, y: 0 } }
	originSym := w.declareFunc("origin", nil, point)
	origin := &hir.Func{
		Name:   "origin",
		Symbol: originSym,
		Result: point,
		Body:   hb.Struct(point, hb.Num(i64, 0), hb.Num(i64, 0)),
	}

	// fn shift(p: *mut Point, dx: i64) { (*p).x = (*p).x + dx; }
	shiftSym := w.declareFunc("shift", []types.Type{w.reg.MutPtr(point), i64}, w.reg.Unit())
	p := hb.Var("p", w.reg.MutPtr(point))
	shift := &hir.Func{
		Name:   "shift",
		Symbol: shiftSym,
		Params: []hir.Param{{Name: "p", Type: w.reg.MutPtr(point)}, {Name: "dx", Type: i64}},
		Result: w.reg.Unit(),
		Body: hb.Block(nil,
			hb.Stmt(hb.Assign(
				hb.Field(i64, hb.Deref(p), 0, "x"),
				hb.Builtin("add", i64, hb.Field(i64, hb.Deref(p), 0, "x"), hb.Var("dx", i64)),
			)),
		),
	}

	return w.module("geometry", area, origin, shift)
}

// demoOptions builds a two-variant enum with its constructors, tag
// dispatch and payload projection.
func demoOptions() *hir.Module {
	w := newDemoWorld()
	hb := w.hb
	i64 := w.reg.Named(w.reg.Builtins().I64)
	boolT := w.reg.Named(w.reg.Builtins().Bool)
	usize := w.reg.Named(w.reg.Builtins().Usize)

	optTV := w.reg.RegisterEnum("OptInt", demoSpan(1), nil)
	w.reg.SetEnumVariants(optTV, []types.EnumVariant{
		{Name: "None"},
		{Name: "Some", Payload: []types.Type{i64}},
	})
	opt := w.reg.Named(optTV)

	noneCons := w.declareCons("None", optTV, 0, nil)
	someCons := w.declareCons("Some", optTV, 1, []types.Type{i64})
	noneType := w.reg.Func(nil, opt)
	someType := w.reg.Func([]types.Type{i64}, opt)

	// fn none() -> OptInt { None() }
	noneSym := w.declareFunc("none", nil, opt)
	none := &hir.Func{
		Name:   "none",
		Symbol: noneSym,
		Result: opt,
		Body:   hb.Call(hb.Global("None", noneCons, noneType)),
	}

	// fn some(v: i64) -> OptInt { Some(v) }
	someSym := w.declareFunc("some", []types.Type{i64}, opt)
	some := &hir.Func{
		Name:   "some",
		Symbol: someSym,
		Params: []hir.Param{{Name: "v", Type: i64}},
		Result: opt,
		Body:   hb.Call(hb.Global("Some", someCons, someType), hb.Var("v", i64)),
	}

	// fn unwrap_or(o: OptInt, alt: i64) -> i64 {
	//     if tag(o) == 1 { payload(o, Some, 0) } else { alt }
	// }
	unwrapSym := w.declareFunc("unwrap_or", []types.Type{opt, i64}, i64)
	o := hb.Var("o", opt)
	unwrap := &hir.Func{
		Name:   "unwrap_or",
		Symbol: unwrapSym,
		Params: []hir.Param{{Name: "o", Type: opt}, {Name: "alt", Type: i64}},
		Result: i64,
		Body: hb.If(
			hb.Builtin("eq", boolT, hb.Tag(o), hb.Num(usize, 1)),
			hb.Payload(i64, o, 1, 0),
			hb.Var("alt", i64),
		),
	}

	return w.module("options", none, some, unwrap)
}

// demoLoops builds mutable locals, a while loop, pointer swaps and a
// tuple return, the cases that separate register from stack storage.
func demoLoops() *hir.Module {
	w := newDemoWorld()
	hb := w.hb
	i64 := w.reg.Named(w.reg.Builtins().I64)
	boolT := w.reg.Named(w.reg.Builtins().Bool)
	unit := w.reg.Unit()
	pair := w.reg.Tuple(i64, i64)

	// fn sum_squares(n: i64) -> i64 {
	//     let mut i = 0;
	//     let mut acc = 0;
	//     while i < n { acc = acc + i * i; i = i + 1; }
	//     acc
	// }
	sumSym := w.declareFunc("sum_squares", []types.Type{i64}, i64)
	iv := hb.Var("i", i64)
	acc := hb.Var("acc", i64)
	loop := hb.While(
		hb.Builtin("lt_s", boolT, iv, hb.Var("n", i64)),
		hb.Block(nil,
			hb.Stmt(hb.Assign(acc, hb.Builtin("add", i64, acc, hb.Builtin("mul", i64, iv, iv)))),
			hb.Stmt(hb.Assign(iv, hb.Builtin("add", i64, iv, hb.Num(i64, 1)))),
		),
	)
	sumSquares := &hir.Func{
		Name:   "sum_squares",
		Symbol: sumSym,
		Params: []hir.Param{{Name: "n", Type: i64}},
		Result: i64,
		Body: hb.Block(acc,
			hb.Let("i", true, hb.Num(i64, 0)),
			hb.Let("acc", true, hb.Num(i64, 0)),
			hb.Stmt(loop),
		),
	}

	// fn swap(a: *mut i64, b: *mut i64) { let t = *a; *a = *b; *b = t; }
	ptr := w.reg.MutPtr(i64)
	swapSym := w.declareFunc("swap", []types.Type{ptr, ptr}, unit)
	a := hb.Var("a", ptr)
	b := hb.Var("b", ptr)
	swap := &hir.Func{
		Name:   "swap",
		Symbol: swapSym,
		Params: []hir.Param{{Name: "a", Type: ptr}, {Name: "b", Type: ptr}},
		Result: unit,
		Body: hb.Block(nil,
			hb.Let("t", false, hb.Deref(a)),
			hb.Stmt(hb.Assign(hb.Deref(a), hb.Deref(b))),
			hb.Stmt(hb.Assign(hb.Deref(b), hb.Var("t", i64))),
		),
	}

	// fn swapped(x: i64, y: i64) -> (i64, i64) {
	//     let mut a = x;
	//     let mut b = y;
	//     swap(&mut a, &mut b);
	//     (a, b)
	// }
	swapType := w.reg.Func([]types.Type{ptr, ptr}, unit)
	swappedSym := w.declareFunc("swapped", []types.Type{i64, i64}, pair)
	la := hb.Var("a", i64)
	lb := hb.Var("b", i64)
	swapped := &hir.Func{
		Name:   "swapped",
		Symbol: swappedSym,
		Params: []hir.Param{{Name: "x", Type: i64}, {Name: "y", Type: i64}},
		Result: pair,
		Body: hb.Block(hb.Tuple(la, lb),
			hb.Let("a", true, hb.Var("x", i64)),
			hb.Let("b", true, hb.Var("y", i64)),
			hb.Stmt(hb.Call(hb.Global("swap", swapSym, swapType), hb.RefMut(la), hb.RefMut(lb))),
		),
	}

	return w.module("loops", sumSquares, swap, swapped)
}
