package layout_test

import (
	"strings"
	"testing"

	"sable/internal/diag"
	"sable/internal/types"
)

func TestEngine_SelfRecursiveStructReportsCycle(t *testing.T) {
	reg := types.NewRegistry()
	node := reg.RegisterStruct("Node", testSpan(1), nil)
	reg.SetStructFields(node, []types.StructField{
		{Name: "next", Type: reg.Named(node), Span: testSpan(2)},
	})
	c, bag := computeAll(t, reg)

	if !bag.HasErrors() {
		t.Fatal("expected an error for the recursive type, got none")
	}
	if !bagHasCode(bag, diag.LayoutUnboundedRecursive) {
		t.Fatalf("expected %v, got %+v", diag.LayoutUnboundedRecursive, bag.Items())
	}
	if _, ok := c.ByTVar(node); ok {
		t.Fatal("a recursive definition must not receive a layout")
	}
	if !c.Failed(node) {
		t.Fatal("expected the definition to be marked failed")
	}

	var found bool
	for _, d := range bag.Items() {
		if d.Code != diag.LayoutUnboundedRecursive {
			continue
		}
		for _, n := range d.Notes {
			if strings.Contains(n.Msg, "Node -> Node") {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected a cycle note naming Node -> Node, got %+v", bag.Items())
	}
}

func TestEngine_MutualRecursionReportsBothMembers(t *testing.T) {
	reg := types.NewRegistry()
	a := reg.RegisterStruct("Alpha", testSpan(1), nil)
	bb := reg.RegisterStruct("Beta", testSpan(3), nil)
	reg.SetStructFields(a, []types.StructField{
		{Name: "b", Type: reg.Named(bb), Span: testSpan(2)},
	})
	reg.SetStructFields(bb, []types.StructField{
		{Name: "a", Type: reg.Named(a), Span: testSpan(4)},
	})
	c, bag := computeAll(t, reg)

	errs := 0
	for _, d := range bag.Items() {
		if d.Code == diag.LayoutUnboundedRecursive {
			errs++
		}
	}
	if errs != 2 {
		t.Fatalf("expected both cycle members reported, got %d in %+v", errs, bag.Items())
	}
	if !c.Failed(a) || !c.Failed(bb) {
		t.Fatal("expected both definitions marked failed")
	}
}

func TestEngine_DependentOfCycleIsSkippedWithWarning(t *testing.T) {
	reg := types.NewRegistry()
	b := reg.Builtins()
	node := reg.RegisterStruct("Node", testSpan(1), nil)
	reg.SetStructFields(node, []types.StructField{
		{Name: "next", Type: reg.Named(node), Span: testSpan(2)},
	})
	holder := reg.RegisterStruct("Holder", testSpan(3), nil)
	reg.SetStructFields(holder, []types.StructField{
		{Name: "n", Type: reg.Named(node), Span: testSpan(4)},
	})
	other := reg.RegisterStruct("Other", testSpan(5), nil)
	reg.SetStructFields(other, []types.StructField{
		{Name: "x", Type: reg.Named(b.U32), Span: testSpan(6)},
	})
	c, bag := computeAll(t, reg)

	if !bagHasCode(bag, diag.LayoutUnboundedRecursive) {
		t.Fatalf("expected the cycle member reported, got %+v", bag.Items())
	}
	if !bagHasCode(bag, diag.LayoutDependsOnUnbounded) {
		t.Fatalf("expected the dependent reported, got %+v", bag.Items())
	}
	if _, ok := c.ByTVar(holder); ok || !c.Failed(holder) {
		t.Fatal("the dependent must be skipped, not laid out")
	}

	// one bad definition must not take down unrelated ones
	l := mustByTVar(t, c, other)
	if l.Size != 4 {
		t.Fatalf("expected the unrelated struct to keep its layout, got %v", l)
	}
}

func TestEngine_RecursionThroughEnumPayload(t *testing.T) {
	reg := types.NewRegistry()
	b := reg.Builtins()
	expr := reg.RegisterEnum("Expr", testSpan(1), nil)
	reg.SetEnumVariants(expr, []types.EnumVariant{
		{Name: "Lit", Payload: []types.Type{reg.Named(b.I64)}, Span: testSpan(2)},
		{Name: "Add", Payload: []types.Type{reg.Named(expr), reg.Named(expr)}, Span: testSpan(3)},
	})
	_, bag := computeAll(t, reg)

	if !bagHasCode(bag, diag.LayoutUnboundedRecursive) {
		t.Fatalf("expected an unbounded recursion error, got %+v", bag.Items())
	}
}

func TestEngine_RecursionThroughArrayElement(t *testing.T) {
	reg := types.NewRegistry()
	grid := reg.RegisterStruct("Grid", testSpan(1), nil)
	reg.SetStructFields(grid, []types.StructField{
		{Name: "cells", Type: reg.Array(4, reg.Named(grid)), Span: testSpan(2)},
	})
	_, bag := computeAll(t, reg)

	if !bagHasCode(bag, diag.LayoutUnboundedRecursive) {
		t.Fatalf("expected an unbounded recursion error, got %+v", bag.Items())
	}
}

func TestEngine_PointerBreaksTheCycle(t *testing.T) {
	reg := types.NewRegistry()
	b := reg.Builtins()
	list := reg.RegisterStruct("List", testSpan(1), nil)
	reg.SetStructFields(list, []types.StructField{
		{Name: "value", Type: reg.Named(b.I64), Span: testSpan(2)},
		{Name: "next", Type: reg.Ptr(reg.Named(list)), Span: testSpan(3)},
	})
	c, bag := computeAll(t, reg)
	if bag.Len() != 0 {
		t.Fatalf("a pointer-linked list is finite, got %+v", bag.Items())
	}

	l := mustByTVar(t, c, list)
	if l.Size != 16 || l.Align != 8 {
		t.Fatalf("expected two words, got %v", l)
	}
}

func TestEngine_RecursionForwardedThroughGenericParam(t *testing.T) {
	reg := types.NewRegistry()
	wrap := reg.RegisterStruct("Wrap", testSpan(1), []string{"T"})
	reg.SetStructFields(wrap, []types.StructField{
		{Name: "value", Type: reg.Param(0), Span: testSpan(2)},
	})
	loop := reg.RegisterStruct("Loop", testSpan(3), nil)
	reg.SetStructFields(loop, []types.StructField{
		{Name: "w", Type: reg.Named(wrap, reg.Named(loop)), Span: testSpan(4)},
	})
	c, bag := computeAll(t, reg)

	if !bagHasCode(bag, diag.LayoutUnboundedRecursive) {
		t.Fatalf("Wrap embeds its parameter, so Loop is unbounded; got %+v", bag.Items())
	}
	if !c.Failed(loop) {
		t.Fatal("expected Loop marked failed")
	}
	if c.Failed(wrap) {
		t.Fatal("the generic wrapper itself is fine, only the instantiation loops")
	}
}
