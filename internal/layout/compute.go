package layout

import (
	"fmt"
	"strings"

	"sable/internal/diag"
	"sable/internal/types"
)

// Engine computes storage layouts for every definition in a frozen
// registry.
type Engine struct {
	reg    *types.Registry
	target Target
}

// NewEngine creates an engine for the given registry and target. The
// registry's pointer-wide builtins must agree with the target.
func NewEngine(reg *types.Registry, target Target) *Engine {
	info, ok := reg.BuiltinInfo(reg.Builtins().Usize)
	if !ok || info.Size != target.PtrSize {
		panic(fmt.Errorf("layout: registry usize disagrees with target %s (pointer size %d)", target.Triple, target.PtrSize))
	}
	return &Engine{reg: reg, target: target}
}

// Compute lays out every definition, dependencies first. Definitions on
// an embedding cycle have no finite layout; they are reported to bag and
// skipped together with everything whose layout needs them. All other
// definitions are still computed, so one bad type does not take down the
// rest of the program.
func (e *Engine) Compute(bag *diag.Bag) *Cache {
	g := buildGraph(e.reg)
	ready, stuck := g.order()

	c := newCache(e.reg, e.target)
	stuckSet := make(map[types.TVar]bool, len(stuck))
	for _, tv := range stuck {
		stuckSet[tv] = true
		c.failed[tv] = true
	}
	for _, tv := range ready {
		c.computeDef(tv)
	}
	for _, tv := range stuck {
		e.report(bag, g, tv, stuckSet)
	}
	return c
}

func (e *Engine) report(bag *diag.Bag, g *depGraph, tv types.TVar, stuck map[types.TVar]bool) {
	d := e.reg.MustDef(tv)
	if cycle := g.cycleFrom(tv, stuck); cycle != nil {
		bag.Add(diag.NewError(diag.LayoutUnboundedRecursive, d.Decl,
			fmt.Sprintf("recursive value type %q has infinite size", d.Name)).
			WithNote(d.Decl, "cycle: "+renderCycle(e.reg, cycle)).
			WithNote(d.Decl, "an embedded occurrence needs a pointer indirection"))
		return
	}
	bag.Add(diag.NewWarning(diag.LayoutDependsOnUnbounded, d.Decl,
		fmt.Sprintf("type %q has no layout: it embeds a recursive value type", d.Name)))
}

func renderCycle(reg *types.Registry, cycle []types.TVar) string {
	var b strings.Builder
	for _, tv := range cycle {
		b.WriteString(reg.MustDef(tv).Name)
		b.WriteString(" -> ")
	}
	b.WriteString(reg.MustDef(cycle[0]).Name)
	return b.String()
}
