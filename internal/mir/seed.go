package mir

import (
	"fmt"

	"sable/internal/hir"
	"sable/internal/layout"
	"sable/internal/symbols"
	"sable/internal/types"
)

// SeedLayouts ensures the cache holds a layout for every type the module
// mentions, including the synthesized return-slot pointers and variant
// payload tuples translation will ask about. It interns types as a side
// effect, so it must run single-threaded, before the cache is sealed and
// before functions are translated concurrently.
func SeedLayouts(c *layout.Cache, syms *symbols.Table, m *hir.Module) error {
	reg := c.Registry()
	seed := func(t types.Type) error {
		if _, ok := c.Ensure(t); !ok {
			return fmt.Errorf("type %s has no layout", reg.TypeString(t))
		}
		return nil
	}
	if err := seed(reg.Unit()); err != nil {
		return err
	}
	for _, f := range m.Funcs {
		var err error
		need := func(t types.Type) {
			if err == nil {
				err = seed(t)
			}
		}
		for _, p := range f.Params {
			need(p.Type)
		}
		need(f.Result)
		if err == nil {
			if rl, ok := c.Of(f.Result); ok && returnsThroughSlot(reg, rl, f.Result) {
				need(reg.MutPtr(f.Result))
			}
		}
		hir.Walk(f.Body, func(e *hir.Expr) {
			need(e.Type)
			switch d := e.Data.(type) {
			case hir.BlockData:
				for _, it := range d.Items {
					need(it.Type)
				}
			case hir.CallData:
				// constructor calls become MakeVariant; the payload
				// tuple's layout must be on hand
				g, ok := d.Callee.Data.(hir.GlobalData)
				if !ok {
					return
				}
				sym, found := syms.Lookup(g.Symbol)
				if !found || sym.Kind != symbols.SymbolTypeCons {
					return
				}
				if pt, perr := variantPayloadType(reg, e.Type, sym.Cons.Variant); perr == nil {
					need(pt)
				}
			case hir.PayloadData:
				if pt, perr := variantPayloadType(reg, d.Operand.Type, d.Variant); perr == nil {
					need(pt)
				}
			}
		})
		if err != nil {
			return fmt.Errorf("function %q: %w", f.Name, err)
		}
	}
	return nil
}
