package hir

import (
	"sable/internal/symbols"
	"sable/internal/types"
)

// Module is the middle end's input unit: the functions of one program
// together with the registry and symbol table the checker produced.
// Registry and Symbols are borrowed read-only; the module never mutates
// them.
type Module struct {
	Name    string
	Funcs   []*Func
	Types   *types.Registry
	Symbols *symbols.Table
}

// FuncByName returns the first function with the given name, or nil.
// Intended for tests and the demo harness; real lookups go through the
// symbol table.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
