package mir

import (
	"fmt"

	"sable/internal/layout"
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// VarID identifies one local variable (parameter or binding) inside a
// function. Zero is the invalid sentinel.
type VarID uint32

// NoVarID is the invalid variable sentinel.
const NoVarID VarID = 0

// IsValid reports whether the id refers to a variable.
func (v VarID) IsValid() bool { return v != NoVarID }

func (v VarID) String() string { return fmt.Sprintf("%%%d", uint32(v)) }

// Storage classifies where a local lives for its whole lifetime.
type Storage uint8

const (
	// StorageRegister marks a scalar that is never addressed; the code
	// generator may keep it in a register.
	StorageRegister Storage = iota
	// StorageStack marks a local that needs a stack slot: aggregates,
	// anything address-taken, and the return slot.
	StorageStack
)

func (s Storage) String() string {
	switch s {
	case StorageRegister:
		return "register"
	case StorageStack:
		return "stack"
	default:
		return "invalid"
	}
}

// Local describes one variable of a function.
type Local struct {
	ID      VarID
	Name    string
	Type    types.Type
	Layout  *layout.Layout
	Mut     bool
	Param   bool
	Storage Storage
}

// Func is one translated function: flattened body plus the local table.
type Func struct {
	Name string
	Sym  symbols.SymbolID
	Span source.Span

	// Params lists parameter ids in declaration order. When the result
	// is an aggregate the trailing entry is RetSlot, the synthesized
	// out-pointer parameter.
	Params       []VarID
	Result       types.Type
	ResultLayout *layout.Layout
	RetSlot      VarID

	locals []Local
	Body   *Expr // nil for extern declarations
}

// HasRetSlot reports whether the function returns through an out
// pointer.
func (f *Func) HasRetSlot() bool { return f.RetSlot.IsValid() }

// NumLocals returns the number of local slots including the invalid
// sentinel; valid ids are the range [1, NumLocals).
func (f *Func) NumLocals() int { return len(f.locals) }

// Local returns the descriptor for id.
func (f *Func) Local(id VarID) *Local {
	if !id.IsValid() || int(id) >= len(f.locals) {
		panic(fmt.Errorf("mir: unknown local %v in %q", id, f.Name))
	}
	return &f.locals[id]
}

// Locals iterates descriptors in id order.
func (f *Func) Locals() []Local {
	return f.locals[1:]
}

// Program is the MIR for one module, functions in input order.
type Program struct {
	Module string
	Funcs  []*Func
}
