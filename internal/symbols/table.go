package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Table is the arena of symbols declared by the program. The upstream
// resolver fills it, then freezes it; afterwards every access is a pure
// lookup, shareable across concurrent consumers.
type Table struct {
	syms   []Symbol
	frozen bool
}

// NewTable builds a fresh table with an optional capacity hint.
func NewTable(hint uint) *Table {
	capSyms, err := safecast.Conv[uint32](hint)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	syms := make([]Symbol, 1, capSyms+1) // reserve 0 as invalid sentinel
	return &Table{syms: syms}
}

// Freeze forbids any further insertion.
func (t *Table) Freeze() {
	t.frozen = true
}

// Insert adds a symbol and returns its id.
func (t *Table) Insert(s Symbol) SymbolID {
	if t.frozen {
		panic("symbols: table is frozen")
	}
	lenSyms, err := safecast.Conv[uint32](len(t.syms))
	if err != nil {
		panic(fmt.Errorf("len(symbols) overflow: %w", err))
	}
	id := SymbolID(lenSyms)
	t.syms = append(t.syms, s)
	return id
}

// Lookup returns the symbol for id.
func (t *Table) Lookup(id SymbolID) (*Symbol, bool) {
	if id == NoSymbolID || int(id) >= len(t.syms) {
		return nil, false
	}
	return &t.syms[id], true
}

// MustLookup panics when id is unknown. Inputs are already resolved, so a
// miss is a compiler bug, not a user error.
func (t *Table) MustLookup(id SymbolID) *Symbol {
	s, ok := t.Lookup(id)
	if !ok {
		panic(fmt.Errorf("symbols: unknown symbol#%d", id))
	}
	return s
}

// NumSymbols returns the number of symbol slots, including the invalid
// sentinel at index 0. Valid ids are the contiguous range [1, NumSymbols).
func (t *Table) NumSymbols() int {
	return len(t.syms)
}
