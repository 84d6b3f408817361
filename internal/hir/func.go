package hir

import (
	"sable/internal/source"
	"sable/internal/symbols"
	"sable/internal/types"
)

// Param represents a function parameter.
type Param struct {
	Name string
	Type types.Type
	Span source.Span
}

// Func represents one fully typed function.
type Func struct {
	Name   string
	Symbol symbols.SymbolID
	Span   source.Span
	Params []Param
	Result types.Type
	Body   *Expr // nil for extern declarations
}

// HasBody reports whether the function carries a body to lower.
func (f *Func) HasBody() bool {
	return f.Body != nil
}
