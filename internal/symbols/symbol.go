package symbols

import (
	"sable/internal/source"
	"sable/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunc
	SymbolTypeAlias
	SymbolTypeCons
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunc:
		return "func"
	case SymbolTypeAlias:
		return "type-alias"
	case SymbolTypeCons:
		return "type-constructor"
	default:
		return "invalid"
	}
}

// SymbolFlags encode linkage and mangling attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagExtern marks symbols with external linkage; their
	// definition lives outside the compiled module.
	SymbolFlagExtern SymbolFlags = 1 << iota
	// SymbolFlagNoMangle suppresses name mangling for the symbol.
	SymbolFlagNoMangle
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	if f&SymbolFlagExtern != 0 {
		labels = append(labels, "extern")
	}
	if f&SymbolFlagNoMangle != 0 {
		labels = append(labels, "no_mangle")
	}
	return labels
}

// FuncSignature describes a function symbol's type interface.
type FuncSignature struct {
	TypeParams []string
	Params     []types.Type
	Result     types.Type
}

// ConsInfo describes an enum variant constructor: which enum it belongs
// to, the variant's position, and the constructor argument types.
type ConsInfo struct {
	Enum    types.TVar
	Variant uint32
	Payload []types.Type
}

// Symbol describes one declared entity visible to the middle end.
// Exactly one of Signature, Alias, Cons is set, matching Kind.
type Symbol struct {
	Name      string
	Span      source.Span
	Kind      SymbolKind
	Flags     SymbolFlags
	BuiltinOp string // builtin operation name; empty for ordinary symbols

	Signature *FuncSignature // SymbolFunc
	Alias     types.Type     // SymbolTypeAlias target
	Cons      *ConsInfo      // SymbolTypeCons
}

// IsExtern reports whether the symbol has external linkage.
func (s *Symbol) IsExtern() bool { return s.Flags&SymbolFlagExtern != 0 }

// NoMangle reports whether mangling is suppressed for the symbol.
func (s *Symbol) NoMangle() bool { return s.Flags&SymbolFlagNoMangle != 0 }
