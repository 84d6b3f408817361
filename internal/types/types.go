package types

import (
	"fmt"

	"sable/internal/source"
)

// TVar uniquely identifies a declared type definition inside the registry.
// It is an opaque handle; all data lives in the Def it refers to.
type TVar uint32

// NoTVar marks the absence of a definition.
const NoTVar TVar = 0

func (tv TVar) IsValid() bool {
	return tv != NoTVar
}

func (tv TVar) String() string {
	return fmt.Sprintf("tvar#%d", uint32(tv))
}

// DefKind enumerates the kinds of declared type definitions.
type DefKind uint8

const (
	DefInvalid DefKind = iota
	DefBuiltin
	DefStruct
	DefEnum
)

func (k DefKind) String() string {
	switch k {
	case DefInvalid:
		return "invalid"
	case DefBuiltin:
		return "builtin"
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	default:
		return fmt.Sprintf("DefKind(%d)", k)
	}
}

// Def is a declared type definition: a builtin, a struct, or an enum.
// Payload indexes the kind-specific info table inside the registry.
type Def struct {
	Name    string
	Decl    source.Span
	Kind    DefKind
	Payload uint32
}

// Builtins stores the TVars of the built-in types every registry is
// seeded with.
type Builtins struct {
	Never TVar
	Bool  TVar
	Order TVar
	U8    TVar
	U16   TVar
	U32   TVar
	U64   TVar
	Usize TVar
	I8    TVar
	I16   TVar
	I32   TVar
	I64   TVar
	Isize TVar
}
