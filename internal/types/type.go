package types

import "fmt"

// Type uniquely identifies an interned structural type. Two Types are
// structurally equal exactly when their handles are equal.
type Type uint32

// NoType marks the absence of a type.
const NoType Type = 0

func (t Type) IsValid() bool {
	return t != NoType
}

// Kind enumerates the shapes of structural types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindNamed references a declared definition, possibly applied to
	// type arguments.
	KindNamed
	KindTuple
	KindArray
	KindPtr
	KindMutPtr
	KindFunc
	// KindParam is a type parameter of the enclosing generic definition,
	// identified by position. Fully substituted types contain none.
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNamed:
		return "named"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindPtr:
		return "ptr"
	case KindMutPtr:
		return "mutptr"
	case KindFunc:
		return "func"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Node is the one-level shape of a structural type.
//
//	KindNamed:  TVar and Args (type arguments, possibly empty)
//	KindTuple:  Args (element types)
//	KindArray:  Len and Elem
//	KindPtr:    Elem
//	KindMutPtr: Elem
//	KindFunc:   Args (parameter types) and Elem (result type)
//	KindParam:  Index
type Node struct {
	Kind  Kind
	TVar  TVar
	Elem  Type
	Len   uint32
	Index uint32
	Args  []Type
}
