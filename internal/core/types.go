// Package core is the machine-level representation: every value is one
// of ten integer primitives, aggregates live behind addresses in
// explicit stack slots, and all member access is typed loads and stores
// at static offsets. It is the last stage before code generation.
package core

import (
	"fmt"

	"sable/internal/layout"
)

// Type is a machine primitive. The set is closed: anything wider than a
// register travels as a Usize address.
type Type uint8

const (
	// Void marks expressions evaluated for effect only.
	Void Type = iota
	U8
	U16
	U32
	U64
	Usize
	I8
	I16
	I32
	I64
	Isize
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case Usize:
		return "usize"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case Isize:
		return "isize"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Signed reports whether the primitive is interpreted as signed.
func (t Type) Signed() bool {
	switch t {
	case I8, I16, I32, I64, Isize:
		return true
	default:
		return false
	}
}

// FromScalar converts a layout scalar class into the primitive that
// carries it. The switch enumerates every scalar kind; a non-scalar
// class has no primitive and is an internal fault at the caller.
func FromScalar(k layout.ScalarKind) (Type, error) {
	switch k {
	case layout.ScalarU8:
		return U8, nil
	case layout.ScalarU16:
		return U16, nil
	case layout.ScalarU32:
		return U32, nil
	case layout.ScalarU64:
		return U64, nil
	case layout.ScalarUsize:
		return Usize, nil
	case layout.ScalarI8:
		return I8, nil
	case layout.ScalarI16:
		return I16, nil
	case layout.ScalarI32:
		return I32, nil
	case layout.ScalarI64:
		return I64, nil
	case layout.ScalarIsize:
		return Isize, nil
	case layout.ScalarNone:
		return Void, fmt.Errorf("core: value has no scalar class")
	default:
		return Void, fmt.Errorf("core: unknown scalar class %v", k)
	}
}

// tagType returns the primitive carrying a discriminant of the given
// byte width.
func tagType(size uint32) (Type, error) {
	switch size {
	case 1:
		return U8, nil
	case 2:
		return U16, nil
	case 4:
		return U32, nil
	case 8:
		return U64, nil
	default:
		return Void, fmt.Errorf("core: discriminant width %d", size)
	}
}
