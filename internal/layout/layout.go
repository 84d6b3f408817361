// Package layout computes machine-level storage descriptions for the
// types in a frozen registry.
//
// The engine orders definitions with a topological sort over the
// direct-embedding dependency graph, so recursive value types surface
// as leftover graph nodes instead of mid-recursion panics. Computed
// layouts live in a Cache keyed both by definition (TVar) and by fully
// substituted structural type; after Seal the cache is read-only and
// safe to share across goroutines.
package layout

import "fmt"

// ScalarKind classifies a scalar layout by the machine register class
// its values occupy.
type ScalarKind uint8

const (
	ScalarNone ScalarKind = iota

	ScalarU8
	ScalarU16
	ScalarU32
	ScalarU64
	ScalarUsize

	ScalarI8
	ScalarI16
	ScalarI32
	ScalarI64
	ScalarIsize
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarU8:
		return "u8"
	case ScalarU16:
		return "u16"
	case ScalarU32:
		return "u32"
	case ScalarU64:
		return "u64"
	case ScalarUsize:
		return "usize"
	case ScalarI8:
		return "i8"
	case ScalarI16:
		return "i16"
	case ScalarI32:
		return "i32"
	case ScalarI64:
		return "i64"
	case ScalarIsize:
		return "isize"
	default:
		return "none"
	}
}

// Signed reports whether the scalar class carries a sign bit.
func (k ScalarKind) Signed() bool {
	switch k {
	case ScalarI8, ScalarI16, ScalarI32, ScalarI64, ScalarIsize:
		return true
	default:
		return false
	}
}

// Rep discriminates the physical representation of a layout.
type Rep uint8

const (
	RepScalar Rep = iota
	RepAggregate
	RepArray
)

func (r Rep) String() string {
	switch r {
	case RepScalar:
		return "scalar"
	case RepAggregate:
		return "aggregate"
	case RepArray:
		return "array"
	default:
		return "invalid"
	}
}

// Member is one addressable component of an aggregate layout: a struct
// field, a tuple element, an enum tag or an enum variant payload.
type Member struct {
	Name   string
	Offset uint32
	Layout *Layout
}

// Layout is the storage description of one type: total size, required
// alignment and the representation detail for that kind of type.
//
// Size is always a positive multiple of Align, and Align is a power of
// two. Aggregates list their members in declaration order with
// non-decreasing offsets; enum aggregates additionally record the tag
// width and the shared payload offset.
type Layout struct {
	Size  uint32
	Align uint32
	Rep   Rep

	// Scalar is set for RepScalar layouts only.
	Scalar ScalarKind

	// Members is set for RepAggregate layouts only. For enums the
	// first member is the tag and the rest are variant payloads, one
	// per variant, all at the same offset.
	Members []Member

	// Elem and Count are set for RepArray layouts only.
	Elem  *Layout
	Count uint32

	// TagSize and PayloadOffset are set for enum aggregates only.
	TagSize       uint32
	PayloadOffset uint32
}

// IsScalar reports whether the layout occupies a single register class.
func (l *Layout) IsScalar() bool { return l.Rep == RepScalar }

// IsEnum reports whether the layout is a tagged-union aggregate.
func (l *Layout) IsEnum() bool { return l.Rep == RepAggregate && l.TagSize != 0 }

// Member returns the member with the given name, or false when the
// layout has no such member.
func (l *Layout) Member(name string) (Member, bool) {
	for _, m := range l.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (l *Layout) String() string {
	switch l.Rep {
	case RepScalar:
		return fmt.Sprintf("scalar %s (size %d, align %d)", l.Scalar, l.Size, l.Align)
	case RepArray:
		return fmt.Sprintf("array [%d x %d] (size %d, align %d)", l.Count, l.Elem.Size, l.Size, l.Align)
	default:
		return fmt.Sprintf("aggregate of %d members (size %d, align %d)", len(l.Members), l.Size, l.Align)
	}
}

// Check verifies the structural invariants of the layout and its
// sub-layouts. The engine validates every layout it produces, so a
// failure here means a bug in the packing code, not bad user input.
func (l *Layout) Check() error {
	if l.Size == 0 {
		return fmt.Errorf("layout has zero size")
	}
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		return fmt.Errorf("alignment %d is not a power of two", l.Align)
	}
	if l.Size%l.Align != 0 {
		return fmt.Errorf("size %d is not a multiple of alignment %d", l.Size, l.Align)
	}
	switch l.Rep {
	case RepScalar:
		if l.Scalar == ScalarNone {
			return fmt.Errorf("scalar layout without a scalar kind")
		}
		if len(l.Members) != 0 || l.Elem != nil {
			return fmt.Errorf("scalar layout carries aggregate detail")
		}
	case RepAggregate:
		prev := uint32(0)
		for i, m := range l.Members {
			if m.Layout == nil {
				return fmt.Errorf("member %q has no layout", m.Name)
			}
			if err := m.Layout.Check(); err != nil {
				return fmt.Errorf("member %q: %w", m.Name, err)
			}
			if m.Offset%m.Layout.Align != 0 {
				return fmt.Errorf("member %q at offset %d breaks alignment %d", m.Name, m.Offset, m.Layout.Align)
			}
			if uint64(m.Offset)+uint64(m.Layout.Size) > uint64(l.Size) {
				return fmt.Errorf("member %q overruns the aggregate", m.Name)
			}
			// Enum payloads share an offset; everything else packs forward.
			if !l.IsEnum() && i > 0 && m.Offset < prev {
				return fmt.Errorf("member %q at offset %d precedes its predecessor", m.Name, m.Offset)
			}
			prev = m.Offset
		}
	case RepArray:
		if l.Elem == nil {
			return fmt.Errorf("array layout without an element layout")
		}
		if err := l.Elem.Check(); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
		if l.Count > 0 && uint64(l.Elem.Size)*uint64(l.Count) > uint64(l.Size) {
			return fmt.Errorf("array of %d elements overruns its size %d", l.Count, l.Size)
		}
	default:
		return fmt.Errorf("invalid representation %d", l.Rep)
	}
	return nil
}
