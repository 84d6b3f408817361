package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Registry owns every declared type definition (builtins, structs, enums)
// and interns the structural types built over them. The upstream type
// checker fills it, then freezes it; from that point on every access is a
// pure lookup.
//
// Interning is not synchronized. The build pipeline interns every type a
// program mentions before the parallel lowering stage, so later stages
// only ever hit the memoized path.
type Registry struct {
	defs  []Def
	nodes []Node
	index map[string]Type

	builtins Builtins
	prims    []BuiltinInfo
	structs  []StructInfo
	enums    []EnumInfo

	frozen bool
}

// NewRegistry constructs a registry seeded with the built-in definitions.
// Builtin sizes assume a 64-bit target: usize/isize are 8 bytes wide.
func NewRegistry() *Registry {
	r := &Registry{
		index: make(map[string]Type, 64),
	}
	r.defs = append(r.defs, Def{}) // reserve 0 as invalid sentinel
	r.prims = append(r.prims, BuiltinInfo{})
	r.structs = append(r.structs, StructInfo{})
	r.enums = append(r.enums, EnumInfo{})
	r.internRaw(Node{Kind: KindInvalid})
	r.builtins = Builtins{
		Never: r.registerBuiltin("never", 1, 1),
		Bool:  r.registerBuiltin("bool", 1, 1),
		Order: r.registerBuiltin("order", 1, 1),
		U8:    r.registerBuiltin("u8", 1, 1),
		U16:   r.registerBuiltin("u16", 2, 2),
		U32:   r.registerBuiltin("u32", 4, 4),
		U64:   r.registerBuiltin("u64", 8, 8),
		Usize: r.registerBuiltin("usize", 8, 8),
		I8:    r.registerBuiltin("i8", 1, 1),
		I16:   r.registerBuiltin("i16", 2, 2),
		I32:   r.registerBuiltin("i32", 4, 4),
		I64:   r.registerBuiltin("i64", 8, 8),
		Isize: r.registerBuiltin("isize", 8, 8),
	}
	return r
}

// Builtins returns the TVars of the seeded builtin definitions.
func (r *Registry) Builtins() Builtins {
	return r.builtins
}

// Freeze forbids any further definition registration. Interning structural
// shapes over frozen definitions stays allowed; it never changes a
// definition.
func (r *Registry) Freeze() {
	r.frozen = true
}

func (r *Registry) mutcheck() {
	if r.frozen {
		panic("types: registry is frozen")
	}
}

// NumDefs returns the number of definition slots, including the invalid
// sentinel at index 0. Valid TVars are the contiguous range [1, NumDefs).
func (r *Registry) NumDefs() int {
	return len(r.defs)
}

// Def returns the definition for tv.
func (r *Registry) Def(tv TVar) (Def, bool) {
	if tv == NoTVar || int(tv) >= len(r.defs) {
		return Def{}, false
	}
	return r.defs[tv], true
}

// MustDef panics when tv is unknown. Inputs are already name-resolved, so
// a miss is a compiler bug, not a user error.
func (r *Registry) MustDef(tv TVar) Def {
	d, ok := r.Def(tv)
	if !ok {
		panic(fmt.Errorf("types: unknown %v", tv))
	}
	return d
}

func (r *Registry) appendDef(d Def) TVar {
	lenDefs, err := safecast.Conv[uint32](len(r.defs))
	if err != nil {
		panic(fmt.Errorf("len(defs) overflow: %w", err))
	}
	tv := TVar(lenDefs)
	r.defs = append(r.defs, d)
	return tv
}

// Intern ensures the provided shape has a stable Type handle.
func (r *Registry) intern(n Node) Type {
	if n.Kind == KindInvalid {
		return NoType
	}
	key := typeKey(n)
	if id, ok := r.index[key]; ok {
		return id
	}
	return r.internRaw(n)
}

// internRaw appends the shape without consulting the index first.
func (r *Registry) internRaw(n Node) Type {
	lenNodes, err := safecast.Conv[uint32](len(r.nodes))
	if err != nil {
		panic(fmt.Errorf("len(nodes) overflow: %w", err))
	}
	id := Type(lenNodes)
	n.Args = cloneTypes(n.Args)
	r.nodes = append(r.nodes, n)
	r.index[typeKey(n)] = id
	return id
}

// Shape returns the one-level structure of t. The returned Args slice is
// a copy; callers may keep it.
func (r *Registry) Shape(t Type) (Node, bool) {
	if t == NoType || int(t) >= len(r.nodes) {
		return Node{}, false
	}
	n := r.nodes[t]
	n.Args = cloneTypes(n.Args)
	return n, true
}

// MustShape panics when t is not an interned type.
func (r *Registry) MustShape(t Type) Node {
	n, ok := r.Shape(t)
	if !ok {
		panic(fmt.Errorf("types: invalid type handle %d", t))
	}
	return n
}

// Named interns a reference to a declared definition, applied to the given
// type arguments.
func (r *Registry) Named(tv TVar, args ...Type) Type {
	if !tv.IsValid() {
		return NoType
	}
	return r.intern(Node{Kind: KindNamed, TVar: tv, Args: args})
}

// Tuple interns a tuple of element types. Tuple() is the unit type.
func (r *Registry) Tuple(elems ...Type) Type {
	return r.intern(Node{Kind: KindTuple, Args: elems})
}

// Unit returns the empty tuple.
func (r *Registry) Unit() Type {
	return r.Tuple()
}

// Array interns a fixed-length array type.
func (r *Registry) Array(n uint32, elem Type) Type {
	return r.intern(Node{Kind: KindArray, Len: n, Elem: elem})
}

// Ptr interns an immutable pointer to elem.
func (r *Registry) Ptr(elem Type) Type {
	return r.intern(Node{Kind: KindPtr, Elem: elem})
}

// MutPtr interns a mutable pointer to elem.
func (r *Registry) MutPtr(elem Type) Type {
	return r.intern(Node{Kind: KindMutPtr, Elem: elem})
}

// Func interns a function type with the given parameters and result.
func (r *Registry) Func(params []Type, result Type) Type {
	return r.intern(Node{Kind: KindFunc, Args: params, Elem: result})
}

// Param interns a positional type parameter of a generic definition.
func (r *Registry) Param(index uint32) Type {
	return r.intern(Node{Kind: KindParam, Index: index})
}

func typeKey(n Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d:%d:%d:%d", n.Kind, n.TVar, n.Elem, n.Len, n.Index)
	for _, a := range n.Args {
		fmt.Fprintf(&b, ",%d", a)
	}
	return b.String()
}
