package types

import "fmt"

// Substitute replaces every Param(i) inside t with args[i] and interns
// the result. Shapes without parameters come back unchanged, handle and
// all, so substitution on concrete types is free.
func (r *Registry) Substitute(t Type, args []Type) Type {
	n, ok := r.Shape(t)
	if !ok {
		return NoType
	}
	switch n.Kind {
	case KindParam:
		if int(n.Index) >= len(args) {
			panic(fmt.Errorf("types: parameter #%d out of range (have %d arguments)", n.Index, len(args)))
		}
		return args[n.Index]
	case KindNamed:
		out, changed := r.substituteAll(n.Args, args)
		if !changed {
			return t
		}
		return r.Named(n.TVar, out...)
	case KindTuple:
		out, changed := r.substituteAll(n.Args, args)
		if !changed {
			return t
		}
		return r.Tuple(out...)
	case KindArray:
		elem := r.Substitute(n.Elem, args)
		if elem == n.Elem {
			return t
		}
		return r.Array(n.Len, elem)
	case KindPtr:
		elem := r.Substitute(n.Elem, args)
		if elem == n.Elem {
			return t
		}
		return r.Ptr(elem)
	case KindMutPtr:
		elem := r.Substitute(n.Elem, args)
		if elem == n.Elem {
			return t
		}
		return r.MutPtr(elem)
	case KindFunc:
		params, changed := r.substituteAll(n.Args, args)
		result := r.Substitute(n.Elem, args)
		if !changed && result == n.Elem {
			return t
		}
		return r.Func(params, result)
	default:
		return t
	}
}

func (r *Registry) substituteAll(ts []Type, args []Type) ([]Type, bool) {
	out := make([]Type, len(ts))
	changed := false
	for i, a := range ts {
		out[i] = r.Substitute(a, args)
		changed = changed || out[i] != a
	}
	return out, changed
}

// HasParams reports whether t still contains unsubstituted parameters.
func (r *Registry) HasParams(t Type) bool {
	n, ok := r.Shape(t)
	if !ok {
		return false
	}
	switch n.Kind {
	case KindParam:
		return true
	case KindArray, KindPtr, KindMutPtr:
		return r.HasParams(n.Elem)
	case KindFunc:
		for _, a := range n.Args {
			if r.HasParams(a) {
				return true
			}
		}
		return r.HasParams(n.Elem)
	case KindNamed, KindTuple:
		for _, a := range n.Args {
			if r.HasParams(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
