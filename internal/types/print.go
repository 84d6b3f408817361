package types

import (
	"fmt"
	"strings"
)

// TypeString renders t for diagnostics and debug listings.
func (r *Registry) TypeString(t Type) string {
	n, ok := r.Shape(t)
	if !ok {
		return "<invalid>"
	}
	switch n.Kind {
	case KindNamed:
		d, ok := r.Def(n.TVar)
		if !ok {
			return fmt.Sprintf("<%v>", n.TVar)
		}
		if len(n.Args) == 0 {
			return d.Name
		}
		return fmt.Sprintf("%s[%s]", d.Name, r.joinTypes(n.Args))
	case KindTuple:
		return "(" + r.joinTypes(n.Args) + ")"
	case KindArray:
		return fmt.Sprintf("[%d]%s", n.Len, r.TypeString(n.Elem))
	case KindPtr:
		return "*" + r.TypeString(n.Elem)
	case KindMutPtr:
		return "*mut " + r.TypeString(n.Elem)
	case KindFunc:
		return fmt.Sprintf("fn(%s) -> %s", r.joinTypes(n.Args), r.TypeString(n.Elem))
	case KindParam:
		return fmt.Sprintf("#%d", n.Index)
	default:
		return "<invalid>"
	}
}

func (r *Registry) joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = r.TypeString(t)
	}
	return strings.Join(parts, ", ")
}
