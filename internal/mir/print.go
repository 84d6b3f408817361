package mir

import (
	"fmt"
	"io"
	"strings"

	"sable/internal/types"
)

// DumpProgram writes a human-readable listing of every function: the
// parameter row, the local table with storage classes, and the body as
// an indented tree.
func DumpProgram(w io.Writer, p *Program, reg *types.Registry) error {
	if w == nil || p == nil {
		return nil
	}
	fmt.Fprintf(w, "module %s\n", p.Module)
	fmt.Fprintf(w, "funcs=%d\n", len(p.Funcs))
	for _, f := range p.Funcs {
		if err := dumpFunc(w, f, reg); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, reg *types.Registry) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "\nfn %s:\n", f.Name)

	params := make([]string, len(f.Params))
	for i, id := range f.Params {
		params[i] = id.String()
	}
	fmt.Fprintf(w, "  params: (%s) -> %s\n", strings.Join(params, ", "), reg.TypeString(f.Result))
	if f.HasRetSlot() {
		fmt.Fprintf(w, "  ret_slot: %v\n", f.RetSlot)
	}

	fmt.Fprintf(w, "  locals:\n")
	for _, l := range f.Locals() {
		name := l.Name
		if name == "" {
			name = "_"
		}
		flags := ""
		if l.Mut {
			flags = " mut"
		}
		if l.Param {
			flags += " param"
		}
		fmt.Fprintf(w, "    %v: %s [%s]%s name=%s\n", l.ID, reg.TypeString(l.Type), l.Storage, flags, name)
	}

	if f.Body == nil {
		fmt.Fprintf(w, "  body: <extern>\n")
		return nil
	}
	fmt.Fprintf(w, "  body:\n")
	dumpExpr(w, f.Body, reg, 2)
	return nil
}

func dumpExpr(w io.Writer, e *Expr, reg *types.Registry, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s%s : %s\n", indent, e.Kind, exprDetail(e), reg.TypeString(e.Type))
	for _, c := range children(e) {
		dumpExpr(w, c, reg, depth+1)
	}
}

// exprDetail renders the non-child payload of a node for listings.
func exprDetail(e *Expr) string {
	switch d := e.Data.(type) {
	case NumData:
		return fmt.Sprintf(" %d", d.Value)
	case VarData:
		if d.Name != "" {
			return fmt.Sprintf(" %v %s", d.ID, d.Name)
		}
		return fmt.Sprintf(" %v", d.ID)
	case GlobalData:
		return fmt.Sprintf(" %s", d.Name)
	case MakeVariantData:
		return fmt.Sprintf(" tag=%d", d.Tag)
	case FieldData:
		return fmt.Sprintf(" #%d", d.Index)
	case LetInData:
		if d.Name != "" {
			return fmt.Sprintf(" %v %s", d.ID, d.Name)
		}
		return fmt.Sprintf(" %v", d.ID)
	case ArrayRepeatData:
		return fmt.Sprintf(" x%d", d.Count)
	case BuiltinData:
		return " " + d.Op
	case PayloadData:
		return fmt.Sprintf(" %d.%d @%d", d.Variant, d.Index, d.Offset)
	default:
		return ""
	}
}

// ExprString renders an expression as a compact s-expression. Listings
// meant for humans use DumpProgram; this form exists for asserting tree
// shapes.
func ExprString(e *Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e *Expr) {
	if e == nil {
		b.WriteString("<nil>")
		return
	}
	switch d := e.Data.(type) {
	case NumData:
		fmt.Fprintf(b, "(num %d)", d.Value)
	case VarData:
		fmt.Fprintf(b, "(var %v)", d.ID)
	case GlobalData:
		fmt.Fprintf(b, "(global %s)", d.Name)
	case MakeTupleData:
		b.WriteString("(tuple")
		writeChildren(b, d.Elems)
	case MakeVariantData:
		fmt.Fprintf(b, "(variant %d", d.Tag)
		writeChildren(b, d.Elems)
	case CallData:
		b.WriteString("(call ")
		writeExpr(b, d.Callee)
		writeChildren(b, d.Args)
	case FieldData:
		fmt.Fprintf(b, "(field %d ", d.Index)
		writeExpr(b, d.Object)
		b.WriteByte(')')
	case IndexData:
		b.WriteString("(index ")
		writeExpr(b, d.Array)
		b.WriteByte(' ')
		writeExpr(b, d.Index)
		b.WriteByte(')')
	case SeqData:
		b.WriteString("(seq ")
		writeExpr(b, d.First)
		b.WriteByte(' ')
		writeExpr(b, d.Second)
		b.WriteByte(')')
	case LetInData:
		fmt.Fprintf(b, "(let %v ", d.ID)
		writeExpr(b, d.Bound)
		b.WriteByte(' ')
		writeExpr(b, d.Body)
		b.WriteByte(')')
	case ReturnData:
		if d.Value == nil {
			b.WriteString("(return)")
			return
		}
		b.WriteString("(return ")
		writeExpr(b, d.Value)
		b.WriteByte(')')
	case AssignData:
		b.WriteString("(assign ")
		writeExpr(b, d.Target)
		b.WriteByte(' ')
		writeExpr(b, d.Value)
		b.WriteByte(')')
	case RefData:
		if e.Kind == ExprRefMut {
			b.WriteString("(refmut ")
		} else {
			b.WriteString("(ref ")
		}
		writeExpr(b, d.Place)
		b.WriteByte(')')
	case DerefData:
		b.WriteString("(deref ")
		writeExpr(b, d.Operand)
		b.WriteByte(')')
	case IfData:
		b.WriteString("(if ")
		writeExpr(b, d.Cond)
		b.WriteByte(' ')
		writeExpr(b, d.Then)
		b.WriteByte(' ')
		writeExpr(b, d.Else)
		b.WriteByte(')')
	case WhileData:
		b.WriteString("(while ")
		writeExpr(b, d.Cond)
		b.WriteByte(' ')
		writeExpr(b, d.Body)
		b.WriteByte(')')
	case ArrayLitData:
		b.WriteString("(array")
		writeChildren(b, d.Elems)
	case ArrayRepeatData:
		fmt.Fprintf(b, "(repeat %d ", d.Count)
		writeExpr(b, d.Elem)
		b.WriteByte(')')
	case BuiltinData:
		fmt.Fprintf(b, "(builtin %s", d.Op)
		writeChildren(b, d.Args)
	case TagData:
		b.WriteString("(tag ")
		writeExpr(b, d.Operand)
		b.WriteByte(')')
	case PayloadData:
		fmt.Fprintf(b, "(payload %d.%d ", d.Variant, d.Index)
		writeExpr(b, d.Operand)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "(%s)", e.Kind)
	}
}

func writeChildren(b *strings.Builder, es []*Expr) {
	for _, e := range es {
		b.WriteByte(' ')
		writeExpr(b, e)
	}
	b.WriteByte(')')
}
