package core

import (
	"fmt"
	"io"
	"strings"
)

// DumpProgram writes a listing of the lowered program.
func DumpProgram(w io.Writer, p *Program) error {
	if p == nil {
		_, err := fmt.Fprintln(w, "<nil program>")
		return err
	}
	if _, err := fmt.Fprintf(w, "core module %s\n", p.Module); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "funcs=%d\n", len(p.Funcs)); err != nil {
		return err
	}
	for _, f := range p.Funcs {
		if err := dumpFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func) error {
	if _, err := fmt.Fprintf(w, "\nfn %s:\n", f.Name); err != nil {
		return err
	}
	if f.LinkName != "" && f.LinkName != f.Name {
		if _, err := fmt.Fprintf(w, "  link: %s\n", f.LinkName); err != nil {
			return err
		}
	}
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%v %s", p.ID, p.Type)
		if p.Class == ParamAddr {
			params[i] += " addr"
		}
	}
	results := "void"
	if len(f.Results) == 1 {
		results = f.Results[0].String()
	}
	if _, err := fmt.Fprintf(w, "  sig: (%s) -> %s\n", strings.Join(params, ", "), results); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  vars: %d\n", f.NumVars); err != nil {
		return err
	}
	if f.Body == nil {
		_, err := fmt.Fprintln(w, "  body: <extern>")
		return err
	}
	if _, err := fmt.Fprintln(w, "  body:"); err != nil {
		return err
	}
	return dumpExpr(w, f.Body, 2)
}

func dumpExpr(w io.Writer, e *Expr, depth int) error {
	indent := strings.Repeat("  ", depth)
	if e == nil {
		_, err := fmt.Fprintf(w, "%s<nil>\n", indent)
		return err
	}
	detail := exprDetail(e)
	if _, err := fmt.Fprintf(w, "%s%v%s : %s\n", indent, e.Kind, detail, e.Type); err != nil {
		return err
	}
	for _, c := range childExprs(e) {
		if err := dumpExpr(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func exprDetail(e *Expr) string {
	switch d := e.Data.(type) {
	case NumData:
		return fmt.Sprintf(" %d", d.Value)
	case VarData:
		return fmt.Sprintf(" %v", d.ID)
	case SetVarData:
		return fmt.Sprintf(" %v", d.ID)
	case GlobalData:
		return fmt.Sprintf(" %s", d.Name)
	case LetData:
		return fmt.Sprintf(" %v", d.ID)
	case StackSlotData:
		return fmt.Sprintf(" %d/%d", d.Size, d.Align)
	case StoreData:
		return fmt.Sprintf(" %s @%d", d.Type, d.Offset)
	case LoadData:
		return fmt.Sprintf(" %s @%d", d.Type, d.Offset)
	case AddrData:
		return fmt.Sprintf(" @%d", d.Offset)
	case AddrIndexData:
		return fmt.Sprintf(" stride=%d", d.Stride)
	case BuiltinData:
		return fmt.Sprintf(" %s", d.Op)
	default:
		return ""
	}
}

func childExprs(e *Expr) []*Expr {
	switch d := e.Data.(type) {
	case SetVarData:
		return []*Expr{d.Value}
	case CallData:
		out := make([]*Expr, 0, len(d.Args)+1)
		out = append(out, d.Callee)
		return append(out, d.Args...)
	case ReturnData:
		if d.Value != nil {
			return []*Expr{d.Value}
		}
		return nil
	case LetData:
		return []*Expr{d.Bound, d.Body}
	case SeqData:
		return []*Expr{d.First, d.Second}
	case StoreData:
		return []*Expr{d.Addr, d.Value}
	case LoadData:
		return []*Expr{d.Addr}
	case AddrData:
		return []*Expr{d.Base}
	case AddrIndexData:
		return []*Expr{d.Base, d.Index}
	case IfData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case WhileData:
		return []*Expr{d.Cond, d.Body}
	case BuiltinData:
		return d.Args
	default:
		return nil
	}
}

// ExprString renders the expression as a compact s-expression, mostly
// for tests and debugging.
func ExprString(e *Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e *Expr) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch d := e.Data.(type) {
	case UnitData:
		sb.WriteString("(unit)")
	case NumData:
		fmt.Fprintf(sb, "(num %d %s)", d.Value, e.Type)
	case VarData:
		fmt.Fprintf(sb, "(var %v)", d.ID)
	case SetVarData:
		fmt.Fprintf(sb, "(setvar %v ", d.ID)
		writeExpr(sb, d.Value)
		sb.WriteString(")")
	case GlobalData:
		fmt.Fprintf(sb, "(global %s)", d.Name)
	case CallData:
		sb.WriteString("(call")
		writeChildren(sb, append([]*Expr{d.Callee}, d.Args...))
		sb.WriteString(")")
	case ReturnData:
		if d.Value == nil {
			sb.WriteString("(return)")
			return
		}
		sb.WriteString("(return ")
		writeExpr(sb, d.Value)
		sb.WriteString(")")
	case LetData:
		fmt.Fprintf(sb, "(let %v ", d.ID)
		writeExpr(sb, d.Bound)
		sb.WriteString(" ")
		writeExpr(sb, d.Body)
		sb.WriteString(")")
	case SeqData:
		sb.WriteString("(seq ")
		writeExpr(sb, d.First)
		sb.WriteString(" ")
		writeExpr(sb, d.Second)
		sb.WriteString(")")
	case StackSlotData:
		fmt.Fprintf(sb, "(slot %d/%d)", d.Size, d.Align)
	case StoreData:
		fmt.Fprintf(sb, "(store %s @%d ", d.Type, d.Offset)
		writeExpr(sb, d.Addr)
		sb.WriteString(" ")
		writeExpr(sb, d.Value)
		sb.WriteString(")")
	case LoadData:
		fmt.Fprintf(sb, "(load %s @%d ", d.Type, d.Offset)
		writeExpr(sb, d.Addr)
		sb.WriteString(")")
	case AddrData:
		fmt.Fprintf(sb, "(addr @%d ", d.Offset)
		writeExpr(sb, d.Base)
		sb.WriteString(")")
	case AddrIndexData:
		fmt.Fprintf(sb, "(index %d ", d.Stride)
		writeExpr(sb, d.Base)
		sb.WriteString(" ")
		writeExpr(sb, d.Index)
		sb.WriteString(")")
	case IfData:
		sb.WriteString("(if")
		writeChildren(sb, []*Expr{d.Cond, d.Then, d.Else})
		sb.WriteString(")")
	case WhileData:
		sb.WriteString("(while ")
		writeExpr(sb, d.Cond)
		sb.WriteString(" ")
		writeExpr(sb, d.Body)
		sb.WriteString(")")
	case BuiltinData:
		fmt.Fprintf(sb, "(builtin %s", d.Op)
		writeChildren(sb, d.Args)
		sb.WriteString(")")
	default:
		fmt.Fprintf(sb, "(?%v)", e.Kind)
	}
}

func writeChildren(sb *strings.Builder, es []*Expr) {
	for _, c := range es {
		sb.WriteString(" ")
		writeExpr(sb, c)
	}
}
