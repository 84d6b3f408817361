package mir

// Flatten canonicalizes sequencing so that every Seq spine leans right:
// after Flatten, the First of any Seq is never itself a Seq. Bindings
// are scope boundaries; an expression never moves across a LetIn. The
// transformation is idempotent.
func Flatten(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case SeqData:
		first := Flatten(d.First)
		second := Flatten(d.Second)
		// first is already canonical, so its spine Firsts are not Seqs;
		// peel the spine and rebuild it right-nested over second.
		var items []*Expr
		for first.Kind == ExprSeq {
			fd := first.Data.(SeqData)
			items = append(items, fd.First)
			first = fd.Second
		}
		items = append(items, first)
		acc := second
		for i := len(items) - 1; i >= 0; i-- {
			acc = &Expr{Kind: ExprSeq, Type: acc.Type, Layout: acc.Layout, Span: e.Span,
				Data: SeqData{First: items[i], Second: acc}}
		}
		return acc
	case LetInData:
		d.Bound = Flatten(d.Bound)
		d.Body = Flatten(d.Body)
		e.Data = d
	case MakeTupleData:
		flattenAll(d.Elems)
	case MakeVariantData:
		flattenAll(d.Elems)
	case CallData:
		d.Callee = Flatten(d.Callee)
		flattenAll(d.Args)
		e.Data = d
	case FieldData:
		d.Object = Flatten(d.Object)
		e.Data = d
	case IndexData:
		d.Array = Flatten(d.Array)
		d.Index = Flatten(d.Index)
		e.Data = d
	case ReturnData:
		if d.Value != nil {
			d.Value = Flatten(d.Value)
			e.Data = d
		}
	case AssignData:
		d.Target = Flatten(d.Target)
		d.Value = Flatten(d.Value)
		e.Data = d
	case RefData:
		d.Place = Flatten(d.Place)
		e.Data = d
	case DerefData:
		d.Operand = Flatten(d.Operand)
		e.Data = d
	case IfData:
		d.Cond = Flatten(d.Cond)
		d.Then = Flatten(d.Then)
		d.Else = Flatten(d.Else)
		e.Data = d
	case WhileData:
		d.Cond = Flatten(d.Cond)
		d.Body = Flatten(d.Body)
		e.Data = d
	case ArrayLitData:
		flattenAll(d.Elems)
	case ArrayRepeatData:
		d.Elem = Flatten(d.Elem)
		e.Data = d
	case BuiltinData:
		flattenAll(d.Args)
	case TagData:
		d.Operand = Flatten(d.Operand)
		e.Data = d
	case PayloadData:
		d.Operand = Flatten(d.Operand)
		e.Data = d
	}
	return e
}

func flattenAll(es []*Expr) {
	for i, e := range es {
		es[i] = Flatten(e)
	}
}
