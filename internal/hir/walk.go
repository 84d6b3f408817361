package hir

// Walk calls visit on e and then on every subexpression, in evaluation
// order. A nil expression is a no-op.
func Walk(e *Expr, visit func(*Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch d := e.Data.(type) {
	case TupleData:
		walkAll(d.Elems, visit)
	case StructConsData:
		walkAll(d.Fields, visit)
	case CallData:
		Walk(d.Callee, visit)
		walkAll(d.Args, visit)
	case FieldData:
		Walk(d.Object, visit)
	case IndexData:
		Walk(d.Object, visit)
		Walk(d.Index, visit)
	case BlockData:
		for _, it := range d.Items {
			Walk(it.Init, visit)
		}
		Walk(d.Result, visit)
	case ReturnData:
		Walk(d.Value, visit)
	case AssignData:
		Walk(d.Target, visit)
		Walk(d.Value, visit)
	case RefData:
		Walk(d.Operand, visit)
	case DerefData:
		Walk(d.Operand, visit)
	case IfData:
		Walk(d.Cond, visit)
		Walk(d.Then, visit)
		Walk(d.Else, visit)
	case WhileData:
		Walk(d.Cond, visit)
		Walk(d.Body, visit)
	case ArrayLitData:
		walkAll(d.Elems, visit)
	case ArrayRepeatData:
		Walk(d.Elem, visit)
	case BuiltinData:
		walkAll(d.Args, visit)
	case TagData:
		Walk(d.Operand, visit)
	case PayloadData:
		Walk(d.Operand, visit)
	}
}

func walkAll(es []*Expr, visit func(*Expr)) {
	for _, e := range es {
		Walk(e, visit)
	}
}
