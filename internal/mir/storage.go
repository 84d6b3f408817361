package mir

// analyzeStorage assigns every local its storage class, deciding over
// the whole body at once. Aggregates and the return slot always get a
// stack slot; so does any local whose address is taken anywhere in the
// body. The remaining scalars stay register-eligible.
func analyzeStorage(f *Func) {
	for i := 1; i < len(f.locals); i++ {
		l := &f.locals[i]
		if !l.Layout.IsScalar() || l.ID == f.RetSlot {
			l.Storage = StorageStack
		} else {
			l.Storage = StorageRegister
		}
	}
	if f.Body == nil {
		return
	}
	markAddressed(f, f.Body)
}

func markAddressed(f *Func, e *Expr) {
	if e.Kind == ExprRef || e.Kind == ExprRefMut {
		if id := placeRoot(e.Data.(RefData).Place); id.IsValid() {
			f.Local(id).Storage = StorageStack
		}
	}
	for _, c := range children(e) {
		markAddressed(f, c)
	}
}

// placeRoot finds the local a place expression ultimately names. A place
// rooted in a dereference has no local root; the pointed-at storage is
// already in memory.
func placeRoot(e *Expr) VarID {
	for {
		switch d := e.Data.(type) {
		case VarData:
			return d.ID
		case FieldData:
			e = d.Object
		case IndexData:
			e = d.Array
		case PayloadData:
			e = d.Operand
		default:
			return NoVarID
		}
	}
}
