package symbols

import (
	"testing"

	"sable/internal/source"
	"sable/internal/types"
)

func TestTableInsertLookup(t *testing.T) {
	reg := types.NewRegistry()
	b := reg.Builtins()
	tab := NewTable(4)

	id := tab.Insert(Symbol{
		Name: "point_len",
		Span: source.Span{File: 1, Start: 0, End: 9},
		Kind: SymbolFunc,
		Signature: &FuncSignature{
			Params: []types.Type{reg.Named(b.U32), reg.Named(b.U32)},
			Result: reg.Named(b.U32),
		},
	})
	if !id.IsValid() {
		t.Fatalf("Insert returned invalid id")
	}

	s, ok := tab.Lookup(id)
	if !ok {
		t.Fatalf("Lookup missed a just-inserted symbol")
	}
	if s.Name != "point_len" || s.Kind != SymbolFunc {
		t.Fatalf("unexpected symbol %+v", s)
	}
	if len(s.Signature.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(s.Signature.Params))
	}

	if _, ok := tab.Lookup(NoSymbolID); ok {
		t.Errorf("Lookup(NoSymbolID) should miss")
	}
	if _, ok := tab.Lookup(SymbolID(42)); ok {
		t.Errorf("Lookup past the arena should miss")
	}
}

func TestTableFreeze(t *testing.T) {
	tab := NewTable(0)
	tab.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when inserting into a frozen table")
		}
	}()
	tab.Insert(Symbol{Name: "late", Kind: SymbolFunc})
}

func TestMustLookupPanics(t *testing.T) {
	tab := NewTable(0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown symbol id")
		}
	}()
	tab.MustLookup(SymbolID(7))
}

func TestSymbolFlags(t *testing.T) {
	tests := []struct {
		flags SymbolFlags
		want  []string
	}{
		{0, nil},
		{SymbolFlagExtern, []string{"extern"}},
		{SymbolFlagNoMangle, []string{"no_mangle"}},
		{SymbolFlagExtern | SymbolFlagNoMangle, []string{"extern", "no_mangle"}},
	}
	for _, tt := range tests {
		got := tt.flags.Strings()
		if len(got) != len(tt.want) {
			t.Errorf("Strings(%b) = %v, want %v", tt.flags, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Strings(%b)[%d] = %q, want %q", tt.flags, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSymbolKindString(t *testing.T) {
	if SymbolFunc.String() != "func" || SymbolTypeCons.String() != "type-constructor" {
		t.Errorf("unexpected kind labels: %q %q", SymbolFunc.String(), SymbolTypeCons.String())
	}
	if SymbolInvalid.String() != "invalid" {
		t.Errorf("invalid kind should render as invalid")
	}
}
