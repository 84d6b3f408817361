package types

import (
	"testing"

	"sable/internal/source"
)

func TestInterningIsStructural(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()

	u32 := r.Named(b.U32)
	if u32 != r.Named(b.U32) {
		t.Fatalf("same named type interned to different handles")
	}

	pair := r.Tuple(u32, r.Named(b.Bool))
	again := r.Tuple(r.Named(b.U32), r.Named(b.Bool))
	if pair != again {
		t.Errorf("structurally equal tuples got distinct handles: %d vs %d", pair, again)
	}

	if r.Tuple(u32) == r.Tuple(u32, u32) {
		t.Errorf("tuples of different arity should not collide")
	}
	if r.Array(4, u32) == r.Array(5, u32) {
		t.Errorf("arrays of different length should not collide")
	}
	if r.Ptr(u32) == r.MutPtr(u32) {
		t.Errorf("ptr and mutptr should not collide")
	}
	if r.Unit() != r.Tuple() {
		t.Errorf("unit should be the empty tuple")
	}
}

func TestBuiltinsSeeded(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()

	tests := []struct {
		name  string
		tv    TVar
		size  uint32
		align uint32
	}{
		{"bool", b.Bool, 1, 1},
		{"u8", b.U8, 1, 1},
		{"u16", b.U16, 2, 2},
		{"u32", b.U32, 4, 4},
		{"u64", b.U64, 8, 8},
		{"usize", b.Usize, 8, 8},
		{"i8", b.I8, 1, 1},
		{"isize", b.Isize, 8, 8},
		{"order", b.Order, 1, 1},
		{"never", b.Never, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Def(tt.tv)
			if !ok {
				t.Fatalf("builtin %s not registered", tt.name)
			}
			if d.Kind != DefBuiltin || d.Name != tt.name {
				t.Fatalf("unexpected def %+v", d)
			}
			info, ok := r.BuiltinInfo(tt.tv)
			if !ok {
				t.Fatalf("missing builtin info for %s", tt.name)
			}
			if info.Size != tt.size || info.Align != tt.align {
				t.Errorf("%s: size/align = %d/%d, want %d/%d", tt.name, info.Size, info.Align, tt.size, tt.align)
			}
		})
	}
}

func TestStructRegistration(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	decl := source.Span{File: 1, Start: 0, End: 20}

	point := r.RegisterStruct("Point", decl, nil)
	r.SetStructFields(point, []StructField{
		{Name: "x", Type: r.Named(b.U32)},
		{Name: "y", Type: r.Named(b.U32)},
	})

	d := r.MustDef(point)
	if d.Kind != DefStruct || d.Name != "Point" || d.Decl != decl {
		t.Fatalf("unexpected def %+v", d)
	}
	info, ok := r.StructInfo(point)
	if !ok {
		t.Fatalf("missing struct info")
	}
	if len(info.Fields) != 2 || info.Fields[0].Name != "x" || info.Fields[1].Name != "y" {
		t.Fatalf("unexpected fields %+v", info.Fields)
	}

	if _, ok := r.StructInfo(b.U32); ok {
		t.Errorf("StructInfo on a builtin should miss")
	}
	if _, ok := r.Def(TVar(9999)); ok {
		t.Errorf("unknown TVar should miss")
	}
}

func TestEnumRegistration(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	u64 := r.Named(b.U64)

	opt := r.RegisterEnum("Option", source.Span{File: 1, Start: 0, End: 30}, []string{"T"})
	r.SetEnumVariants(opt, []EnumVariant{
		{Name: "None"},
		{Name: "Some", Payload: []Type{r.Param(0)}},
	})

	info, ok := r.EnumInfo(opt)
	if !ok {
		t.Fatalf("missing enum info")
	}
	if len(info.Variants) != 2 || info.Variants[1].Name != "Some" {
		t.Fatalf("unexpected variants %+v", info.Variants)
	}

	payload, ok := r.VariantPayload(opt, 1)
	if !ok {
		t.Fatalf("missing variant payload")
	}
	if payload != r.Tuple(r.Param(0)) {
		t.Errorf("expected payload tuple of the type parameter")
	}
	none, ok := r.VariantPayload(opt, 0)
	if !ok || none != r.Unit() {
		t.Errorf("payloadless variant should yield unit, got %d", none)
	}
	if _, ok := r.VariantPayload(opt, 7); ok {
		t.Errorf("out-of-range variant index should miss")
	}

	inst := r.Substitute(payload, []Type{u64})
	if inst != r.Tuple(u64) {
		t.Errorf("substituted payload = %s, want (u64)", r.TypeString(inst))
	}
}

func TestFreezeForbidsRegistration(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when registering into a frozen registry")
		}
	}()
	r.RegisterStruct("Late", source.Span{}, nil)
}

func TestShapeRoundTrip(t *testing.T) {
	r := NewRegistry()
	b := r.Builtins()
	u8 := r.Named(b.U8)

	arr := r.Array(16, u8)
	n := r.MustShape(arr)
	if n.Kind != KindArray || n.Len != 16 || n.Elem != u8 {
		t.Fatalf("unexpected shape %+v", n)
	}

	fn := r.Func([]Type{u8, u8}, r.Unit())
	n = r.MustShape(fn)
	if n.Kind != KindFunc || len(n.Args) != 2 || n.Elem != r.Unit() {
		t.Fatalf("unexpected shape %+v", n)
	}

	if _, ok := r.Shape(NoType); ok {
		t.Errorf("Shape(NoType) should miss")
	}
}
