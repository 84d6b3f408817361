package core_test

import (
	"testing"

	"sable/internal/core"
	"sable/internal/layout"
)

func TestFromScalar_CoversEveryScalarClass(t *testing.T) {
	cases := []struct {
		in   layout.ScalarKind
		want core.Type
	}{
		{layout.ScalarU8, core.U8},
		{layout.ScalarU16, core.U16},
		{layout.ScalarU32, core.U32},
		{layout.ScalarU64, core.U64},
		{layout.ScalarUsize, core.Usize},
		{layout.ScalarI8, core.I8},
		{layout.ScalarI16, core.I16},
		{layout.ScalarI32, core.I32},
		{layout.ScalarI64, core.I64},
		{layout.ScalarIsize, core.Isize},
	}
	for _, tc := range cases {
		got, err := core.FromScalar(tc.in)
		if err != nil {
			t.Fatalf("FromScalar(%v) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("FromScalar(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFromScalar_RejectsNonScalars(t *testing.T) {
	if _, err := core.FromScalar(layout.ScalarNone); err == nil {
		t.Fatalf("expected an error for ScalarNone")
	}
}

func TestType_Signedness(t *testing.T) {
	signed := []core.Type{core.I8, core.I16, core.I32, core.I64, core.Isize}
	unsigned := []core.Type{core.U8, core.U16, core.U32, core.U64, core.Usize, core.Void}
	for _, ty := range signed {
		if !ty.Signed() {
			t.Fatalf("%v.Signed() = false, want true", ty)
		}
	}
	for _, ty := range unsigned {
		if ty.Signed() {
			t.Fatalf("%v.Signed() = true, want false", ty)
		}
	}
}
