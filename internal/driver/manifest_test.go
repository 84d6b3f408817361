package driver_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sable/internal/diag"
	"sable/internal/driver"
	"sable/internal/layout"
	"sable/internal/types"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func computeLayouts(t *testing.T, m *driver.Manifest) *layout.Cache {
	t.Helper()
	m.Registry.Freeze()
	bag := diag.NewBag(16)
	cache := layout.NewEngine(m.Registry, layout.X86_64LinuxGNU()).Compute(bag)
	if bag.HasErrors() {
		t.Fatalf("layout reported errors: %+v", bag.Items())
	}
	return cache
}

func declByName(t *testing.T, m *driver.Manifest, name string) types.TVar {
	t.Helper()
	for _, tv := range m.Decls {
		if m.Registry.MustDef(tv).Name == name {
			return tv
		}
	}
	t.Fatalf("manifest has no declaration %q", name)
	return 0
}

func TestLoadManifest_StructsAndEnum(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "geom"

[[struct]]
name = "Point"

[[struct.field]]
name = "x"
type = "i32"

[[struct.field]]
name = "y"
type = "i32"

[[struct]]
name = "Rect"

[[struct.field]]
name = "min"
type = "Point"

[[struct.field]]
name = "max"
type = "Point"

[[enum]]
name = "Shape"

[[enum.variant]]
name = "Dot"

[[enum.variant]]
name = "Box"
payload = ["Rect"]
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	if m.Module != "geom" {
		t.Fatalf("expected module geom, got %q", m.Module)
	}
	if len(m.Decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(m.Decls))
	}

	cache := computeLayouts(t, m)
	tests := []struct {
		name  string
		size  uint32
		align uint32
	}{
		{"Point", 8, 4},
		{"Rect", 16, 4},
		{"Shape", 20, 4},
	}
	for _, tt := range tests {
		l, ok := cache.ByTVar(declByName(t, m, tt.name))
		if !ok {
			t.Fatalf("%s: expected a layout", tt.name)
		}
		if l.Size != tt.size || l.Align != tt.align {
			t.Fatalf("%s: expected size=%d align=%d, got size=%d align=%d",
				tt.name, tt.size, tt.align, l.Size, l.Align)
		}
	}

	shape, _ := cache.ByTVar(declByName(t, m, "Shape"))
	if !shape.IsEnum() {
		t.Fatalf("expected Shape layout to be a tagged union")
	}
	if shape.TagSize != 1 || shape.PayloadOffset != 4 {
		t.Fatalf("expected tag=1 payload@4, got tag=%d payload@%d", shape.TagSize, shape.PayloadOffset)
	}
}

func TestLoadManifest_ForwardReferences(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "fwd"

[[struct]]
name = "Outer"

[[struct.field]]
name = "inner"
type = "Inner"

[[struct.field]]
name = "mode"
type = "Mode"

[[struct]]
name = "Inner"

[[struct.field]]
name = "v"
type = "u32"

[[enum]]
name = "Mode"

[[enum.variant]]
name = "Off"

[[enum.variant]]
name = "On"
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	cache := computeLayouts(t, m)
	outer, ok := cache.ByTVar(declByName(t, m, "Outer"))
	if !ok {
		t.Fatalf("expected a layout for Outer")
	}
	// Inner is 4 bytes, Mode is a payloadless two-variant enum: one tag
	// byte rounded up to its own alignment.
	if outer.Size != 8 || outer.Align != 4 {
		t.Fatalf("expected Outer size=8 align=4, got size=%d align=%d", outer.Size, outer.Align)
	}
}

func TestLoadManifest_TypeExpressions(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "mixed"

[[struct]]
name = "Mixed"

[[struct.field]]
name = "ptr"
type = "*u64"

[[struct.field]]
name = "callback"
type = "fn(i32) -> bool"

[[struct.field]]
name = "pair"
type = "(u8, u16)"

[[struct.field]]
name = "arr"
type = "[4]u16"

[[struct.field]]
name = "link"
type = "*mut Mixed"
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	cache := computeLayouts(t, m)
	l, ok := cache.ByTVar(declByName(t, m, "Mixed"))
	if !ok {
		t.Fatalf("expected a layout for Mixed")
	}
	if l.Size != 40 || l.Align != 8 {
		t.Fatalf("expected size=40 align=8, got size=%d align=%d", l.Size, l.Align)
	}
	offsets := map[string]uint32{"ptr": 0, "callback": 8, "pair": 16, "arr": 20, "link": 32}
	for name, want := range offsets {
		mem, found := l.Member(name)
		if !found {
			t.Fatalf("expected member %q", name)
		}
		if mem.Offset != want {
			t.Fatalf("%s: expected offset %d, got %d", name, want, mem.Offset)
		}
	}
}

func TestLoadManifest_GenericInstantiation(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "gen"

[[struct]]
name = "Pair"
params = ["T", "U"]

[[struct.field]]
name = "first"
type = "T"

[[struct.field]]
name = "second"
type = "U"

[[struct]]
name = "Holder"

[[struct.field]]
name = "pair"
type = "Pair[u8, u32]"
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	cache := computeLayouts(t, m)

	pair := declByName(t, m, "Pair")
	if _, ok := cache.ByTVar(pair); ok {
		t.Fatalf("expected no layout for the generic Pair itself")
	}
	if cache.Failed(pair) {
		t.Fatalf("expected Pair to be skipped, not failed")
	}

	holder, ok := cache.ByTVar(declByName(t, m, "Holder"))
	if !ok {
		t.Fatalf("expected a layout for Holder")
	}
	if holder.Size != 8 || holder.Align != 4 {
		t.Fatalf("expected Holder size=8 align=4, got size=%d align=%d", holder.Size, holder.Align)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing module table",
			content: "[[struct]]\nname = \"A\"\n",
			want:    "missing [module]",
		},
		{
			name:    "missing module name",
			content: "[module]\nother = 1\n",
			want:    "missing [module].name",
		},
		{
			name: "duplicate declaration",
			content: `
[module]
name = "m"

[[struct]]
name = "A"

[[struct]]
name = "A"
`,
			want: `type "A" declared twice`,
		},
		{
			name: "builtin shadowed",
			content: `
[module]
name = "m"

[[struct]]
name = "u32"
`,
			want: `type "u32" declared twice`,
		},
		{
			name: "unknown field type",
			content: `
[module]
name = "m"

[[struct]]
name = "A"

[[struct.field]]
name = "x"
type = "Missing"
`,
			want: `unknown type "Missing"`,
		},
		{
			name: "bad array length",
			content: `
[module]
name = "m"

[[struct]]
name = "A"

[[struct.field]]
name = "x"
type = "[x]u8"
`,
			want: "array length",
		},
		{
			name: "trailing input",
			content: `
[module]
name = "m"

[[struct]]
name = "A"

[[struct.field]]
name = "x"
type = "u8 u8"
`,
			want: "trailing input",
		},
		{
			name: "enum without variants",
			content: `
[module]
name = "m"

[[enum]]
name = "E"
`,
			want: "has no variants",
		},
		{
			name:    "not toml at all",
			content: "= = =\n",
			want:    "failed to parse TOML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			_, err := driver.LoadManifest(path)
			if err == nil {
				t.Fatalf("expected an error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
