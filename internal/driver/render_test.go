package driver_test

import (
	"strings"
	"testing"

	"sable/internal/diag"
	"sable/internal/driver"
	"sable/internal/layout"
)

func TestRows_FileOrderAndNotes(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "rows"

[[struct]]
name = "Point"

[[struct.field]]
name = "x"
type = "u16"

[[struct.field]]
name = "y"
type = "u16"

[[struct]]
name = "Box"
params = ["T"]

[[struct.field]]
name = "v"
type = "T"

[[struct]]
name = "Loop"

[[struct.field]]
name = "next"
type = "Loop"
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	m.Registry.Freeze()
	bag := diag.NewBag(16)
	cache := layout.NewEngine(m.Registry, layout.X86_64LinuxGNU()).Compute(bag)
	if !bag.HasErrors() {
		t.Fatalf("expected the recursive Loop to report an error")
	}

	rows := driver.Rows(m, cache)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Name != "Point" || rows[1].Name != "Box" || rows[2].Name != "Loop" {
		t.Fatalf("expected file order Point, Box, Loop, got %s, %s, %s",
			rows[0].Name, rows[1].Name, rows[2].Name)
	}

	point := rows[0]
	if point.Size != 4 || point.Align != 2 || point.Note != "2 fields" {
		t.Fatalf("unexpected Point row: %+v", point)
	}
	if !strings.Contains(point.Detail, "[   2] y") {
		t.Fatalf("expected Point detail to list y at offset 2, got:\n%s", point.Detail)
	}

	box := rows[1]
	if !box.Generic || box.Note != "generic over T" {
		t.Fatalf("unexpected Box row: %+v", box)
	}

	loop := rows[2]
	if !loop.Failed || loop.Note != "no layout: unbounded recursion" {
		t.Fatalf("unexpected Loop row: %+v", loop)
	}
}

func TestRenderTable_Alignment(t *testing.T) {
	rows := []driver.TableRow{
		{Name: "Point", Kind: "struct", Size: 8, Align: 4, Note: "2 fields"},
		{Name: "Box", Kind: "struct", Generic: true, Note: "generic over T"},
		{Name: "Loop", Kind: "struct", Failed: true, Note: "no layout: unbounded recursion"},
	}
	out := driver.RenderTable(rows, driver.RenderOpts{})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "TYPE   KIND    SIZE  ALIGN  NOTE" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if strings.Trim(lines[1], "-") != "" {
		t.Fatalf("expected a dashed rule, got %q", lines[1])
	}
	if lines[2] != "Point  struct     8      4  2 fields" {
		t.Fatalf("unexpected Point line: %q", lines[2])
	}
	if lines[3] != "Box    struct     -      -  generic over T" {
		t.Fatalf("unexpected Box line: %q", lines[3])
	}
	if lines[4] != "Loop   struct     -      -  no layout: unbounded recursion" {
		t.Fatalf("unexpected Loop line: %q", lines[4])
	}
}

func TestRenderTable_TruncatesWideNames(t *testing.T) {
	rows := []driver.TableRow{
		{Name: "AVeryLongTypeNameIndeed", Kind: "struct", Size: 8, Align: 8},
	}
	out := driver.RenderTable(rows, driver.RenderOpts{Width: 40})
	if !strings.Contains(out, "...") {
		t.Fatalf("expected a truncated name, got:\n%s", out)
	}
	if strings.Contains(out, "AVeryLongTypeNameIndeed") {
		t.Fatalf("expected the full name to be cut, got:\n%s", out)
	}
}

func TestDetailString_NestedOffsets(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "detail"

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
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	cache := computeLayouts(t, m)
	l, ok := cache.ByTVar(declByName(t, m, "Rect"))
	if !ok {
		t.Fatalf("expected a layout for Rect")
	}

	detail := driver.DetailString("Rect", l)
	wantLines := []string{
		"Rect: aggregate of 2 members (size 16, align 4)",
		"  [   0] min: aggregate of 2 members (size 8, align 4)",
		"    [   0] x: scalar i32 (size 4, align 4)",
		"    [   4] y: scalar i32 (size 4, align 4)",
		"  [   8] max: aggregate of 2 members (size 8, align 4)",
		"    [   8] x: scalar i32 (size 4, align 4)",
		"    [  12] y: scalar i32 (size 4, align 4)",
	}
	if detail != strings.Join(wantLines, "\n") {
		t.Fatalf("unexpected detail:\n%s", detail)
	}
}

func TestPrintDiagnostics_PlainOutput(t *testing.T) {
	path := writeManifest(t, `
[module]
name = "diag"

[[struct]]
name = "Loop"

[[struct.field]]
name = "next"
type = "Loop"
`)

	m, err := driver.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	m.Registry.Freeze()
	bag := diag.NewBag(16)
	layout.NewEngine(m.Registry, layout.X86_64LinuxGNU()).Compute(bag)
	if !bag.HasErrors() {
		t.Fatalf("expected a recursion error")
	}
	bag.Sort()

	var b strings.Builder
	driver.PrintDiagnostics(&b, bag, m.Files, false)
	out := b.String()
	if !strings.Contains(out, "error[SB") {
		t.Fatalf("expected an error header, got:\n%s", out)
	}
	if !strings.Contains(out, "--> "+path) {
		t.Fatalf("expected the manifest path in the span line, got:\n%s", out)
	}
	if !strings.Contains(out, "Loop") {
		t.Fatalf("expected the type name in the message, got:\n%s", out)
	}
}
