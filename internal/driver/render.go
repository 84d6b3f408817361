package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"sable/internal/diag"
	"sable/internal/layout"
	"sable/internal/source"
	"sable/internal/types"
)

// TableRow is one line of a layout listing: a declared type together
// with the numbers the engine computed for it. Rows are a neutral form
// so the same renderer serves live caches and disk artifacts.
type TableRow struct {
	Name  string
	Kind  string
	Size  uint32
	Align uint32

	// Generic marks declarations that have no layout of their own,
	// only per-instantiation ones.
	Generic bool
	// Failed marks declarations skipped over an embedding cycle.
	Failed bool

	// Note is a short inline remark: field counts, failure reasons.
	Note string
	// Detail is the multi-line member breakdown shown by the browser.
	Detail string
}

// Rows builds one row per manifest declaration, in file order.
func Rows(m *Manifest, cache *layout.Cache) []TableRow {
	rows := make([]TableRow, 0, len(m.Decls))
	for _, tv := range m.Decls {
		rows = append(rows, rowFor(m.Registry, cache, tv))
	}
	return rows
}

func rowFor(reg *types.Registry, cache *layout.Cache, tv types.TVar) TableRow {
	d := reg.MustDef(tv)
	row := TableRow{Name: d.Name, Kind: d.Kind.String()}

	switch d.Kind {
	case types.DefStruct:
		info, _ := reg.StructInfo(tv)
		row.Note = fmt.Sprintf("%d fields", len(info.Fields))
		if len(info.Params) > 0 {
			row.Generic = true
			row.Note = fmt.Sprintf("generic over %s", strings.Join(info.Params, ", "))
		}
	case types.DefEnum:
		info, _ := reg.EnumInfo(tv)
		row.Note = fmt.Sprintf("%d variants", len(info.Variants))
		if len(info.Params) > 0 {
			row.Generic = true
			row.Note = fmt.Sprintf("generic over %s", strings.Join(info.Params, ", "))
		}
	}

	if cache.Failed(tv) {
		row.Failed = true
		row.Note = "no layout: unbounded recursion"
		return row
	}
	if row.Generic {
		return row
	}
	l, ok := cache.ByTVar(tv)
	if !ok {
		row.Failed = true
		row.Note = "no layout"
		return row
	}
	row.Size = l.Size
	row.Align = l.Align
	row.Detail = DetailString(d.Name, l)
	return row
}

// DetailString renders the member breakdown of one layout, offsets
// first, nested aggregates indented.
func DetailString(name string, l *layout.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", name, l)
	writeDetail(&b, l, 0, 1)
	return strings.TrimRight(b.String(), "\n")
}

func writeDetail(b *strings.Builder, l *layout.Layout, base uint32, depth int) {
	indent := strings.Repeat("  ", depth)
	switch l.Rep {
	case layout.RepAggregate:
		for _, m := range l.Members {
			fmt.Fprintf(b, "%s[%4d] %s: %s\n", indent, base+m.Offset, m.Name, m.Layout)
			if !m.Layout.IsScalar() {
				writeDetail(b, m.Layout, base+m.Offset, depth+1)
			}
		}
	case layout.RepArray:
		fmt.Fprintf(b, "%s[%4d] elem: %s (stride %d)\n", indent, base, l.Elem, l.Elem.Size)
		if !l.Elem.IsScalar() {
			writeDetail(b, l.Elem, base, depth+1)
		}
	}
}

// RenderOpts controls table rendering.
type RenderOpts struct {
	// Color enables lipgloss styling; off for plain pipes and tests.
	Color bool
	// Width bounds the table; 0 means unbounded.
	Width int
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	tableFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	tableDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderTable renders rows as an aligned text table. Sizes align right,
// names truncate to the available width.
func RenderTable(rows []TableRow, opts RenderOpts) string {
	headers := []string{"TYPE", "KIND", "SIZE", "ALIGN", "NOTE"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		size, align := "-", "-"
		if !r.Generic && !r.Failed {
			size = fmt.Sprintf("%d", r.Size)
			align = fmt.Sprintf("%d", r.Align)
		}
		cells = append(cells, []string{r.Name, r.Kind, size, align, r.Note})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range cells {
		for i, c := range row {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if opts.Width > 0 {
		fixed := widths[1] + widths[2] + widths[3] + widths[4] + 4*2
		if nameMax := opts.Width - fixed; nameMax >= 8 && widths[0] > nameMax {
			widths[0] = nameMax
		}
	}

	line := func(row []string) string {
		parts := make([]string, len(row))
		for i, c := range row {
			c = truncateCell(c, widths[i])
			if i == 2 || i == 3 {
				parts[i] = runewidth.FillLeft(c, widths[i])
			} else {
				parts[i] = runewidth.FillRight(c, widths[i])
			}
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	var b strings.Builder
	header := line(headers)
	rule := strings.Repeat("-", runewidth.StringWidth(header))
	if opts.Color {
		header = tableHeaderStyle.Render(header)
		rule = tableDimStyle.Render(rule)
	}
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(rule)
	b.WriteByte('\n')
	for i, row := range cells {
		text := line(row)
		if opts.Color && rows[i].Failed {
			text = tableFailStyle.Render(text)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

func truncateCell(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	noteColor  = color.New(color.FgCyan)
)

// PrintDiagnostics writes the bag in source order, one block per
// diagnostic. Colors follow useColor; the bag should be sorted first.
func PrintDiagnostics(w io.Writer, bag *diag.Bag, files *source.FileSet, useColor bool) {
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		head := fmt.Sprintf("%s[%s]", strings.ToLower(sev), d.Code)
		if useColor {
			switch d.Severity {
			case diag.SevError:
				head = errorColor.Sprint(head)
			case diag.SevWarning:
				head = warnColor.Sprint(head)
			default:
				head = noteColor.Sprint(head)
			}
		}
		fmt.Fprintf(w, "%s: %s\n", head, d.Message)
		fmt.Fprintf(w, "  --> %s\n", files.Format(d.Primary))
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s\n", n.Msg)
		}
	}
}
