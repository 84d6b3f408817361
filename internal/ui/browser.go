package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"sable/internal/driver"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

// browserModel shows layout rows interactively: a selectable type list
// on top and a member-detail viewport below it.
type browserModel struct {
	title  string
	rows   []driver.TableRow
	cursor int
	detail viewport.Model
	width  int
	height int
	ready  bool
}

// NewBrowserModel returns a Bubble Tea model over the given rows.
func NewBrowserModel(title string, rows []driver.TableRow) tea.Model {
	return &browserModel{title: title, rows: rows}
}

// RunBrowser opens the interactive browser in the alternate screen and
// blocks until the user quits.
func RunBrowser(title string, rows []driver.TableRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("nothing to browse")
	}
	model := NewBrowserModel(title, rows)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
			return m, nil
		case "down", "j":
			m.move(1)
			return m, nil
		case "home":
			m.cursor = 0
			m.syncDetail()
			return m, nil
		case "end":
			m.cursor = len(m.rows) - 1
			m.syncDetail()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutViewport()
		if !m.ready {
			m.ready = true
			m.syncDetail()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *browserModel) move(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.rows) {
		return
	}
	m.cursor = next
	m.syncDetail()
}

// listHeight is the number of rows visible in the type list; the rest
// of the screen goes to the detail viewport.
func (m *browserModel) listHeight() int {
	h := len(m.rows)
	if max := m.height/2 - 3; h > max && max >= 3 {
		h = max
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *browserModel) layoutViewport() {
	w := m.width
	if w <= 0 {
		w = 80
	}
	h := m.height - m.listHeight() - 4
	if h < 3 {
		h = 3
	}
	m.detail.Width = w
	m.detail.Height = h
}

func (m *browserModel) syncDetail() {
	row := m.rows[m.cursor]
	content := row.Detail
	if content == "" {
		content = dimStyle.Render(row.Note)
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

func (m *browserModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	height := m.listHeight()
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	nameWidth := 24
	for i := start; i < end; i++ {
		row := m.rows[i]
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		summary := fmt.Sprintf("size %4d  align %2d", row.Size, row.Align)
		if row.Generic || row.Failed {
			summary = row.Note
		}
		line := fmt.Sprintf("%s  %-8s %s",
			runewidth.FillRight(truncateName(row.Name, nameWidth), nameWidth),
			row.Kind, summary)
		switch {
		case row.Failed:
			line = failStyle.Render(line)
		case i == m.cursor:
			line = selectedStyle.Render(line)
		}
		b.WriteString(marker)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("up/down select  pgup/pgdn scroll  q quit"))
	b.WriteString("\n")
	return b.String()
}

func truncateName(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
