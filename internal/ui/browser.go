package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quarry/internal/index"
	"quarry/internal/symbols"
)

// browseEntry is one row of the browser: a named child of the current
// scope. Namespaces and types can be entered; functions and variables
// are leaves.
type browseEntry struct {
	name string
	kind index.Kind
}

func (e browseEntry) enterable() bool {
	return e.kind == index.KindNamespace || e.kind == index.KindType
}

func (e browseEntry) component() symbols.Component {
	if e.name == "" {
		return symbols.Component{}
	}
	return symbols.ParseComponent(e.name)
}

type browserModel struct {
	moduleName string
	walker     *index.Walker
	entries    []browseEntry
	cursor     int
	width      int
	height     int
}

// NewBrowserModel returns a Bubble Tea model for walking a module's
// name index scope by scope.
func NewBrowserModel(moduleName string, ix *index.Index) tea.Model {
	m := &browserModel{
		moduleName: moduleName,
		walker:     index.NewWalker(ix),
		width:      80,
		height:     24,
	}
	m.refresh()
	return m
}

// refresh rebuilds the entry list for the walker's current position.
// Anonymous namespaces appear both as an entry and transparently: their
// named children are already reachable through the walker.
func (m *browserModel) refresh() {
	type key struct {
		name string
		kind index.Kind
	}
	seen := make(map[key]bool)
	m.entries = m.entries[:0]

	var scratch []*index.Node
	for _, cur := range m.walker.Current() {
		for _, k := range []index.Kind{index.KindNamespace, index.KindType, index.KindFunction, index.KindVar} {
			scratch = cur.Children(k, scratch[:0])
			for _, c := range scratch {
				id := key{name: c.Name, kind: k}
				if seen[id] {
					continue
				}
				seen[id] = true
				m.entries = append(m.entries, browseEntry{name: c.Name, kind: k})
			}
		}
	}
	sort.Slice(m.entries, func(i, j int) bool {
		if m.entries[i].name != m.entries[j].name {
			return m.entries[i].name < m.entries[j].name
		}
		return m.entries[i].kind < m.entries[j].kind
	})
	if m.cursor >= len(m.entries) {
		m.cursor = 0
	}
}

func (m *browserModel) Init() tea.Cmd { return nil }

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter", "right", "l":
			if m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				if e.enterable() && m.walker.WalkInto(e.component()) {
					m.cursor = 0
					m.refresh()
				}
			}
		case "backspace", "left", "h", "esc":
			if m.walker.WalkUp() {
				m.cursor = 0
				m.refresh()
			}
		}
	}
	return m, nil
}

func (m *browserModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	scope := "::"
	if p := m.walker.Path(); len(p) > 0 {
		scope = "::" + strings.Join(p, "::")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", m.moduleName, scope)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString("  (empty scope)\n")
	}

	// Keep the cursor on screen; the header and footer take four rows.
	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	for i := first; i < len(m.entries) && i < first+visible; i++ {
		e := m.entries[i]
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		name := e.name
		if name == "" {
			name = "(anonymous namespace)"
		}
		name = truncate(name, m.width-16)
		line := fmt.Sprintf("%s%s  %s", marker, kindStyle(e.kind).Render(fmt.Sprintf("%-9s", e.kind)), name)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: descend   backspace: up   q: quit"))
	b.WriteString("\n")
	return b.String()
}

func kindStyle(k index.Kind) lipgloss.Style {
	switch k {
	case index.KindNamespace:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case index.KindType:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case index.KindFunction:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}
