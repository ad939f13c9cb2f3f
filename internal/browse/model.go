// Package browse is a read-only terminal browser over a directory's books.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/addressbook/internal/book"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// Focus identifies the pane receiving navigation keys.
type Focus int

const (
	PaneBooks Focus = iota
	PaneContacts
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// titleHeight is the line above the contact table naming the book and sort.
const titleHeight = 1

var columnTitles = []string{"First", "Last", "Address", "City", "State", "Zip", "Phone", "Email"}

// Model is the Bubble Tea model for the browser.
type Model struct {
	dir    *directory.Directory
	books  []string
	cursor int
	// sortIdx 0 is insertion order; i>0 selects book.SortFields[i-1].
	sortIdx int
	focus   Focus
	width   int
	height  int
	table   table.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a Model over d with the first book selected.
func NewModel(d *directory.Directory) Model {
	cols := make([]table.Column, len(columnTitles))
	for i, title := range columnTitles {
		cols[i] = table.Column{Title: title, Width: 10}
	}
	m := Model{
		dir:   d,
		books: d.ListBooks(),
		table: table.New(table.WithColumns(cols)),
		help:  help.New(),
		keys:  KeyMap(),
	}
	m.refresh()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		if m.focus == PaneBooks {
			m.focus = PaneContacts
			m.table.Focus()
		} else {
			m.focus = PaneBooks
			m.table.Blur()
		}
		return m, nil
	case key.Matches(msg, m.keys.Sort):
		m.sortIdx = (m.sortIdx + 1) % (len(book.SortFields) + 1)
		m.refresh()
		return m, nil
	}

	if m.focus == PaneContacts {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.books)-1 {
			m.cursor++
			m.refresh()
		}
	}
	return m, nil
}

// Selected returns the name of the highlighted book, or "" if there are none.
func (m Model) Selected() string {
	if len(m.books) == 0 {
		return ""
	}
	return m.books[m.cursor]
}

// SortLabel describes the current contact order.
func (m Model) SortLabel() string {
	if m.sortIdx == 0 {
		return "insertion order"
	}
	return "by " + string(book.SortFields[m.sortIdx-1])
}

// Rows returns the rows currently shown in the contact table.
func (m Model) Rows() []table.Row {
	return m.table.Rows()
}

// refresh reloads the contact table for the selected book and sort.
func (m *Model) refresh() {
	name := m.Selected()
	var rows []table.Row
	if name != "" {
		for _, c := range m.contacts(name) {
			rows = append(rows, table.Row(c.Values()))
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(0)
	}
}

func (m *Model) contacts(name string) []contact.Fields {
	if m.sortIdx == 0 {
		cs, _ := m.dir.Contacts(name)
		return cs
	}
	cs, _ := m.dir.SortedView(name, book.SortFields[m.sortIdx-1])
	return cs
}

// resize fits the table columns to the contact pane.
func (m *Model) resize() {
	_, right := PaneWidths(m.width)
	inner := right - borderChrome
	colWidth := inner/len(columnTitles) - 2
	if colWidth < 4 {
		colWidth = 4
	}
	cols := m.table.Columns()
	for i := range cols {
		cols[i].Width = colWidth
	}
	m.table.SetColumns(cols)
	m.table.SetHeight(m.contentHeight() - titleHeight)
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the two-pane layout with help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	leftStyle, rightStyle := FocusedBorder(), UnfocusedBorder()
	if m.focus == PaneContacts {
		leftStyle, rightStyle = rightStyle, leftStyle
	}
	leftStyle = leftStyle.Width(leftWidth - borderChrome).Height(contentHeight)
	rightStyle = rightStyle.Width(rightWidth - borderChrome).Height(contentHeight)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(m.viewBooks()),
		rightStyle.Render(m.viewContacts()))
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.help.View(m.keys))
}

func (m Model) viewBooks() string {
	if len(m.books) == 0 {
		return countStyle.Render("no address books")
	}
	var b strings.Builder
	for i, name := range m.books {
		cs, _ := m.dir.Contacts(name)
		label := "  " + name
		if i == m.cursor {
			label = selectedStyle.Render("> " + name)
		}
		b.WriteString(label + " " + countStyle.Render(fmt.Sprintf("(%d)", len(cs))))
		if i < len(m.books)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) viewContacts() string {
	name := m.Selected()
	if name == "" {
		return ""
	}
	title := titleStyle.Render(name) + " " + countStyle.Render(m.SortLabel())
	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View())
}
