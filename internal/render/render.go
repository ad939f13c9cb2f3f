// Package render prints directory query results to a terminal or a pipe.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// BookRow summarises one book for listing.
type BookRow struct {
	Name     string
	Contacts int
}

// Renderer writes query results.
type Renderer interface {
	Books(rows []BookRow)
	Contacts(book string, cs []contact.Fields)
	Matches(ms []directory.BookMatches)
	Count(n int)
	Status(outcome directory.Outcome, msg string)
}

// Options configures renderer creation.
type Options struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
}

// New returns a styled renderer when the writer is a TTY, or a plain text
// renderer otherwise. ForcePlain overrides TTY detection.
func New(opts Options) Renderer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ForcePlain || !isTTY(opts.Writer) {
		return &Plain{w: opts.Writer}
	}
	return &Styled{w: opts.Writer}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Columns are the display headers for a contact row, in field order.
var Columns = []string{"First Name", "Last Name", "Address", "City", "State", "Zip", "Phone", "Email"}

// Plain renders one record per line, fields joined by ", ".
type Plain struct {
	w io.Writer
}

// NewPlain returns a Plain renderer writing to w.
func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w}
}

func (p *Plain) Books(rows []BookRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(p.w, "no address books")
		return
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(p.w, "%s (%d)\n", r.Name, r.Contacts)
	}
}

func (p *Plain) Contacts(book string, cs []contact.Fields) {
	_, _ = fmt.Fprintf(p.w, "Address Book: %s\n", book)
	if len(cs) == 0 {
		_, _ = fmt.Fprintln(p.w, "  (empty)")
		return
	}
	for _, c := range cs {
		_, _ = fmt.Fprintf(p.w, "  %s\n", strings.Join(c.Values(), ", "))
	}
}

func (p *Plain) Matches(ms []directory.BookMatches) {
	if len(ms) == 0 {
		_, _ = fmt.Fprintln(p.w, "no matches")
		return
	}
	for i, m := range ms {
		if i > 0 {
			_, _ = fmt.Fprintln(p.w)
		}
		p.Contacts(m.Book, m.Contacts)
	}
}

func (p *Plain) Count(n int) {
	_, _ = fmt.Fprintln(p.w, n)
}

func (p *Plain) Status(outcome directory.Outcome, msg string) {
	if outcome == directory.OutcomeOK {
		_, _ = fmt.Fprintln(p.w, msg)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s\n", outcome, msg)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"})
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
)

// Styled renders bordered tables with lipgloss.
type Styled struct {
	w io.Writer
}

// NewStyled returns a Styled renderer writing to w.
func NewStyled(w io.Writer) *Styled {
	return &Styled{w: w}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func (s *Styled) Books(rows []BookRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(s.w, dimStyle.Render("no address books"))
		return
	}
	t := newTable("Address Book", "Contacts")
	for _, r := range rows {
		t.Row(r.Name, fmt.Sprint(r.Contacts))
	}
	_, _ = fmt.Fprintln(s.w, t.Render())
}

func (s *Styled) Contacts(book string, cs []contact.Fields) {
	_, _ = fmt.Fprintln(s.w, titleStyle.Render(book))
	if len(cs) == 0 {
		_, _ = fmt.Fprintln(s.w, dimStyle.Render("(empty)"))
		return
	}
	t := newTable(Columns...)
	for _, c := range cs {
		t.Row(c.Values()...)
	}
	_, _ = fmt.Fprintln(s.w, t.Render())
}

func (s *Styled) Matches(ms []directory.BookMatches) {
	if len(ms) == 0 {
		_, _ = fmt.Fprintln(s.w, dimStyle.Render("no matches"))
		return
	}
	for _, m := range ms {
		s.Contacts(m.Book, m.Contacts)
	}
}

func (s *Styled) Count(n int) {
	_, _ = fmt.Fprintln(s.w, titleStyle.Render(fmt.Sprint(n)))
}

func (s *Styled) Status(outcome directory.Outcome, msg string) {
	if outcome == directory.OutcomeOK {
		_, _ = fmt.Fprintln(s.w, okStyle.Render(msg))
		return
	}
	_, _ = fmt.Fprintln(s.w, failStyle.Render(outcome.String()+": "+msg))
}
