package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/smileynet/addressbook"
	"github.com/smileynet/addressbook/internal/book"
	"github.com/smileynet/addressbook/internal/browse"
	"github.com/smileynet/addressbook/internal/codec"
	"github.com/smileynet/addressbook/internal/config"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
	"github.com/smileynet/addressbook/internal/logging"
	"github.com/smileynet/addressbook/internal/render"
	"github.com/smileynet/addressbook/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	userConfigPath    = "$HOME/.config/addressbook/config.yaml"
	userTemplateDir   = "$HOME/.config/addressbook/templates"
	projectConfigPath = ".addressbook/config.yaml"
)

// Globals are flags shared by every command.
type Globals struct {
	Verbose bool   `help:"Log at debug level to stderr." short:"v"`
	Dir     string `help:"Directory holding the saved address books (overrides storage.dir)."`
	Format  string `help:"Storage format (overrides storage.format)." short:"f"`
	Plain   bool   `help:"Force plain text output even if stdout is a TTY."`
}

// CLI is the top-level command structure for addressbook.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Init    InitCmd          `cmd:"" help:"Write a default project config."`
	Book    BookCmd          `cmd:"" help:"Manage address books."`
	Contact ContactCmd       `cmd:"" help:"Manage contacts within a book."`
	Search  SearchCmd        `cmd:"" help:"Find contacts by city or state."`
	Count   CountCmd         `cmd:"" help:"Count contacts by city or state across all books."`
	Export  ExportCmd        `cmd:"" help:"Write the directory to a file; the format follows the extension."`
	Import  ImportCmd        `cmd:"" help:"Replace the directory with a file's contents."`
	Browse  BrowseCmd        `cmd:"" help:"Open the interactive browser."`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv(userConfigPath),
		projectConfigPath,
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// config resolves the effective config: files, then env, then flags.
func (g *Globals) config() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if g.Dir != "" {
		cfg.Storage.Dir = g.Dir
	}
	if g.Format != "" {
		cfg.Storage.Format = g.Format
	}
	if g.Plain {
		cfg.Output.Plain = true
	}
	if g.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open builds a session from config and loads the saved directory.
func (g *Globals) open() (*session, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}
	s, err := openSession(cfg, os.Stdout, logger)
	if err != nil {
		logging.Sync(logger)
		return nil, err
	}
	return s, nil
}

// errSetup marks failures that happen before any command runs.
var errSetup = errors.New("setup")

// session is one command's view of the persisted directory.
type session struct {
	dir    *directory.Directory
	store  *store.FileStore
	format string
	out    render.Renderer
	logger *zap.Logger
}

// openSession wires the directory, codec registry and store for cfg, then
// loads the saved state. A missing save file yields an empty directory.
func openSession(cfg *config.Config, w io.Writer, logger *zap.Logger) (*session, error) {
	reg := codec.DefaultRegistry(logger)
	if _, err := reg.New(cfg.Storage.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}

	policy := directory.NamesStrict
	if cfg.Books.NamePolicy == string(directory.NamesPermissive) {
		policy = directory.NamesPermissive
	}
	dir := directory.New(directory.WithLogger(logger), directory.WithNamePolicy(policy))
	st := store.NewFileStore(cfg.Storage.Dir, cfg.Storage.Name, reg, store.WithLogger(logger))

	if _, err := st.Load(dir, cfg.Storage.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}

	return &session{
		dir:    dir,
		store:  st,
		format: cfg.Storage.Format,
		out:    render.New(render.Options{Writer: w, ForcePlain: cfg.Output.Plain}),
		logger: logger,
	}, nil
}

// commit saves the directory and reports msg on success.
func (s *session) commit(msg string) error {
	if _, err := s.store.Save(s.dir, s.format); err != nil {
		return err
	}
	s.out.Status(directory.OutcomeOK, msg)
	return nil
}

func (s *session) close() {
	logging.Sync(s.logger)
}

// reportedError is an expected outcome already shown as a status line.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// exec runs fn. Expected outcomes are reported through the renderer and
// returned as a reportedError; hard failures are returned untouched.
func (s *session) exec(fn func(*session) error) error {
	err := fn(s)
	if err == nil {
		return nil
	}
	outcome := directory.Classify(err)
	if !outcome.Expected() {
		return err
	}
	s.out.Status(outcome, directory.Message(err))
	return &reportedError{err: err}
}

// withSession opens a session, runs fn, and releases it.
func (g *Globals) withSession(fn func(*session) error) error {
	s, err := g.open()
	if err != nil {
		return err
	}
	defer s.close()
	return s.exec(fn)
}

// --- Init command ---

// InitCmd writes the default config template to the project config path.
type InitCmd struct {
	Force bool `help:"Overwrite an existing project config."`
}

// Run executes the init command.
func (c *InitCmd) Run() error {
	fsys := addressbook.OverlayFS(os.ExpandEnv(userTemplateDir), addressbook.Templates)
	return c.run(os.Stdout, fsys, projectConfigPath)
}

// run writes the template from fsys to path, enabling testable wiring.
func (c *InitCmd) run(w io.Writer, fsys fs.FS, path string) error {
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("init: %s: %w", path, fs.ErrExist)
		}
	}
	data, err := fs.ReadFile(fsys, addressbook.ConfigTemplate)
	if err != nil {
		return fmt.Errorf("init: reading template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// --- Book commands ---

// BookCmd groups book management commands.
type BookCmd struct {
	Create BookCreateCmd `cmd:"" help:"Create an empty address book."`
	List   BookListCmd   `cmd:"" help:"List address books in creation order."`
	Remove BookRemoveCmd `cmd:"" help:"Remove an address book and its contacts."`
}

// BookCreateCmd creates a book.
type BookCreateCmd struct {
	Name string `arg:"" help:"Book name."`
}

func (c *BookCreateCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *BookCreateCmd) run(s *session) error {
	if err := s.dir.CreateBook(c.Name); err != nil {
		return err
	}
	return s.commit(fmt.Sprintf("created address book %q", c.Name))
}

// BookListCmd lists books.
type BookListCmd struct{}

func (c *BookListCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *BookListCmd) run(s *session) error {
	names := s.dir.ListBooks()
	rows := make([]render.BookRow, 0, len(names))
	for _, name := range names {
		cs, err := s.dir.Contacts(name)
		if err != nil {
			return err
		}
		rows = append(rows, render.BookRow{Name: name, Contacts: len(cs)})
	}
	s.out.Books(rows)
	return nil
}

// BookRemoveCmd removes a book.
type BookRemoveCmd struct {
	Name string `arg:"" help:"Book name."`
}

func (c *BookRemoveCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *BookRemoveCmd) run(s *session) error {
	if err := s.dir.RemoveBook(c.Name); err != nil {
		return err
	}
	return s.commit(fmt.Sprintf("removed address book %q", c.Name))
}

// --- Contact commands ---

// ContactCmd groups contact commands.
type ContactCmd struct {
	Add    ContactAddCmd    `cmd:"" help:"Add a contact to a book."`
	Edit   ContactEditCmd   `cmd:"" help:"Edit the first contact with a first name."`
	Delete ContactDeleteCmd `cmd:"" help:"Delete the first contact with a first name."`
	Show   ContactShowCmd   `cmd:"" help:"Show the first contact with a first name."`
	List   ContactListCmd   `cmd:"" help:"List a book's contacts in insertion order."`
	Sort   ContactSortCmd   `cmd:"" help:"List a book's contacts sorted by a field."`
}

// ContactAddCmd adds a contact.
type ContactAddCmd struct {
	Book    string `arg:"" help:"Book name."`
	First   string `help:"First name." required:""`
	Last    string `help:"Last name." required:""`
	Address string `help:"Street address." required:""`
	City    string `help:"City." required:""`
	State   string `help:"State." required:""`
	Zip     string `help:"Six-digit zip code." required:""`
	Phone   string `help:"Ten-digit phone number." required:""`
	Email   string `help:"Email address." required:""`
}

func (c *ContactAddCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactAddCmd) run(s *session) error {
	ct, err := contact.New(contact.Fields{
		FirstName: c.First,
		LastName:  c.Last,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		Zip:       c.Zip,
		Phone:     c.Phone,
		Email:     c.Email,
	})
	if err != nil {
		return err
	}
	if err := s.dir.AddContact(c.Book, ct); err != nil {
		return err
	}
	return s.commit(fmt.Sprintf("added %s to %q", ct.Key(), c.Book))
}

// ContactEditCmd edits a contact. Omitted flags leave fields unchanged.
type ContactEditCmd struct {
	Book    string `arg:"" help:"Book name."`
	First   string `arg:"" help:"First name of the contact to edit."`
	Last    string `help:"New last name."`
	Address string `help:"New street address."`
	City    string `help:"New city."`
	State   string `help:"New state."`
	Zip     string `help:"New six-digit zip code."`
	Phone   string `help:"New ten-digit phone number."`
	Email   string `help:"New email address."`
}

func (c *ContactEditCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactEditCmd) run(s *session) error {
	u := contact.UpdateFromValues([7]string{c.Last, c.Address, c.City, c.State, c.Zip, c.Phone, c.Email})
	if u.IsEmpty() {
		// Still report a missing book or contact.
		if _, err := s.dir.GetContact(c.Book, c.First); err != nil {
			return err
		}
		s.out.Status(directory.OutcomeOK, "nothing to change")
		return nil
	}
	if err := s.dir.EditContact(c.Book, c.First, u); err != nil {
		return err
	}
	return s.commit(fmt.Sprintf("updated %s in %q", c.First, c.Book))
}

// ContactDeleteCmd deletes a contact.
type ContactDeleteCmd struct {
	Book  string `arg:"" help:"Book name."`
	First string `arg:"" help:"First name of the contact to delete."`
}

func (c *ContactDeleteCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactDeleteCmd) run(s *session) error {
	if err := s.dir.DeleteContact(c.Book, c.First); err != nil {
		return err
	}
	return s.commit(fmt.Sprintf("deleted %s from %q", c.First, c.Book))
}

// ContactShowCmd shows one contact.
type ContactShowCmd struct {
	Book  string `arg:"" help:"Book name."`
	First string `arg:"" help:"First name of the contact to show."`
}

func (c *ContactShowCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactShowCmd) run(s *session) error {
	f, err := s.dir.GetContact(c.Book, c.First)
	if err != nil {
		return err
	}
	s.out.Contacts(c.Book, []contact.Fields{f})
	return nil
}

// ContactListCmd lists a book's contacts.
type ContactListCmd struct {
	Book string `arg:"" help:"Book name."`
}

func (c *ContactListCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactListCmd) run(s *session) error {
	cs, err := s.dir.Contacts(c.Book)
	if err != nil {
		return err
	}
	s.out.Contacts(c.Book, cs)
	return nil
}

// ContactSortCmd lists a book's contacts in sorted order without changing storage.
type ContactSortCmd struct {
	Book string `arg:"" help:"Book name."`
	By   string `help:"Sort field." enum:"firstName,lastName,city,state,zip" default:"firstName"`
}

func (c *ContactSortCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ContactSortCmd) run(s *session) error {
	field, err := book.ParseSortField(c.By)
	if err != nil {
		return err
	}
	cs, err := s.dir.SortedView(c.Book, field)
	if err != nil {
		return err
	}
	s.out.Contacts(c.Book, cs)
	return nil
}

// --- Query commands ---

// SearchCmd finds contacts by city or state, in one book or across all books.
type SearchCmd struct {
	Value string `arg:"" help:"City or state to match, case-insensitively."`
	By    string `help:"Field to match." enum:"city,state" default:"city"`
	Book  string `help:"Search only this book."`
}

func (c *SearchCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *SearchCmd) run(s *session) error {
	crit, err := book.ParseCriterion(c.By)
	if err != nil {
		return err
	}
	if c.Book == "" {
		s.out.Matches(s.dir.SearchAcrossBooks(crit, c.Value))
		return nil
	}
	cs, err := s.dir.Search(c.Book, crit, c.Value)
	if err != nil {
		return err
	}
	var ms []directory.BookMatches
	if len(cs) > 0 {
		ms = append(ms, directory.BookMatches{Book: c.Book, Contacts: cs})
	}
	s.out.Matches(ms)
	return nil
}

// CountCmd counts matching contacts across all books.
type CountCmd struct {
	Value string `arg:"" help:"City or state to match, case-insensitively."`
	By    string `help:"Field to match." enum:"city,state" default:"city"`
}

func (c *CountCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *CountCmd) run(s *session) error {
	crit, err := book.ParseCriterion(c.By)
	if err != nil {
		return err
	}
	s.out.Count(s.dir.CountAcrossBooks(crit, c.Value))
	return nil
}

// --- Transfer commands ---

// ExportCmd writes the directory to an explicit file.
type ExportCmd struct {
	Path string `arg:"" help:"Destination file (.json, .yaml, .csv, .xlsx, .txt, .bin, .db)." type:"path"`
}

func (c *ExportCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ExportCmd) run(s *session) error {
	if err := s.store.Export(s.dir, c.Path); err != nil {
		return err
	}
	s.out.Status(directory.OutcomeOK, "exported to "+c.Path)
	return nil
}

// ImportCmd replaces the directory with an explicit file's contents and saves it.
type ImportCmd struct {
	Path string `arg:"" help:"Source file; the format follows the extension." type:"existingfile"`
}

func (c *ImportCmd) Run(g *Globals) error { return g.withSession(c.run) }

func (c *ImportCmd) run(s *session) error {
	if err := s.store.Import(s.dir, c.Path); err != nil {
		return err
	}
	return s.commit("imported " + c.Path)
}

// --- Browse command ---

// BrowseCmd opens the read-only browser.
type BrowseCmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run loads the directory and launches the browser.
func (c *BrowseCmd) Run(g *Globals) error {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if !tty {
		return c.run(false, nil)
	}
	return g.withSession(func(s *session) error {
		prog := tea.NewProgram(browse.NewModel(s.dir), tea.WithAltScreen())
		return c.run(true, prog)
	})
}

// run executes the tea program, enabling testable wiring.
func (c *BrowseCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("%w: browse requires a terminal (TTY)", errSetup)
	}
	_, err := prog.Run()
	return err
}

const (
	exitSuccess = 0
	exitOutcome = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code. Duplicate, missing,
// invalid and already-existing outcomes exit 1; everything else exits 2.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, errSetup) {
		return exitSetup
	}
	if directory.Classify(err).Expected() {
		return exitOutcome
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("addressbook"),
		kong.Description("Manage named address books of validated contacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}
