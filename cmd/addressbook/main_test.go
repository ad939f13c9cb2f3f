package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/codec"
	"github.com/smileynet/addressbook/internal/config"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

func TestCLI_Parsing(t *testing.T) {
	t.Run("version flag prints version commit and date", func(t *testing.T) {
		// Given: a CLI parser with version, commit, and date fields
		var cli CLI
		var buf bytes.Buffer
		k, err := kong.New(&cli,
			kong.Vars{"version": "v1.0.0 abc1234 2026-01-01T00:00:00Z"},
			kong.Writers(&buf, &buf),
			kong.Exit(func(int) { panic(errExitCalled) }),
		)
		if err != nil {
			t.Fatal(err)
		}

		// When: --version flag is passed
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic from --version flag")
			}
			err, ok := r.(error)
			if !ok || !errors.Is(err, errExitCalled) {
				panic(r)
			}

			// Then: version, commit, and date are all present in output
			for _, want := range []string{"v1.0.0", "abc1234", "2026-01-01T00:00:00Z"} {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("version output = %q, want to contain %q", buf.String(), want)
				}
			}
		}()

		k.Parse([]string{"--version"}) //nolint:errcheck // --version triggers panic via Exit hook
	})

	t.Run("no args errors", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := k.Parse([]string{}); err == nil {
			t.Fatal("expected error when no command provided")
		}
	})

	t.Run("contact add parses flags and globals", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}

		kctx, err := k.Parse([]string{
			"--format", "csv", "contact", "add", "Friends",
			"--first", "Amy", "--last", "Shah", "--address", "12 Hill Road",
			"--city", "Pune", "--state", "MH", "--zip", "011001",
			"--phone", "9876543210", "--email", "amy@x.com",
		})
		if err != nil {
			t.Fatal(err)
		}

		if kctx.Command() != "contact add <book>" {
			t.Errorf("command = %q, want %q", kctx.Command(), "contact add <book>")
		}
		if cli.Format != "csv" {
			t.Errorf("format = %q, want %q", cli.Format, "csv")
		}
		if cli.Contact.Add.Zip != "011001" {
			t.Errorf("zip = %q, want leading zero kept", cli.Contact.Add.Zip)
		}
	})

	t.Run("contact add requires every field", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := k.Parse([]string{"contact", "add", "Friends", "--first", "Amy"}); err == nil {
			t.Fatal("expected error for missing required flags")
		}
	})

	t.Run("search rejects unknown criterion", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := k.Parse([]string{"search", "Pune", "--by", "country"}); err == nil {
			t.Fatal("expected enum error for --by country")
		}
	})
}

// testEnv is a storage location shared by successive sessions.
type testEnv struct {
	t   *testing.T
	cfg config.Config
	out bytes.Buffer
}

func newTestEnv(t *testing.T, format string) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.Format = format
	cfg.Output.Plain = true
	return &testEnv{t: t, cfg: cfg}
}

// run executes fn in a fresh session, as one CLI invocation would.
func (e *testEnv) run(fn func(*session) error) error {
	e.t.Helper()
	s, err := openSession(&e.cfg, &e.out, zap.NewNop())
	if err != nil {
		return err
	}
	defer s.close()
	return s.exec(fn)
}

func (e *testEnv) mustRun(fn func(*session) error) {
	e.t.Helper()
	if err := e.run(fn); err != nil {
		e.t.Fatalf("unexpected error: %v", err)
	}
}

func amyAdd(book string) *ContactAddCmd {
	return &ContactAddCmd{
		Book: book, First: "Amy", Last: "Shah", Address: "12 Hill Road", City: "Pune",
		State: "MH", Zip: "560001", Phone: "9876543210", Email: "amy@x.com",
	}
}

func TestFeature_PersistedAcrossInvocations(t *testing.T) {
	for _, format := range []string{"json", "sqlite", "text"} {
		t.Run(format, func(t *testing.T) {
			// Given: a book and a contact added in separate invocations
			env := newTestEnv(t, format)
			env.mustRun((&BookCreateCmd{Name: "Friends"}).run)
			env.mustRun(amyAdd("Friends").run)

			// When: the book is listed in a third invocation
			env.out.Reset()
			env.mustRun((&ContactListCmd{Book: "Friends"}).run)

			// Then: the contact is there
			want := "Address Book: Friends\n  Amy, Shah, 12 Hill Road, Pune, MH, 560001, 9876543210, amy@x.com\n"
			if env.out.String() != want {
				t.Errorf("output = %q, want %q", env.out.String(), want)
			}
		})
	}
}

func TestFeature_ExpectedOutcomesExitOne(t *testing.T) {
	env := newTestEnv(t, "json")
	env.mustRun((&BookCreateCmd{Name: "Friends"}).run)
	env.mustRun(amyAdd("Friends").run)

	tests := []struct {
		name string
		fn   func(*session) error
		want directory.Outcome
	}{
		{"duplicate contact", amyAdd("Friends").run, directory.OutcomeDuplicate},
		{"book exists", (&BookCreateCmd{Name: "Friends"}).run, directory.OutcomeAlreadyExists},
		{"invalid book name", (&BookCreateCmd{Name: "bad/name"}).run, directory.OutcomeInvalid},
		{"missing book", amyAdd("Work").run, directory.OutcomeNotFound},
		{"missing contact", (&ContactDeleteCmd{Book: "Friends", First: "Zed"}).run, directory.OutcomeNotFound},
		{"invalid zip on edit", (&ContactEditCmd{Book: "Friends", First: "Amy", City: "Delhi", Zip: "12AB56"}).run, directory.OutcomeInvalid},
		{"empty edit on missing book", (&ContactEditCmd{Book: "Work", First: "Amy"}).run, directory.OutcomeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.out.Reset()
			err := env.run(tt.fn)
			if got := directory.Classify(err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", err, got, tt.want)
			}
			if code := exitCode(err); code != exitOutcome {
				t.Errorf("exitCode(%v) = %d, want %d", err, code, exitOutcome)
			}
			// The outcome is reported as a status line, not left to main.
			var reported *reportedError
			if !errors.As(err, &reported) {
				t.Errorf("error %v was not reported", err)
			}
			wantStatus := tt.want.String() + ": " + directory.Message(errors.Unwrap(err)) + "\n"
			if env.out.String() != wantStatus {
				t.Errorf("status = %q, want %q", env.out.String(), wantStatus)
			}
		})
	}

	// The rejected edit left the saved contact untouched.
	env.out.Reset()
	env.mustRun((&ContactShowCmd{Book: "Friends", First: "Amy"}).run)
	if !strings.Contains(env.out.String(), "Pune, MH, 560001") {
		t.Errorf("contact changed after failed edit: %q", env.out.String())
	}
}

func TestFeature_EditAndDelete(t *testing.T) {
	env := newTestEnv(t, "yaml")
	env.mustRun((&BookCreateCmd{Name: "Friends"}).run)
	env.mustRun(amyAdd("Friends").run)

	env.mustRun((&ContactEditCmd{Book: "Friends", First: "Amy", City: "Delhi", Zip: "110001"}).run)
	env.out.Reset()
	env.mustRun((&ContactShowCmd{Book: "Friends", First: "Amy"}).run)
	if !strings.Contains(env.out.String(), "Delhi, MH, 110001") {
		t.Errorf("edit not persisted: %q", env.out.String())
	}

	env.out.Reset()
	env.mustRun((&ContactEditCmd{Book: "Friends", First: "Amy"}).run)
	if env.out.String() != "nothing to change\n" {
		t.Errorf("empty edit output = %q", env.out.String())
	}

	env.mustRun((&ContactDeleteCmd{Book: "Friends", First: "Amy"}).run)
	env.out.Reset()
	env.mustRun((&BookListCmd{}).run)
	if env.out.String() != "Friends (0)\n" {
		t.Errorf("book list = %q, want %q", env.out.String(), "Friends (0)\n")
	}

	env.mustRun((&BookRemoveCmd{Name: "Friends"}).run)
	env.out.Reset()
	env.mustRun((&BookListCmd{}).run)
	if env.out.String() != "no address books\n" {
		t.Errorf("book list = %q, want no address books", env.out.String())
	}
}

func seedCities(t *testing.T, env *testEnv) {
	t.Helper()
	env.mustRun((&BookCreateCmd{Name: "Friends"}).run)
	env.mustRun((&BookCreateCmd{Name: "Work"}).run)
	env.mustRun((&BookCreateCmd{Name: "Empty"}).run)
	add := func(book, first, city, state string) {
		c := amyAdd(book)
		c.First, c.City, c.State = first, city, state
		env.mustRun(c.run)
	}
	add("Friends", "Cara", "Pune", "MH")
	add("Friends", "Amy", "Mumbai", "MH")
	add("Work", "Bob", "pune", "MH")
	add("Work", "Dev", "Chennai", "TN")
}

func TestFeature_SearchCountSort(t *testing.T) {
	env := newTestEnv(t, "binary")
	seedCities(t, env)

	t.Run("search across books omits books without matches", func(t *testing.T) {
		env.out.Reset()
		env.mustRun((&SearchCmd{Value: "PUNE", By: "city"}).run)
		got := env.out.String()
		if !strings.Contains(got, "Address Book: Friends") || !strings.Contains(got, "Address Book: Work") {
			t.Errorf("missing book in %q", got)
		}
		if strings.Contains(got, "Empty") {
			t.Errorf("empty book listed in %q", got)
		}
	})

	t.Run("search one book", func(t *testing.T) {
		env.out.Reset()
		env.mustRun((&SearchCmd{Value: "TN", By: "state", Book: "Friends"}).run)
		if env.out.String() != "no matches\n" {
			t.Errorf("output = %q, want no matches", env.out.String())
		}
	})

	t.Run("count equals search size", func(t *testing.T) {
		env.out.Reset()
		env.mustRun((&CountCmd{Value: "mh", By: "state"}).run)
		if env.out.String() != "3\n" {
			t.Errorf("count = %q, want 3", env.out.String())
		}
	})

	t.Run("sort is a view", func(t *testing.T) {
		env.out.Reset()
		env.mustRun((&ContactSortCmd{Book: "Friends", By: "firstName"}).run)
		got := env.out.String()
		if strings.Index(got, "Amy") > strings.Index(got, "Cara") {
			t.Errorf("sorted output not in order: %q", got)
		}

		env.out.Reset()
		env.mustRun((&ContactListCmd{Book: "Friends"}).run)
		got = env.out.String()
		if strings.Index(got, "Cara") > strings.Index(got, "Amy") {
			t.Errorf("storage order changed by sort: %q", got)
		}
	})
}

func TestFeature_ExportImport(t *testing.T) {
	src := newTestEnv(t, "json")
	seedCities(t, src)
	path := filepath.Join(t.TempDir(), "books.csv")
	src.mustRun((&ExportCmd{Path: path}).run)

	dst := newTestEnv(t, "sqlite")
	dst.mustRun((&ImportCmd{Path: path}).run)

	dst.out.Reset()
	dst.mustRun((&BookListCmd{}).run)
	want := "Friends (2)\nWork (2)\nEmpty (0)\n"
	if dst.out.String() != want {
		t.Errorf("imported books = %q, want %q", dst.out.String(), want)
	}

	err := dst.run((&ImportCmd{Path: filepath.Join(t.TempDir(), "missing.csv")}).run)
	if code := exitCode(err); code != exitSetup {
		t.Errorf("exitCode(missing import) = %d, want %d", code, exitSetup)
	}
}

func TestFeature_ImportBadRecordsExitTwo(t *testing.T) {
	// Given a saved directory and a well-formed JSON file with an invalid zip
	env := newTestEnv(t, "json")
	env.mustRun((&BookCreateCmd{Name: "Friends"}).run)
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `[{"addressBook": "F", "firstName": "Amy", "lastName": "Shah", "address": "x", "city": "y",
		"state": "z", "zip": "12AB56", "phone": "9876543210", "email": "a@b.co"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	// When it is imported
	env.out.Reset()
	err := env.run((&ImportCmd{Path: path}).run)

	// Then the import is a persistence failure, left for main to print
	var pe *codec.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("Import error = %v, want *codec.PersistenceError", err)
	}
	if code := exitCode(err); code != exitSetup {
		t.Errorf("exitCode(%v) = %d, want %d", err, code, exitSetup)
	}
	var reported *reportedError
	if errors.As(err, &reported) || env.out.Len() != 0 {
		t.Errorf("hard failure reported as status: %q", env.out.String())
	}

	// And the saved directory is unchanged
	env.mustRun((&BookListCmd{}).run)
	if env.out.String() != "Friends (0)\n" {
		t.Errorf("book list = %q, want %q", env.out.String(), "Friends (0)\n")
	}
}

func TestFeature_TextRefusesCommaValues(t *testing.T) {
	// Given a text-format directory holding one book
	env := newTestEnv(t, "text")
	env.mustRun((&BookCreateCmd{Name: "Friends"}).run)

	// When a contact whose address holds a comma is added
	add := amyAdd("Friends")
	add.Address = "12, MG Road"
	err := env.run(add.run)

	// Then the save fails loudly instead of writing a line that loads differently
	if !errors.Is(err, codec.ErrUnrepresentable) {
		t.Fatalf("add error = %v, want codec.ErrUnrepresentable", err)
	}
	if code := exitCode(err); code != exitSetup {
		t.Errorf("exitCode(%v) = %d, want %d", err, code, exitSetup)
	}

	// And the saved file still loads with the book intact
	env.out.Reset()
	env.mustRun((&BookListCmd{}).run)
	if env.out.String() != "Friends (0)\n" {
		t.Errorf("book list = %q, want %q", env.out.String(), "Friends (0)\n")
	}
}

func TestOpenSession_SetupFailures(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		env := newTestEnv(t, "toml")
		err := env.run(func(*session) error { return nil })
		var ufe *codec.UnknownFormatError
		if !errors.As(err, &ufe) {
			t.Errorf("error = %v, want *codec.UnknownFormatError", err)
		}
		if exitCode(err) != exitSetup {
			t.Errorf("exitCode = %d, want %d", exitCode(err), exitSetup)
		}
	})

	t.Run("corrupt save file with invalid contact", func(t *testing.T) {
		env := newTestEnv(t, "json")
		path := filepath.Join(env.cfg.Storage.Dir, env.cfg.Storage.Name+".json")
		data := `[{"addressBook": "Friends", "firstName": "Amy", "lastName": "Shah", "address": "x",
			"city": "y", "state": "z", "zip": "1", "phone": "9876543210", "email": "a@b.co"}]`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		err := env.run(func(*session) error { return nil })
		if exitCode(err) != exitSetup {
			t.Errorf("exitCode(%v) = %d, want %d", err, exitCode(err), exitSetup)
		}
	})
}

func TestInitCmd(t *testing.T) {
	fsys := fstest.MapFS{"config.yaml": &fstest.MapFile{Data: []byte("storage:\n  format: csv\n")}}
	path := filepath.Join(t.TempDir(), ".addressbook", "config.yaml")
	var buf bytes.Buffer

	// Given no project config, init writes the template
	if err := (&InitCmd{}).run(&buf, fsys, path); err != nil {
		t.Fatalf("init error = %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Storage.Format != "csv" {
		t.Errorf("format = %q, want %q", cfg.Storage.Format, "csv")
	}

	// A second init refuses to overwrite
	err = (&InitCmd{}).run(&buf, fsys, path)
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("second init error = %v, want fs.ErrExist", err)
	}

	// Unless forced
	if err := (&InitCmd{Force: true}).run(&buf, fsys, path); err != nil {
		t.Errorf("forced init error = %v", err)
	}
}

type fakeTeaRunner struct {
	called bool
	err    error
}

func (f *fakeTeaRunner) Run() (tea.Model, error) {
	f.called = true
	return nil, f.err
}

func TestBrowseCmd(t *testing.T) {
	t.Run("requires a TTY", func(t *testing.T) {
		err := (&BrowseCmd{}).run(false, nil)
		if err == nil || exitCode(err) != exitSetup {
			t.Errorf("run(non-TTY) error = %v, want setup failure", err)
		}
	})

	t.Run("runs the program on a TTY", func(t *testing.T) {
		prog := &fakeTeaRunner{}
		if err := (&BrowseCmd{}).run(true, prog); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if !prog.called {
			t.Error("program was not run")
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"duplicate", fmt.Errorf("wrap: %w", directory.ErrDuplicateContact), exitOutcome},
		{"book not found", directory.ErrBookNotFound, exitOutcome},
		{"already exists", directory.ErrAlreadyExists, exitOutcome},
		{"setup", fmt.Errorf("%w: bad config", errSetup), exitSetup},
		{"persistence", &codec.PersistenceError{Codec: "json", Op: "save", Path: "x", Err: os.ErrPermission}, exitSetup},
		{
			"invalid record in imported file",
			fmt.Errorf("store: loading: %w", &codec.PersistenceError{
				Codec: "json", Op: "load", Path: "bad.json",
				Err: &contact.ValidationError{Field: contact.FieldZip, Value: "12AB56"},
			}),
			exitSetup,
		},
		{"reported outcome", &reportedError{err: directory.ErrAlreadyExists}, exitOutcome},
		{"other", errors.New("boom"), exitSetup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
