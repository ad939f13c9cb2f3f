package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

const bookSentinel = "Address Book:"

// Text stores the directory as human-readable blocks: an "Address Book: <name>"
// line followed by one comma-separated line per contact, with a blank line
// between blocks. Lines with the wrong field count are skipped on load, so
// Encode refuses any value that would not read back unchanged.
type Text struct {
	Logger *zap.Logger
}

var _ Stream = Text{}

func (Text) Name() string      { return "text" }
func (Text) Extension() string { return ".txt" }

func (c Text) Save(path string, snap directory.Snapshot) error { return saveStream(c, path, snap) }

func (c Text) Load(path string) (directory.Snapshot, error) { return loadStream(c, path) }

// Encode writes one block per book.
func (Text) Encode(w io.Writer, snap directory.Snapshot) error {
	if err := checkText(snap); err != nil {
		return err
	}
	for i, b := range snap.Books {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", bookSentinel, b.Name); err != nil {
			return err
		}
		for _, f := range b.Contacts {
			if _, err := fmt.Fprintln(w, strings.Join(f.Values(), ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkText rejects book names and contact values that the line format
// would split, trim or reinterpret on load.
func checkText(snap directory.Snapshot) error {
	for _, b := range snap.Books {
		if !textSafe(b.Name) {
			return fmt.Errorf("%w: book %q in text format", ErrUnrepresentable, b.Name)
		}
		for _, f := range b.Contacts {
			if strings.HasPrefix(f.FirstName, bookSentinel) {
				return fmt.Errorf("%w: book %q first name %q in text format", ErrUnrepresentable, b.Name, f.FirstName)
			}
			for _, v := range f.Values() {
				if !textSafe(v) || strings.Contains(v, ",") {
					return fmt.Errorf("%w: book %q contact %s %s: value %q in text format",
						ErrUnrepresentable, b.Name, f.FirstName, f.LastName, v)
				}
			}
		}
	}
	return nil
}

func textSafe(v string) bool {
	return v == strings.TrimSpace(v) && !strings.ContainsAny(v, "\r\n")
}

// Decode parses blocks written by Encode. Each sentinel line starts (or
// resumes) a book; contact lines before any sentinel or with a field count
// other than eight are skipped and logged.
func (c Text) Decode(r io.Reader) (directory.Snapshot, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var snap directory.Snapshot
	index := make(map[string]int)
	current := -1

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if name, ok := strings.CutPrefix(line, bookSentinel); ok {
			name = strings.TrimSpace(name)
			bi, seen := index[name]
			if !seen {
				bi = len(snap.Books)
				index[name] = bi
				snap.Books = append(snap.Books, directory.BookSnapshot{Name: name})
			}
			current = bi
			continue
		}

		if current < 0 {
			logger.Warn("skipping contact line outside any book", zap.Int("line", lineNo))
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		f, err := contact.FromValues(parts)
		if err != nil {
			logger.Warn("skipping malformed contact line",
				zap.Int("line", lineNo),
				zap.Int("fields", len(parts)))
			continue
		}
		snap.Books[current].Contacts = append(snap.Books[current].Contacts, f)
	}
	if err := sc.Err(); err != nil {
		return directory.Snapshot{}, err
	}
	return snap, nil
}
