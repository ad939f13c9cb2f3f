package directory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/book"
	"github.com/smileynet/addressbook/internal/contact"
)

// Snapshot is the full, ordered state of a Directory as plain values.
// Codecs encode and decode Snapshots; they never touch a live Directory.
type Snapshot struct {
	Books []BookSnapshot
}

// BookSnapshot is one book and its contacts in insertion order.
type BookSnapshot struct {
	Name     string
	Contacts []contact.Fields
}

// ContactCount returns the number of contacts across all books.
func (s Snapshot) ContactCount() int {
	n := 0
	for _, b := range s.Books {
		n += len(b.Contacts)
	}
	return n
}

// Snapshot returns a deep copy of the directory's state.
func (d *Directory) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{Books: make([]BookSnapshot, 0, len(d.order))}
	for _, name := range d.order {
		snap.Books = append(snap.Books, BookSnapshot{
			Name:     name,
			Contacts: d.books[name].Contacts(),
		})
	}
	return snap
}

// Restore replaces the directory's state with snap. The replacement is built
// and fully validated first; on any error the current state is untouched.
func (d *Directory) Restore(snap Snapshot) error {
	books := make(map[string]*book.Book, len(snap.Books))
	order := make([]string, 0, len(snap.Books))

	for _, bs := range snap.Books {
		if err := d.ValidateBookName(bs.Name); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if _, ok := books[bs.Name]; ok {
			return fmt.Errorf("restore: %w: %q", ErrAlreadyExists, bs.Name)
		}
		b := book.New(bs.Name)
		for i, f := range bs.Contacts {
			c, err := contact.New(f)
			if err != nil {
				return fmt.Errorf("restore: book %q contact %d: %w", bs.Name, i+1, err)
			}
			if err := b.Add(c); err != nil {
				return fmt.Errorf("restore: book %q: %w", bs.Name, err)
			}
		}
		books[bs.Name] = b
		order = append(order, bs.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.books = books
	d.order = order
	d.logger.Debug("directory restored",
		zap.Int("books", len(order)),
		zap.Int("contacts", snap.ContactCount()))
	return nil
}
