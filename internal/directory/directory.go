// Package directory manages a set of uniquely named books and is the only
// mutation entry point for their contacts.
package directory

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/book"
	"github.com/smileynet/addressbook/internal/contact"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrNotFound         = book.ErrNotFound
	ErrBookNotFound     = fmt.Errorf("book %w", book.ErrNotFound)
	ErrContactNotFound  = book.ErrContactNotFound
	ErrDuplicateContact = book.ErrDuplicateContact
	ErrAlreadyExists    = errors.New("book already exists")

	// ErrPersistence marks a failed save or load. Classify reports it as
	// OutcomeFailed even when it wraps a validation or duplicate error found
	// in the file.
	ErrPersistence = errors.New("persistence failure")
)

// NamePolicy controls which book names CreateBook accepts.
type NamePolicy string

const (
	// NamesStrict accepts letters, digits and spaces only.
	NamesStrict NamePolicy = "strict"
	// NamesPermissive accepts any name that is not blank.
	NamesPermissive NamePolicy = "permissive"
)

var strictName = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

// Directory owns every book, keyed by unique name. All methods are safe for
// concurrent use; one mutex covers the whole directory so duplicate and
// name checks stay atomic with the mutation they guard.
type Directory struct {
	mu     sync.Mutex
	books  map[string]*book.Book
	order  []string
	policy NamePolicy
	logger *zap.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger used for mutation events.
func WithLogger(l *zap.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNamePolicy sets the book name policy.
func WithNamePolicy(p NamePolicy) Option {
	return func(d *Directory) { d.policy = p }
}

// New creates an empty Directory.
func New(opts ...Option) *Directory {
	d := &Directory{
		books:  make(map[string]*book.Book),
		policy: NamesStrict,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ValidateBookName checks name against the directory's name policy.
func (d *Directory) ValidateBookName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &contact.ValidationError{Field: "book", Value: name, Reason: "must not be blank"}
	}
	if d.policy != NamesPermissive && !strictName.MatchString(name) {
		return &contact.ValidationError{Field: "book", Value: name, Reason: "may contain only letters, digits and spaces"}
	}
	return nil
}

// CreateBook adds an empty book. An existing book is never replaced.
func (d *Directory) CreateBook(name string) error {
	if err := d.ValidateBookName(name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.books[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}
	d.books[name] = book.New(name)
	d.order = append(d.order, name)
	d.logger.Debug("book created", zap.String("book", name))
	return nil
}

// RemoveBook deletes a book and all of its contacts.
func (d *Directory) RemoveBook(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.books[name]; !ok {
		return fmt.Errorf("%w: %q", ErrBookNotFound, name)
	}
	delete(d.books, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.logger.Debug("book removed", zap.String("book", name))
	return nil
}

// AddContact adds c to the named book.
func (d *Directory) AddContact(bookName string, c *contact.Contact) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return err
	}
	if err := b.Add(c); err != nil {
		return err
	}
	d.logger.Debug("contact added", zap.String("book", bookName), zap.Stringer("contact", c.Key()))
	return nil
}

// EditContact applies u to the first contact named firstName in the named book.
func (d *Directory) EditContact(bookName, firstName string, u contact.Update) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return err
	}
	if err := b.Edit(firstName, u); err != nil {
		return err
	}
	d.logger.Debug("contact edited", zap.String("book", bookName), zap.String("firstName", firstName))
	return nil
}

// DeleteContact removes the first contact named firstName from the named book.
func (d *Directory) DeleteContact(bookName, firstName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return err
	}
	if err := b.Delete(firstName); err != nil {
		return err
	}
	d.logger.Debug("contact deleted", zap.String("book", bookName), zap.String("firstName", firstName))
	return nil
}

// GetContact returns the first contact named firstName in the named book.
func (d *Directory) GetContact(bookName, firstName string) (contact.Fields, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return contact.Fields{}, err
	}
	f, ok := b.Get(firstName)
	if !ok {
		return contact.Fields{}, fmt.Errorf("%w: %q", ErrContactNotFound, firstName)
	}
	return f, nil
}

// ListBooks returns book names in creation order.
func (d *Directory) ListBooks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.order...)
}

// Contacts returns the named book's contacts in insertion order.
func (d *Directory) Contacts(bookName string) ([]contact.Fields, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return nil, err
	}
	return b.Contacts(), nil
}

// SortedView returns the named book's contacts ordered by field.
func (d *Directory) SortedView(bookName string, field book.SortField) ([]contact.Fields, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return nil, err
	}
	return b.Sorted(field), nil
}

// Search runs a search within a single book.
func (d *Directory) Search(bookName string, c book.Criterion, value string) ([]contact.Fields, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.book(bookName)
	if err != nil {
		return nil, err
	}
	return b.Search(c, value), nil
}

// BookMatches holds one book's search results.
type BookMatches struct {
	Book     string
	Contacts []contact.Fields
}

// SearchAcrossBooks runs the search in every book, in creation order.
// Books without matches are omitted.
func (d *Directory) SearchAcrossBooks(c book.Criterion, value string) []BookMatches {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []BookMatches
	for _, name := range d.order {
		found := d.books[name].Search(c, value)
		if len(found) == 0 {
			continue
		}
		out = append(out, BookMatches{Book: name, Contacts: found})
	}
	return out
}

// CountAcrossBooks returns the total number of matches SearchAcrossBooks
// would report.
func (d *Directory) CountAcrossBooks(c book.Criterion, value string) int {
	n := 0
	for _, m := range d.SearchAcrossBooks(c, value) {
		n += len(m.Contacts)
	}
	return n
}

// book returns the named book. Callers must hold d.mu.
func (d *Directory) book(name string) (*book.Book, error) {
	b, ok := d.books[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBookNotFound, name)
	}
	return b, nil
}
