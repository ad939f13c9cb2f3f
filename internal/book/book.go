// Package book implements a single named, insertion-ordered collection of
// contacts with a uniqueness constraint on (firstName, lastName).
package book

import (
	"errors"
	"fmt"

	"github.com/smileynet/addressbook/internal/contact"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrNotFound         = errors.New("not found")
	ErrContactNotFound  = fmt.Errorf("contact %w", ErrNotFound)
	ErrDuplicateContact = errors.New("contact already present")
)

// Book is a named collection of contacts. It is not safe for concurrent use;
// the owning directory serializes access.
type Book struct {
	name     string
	contacts []*contact.Contact
	index    map[contact.Key]*contact.Contact
}

// New creates an empty Book.
func New(name string) *Book {
	return &Book{
		name:  name,
		index: make(map[contact.Key]*contact.Contact),
	}
}

// Name returns the book's name.
func (b *Book) Name() string {
	return b.name
}

// Len returns the number of contacts in the book.
func (b *Book) Len() int {
	return len(b.contacts)
}

// Add appends c unless a contact with the same identity key is present,
// in which case the book is left unchanged and ErrDuplicateContact returned.
func (b *Book) Add(c *contact.Contact) error {
	if _, ok := b.index[c.Key()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateContact, c.Key())
	}
	b.contacts = append(b.contacts, c)
	b.index[c.Key()] = c
	return nil
}

// Edit applies u to the first contact whose first name is firstName.
// A last-name change that would collide with another contact's identity is
// rejected with ErrDuplicateContact.
func (b *Book) Edit(firstName string, u contact.Update) error {
	i := b.find(firstName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrContactNotFound, firstName)
	}
	c := b.contacts[i]
	oldKey := c.Key()

	if u.LastName != nil {
		newKey := contact.Key{FirstName: oldKey.FirstName, LastName: *u.LastName}
		if other, ok := b.index[newKey]; ok && other != c {
			return fmt.Errorf("%w: %s", ErrDuplicateContact, newKey)
		}
	}

	if err := c.Apply(u); err != nil {
		return err
	}

	if newKey := c.Key(); newKey != oldKey {
		delete(b.index, oldKey)
		b.index[newKey] = c
	}
	return nil
}

// Delete removes the first contact whose first name is firstName.
func (b *Book) Delete(firstName string) error {
	i := b.find(firstName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrContactNotFound, firstName)
	}
	delete(b.index, b.contacts[i].Key())
	b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
	return nil
}

// Get returns the first contact whose first name is firstName.
func (b *Book) Get(firstName string) (contact.Fields, bool) {
	i := b.find(firstName)
	if i < 0 {
		return contact.Fields{}, false
	}
	return b.contacts[i].Fields(), true
}

// Lookup returns the contact with the exact identity key.
func (b *Book) Lookup(key contact.Key) (contact.Fields, bool) {
	c, ok := b.index[key]
	if !ok {
		return contact.Fields{}, false
	}
	return c.Fields(), true
}

// Contacts returns copies of the contacts in insertion order.
func (b *Book) Contacts() []contact.Fields {
	out := make([]contact.Fields, len(b.contacts))
	for i, c := range b.contacts {
		out[i] = c.Fields()
	}
	return out
}

// find returns the index of the first contact with the given first name, or -1.
func (b *Book) find(firstName string) int {
	for i, c := range b.contacts {
		if c.Fields().FirstName == firstName {
			return i
		}
	}
	return -1
}
