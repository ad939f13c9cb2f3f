package codec

import (
	"fmt"

	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/directory"
)

// record is one element of the flat structured-text layouts. A record that
// carries only AddressBook marks a book with no contacts.
type record struct {
	AddressBook string `json:"addressBook" yaml:"addressBook"`
	FirstName   string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	City        string `json:"city,omitempty" yaml:"city,omitempty"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip         string `json:"zip,omitempty" yaml:"zip,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
}

func (r record) fields() contact.Fields {
	return contact.Fields{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address:   r.Address,
		City:      r.City,
		State:     r.State,
		Zip:       r.Zip,
		Phone:     r.Phone,
		Email:     r.Email,
	}
}

func (r record) bookOnly() bool {
	return r.fields() == contact.Fields{}
}

func newRecord(book string, f contact.Fields) record {
	return record{
		AddressBook: book,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Address:     f.Address,
		City:        f.City,
		State:       f.State,
		Zip:         f.Zip,
		Phone:       f.Phone,
		Email:       f.Email,
	}
}

// flatten converts a snapshot into flat records, one per contact plus one
// marker per empty book.
func flatten(snap directory.Snapshot) []record {
	recs := make([]record, 0, snap.ContactCount())
	for _, b := range snap.Books {
		if len(b.Contacts) == 0 {
			recs = append(recs, record{AddressBook: b.Name})
			continue
		}
		for _, f := range b.Contacts {
			recs = append(recs, newRecord(b.Name, f))
		}
	}
	return recs
}

// unflatten groups flat records into books, ordered by first appearance.
func unflatten(recs []record) (directory.Snapshot, error) {
	var snap directory.Snapshot
	index := make(map[string]int)
	for i, r := range recs {
		if r.AddressBook == "" {
			return directory.Snapshot{}, fmt.Errorf("%w: record %d has no addressBook", ErrMalformed, i+1)
		}
		bi, ok := index[r.AddressBook]
		if !ok {
			bi = len(snap.Books)
			index[r.AddressBook] = bi
			snap.Books = append(snap.Books, directory.BookSnapshot{Name: r.AddressBook})
		}
		if r.bookOnly() {
			continue
		}
		snap.Books[bi].Contacts = append(snap.Books[bi].Contacts, r.fields())
	}
	return snap, nil
}
