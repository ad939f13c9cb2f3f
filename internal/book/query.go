package book

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smileynet/addressbook/internal/contact"
)

// Criterion selects the field a search matches on.
type Criterion string

const (
	ByCity  Criterion = "city"
	ByState Criterion = "state"
)

// ParseCriterion validates a criterion name.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(s)); c {
	case ByCity, ByState:
		return c, nil
	}
	return "", fmt.Errorf("book: unknown search criterion %q (want city or state)", s)
}

func (c Criterion) value(f contact.Fields) string {
	if c == ByState {
		return f.State
	}
	return f.City
}

// SortField selects the field a sorted view orders by.
type SortField string

const (
	SortFirstName SortField = "firstName"
	SortLastName  SortField = "lastName"
	SortCity      SortField = "city"
	SortState     SortField = "state"
	SortZip       SortField = "zip"
)

// SortFields lists the supported sort fields in display order.
var SortFields = []SortField{SortFirstName, SortLastName, SortCity, SortState, SortZip}

// ParseSortField validates a sort field name, case-insensitively.
func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("book: unknown sort field %q", s)
}

func (s SortField) value(f contact.Fields) string {
	switch s {
	case SortLastName:
		return f.LastName
	case SortCity:
		return f.City
	case SortState:
		return f.State
	case SortZip:
		return f.Zip
	default:
		return f.FirstName
	}
}

// Search returns the contacts whose criterion field equals value,
// compared case-insensitively, in insertion order.
func (b *Book) Search(c Criterion, value string) []contact.Fields {
	var out []contact.Fields
	for _, ct := range b.contacts {
		f := ct.Fields()
		if strings.EqualFold(c.value(f), value) {
			out = append(out, f)
		}
	}
	return out
}

// Sorted returns the contacts ordered by field without changing storage order.
// Ordering is case-insensitive and stable: ties keep insertion order.
func (b *Book) Sorted(field SortField) []contact.Fields {
	out := b.Contacts()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(field.value(out[i])) < strings.ToLower(field.value(out[j]))
	})
	return out
}
