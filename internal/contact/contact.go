// Package contact defines the contact record and its field-format rules.
package contact

import (
	"fmt"
	"regexp"
)

// Field names as used in validation errors and persisted layouts.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldAddress   = "address"
	FieldCity      = "city"
	FieldState     = "state"
	FieldZip       = "zip"
	FieldPhone     = "phone"
	FieldEmail     = "email"
)

var (
	zipPattern   = regexp.MustCompile(`^\d{6}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9_%+-]+(\.[A-Za-z0-9_%+-]+)*@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)
)

// Fields holds the eight caller-supplied values of a contact.
type Fields struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Address   string `json:"address" yaml:"address"`
	City      string `json:"city" yaml:"city"`
	State     string `json:"state" yaml:"state"`
	Zip       string `json:"zip" yaml:"zip"`
	Phone     string `json:"phone" yaml:"phone"`
	Email     string `json:"email" yaml:"email"`
}

// Key returns the identity key of the fields.
func (f Fields) Key() Key {
	return Key{FirstName: f.FirstName, LastName: f.LastName}
}

// Values returns the fields in persisted column order.
func (f Fields) Values() []string {
	return []string{f.FirstName, f.LastName, f.Address, f.City, f.State, f.Zip, f.Phone, f.Email}
}

// FromValues builds Fields from exactly eight values in persisted column order.
func FromValues(v []string) (Fields, error) {
	if len(v) != 8 {
		return Fields{}, fmt.Errorf("contact: want 8 values, got %d", len(v))
	}
	return Fields{
		FirstName: v[0],
		LastName:  v[1],
		Address:   v[2],
		City:      v[3],
		State:     v[4],
		Zip:       v[5],
		Phone:     v[6],
		Email:     v[7],
	}, nil
}

// Key identifies a contact within a book. Comparison is case-sensitive.
type Key struct {
	FirstName string
	LastName  string
}

func (k Key) String() string {
	return k.FirstName + " " + k.LastName
}

// Contact is a validated contact record. The zero value is not usable; build
// one with New.
type Contact struct {
	fields Fields
}

// New validates f and returns a Contact holding exactly the given values.
// Checks run firstName, lastName, zip, phone, email and stop at the first
// violation.
func New(f Fields) (*Contact, error) {
	checks := []struct {
		field string
		value string
	}{
		{FieldFirstName, f.FirstName},
		{FieldLastName, f.LastName},
		{FieldZip, f.Zip},
		{FieldPhone, f.Phone},
		{FieldEmail, f.Email},
	}
	for _, c := range checks {
		if err := Validate(c.field, c.value); err != nil {
			return nil, err
		}
	}
	return &Contact{fields: f}, nil
}

// Fields returns a copy of the contact's values.
func (c *Contact) Fields() Fields {
	return c.fields
}

// Key returns the contact's identity key.
func (c *Contact) Key() Key {
	return c.fields.Key()
}

// Validate checks a single field value against the rule for that field.
// Address, city and state only need to be non-empty.
func Validate(field, value string) error {
	switch field {
	case FieldZip:
		if !zipPattern.MatchString(value) {
			return &ValidationError{Field: field, Value: value, Reason: "must be exactly 6 digits"}
		}
	case FieldPhone:
		if !phonePattern.MatchString(value) {
			return &ValidationError{Field: field, Value: value, Reason: "must be exactly 10 digits"}
		}
	case FieldEmail:
		if !emailPattern.MatchString(value) {
			return &ValidationError{Field: field, Value: value, Reason: "must look like local@domain.tld"}
		}
	case FieldFirstName, FieldLastName, FieldAddress, FieldCity, FieldState:
		if value == "" {
			return &ValidationError{Field: field, Value: value, Reason: "must not be empty"}
		}
	default:
		return fmt.Errorf("contact: unknown field %q", field)
	}
	return nil
}

// ValidationError reports a field value that violates its format rule.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
