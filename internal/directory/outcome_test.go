package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smileynet/addressbook/internal/contact"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "nil", err: nil, want: OutcomeOK},
		{name: "duplicate", err: fmt.Errorf("%w: Amy Shah", ErrDuplicateContact), want: OutcomeDuplicate},
		{name: "book not found", err: fmt.Errorf("%w: %q", ErrBookNotFound, "x"), want: OutcomeNotFound},
		{name: "contact not found", err: fmt.Errorf("%w: %q", ErrContactNotFound, "x"), want: OutcomeNotFound},
		{name: "already exists", err: ErrAlreadyExists, want: OutcomeAlreadyExists},
		{name: "validation", err: &contact.ValidationError{Field: "zip"}, want: OutcomeInvalid},
		{name: "wrapped validation", err: fmt.Errorf("restore: %w", &contact.ValidationError{Field: "zip"}), want: OutcomeInvalid},
		{name: "other", err: errors.New("disk on fire"), want: OutcomeFailed},
		{
			name: "validation inside persistence failure",
			err:  fmt.Errorf("%w: %w", ErrPersistence, &contact.ValidationError{Field: "zip"}),
			want: OutcomeFailed,
		},
		{
			name: "duplicate inside persistence failure",
			err:  fmt.Errorf("%w: %w", ErrPersistence, ErrDuplicateContact),
			want: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if got.Expected() != (tt.want != OutcomeFailed) {
				t.Errorf("Expected() = %v for %v", got.Expected(), got)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	if got := Message(nil); got != "done" {
		t.Errorf("Message(nil) = %q, want %q", got, "done")
	}
	err := fmt.Errorf("%w: Amy Shah", ErrDuplicateContact)
	if got := Message(err); got != "contact already present: Amy Shah" {
		t.Errorf("Message(dup) = %q", got)
	}
}
