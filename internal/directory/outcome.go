package directory

import (
	"errors"

	"github.com/smileynet/addressbook/internal/contact"
)

// Outcome classifies the result of a directory operation for callers that
// report status rather than inspect errors.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDuplicate
	OutcomeNotFound
	OutcomeAlreadyExists
	OutcomeInvalid
	OutcomeFailed
)

// Classify maps an error returned by this package (or a codec) to an Outcome.
// A nil error is OutcomeOK; anything unrecognised is OutcomeFailed.
func Classify(err error) Outcome {
	var ve *contact.ValidationError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrPersistence):
		return OutcomeFailed
	case errors.Is(err, ErrDuplicateContact):
		return OutcomeDuplicate
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return OutcomeAlreadyExists
	case errors.As(err, &ve):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}

// Expected reports whether the outcome is a recoverable caller-facing result
// rather than a hard failure.
func (o Outcome) Expected() bool {
	return o != OutcomeFailed
}

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNotFound:
		return "not found"
	case OutcomeAlreadyExists:
		return "already exists"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "failed"
	}
}

// Message returns a human-readable status line for a completed operation.
func Message(err error) string {
	if err == nil {
		return "done"
	}
	return err.Error()
}
