package vaccination

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAgeGroup means an age group has no offset rule. It is a
	// configuration error and is never defaulted.
	ErrUnknownAgeGroup = errors.New("unknown age group")
	// ErrNotFound is returned when a record or child schedule does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord marks a stored record without a usable due date.
	ErrMalformedRecord = errors.New("malformed vaccine record")
	// ErrInvalidBirthDate is returned for a zero birth date or one in the future.
	ErrInvalidBirthDate = errors.New("invalid birth date")
)

// TemplateError describes an inconsistency in a schedule template.
type TemplateError struct {
	AgeGroup AgeGroup
	Reason   string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template age group %q: %s", e.AgeGroup, e.Reason)
}

func (e *TemplateError) Unwrap() error { return e.Err }
