package structval

import (
	"errors"
	"fmt"
)

// ErrMalformed reports input that is not a well-formed canonical blob.
var ErrMalformed = errors.New("structval: malformed canonical bytes")

// EncodeError reports a value that cannot be represented canonically.
type EncodeError struct {
	GoType string // Go type of the rejected value.
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("structval: encode %s: %v", e.GoType, e.Cause)
}

func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError reports a decode into a target whose shape does not
// match the stored value.
type TypeMismatchError struct {
	Expected string // Shape or Go type the caller asked for.
	Actual   string // Shape the stored value has.
	Cause    error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("structval: type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Cause
}
