package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyUser          = errors.New("empty user id")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidLimit       = errors.New("limit must be a positive number")
	ErrInvalidMonth       = errors.New("invalid month, expected YYYY-MM")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrInvalidDate        = errors.New("invalid date")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// ValidationError reports a malformed or missing input field.
// It is never retried.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DependencyError wraps a failure of the record store or the text
// recognition service. Callers see the original cause through Unwrap.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Dependency wraps err as a DependencyError unless it is nil or already one.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DependencyError
	if errors.As(err, &de) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDependency reports whether err is or wraps a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
