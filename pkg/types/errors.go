package types

import (
	"errors"
	"fmt"
)

// Parse error kinds.
var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidDigest     = errors.New("invalid digest")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidTypeTag    = errors.New("invalid type tag")
	ErrInvalidNumber     = errors.New("invalid number")
)

// ParseError reports text that could not be parsed, keeping the input for
// diagnostics.
type ParseError struct {
	Kind   error
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Input)
	}
	return fmt.Sprintf("%v %q: %s", e.Kind, e.Input, e.Reason)
}

// Unwrap returns the error kind so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	return e.Kind
}

func parseErr(kind error, input, format string, args ...any) error {
	return &ParseError{Kind: kind, Input: input, Reason: fmt.Sprintf(format, args...)}
}
