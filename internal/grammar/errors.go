package grammar

import (
	"errors"
	"fmt"
)

// ErrorKind separates lines that do not match a grammar from lines whose
// digits matched but do not form a legal calendar value.
type ErrorKind int

const (
	KindMalformed ErrorKind = iota + 1
	KindOutOfRange
)

var (
	ErrMalformed  = errors.New("malformed token")
	ErrOutOfRange = errors.New("value out of range")
)

// ParseError is returned by every exported Parse function.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Unwrap(), e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	if e.Kind == KindOutOfRange {
		return ErrOutOfRange
	}
	return ErrMalformed
}
