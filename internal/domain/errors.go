package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates a poster state violates an invariant.
	ErrInvalidState = errors.New("invalid poster state")
	// ErrUnpriced indicates a configuration has no price in the catalogue.
	ErrUnpriced = errors.New("configuration has no price")
	// ErrInvalidInput indicates a malformed request argument.
	ErrInvalidInput = errors.New("invalid input")
)

// TransportError reports a failed call to an external service.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
