// Package storefront talks to the remote commerce backend: the cart RPCs of
// the storefront API and the order endpoints of the admin API.
package storefront

import (
	"errors"

	"posterstudio/internal/domain"
)

// Error codes for failures that did not come from the remote's userErrors.
const (
	CodeTransport = "TRANSPORT"
	CodeGraphQL   = "GRAPHQL"
	CodeNotFound  = "NOT_FOUND"
)

// RemoteError is a structured failure of a remote call.
type RemoteError struct {
	Code    string
	Message string
	cause   error
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *RemoteError) Unwrap() error { return e.cause }

// Result is either a parsed Value or an Err, never both.
type Result[T any] struct {
	Value T
	Err   *RemoteError
}

func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the value and, on failure, the error as a plain error.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func fail[T any](code, message string) Result[T] {
	return Result[T]{Err: &RemoteError{Code: code, Message: message}}
}

// failErr converts a transport-level error into a result.
func failErr[T any](err error) Result[T] {
	var re *RemoteError
	if errors.As(err, &re) {
		return Result[T]{Err: re}
	}
	code := CodeTransport
	if !domain.IsTransport(err) {
		code = CodeGraphQL
	}
	return Result[T]{Err: &RemoteError{Code: code, Message: err.Error(), cause: err}}
}
