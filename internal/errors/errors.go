// Package errors defines the typed error taxonomy the engine exposes.
// Every business-rule failure maps to exactly one DomainError kind so
// handlers can render {statusCode, errorKind, message} without inspecting
// error strings.
package errors

import (
	"errors"
)

// DomainError is a typed business error. Code is the stable machine-readable
// kind; Status is the HTTP status handlers should respond with.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is makes two DomainErrors with the same code comparable via errors.Is,
// so wrapped copies with contextual messages still match the sentinel.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// WithMessage returns a copy carrying a contextual message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	return &DomainError{Code: e.Code, Message: msg, Status: e.Status}
}

// AsDomain extracts a DomainError from an error chain.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
