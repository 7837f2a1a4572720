package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so transports can map it to a response code.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindConflict     ErrorKind = "CONFLICT"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindForbidden    ErrorKind = "FORBIDDEN"
)

// DomainError is a typed business-rule failure returned by aggregates and services.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any DomainError of the same kind, so errors.Is(err, ErrConflict) works.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for use with errors.Is.
var (
	ErrValidation   = &DomainError{Kind: KindValidation}
	ErrConflict     = &DomainError{Kind: KindConflict}
	ErrInvalidState = &DomainError{Kind: KindInvalidState}
	ErrNotFound     = &DomainError{Kind: KindNotFound}
	ErrForbidden    = &DomainError{Kind: KindForbidden}
)

// NewValidationError reports malformed input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewConflictError reports a clash with existing state (occupied room, stale write).
func NewConflictError(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

// NewInvalidStateError reports an illegal lifecycle transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewStateError reports an illegal operation for the current state with a custom message.
func NewStateError(message string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Message: message}
}

// NewNotFoundError reports an unknown entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError reports an action the caller's role may not perform.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of the first DomainError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
