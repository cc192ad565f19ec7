package mediator

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateHandler is returned when a request type already has a handler.
	ErrDuplicateHandler = errors.New("mediator: duplicate handler")
	// ErrRegistryClosed is returned for registrations after Seal.
	ErrRegistryClosed = errors.New("mediator: registry closed")
	// ErrInvalidDescriptor is returned for incomplete descriptors.
	ErrInvalidDescriptor = errors.New("mediator: invalid descriptor")
	// ErrCompile is the base error of every CompileError.
	ErrCompile = errors.New("mediator: compile failed")
	// ErrUnroutableRequest is returned when no handler serves the request type.
	ErrUnroutableRequest = errors.New("mediator: unroutable request")
	// ErrKindMismatch is returned when the call shape does not fit the registered kind.
	ErrKindMismatch = errors.New("mediator: kind mismatch")
	// ErrInstanceResolution is returned when the provider has no binding.
	ErrInstanceResolution = errors.New("mediator: instance resolution failed")
	// ErrBehaviorContract is returned when a behavior discards the outcome of next.
	ErrBehaviorContract = errors.New("mediator: behavior contract violated")
)

// CompileError reports a template that cannot be bound to a request type.
type CompileError struct {
	// Request is the request type whose chain failed.
	Request TypeKey
	// Identity is the handler or behavior template that failed to bind.
	Identity Identity
	// Err is the cause.
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s for %s: %v", ErrCompile, e.Identity, e.Request, e.Err)
}

func (e *CompileError) Unwrap() []error {
	return []error{ErrCompile, e.Err}
}

func unroutable(key TypeKey) error {
	return fmt.Errorf("%w: no handler for %s", ErrUnroutableRequest, key)
}

func kindMismatch(key TypeKey, registered Kind, call string) error {
	return fmt.Errorf("%w: %s is registered as %s, called with %s", ErrKindMismatch, key, registered, call)
}

func contractViolation(id Identity, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrBehaviorContract, id, reason)
}
