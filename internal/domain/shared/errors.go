// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Pairing errors
	ErrAlreadyPaired = errors.New("learner already has an active mentor")

	// Input errors
	ErrValidation = errors.New("validation error")

	// State errors
	ErrInvalidTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Storage errors. ErrTransientStorage is the only kind that is retried.
	ErrTransientStorage       = errors.New("transient storage error")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "profile", "pairing", "session"
	Op      string // Operation that failed, e.g., "Create", "Confirm"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// ValidationError carries field-level validation messages.
// It matches ErrValidation with errors.Is().
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Error implements the error interface. Fields are listed in key order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Is implements errors.Is() matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrMentorNotFound  = NewDomainError("profile", "FindMentor", ErrNotFound, "mentor not found")
	ErrLearnerNotFound = NewDomainError("profile", "FindLearner", ErrNotFound, "learner not found")
	ErrProfileInUse    = NewDomainError("profile", "Delete", ErrInvalidTransition, "profile is referenced by pairings")
)

// Pairing domain errors
var (
	ErrPairingNotFound      = NewDomainError("pairing", "Find", ErrNotFound, "pairing not found")
	ErrLearnerAlreadyPaired = NewDomainError("pairing", "Create", ErrAlreadyPaired, "learner already has an active mentor")
	ErrPairingEnded         = NewDomainError("pairing", "Check", ErrInvalidTransition, "pairing is no longer active")
)

// Session domain errors
var (
	ErrSessionNotFound   = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrNotPairingMentor  = NewDomainError("session", "Authorize", ErrForbidden, "only the pairing's mentor can change this session")
	ErrNotPairingMember  = NewDomainError("session", "Authorize", ErrForbidden, "caller is not part of this pairing")
	ErrSessionTerminal   = NewDomainError("session", "Transition", ErrInvalidTransition, "session is already completed or cancelled")
	ErrSessionNotPending = NewDomainError("session", "Transition", ErrInvalidTransition, "session is not awaiting confirmation")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyPaired checks if the error is a pairing conflict.
func IsAlreadyPaired(err error) bool {
	return errors.Is(err, ErrAlreadyPaired)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}

// IsInvalidTransition checks if the error is a state machine violation.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}
