package model

import (
	"errors"
	"fmt"
)

// Sentinel errors compared with errors.Is across all layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrPolicyNotFound    = errors.New("retention policy not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrDatabase          = errors.New("database error")
)

// FieldError describes a validation failure on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// NewValidationErrors creates a ValidationError from several field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PolicyNotFoundError is returned when no retention policy resolves for a
// jurisdiction and document type. It is never replaced by a silent default.
type PolicyNotFoundError struct {
	Jurisdiction string
	DocumentType string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("no retention policy for jurisdiction %q and document type %q", e.Jurisdiction, e.DocumentType)
}

func (e *PolicyNotFoundError) Unwrap() error { return ErrPolicyNotFound }

// TransitionError reports an action that is not allowed from the current
// status.
type TransitionError struct {
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// PartialWriteError means the primary entity write succeeded but the audit
// entry that should accompany it could not be stored. Entity rows remain
// authoritative; the error is logged rather than rolled back.
type PartialWriteError struct {
	Entity EntityType
	ID     string
	Event  EventType
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %s %s saved but audit %s failed: %v", e.Entity, e.ID, e.Event, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
