// Package apperr defines the typed error taxonomy shared by the paper
// lifecycle, numbering, and grading layers. Handlers map these onto HTTP
// status codes and response error codes.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: missing required field,
// out-of-range index, negative marks. Never retried automatically.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an operation not permitted in the paper's current
// status. The message names the required status.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// Statef builds a StateError from a format string.
func Statef(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent paper, section, question number, or
// question id.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NotFound builds a NotFoundError for a resource and lookup key.
func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// ConflictError reports an optimistic-version mismatch on a concurrent
// paper write. Callers should re-fetch and reapply.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return e.Resource + " was modified concurrently, retry the operation"
}

// Conflict builds a ConflictError for a resource.
func Conflict(resource string) error {
	return &ConflictError{Resource: resource}
}

// DependencyError reports an unreachable collaborator (question store,
// job queue). For structural edits it aborts the operation before any
// state change; post-commit side effects log it instead.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Dependency wraps err as a DependencyError for the named operation.
func Dependency(op string, err error) error {
	return &DependencyError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
