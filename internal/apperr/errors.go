// Package apperr holds the error taxonomy shared by the store, the services and the handlers.
package apperr

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a task changed between the read and the write of a mutation.
var ErrConflict = errors.New("task was modified concurrently, reload and retry")

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a reference that does not resolve to a stored document.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// StoreError wraps a failure of the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Store wraps err unless it is nil or already part of the taxonomy.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || IsConflict(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
