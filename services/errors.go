package services

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed or missing input, keyed by field.
// Controllers surface it as HTTP 400 with the field map.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// prefixValidationError re-keys a validation error's fields under a path
// prefix, used when record inputs are validated inside an order payload.
func prefixValidationError(prefix string, err error) error {
	ve, ok := err.(*ValidationError)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(ve.Fields))
	for field, reason := range ve.Fields {
		fields[prefix+field] = reason
	}
	return &ValidationError{Fields: fields}
}

// NotFoundError reports a missing order, record, assignment or other
// referenced row. Controllers surface it as HTTP 404.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ConflictError reports a quantity-conservation violation or a duplicate
// unique key. Remaining carries the exact capacity still available so a
// client can self-correct without re-querying; it is -1 when the conflict
// is not a capacity problem. Controllers surface it as HTTP 409.
type ConflictError struct {
	Message   string
	Remaining int
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewCapacityConflict builds the standard remaining-capacity conflict.
func NewCapacityConflict(what string, requested, remaining int) *ConflictError {
	return &ConflictError{
		Message:   fmt.Sprintf("requested quantity %d exceeds remaining %s quantity %d", requested, what, remaining),
		Remaining: remaining,
	}
}

// TransactionFailure reports a transaction that kept aborting after the
// bounded retry loop (serialization conflicts under concurrent writers).
// Controllers surface it as HTTP 409 so the caller can retry.
type TransactionFailure struct {
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("transaction aborted after retries: %v", e.Err)
}

func (e *TransactionFailure) Unwrap() error {
	return e.Err
}

// isDuplicateKeyError detects unique-constraint violations across the
// postgres and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
