package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ClassifyError determines the ErrorCode for an arbitrary error, preferring
// driver-level classification and falling back to message heuristics.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrCodeNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no rows"):
		return ErrCodeNotFound
	case strings.Contains(msg, "unique"):
		return ErrCodeDuplicate
	case strings.Contains(msg, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(msg, "busy"), strings.Contains(msg, "locked"):
		return ErrCodeBusy
	case strings.Contains(msg, "timeout"):
		return ErrCodeTimeout
	case strings.Contains(msg, "connection"), strings.Contains(msg, "database is closed"):
		return ErrCodeConnection
	default:
		return ErrCodeUnknown
	}
}

// WrapStorageError wraps a storage-layer error with operation context.
func WrapStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return New(op, err, ClassifyError(err))
}

// WrapStorageErrorWithContext wraps a storage-layer error with extra context pairs.
func WrapStorageErrorWithContext(op string, err error, context map[string]string) error {
	if err == nil {
		return nil
	}
	return NewWithContext(op, err, ClassifyError(err), context)
}

// HandleNotFound builds a NOT_FOUND error for a missing resource.
func HandleNotFound(op, resource, identifier string) error {
	return NewWithContext(op,
		fmt.Errorf("%s not found", resource),
		ErrCodeNotFound,
		map[string]string{"resource": resource, "id": identifier})
}

// HandleValidationError builds a VALIDATION error for a rejected input field.
func HandleValidationError(op, field, reason string) error {
	return NewWithContext(op,
		fmt.Errorf("invalid %s: %s", field, reason),
		ErrCodeValidation,
		map[string]string{"field": field})
}

// HandleConnectionError builds a CONNECTION error.
func HandleConnectionError(op, details string) error {
	return New(op, fmt.Errorf("connection error: %s", details), ErrCodeConnection)
}

// HandleUnavailable builds an UNAVAILABLE error for a missing host collaborator.
func HandleUnavailable(op, collaborator string) error {
	return NewWithContext(op,
		fmt.Errorf("%s is unavailable", collaborator),
		ErrCodeUnavailable,
		map[string]string{"collaborator": collaborator})
}

// HandleUpstreamError builds an UPSTREAM error for a failed host history call.
func HandleUpstreamError(op string, err error) error {
	return New(op, fmt.Errorf("host history query failed: %w", err), ErrCodeUpstream)
}
