package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies engine and storage errors.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeDuplicate
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodePermission
	ErrCodeCorruption
	ErrCodeSchema
	ErrCodeInternal
	ErrCodeBusy
	// ErrCodeUnavailable marks a missing host collaborator (persistent store
	// or history service). Callers degrade to in-memory operation.
	ErrCodeUnavailable
	// ErrCodeUpstream marks a failed host history query. The aggregation pass
	// aborts and the caller must treat the result as "try again", not empty.
	ErrCodeUpstream
)

// String returns the wire representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeDuplicate:
		return "DUPLICATE"
	case ErrCodeConstraint:
		return "CONSTRAINT"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTransaction:
		return "TRANSACTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeInternal:
		return "INTERNAL"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeUnavailable:
		return "UNAVAILABLE"
	case ErrCodeUpstream:
		return "UPSTREAM"
	default:
		return "UNKNOWN"
	}
}

// EngineError is an operation-scoped error with classification and context.
type EngineError struct {
	Op        string
	Err       error
	Code      ErrorCode
	Retryable bool
	Context   map[string]string
	Timestamp time.Time
}

func (e *EngineError) Error() string {
	if e == nil {
		return "engine error"
	}

	parts := []string{}
	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}
	if e.Code != ErrCodeUnknown {
		parts = append(parts, "code="+e.Code.String())
	}
	if e.Retryable {
		parts = append(parts, "retryable=true")
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	suffix := ""
	if len(parts) > 0 {
		suffix = " [" + strings.Join(parts, " ") + "]"
	}
	if e.Err != nil {
		return e.Err.Error() + suffix
	}
	return "engine error" + suffix
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another EngineError by code, or falls through to the wrapped error.
func (e *EngineError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithContext adds one context pair, mutating the receiver. Not safe once the
// error has been handed to another goroutine.
func (e *EngineError) WithContext(key, value string) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a classified engine error.
func New(op string, err error, code ErrorCode) *EngineError {
	return &EngineError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: retryableCode(code, err),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates a classified engine error carrying context pairs.
// The context map is cloned so the caller may reuse it.
func NewWithContext(op string, err error, code ErrorCode, context map[string]string) *EngineError {
	e := New(op, err, code)
	if len(context) > 0 {
		e.Context = make(map[string]string, len(context))
		for k, v := range context {
			e.Context[k] = v
		}
	}
	return e
}

func retryableCode(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy:
		return true
	case ErrCodeNotFound, ErrCodeDuplicate, ErrCodeConstraint, ErrCodeValidation,
		ErrCodePermission, ErrCodeCorruption, ErrCodeSchema, ErrCodeInternal,
		ErrCodeUnavailable, ErrCodeUpstream:
		return false
	default:
		if err != nil {
			msg := strings.ToLower(err.Error())
			return strings.Contains(msg, "busy") ||
				strings.Contains(msg, "locked") ||
				strings.Contains(msg, "temporary")
		}
		return false
	}
}

func codeOf(err error) (ErrorCode, bool) {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return ErrCodeUnknown, false
}

// IsNotFound reports whether err is a NOT_FOUND engine error.
func IsNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeNotFound
}

// IsValidation reports whether err is a VALIDATION engine error.
func IsValidation(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeValidation
}

// IsUnavailable reports whether err marks a missing host collaborator.
func IsUnavailable(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeUnavailable
}

// IsUpstream reports whether err marks a failed host history query.
func IsUpstream(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeUpstream
}

// IsConnection reports whether err is a CONNECTION engine error.
func IsConnection(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeConnection
}

// IsRetryable reports whether err may succeed on retry.
func IsRetryable(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
