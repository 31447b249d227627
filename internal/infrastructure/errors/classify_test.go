package errors

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ErrCodeUnknown},
		{"no rows", sql.ErrNoRows, ErrCodeNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"engine error passthrough", New("op", fmt.Errorf("x"), ErrCodeUpstream), ErrCodeUpstream},
		{"message heuristic busy", fmt.Errorf("database is locked"), ErrCodeBusy},
		{"message heuristic unique", fmt.Errorf("UNIQUE constraint failed"), ErrCodeDuplicate},
		{"opaque", fmt.Errorf("something else"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapStorageError_Nil(t *testing.T) {
	if got := WrapStorageError("op", nil); got != nil {
		t.Errorf("WrapStorageError(nil) = %v, want nil", got)
	}
}

func TestPredicates(t *testing.T) {
	unavailable := HandleUnavailable("op", "history database")
	if !IsUnavailable(unavailable) {
		t.Error("IsUnavailable(HandleUnavailable(...)) = false")
	}
	if IsUpstream(unavailable) {
		t.Error("IsUpstream misclassified an unavailable error")
	}

	upstream := HandleUpstreamError("op", fmt.Errorf("boom"))
	if !IsUpstream(upstream) {
		t.Error("IsUpstream(HandleUpstreamError(...)) = false")
	}

	wrapped := fmt.Errorf("outer: %w", upstream)
	if !IsUpstream(wrapped) {
		t.Error("IsUpstream must see through wrapping")
	}

	if !IsNotFound(HandleNotFound("op", "rule", "r1")) {
		t.Error("IsNotFound(HandleNotFound(...)) = false")
	}
	if !IsValidation(HandleValidationError("op", "days", "must be positive")) {
		t.Error("IsValidation(HandleValidationError(...)) = false")
	}
}

func TestRetryable(t *testing.T) {
	if !IsRetryable(HandleConnectionError("op", "refused")) {
		t.Error("connection errors must be retryable")
	}
	if IsRetryable(HandleValidationError("op", "field", "bad")) {
		t.Error("validation errors must not be retryable")
	}
}

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: []ErrorCode{ErrCodeConnection, ErrCodeBusy},
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return HandleConnectionError("op", "transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("WithRetry() = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return HandleValidationError("op", "field", "bad")
	})

	if err == nil {
		t.Fatal("WithRetry() = nil, want validation error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on validation)", attempts)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return HandleConnectionError("op", "always down")
	})

	if err == nil {
		t.Fatal("WithRetry() = nil, want error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetry_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := WithRetry(ctx, fastRetryConfig(), func() error {
		attempts++
		return nil
	})

	if err == nil {
		t.Fatal("WithRetry() = nil, want error for canceled context")
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 (canceled before first try)", attempts)
	}
}

func TestEngineError_ContextAndUnwrap(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := NewWithContext("SaveRules", inner, ErrCodeConnection, map[string]string{"key": "custom_category_rules"})

	var engineErr *EngineError
	if !stderrors.As(err, &engineErr) {
		t.Fatal("errors.As failed on EngineError")
	}
	if engineErr.Unwrap() != inner {
		t.Errorf("Unwrap() = %v, want inner", engineErr.Unwrap())
	}
	if engineErr.Context["key"] != "custom_category_rules" {
		t.Errorf("Context = %v", engineErr.Context)
	}
}
