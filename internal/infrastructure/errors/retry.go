package errors

import (
	"context"
	"math/rand"
	"slices"
	"time"
)

// RetryConfig holds configuration for retrying storage operations.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Jitter          bool
	RetryableErrors []ErrorCode // additional codes to retry beyond Retryable errors
}

// DefaultRetryConfig returns the retry policy used for state persistence.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
			ErrCodeBusy,
		},
	}
}

// Operation is a retryable unit of work.
type Operation func() error

// WithRetry runs the operation with exponential backoff until it succeeds,
// fails with a non-retryable error, exhausts attempts, or ctx is done.
func WithRetry(ctx context.Context, config *RetryConfig, operation Operation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return New("WithRetry", err, ErrCodeTimeout)
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr, config) {
			return lastErr
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return New("WithRetry", ctx.Err(), ErrCodeTimeout)
		case <-time.After(backoffDelay(attempt, config)):
		}
	}
	return lastErr
}

func shouldRetry(err error, config *RetryConfig) bool {
	if IsRetryable(err) {
		return true
	}
	if code, ok := codeOf(err); ok {
		return slices.Contains(config.RetryableErrors, code)
	}
	return slices.Contains(config.RetryableErrors, ClassifyError(err))
}

func backoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay >= config.MaxDelay {
			delay = config.MaxDelay
			break
		}
	}
	if config.Jitter && delay > 0 {
		// up to 25% jitter to spread contending writers
		delay += time.Duration(rand.Int63n(int64(delay) / 4))
	}
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}
