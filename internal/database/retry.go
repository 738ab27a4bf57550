package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatpush/internal/constants"
	"chatpush/internal/retry"
)

// dbBackoff is the schedule for transient database failures
var dbBackoff = retry.BackoffConfig{
	InitialDelay: time.Duration(constants.DefaultRetryBackoffMs) * time.Millisecond,
	MaxDelay:     time.Duration(constants.DefaultMaxBackoffMs) * time.Millisecond,
	Multiplier:   2.0,
	MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
}

// retryableDBOperationNoReturn executes a database operation that returns only an error with retry logic
func retryableDBOperationNoReturn(ctx context.Context, operation func() error, operationName string) error {
	b := retry.NewBackoff(dbBackoff)

	err := b.RetryWithPredicate(ctx, func(context.Context) error {
		return operation()
	}, isRetryableDBError)

	// Non-retryable and context errors are surfaced as-is
	if err == nil || !isRetryableDBError(err) {
		return err
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, b.MaxAttempts(), err)
}

// retryableDBOperation is retryableDBOperationNoReturn for operations that produce a value
func retryableDBOperation[T any](ctx context.Context, operation func() (T, error), operationName string) (T, error) {
	var result T
	err := retryableDBOperationNoReturn(ctx, func() error {
		var opErr error
		result, opErr = operation()
		return opErr
	}, operationName)
	return result, err
}

// IsTransient reports whether err is a database failure worth retrying
func IsTransient(err error) bool {
	return isRetryableDBError(err)
}

// isRetryableDBError determines if a database error is worth retrying
func isRetryableDBError(err error) bool {
	if err == nil {
		return false
	}

	// Context timeout/cancellation are not retryable by us
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := err.Error()

	if strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "database table is locked") {
		return true
	}

	if strings.Contains(errStr, "disk I/O error") {
		return true
	}

	// Temporary network issues for hosted databases
	if strings.Contains(errStr, "no such host") || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}
