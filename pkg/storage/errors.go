package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrConnFailed       = errors.New("connection failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("file not found")
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidPath      = errors.New("path escapes storage root")
)

// IsRetryable returns true if error should trigger a retry
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConnFailed) || errors.Is(err, ErrTimeout) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsCritical returns true if error should stop all operations
func IsCritical(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrInvalidConfig)
}

// WrapError adds context to an error. The original error stays reachable
// through errors.Is and errors.As.
func WrapError(backend, operation string, err error) error {
	return fmt.Errorf("%s (%s): %w", operation, backend, err)
}

// NotFound wraps err so that it matches ErrNotFound while keeping the cause
func NotFound(backend, operation string, err error) error {
	return fmt.Errorf("%s (%s): %w: %w", operation, backend, ErrNotFound, err)
}
