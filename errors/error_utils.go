// Package errors provides utilities for categorizing and handling errors raised by the block stores.
package errors

import (
	"context"
	"errors"
)

// IsRetryableError determines if an error is transient and the operation could be retried
// by the caller. The stores themselves never retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check if context was cancelled - not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_STORAGE_UNAVAILABLE:
			return true
		case ERR_STORAGE_CORRUPTION,
			ERR_INVARIANT_VIOLATION,
			ERR_STORE_CLOSED:
			return false
		}
	}

	return false
}

// IsCorruption reports whether err signals persisted bytes that could not be parsed,
// as opposed to the backing medium being unreachable.
func IsCorruption(err error) bool {
	return hasCode(err, ERR_STORAGE_CORRUPTION)
}

// IsStoreClosed reports whether err was raised by an operation on a closed store.
func IsStoreClosed(err error) bool {
	return hasCode(err, ERR_STORE_CLOSED)
}

func hasCode(err error, code ERR) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if !As(err, &tErr) {
		return false
	}

	for tErr != nil {
		if tErr.code == code {
			return true
		}

		next, ok := tErr.wrappedErr.(*Error)
		if !ok {
			return false
		}

		tErr = next
	}

	return false
}
