package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_NewCustomError tests the creation of custom errors.
func Test_NewCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")
	require.NotNil(t, err)
	require.Equal(t, ERR_NOT_FOUND, err.Code())
	require.Equal(t, "resource not found", err.Message())

	secondErr := New(ERR_INVALID_ARGUMENT, "[Put][%s] failed to store header", "_test_string_", err)
	thirdErr := New(ERR_STORAGE_ERROR, "[Put][%s] failed to store header", "_test_string_", secondErr)
	anotherErr := New(ERR_STORAGE_ERROR, "another storage error")
	fourthErr := New(ERR_PROCESSING, "older error: ", thirdErr)
	fifthErr := New(ERR_STORAGE_CORRUPTION, "undo payload corrupt", fourthErr)

	require.True(t, anotherErr.Is(thirdErr))
	require.True(t, fourthErr.Is(New(ERR_STORAGE_ERROR, "")))
	require.True(t, fourthErr.Is(ErrStorageError))

	require.True(t, fourthErr.Is(err))
	require.True(t, fifthErr.Is(thirdErr))
	require.True(t, fifthErr.Is(err))

	require.False(t, anotherErr.Is(fourthErr))
	require.False(t, fifthErr.Is(ErrBlockNotFound))
}

func Test_FmtErrorCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")

	fmtError := fmt.Errorf("error: %w", err)
	require.NotNil(t, fmtError)
	secondErr := New(ERR_INVALID_ARGUMENT, "[GetUndoBlock][%s] failed", "_test_string_", fmtError)
	require.NotNil(t, secondErr)

	// If we FMT Err, then they won't be recognized as equal
	require.False(t, secondErr.Is(err))

	altErr := New(ERR_INVALID_ARGUMENT, "invalid argument", err)
	require.True(t, secondErr.Is(altErr))
}

func Test_ForeignErrorsAreFlattened(t *testing.T) {
	cause := errors.New("pq: duplicate key value violates unique constraint")

	err := NewStorageError("failed to insert header", cause)

	var tErr *Error
	require.True(t, As(err, &tErr))
	assert.Equal(t, ERR_STORAGE_ERROR, tErr.Code())

	wrapped, ok := tErr.WrappedErr().(*Error)
	require.True(t, ok)
	assert.Equal(t, ERR_UNKNOWN, wrapped.Code())
	assert.Equal(t, cause.Error(), wrapped.Message())
	assert.Contains(t, err.Error(), "duplicate key value")
}

func Test_InvalidCode(t *testing.T) {
	err := New(ERR(999), "some message")
	assert.Equal(t, "invalid error code", err.Message())
	assert.Equal(t, "999", ERR(999).String())
}

func Test_Taxonomy(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		target      *Error
		retryable   bool
		corruption  bool
		storeClosed bool
	}{
		{"unavailable", NewStorageUnavailableError("db down"), ErrStorageUnavailable, true, false, false},
		{"corruption", NewStorageCorruptionError("bad undo bytes"), ErrStorageCorruption, false, true, false},
		{"closed", NewStoreClosedError("closed"), ErrStoreClosed, false, false, true},
		{"invariant", NewInvariantViolationError("missing utxo"), ErrInvariantViolation, false, false, false},
		{"wrapped corruption", NewStorageError("get failed", NewStorageCorruptionError("bad header")), ErrStorageError, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.target))
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
			assert.Equal(t, tt.corruption, IsCorruption(tt.err))
			assert.Equal(t, tt.storeClosed, IsStoreClosed(tt.err))
		})
	}
}

func Test_ContextErrorsAreNotRetryable(t *testing.T) {
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(nil))
}

func Test_Join(t *testing.T) {
	assert.Nil(t, Join(nil, nil))

	err := Join(NewStorageError("first"), nil, errors.New("second"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}
