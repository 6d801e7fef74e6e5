package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestExecuteWithRetrySuccessPassthrough(t *testing.T) {
	handler := NewErrorHandler()

	res, err := handler.ExecuteWithRetry("dataset ingest", func() (interface{}, error) {
		return 42, nil
	}, 3)

	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

// -----------------------------------------------------------------------------

func TestExecuteWithRetryClassifiesIngestFailures(t *testing.T) {
	handler := NewErrorHandler()
	cause := errors.New("unexpected token")

	// maxRetries 1 keeps the test instant: no backoff sleep happens.
	_, err := handler.ExecuteWithRetry("dataset ingest", func() (interface{}, error) {
		return nil, cause
	}, 1)

	require.Error(t, err)
	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.ErrorIs(t, err, cause)
}

func TestExecuteWithRetryClassifiesDatabaseFailures(t *testing.T) {
	handler := NewErrorHandler()
	cause := errors.New("database is locked")

	_, err := handler.ExecuteWithRetry("save observations", func() (interface{}, error) {
		return nil, cause
	}, 1)

	require.Error(t, err)
	var dbErr *DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.ErrorIs(t, err, cause)
}

func TestExecuteWithRetryClassifiesNetworkFailures(t *testing.T) {
	handler := NewErrorHandler()

	_, err := handler.ExecuteWithRetry("fetch dataset", func() (interface{}, error) {
		return nil, errors.New("connection refused")
	}, 1)

	require.Error(t, err)
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
}

func TestExecuteWithRetryCountsErrors(t *testing.T) {
	handler := NewErrorHandler()

	_, _ = handler.ExecuteWithRetry("save observations", func() (interface{}, error) {
		return nil, errors.New("boom")
	}, 1)

	assert.Equal(t, 1, handler.ErrorCount)

	handler.ResetErrorCount()
	assert.Equal(t, 0, handler.ErrorCount)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffRecoversOnSecondAttempt(t *testing.T) {
	attempts := 0

	res, err := RetryWithBackoff("flaky op", 3, time.Millisecond, func() (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	attempts := 0

	_, err := RetryWithBackoff("flaky op", 2, time.Millisecond, func() (interface{}, error) {
		attempts++
		return nil, errors.New("persistent")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

// -----------------------------------------------------------------------------

func TestObserverErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	wrapped := &ObserverError{Message: "operation failed", Cause: cause}

	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "root")
}
