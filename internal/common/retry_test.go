package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	fast := RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds after one failure", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls == 1 {
				return errors.New("boom")
			}
			return nil
		}, fast)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("still down")
		err := WithRetry(context.Background(), func() error {
			calls++
			return sentinel
		}, fast)
		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("non retryable stops immediately", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad credentials"), Retryable: false}
		}, fast)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error { return errors.New("fail") },
			RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPartialWriteError(t *testing.T) {
	cause := errors.New("quota")
	err := error(&PartialWriteError{Err: cause, Written: 2, Total: 5})

	assert.Equal(t, "2 of 5 rows written: quota", err.Error())
	assert.ErrorIs(t, err, cause)

	var pwe *PartialWriteError
	require.True(t, errors.As(err, &pwe))
	assert.Equal(t, 2, pwe.Written)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(ErrConnection))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(ErrResolution))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
