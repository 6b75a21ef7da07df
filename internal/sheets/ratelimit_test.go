package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := newRateLimiter(60)
		rl.now = func() time.Time { return clock }
		rl.lastRefill = clock

		for i := 0; i < 60; i++ {
			assert.Zero(t, rl.reserve(), "request %d", i+1)
		}
		assert.Equal(t, time.Second, rl.reserve())

		clock = clock.Add(time.Second)
		assert.Zero(t, rl.reserve())
	})

	t.Run("refill never exceeds capacity", func(t *testing.T) {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := newRateLimiter(2)
		rl.now = func() time.Time { return clock }
		rl.lastRefill = clock

		clock = clock.Add(time.Hour)
		assert.Zero(t, rl.reserve())
		assert.Zero(t, rl.reserve())
		assert.Positive(t, rl.reserve())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter canceled")
	})

	t.Run("disabled", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Nil(t, rl)
		assert.NoError(t, rl.wait(context.Background()))
	})
}
