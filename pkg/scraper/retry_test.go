package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps returns a Sleeper that records delays instead of waiting.
func recordSleeps(delays *[]time.Duration) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func unavailable() error {
	return &StatusError{URL: "http://example.test", StatusCode: http.StatusServiceUnavailable}
}

func TestRetryPolicyDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after two 503s with doubling backoff", func(t *testing.T) {
		var delays []time.Duration
		p := NewRetryPolicy(5, time.Second)
		p.Sleep = recordSleeps(&delays)

		calls := 0
		err := p.Do(ctx, func(attempt int) error {
			calls++
			if attempt < 2 {
				return unavailable()
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
	})

	t.Run("aborts immediately on other errors", func(t *testing.T) {
		var delays []time.Duration
		p := NewRetryPolicy(5, time.Second)
		p.Sleep = recordSleeps(&delays)

		calls := 0
		err := p.Do(ctx, func(int) error {
			calls++
			return &StatusError{StatusCode: http.StatusNotFound}
		})

		assert.ErrorIs(t, err, ErrBadStatus)
		assert.Equal(t, 1, calls)
		assert.Empty(t, delays)
	})

	t.Run("gives up after max attempts without a trailing sleep", func(t *testing.T) {
		var delays []time.Duration
		p := NewRetryPolicy(5, time.Second)
		p.Sleep = recordSleeps(&delays)

		calls := 0
		err := p.Do(ctx, func(int) error {
			calls++
			return unavailable()
		})

		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Equal(t, 5, calls)
		assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
	})

	t.Run("stops when the context is cancelled while waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		p := NewRetryPolicy(5, time.Hour)
		err := p.Do(cctx, func(int) error { return unavailable() })

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("calls OnRetry before each wait", func(t *testing.T) {
		var attempts []int
		p := NewRetryPolicy(3, time.Millisecond)
		p.Sleep = recordSleeps(new([]time.Duration))
		p.OnRetry = func(attempt int, _ time.Duration, _ error) {
			attempts = append(attempts, attempt)
		}

		_ = p.Do(ctx, func(int) error { return unavailable() })

		assert.Equal(t, []int{0, 1}, attempts)
	})
}

func TestStatusErrorIs(t *testing.T) {
	var err error = &StatusError{StatusCode: http.StatusServiceUnavailable}
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.False(t, errors.Is(err, ErrBadStatus))

	err = &StatusError{StatusCode: http.StatusForbidden}
	assert.False(t, errors.Is(err, ErrServiceUnavailable))
	assert.True(t, errors.Is(err, ErrBadStatus))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
