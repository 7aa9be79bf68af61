package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Decision int

const (
	Abort Decision = iota
	Retry
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy is a bounded retry loop: at most MaxAttempts calls, Delay(attempt)
// between them, stopping early when Classify says Abort.
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
	Classify    func(err error) Decision
	Sleep       Sleeper

	// OnRetry is called before sleeping, if set.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy retries 503s with base * 2^attempt delays.
func NewRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       ExponentialBackoff(base),
		Classify:    RetryOnUnavailable,
		Sleep:       SleepContext,
	}
}

// ExponentialBackoff returns base * 2^attempt, attempt starting at 0.
func ExponentialBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return base << uint(attempt)
	}
}

func RetryOnUnavailable(err error) Decision {
	if errors.Is(err, ErrServiceUnavailable) {
		return Retry
	}
	return Abort
}

// Do calls fn until it succeeds, fails with an Abort error, or attempts run out.
// No delay follows the last attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if p.Classify(err) == Abort {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return fmt.Errorf("retry wait interrupted: %w", serr)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, err)
}
