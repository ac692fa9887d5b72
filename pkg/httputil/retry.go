package httputil

import (
	"context"
	"errors"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
)

// Policy configures [Retry]. The zero value performs a single attempt.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the backoff unit; attempt n sleeps BaseDelay * 2^n.
	BaseDelay time.Duration
	// MaxDelay caps any single sleep, including retry-after hints. Zero means no cap.
	MaxDelay time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each sleep. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy is 3 retries with a 1 second base delay.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   time.Minute,
}

// Retry runs fn up to p.MaxRetries+1 times.
//
// Failures are classified as follows:
//   - [cerrors.RateLimitError]: sleep the retry-after hint (or the backoff
//     delay when there is none) and retry.
//   - Errors carrying a 4xx status other than 408 and 429: returned at once.
//   - Parse, identifier and context errors: returned at once.
//   - Anything else (network, 5xx, timeouts): sleep BaseDelay * 2^attempt
//     and retry.
//
// When the budget is exhausted the last error is returned. If ctx is
// cancelled during a sleep, ctx.Err() is returned.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.MaxRetries, 0) + 1
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.backoff(attempt)
		var rl *cerrors.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			delay = p.cap(rl.RetryAfter)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] using [DefaultPolicy].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultPolicy, fn)
}

func (p Policy) backoff(attempt int) time.Duration {
	return p.cap(p.BaseDelay << attempt)
}

func (p Policy) cap(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func retryable(err error) bool {
	// A 408 may wrap the per-request deadline; only the caller's context
	// ending is terminal.
	if status := cerrors.StatusCode(err); status == 408 || status == 429 {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, cerrors.ErrNotFound) {
		return false
	}
	switch cerrors.GetCode(err) {
	case cerrors.ErrCodeNotFound, cerrors.ErrCodeParse, cerrors.ErrCodeIdentifierMissing, cerrors.ErrCodeInvalidIdentifier, cerrors.ErrCodeInvalidInput:
		return false
	}
	status := cerrors.StatusCode(err)
	if status >= 400 && status < 500 && status != 408 && status != 429 {
		return false
	}
	return true
}

func timerSleep(ctx context.Context, d time.Duration) error {
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
