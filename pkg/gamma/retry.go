package gamma

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// DefaultMaxRetries is the number of extra attempts after the first one.
const DefaultMaxRetries = 3

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc.
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

// Retrier re-runs a transport operation while its failures classify as
// retryable, up to MaxRetries extra attempts.
type Retrier struct {
	MaxRetries int
	Backoff    BackoffProfile
	Jitter     JitterFunc
	Sleep      SleepFunc
	Metrics    *Metrics
	Log        *logr.Logger
}

// NewRetrier returns a Retrier using the submission backoff profile.
func NewRetrier(maxRetries int) *Retrier {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Retrier{
		MaxRetries: maxRetries,
		Backoff:    SubmitBackoff,
	}
}

func (r *Retrier) logger(ctx context.Context) logr.Logger {
	if r.Log != nil {
		return *r.Log
	}
	return logr.FromContextOrDiscard(ctx)
}

func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// Retry runs fn until it succeeds, fails with a non-retryable classification,
// or the retry budget is spent. The last error is returned unchanged.
func Retry[T any](ctx context.Context, r *Retrier, operation string, fn func(context.Context) (T, error)) (T, error) {
	log := r.logger(ctx).WithValues("operation", operation)

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := Classify(err)
		if !class.Retryable() {
			return result, err
		}
		if attempt >= r.MaxRetries {
			log.Info("Retry budget exhausted", "attempts", attempt+1, "class", class.Kind, "error", err.Error())
			return result, err
		}

		delay := r.Backoff.Delay(attempt, class, r.Jitter)
		log.Info("Request failed, retrying",
			"attempt", attempt+1,
			"maxRetries", r.MaxRetries,
			"class", class.Kind,
			"delay", delay.String(),
		)
		r.Metrics.retry(operation, class.Kind)

		if err := r.sleep(ctx, delay); err != nil {
			return result, err
		}
	}
}
