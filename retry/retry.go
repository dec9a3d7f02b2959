// Package retry wraps an operation with bounded exponential backoff. It is
// deliberately free of provider types: callers decide what is retryable,
// usually by handing in a classifier.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/wirebird/tern/pkg/slogx"
)

// Policy controls how a failed operation is reattempted. Retries counts the
// attempts made after the first one, so Retries 3 means at most four calls.
type Policy struct {
	Retries    int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// Default returns the policy providers start from: three retries backing off
// 1s, 2s, 4s, never waiting longer than 30s.
func Default() Policy {
	return Policy{
		Retries:    3,
		BaseDelay:  time.Second,
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
	}
}

// WithRetries returns a copy of the policy with the retry count replaced.
// Negative counts clamp to zero.
func (p Policy) WithRetries(n int) Policy {
	if n < 0 {
		n = 0
	}
	p.Retries = n
	return p
}

// Delay returns the backoff before the given retry, 1-indexed: BaseDelay for
// the first, multiplied per step after that, capped at MaxDelay.
func (p Policy) Delay(retry int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retry-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs fn, reattempting failures the classifier accepts until the policy
// is exhausted. The last failure comes back unchanged, so callers can
// errors.As it exactly as if there had been no retry layer. A nil retryable
// treats every failure as worth reattempting. Cancellation during backoff
// returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(context.Context) error, retryable func(error) bool) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.Retries {
			return err
		}
		if retryable != nil && !retryable(err) {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.Debug("retrying after backoff",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slogx.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
