// Package backoff retries remote operations that fail because the API is
// rate limiting the caller. It is the only place in the program where a
// failed call is attempted again.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts bounds how often a rate-limited operation is tried.
	DefaultMaxAttempts = 3
	// DefaultDelay is the wait before a retry when the API suggests none.
	DefaultDelay = 1 * time.Second
)

// ErrRetriesExhausted marks an operation abandoned because every attempt
// was rejected with a rate-limit response.
var ErrRetriesExhausted = errors.New("rate limit retries exhausted")

// RetryAfterFunc reports whether err is a rate-limit rejection and, if so,
// the server-suggested wait. A non-positive wait falls back to the policy
// default.
type RetryAfterFunc func(err error) (time.Duration, bool)

// Policy wraps single remote calls with bounded retry-on-rate-limit.
// Any failure the classifier does not recognize as rate limiting abandons
// the call immediately; retry state is local to one Do invocation.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	RetryAfter  RetryAfterFunc

	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPolicy builds a retry policy around the given classifier. Zero values
// for maxAttempts and delay select the defaults.
func NewPolicy(maxAttempts int, delay time.Duration, retryAfter RetryAfterFunc, logger *zap.Logger) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	return &Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		RetryAfter:  retryAfter,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Do invokes op, retrying while the classifier reports rate limiting and
// attempts remain. desc names the operation in log lines so a skipped item
// or batch can be traced back.
func (p *Policy) Do(ctx context.Context, desc string, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		wait, rateLimited := p.RetryAfter(err)
		if !rateLimited {
			return err
		}

		if attempt >= p.MaxAttempts {
			return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrRetriesExhausted, desc, attempt, err)
		}

		if wait <= 0 {
			wait = p.Delay
		}

		p.logger.Warn("Rate limit reached, waiting before retry",
			zap.String("operation", desc),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", p.MaxAttempts))

		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// DoValue is Do for operations that produce a result.
func DoValue[T any](ctx context.Context, p *Policy, desc string, op func() (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, desc, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
