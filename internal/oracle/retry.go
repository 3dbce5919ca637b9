package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// RetryPolicy decides whether a failed probe is repeated and how long to
// wait before the next attempt
type RetryPolicy struct {
	MaxRetries int
	Backoff    utils.BackoffStrategy
}

// NewRetryPolicy creates a retry policy with explicit parameters. The
// policy owns jitter; build one per search.
func NewRetryPolicy(maxRetries int, backoff string, baseMs, maxMs int, jitter *utils.RandSource) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Backoff:    utils.BackoffFromConfig(backoff, baseMs, maxMs, jitter),
	}
}

// ShouldRetry reports whether attempt (0-indexed) may be followed by another
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, ErrInvalidRequest)
}

// BackoffDuration returns the wait before retry number attempt
func (p RetryPolicy) BackoffDuration(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff.NextDelay(attempt)
}

// WithRetry returns an oracle that repeats failed probes according to p
func WithRetry(next Oracle, p RetryPolicy) Oracle {
	if p.MaxRetries <= 0 {
		return next
	}
	return Func(func(ctx context.Context, req Request) (Outcome, error) {
		for attempt := 0; ; attempt++ {
			out, err := next.Simulate(ctx, req)
			if !p.ShouldRetry(attempt, err) {
				return out, err
			}
			wait := p.BackoffDuration(attempt)
			logger.Warn("simulation failed, retrying", "attempt", attempt+1, "backoff", wait, "error", err)
			select {
			case <-ctx.Done():
				return Outcome{}, ctx.Err()
			case <-time.After(wait):
			}
		}
	})
}
