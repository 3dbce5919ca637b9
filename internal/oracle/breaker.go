package oracle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
)

// ErrBreakerOpen is returned without probing while the breaker is open
var ErrBreakerOpen = errors.New("simulator breaker open")

// BreakerState is the state of a Breaker
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"    // probes pass
	BreakerOpen     BreakerState = "open"      // probes rejected
	BreakerHalfOpen BreakerState = "half_open" // probes pass until the next error
)

// Breaker stops probing a failing simulator. After FailureThreshold
// consecutive errors it rejects probes for Cooldown, then lets probes
// through again; SuccessThreshold completed probes close it, any error
// reopens it. A missing transition counts as a completed probe.
type Breaker struct {
	next             Oracle
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	stateChange time.Time
}

// NewBreaker wraps next. A failureThreshold below 1 disables the breaker.
func NewBreaker(next Oracle, failureThreshold, successThreshold int, cooldown time.Duration) *Breaker {
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &Breaker{
		next:             next,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		now:              time.Now,
		state:            BreakerClosed,
	}
}

// Simulate probes next unless the breaker is open
func (b *Breaker) Simulate(ctx context.Context, req Request) (Outcome, error) {
	if b.failureThreshold < 1 {
		return b.next.Simulate(ctx, req)
	}
	if !b.allow() {
		return Outcome{}, ErrBreakerOpen
	}
	out, err := b.next.Simulate(ctx, req)
	switch {
	case err == nil:
		b.recordSuccess()
	case errors.Is(err, ErrInvalidRequest), ctx.Err() != nil:
	default:
		b.recordFailure()
	}
	return out, err
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halfOpenIfCooled()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halfOpenIfCooled()
	return b.state != BreakerOpen
}

// halfOpenIfCooled must be called with mu held
func (b *Breaker) halfOpenIfCooled() {
	if b.state == BreakerOpen && b.now().Sub(b.stateChange) >= b.cooldown {
		b.state = BreakerHalfOpen
		b.successes = 0
		b.stateChange = b.now()
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = BreakerClosed
			b.failures = 0
			b.stateChange = b.now()
			logger.Info("simulator breaker closed")
		}
	case BreakerClosed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	switch b.state {
	case BreakerHalfOpen:
		b.open()
	case BreakerClosed:
		if b.failures >= b.failureThreshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.successes = 0
	b.stateChange = b.now()
	logger.Warn("simulator breaker opened", "failures", b.failures, "cooldown", b.cooldown)
}
