package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2}
	boom := errors.New("boom")

	if !p.ShouldRetry(0, boom) || !p.ShouldRetry(1, boom) {
		t.Fatalf("expected retries within the limit")
	}
	if p.ShouldRetry(2, boom) {
		t.Fatalf("expected no retry at the limit")
	}
	if p.ShouldRetry(0, nil) {
		t.Fatalf("expected no retry without error")
	}
	if p.ShouldRetry(0, context.Canceled) {
		t.Fatalf("expected no retry on cancellation")
	}
	if p.ShouldRetry(0, ErrInvalidRequest) {
		t.Fatalf("expected no retry on invalid request")
	}
}

func TestWithRetry(t *testing.T) {
	calls := 0
	flaky := Func(func(ctx context.Context, req Request) (Outcome, error) {
		calls++
		if calls < 3 {
			return Outcome{}, ErrSimulator
		}
		return Transitioned(1e-12), nil
	})

	o := WithRetry(flaky, RetryPolicy{MaxRetries: 3, Backoff: utils.NewConstantBackoff(time.Millisecond)})
	out, err := o.Simulate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !out.Transitioned() || calls != 3 {
		t.Errorf("expected 3 calls and a transition, got %d calls, %v", calls, out)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	broken := Func(func(ctx context.Context, req Request) (Outcome, error) {
		calls++
		return Outcome{}, ErrSimulator
	})
	o := WithRetry(broken, NewRetryPolicy(2, "constant", 0, 0, nil))
	if _, err := o.Simulate(context.Background(), Request{}); !errors.Is(err, ErrSimulator) {
		t.Fatalf("expected ErrSimulator, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broken := Func(func(ctx context.Context, req Request) (Outcome, error) {
		cancel()
		return Outcome{}, ErrSimulator
	})
	o := WithRetry(broken, RetryPolicy{MaxRetries: 5, Backoff: utils.NewConstantBackoff(time.Hour)})
	if _, err := o.Simulate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type recordingSetter struct {
	widths []float64
	err    error
}

func (r *recordingSetter) SetWidths(w []float64) error {
	if r.err != nil {
		return r.err
	}
	r.widths = w
	return nil
}

func TestApplyWidths(t *testing.T) {
	setter := &recordingSetter{}
	inner := Func(func(ctx context.Context, req Request) (Outcome, error) {
		if len(setter.widths) != 2 {
			t.Errorf("widths not applied before simulation")
		}
		return Transitioned(1), nil
	})
	o := ApplyWidths(setter, inner)
	if _, err := o.Simulate(context.Background(), Request{Widths: []float64{1, 2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	setter.err = errors.New("out of range")
	if _, err := o.Simulate(context.Background(), Request{Widths: []float64{1, 2}}); err == nil {
		t.Fatal("expected setter error to be returned")
	}
}
