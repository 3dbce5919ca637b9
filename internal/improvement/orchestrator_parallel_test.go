package improvement

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

func TestRunMultistart(t *testing.T) {
	var calls int32
	cfg := testSessionConfig()
	cfg.Iterations = 100
	cfg.RecordDir = t.TempDir()

	m, err := RunMultistart(context.Background(), cfg, effortFactory(&calls), 4, 2)
	if err != nil {
		t.Fatalf("RunMultistart error: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected one oracle per start, got %d", calls)
	}
	if len(m.Reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(m.Reports))
	}

	seeds := make(map[int64]bool)
	for i, r := range m.Reports {
		if r == nil || r.Result.Best == nil {
			t.Fatalf("start %d: expected a result", i)
		}
		if m.Best.Result.Best.Delay > r.Result.Best.Delay {
			t.Errorf("winner %g is slower than start %d at %g", m.Best.Result.Best.Delay, i, r.Result.Best.Delay)
		}
		if r != m.Best && r.LogPath != "" {
			t.Errorf("start %d: only the winner should be recorded", i)
		}
		seeds[r.Seed] = true
	}
	if len(seeds) != 4 {
		t.Errorf("expected distinct seeds per start, got %v", seeds)
	}
	if m.Best.LogPath == "" {
		t.Fatalf("expected the winner to be recorded")
	}
	data, err := os.ReadFile(m.Best.LogPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("expected one recorded line, got %q", data)
	}
	if s := m.Spread(); s < 0 || s > 1 {
		t.Errorf("expected a spread between 0 and 1, got %g", s)
	}
}

func TestRunMultistartSeedsAreReplayable(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Iterations = 30
	a, err := RunMultistart(context.Background(), cfg, effortFactory(nil), 3, 3)
	if err != nil {
		t.Fatalf("RunMultistart error: %v", err)
	}
	b, err := RunMultistart(context.Background(), cfg, effortFactory(nil), 3, 1)
	if err != nil {
		t.Fatalf("RunMultistart error: %v", err)
	}
	for i := range a.Reports {
		if a.Reports[i].Seed != b.Reports[i].Seed {
			t.Errorf("start %d: seed %d differs from %d", i, a.Reports[i].Seed, b.Reports[i].Seed)
		}
		if a.Reports[i].Result.Best.Delay != b.Reports[i].Result.Best.Delay {
			t.Errorf("start %d: delay differs between worker counts", i)
		}
	}
}

func TestRunMultistartRespectsWorkerLimit(t *testing.T) {
	var inFlight, peak int32
	factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		inner := effortOracle(topology.LoadWidth())
		return oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			return inner.Simulate(ctx, req)
		}), nil
	}
	cfg := testSessionConfig()
	cfg.Iterations = 5
	if _, err := RunMultistart(context.Background(), cfg, factory, 6, 2); err != nil {
		t.Fatalf("RunMultistart error: %v", err)
	}
	if peak > 2 {
		t.Errorf("expected at most 2 concurrent probes, got %d", peak)
	}
}

func TestRunMultistartError(t *testing.T) {
	var calls int32
	factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		if atomic.AddInt32(&calls, 1) == 2 {
			return nil, errors.New("no simulator")
		}
		return effortOracle(topology.LoadWidth()), nil
	}
	cfg := testSessionConfig()
	cfg.Iterations = 10
	if _, err := RunMultistart(context.Background(), cfg, factory, 3, 1); err == nil {
		t.Fatal("expected the failing start to fail the run")
	}
	if _, err := RunMultistart(context.Background(), cfg, effortFactory(nil), 0, 1); err == nil {
		t.Error("expected an error for zero starts")
	}
}

func TestMultistartSpread(t *testing.T) {
	report := func(d float64) *RunReport {
		best := NewResult(d, []float64{1})
		return &RunReport{Result: &OptimizationResult{Best: &best}}
	}
	m := &MultistartReport{Reports: []*RunReport{report(10), report(8), {Result: &OptimizationResult{}}}}
	if got, want := m.Spread(), utils.RelativeDiff(8, 10); got != want {
		t.Errorf("expected spread %g, got %g", want, got)
	}
	single := &MultistartReport{Reports: []*RunReport{report(10)}}
	if single.Spread() != 0 {
		t.Errorf("expected zero spread for a single result")
	}
}

func TestRunMultistartFlakyOraclesOwnRetry(t *testing.T) {
	var (
		mu    sync.Mutex
		given = make(map[int64]bool)
	)
	factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		mu.Lock()
		given[seed] = true
		mu.Unlock()

		inner := effortOracle(topology.LoadWidth())
		calls := 0
		flaky := oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
			calls++
			if calls%2 == 1 {
				return oracle.Outcome{}, oracle.ErrSimulator
			}
			return inner.Simulate(ctx, req)
		})
		policy := oracle.NewRetryPolicy(2, "exponential", 1, 2, utils.NewRandSource(seed))
		return oracle.WithRetry(flaky, policy), nil
	}
	cfg := testSessionConfig()
	cfg.Iterations = 20

	m, err := RunMultistart(context.Background(), cfg, factory, 4, 4)
	if err != nil {
		t.Fatalf("RunMultistart error: %v", err)
	}
	for i, r := range m.Reports {
		if r.Result.Errors != 0 || r.Result.Successes != cfg.Iterations {
			t.Errorf("start %d: expected retries to absorb every failure, got %d errors and %d successes", i, r.Result.Errors, r.Result.Successes)
		}
		if !given[r.Seed] {
			t.Errorf("start %d: oracle was not built from the session seed %d", i, r.Seed)
		}
	}
	if len(given) != 4 {
		t.Errorf("expected one distinct seed per oracle, got %v", given)
	}
}
