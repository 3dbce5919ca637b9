package improvement

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// fakeTopology is a bounded width vector with unit-less widths
type fakeTopology struct {
	widths  []float64
	lo, hi  float64
	inverts bool
	optimal []float64
}

func newFakeTopology(n int, lo, hi float64) *fakeTopology {
	w := make([]float64, n)
	for i := range w {
		w[i] = lo
	}
	return &fakeTopology{widths: w, lo: lo, hi: hi}
}

func (f *fakeTopology) Widths() []float64   { return utils.CloneFloat64s(f.widths) }
func (f *fakeTopology) MinWidth() float64   { return f.lo }
func (f *fakeTopology) MaxWidth() float64   { return f.hi }
func (f *fakeTopology) InvertsOutput() bool { return f.inverts }

func (f *fakeTopology) SetWidths(w []float64) error {
	if len(w) != len(f.widths) {
		return fmt.Errorf("length mismatch")
	}
	for i := 1; i < len(w); i++ {
		if w[i] < f.lo || w[i] > f.hi {
			return fmt.Errorf("width %g out of range", w[i])
		}
	}
	copy(f.widths[1:], w[1:])
	return nil
}

func (f *fakeTopology) OptimalWidthsByLogicalEffort() ([]float64, bool) {
	if f.optimal == nil {
		return nil, false
	}
	return utils.CloneFloat64s(f.optimal), true
}

// recordingOracle wraps a delay function and records every request
type recordingOracle struct {
	mu       sync.Mutex
	requests []oracle.Request
	fn       func(req oracle.Request) (oracle.Outcome, error)
}

func (r *recordingOracle) Simulate(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.fn(req)
}

func (r *recordingOracle) windows() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.Window
	}
	return out
}

// sumOracle reports delay = sum(widths)
func sumOracle() *recordingOracle {
	return &recordingOracle{fn: func(req oracle.Request) (oracle.Outcome, error) {
		return oracle.Transitioned(utils.Sum(req.Widths)), nil
	}}
}

// scriptedPerturber returns the given vectors in order, then repeats the last
type scriptedPerturber struct {
	next [][]float64
}

func (p *scriptedPerturber) Name() string { return "scripted" }

func (p *scriptedPerturber) Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64 {
	if len(p.next) == 0 {
		return utils.CloneFloat64s(base)
	}
	v := p.next[0]
	if len(p.next) > 1 {
		p.next = p.next[1:]
	}
	return utils.CloneFloat64s(v)
}

func allPerturbers() []Perturber {
	return []Perturber{
		NewLocalPerturber(20),
		&GlobalSinglePerturber{},
		&ScalingPerturber{},
		&GlobalAllPerturber{},
	}
}
