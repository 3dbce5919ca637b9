package improvement

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// Sizable is the part of a path topology the optimizer drives
type Sizable interface {
	Widths() []float64
	SetWidths(widths []float64) error
	MinWidth() float64
	MaxWidth() float64
	InvertsOutput() bool
}

// Strategy bundles the three policies that distinguish search variants
type Strategy struct {
	Perturber Perturber
	TieBreak  TieBreakPolicy
	Window    WindowPolicy
}

// DefaultStrategy is local perturbation with a 1% area tolerance and the
// default adaptive window
func DefaultStrategy() Strategy {
	return Strategy{
		Perturber: NewLocalPerturber(20),
		TieBreak:  &AreaTolerancePolicy{Percent: 1.0},
		Window:    NewAdaptiveWindow(),
	}
}

// ProgressReporter is called every progress interval with the iteration
// index and the current best, which is nil before the first transition
type ProgressReporter func(iteration int, best *Result)

// Optimizer runs the adaptive Monte-Carlo search. One Optimizer drives
// one topology; it must not be shared between concurrent runs.
type Optimizer struct {
	topology      Sizable
	oracle        oracle.Oracle
	strategy      Strategy
	maxIterations int
	step          float64
	rng           *utils.RandSource
	progressEvery int
	progress      ProgressReporter

	mu        sync.RWMutex
	best      *Result
	window    float64
	succeeded bool
	iteration int
	history   []OptimizationStep
}

// OptimizationStep records one adoption of a new best
type OptimizationStep struct {
	Iteration  int
	Delay      float64
	TotalWidth float64
	Window     float64
}

// OptimizationResult contains the final search result
type OptimizationResult struct {
	Best         *Result // nil when no probe ever transitioned
	Iterations   int
	Successes    int
	Failures     int // probes without a transition
	Errors       int // probes the oracle could not carry out
	Window       float64
	FastestDelay float64 // smallest delay observed, 0 without a transition
	History      []OptimizationStep
	Duration     time.Duration
}

// NewOptimizer creates an optimizer. A nil rng is replaced by a time-seeded source.
func NewOptimizer(topology Sizable, o oracle.Oracle, strategy Strategy, maxIterations int, step float64, rng *utils.RandSource) *Optimizer {
	def := DefaultStrategy()
	if strategy.Perturber == nil {
		strategy.Perturber = def.Perturber
	}
	if strategy.TieBreak == nil {
		strategy.TieBreak = def.TieBreak
	}
	if strategy.Window == nil {
		strategy.Window = def.Window
	}
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &Optimizer{
		topology:      topology,
		oracle:        o,
		strategy:      strategy,
		maxIterations: maxIterations,
		step:          step,
		rng:           rng,
		progressEvery: 100,
	}
}

// WithProgressReporter sets a callback invoked every progress interval
func (o *Optimizer) WithProgressReporter(fn ProgressReporter) *Optimizer {
	o.progress = fn
	return o
}

// WithProgressEvery sets the progress interval; 0 disables progress reports
func (o *Optimizer) WithProgressEvery(n int) *Optimizer {
	o.progressEvery = n
	return o
}

// Optimize runs the search for the configured number of iterations.
// Oracle failures are counted and never abort the run. Cancelling ctx
// stops the run and returns the partial result together with ctx.Err().
func (o *Optimizer) Optimize(ctx context.Context) (*OptimizationResult, error) {
	if o.topology == nil {
		return nil, fmt.Errorf("topology is required")
	}
	if o.oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if o.maxIterations < 0 {
		return nil, fmt.Errorf("iterations cannot be negative, got %d", o.maxIterations)
	}
	if !(o.step > 0) {
		return nil, fmt.Errorf("step must be positive, got %g", o.step)
	}

	start := time.Now()
	lo, hi := o.topology.MinWidth(), o.topology.MaxWidth()
	edge := oracle.EdgeFor(o.topology.InvertsOutput())
	widths := o.topology.Widths()

	o.mu.Lock()
	o.best = nil
	o.window = o.strategy.Window.Initial()
	o.succeeded = false
	o.iteration = 0
	o.history = make([]OptimizationStep, 0)
	o.mu.Unlock()

	res := &OptimizationResult{}
	fastest := math.Inf(1)

	logger.Info("starting search",
		"iterations", o.maxIterations,
		"perturbation", o.strategy.Perturber.Name(),
		"tie_break", o.strategy.TieBreak.Name(),
		"window", o.strategy.Window.Initial(),
		"seed", o.rng.Seed())

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return o.finish(res, fastest, start), err
		}

		o.mu.Lock()
		o.iteration = iteration
		window := o.window
		o.mu.Unlock()

		if err := o.topology.SetWidths(widths); err != nil {
			return o.finish(res, fastest, start), fmt.Errorf("iteration %d: %w", iteration, err)
		}

		out, err := o.oracle.Simulate(ctx, oracle.Request{
			Widths: utils.CloneFloat64s(widths),
			Window: window,
			Step:   o.step,
			Edge:   edge,
		})
		res.Iterations = iteration

		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return o.finish(res, fastest, start), ctxErr
			}
			res.Errors++
			logger.Warn("simulation failed", "iteration", iteration, "error", err)
			if !o.hasSucceeded() {
				o.report(iteration)
				continue
			}

		case !out.Transitioned():
			res.Failures++
			if !o.hasSucceeded() {
				o.mu.Lock()
				o.window = o.strategy.Window.Grow(window)
				grown := o.window
				o.mu.Unlock()
				logger.Verbose("no transition, growing window", "iteration", iteration, "window", grown)
				o.report(iteration)
				continue
			}
			logger.Debug("no transition", "iteration", iteration)

		default:
			delay, _ := out.Delay()
			res.Successes++
			fastest = math.Min(fastest, delay)
			candidate := NewResult(delay, widths)
			logger.Verbose("transition", "iteration", iteration, "tp", delay, "total_width", candidate.TotalWidth)

			o.mu.Lock()
			o.succeeded = true
			if o.best == nil || o.strategy.TieBreak.Prefer(candidate, *o.best, fastest) {
				o.best = &candidate
				o.window = o.strategy.Window.Settle(delay)
				o.history = append(o.history, OptimizationStep{
					Iteration:  iteration,
					Delay:      delay,
					TotalWidth: candidate.TotalWidth,
					Window:     o.window,
				})
				logger.Verbose("new best", "iteration", iteration, "tp", delay, "window", o.window)
			}
			o.mu.Unlock()
		}

		o.mu.RLock()
		base := o.best.Widths
		o.mu.RUnlock()
		widths = o.strategy.Perturber.Perturb(base, lo, hi, o.rng)
		o.report(iteration)
	}

	return o.finish(res, fastest, start), nil
}

func (o *Optimizer) hasSucceeded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.succeeded
}

func (o *Optimizer) report(iteration int) {
	if o.progressEvery <= 0 || iteration%o.progressEvery != 0 {
		return
	}
	best := o.Best()
	logger.Info("search progress", "iteration", iteration, "of", o.maxIterations)
	if o.progress != nil {
		o.progress(iteration, best)
	}
}

// finish leaves the topology sized to the best widths and builds the result
func (o *Optimizer) finish(res *OptimizationResult, fastest float64, start time.Time) *OptimizationResult {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.best != nil {
		best := NewResult(o.best.Delay, o.best.Widths)
		res.Best = &best
		if err := o.topology.SetWidths(best.Widths); err != nil {
			logger.Warn("failed to restore best widths", "error", err)
		}
	}
	if !math.IsInf(fastest, 1) {
		res.FastestDelay = fastest
	}
	res.Window = o.window
	res.History = append([]OptimizationStep(nil), o.history...)
	res.Duration = time.Since(start)
	return res
}

// Best returns a copy of the current best, or nil
func (o *Optimizer) Best() *Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.best == nil {
		return nil
	}
	best := NewResult(o.best.Delay, o.best.Widths)
	return &best
}

// Window returns the current simulation window
func (o *Optimizer) Window() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.window
}

// Iteration returns the index of the iteration in progress
func (o *Optimizer) Iteration() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.iteration
}
