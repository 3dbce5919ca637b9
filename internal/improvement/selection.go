package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// Result is one evaluated width vector
type Result struct {
	Delay      float64
	Widths     []float64
	TotalWidth float64
}

// NewResult snapshots widths and computes their total
func NewResult(delay float64, widths []float64) Result {
	return Result{
		Delay:      delay,
		Widths:     utils.CloneFloat64s(widths),
		TotalWidth: utils.Sum(widths),
	}
}

// TieBreakPolicy decides whether a candidate replaces the current best.
// fastest is the lowest delay observed so far, the candidate included.
type TieBreakPolicy interface {
	Prefer(candidate, best Result, fastest float64) bool
	// Name returns the name of the policy
	Name() string
}

// AreaTolerancePolicy adopts a faster candidate, or one using less total
// width whose delay is at most Percent above the fastest delay seen. The band
// is anchored to the fastest delay so successive adoptions cannot drift.
type AreaTolerancePolicy struct {
	Percent float64
}

func (p *AreaTolerancePolicy) Name() string {
	return "area_tolerance"
}

func (p *AreaTolerancePolicy) Prefer(candidate, best Result, fastest float64) bool {
	if candidate.Delay < best.Delay {
		return true
	}
	return candidate.Delay <= fastest*(1+p.Percent/100) && candidate.TotalWidth < best.TotalWidth
}

// StrictDelayPolicy adopts only strictly faster candidates
type StrictDelayPolicy struct{}

func (p *StrictDelayPolicy) Name() string {
	return "strict"
}

func (p *StrictDelayPolicy) Prefer(candidate, best Result, _ float64) bool {
	return candidate.Delay < best.Delay
}

// NewTieBreakPolicy creates a policy by name
func NewTieBreakPolicy(name string, percent float64) (TieBreakPolicy, error) {
	switch name {
	case "area_tolerance", "":
		if percent < 0 {
			return nil, fmt.Errorf("tolerance percent cannot be negative, got %g", percent)
		}
		return &AreaTolerancePolicy{Percent: percent}, nil
	case "strict":
		return &StrictDelayPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown tie-break policy: %s", name)
	}
}

// SelectBest folds candidates through the policy in order and returns the
// index of the winner, or -1 when there are none
func SelectBest(candidates []Result, policy TieBreakPolicy) int {
	best := -1
	fastest := math.Inf(1)
	for i, c := range candidates {
		fastest = math.Min(fastest, c.Delay)
		if best < 0 || policy.Prefer(c, candidates[best], fastest) {
			best = i
		}
	}
	return best
}
