package improvement

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// ReferenceSizer is a topology that may offer a closed-form sizing
type ReferenceSizer interface {
	Sizable
	OptimalWidthsByLogicalEffort() ([]float64, bool)
}

// Baseline is the logical-effort reference evaluated after a search
type Baseline struct {
	Supported bool
	Widths    []float64
	Outcome   oracle.Outcome
}

// EvaluateBaseline probes the logical-effort widths once at the given
// window. The result is for comparison only. The topology keeps the
// widths it had before the call.
func EvaluateBaseline(ctx context.Context, topology ReferenceSizer, o oracle.Oracle, window, step float64) (*Baseline, error) {
	widths, ok := topology.OptimalWidthsByLogicalEffort()
	if !ok {
		return &Baseline{Supported: false}, nil
	}

	previous := topology.Widths()
	if err := topology.SetWidths(widths); err != nil {
		return nil, fmt.Errorf("logical effort widths rejected: %w", err)
	}
	defer func() {
		_ = topology.SetWidths(previous)
	}()

	out, err := o.Simulate(ctx, oracle.Request{
		Widths: utils.CloneFloat64s(widths),
		Window: window,
		Step:   step,
		Edge:   oracle.EdgeFor(topology.InvertsOutput()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate logical effort baseline: %w", err)
	}
	return &Baseline{Supported: true, Widths: widths, Outcome: out}, nil
}

// Ratios are the width ratios between consecutive stages and from the
// last stage to the load
type Ratios struct {
	Stages        []float64
	Average       float64
	AverageNoLoad float64 // average of the stage-to-stage ratios only
}

// StageRatios computes width[i+1]/width[i] for every stage and
// load/width[N-1] for the last one
func StageRatios(widths []float64, loadWidth float64) Ratios {
	if len(widths) == 0 {
		return Ratios{}
	}
	stages := make([]float64, 0, len(widths))
	for i := 0; i+1 < len(widths); i++ {
		stages = append(stages, widths[i+1]/widths[i])
	}
	internal := utils.Mean(stages)
	stages = append(stages, loadWidth/widths[len(widths)-1])
	return Ratios{
		Stages:        stages,
		Average:       utils.Mean(stages),
		AverageNoLoad: internal,
	}
}

// BaselineComparison compares the search result with the baseline
type BaselineComparison struct {
	SearchDelay        float64
	BaselineDelay      float64
	DelayDiff          float64 // baseline - search
	Improvement        bool    // true if the search beat the baseline
	ImprovementPercent float64
	SearchTotalWidth   float64
	BaselineTotalWidth float64
}

// CompareBaseline compares best against a transitioned baseline. ok is
// false when either side has no delay.
func CompareBaseline(best *Result, baseline *Baseline) (cmp *BaselineComparison, ok bool) {
	if best == nil || baseline == nil || !baseline.Supported {
		return nil, false
	}
	baseDelay, transitioned := baseline.Outcome.Delay()
	if !transitioned {
		return nil, false
	}
	return &BaselineComparison{
		SearchDelay:        best.Delay,
		BaselineDelay:      baseDelay,
		DelayDiff:          baseDelay - best.Delay,
		Improvement:        best.Delay < baseDelay,
		ImprovementPercent: GetImprovementPercentage(baseDelay, best.Delay),
		SearchTotalWidth:   best.TotalWidth,
		BaselineTotalWidth: utils.Sum(baseline.Widths),
	}, true
}

// GetImprovementPercentage returns how much lower candidate is than
// reference, in percent of reference
func GetImprovementPercentage(reference, candidate float64) float64 {
	if reference == 0 {
		return 0
	}
	return (reference - candidate) / reference * 100
}
