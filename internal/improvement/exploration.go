package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// Perturber derives the next width vector from the current best one.
// Implementations must return a new slice, keep index 0 unchanged and
// keep every other entry within [lo, hi].
type Perturber interface {
	Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64
	// Name returns the name of the perturbation strategy
	Name() string
}

// LocalPerturber resamples every mutable width within a neighborhood of
// half-width min(w, (hi-lo)/Divisor) around its current value
type LocalPerturber struct {
	Divisor float64
}

// NewLocalPerturber creates a local perturber; divisor defaults to 20
func NewLocalPerturber(divisor float64) *LocalPerturber {
	if divisor <= 0 {
		divisor = 20
	}
	return &LocalPerturber{Divisor: divisor}
}

func (p *LocalPerturber) Name() string {
	return "local"
}

func (p *LocalPerturber) Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64 {
	next := utils.CloneFloat64s(base)
	span := (hi - lo) / p.Divisor
	for i := 1; i < len(next); i++ {
		w := next[i]
		half := math.Min(w, span)
		next[i] = rng.UniformFloat64(math.Max(lo, w-half), math.Min(hi, w+half))
	}
	return next
}

// GlobalSinglePerturber resamples one randomly chosen mutable width over
// the full range
type GlobalSinglePerturber struct{}

func (p *GlobalSinglePerturber) Name() string {
	return "global_single"
}

func (p *GlobalSinglePerturber) Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64 {
	next := utils.CloneFloat64s(base)
	if len(next) < 2 {
		return next
	}
	idx := rng.IntRange(1, len(next)-1)
	next[idx] = rng.UniformFloat64(lo, hi)
	return next
}

// ScalingPerturber resamples every mutable width between half and double
// its current value
type ScalingPerturber struct{}

func (p *ScalingPerturber) Name() string {
	return "scaling"
}

func (p *ScalingPerturber) Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64 {
	next := utils.CloneFloat64s(base)
	for i := 1; i < len(next); i++ {
		w := next[i]
		next[i] = rng.UniformFloat64(math.Max(lo, w/2), math.Min(hi, 2*w))
	}
	return next
}

// GlobalAllPerturber resamples every mutable width over the full range
type GlobalAllPerturber struct{}

func (p *GlobalAllPerturber) Name() string {
	return "global_all"
}

func (p *GlobalAllPerturber) Perturb(base []float64, lo, hi float64, rng *utils.RandSource) []float64 {
	next := utils.CloneFloat64s(base)
	for i := 1; i < len(next); i++ {
		next[i] = rng.UniformFloat64(lo, hi)
	}
	return next
}

// NewPerturber creates a perturber by name
func NewPerturber(name string, divisor float64) (Perturber, error) {
	switch name {
	case "local", "":
		return NewLocalPerturber(divisor), nil
	case "global_single":
		return &GlobalSinglePerturber{}, nil
	case "scaling":
		return &ScalingPerturber{}, nil
	case "global_all":
		return &GlobalAllPerturber{}, nil
	default:
		return nil, fmt.Errorf("unknown perturbation strategy: %s", name)
	}
}
