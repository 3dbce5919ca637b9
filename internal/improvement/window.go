package improvement

import "math"

// WindowPolicy adapts the simulated time window between probes
type WindowPolicy interface {
	// Initial returns the window of the first probe
	Initial() float64
	// Grow returns the window after a probe saw no transition before any
	// probe ever succeeded
	Grow(window float64) float64
	// Settle returns the window after a candidate with the given delay is
	// adopted as the best
	Settle(delay float64) float64
	Name() string
}

// AdaptiveWindow grows by a fixed increment until the first transition and
// then tracks the best delay plus a margin, never dropping below Floor.
// A zero Floor means the initial window.
type AdaptiveWindow struct {
	Start     float64
	Increment float64
	Margin    float64
	Floor     float64
}

// NewAdaptiveWindow creates the default policy: 100ps start and increment,
// 50ps margin
func NewAdaptiveWindow() *AdaptiveWindow {
	return &AdaptiveWindow{
		Start:     100e-12,
		Increment: 100e-12,
		Margin:    50e-12,
	}
}

func (w *AdaptiveWindow) Name() string {
	return "adaptive"
}

func (w *AdaptiveWindow) Initial() float64 {
	return w.Start
}

func (w *AdaptiveWindow) Grow(window float64) float64 {
	return window + w.Increment
}

func (w *AdaptiveWindow) Settle(delay float64) float64 {
	return math.Max(delay+w.Margin, w.floor())
}

func (w *AdaptiveWindow) floor() float64 {
	if w.Floor > 0 {
		return w.Floor
	}
	return w.Start
}
