// Package oracle defines the simulation capability the optimizer consults
// and the implementations that drive an external circuit simulator.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// ErrInvalidRequest is returned for requests that cannot be simulated
var ErrInvalidRequest = errors.New("invalid simulation request")

// Edge is the output polarity the oracle watches for
type Edge int

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	if e == Falling {
		return "falling"
	}
	return "rising"
}

// EdgeFor returns the output edge a rising input produces on a path that
// does or does not invert
func EdgeFor(inverts bool) Edge {
	if inverts {
		return Falling
	}
	return Rising
}

// ParseEdge parses the String form of an Edge
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "rising":
		return Rising, nil
	case "falling":
		return Falling, nil
	}
	return Rising, fmt.Errorf("%w: unknown edge %q", ErrInvalidRequest, s)
}

// Request is one probe: the widths already applied to the circuit, the
// simulated time window and the step resolution, both in seconds.
type Request struct {
	Widths []float64
	Window float64
	Step   float64
	Edge   Edge
}

// Validate checks the numeric fields of the request
func (r Request) Validate() error {
	if !(r.Window > 0) || math.IsInf(r.Window, 0) {
		return fmt.Errorf("%w: window must be positive, got %g", ErrInvalidRequest, r.Window)
	}
	if !(r.Step > 0) || r.Step > r.Window {
		return fmt.Errorf("%w: step must be positive and within the window, got %g", ErrInvalidRequest, r.Step)
	}
	if r.Edge != Rising && r.Edge != Falling {
		return fmt.Errorf("%w: unknown edge %d", ErrInvalidRequest, r.Edge)
	}
	return nil
}

// Outcome is either Transitioned(delay) or NoTransition
type Outcome struct {
	transitioned bool
	delay        float64
}

// Transitioned builds an outcome carrying a positive delay
func Transitioned(delay float64) Outcome {
	return Outcome{transitioned: true, delay: delay}
}

// NoTransition builds the outcome for a window with no output crossing
func NoTransition() Outcome {
	return Outcome{}
}

// Transitioned reports whether the output crossed within the window
func (o Outcome) Transitioned() bool {
	return o.transitioned
}

// Delay returns the propagation delay and whether there was one
func (o Outcome) Delay() (float64, bool) {
	return o.delay, o.transitioned
}

func (o Outcome) String() string {
	if !o.transitioned {
		return "no transition"
	}
	return "tp=" + utils.FormatSI(o.delay, 6) + "s"
}

// Oracle evaluates one width vector. An error means the simulation could
// not be carried out; a missing transition is reported as NoTransition.
type Oracle interface {
	Simulate(ctx context.Context, req Request) (Outcome, error)
}

// Func adapts a function to the Oracle interface
type Func func(ctx context.Context, req Request) (Outcome, error)

// Simulate calls f
func (f Func) Simulate(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

// WidthSetter is satisfied by path topologies
type WidthSetter interface {
	SetWidths(widths []float64) error
}

// ApplyWidths returns an oracle that applies the request widths to the
// setter before delegating. Used where the oracle side owns the circuit.
// Probes are serialized so each simulation sees its own widths.
func ApplyWidths(setter WidthSetter, next Oracle) Oracle {
	var mu sync.Mutex
	return Func(func(ctx context.Context, req Request) (Outcome, error) {
		mu.Lock()
		defer mu.Unlock()
		if err := setter.SetWidths(req.Widths); err != nil {
			return Outcome{}, err
		}
		return next.Simulate(ctx, req)
	})
}
