package path

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWidth is matched by every width rejected by SetWidths
	ErrInvalidWidth = errors.New("invalid width")
	// ErrAlreadyInstantiated is returned when a topology is instantiated twice
	ErrAlreadyInstantiated = errors.New("topology already instantiated")
	// ErrStimulusArity is returned when a stimulus does not cover the side inputs
	ErrStimulusArity = errors.New("stimulus does not match side inputs")
	// ErrUnknownSource is returned for stimulus entries the topology does not declare
	ErrUnknownSource = errors.New("unknown stimulus source")
	// ErrUnknownTopology is returned by New for unregistered kinds
	ErrUnknownTopology = errors.New("unknown topology")
)

// InvalidWidthError reports a width outside [Min, Max]
type InvalidWidthError struct {
	Index int
	Width float64
	Min   float64
	Max   float64
}

func (e *InvalidWidthError) Error() string {
	return fmt.Sprintf("invalid width %g at stage %d: must lie in [%g, %g]", e.Width, e.Index, e.Min, e.Max)
}

// Unwrap lets errors.Is match ErrInvalidWidth
func (e *InvalidWidthError) Unwrap() error {
	return ErrInvalidWidth
}
