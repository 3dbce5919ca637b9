package tech

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTechnology is returned by Lookup for names without a built-in profile
var ErrUnknownTechnology = errors.New("unknown technology")

// Technology holds the immutable constants of one fabrication process.
// Lengths are in meters, voltages in volts.
type Technology struct {
	Name               string
	Library            string // model library included by generated netlists
	SupplyVoltage      float64
	MinWidth           float64
	MinLength          float64
	MinDiffusionLength float64
	PMOSFactor         float64 // PMOS width relative to NMOS for balanced drive
}

// Validate checks that every constant is usable
func (t Technology) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("technology name cannot be empty")
	}
	if t.SupplyVoltage <= 0 {
		return fmt.Errorf("technology %s: supply voltage must be positive, got %g", t.Name, t.SupplyVoltage)
	}
	if t.MinWidth <= 0 {
		return fmt.Errorf("technology %s: min width must be positive, got %g", t.Name, t.MinWidth)
	}
	if t.MinLength <= 0 {
		return fmt.Errorf("technology %s: min length must be positive, got %g", t.Name, t.MinLength)
	}
	if t.MinDiffusionLength <= 0 {
		return fmt.Errorf("technology %s: min diffusion length must be positive, got %g", t.Name, t.MinDiffusionLength)
	}
	if t.PMOSFactor <= 0 {
		return fmt.Errorf("technology %s: pmos factor must be positive, got %g", t.Name, t.PMOSFactor)
	}
	return nil
}

// TSMC180 returns the 180nm TSMC profile
func TSMC180() Technology {
	return Technology{
		Name:               "TSMC180",
		Library:            "TSMC180.lib",
		SupplyVoltage:      1.8,
		MinWidth:           0.42e-6,
		MinLength:          0.18e-6,
		MinDiffusionLength: 0.48e-6,
		PMOSFactor:         1.5,
	}
}

var builtins = map[string]func() Technology{
	"tsmc180": TSMC180,
}

// Lookup returns the built-in profile with the given name (case-insensitive)
func Lookup(name string) (Technology, error) {
	ctor, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Technology{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownTechnology, name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names lists the built-in profiles
func Names() []string {
	names := make([]string, 0, len(builtins))
	for _, ctor := range builtins {
		names = append(names, ctor().Name)
	}
	sort.Strings(names)
	return names
}

// Merge returns base with every non-zero field of override applied
func Merge(base, override Technology) Technology {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Library != "" {
		out.Library = override.Library
	}
	if override.SupplyVoltage > 0 {
		out.SupplyVoltage = override.SupplyVoltage
	}
	if override.MinWidth > 0 {
		out.MinWidth = override.MinWidth
	}
	if override.MinLength > 0 {
		out.MinLength = override.MinLength
	}
	if override.MinDiffusionLength > 0 {
		out.MinDiffusionLength = override.MinDiffusionLength
	}
	if override.PMOSFactor > 0 {
		out.PMOSFactor = override.PMOSFactor
	}
	return out
}
