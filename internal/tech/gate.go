package tech

import "fmt"

// Channel is the transistor type
type Channel int

const (
	NMOS Channel = iota
	PMOS
)

// Model returns the SPICE model name used for the channel type
func (c Channel) Model() string {
	if c == PMOS {
		return "CMOSP"
	}
	return "CMOSN"
}

// Well returns the bulk terminal name the transistor ties to
func (c Channel) Well() string {
	if c == PMOS {
		return "vdd"
	}
	return "0"
}

// Transistor is one device of a gate. Terminal names are local to the gate
// subcircuit: input pins, "out", "vdd", "0" and internal nodes.
type Transistor struct {
	Name       string
	Channel    Channel
	Drain      string
	Gate       string
	Source     string
	Multiplier float64 // width as a multiple of the gate's sizing width
}

// Gate describes a static CMOS cell
type Gate struct {
	Name        string
	Inputs      []string
	Transistors []Transistor
	logic       func(in []bool) bool
}

// Eval computes the gate output for the given input levels
func (g Gate) Eval(in ...bool) (bool, error) {
	if len(in) != len(g.Inputs) {
		return false, fmt.Errorf("gate %s expects %d inputs, got %d", g.Name, len(g.Inputs), len(in))
	}
	return g.logic(in), nil
}

// Arity returns the number of inputs
func (g Gate) Arity() int {
	return len(g.Inputs)
}

// Inverter returns the single-input inverter
func Inverter(t Technology) Gate {
	return Gate{
		Name:   "inv",
		Inputs: []string{"a"},
		Transistors: []Transistor{
			{Name: "N1", Channel: NMOS, Drain: "out", Gate: "a", Source: "0", Multiplier: 1},
			{Name: "P1", Channel: PMOS, Drain: "out", Gate: "a", Source: "vdd", Multiplier: t.PMOSFactor},
		},
		logic: func(in []bool) bool { return !in[0] },
	}
}

// Nand2 returns a two-input NAND with a series pull-down stack
func Nand2(t Technology) Gate {
	return Gate{
		Name:   "nand2",
		Inputs: []string{"a", "b"},
		Transistors: []Transistor{
			{Name: "N1", Channel: NMOS, Drain: "out", Gate: "a", Source: "tmpn", Multiplier: 2},
			{Name: "N2", Channel: NMOS, Drain: "tmpn", Gate: "b", Source: "0", Multiplier: 2},
			{Name: "P1", Channel: PMOS, Drain: "out", Gate: "a", Source: "vdd", Multiplier: t.PMOSFactor},
			{Name: "P2", Channel: PMOS, Drain: "out", Gate: "b", Source: "vdd", Multiplier: t.PMOSFactor},
		},
		logic: func(in []bool) bool { return !(in[0] && in[1]) },
	}
}

// Nor2 returns a two-input NOR with a series pull-up stack
func Nor2(t Technology) Gate {
	return Gate{
		Name:   "nor2",
		Inputs: []string{"a", "b"},
		Transistors: []Transistor{
			{Name: "N1", Channel: NMOS, Drain: "out", Gate: "a", Source: "0", Multiplier: 1},
			{Name: "N2", Channel: NMOS, Drain: "out", Gate: "b", Source: "0", Multiplier: 1},
			{Name: "P1", Channel: PMOS, Drain: "tmpp", Gate: "a", Source: "vdd", Multiplier: 2 * t.PMOSFactor},
			{Name: "P2", Channel: PMOS, Drain: "out", Gate: "b", Source: "tmpp", Multiplier: 2 * t.PMOSFactor},
		},
		logic: func(in []bool) bool { return !(in[0] || in[1]) },
	}
}
