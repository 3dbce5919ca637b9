package path

import (
	"math"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
)

// KindInverterChain selects InverterChain in New
const KindInverterChain = "inverter_chain"

// InverterChain is a chain of inverters driving one inverter of load x Wmin
type InverterChain struct {
	*chain
}

// NewInverterChain creates an inverter chain. Inverters have no side inputs,
// so stimulus must be nil or empty.
func NewInverterChain(t tech.Technology, gates int, load float64, stimulus *Stimulus) (*InverterChain, error) {
	c, err := newChain(KindInverterChain, t, tech.Inverter(t), gates, load, nil, stimulus)
	if err != nil {
		return nil, err
	}
	return &InverterChain{chain: c}, nil
}

// Instantiate registers the inverters and the load
func (ic *InverterChain) Instantiate(b Builder, supply, input, output string) ([]*netlist.Instance, error) {
	return ic.instantiate(b, supply, input, output, func(int) []string { return nil })
}

// ExpectedOutput returns the output level for a steady input level
func (ic *InverterChain) ExpectedOutput(input bool) (bool, error) {
	return ic.expectedOutput(input, func(int) []bool { return nil })
}

// OptimalWidthsByLogicalEffort sizes every stage with the ratio load^(1/N)
func (ic *InverterChain) OptimalWidthsByLogicalEffort() ([]float64, bool) {
	f := math.Pow(ic.load, 1/float64(ic.gates))
	widths := make([]float64, ic.gates)
	widths[0] = ic.MinWidth()
	for i := 1; i < ic.gates; i++ {
		widths[i] = widths[i-1] * f
	}
	return widths, true
}
