package path

import (
	"fmt"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
)

// KindNandChain selects NandChain in New
const KindNandChain = "nand_chain"

// NandChain is a chain of two-input NAND gates. The path enters on pin a of
// each stage; pin b of stage i is the side input PathInB<i>, held high by
// default so that every stage inverts.
type NandChain struct {
	*chain
}

// NewNandChain creates a NAND chain
func NewNandChain(t tech.Technology, gates int, load float64, stimulus *Stimulus) (*NandChain, error) {
	sides := make([]string, gates)
	for i := range sides {
		sides[i] = SideInputName(i)
	}
	c, err := newChain(KindNandChain, t, tech.Nand2(t), gates, load, sides, stimulus)
	if err != nil {
		return nil, err
	}
	return &NandChain{chain: c}, nil
}

// SideInputName returns the name of the side input of stage i
func SideInputName(i int) string {
	return fmt.Sprintf("PathInB%d", i)
}

// Instantiate registers the NAND stages, their side-input sources and the load
func (nc *NandChain) Instantiate(b Builder, supply, input, output string) ([]*netlist.Instance, error) {
	return nc.instantiate(b, supply, input, output, func(i int) []string {
		return []string{sideNode(SideInputName(i))}
	})
}

// ExpectedOutput returns the output level for a steady input level under
// the configured side-input levels
func (nc *NandChain) ExpectedOutput(input bool) (bool, error) {
	return nc.expectedOutput(input, func(i int) []bool {
		level, _ := nc.stimulus.Level(SideInputName(i))
		return []bool{level}
	})
}

// OptimalWidthsByLogicalEffort is unsupported for NAND chains: the side
// inputs make the path a multi-branch fan-in with no single-chain model.
func (nc *NandChain) OptimalWidthsByLogicalEffort() ([]float64, bool) {
	return nil, false
}
