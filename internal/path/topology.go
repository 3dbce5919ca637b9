// Package path models chains of logic gates terminated by a fixed load and
// the width vector that sizes them.
package path

import (
	"fmt"
	"math"
	"sort"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// MaxWidthFactor scales the load width to the ceiling of the search space
const MaxWidthFactor = 1.25

// MinLoad is the smallest load factor accepted. A lighter load would put the
// logical-effort taper, and eventually the width ceiling, below MinWidth.
const MinLoad = 1.0

// Builder is the circuit builder a topology registers itself with
type Builder interface {
	RegisterCell(g tech.Gate, t tech.Technology) error
	AddInstance(name, cell string, nodes []string, supply string, width float64) (*netlist.Instance, error)
	AddVoltage(name, pos, neg string, volts float64) error
}

// Topology is a chain of gates with a fixed terminal load. Index 0 of the
// width vector is the fixed reference stage and is never changed.
type Topology interface {
	Name() string
	Kind() string
	GateCount() int
	Load() float64
	Technology() tech.Technology

	// Instantiate registers the chain and its load with the builder. It may
	// be called once per topology value.
	Instantiate(b Builder, supply, input, output string) ([]*netlist.Instance, error)

	Widths() []float64
	SetWidths(widths []float64) error
	MinWidth() float64
	MaxWidth() float64
	LoadWidth() float64
	InvertsOutput() bool

	// OptimalWidthsByLogicalEffort returns the uniform-taper sizing, or
	// ok == false when the topology has no closed form.
	OptimalWidthsByLogicalEffort() (widths []float64, ok bool)

	SideInputs() []string
	Stimulus() Stimulus
	ExpectedOutput(input bool) (bool, error)
}

// Constructor creates a topology. A nil stimulus selects the default levels.
type Constructor func(t tech.Technology, gates int, load float64, stimulus *Stimulus) (Topology, error)

var registry = map[string]Constructor{
	KindInverterChain: func(t tech.Technology, gates int, load float64, stimulus *Stimulus) (Topology, error) {
		return NewInverterChain(t, gates, load, stimulus)
	},
	KindNandChain: func(t tech.Technology, gates int, load float64, stimulus *Stimulus) (Topology, error) {
		return NewNandChain(t, gates, load, stimulus)
	},
}

// New creates a topology of the registered kind
func New(kind string, t tech.Technology, gates int, load float64, stimulus *Stimulus) (Topology, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopology, kind)
	}
	return ctor(t, gates, load, stimulus)
}

// Kinds lists the registered topology kinds
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// chain holds the state shared by every single-path topology
type chain struct {
	kind      string
	tech      tech.Technology
	gate      tech.Gate
	gates     int
	load      float64
	widths    []float64
	sides     []string
	stimulus  Stimulus
	instances []*netlist.Instance
}

func newChain(kind string, t tech.Technology, gate tech.Gate, gates int, load float64, sides []string, stimulus *Stimulus) (*chain, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if gates < 1 {
		return nil, fmt.Errorf("%s: gate count must be at least 1, got %d", kind, gates)
	}
	if math.IsNaN(load) || math.IsInf(load, 0) || load < MinLoad {
		return nil, fmt.Errorf("%s: load must be at least %g minimum-width inverters, got %g", kind, MinLoad, load)
	}

	var stim Stimulus
	if stimulus == nil {
		defaults := make([]Source, len(sides))
		for i, name := range sides {
			defaults[i] = Source{Name: name, Level: true}
		}
		var err error
		if stim, err = NewStimulus(defaults...); err != nil {
			return nil, err
		}
	} else {
		var err error
		if stim, err = stimulus.bind(sides); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}

	widths := make([]float64, gates)
	for i := range widths {
		widths[i] = t.MinWidth
	}
	return &chain{
		kind:     kind,
		tech:     t,
		gate:     gate,
		gates:    gates,
		load:     load,
		widths:   widths,
		sides:    sides,
		stimulus: stim,
	}, nil
}

func (c *chain) Name() string {
	return fmt.Sprintf("%s_%d", c.kind, c.gates)
}

func (c *chain) Kind() string {
	return c.kind
}

func (c *chain) GateCount() int {
	return c.gates
}

func (c *chain) Load() float64 {
	return c.load
}

func (c *chain) Technology() tech.Technology {
	return c.tech
}

func (c *chain) Widths() []float64 {
	return utils.CloneFloat64s(c.widths)
}

func (c *chain) MinWidth() float64 {
	return c.tech.MinWidth
}

func (c *chain) MaxWidth() float64 {
	return MaxWidthFactor * c.load * c.tech.MinWidth
}

// LoadWidth is the width of the terminal load inverter
func (c *chain) LoadWidth() float64 {
	return c.load * c.tech.MinWidth
}

func (c *chain) InvertsOutput() bool {
	return c.gates%2 == 1
}

func (c *chain) SideInputs() []string {
	return append([]string(nil), c.sides...)
}

func (c *chain) Stimulus() Stimulus {
	return c.stimulus
}

// SetWidths validates every mutable entry before storing any of them. Entry
// 0 is ignored.
func (c *chain) SetWidths(widths []float64) error {
	if len(widths) != c.gates {
		return fmt.Errorf("%w: expected %d widths, got %d", ErrInvalidWidth, c.gates, len(widths))
	}
	lo, hi := c.MinWidth(), c.MaxWidth()
	for i := 1; i < len(widths); i++ {
		w := widths[i]
		if math.IsNaN(w) || w < lo || w > hi {
			return &InvalidWidthError{Index: i, Width: w, Min: lo, Max: hi}
		}
	}
	for i := 1; i < len(widths); i++ {
		c.widths[i] = widths[i]
		if c.instances != nil {
			if err := c.instances[i].SetWidth(widths[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageNodes returns the path input and output node of stage i
func (c *chain) stageNodes(i int, input, output string) (string, string) {
	in := fmt.Sprintf("n%d", i)
	out := fmt.Sprintf("n%d", i+1)
	if i == 0 {
		in = input
	}
	if i == c.gates-1 {
		out = output
	}
	return in, out
}

// instantiate places the stages, the side-input sources and the load
// inverter. sideNodes maps stage i to the extra input nodes it needs.
func (c *chain) instantiate(b Builder, supply, input, output string, sideNodes func(i int) []string) ([]*netlist.Instance, error) {
	if c.instances != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), ErrAlreadyInstantiated)
	}
	if err := b.RegisterCell(c.gate, c.tech); err != nil {
		return nil, fmt.Errorf("%s: register %s: %w", c.Name(), c.gate.Name, err)
	}
	inv := tech.Inverter(c.tech)
	if err := b.RegisterCell(inv, c.tech); err != nil {
		return nil, fmt.Errorf("%s: register %s: %w", c.Name(), inv.Name, err)
	}

	for _, src := range c.stimulus.Sources() {
		volts := 0.0
		if src.Level {
			volts = c.tech.SupplyVoltage
		}
		if err := b.AddVoltage(src.Name, sideNode(src.Name), netlist.Ground, volts); err != nil {
			return nil, fmt.Errorf("%s: side input %s: %w", c.Name(), src.Name, err)
		}
	}

	instances := make([]*netlist.Instance, 0, c.gates)
	for i := 0; i < c.gates; i++ {
		in, out := c.stageNodes(i, input, output)
		nodes := append([]string{in}, sideNodes(i)...)
		nodes = append(nodes, out)
		inst, err := b.AddInstance(fmt.Sprintf("G%d", i), c.gate.Name, nodes, supply, c.widths[i])
		if err != nil {
			return nil, fmt.Errorf("%s: stage %d: %w", c.Name(), i, err)
		}
		instances = append(instances, inst)
	}
	if _, err := b.AddInstance("Load", inv.Name, []string{output, output + "_load"}, supply, c.LoadWidth()); err != nil {
		return nil, fmt.Errorf("%s: load: %w", c.Name(), err)
	}

	c.instances = instances
	return append([]*netlist.Instance(nil), instances...), nil
}

// expectedOutput propagates a logic level through the stages
func (c *chain) expectedOutput(input bool, sideLevels func(i int) []bool) (bool, error) {
	v := input
	for i := 0; i < c.gates; i++ {
		out, err := c.gate.Eval(append([]bool{v}, sideLevels(i)...)...)
		if err != nil {
			return false, fmt.Errorf("stage %d: %w", i, err)
		}
		v = out
	}
	return v, nil
}

func sideNode(source string) string {
	return "side_" + source
}
