// Package netlist builds SPICE circuits from gate cells and renders them as
// text netlists for an external simulator.
package netlist

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
)

// Ground is the reference node name
const Ground = "0"

// Instance is one placed gate cell. Its width is the only mutable field.
type Instance struct {
	Name  string
	Cell  string
	Nodes []string // inputs in pin order, then output, then supply
	width float64
}

// Width returns the sizing width applied to the instance
func (i *Instance) Width() float64 {
	return i.width
}

// SetWidth changes the sizing width of the instance
func (i *Instance) SetWidth(w float64) error {
	if !(w > 0) {
		return errors.Errorf("instance %s: width must be positive, got %g", i.Name, w)
	}
	i.width = w
	return nil
}

type cell struct {
	gate tech.Gate
	tech tech.Technology
}

type source struct {
	name     string
	pos, neg string
	value    string
}

// Pulse describes a trapezoidal voltage source
type Pulse struct {
	Low    float64
	High   float64
	Delay  float64
	Rise   float64
	Fall   float64
	Width  float64
	Period float64
}

// Transient is the .tran analysis
type Transient struct {
	Step float64
	Stop float64
}

// Circuit accumulates cells, instances and sources. It is not safe for
// concurrent use; each search owns its own circuit.
type Circuit struct {
	Title     string
	includes  []string
	cells     map[string]cell
	instances []*Instance
	sources   []source
	names     map[string]bool
	tran      *Transient
	probes    []string
}

// New creates an empty circuit
func New(title string) *Circuit {
	return &Circuit{
		Title: title,
		cells: make(map[string]cell),
		names: make(map[string]bool),
	}
}

// Include adds a model library include
func (c *Circuit) Include(lib string) {
	for _, l := range c.includes {
		if l == lib {
			return
		}
	}
	c.includes = append(c.includes, lib)
}

// RegisterCell defines a subcircuit for the gate. Registering the same cell
// twice is a no-op; registering a different gate under a taken name fails.
func (c *Circuit) RegisterCell(g tech.Gate, t tech.Technology) error {
	if g.Name == "" {
		return errors.New("empty cell name")
	}
	if prev, ok := c.cells[g.Name]; ok {
		if prev.tech != t || len(prev.gate.Transistors) != len(g.Transistors) {
			return errors.New("cell " + g.Name + " already registered with a different definition")
		}
		return nil
	}
	c.cells[g.Name] = cell{gate: g, tech: t}
	return nil
}

// HasCell reports whether a cell is registered
func (c *Circuit) HasCell(name string) bool {
	_, ok := c.cells[name]
	return ok
}

func (c *Circuit) claim(name string) error {
	if name == "" {
		return errors.New("empty element name")
	}
	key := strings.ToLower(name)
	if c.names[key] {
		return errors.New("duplicate element name " + name)
	}
	c.names[key] = true
	return nil
}

// AddInstance places a registered cell. nodes lists the cell inputs in pin
// order followed by the output node; the supply node is appended.
func (c *Circuit) AddInstance(name, cellName string, nodes []string, supply string, width float64) (*Instance, error) {
	cl, ok := c.cells[cellName]
	if !ok {
		return nil, errors.New("unknown cell " + cellName + " for instance " + name)
	}
	if len(nodes) != cl.gate.Arity()+1 {
		return nil, errors.Errorf("instance %s: cell %s expects %d nodes, got %d", name, cellName, cl.gate.Arity()+1, len(nodes))
	}
	if err := c.claim("X" + name); err != nil {
		return nil, err
	}
	inst := &Instance{
		Name:  name,
		Cell:  cellName,
		Nodes: append(append([]string(nil), nodes...), supply),
	}
	if err := inst.SetWidth(width); err != nil {
		return nil, errors.Wrap(err, "add instance")
	}
	c.instances = append(c.instances, inst)
	return inst, nil
}

// AddVoltage adds a DC voltage source
func (c *Circuit) AddVoltage(name, pos, neg string, volts float64) error {
	if err := c.claim("V" + name); err != nil {
		return err
	}
	c.sources = append(c.sources, source{name: name, pos: pos, neg: neg, value: "DC " + formatValue(volts)})
	return nil
}

// AddPulse adds a pulse voltage source
func (c *Circuit) AddPulse(name, pos, neg string, p Pulse) error {
	if p.Rise < 0 || p.Fall < 0 || p.Width < 0 || p.Period < 0 || p.Delay < 0 {
		return errors.Errorf("pulse %s: timing values cannot be negative", name)
	}
	if err := c.claim("V" + name); err != nil {
		return err
	}
	value := "PULSE(" + strings.Join([]string{
		formatValue(p.Low), formatValue(p.High), formatValue(p.Delay),
		formatValue(p.Rise), formatValue(p.Fall), formatValue(p.Width), formatValue(p.Period),
	}, " ") + ")"
	c.sources = append(c.sources, source{name: name, pos: pos, neg: neg, value: value})
	return nil
}

// SetTransient configures the transient analysis
func (c *Circuit) SetTransient(step, stop float64) error {
	if !(step > 0) || !(stop > 0) {
		return errors.Errorf("transient step and stop must be positive, got %g and %g", step, stop)
	}
	if step > stop {
		return errors.Errorf("transient step %g exceeds stop time %g", step, stop)
	}
	c.tran = &Transient{Step: step, Stop: stop}
	return nil
}

// Transient returns the configured analysis, if any
func (c *Circuit) Transient() (Transient, bool) {
	if c.tran == nil {
		return Transient{}, false
	}
	return *c.tran, true
}

// Probe records nodes whose voltages are written out by the analysis
func (c *Circuit) Probe(nodes ...string) {
	c.probes = append(c.probes, nodes...)
}

// Probes returns the probed nodes in order
func (c *Circuit) Probes() []string {
	return append([]string(nil), c.probes...)
}

// Instances returns the placed instances in insertion order
func (c *Circuit) Instances() []*Instance {
	return append([]*Instance(nil), c.instances...)
}

func (c *Circuit) cellNames() []string {
	names := make([]string, 0, len(c.cells))
	for n := range c.cells {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
