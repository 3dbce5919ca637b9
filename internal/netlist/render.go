package netlist

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// RenderOptions controls the .control block of a rendered netlist
type RenderOptions struct {
	// DataFile, when set, makes the simulator write probed voltages there
	// as a whitespace-separated table (time, value pairs per probe).
	DataFile string
}

// Render writes the circuit as a SPICE netlist
func (c *Circuit) Render(w io.Writer, opts RenderOptions) error {
	var b strings.Builder
	b.WriteString("* " + c.Title + "\n")
	for _, lib := range c.includes {
		fmt.Fprintf(&b, ".include %s\n", lib)
	}

	for _, name := range c.cellNames() {
		writeCell(&b, c.cells[name])
	}

	for _, s := range c.sources {
		fmt.Fprintf(&b, "V%s %s %s %s\n", s.name, s.pos, s.neg, s.value)
	}
	for _, inst := range c.instances {
		fmt.Fprintf(&b, "X%s %s %s w=%s\n", inst.Name, strings.Join(inst.Nodes, " "), inst.Cell, formatValue(inst.width))
	}

	if c.tran != nil {
		fmt.Fprintf(&b, ".tran %s %s\n", formatValue(c.tran.Step), formatValue(c.tran.Stop))
	}
	if opts.DataFile != "" {
		if c.tran == nil {
			return errors.New("data file requested without a transient analysis")
		}
		if len(c.probes) == 0 {
			return errors.New("data file requested without probes")
		}
		vecs := make([]string, len(c.probes))
		for i, p := range c.probes {
			vecs[i] = "v(" + p + ")"
		}
		b.WriteString(".control\nrun\n")
		fmt.Fprintf(&b, "wrdata %s %s\n", opts.DataFile, strings.Join(vecs, " "))
		b.WriteString(".endc\n")
	}
	b.WriteString(".end\n")

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "write netlist")
}

// String renders the circuit without a control block
func (c *Circuit) String() string {
	var b strings.Builder
	_ = c.Render(&b, RenderOptions{})
	return b.String()
}

func writeCell(b *strings.Builder, cl cell) {
	g, t := cl.gate, cl.tech
	ports := append(append([]string(nil), g.Inputs...), "out", "vdd")
	fmt.Fprintf(b, ".subckt %s %s w=%s\n", g.Name, strings.Join(ports, " "), formatValue(t.MinWidth))
	for _, tr := range g.Transistors {
		width := "{w*" + strconv.FormatFloat(tr.Multiplier, 'g', -1, 64) + "}"
		diff := formatValue(t.MinDiffusionLength)
		fmt.Fprintf(b, "M%s %s %s %s %s %s W=%s L=%s AD={w*%s*%s} AS={w*%s*%s} PD={2*(w*%s+%s)} PS={2*(w*%s+%s)}\n",
			tr.Name, tr.Drain, tr.Gate, tr.Source, tr.Channel.Well(), tr.Channel.Model(),
			width, formatValue(t.MinLength),
			mult(tr), diff, mult(tr), diff, mult(tr), diff, mult(tr), diff)
	}
	fmt.Fprintf(b, ".ends %s\n", g.Name)
}

func mult(tr tech.Transistor) string {
	return strconv.FormatFloat(tr.Multiplier, 'g', -1, 64)
}

func formatValue(v float64) string {
	return utils.FormatSI(v, 6)
}
