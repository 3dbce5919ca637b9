package netlist

import (
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
)

func newInverterCircuit(t *testing.T) (*Circuit, *Instance) {
	t.Helper()
	tc := tech.TSMC180()
	c := New("inverter test")
	c.Include(tc.Library)
	if err := c.RegisterCell(tech.Inverter(tc), tc); err != nil {
		t.Fatalf("RegisterCell error: %v", err)
	}
	if err := c.AddVoltage("dd", "vdd", Ground, tc.SupplyVoltage); err != nil {
		t.Fatalf("AddVoltage error: %v", err)
	}
	if err := c.AddPulse("in", "in", Ground, Pulse{High: 1.8, Rise: 1e-12, Fall: 1e-12, Width: 1e-9, Period: 2e-9}); err != nil {
		t.Fatalf("AddPulse error: %v", err)
	}
	inst, err := c.AddInstance("1", "inv", []string{"in", "out"}, "vdd", tc.MinWidth)
	if err != nil {
		t.Fatalf("AddInstance error: %v", err)
	}
	return c, inst
}

func TestRenderNetlist(t *testing.T) {
	c, inst := newInverterCircuit(t)
	if err := inst.SetWidth(1e-6); err != nil {
		t.Fatalf("SetWidth error: %v", err)
	}
	if err := c.SetTransient(1e-12, 100e-12); err != nil {
		t.Fatalf("SetTransient error: %v", err)
	}
	c.Probe("in", "out")

	var b strings.Builder
	if err := c.Render(&b, RenderOptions{DataFile: "/tmp/wave.dat"}); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	text := b.String()

	for _, want := range []string{
		"* inverter test\n",
		".include TSMC180.lib\n",
		".subckt inv a out vdd w=420n\n",
		"MN1 out a 0 0 CMOSN W={w*1}",
		"MP1 out a vdd vdd CMOSP W={w*1.5}",
		".ends inv\n",
		"Vdd vdd 0 DC 1.8\n",
		"Vin in 0 PULSE(0 1.8 0 1p 1p 1n 2n)\n",
		"X1 in out vdd inv w=1u\n",
		".tran 1p 100p\n",
		"wrdata /tmp/wave.dat v(in) v(out)\n",
		".end\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("netlist missing %q:\n%s", want, text)
		}
	}
}

func TestStringOmitsControl(t *testing.T) {
	c, _ := newInverterCircuit(t)
	c.Probe("out")
	if strings.Contains(c.String(), ".control") {
		t.Error("expected no control block without a data file")
	}
}

func TestRenderDataFileRequiresAnalysis(t *testing.T) {
	c, _ := newInverterCircuit(t)
	c.Probe("out")
	var b strings.Builder
	if err := c.Render(&b, RenderOptions{DataFile: "x.dat"}); err == nil {
		t.Error("expected error without transient analysis")
	}
}

func TestCircuitErrors(t *testing.T) {
	c, inst := newInverterCircuit(t)
	tc := tech.TSMC180()

	if _, err := c.AddInstance("1", "inv", []string{"a", "b"}, "vdd", tc.MinWidth); err == nil {
		t.Error("expected duplicate instance error")
	}
	if _, err := c.AddInstance("2", "nand2", []string{"a", "b", "c"}, "vdd", tc.MinWidth); err == nil {
		t.Error("expected unknown cell error")
	}
	if _, err := c.AddInstance("3", "inv", []string{"a", "b", "c"}, "vdd", tc.MinWidth); err == nil {
		t.Error("expected node count error")
	}
	if err := c.AddVoltage("in", "x", Ground, 1); err == nil {
		t.Error("expected duplicate source error")
	}
	if err := inst.SetWidth(0); err == nil {
		t.Error("expected non-positive width error")
	}
	if inst.Width() != tc.MinWidth {
		t.Errorf("width changed after rejected SetWidth: %g", inst.Width())
	}
	if err := c.SetTransient(1e-9, 1e-12); err == nil {
		t.Error("expected error when step exceeds stop")
	}
	if err := c.RegisterCell(tech.Inverter(tc), tc); err != nil {
		t.Errorf("re-registering the same cell should be a no-op: %v", err)
	}
	other := tc
	other.MinWidth = 1e-6
	if err := c.RegisterCell(tech.Inverter(other), other); err == nil {
		t.Error("expected conflicting cell definition error")
	}
}
