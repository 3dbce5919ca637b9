package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
)

// ErrSimulator is returned when the external simulator fails
var ErrSimulator = errors.New("simulator failed")

// ProcessOptions configures the external simulator invocation
type ProcessOptions struct {
	Binary  string   // defaults to ngspice
	Args    []string // defaults to batch mode; the netlist path is appended
	WorkDir string   // parent of the per-probe scratch directories
	Timeout time.Duration
}

// ProcessOracle renders the circuit for every probe and runs an external
// SPICE simulator on it. Probes are serialized.
type ProcessOracle struct {
	mu      sync.Mutex
	circuit *netlist.Circuit
	supply  float64
	opts    ProcessOptions
}

// NewProcessOracle creates an oracle over a circuit that probes the
// stimulus node followed by the output node.
func NewProcessOracle(c *netlist.Circuit, supply float64, opts ProcessOptions) (*ProcessOracle, error) {
	if c == nil {
		return nil, fmt.Errorf("circuit is required")
	}
	if probes := c.Probes(); len(probes) != 2 {
		return nil, fmt.Errorf("circuit must probe the input and output nodes, got %v", probes)
	}
	if !(supply > 0) {
		return nil, fmt.Errorf("supply voltage must be positive, got %g", supply)
	}
	if opts.Binary == "" {
		opts.Binary = "ngspice"
	}
	if opts.Args == nil {
		opts.Args = []string{"-b"}
	}
	return &ProcessOracle{circuit: c, supply: supply, opts: opts}, nil
}

// Simulate runs one transient analysis of req.Window at req.Step
func (p *ProcessOracle) Simulate(ctx context.Context, req Request) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.circuit.SetTransient(req.Step, req.Window); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	dir, err := os.MkdirTemp(p.opts.WorkDir, "sizing-probe-*")
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	cirPath := filepath.Join(dir, "circuit.cir")
	dataPath := filepath.Join(dir, "wave.dat")
	if err := p.writeNetlist(cirPath, dataPath); err != nil {
		return Outcome{}, err
	}

	runCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), p.opts.Args...), cirPath)
	cmd := exec.CommandContext(runCtx, p.opts.Binary, args...)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	if runErr != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v: %s", ErrSimulator, p.opts.Binary, runErr, lastLine(output.String()))
	}
	logger.Debug("simulator finished", "binary", p.opts.Binary, "window", req.Window, "duration", time.Since(start))

	f, err := os.Open(dataPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: no waveform written: %v", ErrSimulator, err)
	}
	defer f.Close()
	samples, err := ReadSamples(f)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrSimulator, err)
	}
	return MeasureDelay(samples, p.supply, req.Edge), nil
}

func (p *ProcessOracle) writeNetlist(cirPath, dataPath string) error {
	f, err := os.Create(cirPath)
	if err != nil {
		return fmt.Errorf("failed to create netlist: %w", err)
	}
	if err := p.circuit.Render(f, netlist.RenderOptions{DataFile: dataPath}); err != nil {
		f.Close()
		return fmt.Errorf("failed to render netlist: %w", err)
	}
	return f.Close()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
