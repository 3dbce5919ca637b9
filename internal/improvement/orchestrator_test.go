package improvement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/internal/recorder"
	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/config"
)

// effortOracle models stage delay as one unit of parasitic plus the fanout
// of the stage, so the equal-taper sizing is optimal
func effortOracle(loadWidth float64) oracle.Oracle {
	return oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
		if err := req.Validate(); err != nil {
			return oracle.Outcome{}, err
		}
		n := len(req.Widths)
		d := float64(n)
		for i := 0; i+1 < n; i++ {
			d += req.Widths[i+1] / req.Widths[i]
		}
		d += loadWidth / req.Widths[n-1]
		return oracle.Transitioned(d * 1e-12), nil
	})
}

func effortFactory(calls *int32) OracleFactory {
	return func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return effortOracle(topology.LoadWidth()), nil
	}
}

func testSessionConfig() SessionConfig {
	return SessionConfig{
		Technology: tech.TSMC180(),
		Topology:   path.KindInverterChain,
		Gates:      4,
		Load:       16,
		Step:       1e-12,
		Iterations: 300,
		Seed:       7,
		Strategy: Strategy{
			Perturber: NewLocalPerturber(20),
			TieBreak:  &StrictDelayPolicy{},
			Window:    &AdaptiveWindow{Start: 100e-12, Increment: 100e-12, Margin: 50e-12},
		},
	}
}

func TestBuildCircuit(t *testing.T) {
	topo, err := path.New(path.KindInverterChain, tech.TSMC180(), 3, 8, nil)
	if err != nil {
		t.Fatalf("path.New error: %v", err)
	}
	c, err := BuildCircuit(tech.TSMC180(), topo)
	if err != nil {
		t.Fatalf("BuildCircuit error: %v", err)
	}
	probes := c.Probes()
	if len(probes) != 2 || probes[0] != InputNode || probes[1] != OutputNode {
		t.Errorf("expected probes on in and out, got %v", probes)
	}
	text := c.String()
	for _, want := range []string{".include TSMC180.lib", "Vdd vdd 0", "Vin in 0 PULSE", "XG0", "XLoad"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected netlist to contain %q\n%s", want, text)
		}
	}
	if _, err := BuildCircuit(tech.TSMC180(), topo); err == nil {
		t.Error("expected an error when the topology is instantiated twice")
	}
}

func TestSessionRun(t *testing.T) {
	var calls int32
	cfg := testSessionConfig()
	cfg.RecordDir = t.TempDir()
	cfg.RecordRatios = true

	report, err := NewSession(cfg, effortFactory(&calls)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the factory to be called once, got %d", calls)
	}
	if report.Topology != "inverter_chain_4" || report.Technology != "TSMC180" || report.Seed != 7 {
		t.Errorf("unexpected report header: %+v", report)
	}
	best := report.Result.Best
	if best == nil {
		t.Fatalf("expected a best result")
	}
	if best.Widths[0] != tech.TSMC180().MinWidth {
		t.Errorf("first stage width changed to %g", best.Widths[0])
	}
	// all stages at minimum width: 4 + 3 + 16
	if best.Delay >= 23e-12 {
		t.Errorf("expected search to improve on minimum sizing, got %g", best.Delay)
	}

	if report.Baseline == nil || !report.Baseline.Supported {
		t.Fatalf("expected a supported baseline")
	}
	if report.Comparison == nil {
		t.Fatalf("expected a baseline comparison")
	}
	// equal taper of 2: 4 + 4*2
	if d := report.Comparison.BaselineDelay; d < 11.99e-12 || d > 12.01e-12 {
		t.Errorf("expected baseline delay of 12ps, got %g", d)
	}
	if report.Ratios == nil || len(report.Ratios.Stages) != 4 {
		t.Errorf("expected four stage ratios, got %+v", report.Ratios)
	}

	want := filepath.Join(cfg.RecordDir, "inverter_chain_4_TSMC180.log")
	if report.LogPath != want {
		t.Fatalf("expected log path %s, got %s", want, report.LogPath)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	line := string(data)
	for _, field := range []string{"run=" + report.RunID, "gates=4", "seed=7", "perturbation=local", "tie_break=strict", "ratios=[", "le_tp="} {
		if !strings.Contains(line, field) {
			t.Errorf("expected log line to contain %q, got %s", field, line)
		}
	}
	if strings.Count(line, "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", line)
	}
}

func TestSessionRunUnsupportedBaseline(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Topology = path.KindNandChain
	cfg.Iterations = 20
	cfg.RecordDir = t.TempDir()

	report, err := NewSession(cfg, effortFactory(nil)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Baseline == nil || report.Baseline.Supported {
		t.Errorf("expected an unsupported baseline, got %+v", report.Baseline)
	}
	if report.Comparison != nil {
		t.Errorf("expected no comparison")
	}
	data, err := os.ReadFile(report.LogPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "le=unsupported") {
		t.Errorf("expected le=unsupported in %s", data)
	}
}

func TestSessionRunNoTransition(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Iterations = 5
	cfg.RecordDir = t.TempDir()
	factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		return oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
			return oracle.NoTransition(), nil
		}), nil
	}

	report, err := NewSession(cfg, factory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Result.Best != nil {
		t.Errorf("expected no best result")
	}
	if w := report.Result.Window; w < 599e-12 || w > 601e-12 {
		t.Errorf("expected window grown to 600ps, got %g", report.Result.Window)
	}
	data, err := os.ReadFile(report.LogPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "tp=none") || !strings.Contains(string(data), "le_tp=none") {
		t.Errorf("expected tp=none and le_tp=none in %s", data)
	}
}

func TestSessionRunRecordFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	cfg := testSessionConfig()
	cfg.Iterations = 10
	cfg.RecordDir = blocker

	report, err := NewSession(cfg, effortFactory(nil)).Run(context.Background())
	if !errors.Is(err, recorder.ErrResultLogOpen) {
		t.Fatalf("expected ErrResultLogOpen, got %v", err)
	}
	if report == nil || report.Result == nil || report.Result.Best == nil {
		t.Fatalf("expected the search result alongside the record error")
	}
}

func TestSessionRunBaselineFailure(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Iterations = 50
	cfg.RecordDir = t.TempDir()

	// the search probes succeed, the logical-effort probe after them fails
	factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		inner := effortOracle(topology.LoadWidth())
		calls := 0
		return oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
			calls++
			if calls > cfg.Iterations {
				return oracle.Outcome{}, oracle.ErrSimulator
			}
			return inner.Simulate(ctx, req)
		}), nil
	}

	report, err := NewSession(cfg, factory).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !errors.Is(report.BaselineErr, oracle.ErrSimulator) {
		t.Errorf("expected the baseline error to be reported, got %v", report.BaselineErr)
	}
	if report.Baseline != nil || report.Comparison != nil {
		t.Errorf("expected no baseline on failure, got %+v", report.Baseline)
	}

	data, err := os.ReadFile(report.LogPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "le=failed") {
		t.Errorf("expected le=failed in %q", line)
	}
	if strings.Contains(line, "le=unsupported") {
		t.Errorf("failed baseline logged as unsupported: %q", line)
	}
}

func TestSessionRunErrors(t *testing.T) {
	cfg := testSessionConfig()
	if _, err := NewSession(cfg, nil).Run(context.Background()); err == nil {
		t.Error("expected an error without an oracle factory")
	}

	cfg.Topology = "ring"
	if _, err := NewSession(cfg, effortFactory(nil)).Run(context.Background()); !errors.Is(err, path.ErrUnknownTopology) {
		t.Errorf("expected ErrUnknownTopology, got %v", err)
	}

	cfg = testSessionConfig()
	failing := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
		return nil, errors.New("no simulator")
	}
	if _, err := NewSession(cfg, failing).Run(context.Background()); err == nil {
		t.Error("expected the factory error to be returned")
	}
}

func TestSessionRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewSession(testSessionConfig(), effortFactory(nil)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || report.Result == nil || report.Result.Iterations != 0 {
		t.Errorf("expected an empty partial result, got %+v", report)
	}
}

func TestSessionConfigFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Seed = 11
	cfg.Run.Record.Dir = "results"

	sc, err := SessionConfigFromConfig(cfg)
	if err != nil {
		t.Fatalf("SessionConfigFromConfig error: %v", err)
	}
	if sc.Technology.Name != "TSMC180" {
		t.Errorf("expected TSMC180, got %s", sc.Technology.Name)
	}
	if sc.Topology != "inverter_chain" || sc.Gates != 5 || sc.Load != 32 || sc.Step != 1e-12 {
		t.Errorf("unexpected session config: %+v", sc)
	}
	if sc.Seed != 11 || sc.RecordDir != "results" || sc.Stimulus != nil {
		t.Errorf("unexpected session config: %+v", sc)
	}
	if sc.Strategy.Perturber.Name() != "local" || sc.Strategy.TieBreak.Name() != "area_tolerance" {
		t.Errorf("unexpected strategy: %s/%s", sc.Strategy.Perturber.Name(), sc.Strategy.TieBreak.Name())
	}
	if sc.Strategy.Window.Initial() != 100e-12 {
		t.Errorf("expected initial window 100ps, got %g", sc.Strategy.Window.Initial())
	}
}

func TestSessionConfigFromConfigStimulus(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Topology = path.KindNandChain
	cfg.Run.Gates = 2
	cfg.Run.Stimulus = []config.StimulusSource{
		{Name: path.SideInputName(1), Level: true},
		{Name: path.SideInputName(0), Level: true},
	}
	sc, err := SessionConfigFromConfig(cfg)
	if err != nil {
		t.Fatalf("SessionConfigFromConfig error: %v", err)
	}
	if sc.Stimulus == nil || sc.Stimulus.Len() != 2 {
		t.Fatalf("expected two stimulus sources, got %+v", sc.Stimulus)
	}

	cfg.Run.Stimulus = append(cfg.Run.Stimulus, config.StimulusSource{Name: path.SideInputName(0)})
	if _, err := SessionConfigFromConfig(cfg); err == nil {
		t.Error("expected an error for duplicate stimulus names")
	}
}

func TestStrategyFromConfigErrors(t *testing.T) {
	run := config.Default().Run
	run.Perturbation.Strategy = "annealing"
	if _, err := StrategyFromConfig(run); err == nil {
		t.Error("expected an error for an unknown perturbation strategy")
	}
	run = config.Default().Run
	run.TieBreak.Strategy = "coin_flip"
	if _, err := StrategyFromConfig(run); err == nil {
		t.Error("expected an error for an unknown tie-break strategy")
	}
}

func TestResolveTechnology(t *testing.T) {
	got, err := ResolveTechnology(nil)
	if err != nil || got != tech.TSMC180() {
		t.Fatalf("expected TSMC180 for a nil block, got %+v (%v)", got, err)
	}

	got, err = ResolveTechnology(&config.Technology{Name: "tsmc180", SupplyVoltage: 1.2})
	if err != nil {
		t.Fatalf("ResolveTechnology error: %v", err)
	}
	if got.SupplyVoltage != 1.2 || got.MinWidth != tech.TSMC180().MinWidth || got.Name != "tsmc180" {
		t.Errorf("expected an overridden TSMC180, got %+v", got)
	}

	custom := &config.Technology{
		Name:               "GPDK45",
		Library:            "gpdk45.lib",
		SupplyVoltage:      1.0,
		MinWidth:           120e-9,
		MinLength:          45e-9,
		MinDiffusionLength: 140e-9,
		PMOSFactor:         2,
	}
	got, err = ResolveTechnology(custom)
	if err != nil {
		t.Fatalf("ResolveTechnology error: %v", err)
	}
	if got.Name != "GPDK45" || got.MinLength != 45e-9 {
		t.Errorf("unexpected custom technology: %+v", got)
	}

	if _, err := ResolveTechnology(&config.Technology{Name: "GPDK45", SupplyVoltage: 1.0}); err == nil {
		t.Error("expected an error for an incomplete custom technology")
	}
}
