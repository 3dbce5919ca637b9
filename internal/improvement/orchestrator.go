package improvement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/internal/recorder"
	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/config"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// Circuit node names used by every session
const (
	SupplyNode = "vdd"
	InputNode  = "in"
	OutputNode = "out"
)

// InputPulse is the stimulus driving the path input: a 0 to VDD pulse with
// 20ps edges starting at 10ps
func InputPulse(vdd float64) netlist.Pulse {
	return netlist.Pulse{
		Low:    0,
		High:   vdd,
		Delay:  10e-12,
		Rise:   20e-12,
		Fall:   20e-12,
		Width:  1e-9,
		Period: 2e-9,
	}
}

// OracleFactory creates the oracle for one session's circuit. Each session
// calls it once with its own circuit, topology and seed; anything random in
// the returned stack must be derived from seed and owned by that session.
type OracleFactory func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error)

// SessionConfig is everything one search run needs
type SessionConfig struct {
	Technology    tech.Technology
	Topology      string
	Gates         int
	Load          float64
	Stimulus      *path.Stimulus
	Step          float64
	Iterations    int
	Seed          int64
	ProgressEvery int
	Strategy      Strategy
	RecordDir     string
	RecordRatios  bool
}

// RunReport is the outcome of one session
type RunReport struct {
	RunID      string
	Topology   string
	Technology string
	Seed       int64
	LoadWidth  float64
	Result     *OptimizationResult
	Baseline   *Baseline
	Comparison *BaselineComparison
	Ratios     *Ratios
	LogPath    string
	Params     []recorder.Param

	// BaselineErr is set when the logical-effort probe failed; Baseline is
	// nil then
	BaselineErr error
}

// Session wires technology, circuit, topology, oracle, optimizer and
// recorder for one run
type Session struct {
	cfg     SessionConfig
	factory OracleFactory
}

// NewSession creates a session
func NewSession(cfg SessionConfig, factory OracleFactory) *Session {
	return &Session{cfg: cfg, factory: factory}
}

// BuildCircuit creates the circuit for a topology: supply, input pulse, the
// instantiated path and probes on its input and output
func BuildCircuit(t tech.Technology, topology path.Topology) (*netlist.Circuit, error) {
	c := netlist.New("sizing_" + topology.Name() + "_" + t.Name)
	if t.Library != "" {
		c.Include(t.Library)
	}
	if err := c.AddVoltage("dd", SupplyNode, netlist.Ground, t.SupplyVoltage); err != nil {
		return nil, err
	}
	if err := c.AddPulse("in", InputNode, netlist.Ground, InputPulse(t.SupplyVoltage)); err != nil {
		return nil, err
	}
	if _, err := topology.Instantiate(c, SupplyNode, InputNode, OutputNode); err != nil {
		return nil, err
	}
	c.Probe(InputNode, OutputNode)
	return c, nil
}

// Run executes the search, evaluates the baseline and records the result.
// When only the recording step fails the report is returned together with
// an error matching recorder.ErrResultLogOpen.
func (s *Session) Run(ctx context.Context) (*RunReport, error) {
	report, err := s.search(ctx)
	if err != nil {
		return report, err
	}
	if s.cfg.RecordDir == "" {
		return report, nil
	}
	if err := Record(s.cfg.RecordDir, report, s.cfg.RecordRatios); err != nil {
		logger.Error("failed to record result", "error", err)
		return report, err
	}
	return report, nil
}

func (s *Session) search(ctx context.Context) (*RunReport, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("oracle factory is required")
	}
	cfg := s.cfg
	topology, err := path.New(cfg.Topology, cfg.Technology, cfg.Gates, cfg.Load, cfg.Stimulus)
	if err != nil {
		return nil, fmt.Errorf("failed to create topology: %w", err)
	}
	circuit, err := BuildCircuit(cfg.Technology, topology)
	if err != nil {
		return nil, fmt.Errorf("failed to build circuit: %w", err)
	}
	rng := utils.NewRandSource(cfg.Seed)
	o, err := s.factory(circuit, topology, rng.Seed())
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	report := &RunReport{
		RunID:      utils.GenerateRunID(),
		Topology:   topology.Name(),
		Technology: cfg.Technology.Name,
		Seed:       rng.Seed(),
		LoadWidth:  topology.LoadWidth(),
	}
	report.Params = s.params(report.Seed)

	logger.Info("running search",
		"run_id", report.RunID,
		"path", topology.Name(),
		"technology", cfg.Technology.Name,
		"step", cfg.Step,
		"iterations", cfg.Iterations)

	optimizer := NewOptimizer(topology, o, cfg.Strategy, cfg.Iterations, cfg.Step, rng).
		WithProgressEvery(cfg.ProgressEvery)
	result, err := optimizer.Optimize(ctx)
	report.Result = result
	if err != nil {
		return report, err
	}

	logger.Info("search finished",
		"run_id", report.RunID,
		"successes", result.Successes,
		"failures", result.Failures,
		"errors", result.Errors,
		"elapsed", utils.FormatDuration(result.Duration))

	if result.Best == nil {
		logger.Warn("no probe produced a transition", "run_id", report.RunID, "window", result.Window)
	} else {
		ratios := StageRatios(result.Best.Widths, topology.LoadWidth())
		report.Ratios = &ratios
		logger.Info("best result",
			"tp", utils.FormatSI(result.Best.Delay, 6),
			"widths", result.Best.Widths,
			"total_width", result.Best.TotalWidth,
			"average_ratio", ratios.Average)
	}

	baseline, err := EvaluateBaseline(ctx, topology, o, result.Window, cfg.Step)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.BaselineErr = err
		logger.Warn("logical effort baseline failed", "error", err)
	case !baseline.Supported:
		report.Baseline = baseline
		logger.Info("logical effort sizing unsupported", "path", topology.Name())
	default:
		report.Baseline = baseline
		if cmp, ok := CompareBaseline(result.Best, baseline); ok {
			report.Comparison = cmp
			logger.Info("logical effort comparison",
				"le_tp", utils.FormatSI(cmp.BaselineDelay, 6),
				"le_widths", baseline.Widths,
				"improvement_percent", utils.Round(cmp.ImprovementPercent, 2))
		} else {
			logger.Info("logical effort baseline", "outcome", baseline.Outcome.String(), "le_widths", baseline.Widths)
		}
	}
	return report, nil
}

func (s *Session) params(seed int64) []recorder.Param {
	cfg := s.cfg
	return []recorder.Param{
		{Key: "gates", Value: strconv.Itoa(cfg.Gates)},
		{Key: "load", Value: strconv.FormatFloat(cfg.Load, 'g', -1, 64)},
		{Key: "step", Value: utils.FormatSI(cfg.Step, 6)},
		{Key: "iterations", Value: strconv.Itoa(cfg.Iterations)},
		{Key: "seed", Value: strconv.FormatInt(seed, 10)},
		{Key: "perturbation", Value: strategyName(cfg.Strategy.Perturber)},
		{Key: "tie_break", Value: strategyName(cfg.Strategy.TieBreak)},
	}
}

type named interface{ Name() string }

func strategyName(n named) string {
	if n == nil {
		return "default"
	}
	return n.Name()
}

// Record appends the report to the result log in dir
func Record(dir string, report *RunReport, withRatios bool) error {
	log, err := recorder.Open(dir, report.Topology, report.Technology)
	if err != nil {
		return err
	}
	defer log.Close()

	entry := recorder.Entry{
		Time:   time.Now(),
		RunID:  report.RunID,
		Params: report.Params,
	}
	if res := report.Result; res != nil && res.Best != nil {
		entry.Found = true
		entry.BestDelay = res.Best.Delay
		entry.BestWidths = res.Best.Widths
		entry.TotalWidth = res.Best.TotalWidth
	}
	if withRatios && report.Ratios != nil {
		entry.Ratios = report.Ratios.Stages
		entry.AverageRatio = report.Ratios.Average
		entry.AverageRatioNoLoad = report.Ratios.AverageNoLoad
	}
	if report.BaselineErr != nil {
		entry.BaselineFailed = true
	}
	if b := report.Baseline; b != nil && b.Supported {
		entry.BaselineSupported = true
		entry.BaselineDelay, entry.BaselineFound = b.Outcome.Delay()
	}

	if err := log.Append(entry); err != nil {
		return err
	}
	report.LogPath = log.Path()
	logger.Info("result recorded", "path", log.Path())
	return nil
}

// SessionConfigFromConfig resolves a loaded configuration into a session
// configuration
func SessionConfigFromConfig(cfg *config.Config) (SessionConfig, error) {
	t, err := ResolveTechnology(cfg.Technology)
	if err != nil {
		return SessionConfig{}, err
	}

	var stimulus *path.Stimulus
	if len(cfg.Run.Stimulus) > 0 {
		sources := make([]path.Source, len(cfg.Run.Stimulus))
		for i, s := range cfg.Run.Stimulus {
			sources[i] = path.Source{Name: s.Name, Level: s.Level}
		}
		st, err := path.NewStimulus(sources...)
		if err != nil {
			return SessionConfig{}, err
		}
		stimulus = &st
	}

	strategy, err := StrategyFromConfig(cfg.Run)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		Technology:    t,
		Topology:      cfg.Run.Topology,
		Gates:         cfg.Run.Gates,
		Load:          cfg.Run.Load,
		Stimulus:      stimulus,
		Step:          cfg.Run.Step.Float64(),
		Iterations:    cfg.Run.Iterations,
		Seed:          cfg.Run.Seed,
		ProgressEvery: cfg.Run.ProgressEvery,
		Strategy:      strategy,
		RecordDir:     cfg.Run.Record.Dir,
		RecordRatios:  cfg.Run.Record.Ratios,
	}, nil
}

// ResolveTechnology returns the built-in profile named by the block with
// its non-zero fields applied, or a fully specified custom profile. A nil
// block selects TSMC180.
func ResolveTechnology(block *config.Technology) (tech.Technology, error) {
	if block == nil {
		return tech.TSMC180(), nil
	}
	override := tech.Technology{
		Name:               block.Name,
		Library:            block.Library,
		SupplyVoltage:      block.SupplyVoltage.Float64(),
		MinWidth:           block.MinWidth.Float64(),
		MinLength:          block.MinLength.Float64(),
		MinDiffusionLength: block.MinDiffusionLength.Float64(),
		PMOSFactor:         block.PMOSFactor,
	}
	base, err := tech.Lookup(block.Name)
	if err != nil {
		if !errors.Is(err, tech.ErrUnknownTechnology) {
			return tech.Technology{}, err
		}
		base = tech.Technology{}
	}
	t := tech.Merge(base, override)
	if err := t.Validate(); err != nil {
		return tech.Technology{}, err
	}
	return t, nil
}

// StrategyFromConfig builds the search policies from the run block
func StrategyFromConfig(run config.Run) (Strategy, error) {
	perturber, err := NewPerturber(run.Perturbation.Strategy, run.Perturbation.Divisor)
	if err != nil {
		return Strategy{}, err
	}
	tieBreak, err := NewTieBreakPolicy(run.TieBreak.Strategy, run.TieBreak.TolerancePercent)
	if err != nil {
		return Strategy{}, err
	}
	return Strategy{
		Perturber: perturber,
		TieBreak:  tieBreak,
		Window: &AdaptiveWindow{
			Start:     run.Window.Initial.Float64(),
			Increment: run.Window.Grow.Float64(),
			Margin:    run.Window.Margin.Float64(),
			Floor:     run.Window.Floor.Float64(),
		},
	}, nil
}
