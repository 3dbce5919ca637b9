package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// Config represents the sizing tool configuration
type Config struct {
	LogLevel   string      `yaml:"log_level"`
	Technology *Technology `yaml:"technology,omitempty"`
	Run        Run         `yaml:"run"`
	Oracle     Oracle      `yaml:"oracle"`
}

// Technology describes a fabrication process. When Name matches a built-in
// profile, zero-valued fields are taken from the built-in.
type Technology struct {
	Name               string   `yaml:"name"`
	Library            string   `yaml:"library"`
	SupplyVoltage      Quantity `yaml:"supply_voltage"`
	MinWidth           Quantity `yaml:"min_width"`
	MinLength          Quantity `yaml:"min_length"`
	MinDiffusionLength Quantity `yaml:"min_diffusion_length"`
	PMOSFactor         float64  `yaml:"pmos_factor"`
}

// Run is the core entry contract: which path to size and how to search
type Run struct {
	Topology      string           `yaml:"topology"` // inverter_chain or nand_chain
	Gates         int              `yaml:"gates"`
	Load          float64          `yaml:"load"` // multiple of the minimum width
	Step          Quantity         `yaml:"step"` // transient step resolution
	Iterations    int              `yaml:"iterations"`
	Seed          int64            `yaml:"seed"` // 0 picks a time-based seed
	ProgressEvery int              `yaml:"progress_every"`
	Stimulus      []StimulusSource `yaml:"stimulus,omitempty"`
	Perturbation  Perturbation     `yaml:"perturbation"`
	TieBreak      TieBreak         `yaml:"tie_break"`
	Window        Window           `yaml:"window"`
	Record        Record           `yaml:"record"`
	Multistart    Multistart       `yaml:"multistart"`
}

// StimulusSource sets the logic level of one named side input of the path
type StimulusSource struct {
	Name  string `yaml:"name"`
	Level bool   `yaml:"level"`
}

// Perturbation selects how the next width vector is derived from the best one
type Perturbation struct {
	Strategy string  `yaml:"strategy"` // local, global_single, scaling, global_all
	Divisor  float64 `yaml:"divisor"`  // neighborhood divisor k for local
}

// TieBreak selects how a candidate is compared against the current best
type TieBreak struct {
	Strategy         string  `yaml:"strategy"` // area_tolerance or strict
	TolerancePercent float64 `yaml:"tolerance_percent"`
}

// Window configures the adaptive simulation window
type Window struct {
	Initial Quantity `yaml:"initial"`
	Grow    Quantity `yaml:"grow"`
	Margin  Quantity `yaml:"margin"`
	Floor   Quantity `yaml:"floor"` // 0 means the initial window
}

// Record configures the result log
type Record struct {
	Dir    string `yaml:"dir"` // empty disables recording
	Ratios bool   `yaml:"ratios"`
}

// Multistart runs independent searches in parallel workers
type Multistart struct {
	Starts  int `yaml:"starts"`
	Workers int `yaml:"workers"`
}

// Oracle selects the simulation backend
type Oracle struct {
	Kind      string `yaml:"kind"` // process or remote
	Binary    string `yaml:"binary"`
	WorkDir   string `yaml:"work_dir"`
	Target    string `yaml:"target"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Retries   int    `yaml:"retries"`
	Backoff   string `yaml:"backoff"` // exponential, linear, constant
	BaseMs    int    `yaml:"base_ms"`
	MaxMs     int    `yaml:"max_ms"`

	// BreakerFailures consecutive errors stop probing for BreakerCooldownMs;
	// 0 disables the breaker
	BreakerFailures   int `yaml:"breaker_failures"`
	BreakerCooldownMs int `yaml:"breaker_cooldown_ms"`
}

// Quantity is a float that also accepts SPICE-style suffixed strings in YAML
type Quantity float64

// UnmarshalYAML accepts plain numbers and strings such as "100p" or "0.42u"
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: quantity must be a scalar", node.Line)
	}
	v, err := utils.ParseSI(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*q = Quantity(v)
	return nil
}

// MarshalYAML writes the quantity in engineering notation
func (q Quantity) MarshalYAML() (interface{}, error) {
	return utils.FormatSI(float64(q), 12), nil
}

// Float64 returns the quantity as a float64
func (q Quantity) Float64() float64 {
	return float64(q)
}

// Default returns the configuration used when a field is omitted
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Run: Run{
			Topology:      "inverter_chain",
			Gates:         5,
			Load:          32,
			Step:          1e-12,
			Iterations:    10000,
			ProgressEvery: 100,
			Perturbation: Perturbation{
				Strategy: "local",
				Divisor:  20,
			},
			TieBreak: TieBreak{
				Strategy:         "area_tolerance",
				TolerancePercent: 1.0,
			},
			Window: Window{
				Initial: 100e-12,
				Grow:    100e-12,
				Margin:  50e-12,
			},
			Multistart: Multistart{
				Starts:  1,
				Workers: 1,
			},
		},
		Oracle: Oracle{
			Kind:      "process",
			Binary:    "ngspice",
			TimeoutMs: 60000,
			Retries:   0,
			Backoff:   "exponential",
			BaseMs:    100,
			MaxMs:     5000,

			BreakerFailures:   10,
			BreakerCooldownMs: 1000,
		},
	}
}
