package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func Validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug":   true,
		"verbose": true,
		"info":    true,
		"warn":    true,
		"error":   true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, verbose, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.Technology != nil {
		if err := validateTechnology(cfg.Technology); err != nil {
			return fmt.Errorf("technology validation failed: %w", err)
		}
	}

	if err := validateRun(&cfg.Run); err != nil {
		return fmt.Errorf("run validation failed: %w", err)
	}

	if err := validateOracle(&cfg.Oracle); err != nil {
		return fmt.Errorf("oracle validation failed: %w", err)
	}

	return nil
}

// validateTechnology validates a technology block. Zero values are allowed
// because they are filled from the built-in profile of the same name.
func validateTechnology(t *Technology) error {
	if t.Name == "" {
		return fmt.Errorf("technology name cannot be empty")
	}
	if t.SupplyVoltage < 0 {
		return fmt.Errorf("supply_voltage cannot be negative, got %g", t.SupplyVoltage)
	}
	if t.MinWidth < 0 {
		return fmt.Errorf("min_width cannot be negative, got %g", t.MinWidth)
	}
	if t.MinLength < 0 {
		return fmt.Errorf("min_length cannot be negative, got %g", t.MinLength)
	}
	if t.MinDiffusionLength < 0 {
		return fmt.Errorf("min_diffusion_length cannot be negative, got %g", t.MinDiffusionLength)
	}
	if t.PMOSFactor < 0 {
		return fmt.Errorf("pmos_factor cannot be negative, got %g", t.PMOSFactor)
	}
	return nil
}

// minLoad is the lightest load, in minimum-width inverters, a path may drive
const minLoad = 1.0

// validateRun validates the core entry contract
func validateRun(r *Run) error {
	validTopologies := map[string]bool{
		"inverter_chain": true,
		"nand_chain":     true,
	}
	if !validTopologies[r.Topology] {
		return fmt.Errorf("invalid topology: %s (must be inverter_chain or nand_chain)", r.Topology)
	}
	if r.Gates < 1 {
		return fmt.Errorf("gates must be at least 1, got %d", r.Gates)
	}
	if !(r.Load >= minLoad) {
		return fmt.Errorf("load must be at least %g, got %g", minLoad, r.Load)
	}
	if r.Step <= 0 {
		return fmt.Errorf("step must be positive, got %g", r.Step)
	}
	if r.Iterations < 0 {
		return fmt.Errorf("iterations cannot be negative, got %d", r.Iterations)
	}
	if r.ProgressEvery < 0 {
		return fmt.Errorf("progress_every cannot be negative, got %d", r.ProgressEvery)
	}

	names := make(map[string]bool)
	for i, s := range r.Stimulus {
		if s.Name == "" {
			return fmt.Errorf("stimulus %d: name cannot be empty", i)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate stimulus name: %s", s.Name)
		}
		names[s.Name] = true
	}

	validStrategies := map[string]bool{
		"local":         true,
		"global_single": true,
		"scaling":       true,
		"global_all":    true,
	}
	if !validStrategies[r.Perturbation.Strategy] {
		return fmt.Errorf("invalid perturbation strategy: %s (must be local, global_single, scaling, or global_all)", r.Perturbation.Strategy)
	}
	if r.Perturbation.Strategy == "local" && r.Perturbation.Divisor <= 0 {
		return fmt.Errorf("perturbation divisor must be positive, got %g", r.Perturbation.Divisor)
	}

	switch r.TieBreak.Strategy {
	case "area_tolerance", "strict":
	default:
		return fmt.Errorf("invalid tie_break strategy: %s (must be area_tolerance or strict)", r.TieBreak.Strategy)
	}
	if r.TieBreak.TolerancePercent < 0 {
		return fmt.Errorf("tie_break tolerance_percent cannot be negative, got %g", r.TieBreak.TolerancePercent)
	}

	if r.Window.Initial <= 0 {
		return fmt.Errorf("window initial must be positive, got %g", r.Window.Initial)
	}
	if r.Window.Grow <= 0 {
		return fmt.Errorf("window grow must be positive, got %g", r.Window.Grow)
	}
	if r.Window.Margin < 0 {
		return fmt.Errorf("window margin cannot be negative, got %g", r.Window.Margin)
	}
	if r.Window.Floor < 0 {
		return fmt.Errorf("window floor cannot be negative, got %g", r.Window.Floor)
	}

	if r.Multistart.Starts < 1 {
		return fmt.Errorf("multistart starts must be at least 1, got %d", r.Multistart.Starts)
	}
	if r.Multistart.Workers < 1 {
		return fmt.Errorf("multistart workers must be at least 1, got %d", r.Multistart.Workers)
	}

	return nil
}

// validateOracle validates the oracle backend selection
func validateOracle(o *Oracle) error {
	switch o.Kind {
	case "process":
		if o.Binary == "" {
			return fmt.Errorf("process oracle requires a binary")
		}
	case "remote":
		if o.Target == "" {
			return fmt.Errorf("remote oracle requires a target")
		}
	default:
		return fmt.Errorf("invalid oracle kind: %s (must be process or remote)", o.Kind)
	}
	if o.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms cannot be negative, got %d", o.TimeoutMs)
	}
	if o.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", o.Retries)
	}
	validBackoffs := map[string]bool{
		"exponential": true,
		"linear":      true,
		"constant":    true,
	}
	if !validBackoffs[o.Backoff] {
		return fmt.Errorf("invalid backoff type: %s (must be exponential, linear, or constant)", o.Backoff)
	}
	if o.BaseMs < 0 {
		return fmt.Errorf("base_ms cannot be negative, got %d", o.BaseMs)
	}
	if o.BreakerFailures < 0 {
		return fmt.Errorf("breaker_failures cannot be negative, got %d", o.BreakerFailures)
	}
	if o.BreakerCooldownMs < 0 {
		return fmt.Errorf("breaker_cooldown_ms cannot be negative, got %d", o.BreakerCooldownMs)
	}
	return nil
}
