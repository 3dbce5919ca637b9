package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/sizing-core/internal/tech"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/config"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// runFlags are the command line overrides of the run and oracle blocks
type runFlags struct {
	configPath   string
	logLevel     string
	technology   string
	topology     string
	gates        int
	load         float64
	step         string
	iterations   int
	seed         int64
	perturbation string
	tieBreak     string
	starts       int
	workers      int
	recordDir    string
	target       string
	binary       string
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}
	root := &cobra.Command{
		Use:          "sizer",
		Short:        "Size the transistors of a gate chain for minimum delay",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDefault(logger.NewText(flags.logLevel, cmd.ErrOrStderr()))
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a sizing configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, verbose, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.technology, "technology", "", "built-in technology profile")
	root.PersistentFlags().StringVar(&flags.topology, "topology", "", "path topology (inverter_chain, nand_chain)")
	root.PersistentFlags().IntVar(&flags.gates, "gates", 0, "number of gates in the path")
	root.PersistentFlags().Float64Var(&flags.load, "load", 0, "load as a multiple of the minimum width")
	root.PersistentFlags().StringVar(&flags.step, "step", "", "transient step, e.g. 1p")

	root.AddCommand(
		newOptimizeCmd(flags),
		newNetlistCmd(flags),
		newLogicalEffortCmd(flags),
		newTruthTableCmd(flags),
		newTechnologiesCmd(),
	)
	return root
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set explicitly
func loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("technology") {
		cfg.Technology = &config.Technology{Name: f.technology}
	}
	if changed("topology") {
		cfg.Run.Topology = f.topology
	}
	if changed("gates") {
		cfg.Run.Gates = f.gates
	}
	if changed("load") {
		cfg.Run.Load = f.load
	}
	if changed("step") {
		step, err := utils.ParseSI(f.step)
		if err != nil {
			return nil, fmt.Errorf("invalid step: %w", err)
		}
		cfg.Run.Step = config.Quantity(step)
	}
	if changed("iterations") {
		cfg.Run.Iterations = f.iterations
	}
	if changed("seed") {
		cfg.Run.Seed = f.seed
	}
	if changed("perturbation") {
		cfg.Run.Perturbation.Strategy = f.perturbation
	}
	if changed("tie-break") {
		cfg.Run.TieBreak.Strategy = f.tieBreak
	}
	if changed("starts") {
		cfg.Run.Multistart.Starts = f.starts
	}
	if changed("workers") {
		cfg.Run.Multistart.Workers = f.workers
	}
	if changed("record-dir") {
		cfg.Run.Record.Dir = f.recordDir
	}
	if changed("target") {
		cfg.Oracle.Kind = "remote"
		cfg.Oracle.Target = f.target
	}
	if changed("binary") {
		cfg.Oracle.Kind = "process"
		cfg.Oracle.Binary = f.binary
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if f.configPath != "" && !changed("log-level") {
		logger.SetDefault(logger.NewText(cfg.LogLevel, cmd.ErrOrStderr()))
	}
	return cfg, nil
}

func newTechnologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "technologies",
		Short: "List the built-in technology profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range tech.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
