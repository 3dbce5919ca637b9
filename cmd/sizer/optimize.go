package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/sizing-core/internal/improvement"
	"github.com/GoSim-25-26J-441/sizing-core/internal/recorder"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

func newOptimizeCmd(f *runFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for the width vector with the smallest path delay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOptimize(ctx, cmd, f)
		},
	}
	cmd.Flags().IntVarP(&f.iterations, "iterations", "n", 0, "number of probes")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&f.perturbation, "perturbation", "", "local, global_single, scaling or global_all")
	cmd.Flags().StringVar(&f.tieBreak, "tie-break", "", "area_tolerance or strict")
	cmd.Flags().IntVar(&f.starts, "starts", 0, "independent searches to run")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "searches run in parallel")
	cmd.Flags().StringVar(&f.recordDir, "record-dir", "", "directory of the result logs")
	cmd.Flags().StringVar(&f.target, "target", "", "address of a remote oracle service")
	cmd.Flags().StringVar(&f.binary, "binary", "", "simulator binary for the process oracle")
	return cmd
}

func runOptimize(ctx context.Context, cmd *cobra.Command, f *runFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	sc, err := improvement.SessionConfigFromConfig(cfg)
	if err != nil {
		return err
	}
	factory, closeFactory, err := newOracleFactory(cfg.Oracle, sc.Technology.SupplyVoltage)
	if err != nil {
		return err
	}
	defer closeFactory()

	var report *improvement.RunReport
	if starts := cfg.Run.Multistart.Starts; starts > 1 {
		m, err := improvement.RunMultistart(ctx, sc, factory, starts, cfg.Run.Multistart.Workers)
		if err != nil && (m == nil || !errors.Is(err, recorder.ErrResultLogOpen)) {
			return err
		}
		report = m.Best
		fmt.Fprintf(cmd.OutOrStdout(), "starts: %d spread: %.2f%%\n", starts, m.Spread()*100)
		printReport(cmd.OutOrStdout(), report)
		return err
	}

	report, err = improvement.NewSession(sc, factory).Run(ctx)
	if report != nil && report.Result != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	return err
}

func printReport(w io.Writer, r *improvement.RunReport) {
	fmt.Fprintf(w, "path: %s (%s) seed: %d\n", r.Topology, r.Technology, r.Seed)
	res := r.Result
	fmt.Fprintf(w, "probes: %d transitioned: %d no transition: %d errors: %d\n",
		res.Iterations, res.Successes, res.Failures, res.Errors)
	if res.Best == nil {
		fmt.Fprintf(w, "no transition observed (window %ss)\n", utils.FormatSI(res.Window, 4))
	} else {
		fmt.Fprintf(w, "best: tp=%ss total width=%sm\n", utils.FormatSI(res.Best.Delay, 6), utils.FormatSI(res.Best.TotalWidth, 6))
		fmt.Fprintf(w, "widths: %s\n", formatWidths(res.Best.Widths))
	}
	if r.Ratios != nil {
		fmt.Fprintf(w, "ratios: %s avg=%.3f avg_noload=%.3f\n", formatRatios(r.Ratios.Stages), r.Ratios.Average, r.Ratios.AverageNoLoad)
	}
	switch {
	case r.BaselineErr != nil:
		fmt.Fprintf(w, "logical effort: unavailable (%v)\n", r.BaselineErr)
	case r.Baseline == nil:
	case !r.Baseline.Supported:
		fmt.Fprintln(w, "logical effort: unsupported")
	case r.Comparison != nil:
		fmt.Fprintf(w, "logical effort: tp=%ss improvement=%.2f%%\n",
			utils.FormatSI(r.Comparison.BaselineDelay, 6), r.Comparison.ImprovementPercent)
	default:
		fmt.Fprintf(w, "logical effort: %s\n", r.Baseline.Outcome)
	}
	if r.LogPath != "" {
		fmt.Fprintf(w, "recorded: %s\n", r.LogPath)
	}
}
