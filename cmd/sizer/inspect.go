package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/sizing-core/internal/improvement"
	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

func newNetlistCmd(f *runFlags) *cobra.Command {
	var useEffort bool
	var dataFile string
	cmd := &cobra.Command{
		Use:   "netlist",
		Short: "Print the netlist the oracle simulates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, topology, err := loadTopology(cmd, f)
			if err != nil {
				return err
			}
			circuit, err := improvement.BuildCircuit(sc.Technology, topology)
			if err != nil {
				return err
			}
			if useEffort {
				widths, ok := topology.OptimalWidthsByLogicalEffort()
				if !ok {
					return fmt.Errorf("logical effort sizing is not available for %s", topology.Name())
				}
				if err := topology.SetWidths(widths); err != nil {
					return err
				}
			}
			if err := circuit.SetTransient(sc.Step, sc.Strategy.Window.Initial()); err != nil {
				return err
			}
			return circuit.Render(cmd.OutOrStdout(), netlist.RenderOptions{DataFile: dataFile})
		},
	}
	cmd.Flags().BoolVar(&useEffort, "logical-effort", false, "size the path by logical effort")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "waveform file written by the control block")
	return cmd
}

func newLogicalEffortCmd(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logical-effort",
		Short: "Print the logical effort sizing of the path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, topology, err := loadTopology(cmd, f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			widths, ok := topology.OptimalWidthsByLogicalEffort()
			if !ok {
				fmt.Fprintf(w, "%s: logical effort sizing unsupported\n", topology.Name())
				return nil
			}
			ratios := improvement.StageRatios(widths, topology.LoadWidth())
			fmt.Fprintf(w, "%s: load=%sm\n", topology.Name(), utils.FormatSI(topology.LoadWidth(), 6))
			fmt.Fprintf(w, "widths: %s\n", formatWidths(widths))
			fmt.Fprintf(w, "ratios: %s avg=%.3f\n", formatRatios(ratios.Stages), ratios.Average)
			return nil
		},
	}
}

func newTruthTableCmd(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "truth-table",
		Short: "Print the steady-state output of the path for each input level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, topology, err := loadTopology(cmd, f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, side := range topology.SideInputs() {
				level, _ := topology.Stimulus().Level(side)
				fmt.Fprintf(w, "%s=%d\n", side, bit(level))
			}
			for _, in := range []bool{false, true} {
				out, err := topology.ExpectedOutput(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "in=%d out=%d\n", bit(in), bit(out))
			}
			return nil
		},
	}
}

func loadTopology(cmd *cobra.Command, f *runFlags) (improvement.SessionConfig, path.Topology, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return improvement.SessionConfig{}, nil, err
	}
	sc, err := improvement.SessionConfigFromConfig(cfg)
	if err != nil {
		return improvement.SessionConfig{}, nil, err
	}
	topology, err := path.New(sc.Topology, sc.Technology, sc.Gates, sc.Load, sc.Stimulus)
	if err != nil {
		return improvement.SessionConfig{}, nil, err
	}
	return sc, topology, nil
}

func formatWidths(widths []float64) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = utils.FormatSI(w, 4) + "m"
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatRatios(ratios []float64) string {
	parts := make([]string, len(ratios))
	for i, r := range ratios {
		parts[i] = fmt.Sprintf("%.3f", r)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
