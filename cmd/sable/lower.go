package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sable/internal/core"
	"sable/internal/driver"
	"sable/internal/mir"
	"sable/internal/observ"
	"sable/internal/pipeline"
	"sable/internal/source"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags]",
	Short: "Run a demo module through MIR and Core lowering",
	Long: `Lower assembles one of the built-in typed demo modules, runs the full
middle end over it and prints the MIR and Core programs`,
	Args: cobra.NoArgs,
	RunE: runLower,
}

func init() {
	lowerCmd.Flags().String("demo", "geometry", "demo module to lower")
	lowerCmd.Flags().Bool("list", false, "list available demos and exit")
	lowerCmd.Flags().String("emit", "all", "stage to print (mir|core|all)")
	lowerCmd.Flags().Int("jobs", 0, "parallel lowering jobs (0 = one per processor)")
}

func runLower(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	if list {
		for _, name := range driver.Demos() {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	}

	demoName, err := cmd.Flags().GetString("demo")
	if err != nil {
		return fmt.Errorf("failed to get demo flag: %w", err)
	}
	emit, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}
	switch emit {
	case "mir", "core", "all":
		// supported
	default:
		return fmt.Errorf("unsupported emit %q (must be mir, core or all)", emit)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	m, err := driver.BuildDemo(demoName)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	phase := timer.Begin("pipeline")
	res, err := pipeline.Run(cmd.Context(), m, pipeline.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
	})
	timer.End(phase, fmt.Sprintf("%d functions", len(m.Funcs)))
	if err != nil {
		// Demos are assembled well typed, so any diagnostic here is a
		// bug in the demo itself. Print what we have and fail.
		if errors.Is(err, pipeline.ErrDiagnostics) && res != nil {
			stderrColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
			res.Diags.Sort()
			driver.PrintDiagnostics(os.Stderr, res.Diags, source.NewFileSet(), stderrColor)
		}
		return fmt.Errorf("lowering %q failed: %w", demoName, err)
	}

	if emit == "mir" || emit == "all" {
		if !quiet {
			fmt.Fprintln(os.Stdout, "== MIR ==")
		}
		if err := mir.DumpProgram(os.Stdout, res.MIR, m.Types); err != nil {
			return fmt.Errorf("failed to dump MIR: %w", err)
		}
	}
	if emit == "core" || emit == "all" {
		if !quiet {
			fmt.Fprintln(os.Stdout, "\n== CORE ==")
		}
		if err := core.DumpProgram(os.Stdout, res.Core); err != nil {
			return fmt.Errorf("failed to dump Core: %w", err)
		}
	}

	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}
