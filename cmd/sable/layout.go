package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sable/internal/diag"
	"sable/internal/driver"
	"sable/internal/layout"
	"sable/internal/observ"
	"sable/internal/ui"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] types.toml",
	Short: "Compute storage layouts for the types in a manifest",
	Long: `Layout reads a TOML type manifest, computes size, alignment and member
offsets for every declaration, and shows the result as a table or an
interactive browser`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().String("ui", "auto", "interactive browser (auto|on|off)")
	layoutCmd.Flags().Bool("cache", false, "reuse layout artifacts cached on disk")
	layoutCmd.Flags().String("cache-dir", "", "directory for cached artifacts (defaults to the user cache)")
}

func runLayout(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
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
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	target := layout.X86_64LinuxGNU()
	timer := observ.NewTimer()

	var (
		cache *driver.DiskCache
		key   driver.Digest
	)
	if useCache {
		cache, err = driver.OpenDiskCache(cacheDir)
		if err != nil {
			return fmt.Errorf("failed to open the disk cache: %w", err)
		}
		key, err = driver.ArtifactKey(manifestPath, target)
		if err != nil {
			return err
		}
	}

	var (
		rows      []driver.TableRow
		module    string
		hadErrors bool
	)
	if cache != nil {
		art, ok, cacheErr := cache.Get(key)
		if cacheErr != nil {
			return fmt.Errorf("failed to read the disk cache: %w", cacheErr)
		}
		if ok {
			rows, module = art.Rows, art.Module
		}
	}

	if rows == nil {
		phase := timer.Begin("manifest")
		m, loadErr := driver.LoadManifest(manifestPath)
		if loadErr != nil {
			return loadErr
		}
		timer.End(phase, fmt.Sprintf("%d declarations", len(m.Decls)))
		module = m.Module

		phase = timer.Begin("layout")
		m.Registry.Freeze()
		bag := diag.NewBag(maxDiagnostics)
		computed := layout.NewEngine(m.Registry, target).Compute(bag)
		rows = driver.Rows(m, computed)
		timer.End(phase, fmt.Sprintf("%d rows", len(rows)))

		if bag.Len() > 0 {
			bag.Sort()
			stderrColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
			driver.PrintDiagnostics(os.Stderr, bag, m.Files, stderrColor)
		}
		hadErrors = bag.HasErrors()

		// Only clean runs are cached; a hit must never hide diagnostics.
		if cache != nil && !hadErrors {
			art := &driver.Artifact{Module: module, Triple: target.Triple, Rows: rows}
			if putErr := cache.Put(key, art); putErr != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to write the disk cache: %v\n", putErr)
			}
		}
	}

	title := fmt.Sprintf("%s (%s)", module, target.Triple)
	if shouldUseTUI(mode) {
		if err := ui.RunBrowser(title, rows); err != nil {
			return fmt.Errorf("browser failed: %w", err)
		}
	} else {
		if !quiet {
			fmt.Fprintln(os.Stdout, title)
		}
		fmt.Fprint(os.Stdout, driver.RenderTable(rows, driver.RenderOpts{Color: useColor}))
	}

	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}

	if hadErrors {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}
