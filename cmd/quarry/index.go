package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"quarry/internal/trace"
)

var indexCmd = &cobra.Command{
	Use:   "index [flags] [dir]",
	Short: "Load a project's symbol modules and build their name indexes",
	Long:  `Index reads every unit file quarry.toml names, builds the per-module name index, and caches it for later lookups`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().Bool("no-cache", false, "skip writing the index cache")
}

func runIndex(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}

	tracer, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	uiFlag, _ := cmd.Root().PersistentFlags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	manifest, err := loadProjectManifest(startDir)
	if err != nil {
		return err
	}

	catalog, err := loadProjectCatalog(cmd.Context(), "indexing "+manifest.Config.Project.Name, manifest, tracer, mode)
	if err != nil {
		return err
	}

	var cacheDir string
	if !noCache {
		cacheDir, err = indexCacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve cache dir: %w", err)
		}
	}

	colorize := useColor(cmd, os.Stdout)
	nameStyle := color.New(color.FgCyan, color.Bold)
	if !colorize {
		nameStyle.DisableColor()
	}

	nameWidth := 0
	for _, lm := range catalog.Modules() {
		if w := runewidth.StringWidth(lm.Module.Name); w > nameWidth {
			nameWidth = w
		}
	}

	out := cmd.OutOrStdout()
	for i, lm := range catalog.Modules() {
		m := lm.Module
		st := m.Index.Stats()
		pad := nameWidth - runewidth.StringWidth(m.Name)
		fmt.Fprintf(out, "%s%*s  %d units, %d records, %d indexed  @ %#x\n",
			nameStyle.Sprint(m.Name), pad, "", st.Units, st.Records, st.Indexed,
			lm.Context.LoadAddress)

		if noCache {
			continue
		}
		mod := manifest.Config.Modules[i]
		path, err := writeIndexCache(cacheDir, m, manifest.unitPaths(mod))
		if err != nil {
			return fmt.Errorf("module %q: failed to write index cache: %w", m.Name, err)
		}
		trace.Emitf(tracer, trace.LevelModule, "index", "cached %s -> %s", m.Name, path)
	}
	return nil
}
