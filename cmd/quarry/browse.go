package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"quarry/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [flags] [module]",
	Short: "Walk a module's name index interactively",
	Long: `Browse opens a scope-by-scope view of a module's name index:
namespaces and types descend, functions and variables are leaves`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("browse needs a terminal")
	}

	tracer, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	manifest, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cmd.Context(), manifest, tracer, nil)
	if err != nil {
		return err
	}

	lm := catalog.Modules()[0]
	if len(args) == 1 {
		named := catalog.ByName(args[0])
		if named == nil {
			return fmt.Errorf("module %q is not in quarry.toml", args[0])
		}
		lm = *named
	}

	model := ui.NewBrowserModel(lm.Module.Name, lm.Module.Index)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
