package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quarry/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Debug symbol resolution toolkit",
	Long:  `Quarry decodes debug-symbol unit files, indexes them, and resolves names the way a native debugger does`,
}

func main() {
	// Version for the automatic --version flag.
	rootCmd.Version = version.Version

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(versionCmd)

	// Global flags
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("ui", "auto", "interactive progress display (auto|on|off)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace verbosity (off|error|module|debug)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the output target.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	return mode == "on" || (mode == "auto" && isTerminal(f))
}
