package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"quarry/internal/module"
	"quarry/internal/resolve"
	"quarry/internal/symbols"
)

var findCmd = &cobra.Command{
	Use:   "find [flags] identifier",
	Short: "Resolve a name the way the debugger would",
	Long: `Find resolves an identifier against the project's symbol modules:
local variables when an --ip gives a code position, then the receiver
object inside methods, then the name indexes from the current scope out
to the global one`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().String("module", "", "module providing the lookup context (default: first in quarry.toml)")
	findCmd.Flags().String("ip", "", "absolute code address establishing the local scope")
	findCmd.Flags().String("kinds", "", "comma-separated result kinds (variable,member,type,function,namespace,template)")
	findCmd.Flags().Int("max", 10, "maximum number of results (0 for no cap)")
}

func runFind(cmd *cobra.Command, args []string) error {
	id := symbols.ParseIdentifier(args[0])
	if id.Empty() {
		return fmt.Errorf("empty identifier")
	}

	tracer, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	manifest, err := loadProjectManifest(".")
	if err != nil {
		return err
	}
	// Lookups are batch here; the progress TUI is for indexing.
	catalog, err := loadCatalog(cmd.Context(), manifest, tracer, nil)
	if err != nil {
		return err
	}

	fc, err := findContext(cmd, catalog)
	if err != nil {
		return err
	}
	opts, err := findOptions(cmd)
	if err != nil {
		return err
	}

	results := resolve.FindAll(fc, opts, id)
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no match for %q\n", id.Full())
		return nil
	}
	printResults(cmd, results)
	return nil
}

// findContext builds the lookup context from the --module and --ip flags.
func findContext(cmd *cobra.Command, catalog *module.Catalog) (resolve.Context, error) {
	fc := resolve.Context{Catalog: catalog}

	modName, _ := cmd.Flags().GetString("module")
	if modName != "" {
		lm := catalog.ByName(modName)
		if lm == nil {
			return fc, fmt.Errorf("module %q is not in quarry.toml", modName)
		}
		fc.Module = lm.Module
	} else if mods := catalog.Modules(); len(mods) > 0 {
		fc.Module = mods[0].Module
	}

	ipStr, _ := cmd.Flags().GetString("ip")
	if ipStr == "" {
		return fc, nil
	}
	ip, err := strconv.ParseUint(strings.TrimSpace(ipStr), 0, 64)
	if err != nil {
		return fc, fmt.Errorf("invalid --ip %q: %w", ipStr, err)
	}
	lm := catalog.ForAddress(ip)
	if lm == nil {
		return fc, fmt.Errorf("address %#x is below every loaded module", ip)
	}
	rel, ok := lm.Context.AbsoluteToRelative(ip)
	if !ok {
		return fc, fmt.Errorf("address %#x is outside module %q", ip, lm.Module.Name)
	}
	fc.Module = lm.Module
	fc.Block = lm.Module.BlockForIP(rel)
	return fc, nil
}

// findOptions translates the --kinds and --max flags.
func findOptions(cmd *cobra.Command) (resolve.Options, error) {
	max, err := cmd.Flags().GetInt("max")
	if err != nil {
		return resolve.Options{}, fmt.Errorf("failed to get max flag: %w", err)
	}
	kindsStr, _ := cmd.Flags().GetString("kinds")
	if strings.TrimSpace(kindsStr) == "" {
		return resolve.AllKinds(max), nil
	}

	opts := resolve.Options{MaxResults: max}
	for _, k := range strings.Split(kindsStr, ",") {
		switch strings.TrimSpace(strings.ToLower(k)) {
		case "variable", "var":
			opts.Vars = true
		case "member":
			opts.Members = true
		case "type":
			opts.Types = true
		case "function", "func":
			opts.Functions = true
		case "namespace", "ns":
			opts.Namespaces = true
		case "template":
			opts.Templates = true
		default:
			return opts, fmt.Errorf("unknown kind %q", k)
		}
	}
	return opts, nil
}

func printResults(cmd *cobra.Command, results []resolve.FoundName) {
	colorize := useColor(cmd, os.Stdout)
	kindStyle := color.New(color.FgYellow)
	if !colorize {
		kindStyle.DisableColor()
	}

	out := cmd.OutOrStdout()
	for _, f := range results {
		// Pad before coloring so escape codes do not skew the column.
		kind := f.Kind.String()
		pad := strings.Repeat(" ", max(0, 10-runewidth.StringWidth(kind)))
		fmt.Fprintf(out, "%s%s %s\n", kindStyle.Sprint(kind), pad, describeFound(f))
	}
}

func describeFound(f resolve.FoundName) string {
	switch f.Kind {
	case resolve.FoundVariable:
		return fmt.Sprintf("%s: %s", symbols.FullName(f.Variable), lazyTypeName(f.Variable.Type))
	case resolve.FoundMember:
		return fmt.Sprintf("%s: %s (offset %d)", f.Object.Member.AssignedName(), lazyTypeName(f.Object.Member.Type), f.Object.Offset)
	case resolve.FoundType:
		return fmt.Sprintf("%s (%d bytes)", symbols.FullName(f.Type), f.Type.ByteSize())
	case resolve.FoundFunction:
		desc := symbols.FullName(f.Function)
		if len(f.Function.Ranges) > 0 {
			desc += fmt.Sprintf(" @ %#x", f.Function.Ranges[0].Begin)
		}
		return desc
	case resolve.FoundNamespace:
		return f.Namespace
	case resolve.FoundTemplate:
		return f.Template + "<...>"
	}
	return "?"
}

func lazyTypeName(l symbols.LazySymbol) string {
	if !l.IsValid() {
		return "?"
	}
	t, ok := l.Get().(symbols.Type)
	if !ok {
		return "?"
	}
	return symbols.FullName(t)
}
