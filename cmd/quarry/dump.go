package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/symbols"
	"quarry/internal/trace"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] file.units [offset]",
	Short: "Show the records inside a unit file",
	Long: `Dump lists every record in a unit file as an indented tree, or
decodes the single record at the given offset into its symbol`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("unit", "", "restrict output to the named unit")
}

func runDump(cmd *cobra.Command, args []string) error {
	tracer, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	units, err := readUnitFile(args[0])
	if err != nil {
		return err
	}
	unitName, _ := cmd.Flags().GetString("unit")
	if unitName != "" {
		units = filterUnits(units, unitName)
		if len(units) == 0 {
			return fmt.Errorf("no unit named %q in %s", unitName, args[0])
		}
	}

	if len(args) == 2 {
		offset, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}
		return dumpSymbol(cmd, units, uint32(offset), tracer)
	}
	return dumpTree(cmd, units)
}

func filterUnits(units []*records.Unit, name string) []*records.Unit {
	var out []*records.Unit
	for _, u := range units {
		if u.Name() == name {
			out = append(out, u)
		}
	}
	return out
}

func dumpTree(cmd *cobra.Command, units []*records.Unit) error {
	out := cmd.OutOrStdout()
	tagStyle := color.New(color.FgGreen)
	if !useColor(cmd, os.Stdout) {
		tagStyle.DisableColor()
	}

	for _, u := range units {
		fmt.Fprintf(out, "unit %s (base %#x, %d records)\n", u.Name(), u.BaseAddr(), u.Len())
		for _, off := range u.Offsets() {
			r := u.Record(off)
			indent := ""
			for p := u.ParentOf(r); p != nil; p = u.ParentOf(p) {
				indent += "  "
			}
			name, _ := r.Str(dwarf.AttrName)
			fmt.Fprintf(out, "  %6d %s%s %s\n", off, indent, tagStyle.Sprint(r.Tag.String()), name)
		}
	}
	return nil
}

// dumpSymbol decodes one record and prints the symbol view of it. The
// offset must belong to exactly one of the selected units.
func dumpSymbol(cmd *cobra.Command, units []*records.Unit, offset uint32, tracer trace.Tracer) error {
	var unit *records.Unit
	for _, u := range units {
		if u.Record(offset) != nil {
			if unit != nil {
				return fmt.Errorf("offset %d exists in both %q and %q; pick one with --unit", offset, unit.Name(), u.Name())
			}
			unit = u
		}
	}
	if unit == nil {
		return fmt.Errorf("no record at offset %d", offset)
	}

	factory := symbols.NewFactory(tracer)
	sym := factory.DecodeSymbol(unit, offset)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "offset: %d (unit %s)\n", offset, unit.Name())
	fmt.Fprintf(out, "tag:    %s\n", sym.Tag())
	fmt.Fprintf(out, "name:   %s\n", symbols.FullName(sym))

	if t, ok := sym.(symbols.Type); ok {
		fmt.Fprintf(out, "size:   %d bytes\n", t.ByteSize())
		if t.IsDeclaration() {
			fmt.Fprintln(out, "note:   forward declaration")
		}
	}
	if v, ok := sym.(*symbols.Variable); ok {
		switch {
		case v.Location.IsNull():
			fmt.Fprintln(out, "loc:    none")
		case len(v.Location.Entries()) == 0:
			fmt.Fprintln(out, "loc:    valid everywhere")
		default:
			for _, e := range v.Location.Entries() {
				fmt.Fprintf(out, "loc:    [%#x,%#x) %d-byte expr\n", e.Begin, e.End, len(e.Expr))
			}
		}
	}
	if fn := symbols.AsFunction(sym); fn != nil {
		for _, r := range fn.Ranges {
			fmt.Fprintf(out, "range:  [%#x,%#x)\n", r.Begin, r.End)
		}
		if fn.LinkageName != "" {
			fmt.Fprintf(out, "mangle: %s\n", fn.LinkageName)
		}
	}
	return nil
}
