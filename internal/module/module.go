// Package module ties the per-binary pieces together: the decoded
// record units, the symbol factory, and the name index, plus the
// catalog of every loaded module and the address arithmetic between
// them.
package module

import (
	"context"

	"quarry/internal/dwarf"
	"quarry/internal/index"
	"quarry/internal/records"
	"quarry/internal/symbols"
	"quarry/internal/trace"
)

// SymbolContext converts between module-relative addresses, which all
// symbol data uses, and absolute addresses in a running process.
type SymbolContext struct {
	LoadAddress uint64
}

// RelativeToAbsolute maps a module-relative address to process space.
func (c SymbolContext) RelativeToAbsolute(rel uint64) uint64 {
	return c.LoadAddress + rel
}

// AbsoluteToRelative maps a process address back into the module, ok
// false when the address precedes the load address.
func (c SymbolContext) AbsoluteToRelative(abs uint64) (uint64, bool) {
	if abs < c.LoadAddress {
		return 0, false
	}
	return abs - c.LoadAddress, true
}

// Module is one binary's symbols: its units, the factory decoding them,
// and the name index over them.
type Module struct {
	Name    string
	Units   []*records.Unit
	Index   *index.Index
	Factory *symbols.RecordFactory
}

// Load builds a module from its units, indexing them.
func Load(ctx context.Context, name string, units []*records.Unit, tracer trace.Tracer) (*Module, error) {
	if tracer == nil {
		tracer = trace.Nop
	}
	ix, err := index.Build(ctx, units, tracer)
	if err != nil {
		return nil, err
	}
	trace.Emitf(tracer, trace.LevelModule, "module", "loaded %s: %d units", name, len(units))
	return &Module{
		Name:    name,
		Units:   units,
		Index:   ix,
		Factory: symbols.NewFactory(tracer),
	}, nil
}

// Symbol decodes the record behind an index ref.
func (m *Module) Symbol(ref index.Ref) symbols.Symbol {
	return m.Factory.DecodeSymbol(ref.Unit, ref.Offset)
}

// BlockForIP finds the innermost code block or function covering the
// module-relative address, nil when no function's ranges contain it.
func (m *Module) BlockForIP(ip uint64) symbols.Symbol {
	for _, u := range m.Units {
		for _, off := range u.Offsets() {
			r := u.Record(off)
			if r.Tag != dwarf.TagSubprogram || len(r.Ranges) == 0 {
				continue
			}
			covered := false
			for _, rng := range r.Ranges {
				if rng.Contains(ip) {
					covered = true
					break
				}
			}
			if !covered {
				continue
			}
			return symbols.InnermostBlockFor(m.Factory.DecodeSymbol(u, off), ip)
		}
	}
	return nil
}

// LoadedModule pairs a module with where it sits in process space.
type LoadedModule struct {
	Module  *Module
	Context SymbolContext
}

// Catalog is every module loaded into one process. Enumeration order
// is registration order; cross-module lookups use it as the tie-break.
type Catalog struct {
	loaded []LoadedModule
}

// Add registers a module at its load address.
func (c *Catalog) Add(m *Module, loadAddress uint64) {
	c.loaded = append(c.loaded, LoadedModule{Module: m, Context: SymbolContext{LoadAddress: loadAddress}})
}

// Modules returns the loaded modules in registration order.
func (c *Catalog) Modules() []LoadedModule { return c.loaded }

// ForAddress finds the module whose relative space an absolute address
// most plausibly belongs to: the one with the highest load address not
// above it.
func (c *Catalog) ForAddress(abs uint64) *LoadedModule {
	var best *LoadedModule
	for i := range c.loaded {
		lm := &c.loaded[i]
		if lm.Context.LoadAddress <= abs {
			if best == nil || lm.Context.LoadAddress > best.Context.LoadAddress {
				best = lm
			}
		}
	}
	return best
}

// ByName finds a loaded module, nil when absent.
func (c *Catalog) ByName(name string) *LoadedModule {
	for i := range c.loaded {
		if c.loaded[i].Module.Name == name {
			return &c.loaded[i]
		}
	}
	return nil
}
