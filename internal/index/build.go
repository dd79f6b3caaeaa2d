package index

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/symbols"
	"quarry/internal/trace"
)

// Ancestor chains longer than this are treated as corrupt and the
// record is skipped rather than looping.
const maxScopeDepth = 16

// Stats summarizes one build for diagnostics.
type Stats struct {
	Units   int
	Records int
	Indexed int
}

// Index is the per-module name tree plus entry-point bookkeeping.
type Index struct {
	root  *Node
	mains []Ref
	stats Stats
}

// Root returns the tree root standing for the global scope.
func (ix *Index) Root() *Node { return ix.root }

// MainFunctions lists every function flagged as the program entry
// point, across all units.
func (ix *Index) MainFunctions() []Ref { return ix.mains }

// Stats returns build counters.
func (ix *Index) Stats() Stats { return ix.stats }

// FindExact resolves a globally-qualified identifier against the tree.
func (ix *Index) FindExact(id symbols.Identifier) []*Node {
	return ix.root.FindExact(id.Comps)
}

// FindPrefix resolves a globally-qualified identifier whose last
// component is a name prefix.
func (ix *Index) FindPrefix(id symbols.Identifier) []*Node {
	return ix.root.FindPrefix(id.Comps)
}

// Build indexes the units, one goroutine per unit, then merges the
// partial trees in unit order so reference order is deterministic.
func Build(ctx context.Context, units []*records.Unit, tracer trace.Tracer) (*Index, error) {
	if tracer == nil {
		tracer = trace.Nop
	}
	partials := make([]*Index, len(units))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = buildUnit(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Index{root: NewRootNode()}
	for _, p := range partials {
		mergeNodes(out.root, p.root)
		out.mains = append(out.mains, p.mains...)
		out.stats.Records += p.stats.Records
		out.stats.Indexed += p.stats.Indexed
	}
	out.stats.Units = len(units)
	trace.Emitf(tracer, trace.LevelModule, "index",
		"indexed %d names from %d records in %d units",
		out.stats.Indexed, out.stats.Records, out.stats.Units)
	return out, nil
}

func buildUnit(u *records.Unit) *Index {
	ix := &Index{root: NewRootNode()}
	for _, off := range u.Offsets() {
		r := u.Record(off)
		ix.stats.Records++
		kind, isDecl := kindForRecord(u, r)
		if kind == KindRoot {
			continue
		}
		name, ok := indexName(u, r)
		if !ok {
			continue
		}
		scope, ok := scopeNodeFor(ix.root, u, r)
		if !ok {
			continue
		}
		leaf := scope.ensure(kind, name)
		leaf.Refs = append(leaf.Refs, Ref{Unit: u, Offset: r.Offset, IsDecl: isDecl})
		ix.stats.Indexed++
		if kind == KindFunction && r.Flag(dwarf.AttrMainSubprogram) {
			ix.mains = append(ix.mains, Ref{Unit: u, Offset: r.Offset})
		}
	}
	return ix
}

// kindForRecord decides whether a record is indexable and as what.
// KindRoot means not indexed.
func kindForRecord(u *records.Unit, r *records.Record) (Kind, bool) {
	switch {
	case r.Tag == dwarf.TagSubprogram:
		// Only functions with code; declarations reach the index
		// through the definitions that reference them.
		if len(r.Ranges) == 0 {
			return KindRoot, false
		}
		return KindFunction, false
	case r.Tag == dwarf.TagNamespace:
		return KindNamespace, false
	case r.Tag.IsType():
		return KindType, r.Flag(dwarf.AttrDeclaration)
	case r.Tag == dwarf.TagVariable:
		if !r.Has(dwarf.AttrLocation) {
			return KindRoot, false
		}
		return KindVar, false
	case r.Tag == dwarf.TagMember:
		// Class constants have their value on the member record itself
		// and no storage, so the member is the thing to find.
		if !r.Has(dwarf.AttrConstValue) {
			return KindRoot, false
		}
		return KindVar, false
	}
	return KindRoot, false
}

// indexName finds the record's name, following the specification link
// when the definition itself is unnamed.
func indexName(u *records.Unit, r *records.Record) (string, bool) {
	if name, ok := r.Str(dwarf.AttrName); ok {
		return canonicalName(name), true
	}
	if specOff, ok := r.Ref(dwarf.AttrSpecification); ok {
		if spec := u.Record(specOff); spec != nil {
			if name, ok := spec.Str(dwarf.AttrName); ok {
				return canonicalName(name), true
			}
		}
	}
	if r.Tag == dwarf.TagNamespace {
		// Anonymous namespace, indexed under the empty name.
		return "", true
	}
	return "", false
}

func canonicalName(name string) string {
	if !strings.ContainsRune(name, '<') {
		return name
	}
	return symbols.ParseComponent(name).Canonical()
}

// scopeNodeFor walks the ancestor chain to find or create the scope
// node the record belongs under. Records whose spec link places them
// inside a class are indexed there, not at their lexical position.
// Function-local records are not indexed at all.
func scopeNodeFor(root *Node, u *records.Unit, r *records.Record) (*Node, bool) {
	base := r
	if specOff, ok := r.Ref(dwarf.AttrSpecification); ok {
		if spec := u.Record(specOff); spec != nil {
			base = spec
		}
	}

	var chain []*records.Record
	cur := base.Parent
	for depth := 0; cur != records.NoOffset; depth++ {
		if depth >= maxScopeDepth {
			return nil, false
		}
		p := u.Record(cur)
		if p == nil {
			return nil, false
		}
		switch {
		case p.Tag == dwarf.TagCompileUnit:
			cur = records.NoOffset
			continue
		case p.Tag.IsCodeBlock():
			return nil, false
		case p.Tag == dwarf.TagNamespace || p.Tag.IsCollection() || p.Tag == dwarf.TagEnumerationType:
			chain = append(chain, p)
		}
		cur = p.Parent
	}

	node := root
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		name, _ := p.Str(dwarf.AttrName)
		kind := KindType
		if p.Tag == dwarf.TagNamespace {
			kind = KindNamespace
		}
		node = node.ensure(kind, canonicalName(name))
	}
	return node, true
}

func mergeNodes(dst, src *Node) {
	dst.Refs = append(dst.Refs, src.Refs...)
	for _, k := range []Kind{KindNamespace, KindType, KindFunction, KindVar} {
		m := src.kindMap(k)
		if m == nil || *m == nil {
			continue
		}
		for name, child := range *m {
			mergeNodes(dst.ensure(k, name), child)
		}
	}
}
