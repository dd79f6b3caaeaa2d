package resolve

import (
	"strings"

	"quarry/internal/dwarf"
	"quarry/internal/index"
	"quarry/internal/module"
	"quarry/internal/symbols"
)

// Context anchors a lookup at a code location. Block is the innermost
// code block or function covering the location, nil for lookups with no
// code context. Module is the block's module; Catalog holds every
// loaded module for cross-module fallback. Any field may be nil.
type Context struct {
	Block   symbols.Symbol
	Module  *module.Module
	Catalog *module.Catalog
}

// FindName returns the best match for id, or a FoundNone result.
//
// Resolution order mirrors the language: lexical blocks from the
// innermost outward, stopping for good at the first function boundary
// after its parameters; then the receiver object when the location is
// inside a method; then the indexes, ascending from the current scope
// to the global one, current module before the rest of the catalog.
// A leading "::" skips the first two steps and pins the index search
// to the global scope.
func FindName(fc Context, opts Options, id symbols.Identifier) FoundName {
	opts.MaxResults = 1
	if r := FindAll(fc, opts, id); len(r) > 0 {
		return r[0]
	}
	return FoundName{}
}

// FindAll collects up to opts.MaxResults matches in resolution order.
// MaxResults zero means no cap.
func FindAll(fc Context, opts Options, id symbols.Identifier) []FoundName {
	c := &collector{opts: opts}
	if id.Empty() {
		return nil
	}
	global := id.Qual == symbols.QualGlobal

	if !global && len(id.Comps) == 1 && fc.Block != nil {
		findLocal(fc.Block, id.Comps[0], c)
		if c.full() {
			return c.found
		}
		findOnThis(fc, id.Comps[0], c)
		if c.full() {
			return c.found
		}
	}

	findIndexed(fc, id, global, c)
	return c.found
}

// findLocal walks blocks from the innermost outward. The first
// function reached contributes its parameters and then ends the walk:
// names outside the function are never lexically visible, whatever
// blocks enclose it.
func findLocal(block symbols.Symbol, comp symbols.Component, c *collector) {
	if !c.opts.Vars {
		return
	}
	name := comp.Canonical()
	for cur := block; cur != nil; {
		if cb := symbols.AsCodeBlock(cur); cb != nil {
			if matchVariables(cb.Variables, name, c) {
				return
			}
		}
		if fn := symbols.AsFunction(cur); fn != nil {
			matchVariables(fn.Parameters, name, c)
			return
		}
		enc := cur.Enclosing()
		if !enc.IsValid() {
			return
		}
		cur = enc.Get()
	}
}

// nameMatches compares a candidate against the query under the
// lookup's matching mode.
func nameMatches(name, query string, prefix bool) bool {
	if prefix {
		return strings.HasPrefix(name, query)
	}
	return name == query
}

func matchVariables(vars []symbols.LazySymbol, name string, c *collector) bool {
	for _, lazy := range vars {
		v, ok := lazy.Get().(*symbols.Variable)
		if !ok || !nameMatches(v.AssignedName(), name, c.opts.Prefix) {
			continue
		}
		c.add(FoundName{Kind: FoundVariable, Variable: v})
		if c.full() {
			return true
		}
	}
	return false
}

// findOnThis searches the receiver object of the containing method:
// its data members and base classes first, then the collection's own
// index scope, without ascending further. A receiver that is not a
// pointer to a collection means the search simply does not apply.
func findOnThis(fc Context, comp symbols.Component, c *collector) {
	fn := symbols.ContainingFunction(fc.Block)
	if fn == nil || !fn.ObjectPtr.IsValid() {
		return
	}
	ov, ok := fn.ObjectPtr.Get().(*symbols.Variable)
	if !ok {
		return
	}
	ptr, ok := symbols.StripCVT(lazyType(ov.Type)).(*symbols.ModifiedType)
	if !ok || ptr.Tag() != dwarf.TagPointerType {
		return
	}
	coll, ok := symbols.StripCVT(lazyType(ptr.Modified)).(*symbols.Collection)
	if !ok {
		return
	}

	if c.opts.Members {
		FindMember(coll, comp, c)
		if c.full() {
			return
		}
	}

	// Static members, nested types, and class constants live in the
	// index under the class scope, not on the object layout.
	classScope := symbols.FullIdentifier(coll)
	id := symbols.Identifier{Comps: []symbols.Component{comp}}
	for _, m := range moduleOrder(fc) {
		w := index.NewWalker(m.Index)
		entered := true
		for _, sc := range classScope.Comps {
			if !w.WalkInto(sc) {
				entered = false
				break
			}
		}
		if !entered {
			continue
		}
		queryLevel(m, w, id, c)
		if c.full() {
			return
		}
	}
}

// findIndexed queries the module indexes, ascending scope by scope for
// relative identifiers and staying at the root for global ones.
func findIndexed(fc Context, id symbols.Identifier, global bool, c *collector) {
	var scope symbols.Identifier
	if !global {
		if fn := symbols.ContainingFunction(fc.Block); fn != nil {
			scope = symbols.ScopeIdentifier(fn)
		}
	}
	for _, m := range moduleOrder(fc) {
		searchModuleIndex(m, scope, id, !global, c)
		if c.full() {
			return
		}
	}
}

func searchModuleIndex(m *module.Module, scope symbols.Identifier, id symbols.Identifier, ascend bool, c *collector) {
	w := index.NewWalker(m.Index)
	if ascend {
		w.WalkIntoClosest(scope)
	}
	for {
		if queryLevel(m, w, id, c) {
			// The closest enclosing scope that knows the name wins;
			// outer scopes would only shadow-break it.
			return
		}
		if c.full() {
			return
		}
		if !ascend || !w.WalkUp() {
			return
		}
	}
}

// queryLevel resolves id relative to the walker position, reporting
// whether anything was added.
func queryLevel(m *module.Module, w *index.Walker, id symbols.Identifier, c *collector) bool {
	var nodes []*index.Node
	if c.opts.Prefix {
		nodes = w.FindPrefix(id)
	} else {
		nodes = w.FindExact(id)
	}
	added := false
	for _, n := range nodes {
		if addNode(m, w, id, n, c) {
			added = true
		}
		if c.full() {
			return added
		}
	}
	if added {
		return true
	}

	// No exact match: a bare name may still denote a template family.
	// Prefix mode already reached instantiations through their names.
	last := id.Last()
	if !c.opts.Templates || c.opts.Prefix || last.HasTemplate {
		return false
	}
	for _, sn := range scopeNodes(w.Current(), id.Scope().Comps) {
		if sn.HasTemplateWithBase(last.Name) {
			c.add(FoundName{Kind: FoundTemplate, Template: joinPath(w.Path(), id)})
			return true
		}
	}
	return false
}

func addNode(m *module.Module, w *index.Walker, id symbols.Identifier, n *index.Node, c *collector) bool {
	switch n.Kind {
	case index.KindNamespace:
		if !c.opts.Namespaces {
			return false
		}
		// Render the matched node's own name: under prefix matching it
		// can extend past the queried component.
		scoped := id.Scope().Append(symbols.ParseComponent(n.Name))
		c.add(FoundName{Kind: FoundNamespace, Namespace: joinPath(w.Path(), scoped)})
		return true
	case index.KindType:
		if !c.opts.Types {
			return false
		}
		t, ok := m.Symbol(preferDefinition(n.Refs)).(symbols.Type)
		if !ok {
			return false
		}
		c.add(FoundName{Kind: FoundType, Type: t})
		return true
	case index.KindFunction:
		if !c.opts.Functions {
			return false
		}
		fn, ok := m.Symbol(n.Refs[0]).(*symbols.Function)
		if !ok {
			return false
		}
		c.add(FoundName{Kind: FoundFunction, Function: fn})
		return true
	case index.KindVar:
		switch sym := m.Symbol(n.Refs[0]).(type) {
		case *symbols.Variable:
			if c.opts.Vars {
				c.add(FoundName{Kind: FoundVariable, Variable: sym})
				return true
			}
		case *symbols.DataMember:
			// A class constant: a member with its value on the record
			// and no object behind it.
			if c.opts.Members {
				c.add(FoundName{Kind: FoundMember, Object: Member{Member: sym}})
				return true
			}
		}
	}
	return false
}

// preferDefinition picks a non-declaration ref when one exists, so a
// type resolves to its layout rather than a forward declaration.
func preferDefinition(refs []index.Ref) index.Ref {
	for _, r := range refs {
		if !r.IsDecl {
			return r
		}
	}
	return refs[0]
}

// scopeNodes descends intermediate identifier components through
// namespace and type children only.
func scopeNodes(from []*index.Node, comps []symbols.Component) []*index.Node {
	frontier := from
	for _, comp := range comps {
		name := comp.Canonical()
		var next []*index.Node
		for _, cur := range frontier {
			for _, sc := range cur.AnonClosure() {
				if c := sc.Child(index.KindNamespace, name); c != nil {
					next = append(next, c)
				}
				if c := sc.Child(index.KindType, name); c != nil {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}
	return frontier
}

// joinPath renders the walked scope plus the identifier as a display
// name, anonymous scopes included.
func joinPath(path []string, id symbols.Identifier) string {
	parts := make([]string, 0, len(path)+len(id.Comps))
	for _, p := range path {
		parts = append(parts, orAnon(p))
	}
	for _, comp := range id.Comps {
		parts = append(parts, orAnon(comp.Canonical()))
	}
	return strings.Join(parts, "::")
}

func orAnon(s string) string {
	if s == "" {
		return symbols.AnonName
	}
	return s
}

func moduleOrder(fc Context) []*module.Module {
	var out []*module.Module
	if fc.Module != nil {
		out = append(out, fc.Module)
	}
	if fc.Catalog != nil {
		for _, lm := range fc.Catalog.Modules() {
			if lm.Module != fc.Module {
				out = append(out, lm.Module)
			}
		}
	}
	return out
}
