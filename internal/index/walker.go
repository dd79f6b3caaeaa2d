package index

import "quarry/internal/symbols"

// Walker tracks a position in the index tree for scope-relative
// lookups. Because anonymous namespaces are transparent, a position is
// a set of nodes, not a single one. Walks are reversible: WalkUp
// returns to the previous position.
type Walker struct {
	stages [][]*Node
	path   []string
}

// NewWalker starts at the tree root.
func NewWalker(ix *Index) *Walker {
	return &Walker{stages: [][]*Node{{ix.Root()}}}
}

// Path returns the component names walked into so far.
func (w *Walker) Path() []string { return w.path }

// Current returns the node set for the present position.
func (w *Walker) Current() []*Node {
	return w.stages[len(w.stages)-1]
}

// AtRoot reports whether no descent is in effect.
func (w *Walker) AtRoot() bool { return len(w.stages) == 1 }

// WalkInto descends one component through namespace and type children,
// seen through anonymous namespaces. It returns false, without moving,
// when no current node has a matching child.
func (w *Walker) WalkInto(comp symbols.Component) bool {
	name := comp.Canonical()
	var next []*Node
	for _, cur := range w.Current() {
		for _, scope := range cur.AnonClosure() {
			if c := scope.Child(KindNamespace, name); c != nil {
				next = append(next, c)
			}
			if c := scope.Child(KindType, name); c != nil {
				next = append(next, c)
			}
		}
	}
	if len(next) == 0 {
		return false
	}
	w.stages = append(w.stages, next)
	w.path = append(w.path, name)
	return true
}

// WalkUp pops one descent, returning false at the root.
func (w *Walker) WalkUp() bool {
	if w.AtRoot() {
		return false
	}
	w.stages = w.stages[:len(w.stages)-1]
	w.path = w.path[:len(w.path)-1]
	return true
}

// WalkIntoClosest descends as many leading components of scope as
// match, stopping quietly at the first that does not. This positions a
// lookup at the deepest indexed scope enclosing a code location even
// when inner scopes contributed no names.
func (w *Walker) WalkIntoClosest(scope symbols.Identifier) {
	for _, comp := range scope.Comps {
		if !w.WalkInto(comp) {
			return
		}
	}
}

// FindExact resolves id relative to the current position.
func (w *Walker) FindExact(id symbols.Identifier) []*Node {
	var out []*Node
	for _, cur := range w.Current() {
		out = append(out, cur.FindExact(id.Comps)...)
	}
	return out
}

// FindPrefix resolves id relative to the current position, matching
// the last component by prefix.
func (w *Walker) FindPrefix(id symbols.Identifier) []*Node {
	var out []*Node
	for _, cur := range w.Current() {
		out = append(out, cur.FindPrefix(id.Comps)...)
	}
	return out
}
