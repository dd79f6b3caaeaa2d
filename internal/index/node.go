// Package index builds a per-module name index over decoded record
// units: a tree of scope nodes (namespaces and types) whose leaves hold
// record references for every globally-visible name. Lookups walk the tree
// instead of scanning records.
package index

import (
	"sort"
	"strings"

	"quarry/internal/records"
	"quarry/internal/symbols"
)

// Kind classifies what a node names.
type Kind uint8

const (
	KindRoot Kind = iota
	KindNamespace
	KindType
	KindFunction
	KindVar
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindNamespace:
		return "namespace"
	case KindType:
		return "type"
	case KindFunction:
		return "function"
	case KindVar:
		return "variable"
	}
	return "?"
}

// Ref points at one record contributing to a name. IsDecl marks type
// records that are forward declarations rather than definitions.
type Ref struct {
	Unit   *records.Unit
	Offset uint32
	IsDecl bool
}

// Node is one scope or name in the index tree. A name can exist in
// several kind maps at once (a type and a function may share a name);
// each kind map owns its own child node.
type Node struct {
	Name string
	Kind Kind
	Refs []Ref

	namespaces map[string]*Node
	types      map[string]*Node
	functions  map[string]*Node
	vars       map[string]*Node
}

// NewRootNode makes an empty tree root.
func NewRootNode() *Node {
	return &Node{Kind: KindRoot}
}

func (n *Node) kindMap(k Kind) *map[string]*Node {
	switch k {
	case KindNamespace:
		return &n.namespaces
	case KindType:
		return &n.types
	case KindFunction:
		return &n.functions
	case KindVar:
		return &n.vars
	}
	return nil
}

// Child returns the child of the given kind and name, nil when absent.
func (n *Node) Child(k Kind, name string) *Node {
	m := n.kindMap(k)
	if m == nil || *m == nil {
		return nil
	}
	return (*m)[name]
}

func (n *Node) ensure(k Kind, name string) *Node {
	m := n.kindMap(k)
	if *m == nil {
		*m = make(map[string]*Node)
	}
	if c, ok := (*m)[name]; ok {
		return c
	}
	c := &Node{Name: name, Kind: k}
	(*m)[name] = c
	return c
}

// Children appends every child of kind k to out, in no particular
// order.
func (n *Node) Children(k Kind, out []*Node) []*Node {
	m := n.kindMap(k)
	if m == nil {
		return out
	}
	for _, c := range *m {
		out = append(out, c)
	}
	return out
}

// AnonClosure returns n plus every node reachable from it through
// anonymous namespaces. Lookups see through unnamed namespaces without
// consuming an identifier component.
func (n *Node) AnonClosure() []*Node {
	out := []*Node{n}
	for i := 0; i < len(out); i++ {
		if anon := out[i].Child(KindNamespace, ""); anon != nil {
			out = append(out, anon)
		}
	}
	return out
}

// MatchExact collects children matching one identifier component across
// every kind map, seen through anonymous namespaces. Template names are
// compared canonically.
func (n *Node) MatchExact(comp symbols.Component) []*Node {
	name := comp.Canonical()
	var out []*Node
	for _, scope := range n.AnonClosure() {
		for _, k := range []Kind{KindNamespace, KindType, KindFunction, KindVar} {
			if c := scope.Child(k, name); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// MatchPrefix collects children whose name starts with the component's
// canonical text, across every kind map and through anonymous
// namespaces. Template instantiations match through their base name:
// "vec" matches "vector<int>". Results are name-sorted so prefix scans
// are deterministic.
func (n *Node) MatchPrefix(comp symbols.Component) []*Node {
	prefix := comp.Canonical()
	var out []*Node
	for _, scope := range n.AnonClosure() {
		for _, k := range []Kind{KindNamespace, KindType, KindFunction, KindVar} {
			m := scope.kindMap(k)
			if m == nil || *m == nil {
				continue
			}
			for name, c := range *m {
				if strings.HasPrefix(name, prefix) {
					out = append(out, c)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// HasTemplateWithBase reports whether any indexed type instantiates the
// template with the given base name, as in "vector" matching
// "vector<int>".
func (n *Node) HasTemplateWithBase(base string) bool {
	prefix := base + "<"
	for _, scope := range n.AnonClosure() {
		for name := range scope.types {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

// FindExact resolves a component path starting at n, returning every
// terminal node the path reaches. Intermediate components descend
// through namespaces and types only.
func (n *Node) FindExact(comps []symbols.Component) []*Node {
	frontier, last, ok := n.descendScopes(comps)
	if !ok {
		return frontier
	}
	var out []*Node
	for _, cur := range frontier {
		out = append(out, cur.MatchExact(last)...)
	}
	return out
}

// FindPrefix resolves a component path like FindExact, except the last
// component matches by prefix instead of exactly.
func (n *Node) FindPrefix(comps []symbols.Component) []*Node {
	frontier, last, ok := n.descendScopes(comps)
	if !ok {
		return frontier
	}
	var out []*Node
	for _, cur := range frontier {
		out = append(out, cur.MatchPrefix(last)...)
	}
	return out
}

// descendScopes walks every component but the last through namespace
// and type children. ok is false when the walk terminated early, either
// on an empty path (frontier is the answer) or a dead end (frontier is
// nil).
func (n *Node) descendScopes(comps []symbols.Component) (frontier []*Node, last symbols.Component, ok bool) {
	if len(comps) == 0 {
		return []*Node{n}, symbols.Component{}, false
	}
	frontier = []*Node{n}
	for _, comp := range comps[:len(comps)-1] {
		name := comp.Canonical()
		var next []*Node
		for _, cur := range frontier {
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
			return nil, symbols.Component{}, false
		}
		frontier = next
	}
	return frontier, comps[len(comps)-1], true
}
