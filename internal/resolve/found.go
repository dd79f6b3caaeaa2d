// Package resolve turns identifiers into symbols the way a C-family
// debugger's expression evaluator expects: local scopes first, then the
// receiver object of the current method, then the module indexes with
// scope ascent.
package resolve

import "quarry/internal/symbols"

// FoundKind says what a lookup produced.
type FoundKind uint8

const (
	FoundNone FoundKind = iota
	FoundVariable
	FoundMember
	FoundNamespace
	FoundType
	FoundFunction
	FoundTemplate
)

func (k FoundKind) String() string {
	switch k {
	case FoundNone:
		return "none"
	case FoundVariable:
		return "variable"
	case FoundMember:
		return "member"
	case FoundNamespace:
		return "namespace"
	case FoundType:
		return "type"
	case FoundFunction:
		return "function"
	case FoundTemplate:
		return "template"
	}
	return "?"
}

// Member is a data member match plus its byte offset inside the object
// it was found on, with base-class displacement folded in.
type Member struct {
	Member *symbols.DataMember
	Offset uint64
}

// FoundName is one lookup result. Exactly the fields for its kind are
// set. Namespace and template matches are structural: they name a
// scope or a family of instantiations, with no record behind them.
type FoundName struct {
	Kind FoundKind

	Variable  *symbols.Variable
	Object    Member
	Namespace string
	Type      symbols.Type
	Function  *symbols.Function
	Template  string
}

// Options selects which kinds a lookup may produce and how many
// results to collect before stopping.
type Options struct {
	Vars       bool
	Members    bool
	Types      bool
	Functions  bool
	Namespaces bool
	Templates  bool

	// Prefix matches the last identifier component as a name prefix
	// instead of exactly, for completion-style lookups. Scope
	// components still match exactly.
	Prefix bool

	MaxResults int
}

// AllKinds accepts every result kind.
func AllKinds(maxResults int) Options {
	return Options{
		Vars:       true,
		Members:    true,
		Types:      true,
		Functions:  true,
		Namespaces: true,
		Templates:  true,
		MaxResults: maxResults,
	}
}

type collector struct {
	opts  Options
	found []FoundName
}

func (c *collector) full() bool {
	return c.opts.MaxResults > 0 && len(c.found) >= c.opts.MaxResults
}

func (c *collector) add(f FoundName) {
	if !c.full() {
		c.found = append(c.found, f)
	}
}
