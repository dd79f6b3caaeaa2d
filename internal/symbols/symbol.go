// Package symbols materializes decoded debug records into a typed,
// lazily-built symbol graph. Symbols reference each other through
// LazySymbol keys rather than pointers, so any subgraph can be decoded
// on demand without loading a whole unit.
package symbols

import "quarry/internal/dwarf"

// Symbol is one node of the graph. Concrete kinds embed BaseSymbol and
// add their own fields.
type Symbol interface {
	Tag() dwarf.Tag

	// AssignedName is the name written directly on the record, without
	// any scope prefix. Empty for unnamed symbols.
	AssignedName() string

	// Enclosing is the symbol lexically containing this one. Invalid at
	// the unit root.
	Enclosing() LazySymbol

	setEnclosing(LazySymbol)
}

// BaseSymbol carries the state every symbol kind shares. It is also
// what unknown record tags decode to.
type BaseSymbol struct {
	tag          dwarf.Tag
	name         string
	enclosing    LazySymbol
	enclosingSet bool
}

func newBase(tag dwarf.Tag, name string) BaseSymbol {
	return BaseSymbol{tag: tag, name: name}
}

func (s *BaseSymbol) Tag() dwarf.Tag       { return s.tag }
func (s *BaseSymbol) AssignedName() string { return s.name }

func (s *BaseSymbol) Enclosing() LazySymbol { return s.enclosing }

// setEnclosing records the containing symbol. The first write sticks;
// later writes are ignored so an overlaying definition cannot displace
// the scope its declaration was written in.
func (s *BaseSymbol) setEnclosing(l LazySymbol) {
	if s.enclosingSet {
		return
	}
	s.enclosing = l
	s.enclosingSet = true
}

// Namespace is a named (or anonymous, when the name is empty) scope.
type Namespace struct {
	BaseSymbol
}

// AnonName is how unnamed namespaces render in display names.
const AnonName = "$anon"

// ScopeIdentifier returns the identifier of the scope enclosing s:
// the names of containing namespaces and collections, outermost first.
// Functions and code blocks do not contribute components.
func ScopeIdentifier(s Symbol) Identifier {
	var rev []Component
	for cur := s.Enclosing(); cur.IsValid(); {
		p := cur.Get()
		switch p.(type) {
		case *Namespace, *Collection:
			rev = append(rev, ParseComponent(p.AssignedName()))
		}
		cur = p.Enclosing()
	}
	id := Identifier{Qual: QualGlobal}
	for i := len(rev) - 1; i >= 0; i-- {
		id.Comps = append(id.Comps, rev[i])
	}
	return id
}

// FullIdentifier is ScopeIdentifier plus the symbol's own name.
func FullIdentifier(s Symbol) Identifier {
	return ScopeIdentifier(s).Append(ParseComponent(s.AssignedName()))
}

// FullName renders the fully-qualified name without the leading "::".
// Anonymous scope components show as "$anon".
func FullName(s Symbol) string {
	id := FullIdentifier(s)
	out := ""
	for i, c := range id.Comps {
		if i > 0 {
			out += "::"
		}
		if c.Name == "" && !c.HasTemplate {
			out += AnonName
		} else {
			out += c.Canonical()
		}
	}
	return out
}
