package symbols

import "strings"

// Qualification says whether an identifier is anchored at the global scope
// ("::printf") or resolved relative to the current scope.
type Qualification uint8

const (
	QualRelative Qualification = iota
	QualGlobal
)

// Component is one "::"-separated piece of an identifier. Template
// arguments, when present, are kept split from the base name so lookups
// can canonicalize spacing.
type Component struct {
	Name         string
	TemplateArgs []string
	HasTemplate  bool
}

// Canonical renders the component with canonical template spacing:
// "vector<int, bool>".
func (c Component) Canonical() string {
	if !c.HasTemplate {
		return c.Name
	}
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('<')
	for i, a := range c.TemplateArgs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a)
	}
	sb.WriteByte('>')
	return sb.String()
}

// Identifier is a possibly-qualified name like "my_ns::Foo<int>::bar_".
type Identifier struct {
	Qual  Qualification
	Comps []Component
}

// NewIdentifier builds a relative identifier from plain component names.
func NewIdentifier(names ...string) Identifier {
	id := Identifier{}
	for _, n := range names {
		id.Comps = append(id.Comps, ParseComponent(n))
	}
	return id
}

// NewGlobalIdentifier builds a globally-qualified identifier.
func NewGlobalIdentifier(names ...string) Identifier {
	id := NewIdentifier(names...)
	id.Qual = QualGlobal
	return id
}

// ParseComponent splits a single component into base name and template
// arguments. Nested angle brackets inside arguments are kept intact.
func ParseComponent(s string) Component {
	lt := strings.IndexByte(s, '<')
	if lt < 0 || !strings.HasSuffix(s, ">") {
		return Component{Name: s}
	}
	c := Component{Name: s[:lt], HasTemplate: true}
	inner := s[lt+1 : len(s)-1]
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				c.TemplateArgs = append(c.TemplateArgs, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if arg := strings.TrimSpace(inner[start:]); arg != "" {
		c.TemplateArgs = append(c.TemplateArgs, arg)
	}
	return c
}

// ParseIdentifier splits a "::"-separated name into components, honoring
// a leading "::" as global qualification. Separators inside template
// brackets do not split.
func ParseIdentifier(s string) Identifier {
	id := Identifier{}
	if strings.HasPrefix(s, "::") {
		id.Qual = QualGlobal
		s = s[2:]
	}
	if s == "" {
		return id
	}
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ':':
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' {
				id.Comps = append(id.Comps, ParseComponent(s[start:i]))
				start = i + 2
				i++
			}
		}
	}
	id.Comps = append(id.Comps, ParseComponent(s[start:]))
	return id
}

// Empty reports whether the identifier has no components.
func (id Identifier) Empty() bool { return len(id.Comps) == 0 }

// Append returns a copy with one more component on the end.
func (id Identifier) Append(c Component) Identifier {
	out := Identifier{Qual: id.Qual}
	out.Comps = append(out.Comps, id.Comps...)
	out.Comps = append(out.Comps, c)
	return out
}

// Scope returns the identifier minus its last component, keeping the
// qualification. The scope of a single-component identifier is empty.
func (id Identifier) Scope() Identifier {
	if len(id.Comps) == 0 {
		return Identifier{Qual: id.Qual}
	}
	return Identifier{Qual: id.Qual, Comps: id.Comps[:len(id.Comps)-1]}
}

// Last returns the final component, or a zero Component when empty.
func (id Identifier) Last() Component {
	if len(id.Comps) == 0 {
		return Component{}
	}
	return id.Comps[len(id.Comps)-1]
}

// Full renders the identifier with canonical template spacing and a
// leading "::" when globally qualified.
func (id Identifier) Full() string {
	var sb strings.Builder
	if id.Qual == QualGlobal {
		sb.WriteString("::")
	}
	for i, c := range id.Comps {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(c.Canonical())
	}
	return sb.String()
}
