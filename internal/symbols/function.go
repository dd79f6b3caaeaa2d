package symbols

import (
	"quarry/internal/records"
)

// CodeBlock is a region of code with address ranges, local variables,
// and nested blocks. Lexical blocks are plain CodeBlocks; functions
// embed it.
type CodeBlock struct {
	BaseSymbol
	Ranges    []records.Range
	Variables []LazySymbol
	Inner     []LazySymbol
}

// ContainsIP reports whether the module-relative address falls in one
// of the block's ranges. Blocks with no ranges contain nothing.
func (b *CodeBlock) ContainsIP(ip uint64) bool {
	for _, r := range b.Ranges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

// InnermostBlockFor descends through nested blocks and inlined
// functions to the smallest one covering ip, returning s itself when no
// child does. The result keeps its concrete kind so callers can tell a
// lexical block from an inlined function.
func InnermostBlockFor(s Symbol, ip uint64) Symbol {
	b := AsCodeBlock(s)
	if b == nil {
		return s
	}
	for _, lazy := range b.Inner {
		child := lazy.Get()
		if cb := AsCodeBlock(child); cb != nil && cb.ContainsIP(ip) {
			return InnermostBlockFor(child, ip)
		}
	}
	return s
}

// Function is a subprogram or an inlined call instance.
type Function struct {
	CodeBlock
	LinkageName string
	Parameters  []LazySymbol
	ObjectPtr   LazySymbol
	ReturnType  LazySymbol
	FrameBase   []byte
	Main        bool

	// Call site of an inlined instance, zero otherwise.
	CallFile string
	CallLine uint64
}

// Variable is a named storage location with a type and a location
// description saying where the value lives at each address.
type Variable struct {
	BaseSymbol
	Type     LazySymbol
	Location VariableLocation
	External bool
}

// AsCodeBlock returns the CodeBlock view of a symbol, nil when the
// symbol is not a block kind.
func AsCodeBlock(s Symbol) *CodeBlock {
	switch v := s.(type) {
	case *Function:
		return &v.CodeBlock
	case *CodeBlock:
		return v
	}
	return nil
}

// AsFunction returns s as a Function, nil otherwise. A CodeBlock
// created by embedding inside a Function is not reachable this way;
// use ContainingFunction for scope walks.
func AsFunction(s Symbol) *Function {
	f, _ := s.(*Function)
	return f
}

// ContainingFunction walks the enclosing chain from block until it
// reaches a function, returning nil when the block is not inside one.
func ContainingFunction(block Symbol) *Function {
	for s := block; s != nil; {
		if f := AsFunction(s); f != nil {
			return f
		}
		enc := s.Enclosing()
		if !enc.IsValid() {
			return nil
		}
		s = enc.Get()
	}
	return nil
}
