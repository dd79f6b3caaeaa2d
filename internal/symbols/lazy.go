package symbols

import "quarry/internal/records"

// Factory decodes the record at a unit offset into a Symbol. Decoding
// never fails: malformed or unknown records come back as a minimal
// symbol carrying just the tag.
type Factory interface {
	DecodeSymbol(unit *records.Unit, offset uint32) Symbol
}

// LazySymbol is a by-key reference into the symbol graph. Holding one
// does not force the target to decode; Get does, memoized by the
// factory. A LazySymbol may instead pin an already-built symbol, which
// is how synthesized nodes (nested array dimensions, test fixtures)
// enter the graph.
type LazySymbol struct {
	factory Factory
	unit    *records.Unit
	offset  uint32
	sym     Symbol
}

// NewLazy references the record at offset in unit.
func NewLazy(f Factory, unit *records.Unit, offset uint32) LazySymbol {
	return LazySymbol{factory: f, unit: unit, offset: offset}
}

// NewConcrete pins an already-built symbol.
func NewConcrete(s Symbol) LazySymbol {
	return LazySymbol{sym: s}
}

// IsValid reports whether the reference points at anything.
func (l LazySymbol) IsValid() bool {
	return l.sym != nil || (l.factory != nil && l.unit != nil && l.offset != records.NoOffset)
}

// Offset returns the referenced unit offset, or records.NoOffset for
// pinned symbols.
func (l LazySymbol) Offset() uint32 { return l.offset }

// Unit returns the referenced unit, nil for pinned symbols.
func (l LazySymbol) Unit() *records.Unit { return l.unit }

// Get decodes and returns the referenced symbol. Invalid references
// return an empty placeholder, never nil.
func (l LazySymbol) Get() Symbol {
	if l.sym != nil {
		return l.sym
	}
	if !l.IsValid() {
		return &BaseSymbol{}
	}
	return l.factory.DecodeSymbol(l.unit, l.offset)
}
