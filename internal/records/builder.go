package records

import (
	"quarry/internal/dwarf"
)

// UnitBuilder assembles a Unit record by record. Demuxing collaborators and
// test fixtures both construct units through it; Build freezes the result.
type UnitBuilder struct {
	unit *Unit
	next uint32
}

// NewUnitBuilder starts an empty unit.
func NewUnitBuilder(name string, baseAddr uint64) *UnitBuilder {
	return &UnitBuilder{
		unit: &Unit{
			name:     name,
			baseAddr: baseAddr,
			records:  make(map[uint32]*Record),
		},
		next: 1,
	}
}

// RecordBuilder adds attributes to one record under construction.
type RecordBuilder struct {
	b *UnitBuilder
	r *Record
}

// New appends a record with the given parent (NoOffset for the unit root)
// and returns its builder. Offsets are assigned in insertion order.
func (b *UnitBuilder) New(parent uint32, tag dwarf.Tag) *RecordBuilder {
	r := &Record{
		Offset: b.next,
		Tag:    tag,
		Parent: parent,
		Attrs:  make(map[dwarf.Attr]Value),
	}
	b.next++
	b.unit.records[r.Offset] = r
	if p := b.unit.records[parent]; p != nil {
		p.Children = append(p.Children, r.Offset)
	}
	return &RecordBuilder{b: b, r: r}
}

// Offset returns the offset assigned to the record.
func (rb *RecordBuilder) Offset() uint32 { return rb.r.Offset }

// Str sets a string attribute.
func (rb *RecordBuilder) Str(a dwarf.Attr, s string) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueString, Str: s}
	return rb
}

// Uint sets an unsigned constant attribute.
func (rb *RecordBuilder) Uint(a dwarf.Attr, v uint64) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueUint, Uint: v}
	return rb
}

// Int sets a signed constant attribute.
func (rb *RecordBuilder) Int(a dwarf.Attr, v int64) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueInt, Int: v}
	return rb
}

// Bytes sets an expression-block attribute.
func (rb *RecordBuilder) Bytes(a dwarf.Attr, data []byte) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueBytes, Bytes: data}
	return rb
}

// Ref sets a same-unit reference attribute.
func (rb *RecordBuilder) Ref(a dwarf.Attr, target uint32) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueRef, Ref: target}
	return rb
}

// Flag sets a presence-flag attribute.
func (rb *RecordBuilder) Flag(a dwarf.Attr) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueFlag}
	return rb
}

// LocList sets a location-list attribute (entries relative to unit base).
func (rb *RecordBuilder) LocList(a dwarf.Attr, entries ...LocEntry) *RecordBuilder {
	rb.r.Attrs[a] = Value{Kind: ValueLocList, List: entries}
	return rb
}

// Range appends one [begin,end) code range.
func (rb *RecordBuilder) Range(begin, end uint64) *RecordBuilder {
	rb.r.Ranges = append(rb.r.Ranges, Range{Begin: begin, End: end})
	return rb
}

// Build freezes and returns the unit. The builder must not be reused.
func (b *UnitBuilder) Build() *Unit {
	b.unit.freeze()
	u := b.unit
	b.unit = nil
	return u
}
