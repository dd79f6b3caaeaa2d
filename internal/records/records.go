// Package records is the demuxed per-record view of one binary's debug
// information. The container parse (section headers, abbreviation tables,
// form decoding) belongs to a collaborator; what arrives here is one typed
// attribute set per record plus the child/parent structure. The symbol
// decoder and the index build consume this view and nothing lower.
package records

import (
	"sort"

	"quarry/internal/dwarf"
)

// NoOffset marks the absence of a record reference. Offset 0 is never a
// record (it falls inside the unit header in every container layout).
const NoOffset uint32 = 0

// ValueKind discriminates the attribute value variants.
type ValueKind uint8

const (
	ValueNone    ValueKind = iota
	ValueString            // name, linkage name, file path
	ValueUint              // unsigned constant form
	ValueInt               // signed constant form
	ValueBytes             // expression block
	ValueRef               // same-unit record reference (unit offset)
	ValueFlag              // presence flag
	ValueLocList           // range-to-expression location list
)

// LocEntry is one location-list row. Begin/End are relative to the unit's
// base address.
type LocEntry struct {
	Begin uint64
	End   uint64
	Expr  []byte
}

// Value is one decoded attribute value.
type Value struct {
	Kind  ValueKind
	Str   string
	Uint  uint64
	Int   int64
	Bytes []byte
	Ref   uint32
	List  []LocEntry
}

// Range is one [Begin,End) code range, relative to module load bias.
type Range struct {
	Begin uint64
	End   uint64
}

// Contains reports whether the module-relative address falls in the range.
func (r Range) Contains(addr uint64) bool { return addr >= r.Begin && addr < r.End }

// Record is one debug-info entry.
type Record struct {
	Offset   uint32
	Tag      dwarf.Tag
	Parent   uint32 // NoOffset for the unit root
	Attrs    map[dwarf.Attr]Value
	Children []uint32
	Ranges   []Range
}

// Str returns a string attribute, or "" when absent or mistyped.
func (r *Record) Str(a dwarf.Attr) (string, bool) {
	v, ok := r.Attrs[a]
	if !ok || v.Kind != ValueString {
		return "", false
	}
	return v.Str, true
}

// Uint returns an unsigned constant attribute.
func (r *Record) Uint(a dwarf.Attr) (uint64, bool) {
	v, ok := r.Attrs[a]
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case ValueUint:
		return v.Uint, true
	case ValueInt:
		// Signed forms still carry usable magnitudes for offset-like
		// attributes; cast like the constant forms do on the wire.
		return uint64(v.Int), true
	}
	return 0, false
}

// Ref returns a same-unit reference attribute.
func (r *Record) Ref(a dwarf.Attr) (uint32, bool) {
	v, ok := r.Attrs[a]
	if !ok || v.Kind != ValueRef {
		return NoOffset, false
	}
	return v.Ref, true
}

// Flag reports a presence-flag attribute.
func (r *Record) Flag(a dwarf.Attr) bool {
	v, ok := r.Attrs[a]
	return ok && v.Kind == ValueFlag
}

// Has reports whether the attribute is present in any form.
func (r *Record) Has(a dwarf.Attr) bool {
	_, ok := r.Attrs[a]
	return ok
}

// Unit is the record set of one compilation unit. Immutable once built;
// safe for unsynchronized concurrent reads.
type Unit struct {
	name     string
	baseAddr uint64
	records  map[uint32]*Record
	offsets  []uint32 // ascending
}

// Name returns the unit's source name (usually the main source file).
func (u *Unit) Name() string { return u.name }

// BaseAddr is the base address location-list entries are relative to.
func (u *Unit) BaseAddr() uint64 { return u.baseAddr }

// Record returns the record at the given unit offset, or nil.
func (u *Unit) Record(offset uint32) *Record {
	if u == nil {
		return nil
	}
	return u.records[offset]
}

// ParentOf returns the parent record, or nil for the root.
func (u *Unit) ParentOf(r *Record) *Record {
	if r == nil || r.Parent == NoOffset {
		return nil
	}
	return u.records[r.Parent]
}

// Offsets returns all record offsets in ascending order.
func (u *Unit) Offsets() []uint32 { return u.offsets }

// Len is the number of records.
func (u *Unit) Len() int { return len(u.offsets) }

func (u *Unit) freeze() {
	u.offsets = u.offsets[:0]
	for off := range u.records {
		u.offsets = append(u.offsets, off)
	}
	sort.Slice(u.offsets, func(i, j int) bool { return u.offsets[i] < u.offsets[j] })
}
