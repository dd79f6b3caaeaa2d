package records

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"quarry/internal/dwarf"
)

// Current schema version - increment when the unit file format changes
const unitFileSchemaVersion uint16 = 1

// Serialized form of a demuxed-records file. The demuxing collaborator
// writes these; the CLI reads them back into Units.

type attrPayload struct {
	Attr  uint16
	Kind  uint8
	Str   string     `msgpack:",omitempty"`
	Uint  uint64     `msgpack:",omitempty"`
	Int   int64      `msgpack:",omitempty"`
	Bytes []byte     `msgpack:",omitempty"`
	Ref   uint32     `msgpack:",omitempty"`
	List  []LocEntry `msgpack:",omitempty"`
}

type recordPayload struct {
	Offset uint32
	Tag    uint16
	Parent uint32
	Attrs  []attrPayload `msgpack:",omitempty"`
	Ranges []Range       `msgpack:",omitempty"`
}

type unitPayload struct {
	Name     string
	BaseAddr uint64
	Records  []recordPayload
}

type filePayload struct {
	Schema uint16
	Units  []unitPayload
}

// WriteUnits serializes units to w in the demuxed-records file format.
func WriteUnits(w io.Writer, units []*Unit) error {
	payload := filePayload{Schema: unitFileSchemaVersion}
	for _, u := range units {
		up := unitPayload{Name: u.name, BaseAddr: u.baseAddr}
		for _, off := range u.offsets {
			r := u.records[off]
			rp := recordPayload{
				Offset: r.Offset,
				Tag:    uint16(r.Tag),
				Parent: r.Parent,
				Ranges: r.Ranges,
			}
			for attr, v := range r.Attrs {
				rp.Attrs = append(rp.Attrs, attrPayload{
					Attr:  uint16(attr),
					Kind:  uint8(v.Kind),
					Str:   v.Str,
					Uint:  v.Uint,
					Int:   v.Int,
					Bytes: v.Bytes,
					Ref:   v.Ref,
					List:  v.List,
				})
			}
			up.Records = append(up.Records, rp)
		}
		payload.Units = append(payload.Units, up)
	}
	return msgpack.NewEncoder(w).Encode(&payload)
}

// ReadUnits deserializes a demuxed-records file.
func ReadUnits(r io.Reader) ([]*Unit, error) {
	var payload filePayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode unit file: %w", err)
	}
	if payload.Schema != unitFileSchemaVersion {
		return nil, fmt.Errorf("unit file schema %d, want %d", payload.Schema, unitFileSchemaVersion)
	}

	units := make([]*Unit, 0, len(payload.Units))
	for _, up := range payload.Units {
		u := &Unit{
			name:     up.Name,
			baseAddr: up.BaseAddr,
			records:  make(map[uint32]*Record, len(up.Records)),
		}
		for _, rp := range up.Records {
			rec := &Record{
				Offset: rp.Offset,
				Tag:    dwarf.Tag(rp.Tag),
				Parent: rp.Parent,
				Attrs:  make(map[dwarf.Attr]Value, len(rp.Attrs)),
				Ranges: rp.Ranges,
			}
			for _, ap := range rp.Attrs {
				rec.Attrs[dwarf.Attr(ap.Attr)] = Value{
					Kind:  ValueKind(ap.Kind),
					Str:   ap.Str,
					Uint:  ap.Uint,
					Int:   ap.Int,
					Bytes: ap.Bytes,
					Ref:   ap.Ref,
					List:  ap.List,
				}
			}
			u.records[rec.Offset] = rec
			if p := u.records[rec.Parent]; p != nil {
				p.Children = append(p.Children, rec.Offset)
			}
		}
		u.freeze()
		units = append(units, u)
	}
	return units, nil
}
