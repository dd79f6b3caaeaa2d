package index

import (
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"quarry/internal/diag"
	"quarry/internal/records"
)

// Indexing is linear in the record count, so the tree is cached on disk
// and revalidated against the unit list on load.
const cacheSchemaVersion uint16 = 1

type cacheRef struct {
	Unit   int
	Offset uint32
	IsDecl bool `msgpack:",omitempty"`
}

type cacheNode struct {
	Name       string
	Refs       []cacheRef  `msgpack:",omitempty"`
	Namespaces []cacheNode `msgpack:",omitempty"`
	Types      []cacheNode `msgpack:",omitempty"`
	Functions  []cacheNode `msgpack:",omitempty"`
	Vars       []cacheNode `msgpack:",omitempty"`
}

type cachePayload struct {
	Schema    uint16
	UnitNames []string
	Stats     Stats
	Mains     []cacheRef
	Root      cacheNode
}

// WriteCache serializes the index. units must be the same slice the
// index was built from; refs are stored by unit position.
func (ix *Index) WriteCache(w io.Writer, units []*records.Unit) error {
	pos := make(map[*records.Unit]int, len(units))
	names := make([]string, len(units))
	for i, u := range units {
		pos[u] = i
		names[i] = u.Name()
	}
	payload := cachePayload{
		Schema:    cacheSchemaVersion,
		UnitNames: names,
		Stats:     ix.stats,
	}
	var err error
	if payload.Mains, err = packRefs(ix.mains, pos); err != nil {
		return err
	}
	if payload.Root, err = packNode(ix.root, pos); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(&payload)
}

// ReadCache rebuilds an index from a cache written against the same
// unit list. Any mismatch fails with a BadCache error so callers fall
// back to a fresh build.
func ReadCache(r io.Reader, units []*records.Unit) (*Index, error) {
	var payload cachePayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, diag.Wrap(diag.BadCache, err, "decode index cache")
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, diag.New(diag.BadCache, "index cache schema %d, want %d", payload.Schema, cacheSchemaVersion)
	}
	if len(payload.UnitNames) != len(units) {
		return nil, diag.New(diag.BadCache, "index cache covers %d units, have %d", len(payload.UnitNames), len(units))
	}
	for i, u := range units {
		if payload.UnitNames[i] != u.Name() {
			return nil, diag.New(diag.BadCache, "index cache unit %d is %q, have %q", i, payload.UnitNames[i], u.Name())
		}
	}

	ix := &Index{root: NewRootNode(), stats: payload.Stats}
	var err error
	if ix.mains, err = unpackRefs(payload.Mains, units); err != nil {
		return nil, err
	}
	if err := unpackNode(ix.root, payload.Root, units); err != nil {
		return nil, err
	}
	return ix, nil
}

func packRefs(refs []Ref, pos map[*records.Unit]int) ([]cacheRef, error) {
	out := make([]cacheRef, 0, len(refs))
	for _, ref := range refs {
		i, ok := pos[ref.Unit]
		if !ok {
			return nil, diag.New(diag.BadCache, "ref into unlisted unit %q", ref.Unit.Name())
		}
		out = append(out, cacheRef{Unit: i, Offset: ref.Offset, IsDecl: ref.IsDecl})
	}
	return out, nil
}

func unpackRefs(refs []cacheRef, units []*records.Unit) ([]Ref, error) {
	out := make([]Ref, 0, len(refs))
	for _, ref := range refs {
		if ref.Unit < 0 || ref.Unit >= len(units) {
			return nil, diag.New(diag.BadCache, "ref into unit %d of %d", ref.Unit, len(units))
		}
		out = append(out, Ref{Unit: units[ref.Unit], Offset: ref.Offset, IsDecl: ref.IsDecl})
	}
	return out, nil
}

func packNode(n *Node, pos map[*records.Unit]int) (cacheNode, error) {
	out := cacheNode{Name: n.Name}
	var err error
	if out.Refs, err = packRefs(n.Refs, pos); err != nil {
		return out, err
	}
	pack := func(m map[string]*Node) ([]cacheNode, error) {
		if len(m) == 0 {
			return nil, nil
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		kids := make([]cacheNode, 0, len(names))
		for _, name := range names {
			k, err := packNode(m[name], pos)
			if err != nil {
				return nil, err
			}
			kids = append(kids, k)
		}
		return kids, nil
	}
	if out.Namespaces, err = pack(n.namespaces); err != nil {
		return out, err
	}
	if out.Types, err = pack(n.types); err != nil {
		return out, err
	}
	if out.Functions, err = pack(n.functions); err != nil {
		return out, err
	}
	if out.Vars, err = pack(n.vars); err != nil {
		return out, err
	}
	return out, nil
}

func unpackNode(dst *Node, src cacheNode, units []*records.Unit) error {
	var err error
	if dst.Refs, err = unpackRefs(src.Refs, units); err != nil {
		return err
	}
	unpack := func(kind Kind, kids []cacheNode) error {
		for _, k := range kids {
			if err := unpackNode(dst.ensure(kind, k.Name), k, units); err != nil {
				return err
			}
		}
		return nil
	}
	if err := unpack(KindNamespace, src.Namespaces); err != nil {
		return err
	}
	if err := unpack(KindType, src.Types); err != nil {
		return err
	}
	if err := unpack(KindFunction, src.Functions); err != nil {
		return err
	}
	return unpack(KindVar, src.Vars)
}
