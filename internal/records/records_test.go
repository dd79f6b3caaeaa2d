package records

import (
	"bytes"
	"testing"

	"quarry/internal/dwarf"
)

func TestBuilderAndAccessors(t *testing.T) {
	b := NewUnitBuilder("main.cc", 0x2000)
	root := b.New(NoOffset, dwarf.TagCompileUnit).Str(dwarf.AttrName, "main.cc")
	v := b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "counter").
		Uint(dwarf.AttrDeclLine, 12).
		Flag(dwarf.AttrExternal)
	u := b.Build()

	if u.Name() != "main.cc" || u.BaseAddr() != 0x2000 {
		t.Errorf("unit header = %q %#x", u.Name(), u.BaseAddr())
	}
	r := u.Record(v.Offset())
	if r == nil {
		t.Fatal("record not found")
	}
	if name, ok := r.Str(dwarf.AttrName); !ok || name != "counter" {
		t.Errorf("name = %q %v", name, ok)
	}
	if !r.Flag(dwarf.AttrExternal) {
		t.Error("external flag lost")
	}
	if r.Flag(dwarf.AttrDeclaration) {
		t.Error("absent flag reported set")
	}
	if p := u.ParentOf(r); p == nil || p.Tag != dwarf.TagCompileUnit {
		t.Errorf("parent = %+v", p)
	}
	if u.Record(NoOffset) != nil {
		t.Error("sentinel offset resolved to a record")
	}
}

func TestUintAcceptsSignedForm(t *testing.T) {
	b := NewUnitBuilder("u", 0)
	r := b.New(NoOffset, dwarf.TagEnumerator).Int(dwarf.AttrConstValue, -2)
	u := b.Build()

	got, ok := u.Record(r.Offset()).Uint(dwarf.AttrConstValue)
	if !ok || int64(got) != -2 {
		t.Errorf("got %#x %v", got, ok)
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{Begin: 0x100, End: 0x200}
	if !r.Contains(0x100) || r.Contains(0x200) || r.Contains(0xff) {
		t.Error("half-open range misbehaved")
	}
}

func TestUnitFileRoundTrip(t *testing.T) {
	b := NewUnitBuilder("lib.cc", 0x4000)
	root := b.New(NoOffset, dwarf.TagCompileUnit).Str(dwarf.AttrName, "lib.cc")
	ty := b.New(root.Offset(), dwarf.TagBaseType).
		Str(dwarf.AttrName, "int").
		Uint(dwarf.AttrByteSize, 4)
	fn := b.New(root.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "run").
		Range(0x10, 0x90)
	b.New(fn.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "i").
		Ref(dwarf.AttrType, ty.Offset()).
		LocList(dwarf.AttrLocation, LocEntry{Begin: 0x20, End: 0x40, Expr: []byte{0x91, 0x10}})
	unit := b.Build()

	var buf bytes.Buffer
	if err := WriteUnits(&buf, []*Unit{unit}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadUnits(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d units", len(got))
	}
	ru := got[0]
	if ru.Name() != "lib.cc" || ru.BaseAddr() != 0x4000 || ru.Len() != unit.Len() {
		t.Errorf("unit = %q %#x len %d", ru.Name(), ru.BaseAddr(), ru.Len())
	}
	rf := ru.Record(fn.Offset())
	if rf == nil || len(rf.Ranges) != 1 || rf.Ranges[0].End != 0x90 {
		t.Fatalf("function record = %+v", rf)
	}
	if len(rf.Children) != 1 {
		t.Fatalf("children = %v", rf.Children)
	}
	rv := ru.Record(rf.Children[0])
	loc := rv.Attrs[dwarf.AttrLocation]
	if loc.Kind != ValueLocList || len(loc.List) != 1 || loc.List[0].Expr[0] != 0x91 {
		t.Errorf("location = %+v", loc)
	}
	if ref, ok := rv.Ref(dwarf.AttrType); !ok || ref != ty.Offset() {
		t.Errorf("type ref = %d %v", ref, ok)
	}
}

func TestUnitFileSchemaMismatch(t *testing.T) {
	b := NewUnitBuilder("u", 0)
	b.New(NoOffset, dwarf.TagCompileUnit)
	var buf bytes.Buffer
	if err := WriteUnits(&buf, []*Unit{b.Build()}); err != nil {
		t.Fatal(err)
	}
	// Corrupt the payload so decoding cannot produce the expected schema.
	if _, err := ReadUnits(bytes.NewReader([]byte{0xc1})); err == nil {
		t.Error("garbage input decoded without error")
	}
}
