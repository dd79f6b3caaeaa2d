package eval

import (
	"context"
	"testing"

	"quarry/internal/diag"
	"quarry/internal/dwarf"
	"quarry/internal/module"
	"quarry/internal/records"
	"quarry/internal/symbols"
)

const loadAddr = 0x100000

// progModule models a program stopped inside it:
//
//	gv            int at module-relative 0x2000, value 0x11223344
//	shared        extern decl inside work(), defined globally at 0x3000
//	work()        0x100-0x200: loc_v at fb+8, part live only in
//	              [0x100,0x200) of the function's first half
//	Blob          { m@0, bits@4 (3 bits at bit 4), kC = 42,
//	              static sx defined out of line at 0x5000 }
//	Blob::Peek()  0x300-0x380, this in memory behind r6
//	Opaque        forward-declared here, defined with size 8
func progModule(t *testing.T) *module.Module {
	t.Helper()
	b := records.NewUnitBuilder("prog.cc", 0)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit).Str(dwarf.AttrName, "prog.cc")

	intType := b.New(root.Offset(), dwarf.TagBaseType).
		Str(dwarf.AttrName, "int").
		Uint(dwarf.AttrByteSize, 4).
		Uint(dwarf.AttrEncoding, dwarf.EncodingSigned)

	addrExpr := func(rel uint64) []byte {
		e := []byte{byte(dwarf.OpAddr), 0, 0, 0, 0, 0, 0, 0, 0}
		for i := 0; i < 8; i++ {
			e[1+i] = byte(rel >> (8 * i))
		}
		return e
	}

	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "gv").
		Ref(dwarf.AttrType, intType.Offset()).
		Bytes(dwarf.AttrLocation, addrExpr(0x2000))
	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "opt").
		Ref(dwarf.AttrType, intType.Offset())
	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "shared").
		Ref(dwarf.AttrType, intType.Offset()).
		Flag(dwarf.AttrExternal).
		Bytes(dwarf.AttrLocation, addrExpr(0x3000))
	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "rv").
		Ref(dwarf.AttrType, intType.Offset()).
		Bytes(dwarf.AttrLocation, []byte{byte(dwarf.OpReg0 + 5)})

	work := b.New(root.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "work").
		Range(0x100, 0x200)
	b.New(work.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "loc_v").
		Ref(dwarf.AttrType, intType.Offset()).
		Bytes(dwarf.AttrLocation, []byte{byte(dwarf.OpFbreg), 0x08})
	b.New(work.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "part").
		Ref(dwarf.AttrType, intType.Offset()).
		LocList(dwarf.AttrLocation, records.LocEntry{Begin: 0x100, End: 0x180, Expr: addrExpr(0x2000)})
	// Extern re-declaration of the global above; storageless on its own.
	b.New(work.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "shared").
		Ref(dwarf.AttrType, intType.Offset()).
		Flag(dwarf.AttrExternal)

	blob := b.New(root.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "Blob").
		Uint(dwarf.AttrByteSize, 8)
	b.New(blob.Offset(), dwarf.TagMember).
		Str(dwarf.AttrName, "m").
		Ref(dwarf.AttrType, intType.Offset()).
		Uint(dwarf.AttrDataMemberLocation, 0)
	b.New(blob.Offset(), dwarf.TagMember).
		Str(dwarf.AttrName, "bits").
		Ref(dwarf.AttrType, intType.Offset()).
		Uint(dwarf.AttrDataMemberLocation, 4).
		Uint(dwarf.AttrBitSize, 3).
		Uint(dwarf.AttrDataBitOffset, 4)
	b.New(blob.Offset(), dwarf.TagMember).
		Str(dwarf.AttrName, "kC").
		Ref(dwarf.AttrType, intType.Offset()).
		Uint(dwarf.AttrConstValue, 42)
	sxDecl := b.New(blob.Offset(), dwarf.TagMember).
		Str(dwarf.AttrName, "sx").
		Ref(dwarf.AttrType, intType.Offset()).
		Flag(dwarf.AttrExternal).
		Flag(dwarf.AttrDeclaration)

	peekDecl := b.New(blob.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "Peek").
		Flag(dwarf.AttrDeclaration)
	ptrBlob := b.New(root.Offset(), dwarf.TagPointerType).
		Ref(dwarf.AttrType, blob.Offset()).
		Uint(dwarf.AttrByteSize, 8)
	peek := b.New(root.Offset(), dwarf.TagSubprogram).
		Ref(dwarf.AttrSpecification, peekDecl.Offset()).
		Range(0x300, 0x380)
	thisParam := b.New(peek.Offset(), dwarf.TagFormalParameter).
		Str(dwarf.AttrName, "this").
		Ref(dwarf.AttrType, ptrBlob.Offset()).
		Bytes(dwarf.AttrLocation, []byte{byte(dwarf.OpBreg0 + 6), 0x00})
	peek.Ref(dwarf.AttrObjectPointer, thisParam.Offset())
	// Out-of-line definition of the static member.
	b.New(root.Offset(), dwarf.TagVariable).
		Ref(dwarf.AttrSpecification, sxDecl.Offset()).
		Flag(dwarf.AttrExternal).
		Bytes(dwarf.AttrLocation, addrExpr(0x5000))

	opaqueDecl := b.New(root.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "Opaque").
		Flag(dwarf.AttrDeclaration)
	b.New(root.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "Opaque").
		Uint(dwarf.AttrByteSize, 8)
	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "ov").
		Ref(dwarf.AttrType, opaqueDecl.Offset()).
		Bytes(dwarf.AttrLocation, addrExpr(0x4000))

	m, err := module.Load(context.Background(), "prog", []*records.Unit{b.Build()}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func progContext(t *testing.T, relIP uint64) (*EvalContext, *mockProvider) {
	t.Helper()
	p := &mockProvider{
		ip:        loadAddr + relIP,
		regs:      map[uint32]uint64{5: 0x1234, 6: 0x108000},
		frameBase: 0x7000,
		mem: []segment{
			{addr: loadAddr + 0x2000, data: []byte{0x44, 0x33, 0x22, 0x11}},
			{addr: loadAddr + 0x3000, data: []byte{7, 0, 0, 0}},
			{addr: loadAddr + 0x4000, data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			{addr: loadAddr + 0x5000, data: []byte{99, 0, 0, 0}},
			{addr: 0x7008, data: []byte{9, 0, 0, 0}},
			// The this pointer, then the object it points at.
			{addr: 0x108000, data: []byte{0x00, 0x90, 0x10, 0, 0, 0, 0, 0}},
			{addr: 0x109000, data: []byte{42, 0, 0, 0, 0xf0, 0, 0, 0}},
		},
	}
	m := progModule(t)
	cat := &module.Catalog{}
	cat.Add(m, loadAddr)
	loaded := cat.ByName("prog")
	return NewContext(p, loaded, cat, nil), p
}

func named(t *testing.T, ec *EvalContext, name string) (Value, error) {
	t.Helper()
	return ec.GetNamedValue(context.Background(), symbols.ParseIdentifier(name))
}

func TestGetNamedValueGlobal(t *testing.T) {
	ec, _ := progContext(t, 0x150)
	v, err := named(t, ec, "gv")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 0x11223344 {
		t.Errorf("gv = %#x", v.Uint())
	}
	if !v.HasAddress || v.Address != loadAddr+0x2000 {
		t.Errorf("address = %#x", v.Address)
	}
	if v.Type == nil || v.Type.ByteSize() != 4 {
		t.Error("type lost")
	}
}

func TestGetNamedValueLocal(t *testing.T) {
	ec, _ := progContext(t, 0x150)
	v, err := named(t, ec, "loc_v")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 9 || v.Address != 0x7008 {
		t.Errorf("loc_v = %d at %#x", v.Uint(), v.Address)
	}
}

func TestOptimizedOutVersusUnavailable(t *testing.T) {
	ec, _ := progContext(t, 0x150)

	// No location at all: optimized out.
	_, err := named(t, ec, "opt")
	if diag.CodeOf(err) != diag.OptimizedOut {
		t.Errorf("opt: %v", err)
	}

	// Live range covers the IP: value resolves.
	if v, err := named(t, ec, "part"); err != nil || v.Uint() != 0x11223344 {
		t.Errorf("part in range: %v %v", v, err)
	}

	// Past its range: unavailable, a different condition.
	ec2, _ := progContext(t, 0x190)
	_, err = named(t, ec2, "part")
	if diag.CodeOf(err) != diag.Unavailable {
		t.Errorf("part out of range: %v", err)
	}
}

func TestRegisterValuedVariable(t *testing.T) {
	ec, _ := progContext(t, 0x150)
	v, err := named(t, ec, "rv")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 0x1234 || v.Register != 5 || v.HasAddress {
		t.Errorf("rv = %+v", v)
	}
	if len(v.Data) != 4 {
		t.Errorf("data width = %d", len(v.Data))
	}
}

func TestExternResolvesToDefinition(t *testing.T) {
	ec, _ := progContext(t, 0x150)

	// The local walk finds the function's extern declaration, which has
	// no storage; the chase through the index lands on the definition.
	v, err := named(t, ec, "shared")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 7 {
		t.Errorf("shared = %d", v.Uint())
	}
	if v.Address != loadAddr+0x3000 {
		t.Errorf("address = %#x, want the definition's storage", v.Address)
	}
}

func TestMemberThroughReceiver(t *testing.T) {
	ec, _ := progContext(t, 0x310)

	v, err := named(t, ec, "m")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 42 || v.Address != 0x109000 {
		t.Errorf("m = %d at %#x", v.Uint(), v.Address)
	}
}

func TestStaticMemberResolvesAsGlobal(t *testing.T) {
	ec, _ := progContext(t, 0x310)

	// Found as a member of the receiver's class, but its storage is
	// the out-of-line definition, not a slot in the object.
	v, err := named(t, ec, "sx")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 99 {
		t.Errorf("sx = %d, want 99 from the definition", v.Uint())
	}
	if !v.HasAddress || v.Address != loadAddr+0x5000 {
		t.Errorf("address = %#x, want the definition's storage", v.Address)
	}
}

func TestBitfieldExtraction(t *testing.T) {
	ec, _ := progContext(t, 0x310)

	// Storage byte 0xf0: bits [4,7) are 0b111, signed 3-bit -1.
	v, err := named(t, ec, "bits")
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != -1 {
		t.Errorf("bits = %d, want -1", v.Int())
	}
}

func TestClassConstantMember(t *testing.T) {
	ec, _ := progContext(t, 0x310)
	v, err := named(t, ec, "kC")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint() != 42 || v.HasAddress {
		t.Errorf("kC = %+v", v)
	}
}

func TestForwardDeclarationResolution(t *testing.T) {
	ec, _ := progContext(t, 0x150)

	v, err := named(t, ec, "ov")
	if err != nil {
		t.Fatal(err)
	}
	if v.Type.IsDeclaration() || v.Type.ByteSize() != 8 {
		t.Errorf("type = %+v", v.Type)
	}
	if len(v.Data) != 8 || v.Data[0] != 1 || v.Data[7] != 8 {
		t.Errorf("data = %v", v.Data)
	}
}

func TestNamedValueNotFound(t *testing.T) {
	ec, _ := progContext(t, 0x150)
	_, err := named(t, ec, "no_such_thing")
	if diag.CodeOf(err) != diag.NotFound {
		t.Errorf("got %v", err)
	}
}
