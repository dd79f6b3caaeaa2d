package module

import (
	"context"
	"testing"

	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/symbols"
	"quarry/internal/testkit"
)

// codeUnit builds a unit with a function "work" at [0x100,0x200) holding
// a lexical block at [0x140,0x180), plus a global.
func codeUnit(t *testing.T) *records.Unit {
	t.Helper()
	b := records.NewUnitBuilder("code.cc", 0x1000)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit).Str(dwarf.AttrName, "code.cc")

	b.New(root.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "g").
		Bytes(dwarf.AttrLocation, []byte{0x03})

	fn := b.New(root.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "work").
		Range(0x100, 0x200)
	b.New(fn.Offset(), dwarf.TagLexicalBlock).Range(0x140, 0x180)

	// A declaration with no ranges; never matches an address.
	b.New(root.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "phantom").
		Flag(dwarf.AttrDeclaration)

	u := b.Build()
	if err := testkit.CheckUnitInvariants(u); err != nil {
		t.Fatalf("fixture unit: %v", err)
	}
	return u
}

func loadModule(t *testing.T, name string, units ...*records.Unit) *Module {
	t.Helper()
	m, err := Load(context.Background(), name, units, nil)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return m
}

func TestSymbolContextConversions(t *testing.T) {
	sc := SymbolContext{LoadAddress: 0x40000}

	if got := sc.RelativeToAbsolute(0x120); got != 0x40120 {
		t.Errorf("RelativeToAbsolute(0x120) = %#x, want 0x40120", got)
	}
	rel, ok := sc.AbsoluteToRelative(0x40120)
	if !ok || rel != 0x120 {
		t.Errorf("AbsoluteToRelative(0x40120) = %#x, %v", rel, ok)
	}
	if _, ok := sc.AbsoluteToRelative(0x3ffff); ok {
		t.Error("address below the load address should not convert")
	}
}

func TestBlockForIP(t *testing.T) {
	m := loadModule(t, "code", codeUnit(t))

	// Inside the lexical block: the block itself, not the function.
	got := m.BlockForIP(0x150)
	if got == nil {
		t.Fatal("BlockForIP(0x150) = nil")
	}
	if symbols.AsFunction(got) != nil {
		t.Error("BlockForIP(0x150) returned the function, want the inner block")
	}
	cb := symbols.AsCodeBlock(got)
	if cb == nil || !cb.ContainsIP(0x150) {
		t.Errorf("inner block does not cover 0x150: %+v", cb)
	}

	// Inside the function but outside the block.
	got = m.BlockForIP(0x110)
	fn := symbols.AsFunction(got)
	if fn == nil || fn.AssignedName() != "work" {
		t.Fatalf("BlockForIP(0x110) = %v, want function work", got)
	}

	// Function range is half-open.
	if m.BlockForIP(0x200) != nil {
		t.Error("BlockForIP at range end should miss")
	}
	if m.BlockForIP(0x50) != nil {
		t.Error("BlockForIP outside any function should be nil")
	}
}

func TestModuleSymbol(t *testing.T) {
	m := loadModule(t, "code", codeUnit(t))

	refs := m.Index.FindExact(symbols.ParseIdentifier("work"))
	if len(refs) == 0 {
		t.Fatal("work not indexed")
	}
	node := refs[0]
	if len(node.Refs) == 0 {
		t.Fatal("work has no refs")
	}
	sym := m.Symbol(node.Refs[0])
	if fn := symbols.AsFunction(sym); fn == nil || fn.AssignedName() != "work" {
		t.Errorf("Symbol(ref) = %v, want function work", sym)
	}
}

func TestCatalog(t *testing.T) {
	a := loadModule(t, "app", codeUnit(t))
	lib := loadModule(t, "libsupport", codeUnit(t))

	var c Catalog
	c.Add(a, 0x10000)
	c.Add(lib, 0x80000)

	mods := c.Modules()
	if len(mods) != 2 || mods[0].Module != a || mods[1].Module != lib {
		t.Fatalf("Modules() order wrong: %v", mods)
	}

	if lm := c.ForAddress(0x80150); lm == nil || lm.Module != lib {
		t.Error("ForAddress(0x80150) should pick libsupport")
	}
	if lm := c.ForAddress(0x20000); lm == nil || lm.Module != a {
		t.Error("ForAddress(0x20000) should pick app")
	}
	if lm := c.ForAddress(0x500); lm != nil {
		t.Errorf("ForAddress below every module = %v, want nil", lm)
	}

	if lm := c.ByName("libsupport"); lm == nil || lm.Module != lib {
		t.Error("ByName(libsupport) missed")
	}
	if c.ByName("nope") != nil {
		t.Error("ByName(nope) should be nil")
	}
}
