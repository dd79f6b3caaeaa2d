package index

import (
	"context"
	"testing"

	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/symbols"
)

// testUnit builds one unit exercising most indexable shapes:
//
//	ns::Counter           class with a kMax constant member
//	ns::Counter::Bump     out-of-line definition via specification
//	ns::total             variable with storage
//	(anon)::hidden        variable inside an anonymous namespace
//	vector<int>           template instantiation at the root
//	main                  entry-point function
func testUnit(t *testing.T) *records.Unit {
	t.Helper()
	b := records.NewUnitBuilder("fixture.cc", 0x1000)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit).Str(dwarf.AttrName, "fixture.cc")

	ns := b.New(root.Offset(), dwarf.TagNamespace).Str(dwarf.AttrName, "ns")
	counter := b.New(ns.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "Counter").
		Uint(dwarf.AttrByteSize, 8)
	b.New(counter.Offset(), dwarf.TagMember).
		Str(dwarf.AttrName, "kMax").
		Uint(dwarf.AttrConstValue, 99)
	bumpDecl := b.New(counter.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "Bump").
		Flag(dwarf.AttrDeclaration)
	b.New(root.Offset(), dwarf.TagSubprogram).
		Ref(dwarf.AttrSpecification, bumpDecl.Offset()).
		Range(0x100, 0x180)
	b.New(ns.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "total").
		Bytes(dwarf.AttrLocation, []byte{0x03})
	// Variable without storage: not indexed.
	b.New(ns.Offset(), dwarf.TagVariable).Str(dwarf.AttrName, "ghost")

	anon := b.New(root.Offset(), dwarf.TagNamespace)
	b.New(anon.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "hidden").
		Bytes(dwarf.AttrLocation, []byte{0x03})

	b.New(root.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "vector<int>").
		Uint(dwarf.AttrByteSize, 24)

	mainFn := b.New(root.Offset(), dwarf.TagSubprogram).
		Str(dwarf.AttrName, "main").
		Flag(dwarf.AttrMainSubprogram).
		Range(0x200, 0x280)
	local := b.New(mainFn.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "i").
		Bytes(dwarf.AttrLocation, []byte{0x91, 0x00})
	_ = local

	return b.Build()
}

func buildIndex(t *testing.T, units ...*records.Unit) *Index {
	t.Helper()
	ix, err := Build(context.Background(), units, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return ix
}

func TestBuildIndexesExpectedKinds(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	cases := []struct {
		id   string
		kind Kind
	}{
		{"ns", KindNamespace},
		{"ns::Counter", KindType},
		{"ns::Counter::kMax", KindVar},
		{"ns::Counter::Bump", KindFunction},
		{"ns::total", KindVar},
		{"vector<int>", KindType},
		{"main", KindFunction},
	}
	for _, c := range cases {
		nodes := ix.FindExact(symbols.ParseIdentifier(c.id))
		if len(nodes) != 1 {
			t.Errorf("%s: %d nodes", c.id, len(nodes))
			continue
		}
		if nodes[0].Kind != c.kind {
			t.Errorf("%s: kind %v, want %v", c.id, nodes[0].Kind, c.kind)
		}
		if len(nodes[0].Refs) != 1 {
			t.Errorf("%s: %d refs", c.id, len(nodes[0].Refs))
		}
	}
}

func TestBuildSkipsUnindexable(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	if nodes := ix.FindExact(symbols.ParseIdentifier("ns::ghost")); len(nodes) != 0 {
		t.Error("storage-less variable was indexed")
	}
	// main's local is function scoped.
	if nodes := ix.FindExact(symbols.ParseIdentifier("i")); len(nodes) != 0 {
		t.Error("function-local variable was indexed")
	}
}

func TestAnonymousNamespacePassThrough(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	nodes := ix.FindExact(symbols.ParseIdentifier("hidden"))
	if len(nodes) != 1 || nodes[0].Kind != KindVar {
		t.Fatalf("hidden resolved to %v", nodes)
	}
}

func TestOutOfLineDefinitionIndexedUnderClass(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	nodes := ix.FindExact(symbols.ParseIdentifier("ns::Counter::Bump"))
	if len(nodes) != 1 {
		t.Fatal("out-of-line method not under its class")
	}
	// The ref must be the definition, which has code.
	ref := nodes[0].Refs[0]
	if r := ref.Unit.Record(ref.Offset); len(r.Ranges) == 0 {
		t.Error("ref points at the declaration, not the definition")
	}
	if nodes := ix.FindExact(symbols.ParseIdentifier("Bump")); len(nodes) != 0 {
		t.Error("method leaked into the global scope")
	}
}

func TestTemplateQueries(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	if !ix.Root().HasTemplateWithBase("vector") {
		t.Error("template base not found")
	}
	if ix.Root().HasTemplateWithBase("list") {
		t.Error("phantom template base")
	}
	// Spacing differences canonicalize away.
	b := records.NewUnitBuilder("t.cc", 0)
	r := b.New(records.NoOffset, dwarf.TagCompileUnit)
	b.New(r.Offset(), dwarf.TagClassType).Str(dwarf.AttrName, "pair<int,bool>").Uint(dwarf.AttrByteSize, 8)
	ix2 := buildIndex(t, b.Build())
	if n := ix2.FindExact(symbols.ParseIdentifier("pair<int, bool>")); len(n) != 1 {
		t.Error("canonicalized template lookup failed")
	}
}

func TestPrefixQueries(t *testing.T) {
	ix := buildIndex(t, testUnit(t))

	// Template instantiations match through their base name.
	nodes := ix.FindPrefix(symbols.ParseIdentifier("vec"))
	if len(nodes) != 1 || nodes[0].Name != "vector<int>" {
		t.Fatalf("vec resolved to %v", nodes)
	}
	if n := ix.FindPrefix(symbols.ParseIdentifier("hid")); len(n) != 1 || n[0].Name != "hidden" {
		t.Error("prefix lookup did not see through the anonymous namespace")
	}
	// Scope components stay exact; only the last one widens.
	if n := ix.FindPrefix(symbols.ParseIdentifier("ns::Counter::k")); len(n) != 1 || n[0].Name != "kMax" {
		t.Error("qualified prefix lookup failed")
	}
	if n := ix.FindPrefix(symbols.ParseIdentifier("n::total")); len(n) != 0 {
		t.Error("scope component matched by prefix")
	}
}

func TestPrefixOrderIsDeterministic(t *testing.T) {
	b := records.NewUnitBuilder("p.cc", 0)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit)
	for _, name := range []string{"alto", "alpha", "alpine"} {
		b.New(root.Offset(), dwarf.TagVariable).
			Str(dwarf.AttrName, name).
			Bytes(dwarf.AttrLocation, []byte{0x03})
	}
	ix := buildIndex(t, b.Build())

	want := []string{"alpha", "alpine", "alto"}
	nodes := ix.FindPrefix(symbols.ParseIdentifier("al"))
	if len(nodes) != len(want) {
		t.Fatalf("got %d matches, want %d", len(nodes), len(want))
	}
	for i, n := range nodes {
		if n.Name != want[i] {
			t.Errorf("match %d = %q, want %q", i, n.Name, want[i])
		}
	}
}

func TestWalkerFindPrefix(t *testing.T) {
	ix := buildIndex(t, testUnit(t))
	w := NewWalker(ix)

	if !w.WalkInto(symbols.ParseComponent("ns")) {
		t.Fatal("could not enter ns")
	}
	if n := w.FindPrefix(symbols.ParseIdentifier("tot")); len(n) != 1 || n[0].Name != "total" {
		t.Error("relative prefix lookup failed")
	}
	if !w.WalkInto(symbols.ParseComponent("Counter")) {
		t.Fatal("could not enter Counter")
	}
	if n := w.FindPrefix(symbols.ParseIdentifier("B")); len(n) != 1 || n[0].Name != "Bump" {
		t.Error("prefix lookup inside class scope failed")
	}
}

func TestMainFunctions(t *testing.T) {
	ix := buildIndex(t, testUnit(t))
	mains := ix.MainFunctions()
	if len(mains) != 1 {
		t.Fatalf("got %d entry points", len(mains))
	}
	r := mains[0].Unit.Record(mains[0].Offset)
	if name, _ := r.Str(dwarf.AttrName); name != "main" {
		t.Errorf("entry point = %q", name)
	}
}

func TestDeclarationFlagOnTypeRefs(t *testing.T) {
	b := records.NewUnitBuilder("fwd.cc", 0)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit)
	b.New(root.Offset(), dwarf.TagClassType).
		Str(dwarf.AttrName, "Opaque").
		Flag(dwarf.AttrDeclaration)
	ix := buildIndex(t, b.Build())

	nodes := ix.FindExact(symbols.ParseIdentifier("Opaque"))
	if len(nodes) != 1 || !nodes[0].Refs[0].IsDecl {
		t.Error("forward declaration not flagged")
	}
}

func TestMergeAcrossUnits(t *testing.T) {
	u1 := testUnit(t)
	b := records.NewUnitBuilder("second.cc", 0x9000)
	root := b.New(records.NoOffset, dwarf.TagCompileUnit)
	ns := b.New(root.Offset(), dwarf.TagNamespace).Str(dwarf.AttrName, "ns")
	b.New(ns.Offset(), dwarf.TagVariable).
		Str(dwarf.AttrName, "total").
		Bytes(dwarf.AttrLocation, []byte{0x03})
	u2 := b.Build()

	ix := buildIndex(t, u1, u2)
	nodes := ix.FindExact(symbols.ParseIdentifier("ns::total"))
	if len(nodes) != 1 {
		t.Fatal("merged name split across nodes")
	}
	if len(nodes[0].Refs) != 2 {
		t.Fatalf("got %d refs after merge", len(nodes[0].Refs))
	}
	// Unit order is preserved deterministically.
	if nodes[0].Refs[0].Unit != u1 || nodes[0].Refs[1].Unit != u2 {
		t.Error("refs out of unit order")
	}
	if ix.Stats().Units != 2 {
		t.Errorf("stats units = %d", ix.Stats().Units)
	}
}

func TestWalker(t *testing.T) {
	ix := buildIndex(t, testUnit(t))
	w := NewWalker(ix)

	if !w.WalkInto(symbols.ParseComponent("ns")) {
		t.Fatal("could not enter ns")
	}
	if n := w.FindExact(symbols.ParseIdentifier("total")); len(n) != 1 {
		t.Error("relative lookup inside ns failed")
	}
	if w.WalkInto(symbols.ParseComponent("nothing")) {
		t.Error("walked into a missing scope")
	}
	if !w.WalkInto(symbols.ParseComponent("Counter")) {
		t.Fatal("could not enter a type scope")
	}
	if n := w.FindExact(symbols.ParseIdentifier("kMax")); len(n) != 1 {
		t.Error("lookup inside class scope failed")
	}
	if !w.WalkUp() || !w.WalkUp() {
		t.Fatal("could not walk back up")
	}
	if !w.AtRoot() || w.WalkUp() {
		t.Error("root must refuse WalkUp")
	}

	// Best-effort descent stops at the first unknown component.
	w2 := NewWalker(ix)
	w2.WalkIntoClosest(symbols.ParseIdentifier("ns::NoSuch::Deeper"))
	if w2.AtRoot() {
		t.Error("closest walk should have entered ns")
	}
	if n := w2.FindExact(symbols.ParseIdentifier("total")); len(n) != 1 {
		t.Error("closest walk landed in the wrong scope")
	}
}
