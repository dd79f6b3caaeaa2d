package index

import (
	"bytes"
	"errors"
	"testing"

	"quarry/internal/diag"
	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/symbols"
)

func TestCacheRoundTrip(t *testing.T) {
	unit := testUnit(t)
	ix := buildIndex(t, unit)

	var buf bytes.Buffer
	if err := ix.WriteCache(&buf, []*records.Unit{unit}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadCache(&buf, []*records.Unit{unit})
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for _, id := range []string{"ns::Counter::Bump", "ns::total", "hidden", "vector<int>"} {
		if n := got.FindExact(symbols.ParseIdentifier(id)); len(n) != 1 {
			t.Errorf("%s missing after reload", id)
		}
	}
	if len(got.MainFunctions()) != 1 {
		t.Error("entry points lost in cache")
	}
	if got.Stats() != ix.Stats() {
		t.Errorf("stats %+v, want %+v", got.Stats(), ix.Stats())
	}
}

func TestCacheRejectsMismatchedUnits(t *testing.T) {
	unit := testUnit(t)
	ix := buildIndex(t, unit)
	var buf bytes.Buffer
	if err := ix.WriteCache(&buf, []*records.Unit{unit}); err != nil {
		t.Fatal(err)
	}

	b := records.NewUnitBuilder("other.cc", 0)
	b.New(records.NoOffset, dwarf.TagCompileUnit)
	_, err := ReadCache(&buf, []*records.Unit{b.Build()})
	if err == nil {
		t.Fatal("mismatched unit list accepted")
	}
	var derr *diag.Err
	if !errors.As(err, &derr) || derr.Code != diag.BadCache {
		t.Errorf("error = %v", err)
	}
}
