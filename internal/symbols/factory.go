package symbols

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"quarry/internal/dwarf"
	"quarry/internal/records"
	"quarry/internal/trace"
)

// RecordFactory decodes records into symbols, memoizing each decoded
// offset so repeated graph traversal hands back the same node. Safe for
// concurrent use.
type RecordFactory struct {
	tracer trace.Tracer

	mu    sync.Mutex
	cache map[symbolKey]Symbol
	group singleflight.Group
}

type symbolKey struct {
	unit   *records.Unit
	offset uint32
}

// NewFactory builds a factory tracing through t.
func NewFactory(t trace.Tracer) *RecordFactory {
	if t == nil {
		t = trace.Nop
	}
	return &RecordFactory{tracer: t, cache: make(map[symbolKey]Symbol)}
}

// DecodeSymbol implements Factory. Missing offsets and unknown tags
// decode to a minimal placeholder rather than failing.
func (f *RecordFactory) DecodeSymbol(unit *records.Unit, offset uint32) Symbol {
	key := symbolKey{unit, offset}
	f.mu.Lock()
	if s, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return s
	}
	f.mu.Unlock()

	v, _, _ := f.group.Do(fmt.Sprintf("%p:%d", unit, offset), func() (any, error) {
		r := unit.Record(offset)
		if r == nil {
			trace.Emitf(f.tracer, trace.LevelDebug, "symbols", "no record at %s+%#x", unit.Name(), offset)
			return &BaseSymbol{}, nil
		}
		s := f.decode(unit, r, true)
		f.mu.Lock()
		f.cache[key] = s
		f.mu.Unlock()
		return s, nil
	})
	return v.(Symbol)
}

// lazy returns a reference to the record that attr points at, invalid
// when the attribute is absent.
func (f *RecordFactory) lazy(u *records.Unit, r *records.Record, attr dwarf.Attr) LazySymbol {
	if off, ok := r.Ref(attr); ok {
		return NewLazy(f, u, off)
	}
	return LazySymbol{}
}

func (f *RecordFactory) lazyParent(u *records.Unit, r *records.Record) LazySymbol {
	if r.Parent == records.NoOffset {
		return LazySymbol{}
	}
	return NewLazy(f, u, r.Parent)
}
