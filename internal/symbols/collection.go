package symbols

// Collection is a struct, class, or union. Members holds the data
// members in declared order; Inherited the direct base classes.
type Collection struct {
	TypeBase
	Members   []LazySymbol
	Inherited []LazySymbol
}

// InheritedFrom links a derived collection to one base class at a byte
// offset within the derived layout.
type InheritedFrom struct {
	BaseSymbol
	BaseType LazySymbol
	Offset   uint64
}

// DataMember is one field of a collection. For static members and
// compile-time constants there is no storage offset; ConstSet marks a
// constant whose value lives on the record itself.
type DataMember struct {
	BaseSymbol
	Type       LazySymbol
	ByteOffset uint64
	External   bool

	// Bitfield layout. BitSize zero means an ordinary member.
	BitSize      uint64
	DataBitOffs  uint64
	HasBitLayout bool

	ConstSet   bool
	ConstValue uint64
}

// VisitResult controls hierarchy walks.
type VisitResult uint8

const (
	VisitContinue VisitResult = iota
	VisitStop
)

// VisitClassHierarchy calls fn for coll and every base class reachable
// from it, pre-order with derived classes before their bases. offset is
// the cumulative byte offset of each visited class within coll's
// layout. The walk stops early when fn returns VisitStop.
func VisitClassHierarchy(coll *Collection, fn func(c *Collection, offset uint64) VisitResult) VisitResult {
	return visitHierarchy(coll, 0, fn)
}

func visitHierarchy(coll *Collection, offset uint64, fn func(*Collection, uint64) VisitResult) VisitResult {
	if fn(coll, offset) == VisitStop {
		return VisitStop
	}
	for _, lazy := range coll.Inherited {
		inh, ok := lazy.Get().(*InheritedFrom)
		if !ok {
			continue
		}
		base, ok := StripCVT(typeOf(inh.BaseType)).(*Collection)
		if !ok {
			continue
		}
		if visitHierarchy(base, offset+inh.Offset, fn) == VisitStop {
			return VisitStop
		}
	}
	return VisitContinue
}

// typeOf resolves a lazy reference as a Type, nil if it is not one.
func typeOf(l LazySymbol) Type {
	if !l.IsValid() {
		return nil
	}
	t, _ := l.Get().(Type)
	return t
}
