package symbols

// VariableLocation says where a variable's value lives. Either a single
// location program valid across the whole enclosing scope, or a list of
// module-relative address ranges each with its own program.
//
// A null location means the compiler emitted no storage at all: the
// variable is optimized out. A non-null location whose ranges miss the
// query address is a different condition, reported as unavailable.
type VariableLocation struct {
	always  []byte
	entries []LocationEntry
}

// LocationEntry is one range of a location list. Addresses are
// module-relative, half-open.
type LocationEntry struct {
	Begin uint64
	End   uint64
	Expr  []byte
}

// NewAlwaysLocation builds a location valid at every address in scope.
func NewAlwaysLocation(expr []byte) VariableLocation {
	return VariableLocation{always: expr}
}

// NewLocationList builds a range-dependent location.
func NewLocationList(entries []LocationEntry) VariableLocation {
	return VariableLocation{entries: entries}
}

// IsNull reports a variable with no location information.
func (l VariableLocation) IsNull() bool {
	return l.always == nil && len(l.entries) == 0
}

// Entries returns the range list, nil for single-program locations.
func (l VariableLocation) Entries() []LocationEntry { return l.entries }

// ExprForIP returns the location program in effect at the
// module-relative address ip. ok is false when the location is a range
// list and no range covers ip.
func (l VariableLocation) ExprForIP(ip uint64) (expr []byte, ok bool) {
	if l.always != nil {
		return l.always, true
	}
	for _, e := range l.entries {
		if ip >= e.Begin && ip < e.End {
			return e.Expr, true
		}
	}
	return nil, false
}
