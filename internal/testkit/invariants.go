package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"quarry/internal/records"
)

// CheckUnitInvariants runs a minimal set of structural invariants on a
// built unit:
// 1) offsets are nonzero, unique, and ascending
// 2) every parent link resolves and parents precede their children
// 3) child lists agree with the parent links
// 4) every range is non-empty
func CheckUnitInvariants(u *records.Unit) error {
	if u == nil {
		return fmt.Errorf("nil unit")
	}
	offsets := u.Offsets()
	if len(offsets) == 0 {
		return fmt.Errorf("unit %q has no records", u.Name())
	}

	// 1) offset ordering; zero is the nil-parent sentinel
	var prev uint32
	for _, off := range offsets {
		if off == records.NoOffset {
			return fmt.Errorf("record at reserved offset 0")
		}
		if off <= prev {
			return fmt.Errorf("offsets not ascending: %d after %d", off, prev)
		}
		prev = off
	}
	count, err := safecast.Conv[uint32](len(offsets))
	if err != nil {
		return fmt.Errorf("record count overflow: %w", err)
	}
	// unique nonzero offsets mean the largest is at least the count
	if prev < count {
		return fmt.Errorf("max offset %d below record count %d", prev, count)
	}

	for _, off := range offsets {
		r := u.Record(off)
		if r == nil {
			return fmt.Errorf("missing record for listed offset %d", off)
		}
		if r.Offset != off {
			return fmt.Errorf("record offset mismatch: keyed %d, carries %d", off, r.Offset)
		}

		// 2) parent precedes child
		if r.Parent != records.NoOffset {
			if r.Parent >= r.Offset {
				return fmt.Errorf("record %d does not follow its parent %d", r.Offset, r.Parent)
			}
			if u.ParentOf(r) == nil {
				return fmt.Errorf("record %d has dangling parent %d", r.Offset, r.Parent)
			}
		}

		// 3) child list consistency
		for _, child := range r.Children {
			cr := u.Record(child)
			if cr == nil {
				return fmt.Errorf("record %d lists missing child %d", r.Offset, child)
			}
			if cr.Parent != r.Offset {
				return fmt.Errorf("child %d of record %d points back to %d", child, r.Offset, cr.Parent)
			}
		}

		// 4) ranges
		for _, rng := range r.Ranges {
			if rng.End <= rng.Begin {
				return fmt.Errorf("record %d has empty range [%#x,%#x)", r.Offset, rng.Begin, rng.End)
			}
		}
	}
	return nil
}
