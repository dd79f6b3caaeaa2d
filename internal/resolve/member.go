package resolve

import "quarry/internal/symbols"

// FindMember searches a collection for a data member named by the
// single-component identifier comp. Data members are checked in
// declared order before any base class; base classes follow in
// pre-order, derived before base, with byte offsets accumulated along
// the inheritance path. Unnamed members of collection type are
// transparent: their fields are searched as if declared inline.
func FindMember(coll *symbols.Collection, comp symbols.Component, c *collector) {
	findMemberAt(coll, comp, 0, c)
}

// findMemberAt walks coll's hierarchy with base already accumulated
// from any enclosing anonymous members.
func findMemberAt(coll *symbols.Collection, comp symbols.Component, base uint64, c *collector) {
	name := comp.Canonical()
	symbols.VisitClassHierarchy(coll, func(cls *symbols.Collection, clsOff uint64) symbols.VisitResult {
		for _, lazy := range cls.Members {
			dm, ok := lazy.Get().(*symbols.DataMember)
			if !ok {
				continue
			}
			total := base + clsOff + dm.ByteOffset
			if dm.AssignedName() != "" && nameMatches(dm.AssignedName(), name, c.opts.Prefix) {
				c.add(FoundName{Kind: FoundMember, Object: Member{Member: dm, Offset: total}})
				if c.full() {
					return symbols.VisitStop
				}
				continue
			}
			if dm.AssignedName() == "" {
				// Anonymous struct or union member: descend without
				// consuming a component.
				if inner, ok := symbols.StripCVT(lazyType(dm.Type)).(*symbols.Collection); ok {
					findMemberAt(inner, comp, total, c)
					if c.full() {
						return symbols.VisitStop
					}
				}
			}
		}
		return symbols.VisitContinue
	})
}

func lazyType(l symbols.LazySymbol) symbols.Type {
	if !l.IsValid() {
		return nil
	}
	t, _ := l.Get().(symbols.Type)
	return t
}
