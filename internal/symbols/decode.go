package symbols

import (
	"quarry/internal/dwarf"
	"quarry/internal/records"
)

// decode builds the symbol for one record. followSpec guards the
// specification overlay to one level: when decoding the specification
// record itself, its own specification attribute is not chased.
func (f *RecordFactory) decode(u *records.Unit, r *records.Record, followSpec bool) Symbol {
	var s Symbol
	switch {
	case r.Tag == dwarf.TagSubprogram || r.Tag == dwarf.TagInlinedSubroutine:
		s = f.decodeFunction(u, r, followSpec)
	case r.Tag == dwarf.TagLexicalBlock:
		s = f.decodeBlock(u, r)
	case r.Tag == dwarf.TagVariable || r.Tag == dwarf.TagFormalParameter:
		s = f.decodeVariable(u, r, followSpec)
	case r.Tag == dwarf.TagMember:
		s = f.decodeDataMember(u, r)
	case r.Tag.IsCollection():
		s = f.decodeCollection(u, r)
	case r.Tag == dwarf.TagInheritance:
		s = f.decodeInheritedFrom(u, r)
	case r.Tag == dwarf.TagBaseType:
		s = f.decodeBaseType(u, r)
	case r.Tag.IsTypeModifier():
		s = f.decodeModified(u, r)
	case r.Tag == dwarf.TagArrayType:
		s = f.decodeArray(u, r)
	case r.Tag == dwarf.TagEnumerationType:
		s = f.decodeEnum(u, r)
	case r.Tag == dwarf.TagNamespace:
		s = f.decodeNamespace(u, r)
	case r.Tag == dwarf.TagSubroutineType:
		s = f.decodeFunctionType(u, r)
	case r.Tag == dwarf.TagPtrToMemberType:
		s = f.decodeMemberPtr(u, r)
	default:
		name, _ := r.Str(dwarf.AttrName)
		b := newBase(r.Tag, name)
		s = &b
	}
	s.setEnclosing(f.lazyParent(u, r))
	return s
}

// specRecord returns the specification (or declaration) record that r
// completes, nil when r stands alone.
func specRecord(u *records.Unit, r *records.Record) *records.Record {
	if off, ok := r.Ref(dwarf.AttrSpecification); ok {
		return u.Record(off)
	}
	return nil
}

func (f *RecordFactory) decodeFunction(u *records.Unit, r *records.Record, followSpec bool) *Function {
	fn := &Function{}
	if spec := specRecord(u, r); spec != nil && followSpec {
		// Decode the declaration fresh so the overlay below cannot leak
		// definition state into the memoized declaration symbol. Its
		// enclosing scope is set first and therefore wins.
		if sf, ok := f.decode(u, spec, false).(*Function); ok {
			fn = sf
		}
	}
	fn.tag = r.Tag
	if name, ok := r.Str(dwarf.AttrName); ok {
		fn.name = name
	}
	if ln, ok := r.Str(dwarf.AttrLinkageName); ok {
		fn.LinkageName = ln
	}
	if len(r.Ranges) > 0 {
		fn.Ranges = r.Ranges
	}
	if fb, ok := r.Attrs[dwarf.AttrFrameBase]; ok && fb.Kind == records.ValueBytes {
		fn.FrameBase = fb.Bytes
	}
	if rt := f.lazy(u, r, dwarf.AttrType); rt.IsValid() {
		fn.ReturnType = rt
	}
	if op := f.lazy(u, r, dwarf.AttrObjectPointer); op.IsValid() {
		fn.ObjectPtr = op
	}
	if r.Flag(dwarf.AttrMainSubprogram) {
		fn.Main = true
	}
	if file, ok := r.Str(dwarf.AttrCallFile); ok {
		fn.CallFile = file
	}
	if line, ok := r.Uint(dwarf.AttrCallLine); ok {
		fn.CallLine = line
	}

	var params, vars, inner []LazySymbol
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr == nil {
			continue
		}
		switch cr.Tag {
		case dwarf.TagFormalParameter:
			params = append(params, NewLazy(f, u, child))
		case dwarf.TagVariable:
			vars = append(vars, NewLazy(f, u, child))
		case dwarf.TagLexicalBlock, dwarf.TagInlinedSubroutine:
			inner = append(inner, NewLazy(f, u, child))
		}
	}
	// Parameters usually repeat on the definition; fall back to the
	// declaration's list only when the definition has none.
	if len(params) > 0 {
		fn.Parameters = params
	}
	if len(vars) > 0 {
		fn.Variables = vars
	}
	if len(inner) > 0 {
		fn.Inner = inner
	}
	return fn
}

func (f *RecordFactory) decodeBlock(u *records.Unit, r *records.Record) *CodeBlock {
	b := &CodeBlock{BaseSymbol: newBase(r.Tag, ""), Ranges: r.Ranges}
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr == nil {
			continue
		}
		switch cr.Tag {
		case dwarf.TagVariable, dwarf.TagFormalParameter:
			b.Variables = append(b.Variables, NewLazy(f, u, child))
		case dwarf.TagLexicalBlock, dwarf.TagInlinedSubroutine:
			b.Inner = append(b.Inner, NewLazy(f, u, child))
		}
	}
	return b
}

func (f *RecordFactory) decodeVariable(u *records.Unit, r *records.Record, followSpec bool) *Variable {
	v := &Variable{}
	if spec := specRecord(u, r); spec != nil && followSpec {
		switch sv := f.decode(u, spec, false).(type) {
		case *Variable:
			v = sv
		case *DataMember:
			// Out-of-line definition of a static member: the
			// declaration carries the name and type.
			v.name = sv.AssignedName()
			v.Type = sv.Type
			v.External = sv.External
		}
	}
	v.tag = r.Tag
	if name, ok := r.Str(dwarf.AttrName); ok {
		v.name = name
	}
	if t := f.lazy(u, r, dwarf.AttrType); t.IsValid() {
		v.Type = t
	}
	if r.Flag(dwarf.AttrExternal) {
		v.External = true
	}
	if loc := decodeLocation(u, r, dwarf.AttrLocation); !loc.IsNull() {
		v.Location = loc
	}
	return v
}

// decodeLocation reads a location attribute: a single program valid
// everywhere, or a range list whose unit-relative addresses are
// rebased to module-relative here.
func decodeLocation(u *records.Unit, r *records.Record, attr dwarf.Attr) VariableLocation {
	val, ok := r.Attrs[attr]
	if !ok {
		return VariableLocation{}
	}
	switch val.Kind {
	case records.ValueBytes:
		return NewAlwaysLocation(val.Bytes)
	case records.ValueLocList:
		entries := make([]LocationEntry, 0, len(val.List))
		for _, e := range val.List {
			entries = append(entries, LocationEntry{
				Begin: e.Begin + u.BaseAddr(),
				End:   e.End + u.BaseAddr(),
				Expr:  e.Expr,
			})
		}
		return NewLocationList(entries)
	}
	return VariableLocation{}
}

func (f *RecordFactory) decodeDataMember(u *records.Unit, r *records.Record) *DataMember {
	name, _ := r.Str(dwarf.AttrName)
	m := &DataMember{
		BaseSymbol: newBase(r.Tag, name),
		Type:       f.lazy(u, r, dwarf.AttrType),
		External:   r.Flag(dwarf.AttrExternal),
	}
	if off, ok := r.Uint(dwarf.AttrDataMemberLocation); ok {
		m.ByteOffset = off
	}
	if bits, ok := r.Uint(dwarf.AttrBitSize); ok {
		m.BitSize = bits
		m.HasBitLayout = true
		m.DataBitOffs, _ = r.Uint(dwarf.AttrDataBitOffset)
	}
	if cv, ok := r.Attrs[dwarf.AttrConstValue]; ok {
		m.ConstSet = true
		if cv.Kind == records.ValueInt {
			m.ConstValue = uint64(cv.Int)
		} else {
			m.ConstValue = cv.Uint
		}
	}
	return m
}

func (f *RecordFactory) decodeCollection(u *records.Unit, r *records.Record) *Collection {
	name, _ := r.Str(dwarf.AttrName)
	size, _ := r.Uint(dwarf.AttrByteSize)
	c := &Collection{TypeBase: newTypeBase(r.Tag, name, size, r.Flag(dwarf.AttrDeclaration))}
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr == nil {
			continue
		}
		switch cr.Tag {
		case dwarf.TagMember:
			c.Members = append(c.Members, NewLazy(f, u, child))
		case dwarf.TagInheritance:
			c.Inherited = append(c.Inherited, NewLazy(f, u, child))
		}
	}
	return c
}

func (f *RecordFactory) decodeInheritedFrom(u *records.Unit, r *records.Record) *InheritedFrom {
	inh := &InheritedFrom{
		BaseSymbol: newBase(r.Tag, ""),
		BaseType:   f.lazy(u, r, dwarf.AttrType),
	}
	inh.Offset, _ = r.Uint(dwarf.AttrDataMemberLocation)
	return inh
}

func (f *RecordFactory) decodeBaseType(u *records.Unit, r *records.Record) *BaseType {
	name, _ := r.Str(dwarf.AttrName)
	size, _ := r.Uint(dwarf.AttrByteSize)
	enc, _ := r.Uint(dwarf.AttrEncoding)
	return &BaseType{TypeBase: newTypeBase(r.Tag, name, size, false), Encoding: enc}
}

func (f *RecordFactory) decodeModified(u *records.Unit, r *records.Record) *ModifiedType {
	name, _ := r.Str(dwarf.AttrName)
	size, _ := r.Uint(dwarf.AttrByteSize)
	return &ModifiedType{
		TypeBase: newTypeBase(r.Tag, name, size, false),
		Modified: f.lazy(u, r, dwarf.AttrType),
	}
}

// decodeArray builds nested ArrayTypes from the ordered subrange
// children, innermost last, so the first subrange becomes the
// outermost dimension. A dimension without a count makes the whole
// array undecodable.
func (f *RecordFactory) decodeArray(u *records.Unit, r *records.Record) Symbol {
	elem := f.lazy(u, r, dwarf.AttrType)
	var counts []uint64
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr == nil || cr.Tag != dwarf.TagSubrangeType {
			continue
		}
		n, ok := cr.Uint(dwarf.AttrCount)
		if !ok {
			b := newBase(r.Tag, "")
			return &b
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		b := newBase(r.Tag, "")
		return &b
	}
	inner := elem
	var arr *ArrayType
	for i := len(counts) - 1; i >= 0; i-- {
		arr = &ArrayType{
			TypeBase:  newTypeBase(r.Tag, "", 0, false),
			ValueType: inner,
			Length:    counts[i],
		}
		inner = NewConcrete(arr)
	}
	return arr
}

func (f *RecordFactory) decodeEnum(u *records.Unit, r *records.Record) *Enumeration {
	name, _ := r.Str(dwarf.AttrName)
	size, _ := r.Uint(dwarf.AttrByteSize)
	e := &Enumeration{
		TypeBase:   newTypeBase(r.Tag, name, size, r.Flag(dwarf.AttrDeclaration)),
		Underlying: f.lazy(u, r, dwarf.AttrType),
		Values:     make(map[string]uint64),
	}
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr == nil || cr.Tag != dwarf.TagEnumerator {
			continue
		}
		ename, ok := cr.Str(dwarf.AttrName)
		if !ok {
			continue
		}
		cv, ok := cr.Attrs[dwarf.AttrConstValue]
		if !ok {
			continue
		}
		e.Names = append(e.Names, ename)
		if cv.Kind == records.ValueInt {
			// One signed enumerator makes the whole enumeration signed.
			e.Signed = true
			e.Values[ename] = uint64(cv.Int)
		} else {
			e.Values[ename] = cv.Uint
		}
	}
	return e
}

func (f *RecordFactory) decodeNamespace(u *records.Unit, r *records.Record) *Namespace {
	name, _ := r.Str(dwarf.AttrName)
	return &Namespace{BaseSymbol: newBase(r.Tag, name)}
}

func (f *RecordFactory) decodeFunctionType(u *records.Unit, r *records.Record) *FunctionType {
	size, _ := r.Uint(dwarf.AttrByteSize)
	ft := &FunctionType{
		TypeBase:   newTypeBase(r.Tag, "", size, false),
		ReturnType: f.lazy(u, r, dwarf.AttrType),
	}
	for _, child := range r.Children {
		cr := u.Record(child)
		if cr != nil && cr.Tag == dwarf.TagFormalParameter {
			ft.Params = append(ft.Params, NewLazy(f, u, child))
		}
	}
	return ft
}

func (f *RecordFactory) decodeMemberPtr(u *records.Unit, r *records.Record) *MemberPtr {
	size, _ := r.Uint(dwarf.AttrByteSize)
	return &MemberPtr{
		TypeBase:      newTypeBase(r.Tag, "", size, false),
		ContainerType: f.lazy(u, r, dwarf.AttrContainingType),
		MemberType:    f.lazy(u, r, dwarf.AttrType),
	}
}
