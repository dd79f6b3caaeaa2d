// Package dwarf holds the DWARF numbering used by the record view, the
// symbol decoder, and the location-program evaluator. Only the constants the
// engine consumes are defined; the container parse lives outside this module.
package dwarf

// Tag classifies one debug-info record.
type Tag uint16

const (
	TagNone                Tag = 0x00
	TagArrayType           Tag = 0x01
	TagClassType           Tag = 0x02
	TagEnumerationType     Tag = 0x04
	TagFormalParameter     Tag = 0x05
	TagLexicalBlock        Tag = 0x0b
	TagMember              Tag = 0x0d
	TagPointerType         Tag = 0x0f
	TagReferenceType       Tag = 0x10
	TagCompileUnit         Tag = 0x11
	TagStringType          Tag = 0x12
	TagStructureType       Tag = 0x13
	TagSubroutineType      Tag = 0x15
	TagTypedef             Tag = 0x16
	TagUnionType           Tag = 0x17
	TagVariant             Tag = 0x19
	TagInheritance         Tag = 0x1c
	TagInlinedSubroutine   Tag = 0x1d
	TagPtrToMemberType     Tag = 0x1f
	TagSubrangeType        Tag = 0x21
	TagBaseType            Tag = 0x24
	TagConstType           Tag = 0x26
	TagEnumerator          Tag = 0x28
	TagSubprogram          Tag = 0x2e
	TagVariable            Tag = 0x34
	TagVolatileType        Tag = 0x35
	TagRestrictType        Tag = 0x37
	TagNamespace           Tag = 0x39
	TagRvalueReferenceType Tag = 0x42
)

// IsType reports whether records with this tag decode to a type symbol.
func (t Tag) IsType() bool {
	switch t {
	case TagArrayType, TagBaseType, TagClassType, TagEnumerationType,
		TagPtrToMemberType, TagStringType, TagStructureType,
		TagSubroutineType, TagTypedef, TagUnionType:
		return true
	}
	return t.IsTypeModifier()
}

// IsTypeModifier reports whether this tag wraps another type (pointers,
// references, CV qualifiers, typedefs).
func (t Tag) IsTypeModifier() bool {
	switch t {
	case TagConstType, TagPointerType, TagReferenceType, TagRestrictType,
		TagRvalueReferenceType, TagTypedef, TagVolatileType:
		return true
	}
	return false
}

// IsFunction reports whether this tag is a concrete or inlined function.
func (t Tag) IsFunction() bool {
	return t == TagSubprogram || t == TagInlinedSubroutine
}

// IsCodeBlock reports whether this tag carries address ranges with nested
// scopes (functions, inlined calls, lexical blocks).
func (t Tag) IsCodeBlock() bool {
	return t.IsFunction() || t == TagLexicalBlock
}

// IsCollection reports whether this tag is a struct/class/union.
func (t Tag) IsCollection() bool {
	return t == TagStructureType || t == TagClassType || t == TagUnionType
}

func (t Tag) String() string {
	switch t {
	case TagArrayType:
		return "array_type"
	case TagBaseType:
		return "base_type"
	case TagClassType:
		return "class_type"
	case TagCompileUnit:
		return "compile_unit"
	case TagConstType:
		return "const_type"
	case TagEnumerationType:
		return "enumeration_type"
	case TagEnumerator:
		return "enumerator"
	case TagFormalParameter:
		return "formal_parameter"
	case TagInheritance:
		return "inheritance"
	case TagInlinedSubroutine:
		return "inlined_subroutine"
	case TagLexicalBlock:
		return "lexical_block"
	case TagMember:
		return "member"
	case TagNamespace:
		return "namespace"
	case TagPointerType:
		return "pointer_type"
	case TagPtrToMemberType:
		return "ptr_to_member_type"
	case TagReferenceType:
		return "reference_type"
	case TagRestrictType:
		return "restrict_type"
	case TagRvalueReferenceType:
		return "rvalue_reference_type"
	case TagStringType:
		return "string_type"
	case TagStructureType:
		return "structure_type"
	case TagSubprogram:
		return "subprogram"
	case TagSubrangeType:
		return "subrange_type"
	case TagSubroutineType:
		return "subroutine_type"
	case TagTypedef:
		return "typedef"
	case TagUnionType:
		return "union_type"
	case TagVariable:
		return "variable"
	case TagVolatileType:
		return "volatile_type"
	default:
		return "unknown"
	}
}
