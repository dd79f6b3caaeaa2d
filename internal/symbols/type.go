package symbols

import "quarry/internal/dwarf"

// Type is implemented by every symbol kind describing a value layout.
type Type interface {
	Symbol

	// ByteSize is the stored size of a value of this type; zero when the
	// record did not say.
	ByteSize() uint64

	// IsDeclaration reports a forward declaration with no layout. Such a
	// type must be re-resolved against the index before use.
	IsDeclaration() bool
}

// TypeBase carries the state shared by all type kinds.
type TypeBase struct {
	BaseSymbol
	byteSize uint64
	decl     bool
}

func newTypeBase(tag dwarf.Tag, name string, byteSize uint64, decl bool) TypeBase {
	return TypeBase{BaseSymbol: newBase(tag, name), byteSize: byteSize, decl: decl}
}

func (t *TypeBase) ByteSize() uint64    { return t.byteSize }
func (t *TypeBase) IsDeclaration() bool { return t.decl }

// BaseType is a language primitive: int, bool, float, char variants.
type BaseType struct {
	TypeBase
	Encoding uint64
}

// IsSigned reports a signed integer or signed char encoding.
func (t *BaseType) IsSigned() bool {
	return t.Encoding == dwarf.EncodingSigned || t.Encoding == dwarf.EncodingSignedChar
}

// ModifiedType wraps another type: pointer, reference, const, volatile,
// restrict, or typedef. The tag says which.
type ModifiedType struct {
	TypeBase
	Modified LazySymbol
}

// IsTransparent reports whether value semantics pass through the
// modifier unchanged (everything except pointers and references).
func (t *ModifiedType) IsTransparent() bool {
	switch t.Tag() {
	case dwarf.TagPointerType, dwarf.TagReferenceType, dwarf.TagRvalueReferenceType:
		return false
	}
	return true
}

// StripCVT peels const, volatile, restrict, and typedef wrappers off a
// type until a non-transparent kind is reached. Nil stays nil.
func StripCVT(t Type) Type {
	for {
		mod, ok := t.(*ModifiedType)
		if !ok || !mod.IsTransparent() {
			return t
		}
		inner, ok := mod.Modified.Get().(Type)
		if !ok {
			return t
		}
		t = inner
	}
}

// ArrayType is a fixed-length array. Multi-dimensional arrays nest:
// the outer array's value type is itself an ArrayType.
type ArrayType struct {
	TypeBase
	ValueType LazySymbol
	Length    uint64
}

// Enumeration is an enum type with its enumerator values. Values maps
// enumerator name to the raw bit pattern; Signed says how to read it.
type Enumeration struct {
	TypeBase
	Underlying LazySymbol
	Names      []string
	Values     map[string]uint64
	Signed     bool
}

// FunctionType describes a function's signature when used as a type,
// as behind a function pointer.
type FunctionType struct {
	TypeBase
	ReturnType LazySymbol
	Params     []LazySymbol
}

// MemberPtr is a pointer-to-member type: the container it indexes into
// and the member type pointed at.
type MemberPtr struct {
	TypeBase
	ContainerType LazySymbol
	MemberType    LazySymbol
}
