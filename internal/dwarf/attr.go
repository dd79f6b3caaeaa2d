package dwarf

// Attr identifies one attribute of a record.
type Attr uint16

const (
	AttrLocation           Attr = 0x02
	AttrName               Attr = 0x03
	AttrByteSize           Attr = 0x0b
	AttrBitOffset          Attr = 0x0c
	AttrBitSize            Attr = 0x0d
	AttrConstValue         Attr = 0x1c
	AttrContainingType     Attr = 0x1d
	AttrCount              Attr = 0x37
	AttrDataMemberLocation Attr = 0x38
	AttrDeclFile           Attr = 0x3a
	AttrDeclLine           Attr = 0x3b
	AttrDeclaration        Attr = 0x3c
	AttrEncoding           Attr = 0x3e
	AttrExternal           Attr = 0x3f
	AttrFrameBase          Attr = 0x40
	AttrSpecification      Attr = 0x47
	AttrType               Attr = 0x49
	AttrCallFile           Attr = 0x58
	AttrCallLine           Attr = 0x59
	AttrObjectPointer      Attr = 0x64
	AttrMainSubprogram     Attr = 0x6a
	AttrDataBitOffset      Attr = 0x6b
	AttrLinkageName        Attr = 0x6e
)

// Base-type encodings (AttrEncoding values).
const (
	EncodingBoolean      uint64 = 0x02
	EncodingFloat        uint64 = 0x04
	EncodingSigned       uint64 = 0x05
	EncodingSignedChar   uint64 = 0x06
	EncodingUnsigned     uint64 = 0x07
	EncodingUnsignedChar uint64 = 0x08
)
