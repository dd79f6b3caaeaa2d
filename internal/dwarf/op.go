package dwarf

// Op is one opcode of a location program.
type Op uint8

const (
	OpAddr          Op = 0x03
	OpDeref         Op = 0x06
	OpConst1u       Op = 0x08
	OpConst1s       Op = 0x09
	OpConst2u       Op = 0x0a
	OpConst2s       Op = 0x0b
	OpConst4u       Op = 0x0c
	OpConst4s       Op = 0x0d
	OpConst8u       Op = 0x0e
	OpConst8s       Op = 0x0f
	OpConstu        Op = 0x10
	OpConsts        Op = 0x11
	OpDup           Op = 0x12
	OpDrop          Op = 0x13
	OpOver          Op = 0x14
	OpPick          Op = 0x15
	OpSwap          Op = 0x16
	OpRot           Op = 0x17
	OpXderef        Op = 0x18
	OpAbs           Op = 0x19
	OpAnd           Op = 0x1a
	OpDiv           Op = 0x1b
	OpMinus         Op = 0x1c
	OpMod           Op = 0x1d
	OpMul           Op = 0x1e
	OpNeg           Op = 0x1f
	OpNot           Op = 0x20
	OpOr            Op = 0x21
	OpPlus          Op = 0x22
	OpPlusUconst    Op = 0x23
	OpShl           Op = 0x24
	OpShr           Op = 0x25
	OpShra          Op = 0x26
	OpXor           Op = 0x27
	OpBra           Op = 0x28
	OpEq            Op = 0x29
	OpGe            Op = 0x2a
	OpGt            Op = 0x2b
	OpLe            Op = 0x2c
	OpLt            Op = 0x2d
	OpNe            Op = 0x2e
	OpSkip          Op = 0x2f
	OpLit0          Op = 0x30
	OpLit31         Op = 0x4f
	OpReg0          Op = 0x50
	OpReg31         Op = 0x6f
	OpBreg0         Op = 0x70
	OpBreg31        Op = 0x8f
	OpRegx          Op = 0x90
	OpFbreg         Op = 0x91
	OpBregx         Op = 0x92
	OpPiece         Op = 0x93
	OpDerefSize     Op = 0x94
	OpXderefSize    Op = 0x95
	OpNop           Op = 0x96
	OpCallFrameCFA  Op = 0x9c
	OpBitPiece      Op = 0x9d
	OpImplicitValue Op = 0x9e
	OpStackValue    Op = 0x9f
)
