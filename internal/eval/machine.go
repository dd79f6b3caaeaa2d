package eval

import (
	"context"
	"encoding/binary"

	"quarry/internal/diag"
	"quarry/internal/dwarf"
	"quarry/internal/module"
)

// ResultKind says how to interpret the value a program left behind.
type ResultKind uint8

const (
	// ResultAddress: the stack top is the absolute address of the
	// object.
	ResultAddress ResultKind = iota

	// ResultValue: the stack top (or ImplicitData) is the object's
	// value itself; there is no address.
	ResultValue
)

// Result of one program run. Register is the register the value came
// directly from, -1 otherwise; a caller writing the variable back needs
// it.
type Result struct {
	Kind         ResultKind
	Value        uint64
	Register     int32
	ImplicitData []byte
}

// Evaluator runs location programs. Module-relative addresses in a
// program are rebased through the symbol context.
type Evaluator struct {
	provider DataProvider
	symCtx   module.SymbolContext
}

func NewEvaluator(p DataProvider, sc module.SymbolContext) *Evaluator {
	return &Evaluator{provider: p, symCtx: sc}
}

type machine struct {
	*Evaluator
	ctx  context.Context
	expr []byte
	pc   int

	stack    []uint64
	register int32
	isValue  bool
	implicit []byte
}

// Eval runs one program to completion. Provider reads suspend on ctx.
func (e *Evaluator) Eval(ctx context.Context, expr []byte) (Result, error) {
	m := &machine{Evaluator: e, ctx: ctx, expr: expr, register: -1}
	for m.pc < len(m.expr) {
		if err := ctx.Err(); err != nil {
			return Result{}, diag.Wrap(diag.Cancelled, err, "expression evaluation")
		}
		op := dwarf.Op(m.expr[m.pc])
		m.pc++
		done, err := m.step(op)
		if err != nil {
			return Result{}, err
		}
		if done {
			break
		}
		if !(op >= dwarf.OpReg0 && op <= dwarf.OpReg31) && op != dwarf.OpRegx {
			m.register = -1
		}
	}
	if len(m.stack) == 0 && m.implicit == nil {
		return Result{}, diag.New(diag.CorruptExpr, "DWARF expression produced no results.")
	}
	res := Result{Kind: ResultAddress, Register: m.register, ImplicitData: m.implicit}
	if len(m.stack) > 0 {
		res.Value = m.stack[len(m.stack)-1]
	}
	if m.isValue || m.implicit != nil || m.register >= 0 {
		res.Kind = ResultValue
	}
	return res, nil
}

func (m *machine) push(v uint64) { m.stack = append(m.stack, v) }

func (m *machine) pop() (uint64, error) {
	if len(m.stack) == 0 {
		return 0, diag.New(diag.CorruptExpr, "stack underflow in DWARF expression")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *machine) step(op dwarf.Op) (done bool, err error) {
	switch {
	case op >= dwarf.OpLit0 && op <= dwarf.OpLit31:
		m.push(uint64(op - dwarf.OpLit0))
		return false, nil
	case op >= dwarf.OpReg0 && op <= dwarf.OpReg31:
		return false, m.pushRegister(uint32(op - dwarf.OpReg0))
	case op >= dwarf.OpBreg0 && op <= dwarf.OpBreg31:
		off, err := m.sleb()
		if err != nil {
			return false, err
		}
		return false, m.pushRegisterOffset(uint32(op-dwarf.OpBreg0), off)
	}

	switch op {
	case dwarf.OpAddr:
		rel, err := m.fixed(8)
		if err != nil {
			return false, err
		}
		m.push(m.symCtx.RelativeToAbsolute(rel))
	case dwarf.OpConst1u:
		return false, m.pushFixed(1, false)
	case dwarf.OpConst1s:
		return false, m.pushFixed(1, true)
	case dwarf.OpConst2u:
		return false, m.pushFixed(2, false)
	case dwarf.OpConst2s:
		return false, m.pushFixed(2, true)
	case dwarf.OpConst4u:
		return false, m.pushFixed(4, false)
	case dwarf.OpConst4s:
		return false, m.pushFixed(4, true)
	case dwarf.OpConst8u, dwarf.OpConst8s:
		return false, m.pushFixed(8, false)
	case dwarf.OpConstu:
		v, err := m.uleb()
		if err != nil {
			return false, err
		}
		m.push(v)
	case dwarf.OpConsts:
		v, err := m.sleb()
		if err != nil {
			return false, err
		}
		m.push(uint64(v))

	case dwarf.OpDup:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(v)
		m.push(v)
	case dwarf.OpDrop:
		_, err := m.pop()
		return false, err
	case dwarf.OpOver:
		if len(m.stack) < 2 {
			return false, diag.New(diag.CorruptExpr, "stack underflow in DWARF expression")
		}
		m.push(m.stack[len(m.stack)-2])
	case dwarf.OpPick:
		idx, err := m.fixed(1)
		if err != nil {
			return false, err
		}
		if uint64(len(m.stack)) <= idx {
			return false, diag.New(diag.CorruptExpr, "stack underflow in DWARF expression")
		}
		m.push(m.stack[uint64(len(m.stack))-1-idx])
	case dwarf.OpSwap:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		b, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(a)
		m.push(b)
	case dwarf.OpRot:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		b, err := m.pop()
		if err != nil {
			return false, err
		}
		c, err := m.pop()
		if err != nil {
			return false, err
		}
		m.push(a)
		m.push(c)
		m.push(b)

	case dwarf.OpAbs:
		return false, m.unary(func(v uint64) uint64 {
			if int64(v) < 0 {
				return uint64(-int64(v))
			}
			return v
		})
	case dwarf.OpNeg:
		return false, m.unary(func(v uint64) uint64 { return uint64(-int64(v)) })
	case dwarf.OpNot:
		return false, m.unary(func(v uint64) uint64 { return ^v })
	case dwarf.OpAnd:
		return false, m.binary(func(a, b uint64) uint64 { return a & b })
	case dwarf.OpOr:
		return false, m.binary(func(a, b uint64) uint64 { return a | b })
	case dwarf.OpXor:
		return false, m.binary(func(a, b uint64) uint64 { return a ^ b })
	case dwarf.OpPlus:
		return false, m.binary(func(a, b uint64) uint64 { return a + b })
	case dwarf.OpMinus:
		return false, m.binary(func(a, b uint64) uint64 { return a - b })
	case dwarf.OpMul:
		return false, m.binary(func(a, b uint64) uint64 { return a * b })
	case dwarf.OpDiv:
		return false, m.binaryErr(func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, diag.New(diag.CorruptExpr, "division by zero in DWARF expression")
			}
			return uint64(int64(a) / int64(b)), nil
		})
	case dwarf.OpMod:
		return false, m.binaryErr(func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, diag.New(diag.CorruptExpr, "division by zero in DWARF expression")
			}
			return a % b, nil
		})
	case dwarf.OpShl:
		return false, m.binary(func(a, b uint64) uint64 { return a << (b & 63) })
	case dwarf.OpShr:
		return false, m.binary(func(a, b uint64) uint64 { return a >> (b & 63) })
	case dwarf.OpShra:
		return false, m.binary(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 63)) })
	case dwarf.OpPlusUconst:
		v, err := m.uleb()
		if err != nil {
			return false, err
		}
		return false, m.unary(func(top uint64) uint64 { return top + v })

	case dwarf.OpEq:
		return false, m.compare(func(a, b int64) bool { return a == b })
	case dwarf.OpNe:
		return false, m.compare(func(a, b int64) bool { return a != b })
	case dwarf.OpGe:
		return false, m.compare(func(a, b int64) bool { return a >= b })
	case dwarf.OpGt:
		return false, m.compare(func(a, b int64) bool { return a > b })
	case dwarf.OpLe:
		return false, m.compare(func(a, b int64) bool { return a <= b })
	case dwarf.OpLt:
		return false, m.compare(func(a, b int64) bool { return a < b })

	case dwarf.OpSkip:
		return false, m.branch(true)
	case dwarf.OpBra:
		cond, err := m.pop()
		if err != nil {
			return false, err
		}
		return false, m.branch(cond != 0)

	case dwarf.OpRegx:
		reg, err := m.uleb()
		if err != nil {
			return false, err
		}
		return false, m.pushRegister(uint32(reg))
	case dwarf.OpBregx:
		reg, err := m.uleb()
		if err != nil {
			return false, err
		}
		off, err := m.sleb()
		if err != nil {
			return false, err
		}
		return false, m.pushRegisterOffset(uint32(reg), off)
	case dwarf.OpFbreg:
		off, err := m.sleb()
		if err != nil {
			return false, err
		}
		base, err := m.provider.FrameBase(m.ctx)
		if err != nil {
			return false, diag.Wrap(diag.ReadFailed, err, "frame base")
		}
		m.push(uint64(int64(base) + off))
	case dwarf.OpCallFrameCFA:
		cfa, err := m.provider.CFA(m.ctx)
		if err != nil {
			return false, diag.Wrap(diag.ReadFailed, err, "canonical frame address")
		}
		m.push(cfa)

	case dwarf.OpDeref:
		return false, m.deref(8)
	case dwarf.OpDerefSize:
		size, err := m.fixed(1)
		if err != nil {
			return false, err
		}
		if size == 0 || size > 8 {
			return false, diag.New(diag.CorruptExpr, "bad deref size %d", size)
		}
		return false, m.deref(uint32(size))

	case dwarf.OpImplicitValue:
		n, err := m.uleb()
		if err != nil {
			return false, err
		}
		if uint64(len(m.expr)-m.pc) < n {
			return false, diag.New(diag.CorruptExpr, "truncated implicit value")
		}
		m.implicit = m.expr[m.pc : m.pc+int(n)]
		m.pc += int(n)
		var v uint64
		for i := len(m.implicit) - 1; i >= 0; i-- {
			v = v<<8 | uint64(m.implicit[i])
		}
		m.push(v)
	case dwarf.OpStackValue:
		m.isValue = true
		return true, nil

	case dwarf.OpNop:

	default:
		return false, diag.New(diag.CorruptExpr, "invalid opcode %#x in DWARF expression", uint8(op))
	}
	return false, nil
}

func (m *machine) pushRegister(reg uint32) error {
	v, err := m.provider.ReadRegister(m.ctx, reg)
	if err != nil {
		return diag.Wrap(diag.ReadFailed, err, "register %d", reg)
	}
	m.push(v)
	m.register = int32(reg)
	return nil
}

func (m *machine) pushRegisterOffset(reg uint32, off int64) error {
	v, err := m.provider.ReadRegister(m.ctx, reg)
	if err != nil {
		return diag.Wrap(diag.ReadFailed, err, "register %d", reg)
	}
	m.push(uint64(int64(v) + off))
	return nil
}

func (m *machine) deref(size uint32) error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	data, err := m.provider.ReadMemory(m.ctx, addr, size)
	if err != nil {
		return diag.Wrap(diag.ReadFailed, err, "memory at %#x", addr)
	}
	if uint32(len(data)) < size {
		return diag.New(diag.ReadFailed, "short read at %#x", addr)
	}
	var v uint64
	for i := int(size) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	m.push(v)
	return nil
}

func (m *machine) unary(f func(uint64) uint64) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(f(v))
	return nil
}

func (m *machine) binary(f func(a, b uint64) uint64) error {
	return m.binaryErr(func(a, b uint64) (uint64, error) { return f(a, b), nil })
}

// binaryErr pops b then a and pushes f(a, b), so "a op b" reads in
// push order.
func (m *machine) binaryErr(f func(a, b uint64) (uint64, error)) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	v, err := f(a, b)
	if err != nil {
		return err
	}
	m.push(v)
	return nil
}

func (m *machine) compare(f func(a, b int64) bool) error {
	return m.binaryErr(func(a, b uint64) (uint64, error) {
		if f(int64(a), int64(b)) {
			return 1, nil
		}
		return 0, nil
	})
}

// branch applies a 2-byte signed displacement relative to the byte
// after the operand.
func (m *machine) branch(take bool) error {
	raw, err := m.fixed(2)
	if err != nil {
		return err
	}
	if !take {
		return nil
	}
	dest := m.pc + int(int16(raw))
	if dest < 0 || dest > len(m.expr) {
		return diag.New(diag.CorruptExpr, "branch out of expression bounds")
	}
	m.pc = dest
	return nil
}

// fixed reads an n-byte little-endian operand.
func (m *machine) fixed(n int) (uint64, error) {
	if len(m.expr)-m.pc < n {
		return 0, diag.New(diag.CorruptExpr, "truncated DWARF expression")
	}
	var v uint64
	switch n {
	case 1:
		v = uint64(m.expr[m.pc])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(m.expr[m.pc:]))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(m.expr[m.pc:]))
	case 8:
		v = binary.LittleEndian.Uint64(m.expr[m.pc:])
	}
	m.pc += n
	return v, nil
}

func (m *machine) pushFixed(n int, signed bool) error {
	v, err := m.fixed(n)
	if err != nil {
		return err
	}
	if signed {
		shift := uint(64 - 8*n)
		v = uint64(int64(v<<shift) >> shift)
	}
	m.push(v)
	return nil
}

func (m *machine) uleb() (uint64, error) {
	var v uint64
	var shift uint
	for {
		if m.pc >= len(m.expr) {
			return 0, diag.New(diag.CorruptExpr, "truncated DWARF expression")
		}
		b := m.expr[m.pc]
		m.pc++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, diag.New(diag.CorruptExpr, "oversized LEB128 value")
		}
	}
}

func (m *machine) sleb() (int64, error) {
	var v int64
	var shift uint
	for {
		if m.pc >= len(m.expr) {
			return 0, diag.New(diag.CorruptExpr, "truncated DWARF expression")
		}
		b := m.expr[m.pc]
		m.pc++
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= -1 << shift
			}
			return v, nil
		}
		if shift >= 64 {
			return 0, diag.New(diag.CorruptExpr, "oversized LEB128 value")
		}
	}
}
