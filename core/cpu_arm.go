// cpu_arm.go - ARM-state instruction execution

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
cpu_arm.go - ARM Instruction Execution

Decode follows the classic bit-27..20 + bit-7..4 class split rather than a
generated table, matching the teacher's style in cpu_ie32.go of a flat
switch over an opcode field rather than a jump table built at init time -
simplicity over micro-optimisation where the interpreter isn't the hot
path a JIT would be.

Every handler is free to inspect and mutate c.R/c.CPSR directly; there is
no operand-fetch abstraction layer because ARM's addressing modes are
cheap to compute inline and a shared abstraction would obscure exactly the
per-instruction quirks (shifter carry-out feeding into ADC, PC-relative
reads seeing PC+8) that make ARM interesting to emulate correctly.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

func (c *Core) execARM(op uint32) {
	switch {
	case op&0x0FFFFFF0 == 0x012FFF10:
		c.armBX(op)
	case op&0x0FC000F0 == 0x00000090:
		c.armMultiply(op)
	case op&0x0F8000F0 == 0x00800090:
		c.armMultiplyLong(op)
	case c.ISA == ARMv5TE && op&0x0F900FF0 == 0x01000050:
		c.armQAddSub(op)
	case c.ISA == ARMv5TE && op&0x0FF000F0 == 0x01600010:
		c.armCLZ(op)
	case c.ISA == ARMv5TE && op&0x0F900090 == 0x01000080:
		c.armSignedHalfMultiply(op)
	case op&0x0FBF0FFF == 0x010F0000:
		c.armMRS(op)
	case op&0x0DB0F000 == 0x0120F000:
		c.armMSR(op)
	case op&0x0FB00FF0 == 0x01000090:
		c.armSwap(op)
	case op&0x0C000000 == 0x00000000:
		c.armDataProcessing(op)
	case op&0x0E000010 == 0x06000010:
		c.raiseUndefined()
	case op&0x0C000000 == 0x04000000:
		c.armSingleDataTransfer(op)
	case op&0x0E000000 == 0x08000000:
		c.armBlockDataTransfer(op)
	case op&0x0E000000 == 0x0A000000:
		c.armBranch(op)
	case op&0x0F000000 == 0x0F000000:
		c.armSWI(op)
	case op&0x0F000010 == 0x0E000010:
		c.armMRC_MCR(op)
	default:
		c.raiseUndefined()
	}
}

// --- Branch family ---

func (c *Core) armBranch(op uint32) {
	link := op&0x01000000 != 0
	offset := int32(op&0x00FFFFFF) << 8 >> 6 // sign-extend 24-bit word offset to byte offset
	if link {
		c.R[14] = c.R[15] - 4
	}
	c.flushPipeline(uint32(int32(c.R[15]) + offset))
}

func (c *Core) armBX(op uint32) {
	rm := c.R[op&0xF]
	link := op&0x0FFFFFF0 == 0x012FFF30
	if link {
		c.R[14] = c.R[15] - 4
	}
	if rm&1 != 0 {
		c.CPSR |= FlagT
	} else {
		c.CPSR &^= FlagT
	}
	c.flushPipeline(rm &^ 1)
}

func (c *Core) armSWI(op uint32) {
	comment := op & 0x00FFFFFF
	if c.onSWI != nil {
		c.onSWI(c, comment)
	}
	c.raiseSWI()
}

// --- Data processing ---

const (
	opAND = 0x0
	opEOR = 0x1
	opSUB = 0x2
	opRSB = 0x3
	opADD = 0x4
	opADC = 0x5
	opSBC = 0x6
	opRSC = 0x7
	opTST = 0x8
	opTEQ = 0x9
	opCMP = 0xA
	opCMN = 0xB
	opORR = 0xC
	opMOV = 0xD
	opBIC = 0xE
	opMVN = 0xF
)

func (c *Core) armDataProcessing(op uint32) {
	opcode := (op >> 21) & 0xF
	setFlags := op&0x00100000 != 0
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF

	op2, shiftCarry, carryValid := c.armOperand2(op)
	rnVal := c.R[rn]
	if rn == 15 && op&0x02000010 == 0x00000010 {
		rnVal += 4 // PC reads as current+12 for a register-shifted-by-register Operand2
	}

	var result uint32
	var carryOut, overflow bool
	haveArith := true
	switch opcode {
	case opAND, opTST:
		result = rnVal & op2
		haveArith = false
	case opEOR, opTEQ:
		result = rnVal ^ op2
		haveArith = false
	case opSUB, opCMP:
		result, carryOut, overflow = subWithFlags(rnVal, op2)
	case opRSB:
		result, carryOut, overflow = subWithFlags(op2, rnVal)
	case opADD, opCMN:
		result, carryOut, overflow = addWithFlags(rnVal, op2)
	case opADC:
		result, carryOut, overflow = addWithFlags(rnVal, op2, carryIn(c.CPSR))
	case opSBC:
		result, carryOut, overflow = subWithFlags(rnVal, op2, 1-carryInInt(c.CPSR))
	case opRSC:
		result, carryOut, overflow = subWithFlags(op2, rnVal, 1-carryInInt(c.CPSR))
	case opORR:
		result = rnVal | op2
		haveArith = false
	case opMOV:
		result = op2
		haveArith = false
	case opBIC:
		result = rnVal &^ op2
		haveArith = false
	case opMVN:
		result = ^op2
		haveArith = false
	}

	switch opcode {
	case opTST, opTEQ, opCMP, opCMN:
		// comparison forms never write rd
	default:
		c.R[rd] = result
		if rd == 15 {
			if setFlags {
				c.writeCPSR(c.SPSR())
			}
			c.flushPipeline(result &^ 3)
			return
		}
	}

	if setFlags {
		c.setNZ(result)
		if haveArith {
			c.setFlag(FlagC, carryOut)
			c.setFlag(FlagV, overflow)
		} else if carryValid {
			c.setFlag(FlagC, shiftCarry)
		}
	}
}

// armOperand2 decodes Operand2 for a data-processing instruction: either a
// rotated 8-bit immediate or a shifted register. Returns the value, the
// shifter's carry-out, and whether that carry-out is meaningful (immediates
// with rotate 0 and register-direct with shift 0 leave C unaffected).
func (c *Core) armOperand2(op uint32) (value uint32, carry bool, carryValid bool) {
	if op&0x02000000 != 0 {
		imm := op & 0xFF
		rot := ((op >> 8) & 0xF) * 2
		value = rotr32(imm, rot)
		if rot == 0 {
			return value, false, false
		}
		return value, value&0x80000000 != 0, true
	}

	rm := c.R[op&0xF]
	if op&0xF == 15 && op&0x10 != 0 {
		rm += 4 // PC reads as current+12 when the shift amount comes from a register
	}
	shiftType := (op >> 5) & 0x3
	var amount uint32
	if op&0x10 != 0 {
		amount = c.R[(op>>8)&0xF] & 0xFF
		if (op>>8)&0xF == 15 {
			amount = c.R[15] + 4
		}
	} else {
		amount = (op >> 7) & 0x1F
	}
	return shiftWithCarry(shiftType, rm, amount, op&0x10 != 0, carryInBool(c.CPSR))
}

func shiftWithCarry(kind, value, amount uint32, isRegisterShift bool, curCarry bool) (result uint32, carry bool, valid bool) {
	switch kind {
	case 0: // LSL
		if amount == 0 {
			return value, curCarry, isRegisterShift
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0, true
			}
			return 0, false, true
		}
		return value << amount, (value>>(32-amount))&1 != 0, true
	case 1: // LSR
		if amount == 0 && !isRegisterShift {
			amount = 32
		}
		if amount == 0 {
			return value, curCarry, isRegisterShift
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&0x80000000 != 0, true
			}
			return 0, false, true
		}
		return value >> amount, (value>>(amount-1))&1 != 0, true
	case 2: // ASR
		if amount == 0 && !isRegisterShift {
			amount = 32
		}
		if amount == 0 {
			return value, curCarry, isRegisterShift
		}
		if amount >= 32 {
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF, true, true
			}
			return 0, false, true
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0, true
	default: // ROR / RRX
		if amount == 0 && !isRegisterShift {
			c := uint32(0)
			if curCarry {
				c = 1
			}
			out := (value >> 1) | (c << 31)
			return out, value&1 != 0, true
		}
		amount &= 0x1F
		if amount == 0 {
			return value, curCarry, isRegisterShift
		}
		return rotr32(value, amount), (value>>(amount-1))&1 != 0, true
	}
}

func rotr32(v, n uint32) uint32 {
	n &= 31
	if n == 0 {
		return v
	}
	return (v >> n) | (v << (32 - n))
}

// --- Multiply family ---

func (c *Core) armMultiply(op uint32) {
	accumulate := op&0x00200000 != 0
	setFlags := op&0x00100000 != 0
	rd := (op >> 16) & 0xF
	rn := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF

	result := c.R[rm] * c.R[rs]
	if accumulate {
		result += c.R[rn]
	}
	c.R[rd] = result
	if setFlags {
		c.setNZ(result)
	}
}

func (c *Core) armMultiplyLong(op uint32) {
	signed := op&0x00400000 != 0
	accumulate := op&0x00200000 != 0
	setFlags := op&0x00100000 != 0
	rdHi := (op >> 16) & 0xF
	rdLo := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF

	var result uint64
	if signed {
		result = uint64(int64(int32(c.R[rm])) * int64(int32(c.R[rs])))
	} else {
		result = uint64(c.R[rm]) * uint64(c.R[rs])
	}
	if accumulate {
		result += uint64(c.R[rdHi])<<32 | uint64(c.R[rdLo])
	}
	c.R[rdHi] = uint32(result >> 32)
	c.R[rdLo] = uint32(result)
	if setFlags {
		c.setFlag(FlagZ, result == 0)
		c.setFlag(FlagN, result&(1<<63) != 0)
	}
}

// armSignedHalfMultiply implements the ARMv5TE SMLAxy/SMULxy/SMLAWy/SMLALxy
// family: 16x16 signed multiplies selecting the top or bottom half of each
// operand via the x/y bits.
func (c *Core) armSignedHalfMultiply(op uint32) {
	rd := (op >> 16) & 0xF
	rn := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF
	xBit := op&0x20 != 0
	yBit := op&0x40 != 0

	opVariant := (op >> 21) & 0x3

	half := func(v uint32, top bool) int32 {
		if top {
			return int32(int16(v >> 16))
		}
		return int32(int16(v))
	}

	a := half(c.R[rm], xBit)
	b := half(c.R[rs], yBit)
	product := a * b

	switch opVariant {
	case 0x0: // SMLAxy
		sum := product + int32(c.R[rn])
		c.R[rd] = uint32(sum)
		overflow := ((product > 0 && int32(c.R[rn]) > 0 && sum < 0) || (product < 0 && int32(c.R[rn]) < 0 && sum > 0))
		if overflow {
			c.CPSR |= FlagQ
		}
	case 0x1: // SMLAWy / SMULWy
		wide := (int64(int32(c.R[rm])) * int64(b)) >> 16
		if op&0x20 != 0 {
			c.R[rd] = uint32(int32(wide))
		} else {
			sum := int32(wide) + int32(c.R[rn])
			c.R[rd] = uint32(sum)
		}
	case 0x2: // SMLALxy
		acc := uint64(c.R[rn]) | uint64(c.R[rd])<<32
		acc += uint64(int64(product))
		c.R[rn] = uint32(acc)
		c.R[rd] = uint32(acc >> 32)
	case 0x3: // SMULxy
		c.R[rd] = uint32(product)
	}
}

// armQAddSub implements QADD/QSUB/QDADD/QDSUB, the ARMv5TE saturating
// arithmetic instructions, setting the Q sticky flag on saturation.
func (c *Core) armQAddSub(op uint32) {
	rd := (op >> 12) & 0xF
	rn := (op >> 16) & 0xF
	rm := op & 0xF
	variant := (op >> 21) & 0x3

	b := int64(int32(c.R[rn]))
	if variant == 0x2 || variant == 0x3 {
		doubled, sat := saturate32(b * 2)
		if sat {
			c.CPSR |= FlagQ
		}
		b = int64(doubled)
	}
	a := int64(int32(c.R[rm]))
	var raw int64
	if variant == 0x0 || variant == 0x2 {
		raw = a + b
	} else {
		raw = a - b
	}
	result, sat := saturate32(raw)
	if sat {
		c.CPSR |= FlagQ
	}
	c.R[rd] = uint32(result)
}

func saturate32(v int64) (int32, bool) {
	const maxI32 = int64(1<<31 - 1)
	const minI32 = -int64(1 << 31)
	if v > maxI32 {
		return int32(maxI32), true
	}
	if v < minI32 {
		return int32(minI32), true
	}
	return int32(v), false
}

func (c *Core) armCLZ(op uint32) {
	rd := (op >> 12) & 0xF
	rm := op & 0xF
	v := c.R[rm]
	if v == 0 {
		c.R[rd] = 32
		return
	}
	n := uint32(0)
	for v&0x80000000 == 0 {
		v <<= 1
		n++
	}
	c.R[rd] = n
}

func (c *Core) armSwap(op uint32) {
	byteSwap := op&0x00400000 != 0
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	rm := op & 0xF
	addr := c.R[rn]
	if byteSwap {
		old := c.Bus.ReadByte(addr, mem.BusData)
		c.Bus.WriteByte(addr, uint8(c.R[rm]), mem.BusData)
		c.R[rd] = uint32(old)
	} else {
		old := c.Bus.ReadWord(addr, mem.BusData)
		c.Bus.WriteWord(addr, c.R[rm], mem.BusData)
		c.R[rd] = old
	}
}

// --- Status register transfer ---

func (c *Core) armMRS(op uint32) {
	rd := (op >> 12) & 0xF
	if op&0x00400000 != 0 {
		c.R[rd] = c.SPSR()
	} else {
		c.R[rd] = c.CPSR
	}
}

func (c *Core) armMSR(op uint32) {
	toSPSR := op&0x00400000 != 0
	var value uint32
	if op&0x02000000 != 0 {
		imm := op & 0xFF
		rot := ((op >> 8) & 0xF) * 2
		value = rotr32(imm, rot)
	} else {
		value = c.R[op&0xF]
	}

	var mask uint32
	if op&0x00080000 != 0 {
		mask |= 0xFF000000 // flags field
	}
	if op&0x00040000 != 0 {
		mask |= 0x00FF0000
	}
	if op&0x00020000 != 0 {
		mask |= 0x0000FF00
	}
	if op&0x00010000 != 0 {
		mask |= 0x000000FF // control field, privileged only; caller is trusted
	}

	if toSPSR {
		c.SetSPSR((c.SPSR() &^ mask) | (value & mask))
		return
	}
	if mask&0x000000FF != 0 {
		c.writeCPSR((c.CPSR &^ mask) | (value & mask))
	} else {
		c.CPSR = (c.CPSR &^ mask) | (value & mask)
	}
}

// --- Coprocessor transfer ---

func (c *Core) armMRC_MCR(op uint32) {
	toCoproc := op&0x00100000 == 0
	crn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	crm := op & 0xF
	opcode2 := (op >> 5) & 0x7

	if c.CP15 == nil {
		c.raiseUndefined()
		return
	}
	if toCoproc {
		c.CP15.Write(crn, crm, opcode2, c.R[rd])
	} else {
		c.R[rd] = c.CP15.Read(crn, crm, opcode2)
	}
}

// --- Single/block data transfer ---

func (c *Core) armSingleDataTransfer(op uint32) {
	immediate := op&0x02000000 == 0
	pre := op&0x01000000 != 0
	up := op&0x00800000 != 0
	byteAccess := op&0x00400000 != 0
	writeback := op&0x00200000 != 0
	load := op&0x00100000 != 0
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF

	var offset uint32
	if immediate {
		offset = op & 0xFFF
	} else {
		rm := c.R[op&0xF]
		amount := (op >> 7) & 0x1F
		shiftType := (op >> 5) & 0x3
		offset, _, _ = shiftWithCarry(shiftType, rm, amount, false, false)
	}

	base := c.R[rn]
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	kind := mem.BusData
	if load {
		var value uint32
		if byteAccess {
			value = uint32(c.Bus.ReadByte(addr, kind))
		} else {
			value = c.Bus.ReadWord(addr, kind)
		}
		c.R[rd] = value
		if rd == 15 {
			c.flushPipeline(value &^ 3)
		}
	} else {
		if byteAccess {
			c.Bus.WriteByte(addr, uint8(c.R[rd]), kind)
		} else {
			c.Bus.WriteWord(addr, c.R[rd], kind)
		}
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.R[rn] = addr
	} else if writeback {
		c.R[rn] = addr
	}
}

func (c *Core) armBlockDataTransfer(op uint32) {
	pre := op&0x01000000 != 0
	up := op&0x00800000 != 0
	userBank := op&0x00400000 != 0
	writeback := op&0x00200000 != 0
	load := op&0x00100000 != 0
	rn := (op >> 16) & 0xF
	list := op & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}

	base := c.R[rn]
	addr := base
	if !up {
		addr = base - uint32(count)*4
		if pre {
			addr += 4
		}
	} else if pre {
		addr += 4
	}

	// When S-bit addresses User-mode bank registers while not loading PC,
	// reads/writes target the User bank regardless of current mode.
	useUserBank := userBank && !(load && list&0x8000 != 0)

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			v := c.Bus.ReadWord(addr, mem.BusData)
			if useUserBank {
				c.writeUserReg(i, v)
			} else {
				c.R[i] = v
			}
			if i == 15 {
				if userBank {
					c.writeCPSR(c.SPSR())
				}
				c.flushPipeline(v &^ 3)
			}
		} else {
			var v uint32
			if useUserBank {
				v = c.readUserReg(i)
			} else {
				v = c.R[i]
			}
			c.Bus.WriteWord(addr, v, mem.BusData)
		}
		addr += 4
	}

	if writeback {
		if !up {
			c.R[rn] = base - uint32(count)*4
		} else {
			c.R[rn] = base + uint32(count)*4
		}
	}
}

// readUserReg/writeUserReg access the User-mode bank regardless of current
// mode, for LDM/STM^ with the S-bit set.
func (c *Core) readUserReg(i int) uint32 {
	if i < 8 || i == 15 {
		return c.R[i]
	}
	if i <= 12 && c.Mode() == ModeFIQ {
		return c.r8_12Usr[i-8]
	}
	if i <= 12 {
		return c.R[i]
	}
	if i == 13 {
		return c.r13Bank[0]
	}
	return c.r14Bank[0]
}

func (c *Core) writeUserReg(i int, v uint32) {
	if i < 8 || i == 15 {
		c.R[i] = v
		return
	}
	if i <= 12 && c.Mode() == ModeFIQ {
		c.r8_12Usr[i-8] = v
		return
	}
	if i <= 12 {
		c.R[i] = v
		return
	}
	if i == 13 {
		c.r13Bank[0] = v
		return
	}
	c.r14Bank[0] = v
}

// --- flag helpers ---

func (c *Core) setFlag(bit uint32, set bool) {
	if set {
		c.CPSR |= bit
	} else {
		c.CPSR &^= bit
	}
}

func (c *Core) setNZ(result uint32) {
	c.setFlag(FlagN, result&0x80000000 != 0)
	c.setFlag(FlagZ, result == 0)
}

func carryInBool(cpsr uint32) bool { return cpsr&FlagC != 0 }
func carryIn(cpsr uint32) uint32 {
	if cpsr&FlagC != 0 {
		return 1
	}
	return 0
}
func carryInInt(cpsr uint32) uint32 { return carryIn(cpsr) }

func addWithFlags(a, b uint32, carryIn ...uint32) (result uint32, carry bool, overflow bool) {
	var cin uint64
	if len(carryIn) > 0 {
		cin = uint64(carryIn[0])
	}
	sum := uint64(a) + uint64(b) + cin
	result = uint32(sum)
	carry = sum > 0xFFFFFFFF
	overflow = (a^result)&(b^result)&0x80000000 != 0
	return
}

func subWithFlags(a, b uint32, borrowIn ...uint32) (result uint32, carry bool, overflow bool) {
	var bin uint32
	if len(borrowIn) > 0 {
		bin = borrowIn[0]
	}
	diff := uint64(a) - uint64(b) - uint64(bin)
	result = uint32(diff)
	carry = a >= b+bin // carry set means "no borrow"
	if uint64(b)+uint64(bin) > uint64(a) {
		carry = false
	} else {
		carry = true
	}
	overflow = (a^b)&(a^result)&0x80000000 != 0
	return
}
