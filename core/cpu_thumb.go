// cpu_thumb.go - Thumb-state instruction execution

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
cpu_thumb.go - Thumb Instruction Execution

Thumb's 16-bit encodings fall into the nineteen classic formats; dispatch
here is a top-bits switch rather than a table, for the same reason the ARM
decoder is a switch (cpu_arm.go) - a handful of prefix comparisons is
plenty fast for an interpreter, and a precomputed jump table would trade
readability for a speedup nothing in this codebase's timing budget needs.

Each format has its own handler here; what the formats share with the ARM
side is the flag and shifter arithmetic (shiftWithCarry, addWithFlags,
subWithFlags, setNZ/setFlag), which these handlers call directly rather
than repacking Thumb opcodes into ARM encodings, the same
"small and narrow adapts onto the general path" shape the teacher uses
when ie32's addressing modes collapse shared logic into one function.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

func (c *Core) execThumb(op uint16) {
	switch {
	case op&0xF800 == 0x1800:
		c.thumbAddSub(op)
	case op&0xE000 == 0x0000:
		c.thumbMoveShifted(op)
	case op&0xE000 == 0x2000:
		c.thumbImmediateALU(op)
	case op&0xFC00 == 0x4000:
		c.thumbALU(op)
	case op&0xFC00 == 0x4400:
		c.thumbHiRegBX(op)
	case op&0xF800 == 0x4800:
		c.thumbPCRelLoad(op)
	case op&0xF200 == 0x5000:
		c.thumbLoadStoreReg(op)
	case op&0xF200 == 0x5200:
		c.thumbLoadStoreSigned(op)
	case op&0xE000 == 0x6000:
		c.thumbLoadStoreImm(op)
	case op&0xF000 == 0x8000:
		c.thumbLoadStoreHalf(op)
	case op&0xF000 == 0x9000:
		c.thumbSPRelLoadStore(op)
	case op&0xF000 == 0xA000:
		c.thumbLoadAddress(op)
	case op&0xFF00 == 0xB000:
		c.thumbAddSP(op)
	case op&0xF600 == 0xB400:
		c.thumbPushPop(op)
	case op&0xF000 == 0xC000:
		c.thumbLoadStoreMultiple(op)
	case op&0xFF00 == 0xDF00:
		c.thumbSWI(op)
	case op&0xF000 == 0xD000:
		c.thumbCondBranch(op)
	case op&0xF800 == 0xE000:
		c.thumbUncondBranch(op)
	case op&0xF800 == 0xF000:
		c.thumbBranchLinkHigh(op)
	case op&0xF800 == 0xF800:
		c.thumbBranchLinkLow(op)
	default:
		c.raiseUndefined()
	}
}

func (c *Core) thumbMoveShifted(op uint16) {
	opc := (op >> 11) & 0x3
	amount := uint32((op >> 6) & 0x1F)
	rs := (op >> 3) & 0x7
	rd := op & 0x7
	result, carry, _ := shiftWithCarry(uint32(opc), c.R[rs], amount, false, carryInBool(c.CPSR))
	c.R[rd] = result
	c.setNZ(result)
	c.setFlag(FlagC, carry)
}

func (c *Core) thumbAddSub(op uint16) {
	immediate := op&0x0400 != 0
	subtract := op&0x0200 != 0
	rnOrImm := uint32((op >> 6) & 0x7)
	rs := (op >> 3) & 0x7
	rd := op & 0x7

	var operand uint32
	if immediate {
		operand = rnOrImm
	} else {
		operand = c.R[rnOrImm]
	}

	var result uint32
	var carry, overflow bool
	if subtract {
		result, carry, overflow = subWithFlags(c.R[rs], operand)
	} else {
		result, carry, overflow = addWithFlags(c.R[rs], operand)
	}
	c.R[rd] = result
	c.setNZ(result)
	c.setFlag(FlagC, carry)
	c.setFlag(FlagV, overflow)
}

func (c *Core) thumbImmediateALU(op uint16) {
	opc := (op >> 11) & 0x3
	rd := (op >> 8) & 0x7
	imm := uint32(op & 0xFF)

	switch opc {
	case 0: // MOV
		c.R[rd] = imm
		c.setNZ(imm)
	case 1: // CMP
		result, carry, overflow := subWithFlags(c.R[rd], imm)
		c.setNZ(result)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 2: // ADD
		result, carry, overflow := addWithFlags(c.R[rd], imm)
		c.R[rd] = result
		c.setNZ(result)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 3: // SUB
		result, carry, overflow := subWithFlags(c.R[rd], imm)
		c.R[rd] = result
		c.setNZ(result)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	}
}

func (c *Core) thumbALU(op uint16) {
	opc := (op >> 6) & 0xF
	rs := (op >> 3) & 0x7
	rd := op & 0x7
	a, b := c.R[rd], c.R[rs]

	switch opc {
	case 0x0:
		c.R[rd] = a & b
		c.setNZ(c.R[rd])
	case 0x1:
		c.R[rd] = a ^ b
		c.setNZ(c.R[rd])
	case 0x2:
		r, carry, _ := shiftWithCarry(0, a, b&0xFF, true, carryInBool(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
	case 0x3:
		r, carry, _ := shiftWithCarry(1, a, b&0xFF, true, carryInBool(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
	case 0x4:
		r, carry, _ := shiftWithCarry(2, a, b&0xFF, true, carryInBool(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
	case 0x5:
		r, carry, overflow := addWithFlags(a, b, carryIn(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 0x6:
		r, carry, overflow := subWithFlags(a, b, 1-carryInInt(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 0x7:
		r, carry, _ := shiftWithCarry(3, a, b&0xFF, true, carryInBool(c.CPSR))
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
	case 0x8:
		c.setNZ(a & b)
	case 0x9:
		r, carry, overflow := subWithFlags(0, b)
		c.R[rd] = r
		c.setNZ(r)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 0xA:
		r, carry, overflow := subWithFlags(a, b)
		c.setNZ(r)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 0xB:
		r, carry, overflow := addWithFlags(a, b)
		c.setNZ(r)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 0xC:
		c.R[rd] = a | b
		c.setNZ(c.R[rd])
	case 0xD:
		c.R[rd] = a * b
		c.setNZ(c.R[rd])
	case 0xE:
		c.R[rd] = a &^ b
		c.setNZ(c.R[rd])
	case 0xF:
		c.R[rd] = ^b
		c.setNZ(c.R[rd])
	}
}

func (c *Core) thumbHiRegBX(op uint16) {
	opc := (op >> 8) & 0x3
	h1 := op&0x80 != 0
	h2 := op&0x40 != 0
	rs := uint32((op>>3)&0x7) + boolToReg(h2)
	rd := uint32(op&0x7) + boolToReg(h1)

	switch opc {
	case 0: // ADD
		c.R[rd] += c.R[rs]
		if rd == 15 {
			c.flushPipeline(c.R[rd] &^ 1)
		}
	case 1: // CMP
		result, carry, overflow := subWithFlags(c.R[rd], c.R[rs])
		c.setNZ(result)
		c.setFlag(FlagC, carry)
		c.setFlag(FlagV, overflow)
	case 2: // MOV
		c.R[rd] = c.R[rs]
		if rd == 15 {
			c.flushPipeline(c.R[rd] &^ 1)
		}
	case 3: // BX/BLX
		target := c.R[rs]
		if h1 {
			c.R[14] = (c.R[15] - 2) | 1
		}
		if target&1 != 0 {
			c.CPSR |= FlagT
		} else {
			c.CPSR &^= FlagT
		}
		c.flushPipeline(target &^ 1)
	}
}

func boolToReg(b bool) uint32 {
	if b {
		return 8
	}
	return 0
}

func (c *Core) thumbPCRelLoad(op uint16) {
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) << 2
	base := c.R[15] &^ 3 // PC reads as current+4, word-aligned
	c.R[rd] = c.Bus.ReadWord(base+imm, mem.BusData)
}

func (c *Core) thumbLoadStoreReg(op uint16) {
	load := op&0x0800 != 0
	byteAccess := op&0x0400 != 0
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.R[rb] + c.R[ro]
	if load {
		if byteAccess {
			c.R[rd] = uint32(c.Bus.ReadByte(addr, mem.BusData))
		} else {
			c.R[rd] = c.Bus.ReadWord(addr, mem.BusData)
		}
	} else {
		if byteAccess {
			c.Bus.WriteByte(addr, uint8(c.R[rd]), mem.BusData)
		} else {
			c.Bus.WriteWord(addr, c.R[rd], mem.BusData)
		}
	}
}

func (c *Core) thumbLoadStoreSigned(op uint16) {
	hFlag := op&0x0800 != 0
	signExtend := op&0x0400 != 0
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.R[rb] + c.R[ro]

	switch {
	case !signExtend && !hFlag: // STRH
		c.Bus.WriteHalf(addr, uint16(c.R[rd]), mem.BusData)
	case !signExtend && hFlag: // LDRH
		c.R[rd] = uint32(c.Bus.ReadHalf(addr, mem.BusData))
	case signExtend && !hFlag: // LDSB
		c.R[rd] = uint32(int32(int8(c.Bus.ReadByte(addr, mem.BusData))))
	default: // LDSH
		c.R[rd] = uint32(int32(int16(c.Bus.ReadHalf(addr, mem.BusData))))
	}
}

func (c *Core) thumbLoadStoreImm(op uint16) {
	byteAccess := op&0x1000 != 0
	load := op&0x0800 != 0
	imm := uint32((op >> 6) & 0x1F)
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	if !byteAccess {
		imm <<= 2
	}
	addr := c.R[rb] + imm
	if load {
		if byteAccess {
			c.R[rd] = uint32(c.Bus.ReadByte(addr, mem.BusData))
		} else {
			c.R[rd] = c.Bus.ReadWord(addr, mem.BusData)
		}
	} else {
		if byteAccess {
			c.Bus.WriteByte(addr, uint8(c.R[rd]), mem.BusData)
		} else {
			c.Bus.WriteWord(addr, c.R[rd], mem.BusData)
		}
	}
}

func (c *Core) thumbLoadStoreHalf(op uint16) {
	load := op&0x0800 != 0
	imm := uint32((op>>6)&0x1F) << 1
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.R[rb] + imm
	if load {
		c.R[rd] = uint32(c.Bus.ReadHalf(addr, mem.BusData))
	} else {
		c.Bus.WriteHalf(addr, uint16(c.R[rd]), mem.BusData)
	}
}

func (c *Core) thumbSPRelLoadStore(op uint16) {
	load := op&0x0800 != 0
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) << 2
	addr := c.R[13] + imm
	if load {
		c.R[rd] = c.Bus.ReadWord(addr, mem.BusData)
	} else {
		c.Bus.WriteWord(addr, c.R[rd], mem.BusData)
	}
}

func (c *Core) thumbLoadAddress(op uint16) {
	sp := op&0x0800 != 0
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) << 2
	if sp {
		c.R[rd] = c.R[13] + imm
	} else {
		c.R[rd] = ((c.R[15] + 2) &^ 3) + imm
	}
}

func (c *Core) thumbAddSP(op uint16) {
	imm := uint32(op&0x7F) << 2
	if op&0x80 != 0 {
		c.R[13] -= imm
	} else {
		c.R[13] += imm
	}
}

func (c *Core) thumbPushPop(op uint16) {
	load := op&0x0800 != 0
	includeExtra := op&0x0100 != 0
	list := op & 0xFF

	if load {
		addr := c.R[13]
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.R[i] = c.Bus.ReadWord(addr, mem.BusData)
				addr += 4
			}
		}
		if includeExtra { // POP {..., PC}
			pc := c.Bus.ReadWord(addr, mem.BusData)
			addr += 4
			c.flushPipeline(pc &^ 1)
		}
		c.R[13] = addr
	} else {
		count := popcount16(list)
		if includeExtra {
			count++
		}
		addr := c.R[13] - uint32(count)*4
		c.R[13] = addr
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.Bus.WriteWord(addr, c.R[i], mem.BusData)
				addr += 4
			}
		}
		if includeExtra { // PUSH {..., LR}
			c.Bus.WriteWord(addr, c.R[14], mem.BusData)
		}
	}
}

func popcount16(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

func (c *Core) thumbLoadStoreMultiple(op uint16) {
	load := op&0x0800 != 0
	rb := (op >> 8) & 0x7
	list := op & 0xFF
	addr := c.R[rb]
	for i := 0; i < 8; i++ {
		if list&(1<<i) != 0 {
			if load {
				c.R[i] = c.Bus.ReadWord(addr, mem.BusData)
			} else {
				c.Bus.WriteWord(addr, c.R[i], mem.BusData)
			}
			addr += 4
		}
	}
	c.R[rb] = addr
}

func (c *Core) thumbCondBranch(op uint16) {
	cond := uint32((op >> 8) & 0xF)
	offset := int32(int8(op&0xFF)) * 2
	if evalCondition(cond, c.CPSR) {
		c.flushPipeline(uint32(int32(c.R[15]+2) + offset))
	}
}

func (c *Core) thumbSWI(op uint16) {
	comment := uint32(op & 0xFF)
	if c.onSWI != nil {
		c.onSWI(c, comment)
	}
	c.raiseSWI()
}

func (c *Core) thumbUncondBranch(op uint16) {
	offset := int32(op&0x7FF) << 21 >> 20 // sign-extend 11-bit word offset to byte offset
	c.flushPipeline(uint32(int32(c.R[15]+2) + offset))
}

// thumbBranchLinkHigh/Low implement the BL instruction pair: the first
// halfword loads the upper 11 bits of the offset into LR, the second adds
// the lower 11 bits, computes the target from the updated LR, and sets LR
// to the Thumb return address.
func (c *Core) thumbBranchLinkHigh(op uint16) {
	offset := int32(op&0x7FF) << 21 >> 9 // sign-extend to a 22-bit-shifted value
	c.R[14] = uint32(int32(c.R[15]+2) + offset)
}

func (c *Core) thumbBranchLinkLow(op uint16) {
	offset := uint32(op&0x7FF) << 1
	target := c.R[14] + offset
	returnAddr := (c.R[15] - 2) | 1
	c.flushPipeline(target)
	c.R[14] = returnAddr
}
