// cpu.go - Shared ARM7/ARM9 interpreter core

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
cpu.go - CPU State

One Go type, Core, models both the ARM7 (ARMv4T) and the ARM9 (ARMv5TE):
the instruction set differences are confined to cpu_arm.go/cpu_thumb.go's
decode switches, selected by the ISA field, while register banking,
exception entry, and the prefetch pipeline are identical by hardware
design and so live here once. This mirrors the teacher's single Core type
in cpu_ie32.go parameterized by behaviour rather than by subclassing -
Go has no inheritance, and the teacher never reaches for an interface
where a field selecting behavior will do.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

// ISA distinguishes the ARM7TDMI (ARMv4T, no ARMv5 extensions) from the
// ARM946E-S (ARMv5TE, adds CLZ, saturating arithmetic, signed halfword
// multiply, and CP15).
type ISA int

const (
	ARMv4T ISA = iota
	ARMv5TE
)

// Mode is the processor mode encoded in CPSR bits 0-4.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// CPSR/SPSR flag bits.
const (
	FlagN uint32 = 1 << 31
	FlagZ uint32 = 1 << 30
	FlagC uint32 = 1 << 29
	FlagV uint32 = 1 << 28
	FlagQ uint32 = 1 << 27
	FlagI uint32 = 1 << 7
	FlagF uint32 = 1 << 6
	FlagT uint32 = 1 << 5
)

// bankIndex returns the banked-register-file slot for a mode, used to index
// r13Bank/r14Bank/spsrBank. System shares User's bank (there is no SPSR_sys).
func bankIndex(m Mode) int {
	switch m {
	case ModeUser, ModeSystem:
		return 0
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	default:
		return 0
	}
}

const numBanks = 6

// Core is one ARM interpreter instance (either the ARM7 or the ARM9 side).
type Core struct {
	ISA  ISA
	Name string // "ARM7" or "ARM9", for disassembly/debug labeling only

	R    [16]uint32 // current visible register file, R[15] is PC
	CPSR uint32

	r8_12FIQ [5]uint32 // FIQ-only banked r8..r12
	r8_12Usr [5]uint32 // the non-FIQ r8..r12, swapped out while in FIQ mode

	r13Bank [numBanks]uint32
	r14Bank [numBanks]uint32
	spsr    [numBanks]uint32 // spsr[0] (user/system) is never read: no SPSR_usr

	pipeline [2]uint32 // 2-entry prefetch: [0] = fetched, [1] = decoded
	pcValid  int       // number of valid pipeline entries (0, 1, or 2)

	IRQLine    bool // externally latched, sampled once per Step
	WaitForIRQ bool

	Bus   *mem.Bus
	CP15  *CP15 // nil on ARM7
	Cycle int64

	onSWI func(core *Core, comment uint32)
}

// NewCore builds a reset-state core for the given ISA against bus.
func NewCore(name string, isa ISA, bus *mem.Bus) *Core {
	c := &Core{Name: name, ISA: isa, Bus: bus}
	if isa == ARMv5TE {
		c.CP15 = NewCP15()
	}
	c.Reset()
	return c
}

// SetSWIHandler installs the callback invoked on SWI/thumb SWI before the
// exception vector branch (System uses this to service a BIOS HLE table).
func (c *Core) SetSWIHandler(f func(core *Core, comment uint32)) { c.onSWI = f }

// Mode returns the current processor mode.
func (c *Core) Mode() Mode { return Mode(c.CPSR & 0x1F) }

// Thumb reports whether the T bit is set.
func (c *Core) Thumb() bool { return c.CPSR&FlagT != 0 }

// Reset puts the core at its post-power-on state: Supervisor mode, IRQ/FIQ
// masked, ARM state, PC at the reset vector, pipeline empty.
func (c *Core) Reset() {
	c.R = [16]uint32{}
	c.r8_12FIQ = [5]uint32{}
	c.r8_12Usr = [5]uint32{}
	c.r13Bank = [numBanks]uint32{}
	c.r14Bank = [numBanks]uint32{}
	c.spsr = [numBanks]uint32{}
	c.CPSR = uint32(ModeSupervisor) | FlagI | FlagF
	c.pcValid = 0
	c.IRQLine = false
	c.WaitForIRQ = false
	c.Cycle = 0
	if c.CP15 != nil {
		c.CP15.Reset()
	}
}

// setMode performs the bank swap invariant: r13/r14 (and, crossing into or
// out of FIQ, r8-r12) move into the outgoing mode's bank and the incoming
// mode's bank moves into the visible register file.
func (c *Core) setMode(newMode Mode) {
	oldMode := c.Mode()
	if oldMode == newMode {
		return
	}
	oldBank := bankIndex(oldMode)
	newBank := bankIndex(newMode)

	c.r13Bank[oldBank] = c.R[13]
	c.r14Bank[oldBank] = c.R[14]

	wasFIQ := oldMode == ModeFIQ
	willFIQ := newMode == ModeFIQ
	if wasFIQ != willFIQ {
		if wasFIQ {
			copy(c.r8_12FIQ[:], c.R[8:13])
			copy(c.R[8:13], c.r8_12Usr[:])
		} else {
			copy(c.r8_12Usr[:], c.R[8:13])
			copy(c.R[8:13], c.r8_12FIQ[:])
		}
	}

	c.R[13] = c.r13Bank[newBank]
	c.R[14] = c.r14Bank[newBank]
	c.CPSR = (c.CPSR &^ 0x1F) | uint32(newMode)
}

// SPSR returns the saved program status register for the current mode, or 0
// in User/System mode where none exists.
func (c *Core) SPSR() uint32 {
	m := c.Mode()
	if m == ModeUser || m == ModeSystem {
		return 0
	}
	return c.spsr[bankIndex(m)]
}

// SetSPSR writes the saved program status register for the current mode.
// No-op in User/System mode.
func (c *Core) SetSPSR(v uint32) {
	m := c.Mode()
	if m == ModeUser || m == ModeSystem {
		return
	}
	c.spsr[bankIndex(m)] = v
}

// writeCPSR applies a full CPSR write (MSR to CPSR, or restoring from SPSR
// on exception return), performing the mode bank swap as a side effect.
func (c *Core) writeCPSR(v uint32) {
	newMode := Mode(v & 0x1F)
	if newMode != c.Mode() {
		flagsAndControl := v &^ 0x1F
		c.setMode(newMode)
		c.CPSR = (c.CPSR & 0x1F) | flagsAndControl
	} else {
		c.CPSR = v
	}
}

// enterException performs the shared exception-entry sequence: bank into
// the target mode, save CPSR to the new SPSR, save the return address to
// LR, mask interrupts as the vector requires, switch to ARM state, and set
// PC to the vector. FIQ additionally masks FIQ itself. returnAddr is
// computed by the caller, since SWI/Undefined (raised mid-decode, with
// R[15] already sitting at its "2-ahead" pipeline value) and IRQ/FIQ
// (raised in Step() before that step's own fetch has run) need different
// arithmetic to land on the same architectural LR per §4.3 point 2.
func (c *Core) enterException(vector uint32, target Mode, returnAddr uint32, maskFIQ bool) {
	savedCPSR := c.CPSR
	c.setMode(target)
	c.SetSPSR(savedCPSR)
	c.R[14] = returnAddr
	c.CPSR |= FlagI
	if maskFIQ {
		c.CPSR |= FlagF
	}
	c.CPSR &^= FlagT
	c.flushPipeline(vector)
}

const (
	vectorReset         = 0x00000000
	vectorUndefined     = 0x00000004
	vectorSWI           = 0x00000008
	vectorPrefetchAbort = 0x0000000C
	vectorDataAbort     = 0x00000010
	vectorIRQ           = 0x00000018
	vectorFIQ           = 0x0000001C
)

// raiseUndefined and raiseSWI fire mid-decode, after the trapping
// instruction's own fetch() call has already advanced R[15] to its
// "2-ahead" architectural PC value, matching armBranch/armBX's
// R[15]-4 link computation: LR ← (thumb ? PC : PC-4), i.e. PC itself in
// Thumb state (2-byte instructions put PC one instrSize past the next
// instruction already) and PC-4 in ARM state.
func (c *Core) raiseUndefined() {
	c.enterException(vectorUndefined, ModeUndefined, c.syncReturnAddr(), false)
}

func (c *Core) raiseSWI() {
	c.enterException(vectorSWI, ModeSupervisor, c.syncReturnAddr(), false)
}

func (c *Core) syncReturnAddr() uint32 {
	if c.Thumb() {
		return c.R[15]
	}
	return c.R[15] - 4
}

// raiseIRQ and raiseFIQ fire from Step(), before that step's own fetch()
// call, so R[15] still reflects the previous instruction's pipeline fill
// rather than the "2-ahead" value the sync exceptions see. NextPC() first
// un-does the pipeline offset to get the address of the instruction that
// would have executed next; the architectural LR is always that address
// plus 4, independent of Thumb/ARM state.
func (c *Core) raiseIRQ() { c.enterException(vectorIRQ, ModeIRQ, c.NextPC()+4, false) }
func (c *Core) raiseFIQ() { c.enterException(vectorFIQ, ModeFIQ, c.NextPC()+4, true) }

// flushPipeline sets PC and empties the 2-entry prefetch, as any branch or
// mode-changing exception entry must.
func (c *Core) flushPipeline(pc uint32) {
	c.R[15] = pc
	c.pcValid = 0
}

// NextPC returns the address of the instruction the next Step call will
// execute. R[15] itself reads as the hardware's PC-relative-addressing
// value (two instructions ahead of what's executing, per the prefetch
// pipeline this type models), which is right for operand computation but
// wrong for a debugger wanting "where am I about to execute"; this
// un-does that pipeline offset.
func (c *Core) NextPC() uint32 {
	return c.R[15] - uint32(c.pcValid)*c.instrSize()
}

// Goto redirects execution to pc, flushing the prefetch pipeline the same
// way a taken branch does. Intended for debug tooling (single-step
// targeting, breakpoint resume); ordinary control flow goes through the
// branch/exception paths instead.
func (c *Core) Goto(pc uint32) {
	c.flushPipeline(pc)
}

func (c *Core) instrSize() uint32 {
	if c.Thumb() {
		return 2
	}
	return 4
}

// fetch advances the 2-entry pipeline by one slot and returns the opcode
// that was at the pipeline head before the advance, matching §4.3's
// "fetch opcode at pipeline head, advance pipeline" sequencing.
func (c *Core) fetch() uint32 {
	size := c.instrSize()
	for c.pcValid < 2 {
		var word uint32
		if size == 2 {
			word = uint32(c.Bus.ReadHalf(c.R[15], mem.BusCode))
		} else {
			word = c.Bus.ReadWord(c.R[15], mem.BusCode)
		}
		c.pipeline[c.pcValid] = word
		c.pcValid++
		c.R[15] += size
	}
	head := c.pipeline[0]
	c.pipeline[0] = c.pipeline[1]
	c.pcValid--
	return head
}

// Step executes exactly one instruction (or services WaitForIRQ / a
// pending IRQ), per §4.3's fetch-decode-dispatch loop.
func (c *Core) Step() {
	if c.IRQLine && c.CPSR&FlagI == 0 {
		c.WaitForIRQ = false
		c.raiseIRQ()
		return
	}
	if c.WaitForIRQ {
		c.Cycle++
		return
	}
	opcode := c.fetch()
	if c.Thumb() {
		c.execThumb(uint16(opcode))
	} else {
		if evalCondition(opcode>>28, c.CPSR) {
			c.execARM(opcode)
		}
	}
}

// evalCondition checks an ARM condition-code field against the NZCV flags.
func evalCondition(cond uint32, cpsr uint32) bool {
	n := cpsr&FlagN != 0
	z := cpsr&FlagZ != 0
	cf := cpsr&FlagC != 0
	v := cpsr&FlagV != 0
	switch cond {
	case 0x0:
		return z
	case 0x1:
		return !z
	case 0x2:
		return cf
	case 0x3:
		return !cf
	case 0x4:
		return n
	case 0x5:
		return !n
	case 0x6:
		return v
	case 0x7:
		return !v
	case 0x8:
		return cf && !z
	case 0x9:
		return !cf || z
	case 0xA:
		return n == v
	case 0xB:
		return n != v
	case 0xC:
		return !z && n == v
	case 0xD:
		return z || n != v
	case 0xE:
		return true
	default:
		return false
	}
}
