// system.go - Owns and sequences the whole machine

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
system.go - System

System is the arena: it constructs every peripheral once at power-on and
hands out references rather than letting components discover each other,
the same ownership shape the teacher's main.go wires up by constructing a
SystemBus and handing it to the CPU, display, and audio components. RunFrame
drives both cores and the scheduler together; because the DS has no true
symmetric multiprocessing requirement for an interpreter (both CPUs are
cycle-stepped from one goroutine), there is no concurrency inside System
itself - the GPU's per-strip rasterizer workers (see gpu/rasterizer.go)
run on their own goroutines, started once when the rasterizer is built.
*/

package core

import "github.com/zoltrix-systems/ndscore/mem"

// GPUPort is the subset of the 3D engine's MMIO-facing surface System's IO
// dispatcher needs. Defined here (not in package gpu) so core does not
// import gpu just to describe the shape of what it calls; gpu.Engine
// implements it.
type GPUPort interface {
	WriteFIFO(word uint32)
	WritePort(offset uint32, value uint32)
	ReadGXSTAT() uint32
	WriteGXSTAT(value uint32)
	ReadClipMatrix(reg int) uint32
	OnSwapBuffers(func())

	// DISP3DCNT and its satellite alpha-test-ref/edge-color/toon-table
	// register windows (§6) - wired from io.go's MMIO dispatch the same
	// way WriteFIFO/WritePort are.
	WriteDISP3DCNT(v uint16)
	WriteAlphaTestRef(v uint8)
	WriteEdgeColor(idx int, v uint16)
	WriteToonTable(idx int, v uint16)

	// Step dispatches at most one queued GXFIFO command, matching §4.5's
	// "each dispatched command takes 1 scheduler cycle" pacing rule.
	Step()
}

type System struct {
	Scheduler *mem.Scheduler

	ARM9, ARM7 *Core
	VRAM       *mem.Controller

	arm9IRQ, arm7IRQ *IRQController
	arm9DMA, arm7DMA *Engine
	arm9Timers       *TimerSet
	arm7Timers       *TimerSet
	ipc              *IPC
	math             *MathUnit
	errors           ErrorLog

	wramCnt uint8
	postflg uint8
	gpu     GPUPort

	dispstat [2]uint16
	vcount   uint16

	// Byte-accumulation buffers for registers whose side effect must apply
	// only once a multi-byte write completes (see io.go).
	accumSend      [2]uint32
	accumDIVCNT    uint16
	accumNumer     uint64
	accumDenom     uint64
	accumSqrtParam uint64
	accumGXFIFO    uint32
	accumPort      uint32
	accumDISP3DCNT uint16
	accumEdgeColor [8]uint16
	accumToon      [32]uint16
	disp3dcnt      uint16
	alphaTestRef   uint8
	syncIRQOn      [2]bool
}

// NewSystem builds every peripheral and wires the two CPU buses against
// shared RAM and the VRAM controller.
func NewSystem() *System {
	sys := &System{
		Scheduler: mem.NewScheduler(),
		VRAM:      mem.NewController(),
	}
	sys.arm9IRQ = NewIRQController()
	sys.arm7IRQ = NewIRQController()

	mainRAM := make([]byte, mem.MainRAMSize)
	sharedWRAM := make([]byte, mem.SharedWRAMSize)

	arm9Bus := mem.NewBus(0, mainRAM, sharedWRAM, sys, sys.VRAM)
	arm7Bus := mem.NewBus(1, mainRAM, sharedWRAM, sys, sys.VRAM)
	sys.VRAM.OnInvalidate(func(region, start, count int) {
		arm9Bus.InvalidateRange(mem.VRAMBase, mem.VRAMEnd)
		arm7Bus.InvalidateRange(mem.VRAMBase, mem.VRAMEnd)
	})

	sys.ARM9 = NewCore("ARM9", ARMv5TE, arm9Bus)
	sys.ARM7 = NewCore("ARM7", ARMv4T, arm7Bus)
	sys.ARM9.CP15.OnTCMChange(func() { sys.applyTCM() })

	sys.arm9DMA = NewEngine(0, arm9Bus, sys.arm9IRQ)
	sys.arm7DMA = NewEngine(1, arm7Bus, sys.arm7IRQ)
	sys.arm9Timers = NewTimerSet(0, sys.arm9IRQ)
	sys.arm7Timers = NewTimerSet(1, sys.arm7IRQ)
	sys.ipc = NewIPC(sys.arm9IRQ, sys.arm7IRQ)
	sys.math = NewMathUnit()

	return sys
}

// AttachGPU wires the 3D engine's MMIO surface in. Done post-construction
// because gpu.NewEngine takes the VRAM controller (System.VRAM) as its
// texture/palette source, which only exists once System has built it.
func (s *System) AttachGPU(port GPUPort) {
	s.gpu = port
	s.gpu.OnSwapBuffers(func() { s.arm9DMA.Trigger(DMAGXFIFO) })
}

func (s *System) applyTCM() {
	p := s.ARM9.CP15
	s.ARM9.Bus.SetTCM(0, p.ITCMWindowSize(), p.ITCMEnabled(), p.DTCMBase(), p.DTCMWindowSize(), p.DTCMEnabled())
}

// Reset returns every owned component to its power-on state.
func (s *System) Reset() {
	s.Scheduler.Reset()
	s.ARM9.Reset()
	s.ARM7.Reset()
	s.VRAM.Reset()
	s.arm9IRQ.Reset()
	s.arm7IRQ.Reset()
	s.arm9DMA.Reset()
	s.arm7DMA.Reset()
	s.arm9Timers.Reset()
	s.arm7Timers.Reset()
	s.ipc.Reset()
	s.math.Reset()
	s.errors.Reset()
	s.ARM9.Bus.Reset()
	s.ARM7.Bus.Reset()
	s.dispstat = [2]uint16{}
	s.vcount = 0
}

// RunFrame steps both cores until n cycles of the shared timeline have
// elapsed, servicing timers and the scheduler as it goes. The ARM9 runs
// at double the ARM7's clock, matching the real hardware's 33/66 MHz
// split; this is approximated by stepping the ARM9 core twice per ARM7
// step rather than modeling true sub-cycle interleaving.
func (s *System) RunFrame(cycles int64) {
	var ran int64
	for ran < cycles {
		s.ARM9.Step()
		s.ARM9.Step()
		s.ARM7.Step()
		s.arm9Timers.Advance(2)
		s.arm7Timers.Advance(1)
		if s.gpu != nil {
			s.gpu.Step()
		}
		s.Scheduler.AddCycles(1)
		s.Scheduler.Step()
		s.ARM9.IRQLine = s.arm9IRQ.Level()
		s.ARM7.IRQLine = s.arm7IRQ.Level()
		ran++
	}
}

func (s *System) Errors() *ErrorLog { return &s.errors }
