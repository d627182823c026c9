// snapshot.go - Save-state capture and restore

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
snapshot.go - System.Snapshot / Restore

Every stateful component here has unexported fields by design (io.go and
the peripherals reach into them directly; nothing outside the package
should). encoding/gob only walks exported struct fields, so a snapshot
can't just gob.Encode the live types - it copies their state into a
parallel tree of exported-field structs first, the same way
debug_snapshot.go in the teacher separates "what a snapshot holds" from
"how the CPU is actually represented". Restoring does the reverse copy
and then re-derives anything computed from restored state (CP15's TCM
windows) rather than storing the derived form twice.

This covers the CPU cores, RAM, VRAM bank mapping and contents, and every
MMIO peripheral System owns directly. It does not cover bgPalette/
objPalette/OAM (byte windows belonging to the 2D PPU, out of scope per
the spec's Non-goals) or the scheduler's pending-event queue (events
carry Go closures, which cannot round-trip through gob at all - a
restored machine resumes with no in-flight scheduler events rather than
a precise replay of them, which is why save-states here are never
claimed bit-exact or cross-implementation compatible). The GPU's own
state is outside System's reach (GPUPort is an interface); a
gpu.Engine's Snapshot/Restore pair, if taken, is saved and restored
alongside this one by whatever owns both.
*/

package core

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/zoltrix-systems/ndscore/mem"
)

type coreSnapshot struct {
	R          [16]uint32
	CPSR       uint32
	R8_12FIQ   [5]uint32
	R8_12Usr   [5]uint32
	R13Bank    [numBanks]uint32
	R14Bank    [numBanks]uint32
	SPSR       [numBanks]uint32
	Pipeline   [2]uint32
	PCValid    int
	IRQLine    bool
	WaitForIRQ bool
	Cycle      int64

	HasCP15     bool
	CP15Control uint32
	CP15ITCM    uint32
	CP15DTCM    uint32
}

func captureCore(c *Core) coreSnapshot {
	s := coreSnapshot{
		R: c.R, CPSR: c.CPSR,
		R8_12FIQ: c.r8_12FIQ, R8_12Usr: c.r8_12Usr,
		R13Bank: c.r13Bank, R14Bank: c.r14Bank, SPSR: c.spsr,
		Pipeline: c.pipeline, PCValid: c.pcValid,
		IRQLine: c.IRQLine, WaitForIRQ: c.WaitForIRQ, Cycle: c.Cycle,
	}
	if c.CP15 != nil {
		s.HasCP15 = true
		s.CP15Control = c.CP15.control
		s.CP15ITCM = c.CP15.itcmSize
		s.CP15DTCM = c.CP15.dtcmSize
	}
	return s
}

func applyCore(c *Core, s coreSnapshot) {
	c.R = s.R
	c.CPSR = s.CPSR
	c.r8_12FIQ = s.R8_12FIQ
	c.r8_12Usr = s.R8_12Usr
	c.r13Bank = s.R13Bank
	c.r14Bank = s.R14Bank
	c.spsr = s.SPSR
	c.pipeline = s.Pipeline
	c.pcValid = s.PCValid
	c.IRQLine = s.IRQLine
	c.WaitForIRQ = s.WaitForIRQ
	c.Cycle = s.Cycle
	if c.CP15 != nil && s.HasCP15 {
		c.CP15.control = s.CP15Control
		c.CP15.itcmSize = s.CP15ITCM
		c.CP15.dtcmSize = s.CP15DTCM
	}
}

type irqSnapshot struct {
	IE  uint32
	IF  uint32
	IME bool
}

func captureIRQ(i *IRQController) irqSnapshot {
	return irqSnapshot{IE: i.IE, IF: i.IF, IME: i.IME}
}

func applyIRQ(i *IRQController, s irqSnapshot) {
	i.IE, i.IF, i.IME = s.IE, s.IF, s.IME
}

type dmaChannelSnapshot struct {
	SrcAddr, DstAddr uint32
	WordCount        uint32
	Control          uint32
	Running          bool
}

type dmaSnapshot struct {
	Channels [4]dmaChannelSnapshot
}

func captureDMA(e *Engine) dmaSnapshot {
	var s dmaSnapshot
	for i, ch := range e.Channels {
		s.Channels[i] = dmaChannelSnapshot{
			SrcAddr: ch.SrcAddr, DstAddr: ch.DstAddr,
			WordCount: ch.WordCount, Control: ch.Control, Running: ch.running,
		}
	}
	return s
}

func applyDMA(e *Engine, s dmaSnapshot) {
	for i, ch := range s.Channels {
		e.Channels[i] = DMAChannel{
			SrcAddr: ch.SrcAddr, DstAddr: ch.DstAddr,
			WordCount: ch.WordCount, Control: ch.Control, running: ch.Running,
		}
	}
}

type timerSnapshot struct {
	Reload    uint16
	Control   uint8
	Counter   uint16
	SubCycles int64
}

type timerSetSnapshot struct {
	Timers [4]timerSnapshot
}

func captureTimers(ts *TimerSet) timerSetSnapshot {
	var s timerSetSnapshot
	for i, t := range ts.Timers {
		s.Timers[i] = timerSnapshot{Reload: t.Reload, Control: t.Control, Counter: t.counter, SubCycles: t.subCycles}
	}
	return s
}

func applyTimers(ts *TimerSet, s timerSetSnapshot) {
	for i, t := range s.Timers {
		ts.Timers[i] = Timer{Reload: t.Reload, Control: t.Control, counter: t.Counter, subCycles: t.SubCycles}
	}
}

type fifoSnapshot struct {
	Buf  [fifoDepth]uint32
	Head int
	N    int
	Err  bool
}

func captureFIFO(f *fifo) fifoSnapshot {
	return fifoSnapshot{Buf: f.buf, Head: f.head, N: f.n, Err: f.err}
}

func applyFIFO(f *fifo, s fifoSnapshot) {
	f.buf, f.head, f.n, f.err = s.Buf, s.Head, s.N, s.Err
}

type ipcSnapshot struct {
	SyncOut       [2]uint8
	SyncIRQEnable [2]bool
	ToARM7        fifoSnapshot
	ToARM9        fifoSnapshot
	SendIRQEnable [2]bool
	RecvIRQEnable [2]bool
}

func captureIPC(p *IPC) ipcSnapshot {
	return ipcSnapshot{
		SyncOut: p.syncOut, SyncIRQEnable: p.syncIRQEnable,
		ToARM7: captureFIFO(&p.toARM7), ToARM9: captureFIFO(&p.toARM9),
		SendIRQEnable: p.sendIRQEnable, RecvIRQEnable: p.recvIRQEnable,
	}
}

func applyIPC(p *IPC, s ipcSnapshot) {
	p.syncOut, p.syncIRQEnable = s.SyncOut, s.SyncIRQEnable
	applyFIFO(&p.toARM7, s.ToARM7)
	applyFIFO(&p.toARM9, s.ToARM9)
	p.sendIRQEnable, p.recvIRQEnable = s.SendIRQEnable, s.RecvIRQEnable
}

type mathSnapshot struct {
	DivMode   DivMode
	Numer     int64
	Denom     int64
	DivResult int64
	DivRem    int64
	DivByZero bool

	SqrtMode64 bool
	SqrtParam  uint64
	SqrtResult uint32
}

func captureMath(m *MathUnit) mathSnapshot {
	return mathSnapshot{
		DivMode: m.divMode, Numer: m.numer, Denom: m.denom,
		DivResult: m.divResult, DivRem: m.divRem, DivByZero: m.divByZero,
		SqrtMode64: m.sqrtMode64, SqrtParam: m.sqrtParam, SqrtResult: m.sqrtResult,
	}
}

func applyMath(m *MathUnit, s mathSnapshot) {
	m.divMode, m.numer, m.denom = s.DivMode, s.Numer, s.Denom
	m.divResult, m.divRem, m.divByZero = s.DivResult, s.DivRem, s.DivByZero
	m.sqrtMode64, m.sqrtParam, m.sqrtResult = s.SqrtMode64, s.SqrtParam, s.SqrtResult
}

type vramBankSnapshot struct {
	Letter byte
	CNT    uint8
	Data   []byte
}

type Snapshot struct {
	ARM9, ARM7 coreSnapshot
	ARM9IRQ    irqSnapshot
	ARM7IRQ    irqSnapshot
	ARM9DMA    dmaSnapshot
	ARM7DMA    dmaSnapshot
	ARM9Timers timerSetSnapshot
	ARM7Timers timerSetSnapshot
	IPC        ipcSnapshot
	Math       mathSnapshot

	WRAMCnt      uint8
	PostFlg      uint8
	DispStat     [2]uint16
	VCount       uint16
	DISP3DCNT    uint16
	AlphaTestRef uint8

	MainRAM    []byte
	SharedWRAM []byte
	VRAMBanks  []vramBankSnapshot
}

// Snapshot captures every piece of modeled state this package and mem own
// directly. It does not reach into an attached GPUPort; a caller driving
// both a System and a gpu.Engine is responsible for pairing this with the
// engine's own snapshot.
func (s *System) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		ARM9: captureCore(s.ARM9), ARM7: captureCore(s.ARM7),
		ARM9IRQ: captureIRQ(s.arm9IRQ), ARM7IRQ: captureIRQ(s.arm7IRQ),
		ARM9DMA: captureDMA(s.arm9DMA), ARM7DMA: captureDMA(s.arm7DMA),
		ARM9Timers: captureTimers(s.arm9Timers), ARM7Timers: captureTimers(s.arm7Timers),
		IPC: captureIPC(s.ipc), Math: captureMath(s.math),

		WRAMCnt: s.wramCnt, PostFlg: s.postflg,
		DispStat: s.dispstat, VCount: s.vcount,
		DISP3DCNT: s.disp3dcnt, AlphaTestRef: s.alphaTestRef,
	}

	snap.MainRAM = append([]byte(nil), s.ARM9.Bus.MainRAM()...)
	snap.SharedWRAM = append([]byte(nil), s.ARM9.Bus.SharedWRAM()...)

	for _, letter := range mem.BankLetters {
		data := s.VRAM.BankData(letter)
		snap.VRAMBanks = append(snap.VRAMBanks, vramBankSnapshot{
			Letter: letter,
			CNT:    s.VRAM.CNT(letter),
			Data:   append([]byte(nil), data...),
		})
	}

	return snap, nil
}

// Encode gob-encodes the snapshot for storage or transport.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}

// Restore applies a previously captured snapshot, discarding any scheduler
// events pending at capture time (see the package doc comment above).
func (s *System) Restore(snap *Snapshot) error {
	if len(snap.MainRAM) != len(s.ARM9.Bus.MainRAM()) {
		return fmt.Errorf("snapshot main RAM size %d does not match system's %d", len(snap.MainRAM), len(s.ARM9.Bus.MainRAM()))
	}
	if len(snap.SharedWRAM) != len(s.ARM9.Bus.SharedWRAM()) {
		return fmt.Errorf("snapshot shared WRAM size %d does not match system's %d", len(snap.SharedWRAM), len(s.ARM9.Bus.SharedWRAM()))
	}

	s.Scheduler.Reset()

	applyCore(s.ARM9, snap.ARM9)
	applyCore(s.ARM7, snap.ARM7)
	applyIRQ(s.arm9IRQ, snap.ARM9IRQ)
	applyIRQ(s.arm7IRQ, snap.ARM7IRQ)
	applyDMA(s.arm9DMA, snap.ARM9DMA)
	applyDMA(s.arm7DMA, snap.ARM7DMA)
	applyTimers(s.arm9Timers, snap.ARM9Timers)
	applyTimers(s.arm7Timers, snap.ARM7Timers)
	applyIPC(s.ipc, snap.IPC)
	applyMath(s.math, snap.Math)

	s.wramCnt, s.postflg = snap.WRAMCnt, snap.PostFlg
	s.dispstat, s.vcount = snap.DispStat, snap.VCount
	s.disp3dcnt, s.alphaTestRef = snap.DISP3DCNT, snap.AlphaTestRef
	if s.gpu != nil {
		s.gpu.WriteDISP3DCNT(s.disp3dcnt)
		s.gpu.WriteAlphaTestRef(s.alphaTestRef)
	}

	copy(s.ARM9.Bus.MainRAM(), snap.MainRAM)
	copy(s.ARM9.Bus.SharedWRAM(), snap.SharedWRAM)

	for _, bank := range snap.VRAMBanks {
		s.VRAM.WriteVRAMCNT(bank.Letter, 0) // unmap before restoring contents
		copy(s.VRAM.BankData(bank.Letter), bank.Data)
		s.VRAM.WriteVRAMCNT(bank.Letter, bank.CNT)
	}

	s.applyTCM()
	return nil
}
