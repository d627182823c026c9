// monitor.go - CPU debug adapter and breakpoint/watchpoint monitor

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
monitor.go - Adapter, Monitor

Adapter wraps one core.Core the way the teacher's per-ISA debug_cpu_*.go
files wrap their CPU types behind DebuggableCPU: a uniform register-
dump/step/memory surface the monitor drives without caring which core
it's talking to. Unlike the teacher, ARM7 and ARM9 share one Core type,
so one Adapter type covers both - there is no per-ISA adapter to write.

Breakpoints and watchpoints live on the Adapter, not on core.Core itself,
so the interpreter's hot Step() path never pays for a feature that is
off when nothing is debugging it; Monitor.Step drives the check instead
of Core.Step, mirroring how debug_monitor.go's trapLoop sits outside the
CPU type and polls it.
*/

package debug

import (
	"fmt"
	"sort"

	"github.com/zoltrix-systems/ndscore/core"
	"github.com/zoltrix-systems/ndscore/mem"
)

// RegisterInfo describes one CPU register for display.
type RegisterInfo struct {
	Name  string
	Value uint32
	Group string // "general", "banked", "status"
}

// BreakpointEvent is published when a CPU hits a breakpoint or watchpoint.
type BreakpointEvent struct {
	CPUName string
	Address uint32

	IsWatch       bool
	WatchAddr     uint32
	WatchOldValue uint8
	WatchNewValue uint8
}

// Watchpoint is a write watchpoint on one memory address, checked by
// re-reading the byte after every stepped instruction.
type Watchpoint struct {
	Address   uint32
	lastValue uint8
}

// Adapter gives a debug Monitor a uniform view of one core.Core:
// registers, single-stepping, memory access, and breakpoint/watchpoint
// bookkeeping.
type Adapter struct {
	core *core.Core

	breakpoints   map[uint32]*BreakpointCondition // nil value = unconditional
	breakpointHit map[uint32]uint64               // hit counts, for CondSourceHitCount
	watchpoints   map[uint32]*Watchpoint

	frozen bool
}

// NewAdapter wraps c for debugging.
func NewAdapter(c *core.Core) *Adapter {
	return &Adapter{
		core:          c,
		breakpoints:   make(map[uint32]*BreakpointCondition),
		breakpointHit: make(map[uint32]uint64),
		watchpoints:   make(map[uint32]*Watchpoint),
	}
}

// Name returns the underlying core's label ("ARM7" or "ARM9").
func (a *Adapter) Name() string { return a.core.Name }

// PC returns the address of the instruction about to execute (not the
// raw R[15], which reads two instructions ahead per the prefetch
// pipeline).
func (a *Adapter) PC() uint32 { return a.core.NextPC() }

// SetPC redirects execution, flushing the prefetch pipeline the same way
// a taken branch does.
func (a *Adapter) SetPC(addr uint32) { a.core.Goto(addr) }

// Registers returns every general-purpose register plus CPSR, in display
// order.
func (a *Adapter) Registers() []RegisterInfo {
	regs := make([]RegisterInfo, 0, 17)
	for i := 0; i < 16; i++ {
		regs = append(regs, RegisterInfo{Name: fmt.Sprintf("R%d", i), Value: a.core.R[i], Group: "general"})
	}
	regs = append(regs, RegisterInfo{Name: "CPSR", Value: a.core.CPSR, Group: "status"})
	return regs
}

// GetRegister looks a register up by name ("R0".."R15", "PC", "CPSR").
// "PC" is the debugger-friendly next-instruction address (see Adapter.PC);
// "R15" is the raw hardware register, which reads ahead of it per the
// prefetch pipeline.
func (a *Adapter) GetRegister(name string) (uint32, bool) {
	switch name {
	case "PC":
		return a.PC(), true
	case "CPSR":
		return a.core.CPSR, true
	}
	var n int
	if _, err := fmt.Sscanf(name, "R%d", &n); err == nil && n >= 0 && n < 16 {
		return a.core.R[n], true
	}
	return 0, false
}

// SetRegister is the write-side counterpart of GetRegister.
func (a *Adapter) SetRegister(name string, value uint32) bool {
	switch name {
	case "PC":
		a.SetPC(value)
		return true
	case "CPSR":
		a.core.CPSR = value
		return true
	}
	var n int
	if _, err := fmt.Sscanf(name, "R%d", &n); err == nil && n >= 0 && n < 16 {
		a.core.R[n] = value
		return true
	}
	return false
}

// ReadMemory reads size bytes starting at addr over the core's data bus.
func (a *Adapter) ReadMemory(addr uint32, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = a.core.Bus.ReadByte(addr+uint32(i), mem.BusData)
	}
	return out
}

// WriteMemory is the write-side counterpart of ReadMemory.
func (a *Adapter) WriteMemory(addr uint32, data []byte) {
	for i, v := range data {
		a.core.Bus.WriteByte(addr+uint32(i), v, mem.BusData)
	}
}

// Step executes exactly one instruction and returns how far the core's
// Cycle counter moved, which is 0 unless the core was waiting for an IRQ.
func (a *Adapter) Step() int64 {
	before := a.core.Cycle
	a.core.Step()
	return a.core.Cycle - before
}

// SetBreakpoint arms an unconditional breakpoint at addr.
func (a *Adapter) SetBreakpoint(addr uint32) { a.breakpoints[addr] = nil }

// SetConditionalBreakpoint arms a breakpoint at addr that only fires when
// cond evaluates true.
func (a *Adapter) SetConditionalBreakpoint(addr uint32, cond *BreakpointCondition) {
	a.breakpoints[addr] = cond
}

func (a *Adapter) ClearBreakpoint(addr uint32) {
	delete(a.breakpoints, addr)
	delete(a.breakpointHit, addr)
}

func (a *Adapter) ClearAllBreakpoints() {
	a.breakpoints = make(map[uint32]*BreakpointCondition)
	a.breakpointHit = make(map[uint32]uint64)
}

func (a *Adapter) HasBreakpoint(addr uint32) bool {
	_, ok := a.breakpoints[addr]
	return ok
}

// ListBreakpoints returns every armed breakpoint address, sorted.
func (a *Adapter) ListBreakpoints() []uint32 {
	out := make([]uint32, 0, len(a.breakpoints))
	for addr := range a.breakpoints {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetWatchpoint arms a write watchpoint on addr, capturing its current
// value as the baseline for change detection.
func (a *Adapter) SetWatchpoint(addr uint32) {
	a.watchpoints[addr] = &Watchpoint{Address: addr, lastValue: a.core.Bus.ReadByte(addr, mem.BusData)}
}

func (a *Adapter) ClearWatchpoint(addr uint32) { delete(a.watchpoints, addr) }

func (a *Adapter) ClearAllWatchpoints() { a.watchpoints = make(map[uint32]*Watchpoint) }

// ListWatchpoints returns every watched address, sorted.
func (a *Adapter) ListWatchpoints() []uint32 {
	out := make([]uint32, 0, len(a.watchpoints))
	for addr := range a.watchpoints {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkBreakpoint reports whether execution should halt before stepping,
// evaluating the breakpoint's condition (if any) against current state.
func (a *Adapter) checkBreakpoint() (hit bool, ev BreakpointEvent) {
	addr := a.PC()
	cond, armed := a.breakpoints[addr]
	if !armed {
		return false, BreakpointEvent{}
	}
	hits := a.breakpointHit[addr] + 1
	if !evaluateCondition(cond, a, hits) {
		return false, BreakpointEvent{}
	}
	a.breakpointHit[addr] = hits
	return true, BreakpointEvent{CPUName: a.Name(), Address: addr}
}

// checkWatchpoints re-reads every watched byte after a step and reports
// any that changed.
func (a *Adapter) checkWatchpoints() []BreakpointEvent {
	var events []BreakpointEvent
	for _, w := range a.watchpoints {
		v := a.core.Bus.ReadByte(w.Address, mem.BusData)
		if v != w.lastValue {
			events = append(events, BreakpointEvent{
				CPUName: a.Name(), IsWatch: true, WatchAddr: w.Address,
				WatchOldValue: w.lastValue, WatchNewValue: v,
			})
			w.lastValue = v
		}
	}
	return events
}

// Monitor drives one or more Adapters, halting at breakpoints/
// watchpoints and publishing BreakpointEvent over Events.
type Monitor struct {
	adapters []*Adapter
	Events   chan BreakpointEvent
}

// NewMonitor builds a monitor over the given adapters with a buffered
// event channel (matching debug_monitor.go's buffer-of-1 breakpoint
// channel, sized here for one event per adapter so a multi-core halt on
// the same step can't block).
func NewMonitor(adapters ...*Adapter) *Monitor {
	return &Monitor{adapters: adapters, Events: make(chan BreakpointEvent, len(adapters)+1)}
}

// Step advances every unfrozen adapter by one instruction, halting (and
// freezing) any adapter that hits an armed breakpoint or watchpoint. It
// returns true if any adapter made progress.
func (m *Monitor) Step() bool {
	progressed := false
	for _, a := range m.adapters {
		if a.frozen {
			continue
		}
		if hit, ev := a.checkBreakpoint(); hit {
			a.frozen = true
			m.publish(ev)
			continue
		}
		a.Step()
		progressed = true
		for _, ev := range a.checkWatchpoints() {
			a.frozen = true
			m.publish(ev)
		}
	}
	return progressed
}

func (m *Monitor) publish(ev BreakpointEvent) {
	select {
	case m.Events <- ev:
	default:
	}
}

// Freeze halts a by name without clearing its breakpoints/watchpoints.
func (m *Monitor) Freeze(name string) {
	if a := m.byName(name); a != nil {
		a.frozen = true
	}
}

// Resume un-halts a by name.
func (m *Monitor) Resume(name string) {
	if a := m.byName(name); a != nil {
		a.frozen = false
	}
}

func (m *Monitor) byName(name string) *Adapter {
	for _, a := range m.adapters {
		if a.Name() == name {
			return a
		}
	}
	return nil
}
