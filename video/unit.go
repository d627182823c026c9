// unit.go - Scanline/frame timing

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
unit.go - VideoUnit

Drives DISPSTAT/VCOUNT and the V-blank/H-blank DMA/IRQ lines entirely off
the shared mem.Scheduler rather than wall-clock time, following the same
self-rescheduling callback idiom scheduler.go documents ("callbacks may
enqueue further events"): each boundary's handler does its work, then
re-arms the scheduler for the next boundary. This mirrors the teacher's
video_compositor.go driving its own refresh loop off a fixed interval,
substituting the scheduler's cycle clock for wall-clock ticks since §5
requires the whole core to be driven by one deterministic timeline.

Line/dot counts approximate real hardware (355 dots/scanline at 6 cycles
per dot, 263 scanlines/frame) to the scheduler's cycle granularity; per
§1's Non-goals, hardware-exact timing below that granularity is out of
scope.
*/

package video

import (
	"github.com/zoltrix-systems/ndscore/core"
	"github.com/zoltrix-systems/ndscore/gpu"
)

const (
	dotCycles   = 6
	dotsPerLine = 355
	visibleDots = 256

	cyclesPerLine       = dotCycles * dotsPerLine
	cyclesToHBlank      = dotCycles * visibleDots
	cyclesHBlankPortion = cyclesPerLine - cyclesToHBlank
	VisibleScanlines    = 192
	ScanlinesPerFrame   = 263

	// CyclesPerFrame is the scheduler-cycle budget one video frame takes;
	// callers driving System.RunFrame in a host loop size each call off
	// this rather than re-deriving dotCycles*dotsPerLine*ScanlinesPerFrame.
	CyclesPerFrame = cyclesPerLine * ScanlinesPerFrame
)

// Unit owns the NDS's scanline/frame state machine: it has no framebuffer
// or register storage of its own, only timing. DISPSTAT/VCOUNT live on
// core.System (both CPUs read them over the bus); the composited frame
// goes through the Compositor handed in at construction.
type Unit struct {
	sys    *core.System
	engine *gpu.Engine
	comp   *Compositor
	line   uint16
}

func NewUnit(sys *core.System, engine *gpu.Engine, comp *Compositor) *Unit {
	return &Unit{sys: sys, engine: engine, comp: comp}
}

// Start arms the first H-blank event. Call once after power-on, and again
// after any System.Reset() since the scheduler itself is cleared there.
func (u *Unit) Start() {
	u.line = 0
	u.sys.SetVCount(0)
	u.sys.SetVBlankFlag(false)
	u.sys.SetHBlankFlag(false)
	u.sys.Scheduler.Add(cyclesToHBlank, u.onHBlank)
}

func (u *Unit) onHBlank(late int64) {
	u.sys.SetHBlankFlag(true)
	if u.line < VisibleScanlines {
		u.sys.TriggerHBlankDMA()
	}
	u.sys.Scheduler.Add(cyclesHBlankPortion-late, u.onLineEnd)
}

func (u *Unit) onLineEnd(late int64) {
	u.sys.SetHBlankFlag(false)
	u.line++
	if u.line >= ScanlinesPerFrame {
		u.line = 0
	}
	u.sys.SetVCount(u.line)

	switch u.line {
	case VisibleScanlines:
		u.enterVBlank()
	case 0:
		u.sys.SetVBlankFlag(false)
	}

	u.sys.Scheduler.Add(cyclesToHBlank-late, u.onHBlank)
}

func (u *Unit) enterVBlank() {
	u.sys.SetVBlankFlag(true)
	u.sys.TriggerVBlankDMA()
	if u.engine == nil {
		return
	}
	fb := u.engine.Present()
	if fb != nil && u.comp != nil {
		u.comp.Composite(fb)
	}
}

// Line reports the scanline VCOUNT currently holds, for tests and the
// debug monitor.
func (u *Unit) Line() uint16 { return u.line }
