package video

import (
	"testing"

	"github.com/zoltrix-systems/ndscore/core"
)

func stepScheduler(sys *core.System, cycles int64) {
	for i := int64(0); i < cycles; i++ {
		sys.Scheduler.AddCycles(1)
		sys.Scheduler.Step()
	}
}

func TestUnitEntersVBlankAtLine192(t *testing.T) {
	sys := core.NewSystem()
	u := NewUnit(sys, nil, nil)
	u.Start()

	// One full visible region (lines 0..191) of scanlines, each
	// cyclesPerLine cycles, should leave VCOUNT at 192 and the V-blank
	// flag set.
	stepScheduler(sys, cyclesPerLine*VisibleScanlines)

	if u.Line() != VisibleScanlines {
		t.Fatalf("line = %d, want %d", u.Line(), VisibleScanlines)
	}
	if sys.IORead8(0, 0x04000004)&1 == 0 {
		t.Fatal("expected DISPSTAT V-blank flag set entering line 192")
	}
}

func TestUnitWrapsToLineZeroAfterFullFrame(t *testing.T) {
	sys := core.NewSystem()
	u := NewUnit(sys, nil, nil)
	u.Start()

	stepScheduler(sys, cyclesPerLine*ScanlinesPerFrame)

	if u.Line() != 0 {
		t.Fatalf("line = %d, want 0 after a full frame", u.Line())
	}
	if sys.IORead8(0, 0x04000004)&1 != 0 {
		t.Fatal("expected DISPSTAT V-blank flag clear at line 0")
	}
}

func TestUnitRaisesVBlankIRQWhenEnabled(t *testing.T) {
	sys := core.NewSystem()
	sys.IOWrite8(0, 0x04000208, 1)    // IME
	sys.IOWrite8(0, 0x04000210, 0x01) // IE bit 0 = VBlank
	sys.IOWrite8(0, 0x04000004, 0x08) // DISPSTAT bit 3 = VBlank IRQ enable

	u := NewUnit(sys, nil, nil)
	u.Start()
	stepScheduler(sys, cyclesPerLine*VisibleScanlines)

	if sys.IORead8(0, 0x04000214) == 0 {
		t.Fatal("expected IF to latch the V-blank interrupt")
	}
}
