package mem

import "testing"

type stubIO struct {
	reads  map[uint32]uint8
	writes map[uint32]uint8
}

func newStubIO() *stubIO {
	return &stubIO{reads: map[uint32]uint8{}, writes: map[uint32]uint8{}}
}

func (s *stubIO) IORead8(cpu int, addr uint32) uint8    { return s.reads[addr] }
func (s *stubIO) IOWrite8(cpu int, addr uint32, v uint8) { s.writes[addr] = v }

func newTestBuses() (*Bus, *Bus, *Controller) {
	mainRAM := make([]byte, MainRAMSize)
	shared := make([]byte, SharedWRAMSize)
	vram := NewController()
	io := newStubIO()
	arm9 := NewBus(0, mainRAM, shared, io, vram)
	arm7 := NewBus(1, mainRAM, shared, io, vram)
	vram.OnInvalidate(func(region, start, count int) {
		arm9.InvalidateRange(VRAMBase, VRAMBase+VRAMEnd-VRAMBase)
		arm7.InvalidateRange(VRAMBase, VRAMBase+VRAMEnd-VRAMBase)
	})
	return arm9, arm7, vram
}

func TestBusMainRAMReadWrite(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.WriteWord(MainRAMBase+0x100, 0xDEADBEEF, BusData)
	if got := arm9.ReadWord(MainRAMBase+0x100, BusData); got != 0xDEADBEEF {
		t.Fatalf("ReadWord = %#x, want 0xdeadbeef", got)
	}
}

func TestBusMainRAMMirrors(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.WriteByte(MainRAMBase, 0x7A, BusData)
	mirrored := arm9.ReadByte(MainRAMBase+MainRAMSize, BusData)
	if mirrored != 0x7A {
		t.Fatalf("mirrored main RAM read = %#x, want 0x7a", mirrored)
	}
}

func TestBusSharedRAMBetweenCPUs(t *testing.T) {
	arm9, arm7, _ := newTestBuses()
	arm9.SetWRAMCNT(0) // ARM9 owns all shared WRAM
	arm7.SetWRAMCNT(0)
	arm9.WriteByte(SharedWRAMBase, 0x55, BusData)
	if got := arm9.ReadByte(SharedWRAMBase, BusData); got != 0x55 {
		t.Fatalf("ARM9 shared WRAM read = %#x, want 0x55", got)
	}
	if got := arm7.ReadByte(SharedWRAMBase, BusData); got != 0 {
		t.Fatalf("ARM7 shared WRAM read while unmapped = %#x, want 0", got)
	}
}

func TestBusITCMShadowsCodeAndData(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.SetTCM(0, ITCMSize, true, 0x00800000, DTCMSize, false)
	arm9.WriteByte(0x10, 0x99, BusCode)
	if got := arm9.ReadByte(0x10, BusData); got != 0x99 {
		t.Fatalf("ITCM shadow read = %#x, want 0x99", got)
	}
}

func TestBusDTCMAppliesOnlyToDataBus(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.SetTCM(0, 0, false, 0x00800000, DTCMSize, true)
	arm9.WriteByte(0x00800000, 0xAB, BusData)
	if got := arm9.ReadByte(0x00800000, BusData); got != 0xAB {
		t.Fatalf("DTCM data read = %#x, want 0xab", got)
	}
}

func TestBusTCMInvalidatesFastPageOnReconfigure(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.WriteByte(0x10, 0x11, BusData) // cache a main-RAM-backed page (address 0x10 maps nowhere interesting, but exercises fastPage)
	arm9.SetTCM(0, ITCMSize, true, 0x00800000, DTCMSize, false)
	arm9.WriteByte(0x10, 0x22, BusData)
	if got := arm9.ReadByte(0x10, BusCode); got != 0x22 {
		t.Fatalf("post-reconfigure ITCM read = %#x, want 0x22", got)
	}
}

func TestBusIODispatch(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.WriteByte(IOBase+0x04, 0x7F, BusData)
	if got := arm9.io.(*stubIO).writes[IOBase+0x04]; got != 0x7F {
		t.Fatalf("IO write not dispatched, got %#x", got)
	}
}

func TestBusVRAMFastPageInvalidatedOnRemap(t *testing.T) {
	arm9, _, vram := newTestBuses()
	vram.WriteVRAMCNT('A', 0x80|1) // mst=1 -> BG-A, also maps into LCDC? no: BG-A only here.
	vram.WriteVRAMCNT('A', 0x00)
	vram.WriteVRAMCNT('A', 0x80|0) // mst=0 -> LCDC
	arm9.WriteByte(VRAMBase, 0x33, BusData)
	if got := arm9.ReadByte(VRAMBase, BusData); got != 0x33 {
		t.Fatalf("VRAM read after remap = %#x, want 0x33", got)
	}
}

func TestBusPaletteAndOAMAreFlatRAM(t *testing.T) {
	arm9, _, _ := newTestBuses()
	arm9.WriteByte(PaletteBase, 0x11, BusData)
	arm9.WriteByte(PaletteBase+PaletteSize, 0x22, BusData)
	if got := arm9.ReadByte(PaletteBase, BusData); got != 0x11 {
		t.Fatalf("BG palette read = %#x, want 0x11", got)
	}
	if got := arm9.ReadByte(PaletteBase+PaletteSize, BusData); got != 0x22 {
		t.Fatalf("OBJ palette read = %#x, want 0x22", got)
	}

	arm9.WriteByte(OAMBase, 0xAA, BusData)
	if got := arm9.ReadByte(OAMBase, BusData); got != 0xAA {
		t.Fatalf("OAM read = %#x, want 0xaa", got)
	}
}
