// bus.go - Address-space decode and fast-page memory bus for one CPU side

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
bus.go - Memory Bus

Each CPU (ARM7, ARM9) owns one Bus. It provides byte/half/word read and
write routed by the top byte of the address, the same "decode by leading
address bits, fall through to a contiguous byte slice" approach as the
teacher's SystemBus (memory_bus.go) and MachineBus (machine_bus.go), scaled
up from one flat 16MB space to the DS's several distinct physical regions
(main RAM, shared WRAM, CPU-private WRAM/BIOS, VRAM, palette, OAM, IO).

Fast path. A 1M-entry page table (4KiB pages, matching §4.2) caches a direct
byte-slice window into RAM/VRAM for Code/Data accesses. A page entry is nil
when the page routes through IO, TCM, or currently has no stable backing
(VRAM not yet mapped there); load/store then fall back to the slow decode
path. Remapping VRAM must call InvalidatePages for the affected page range,
exactly as §4.4 requires.

TCM shadowing. ARM9 only. ITCM intercepts any Code or Data access inside its
configured window when enabled; DTCM intercepts Data-bus accesses only. Both
shadow ahead of the normal decode and ahead of the fast page table, so a TCM
mode change must invalidate pages across the old and new windows.
*/

package mem

const (
	PageShift = 12
	PageSize  = 1 << PageShift // 4 KiB
	PageMask  = PageSize - 1
	NumPages  = 1 << 20 // covers a 32-bit address space at 4 KiB granularity

	MainRAMSize    = 4 * 1024 * 1024
	MainRAMBase    = 0x02000000
	MainRAMMirror  = 0x01000000 // the CPU-visible window repeats the 4MB RAM within 16MB
	SharedWRAMSize = 32 * 1024
	SharedWRAMBase = 0x03000000
	ARM7WRAMSize   = 64 * 1024
	ITCMSize       = 32 * 1024
	DTCMSize       = 16 * 1024
	BIOSSize7      = 16 * 1024
	BIOSSize9      = 4 * 1024
	OAMSize        = 2 * 1024 // per engine
	PaletteSize    = 1 * 1024 // per engine
	IOBase         = 0x04000000
	IOEnd          = 0x04FFFFFF
	VRAMBase       = 0x06000000
	VRAMEnd        = 0x06FFFFFF
	PaletteBase    = 0x05000000
	PaletteEnd     = 0x05FFFFFF
	OAMBase        = 0x07000000
	OAMEnd         = 0x07FFFFFF
)

// BusKind distinguishes the nature of an access, because ITCM/DTCM and some
// IO side effects depend on whether the access is an instruction fetch, a
// data access, or a bookkeeping ("System") probe such as a debugger peek.
type BusKind int

const (
	BusCode BusKind = iota
	BusData
	BusSystem
)

// IOHandler is implemented by the owning System so Bus can dispatch
// IO-mapped reads/writes without importing the core package (which would
// create an import cycle, since core.System owns a Bus per CPU).
type IOHandler interface {
	IORead8(cpu int, addr uint32) uint8
	IOWrite8(cpu int, addr uint32, val uint8)
}

// VRAMReader is implemented by the VRAM controller so the bus can route
// 0x06000000-0x06FFFFFF through bank mapping. The palette and OAM windows
// do not go through it; they are flat RAM owned by the bus.
type VRAMReader interface {
	ReadRegion(region int, offset uint32) uint8
	WriteRegion(region int, offset uint32, val uint8)
	RegionPage(region int, offset uint32) []byte // nil if unmapped or list-mapped
}

type page struct {
	mem []byte // exactly PageSize bytes, or nil if this page must go through decode
}

// Bus is one CPU's view of the DS address space.
type Bus struct {
	CPUIndex int // 0 = ARM9, 1 = ARM7

	mainRAM []byte // shared backing store, same slice for both CPUs' buses
	shared  []byte // shared WRAM backing store, same slice for both CPUs' buses
	private []byte // ARM7 internal WRAM (ARM7 only) or ARM9 never uses this
	bios    []byte

	wramCnt uint8 // WRAMCNT, ARM9-side register but visible to both

	itcm        []byte
	dtcm        []byte
	itcmBase    uint32
	itcmLimit   uint32
	itcmEnabled bool
	dtcmBase    uint32
	dtcmLimit   uint32
	dtcmEnabled bool

	io   IOHandler
	vram VRAMReader

	bgPalette, objPalette []byte // 1KiB each, not bank-mappable, kept local to the bus
	oam                   []byte // 2KiB, ditto

	pages [NumPages]page
}

// MainRAM returns the live main-RAM backing store, shared by both CPUs'
// buses, for direct snapshot save/restore.
func (b *Bus) MainRAM() []byte { return b.mainRAM }

// SharedWRAM returns the live shared-WRAM backing store, shared by both
// CPUs' buses, for direct snapshot save/restore.
func (b *Bus) SharedWRAM() []byte { return b.shared }

// NewBus creates a bus for the given CPU index (0=ARM9, 1=ARM7) sharing the
// given main-RAM and shared-WRAM backing stores with its sibling bus.
func NewBus(cpuIndex int, mainRAM, sharedWRAM []byte, io IOHandler, vram VRAMReader) *Bus {
	b := &Bus{
		CPUIndex:    cpuIndex,
		mainRAM:     mainRAM,
		shared:      sharedWRAM,
		io:          io,
		vram:        vram,
		bgPalette:   make([]byte, PaletteSize),
		objPalette:  make([]byte, PaletteSize),
		oam:         make([]byte, OAMSize),
	}
	if cpuIndex == 1 {
		b.private = make([]byte, ARM7WRAMSize)
		b.bios = make([]byte, BIOSSize7)
	} else {
		b.itcm = make([]byte, ITCMSize)
		b.dtcm = make([]byte, DTCMSize)
		b.itcmLimit = ITCMSize
		b.dtcmLimit = DTCMSize
		b.dtcmBase = 0x00800000
		b.bios = make([]byte, BIOSSize9)
	}
	return b
}

// SetWRAMCNT updates the shared-WRAM split. Both buses must be told since
// the mapping governs which CPU sees the shared block versus a fixed
// zero/ignore region (§5, "owned by whichever CPU WRAMCNT currently maps it
// to; the other CPU reads zero/ignores writes").
func (b *Bus) SetWRAMCNT(v uint8) {
	b.wramCnt = v & 0x3
	b.InvalidateRange(SharedWRAMBase, SharedWRAMBase+0x01000000)
}

// SetTCM configures ITCM or DTCM base/size and enable state (driven by
// CP15 register writes). Changing either invalidates the fast page table
// over the old and new windows so no stale RAM pointer survives a TCM move.
func (b *Bus) SetTCM(itcmBase, itcmLimit uint32, itcmEnabled bool, dtcmBase, dtcmLimit uint32, dtcmEnabled bool) {
	oldITCMBase, oldITCMLimit := b.itcmBase, b.itcmLimit
	oldDTCMBase, oldDTCMLimit := b.dtcmBase, b.dtcmLimit

	b.itcmBase, b.itcmLimit, b.itcmEnabled = itcmBase, itcmLimit, itcmEnabled
	b.dtcmBase, b.dtcmLimit, b.dtcmEnabled = dtcmBase, dtcmLimit, dtcmEnabled

	b.InvalidateRange(oldITCMBase, oldITCMBase+oldITCMLimit)
	b.InvalidateRange(oldDTCMBase, oldDTCMBase+oldDTCMLimit)
	b.InvalidateRange(itcmBase, itcmBase+itcmLimit)
	b.InvalidateRange(dtcmBase, dtcmBase+dtcmLimit)
}

// InvalidateRange clears any cached page-table entries covering
// [start, end). Called whenever VRAM mapping or TCM configuration changes.
func (b *Bus) InvalidateRange(start, end uint32) {
	first := start >> PageShift
	last := end >> PageShift
	for p := first; p <= last && p < NumPages; p++ {
		b.pages[p].mem = nil
	}
}

func pageIndex(addr uint32) uint32 { return addr >> PageShift }

// fastPage returns a direct byte slice for the 4KiB page containing addr,
// populating the page-table cache entry on miss. Returns nil if the address
// must go through the slow decode path (IO, unmapped VRAM, TCM boundary
// straddling logic handled by the caller before this is reached).
func (b *Bus) fastPage(addr uint32) []byte {
	idx := pageIndex(addr)
	if e := b.pages[idx].mem; e != nil {
		return e
	}
	base := addr &^ PageMask
	var backing []byte
	switch {
	case addr >= MainRAMBase && addr < MainRAMBase+0x01000000:
		off := (base - MainRAMBase) % MainRAMSize
		backing = b.mainRAM[off : off+PageSize]
	case addr >= VRAMBase && addr <= VRAMEnd:
		region, regionOff := b.lcdcRegion(base)
		if b.vram != nil {
			if pg := b.vram.RegionPage(region, regionOff); pg != nil {
				backing = pg
			}
		}
	default:
		return nil
	}
	if backing == nil {
		return nil
	}
	b.pages[idx].mem = backing
	return backing
}

// lcdcRegion maps a raw 0x06xxxxxx address to (region, offset) in the LCDC
// linear window. Bank-specific windows (BG-A/B, OBJ-A/B) are handled by the
// VRAM controller itself when code addresses them through its own base
// registers rather than the flat LCDC alias; this bus only needs the LCDC
// alias for the fast path because that's what ordinary CPU loads/stores use.
func (b *Bus) lcdcRegion(addr uint32) (region int, offset uint32) {
	return RegionLCDC, addr - VRAMBase
}

// ReadByte/Half/Word follow the teacher's little-endian composition
// (memory_bus.go) but check the TCMs first, then the fast page table,
// then the slow decode path.
func (b *Bus) ReadByte(addr uint32, kind BusKind) uint8 {
	if v, handled := b.tcmRead(addr, kind); handled {
		return v
	}
	if pg := b.fastPage(addr); pg != nil {
		return pg[addr&PageMask]
	}
	return b.slowReadByte(addr)
}

func (b *Bus) WriteByte(addr uint32, v uint8, kind BusKind) {
	if b.tcmWrite(addr, v, kind) {
		return
	}
	if pg := b.fastPage(addr); pg != nil {
		pg[addr&PageMask] = v
		return
	}
	b.slowWriteByte(addr, v)
}

func (b *Bus) ReadHalf(addr uint32, kind BusKind) uint16 {
	addr &^= 1
	return uint16(b.ReadByte(addr, kind)) | uint16(b.ReadByte(addr+1, kind))<<8
}

func (b *Bus) WriteHalf(addr uint32, v uint16, kind BusKind) {
	addr &^= 1
	b.WriteByte(addr, uint8(v), kind)
	b.WriteByte(addr+1, uint8(v>>8), kind)
}

func (b *Bus) ReadWord(addr uint32, kind BusKind) uint32 {
	addr &^= 3
	return uint32(b.ReadByte(addr, kind)) |
		uint32(b.ReadByte(addr+1, kind))<<8 |
		uint32(b.ReadByte(addr+2, kind))<<16 |
		uint32(b.ReadByte(addr+3, kind))<<24
}

func (b *Bus) WriteWord(addr uint32, v uint32, kind BusKind) {
	addr &^= 3
	b.WriteByte(addr, uint8(v), kind)
	b.WriteByte(addr+1, uint8(v>>8), kind)
	b.WriteByte(addr+2, uint8(v>>16), kind)
	b.WriteByte(addr+3, uint8(v>>24), kind)
}

func (b *Bus) tcmRead(addr uint32, kind BusKind) (uint8, bool) {
	if b.itcmEnabled && kind != BusSystem && addr < b.itcmLimit {
		return b.itcm[addr%ITCMSize], true
	}
	if b.dtcmEnabled && kind == BusData && addr >= b.dtcmBase && addr < b.dtcmBase+b.dtcmLimit {
		return b.dtcm[(addr-b.dtcmBase)%DTCMSize], true
	}
	return 0, false
}

func (b *Bus) tcmWrite(addr uint32, v uint8, kind BusKind) bool {
	if b.itcmEnabled && kind != BusSystem && addr < b.itcmLimit {
		b.itcm[addr%ITCMSize] = v
		return true
	}
	if b.dtcmEnabled && kind == BusData && addr >= b.dtcmBase && addr < b.dtcmBase+b.dtcmLimit {
		b.dtcm[(addr-b.dtcmBase)%DTCMSize] = v
		return true
	}
	return false
}

func (b *Bus) slowReadByte(addr uint32) uint8 {
	switch {
	case addr < uint32(len(b.bios)):
		return b.bios[addr]
	case addr >= MainRAMBase && addr < MainRAMBase+0x01000000:
		off := (addr - MainRAMBase) % MainRAMSize
		return b.mainRAM[off]
	case addr >= SharedWRAMBase && addr < SharedWRAMBase+0x01000000:
		return b.readSharedWRAM(addr)
	case addr >= IOBase && addr <= IOEnd:
		if b.io != nil {
			return b.io.IORead8(b.CPUIndex, addr)
		}
		return 0
	case addr >= PaletteBase && addr <= PaletteEnd:
		return b.readPalette(addr)
	case addr >= VRAMBase && addr <= VRAMEnd:
		if b.vram != nil {
			return b.vram.ReadRegion(RegionLCDC, addr-VRAMBase)
		}
		return 0
	case addr >= OAMBase && addr <= OAMEnd:
		off := (addr - OAMBase) % (2 * OAMSize)
		if off < OAMSize {
			return b.oam[off]
		}
		return b.oam[off-OAMSize]
	default:
		return 0
	}
}

func (b *Bus) slowWriteByte(addr uint32, v uint8) {
	switch {
	case addr < uint32(len(b.bios)):
		// BIOS is read-only.
	case addr >= MainRAMBase && addr < MainRAMBase+0x01000000:
		off := (addr - MainRAMBase) % MainRAMSize
		b.mainRAM[off] = v
	case addr >= SharedWRAMBase && addr < SharedWRAMBase+0x01000000:
		b.writeSharedWRAM(addr, v)
	case addr >= IOBase && addr <= IOEnd:
		if b.io != nil {
			b.io.IOWrite8(b.CPUIndex, addr, v)
		}
	case addr >= PaletteBase && addr <= PaletteEnd:
		b.writePalette(addr, v)
	case addr >= VRAMBase && addr <= VRAMEnd:
		if b.vram != nil {
			b.vram.WriteRegion(RegionLCDC, addr-VRAMBase, v)
		}
	case addr >= OAMBase && addr <= OAMEnd:
		off := (addr - OAMBase) % (2 * OAMSize)
		if off < OAMSize {
			b.oam[off] = v
		} else {
			b.oam[off-OAMSize] = v
		}
	}
}

// readSharedWRAM/writeSharedWRAM apply the WRAMCNT split: mode 0 gives the
// whole 32KB to ARM9 and nothing to ARM7 (ARM7 sees its private WRAM
// instead, handled before this is reached in a full address map — simplified
// here to the documented "owner reads through, the other CPU sees zero").
func (b *Bus) readSharedWRAM(addr uint32) uint8 {
	off := (addr - SharedWRAMBase) % SharedWRAMSize
	if b.CPUIndex == 1 && b.private != nil {
		// ARM7 side: WRAMCNT selects which half (or all/none) of the
		// shared block maps into ARM7's private WRAM window.
		switch b.wramCnt {
		case 0:
			return 0
		case 1:
			return b.shared[off%(SharedWRAMSize/2)+SharedWRAMSize/2]
		case 2:
			return b.shared[off%(SharedWRAMSize/2)]
		default:
			return b.shared[off]
		}
	}
	switch b.wramCnt {
	case 3:
		return 0
	case 1:
		return b.shared[off%(SharedWRAMSize/2)]
	case 2:
		return b.shared[off%(SharedWRAMSize/2)+SharedWRAMSize/2]
	default:
		return b.shared[off]
	}
}

func (b *Bus) writeSharedWRAM(addr uint32, v uint8) {
	off := (addr - SharedWRAMBase) % SharedWRAMSize
	if b.CPUIndex == 1 && b.private != nil {
		switch b.wramCnt {
		case 0:
			return
		case 1:
			b.shared[off%(SharedWRAMSize/2)+SharedWRAMSize/2] = v
		case 2:
			b.shared[off%(SharedWRAMSize/2)] = v
		default:
			b.shared[off] = v
		}
		return
	}
	switch b.wramCnt {
	case 3:
		return
	case 1:
		b.shared[off%(SharedWRAMSize/2)] = v
	case 2:
		b.shared[off%(SharedWRAMSize/2)+SharedWRAMSize/2] = v
	default:
		b.shared[off] = v
	}
}

func (b *Bus) readPalette(addr uint32) uint8 {
	off := (addr - PaletteBase) % 0x800
	if off < PaletteSize {
		return b.bgPalette[off]
	}
	return b.objPalette[off-PaletteSize]
}

func (b *Bus) writePalette(addr uint32, v uint8) {
	off := (addr - PaletteBase) % 0x800
	if off < PaletteSize {
		b.bgPalette[off] = v
	} else {
		b.objPalette[off-PaletteSize] = v
	}
}

// WriteBlock writes raw bytes starting at addr, used by the cartridge
// direct-boot loader.
func (b *Bus) WriteBlock(addr uint32, data []byte) {
	for i, v := range data {
		b.WriteByte(addr+uint32(i), v, BusSystem)
	}
}

// Reset clears all owned RAM regions.
func (b *Bus) Reset() {
	for i := range b.bgPalette {
		b.bgPalette[i] = 0
	}
	for i := range b.objPalette {
		b.objPalette[i] = 0
	}
	for i := range b.oam {
		b.oam[i] = 0
	}
	if b.itcm != nil {
		for i := range b.itcm {
			b.itcm[i] = 0
		}
	}
	if b.dtcm != nil {
		for i := range b.dtcm {
			b.dtcm[i] = 0
		}
	}
	if b.private != nil {
		for i := range b.private {
			b.private[i] = 0
		}
	}
	for i := range b.pages {
		b.pages[i].mem = nil
	}
}
