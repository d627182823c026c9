// cp15.go - ARM9 system control coprocessor

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
cp15.go - CP15

The ARM9's system control coprocessor. This core models only the registers
the rest of the package consumes: the ITCM/DTCM base+size+enable fields
(register 9) that core.Bus.SetTCM needs, and the cache/control register
(register 1) far enough to track the bits that matter for a functional
emulator (ICache/DCache enable are accepted and stored but the data caches
themselves are not modeled, matching the spec's choice to treat caching as
a non-functional concern).
*/

package core

// TCM region size field to byte count: §6/real hardware encode size as
// 2<<n for n in the region's size field, clamped to a sane minimum.
func tcmRegionSize(field uint32) uint32 {
	n := (field >> 1) & 0x1F
	if n < 3 {
		return 4 * 1024
	}
	return 1 << (n + 1)
}

type CP15 struct {
	control   uint32 // register 1
	itcmSize  uint32 // register 9, opcode2=1
	dtcmSize  uint32 // register 9, opcode2=0
	changed   func()
}

func NewCP15() *CP15 { return &CP15{} }

// OnTCMChange installs a callback fired whenever a TCM control register
// write might move or resize ITCM/DTCM, so the owning System can push the
// new configuration into both CPU buses (only the ARM9 bus actually has
// TCM, but the callback keeps CP15 decoupled from Bus).
func (p *CP15) OnTCMChange(f func()) { p.changed = f }

func (p *CP15) Reset() {
	p.control = 0x00000078 // reset value per ARM946E-S: caches/MMU disabled
	p.itcmSize = 0
	p.dtcmSize = 0
}

func (p *CP15) Read(crn, crm, opcode2 uint32) uint32 {
	switch {
	case crn == 1 && crm == 0 && opcode2 == 0:
		return p.control
	case crn == 9 && crm == 1 && opcode2 == 0:
		return p.dtcmSize
	case crn == 9 && crm == 1 && opcode2 == 1:
		return p.itcmSize
	default:
		return 0
	}
}

func (p *CP15) Write(crn, crm, opcode2, value uint32) {
	switch {
	case crn == 1 && crm == 0 && opcode2 == 0:
		p.control = value
	case crn == 9 && crm == 1 && opcode2 == 0:
		p.dtcmSize = value
		p.fireChanged()
	case crn == 9 && crm == 1 && opcode2 == 1:
		p.itcmSize = value
		p.fireChanged()
	case crn == 7:
		// cache maintenance ops (clean/flush/drain): no data cache is
		// modeled, so these are accepted as no-ops.
	}
}

func (p *CP15) fireChanged() {
	if p.changed != nil {
		p.changed()
	}
}

// ITCMEnabled/DTCMEnabled/ITCMWindow/DTCMWindow expose the decoded TCM
// configuration for System to apply to the ARM9 bus.
func (p *CP15) ITCMEnabled() bool       { return p.itcmSize&1 != 0 }
func (p *CP15) DTCMEnabled() bool       { return p.dtcmSize&1 != 0 }
func (p *CP15) ITCMWindowSize() uint32  { return tcmRegionSize(p.itcmSize) }
func (p *CP15) DTCMWindowSize() uint32  { return tcmRegionSize(p.dtcmSize) }
func (p *CP15) DTCMBase() uint32        { return p.dtcmSize &^ 0xFFF }
