package core

import (
	"testing"

	"github.com/zoltrix-systems/ndscore/mem"
)

func newTestCore(isa ISA) *Core {
	mainRAM := make([]byte, mem.MainRAMSize)
	sharedWRAM := make([]byte, mem.SharedWRAMSize)
	bus := mem.NewBus(0, mainRAM, sharedWRAM, nil, mem.NewController())
	c := NewCore("test", isa, bus)
	c.writeCPSR(uint32(ModeUser))
	return c
}

func TestModeSwitchInvariantNonFIQ(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.writeCPSR(uint32(ModeIRQ))
	c.R[13] = 0x1111
	c.R[14] = 0x2222

	c.writeCPSR(uint32(ModeSupervisor))
	c.R[13] = 0x3333
	c.R[14] = 0x4444

	c.writeCPSR(uint32(ModeIRQ))
	if c.R[13] != 0x1111 || c.R[14] != 0x2222 {
		t.Fatalf("IRQ bank not restored: r13=%#x r14=%#x", c.R[13], c.R[14])
	}

	c.writeCPSR(uint32(ModeSupervisor))
	if c.R[13] != 0x3333 || c.R[14] != 0x4444 {
		t.Fatalf("SVC bank not restored: r13=%#x r14=%#x", c.R[13], c.R[14])
	}
}

func TestModeSwitchInvariantFIQBanksR8ToR12(t *testing.T) {
	c := newTestCore(ARMv4T)
	for i := 8; i <= 12; i++ {
		c.R[i] = 0xAAAA0000 + uint32(i)
	}

	c.writeCPSR(uint32(ModeFIQ))
	for i := 8; i <= 12; i++ {
		c.R[i] = 0xBBBB0000 + uint32(i)
	}
	c.R[13] = 0x5555
	c.R[14] = 0x6666

	c.writeCPSR(uint32(ModeUser))
	for i := 8; i <= 12; i++ {
		want := 0xAAAA0000 + uint32(i)
		if c.R[i] != want {
			t.Fatalf("r%d after leaving FIQ = %#x, want %#x", i, c.R[i], want)
		}
	}

	c.writeCPSR(uint32(ModeFIQ))
	for i := 8; i <= 12; i++ {
		want := 0xBBBB0000 + uint32(i)
		if c.R[i] != want {
			t.Fatalf("r%d re-entering FIQ = %#x, want %#x", i, c.R[i], want)
		}
	}
	if c.R[13] != 0x5555 || c.R[14] != 0x6666 {
		t.Fatalf("FIQ r13/r14 not restored: r13=%#x r14=%#x", c.R[13], c.R[14])
	}
}

func TestARMDataProcessingADDSSetsFlags(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.R[0] = 0xFFFFFFFF
	c.R[1] = 1
	// ADDS r2, r0, r1
	op := uint32(0xE0902001) // cond=AL, ADD S, Rn=0, Rd=2, Rm=1
	c.execARM(op)
	if c.R[2] != 0 {
		t.Fatalf("r2 = %#x, want 0", c.R[2])
	}
	if c.CPSR&FlagZ == 0 {
		t.Fatal("Z flag not set on zero result")
	}
	if c.CPSR&FlagC == 0 {
		t.Fatal("C flag not set on unsigned overflow")
	}
}

func TestARMBranchWithLink(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.R[15] = 0x1000
	// BL +8 (word offset 2): cond=AL(0xE), link bit set, offset=2
	op := uint32(0xEB000002)
	c.execARM(op)
	if c.R[14] != 0x1000-4 {
		t.Fatalf("LR = %#x, want %#x", c.R[14], 0x1000-4)
	}
	want := uint32(0x1000 + 8) // offset word-count 2 -> byte offset 8
	if c.R[15] != want {
		t.Fatalf("PC = %#x, want %#x", c.R[15], want)
	}
}

func TestThumbAddSubImmediate(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.CPSR |= FlagT
	c.R[0] = 5
	// ADD r1, r0, #3  (format 2: 0001110 Imm3 Rs Rd with I=1,Op=0)
	op := uint16(0b0001_1_1_0_011_000_001)
	c.execThumb(op)
	if c.R[1] != 8 {
		t.Fatalf("r1 = %d, want 8", c.R[1])
	}
}

func TestSystemDirectBootFixups(t *testing.T) {
	sys := NewSystem()
	rom := make([]byte, 0x1000)
	// ARM9 boot info at 0x20: fileAddress=0x1000(header end but we keep ROM big enough), entry, load, size
	writeU32 := func(off int, v uint32) {
		rom[off] = byte(v)
		rom[off+1] = byte(v >> 8)
		rom[off+2] = byte(v >> 16)
		rom[off+3] = byte(v >> 24)
	}
	writeU32(0x20, 0x200) // fileAddress
	writeU32(0x24, 0x02000000)
	writeU32(0x28, 0x02000000) // loadAddress
	writeU32(0x2C, 0x10)       // size
	writeU32(0x30, 0x200)
	writeU32(0x34, 0x02380000)
	writeU32(0x38, 0x02380000)
	writeU32(0x3C, 0x10)

	DirectBoot(sys, rom)

	if got := sys.ARM9.Bus.ReadHalf(0x027FF800, mem.BusSystem); got != 0x1FC2 {
		t.Fatalf("fixup 0x027FF800 = %#x, want 0x1fc2", got)
	}
	if got := sys.ARM9.Bus.ReadHalf(0x027FFC00, mem.BusSystem); got != 0x1FC2 {
		t.Fatalf("fixup 0x027FFC00 = %#x, want 0x1fc2", got)
	}
	if got := sys.ARM9.Bus.ReadHalf(0x027FF850, mem.BusSystem); got != 0x5835 {
		t.Fatalf("fixup 0x027FF850 = %#x, want 0x5835", got)
	}
	if got := sys.ARM9.Bus.ReadHalf(0x027FFC40, mem.BusSystem); got != 1 {
		t.Fatalf("fixup 0x027FFC40 = %#x, want 1", got)
	}
	if sys.ARM9.R[15] != 0x02000000 {
		t.Fatalf("ARM9 PC = %#x, want 0x02000000", sys.ARM9.R[15])
	}
}

func TestARMSWIViaStepSetsLRToInstructionPlus4(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.Goto(mem.MainRAMBase)
	c.Bus.WriteWord(mem.MainRAMBase, 0xEF000001, mem.BusCode) // SWI #1

	c.Step()

	if c.R[14] != mem.MainRAMBase+4 {
		t.Fatalf("LR = %#x, want %#x (SWI instruction address + 4)", c.R[14], mem.MainRAMBase+4)
	}
	if c.Mode() != ModeSupervisor {
		t.Fatalf("mode = %#x, want Supervisor", c.Mode())
	}
	if c.CPSR&FlagI == 0 {
		t.Fatal("IRQs should be masked on SWI entry")
	}
	if c.R[15] != vectorSWI {
		t.Fatalf("PC = %#x, want SWI vector %#x", c.R[15], uint32(vectorSWI))
	}
}

func TestThumbSWIViaStepSetsLRToArchitecturalPC(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.CPSR |= FlagT
	c.Goto(mem.MainRAMBase)
	c.Bus.WriteHalf(mem.MainRAMBase, 0xDF01, mem.BusCode) // SWI #1 (Thumb)

	c.Step()

	want := uint32(mem.MainRAMBase) + 4 // Thumb state's architectural PC carries no further -4 adjustment
	if c.R[14] != want {
		t.Fatalf("LR = %#x, want %#x", c.R[14], want)
	}
	if c.Mode() != ModeSupervisor {
		t.Fatalf("mode = %#x, want Supervisor", c.Mode())
	}
	if c.CPSR&FlagT != 0 {
		t.Fatal("exception entry must clear the Thumb bit")
	}
}

func TestIRQViaStepSetsLRToNextInstructionPlus4(t *testing.T) {
	c := newTestCore(ARMv4T)
	c.Goto(mem.MainRAMBase)
	c.Bus.WriteWord(mem.MainRAMBase, 0xE1A00000, mem.BusCode)   // MOV R0, R0
	c.Bus.WriteWord(mem.MainRAMBase+4, 0xE1A00000, mem.BusCode) // MOV R0, R0

	c.Step() // fills the pipeline and executes the first NOP

	c.IRQLine = true
	c.Step() // should take the IRQ instead of executing the second NOP

	want := mem.MainRAMBase + 4 + 4 // address of the not-yet-executed instruction, plus 4
	if c.R[14] != uint32(want) {
		t.Fatalf("LR = %#x, want %#x", c.R[14], uint32(want))
	}
	if c.Mode() != ModeIRQ {
		t.Fatalf("mode = %#x, want IRQ", c.Mode())
	}
	if c.R[15] != vectorIRQ {
		t.Fatalf("PC = %#x, want IRQ vector %#x", c.R[15], uint32(vectorIRQ))
	}
}
