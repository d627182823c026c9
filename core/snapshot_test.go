package core

import "testing"

func TestSnapshotRoundTripsRegistersAndMemory(t *testing.T) {
	sys := NewSystem()
	sys.ARM9.R[0] = 0xDEADBEEF
	sys.ARM9.R[15] = 0x02000100
	sys.ARM7.R[1] = 0x12345678
	sys.ARM9.Bus.MainRAM()[0x100] = 0x42
	sys.arm9IRQ.IE = 0x0001
	sys.arm9IRQ.IME = true

	snap, err := sys.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	sys.Reset()
	if sys.ARM9.R[0] != 0 {
		t.Fatal("setup invariant broken: Reset should have cleared R0")
	}

	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if err := sys.Restore(decoded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if sys.ARM9.R[0] != 0xDEADBEEF {
		t.Fatalf("R0 = %#x, want 0xDEADBEEF", sys.ARM9.R[0])
	}
	if sys.ARM9.R[15] != 0x02000100 {
		t.Fatalf("R15 = %#x, want 0x02000100", sys.ARM9.R[15])
	}
	if sys.ARM7.R[1] != 0x12345678 {
		t.Fatalf("ARM7 R1 = %#x, want 0x12345678", sys.ARM7.R[1])
	}
	if sys.ARM9.Bus.MainRAM()[0x100] != 0x42 {
		t.Fatal("main RAM byte not restored")
	}
	if sys.arm9IRQ.IE != 0x0001 || !sys.arm9IRQ.IME {
		t.Fatal("IRQ controller state not restored")
	}
}

func TestSnapshotRestoresVRAMBankMapping(t *testing.T) {
	sys := NewSystem()
	sys.VRAM.WriteVRAMCNT('A', 0x80) // enable, mst=0, offset=0
	sys.VRAM.BankData('A')[0] = 0x77

	snap, err := sys.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	sys.VRAM.WriteVRAMCNT('A', 0x00)
	sys.VRAM.BankData('A')[0] = 0x00

	if err := sys.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sys.VRAM.CNT('A') != 0x80 {
		t.Fatalf("bank A CNT = %#x, want 0x80", sys.VRAM.CNT('A'))
	}
	if sys.VRAM.BankData('A')[0] != 0x77 {
		t.Fatal("bank A contents not restored")
	}
}

func TestSnapshotRejectsMismatchedMemorySize(t *testing.T) {
	sys := NewSystem()
	snap, err := sys.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	snap.MainRAM = snap.MainRAM[:len(snap.MainRAM)-1]
	if err := sys.Restore(snap); err == nil {
		t.Fatal("expected Restore to reject a truncated main RAM snapshot")
	}
}
