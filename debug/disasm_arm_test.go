package debug

import (
	"strings"
	"testing"
)

func le32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func le16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func TestDisassembleARMDataProcessing(t *testing.T) {
	// MOV R0, R0 (AL condition, register form, opcode MOV=0xD)
	var buf []byte
	buf = le32(buf, 0xE1A00000)
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, false)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0].Mnemonic, "MOV") {
		t.Fatalf("mnemonic = %q, want it to contain MOV", lines[0].Mnemonic)
	}
	if lines[0].Size != 4 {
		t.Fatalf("Size = %d, want 4", lines[0].Size)
	}
}

func TestDisassembleARMBranchMarksIsBranch(t *testing.T) {
	var buf []byte
	buf = le32(buf, 0xEA000000) // B #8
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, false)
	if len(lines) != 1 || !lines[0].IsBranch {
		t.Fatalf("expected a branch instruction, got %+v", lines)
	}
	if !strings.HasPrefix(lines[0].Mnemonic, "B") {
		t.Fatalf("mnemonic = %q, want a B.. mnemonic", lines[0].Mnemonic)
	}
}

func TestDisassembleARMSoftwareInterrupt(t *testing.T) {
	var buf []byte
	buf = le32(buf, 0xEF000001) // SWI #1
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, false)
	if len(lines) != 1 || !strings.HasPrefix(lines[0].Mnemonic, "SWI") {
		t.Fatalf("mnemonic = %q, want SWI..", lines[0].Mnemonic)
	}
}

func TestDisassembleUnrecognizedARMOpFallsBackToRawWord(t *testing.T) {
	var buf []byte
	buf = le32(buf, 0xFFFFFFFF)
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, false)
	if len(lines) != 1 || !strings.HasPrefix(lines[0].Mnemonic, "dw ") {
		t.Fatalf("mnemonic = %q, want a raw-word fallback", lines[0].Mnemonic)
	}
}

func TestDisassembleThumbImmediateOps(t *testing.T) {
	var buf []byte
	buf = le16(buf, 0x2005) // MOV R0, #0x05 (opcode 0 in the MOV/CMP/ADD/SUB group)
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, true)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Size != 2 {
		t.Fatalf("Size = %d, want 2", lines[0].Size)
	}
	if !strings.Contains(lines[0].Mnemonic, "MOV") {
		t.Fatalf("mnemonic = %q, want it to contain MOV", lines[0].Mnemonic)
	}
}

func TestDisassembleThumbUnconditionalBranchMarksIsBranch(t *testing.T) {
	var buf []byte
	buf = le16(buf, 0xE000) // B #4
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 1, true)
	if len(lines) != 1 || !lines[0].IsBranch {
		t.Fatalf("expected a branch instruction, got %+v", lines)
	}
}

func TestDisassembleStopsAtTruncatedInput(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00} // not enough bytes for a second ARM word
	readMem := func(addr uint32, size int) []byte {
		end := addr + uint32(size)
		if end > uint32(len(buf)) {
			end = uint32(len(buf))
		}
		return buf[addr:end]
	}

	lines := Disassemble(readMem, 0, 2, false)
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0 since the first read is already short", len(lines))
	}
}

func TestDisassembleAdvancesAddressByInstructionSize(t *testing.T) {
	var buf []byte
	buf = le32(buf, 0xE1A00000)
	buf = le32(buf, 0xE1A00000)
	readMem := func(addr uint32, size int) []byte { return buf[addr : addr+uint32(size)] }

	lines := Disassemble(readMem, 0, 2, false)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Address != 0 || lines[1].Address != 4 {
		t.Fatalf("addresses = %d, %d, want 0, 4", lines[0].Address, lines[1].Address)
	}
}
