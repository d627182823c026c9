package core

import "testing"

// fakeGPU is a minimal GPUPort standing in for gpu.Engine so io.go's
// register dispatch can be exercised without importing package gpu (core
// must not depend on it - see system.go's GPUPort doc comment).
type fakeGPU struct {
	fifoWord   uint32
	portOffset uint32
	portValue  uint32
	gxstat     uint32
	disp3dcnt  uint16
	alphaRef   uint8
	edgeColor  [8]uint16
	toon       [32]uint16
}

func (f *fakeGPU) WriteFIFO(word uint32)            { f.fifoWord = word }
func (f *fakeGPU) WritePort(offset, value uint32)   { f.portOffset, f.portValue = offset, value }
func (f *fakeGPU) ReadGXSTAT() uint32               { return f.gxstat }
func (f *fakeGPU) WriteGXSTAT(value uint32)         { f.gxstat = value }
func (f *fakeGPU) ReadClipMatrix(reg int) uint32    { return 0 }
func (f *fakeGPU) OnSwapBuffers(func())             {}
func (f *fakeGPU) Step()                            {}
func (f *fakeGPU) WriteDISP3DCNT(v uint16)          { f.disp3dcnt = v }
func (f *fakeGPU) WriteAlphaTestRef(v uint8)        { f.alphaRef = v }
func (f *fakeGPU) WriteEdgeColor(idx int, v uint16) { f.edgeColor[idx] = v }
func (f *fakeGPU) WriteToonTable(idx int, v uint16) { f.toon[idx] = v }

func TestDISP3DCNTWriteReachesGPUAndReadsBack(t *testing.T) {
	sys := NewSystem()
	fake := &fakeGPU{}
	sys.AttachGPU(fake)

	sys.IOWrite8(0, regDISP3DCNT, 0x2E) // bits 1,2,3,5 set
	sys.IOWrite8(0, regDISP3DCNT+1, 0x00)

	if fake.disp3dcnt != 0x2E {
		t.Fatalf("gpu DISP3DCNT = %#x, want %#x", fake.disp3dcnt, 0x2E)
	}
	got := uint16(sys.IORead8(0, regDISP3DCNT)) | uint16(sys.IORead8(0, regDISP3DCNT+1))<<8
	if got != 0x2E {
		t.Fatalf("DISP3DCNT readback = %#x, want %#x", got, 0x2E)
	}
}

func TestAlphaTestRefWriteMasksTo5Bits(t *testing.T) {
	sys := NewSystem()
	fake := &fakeGPU{}
	sys.AttachGPU(fake)

	sys.IOWrite8(0, regAlphaRef, 0xFF)

	if fake.alphaRef != 0x1F {
		t.Fatalf("gpu alpha test ref = %#x, want 0x1f", fake.alphaRef)
	}
	if sys.IORead8(0, regAlphaRef) != 0x1F {
		t.Fatalf("readback = %#x, want 0x1f", sys.IORead8(0, regAlphaRef))
	}
}

func TestEdgeColorWindowAppliesOnHighByte(t *testing.T) {
	sys := NewSystem()
	fake := &fakeGPU{}
	sys.AttachGPU(fake)

	sys.IOWrite8(0, regEdgeColor+2, 0x34) // index 1, low byte
	if fake.edgeColor[1] != 0 {
		t.Fatal("edge color side effect should not fire before the high byte lands")
	}
	sys.IOWrite8(0, regEdgeColor+3, 0x12) // index 1, high byte
	if fake.edgeColor[1] != 0x1234 {
		t.Fatalf("edge color[1] = %#x, want 0x1234", fake.edgeColor[1])
	}
}

func TestToonTableWindowAppliesOnHighByte(t *testing.T) {
	sys := NewSystem()
	fake := &fakeGPU{}
	sys.AttachGPU(fake)

	sys.IOWrite8(0, regToonTable+62, 0xCD) // index 31, low byte
	sys.IOWrite8(0, regToonTable+63, 0xAB) // index 31, high byte
	if fake.toon[31] != 0xABCD {
		t.Fatalf("toon[31] = %#x, want 0xabcd", fake.toon[31])
	}
}
