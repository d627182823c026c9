package gpu

import "testing"

type fakeVRAM struct{}

func (fakeVRAM) ReadTexel(int) uint8    { return 0 }
func (fakeVRAM) ReadTexel16(int) uint16 { return 0 }
func (fakeVRAM) ReadPalette(int) uint16 { return 0x7FFF }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	raster := NewSoftwareRasterizer(2)
	t.Cleanup(raster.Stop)
	return NewEngine(raster, fakeVRAM{})
}

func TestEngineIdentityThenSwapBuffersPresentsFrame(t *testing.T) {
	e := newTestEngine(t)
	e.execute(gxCommand{id: cmdIdentity})
	e.execute(gxCommand{id: cmdBeginVtxs, args: []uint32{uint32(PrimTriangles)}})
	e.execute(gxCommand{id: cmdVtx16, args: []uint32{0, 0}})
	e.execute(gxCommand{id: cmdVtx16, args: []uint32{uint32(uint16(1 << 12)), 0}})
	e.execute(gxCommand{id: cmdVtx16, args: []uint32{uint32(uint16(1<<12)) << 16, 0}})

	if len(e.Geo.Polygons) == 0 {
		t.Fatal("expected at least one polygon assembled before swap")
	}

	e.execute(gxCommand{id: cmdSwapBuffers, args: []uint32{0}})
	fb := e.Present()
	if fb == nil {
		t.Fatal("Present returned nil framebuffer")
	}
}

func TestEngineWriteFIFOPackedDispatchesZeroArgCommand(t *testing.T) {
	e := newTestEngine(t)
	e.WriteFIFO(uint32(cmdPushMatrix))
	gxstat := e.ReadGXSTAT()
	if gxstat>>16&0x1FF == 0 {
		t.Fatal("expected nonzero FIFO occupancy after enqueue")
	}
	e.Step()
	gxstat = e.ReadGXSTAT()
	if gxstat>>26&1 == 0 {
		t.Fatal("expected empty bit set after draining the only queued command")
	}
}
