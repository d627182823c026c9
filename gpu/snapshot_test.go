package gpu

import "testing"

func TestEngineSnapshotRoundTripsMatricesAndFramebuffer(t *testing.T) {
	e := newTestEngine(t)
	e.execute(gxCommand{id: cmdIdentity})
	e.execute(gxCommand{id: cmdTranslate, args: []uint32{uint32(int32(1 << 12)), 0, 0}})
	e.front.Color[0] = Color4{R: 10, G: 20, B: 30, A: 63}
	e.viewportW, e.viewportH = 128, 96

	snap := e.Snapshot()
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	e2 := newTestEngine(t)
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if err := e2.Restore(decoded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if e2.Matrices.modelview.slots[e2.Matrices.modelview.sp] != e.Matrices.modelview.slots[e.Matrices.modelview.sp] {
		t.Fatal("modelview matrix not restored")
	}
	if e2.front.Color[0] != (Color4{R: 10, G: 20, B: 30, A: 63}) {
		t.Fatal("framebuffer contents not restored")
	}
	if e2.viewportW != 128 || e2.viewportH != 96 {
		t.Fatalf("viewport = %dx%d, want 128x96", e2.viewportW, e2.viewportH)
	}
}
