package gpu

import "testing"

func vtx(x, y, z, w int32) Vertex {
	return Vertex{Position: [4]Fx1612{Fx1612FromRaw(x), Fx1612FromRaw(y), Fx1612FromRaw(z), Fx1612FromRaw(w)}, Color: Color4{63, 63, 63, 63}}
}

func TestClipFullyOutsideTriangleProducesNoPolygon(t *testing.T) {
	one := int32(1) << 12
	// All three vertices sit past the right plane (x > w).
	verts := []Vertex{
		vtx(10*one, 0, 0, one),
		vtx(11*one, one, 0, one),
		vtx(11*one, -one, 0, one),
	}
	out := clipPolygon(verts, true)
	if len(out) != 0 {
		t.Fatalf("expected fully-outside triangle to clip to nothing, got %d vertices", len(out))
	}
}

func TestClipStraddlingRightPlaneInterpolates(t *testing.T) {
	one := int32(1) << 12
	// v0 inside (x<w), v1 and v2 outside (x>w): clipping against the right
	// plane should keep v0 and insert two interpolated vertices.
	verts := []Vertex{
		vtx(0, 0, 0, one),
		vtx(2*one, one, 0, one),
		vtx(2*one, -one, 0, one),
	}
	out := clipPolygon(verts, true)
	if len(out) < 3 {
		t.Fatalf("expected a surviving polygon with >=3 vertices, got %d", len(out))
	}
	for _, v := range out {
		if v.Position[0] > v.Position[3]+Fx1612(1) {
			t.Fatalf("clipped vertex still violates x<=w: x=%v w=%v", v.Position[0], v.Position[3])
		}
	}
}

func TestDepthLessRejectsFartherPolygon(t *testing.T) {
	fb := NewFramebuffer()
	idx := 10*ScreenWidth + 10
	fb.Depth[idx] = 100
	fb.OpaquePolyID[idx] = 1
	fb.Color[idx] = Color4{10, 20, 30, 63}

	params := RenderParams{DepthCompare: DepthLess}
	if depthTest(200, fb.Depth[idx], params) {
		t.Fatal("farther depth should fail Less test against existing nearer depth")
	}
	if !depthTest(50, fb.Depth[idx], params) {
		t.Fatal("nearer depth should pass Less test")
	}
}

func TestEdgeMarkingRecolorsBoundary(t *testing.T) {
	fb := NewFramebuffer()
	// Simulate a 4x4 opaque block of poly-id 1 on a poly-id 0xFF (clear) field.
	for y := 5; y < 9; y++ {
		for x := 5; x < 9; x++ {
			idx := y*ScreenWidth + x
			fb.OpaquePolyID[idx] = 1
			fb.Depth[idx] = 10
			fb.Edge[idx] = true
			fb.Color[idx] = Color4{0, 63, 0, 63}
		}
	}
	params := RenderParams{EdgeMarking: true}
	params.EdgePalette[0] = Color4{63, 0, 0, 63} // poly-id 1 >> 3 == 0

	applyEdgeMarking(fb, params)

	boundary := 5*ScreenWidth + 5
	c := fb.Color[boundary]
	if c.R != 63 || c.G != 0 {
		t.Fatalf("boundary pixel not recolored to edge palette: got %+v", c)
	}
}
