package gpu

import "testing"

func TestWindingFrontDetectsCounterClockwise(t *testing.T) {
	one := int32(1) << 12
	ccw := []Vertex{
		{Position: [4]Fx1612{0, 0, 0, Fx1612(one)}},
		{Position: [4]Fx1612{Fx1612(one), 0, 0, Fx1612(one)}},
		{Position: [4]Fx1612{Fx1612(one), Fx1612(one), 0, Fx1612(one)}},
	}
	if !windingFront(ccw) {
		t.Fatal("expected counter-clockwise triangle to report front-facing")
	}
}

func TestGeometryEngineAssemblesTriangleOnThirdVertex(t *testing.T) {
	mu := NewMatrixUnit()
	g := NewGeometryEngine(mu)
	g.RenderFrontFace, g.RenderBackFace = true, true
	g.Begin(PrimTriangles)

	g.Submit(Vec3{0, 0, 0})
	if len(g.Polygons) != 0 {
		t.Fatal("should not assemble before third vertex")
	}
	g.Submit(Vec3{NewFx1612(1), 0, 0})
	g.Submit(Vec3{NewFx1612(1), NewFx1612(1), 0})

	if len(g.Polygons) != 1 {
		t.Fatalf("expected exactly one assembled polygon, got %d", len(g.Polygons))
	}
}

func TestGeometryEngineTriangleStripReusesLastTwoVertices(t *testing.T) {
	mu := NewMatrixUnit()
	g := NewGeometryEngine(mu)
	g.Begin(PrimTriangleStrip)

	g.Submit(Vec3{0, 0, 0})
	g.Submit(Vec3{NewFx1612(1), 0, 0})
	g.Submit(Vec3{NewFx1612(1), NewFx1612(1), 0})
	if len(g.Polygons) != 1 {
		t.Fatalf("expected first strip triangle after 3 vertices, got %d polygons", len(g.Polygons))
	}

	g.Submit(Vec3{0, NewFx1612(1), 0})
	if len(g.Polygons) != 2 {
		t.Fatalf("expected strip continuation to assemble with one more vertex, got %d polygons", len(g.Polygons))
	}
}

func TestSetColorLoadsRGB555As6BitChannels(t *testing.T) {
	mu := NewMatrixUnit()
	g := NewGeometryEngine(mu)
	g.SetColor(0x001F) // red=31 in 5-bit
	if g.vtxColor.R != 62 {
		t.Fatalf("R = %d, want 62 (31*2)", g.vtxColor.R)
	}
}
