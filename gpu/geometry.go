// geometry.go - Vertex submission, lighting, clipping, polygon assembly

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
geometry.go - GeometryEngine

Accumulates vertices into the current primitive, applies SET_NORMAL
lighting and SET_COLOR per §4.6, transforms each vertex by the clip
matrix, and once a primitive's vertex count is satisfied assembles a
polygon: clip test against the view frustum, winding/backface cull, and
push into vertex RAM. Grouped as one stateful engine type the way the
teacher groups per-subsystem state in voodoo_software.go's
VoodooSoftwareBackend, rather than free functions threading state through
parameters.
*/

package gpu

// Color4 is a 6-bit-per-channel RGBA color, the precision vertex and
// material colors carry internally (RGB555 inputs are widened ×2 on load).
type Color4 struct{ R, G, B, A uint8 }

func (c Color4) clampAdd(d Color4) Color4 {
	return Color4{clamp6(int(c.R) + int(d.R)), clamp6(int(c.G) + int(d.G)), clamp6(int(c.B) + int(d.B)), c.A}
}

func clamp6(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 63 {
		return 63
	}
	return uint8(v)
}

func rgb555To6(v uint16) Color4 {
	r := uint8(v&0x1F) * 2
	g := uint8((v>>5)&0x1F) * 2
	b := uint8((v>>10)&0x1F) * 2
	return Color4{r, g, b, 63}
}

// Vec3 is three Fx1612 components, used for normals and light directions.
type Vec3 [3]Fx1612

func (v Vec3) Dot(o Vec3) Fx1612 {
	return v[0].Mul(o[0]).Add(v[1].Mul(o[1])).Add(v[2].Mul(o[2]))
}

func (v Vec3) Negate() Vec3 { return Vec3{-v[0], -v[1], -v[2]} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0].Add(o[0]), v[1].Add(o[1]), v[2].Add(o[2])} }

func (v Vec3) Normalize(m Mat4) Vec3 {
	r := m.MulVec4([4]Fx1612{v[0], v[1], v[2], 0})
	return Vec3{r[0], r[1], r[2]}
}

// Light is one of the four directional lights.
type Light struct {
	Enabled   bool
	Direction Vec3
	Color     Color4
}

// Material holds the per-polygon reflectance coefficients SET by
// DIF_AMB/SPE_EMI commands.
type Material struct {
	Diffuse, Ambient, Specular, Emissive Color4
	UseShininessTable                    bool
}

// Vertex is one post-transform, post-lighting vertex as stored in vertex
// RAM, ready for the rasterizer.
type Vertex struct {
	Position [4]Fx1612 // clip space x,y,z,w
	Color    Color4
	UV       [2]Fx1612
}

// PrimitiveKind selects how BEGIN_VTXS groups incoming vertices.
type PrimitiveKind uint8

const (
	PrimTriangles PrimitiveKind = iota
	PrimQuads
	PrimTriangleStrip
	PrimQuadStrip
)

// Polygon is the assembled, surviving-clip-test primitive ready for
// rasterization, holding its own copies of its vertices.
type Polygon struct {
	Vertices    []Vertex
	Attr        uint32
	TexParam    uint32
	PaletteBase uint16
	Translucent bool
	FrontFacing bool
	Tex         TextureUnit
}

const maxLights = 4

// GeometryEngine is the per-frame vertex/polygon pipeline state.
type GeometryEngine struct {
	Matrices *MatrixUnit

	lights   [maxLights]Light
	material Material

	vtxColor    Color4
	currentUV   [2]Fx1612
	texTransform uint8 // 0=none 1=texcoord 2=position 3=normal

	kind       PrimitiveKind
	pending    []Vertex
	stripCount int
	stripOdd   bool
	lastTwo    [2]Vertex

	RenderFrontFace bool
	RenderBackFace  bool
	RenderFarPlane  bool

	pendingAttr uint32

	Polygons []Polygon

	// OnAssemble, if set, is called with each freshly-assembled polygon so
	// the owning Engine can stamp in the texture state active at draw time.
	OnAssemble func(*Polygon)
}

// SetPolygonAttr latches the attribute word POLYGON_ATTR most recently
// wrote, applied to every polygon assembled until the next write.
func (g *GeometryEngine) SetPolygonAttr(attr uint32) { g.pendingAttr = attr }

func NewGeometryEngine(m *MatrixUnit) *GeometryEngine {
	return &GeometryEngine{Matrices: m, RenderFrontFace: true, RenderBackFace: true, RenderFarPlane: true}
}

func (g *GeometryEngine) Reset() {
	*g = *NewGeometryEngine(g.Matrices)
}

func (g *GeometryEngine) SetLight(i int, enabled bool, dir Vec3) {
	if i < 0 || i >= maxLights {
		return
	}
	g.lights[i].Enabled = enabled
	g.lights[i].Direction = dir.Normalize(g.Matrices.DirectionMatrix())
}

func (g *GeometryEngine) SetLightColor(i int, c Color4) {
	if i < 0 || i >= maxLights {
		return
	}
	g.lights[i].Color = c
}

func (g *GeometryEngine) SetMaterial(m Material) { g.material = m }

// SetColor loads RGB555 into the working vertex color, §4.6.
func (g *GeometryEngine) SetColor(rgb555 uint16) { g.vtxColor = rgb555To6(rgb555) }

// SetNormal implements the per-light accumulation formula from §4.6:
// emissive + Σ diffuse·N·L term + specular·N·H term² + ambient, saturated.
func (g *GeometryEngine) SetNormal(n Vec3) {
	transformed := n.Normalize(g.Matrices.DirectionMatrix())
	out := g.material.Emissive
	for _, l := range g.lights {
		if !l.Enabled {
			continue
		}
		ndotl := max0(transformed.Negate().Dot(l.Direction))
		diffTerm := modulate(g.material.Diffuse, l.Color, ndotl)
		out = out.clampAdd(diffTerm)

		halfway := l.Direction.Negate()
		ndoth := max0(transformed.Negate().Dot(halfway))
		specWeight := ndoth.Mul(ndoth)
		specTerm := modulate(g.material.Specular, l.Color, specWeight)
		out = out.clampAdd(specTerm)

		out = out.clampAdd(modulate(g.material.Ambient, l.Color, NewFx1612(1)))
	}
	g.vtxColor = out
}

func max0(f Fx1612) Fx1612 {
	if f < 0 {
		return 0
	}
	return f
}

// modulate scales material*light by a 0..1 fixed-point weight, channel by
// channel, producing a 6-bit result.
func modulate(mat, light Color4, weight Fx1612) Color4 {
	scale := func(a, b uint8) uint8 {
		v := NewFx1612(int32(a)).Mul(NewFx1612(int32(b))).Div(NewFx1612(63)).Mul(weight)
		return clamp6(int(v.Int()))
	}
	return Color4{scale(mat.R, light.R), scale(mat.G, light.G), scale(mat.B, light.B), 63}
}

func (g *GeometryEngine) SetTexCoord(s, t Fx1612) { g.currentUV = [2]Fx1612{s, t} }

// Begin starts a new primitive, clearing any partially-built vertex group.
func (g *GeometryEngine) Begin(kind PrimitiveKind) {
	g.kind = kind
	g.pending = g.pending[:0]
	g.stripCount = 0
	g.stripOdd = false
}

// vertsNeeded returns how many vertices the active primitive requires to
// assemble its next polygon (strip continuation needs only 1 more vertex
// after the first full polygon).
func (g *GeometryEngine) vertsNeeded() int {
	switch g.kind {
	case PrimTriangles:
		return 3
	case PrimQuads:
		return 4
	case PrimTriangleStrip:
		if g.stripCount == 0 {
			return 3
		}
		return 1
	case PrimQuadStrip:
		if g.stripCount == 0 {
			return 4
		}
		return 2
	}
	return 3
}

// Submit implements VTX_* from §4.6: transform position by the clip
// matrix, apply texture-coordinate transform, accumulate into the current
// vertex group, and assemble+clip+cull a polygon once the group is full.
func (g *GeometryEngine) Submit(pos Vec3) {
	clip := g.Matrices.ClipMatrix()
	p := clip.MulVec4([4]Fx1612{pos[0], pos[1], pos[2], NewFx1612(1)})

	uv := g.currentUV
	if g.texTransform == 2 { // Position
		tp := g.Matrices.TextureMatrix().MulVec4([4]Fx1612{pos[0], pos[1], pos[2], NewFx1612(1)})
		uv = [2]Fx1612{tp[0], tp[1]}
	}

	v := Vertex{Position: p, Color: g.vtxColor, UV: uv}

	if g.kind == PrimTriangleStrip || g.kind == PrimQuadStrip {
		g.pending = append(g.pending, v)
		if len(g.pending) == g.vertsNeeded() {
			g.completeStrip()
		}
		return
	}

	g.pending = append(g.pending, v)
	if len(g.pending) == g.vertsNeeded() {
		g.assemble(g.pending)
		g.pending = g.pending[:0]
	}
}

// completeStrip assembles the next polygon in a strip from the last two
// retained vertices plus the newly-submitted one(s), then keeps the most
// recent two for the following continuation per §4.6.
func (g *GeometryEngine) completeStrip() {
	var verts []Vertex
	if g.stripCount == 0 {
		verts = append([]Vertex(nil), g.pending...)
	} else {
		verts = append([]Vertex{g.lastTwo[0], g.lastTwo[1]}, g.pending...)
	}
	g.assemble(verts)
	n := len(verts)
	if n >= 2 {
		g.lastTwo[0], g.lastTwo[1] = verts[n-2], verts[n-1]
	}
	g.stripCount++
	g.stripOdd = !g.stripOdd
	g.pending = g.pending[:0]
}

// assemble runs the clip test, winding/cull test, and (on survival)
// appends the polygon to the frame's polygon list.
func (g *GeometryEngine) assemble(verts []Vertex) {
	clipped := clipPolygon(verts, g.RenderFarPlane)
	if len(clipped) < 3 {
		return
	}

	front := windingFront(clipped)
	if g.stripOdd {
		front = !front
	}
	if (front && !g.RenderFrontFace) || (!front && !g.RenderBackFace) {
		return
	}

	poly := Polygon{
		Vertices:    clipped,
		FrontFacing: front,
		Attr:        g.pendingAttr,
		TexParam:    0,
		Translucent: alphaOf6(g.pendingAttr) > 0 && alphaOf6(g.pendingAttr) < 31,
	}
	if g.OnAssemble != nil {
		g.OnAssemble(&poly)
	}
	g.Polygons = append(g.Polygons, poly)
}

func alphaOf6(attr uint32) uint8 {
	return uint8((attr >> 16) & 0x1F)
}

// clipPolygon implements the §4.6 clip test: when every vertex is inside
// |xyz| <= w the polygon passes untouched; otherwise it's walked against
// all six frustum planes via Sutherland-Hodgman with perspective-correct
// interpolation, and dropped outright if only the far plane would clip it
// and far-plane rendering is disabled.
func clipPolygon(verts []Vertex, renderFarPlane bool) []Vertex {
	inside := true
	for _, v := range verts {
		w := v.Position[3]
		if abs32(v.Position[0]) > w || abs32(v.Position[1]) > w || abs32(v.Position[2]) > w {
			inside = false
			break
		}
	}
	if inside {
		return verts
	}

	planes := []clipPlane{
		{axis: 0, sign: 1}, {axis: 0, sign: -1},
		{axis: 1, sign: 1}, {axis: 1, sign: -1},
		{axis: 2, sign: 1, isFar: true}, {axis: 2, sign: -1},
	}

	out := verts
	for _, pl := range planes {
		if pl.isFar && !renderFarPlane {
			if anyOutside(out, pl) {
				return nil
			}
			continue
		}
		out = clipAgainstPlane(out, pl)
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

type clipPlane struct {
	axis  int
	sign  Fx1612
	isFar bool
}

func (pl clipPlane) distance(v Vertex) Fx1612 {
	return v.Position[3] - pl.sign.Mul(v.Position[pl.axis])
}

func anyOutside(verts []Vertex, pl clipPlane) bool {
	for _, v := range verts {
		if pl.distance(v) < 0 {
			return true
		}
	}
	return false
}

// clipAgainstPlane is a standard Sutherland-Hodgman pass, interpolating
// position/color/uv linearly at the intersection (an 18-bit fractional
// scale per §4.6, approximated here with the Fx1612 arithmetic already in
// play since both operate at sub-pixel granularity well past display
// resolution).
func clipAgainstPlane(verts []Vertex, pl clipPlane) []Vertex {
	var out []Vertex
	n := len(verts)
	for i := 0; i < n; i++ {
		cur := verts[i]
		prev := verts[(i-1+n)%n]
		curIn := pl.distance(cur) >= 0
		prevIn := pl.distance(prev) >= 0
		if curIn {
			if !prevIn {
				out = append(out, interpolate(prev, cur, pl))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, interpolate(prev, cur, pl))
		}
	}
	return out
}

func interpolate(a, b Vertex, pl clipPlane) Vertex {
	da, db := pl.distance(a), pl.distance(b)
	denom := da - db
	if denom == 0 {
		return a
	}
	t := da.Div(denom)
	lerp := func(x, y Fx1612) Fx1612 { return x.Add(t.Mul(y.Sub(x))) }
	var pos [4]Fx1612
	for i := range pos {
		pos[i] = lerp(a.Position[i], b.Position[i])
	}
	col := Color4{
		R: uint8(lerp(NewFx1612(int32(a.Color.R)), NewFx1612(int32(b.Color.R))).Int()),
		G: uint8(lerp(NewFx1612(int32(a.Color.G)), NewFx1612(int32(b.Color.G))).Int()),
		B: uint8(lerp(NewFx1612(int32(a.Color.B)), NewFx1612(int32(b.Color.B))).Int()),
		A: a.Color.A,
	}
	uv := [2]Fx1612{lerp(a.UV[0], b.UV[0]), lerp(a.UV[1], b.UV[1])}
	return Vertex{Position: pos, Color: col, UV: uv}
}

func abs32(f Fx1612) Fx1612 {
	if f < 0 {
		return -f
	}
	return f
}

// windingFront computes the sign of the first triangle's normal dotted
// with v0, per §4.6.
func windingFront(verts []Vertex) bool {
	if len(verts) < 3 {
		return true
	}
	v0, v1, v2 := verts[0].Position, verts[1].Position, verts[2].Position
	e1 := [2]Fx1612{v1[0].Sub(v0[0]), v1[1].Sub(v0[1])}
	e2 := [2]Fx1612{v2[0].Sub(v0[0]), v2[1].Sub(v0[1])}
	cross := e1[0].Mul(e2[1]).Sub(e1[1].Mul(e2[0]))
	return cross > 0
}
