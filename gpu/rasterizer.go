// rasterizer.go - Software scanline rasterizer with a striped worker pool

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
rasterizer.go - SoftwareRasterizer

Implements §4.7's edge-walk rasterizer and §5's worker-pool concurrency
model: N workers (default 4) each own a disjoint horizontal strip of the
framebuffer, see a frozen polygon/texture snapshot taken once at Render
entry, and are coordinated with one mutex+condvar and a mutex-guarded
running flag apiece, mirroring the teacher's VoodooSoftwareBackend's
mutex-guarded single-threaded rasterizer (software_voodoo.go) generalized
from one shared lock to N independent per-strip locks since this pipeline
is required to actually parallelize.
*/

package gpu

import (
	"sync"
)

const (
	ScreenWidth  = 256
	ScreenHeight = 192
)

// DepthBufferMode selects Z-buffer or W-buffer depth, chosen once at
// SwapBuffers and applied to the whole frame per §4.7.
type DepthBufferMode uint8

const (
	DepthBufferZ DepthBufferMode = iota
	DepthBufferW
)

type DepthTest uint8

const (
	DepthLess DepthTest = iota
	DepthEqual
)

// PolygonMode selects the §4.7 shading model.
type PolygonMode uint8

const (
	PolyModulation PolygonMode = iota
	PolyDecal
	PolyShaded
	PolyShadow
)

// Framebuffer holds one frame's color, depth, and per-pixel attributes.
type Framebuffer struct {
	Color         []Color4
	Depth         []int32
	OpaquePolyID  []uint8
	TransPolyID   []uint8
	Shadow        []bool
	Edge          []bool
}

func NewFramebuffer() *Framebuffer {
	n := ScreenWidth * ScreenHeight
	fb := &Framebuffer{
		Color:        make([]Color4, n),
		Depth:        make([]int32, n),
		OpaquePolyID: make([]uint8, n),
		TransPolyID:  make([]uint8, n),
		Shadow:       make([]bool, n),
		Edge:         make([]bool, n),
	}
	fb.Clear()
	return fb
}

func (fb *Framebuffer) Clear() {
	for i := range fb.Depth {
		fb.Depth[i] = 1<<31 - 1
		fb.Color[i] = Color4{}
		fb.OpaquePolyID[i] = 0xFF
		fb.TransPolyID[i] = 0xFF
		fb.Shadow[i] = false
		fb.Edge[i] = false
	}
}

// ToonTable is the 32-entry toon/highlight lookup for PolyShaded.
type ToonTable [32]Color4

// RenderParams are the per-frame global toggles that affect every polygon,
// sourced from DISP3DCNT (§6) and its satellite alpha-test-ref/edge-color/
// toon-table register windows rather than any per-polygon attribute.
type RenderParams struct {
	DepthMode        DepthBufferMode
	DepthCompare     DepthTest
	Antialias        bool
	EdgeMarking      bool
	AlphaTestEnable  bool
	AlphaTestRef     uint8
	BlendEnable      bool
	Highlight        bool // DISP3DCNT shading mode: false=Toon, true=Highlight
	EdgePalette      [8]Color4
	Toon             ToonTable
	ViewportX        int
	ViewportY        int
	ViewportW        int
	ViewportH        int
	TranslucentDepth bool
}

// Worker owns one horizontal strip [yMin, yMax) and renders it against a
// frozen polygon/texture snapshot, signaled by the controlling SoftwareRasterizer.
type worker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	quit    bool

	yMin, yMax int
	job        func(yMin, yMax int)
}

func newWorker() *worker {
	w := &worker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *worker) loop() {
	w.mu.Lock()
	for {
		for !w.running && !w.quit {
			w.cond.Wait()
		}
		if w.quit {
			w.mu.Unlock()
			return
		}
		job, yMin, yMax := w.job, w.yMin, w.yMax
		w.mu.Unlock()

		job(yMin, yMax)

		w.mu.Lock()
		w.running = false
		w.cond.Broadcast()
	}
}

func (w *worker) dispatch(yMin, yMax int, job func(yMin, yMax int)) {
	w.mu.Lock()
	w.yMin, w.yMax, w.job = yMin, yMax, job
	w.running = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *worker) wait() {
	w.mu.Lock()
	for w.running {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

func (w *worker) stop() {
	w.mu.Lock()
	w.quit = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// SoftwareRasterizer owns the worker pool and renders one frame's polygon
// list into a Framebuffer.
type SoftwareRasterizer struct {
	Workers []*worker
	started bool
}

func NewSoftwareRasterizer(n int) *SoftwareRasterizer {
	if n <= 0 {
		n = 4
	}
	r := &SoftwareRasterizer{Workers: make([]*worker, n)}
	for i := range r.Workers {
		r.Workers[i] = newWorker()
		go r.Workers[i].loop()
	}
	r.started = true
	return r
}

// Stop sets every worker's quit flag and signals its condvar, then returns
// without waiting for the worker goroutines to exit.
func (r *SoftwareRasterizer) Stop() {
	if !r.started {
		return
	}
	for _, w := range r.Workers {
		w.stop()
	}
	r.started = false
}

// Render rasterizes polys into fb, splitting the screen into one
// contiguous strip per worker. tex resolves a polygon's TextureUnit.
func (r *SoftwareRasterizer) Render(fb *Framebuffer, polys []Polygon, params RenderParams, tex func(Polygon) *TextureUnit) {
	fb.Clear()
	n := len(r.Workers)
	stripHeight := (ScreenHeight + n - 1) / n

	for i, w := range r.Workers {
		yMin := i * stripHeight
		yMax := yMin + stripHeight
		if yMax > ScreenHeight {
			yMax = ScreenHeight
		}
		if yMin >= yMax {
			continue
		}
		w.dispatch(yMin, yMax, func(yMin, yMax int) {
			for _, p := range polys {
				rasterizePolygon(fb, p, params, tex(p), yMin, yMax)
			}
		})
	}
	for _, w := range r.Workers {
		w.wait()
	}

	if params.EdgeMarking {
		applyEdgeMarking(fb, params)
	}
}

type screenVertex struct {
	x, y  Fx1220
	depth int32
	w     Fx1612
	color Color4
	uv    [2]Fx1612
}

// project converts a clip-space vertex to screen space per §4.7.
func project(v Vertex, params RenderParams, mode DepthBufferMode) screenVertex {
	w := v.Position[3]
	if w == 0 {
		w = 1
	}
	vpW := NewFx1612(int32(params.ViewportW))
	vpH := NewFx1612(int32(params.ViewportH))
	vpX := NewFx1612(int32(params.ViewportX))
	vpY := NewFx1612(int32(params.ViewportY))

	x := (v.Position[0].Add(w)).Mul(vpW).Div(NewFx1612(2)).Div(w).Add(vpX)
	y := (w.Sub(v.Position[1])).Mul(vpH).Div(NewFx1612(2)).Div(w).Add(vpY)

	var depth int32
	if mode == DepthBufferZ {
		z14 := int64(v.Position[2]) << 14
		d := (z14/int64(w) + 0x3FFF) << 9
		depth = int32(d)
	} else {
		depth = int32(w >> 4)
	}

	return screenVertex{
		x:     Fx1220FromFx1612(x),
		y:     Fx1220FromFx1612(y),
		depth: depth,
		w:     w,
		color: v.Color,
		uv:    v.UV,
	}
}

// edgeWalk advances one side of §4.7's two-edge walk: a sequence of
// polygon edges taken in one rotational direction from the topmost vertex
// toward the bottommost, switching to the next edge once the current
// one's far vertex is passed. Polygons are convex (triangles/quads), so
// vertex y is monotonic along either rotational direction between the
// topmost and bottommost vertex.
type edgeWalk struct {
	verts     []screenVertex
	cur, next int
	end, step int
}

func (w *edgeWalk) advance(y Fx1220) {
	n := len(w.verts)
	for w.cur != w.end && y >= w.verts[w.next].y {
		w.cur = w.next
		if w.cur == w.end {
			break
		}
		w.next = (w.next + w.step + n) % n
	}
}

// sample returns the interpolated vertex at scanline y, its x, and whether
// this edge segment is x-major (|Δx|>|Δy|, per §4.7 - x-major edges fill
// to the next whole x).
func (w *edgeWalk) sample(y Fx1220) (screenVertex, Fx1220, bool) {
	a, b := w.verts[w.cur], w.verts[w.next]
	v := lerpVertex(a, b, edgeT(a, b, y))
	dx, dy := b.x-a.x, b.y-a.y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return v, v.x, dx > dy
}

// rasterizePolygon walks the polygon's two edges (one in each rotational
// direction from the topmost vertex) within [yMin, yMax), writing into fb
// when pixels pass depth/alpha tests. The topmost/bottommost vertex is
// chosen with a strict less-than/greater-than scan, so the first vertex
// reached wins ties on y - matching the reference rasterizer's y_min/y_max
// tracking loop.
func rasterizePolygon(fb *Framebuffer, p Polygon, params RenderParams, tex *TextureUnit, yMin, yMax int) {
	n := len(p.Vertices)
	if n < 3 {
		return
	}
	sv := make([]screenVertex, n)
	for i, v := range p.Vertices {
		sv[i] = project(v, params, params.DepthMode)
	}

	start, end := 0, 0
	for i := 1; i < n; i++ {
		if sv[i].y < sv[start].y {
			start = i
		}
		if sv[i].y > sv[end].y {
			end = i
		}
	}

	fwd := &edgeWalk{verts: sv, cur: start, next: (start + 1) % n, end: end, step: 1}
	rev := &edgeWalk{verts: sv, cur: start, next: (start - 1 + n) % n, end: end, step: -1}

	topY, botY := int(sv[start].y.Int()), int(sv[end].y.Int())
	if topY < yMin {
		topY = yMin
	}
	if botY > yMax {
		botY = yMax
	}

	for y := topY; y < botY; y++ {
		fy := NewFx1220(int64(y))
		fwd.advance(fy)
		rev.advance(fy)
		leftV, leftX, leftXMajor := fwd.sample(fy)
		rightV, rightX, rightXMajor := rev.sample(fy)
		if leftX > rightX {
			leftV, rightV = rightV, leftV
			leftX, rightX = rightX, leftX
			leftXMajor, rightXMajor = rightXMajor, leftXMajor
		}

		lo, hi := int(leftX.Int()), int(rightX.Int())
		if leftXMajor {
			lo--
		}
		if rightXMajor {
			hi++
		}
		if lo < 0 {
			lo = 0
		}
		if hi > ScreenWidth {
			hi = ScreenWidth
		}
		isLastLine := y == ScreenHeight-1
		for x := lo; x < hi; x++ {
			t := spanT(leftX, rightX, x)
			isEdge := x == lo || x == hi-1
			if !isEdge && p.Attr&0x10 != 0 && alphaOf(p) == 0 {
				continue // wireframe: interior skipped
			}
			if isEdge && !(alphaOf(p) != 31 || params.Antialias || params.EdgeMarking || isLastLine) {
				continue
			}
			px := interpolateSpan(leftV, rightV, t)
			plotPixel(fb, p, params, tex, x, y, px)
		}
	}
}

func alphaOf(p Polygon) uint8 { return uint8((p.Attr >> 16) & 0x1F) }

func edgeT(a, b screenVertex, y Fx1220) Fx1220 {
	den := b.y - a.y
	if den == 0 {
		return 0
	}
	return (y - a.y).Div(den)
}

// lerpVertex linearly interpolates screen x/depth/color/uv; perspective
// correction for color/uv is approximated by weighting with 1/w per
// §4.7's t_perp formula.
func lerpVertex(a, b screenVertex, t Fx1220) screenVertex {
	lerp := func(x, y Fx1220) Fx1220 { return x + t.Mul(y-x) }
	wa, wb := a.w, b.w
	var invA, invB Fx1612
	if wa != 0 {
		invA = NewFx1612(1).Div(wa)
	}
	if wb != 0 {
		invB = NewFx1612(1).Div(wb)
	}
	tf := t.ToFx1612()
	invW := invA.Add(tf.Mul(invB.Sub(invA)))
	var w Fx1612
	if invW != 0 {
		w = NewFx1612(1).Div(invW)
	}

	colorLerp := func(ca, cb uint8) uint8 {
		va := NewFx1612(int32(ca)).Mul(invA)
		vb := NewFx1612(int32(cb)).Mul(invB)
		v := va.Add(tf.Mul(vb.Sub(va)))
		return uint8(v.Mul(w).Int())
	}
	uvLerp := func(ua, ub Fx1612) Fx1612 {
		va := ua.Mul(invA)
		vb := ub.Mul(invB)
		v := va.Add(tf.Mul(vb.Sub(va)))
		return v.Mul(w)
	}

	return screenVertex{
		x:     lerp(a.x, b.x),
		y:     lerp(a.y, b.y),
		depth: int32(lerp(NewFx1220(int64(a.depth)), NewFx1220(int64(b.depth))).Int()),
		w:     w,
		color: Color4{colorLerp(a.color.R, b.color.R), colorLerp(a.color.G, b.color.G), colorLerp(a.color.B, b.color.B), colorLerp(a.color.A, b.color.A)},
		uv:    [2]Fx1612{uvLerp(a.uv[0], b.uv[0]), uvLerp(a.uv[1], b.uv[1])},
	}
}

func spanT(xa, xb Fx1220, x int) Fx1220 {
	den := xb - xa
	if den == 0 {
		return 0
	}
	return (NewFx1220(int64(x)) - xa).Div(den)
}

func interpolateSpan(a, b screenVertex, t Fx1220) screenVertex {
	return lerpVertex(a, b, t)
}

// plotPixel implements depth test, polygon shading mode, texture
// combine, alpha test, and blending from §4.7.
func plotPixel(fb *Framebuffer, p Polygon, params RenderParams, tex *TextureUnit, x, y int, v screenVertex) {
	idx := y*ScreenWidth + x

	polyID := uint8((p.Attr >> 24) & 0x3F)
	passed := depthTest(v.depth, fb.Depth[idx], params)
	if !passed {
		mode := PolygonMode((p.Attr >> 4) & 0x3)
		if mode == PolyShadow && polyID == 0 {
			fb.Shadow[idx] = true
		}
		return
	}
	if mode := PolygonMode((p.Attr >> 4) & 0x3); mode == PolyShadow {
		if !fb.Shadow[idx] || fb.OpaquePolyID[idx] == polyID {
			return
		}
	}

	texel := Color4{63, 63, 63, 63}
	if tex != nil && tex.Format != TexNone {
		sx := int(v.uv[0].Int())
		sy := int(v.uv[1].Int())
		texel = tex.Sample(sx, sy)
	}

	final := shade(p, v.color, texel, params)
	if params.AlphaTestEnable && final.A <= params.AlphaTestRef {
		return
	}

	translucent := p.Translucent || final.A < 63
	if translucent {
		if params.BlendEnable && fb.OpaquePolyID[idx] != 0xFF {
			dst := fb.Color[idx]
			if dst.A > 0 {
				final = blend(final, dst)
			}
		}
		if params.TranslucentDepth {
			fb.Depth[idx] = v.depth
		}
		fb.TransPolyID[idx] = polyID
	} else {
		fb.Depth[idx] = v.depth
		fb.OpaquePolyID[idx] = polyID
	}
	fb.Color[idx] = final
	if isEdgeAttr(p) {
		fb.Edge[idx] = true
	}
}

func isEdgeAttr(p Polygon) bool { return p.Attr&0x8000 != 0 }

func depthTest(newDepth, oldDepth int32, params RenderParams) bool {
	switch params.DepthCompare {
	case DepthEqual:
		tol := int32(0x200)
		if params.DepthMode == DepthBufferW {
			tol = 0xFF
		}
		d := newDepth - oldDepth
		if d < 0 {
			d = -d
		}
		return d <= tol
	default:
		return newDepth < oldDepth
	}
}

// shade applies the Modulation/Decal/Shaded combine formulas from §4.7.
func shade(p Polygon, vcol, texel Color4, params RenderParams) Color4 {
	mode := PolygonMode((p.Attr >> 4) & 0x3)
	switch mode {
	case PolyDecal:
		if texel.A == 63 {
			return Color4{texel.R, texel.G, texel.B, vcol.A}
		}
		return vcol
	case PolyShaded:
		toon := params.Toon[vcol.R>>1]
		highlight := params.Highlight
		c := modulateChannels(vcol, texel)
		if highlight {
			return c.clampAdd(toon)
		}
		return Color4{toon.R, toon.G, toon.B, c.A}
	default: // Modulation, Shadow
		return modulateChannels(vcol, texel)
	}
}

func modulateChannels(a, b Color4) Color4 {
	m := func(x, y uint8) uint8 { return uint8(((int(x)+1)*(int(y)+1) - 1) >> 6) }
	return Color4{m(a.R, b.R), m(a.G, b.G), m(a.B, b.B), m(a.A, b.A)}
}

func blend(src, dst Color4) Color4 {
	a := int(src.A)
	bl := func(s, d uint8) uint8 {
		v := (int(s)*a + int(d)*(63-a)) / 63
		return clamp6(v)
	}
	maxA := src.A
	if dst.A > maxA {
		maxA = dst.A
	}
	return Color4{bl(src.R, dst.R), bl(src.G, dst.G), bl(src.B, dst.B), maxA}
}

// applyEdgeMarking runs once after every polygon is drawn: any edge pixel
// whose opaque-poly-id differs from a 4-neighbor (either a nearer
// neighbor, implying one polygon overlaps another, or the clear/rear
// plane at the frame boundary) is recolored from the 8-entry edge palette
// indexed by poly-id>>3, per §4.7.
func applyEdgeMarking(fb *Framebuffer, params RenderParams) {
	neighbors := [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	marks := make([]bool, len(fb.Color))
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			idx := y*ScreenWidth + x
			if !fb.Edge[idx] {
				continue
			}
			for _, d := range neighbors {
				nx, ny := x+d[0], y+d[1]
				var nDepth int32 = 1<<31 - 1
				var nPoly uint8 = 0xFF
				if nx >= 0 && nx < ScreenWidth && ny >= 0 && ny < ScreenHeight {
					nidx := ny*ScreenWidth + nx
					nDepth, nPoly = fb.Depth[nidx], fb.OpaquePolyID[nidx]
				}
				if nPoly == fb.OpaquePolyID[idx] {
					continue
				}
				if nDepth < fb.Depth[idx] || nPoly == 0xFF {
					marks[idx] = true
					break
				}
			}
		}
	}
	for idx, m := range marks {
		if !m {
			continue
		}
		poly := fb.OpaquePolyID[idx]
		fb.Color[idx] = params.EdgePalette[poly>>3]
	}
}
