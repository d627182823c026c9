// engine.go - Engine: ties the command queue, geometry, and rasterizer together

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
engine.go - Engine

Engine implements core.GPUPort: the MMIO-facing surface System's IO
dispatcher calls into. It owns the command queue, the matrix/geometry
pipeline, double-buffered framebuffers, and either a SoftwareRasterizer or
a HardwareRasterizer picked at construction, mirroring the teacher's
VoodooBackend interface split (software vs Vulkan, same call surface)
generalized to this pipeline's two-stage command processing model.
*/

package gpu

// Rasterizer is the surface Engine needs from either backend.
type Rasterizer interface {
	Render(fb *Framebuffer, polys []Polygon, params RenderParams, tex func(Polygon) *TextureUnit)
	Stop()
}

// VRAMAccess is the minimal read surface Engine needs from the memory
// system to sample textures and palettes; *mem.Controller satisfies it
// directly and cmd/ndscore passes System.VRAM in as is.
type VRAMAccess interface {
	ReadTexel(offset int) uint8
	ReadTexel16(offset int) uint16
	ReadPalette(index int) uint16
}

type Engine struct {
	Matrices *MatrixUnit
	Geo      *GeometryEngine
	queue    *commandQueue
	raster   Rasterizer
	vram     VRAMAccess

	front, back *Framebuffer
	params      RenderParams

	currentTex TextureUnit

	gxstatError bool
	swapPending bool
	onSwap      func()

	viewportX, viewportY, viewportW, viewportH int
}

func NewEngine(raster Rasterizer, vram VRAMAccess) *Engine {
	mu := NewMatrixUnit()
	e := &Engine{
		Matrices: mu,
		Geo:      NewGeometryEngine(mu),
		queue:    newCommandQueue(),
		raster:   raster,
		vram:     vram,
		front:    NewFramebuffer(),
		back:     NewFramebuffer(),
		viewportW: ScreenWidth, viewportH: ScreenHeight,
	}
	e.params = RenderParams{ViewportW: ScreenWidth, ViewportH: ScreenHeight}
	e.Geo.OnAssemble = func(p *Polygon) { p.Tex = e.currentTex }
	return e
}

func (e *Engine) Reset() {
	e.Matrices.Reset()
	e.Geo.Reset()
	e.queue.reset()
	e.front.Clear()
	e.back.Clear()
}

// WriteFIFO handles a write to the packed command register (REG_GXFIFO).
func (e *Engine) WriteFIFO(word uint32) { e.queue.feedWord(word, true) }

// WritePort handles a write to one of the per-command MMIO ports; offset
// is the byte offset from 0x04000440 and identifies the command id
// (0x10 + offset/4). A zero-argument command is queued on any write; for
// other commands each write supplies the next argument word.
func (e *Engine) WritePort(offset uint32, value uint32) {
	id := uint8(0x10 + offset/4)
	if argCounts[id] == 0 {
		e.queue.startCommand(id)
		return
	}
	if e.queue.pendingLen == 0 || e.queue.pendingID != id {
		e.queue.startCommand(id)
	}
	e.queue.feedWord(value, false)
}

// ReadGXSTAT packs FIFO occupancy, the error flag, and busy state into the
// GXSTAT layout the spec's register table describes.
func (e *Engine) ReadGXSTAT() uint32 {
	var v uint32
	v |= uint32(e.queue.occupancy() & 0x1FF) << 16
	if e.queue.wasBelowHalf() {
		v |= 1 << 25
	}
	if e.queue.empty() {
		v |= 1 << 26
	}
	if e.Matrices.ErrorFlag() || e.gxstatError {
		v |= 1 << 15
		e.gxstatError = false
	}
	return v
}

func (e *Engine) WriteGXSTAT(value uint32) {
	e.queue.setIRQMode(IRQMode((value >> 30) & 0x3))
	if value&(1<<15) != 0 {
		e.gxstatError = false
	}
}

// ReadClipMatrix returns one of the 16 entries of the current clip matrix.
func (e *Engine) ReadClipMatrix(reg int) uint32 {
	if reg < 0 || reg >= 16 {
		return 0
	}
	return uint32(e.Matrices.ClipMatrix()[reg].Raw())
}

func (e *Engine) OnSwapBuffers(f func()) { e.onSwap = f }

// WriteDISP3DCNT applies the 3D engine control register's shading/alpha-
// test/alpha-blend/antialias/edge-marking bits to the next frame's render
// parameters; texture mapping and fog bits have no modeled effect here.
func (e *Engine) WriteDISP3DCNT(v uint16) {
	e.params.Highlight = v&(1<<1) != 0
	e.params.AlphaTestEnable = v&(1<<2) != 0
	e.params.BlendEnable = v&(1<<3) != 0
	e.params.Antialias = v&(1<<4) != 0
	e.params.EdgeMarking = v&(1<<5) != 0
}

// WriteAlphaTestRef sets the 5-bit alpha-test reference value §4.7's
// alpha test compares each pixel's final alpha against.
func (e *Engine) WriteAlphaTestRef(v uint8) { e.params.AlphaTestRef = v & 0x1F }

// WriteEdgeColor sets one of the 8 edge-marking palette entries selected
// by a polygon's poly-id>>3, indexed 0-7.
func (e *Engine) WriteEdgeColor(idx int, v uint16) {
	if idx < 0 || idx >= len(e.params.EdgePalette) {
		return
	}
	e.params.EdgePalette[idx] = rgb555To6(v)
}

// WriteToonTable sets one of the 32 toon/highlight table entries, indexed
// by a shaded vertex's red channel (vcol.R>>1).
func (e *Engine) WriteToonTable(idx int, v uint16) {
	if idx < 0 || idx >= len(e.params.Toon) {
		return
	}
	e.params.Toon[idx] = rgb555To6(v)
}

// Step executes one GXFIFO command, the "1 scheduler cycle per command"
// pacing from §4.5; SwapBuffers is instead latched and actually performed
// by Present at the next V-blank.
func (e *Engine) Step() {
	c, ok := e.queue.pop()
	if !ok {
		return
	}
	e.execute(c)
}

func (e *Engine) execute(c gxCommand) {
	a := c.args
	switch c.id {
	case cmdSetMatrixMode:
		e.Matrices.SetMode(MatrixMode(a[0] & 0x3))
	case cmdPushMatrix:
		e.Matrices.Push()
	case cmdPopMatrix:
		e.Matrices.Pop(int(int8(a[0]<<2) >> 2))
	case cmdStoreMatrix:
		e.Matrices.Store(int(a[0] & 0x1F))
	case cmdRestoreMatrix:
		e.Matrices.Restore(int(a[0] & 0x1F))
	case cmdIdentity:
		e.Matrices.Load(Identity())
	case cmdLoad4x4:
		e.Matrices.Load(matFromRaw16(a))
	case cmdLoad4x3:
		e.Matrices.Load(matFromRaw12(a))
	case cmdMul4x4:
		e.Matrices.MultiplyCurrent(matFromRaw16(a))
	case cmdMul4x3:
		e.Matrices.MultiplyCurrent(matFromRaw12(a))
	case cmdMul3x3:
		e.Matrices.MultiplyCurrent(matFromRaw9(a))
	case cmdScale:
		m := Identity()
		m[0], m[5], m[10] = Fx1612FromRaw(int32(a[0])), Fx1612FromRaw(int32(a[1])), Fx1612FromRaw(int32(a[2]))
		e.Matrices.MultiplyCurrent(m)
	case cmdTranslate:
		m := Identity()
		m[3], m[7], m[11] = Fx1612FromRaw(int32(a[0])), Fx1612FromRaw(int32(a[1])), Fx1612FromRaw(int32(a[2]))
		e.Matrices.MultiplyCurrent(m)
	case cmdSetColor:
		e.Geo.SetColor(uint16(a[0]))
	case cmdSetNormal:
		e.Geo.SetNormal(unpack10(a[0]))
	case cmdSetTexCoord:
		s := Fx1612FromRaw(int32(int16(a[0])))
		t := Fx1612FromRaw(int32(int16(a[0] >> 16)))
		e.Geo.SetTexCoord(s, t)
	case cmdVtx16:
		x := Fx1612FromRaw(int32(int16(a[0])))
		y := Fx1612FromRaw(int32(int16(a[0] >> 16)))
		z := Fx1612FromRaw(int32(int16(a[1])))
		e.Geo.Submit(Vec3{x, y, z})
	case cmdVtx10:
		e.Geo.Submit(unpack10(a[0]))
	case cmdVtxXY:
		x := Fx1612FromRaw(int32(int16(a[0])))
		y := Fx1612FromRaw(int32(int16(a[0] >> 16)))
		e.Geo.Submit(Vec3{x, y, 0})
	case cmdVtxXZ:
		x := Fx1612FromRaw(int32(int16(a[0])))
		z := Fx1612FromRaw(int32(int16(a[0] >> 16)))
		e.Geo.Submit(Vec3{x, 0, z})
	case cmdVtxYZ:
		y := Fx1612FromRaw(int32(int16(a[0])))
		z := Fx1612FromRaw(int32(int16(a[0] >> 16)))
		e.Geo.Submit(Vec3{0, y, z})
	case cmdVtxDiff:
		// relative vertex, 10-bit signed deltas per axis - applied against
		// no tracked "last vertex" position in this minimal front end, so
		// treated as an absolute small-range submit.
		e.Geo.Submit(unpack10(a[0]))
	case cmdPolygonAttr:
		e.Geo.SetPolygonAttr(a[0])
	case cmdTexImageParam:
		e.applyTexImageParam(a[0])
	case cmdTexPaletteBase:
		e.currentTex.PaletteBase = int(a[0]&0x1FFF) * 16
	case cmdMaterial0:
		e.Geo.material.Diffuse = rgb555To6(uint16(a[0]))
		e.Geo.material.Ambient = rgb555To6(uint16(a[0] >> 16))
	case cmdMaterial1:
		e.Geo.material.Specular = rgb555To6(uint16(a[0]))
		e.Geo.material.Emissive = rgb555To6(uint16(a[0] >> 16))
	case cmdLightVector:
		idx := (a[0] >> 30) & 0x3
		e.Geo.SetLight(int(idx), true, unpack10(a[0]))
	case cmdLightColor:
		idx := (a[0] >> 30) & 0x3
		e.Geo.SetLightColor(int(idx), rgb555To6(uint16(a[0])))
	case cmdBeginVtxs:
		e.Geo.Begin(PrimitiveKind(a[0] & 0x3))
	case cmdEndVtxs:
		// no-op: strip/fan state already resets on the next Begin
	case cmdSwapBuffers:
		e.params.TranslucentDepth = a[0]&(1<<1) != 0
		if a[0]&1 != 0 {
			e.params.DepthMode = DepthBufferW
		} else {
			e.params.DepthMode = DepthBufferZ
		}
		e.swapPending = true
	case cmdViewport:
		e.viewportX = int(a[0] & 0xFF)
		e.viewportY = int((a[0] >> 8) & 0xFF)
		e.viewportW = int((a[0]>>16)&0xFF) - e.viewportX + 1
		e.viewportH = ScreenHeight - int((a[0]>>24)&0xFF) - e.viewportY
		e.params.ViewportX, e.params.ViewportY = e.viewportX, e.viewportY
		e.params.ViewportW, e.params.ViewportH = e.viewportW, e.viewportH
	}
}

func matFromRaw16(a []uint32) Mat4 {
	var m Mat4
	for i := 0; i < 16; i++ {
		m[i] = Fx1612FromRaw(int32(a[i]))
	}
	return transposeLoad(m)
}

func matFromRaw12(a []uint32) Mat4 {
	m := Identity()
	for i := 0; i < 12; i++ {
		r, c := i/3, i%3
		m[r*4+c] = Fx1612FromRaw(int32(a[i]))
	}
	return transposeLoad(m)
}

func matFromRaw9(a []uint32) Mat4 {
	m := Identity()
	for i := 0; i < 9; i++ {
		r, c := i/3, i%3
		m[r*4+c] = Fx1612FromRaw(int32(a[i]))
	}
	return transposeLoad(m)
}

// transposeLoad corrects for the GXFIFO's column-major wire order versus
// this package's row-major Mat4 storage.
func transposeLoad(m Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = m[c*4+r]
		}
	}
	return out
}

// unpack10 decodes three signed 10-bit fields packed into a 32-bit word,
// the VTX_10/NORMAL/LIGHT_VECTOR common encoding, each widened to 20.12.
func unpack10(word uint32) Vec3 {
	extract := func(shift uint) Fx1612 {
		v := int32(word>>shift) & 0x3FF
		if v&0x200 != 0 {
			v |= ^int32(0x3FF)
		}
		return Fx1612FromRaw(v << 3)
	}
	return Vec3{extract(0), extract(10), extract(20)}
}

func (e *Engine) applyTexImageParam(word uint32) {
	e.Geo.texTransform = uint8((word >> 30) & 0x3)
	e.currentTex.VRAMBase = int(word&0xFFFF) * 8
	e.currentTex.SizeShiftS = uint8((word >> 20) & 0x7)
	e.currentTex.SizeShiftT = uint8((word >> 23) & 0x7)
	e.currentTex.Format = TextureFormat((word >> 26) & 0x7)
	e.currentTex.Color0Transparent = word&(1<<29) != 0
	wrapS := word&(1<<16) != 0
	flipS := word&(1<<18) != 0
	if wrapS && flipS {
		e.currentTex.WrapS = WrapFlip
	} else if wrapS {
		e.currentTex.WrapS = WrapRepeat
	} else {
		e.currentTex.WrapS = WrapClamp
	}
	wrapT := word&(1<<17) != 0
	flipT := word&(1<<19) != 0
	if wrapT && flipT {
		e.currentTex.WrapT = WrapFlip
	} else if wrapT {
		e.currentTex.WrapT = WrapRepeat
	} else {
		e.currentTex.WrapT = WrapClamp
	}
}

// Present swaps front/back framebuffers if a swap was requested, then
// rasterizes the accumulated polygon list into the (new) back buffer for
// the following frame; called by the video unit at V-blank.
func (e *Engine) Present() *Framebuffer {
	if e.swapPending {
		e.front, e.back = e.back, e.front
		e.swapPending = false
		if e.onSwap != nil {
			e.onSwap()
		}
	}
	polys := e.Geo.Polygons
	e.Geo.Polygons = nil

	readTexel := func(off int) uint8 { return e.vram.ReadTexel(off) }
	readTexel16 := func(off int) uint16 { return e.vram.ReadTexel16(off) }
	readPalette := func(i int) uint16 { return e.vram.ReadPalette(i) }
	for i := range polys {
		polys[i].Tex.ReadTexel = readTexel
		polys[i].Tex.ReadTexel16 = readTexel16
		polys[i].Tex.ReadPalette = readPalette
	}

	e.raster.Render(e.back, polys, e.params, func(p Polygon) *TextureUnit { return &p.Tex })
	return e.front
}
