// snapshot.go - Engine state capture and restore

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
snapshot.go - Engine.Snapshot / Restore

Paired with core.System's own Snapshot/Restore (see core/snapshot.go):
System can't reach into a GPUPort to capture it, so an Engine captures
itself and a caller holding both composes the two. The matrix stacks,
lighting/material state, viewport, and both framebuffers round-trip; the
in-flight GXFIFO/PIPE queue and any polygons already assembled but not
yet rasterized do not, for the same reason System drops pending
scheduler events - they are mid-flight work, not settled state, and
TextureUnit's ReadTexel/ReadTexel16/ReadPalette closures (rebound per
draw call from the live VRAMAccess) can't cross encoding/gob at all.
*/

package gpu

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

type stackSnapshot struct {
	Slots    []Mat4
	SP       int
	Overflow bool
}

func captureStack(s *stack) stackSnapshot {
	return stackSnapshot{Slots: append([]Mat4(nil), s.slots...), SP: s.sp, Overflow: s.overflow}
}

func applyStack(s *stack, snap stackSnapshot) {
	copy(s.slots, snap.Slots)
	s.sp, s.overflow = snap.SP, snap.Overflow
}

type matrixSnapshot struct {
	Mode       MatrixMode
	Projection stackSnapshot
	Modelview  stackSnapshot
	Direction  stackSnapshot
	Texture    stackSnapshot
	Clip       Mat4
}

func captureMatrix(u *MatrixUnit) matrixSnapshot {
	return matrixSnapshot{
		Mode:       u.mode,
		Projection: captureStack(u.projection),
		Modelview:  captureStack(u.modelview),
		Direction:  captureStack(u.direction),
		Texture:    captureStack(u.texture),
		Clip:       u.clip,
	}
}

func applyMatrix(u *MatrixUnit, snap matrixSnapshot) {
	u.mode = snap.Mode
	applyStack(u.projection, snap.Projection)
	applyStack(u.modelview, snap.Modelview)
	applyStack(u.direction, snap.Direction)
	applyStack(u.texture, snap.Texture)
	u.clip = snap.Clip
}

type geometrySnapshot struct {
	Lights      [maxLights]Light
	Material    Material
	VtxColor    Color4
	CurrentUV   [2]Fx1612
	TexTransform uint8

	RenderFrontFace bool
	RenderBackFace  bool
	RenderFarPlane  bool
	PendingAttr     uint32
}

func captureGeometry(g *GeometryEngine) geometrySnapshot {
	return geometrySnapshot{
		Lights: g.lights, Material: g.material, VtxColor: g.vtxColor,
		CurrentUV: g.currentUV, TexTransform: g.texTransform,
		RenderFrontFace: g.RenderFrontFace, RenderBackFace: g.RenderBackFace,
		RenderFarPlane: g.RenderFarPlane, PendingAttr: g.pendingAttr,
	}
}

func applyGeometry(g *GeometryEngine, snap geometrySnapshot) {
	g.lights, g.material, g.vtxColor = snap.Lights, snap.Material, snap.VtxColor
	g.currentUV, g.texTransform = snap.CurrentUV, snap.TexTransform
	g.RenderFrontFace, g.RenderBackFace = snap.RenderFrontFace, snap.RenderBackFace
	g.RenderFarPlane, g.pendingAttr = snap.RenderFarPlane, snap.PendingAttr
}

type textureSnapshot struct {
	VRAMBase          int
	PaletteBase       int
	SizeShiftS        uint8
	SizeShiftT        uint8
	Format            TextureFormat
	WrapS, WrapT      WrapMode
	Color0Transparent bool
}

func captureTexture(t TextureUnit) textureSnapshot {
	return textureSnapshot{
		VRAMBase: t.VRAMBase, PaletteBase: t.PaletteBase,
		SizeShiftS: t.SizeShiftS, SizeShiftT: t.SizeShiftT, Format: t.Format,
		WrapS: t.WrapS, WrapT: t.WrapT, Color0Transparent: t.Color0Transparent,
	}
}

func applyTexture(snap textureSnapshot) TextureUnit {
	return TextureUnit{
		VRAMBase: snap.VRAMBase, PaletteBase: snap.PaletteBase,
		SizeShiftS: snap.SizeShiftS, SizeShiftT: snap.SizeShiftT, Format: snap.Format,
		WrapS: snap.WrapS, WrapT: snap.WrapT, Color0Transparent: snap.Color0Transparent,
	}
}

type framebufferSnapshot struct {
	Color        []Color4
	Depth        []int32
	OpaquePolyID []uint8
	TransPolyID  []uint8
	Shadow       []bool
	Edge         []bool
}

func captureFramebuffer(fb *Framebuffer) framebufferSnapshot {
	return framebufferSnapshot{
		Color:        append([]Color4(nil), fb.Color...),
		Depth:        append([]int32(nil), fb.Depth...),
		OpaquePolyID: append([]uint8(nil), fb.OpaquePolyID...),
		TransPolyID:  append([]uint8(nil), fb.TransPolyID...),
		Shadow:       append([]bool(nil), fb.Shadow...),
		Edge:         append([]bool(nil), fb.Edge...),
	}
}

func applyFramebuffer(fb *Framebuffer, snap framebufferSnapshot) {
	copy(fb.Color, snap.Color)
	copy(fb.Depth, snap.Depth)
	copy(fb.OpaquePolyID, snap.OpaquePolyID)
	copy(fb.TransPolyID, snap.TransPolyID)
	copy(fb.Shadow, snap.Shadow)
	copy(fb.Edge, snap.Edge)
}

// Snapshot captures an Engine's settled state. See the package doc comment
// for what is intentionally excluded.
type Snapshot struct {
	Matrices matrixSnapshot
	Geo      geometrySnapshot
	Tex      textureSnapshot
	Params   RenderParams

	GXSTATError bool
	SwapPending bool
	ViewportX   int
	ViewportY   int
	ViewportW   int
	ViewportH   int

	Front framebufferSnapshot
	Back  framebufferSnapshot
}

func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Matrices: captureMatrix(e.Matrices),
		Geo:      captureGeometry(e.Geo),
		Tex:      captureTexture(e.currentTex),
		Params:   e.params,

		GXSTATError: e.gxstatError,
		SwapPending: e.swapPending,
		ViewportX:   e.viewportX, ViewportY: e.viewportY,
		ViewportW: e.viewportW, ViewportH: e.viewportH,

		Front: captureFramebuffer(e.front),
		Back:  captureFramebuffer(e.back),
	}
}

func (e *Engine) Restore(snap *Snapshot) error {
	if len(snap.Front.Color) != len(e.front.Color) {
		return fmt.Errorf("snapshot framebuffer size %d does not match engine's %d", len(snap.Front.Color), len(e.front.Color))
	}

	applyMatrix(e.Matrices, snap.Matrices)
	applyGeometry(e.Geo, snap.Geo)
	e.currentTex = applyTexture(snap.Tex)
	e.params = snap.Params

	e.gxstatError = snap.GXSTATError
	e.swapPending = snap.SwapPending
	e.viewportX, e.viewportY = snap.ViewportX, snap.ViewportY
	e.viewportW, e.viewportH = snap.ViewportW, snap.ViewportH

	applyFramebuffer(e.front, snap.Front)
	applyFramebuffer(e.back, snap.Back)

	e.queue.reset()
	e.Geo.Polygons = nil
	return nil
}

// Encode gob-encodes the snapshot for storage alongside a core.Snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encoding GPU snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding GPU snapshot: %w", err)
	}
	return &s, nil
}
