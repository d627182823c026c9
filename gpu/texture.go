// texture.go - Texture format decode and sampling

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
texture.go - TextureUnit

Samples texture VRAM per §4.7's format table. Compressed4x4 is the one
format needing a second lookup (a 16-bit "info" word per 4x4 block
selecting one of four palette-interpolation modes), modeled the way the
teacher's voodoo_software.go keeps per-texel lookups as small local
helper functions rather than a generic "decoder" abstraction.
*/

package gpu

// TextureFormat selects how TextureUnit.Sample interprets texel bits.
type TextureFormat uint8

const (
	TexNone TextureFormat = iota
	TexA3I5
	TexPalette4
	TexPalette16
	TexPalette256
	TexCompressed4x4
	TexA5I3
	TexDirect
)

// WrapMode is the per-axis out-of-bounds behavior.
type WrapMode uint8

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapFlip // repeat honoring the flip-on-odd-tile bit
)

type TextureUnit struct {
	VRAMBase    int
	PaletteBase int
	SizeShiftS  uint8 // width = 8 << SizeShiftS
	SizeShiftT  uint8
	Format      TextureFormat
	WrapS, WrapT WrapMode
	Color0Transparent bool

	ReadTexel   func(offset int) uint8
	ReadTexel16 func(offset int) uint16
	ReadPalette func(index int) uint16 // RGB555
}

func (t *TextureUnit) width() int  { return 8 << t.SizeShiftS }
func (t *TextureUnit) height() int { return 8 << t.SizeShiftT }

func wrapCoord(c, size int, mode WrapMode) int {
	if c >= 0 && c < size {
		return c
	}
	switch mode {
	case WrapClamp:
		if c < 0 {
			return 0
		}
		return size - 1
	case WrapRepeat, WrapFlip:
		tile := c / size
		m := c % size
		if m < 0 {
			m += size
			tile--
		}
		if mode == WrapFlip && tile&1 != 0 {
			m = size - 1 - m
		}
		return m
	}
	return 0
}

// Sample reads one texel as a straight 6-bit-channel Color4 with an 8-bit
// alpha folded to 5 bits where the format defines one, per §4.7's format
// table. None returns white with alpha 0 (transparent white), so
// blending drops it.
func (t *TextureUnit) Sample(s, u int) Color4 {
	w, h := t.width(), t.height()
	x := wrapCoord(s, w, t.WrapS)
	y := wrapCoord(u, h, t.WrapT)

	switch t.Format {
	case TexNone:
		return Color4{63, 63, 63, 0}
	case TexA3I5:
		raw := t.ReadTexel(t.VRAMBase + y*w + x)
		idx := raw & 0x1F
		alpha3 := (raw >> 5) & 0x7
		c := rgb555To6(t.ReadPalette(t.PaletteBase + int(idx)))
		c.A = scaleAlpha3(alpha3)
		return c
	case TexA5I3:
		raw := t.ReadTexel(t.VRAMBase + y*w + x)
		idx := raw & 0x7
		alpha5 := (raw >> 3) & 0x1F
		c := rgb555To6(t.ReadPalette(t.PaletteBase + int(idx)))
		c.A = alpha5 * 2
		return c
	case TexPalette4, TexPalette16, TexPalette256:
		idx := t.paletteIndex(x, y, w)
		c := rgb555To6(t.ReadPalette(t.PaletteBase + idx))
		if idx == 0 && t.Color0Transparent {
			c.A = 0
		} else {
			c.A = 63
		}
		return c
	case TexCompressed4x4:
		return t.sampleCompressed(x, y, w)
	case TexDirect:
		raw := t.ReadTexel16(t.VRAMBase + (y*w+x)*2)
		c := rgb555To6(raw)
		if raw&0x8000 == 0 {
			c.A = 0
		} else {
			c.A = 63
		}
		return c
	}
	return Color4{}
}

func scaleAlpha3(a3 uint8) uint8 {
	// 3-bit alpha maps to 5-bit range via (a*4+a)/4-ish hardware curve;
	// approximated with the documented a>0 ? a*4+3 : 0 table shape.
	if a3 == 0 {
		return 0
	}
	return a3*4 + 3
}

func (t *TextureUnit) paletteIndex(x, y, w int) int {
	switch t.Format {
	case TexPalette4:
		byteVal := t.ReadTexel(t.VRAMBase + (y*w+x)/4)
		shift := uint((x % 4) * 2)
		return int((byteVal >> shift) & 0x3)
	case TexPalette16:
		byteVal := t.ReadTexel(t.VRAMBase + (y*w+x)/2)
		shift := uint((x % 2) * 4)
		return int((byteVal >> shift) & 0xF)
	case TexPalette256:
		return int(t.ReadTexel(t.VRAMBase + y*w + x))
	}
	return 0
}

// sampleCompressed decodes one texel of the 4x4 block-compressed format:
// 2 bits per texel select among four colors, the specific four depending
// on a companion 16-bit info word per block.
func (t *TextureUnit) sampleCompressed(x, y, w int) Color4 {
	blockX, blockY := x/4, y/4
	blocksPerRow := w / 4
	blockIdx := blockY*blocksPerRow + blockX
	blockOffset := t.VRAMBase + blockIdx*4

	row := t.ReadTexel(blockOffset + y%4)
	shift := uint((x % 4) * 2)
	idx2 := (row >> shift) & 0x3

	infoOffset := t.VRAMBase + (w/4)*(4)*blocksPerRow + blockIdx*2
	info := t.ReadTexel16(infoOffset)
	paletteAddr := int(info & 0x3FFF)
	mode := (info >> 14) & 0x3

	base := t.PaletteBase + paletteAddr*2
	c0 := rgb555To6(t.ReadPalette(base + 0))
	c1 := rgb555To6(t.ReadPalette(base + 1))

	switch mode {
	case 0:
		colors := [4]Color4{c0, c1, rgb555To6(t.ReadPalette(base + 2)), rgb555To6(t.ReadPalette(base + 3))}
		c := colors[idx2]
		c.A = 63
		return c
	case 1:
		mid := blendHalf(c0, c1)
		colors := [4]Color4{c0, c1, mid, {0, 0, 0, 0}}
		c := colors[idx2]
		if idx2 == 3 {
			return Color4{0, 0, 0, 0}
		}
		c.A = 63
		return c
	case 2:
		colors := [4]Color4{c0, c1, rgb555To6(t.ReadPalette(base + 2)), rgb555To6(t.ReadPalette(base + 3))}
		c := colors[idx2]
		c.A = 63
		return c
	default:
		mid58 := blendWeighted(c0, c1, 5, 3)
		mid38 := blendWeighted(c0, c1, 3, 5)
		colors := [4]Color4{c0, c1, mid58, mid38}
		c := colors[idx2]
		c.A = 63
		return c
	}
}

func blendHalf(a, b Color4) Color4 {
	return Color4{
		uint8((int(a.R) + int(b.R)) / 2),
		uint8((int(a.G) + int(b.G)) / 2),
		uint8((int(a.B) + int(b.B)) / 2),
		63,
	}
}

func blendWeighted(a, b Color4, wa, wb int) Color4 {
	mix := func(x, y uint8) uint8 { return uint8((int(x)*wa + int(y)*wb) / 8) }
	return Color4{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 63}
}
