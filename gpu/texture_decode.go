// texture_decode.go - Texture-to-image conversion for the debug viewer

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
texture_decode.go - Decode, Thumbnail

TextureUnit.Sample already performs full format decode per-texel for the
rasterizer's own use; this file exists purely to hand that same decoded
data to something that can display it outside the render pipeline (a
debug texture viewer), the same role golang.org/x/image/draw plays for
the teacher nowhere directly (the teacher has no texture viewer), but the
rest of the retrieval pack's emulator repos use x/image/draw for exactly
this "indexed/paletted emulator surface onto a host image.Image" need, so
that is the shape followed here: build an *image.RGBA once per call from
Sample, then let draw.Draw do any scaling a caller wants rather than
hand-rolling a second nearest-neighbor scaler next to the rasterizer's.
*/

package gpu

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Decode renders every texel of t into a host-displayable RGBA image, in
// the texture's native width/height, for the debug texture viewer.
func Decode(t *TextureUnit) *image.RGBA {
	w, h := t.width(), t.height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := t.Sample(x, y)
			img.Set(x, y, color.RGBA{
				R: scale6to8Texel(c.R),
				G: scale6to8Texel(c.G),
				B: scale6to8Texel(c.B),
				A: scale6to8Texel(c.A),
			})
		}
	}
	return img
}

// Thumbnail scales a decoded texture to the requested size with
// nearest-neighbor sampling, matching the blocky look real hardware's
// point-sampled textures have rather than introducing a softening filter
// the console itself never applies.
func Thumbnail(t *TextureUnit, width, height int) *image.RGBA {
	src := Decode(t)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// scale6to8Texel widens a 6-bit (0..63) channel to 8-bit by replicating
// the top two bits into the low end, the same conversion video/compositor.go
// applies to rasterized framebuffer pixels.
func scale6to8Texel(v uint8) uint8 {
	return v<<2 | v>>4
}
