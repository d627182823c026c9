// compositor.go - Top/bottom screen compositor

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
compositor.go - Compositor

Converts the GPU's 6-bit-per-channel framebuffer into the 8-bit
*image.RGBA host frontends expect and hands the pair of screen images to
whatever Display the host wired up, the same "collect sources, blend,
hand the final frame to the output" shape video_compositor.go implements
for the teacher - reduced here to one source, since the 2D engine's
backgrounds/sprites (the only other compositing input on real hardware)
are out of scope.

The bottom screen has no 2D-engine model in this repository, so it is
presented as a cleared black frame of the same dimensions; Display
implementations still receive two distinct images because that is the
host contract §6 documents.
*/

package video

import (
	"image"

	"github.com/zoltrix-systems/ndscore/gpu"
)

// Display is the host-facing sink a Compositor draws into once per frame
// at V-blank, mirroring §6's VideoDevice::draw(top, bottom) contract.
// Concrete implementations (ebiten-backed, headless) live in package host.
type Display interface {
	Draw(top, bottom *image.RGBA)
}

// Compositor owns the two screen-sized host images and re-fills them from
// a GPU framebuffer each frame rather than allocating anew.
type Compositor struct {
	display Display
	top     *image.RGBA
	bottom  *image.RGBA
}

func NewCompositor(display Display) *Compositor {
	rect := image.Rect(0, 0, gpu.ScreenWidth, gpu.ScreenHeight)
	return &Compositor{
		display: display,
		top:     image.NewRGBA(rect),
		bottom:  image.NewRGBA(rect),
	}
}

// scale6to8 widens a 6-bit (0..63) channel to 8-bit (0..255) by
// replicating the top two bits into the low end, the same bit-replication
// approach RGB555-to-8-bit conversions use to avoid a full-white pixel
// topping out at 252 instead of 255.
func scale6to8(v uint8) uint8 {
	return v<<2 | v>>4
}

// Composite fills the top-screen image from the GPU's rendered
// framebuffer and presents both screens through Display. The bottom
// screen is left cleared since no 2D engine feeds it.
func (c *Compositor) Composite(fb *gpu.Framebuffer) {
	if fb == nil || c.display == nil {
		return
	}
	for i, px := range fb.Color {
		o := i * 4
		c.top.Pix[o+0] = scale6to8(px.R)
		c.top.Pix[o+1] = scale6to8(px.G)
		c.top.Pix[o+2] = scale6to8(px.B)
		c.top.Pix[o+3] = scale6to8(px.A)
	}
	c.display.Draw(c.top, c.bottom)
}
