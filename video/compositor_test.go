package video

import (
	"image"
	"testing"

	"github.com/zoltrix-systems/ndscore/gpu"
)

type captureDisplay struct {
	top, bottom *image.RGBA
	calls       int
}

func (c *captureDisplay) Draw(top, bottom *image.RGBA) {
	c.top, c.bottom = top, bottom
	c.calls++
}

func TestCompositeScalesSixBitChannelsToEightBit(t *testing.T) {
	disp := &captureDisplay{}
	c := NewCompositor(disp)

	fb := gpu.NewFramebuffer()
	fb.Color[0] = gpu.Color4{R: 63, G: 0, B: 31, A: 63}

	c.Composite(fb)

	if disp.calls != 1 {
		t.Fatalf("expected Draw called once, got %d", disp.calls)
	}
	px := disp.top.Pix[0:4]
	if px[0] != 255 {
		t.Fatalf("R = %d, want 255 for max 6-bit input", px[0])
	}
	if px[1] != 0 {
		t.Fatalf("G = %d, want 0", px[1])
	}
	if px[3] != 255 {
		t.Fatalf("A = %d, want 255 for max 6-bit input", px[3])
	}
}

func TestCompositeIgnoresNilFramebuffer(t *testing.T) {
	disp := &captureDisplay{}
	c := NewCompositor(disp)
	c.Composite(nil)
	if disp.calls != 0 {
		t.Fatal("expected no Draw call for a nil framebuffer")
	}
}
