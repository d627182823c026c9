package gpu

import "testing"

func TestDecodeProducesNativeSizedOpaqueImage(t *testing.T) {
	tex := &TextureUnit{
		Format:      TexDirect,
		SizeShiftS:  0, // width = 8
		SizeShiftT:  0, // height = 8
		ReadTexel16: func(int) uint16 { return 0x8000 }, // opaque black
	}
	img := Decode(tex)
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("Decode size = %dx%d, want 8x8", b.Dx(), b.Dy())
	}
	_, _, _, a := img.At(0, 0).RGBA()
	if a == 0 {
		t.Fatal("expected an opaque texel, got fully transparent")
	}
}

func TestThumbnailScalesToRequestedSize(t *testing.T) {
	tex := &TextureUnit{
		Format:      TexDirect,
		SizeShiftS:  0,
		SizeShiftT:  0,
		ReadTexel16: func(int) uint16 { return 0x8000 },
	}
	thumb := Thumbnail(tex, 32, 16)
	if b := thumb.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("Thumbnail size = %dx%d, want 32x16", b.Dx(), b.Dy())
	}
}
