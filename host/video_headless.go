//go:build headless

// video_headless.go - No-window video.Display fallback

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

import (
	"image"
	"sync/atomic"
)

// HeadlessDisplay counts frames instead of presenting them, the same
// role HeadlessVideoOutput plays for the teacher under the `headless`
// build tag (video_backend_headless.go): every build configuration gets
// a working VideoOutput/Display, CI and scripted runs included.
type HeadlessDisplay struct {
	frameCount uint64
}

func NewHeadlessDisplay() *HeadlessDisplay { return &HeadlessDisplay{} }

func (d *HeadlessDisplay) Start() error { return nil }
func (d *HeadlessDisplay) Stop() error  { return nil }

func (d *HeadlessDisplay) Draw(top, bottom *image.RGBA) {
	atomic.AddUint64(&d.frameCount, 1)
}

func (d *HeadlessDisplay) FrameCount() uint64 {
	return atomic.LoadUint64(&d.frameCount)
}
