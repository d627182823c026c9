//go:build !headless

// video_ebiten.go - Ebiten-backed video.Display

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
video_ebiten.go - Ebiten Display

EbitenDisplay stacks the top and bottom screens vertically into one
256x384 window and runs ebiten.RunGame on its own goroutine, the same
"launch RunGame in a goroutine, synchronize the first frame through a
channel" shape video_backend_ebiten.go's EbitenOutput uses - reduced to
what video.Display actually needs (Draw(top, bottom) once per V-blank),
since this repository's screens are already fully rendered images rather
than a raw pixel buffer needing format/scale bookkeeping.
*/

package host

import (
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	screenWidth  = 256
	screenHeight = 192
	defaultScale = 2
)

// EbitenDisplay implements video.Display. ebiten.Game's method set (also
// named Draw, but over *ebiten.Image rather than the pair of *image.RGBA
// video.Display.Draw takes) lives on the unexported game wrapper below
// instead of colliding with it on this type.
type EbitenDisplay struct {
	mu          sync.RWMutex
	top, bottom *ebiten.Image
	ready       chan struct{}
	readyOnce   sync.Once
	running     bool
	scale       int
}

func NewEbitenDisplay() *EbitenDisplay {
	return &EbitenDisplay{ready: make(chan struct{}, 1), scale: defaultScale}
}

// SetScale overrides the window's integer pixel scale; call before Start.
func (d *EbitenDisplay) SetScale(n int) {
	if n > 0 {
		d.scale = n
	}
}

// Start launches the window on its own goroutine and blocks until the
// first Draw call lands, mirroring EbitenOutput.Start's vsyncChan handoff.
func (d *EbitenDisplay) Start() error {
	if d.running {
		return nil
	}
	d.running = true
	ebiten.SetWindowSize(screenWidth*d.scale, screenHeight*2*d.scale)
	ebiten.SetWindowTitle("ndscore")
	ebiten.SetWindowResizable(true)

	go func() {
		if err := ebiten.RunGame(ebitenGame{d}); err != nil {
			fmt.Printf("ebiten error: %v\n", err)
		}
	}()

	<-d.ready
	return nil
}

// Stop marks the display no longer running; ebiten's own window close
// (via Update's Termination return) tears down the goroutine.
func (d *EbitenDisplay) Stop() error {
	d.running = false
	return nil
}

// Draw implements video.Display: it is called once per V-blank from
// video.Unit with the freshly composited top/bottom images.
func (d *EbitenDisplay) Draw(top, bottom *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.top == nil {
		d.top = ebiten.NewImage(screenWidth, screenHeight)
		d.bottom = ebiten.NewImage(screenWidth, screenHeight)
	}
	d.top.WritePixels(top.Pix)
	d.bottom.WritePixels(bottom.Pix)
}

// ebitenGame adapts EbitenDisplay to ebiten.Game.
type ebitenGame struct{ d *EbitenDisplay }

func (g ebitenGame) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	return nil
}

// Draw composites top-above-bottom onto the ebiten-owned screen image.
func (g ebitenGame) Draw(screen *ebiten.Image) {
	d := g.d
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.top == nil {
		return
	}
	var topOp ebiten.DrawImageOptions
	screen.DrawImage(d.top, &topOp)
	var botOp ebiten.DrawImageOptions
	botOp.GeoM.Translate(0, screenHeight)
	screen.DrawImage(d.bottom, &botOp)

	d.readyOnce.Do(func() { d.ready <- struct{}{} })
}

func (g ebitenGame) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight * 2
}
