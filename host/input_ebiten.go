//go:build !headless

// input_ebiten.go - Ebiten-backed InputDevice

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
input_ebiten.go - Ebiten Input

Maps NDS keypad buttons onto a host keyboard layout and the touchscreen
onto the mouse while the left button is held, following
video_backend_ebiten.go's handleKeyboardInput's direct
ebiten.IsKeyPressed polling style - reduced from that file's terminal
byte-emission path (this repository has no terminal keyboard frontend) to
a plain per-button boolean query, matching §6's InputDevice::poll(Key)
contract.
*/

package host

import "github.com/hajimehoshi/ebiten/v2"

// EbitenInput implements InputDevice.
type EbitenInput struct{}

func NewEbitenInput() EbitenInput { return EbitenInput{} }

func keyMapping(k Key) ebiten.Key {
	switch k {
	case KeyA:
		return ebiten.KeyX
	case KeyB:
		return ebiten.KeyZ
	case KeySelect:
		return ebiten.KeyShiftRight
	case KeyStart:
		return ebiten.KeyEnter
	case KeyRight:
		return ebiten.KeyArrowRight
	case KeyLeft:
		return ebiten.KeyArrowLeft
	case KeyUp:
		return ebiten.KeyArrowUp
	case KeyDown:
		return ebiten.KeyArrowDown
	case KeyR:
		return ebiten.KeyS
	case KeyL:
		return ebiten.KeyA
	case KeyX:
		return ebiten.KeyW
	case KeyY:
		return ebiten.KeyQ
	default:
		return ebiten.Key(-1)
	}
}

func (EbitenInput) Poll(k Key) bool {
	return ebiten.IsKeyPressed(keyMapping(k))
}

func (EbitenInput) TouchPoint() (x, y int, pressed bool) {
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		return 0, 0, false
	}
	mx, my := ebiten.CursorPosition()
	if my < screenHeight {
		return 0, 0, false
	}
	return mx, my - screenHeight, true
}
