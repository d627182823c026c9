//go:build !headless

// factory_ebiten.go - Ebiten-backed device set

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

import "github.com/zoltrix-systems/ndscore/video"

// NewDisplay, NewAudioDevice, and NewInput give cmd/ndscore one build-tag
// switch point instead of three, the same role assert_ebiten.go's
// counterpart plays for interface satisfaction checks.
func NewDisplay() video.Display   { return NewEbitenDisplay() }
func NewAudioDevice() AudioDevice { return NewOtoAudioDevice() }
func NewInput() InputDevice       { return NewEbitenInput() }
