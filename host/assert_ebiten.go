//go:build !headless

// assert_ebiten.go - Compile-time interface satisfaction checks

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

import "github.com/zoltrix-systems/ndscore/video"

var (
	_ video.Display = (*EbitenDisplay)(nil)
	_ AudioDevice   = (*OtoAudioDevice)(nil)
	_ InputDevice   = EbitenInput{}
)
