//go:build headless

// factory_headless.go - Headless device set

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

import "github.com/zoltrix-systems/ndscore/video"

// NewDisplay, NewAudioDevice, and NewInput give cmd/ndscore one build-tag
// switch point instead of three, the same role assert_headless.go's
// counterpart plays for interface satisfaction checks.
func NewDisplay() video.Display   { return NewHeadlessDisplay() }
func NewAudioDevice() AudioDevice { return NewHeadlessAudioDevice() }
func NewInput() InputDevice       { return NewHeadlessInput() }
