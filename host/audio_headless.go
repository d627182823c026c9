//go:build headless

// audio_headless.go - No-sink AudioDevice fallback

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

// HeadlessAudioDevice discards Open/Close, the same stand-in role
// audio_backend_headless.go's OtoPlayer plays under the headless tag.
type HeadlessAudioDevice struct {
	open bool
}

func NewHeadlessAudioDevice() *HeadlessAudioDevice { return &HeadlessAudioDevice{} }

func (a *HeadlessAudioDevice) Open(sampleRate, blockSize int, callback func([]byte)) error {
	a.open = true
	return nil
}

func (a *HeadlessAudioDevice) Close() error {
	a.open = false
	return nil
}
