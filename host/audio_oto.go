//go:build !headless

// audio_oto.go - OTO v3 audio sink

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
audio_oto.go - OTO Audio Device

Implements AudioDevice's open/close/callback lifecycle over
github.com/ebitengine/oto/v3, following OtoPlayer's "oto.Context plus a
Read(p []byte) implementation fed to ctx.NewPlayer" shape
(audio_backend_oto.go) but pulling samples through the caller-supplied
callback directly rather than through a SoundChip ring buffer, since this
repository's APU sample generation is explicitly out of scope (§1) - only
the sink lifecycle is this package's job.
*/

package host

import (
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoAudioDevice implements AudioDevice.
type OtoAudioDevice struct {
	ctx      *oto.Context
	player   *oto.Player
	callback atomic.Pointer[func([]byte)]
}

func NewOtoAudioDevice() *OtoAudioDevice { return &OtoAudioDevice{} }

// Open stands up an oto context at the given rate and starts pulling
// through callback immediately; blockSize is not used, since oto itself
// governs actual buffering and sizes each read.
func (a *OtoAudioDevice) Open(sampleRate, blockSize int, callback func([]byte)) error {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return err
	}
	<-ready

	a.ctx = ctx
	a.callback.Store(&callback)
	a.player = ctx.NewPlayer(a)
	a.player.Play()
	return nil
}

// Read implements io.Reader for oto.Player, forwarding to the callback
// supplied to Open.
func (a *OtoAudioDevice) Read(p []byte) (int, error) {
	cb := a.callback.Load()
	if cb == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	(*cb)(p)
	return len(p), nil
}

func (a *OtoAudioDevice) Close() error {
	if a.player != nil {
		return a.player.Close()
	}
	return nil
}
