//go:build headless

package host

import "testing"

func TestHeadlessDisplayCountsFrames(t *testing.T) {
	d := NewHeadlessDisplay()
	d.Draw(nil, nil)
	d.Draw(nil, nil)
	if d.FrameCount() != 2 {
		t.Fatalf("frame count = %d, want 2", d.FrameCount())
	}
}

func TestHeadlessInputReportsNoButtonsOrTouch(t *testing.T) {
	in := NewHeadlessInput()
	if in.Poll(KeyA) {
		t.Fatal("expected every button released headlessly")
	}
	if _, _, pressed := in.TouchPoint(); pressed {
		t.Fatal("expected no touch contact headlessly")
	}
}

func TestHeadlessAudioDeviceOpenCloseRoundTrips(t *testing.T) {
	a := NewHeadlessAudioDevice()
	if err := a.Open(32768, 512, func([]byte) {}); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestCopyTextFailsHeadlessly(t *testing.T) {
	if CopyText("hello") {
		t.Fatal("expected CopyText to report failure with no OS clipboard")
	}
}
