//go:build !headless

// debug_clipboard.go - Clipboard export for the debug overlay

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
debug_clipboard.go - Clipboard Export

CopyText lazily initializes golang.design/x/clipboard exactly once, the
same sync.Once-guarded Init()-then-use pattern
video_backend_ebiten.go's handleClipboardPaste uses for paste; this
repository only needs the copy direction (export a register dump or a
framebuffer-derived text snapshot from the debug monitor), not paste.
*/

package host

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardOK   bool
)

func ensureClipboard() bool {
	clipboardOnce.Do(func() {
		clipboardOK = clipboard.Init() == nil
	})
	return clipboardOK
}

// CopyText copies a debug snapshot (register dump, disassembly listing)
// to the OS clipboard. Returns false if no clipboard is available, which
// is routine on headless CI runners and not treated as an error by
// callers.
func CopyText(s string) bool {
	if !ensureClipboard() {
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return true
}
