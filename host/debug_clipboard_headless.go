//go:build headless

// debug_clipboard_headless.go - No-clipboard fallback

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

package host

// CopyText always reports failure headlessly; there is no OS clipboard
// to copy into.
func CopyText(s string) bool { return false }
