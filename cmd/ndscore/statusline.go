// statusline.go - Raw-mode terminal status line and quit key

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
statusline.go - StatusLine

Mirrors terminal_host.go's shape: put stdin in raw mode, read single bytes
non-blocking in a goroutine, restore the terminal on Stop. Reduced to what
a CLI emulator front end needs instead of an MMIO-fed terminal device -
one quit key ('q') and a single refreshing status line printed over
stdout, rather than routing bytes into a TERM_IN register.
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// StatusLine prints a single refreshing line of run state and watches for
// a 'q' keypress to request shutdown. It is a no-op everywhere stdin isn't
// an interactive terminal (redirected input, CI, headless scripted runs).
type StatusLine struct {
	fd       int
	active   bool
	oldState *term.State
	quit     chan struct{}
	quitOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStatusLine puts stdin into raw mode if it is a terminal. Quit()
// reports whether the user pressed 'q'.
func NewStatusLine() *StatusLine {
	s := &StatusLine{quit: make(chan struct{}), stop: make(chan struct{}), done: make(chan struct{})}
	s.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(s.fd) {
		close(s.done)
		return s
	}
	oldState, err := term.MakeRaw(s.fd)
	if err != nil {
		close(s.done)
		return s
	}
	s.oldState = oldState
	s.active = true

	if err := syscall.SetNonblock(s.fd, true); err != nil {
		_ = term.Restore(s.fd, s.oldState)
		s.active = false
		close(s.done)
		return s
	}

	go s.readLoop()
	return s
}

func (s *StatusLine) readLoop() {
	defer close(s.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		n, err := syscall.Read(s.fd, buf)
		if n > 0 && (buf[0] == 'q' || buf[0] == 'Q' || buf[0] == 0x03) {
			s.quitOnce.Do(func() { close(s.quit) })
			return
		}
		if err != nil && err != syscall.EAGAIN {
			return
		}
	}
}

// Quit is closed when the user requests shutdown from the terminal.
func (s *StatusLine) Quit() <-chan struct{} { return s.quit }

// Printf overwrites the current line with a freshly formatted status,
// ANSI-clearing the rest of the row first (raw mode disables the
// terminal's own line-wrap/erase behavior).
func (s *StatusLine) Printf(format string, args ...any) {
	if !s.active {
		return
	}
	fmt.Printf("\r\033[K"+format, args...)
}

// Stop restores the terminal to cooked mode.
func (s *StatusLine) Stop() {
	if !s.active {
		return
	}
	close(s.stop)
	<-s.done
	_ = term.Restore(s.fd, s.oldState)
	fmt.Println()
}
