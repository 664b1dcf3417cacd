// terminal_host.go - Host-side stdin reader that feeds the guest InputQueue.
//
// Puts the terminal into raw mode (no echo, no canonical line buffering) so
// GETC/IN traps see individual keystrokes as they arrive, then runs a
// blocking-read producer goroutine per SPEC_FULL.md §5's concurrency model.
// Restoration on Stop is best-effort and never fails the shutdown path.

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalHost owns the raw-mode lifecycle and the goroutine that copies
// stdin bytes into an InputQueue one at a time.
type TerminalHost struct {
	queue        *InputQueue
	fd           int
	oldTermState *term.State
	done         chan struct{}
}

// NewTerminalHost creates a host adapter that feeds q from stdin.
func NewTerminalHost(q *InputQueue) *TerminalHost {
	return &TerminalHost{queue: q, done: make(chan struct{})}
}

// Start puts stdin into raw mode and begins the blocking-read producer
// goroutine. Safe to call once; a raw-mode failure is reported but
// non-fatal, so a run whose stdin is not a TTY still reads its input.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
	} else {
		h.oldTermState = oldState
	}

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				h.queue.Push(buf[0])
			}
			if err != nil {
				if err != io.EOF {
					fmt.Fprintf(os.Stderr, "terminal_host: stdin read error: %v\n", err)
				}
				h.queue.Close()
				return
			}
		}
	}()
}

// Stop restores the terminal's prior mode. The producer goroutine is
// intentionally not joined: it is blocked in a stdin read with no portable
// way to interrupt it, and the process is exiting regardless.
func (h *TerminalHost) Stop() {
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
