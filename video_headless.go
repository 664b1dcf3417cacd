// video_headless.go - No-op Display for -H/--headless runs.
//
// Ported from the teacher's HeadlessVideoOutput shape (a tracked frame
// count, always-succeeds lifecycle) with the RGBA-frame API swapped for the
// scanline/button one this simulator uses.

package main

import "sync/atomic"

type headlessDisplay struct {
	cfg        DisplayConfig
	frameCount uint64
}

func newHeadlessDisplay() *headlessDisplay {
	return &headlessDisplay{}
}

func (h *headlessDisplay) Init(cfg DisplayConfig) error {
	h.cfg = cfg
	return nil
}

func (h *headlessDisplay) UpdateScanline(y int, pixels []uint16) bool {
	return true
}

func (h *headlessDisplay) Present() error {
	atomic.AddUint64(&h.frameCount, 1)
	return nil
}

// ReadButtons reports nothing pressed; headless runs have no input source.
func (h *headlessDisplay) ReadButtons() uint16 {
	return 0xFFFF
}

func (h *headlessDisplay) Close() error {
	return nil
}
