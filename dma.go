// dma.go - Programmed block-copy DMA controller.
//
// Registers a single write hook on the control word; arming it (bit 31 set)
// triggers an immediate source-to-destination copy per SPEC_FULL.md §4.4,
// then zeroes all three controller words so a subsequent identical write
// does not re-fire without being explicitly rearmed.

package main

import "fmt"

type DMAErrorKind int

const (
	ErrDMATimingUnsupported DMAErrorKind = iota
	ErrDMAIRQUnsupported
	ErrDMAInvalidMode
	ErrDMABounds
)

type DMAError struct {
	Kind DMAErrorKind
	Msg  string
}

func (e *DMAError) Error() string { return e.Msg }

// DMAController owns no state beyond a reference to Memory and the last
// trigger failure, if any; all armed-transfer state lives in the three MMIO
// words it reads/writes.
type DMAController struct {
	mem     *Memory
	lastErr error
}

func NewDMAController(mem *Memory) *DMAController {
	return &DMAController{mem: mem}
}

// Install registers the control-word write hook. Must be called once
// during machine setup.
func (d *DMAController) Install() error {
	return d.mem.AddWriteHook(DMA_CONTROL, func(old, new uint32) uint32 {
		if new&DMA_ON_BIT == 0 {
			return new
		}
		source := d.mem.ReadUncheckedU32(DMA_SOURCE)
		dest := d.mem.ReadUncheckedU32(DMA_DESTINATION)
		if err := d.trigger(source, dest, new); err != nil {
			// DMA failures are treated like any other step() failure by the
			// caller; surface via panic-free error channel is not available
			// from inside a hook, so the controller records the error and
			// the scanline scheduler checks it after each step.
			d.lastErr = err
			return new
		}
		d.mem.WriteUncheckedU32(DMA_SOURCE, 0)
		d.mem.WriteUncheckedU32(DMA_DESTINATION, 0)
		return 0
	})
}

func (d *DMAController) trigger(source, dest, control uint32) error {
	timing := (control >> DMA_TIMING_SHIFT) & DMA_TIMING_MASK
	if timing != dmaTimingNow {
		return &DMAError{Kind: ErrDMATimingUnsupported, Msg: "DMA timing modes other than NOW are not supported"}
	}
	if control&DMA_IRQ_BIT != 0 {
		return &DMAError{Kind: ErrDMAIRQUnsupported, Msg: "DMA IRQ is not supported"}
	}

	dstMode := (control >> DMA_DST_MODE_SHIFT) & DMA_DST_MODE_MASK
	if dstMode == dmaModeReset {
		dstMode = dmaModeInc
	}
	srcMode := (control >> DMA_SRC_MODE_SHIFT) & DMA_SRC_MODE_MASK

	numTransfers := control & DMA_NUM_TRANSFERS_MASK
	transferSize := uint32(2)
	if control&DMA_WIDTH_BIT != 0 {
		transferSize = 4
	}
	totalBytes := numTransfers * transferSize

	srcStep, err := stepFor(srcMode, transferSize)
	if err != nil {
		return err
	}
	dstStep, err := stepFor(dstMode, transferSize)
	if err != nil {
		return err
	}

	if err := d.checkBoundsAndFault(source, srcMode, totalBytes); err != nil {
		return err
	}
	if err := d.checkBoundsAndFault(dest, dstMode, totalBytes); err != nil {
		return err
	}

	for i := uint32(0); i < numTransfers; i++ {
		if transferSize == 2 {
			d.mem.WriteUncheckedU16(dest, d.mem.ReadUncheckedU16(source))
		} else {
			d.mem.WriteUncheckedU32(dest, d.mem.ReadUncheckedU32(source))
		}
		source = uint32(int64(source) + int64(srcStep))
		dest = uint32(int64(dest) + int64(dstStep))
	}
	return nil
}

func stepFor(mode uint32, size uint32) (int32, error) {
	switch mode {
	case dmaModeInc:
		return int32(size), nil
	case dmaModeDec:
		return -int32(size), nil
	case dmaModeFixed:
		return 0, nil
	default:
		return 0, &DMAError{Kind: ErrDMAInvalidMode, Msg: fmt.Sprintf("invalid DMA mode %d", mode)}
	}
}

// checkBoundsAndFault validates the range implied by mode/totalBytes stays
// within memory and pre-faults every page it spans (a single page for the
// fixed mode). Addresses at or above the I/O overlay (e.g. the video
// buffer, a common DMA destination) are exempt from the Size()-relative
// check: that overlay is conceptually unbounded, the same exemption
// Memory.checkBounds makes for ordinary loads and stores.
func (d *DMAController) checkBoundsAndFault(addr uint32, mode uint32, totalBytes uint32) error {
	if addr >= d.mem.IOMin() {
		if uint64(addr)+uint64(totalBytes) > 1<<32 {
			return &DMAError{Kind: ErrDMABounds, Msg: fmt.Sprintf("DMA transfer at 0x%X overflows the address space", addr)}
		}
		switch mode {
		case dmaModeInc:
			d.mem.ensureRange(addr, addr+totalBytes)
		case dmaModeDec:
			if addr+1 < totalBytes {
				return &DMAError{Kind: ErrDMABounds, Msg: fmt.Sprintf("DMA decrement at 0x%X wraps below zero", addr)}
			}
			d.mem.ensureRange(addr-totalBytes, addr+1)
		case dmaModeFixed:
			d.mem.ensurePage(addr)
		}
		return nil
	}

	size := d.mem.Size()
	switch mode {
	case dmaModeInc:
		if totalBytes > size-addr {
			return &DMAError{Kind: ErrDMABounds, Msg: fmt.Sprintf("DMA increment at 0x%X exceeds end of memory", addr)}
		}
		d.mem.ensureRange(addr, addr+totalBytes)
	case dmaModeDec:
		if addr < totalBytes {
			return &DMAError{Kind: ErrDMABounds, Msg: fmt.Sprintf("DMA decrement at 0x%X wraps below zero", addr)}
		}
		d.mem.ensureRange(addr-totalBytes, addr+1)
	case dmaModeFixed:
		d.mem.ensurePage(addr)
	}
	return nil
}

// lastErr is checked by the scanline scheduler after each step and cleared.
func (d *DMAController) TakeError() error {
	e := d.lastErr
	d.lastErr = nil
	return e
}
