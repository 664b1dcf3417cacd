// scanline.go - Scanline-driven main loop.
//
// Interleaves instruction execution with raster timing per SPEC_FULL.md
// §4.7: a fixed instructions-per-scanline quantum, a vcount register
// write, a per-scanline display refresh, and vblank handling. Headless
// mode skips the vcount write and display callback and simply runs
// instructions to completion.

package main

// Scheduler owns the pieces the main loop coordinates each frame: the
// simulator, the DMA controller (polled for an error after every step,
// since its write hook cannot itself return one), and the display sink.
type Scheduler struct {
	sim     *Simulator
	mem     *Memory
	dma     *DMAController
	display Display
	logger  *Logger

	width, height, vblank, instrPerScanline int
	headless                                bool
}

func NewScheduler(sim *Simulator, mem *Memory, dma *DMAController, display Display, logger *Logger, cfg DisplaySettings, headless bool) *Scheduler {
	return &Scheduler{
		sim:              sim,
		mem:              mem,
		dma:              dma,
		display:          display,
		logger:           logger,
		width:            cfg.Width,
		height:           cfg.Height,
		vblank:           cfg.VblankLength,
		instrPerScanline: cfg.InstructionsPerScanline,
		headless:         headless,
	}
}

// Run drives the simulator until it halts, a fatal Step error occurs, or
// the display reports its window was closed. Returns a non-nil error only
// for a fatal condition the caller should report and exit non-zero for.
func (s *Scheduler) Run() error {
	if s.headless {
		return s.runHeadless()
	}
	return s.runWithDisplay()
}

func (s *Scheduler) runHeadless() error {
	for {
		running, err := s.sim.Step()
		if derr := s.dma.TakeError(); derr != nil {
			return derr
		}
		if err != nil {
			if serr, ok := err.(*SimError); ok && serr.Kind == ErrHalted {
				return nil
			}
			return err
		}
		if !running {
			return nil
		}
	}
}

func (s *Scheduler) runWithDisplay() error {
	for {
		for scanline := 0; scanline < s.height+s.vblank; scanline++ {
			if err := s.mem.WriteU16(REG_VCOUNT, uint16(scanline)); err != nil {
				return err
			}
			if err := s.mem.WriteU16(REG_KEYINPUT, s.display.ReadButtons()); err != nil {
				return err
			}

			halted, err := s.runQuantum()
			if err != nil {
				return err
			}

			if scanline < s.height {
				pixels, err := s.readScanlinePixels(scanline)
				if err != nil {
					return err
				}
				if !s.display.UpdateScanline(scanline, pixels) {
					return nil
				}
			}

			if halted {
				return nil
			}
		}
		if err := s.display.Present(); err != nil {
			return err
		}
	}
}

// runQuantum executes up to instrPerScanline steps, stopping early on
// halt. Returns halted=true if the guest program halted during this
// quantum.
func (s *Scheduler) runQuantum() (bool, error) {
	for i := 0; i < s.instrPerScanline; i++ {
		running, err := s.sim.Step()
		if derr := s.dma.TakeError(); derr != nil {
			return false, derr
		}
		if err != nil {
			if serr, ok := err.(*SimError); ok && serr.Kind == ErrHalted {
				return true, nil
			}
			return false, err
		}
		if !running {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scheduler) readScanlinePixels(y int) ([]uint16, error) {
	pixels := make([]uint16, s.width)
	base := VIDEO_BUFFER + uint32(y*s.width*2)
	for x := 0; x < s.width; x++ {
		v, err := s.mem.ReadU16(base + uint32(x*2))
		if err != nil {
			return nil, err
		}
		pixels[x] = v
	}
	return pixels, nil
}
