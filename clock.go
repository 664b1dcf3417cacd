// clock.go - Wall-clock MMIO device.
//
// Writing 0 to the status word samples the host clock into two cached
// words (milliseconds-of-day, whole seconds since the Unix epoch); reads of
// those words return the cached sample rather than live time, matching the
// "writing 0 to status triggers a sample" contract in spec.md §6. Relocated
// off the address spec.md states literally for it (see registers.go) to
// avoid colliding with the DMA controller's word triple.

package main

import "time"

// Clock holds the last-sampled reading. now is injected so callers (and
// tests) can supply a fixed instant instead of depending on wall time.
type Clock struct {
	now    func() time.Time
	millis uint32
	secs   uint32
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) sample() {
	t := c.now()
	c.millis = uint32(t.Hour()*3600000 + t.Minute()*60000 + t.Second()*1000 + t.Nanosecond()/1_000_000)
	c.secs = uint32(t.Unix())
}

func (c *Clock) Install(mem *Memory) error {
	if err := mem.AddWriteHook(CLOCK_STATUS, func(old, new uint32) uint32 {
		if new == 0 {
			c.sample()
		}
		return new
	}); err != nil {
		return err
	}
	if err := mem.AddReadHook(CLOCK_MILLIS, func(addr uint32) uint32 {
		return c.millis
	}); err != nil {
		return err
	}
	return mem.AddReadHook(CLOCK_SECS, func(addr uint32) uint32 {
		return c.secs
	})
}
