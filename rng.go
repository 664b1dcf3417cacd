// rng.go - RNG MMIO read port.
//
// Returns the next word from the same portable LCG used for page and
// register initialization (see memory.go's initPage, simulator.go's
// NewSimulator), seeded independently so drawing from the RNG port does
// not perturb deterministic memory contents.

package main

type RNG struct {
	state uint32
}

func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

func (r *RNG) next() uint32 {
	r.state = (1103515245*r.state + 12345) & 0x7FFFFFFF
	return r.state
}

func (r *RNG) Install(mem *Memory) error {
	return mem.AddReadHook(RNG_PORT, func(addr uint32) uint32 {
		return r.next()
	})
}
