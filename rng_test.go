package main

import "testing"

func TestRNGPortMatchesLCGSequence(t *testing.T) {
	mem := NewMemory(DefaultMemoryConfig(), 1)
	rng := NewRNG(7)
	if err := rng.Install(mem); err != nil {
		t.Fatalf("Install: %v", err)
	}

	state := uint32(7)
	next := func() uint32 {
		state = (1103515245*state + 12345) & 0x7FFFFFFF
		return state
	}

	for i := 0; i < 4; i++ {
		want := next()
		got, err := mem.ReadU32(RNG_PORT)
		if err != nil {
			t.Fatalf("ReadU32(RNG_PORT): %v", err)
		}
		if got != want {
			t.Fatalf("draw %d = 0x%X, want 0x%X", i, got, want)
		}
	}
}

func TestRNGPortAdvancesOnEachRead(t *testing.T) {
	mem := NewMemory(DefaultMemoryConfig(), 1)
	rng := NewRNG(42)
	if err := rng.Install(mem); err != nil {
		t.Fatalf("Install: %v", err)
	}
	a, _ := mem.ReadU32(RNG_PORT)
	b, _ := mem.ReadU32(RNG_PORT)
	if a == b {
		t.Fatal("consecutive RNG reads returned the same value")
	}
}
