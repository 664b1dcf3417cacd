// main.go - Entry point for the LC-3.2 simulator.
//
// Wires the CLI, config, ELF loader, memory, MMIO peripherals, simulator
// and scanline scheduler together, then reports a fatal run error with a
// register dump per SPEC_FULL.md §7.

package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	cli, err := ParseCLI(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bootLogger := NewLogger(LevelWarn, os.Stderr)
	cfg := cli.Apply(LoadConfig(cli.ConfigFile, bootLogger))

	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = LevelInfo
	}
	logger := NewLogger(level, os.Stderr)

	ef, err := OpenELF(cli.ELFPath)
	if err != nil {
		logger.Errorf("failed to open %s: %v", cli.ELFPath, err)
		os.Exit(1)
	}
	defer ef.Close()

	memCfg := MemoryConfig{
		Size:     cfg.Memory.Size,
		PageSize: cfg.Memory.SimulatorPageSize,
		UserMin:  cfg.Memory.UserSpaceMin,
		UserMax:  cfg.Memory.UserSpaceMax,
		IOMin:    cfg.Memory.IOSpaceMin,
	}
	seed := uint32(time.Now().UnixNano())
	mem := NewMemory(memCfg, seed)

	entry, err := ef.LoadSegments(mem)
	if err != nil {
		logger.Errorf("failed to load segments from %s: %v", cli.ELFPath, err)
		os.Exit(1)
	}

	fs := NewFilesystem(mem)
	if err := fs.Install(); err != nil {
		logger.Errorf("failed to install filesystem bridge: %v", err)
		os.Exit(1)
	}

	dma := NewDMAController(mem)
	if err := dma.Install(); err != nil {
		logger.Errorf("failed to install DMA controller: %v", err)
		os.Exit(1)
	}

	clock := NewClock()
	if err := clock.Install(mem); err != nil {
		logger.Errorf("failed to install clock: %v", err)
		os.Exit(1)
	}

	rng := NewRNG(seed)
	if err := rng.Install(mem); err != nil {
		logger.Errorf("failed to install RNG port: %v", err)
		os.Exit(1)
	}

	input := NewInputQueue()

	var term *TerminalHost
	if !cli.Headless {
		term = NewTerminalHost(input)
		term.Start()
		defer term.Stop()
	}

	sim := NewSimulator(mem, input, logger, seed, entry)

	display := NewDisplay(cli.Headless)
	displayCfg := DisplayConfig{
		Width:                   cfg.Display.Width,
		Height:                  cfg.Display.Height,
		VblankLength:            cfg.Display.VblankLength,
		InstructionsPerScanline: cfg.Display.InstructionsPerScanline,
		FramesPerSecond:         cfg.Display.FramesPerSecond,
		AcceleratedRendering:    cfg.Display.AcceleratedRendering,
		Keybinds:                Keybinds(cfg.Keybinds),
	}
	if err := display.Init(displayCfg); err != nil {
		logger.Errorf("failed to initialize display: %v", err)
		os.Exit(1)
	}
	defer display.Close()

	sched := NewScheduler(sim, mem, dma, display, logger, cfg.Display, cli.Headless)
	if err := sched.Run(); err != nil {
		logger.Errorf("run failed at PC 0x%08X: %v", sim.PC, err)
		for i, r := range sim.Regs {
			logger.Errorf("R%d = 0x%08X", i, r)
		}
		logger.Errorf("CC = %03b", sim.CC)
		os.Exit(1)
	}
}
