// config.go - CLI flags and JSON configuration.
//
// The example corpus this project draws on has no third-party CLI or
// config library anywhere (teacher included); every sibling example repo
// that parses flags uses the standard flag package, and config.json-style
// files are decoded with encoding/json directly into a plain struct. This
// keeps that convention rather than reaching for a flag/config library the
// corpus never demonstrates.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

type DisplaySettings struct {
	Width                   int      `json:"width"`
	Height                  int      `json:"height"`
	VblankLength            int      `json:"vblank_length"`
	InstructionsPerScanline int      `json:"instructions_per_scanline"`
	FramesPerSecond         int      `json:"frames_per_second"`
	AcceleratedRendering    bool     `json:"accelerated_rendering"`
}

type MemorySettings struct {
	Size             uint32 `json:"size"`
	SimulatorPageSize uint32 `json:"simulator_page_size"`
	UserSpaceMin     uint32 `json:"user_space_min"`
	UserSpaceMax     uint32 `json:"user_space_max"`
	IOSpaceMin       uint32 `json:"io_space_min"`
}

type KeybindSettings struct {
	A, B, Select, Start, Right, Left, Up, Down, R, L string
}

type Config struct {
	LogLevel string          `json:"log_level"`
	Display  DisplaySettings `json:"display"`
	Memory   MemorySettings  `json:"memory"`
	Keybinds KeybindSettings `json:"keybinds"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Display: DisplaySettings{
			Width:                   240,
			Height:                  160,
			VblankLength:            68,
			InstructionsPerScanline: 1232,
			FramesPerSecond:         60,
			AcceleratedRendering:    true,
		},
		Memory: MemorySettings{
			Size:              defaultMemorySize,
			SimulatorPageSize: defaultPageSize,
			UserSpaceMin:      0,
			UserSpaceMax:      defaultMemorySize - 1,
			IOSpaceMin:        defaultIOMin,
		},
		Keybinds: KeybindSettings{
			A: "Z", B: "X", Select: "Backspace", Start: "Enter",
			Right: "Right", Left: "Left", Up: "Up", Down: "Down",
			R: "S", L: "A",
		},
	}
}

// LoadConfig reads and decodes path, falling back to defaults with a
// logged warning on any read or parse error, per SPEC_FULL.md §7.
func LoadConfig(path string, logger *Logger) Config {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("could not read config file %s, using defaults: %v", path, err)
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Warnf("could not parse config file %s, using defaults: %v", path, err)
		return DefaultConfig()
	}
	return cfg
}

// CLIArgs holds the parsed command line.
type CLIArgs struct {
	ELFPath            string
	ConfigFile         string
	SoftwareRendering  bool
	LogLevel           string
	Headless           bool
	ShowVersion        bool
}

const version = "lc32sim 1.0"

// ParseCLI parses os.Args[1:] per SPEC_FULL.md §6. Exit code 1 on a parse
// or usage error, matching the spec's exit-code contract.
func ParseCLI(args []string) (CLIArgs, error) {
	fs := flag.NewFlagSet("lc32sim", flag.ContinueOnError)
	var a CLIArgs
	fs.StringVar(&a.ConfigFile, "c", "./lc32sim.json", "path to JSON config file")
	fs.StringVar(&a.ConfigFile, "config-file", "./lc32sim.json", "path to JSON config file")
	fs.BoolVar(&a.SoftwareRendering, "s", false, "force software rendering")
	fs.BoolVar(&a.SoftwareRendering, "software-rendering", false, "force software rendering")
	fs.StringVar(&a.LogLevel, "l", "use-config", "log level (debug|info|warn|error)")
	fs.StringVar(&a.LogLevel, "log-level", "use-config", "log level (debug|info|warn|error)")
	fs.BoolVar(&a.Headless, "H", false, "run without a display window")
	fs.BoolVar(&a.Headless, "headless", false, "run without a display window")
	fs.BoolVar(&a.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return a, err
	}
	if a.ShowVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if fs.NArg() != 1 {
		return a, fmt.Errorf("expected exactly one positional argument (ELF file path), got %d", fs.NArg())
	}
	a.ELFPath = fs.Arg(0)
	return a, nil
}

// Apply merges CLI overrides onto a loaded config per SPEC_FULL.md §6:
// --software-rendering forces display.accelerated_rendering=false;
// --log-level overrides the config file's log_level unless left at its
// "use-config" sentinel default.
func (a CLIArgs) Apply(cfg Config) Config {
	if a.SoftwareRendering {
		cfg.Display.AcceleratedRendering = false
	}
	if a.LogLevel != "use-config" {
		cfg.LogLevel = a.LogLevel
	}
	return cfg
}
