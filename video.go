// video.go - Display interface shared by the ebiten and headless backends.
//
// A runtime flag, not a build tag, selects between them (DESIGN.md's Display
// entry: this deliberately departs from the teacher's //go:build headless / !headless
// split here: -H/--headless is a CLI flag, so both implementations must be
// always compiled in and chosen by NewDisplay at startup). The interface
// itself keeps the teacher's ScanlineAware shape (StartFrame/ProcessScanline
// style) collapsed to the single per-scanline callback the scanline
// scheduler in SPEC_FULL.md §4.7 actually drives.

package main

// DisplayConfig carries the subset of Config.Display a backend needs.
type DisplayConfig struct {
	Width                 int
	Height                int
	VblankLength          int
	InstructionsPerScanline int
	FramesPerSecond       int
	AcceleratedRendering  bool
	Keybinds              Keybinds
}

// Keybinds names the host key bound to each of the ten GBA-style buttons.
type Keybinds struct {
	A, B, Select, Start, Right, Left, Up, Down, R, L string
}

// Button bit positions within REG_KEYINPUT, matching the real GBA KEYINPUT
// layout (bit clear = pressed).
const (
	ButtonA = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonR
	ButtonL
)

// Display is the sink the scanline scheduler drives: one UpdateScanline
// call per visible line carrying that line's BGR555 pixels, then Present at
// end of frame. ReadButtons feeds REG_KEYINPUT.
type Display interface {
	Init(cfg DisplayConfig) error
	// UpdateScanline uploads one scanline's worth of BGR555 pixels.
	// Returns false if the window has been closed, ending the run.
	UpdateScanline(y int, pixels []uint16) bool
	Present() error
	ReadButtons() uint16
	Close() error
}

// NewDisplay constructs the ebiten-backed Display, or the no-op headless
// one, per the headless flag.
func NewDisplay(headless bool) Display {
	if headless {
		return newHeadlessDisplay()
	}
	return newEbitenDisplay()
}
