// video_ebiten.go - Ebiten-backed Display.
//
// Keeps the teacher's ebiten.Game lifecycle (RunGame in a background
// goroutine, a mutex-guarded frame buffer, a vsyncChan used to block Init
// until the first Update tick) from video_backend_ebiten.go, but replaces its
// RGBA byte-stream/keystroke-emission model with BGR555 scanline uploads
// and GBA-style button polling, since this simulator's guest reads buttons
// as a bitmask rather than a terminal keystroke. Clipboard paste has no
// equivalent in a button-input model and is dropped (see DESIGN.md).

package main

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

type ebitenDisplay struct {
	mu     sync.RWMutex
	cfg    DisplayConfig
	rgba   []byte // width*height*4, updated per scanline
	window *ebiten.Image

	started   bool
	closed    bool
	vsyncChan chan struct{}
}

func newEbitenDisplay() *ebitenDisplay {
	return &ebitenDisplay{vsyncChan: make(chan struct{}, 1)}
}

func (d *ebitenDisplay) Init(cfg DisplayConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.rgba = make([]byte, cfg.Width*cfg.Height*4)

	ebiten.SetWindowSize(cfg.Width*2, cfg.Height*2)
	ebiten.SetWindowTitle("LC-3.2")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	d.started = true
	go func() {
		if err := ebiten.RunGame(d); err != nil {
			fmt.Println("display error:", err)
		}
	}()
	<-d.vsyncChan
	return nil
}

// UpdateScanline converts one line of BGR555 pixels to RGBA and writes it
// into the frame buffer Draw reads from.
func (d *ebitenDisplay) UpdateScanline(y int, pixels []uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	rowStart := y * d.cfg.Width * 4
	for x, px := range pixels {
		r, g, b := bgr555ToRGB8(px)
		o := rowStart + x*4
		if o+4 > len(d.rgba) {
			break
		}
		d.rgba[o] = r
		d.rgba[o+1] = g
		d.rgba[o+2] = b
		d.rgba[o+3] = 0xFF
	}
	return true
}

// bgr555ToRGB8 expands a 15-bit BGR555 pixel (5 bits per channel) to 8-bit
// RGB by replicating the top bits into the low ones.
func bgr555ToRGB8(px uint16) (r, g, b byte) {
	r5 := byte(px & 0x1F)
	g5 := byte((px >> 5) & 0x1F)
	b5 := byte((px >> 10) & 0x1F)
	r = r5<<3 | r5>>2
	g = g5<<3 | g5>>2
	b = b5<<3 | b5>>2
	return
}

func (d *ebitenDisplay) Present() error {
	return nil
}

func (d *ebitenDisplay) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Update is ebiten.Game's per-tick hook; it only observes window-close and
// unblocks Init's startup rendezvous.
func (d *ebitenDisplay) Update() error {
	select {
	case d.vsyncChan <- struct{}{}:
	default:
	}
	if ebiten.IsWindowBeingClosed() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		return ebiten.Termination
	}
	return nil
}

func (d *ebitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.window == nil {
		d.window = ebiten.NewImage(d.cfg.Width, d.cfg.Height)
	}
	d.window.WritePixels(d.rgba)
	screen.DrawImage(d.window, nil)
}

func (d *ebitenDisplay) Layout(_, _ int) (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.Width, d.cfg.Height
}

// ReadButtons polls the configured keybinds and packs them into
// REG_KEYINPUT's inverted bitmask (bit clear = pressed).
func (d *ebitenDisplay) ReadButtons() uint16 {
	d.mu.RLock()
	kb := d.cfg.Keybinds
	d.mu.RUnlock()

	var mask uint16 = 0xFFFF
	press := func(name string, bit uint) {
		key, ok := lookupKey(name)
		if !ok {
			return
		}
		if ebiten.IsKeyPressed(key) {
			mask &^= 1 << bit
		}
	}
	press(kb.A, ButtonA)
	press(kb.B, ButtonB)
	press(kb.Select, ButtonSelect)
	press(kb.Start, ButtonStart)
	press(kb.Right, ButtonRight)
	press(kb.Left, ButtonLeft)
	press(kb.Up, ButtonUp)
	press(kb.Down, ButtonDown)
	press(kb.R, ButtonR)
	press(kb.L, ButtonL)
	return mask
}

// lookupKey resolves a small set of key names used by the default keybind
// config; unrecognized names are silently inert rather than a config error,
// matching "unknown keys ignored" in SPEC_FULL.md §6.
func lookupKey(name string) (ebiten.Key, bool) {
	switch name {
	case "Z":
		return ebiten.KeyZ, true
	case "X":
		return ebiten.KeyX, true
	case "Enter":
		return ebiten.KeyEnter, true
	case "Backspace":
		return ebiten.KeyBackspace, true
	case "Shift":
		return ebiten.KeyShift, true
	case "ArrowRight", "Right":
		return ebiten.KeyArrowRight, true
	case "ArrowLeft", "Left":
		return ebiten.KeyArrowLeft, true
	case "ArrowUp", "Up":
		return ebiten.KeyArrowUp, true
	case "ArrowDown", "Down":
		return ebiten.KeyArrowDown, true
	case "A":
		return ebiten.KeyA, true
	case "S":
		return ebiten.KeyS, true
	default:
		return 0, false
	}
}
