// SPDX-License-Identifier: MIT

// Package sdl draws frames into an SDL2 window.
package sdl

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"spectrogram/internal/render"
)

const subsystems = sdl.INIT_VIDEO | sdl.INIT_EVENTS

// Window is an SDL2 surface that draws each frame as connected line segments.
// It must be created and driven from the main OS thread.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	width    int32
	height   int32
	points   []sdl.Point
	quit     bool
}

// NewWindow initializes SDL video and opens a window of the given size.
// Close shuts down only the subsystems NewWindow started.
func NewWindow(title string, width, height int) (*Window, error) {
	if err := sdl.InitSubSystem(subsystems); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL video: %w", err)
	}

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.QuitSubSystem(subsystems)
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		sdl.QuitSubSystem(subsystems)
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return &Window{
		window:   win,
		renderer: renderer,
		width:    int32(width),
		height:   int32(height),
		points:   make([]sdl.Point, 0, width),
	}, nil
}

// Poll drains pending SDL events and reports whether the window was closed
// or Escape was pressed.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.quit = true
		case *sdl.KeyboardEvent:
			if e.Keysym.Sym == sdl.K_ESCAPE {
				w.quit = true
			}
		}
	}
	return w.quit
}

// Draw clears the window and draws the frame's polyline.
func (w *Window) Draw(f render.Frame) error {
	w.points = appendPixels(w.points[:0], f.Points, w.width, w.height)

	if err := w.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if len(w.points) > 1 {
		if err := w.renderer.SetDrawColor(37, 160, 101, 255); err != nil {
			return err
		}
		if err := w.renderer.DrawLines(w.points); err != nil {
			return err
		}
	}
	w.renderer.Present()
	return nil
}

// Close destroys the window and shuts SDL video down.
func (w *Window) Close() error {
	if w.window == nil && w.renderer == nil {
		return nil
	}

	var err error
	if w.renderer != nil {
		err = w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		werr := w.window.Destroy()
		if err == nil {
			err = werr
		}
		w.window = nil
	}
	sdl.QuitSubSystem(subsystems)
	return err
}

// appendPixels maps normalized points to window pixels, with y growing
// downwards.
func appendPixels(dst []sdl.Point, pts []render.Point, width, height int32) []sdl.Point {
	for _, p := range pts {
		dst = append(dst, sdl.Point{
			X: int32(p.X * float64(width-1)),
			Y: int32((1 - p.Y) * float64(height-1)),
		})
	}
	return dst
}

var _ render.Surface = (*Window)(nil)
