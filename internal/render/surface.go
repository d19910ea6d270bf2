// SPDX-License-Identifier: MIT
// Package render turns spectral columns into drawable frames and defines the
// surfaces that display or publish them.
package render

import (
	"errors"

	"spectrogram/internal/stft"
)

// Point is a polyline vertex. Both coordinates are normalized to [0, 1]:
// X runs from DC to Nyquist, Y from the dB floor to full scale.
type Point struct {
	X, Y float64
}

// Frame is one column prepared for display.
type Frame struct {
	Column stft.Column
	Points []Point
}

// Surface is a render target driven from the render loop. Poll reports
// whether the user asked to quit; it must not block.
type Surface interface {
	Poll() bool
	Draw(Frame) error
	Close() error
}

// Fanout draws every frame to each of its surfaces in order.
type Fanout []Surface

// Poll returns true if any surface requested quit.
func (f Fanout) Poll() bool {
	quit := false
	for _, s := range f {
		// Poll all of them so each can pump its own events.
		if s.Poll() {
			quit = true
		}
	}
	return quit
}

// Draw draws to every surface, joining the errors.
func (f Fanout) Draw(frame Frame) error {
	var errs []error
	for _, s := range f {
		if err := s.Draw(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every surface, joining the errors.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
