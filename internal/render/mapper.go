// SPDX-License-Identifier: MIT
package render

import (
	"math"

	"spectrogram/internal/stft"
)

// Mapper converts magnitude columns to normalized polylines.
type Mapper struct {
	width   int
	floorDB float64
	scale   float64 // converts |X_k| to linear amplitude
}

// NewMapper returns a mapper producing at most width points per column.
// gain is the sum of the window coefficients; a full-scale sinusoid maps to
// Y == 1 and anything at or below floorDB maps to Y == 0.
func NewMapper(width int, floorDB, gain float64) *Mapper {
	if width < 1 {
		width = 1
	}
	if floorDB >= 0 {
		floorDB = -90
	}
	scale := 1.0
	if gain > 0 {
		scale = 2 / gain
	}
	return &Mapper{width: width, floorDB: floorDB, scale: scale}
}

// Width returns the maximum number of points per frame.
func (m *Mapper) Width() int { return m.width }

// Level converts a raw magnitude to a normalized height in [0, 1].
func (m *Mapper) Level(magnitude float64) float64 {
	amp := magnitude * m.scale
	if amp <= 0 {
		return 0
	}
	db := 20 * math.Log10(amp)
	return max(0, min(1, (db-m.floorDB)/-m.floorDB))
}

// Map builds a frame for c. When there are more bins than points, each point
// takes the loudest bin in its range so narrow peaks stay visible.
func (m *Mapper) Map(c stft.Column) Frame {
	bins := len(c.Magnitudes)
	n := min(m.width, bins)
	points := make([]Point, n)

	for i := range n {
		lo, hi := i*bins/n, (i+1)*bins/n
		peak := 0.0
		for _, v := range c.Magnitudes[lo:hi] {
			peak = max(peak, v)
		}
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		points[i] = Point{X: x, Y: m.Level(peak)}
	}
	return Frame{Column: c, Points: points}
}
