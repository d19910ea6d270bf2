// SPDX-License-Identifier: MIT
package render

import (
	"math"

	"spectrogram/internal/stft"
)

// Band is a named frequency range.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the audible range into six perceptual bands.
func DefaultBands(sampleRate float64) []Band {
	return []Band{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate/2 + 1},
	}
}

// BandMeter reduces a column to RMS magnitude per band. The bin to band
// assignment is computed once, since the analysis geometry is fixed.
type BandMeter struct {
	bands  []Band
	bandOf []int // band index per bin, -1 when outside every band
	counts []int
	out    []float64
}

// NewBandMeter maps bins of width sampleRate/windowSize onto bands. A bin
// belongs to the first band whose [LowHz, HighHz) range contains its centre.
func NewBandMeter(bands []Band, windowSize int, sampleRate float64) *BandMeter {
	bins := windowSize/2 + 1
	m := &BandMeter{
		bands:  bands,
		bandOf: make([]int, bins),
		counts: make([]int, len(bands)),
		out:    make([]float64, len(bands)),
	}
	for k := range bins {
		freq := float64(k) * sampleRate / float64(windowSize)
		m.bandOf[k] = -1
		for b, band := range bands {
			if freq >= band.LowHz && freq < band.HighHz {
				m.bandOf[k] = b
				m.counts[b]++
				break
			}
		}
	}
	return m
}

// Bands returns the configured bands.
func (m *BandMeter) Bands() []Band { return m.bands }

// Measure returns the RMS magnitude of each band. The returned slice is
// reused by the next call.
func (m *BandMeter) Measure(c stft.Column) []float64 {
	clear(m.out)
	for k, v := range c.Magnitudes {
		if k >= len(m.bandOf) {
			break
		}
		if b := m.bandOf[k]; b >= 0 {
			m.out[b] += v * v
		}
	}
	for b, n := range m.counts {
		if n > 0 {
			m.out[b] = math.Sqrt(m.out[b] / float64(n))
		}
	}
	return m.out
}
