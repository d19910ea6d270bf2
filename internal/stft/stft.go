// SPDX-License-Identifier: MIT
/*
Package stft implements a streaming Short-Time Fourier Transform.

Samples arrive in chunks of arbitrary length. They are appended to a sliding
window of WindowSize samples, and every HopSize new samples the window is
weighted, transformed, and emitted as one magnitude Column.

Startup:
  - No column is emitted until WindowSize samples have been seen (Priming).
  - The first column is emitted at the sample that fills the window.
  - From then on (Streaming) one column is emitted per HopSize samples.

Each chunk is split at hop boundaries, so a column always reflects the window
exactly as it stood at its emission sample. The emitted sequence therefore
does not depend on how the input stream was chunked.

An STFT is owned by one goroutine (the capture context) and is not safe for
concurrent use.
*/
package stft

import (
	"errors"
	"fmt"

	"spectrogram/internal/window"
)

var (
	// ErrInvalidWindowSize is returned for a window of fewer than one sample.
	ErrInvalidWindowSize = errors.New("window size must be at least 1")
	// ErrInvalidHopSize is returned unless 1 <= hop size <= window size.
	ErrInvalidHopSize = errors.New("hop size must satisfy 1 <= hop <= window")
)

// Column is the magnitude spectrum of one analysis frame. Ownership passes to
// whoever receives it; the producer never touches Magnitudes again.
type Column struct {
	Index      uint64    // hop ordinal since the session started, first column is 0
	Magnitudes []float64 // WindowSize/2+1 values, bin k at k*SampleRate/WindowSize Hz
}

// State is the lifecycle phase of a streaming transform.
type State int

const (
	Priming State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "priming"
}

// Config fixes the analysis geometry at construction.
type Config struct {
	WindowSize int
	HopSize    int
	Shape      window.Shape
}

// Validate checks the window/hop relationship.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidWindowSize, c.WindowSize)
	}
	if c.HopSize < 1 || c.HopSize > c.WindowSize {
		return fmt.Errorf("%w, got hop %d for window %d", ErrInvalidHopSize, c.HopSize, c.WindowSize)
	}
	if !c.Shape.Valid() {
		return fmt.Errorf("invalid window shape %d", int(c.Shape))
	}
	return nil
}

// STFT is the streaming transform state machine.
type STFT struct {
	windowSize int
	hopSize    int
	shape      window.Shape

	samples   *SampleWindow
	coeffs    []float64 // shared, read-only
	transform *Transform
	frame     []float64 // scratch for the weighted snapshot

	state   State
	seen    int // samples observed while priming
	pending int // hop counter: new samples since the last emission
	next    uint64
}

// New creates a streaming transform. It returns an error wrapping
// ErrInvalidWindowSize or ErrInvalidHopSize for a bad geometry.
func New(cfg Config) (*STFT, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	coeffs, err := window.Table(cfg.Shape, cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &STFT{
		windowSize: cfg.WindowSize,
		hopSize:    cfg.HopSize,
		shape:      cfg.Shape,
		samples:    NewSampleWindow(cfg.WindowSize),
		coeffs:     coeffs,
		transform:  NewTransform(cfg.WindowSize),
		frame:      make([]float64, cfg.WindowSize),
	}, nil
}

// Ingest consumes a chunk and returns the columns it completed, oldest first.
// The result is nil when the chunk did not complete a hop.
func (s *STFT) Ingest(samples []float64) []Column {
	var out []Column
	s.IngestFunc(samples, func(c Column) {
		out = append(out, c)
	})
	return out
}

// IngestFunc consumes a chunk and calls emit for every completed column in
// temporal order. It returns the number of columns emitted. This form lets a
// producer forward columns without collecting them.
func (s *STFT) IngestFunc(samples []float64, emit func(Column)) int {
	emitted := 0
	for len(samples) > 0 {
		take := min(s.untilNextColumn(), len(samples))
		s.samples.Append(samples[:take])
		samples = samples[take:]

		if s.state == Priming {
			s.seen += take
			if s.seen < s.windowSize {
				continue
			}
			s.state = Streaming
		} else {
			s.pending += take
			if s.pending < s.hopSize {
				continue
			}
			s.pending -= s.hopSize
		}

		emit(s.column())
		emitted++
	}
	return emitted
}

// untilNextColumn is the number of samples that completes the next column.
func (s *STFT) untilNextColumn() int {
	if s.state == Priming {
		return s.windowSize - s.seen
	}
	return s.hopSize - s.pending
}

func (s *STFT) column() Column {
	s.frame = s.samples.Snapshot(s.frame)
	window.Apply(s.frame, s.coeffs)
	c := Column{
		Index:      s.next,
		Magnitudes: s.transform.Compute(make([]float64, s.transform.Bins()), s.frame),
	}
	s.next++
	return c
}

// State returns the current lifecycle phase.
func (s *STFT) State() State { return s.state }

// Primed reports whether the window has filled.
func (s *STFT) Primed() bool { return s.state == Streaming }

// WindowSize returns the frame length in samples.
func (s *STFT) WindowSize() int { return s.windowSize }

// HopSize returns the number of new samples between columns.
func (s *STFT) HopSize() int { return s.hopSize }

// Shape returns the window shape.
func (s *STFT) Shape() window.Shape { return s.shape }

// Bins returns the length of every emitted column.
func (s *STFT) Bins() int { return s.transform.Bins() }

// Gain returns the coherent gain (sum of window coefficients). A full-scale
// sinusoid centred on a bin peaks at about Gain()/2.
func (s *STFT) Gain() float64 { return window.Sum(s.coeffs) }

// BinFrequency returns the centre frequency of bin in Hz.
func (s *STFT) BinFrequency(bin int, sampleRate float64) float64 {
	return s.transform.BinFrequency(bin, sampleRate)
}

// Emitted returns how many columns have been produced so far.
func (s *STFT) Emitted() uint64 { return s.next }
