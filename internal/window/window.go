// SPDX-License-Identifier: MIT

// Package window builds the per-sample weighting tables applied to analysis
// frames before they are transformed. A table is computed once for a given
// shape and size and is read-only afterwards.
package window

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	gwindow "gonum.org/v1/gonum/dsp/window"
)

// ErrInvalidSize is returned when a table of fewer than one coefficient is requested.
var ErrInvalidSize = errors.New("window size must be at least 1")

// Generate returns a new coefficient table of the given shape and size.
// A single-coefficient table is always [1.0].
func Generate(shape Shape, size int) ([]float64, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, size)
	}
	if !shape.Valid() {
		return nil, fmt.Errorf("invalid window shape %d", int(shape))
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	if size == 1 {
		return coeffs, nil
	}

	switch shape {
	case Hanning:
		k := 2 * math.Pi / float64(size-1)
		for i := range coeffs {
			coeffs[i] = 0.5 * (1 - math.Cos(k*float64(i)))
		}
	case Hamming:
		gwindow.Hamming(coeffs)
	case Rectangular:
		// All ones.
	case Blackman:
		gwindow.Blackman(coeffs)
	case BlackmanNuttall:
		gwindow.BlackmanNuttall(coeffs)
	case BartlettHann:
		gwindow.BartlettHann(coeffs)
	case Nuttall:
		gwindow.Nuttall(coeffs)
	case Lanczos:
		gwindow.Lanczos(coeffs)
	}
	return coeffs, nil
}

// Apply multiplies frame elementwise by coeffs in place. Both slices must have
// the same length.
func Apply(frame, coeffs []float64) {
	if len(frame) != len(coeffs) {
		panic(fmt.Sprintf("window: frame length %d does not match table length %d", len(frame), len(coeffs)))
	}
	for i, c := range coeffs {
		frame[i] *= c
	}
}

// Sum returns the sum of the coefficients (the coherent gain of the window).
func Sum(coeffs []float64) float64 {
	var s float64
	for _, c := range coeffs {
		s += c
	}
	return s
}

type tableKey struct {
	shape Shape
	size  int
}

const tableCacheSize = 16

var tables *lru.Cache[tableKey, []float64]

func init() {
	var err error
	tables, err = lru.New[tableKey, []float64](tableCacheSize)
	if err != nil {
		panic(err)
	}
}

// Table returns a shared coefficient table for shape and size, generating it on
// first use. Callers must treat the returned slice as read-only.
func Table(shape Shape, size int) ([]float64, error) {
	key := tableKey{shape: shape, size: size}
	if coeffs, ok := tables.Get(key); ok {
		return coeffs, nil
	}
	coeffs, err := Generate(shape, size)
	if err != nil {
		return nil, err
	}
	tables.Add(key, coeffs)
	return coeffs, nil
}
