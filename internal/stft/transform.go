// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform computes the magnitude spectrum of real-valued frames of a fixed
// length. It holds a reusable FFT plan and coefficient buffer, so a Transform
// must not be shared between goroutines.
type Transform struct {
	size   int
	fft    *fourier.FFT
	coeffs []complex128 // N/2+1 complex values for real input
}

// NewTransform creates a transform for frames of size samples (size >= 1).
// Any size is accepted; powers of two take the fastest path.
func NewTransform(size int) *Transform {
	if size < 1 {
		panic("stft: transform size must be at least 1")
	}
	return &Transform{
		size:   size,
		fft:    fourier.NewFFT(size),
		coeffs: make([]complex128, size/2+1),
	}
}

// Bins returns the number of magnitude values produced per frame.
func (t *Transform) Bins() int { return len(t.coeffs) }

// Compute writes |X[k]| for k = 0..N/2 of the frame into dst and returns it.
// dst is grown if needed. The frame must be exactly the transform size.
func (t *Transform) Compute(dst, frame []float64) []float64 {
	if len(frame) != t.size {
		panic(fmt.Sprintf("stft: frame length %d, transform size %d", len(frame), t.size))
	}
	bins := len(t.coeffs)
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]

	t.fft.Coefficients(t.coeffs, frame)
	for i, c := range t.coeffs {
		dst[i] = cmplx.Abs(c)
	}
	return dst
}

// BinFrequency returns the centre frequency in Hz of bin for the given sample rate.
func (t *Transform) BinFrequency(bin int, sampleRate float64) float64 {
	if bin < 0 || bin >= len(t.coeffs) {
		return 0
	}
	return float64(bin) * sampleRate / float64(t.size)
}
