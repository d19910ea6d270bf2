// Package utils holds signal generators and recorders shared by tests.
package utils

import (
	"math"
	"sync"
)

// SampleRecorder collects every chunk passed to Accept. It satisfies the
// capture SampleSink interface and is safe for concurrent use.
type SampleRecorder struct {
	mu      sync.Mutex
	samples []float64
	chunks  int
}

// Accept stores a copy of the samples; the caller may reuse its buffer.
func (r *SampleRecorder) Accept(samples []float64) {
	r.mu.Lock()
	r.samples = append(r.samples, samples...)
	r.chunks++
	r.mu.Unlock()
}

// Samples returns a copy of everything recorded so far.
func (r *SampleRecorder) Samples() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.samples))
	copy(out, r.samples)
	return out
}

// Chunks returns how many times Accept was called.
func (r *SampleRecorder) Chunks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chunks
}

// GenerateComplexWave returns a 440Hz fundamental plus two harmonics, peaking below 1.0.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = signal * 0.9
	}
	return buffer
}

// GenerateSineWave returns size samples of a sine at frequency Hz, amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// Split cuts samples into consecutive chunks whose lengths cycle through sizes.
// The final chunk may be shorter. Sizes must be positive.
func Split(samples []float64, sizes ...int) [][]float64 {
	if len(sizes) == 0 {
		return [][]float64{samples}
	}
	var chunks [][]float64
	for i := 0; len(samples) > 0; i++ {
		n := min(sizes[i%len(sizes)], len(samples))
		chunks = append(chunks, samples[:n])
		samples = samples[n:]
	}
	return chunks
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
