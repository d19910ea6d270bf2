// SPDX-License-Identifier: MIT
package stft

// SampleWindow is a fixed-capacity sliding buffer holding the most recent
// samples. Appending past capacity evicts the oldest entries. It performs no
// locking and must be owned by a single goroutine.
type SampleWindow struct {
	buf  []float64
	head int // index of the next write, which is also the oldest sample once full
	n    int // number of valid samples, never exceeds len(buf)
}

// NewSampleWindow creates a window with the given capacity (must be >= 1).
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity < 1 {
		panic("stft: sample window capacity must be at least 1")
	}
	return &SampleWindow{buf: make([]float64, capacity)}
}

// Append adds samples in order, evicting the oldest entries past capacity.
func (w *SampleWindow) Append(samples []float64) {
	size := len(w.buf)

	// Only the last size samples can survive.
	if len(samples) >= size {
		copy(w.buf, samples[len(samples)-size:])
		w.head = 0
		w.n = size
		return
	}

	for len(samples) > 0 {
		k := copy(w.buf[w.head:], samples)
		samples = samples[k:]
		w.head = (w.head + k) % size
		w.n = min(w.n+k, size)
	}
}

// Snapshot copies the window contents, oldest first, into dst and returns it.
// dst is grown if it is shorter than the capacity. Slots not yet written read
// as zero (leading silence). The window is not modified.
func (w *SampleWindow) Snapshot(dst []float64) []float64 {
	size := len(w.buf)
	if cap(dst) < size {
		dst = make([]float64, size)
	}
	dst = dst[:size]

	if w.n < size {
		// Not yet wrapped: valid samples are buf[0:n], preceded by silence.
		pad := size - w.n
		clear(dst[:pad])
		copy(dst[pad:], w.buf[:w.n])
		return dst
	}

	k := copy(dst, w.buf[w.head:])
	copy(dst[k:], w.buf[:w.head])
	return dst
}

// Len returns the number of valid samples currently held.
func (w *SampleWindow) Len() int { return w.n }

// Cap returns the window capacity.
func (w *SampleWindow) Cap() int { return len(w.buf) }
