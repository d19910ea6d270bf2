// SPDX-License-Identifier: MIT
/*
Package audio provides the capture side of the spectrogram:
- Sources that deliver mono float64 samples in [-1, 1] (WAV file, tone)
- The Device description shared by host backends
- Channel downmix and sample format conversion

The PortAudio and SDL2 backends live in the portaudio and sdl subpackages so
that this package links no C library.

Thread Safety:
- A Source calls its sink from a single capture context
- Sample slices handed to a sink are only valid for the duration of the call
- Sources reuse pre-allocated buffers in the hot path
*/
package audio

import "context"

// SampleSink receives captured audio. Accept is called from the capture
// context and must not block; implementations copy what they keep.
type SampleSink interface {
	Accept(samples []float64)
}

// SinkFunc adapts an ordinary function to a SampleSink.
type SinkFunc func(samples []float64)

// Accept calls f(samples).
func (f SinkFunc) Accept(samples []float64) { f(samples) }

// Source produces mono samples until ctx is cancelled or its input ends.
// Run returns nil in both cases; errors are reserved for device failures.
// Once Run returns, the sink is never called again.
type Source interface {
	Run(ctx context.Context, sink SampleSink) error
}
