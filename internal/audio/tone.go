// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"math"
	"time"
)

// ToneSource generates a phase-continuous sine wave, paced at the sample rate.
type ToneSource struct {
	Frequency       float64
	Amplitude       float64
	SampleRate      float64
	FramesPerBuffer int

	phase float64
}

// NewToneSource returns a source producing a sine of the given frequency at
// amplitude 0.5.
func NewToneSource(frequency, sampleRate float64, framesPerBuffer int) *ToneSource {
	return &ToneSource{
		Frequency:       frequency,
		Amplitude:       0.5,
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
}

// Fill writes the next len(dst) samples of the tone.
func (s *ToneSource) Fill(dst []float64) {
	step := 2 * math.Pi * s.Frequency / s.SampleRate
	for i := range dst {
		dst[i] = s.Amplitude * math.Sin(s.phase)
		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

// Run delivers one buffer per buffer period until ctx is done.
func (s *ToneSource) Run(ctx context.Context, sink SampleSink) error {
	buf := make([]float64, s.FramesPerBuffer)
	period := time.Duration(float64(time.Second) * float64(s.FramesPerBuffer) / s.SampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Fill(buf)
			sink.Accept(buf)
		}
	}
}
