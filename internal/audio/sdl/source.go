// SPDX-License-Identifier: MIT

// Package sdl captures from the default SDL2 recording device.
package sdl

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"spectrogram/internal/audio"
	"spectrogram/internal/log"
)

const bytesPerSample = 4 // AUDIO_F32SYS

// Source captures mono float32 audio from the default SDL2 recording
// device using the queued (callback-free) API.
type Source struct {
	sampleRate      int32
	framesPerBuffer int
}

// NewSource returns a source for the default SDL capture device.
func NewSource(sampleRate float64, framesPerBuffer int) *Source {
	return &Source{
		sampleRate:      int32(sampleRate),
		framesPerBuffer: framesPerBuffer,
	}
}

// Run opens the capture device and dequeues audio once per buffer period
// until ctx is done.
func (s *Source) Run(ctx context.Context, sink audio.SampleSink) error {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("failed to initialize SDL audio: %w", err)
	}
	defer sdl.QuitSubSystem(sdl.INIT_AUDIO)

	desired := sdl.AudioSpec{
		Freq:     s.sampleRate,
		Format:   sdl.AUDIO_F32SYS,
		Channels: 1,
		Samples:  uint16(s.framesPerBuffer),
	}
	var obtained sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", true, &desired, &obtained, 0)
	if err != nil {
		return fmt.Errorf("failed to open SDL capture device: %w", err)
	}
	defer sdl.CloseAudioDevice(dev)

	log.Infof("capturing from SDL device at %d Hz, %d frames/buffer", obtained.Freq, obtained.Samples)

	raw := make([]byte, s.framesPerBuffer*bytesPerSample)
	samples := make([]float64, s.framesPerBuffer)
	period := time.Duration(float64(time.Second) * float64(s.framesPerBuffer) / float64(obtained.Freq))

	sdl.PauseAudioDevice(dev, false)
	defer sdl.PauseAudioDevice(dev, true)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// Drain everything queued since the last tick.
		for {
			n, err := sdl.DequeueAudio(dev, raw)
			if err != nil {
				return fmt.Errorf("failed to dequeue SDL audio: %w", err)
			}
			count := int(n) / bytesPerSample
			if count == 0 {
				break
			}
			decodeFloat32(samples[:count], raw)
			sink.Accept(samples[:count])
			if count < s.framesPerBuffer {
				break
			}
		}
	}
}

// decodeFloat32 converts native-endian float32 bytes to float64 samples.
func decodeFloat32(dst []float64, raw []byte) {
	for i := range dst {
		bits := binary.NativeEndian.Uint32(raw[i*bytesPerSample:])
		dst[i] = float64(math.Float32frombits(bits))
	}
}

var _ audio.Source = (*Source)(nil)
