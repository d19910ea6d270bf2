// SPDX-License-Identifier: MIT
package portaudio

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"spectrogram/internal/audio"
	"spectrogram/internal/log"
)

// Options selects the device and stream geometry.
type Options struct {
	DeviceID        int
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
}

// Source captures from a PortAudio input device. PortAudio must be
// initialized (see Initialize) for the lifetime of the source.
type Source struct {
	opts    Options
	device  *portaudio.DeviceInfo
	latency time.Duration

	// Mono buffer for the callback, sized for frames per buffer.
	mono []float64
	sink audio.SampleSink
}

// NewSource resolves the input device and prepares the callback buffers.
func NewSource(opts Options) (*Source, error) {
	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}
	if opts.Channels > device.MaxInputChannels {
		return nil, fmt.Errorf("device %q supports %d input channels, %d requested",
			device.Name, device.MaxInputChannels, opts.Channels)
	}

	s := &Source{
		opts:   opts,
		device: device,
		mono:   make([]float64, opts.FramesPerBuffer),
	}
	if opts.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}
	return s, nil
}

// Device returns the resolved input device.
func (s *Source) Device() *portaudio.DeviceInfo { return s.device }

// Run opens the input stream and feeds sink from the PortAudio callback until
// ctx is done.
func (s *Source) Run(ctx context.Context, sink audio.SampleSink) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.opts.Channels,
			Device:   s.device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: s.opts.FramesPerBuffer,
		SampleRate:      s.opts.SampleRate,
	}

	s.sink = sink
	stream, err := portaudio.OpenStream(params, s.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream on %q: %w", s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	log.Infof("capturing from %q at %.0f Hz, %d channel(s), %d frames/buffer, latency %s",
		s.device.Name, s.opts.SampleRate, s.opts.Channels, s.opts.FramesPerBuffer, s.latency)

	<-ctx.Done()

	// Stop blocks until the last callback has returned.
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	return nil
}

// processInputStream is the audio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (s *Source) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.mono = audio.DownmixFloat32(s.mono, in, s.opts.Channels)
	s.sink.Accept(s.mono)
}

var _ audio.Source = (*Source)(nil)
