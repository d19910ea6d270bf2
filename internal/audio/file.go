// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectrogram/internal/log"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("not a valid PCM WAV file")

// FileSource streams a PCM WAV file as if it were live input. Run returns
// when the file is exhausted.
type FileSource struct {
	file            *os.File
	decoder         *wav.Decoder
	framesPerBuffer int
	realtime        bool

	buf  *audio.IntBuffer
	mono []float64
}

// NewFileSource opens path and reads its header. When realtime is set, Run
// paces chunks at the file's sample rate.
func NewFileSource(path string, framesPerBuffer int, realtime bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	if err := d.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	channels := int(d.NumChans)
	return &FileSource{
		file:            f,
		decoder:         d,
		framesPerBuffer: framesPerBuffer,
		realtime:        realtime,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: int(d.SampleRate)},
			Data:   make([]int, framesPerBuffer*channels),
		},
		mono: make([]float64, framesPerBuffer),
	}, nil
}

// SampleRate reports the file's sample rate in Hz.
func (s *FileSource) SampleRate() float64 { return float64(s.decoder.SampleRate) }

// Channels reports the file's interleaved channel count.
func (s *FileSource) Channels() int { return int(s.decoder.NumChans) }

// Duration reports the playing time of the file.
func (s *FileSource) Duration() time.Duration {
	d, err := s.decoder.Duration()
	if err != nil {
		return 0
	}
	return d
}

// Run decodes the file chunk by chunk into sink. The file is closed on return.
func (s *FileSource) Run(ctx context.Context, sink SampleSink) error {
	defer s.file.Close()

	channels := s.Channels()
	bitDepth := int(s.decoder.BitDepth)
	log.Infof("streaming %s: %.0f Hz, %d-bit, %d channel(s), %s",
		s.file.Name(), s.SampleRate(), bitDepth, channels, s.Duration())

	var tick <-chan time.Time
	if s.realtime {
		period := time.Duration(float64(time.Second) * float64(s.framesPerBuffer) / s.SampleRate())
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", s.file.Name(), err)
		}
		if n == 0 {
			log.Infof("reached end of %s", s.file.Name())
			return nil
		}

		s.mono = DownmixInt(s.mono, s.buf.Data[:n], bitDepth, channels)
		sink.Accept(s.mono)

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}
}
