// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spectrogram/internal/audio"
	"spectrogram/internal/log"
	"spectrogram/internal/render"
	"spectrogram/internal/stft"
)

// SessionOptions sizes the channel and configures the render loop.
type SessionOptions struct {
	Capacity int
	FPS      int
	Drain    Drain
	Width    int     // points per frame
	FloorDB  float64 // bottom of the plot
}

// Stats summarizes a finished session.
type Stats struct {
	Emitted   uint64 // columns produced by the STFT
	Sent      uint64 // columns that entered the channel
	Dropped   uint64 // columns dropped on a full channel
	Drawn     uint64 // columns drawn by the consumer
	Discarded int    // columns left in the channel at teardown
	Primed    bool   // the STFT filled its first window
	Reason    ExitReason
}

// Session wires a source, the STFT, the channel and a surface together.
type Session struct {
	source   audio.Source
	stft     *stft.STFT
	channel  *ColumnChannel
	producer *CaptureProducer
	consumer *RenderConsumer
	surface  render.Surface
	stats    Stats
}

// NewSession builds the pipeline. The surface is owned by the session and
// closed when Run returns.
func NewSession(source audio.Source, s *stft.STFT, surface render.Surface, opts SessionOptions) *Session {
	channel := NewColumnChannel(opts.Capacity)
	mapper := render.NewMapper(opts.Width, opts.FloorDB, s.Gain())
	return &Session{
		source:   source,
		stft:     s,
		channel:  channel,
		producer: NewCaptureProducer(s, channel),
		consumer: NewRenderConsumer(channel, surface, mapper, ConsumerOptions{FPS: opts.FPS, Drain: opts.Drain}),
		surface:  surface,
	}
}

// Run starts capture on its own goroutine and runs the render loop on the
// calling goroutine, which must be the main thread for SDL surfaces. It
// returns after capture has stopped, the channel is discarded and the
// surface is closed.
func (s *Session) Run(ctx context.Context) error {
	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(captureCtx)
	g.Go(func() error {
		// The source is the only sender; once it returns the channel can close.
		defer s.channel.Close()
		if err := s.source.Run(gctx, s.producer); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		return nil
	})

	log.Infof("session: started (window %d, hop %d, %s, capacity %d)",
		s.stft.WindowSize(), s.stft.HopSize(), s.stft.Shape(), s.channel.Cap())

	renderErr := s.consumer.Run(ctx)

	// Teardown: stop capture, then release the channel, then the surface.
	cancel()
	captureErr := g.Wait()
	s.channel.Close()
	discarded := s.channel.Discard()
	closeErr := s.surface.Close()

	s.stats = Stats{
		Emitted:   s.stft.Emitted(),
		Sent:      s.channel.Sent(),
		Dropped:   s.channel.Dropped(),
		Drawn:     s.consumer.Drawn(),
		Discarded: discarded,
		Primed:    s.stft.Primed(),
		Reason:    s.consumer.Reason(),
	}
	if !s.stats.Primed {
		log.Warnf("session: source stopped before the first %d-sample window filled", s.stft.WindowSize())
	}
	log.Infof("session: stopped (%s): emitted %d, drawn %d, dropped %d, discarded %d",
		s.stats.Reason, s.stats.Emitted, s.stats.Drawn, s.stats.Dropped, s.stats.Discarded)

	if closeErr != nil {
		closeErr = fmt.Errorf("close surface: %w", closeErr)
	}
	return errors.Join(renderErr, captureErr, closeErr)
}

// Stats returns the counters of the last Run.
func (s *Session) Stats() Stats { return s.stats }
