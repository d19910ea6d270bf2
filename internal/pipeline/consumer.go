// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spectrogram/internal/log"
	"spectrogram/internal/render"
	"spectrogram/internal/stft"
)

// Drain selects how pending columns are handled on each tick.
type Drain int

const (
	DrainAll    Drain = iota // draw every pending column in order
	DrainLatest              // draw only the newest pending column
)

func (d Drain) String() string {
	if d == DrainLatest {
		return "latest"
	}
	return "all"
}

// ParseDrain converts "all" or "latest" to a Drain.
func ParseDrain(s string) (Drain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return DrainAll, nil
	case "latest":
		return DrainLatest, nil
	default:
		return DrainAll, fmt.Errorf("unknown drain policy: '%s'", s)
	}
}

// ExitReason records why the render loop stopped.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitQuit            // the surface requested quit
	ExitCancelled       // the context was cancelled
	ExitStreamEnded     // the channel was closed and drained
	ExitDrawError       // a surface failed to draw
)

func (r ExitReason) String() string {
	switch r {
	case ExitQuit:
		return "quit requested"
	case ExitCancelled:
		return "cancelled"
	case ExitStreamEnded:
		return "stream ended"
	case ExitDrawError:
		return "draw error"
	default:
		return "running"
	}
}

// ConsumerOptions paces the render loop.
type ConsumerOptions struct {
	FPS   int
	Drain Drain
}

// RenderConsumer drains the channel on a fixed cadence and draws each
// column to a surface. It runs in the render context.
type RenderConsumer struct {
	channel *ColumnChannel
	surface render.Surface
	mapper  *render.Mapper
	opts    ConsumerOptions

	drawn       uint64
	lastDropped uint64
	reason      ExitReason
}

// NewRenderConsumer returns a consumer drawing from channel to surface.
func NewRenderConsumer(channel *ColumnChannel, surface render.Surface, mapper *render.Mapper, opts ConsumerOptions) *RenderConsumer {
	if opts.FPS < 1 {
		opts.FPS = 60
	}
	return &RenderConsumer{
		channel: channel,
		surface: surface,
		mapper:  mapper,
		opts:    opts,
	}
}

// Run loops until the surface quits, ctx is cancelled, or the channel is
// closed and empty. Only a draw failure is returned as an error.
func (r *RenderConsumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.opts.FPS))
	defer ticker.Stop()

	for {
		if r.surface.Poll() {
			r.reason = ExitQuit
			return nil
		}

		ended, err := r.drain()
		if err != nil {
			r.reason = ExitDrawError
			return err
		}
		r.reportDrops()
		if ended {
			r.reason = ExitStreamEnded
			return nil
		}

		select {
		case <-ctx.Done():
			r.reason = ExitCancelled
			return nil
		case <-ticker.C:
		}
	}
}

// drain handles the columns pending at this tick. It reports whether the
// stream has ended. At most one channel's worth is drawn per tick so a slow
// surface cannot starve Poll.
func (r *RenderConsumer) drain() (bool, error) {
	var (
		latest  stft.Column
		pending bool
	)
	for range r.channel.Cap() {
		col, status := r.channel.TryRecv()
		switch status {
		case RecvEmpty:
			return false, r.flush(latest, pending)
		case RecvClosed:
			return true, r.flush(latest, pending)
		}

		if r.opts.Drain == DrainLatest {
			latest, pending = col, true
			continue
		}
		if err := r.draw(col); err != nil {
			return false, err
		}
	}
	return false, r.flush(latest, pending)
}

func (r *RenderConsumer) flush(col stft.Column, pending bool) error {
	if !pending {
		return nil
	}
	return r.draw(col)
}

func (r *RenderConsumer) draw(col stft.Column) error {
	if err := r.surface.Draw(r.mapper.Map(col)); err != nil {
		return fmt.Errorf("failed to draw column %d: %w", col.Index, err)
	}
	r.drawn++
	return nil
}

// reportDrops logs columns dropped by the producer since the last tick. The
// producer never logs, so this is the only place drops surface.
func (r *RenderConsumer) reportDrops() {
	dropped := r.channel.Dropped()
	if dropped == r.lastDropped {
		return
	}
	log.Warnf("render: %d column(s) dropped (total %d); consumer is falling behind",
		dropped-r.lastDropped, dropped)
	r.lastDropped = dropped
}

// Drawn returns the number of columns drawn so far.
func (r *RenderConsumer) Drawn() uint64 { return r.drawn }

// Reason returns why Run last returned.
func (r *RenderConsumer) Reason() ExitReason { return r.reason }
