// SPDX-License-Identifier: MIT
/*
Package pipeline connects capture to display.

The capture context owns the STFT and pushes each column into a bounded
ColumnChannel without ever blocking; when the channel is full the newest
column is dropped and counted. The render context drains the channel at its
own cadence. The channel is the only object the two contexts share.
*/
package pipeline

import (
	"sync"
	"sync/atomic"

	"spectrogram/internal/stft"
)

// RecvStatus is the outcome of a non-blocking receive.
type RecvStatus int

const (
	RecvEmpty  RecvStatus = iota // nothing pending, sender still active
	RecvOK                       // a column was received
	RecvClosed                   // closed and fully drained
)

// ColumnChannel is a bounded single-producer single-consumer queue of columns.
type ColumnChannel struct {
	ch        chan stft.Column
	closed    atomic.Bool
	closeOnce sync.Once

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewColumnChannel returns a channel holding at most capacity columns.
func NewColumnChannel(capacity int) *ColumnChannel {
	if capacity < 1 {
		capacity = 1
	}
	return &ColumnChannel{ch: make(chan stft.Column, capacity)}
}

// TrySend enqueues c without blocking. It returns false and counts a drop
// when the channel is full or closed. Only the producer may call TrySend.
func (c *ColumnChannel) TrySend(col stft.Column) bool {
	if c.closed.Load() {
		c.dropped.Add(1)
		return false
	}
	select {
	case c.ch <- col:
		c.sent.Add(1)
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// TryRecv dequeues the oldest pending column without blocking.
func (c *ColumnChannel) TryRecv() (stft.Column, RecvStatus) {
	select {
	case col, ok := <-c.ch:
		if !ok {
			return stft.Column{}, RecvClosed
		}
		return col, RecvOK
	default:
		return stft.Column{}, RecvEmpty
	}
}

// Close marks the end of the stream. It is idempotent and must only be
// called once the producer has stopped sending.
func (c *ColumnChannel) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.ch)
	})
}

// Discard drops every pending column and returns how many there were.
func (c *ColumnChannel) Discard() int {
	n := 0
	for {
		_, status := c.TryRecv()
		if status != RecvOK {
			return n
		}
		n++
	}
}

// Len returns the number of pending columns.
func (c *ColumnChannel) Len() int { return len(c.ch) }

// Cap returns the channel capacity.
func (c *ColumnChannel) Cap() int { return cap(c.ch) }

// Sent returns the number of columns accepted by TrySend.
func (c *ColumnChannel) Sent() uint64 { return c.sent.Load() }

// Dropped returns the number of columns rejected by TrySend.
func (c *ColumnChannel) Dropped() uint64 { return c.dropped.Load() }
