// SPDX-License-Identifier: MIT
package pipeline

import (
	"sync"
	"testing"
	"time"

	"spectrogram/internal/stft"
	"spectrogram/internal/window"
	"spectrogram/pkg/utils"
)

func column(i uint64) stft.Column {
	return stft.Column{Index: i, Magnitudes: []float64{float64(i)}}
}

func TestColumnChannelDropsNewest(t *testing.T) {
	c := NewColumnChannel(3)
	for i := range uint64(5) {
		ok := c.TrySend(column(i))
		if want := i < 3; ok != want {
			t.Errorf("TrySend(%d) = %v, want %v", i, ok, want)
		}
	}
	if c.Sent() != 3 || c.Dropped() != 2 || c.Len() != 3 || c.Cap() != 3 {
		t.Errorf("sent %d, dropped %d, len %d, cap %d", c.Sent(), c.Dropped(), c.Len(), c.Cap())
	}

	// The oldest columns survive, in order.
	for want := range uint64(3) {
		col, status := c.TryRecv()
		if status != RecvOK || col.Index != want {
			t.Fatalf("TryRecv() = %d, %v, want %d", col.Index, status, want)
		}
	}
	if _, status := c.TryRecv(); status != RecvEmpty {
		t.Errorf("TryRecv() on empty channel = %v", status)
	}
}

func TestColumnChannelClose(t *testing.T) {
	c := NewColumnChannel(4)
	c.TrySend(column(0))
	c.TrySend(column(1))
	c.Close()
	c.Close() // idempotent

	if c.TrySend(column(2)) {
		t.Error("TrySend() succeeded after Close")
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", c.Dropped())
	}

	// Pending columns remain readable after close.
	if col, status := c.TryRecv(); status != RecvOK || col.Index != 0 {
		t.Errorf("TryRecv() = %d, %v", col.Index, status)
	}
	if n := c.Discard(); n != 1 {
		t.Errorf("Discard() = %d, want 1", n)
	}
	if _, status := c.TryRecv(); status != RecvClosed {
		t.Errorf("TryRecv() after drain = %v, want RecvClosed", status)
	}
	if n := c.Discard(); n != 0 {
		t.Errorf("second Discard() = %d", n)
	}
}

func TestColumnChannelMinimumCapacity(t *testing.T) {
	if c := NewColumnChannel(0); c.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", c.Cap())
	}
}

func TestColumnChannelConcurrent(t *testing.T) {
	const total = 10000
	c := NewColumnChannel(16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range uint64(total) {
			c.TrySend(column(i))
		}
		c.Close()
	}()

	var received []uint64
	for {
		col, status := c.TryRecv()
		if status == RecvClosed {
			break
		}
		if status == RecvOK {
			received = append(received, col.Index)
		}
	}
	wg.Wait()

	if uint64(len(received)) != c.Sent() || c.Sent()+c.Dropped() != total {
		t.Errorf("received %d, sent %d, dropped %d", len(received), c.Sent(), c.Dropped())
	}
	for i := 1; i < len(received); i++ {
		if received[i] <= received[i-1] {
			t.Fatalf("columns out of order: %d after %d", received[i], received[i-1])
		}
	}
}

func TestColumnChannelTrySendNoAlloc(t *testing.T) {
	c := NewColumnChannel(1)
	col := column(0)
	c.TrySend(col)

	allocs := testing.AllocsPerRun(100, func() {
		c.TrySend(col) // always full
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations on a full channel, got %.1f", allocs)
	}
}

func TestCaptureProducerForwardsColumns(t *testing.T) {
	s, err := stft.New(stft.Config{WindowSize: 8, HopSize: 4, Shape: window.Hanning})
	if err != nil {
		t.Fatal(err)
	}
	c := NewColumnChannel(16)
	p := NewCaptureProducer(s, c)

	for _, chunk := range utils.Split(utils.GenerateComplexWave(40, 8000), 3) {
		p.Accept(chunk)
	}

	// 1 + (40-8)/4 columns.
	if c.Len() != 9 || s.Emitted() != 9 {
		t.Fatalf("channel holds %d, emitted %d, want 9", c.Len(), s.Emitted())
	}
	for want := range uint64(9) {
		col, _ := c.TryRecv()
		if col.Index != want || len(col.Magnitudes) != 5 {
			t.Errorf("column %d: index %d, %d bins", want, col.Index, len(col.Magnitudes))
		}
	}
}

// With nobody draining, Accept must still return promptly and count drops.
func TestCaptureProducerBoundedUnderPausedConsumer(t *testing.T) {
	const (
		windowSize = 256
		hopSize    = 64
		capacity   = 4
		chunk      = 512
		chunks     = 200
	)
	s, err := stft.New(stft.Config{WindowSize: windowSize, HopSize: hopSize, Shape: window.Hanning})
	if err != nil {
		t.Fatal(err)
	}
	c := NewColumnChannel(capacity)
	p := NewCaptureProducer(s, c)
	buf := utils.GenerateComplexWave(chunk, 44100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range chunks {
			p.Accept(buf)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Accept blocked with a full channel")
	}

	total := uint64(1 + (chunk*chunks-windowSize)/hopSize)
	if s.Emitted() != total {
		t.Errorf("emitted %d, want %d", s.Emitted(), total)
	}
	if c.Sent() != capacity || c.Dropped() != total-capacity {
		t.Errorf("sent %d, dropped %d, want %d and %d", c.Sent(), c.Dropped(), capacity, total-capacity)
	}
}

func BenchmarkTrySendRecv(b *testing.B) {
	c := NewColumnChannel(64)
	col := column(1)

	b.ReportAllocs()
	for b.Loop() {
		c.TrySend(col)
		c.TryRecv()
	}
}
