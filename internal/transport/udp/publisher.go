// SPDX-License-Identifier: MIT
// Package udp streams the most recent spectral column as fixed-format
// datagrams.
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"spectrogram/internal/log"
	"spectrogram/internal/render"
)

const headerSize = 4 + 8 + 2

/*
Packet layout (BigEndian)

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Magnitude   |       Magnitudes        |
|      (uint32)     | (ns since epoch,int64)|  Count (N)    |      (N * float32)      |
+-------------------+-----------------------+---------------+-------------------------+
*/

// Packet is a decoded datagram.
type Packet struct {
	Sequence   uint32
	Timestamp  int64
	Magnitudes []float32
}

// ErrShortPacket is returned by DecodePacket for truncated input.
var ErrShortPacket = errors.New("udp: short packet")

// DecodePacket parses one datagram.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < headerSize {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	if len(b) < headerSize+4*n {
		return Packet{}, fmt.Errorf("%w: %d magnitudes need %d bytes, got %d", ErrShortPacket, n, headerSize+4*n, len(b))
	}
	p.Magnitudes = make([]float32, n)
	for i := range n {
		off := headerSize + 4*i
		p.Magnitudes[i] = math.Float32frombits(binary.BigEndian.Uint32(b[off : off+4]))
	}
	return p, nil
}

// Publisher is a render.Surface that keeps the latest drawn column and sends
// it on every tick of its interval. Columns drawn between ticks are
// superseded, never queued.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // guards ticker and doneChan

	latestMu sync.Mutex
	latest   []float32
	have     bool

	sequenceNum  uint32
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a publisher sending through sender. A non-positive
// interval defaults to 16ms.
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		log.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	log.Infof("UDPPublisher: Initializing (Interval: %s)", interval)

	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the send loop. Calling it while running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket(time.Now())
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the send loop and waits for it. It is safe to call repeatedly.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("UDPPublisher: stopped after %d packet(s)", p.sequenceNum)
	return nil
}

// Poll never requests quit.
func (p *Publisher) Poll() bool { return false }

// Draw replaces the latest column.
func (p *Publisher) Draw(f render.Frame) error {
	p.latestMu.Lock()
	defer p.latestMu.Unlock()
	mags := f.Column.Magnitudes
	if len(mags) > math.MaxUint16 {
		mags = mags[:math.MaxUint16]
	}
	if cap(p.latest) < len(mags) {
		p.latest = make([]float32, len(mags))
	}
	p.latest = p.latest[:len(mags)]
	for i, v := range mags {
		p.latest[i] = float32(v)
	}
	p.have = true
	return nil
}

// buildAndSendPacket packs the latest column and sends it. Nothing is sent
// before the first column arrives.
func (p *Publisher) buildAndSendPacket(now time.Time) {
	p.latestMu.Lock()
	if !p.have {
		p.latestMu.Unlock()
		return
	}
	p.f32Buffer = append(p.f32Buffer[:0], p.latest...)
	p.latestMu.Unlock()

	p.sequenceNum++
	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, now.UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.f32Buffer)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		log.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		log.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close stops publishing and closes the sender.
func (p *Publisher) Close() error {
	return errors.Join(p.Stop(), p.sender.Close())
}

// Ensure Publisher satisfies the interface at compile time.
var _ render.Surface = (*Publisher)(nil)
