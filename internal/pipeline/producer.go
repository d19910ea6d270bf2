// SPDX-License-Identifier: MIT
package pipeline

import (
	"spectrogram/internal/stft"
)

// CaptureProducer is the audio.SampleSink that runs the STFT in the capture
// context and forwards each column to the channel.
type CaptureProducer struct {
	stft    *stft.STFT
	channel *ColumnChannel
	emit    func(stft.Column)
}

// NewCaptureProducer returns a producer feeding channel from s.
func NewCaptureProducer(s *stft.STFT, channel *ColumnChannel) *CaptureProducer {
	p := &CaptureProducer{stft: s, channel: channel}
	p.emit = func(c stft.Column) { p.channel.TrySend(c) }
	return p
}

// Accept ingests one chunk of samples. It never blocks; columns that do not
// fit in the channel are dropped.
func (p *CaptureProducer) Accept(samples []float64) {
	p.stft.IngestFunc(samples, p.emit)
}
