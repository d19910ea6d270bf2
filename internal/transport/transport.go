// Package transport publishes spectral columns beyond the local display.
package transport

import (
	"time"

	"spectrogram/internal/render"
)

// Message is the wire form of one column.
type Message struct {
	Type       string    `json:"type" msgpack:"type"`
	Index      uint64    `json:"index" msgpack:"index"`
	Timestamp  int64     `json:"ts" msgpack:"ts"` // nanoseconds since epoch
	Magnitudes []float32 `json:"magnitudes" msgpack:"magnitudes"`
	Levels     []float32 `json:"levels,omitempty" msgpack:"levels,omitempty"` // normalized polyline heights
}

// NewMessage converts a frame to its wire form.
func NewMessage(f render.Frame, now time.Time) Message {
	msg := Message{
		Type:       "column",
		Index:      f.Column.Index,
		Timestamp:  now.UnixNano(),
		Magnitudes: make([]float32, len(f.Column.Magnitudes)),
	}
	for i, v := range f.Column.Magnitudes {
		msg.Magnitudes[i] = float32(v)
	}
	if len(f.Points) > 0 {
		msg.Levels = make([]float32, len(f.Points))
		for i, p := range f.Points {
			msg.Levels[i] = float32(p.Y)
		}
	}
	return msg
}

// Transport defines a generic interface for sending messages.
// Implementations should be thread-safe and must not block the caller.
type Transport interface {
	Send(msg Message) error
	Close() error
}

// surface adapts a Transport to the render loop.
type surface struct {
	Transport
}

// AsSurface returns a render.Surface that sends every drawn frame over t.
// It never requests quit; closing it closes t.
func AsSurface(t Transport) render.Surface {
	return surface{t}
}

func (s surface) Poll() bool { return false }

func (s surface) Draw(f render.Frame) error {
	return s.Send(NewMessage(f, time.Now()))
}
