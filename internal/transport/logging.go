package transport

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spectrogram/internal/log"
	"spectrogram/internal/render"
)

// LoggingTransport is the headless surface. It logs band energies for every
// column at debug level and a column rate summary at info level.
//
// It never requests quit; a headless run ends on cancellation or when the
// source runs dry.
type LoggingTransport struct {
	meter    *render.BandMeter
	interval time.Duration
	now      func() time.Time

	last    time.Time
	columns uint64
	total   uint64
}

// NewLoggingTransport creates a headless surface that measures bands with
// meter and logs a summary every interval (0 disables the summary).
func NewLoggingTransport(meter *render.BandMeter, interval time.Duration) *LoggingTransport {
	log.Info("Transport: Using LoggingTransport")
	return &LoggingTransport{meter: meter, interval: interval, now: time.Now}
}

// Poll never requests quit.
func (lt *LoggingTransport) Poll() bool { return false }

// Draw logs the frame's band energies.
func (lt *LoggingTransport) Draw(f render.Frame) error {
	lt.columns++
	lt.total++

	if lt.meter != nil && log.GetLevel() <= log.LevelDebug {
		levels := lt.meter.Measure(f.Column)
		ev := log.Logger().Debug().Uint64("column", f.Column.Index)
		dict := zerolog.Dict()
		for i, band := range lt.meter.Bands() {
			dict.Float64(band.Name, levels[i])
		}
		ev.Dict("bands", dict).Msg("LOG_TRANSPORT: column")
	}

	if lt.interval <= 0 {
		return nil
	}
	now := lt.now()
	if lt.last.IsZero() {
		lt.last = now
		return nil
	}
	if elapsed := now.Sub(lt.last); elapsed >= lt.interval {
		log.Infof("LOG_TRANSPORT: %d column(s) in %s (%.1f/s), last index %d",
			lt.columns, elapsed.Round(time.Millisecond), float64(lt.columns)/elapsed.Seconds(), f.Column.Index)
		lt.columns = 0
		lt.last = now
	}
	return nil
}

// Total returns the number of frames drawn.
func (lt *LoggingTransport) Total() uint64 { return lt.total }

// Close logs the final count.
func (lt *LoggingTransport) Close() error {
	names := make([]string, 0, 8)
	if lt.meter != nil {
		for _, b := range lt.meter.Bands() {
			names = append(names, b.Name)
		}
	}
	log.Infof("LOG_TRANSPORT: Close called after %d column(s) [bands: %s]", lt.total, strings.Join(names, ","))
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ render.Surface = (*LoggingTransport)(nil)
