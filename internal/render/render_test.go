// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"math"
	"testing"

	"spectrogram/internal/stft"
	"spectrogram/internal/window"
	"spectrogram/pkg/utils"
)

func TestMapperLevel(t *testing.T) {
	m := NewMapper(16, -60, 2) // scale 1: magnitude == amplitude
	tests := []struct {
		magnitude float64
		want      float64
	}{
		{0, 0},
		{-1, 0},
		{1, 1},
		{10, 1},
		{0.001, 0},  // -60 dB
		{0.0001, 0}, // below the floor
		{math.Pow(10, -30.0/20), 0.5},
	}
	for _, tt := range tests {
		if got := m.Level(tt.magnitude); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Level(%g) = %g, want %g", tt.magnitude, got, tt.want)
		}
	}
}

func TestMapperDefaults(t *testing.T) {
	m := NewMapper(0, 6, 0)
	if m.Width() != 1 || m.floorDB != -90 || m.scale != 1 {
		t.Errorf("NewMapper(0, 6, 0) = %+v", m)
	}
}

func TestMapperMap(t *testing.T) {
	col := stft.Column{Index: 7, Magnitudes: []float64{0, 1, 0, 0, 0.5, 0, 0, 0, 0}}

	t.Run("Fewer points than bins", func(t *testing.T) {
		f := NewMapper(3, -60, 2).Map(col)
		if f.Column.Index != 7 || len(f.Points) != 3 {
			t.Fatalf("frame = %+v", f)
		}
		wantX := []float64{0, 0.5, 1}
		wantY := []float64{1, NewMapper(3, -60, 2).Level(0.5), 0}
		for i, p := range f.Points {
			if p.X != wantX[i] || math.Abs(p.Y-wantY[i]) > 1e-12 {
				t.Errorf("point %d = %+v, want {%g %g}", i, p, wantX[i], wantY[i])
			}
		}
	})

	t.Run("More points than bins", func(t *testing.T) {
		f := NewMapper(1024, -60, 2).Map(col)
		if len(f.Points) != len(col.Magnitudes) {
			t.Fatalf("got %d points, want %d", len(f.Points), len(col.Magnitudes))
		}
		if f.Points[1].Y != 1 || f.Points[8].X != 1 {
			t.Errorf("points = %+v", f.Points)
		}
	})

	t.Run("Single bin", func(t *testing.T) {
		f := NewMapper(8, -60, 2).Map(stft.Column{Magnitudes: []float64{1}})
		if len(f.Points) != 1 || f.Points[0] != (Point{0, 1}) {
			t.Errorf("points = %+v", f.Points)
		}
	})
}

func TestMapperFullScaleSine(t *testing.T) {
	const (
		windowSize = 1024
		sampleRate = 44100
	)
	s, err := stft.New(stft.Config{WindowSize: windowSize, HopSize: windowSize, Shape: window.Hanning})
	if err != nil {
		t.Fatal(err)
	}
	// Bin-centred tone so the peak is not split between bins.
	freq := 64 * float64(sampleRate) / windowSize
	signal := utils.GenerateSineWave(windowSize, sampleRate, freq)
	cols := s.Ingest(signal)
	if len(cols) != 1 {
		t.Fatalf("got %d columns", len(cols))
	}

	m := NewMapper(s.Bins(), -90, s.Gain())
	f := m.Map(cols[0])
	// Generated at amplitude 0.9, about -0.9 dB.
	want := (20*math.Log10(0.9) + 90) / 90
	if got := f.Points[64].Y; math.Abs(got-want) > 0.01 {
		t.Errorf("peak level = %g, want %g", got, want)
	}
}

type fakeSurface struct {
	quit    bool
	drawErr error
	closed  bool
	polled  int
	frames  []Frame
}

func (s *fakeSurface) Poll() bool { s.polled++; return s.quit }
func (s *fakeSurface) Draw(f Frame) error {
	s.frames = append(s.frames, f)
	return s.drawErr
}
func (s *fakeSurface) Close() error { s.closed = true; return nil }

func TestFanout(t *testing.T) {
	errDraw := errors.New("draw failed")
	a := &fakeSurface{}
	b := &fakeSurface{drawErr: errDraw}
	c := &fakeSurface{}
	fan := Fanout{a, b, c}

	if fan.Poll() {
		t.Error("Poll() = true with no quit request")
	}
	if err := fan.Draw(Frame{Column: stft.Column{Index: 3}}); !errors.Is(err, errDraw) {
		t.Errorf("Draw() error = %v, want %v", err, errDraw)
	}
	for i, s := range []*fakeSurface{a, b, c} {
		if len(s.frames) != 1 || s.frames[0].Column.Index != 3 {
			t.Errorf("surface %d frames = %+v", i, s.frames)
		}
	}

	b.quit = true
	if !fan.Poll() {
		t.Error("Poll() = false after a quit request")
	}
	if c.polled != 2 {
		t.Errorf("surface after the quitting one polled %d times, want 2", c.polled)
	}

	if err := fan.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if !a.closed || !b.closed || !c.closed {
		t.Error("not every surface was closed")
	}
}

func TestBandMeter(t *testing.T) {
	const (
		windowSize = 1024
		sampleRate = 1024.0 // 1 Hz per bin
	)
	bands := []Band{
		{Name: "low", LowHz: 0, HighHz: 10},
		{Name: "high", LowHz: 10, HighHz: 20},
		{Name: "empty", LowHz: 2000, HighHz: 3000},
	}
	meter := NewBandMeter(bands, windowSize, sampleRate)

	mags := make([]float64, windowSize/2+1)
	for k := range 10 {
		mags[k] = 2
	}
	mags[15] = 10 // sqrt(100/10)
	mags[100] = 50

	got := meter.Measure(stft.Column{Magnitudes: mags})
	want := []float64{2, math.Sqrt(10), 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("band %s = %g, want %g", bands[i].Name, got[i], want[i])
		}
	}

	// Results do not accumulate across calls.
	got = meter.Measure(stft.Column{Magnitudes: make([]float64, len(mags))})
	for i, v := range got {
		if v != 0 {
			t.Errorf("band %d = %g after silence", i, v)
		}
	}
}

func TestDefaultBandsCoverNyquist(t *testing.T) {
	bands := DefaultBands(48000)
	last := bands[len(bands)-1]
	if last.HighHz <= 24000 {
		t.Errorf("top band ends at %g, below Nyquist", last.HighHz)
	}
	meter := NewBandMeter(bands, 2048, 48000)
	if meter.bandOf[len(meter.bandOf)-1] != len(bands)-1 {
		t.Error("Nyquist bin not assigned to the top band")
	}
	if len(meter.Bands()) != 6 {
		t.Errorf("got %d bands", len(meter.Bands()))
	}
}

func BenchmarkMapperMap(b *testing.B) {
	col := stft.Column{Magnitudes: utils.GenerateComplexWave(1025, 44100)}
	m := NewMapper(1024, -90, 1024)

	b.ReportAllocs()
	for b.Loop() {
		m.Map(col)
	}
}
