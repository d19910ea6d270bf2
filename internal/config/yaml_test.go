// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spectrogram/internal/window"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.STFT.WindowSize != DefaultWindowSize || cfg.STFT.HopSize != DefaultHopSize {
		t.Errorf("geometry = %d/%d, want defaults", cfg.STFT.WindowSize, cfg.STFT.HopSize)
	}
	if cfg.Shape() != window.Hanning {
		t.Errorf("Shape() = %v, want hanning", cfg.Shape())
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
stft:
  window_size: 1024
  hop_size: 256
  window_shape: blackman
capture:
  backend: tone
  tone_hz: 1000
channel:
  capacity: 8
render:
  surface: none
  drain: latest
transport:
  udp_enabled: true
  udp_send_interval: 10ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.STFT.WindowSize != 1024 || cfg.STFT.HopSize != 256 || cfg.Shape() != window.Blackman {
		t.Errorf("stft = %+v", cfg.STFT)
	}
	if cfg.Capture.Backend != BackendTone || cfg.Capture.ToneHz != 1000 {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Capture.SampleRate != DefaultSampleRate || cfg.Render.FPS != DefaultFPS {
		t.Errorf("defaults lost: sample_rate %g, fps %d", cfg.Capture.SampleRate, cfg.Render.FPS)
	}
	if cfg.Channel.Capacity != 8 || cfg.Render.Surface != SurfaceNone || cfg.Render.Drain != DrainLatest {
		t.Errorf("channel/render = %+v %+v", cfg.Channel, cfg.Render)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "stft:\n  window_size: 1024\n  hop_size: 512\n")
	t.Setenv("ENV_WINDOW_SIZE", "4096")
	t.Setenv("ENV_HOP_SIZE", "1024")
	t.Setenv("ENV_WINDOW_SHAPE", "hamming")
	t.Setenv("ENV_SAMPLE_RATE", "48000")
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_WS_ENABLED", "true")
	t.Setenv("ENV_WS_ADDR", "127.0.0.1:0")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.STFT.WindowSize != 4096 || cfg.STFT.HopSize != 1024 || cfg.Shape() != window.Hamming {
		t.Errorf("stft = %+v", cfg.STFT)
	}
	if cfg.Capture.SampleRate != 48000 || !cfg.Debug {
		t.Errorf("sample_rate %g, debug %v", cfg.Capture.SampleRate, cfg.Debug)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddr != "127.0.0.1:0" {
		t.Errorf("websocket = %v %q", cfg.Transport.WebSocketEnabled, cfg.Transport.WebSocketAddr)
	}
	if cfg.Transport.UDPSendInterval != DefaultUDPSendInterval {
		t.Errorf("unparseable interval applied: %s", cfg.Transport.UDPSendInterval)
	}
}

func TestLoadConfig_EnvInvalidGeometry(t *testing.T) {
	t.Setenv("ENV_HOP_SIZE", "4096")
	_, err := LoadConfig(writeTempConfig(t, "stft:\n  window_size: 2048\n"))
	if !errors.Is(err, ErrInvalidHopSize) {
		t.Errorf("LoadConfig() error = %v, want ErrInvalidHopSize", err)
	}
}

func TestReadConfig_SkipsValidation(t *testing.T) {
	t.Setenv("ENV_CAPTURE_BACKEND", BackendFile)
	cfg, err := ReadConfig("")
	if err != nil {
		t.Fatalf("ReadConfig() error: %v", err)
	}
	if cfg.Capture.Backend != BackendFile || cfg.Capture.File != "" {
		t.Errorf("Capture = %+v", cfg.Capture)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingFile) {
		t.Errorf("Validate() error = %v, want ErrMissingFile", err)
	}
	if _, err := LoadConfig(""); !errors.Is(err, ErrMissingFile) {
		t.Errorf("LoadConfig() error = %v, want ErrMissingFile", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"Defaults", func(*Config) {}, nil},
		{"Non power of two window", func(c *Config) { c.STFT.WindowSize, c.STFT.HopSize = 1000, 250 }, nil},
		{"Hop equals window", func(c *Config) { c.STFT.HopSize = c.STFT.WindowSize }, nil},
		{"Zero window", func(c *Config) { c.STFT.WindowSize = 0 }, ErrInvalidWindowSize},
		{"Huge window", func(c *Config) { c.STFT.WindowSize = MaxWindowSize + 1 }, ErrInvalidWindowSize},
		{"Zero hop", func(c *Config) { c.STFT.HopSize = 0 }, ErrInvalidHopSize},
		{"Hop above window", func(c *Config) { c.STFT.HopSize = c.STFT.WindowSize + 1 }, ErrInvalidHopSize},
		{"Unknown shape", func(c *Config) { c.STFT.WindowShape = "triangle" }, ErrInvalidShape},
		{"Unknown backend", func(c *Config) { c.Capture.Backend = "jack" }, ErrInvalidBackend},
		{"File backend without file", func(c *Config) { c.Capture.Backend = BackendFile }, ErrMissingFile},
		{"File backend with file", func(c *Config) { c.Capture.Backend, c.Capture.File = BackendFile, "a.wav" }, nil},
		{"Low sample rate", func(c *Config) { c.Capture.SampleRate = 4000 }, ErrInvalidSampleRate},
		{"High sample rate", func(c *Config) { c.Capture.SampleRate = 384000 }, ErrInvalidSampleRate},
		{"Zero channels", func(c *Config) { c.Capture.Channels = 0 }, ErrInvalidChannels},
		{"Zero frames", func(c *Config) { c.Capture.FramesPerBuffer = 0 }, ErrInvalidFrames},
		{"Too many frames", func(c *Config) { c.Capture.FramesPerBuffer = MaxBufferFrames + 1 }, ErrInvalidFrames},
		{"Bad device", func(c *Config) { c.Capture.Device = -2 }, ErrInvalidDevice},
		{"Zero capacity", func(c *Config) { c.Channel.Capacity = 0 }, ErrInvalidCapacity},
		{"Unknown surface", func(c *Config) { c.Render.Surface = "web" }, ErrInvalidSurface},
		{"Zero fps", func(c *Config) { c.Render.FPS = 0 }, ErrInvalidFPS},
		{"Unknown drain", func(c *Config) { c.Render.Drain = "some" }, ErrInvalidDrain},
		{"Zero width", func(c *Config) { c.Render.Width = 0 }, ErrInvalidGeometry},
		{"Bad encoding", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketEncoding = "xml"
		}, ErrInvalidEncoding},
		{"Bad websocket address", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddr = "8080"
		}, ErrInvalidAddress},
		{"Bad UDP address", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, ErrInvalidAddress},
		{"Zero UDP interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, ErrInvalidInterval},
		{"Disabled transports skip checks", func(c *Config) {
			c.Transport.UDPTargetAddress = ""
			c.Transport.WebSocketEncoding = ""
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
