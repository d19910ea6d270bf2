// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"spectrogram/internal/log"
	"spectrogram/internal/window"
	"spectrogram/pkg/bitint"
)

var (
	ErrInvalidWindowSize = errors.New("stft.window_size out of range")
	ErrInvalidHopSize    = errors.New("stft.hop_size must satisfy 1 <= hop <= window")
	ErrInvalidShape      = errors.New("stft.window_shape is not a known window")
	ErrInvalidBackend    = errors.New("capture.backend is not a known backend")
	ErrInvalidSampleRate = errors.New("capture.sample_rate out of range")
	ErrInvalidChannels   = errors.New("capture.channels must be at least 1")
	ErrInvalidFrames     = errors.New("capture.frames_per_buffer out of range")
	ErrInvalidDevice     = errors.New("capture.device must be -1 or a device index")
	ErrMissingFile       = errors.New("capture.file is required for the file backend")
	ErrInvalidCapacity   = errors.New("channel.capacity must be at least 1")
	ErrInvalidSurface    = errors.New("render.surface is not a known surface")
	ErrInvalidFPS        = errors.New("render.fps must be at least 1")
	ErrInvalidDrain      = errors.New("render.drain must be all or latest")
	ErrInvalidGeometry   = errors.New("render.width and render.height must be positive")
	ErrInvalidEncoding   = errors.New("transport.websocket_encoding must be msgpack or json")
	ErrInvalidAddress    = errors.New("transport address is invalid")
	ErrInvalidInterval   = errors.New("transport.udp_send_interval must be positive")
)

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReadConfig is LoadConfig without validation, for callers that apply
// further overrides (command-line flags) and validate once at the end.
func ReadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "spectrogram.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Validate checks every section and returns the first violation found.
// A window size that is not a power of two is legal but slower, so it is
// only logged.
func (c *Config) Validate() error {
	if c.STFT.WindowSize < 1 || c.STFT.WindowSize > MaxWindowSize {
		return fmt.Errorf("%w: %d", ErrInvalidWindowSize, c.STFT.WindowSize)
	}
	if c.STFT.HopSize < 1 || c.STFT.HopSize > c.STFT.WindowSize {
		return fmt.Errorf("%w: hop %d, window %d", ErrInvalidHopSize, c.STFT.HopSize, c.STFT.WindowSize)
	}
	if _, err := window.ParseShape(c.STFT.WindowShape); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidShape, c.STFT.WindowShape)
	}
	if !bitint.IsPowerOfTwo(c.STFT.WindowSize) {
		log.Warnf("stft.window_size %d is not a power of two (try %d or %d); transforms will be slower",
			c.STFT.WindowSize, bitint.PrevPowerOfTwo(c.STFT.WindowSize), bitint.NextPowerOfTwo(c.STFT.WindowSize))
	}

	switch c.Capture.Backend {
	case BackendPortAudio, BackendSDL, BackendTone:
	case BackendFile:
		if c.Capture.File == "" {
			return ErrMissingFile
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Capture.Backend)
	}
	if c.Capture.SampleRate < MinSampleRate || c.Capture.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRate, c.Capture.SampleRate)
	}
	if c.Capture.Channels < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Capture.Channels)
	}
	if c.Capture.FramesPerBuffer < 1 || c.Capture.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: %d", ErrInvalidFrames, c.Capture.FramesPerBuffer)
	}
	if c.Capture.Device < MinDeviceID {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, c.Capture.Device)
	}

	if c.Channel.Capacity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Channel.Capacity)
	}

	switch c.Render.Surface {
	case SurfaceTUI, SurfaceWindow, SurfaceNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSurface, c.Render.Surface)
	}
	if c.Render.FPS < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, c.Render.FPS)
	}
	if c.Render.Drain != DrainAll && c.Render.Drain != DrainLatest {
		return fmt.Errorf("%w: %q", ErrInvalidDrain, c.Render.Drain)
	}
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, c.Render.Width, c.Render.Height)
	}

	if c.Transport.WebSocketEnabled {
		if c.Transport.WebSocketEncoding != EncodingMsgpack && c.Transport.WebSocketEncoding != EncodingJSON {
			return fmt.Errorf("%w: %q", ErrInvalidEncoding, c.Transport.WebSocketEncoding)
		}
		if _, _, err := net.SplitHostPort(c.Transport.WebSocketAddr); err != nil {
			return fmt.Errorf("%w: websocket_addr %q: %v", ErrInvalidAddress, c.Transport.WebSocketAddr, err)
		}
	}
	if c.Transport.UDPEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.UDPTargetAddress); err != nil {
			return fmt.Errorf("%w: udp_target_address %q: %v", ErrInvalidAddress, c.Transport.UDPTargetAddress, err)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidInterval, c.Transport.UDPSendInterval)
		}
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Debugf("configuration: Overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Debugf("configuration: Overriding log_level from env: %s", val)
	}

	// ENV_{STFT,CAPTURE}_{...}
	// These shape the analysis.

	if val, ok := os.LookupEnv("ENV_WINDOW_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.STFT.WindowSize = iVal
			log.Debugf("configuration: Overriding stft.window_size from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_HOP_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.STFT.HopSize = iVal
			log.Debugf("configuration: Overriding stft.hop_size from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WINDOW_SHAPE"); ok {
		cfg.STFT.WindowShape = val
		log.Debugf("configuration: Overriding stft.window_shape from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Capture.SampleRate = fVal
			log.Debugf("configuration: Overriding capture.sample_rate from env: %g", fVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_CAPTURE_BACKEND"); ok {
		cfg.Capture.Backend = val
		log.Debugf("configuration: Overriding capture.backend from env: %s", val)
	}

	// ENV_UDP_{...} and ENV_WS_{...}
	// These are specific to the transport layer.

	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			log.Debugf("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Debugf("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			log.Debugf("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
			log.Debugf("configuration: Overriding transport.websocket_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
		log.Debugf("configuration: Overriding transport.websocket_addr from env: %s", val)
	}
}

// Shape resolves the configured window shape.
func (c *Config) Shape() window.Shape {
	s, _ := window.ParseShape(c.STFT.WindowShape)
	return s
}
