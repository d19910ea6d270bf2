package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectrogram pipeline.
const (
	// Analysis defaults.
	DefaultWindowSize  = 2048      // ~46ms at 44.1kHz
	DefaultHopSize     = 1024      // 50% overlap
	DefaultWindowShape = "hanning" // Reference window

	// Capture defaults.
	DefaultBackend         = BackendPortAudio
	DefaultChannels        = 1           // Mono audio
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultRealtime        = true        // Pace file input at the sample rate
	DefaultToneHz          = 440.0       // A4

	// Handoff and render defaults.
	DefaultChannelCapacity = 64
	DefaultSurface         = SurfaceTUI
	DefaultFPS             = 60
	DefaultDrain           = DrainAll
	DefaultWidth           = 1024
	DefaultHeight          = 480
	DefaultFloorDB         = -90.0

	// Transport defaults.
	DefaultWebSocketAddr     = ":8080"
	DefaultWebSocketEncoding = EncodingMsgpack
	DefaultUDPTargetAddress  = "127.0.0.1:9090"
	DefaultUDPSendInterval   = 33 * time.Millisecond // ~30Hz

	// Logging defaults.
	DefaultLogLevel = "info"
	DefaultTUILog   = "spectrogram.log" // keeps the alt screen clean

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxWindowSize   = 1 << 16
)

// Capture backends.
const (
	BackendPortAudio = "portaudio"
	BackendSDL       = "sdl"
	BackendFile      = "file"
	BackendTone      = "tone"
)

// Render surfaces.
const (
	SurfaceTUI    = "tui"
	SurfaceWindow = "window"
	SurfaceNone   = "none"
)

// Drain policies for the render loop.
const (
	DrainAll    = "all"
	DrainLatest = "latest"
)

// Frame encodings for the websocket transport.
const (
	EncodingMsgpack = "msgpack"
	EncodingJSON    = "json"
)

// Config represents the application configuration, loaded from YAML and
// overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // debug, info, warn, error.
	LogFile   string          `yaml:"log_file"`          // Rotating log file; stderr when empty.
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running a session.
	STFT      STFTConfig      `yaml:"stft"`              // Analysis geometry.
	Capture   CaptureConfig   `yaml:"capture"`           // Audio source settings.
	Channel   ChannelConfig   `yaml:"channel"`           // Producer/consumer handoff.
	Render    RenderConfig    `yaml:"render"`            // Display settings.
	Transport TransportConfig `yaml:"transport"`         // Network publishers.
}

// STFTConfig fixes the analysis geometry for the session.
type STFTConfig struct {
	WindowSize  int    `yaml:"window_size"`  // Samples per analysis frame.
	HopSize     int    `yaml:"hop_size"`     // New samples between frames (1 <= hop <= window).
	WindowShape string `yaml:"window_shape"` // hanning, hamming, rectangular, blackman, ...
}

// CaptureConfig holds settings related to audio input.
type CaptureConfig struct {
	Backend         string  `yaml:"backend"`           // portaudio, sdl, file or tone.
	Device          int     `yaml:"device"`            // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	Channels        int     `yaml:"channels"`          // Captured channels, downmixed to mono.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per hardware callback / file chunk.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device.
	File            string  `yaml:"file"`              // WAV input for the file backend.
	Realtime        bool    `yaml:"realtime"`          // Pace file input at the sample rate.
	ToneHz          float64 `yaml:"tone_hz"`           // Frequency of the tone backend.
}

// ChannelConfig sizes the column queue between capture and render.
type ChannelConfig struct {
	Capacity int `yaml:"capacity"` // Columns buffered before new ones are dropped.
}

// RenderConfig holds display settings.
type RenderConfig struct {
	Surface string  `yaml:"surface"`  // tui, window or none.
	FPS     int     `yaml:"fps"`      // Render loop cadence.
	Drain   string  `yaml:"drain"`    // all or latest.
	Width   int     `yaml:"width"`    // Window width in pixels.
	Height  int     `yaml:"height"`   // Window height in pixels.
	FloorDB float64 `yaml:"floor_db"` // Magnitude mapped to the bottom of the plot.
}

// TransportConfig holds settings related to sending columns over the network.
type TransportConfig struct {
	WebSocketEnabled  bool          `yaml:"websocket_enabled"`  // Serve columns on /ws.
	WebSocketAddr     string        `yaml:"websocket_addr"`     // Listen address, e.g. ":8080".
	WebSocketEncoding string        `yaml:"websocket_encoding"` // msgpack or json.
	UDPEnabled        bool          `yaml:"udp_enabled"`        // Send the latest column over UDP.
	UDPTargetAddress  string        `yaml:"udp_target_address"` // Target "host:port".
	UDPSendInterval   time.Duration `yaml:"udp_send_interval"`  // Interval between packets.
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		STFT: STFTConfig{
			WindowSize:  DefaultWindowSize,
			HopSize:     DefaultHopSize,
			WindowShape: DefaultWindowShape,
		},
		Capture: CaptureConfig{
			Backend:         DefaultBackend,
			Device:          DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Realtime:        DefaultRealtime,
			ToneHz:          DefaultToneHz,
		},
		Channel: ChannelConfig{
			Capacity: DefaultChannelCapacity,
		},
		Render: RenderConfig{
			Surface: DefaultSurface,
			FPS:     DefaultFPS,
			Drain:   DefaultDrain,
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			FloorDB: DefaultFloorDB,
		},
		Transport: TransportConfig{
			WebSocketAddr:     DefaultWebSocketAddr,
			WebSocketEncoding: DefaultWebSocketEncoding,
			UDPTargetAddress:  DefaultUDPTargetAddress,
			UDPSendInterval:   DefaultUDPSendInterval,
		},
	}
}
