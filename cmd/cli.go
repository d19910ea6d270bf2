package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"spectrogram/internal/config"
	"spectrogram/pkg/build"
)

// Commands that replace the session.
const (
	CommandList   = "list"
	CommandSelect = "select"
)

// flagValues receives the raw flag values. Only flags the user set are
// copied over the loaded configuration.
type flagValues struct {
	configPath string

	device          int
	sampleRate      float64
	channels        int
	framesPerBuffer int
	lowLatency      bool

	windowSize int
	hopSize    int
	shape      string

	backend  string
	file     string
	tone     float64
	realtime bool

	surface  string
	fps      int
	drain    string
	capacity int

	wsAddr      string
	wsEncoding  string
	udpAddr     string
	udpInterval time.Duration

	verbose  bool
	logLevel string
	logFile  string
}

// ParseArgs parses args (without the program name) and returns the final
// configuration: built-in defaults, then the config file, then ENV_*
// variables, then explicitly set flags. It returns a nil config when cobra
// handled the invocation itself (--help, --version).
func ParseArgs(args []string, out io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		fv      flagValues
		options *config.Config
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Long:          "Capture audio, compute a streaming short-time Fourier transform and draw each column live.",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.ReadConfig(fv.configPath)
		if err != nil {
			return err
		}
		fv.apply(cfg, cmd.Flags().Changed)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.Command = command
		options = cfg
		return nil
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return load(cmd, "")
	}

	var interactive bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return load(cmd, CommandSelect)
			}
			return load(cmd, CommandList)
		},
	}
	listCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick a device and sample rate interactively, then start capturing")
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", "", "Path to a YAML config file (default: ./config.yaml if present)")

	// Capture
	pf.StringVar(&fv.backend, "backend", config.DefaultBackend, "Capture backend: portaudio, sdl, file or tone")
	pf.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate, "Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels, "Number of channels to capture, downmixed to mono")
	pf.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency, "Use low latency mode for real-time processing")
	pf.StringVarP(&fv.file, "file", "f", "", "WAV file to analyse (implies --backend file)")
	pf.BoolVar(&fv.realtime, "realtime", config.DefaultRealtime, "Pace file input at its sample rate")
	pf.Float64Var(&fv.tone, "tone", config.DefaultToneHz, "Frequency of the test tone (implies --backend tone)")

	// Analysis
	pf.IntVarP(&fv.windowSize, "window-size", "w", config.DefaultWindowSize, "Samples per analysis window")
	pf.IntVarP(&fv.hopSize, "hop-size", "p", config.DefaultHopSize, "New samples between columns")
	pf.StringVar(&fv.shape, "window", config.DefaultWindowShape, "Window shape (hanning, hamming, blackman, rectangular, ...)")

	// Render
	pf.StringVar(&fv.surface, "surface", config.DefaultSurface, "Display: tui, window or none")
	pf.IntVar(&fv.fps, "fps", config.DefaultFPS, "Render loop frames per second")
	pf.StringVar(&fv.drain, "drain", config.DefaultDrain, "Per-frame drain policy: all or latest")
	pf.IntVar(&fv.capacity, "capacity", config.DefaultChannelCapacity, "Columns buffered between capture and render")

	// Transport
	pf.StringVar(&fv.wsAddr, "ws", config.DefaultWebSocketAddr, "Serve columns over a websocket on this address")
	pf.StringVar(&fv.wsEncoding, "ws-encoding", config.DefaultWebSocketEncoding, "Websocket frame encoding: msgpack or json")
	pf.StringVar(&fv.udpAddr, "udp", config.DefaultUDPTargetAddress, "Send the latest column over UDP to host:port")
	pf.DurationVar(&fv.udpInterval, "udp-interval", config.DefaultUDPSendInterval, "Interval between UDP packets")

	// Logging
	pf.BoolVarP(&fv.verbose, "verbose", "v", false, "Show verbose output")
	pf.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&fv.logFile, "log-file", "", "Write logs to a rotating file")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// apply copies every flag for which changed returns true.
func (fv *flagValues) apply(cfg *config.Config, changed func(string) bool) {
	c := &cfg.Capture
	if changed("backend") {
		c.Backend = fv.backend
	}
	if changed("device") {
		c.Device = fv.device
	}
	if changed("sample-rate") {
		c.SampleRate = fv.sampleRate
	}
	if changed("channels") {
		c.Channels = fv.channels
	}
	if changed("frames-per-buffer") {
		c.FramesPerBuffer = fv.framesPerBuffer
	}
	if changed("low-latency") {
		c.LowLatency = fv.lowLatency
	}
	if changed("realtime") {
		c.Realtime = fv.realtime
	}
	if changed("file") {
		c.File = fv.file
		if !changed("backend") {
			c.Backend = config.BackendFile
		}
	}
	if changed("tone") {
		c.ToneHz = fv.tone
		if !changed("backend") {
			c.Backend = config.BackendTone
		}
	}

	if changed("window-size") {
		cfg.STFT.WindowSize = fv.windowSize
	}
	if changed("hop-size") {
		cfg.STFT.HopSize = fv.hopSize
	}
	if changed("window") {
		cfg.STFT.WindowShape = fv.shape
	}

	if changed("surface") {
		cfg.Render.Surface = fv.surface
	}
	if changed("fps") {
		cfg.Render.FPS = fv.fps
	}
	if changed("drain") {
		cfg.Render.Drain = fv.drain
	}
	if changed("capacity") {
		cfg.Channel.Capacity = fv.capacity
	}

	t := &cfg.Transport
	if changed("ws") {
		t.WebSocketEnabled = true
		t.WebSocketAddr = fv.wsAddr
	}
	if changed("ws-encoding") {
		t.WebSocketEncoding = fv.wsEncoding
	}
	if changed("udp") {
		t.UDPEnabled = true
		t.UDPTargetAddress = fv.udpAddr
	}
	if changed("udp-interval") {
		t.UDPSendInterval = fv.udpInterval
	}

	if changed("verbose") && fv.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = fv.logFile
	}
}
