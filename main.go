package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"spectrogram/cmd"
	"spectrogram/internal/audio"
	"spectrogram/internal/audio/portaudio"
	sdlcapture "spectrogram/internal/audio/sdl"
	"spectrogram/internal/config"
	"spectrogram/internal/log"
	"spectrogram/internal/pipeline"
	"spectrogram/internal/render"
	sdlwindow "spectrogram/internal/render/sdl"
	"spectrogram/internal/stft"
	"spectrogram/internal/transport"
	"spectrogram/internal/transport/udp"
	"spectrogram/internal/tui"
	"spectrogram/pkg/build"
)

// SDL requires video and event calls on the main thread, and the render
// loop runs on the goroutine that calls main.
func init() {
	runtime.LockOSThread()
}

// main is the entry point. The program flow has three phases:
//
// 1. Startup (cold path): build info, configuration, logging, one-off
// commands, then the source, transform and surfaces.
//
// 2. Streaming (hot path): capture on its own goroutine feeds the STFT, whose
// columns cross a bounded channel to the render loop on this goroutine.
//
// 3. Shutdown (cold path): a signal, the user quitting or the source running
// dry stops capture, discards pending columns and closes the surfaces.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	cfg, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil // --help or --version
	}

	configureLogging(cfg)
	defer log.Close()
	if buildErr != nil {
		log.Debugf("build info incomplete (%v), running a development build", buildErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Command != "" || cfg.Capture.Backend == config.BackendPortAudio {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()
	}

	// One-off commands that don't start a session.
	switch cfg.Command {
	case cmd.CommandList:
		return portaudio.ListDevices(os.Stdout)
	case cmd.CommandSelect:
		sel, err := tui.PickDevice(portaudio.HostDevices)
		if err != nil {
			return fmt.Errorf("device picker: %w", err)
		}
		if sel == nil {
			return nil
		}
		log.Infof("Selected device [%d] %s at %.0f Hz", sel.DeviceID, sel.DeviceName, sel.SampleRate)
		cfg.Capture.Backend = config.BackendPortAudio
		cfg.Capture.Device = sel.DeviceID
		cfg.Capture.SampleRate = sel.SampleRate
	}

	transform, err := stft.New(stft.Config{
		WindowSize: cfg.STFT.WindowSize,
		HopSize:    cfg.STFT.HopSize,
		Shape:      cfg.Shape(),
	})
	if err != nil {
		return err
	}

	drain, err := pipeline.ParseDrain(cfg.Render.Drain)
	if err != nil {
		return err
	}

	source, label, err := newSource(cfg)
	if err != nil {
		return err
	}

	surface, err := newSurface(cfg, label)
	if err != nil {
		return err
	}

	// ==================== STREAMING PHASE (Hot Path) ====================

	session := pipeline.NewSession(source, transform, surface, pipeline.SessionOptions{
		Capacity: cfg.Channel.Capacity,
		FPS:      cfg.Render.FPS,
		Drain:    drain,
		Width:    cfg.Render.Width,
		FloorDB:  cfg.Render.FloorDB,
	})
	err = session.Run(ctx)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	st := session.Stats()
	if cfg.Render.Surface != config.SurfaceNone || cfg.LogFile != "" {
		fmt.Fprintf(os.Stderr, "%d column(s) drawn, %d dropped (%s)\n", st.Drawn, st.Dropped, st.Reason)
	}
	return err
}

// configureLogging routes logs to a rotating file when the terminal UI owns
// the screen and no file was configured.
func configureLogging(cfg *config.Config) {
	level, ok := log.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = log.LevelDebug
	}
	file := cfg.LogFile
	if file == "" && cfg.Render.Surface == config.SurfaceTUI && cfg.Command != cmd.CommandList {
		file = config.DefaultTUILog
		cfg.LogFile = file
	}
	log.Configure(log.Options{Level: level, File: file})
	if !ok {
		log.Warnf("Unknown log level %q, using %s", cfg.LogLevel, level)
	}
}

// newSource builds the configured capture backend. The file backend replaces
// the configured sample rate with the file's own.
func newSource(cfg *config.Config) (audio.Source, string, error) {
	c := &cfg.Capture
	switch c.Backend {
	case config.BackendPortAudio:
		src, err := portaudio.NewSource(portaudio.Options{
			DeviceID:        c.Device,
			Channels:        c.Channels,
			SampleRate:      c.SampleRate,
			FramesPerBuffer: c.FramesPerBuffer,
			LowLatency:      c.LowLatency,
		})
		if err != nil {
			return nil, "", err
		}
		return src, src.Device().Name, nil

	case config.BackendSDL:
		return sdlcapture.NewSource(c.SampleRate, c.FramesPerBuffer), "SDL capture", nil

	case config.BackendFile:
		src, err := audio.NewFileSource(c.File, c.FramesPerBuffer, c.Realtime)
		if err != nil {
			return nil, "", err
		}
		if src.SampleRate() != c.SampleRate {
			log.Infof("Using the file sample rate %.0f Hz", src.SampleRate())
			c.SampleRate = src.SampleRate()
		}
		log.Infof("Streaming %s (%d channel(s), %s)", c.File, src.Channels(), src.Duration().Round(time.Millisecond))
		return src, c.File, nil

	case config.BackendTone:
		return audio.NewToneSource(c.ToneHz, c.SampleRate, c.FramesPerBuffer), fmt.Sprintf("%.0f Hz tone", c.ToneHz), nil
	}
	return nil, "", fmt.Errorf("unknown capture backend: '%s'", c.Backend)
}

// newSurface builds the display plus any network publishers as one surface.
func newSurface(cfg *config.Config, label string) (render.Surface, error) {
	var surfaces render.Fanout
	fail := func(err error) (render.Surface, error) {
		return nil, errors.Join(err, surfaces.Close())
	}

	switch cfg.Render.Surface {
	case config.SurfaceTUI:
		surfaces = append(surfaces, tui.NewSpectrum(tui.Info{
			Source:     label,
			SampleRate: cfg.Capture.SampleRate,
			WindowSize: cfg.STFT.WindowSize,
			HopSize:    cfg.STFT.HopSize,
		}))
	case config.SurfaceWindow:
		win, err := sdlwindow.NewWindow("Spectrogram - "+label, cfg.Render.Width, cfg.Render.Height)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, win)
	case config.SurfaceNone:
		meter := render.NewBandMeter(render.DefaultBands(cfg.Capture.SampleRate), cfg.STFT.WindowSize, cfg.Capture.SampleRate)
		surfaces = append(surfaces, transport.NewLoggingTransport(meter, time.Second))
	}

	t := cfg.Transport
	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(t.WebSocketEncoding)
		if err != nil {
			return fail(err)
		}
		if err := ws.Start(t.WebSocketAddr); err != nil {
			return fail(errors.Join(err, ws.Close()))
		}
		surfaces = append(surfaces, transport.AsSurface(ws))
	}
	if t.UDPEnabled {
		sender, err := udp.NewSender(t.UDPTargetAddress)
		if err != nil {
			return fail(err)
		}
		pub, err := udp.NewPublisher(t.UDPSendInterval, sender)
		if err != nil {
			return fail(errors.Join(err, sender.Close()))
		}
		pub.Start()
		surfaces = append(surfaces, pub)
	}

	if len(surfaces) == 1 {
		return surfaces[0], nil
	}
	return surfaces, nil
}
