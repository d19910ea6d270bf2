// Package log is the application's leveled logger. The formatted helpers
// (Debugf, Infof, ...) are thin wrappers over a package-level zerolog logger,
// so call sites stay short while Logger() remains available for structured
// fields.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Options configures the log sink.
type Options struct {
	Level      LogLevel
	File       string // rotate into this file when set, otherwise write to Output
	Output     io.Writer
	MaxSizeMB  int // rotation threshold for File
	MaxBackups int
	NoColor    bool
}

// --- Global Logger State ---

var (
	currentLevel atomic.Uint32
	logger       atomic.Pointer[zerolog.Logger]
	closer       io.Closer
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Configure(Options{Level: LevelInfo})
}

// Configure replaces the global logger. It is meant to be called once during
// startup, before any goroutine logs.
func Configure(opts Options) {
	var out io.Writer
	switch {
	case opts.File != "":
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			Compress:   false,
		}
		out = lj
		swapCloser(lj)
	case opts.Output != nil:
		out = zerolog.ConsoleWriter{Out: opts.Output, NoColor: true, TimeFormat: "15:04:05.000000"}
		swapCloser(nil)
	default:
		out = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: opts.NoColor, TimeFormat: "15:04:05.000000"}
		swapCloser(nil)
	}

	l := zerolog.New(out).With().Timestamp().Logger()
	logger.Store(&l)
	SetLevel(opts.Level)
}

func swapCloser(c io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
	closer = c
}

// Close flushes and releases a rotating log file, if one is open.
func Close() error {
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
	l := logger.Load().Level(level.zerolog())
	logger.Store(&l)
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Logger returns the underlying zerolog logger for structured events.
func Logger() *zerolog.Logger {
	return logger.Load()
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...interface{}) {
	logger.Load().Debug().Msgf(format, v...)
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...interface{}) {
	logger.Load().Info().Msgf(format, v...)
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...interface{}) {
	logger.Load().Warn().Msgf(format, v...)
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...interface{}) {
	logger.Load().Error().Msgf(format, v...)
}

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...interface{}) {
	logger.Load().Fatal().Msgf(format, v...)
}

// Debug logs a debug message if the level is appropriate.
func Debug(v ...interface{}) {
	logger.Load().Debug().Msg(fmt.Sprint(v...))
}

// Info logs an info message if the level is appropriate.
func Info(v ...interface{}) {
	logger.Load().Info().Msg(fmt.Sprint(v...))
}

// Warn logs a warning message if the level is appropriate.
func Warn(v ...interface{}) {
	logger.Load().Warn().Msg(fmt.Sprint(v...))
}

// Error logs an error message if the level is appropriate.
func Error(v ...interface{}) {
	logger.Load().Error().Msg(fmt.Sprint(v...))
}

// Fatal logs a fatal message and exits the application.
func Fatal(v ...interface{}) {
	logger.Load().Fatal().Msg(fmt.Sprint(v...))
}
