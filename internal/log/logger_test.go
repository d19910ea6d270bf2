package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" Error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: LevelWarn, Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: LevelInfo}) })

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Error("error", 4)

	out := buf.String()
	for _, hidden := range []string{"debug 1", "info 2"} {
		if strings.Contains(out, hidden) {
			t.Errorf("output contains filtered message %q:\n%s", hidden, out)
		}
	}
	for _, shown := range []string{"warn 3", "error4"} {
		if !strings.Contains(out, shown) {
			t.Errorf("output missing %q:\n%s", shown, out)
		}
	}
	if GetLevel() != LevelWarn {
		t.Errorf("GetLevel() = %v, want WARN", GetLevel())
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: LevelError, Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: LevelInfo}) })

	Debugf("hidden")
	SetLevel(LevelDebug)
	Debugf("visible")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("unexpected output after SetLevel:\n%s", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectrogram.log")
	Configure(Options{Level: LevelInfo, File: path})
	Infof("written to %s", "file")
	if err := Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	t.Cleanup(func() { Configure(Options{Level: LevelInfo}) })

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"written to file"`) {
		t.Errorf("log file content = %s", data)
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" || LogLevel(42).String() != "UNKNOWN" {
		t.Error("unexpected LogLevel strings")
	}
}
