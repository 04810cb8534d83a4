package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "truthlens.log")

	logger, err := New(Options{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("extraction fell back to raw input")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "extraction fell back to raw input") {
		t.Errorf("expected debug line in log, got %q", string(data))
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantErr   bool
	}{
		{name: "default is info", opts: Options{}, wantDebug: false},
		{name: "verbose forces debug", opts: Options{Level: "warn", Verbose: true}, wantDebug: true},
		{name: "explicit debug", opts: Options{Level: "debug"}, wantDebug: true},
		{name: "invalid level", opts: Options{Level: "chatty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.File = filepath.Join(t.TempDir(), "test.log")
			logger, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}
