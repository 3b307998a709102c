package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdonaldj/zipstore/internal/config"
	"github.com/mcdonaldj/zipstore/internal/observability"
)

func emit(obs observability.Observer, level observability.Level) {
	obs.OnEvent(observability.Event{
		Type:   "store.save.complete",
		Level:  level,
		Source: "store",
		Data:   map[string]any{"entries": 2},
	})
}

func TestNewFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "msg=store.save.complete"},
		{format: "json", want: `"msg":"store.save.complete"`},
		{format: "console", want: "store.save.complete"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			obs, closeFn, err := New(config.LogConfig{Level: "info", Format: tt.format}, &buf)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer closeFn()

			emit(obs, observability.LevelInfo)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q should contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNewLevelFiltering(t *testing.T) {
	for _, format := range []string{"text", "console"} {
		var buf bytes.Buffer
		obs, _, err := New(config.LogConfig{Level: "warn", Format: format}, &buf)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", format, err)
		}
		emit(obs, observability.LevelInfo)
		if buf.Len() != 0 {
			t.Errorf("%s: info event should be filtered at warn, got %q", format, buf.String())
		}
		emit(obs, observability.LevelError)
		if buf.Len() == 0 {
			t.Errorf("%s: error event should be written at warn", format)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "zipstore.log")
	var fallback bytes.Buffer

	obs, closeFn, err := New(config.LogConfig{Level: "debug", Format: "json", File: path}, &fallback)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	emit(obs, observability.LevelVerbose)
	if err := closeFn(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if fallback.Len() != 0 {
		t.Errorf("fallback should be unused when a file is configured, got %q", fallback.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "store.save.complete") {
		t.Errorf("log file %q missing event", data)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{name: "unknown format", cfg: config.LogConfig{Level: "info", Format: "xml"}},
		{name: "bad slog level", cfg: config.LogConfig{Level: "loud", Format: "text"}},
		{name: "bad zerolog level", cfg: config.LogConfig{Level: "loud", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := New(tt.cfg, &bytes.Buffer{}); err == nil {
				t.Error("New should fail")
			}
		})
	}
}
