// Package logging turns the log section of the config into an observer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcdonaldj/zipstore/internal/config"
	"github.com/mcdonaldj/zipstore/internal/observability"
)

// New builds an observer writing to cfg.File, or to fallback when no file is
// configured. The returned close function releases the log file.
func New(cfg config.LogConfig, fallback io.Writer) (observability.Observer, func() error, error) {
	out := fallback
	closeFn := func() error { return nil }

	if cfg.File != "" {
		path, err := config.ExpandPath(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	switch cfg.Format {
	case "console":
		level, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("parsing log level: %w", err)
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).
			With().Timestamp().Logger()
		return observability.NewZerologObserver(logger), closeFn, nil

	case "json", "text", "":
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("parsing log level: %w", err)
		}
		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler = slog.NewTextHandler(out, opts)
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(out, opts)
		}
		return observability.NewSlogObserver(slog.New(handler)), closeFn, nil

	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
