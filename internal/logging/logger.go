// Package logging assembles the structured slog loggers used across the
// tool.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits log lines with the same format, level plumbing, and file routing.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"anthingest/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Extra writers receive log output in addition to stderr.
	Extra []io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)

	writers := append([]io.Writer{os.Stderr}, opts.Extra...)
	output := io.MultiWriter(writers...)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	case "console":
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), nil
}

// NewFromConfig creates a logger using application config. When a log
// directory is configured the log file is appended alongside stderr output.
func NewFromConfig(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg == nil {
		logger, err := New(Options{Level: "info", Format: "console"})
		return logger, func() {}, err
	}

	closeFn := func() {}
	var extra []io.Writer
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath := filepath.Join(cfg.Paths.LogDir, "anthingest.log")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		extra = append(extra, file)
		closeFn = func() { _ = file.Close() }
	}

	logger, err := New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Extra:  extra,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

// NewNop returns a logger that discards everything. Useful in tests and
// wiring code that cannot fail.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
