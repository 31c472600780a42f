package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const logFilePrefix = "dms-"

// NewLogger builds the service logger from cfg.Log. With log.dir set, records
// are also appended to a fresh timestamped file there; the returned closer
// must be called on shutdown.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if cfg.Log.Dir != "" {
		f, err := SetupLogFile(cfg.Log.Dir, cfg.Log.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	opts := &slog.HandlerOptions{Level: logLevel(cfg)}
	var h slog.Handler
	if cfg.Log.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h).With("service", "dms"), closer, nil
}

func logLevel(cfg *Config) slog.Level {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}
	if cfg.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// SetupLogFile creates dir/dms-<timestamp>.log and prunes the oldest files
// so at most maxFiles remain. maxFiles 0 keeps everything.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := filepath.Join(dir, logFilePrefix+time.Now().UTC().Format("20060102T150405.000")+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if maxFiles > 0 {
		if err := pruneLogs(dir, maxFiles); err != nil {
			fmt.Fprintf(os.Stderr, "warning: prune old logs: %v\n", err)
		}
	}
	return f, nil
}

func pruneLogs(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, logFilePrefix+"*.log"))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	// The UTC timestamp sorts chronologically.
	slices.Sort(files)
	for _, old := range files[:len(files)-keep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove %s: %w", old, err)
		}
	}
	return nil
}
