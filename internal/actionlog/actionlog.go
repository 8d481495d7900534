// Package actionlog records window operations to a rotating logfmt file and
// builds the daemon's console logger.
package actionlog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/1broseidon/deskwm/internal/wm"
)

// Config holds configuration for the action logger.
type Config struct {
	Enabled   bool
	Level     string
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Logger writes one line per window event.
type Logger struct {
	out     *rotatingFile
	clogger *clog.Logger
	level   clog.Level
}

// New opens the action log. A disabled config yields a logger that
// discards everything.
func New(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{}, nil
	}
	out, err := openRotating(cfg.FilePath, int64(cfg.MaxSizeMB)*1024*1024, cfg.MaxFiles)
	if err != nil {
		return nil, err
	}
	return newLogger(out, ParseLevel(cfg.Level)), nil
}

func newLogger(out *rotatingFile, level clog.Level) *Logger {
	clogger := clog.NewWithOptions(out, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Formatter:       clog.LogfmtFormatter,
	})
	return &Logger{out: out, clogger: clogger, level: level}
}

// opLevel returns the log level for a store operation. Geometry updates
// arrive continuously during drags, so they only show at debug.
func opLevel(op wm.Op) clog.Level {
	switch op {
	case wm.OpMove, wm.OpResize:
		return clog.DebugLevel
	default:
		return clog.InfoLevel
	}
}

// Record logs a single event.
func (l *Logger) Record(ev wm.Event) {
	if l == nil || l.clogger == nil {
		return
	}
	level := opLevel(ev.Op)
	if level < l.level {
		return
	}

	args := []any{
		"seq", ev.Seq,
		"id", ev.WindowID,
		"windows", len(ev.Windows),
		"top_z", ev.TopZIndex,
	}
	if w, ok := ev.Snapshot().Find(ev.WindowID); ok {
		args = append(args,
			"title", w.Title,
			"x", w.X, "y", w.Y,
			"width", w.Width, "height", w.Height,
			"z", w.ZIndex,
			"minimized", w.IsMinimized,
			"maximized", w.IsMaximized,
			"focused", w.IsFocused,
		)
	}
	l.clogger.Log(level, string(ev.Op), args...)
}

// Run records events from sub until ctx is done or the subscription closes.
func (l *Logger) Run(ctx context.Context, sub *wm.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			l.Record(ev)
		}
	}
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	return l.out.Close()
}

// ParseLevel converts a config level name. Unknown names mean info.
func ParseLevel(s string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

// NewConsole returns a slog logger that renders through charmbracelet/log.
func NewConsole(w io.Writer, level string) *slog.Logger {
	handler := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(level),
		Prefix:          "deskwm",
	})
	return slog.New(handler)
}
