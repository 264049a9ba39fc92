// Package log builds the configured slog.Logger for keyrxd and hosts the
// key-edge trace logger.
//
// Without a log file, records below Error go to stdout and Error and
// above go to stderr, so service managers can redirect the two streams
// independently. With a log file, console output moves to stderr and the
// file receives everything at the configured level.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace is a custom slog level below Debug for per-event output.
const LevelTrace slog.Level = -8

// ParseLevel maps the CLI level string to a slog level. Unknown strings
// fall back to Info rather than failing startup.
func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout duplicates records to every handler in the set.
type fanout struct{ hs []slog.Handler }

func (m fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.hs {
		_ = h.Handle(ctx, r)
	}
	return nil
}

func (m fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return fanout{hs: out}
}

func (m fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return fanout{hs: out}
}

// levelBand passes only records the predicate accepts to the wrapped
// handler; used to split the console output across stdout and stderr.
type levelBand struct {
	pass func(slog.Level) bool
	h    slog.Handler
}

func (f levelBand) Enabled(ctx context.Context, level slog.Level) bool {
	return f.pass(level) && f.h.Enabled(ctx, level)
}

func (f levelBand) Handle(ctx context.Context, r slog.Record) error {
	if !f.pass(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f levelBand) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelBand{pass: f.pass, h: f.h.WithAttrs(attrs)}
}

func (f levelBand) WithGroup(name string) slog.Handler {
	return levelBand{pass: f.pass, h: f.h.WithGroup(name)}
}

// Setup builds the logger. The returned closers own any opened log file
// and must be closed on shutdown.
func Setup(logLevel, logFile string) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(logLevel)
	var handlers []slog.Handler
	var closers []io.Closer

	if logFile == "" {
		stdout := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		handlers = append(handlers,
			levelBand{pass: func(l slog.Level) bool { return l < slog.LevelError }, h: stdout})
		stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
		handlers = append(handlers,
			levelBand{pass: func(l slog.Level) bool { return l >= slog.LevelError }, h: stderr})
	} else {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		// Append rather than truncate: keyrxd restarts on profile
		// changes and the previous run's tail is usually what matters.
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, f)
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(fanout{hs: handlers}), closers, nil
}
