// Package clilog provides the slog handlers and logger factories used by the
// command line.
//
// Commands log human-friendly lines to stderr. While the interactive editor
// owns the terminal, anything written to stderr would corrupt the screen, so
// logs go as JSON to a file instead, or nowhere.
package clilog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Settings is what a logger factory needs to know about the invocation.
type Settings interface {
	// Interactive reports whether a full-screen editor is about to run.
	Interactive() bool
	// Level is the level chosen with --verbosity.
	Level() slog.Level
	// LogFile is where interactive sessions log to; empty discards.
	LogFile() string
}

// Factory builds the logger for one invocation. The returned close func
// releases any file the logger writes to.
type Factory func(context.Context, Settings) (*slog.Logger, func() error, error)

func noClose() error { return nil }

// MachineFriendlySlogHandler returns a JSON handler.
func MachineFriendlySlogHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Stderr logs human-friendly lines to stderr, colorized when stderr is a
// terminal.
func Stderr() Factory {
	return func(_ context.Context, s Settings) (*slog.Logger, func() error, error) {
		h := HumanFriendlySlogHandler(os.Stderr, &slog.HandlerOptions{Level: s.Level()}, IsTerminal(os.Stderr))
		return slog.New(h), noClose, nil
	}
}

// Interactive logs JSON lines to the configured log file, or discards
// everything when none is set.
func Interactive() Factory {
	return func(_ context.Context, s Settings) (*slog.Logger, func() error, error) {
		if s.LogFile() == "" {
			return slog.New(slog.DiscardHandler), noClose, nil
		}
		f, err := os.OpenFile(s.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, err
		}
		h := MachineFriendlySlogHandler(f, &slog.HandlerOptions{Level: s.Level()})
		return slog.New(h), f.Close, nil
	}
}

// Default picks Interactive for editor sessions and Stderr otherwise.
func Default() Factory {
	stderr, interactive := Stderr(), Interactive()
	return func(ctx context.Context, s Settings) (*slog.Logger, func() error, error) {
		if s.Interactive() {
			return interactive(ctx, s)
		}
		return stderr(ctx, s)
	}
}
