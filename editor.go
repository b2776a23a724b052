package grpcclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bhagwati-web/grpc-client/schema"
)

// ErrNoEditor is returned by the edit command when no editor was configured
// or stdout is not a terminal.
var ErrNoEditor = errors.New("no interactive editor available")

// ErrEditCanceled is returned by an Editor when the user quits without
// submitting.
var ErrEditCanceled = errors.New("edit canceled")

// EditSession is what an Editor is handed for one run.
type EditSession struct {
	// Title names the message or method being edited.
	Title   string
	Schema  *schema.Schema
	Initial map[string]any
	// Debounce is the delay before edits are reported through OnChange.
	Debounce time.Duration
	Location *time.Location
	Logger   *slog.Logger
	// OnChange, when set, receives every value the editor settles on.
	OnChange func(map[string]any)
}

// Editor edits a value interactively and returns what the user submitted.
type Editor interface {
	Edit(ctx context.Context, session EditSession) (map[string]any, error)
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(ctx context.Context, session EditSession) (map[string]any, error)

func (fn EditorFunc) Edit(ctx context.Context, session EditSession) (map[string]any, error) {
	return fn(ctx, session)
}
