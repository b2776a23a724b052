// Package tui provides a bubbletea-based editor for grpc-form. It implements
// the grpcclient.Editor interface: the request message is shown as a tree of
// fields that can be switched on and off, expanded, edited in place and
// submitted with ctrl+s.
//
// Usage:
//
//	app := grpcclient.RootCommand("grpc-form",
//	    grpcclient.WithEditor(tui.New()),
//	)
//
// Theming
//
// WithTheme accepts a Theme value controlling colors, spacing tokens, the
// editor border and optional custom styles. Field labels are colored from
// Theme.Colors.Labels; a field name always maps onto the same entry:
//
//	theme := bubbles.DefaultTheme()
//	theme.Colors.Labels = []lipgloss.Color{"205", "213", "141"}
//	tui.New(tui.WithTheme(theme))
//
// For fine-grained adjustments on top of a theme, use WithStyleOverride:
//
//	tui.New(
//	    tui.WithTheme(myTheme),
//	    tui.WithStyleOverride(func(s *bubbles.Styles) {
//	        s.FocusedControl = s.FocusedControl.MaxWidth(80)
//	    }),
//	)
//
// For complete control, replace the full style set with WithStyles.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/contrib/tui/bubbles"
	"github.com/bhagwati-web/grpc-client/form"
)

// Option configures the editor.
type Option func(*provider)

// WithStyles replaces the full style set.
func WithStyles(s bubbles.Styles) Option {
	return func(p *provider) {
		p.styles = s
	}
}

// WithTheme derives the style set from a theme.
func WithTheme(t bubbles.Theme) Option {
	return func(p *provider) {
		p.styles = bubbles.StylesFromTheme(t)
	}
}

// WithStyleOverride adjusts the style set after themes have been applied.
func WithStyleOverride(fn func(*bubbles.Styles)) Option {
	return func(p *provider) {
		if fn != nil {
			fn(&p.styles)
		}
	}
}

// WithProgramOptions passes extra options to the bubbletea program, e.g. a
// different input or output.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(p *provider) {
		p.programOptions = append(p.programOptions, opts...)
	}
}

// provider implements grpcclient.Editor.
type provider struct {
	styles         bubbles.Styles
	programOptions []tea.ProgramOption
}

// New creates the editor. Default styles are applied before any options.
func New(opts ...Option) grpcclient.Editor {
	p := &provider{styles: bubbles.DefaultStyles()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Edit runs the editor until the value is submitted or the user quits.
func (p *provider) Edit(ctx context.Context, session grpcclient.EditSession) (map[string]any, error) {
	formOpts := []form.Option{
		form.WithDebounce(session.Debounce),
		form.WithOnChange(session.OnChange),
		form.WithLogger(session.Logger),
	}
	if session.Location != nil {
		formOpts = append(formOpts, form.WithLocation(session.Location))
	}
	f := form.New(session.Schema, session.Initial, formOpts...)
	defer f.Close()

	title := session.Title
	if title == "" && session.Schema != nil {
		title = session.Schema.FullName
	}
	m := newModel(title, f, p.styles)

	progOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, p.programOptions...)
	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	if fm, ok := final.(model); !ok || !fm.submitted {
		return nil, grpcclient.ErrEditCanceled
	}
	return f.Value(), nil
}
