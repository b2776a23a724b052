package bubbles

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bhagwati-web/grpc-client/wkt"
)

// FormControl is one text input of a row editor.
type FormControl interface {
	View() string
	Focus() tea.Cmd
	Blur()
	Value() string
	Update(msg tea.Msg) tea.Cmd
}

// MultilineInput is implemented by controls that consume Enter themselves.
type MultilineInput interface {
	IsMultiline() bool
}

// KeyBind pairs a key hint with its action label for use in help text.
type KeyBind struct {
	Keys string // e.g. "↑↓", "Space", "Enter"
	Op   string // e.g. "move", "toggle", "edit"
}

// FormHelpText builds a help line from the provided keybinds.
func FormHelpText(binds ...KeyBind) string {
	parts := make([]string, len(binds))
	for i, b := range binds {
		parts[i] = b.Keys + ": " + b.Op
	}
	return strings.Join(parts, "  •  ")
}

// textControl is a single-line input for scalars and short well-known inputs.
type textControl struct{ input textinput.Model }

// NewTextControl returns a single-line text FormControl.
func NewTextControl(placeholder, defaultValue string, styles Styles) FormControl {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.PlaceholderStyle = styles.Muted
	ti.Width = 60
	if defaultValue != "" {
		ti.SetValue(defaultValue)
	}
	return &textControl{input: ti}
}

func (c *textControl) View() string   { return c.input.View() }
func (c *textControl) Focus() tea.Cmd { return c.input.Focus() }
func (c *textControl) Blur()          { c.input.Blur() }
func (c *textControl) Value() string  { return c.input.Value() }
func (c *textControl) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// areaControl is a multi-line input for JSON documents.
type areaControl struct{ area textarea.Model }

// NewAreaControl returns a multi-line FormControl, 8 lines tall.
func NewAreaControl(defaultValue string, styles Styles) FormControl {
	ta := textarea.New()
	ta.Placeholder = "{}"
	ta.SetWidth(60)
	ta.SetHeight(8)
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	if defaultValue != "" {
		ta.SetValue(defaultValue)
	}
	return &areaControl{area: ta}
}

func (c *areaControl) View() string      { return c.area.View() }
func (c *areaControl) Focus() tea.Cmd    { return c.area.Focus() }
func (c *areaControl) Blur()             { c.area.Blur() }
func (c *areaControl) Value() string     { return c.area.Value() }
func (c *areaControl) IsMultiline() bool { return true }
func (c *areaControl) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.area, cmd = c.area.Update(msg)
	return cmd
}

// readOnlyControl shows a value that cannot be edited.
type readOnlyControl struct {
	value string
	style lipgloss.Style
}

func (c *readOnlyControl) View() string           { return c.style.Render(c.value) }
func (c *readOnlyControl) Focus() tea.Cmd         { return nil }
func (c *readOnlyControl) Blur()                  {}
func (c *readOnlyControl) Value() string          { return c.value }
func (c *readOnlyControl) Update(tea.Msg) tea.Cmd { return nil }

// InputGroup edits the texts of one form row: a single control for scalars,
// or one control per input of a well-known type. Tab cycles focus.
type InputGroup struct {
	labels   []string
	controls []FormControl
	focused  int
	styles   Styles
}

// NewScalarGroup returns a group with one text control.
func NewScalarGroup(placeholder, value string, styles Styles) *InputGroup {
	return &InputGroup{
		labels:   []string{""},
		controls: []FormControl{NewTextControl(placeholder, value, styles)},
		styles:   styles,
	}
}

// NewWellKnownGroup returns a group with one control per input. values is
// indexed like inputs.
func NewWellKnownGroup(inputs []wkt.Input, values []string, styles Styles) *InputGroup {
	g := &InputGroup{styles: styles}
	for i, in := range inputs {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		var c FormControl
		switch {
		case in.ReadOnly:
			c = &readOnlyControl{value: v, style: styles.Muted}
		case in.Multiline:
			c = NewAreaControl(v, styles)
		default:
			c = NewTextControl(in.Label, v, styles)
		}
		g.labels = append(g.labels, in.Label)
		g.controls = append(g.controls, c)
	}
	return g
}

// Focus focuses the first control.
func (g *InputGroup) Focus() tea.Cmd {
	g.focused = 0
	if len(g.controls) == 0 {
		return nil
	}
	return g.controls[0].Focus()
}

// Values returns one text per control.
func (g *InputGroup) Values() []string {
	out := make([]string, len(g.controls))
	for i, c := range g.controls {
		out[i] = c.Value()
	}
	return out
}

// Multiline reports whether the focused control consumes Enter.
func (g *InputGroup) Multiline() bool {
	if len(g.controls) == 0 {
		return false
	}
	ml, ok := g.controls[g.focused].(MultilineInput)
	return ok && ml.IsMultiline()
}

// Update handles tab and shift+tab and forwards everything else to the
// focused control.
func (g *InputGroup) Update(msg tea.Msg) tea.Cmd {
	if len(g.controls) == 0 {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			return g.move(1)
		case "shift+tab":
			return g.move(-1)
		}
	}
	return g.controls[g.focused].Update(msg)
}

func (g *InputGroup) move(delta int) tea.Cmd {
	g.controls[g.focused].Blur()
	g.focused = (g.focused + delta + len(g.controls)) % len(g.controls)
	return g.controls[g.focused].Focus()
}

// View renders the labelled controls inside the focused-control border.
func (g *InputGroup) View() string {
	lines := make([]string, 0, len(g.controls))
	for i, c := range g.controls {
		line := c.View()
		if g.labels[i] != "" {
			label := g.labels[i] + ": "
			if i == g.focused {
				label = g.styles.Cursor.Render(label)
			} else {
				label = g.styles.Muted.Render(label)
			}
			line = label + line
		}
		lines = append(lines, line)
	}
	return g.styles.FocusedControl.Render(strings.Join(lines, "\n"))
}
