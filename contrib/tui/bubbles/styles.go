package bubbles

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds all lipgloss styles used by the editor. Obtain a baseline via
// DefaultStyles, modify any fields, then pass to tui.New via tui.WithStyles.
type Styles struct {
	// Title styles the message name at the top of the editor.
	Title lipgloss.Style
	// Subtitle styles the field description shown under the title.
	Subtitle lipgloss.Style
	// Error styles the status line after a rejected edit.
	Error lipgloss.Style
	// Cursor styles the marker in front of the selected row.
	Cursor lipgloss.Style
	// Required styles the asterisk marker on required fields.
	Required lipgloss.Style
	// Help styles keyboard-shortcut hints shown at the bottom of the screen.
	Help lipgloss.Style
	// ToggleOn styles the checkbox of an enabled field.
	ToggleOn lipgloss.Style
	// ToggleOff styles the checkbox of a disabled field.
	ToggleOff lipgloss.Style
	// Value styles the current value of scalar and well-known rows.
	Value lipgloss.Style
	// Muted styles disabled rows, item counts and placeholders.
	Muted lipgloss.Style
	// FocusedControl styles the border box drawn around the open editor.
	FocusedControl lipgloss.Style
	// Colors holds the raw color tokens from the originating Theme.
	Colors ThemeColors
	// Indent is the number of cells each tree level is indented by.
	Indent int
	// Custom stores user-defined styles registered via Theme.Custom.
	// Retrieve a style by name with the Get helper.
	Custom map[string]lipgloss.Style
}

// Get retrieves a custom style by name. Returns an empty lipgloss.Style if
// the name was not registered in the originating Theme.Custom map.
func (s Styles) Get(name string) lipgloss.Style {
	if s.Custom == nil {
		return lipgloss.NewStyle()
	}
	if style, ok := s.Custom[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Label styles a field label in the color its name hashes to, so a field
// keeps its color wherever it appears in the tree.
func (s Styles) Label(name string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if len(s.Colors.Labels) == 0 {
		return style.Foreground(s.Colors.Accent)
	}
	return style.Foreground(LabelColor(s.Colors.Labels, name))
}

// LabelColor picks the palette entry for name.
func LabelColor(palette []lipgloss.Color, name string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}

// ThemeColors holds the named color palette that drives the full style set.
type ThemeColors struct {
	// Primary is used for the cursor, enabled toggles and the editor border.
	Primary lipgloss.Color
	// Secondary is used for help text, disabled rows and placeholders.
	Secondary lipgloss.Color
	// Accent is the label color when Labels is empty.
	Accent lipgloss.Color
	// Error is used for error messages and required-field markers.
	Error lipgloss.Color
	// Value is used for field values.
	Value lipgloss.Color
	// Labels is the palette field names are hashed into.
	Labels []lipgloss.Color
}

// ThemeSpacing holds character-width spacing tokens.
type ThemeSpacing struct {
	None int
	XS   int
	SM   int
	MD   int
}

// Theme is the styling configuration for the editor. Always start from
// DefaultTheme and modify the fields you need.
type Theme struct {
	Colors  ThemeColors
	Spacing ThemeSpacing
	// Border is the border drawn around the open editor.
	Border lipgloss.Border
	// Custom stores additional user-defined styles keyed by an arbitrary name.
	Custom map[string]lipgloss.Style
}

// WithColors returns a copy of the theme with the color palette replaced.
func (t Theme) WithColors(c ThemeColors) Theme {
	t.Colors = c
	return t
}

// DefaultTheme returns the built-in theme: a purple/orange palette with a
// six-color label wheel and rounded borders.
func DefaultTheme() Theme {
	return Theme{
		Colors: ThemeColors{
			Primary:   lipgloss.Color("62"),
			Secondary: lipgloss.Color("241"),
			Accent:    lipgloss.Color("214"),
			Error:     lipgloss.Color("196"),
			Value:     lipgloss.Color("252"),
			Labels: []lipgloss.Color{
				lipgloss.Color("39"),
				lipgloss.Color("78"),
				lipgloss.Color("170"),
				lipgloss.Color("214"),
				lipgloss.Color("111"),
				lipgloss.Color("203"),
			},
		},
		Spacing: ThemeSpacing{None: 0, XS: 1, SM: 2, MD: 4},
		Border:  lipgloss.RoundedBorder(),
	}
}

// StylesFromTheme derives a complete Styles set from a Theme. Zero Spacing
// and Border fall back to the defaults.
func StylesFromTheme(t Theme) Styles {
	d := DefaultTheme()
	if t.Spacing == (ThemeSpacing{}) {
		t.Spacing = d.Spacing
	}
	if t.Border.Top == "" {
		t.Border = d.Border
	}

	c := t.Colors
	sp := t.Spacing
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		Subtitle:  lipgloss.NewStyle().Foreground(c.Secondary),
		Error:     lipgloss.NewStyle().Foreground(c.Error),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		Required:  lipgloss.NewStyle().Foreground(c.Error),
		Help:      lipgloss.NewStyle().Foreground(c.Secondary).Italic(true),
		ToggleOn:  lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		ToggleOff: lipgloss.NewStyle().Foreground(c.Secondary),
		Value:     lipgloss.NewStyle().Foreground(c.Value),
		Muted:     lipgloss.NewStyle().Foreground(c.Secondary),
		FocusedControl: lipgloss.NewStyle().
			Border(t.Border).
			BorderForeground(c.Primary).
			Padding(sp.None, sp.XS),
		Colors: t.Colors,
		Indent: sp.SM,
		Custom: t.Custom,
	}
}

// DefaultStyles returns the built-in style set derived from DefaultTheme.
func DefaultStyles() Styles {
	return StylesFromTheme(DefaultTheme())
}
