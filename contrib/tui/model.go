package tui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/bhagwati-web/grpc-client/contrib/tui/bubbles"
	"github.com/bhagwati-web/grpc-client/fieldpath"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/schema"
)

// row is one visible line of the tree.
type row struct {
	form.Node
	// mapRow marks one entry of a map field.
	mapRow bool
	// entry marks the key and value rows of a map entry, which have no toggle.
	entry bool
}

// field reports whether the row has an on/off toggle.
func (r row) field() bool { return r.Field != nil && r.Item < 0 && !r.entry }

// model is the bubbletea model of one edit session.
type model struct {
	form   *form.Form
	title  string
	styles bubbles.Styles

	rows   []row
	cursor int
	offset int

	// editing is non-nil while a row's inputs are open.
	editing  *bubbles.InputGroup
	editPath string

	status    string
	submitted bool

	width  int
	height int
}

func newModel(title string, f *form.Form, styles bubbles.Styles) model {
	m := model{form: f, title: title, styles: styles}
	m.refresh()
	return m
}

// refresh re-renders the form and keeps the cursor on the same path when it
// still exists.
func (m *model) refresh() {
	var current string
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].Path
	}
	m.rows = flatten(nil, m.form.Render(), false)
	if i := slices.IndexFunc(m.rows, func(r row) bool { return r.Path == current }); i >= 0 {
		m.cursor = i
	}
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
}

func flatten(out []row, nodes []form.Node, entries bool) []row {
	for _, n := range nodes {
		out = append(out, row{Node: n, entry: entries})
		if _, isMap := n.Variant.(schema.Map); isMap {
			for _, entry := range n.Children {
				out = append(out, row{Node: entry, mapRow: true})
				out = flatten(out, entry.Children, true)
			}
			continue
		}
		out = flatten(out, n.Children, false)
	}
	return out
}

func (m model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing != nil {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = nil
		m.status = ""
		return m, nil
	case "ctrl+s":
		return m.commit(), nil
	case "enter":
		if !m.editing.Multiline() {
			return m.commit(), nil
		}
	}
	return m, m.editing.Update(msg)
}

// commit writes the open inputs. On error the editor stays open.
func (m model) commit() model {
	r, ok := m.selected()
	if !ok {
		m.editing = nil
		return m
	}
	values := m.editing.Values()
	var err error
	if _, wk := r.Variant.(schema.WellKnown); wk {
		err = m.form.SetEditable(m.editPath, values...)
	} else {
		err = m.form.SetText(m.editPath, values[0])
	}
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.editing = nil
	m.status = ""
	m.refresh()
	return m
}

func (m model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "ctrl+s":
		m.submitted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(0, len(m.rows)-1)
	case " ":
		m = m.toggle()
	case "enter":
		return m.activate()
	case "left", "h":
		m = m.cycleEnum(-1)
	case "right", "l":
		m = m.cycleEnum(1)
	case "+", "a":
		m = m.addItem()
	case "-", "x":
		m = m.removeItem()
	}
	m.scroll()
	return m, nil
}

// toggle switches the selected field on or off.
func (m model) toggle() model {
	r, ok := m.selected()
	if !ok {
		return m
	}
	if !r.field() {
		m.status = "only fields can be switched off; remove items with -"
		return m
	}
	var err error
	if r.Enabled {
		err = m.form.Disable(r.Path)
	} else {
		err = m.form.Enable(r.Path)
	}
	return m.after(err)
}

// activate expands containers, flips booleans and opens the inputs of
// everything else. A disabled field is enabled first.
func (m model) activate() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	if r.field() && !r.Enabled {
		if err := m.form.Enable(r.Path); err != nil {
			return m.after(err), nil
		}
	}

	if r.mapRow {
		return m, nil
	}

	switch v := r.Variant.(type) {
	case schema.Message, schema.Repeated, schema.Map:
		expanded := r.Expanded && r.Enabled
		return m.after(m.form.SetExpanded(r.Path, !expanded)), nil
	case schema.Scalar:
		if v.Kind == schema.KindBool {
			on, _ := strconv.ParseBool(displayed(r))
			return m.after(m.form.SetText(r.Path, strconv.FormatBool(!on))), nil
		}
		m.editing = bubbles.NewScalarGroup(strings.ToLower(v.Kind.String()), displayed(r), m.styles)
	case schema.Enum:
		names := lo.Map(v.Values, func(e schema.EnumValue, _ int) string { return e.Name })
		m.editing = bubbles.NewScalarGroup(strings.Join(names, "|"), displayed(r), m.styles)
	case schema.WellKnown:
		if len(r.Inputs) == 0 {
			return m.after(m.unsupported(r)), nil
		}
		m.editing = bubbles.NewWellKnownGroup(r.Inputs, r.Display, m.styles)
	case schema.Unsupported:
		return m.after(m.unsupported(r)), nil
	default:
		return m.after(fmt.Errorf("unsupported field %T", v)), nil
	}
	m.editPath = r.Path
	m.refresh()
	return m, m.editing.Focus()
}

func (m model) unsupported(r row) error {
	if r.Placeholder != "" {
		return errors.New(r.Placeholder)
	}
	return fmt.Errorf("%s cannot be edited here", r.Path)
}

// cycleEnum moves an enum field to the previous or next value.
func (m model) cycleEnum(delta int) model {
	r, ok := m.selected()
	if !ok {
		return m
	}
	enum, isEnum := r.Variant.(schema.Enum)
	if !isEnum || len(enum.Values) == 0 {
		return m
	}
	if r.field() && !r.Enabled {
		if err := m.form.Enable(r.Path); err != nil {
			return m.after(err)
		}
	}
	current := slices.IndexFunc(enum.Values, func(e schema.EnumValue) bool { return e.Name == displayed(r) })
	next := 0
	if current >= 0 {
		next = (current + delta + len(enum.Values)) % len(enum.Values)
	}
	return m.after(m.form.SetText(r.Path, enum.Values[next].Name))
}

// addItem appends an item to the selected list, or to the list holding the
// selected item.
func (m model) addItem() model {
	r, ok := m.selected()
	if !ok {
		return m
	}
	path := r.Path
	switch r.Variant.(type) {
	case schema.Repeated, schema.Map:
	default:
		if r.Item < 0 {
			m.status = "not a list"
			return m
		}
		path = fieldpath.Parent(r.Path)
	}
	if r.field() && !r.Enabled {
		if err := m.form.Enable(path); err != nil {
			return m.after(err)
		}
	}
	i, err := m.form.AddItem(path)
	if err != nil {
		return m.after(err)
	}
	if err := m.form.SetExpanded(path, true); err != nil {
		return m.after(err)
	}
	m.refresh()
	if at := slices.IndexFunc(m.rows, func(r row) bool { return r.Path == fieldpath.Index(path, i) }); at >= 0 {
		m.cursor = at
	}
	return m
}

// removeItem removes the selected item.
func (m model) removeItem() model {
	r, ok := m.selected()
	if !ok {
		return m
	}
	if r.Field != nil || r.Item < 0 {
		m.status = "select an item to remove"
		return m
	}
	return m.after(m.form.RemoveItem(fieldpath.Parent(r.Path), r.Item))
}

func (m model) after(err error) model {
	if err != nil {
		m.status = err.Error()
	}
	m.refresh()
	return m
}

// scroll keeps the cursor inside the visible window.
func (m *model) scroll() {
	visible := m.visibleRows()
	if visible <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m model) visibleRows() int {
	if m.height == 0 {
		return 0
	}
	return max(1, m.height-6)
}

// displayed is the first display text of a row, or "" when unset.
func displayed(r row) string {
	if !r.Present || len(r.Display) == 0 {
		return ""
	}
	return r.Display[0]
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	if r, ok := m.selected(); ok && r.Field != nil && r.Field.Description != "" {
		b.WriteString(m.styles.Subtitle.Render(r.Field.Description))
	}
	b.WriteString("\n")

	start, end := 0, len(m.rows)
	if visible := m.visibleRows(); visible > 0 {
		start = min(m.offset, len(m.rows))
		end = min(start+visible, len(m.rows))
	}
	for i := start; i < end; i++ {
		b.WriteString(m.viewRow(i))
		b.WriteString("\n")
		if i == m.cursor && m.editing != nil {
			b.WriteString(m.editing.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.Error.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render(m.help()))
	return b.String()
}

func (m model) viewRow(i int) string {
	r := m.rows[i]
	var b strings.Builder
	if i == m.cursor {
		b.WriteString(m.styles.Cursor.Render("> "))
	} else {
		b.WriteString("  ")
	}
	b.WriteString(strings.Repeat(" ", r.Depth*m.styles.Indent))

	switch {
	case r.field() && r.Field.Oneof != "":
		b.WriteString(toggle(m.styles, r.Enabled, "(•) ", "( ) "))
	case r.field():
		b.WriteString(toggle(m.styles, r.Enabled, "[x] ", "[ ] "))
	}

	switch {
	case r.Item >= 0:
		b.WriteString(m.styles.Muted.Render(r.Label))
	case !r.Enabled:
		b.WriteString(m.styles.Muted.Render(r.Label))
	default:
		b.WriteString(m.styles.Label(r.Label).Render(r.Label))
	}
	if r.Field != nil && r.Field.Required {
		b.WriteString(m.styles.Required.Render("*"))
	}

	if summary := m.summary(r); summary != "" {
		b.WriteString("  ")
		b.WriteString(summary)
	}
	return b.String()
}

func toggle(s bubbles.Styles, on bool, onText, offText string) string {
	if on {
		return s.ToggleOn.Render(onText)
	}
	return s.ToggleOff.Render(offText)
}

func (m model) summary(r row) string {
	switch v := r.Variant.(type) {
	case schema.Scalar, schema.Enum:
		if !r.Present {
			return m.styles.Muted.Render("unset")
		}
		return m.styles.Value.Render(displayed(r))
	case schema.WellKnown:
		if r.Placeholder != "" {
			return m.styles.Muted.Render(r.Placeholder)
		}
		if !r.Present && v.Type != schema.WKTNullValue {
			return m.styles.Muted.Render(v.Type.String() + " unset")
		}
		return m.styles.Value.Render(strings.Join(lo.Reject(r.Display, func(s string, _ int) bool { return s == "" }), " "))
	case schema.Message:
		if r.mapRow {
			return ""
		}
		name := ""
		if v.Schema != nil {
			name = v.Schema.FullName
		}
		return m.styles.Muted.Render(arrow(r) + " " + name)
	case schema.Repeated, schema.Map:
		return m.styles.Muted.Render(fmt.Sprintf("%s %d items", arrow(r), len(r.Items)))
	case schema.Unsupported:
		return m.styles.Muted.Render(r.Placeholder)
	default:
		return m.styles.Muted.Render(r.Placeholder)
	}
}

func arrow(r row) string {
	if r.Enabled && r.Expanded {
		return "▾"
	}
	return "▸"
}

func (m model) help() string {
	if m.editing != nil {
		commit := bubbles.KeyBind{Keys: "Enter", Op: "apply"}
		if m.editing.Multiline() {
			commit = bubbles.KeyBind{Keys: "Ctrl+S", Op: "apply"}
		}
		return bubbles.FormHelpText(commit, bubbles.KeyBind{Keys: "Tab", Op: "next input"}, bubbles.KeyBind{Keys: "Esc", Op: "cancel"})
	}
	return bubbles.FormHelpText(
		bubbles.KeyBind{Keys: "↑↓", Op: "move"},
		bubbles.KeyBind{Keys: "Space", Op: "on/off"},
		bubbles.KeyBind{Keys: "Enter", Op: "edit/expand"},
		bubbles.KeyBind{Keys: "←→", Op: "enum"},
		bubbles.KeyBind{Keys: "+/-", Op: "add/remove item"},
		bubbles.KeyBind{Keys: "Ctrl+S", Op: "submit"},
		bubbles.KeyBind{Keys: "Esc", Op: "quit"},
	)
}
