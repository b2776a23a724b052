package tui

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/contrib/tui/bubbles"
	"github.com/bhagwati-web/grpc-client/form"
	"github.com/bhagwati-web/grpc-client/internal/testpb"
	"github.com/bhagwati-web/grpc-client/schema"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	right = tea.KeyMsg{Type: tea.KeyRight}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, initial map[string]any) model {
	t.Helper()
	f := form.New(schema.FromMessage(testpb.Request()), initial, form.WithDebounce(0))
	t.Cleanup(f.Close)
	return newModel(testpb.OrderRequest, f, bubbles.DefaultStyles())
}

func press(t *testing.T, m model, keys ...tea.KeyMsg) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

// at moves the cursor to the row rendered for path.
func at(t *testing.T, m model, path string) model {
	t.Helper()
	i := slices.IndexFunc(m.rows, func(r row) bool { return r.Path == path })
	require.GreaterOrEqual(t, i, 0, "no row for %s", path)
	m.cursor = i
	return m
}

func TestUnit_Model_Scalars(t *testing.T) {
	t.Run("edit a string", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "customer"), enter)
		require.NotNil(t, m.editing)
		m = press(t, m, runes("ada"), enter)
		assert.Nil(t, m.editing)
		assert.Equal(t, "ada", m.form.Value()["customer"])
		assert.True(t, m.rows[m.cursor].Enabled)
	})

	t.Run("invalid text keeps the editor open", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "offset"), enter, runes("abc"), enter)
		assert.NotNil(t, m.editing)
		assert.Contains(t, m.status, "invalid value")
		m = press(t, m, esc)
		assert.Nil(t, m.editing)
		assert.NotContains(t, m.form.Value(), "offset")
	})

	t.Run("booleans flip on enter", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "gift"), enter)
		assert.Equal(t, true, m.form.Value()["gift"])
		m = press(t, m, enter)
		assert.Equal(t, false, m.form.Value()["gift"])
	})

	t.Run("space switches fields off", func(t *testing.T) {
		m := newTestModel(t, map[string]any{"customer": "ada"})
		m = at(t, m, "customer")
		require.True(t, m.rows[m.cursor].Enabled)
		m = press(t, m, space)
		assert.False(t, m.rows[m.cursor].Enabled)
		assert.NotContains(t, m.form.Value(), "customer")
		m = press(t, m, space)
		assert.True(t, m.rows[m.cursor].Enabled)
		assert.NotContains(t, m.form.Value(), "customer", "re-enabling does not restore the value")
	})

	t.Run("enums cycle", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "priority"), right)
		assert.Equal(t, "PRIORITY_UNSPECIFIED", m.form.Value()["priority"])
		m = press(t, m, right, right)
		assert.Equal(t, "PRIORITY_HIGH", m.form.Value()["priority"])
		m = press(t, m, right)
		assert.Equal(t, "PRIORITY_UNSPECIFIED", m.form.Value()["priority"])
	})

	t.Run("oneof members exclude each other", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "card"), enter, runes("4242"), enter)
		assert.Equal(t, "4242", m.form.Value()["card"])
		m = press(t, at(t, m, "voucher"), space)
		assert.NotContains(t, m.form.Value(), "card")
		assert.False(t, m.form.State("card").Enabled)
		assert.True(t, m.form.State("voucher").Enabled)
	})
}

func TestUnit_Model_Lists(t *testing.T) {
	t.Run("repeated scalars", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "tags"), runes("+"))
		assert.True(t, m.form.State("tags").Enabled)
		assert.Equal(t, "tags[0]", m.rows[m.cursor].Path)

		m = press(t, m, enter, runes("x"), enter)
		assert.Equal(t, []any{"x"}, m.form.Value()["tags"])

		m = press(t, m, runes("+"))
		assert.Equal(t, "tags[1]", m.rows[m.cursor].Path, "adding from an item appends to its list")
		m = press(t, m, runes("-"))
		assert.Len(t, m.form.State("tags").Items, 1)

		m = press(t, at(t, m, "tags[0]"), runes("-"))
		assert.Empty(t, m.form.State("tags").Items)
		assert.Contains(t, m.form.Value(), "tags")
	})

	t.Run("message items expand", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "items"), runes("+"))
		require.Equal(t, "items[0]", m.rows[m.cursor].Path)
		m = press(t, m, enter)
		m = press(t, at(t, m, "items[0].sku"), enter, runes("A-1"), enter)
		m = press(t, at(t, m, "items[0].quantity"), enter, runes("3"), enter)
		assert.Equal(t, []any{map[string]any{"sku": "A-1", "quantity": int64(3)}}, m.form.Value()["items"])
	})

	t.Run("map entries", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "labels"), runes("+"))
		require.Equal(t, "labels[0]", m.rows[m.cursor].Path)
		assert.True(t, m.rows[m.cursor].mapRow)

		m = press(t, m, down)
		require.Equal(t, "labels[0].key", m.rows[m.cursor].Path)
		m = press(t, m, space)
		assert.NotEmpty(t, m.status, "entry rows have no toggle")
		m = press(t, m, enter, runes("env"), enter, down, enter, runes("prod"), enter)
		assert.Equal(t, []any{map[string]any{"key": "env", "value": "prod"}}, m.form.Value()["labels"])

		m = press(t, at(t, m, "labels[0]"), runes("-"))
		assert.Empty(t, m.form.State("labels").Items)
	})

	t.Run("adding needs a list", func(t *testing.T) {
		m := newTestModel(t, nil)
		m = press(t, at(t, m, "customer"), runes("+"))
		assert.Equal(t, "not a list", m.status)
	})
}

func TestUnit_Model_WellKnown(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(t, at(t, m, "ttl"), enter)
	require.NotNil(t, m.editing)
	m = press(t, m, runes("90"), enter)
	assert.Equal(t, map[string]any{"seconds": int64(90), "nanos": int32(0)}, m.form.Value()["ttl"])
	assert.Contains(t, m.View(), "90")
}

func TestUnit_Model_SubmitAndQuit(t *testing.T) {
	m := newTestModel(t, nil)
	next, cmd := m.Update(ctrlS)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(model).submitted)

	next, cmd = m.Update(esc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, next.(model).submitted)
}

func TestUnit_Model_View(t *testing.T) {
	m := newTestModel(t, map[string]any{"customer": "ada"})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	view := m.View()
	assert.Contains(t, view, testpb.OrderRequest)
	assert.Contains(t, view, "customer")
	assert.Contains(t, view, "ada")
	assert.Contains(t, view, "Ctrl+S: submit")

	t.Run("scrolls with the window", func(t *testing.T) {
		next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
		m := next.(model)
		for range len(m.rows) {
			m = press(t, m, down)
		}
		view := m.View()
		assert.NotContains(t, view, "customer")
		assert.Contains(t, view, m.rows[len(m.rows)-1].Label)
	})
}

func TestUnit_LabelColor(t *testing.T) {
	palette := bubbles.DefaultTheme().Colors.Labels
	assert.Equal(t, bubbles.LabelColor(palette, "customer"), bubbles.LabelColor(palette, "customer"))
	assert.Contains(t, palette, bubbles.LabelColor(palette, "items"))
}

func TestIntegration_Edit(t *testing.T) {
	session := grpcclient.EditSession{
		Schema:  schema.FromMessage(testpb.Request()),
		Initial: map[string]any{"customer": "ada"},
	}
	editor := func(input string) grpcclient.Editor {
		return New(WithProgramOptions(
			tea.WithInput(strings.NewReader(input)),
			tea.WithOutput(io.Discard),
		))
	}

	t.Run("submit", func(t *testing.T) {
		got, err := editor("\x13").Edit(context.Background(), session)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"customer": "ada"}, got)
	})

	t.Run("quit", func(t *testing.T) {
		_, err := editor("\x03").Edit(context.Background(), session)
		assert.ErrorIs(t, err, grpcclient.ErrEditCanceled)
	})
}
