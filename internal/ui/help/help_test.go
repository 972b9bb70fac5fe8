package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/ui/markdown"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestHelp_New(t *testing.T) {
	m := New(history.PolicyStrict, nil)

	assert.NotEmpty(t, m.keys.Undo.Keys())
	assert.NotEmpty(t, m.keys.Redo.Keys())
	assert.Equal(t, history.PolicyStrict, m.policy)
}

func TestHelp_SetSize(t *testing.T) {
	m := New(history.PolicyStrict, nil).SetSize(120, 40)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)

	m2 := m.SetSize(80, 24)
	assert.Equal(t, 80, m2.width)
	assert.Equal(t, 120, m.width, "expected original model width unchanged")
}

func TestHelp_View_ContainsSections(t *testing.T) {
	view := New(history.PolicyStrict, nil).SetSize(100, 30).View()

	for _, s := range []string{"Keybindings", "Navigation", "Edits", "General", "History", footer} {
		assert.Contains(t, view, s)
	}
}

func TestHelp_View_ContainsKeybindings(t *testing.T) {
	view := New(history.PolicyStrict, nil).SetSize(100, 30).View()

	for _, s := range []string{"add row", "delete row", "u/ctrl+z", "ctrl+r/ctrl+y", "toggle history", "quit"} {
		assert.Contains(t, view, s)
	}
}

func TestHelp_View_PolicyNote(t *testing.T) {
	strict := ansi.Strip(New(history.PolicyStrict, nil).SetSize(100, 30).View())
	lenient := ansi.Strip(New(history.PolicyLenient, nil).SetSize(100, 30).View())

	assert.Contains(t, strict, "strict")
	assert.Contains(t, lenient, "lenient")
	assert.NotEqual(t, strict, lenient)
}

func TestHelp_SetPolicy(t *testing.T) {
	m := New(history.PolicyStrict, nil).SetPolicy(history.PolicyLenient).SetSize(100, 30)

	assert.Contains(t, ansi.Strip(m.View()), "lenient")
}

func TestHelp_View_WithMarkdownRenderer(t *testing.T) {
	r, err := markdown.New(60, "dark")
	require.NoError(t, err)

	view := ansi.Strip(New(history.PolicyLenient, r).SetSize(100, 30).View())

	assert.Contains(t, view, "lenient")
	assert.NotContains(t, view, "**", "markdown emphasis is rendered")
}

func TestHelp_Overlay(t *testing.T) {
	m := New(history.PolicyStrict, nil).SetSize(100, 30)
	background := strings.Repeat(strings.Repeat(".", 100)+"\n", 30)

	result := m.Overlay(background)

	assert.Contains(t, result, "Keybindings")
	lines := strings.Split(result, "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], ".", "expected first line to keep the background")
}

func TestHelp_View_Stability(t *testing.T) {
	m := New(history.PolicyStrict, nil).SetSize(100, 30)

	assert.Equal(t, m.View(), m.View())
}
