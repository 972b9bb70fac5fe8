package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow(t *testing.T) {
	m := New().Show("Hello", StyleSuccess)

	assert.True(t, m.Visible())
	assert.Equal(t, "Hello", m.Message())
	assert.Contains(t, m.View(), "Hello")
}

func TestHide(t *testing.T) {
	m := New().Show("Hello", StyleSuccess).Hide()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow_ReplacesExisting(t *testing.T) {
	m := New().
		Show("First", StyleSuccess).
		Show("Second", StyleError)

	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Second")
	assert.NotContains(t, m.View(), "First")
}

func TestView_EmptyWhenMessageEmpty(t *testing.T) {
	m := Model{visible: true, message: ""}

	assert.Empty(t, m.View())
}

func TestView_Icons(t *testing.T) {
	tests := []struct {
		style Style
		icon  string
	}{
		{StyleSuccess, "✅"},
		{StyleError, "❌"},
		{StyleInfo, "ℹ️"},
		{StyleWarn, "⚠️"},
	}
	for _, tt := range tests {
		view := New().Show("msg", tt.style).View()
		assert.Contains(t, view, tt.icon)
		assert.Contains(t, view, "msg")
		assert.Contains(t, view, "╭", "toast has a rounded border")
	}
}

func TestView_WrapsLongMessage(t *testing.T) {
	msg := strings.Repeat("word ", 30)
	view := New().Show(msg, StyleError).View()

	lines := strings.Split(view, "\n")
	assert.Greater(t, len(lines), 3, "long message wraps onto several lines")
	for _, l := range lines {
		assert.LessOrEqual(t, ansi.StringWidth(l), maxWidth+4)
	}
}

func TestOverlay_NotVisibleReturnsBackground(t *testing.T) {
	bg := "background"

	assert.Equal(t, bg, New().Overlay(bg, 10, 1))
}

func TestOverlay_VisiblePlacesAtBottom(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 40)+"\n", 10), "\n")
	m := New().Show("Saved", StyleSuccess)

	lines := strings.Split(m.Overlay(bg, 40, 10), "\n")

	require.Len(t, lines, 10)
	assert.Equal(t, strings.Repeat(".", 40), lines[0], "top is untouched")
	assert.Equal(t, strings.Repeat(".", 40), lines[9], "one row of padding below the toast")
	assert.Contains(t, ansi.Strip(lines[7]), "Saved")
}

func TestUpdate_DismissCurrent(t *testing.T) {
	m := New().Show("Hello", StyleInfo)

	msg := m.ScheduleDismiss(time.Millisecond)()
	m = m.Update(msg)

	assert.False(t, m.Visible())
}

func TestUpdate_StaleDismissIgnored(t *testing.T) {
	m := New().Show("First", StyleInfo)
	stale := m.ScheduleDismiss(time.Millisecond)()

	m = m.Show("Second", StyleError)
	m = m.Update(stale)

	assert.True(t, m.Visible(), "a dismissal for an older toast must not hide the newer one")
	assert.Equal(t, "Second", m.Message())
}

func TestUpdate_IgnoresOtherMessages(t *testing.T) {
	m := New().Show("Hello", StyleInfo)

	assert.True(t, m.Update("noise").Visible())
}

func TestShow_ImmutableModel(t *testing.T) {
	original := New()
	_ = original.Show("Hello", StyleSuccess)

	assert.False(t, original.Visible(), "Show returns a copy")
}
