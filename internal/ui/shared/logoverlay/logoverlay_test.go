package logoverlay

import (
	"fmt"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/log"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const (
	debugEntry = "2026-01-02T10:00:00 [DEBUG] [history] performed kind=insert"
	infoEntry  = "2026-01-02T10:00:01 [INFO] [db] Restored snapshot rows=3"
	warnEntry  = "2026-01-02T10:00:02 [WARN] [history] insert undo skipped"
	errorEntry = "2026-01-02T10:00:03 [ERROR] [db] Autosave failed error=disk full"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func visibleOverlay(entries ...string) Model {
	m := New().SetSize(100, 40)
	for _, e := range entries {
		m = m.Append(e)
	}
	return m.Toggle()
}

func TestNew(t *testing.T) {
	m := New()

	require.False(t, m.Visible())
	require.Empty(t, m.View())
	require.Equal(t, log.LevelDebug, m.MinLevel())
	require.Zero(t, m.Len())
}

func TestToggle(t *testing.T) {
	m := New()
	m = m.Toggle()
	require.True(t, m.Visible())
	m = m.Toggle()
	require.False(t, m.Visible())
}

func TestAppend_TrimsNewlineAndSkipsEmpty(t *testing.T) {
	m := New().Append(debugEntry + "\n").Append("").Append("\n")
	require.Equal(t, 1, m.Len())
}

func TestAppend_BoundsBuffer(t *testing.T) {
	m := New()
	for i := range MaxEntries + 25 {
		m = m.Append(fmt.Sprintf("[INFO] [ui] entry %d", i))
	}
	require.Equal(t, MaxEntries, m.Len())
	require.Equal(t, "[INFO] [ui] entry 25", m.entries[0])
	require.Equal(t, fmt.Sprintf("[INFO] [ui] entry %d", MaxEntries+24), m.entries[MaxEntries-1])
}

func TestView_ShowsEntriesAndHints(t *testing.T) {
	view := ansi.Strip(visibleOverlay(debugEntry, infoEntry).View())

	require.Contains(t, view, "Logs")
	require.Contains(t, view, "performed kind=insert")
	require.Contains(t, view, "Restored snapshot rows=3")
	for _, hint := range []string{"[c] Clear", "[d] Debug", "[i] Info", "[w] Warn", "[e] Error"} {
		require.Contains(t, view, hint)
	}
}

func TestView_Empty(t *testing.T) {
	view := ansi.Strip(visibleOverlay().View())
	require.Contains(t, view, "No logs to display")
}

func TestView_FollowsNewEntriesWhileOpen(t *testing.T) {
	m := visibleOverlay(debugEntry)
	m = m.Append(errorEntry)
	require.Contains(t, ansi.Strip(m.View()), "Autosave failed")
}

func TestUpdate_FilterLevels(t *testing.T) {
	all := []string{debugEntry, infoEntry, warnEntry, errorEntry}
	tests := []struct {
		key      string
		level    log.Level
		visible  []string
		filtered []string
	}{
		{"d", log.LevelDebug, []string{"performed", "Restored", "skipped", "Autosave"}, nil},
		{"i", log.LevelInfo, []string{"Restored", "skipped", "Autosave"}, []string{"performed"}},
		{"w", log.LevelWarn, []string{"skipped", "Autosave"}, []string{"performed", "Restored"}},
		{"e", log.LevelError, []string{"Autosave"}, []string{"performed", "Restored", "skipped"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _ := visibleOverlay(all...).Update(key(tt.key))
			require.Equal(t, tt.level, m.MinLevel())

			view := ansi.Strip(m.View())
			for _, s := range tt.visible {
				require.Contains(t, view, s)
			}
			for _, s := range tt.filtered {
				require.NotContains(t, view, s)
			}
		})
	}
}

func TestUpdate_UnknownLevelAlwaysShown(t *testing.T) {
	m, _ := visibleOverlay("plain line without level").Update(key("e"))
	require.Contains(t, ansi.Strip(m.View()), "plain line without level")
}

func TestUpdate_Clear(t *testing.T) {
	m, _ := visibleOverlay(debugEntry, infoEntry).Update(key("c"))
	require.Zero(t, m.Len())
	require.Contains(t, ansi.Strip(m.View()), "No logs to display")
}

func TestUpdate_Close(t *testing.T) {
	for _, k := range []string{"esc", "ctrl+x"} {
		t.Run(k, func(t *testing.T) {
			m, cmd := visibleOverlay(debugEntry).Update(key(k))
			require.False(t, m.Visible())
			require.NotNil(t, cmd)
			require.IsType(t, CloseMsg{}, cmd())
		})
	}
}

func TestUpdate_CtrlCQuits(t *testing.T) {
	_, cmd := visibleOverlay().Update(key("ctrl+c"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_IgnoredWhenHidden(t *testing.T) {
	m := New().SetSize(100, 40).Append(debugEntry)
	m, cmd := m.Update(key("c"))
	require.Nil(t, cmd)
	require.Equal(t, 1, m.Len())
}

func TestUpdate_Scrolls(t *testing.T) {
	m := New().SetSize(100, 12)
	for i := range 40 {
		m = m.Append(fmt.Sprintf("[INFO] [ui] line %02d", i))
	}
	m = m.Toggle()
	require.Contains(t, ansi.Strip(m.View()), "line 39", "opens at the newest entry")

	m, _ = m.Update(key("g"))
	view := ansi.Strip(m.View())
	require.Contains(t, view, "line 00")
	require.NotContains(t, view, "line 39")

	m, _ = m.Update(key("G"))
	require.Contains(t, ansi.Strip(m.View()), "line 39")
}

func TestColorizeEntry_Truncates(t *testing.T) {
	long := "[INFO] [ui] " + strings.Repeat("x", 200)
	got := ansi.Strip(colorizeEntry(long, 40))
	require.Equal(t, 40, ansi.StringWidth(got))
	require.True(t, strings.HasSuffix(got, "..."))
}

func TestOverlay(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 100)+"\n", 40), "\n")

	hidden := New().SetSize(100, 40)
	require.Equal(t, bg, hidden.Overlay(bg))

	out := ansi.Strip(visibleOverlay(infoEntry).Overlay(bg))
	require.Contains(t, out, "Restored snapshot")
	require.Len(t, strings.Split(out, "\n"), 40)
}
