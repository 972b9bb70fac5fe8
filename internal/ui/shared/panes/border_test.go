package panes

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/ui/styles"
)

var (
	testColorBlue  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	testColorGreen = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func requireWidth(t *testing.T, out string, width int) {
	t.Helper()
	for i, line := range strings.Split(out, "\n") {
		require.Equal(t, width, ansi.StringWidth(line), "line %d: %q", i, line)
	}
}

func TestBorderedPane_BasicRendering(t *testing.T) {
	result := BorderedPane(BorderConfig{Content: "Hello World", Width: 20, Height: 5})

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "╭"))
	require.True(t, strings.HasSuffix(lines[0], "╮"))
	require.True(t, strings.HasPrefix(lines[4], "╰"))
	require.Contains(t, lines[1], "Hello World")
	requireWidth(t, result, 20)
}

func TestBorderedPane_AllTitles(t *testing.T) {
	result := BorderedPane(BorderConfig{
		Content:     "content",
		Width:       40,
		Height:      4,
		TopLeft:     "Rows",
		TopRight:    "3",
		BottomLeft:  "strict",
		BottomRight: "u ok",
	})

	lines := strings.Split(result, "\n")
	require.Equal(t, "╭─ Rows "+strings.Repeat("─", 27)+" 3 ─╮", lines[0])
	require.Contains(t, lines[3], "strict")
	require.Contains(t, lines[3], "u ok")
	requireWidth(t, result, 40)
}

func TestBorderedPane_RightTitleDroppedWhenNarrow(t *testing.T) {
	result := BorderedPane(BorderConfig{Width: 14, Height: 3, TopLeft: "History", TopRight: "12 entries"})

	lines := strings.Split(result, "\n")
	require.Contains(t, lines[0], "History")
	require.NotContains(t, lines[0], "entries")
	requireWidth(t, result, 14)
}

func TestBorderedPane_LongTitleTruncated(t *testing.T) {
	result := BorderedPane(BorderConfig{Width: 12, Height: 3, TopLeft: "A very long title"})

	require.Contains(t, strings.Split(result, "\n")[0], "...")
	requireWidth(t, result, 12)
}

func TestBorderedPane_ContentClipped(t *testing.T) {
	result := BorderedPane(BorderConfig{Content: "a\nb\nc\nd\ne", Width: 10, Height: 4})

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[1], "a")
	require.Contains(t, lines[2], "b")
	require.NotContains(t, result, "c")
}

func TestBorderedPane_EmptyContent(t *testing.T) {
	result := BorderedPane(BorderConfig{Width: 10, Height: 4})

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "│"+strings.Repeat(" ", 8)+"│", lines[1])
}

func TestBorderedPane_UnicodeContent(t *testing.T) {
	result := BorderedPane(BorderConfig{Content: "日本語", Width: 12, Height: 3})

	require.Contains(t, result, "日本語")
	requireWidth(t, result, 12)
}

func TestResolveBorderColor(t *testing.T) {
	tests := []struct {
		name    string
		normal  lipgloss.TerminalColor
		focused lipgloss.TerminalColor
		isFocus bool
		want    lipgloss.TerminalColor
	}{
		{"both nil", nil, nil, true, styles.BorderDefaultColor},
		{"normal inherits focus", testColorBlue, nil, true, testColorBlue},
		{"focused only, unfocused", nil, testColorGreen, false, styles.BorderDefaultColor},
		{"focused only, focused", nil, testColorGreen, true, testColorGreen},
		{"both set, unfocused", testColorBlue, testColorGreen, false, testColorBlue},
		{"both set, focused", testColorBlue, testColorGreen, true, testColorGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, resolveBorderColor(tt.normal, tt.focused, tt.isFocus))
		})
	}
}

func TestBuildEdge_Plain(t *testing.T) {
	s := lipgloss.NewStyle()
	require.Equal(t, "╰─────╯", buildEdge(bottomEdge, "", "", 5, s, s))
}
