package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "Item 42", 10, "Item 42"},
		{"exact", "Item 42", 7, "Item 42"},
		{"truncated", "Item 123456", 8, "Item ..."},
		{"tiny width", "Item 42", 2, ".."},
		{"zero width", "Item 42", 0, ""},
		{"wide runes", "日本語テキスト", 7, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateString(tt.input, tt.width)
			require.Equal(t, tt.expected, got)
			require.LessOrEqual(t, ansi.StringWidth(got), max(tt.width, 0))
		})
	}
}

func TestTruncateString_PreservesANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("Item 123456789")
	got := TruncateString(styled, 8)
	require.LessOrEqual(t, ansi.StringWidth(got), 8)
	require.Contains(t, ansi.Strip(got), "...")
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, "日本 ", PadRight("日本", 5))
	require.Equal(t, "abcdef", PadRight("abcdef", 3), "longer text is left as is")
}

func TestPadLeft(t *testing.T) {
	require.Equal(t, "   42", PadLeft("42", 5))
}
