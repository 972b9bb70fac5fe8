// Package panes renders the rounded, titled borders shared by the table and
// the history panel.
package panes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/ui/styles"
)

// BorderConfig configures a bordered pane. Width and Height include the
// border itself.
type BorderConfig struct {
	Content string
	Width   int
	Height  int

	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string

	Focused            bool
	TitleColor         lipgloss.TerminalColor
	BorderColor        lipgloss.TerminalColor
	FocusedBorderColor lipgloss.TerminalColor
}

type edge struct {
	left, right string
}

var (
	topEdge    = edge{left: "╭", right: "╮"}
	bottomEdge = edge{left: "╰", right: "╯"}
)

const (
	horizontal = "─"
	vertical   = "│"
)

// BorderedPane renders content inside a rounded border with optional titles
// embedded in the top and bottom edges. Content is clipped and padded to fit.
func BorderedPane(cfg BorderConfig) string {
	borderStyle := lipgloss.NewStyle().Foreground(resolveBorderColor(cfg.BorderColor, cfg.FocusedBorderColor, cfg.Focused))
	titleColor := cfg.TitleColor
	if titleColor == nil {
		titleColor = styles.BorderDefaultColor
	}
	titleStyle := lipgloss.NewStyle().Foreground(titleColor)

	innerWidth := max(cfg.Width-2, 1)
	innerHeight := max(cfg.Height-2, 1)

	body := lipgloss.NewStyle().
		Width(innerWidth).
		Height(innerHeight).
		MaxHeight(innerHeight).
		Render(cfg.Content)
	lines := strings.Split(body, "\n")

	side := borderStyle.Render(vertical)
	var b strings.Builder
	b.WriteString(buildEdge(topEdge, cfg.TopLeft, cfg.TopRight, innerWidth, borderStyle, titleStyle))
	for i := range innerHeight {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w > innerWidth {
			line = styles.TruncateString(line, innerWidth)
		} else if w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		b.WriteString("\n" + side + line + side)
	}
	b.WriteString("\n")
	b.WriteString(buildEdge(bottomEdge, cfg.BottomLeft, cfg.BottomRight, innerWidth, borderStyle, titleStyle))
	return b.String()
}

// resolveBorderColor picks the border color for the focus state. An unset
// focused color inherits the normal one; an unset normal color is the default.
func resolveBorderColor(normal, focused lipgloss.TerminalColor, isFocused bool) lipgloss.TerminalColor {
	if isFocused && focused != nil {
		return focused
	}
	if normal == nil {
		return styles.BorderDefaultColor
	}
	return normal
}

// buildEdge renders ╭─ left ───── right ─╮ (or the bottom equivalent).
// The right title is dropped first when space runs out, then the left one is
// truncated.
func buildEdge(e edge, left, right string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	plain := borderStyle.Render(e.left + strings.Repeat(horizontal, innerWidth) + e.right)
	if left == "" && right == "" {
		return plain
	}

	segment := func(title string) int {
		if title == "" {
			return 0
		}
		return lipgloss.Width(title) + 3 // "─ " + title + " "
	}

	// Keep at least one dash between or after the titles.
	if segment(left)+segment(right)+1 > innerWidth {
		right = ""
	}
	if left != "" && segment(left)+1 > innerWidth {
		avail := innerWidth - 4
		if avail < 1 {
			return plain
		}
		left = styles.TruncateString(left, avail)
	}
	if left == "" && right == "" {
		return plain
	}

	var b strings.Builder
	b.WriteString(borderStyle.Render(e.left))
	if left != "" {
		b.WriteString(borderStyle.Render(horizontal + " "))
		b.WriteString(titleStyle.Render(left))
		b.WriteString(borderStyle.Render(" "))
	}
	used := segment(left)
	if right != "" {
		used += segment(right)
	}
	b.WriteString(borderStyle.Render(strings.Repeat(horizontal, max(innerWidth-used, 1))))
	if right != "" {
		b.WriteString(borderStyle.Render(" "))
		b.WriteString(titleStyle.Render(right))
		b.WriteString(borderStyle.Render(" " + horizontal))
	}
	b.WriteString(borderStyle.Render(e.right))
	return b.String()
}
