package table

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/ui/styles"
)

var (
	selectionBgStyle = lipgloss.NewStyle().Background(styles.SelectionBackgroundColor)
	emptyStyle       = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
)

// selectionBgPrefix returns the escape sequence that turns the selection
// background on, or "" when the color profile has no colors.
func selectionBgPrefix() string {
	s := selectionBgStyle.Render(" ")
	if i := strings.Index(s, " "); i > 0 {
		return s[:i]
	}
	return ""
}

// renderHeader renders the plain header row.
func renderHeader[R any](cols []ColumnConfig[R], widths []int) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = alignText(styles.TruncateString(col.Header, widths[i]), widths[i], col.Align)
	}
	return strings.Join(parts, " ")
}

// renderRow renders one data row. A selected row carries the selection
// background across its full width.
func (m Model[R]) renderRow(row R, cols []ColumnConfig[R], widths []int, selected bool, fullWidth int) string {
	sep := " "
	if selected {
		sep = selectionBgStyle.Render(" ")
	}

	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteString(sep)
		}
		cell := m.cell(row, col, widths[i])
		if selected {
			cell = applyBackground(cell)
		}
		b.WriteString(cell)
	}

	line := b.String()
	if selected {
		if w := lipgloss.Width(line); w < fullWidth {
			line += selectionBgStyle.Render(strings.Repeat(" ", fullWidth-w))
		}
	}
	return line
}

// cell returns the aligned, truncated cell, from the cache when enabled.
func (m Model[R]) cell(row R, col ColumnConfig[R], width int) string {
	var key string
	if m.config.CacheKey != nil {
		key = m.config.CacheKey(row) + "\x00" + col.Key + "\x00" + strconv.Itoa(width)
	}
	out, err := m.cells.Get(context.Background(), key, cellRequest[R]{row: row, col: col, width: width}, 0)
	if err != nil {
		log.ErrorErr(log.CatUI, "Cell render failed", err, "column", col.Key)
	}
	return out
}

// renderCellRequest is the cache loader. It never fails: a panicking Render
// callback becomes an inline error marker.
func renderCellRequest[R any](_ context.Context, req cellRequest[R]) (string, error) {
	content := safeRender(req.row, req.col, req.width)
	if lipgloss.Width(content) > req.width {
		content = styles.TruncateString(content, req.width)
	}
	return alignText(content, req.width, req.col.Align), nil
}

func safeRender[R any](row R, col ColumnConfig[R], width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatUI, "Cell render panicked", "column", col.Key, "panic", r)
			out = styles.TruncateString(fmt.Sprintf("!ERR:%v", r), width)
		}
	}()
	return col.Render(row, width)
}

// applyBackground paints the selection background under content that may
// already carry its own styling. Resets inside content would clear the
// background, so each one re-enables it.
func applyBackground(content string) string {
	if !strings.Contains(content, "\x1b[") {
		return selectionBgStyle.Render(content)
	}
	prefix := selectionBgPrefix()
	withBg := strings.ReplaceAll(content, "\x1b[0m", "\x1b[0m"+prefix)
	return prefix + withBg + "\x1b[0m"
}

// renderEmptyState centers msg in a width x height block.
func renderEmptyState(msg string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	msg = styles.TruncateString(msg, width)
	line := strings.Repeat(" ", max((width-lipgloss.Width(msg))/2, 0)) + emptyStyle.Render(msg)

	top := max((height-1)/2, 0)
	lines := make([]string, height)
	lines[top] = line
	return strings.Join(lines, "\n")
}

// alignText pads text to width according to align. Text already at or over
// width is returned unchanged.
func alignText(text string, width int, align lipgloss.Position) string {
	pad := width - lipgloss.Width(text)
	if pad <= 0 {
		return text
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + text
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
	default:
		return text + strings.Repeat(" ", pad)
	}
}
