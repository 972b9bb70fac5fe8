package table

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/tabula/internal/cachemanager"
	"github.com/zjrosen/tabula/internal/ui/shared/panes"
	"github.com/zjrosen/tabula/internal/ui/styles"
)

// cellRequest is everything needed to render one cell on a cache miss.
type cellRequest[R any] struct {
	row   R
	col   ColumnConfig[R]
	width int
}

// Model holds table rendering state. Rows scroll by keeping the selected row
// visible; see EnsureVisible.
type Model[R any] struct {
	config  TableConfig[R]
	rows    []R
	width   int
	height  int
	yOffset int
	cells   *cachemanager.ReadThroughCache[string, string, cellRequest[R]]
}

// New creates a table with the given configuration.
// Panics if the configuration is invalid.
func New[R any](cfg TableConfig[R]) Model[R] {
	if err := ValidateConfig(cfg); err != nil {
		panic(err)
	}
	if cfg.EmptyMessage == "" {
		cfg.EmptyMessage = "No data"
	}

	skip := cfg.CellCache == nil || cfg.CacheKey == nil
	return Model[R]{
		config: cfg,
		cells:  cachemanager.NewReadThroughCache(cfg.CellCache, renderCellRequest[R], skip),
	}
}

// SetRows updates the row data.
func (m Model[R]) SetRows(rows []R) Model[R] {
	m.rows = rows
	m.yOffset = m.clampYOffset(m.yOffset)
	return m
}

// SetFocused updates the border focus state.
func (m Model[R]) SetFocused(focused bool) Model[R] {
	m.config.Focused = focused
	return m
}

// SetTitle updates the border title.
func (m Model[R]) SetTitle(title string) Model[R] {
	m.config.Title = title
	return m
}

// SetSize sets the available dimensions, border included.
func (m Model[R]) SetSize(width, height int) Model[R] {
	m.width = width
	m.height = height
	m.yOffset = m.clampYOffset(m.yOffset)
	return m
}

// RowCount returns the number of rows in the table.
func (m Model[R]) RowCount() int {
	return len(m.rows)
}

// YOffset returns the index of the first visible row.
func (m Model[R]) YOffset() int {
	return m.yOffset
}

// VisibleRows returns how many rows fit in the current height.
func (m Model[R]) VisibleRows() int {
	h := m.height
	if m.config.ShowBorder {
		h -= 2
	}
	if m.config.ShowHeader {
		h--
	}
	return max(h, 0)
}

func (m Model[R]) clampYOffset(offset int) int {
	maxOffset := max(len(m.rows)-m.VisibleRows(), 0)
	return max(min(offset, maxOffset), 0)
}

// EnsureVisible scrolls so that row index is on screen.
func (m Model[R]) EnsureVisible(index int) Model[R] {
	if index < 0 || index >= len(m.rows) {
		return m
	}
	if index < m.yOffset {
		m.yOffset = index
	}
	if vh := m.VisibleRows(); vh > 0 && index >= m.yOffset+vh {
		m.yOffset = index - vh + 1
	}
	m.yOffset = m.clampYOffset(m.yOffset)
	return m
}

// InvalidateCache drops cached cells, needed when styles change.
func (m Model[R]) InvalidateCache(ctx context.Context) error {
	if m.config.CellCache == nil {
		return nil
	}
	return m.cells.Invalidate(ctx)
}

// CacheStats returns cell cache hits and misses.
func (m Model[R]) CacheStats() (hits, misses int) {
	return m.cells.Stats()
}

// View renders the table without selection highlighting.
func (m Model[R]) View() string {
	return m.renderTable(-1)
}

// ViewWithSelection renders the table with row index highlighted.
// An out of range index means no selection.
func (m Model[R]) ViewWithSelection(index int) string {
	return m.renderTable(index)
}

func (m Model[R]) renderTable(selected int) string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	innerWidth, innerHeight := m.width, m.height
	if m.config.ShowBorder {
		innerWidth -= 2
		innerHeight -= 2
	}
	if innerWidth <= 0 || innerHeight <= 0 {
		return ""
	}

	cols := filterVisibleColumns(m.config.Columns, m.width)
	widths := calculateColumnWidths(cols, innerWidth)

	var content string
	if len(m.rows) == 0 {
		content = renderEmptyState(m.config.EmptyMessage, innerWidth, innerHeight)
	} else {
		content = m.renderRows(cols, widths, innerWidth, innerHeight, selected)
	}

	if !m.config.ShowBorder {
		return content
	}
	return panes.BorderedPane(panes.BorderConfig{
		Content:            content,
		Width:              m.width,
		Height:             m.height,
		TopLeft:            m.config.Title,
		BorderColor:        m.config.BorderColor,
		Focused:            m.config.Focused,
		FocusedBorderColor: m.config.FocusedBorderColor,
	})
}

// renderRows renders the sticky header and the visible window of rows.
func (m Model[R]) renderRows(cols []ColumnConfig[R], widths []int, innerWidth, innerHeight, selected int) string {
	lines := make([]string, 0, innerHeight)
	if m.config.ShowHeader {
		lines = append(lines, headerStyle.Render(renderHeader(cols, widths)))
	}

	end := min(m.yOffset+m.VisibleRows(), len(m.rows))
	for i := m.yOffset; i < end; i++ {
		line := m.renderRow(m.rows[i], cols, widths, i == selected, innerWidth)
		if m.config.RowZoneID != nil {
			if id := m.config.RowZoneID(i, m.rows[i]); id != "" {
				line = zone.Mark(id, line)
			}
		}
		lines = append(lines, line)
	}

	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

var headerStyle = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
