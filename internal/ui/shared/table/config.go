// Package table provides a config-driven table component used to render the
// row list.
//
// The table is a pure render component: selection and scroll position are
// owned by the caller. Callers pass column configurations with Render
// callbacks, row data and dimensions; the table handles the bordered pane,
// header, cell truncation and selection highlighting.
//
//	cfg := table.TableConfig[Row]{
//	    Columns: []table.ColumnConfig[Row]{
//	        {Key: "id", Header: "ID", Width: 5, Align: lipgloss.Right, Render: renderID},
//	        {Key: "content", Header: "Content", MinWidth: 10, Render: renderContent},
//	    },
//	    ShowHeader: true,
//	    ShowBorder: true,
//	}
//	tbl := table.New(cfg).SetRows(rows).SetSize(80, 20)
//	view := tbl.ViewWithSelection(selected)
package table

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/cachemanager"
)

// minColumnWidth is the narrowest a flex column is allowed to become.
const minColumnWidth = 3

// ColumnConfig defines a single table column.
//
// Width is a fixed width; zero makes the column flex, sharing the space left
// by fixed columns within MinWidth and MaxWidth. HideBelow hides the column
// when the table is narrower than the threshold.
type ColumnConfig[R any] struct {
	Key       string
	Header    string
	Width     int
	MinWidth  int
	MaxWidth  int
	HideBelow int
	Align     lipgloss.Position

	// Render returns the cell content for row. Output wider than width is
	// truncated by the table.
	Render func(row R, width int) string
}

// TableConfig defines the complete table configuration.
type TableConfig[R any] struct {
	Columns      []ColumnConfig[R]
	ShowHeader   bool
	ShowBorder   bool
	Title        string // top-left of the border
	EmptyMessage string // shown when there are no rows (default "No data")

	// RowZoneID returns a bubblezone id for a row. When set, each row is
	// wrapped with zone.Mark for mouse click detection.
	RowZoneID func(index int, row R) string

	// CellCache stores rendered cells keyed by CacheKey. Both must be set for
	// caching to take effect. CacheKey must change whenever a row's rendering
	// would.
	CellCache cachemanager.CacheManager[string, string]
	CacheKey  func(row R) string

	BorderColor        lipgloss.TerminalColor
	Focused            bool
	FocusedBorderColor lipgloss.TerminalColor
}

// ValidateConfig returns an error when there are no columns or a column has
// no Render callback.
func ValidateConfig[R any](cfg TableConfig[R]) error {
	if len(cfg.Columns) == 0 {
		return errors.New("table config: at least one column is required")
	}
	for i, col := range cfg.Columns {
		if col.Render == nil {
			if col.Key != "" {
				return fmt.Errorf("table config: column %q has nil Render callback", col.Key)
			}
			return fmt.Errorf("table config: column %d has nil Render callback", i)
		}
	}
	return nil
}

// filterVisibleColumns drops columns whose HideBelow exceeds width.
func filterVisibleColumns[R any](cols []ColumnConfig[R], width int) []ColumnConfig[R] {
	visible := make([]ColumnConfig[R], 0, len(cols))
	for _, c := range cols {
		if c.HideBelow == 0 || width >= c.HideBelow {
			visible = append(visible, c)
		}
	}
	return visible
}

// calculateColumnWidths assigns widths for a row of total cells, with one
// separator cell between columns. Flex columns split what fixed columns leave,
// earlier columns taking the remainder.
func calculateColumnWidths[R any](cols []ColumnConfig[R], total int) []int {
	widths := make([]int, len(cols))
	avail := total - max(len(cols)-1, 0)

	var flex []int
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			avail -= c.Width
			continue
		}
		flex = append(flex, i)
	}
	if len(flex) == 0 {
		return widths
	}

	avail = max(avail, 0)
	share, extra := avail/len(flex), avail%len(flex)
	for n, i := range flex {
		w := share
		if n < extra {
			w++
		}
		w = max(w, cols[i].MinWidth, minColumnWidth)
		if cols[i].MaxWidth > 0 {
			w = min(w, cols[i].MaxWidth)
		}
		widths[i] = w
	}
	return widths
}
