package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
	"github.com/zjrosen/tabula/internal/ui/toaster"
)

func (m Model) insert() (tea.Model, tea.Cmd) {
	row, err := m.manager.Insert(context.Background())
	if err != nil {
		return m.fail("Add", err)
	}
	m = m.refresh()
	return m.selectRow(m.manager.Len() - 1).withStatus(fmt.Sprintf("added %s", row.Content)), nil
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	row, err := m.manager.Delete(context.Background(), m.selected)
	if err != nil {
		return m.fail("Delete", err)
	}
	return m.refresh().withStatus(fmt.Sprintf("deleted %s", row.Content)), nil
}

func (m Model) undo() (tea.Model, tea.Cmd) {
	if err := m.manager.Undo(context.Background()); err != nil {
		return m.fail("Undo", err)
	}
	return m.refresh(), nil
}

func (m Model) redo() (tea.Model, tea.Cmd) {
	if err := m.manager.Redo(context.Background()); err != nil {
		return m.fail("Redo", err)
	}
	return m.refresh(), nil
}

// fail reports an edit that left the table unchanged. Empty stacks are an
// expected outcome and only warn; anything else is an error toast.
func (m Model) fail(action string, err error) (Model, tea.Cmd) {
	style := toaster.StyleError
	switch {
	case errors.Is(err, history.ErrNothingToUndo),
		errors.Is(err, history.ErrNothingToRedo),
		errors.Is(err, history.ErrInvalidSelection):
		style = toaster.StyleWarn
	default:
		log.ErrorErr(log.CatUI, action+" failed", err)
	}
	return m.toast(fmt.Sprintf("%s: %v", action, err), style)
}

func (m Model) toast(msg string, style toaster.Style) (Model, tea.Cmd) {
	m.toaster = m.toaster.Show(msg, style)
	return m, m.toaster.ScheduleDismiss(toaster.DefaultDuration)
}

func (m Model) withStatus(s string) Model {
	m.status = s
	return m
}

// selectRow moves the selection, clamped to the table.
func (m Model) selectRow(i int) Model {
	n := m.manager.Len()
	m.selected = max(min(i, n-1), 0)
	m.rows = m.rows.EnsureVisible(m.selected)
	return m
}

// refresh pushes manager state into the view components.
func (m Model) refresh() Model {
	rows := m.manager.Snapshot()
	m.rows = m.rows.SetRows(rows).SetTitle(fmt.Sprintf("Rows (%d)", len(rows)))
	m.history = m.history.SetEntries(m.manager.Past(), m.manager.Future())
	return m.selectRow(m.selected)
}

func rowZoneID(index int) string {
	return fmt.Sprintf("row-%d", index)
}

func rowCacheKey(r table.Row) string {
	return fmt.Sprintf("%d\x00%s", r.ID, r.Content)
}
