package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/tabula/internal/ui/styles"
)

// historyPanelWidth is the preferred width of the history panel.
const historyPanelWidth = 36

// layout sizes the components for the current window and UI toggles.
func (m Model) layout() Model {
	bodyHeight := m.height
	if m.cfg.UI.ShowStatusBar {
		bodyHeight--
	}
	bodyHeight = max(bodyHeight, 0)

	tableWidth := m.width
	if m.cfg.UI.ShowHistory {
		panel := min(historyPanelWidth, m.width/2)
		tableWidth -= panel
		m.history = m.history.SetSize(panel, bodyHeight)
	}

	m.rows = m.rows.SetSize(tableWidth, bodyHeight).EnsureVisible(m.selected)
	m.help = m.help.SetSize(m.width, m.height)
	m.logs = m.logs.SetSize(m.width, m.height)
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	view := m.rows.ViewWithSelection(m.selected)
	if m.cfg.UI.ShowHistory {
		view = lipgloss.JoinHorizontal(lipgloss.Top, view, m.history.View())
	}
	if m.cfg.UI.ShowStatusBar {
		view = lipgloss.JoinVertical(lipgloss.Left, view, m.statusBar())
	}

	if m.showHelp {
		view = m.help.Overlay(view)
	}
	if m.logs.Visible() {
		view = m.logs.Overlay(view)
	}
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	return zone.Scan(view)
}

// statusBar shows which of undo and redo is available, the policy and the
// latest status line.
func (m Model) statusBar() string {
	action := func(label string, enabled bool) string {
		if enabled {
			return styles.ActionEnabledStyle.Render(label)
		}
		return styles.ActionDisabledStyle.Render(label)
	}

	parts := []string{
		action("undo", m.manager.CanUndo()),
		action("redo", m.manager.CanRedo()),
		m.manager.Policy().String(),
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.debugMode && m.lastLog != "" {
		parts = append(parts, strings.TrimSpace(m.lastLog))
	}

	inner := max(m.width-2, 0)
	line := styles.TruncateString(strings.Join(parts, " · "), inner)
	return styles.StatusBarStyle.Width(m.width).MaxWidth(m.width).Render(line)
}
