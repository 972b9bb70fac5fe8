// Package historypanel renders the undo/redo stacks next to the table.
package historypanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/ui/shared/panes"
	"github.com/zjrosen/tabula/internal/ui/styles"
)

// Marker separates applied commands from undone ones.
const Marker = "── now ──"

var (
	pastStyle   = lipgloss.NewStyle().Foreground(styles.HistoryPastColor)
	futureStyle = lipgloss.NewStyle().Foreground(styles.HistoryFutureColor).Italic(true)
	markerStyle = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
)

// Model shows past commands oldest first, the current position, then undone
// commands with the next redo first.
type Model struct {
	past     []history.Entry
	future   []history.Entry
	policy   history.Policy
	width    int
	height   int
	viewport viewport.Model
}

// New creates an empty history panel.
func New(policy history.Policy) Model {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return Model{policy: policy, viewport: vp}
}

// SetEntries replaces both stacks. future is in Manager.Future order.
func (m Model) SetEntries(past, future []history.Entry) Model {
	m.past = past
	m.future = future
	m.sync()
	return m
}

// SetPolicy updates the policy shown in the footer.
func (m Model) SetPolicy(p history.Policy) Model {
	m.policy = p
	return m
}

// SetSize sets the outer dimensions, border included.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-2, 0)
	m.viewport.Height = max(height-2, 0)
	m.sync()
	return m
}

// Update scrolls the panel on mouse wheel and viewport keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	return panes.BorderedPane(panes.BorderConfig{
		Content:     m.viewport.View(),
		Width:       m.width,
		Height:      m.height,
		TopLeft:     "History",
		TopRight:    fmt.Sprintf("%d/%d", len(m.past), len(m.past)+len(m.future)),
		BottomLeft:  m.policy.String(),
		BorderColor: styles.BorderDefaultColor,
	})
}

// sync rebuilds the viewport content and scrolls the marker into view.
func (m *Model) sync() {
	lines, marker := m.lines()
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.SetYOffset(marker - m.viewport.Height/2)
}

// lines returns the rendered lines and the index of the marker line.
func (m Model) lines() ([]string, int) {
	width := max(m.width-2, 1)
	lines := make([]string, 0, len(m.past)+len(m.future)+1)
	for i, e := range m.past {
		lines = append(lines, pastStyle.Render(entryLine(i+1, e, width)))
	}
	marker := len(lines)
	lines = append(lines, markerStyle.Render(Marker))
	for i := len(m.future) - 1; i >= 0; i-- {
		n := len(m.past) + len(m.future) - i
		lines = append(lines, futureStyle.Render(entryLine(n, m.future[i], width)))
	}
	return lines, marker
}

func entryLine(n int, e history.Entry, width int) string {
	return styles.TruncateString(fmt.Sprintf("%2d %s", n, e.Description), width)
}
