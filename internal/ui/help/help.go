// Package help contains the help overlay component.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/keys"
	"github.com/zjrosen/tabula/internal/ui/markdown"
	"github.com/zjrosen/tabula/internal/ui/overlay"
	"github.com/zjrosen/tabula/internal/ui/styles"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(styles.OverlayBorderColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondaryColor).
			Width(15)

	descStyle = lipgloss.NewStyle().
			Foreground(styles.TextDescriptionColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.OverlayBorderColor)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			MarginTop(1)
)

const footer = "Press ? or Esc to close"

// policyNotes explains what undo does when the table changed underneath it.
var policyNotes = map[history.Policy]string{
	history.PolicyStrict: "**Policy: strict.** Undo and redo check that the table still " +
		"holds the rows they recorded and refuse with an error otherwise.",
	history.PolicyLenient: "**Policy: lenient.** Undo and redo apply to whatever the table " +
		"holds now; the last writer wins.",
}

// Model holds the help view state.
type Model struct {
	keys     keys.KeyMap
	policy   history.Policy
	renderer *markdown.Renderer
	width    int
	height   int
}

// New creates a help view describing the given history policy. renderer may
// be nil, in which case the policy note is plain wrapped text.
func New(policy history.Policy, renderer *markdown.Renderer) Model {
	return Model{
		keys:     keys.DefaultKeyMap(),
		policy:   policy,
		renderer: renderer,
	}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// SetPolicy updates the policy shown in the help box.
func (m Model) SetPolicy(p history.Policy) Model {
	m.policy = p
	return m
}

// WithRenderer swaps the markdown renderer, e.g. after a style change.
func (m Model) WithRenderer(r *markdown.Renderer) Model {
	m.renderer = r
	return m
}

// View renders the help overlay (standalone, no background).
func (m Model) View() string {
	return m.Overlay("")
}

// Overlay renders the help box on top of a background view.
func (m Model) Overlay(background string) string {
	box := m.renderContent()

	if background == "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, box, background)
}

func (m Model) renderContent() string {
	groups := m.keys.FullHelp()
	names := []string{"Navigation", "Edits", "General"}

	cols := make([]string, 0, len(groups))
	for i, group := range groups {
		var col strings.Builder
		col.WriteString(sectionStyle.Render(names[i]))
		col.WriteString("\n")
		for _, b := range group {
			col.WriteString(renderBinding(b))
		}
		style := lipgloss.NewStyle()
		if i < len(groups)-1 {
			style = style.MarginRight(4)
		}
		cols = append(cols, style.Render(col.String()))
	}
	columns := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	columnsWidth := lipgloss.Width(columns)
	boxWidth := columnsWidth + 4

	note := strings.TrimSpace(markdown.RenderOrWrap(m.renderer, m.policyNote(), columnsWidth))

	body := contentStyle.Render(
		columns + "\n" +
			sectionStyle.Render("History") + "\n" +
			note + "\n" +
			footerStyle.Render(footer),
	)
	divider := dividerStyle.Render(strings.Repeat("─", boxWidth))

	var content strings.Builder
	content.WriteString(titleStyle.Render("Keybindings"))
	content.WriteString("\n")
	content.WriteString(divider)
	content.WriteString("\n")
	content.WriteString(body)

	return boxStyle.Width(boxWidth).Render(content.String())
}

func (m Model) policyNote() string {
	if note, ok := policyNotes[m.policy]; ok {
		return note
	}
	return fmt.Sprintf("**Policy: %s.**", m.policy)
}

func renderBinding(b key.Binding) string {
	h := b.Help()
	return keyStyle.Render(h.Key) + descStyle.Render(h.Desc) + "\n"
}
