// Package markdown renders help text and other markdown for the TUI.
package markdown

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/tabula/internal/log"
)

// noMarginStyle removes glamour's document margins so overlays line up.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps glamour with tabula's configuration.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// New creates a markdown renderer with the given width and style.
// style is "dark" or "light"; empty means dark. A fixed style is used instead
// of auto detection, which queries the terminal and leaks the reply into the
// input stream.
func New(width int, style string) (*Renderer, error) {
	if style == "" {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &Renderer{renderer: r, width: width}, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.renderer.Render(markdown)
}

// RenderOrWrap renders markdown, falling back to plain word-wrapped text
// when r is nil or glamour fails.
func RenderOrWrap(r *Renderer, markdown string, width int) string {
	if r != nil {
		out, err := r.Render(markdown)
		if err == nil {
			return out
		}
		log.ErrorErr(log.CatUI, "Markdown render failed", err)
	}
	return wordwrap.String(markdown, width)
}
