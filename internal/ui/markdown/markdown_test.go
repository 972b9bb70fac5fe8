package markdown

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, 80, r.Width())
}

func TestNew_LightStyle(t *testing.T) {
	r, err := New(40, "light")
	require.NoError(t, err)
	require.Equal(t, 40, r.Width())
}

func TestRenderer_Render_Heading(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)

	result, err := r.Render("# Title\n\nContent")
	require.NoError(t, err)

	stripped := ansi.Strip(result)
	require.Contains(t, stripped, "Title")
	require.Contains(t, stripped, "Content")
}

func TestRenderer_Render_List(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)

	result, err := r.Render("- Item 1\n- Item 2\n- Item 3")
	require.NoError(t, err)

	// glamour inserts codes between characters
	stripped := ansi.Strip(result)
	require.Contains(t, stripped, "Item 1")
	require.Contains(t, stripped, "Item 3")
}

func TestRenderer_Render_EmptyString(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)

	result, err := r.Render("")
	require.NoError(t, err)
	require.Empty(t, strings.TrimSpace(ansi.Strip(result)))
}

func TestRenderOrWrap_Renders(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)

	out := RenderOrWrap(r, "Some **bold** words", 80)
	require.Contains(t, ansi.Strip(out), "bold")
	require.NotContains(t, out, "**")
}

func TestRenderOrWrap_NilRendererWraps(t *testing.T) {
	out := RenderOrWrap(nil, "one two three four", 9)

	require.Equal(t, "one two\nthree\nfour", out)
}
