package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()
	require.Equal(t, "", r.Render("  \n"))

	out := r.Render("Use `each_with_object`\nhere.\n\n<b>bold?</b>")
	require.Contains(t, out, "<code>each_with_object</code>")
	require.Contains(t, out, "<br />")
	require.Contains(t, out, "&lt;b&gt;")
	require.NotContains(t, out, "<b>")
}
