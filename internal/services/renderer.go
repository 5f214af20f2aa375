package services

import (
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

// Renderer turns a raw comment body into HTML for display.
type Renderer interface {
	Render(body string) string
}

type markdownRenderer struct {
	md *markdown.Markdown
}

// NewMarkdownRenderer renders CommonMark with raw HTML disabled, so user
// supplied tags come out escaped.
func NewMarkdownRenderer() Renderer {
	return &markdownRenderer{md: markdown.New(
		markdown.HTML(false),
		markdown.XHTMLOutput(true),
		markdown.Breaks(true),
	)}
}

func (r *markdownRenderer) Render(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return strings.TrimSpace(r.md.RenderToString([]byte(body)))
}
