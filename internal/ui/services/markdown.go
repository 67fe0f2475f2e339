package services

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown for a terminal of the given width.
type MarkdownRenderer interface {
	Render(content string, width int) (string, error)
}

// GlamourRenderer implements MarkdownRenderer with glamour. The underlying
// renderer is wrap-width specific, so it is rebuilt when the window
// resizes.
type GlamourRenderer struct {
	mu    sync.Mutex
	width int
	inner *glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer with the terminal's detected style.
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{}
}

// Render renders markdown wrapped to width.
func (g *GlamourRenderer) Render(content string, width int) (string, error) {
	if width < 1 {
		width = 80
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inner == nil || g.width != width {
		inner, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		g.inner = inner
		g.width = width
	}
	return g.inner.Render(content)
}

// RenderMarkdown renders through the given renderer, falling back to the
// raw content when no renderer is configured. Glamour pads output with
// blank lines; the transcript supplies its own spacing.
func RenderMarkdown(content string, width int, renderer MarkdownRenderer) (string, error) {
	if renderer == nil {
		return content, nil
	}
	rendered, err := renderer.Render(content, width)
	if err != nil {
		return "", err
	}
	return strings.Trim(rendered, "\n"), nil
}
