package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	out string
	err error
}

func (s *stubRenderer) Render(content string, width int) (string, error) {
	return s.out, s.err
}

func TestRenderMarkdown_NilRenderer_ReturnsRaw(t *testing.T) {
	result, err := RenderMarkdown("# Title", 80, nil)

	assert.NoError(t, err)
	assert.Equal(t, "# Title", result)
}

func TestRenderMarkdown_TrimsPadding(t *testing.T) {
	renderer := &stubRenderer{out: "\n\n  body  \n\n"}

	result, err := RenderMarkdown("body", 80, renderer)

	assert.NoError(t, err)
	assert.Equal(t, "  body  ", result)
}

func TestRenderMarkdown_PropagatesError(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("render failed")}

	_, err := RenderMarkdown("body", 80, renderer)

	assert.Error(t, err)
}

func TestGlamourRenderer_RendersHeading(t *testing.T) {
	renderer := NewGlamourRenderer()

	result, err := renderer.Render("# Release Notes", 60)

	require.NoError(t, err)
	assert.Contains(t, result, "Release Notes")
}

func TestGlamourRenderer_WidthChangeRebuilds(t *testing.T) {
	renderer := NewGlamourRenderer()

	_, err := renderer.Render("some text", 40)
	require.NoError(t, err)

	result, err := renderer.Render("some text", 100)
	require.NoError(t, err)
	assert.Contains(t, result, "some text")
}

func TestGlamourRenderer_ZeroWidth_Defaults(t *testing.T) {
	renderer := NewGlamourRenderer()

	result, err := renderer.Render("plain", 0)

	require.NoError(t, err)
	assert.Contains(t, result, "plain")
}
