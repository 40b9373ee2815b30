package utils

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldhtml.WithHardWraps(),
		goldhtml.WithXHTML(),
	),
)

// RenderMarkdown converts markdown to sanitized HTML. Tables are enabled.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(source), &buf); err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}
