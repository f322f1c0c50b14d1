// Package render converts agent replies into HTML for the web front-end.
package render

import (
	"bytes"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in a reply is dropped, so replies can be inserted into the page
// as they are.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown renders GitHub flavored markdown. Fenced code blocks get a
// "language-<lang>" class for client side highlighting.
func Markdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", goerr.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}
