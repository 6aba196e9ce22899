// Package render formats Markdown for terminal display.
package render

import (
	"io"

	"github.com/charmbracelet/glamour"

	"membank/internal/logging"
)

const defaultWidth = 100

// Markdown renders a Markdown document for the given writer.
// On a TTY the document is styled with glamour; otherwise the raw
// Markdown is returned unchanged so output stays pipe-friendly.
func Markdown(w io.Writer, doc string) string {
	if !logging.IsTTY(w) {
		return doc
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWidth),
	)
	if err != nil {
		return doc
	}

	out, err := renderer.Render(doc)
	if err != nil {
		return doc
	}
	return out
}
