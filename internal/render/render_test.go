package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdown_NonTTYPassthrough(t *testing.T) {
	var buf bytes.Buffer
	doc := "# Release notes\n\n- fixed things\n"

	got := Markdown(&buf, doc)
	if got != doc {
		t.Errorf("non-TTY output should be the raw document, got %q", got)
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("non-TTY output must not contain ANSI escapes")
	}
}
