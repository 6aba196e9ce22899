package prompt

import (
	"bytes"
	"strings"
	"testing"

	"membank/internal/errors"
)

var modeChoices = []Choice{
	{Label: "Standard", Detail: "confirm changes to modified stack files"},
	{Label: "Force", Detail: "overwrite stack files without asking"},
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"picks second", "2\n", 1},
		{"picks first", "1\n", 0},
		{"empty defaults to first", "\n", 0},
		{"reasks on garbage", "abc\n2\n", 1},
		{"reasks on out of range", "9\n1\n", 0},
		{"unterminated final line", "2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewWithIO(strings.NewReader(tt.input), &out)

			got, err := p.Select("Choose an update mode:", modeChoices)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if got != tt.want {
				t.Errorf("Select = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelect_RendersChoicesInASCII(t *testing.T) {
	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("1\n"), &out)

	if _, err := p.Select("Choose an update mode:", modeChoices); err != nil {
		t.Fatalf("Select: %v", err)
	}

	rendered := out.String()
	if !strings.Contains(rendered, "[1] Standard - confirm changes to modified stack files") {
		t.Errorf("choice line not rendered as expected:\n%s", rendered)
	}
	for _, r := range rendered {
		if r > 127 {
			t.Errorf("non-ASCII rune %q in prompt output", r)
			break
		}
	}
}

func TestSelect_EOFCancels(t *testing.T) {
	var out bytes.Buffer
	p := NewWithIO(strings.NewReader(""), &out)

	_, err := p.Select("Choose:", modeChoices)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestSelect_NoChoices(t *testing.T) {
	p := NewWithIO(strings.NewReader("1\n"), &bytes.Buffer{})

	_, err := p.Select("Choose:", nil)
	if !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},        // default is no
		{"whatever\n", false}, // anything else is no
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := NewWithIO(strings.NewReader(tt.input), &out)

		got, err := p.Confirm("Apply this change?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("a web app\n"), &out)

	got, err := p.Ask("What are you building?", "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "a web app" {
		t.Errorf("Ask = %q", got)
	}
}

func TestAsk_Fallback(t *testing.T) {
	var out bytes.Buffer
	p := NewWithIO(strings.NewReader("\n"), &out)

	got, err := p.Ask("Remote URL?", "https://example.com")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "https://example.com" {
		t.Errorf("Ask = %q, want fallback", got)
	}
}
