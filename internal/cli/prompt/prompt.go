// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"membank/internal/errors"
)

// Sentinel errors for prompt interactions.
var (
	// ErrNoChoices indicates there was nothing to select from.
	ErrNoChoices = errors.New("no choices to select from")

	// ErrCancelled indicates input ended (e.g. Ctrl+D) before an answer.
	ErrCancelled = errors.New("prompt cancelled")
)

// Prompter handles interactive terminal prompts.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// New creates a Prompter using stdin and stdout.
func New() *Prompter {
	return NewWithIO(os.Stdin, os.Stdout)
}

// NewWithIO creates a Prompter with custom reader and writer for testing.
func NewWithIO(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Choice is one selectable option.
type Choice struct {
	// Label is the short name shown in the numbered list.
	Label string

	// Detail is an optional one-line description.
	Detail string
}

// Select prompts the user to pick one of the choices by number.
//
// Empty input picks the first choice. Ambiguous input (not a number, or out
// of range) re-asks rather than failing, per the interactive contract.
// EOF cancels with ErrCancelled.
func (p *Prompter) Select(title string, choices []Choice) (int, error) {
	if len(choices) == 0 {
		return 0, ErrNoChoices
	}

	fmt.Fprintf(p.writer, "%s\n", title)
	for i, c := range choices {
		if c.Detail != "" {
			fmt.Fprintf(p.writer, "  [%d] %s - %s\n", i+1, c.Label, c.Detail)
		} else {
			fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, c.Label)
		}
	}

	for {
		fmt.Fprintf(p.writer, "Select [1]: ")

		input, err := p.readLine()
		if err != nil {
			return 0, err
		}

		if input == "" {
			return 0, nil
		}

		selection, err := strconv.Atoi(input)
		if err != nil || selection < 1 || selection > len(choices) {
			fmt.Fprintf(p.writer, "Please enter a number between 1 and %d.\n", len(choices))
			continue
		}

		return selection - 1, nil
	}
}

// Confirm asks a yes/no question. The default is no: only an explicit
// "y" or "yes" (case-insensitive) returns true. EOF cancels.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", question)

	input, err := p.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask reads a free-text answer. Empty input returns the fallback.
func (p *Prompter) Ask(question, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(p.writer, "%s [%s]: ", question, fallback)
	} else {
		fmt.Fprintf(p.writer, "%s: ", question)
	}

	input, err := p.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return fallback, nil
	}
	return input, nil
}

func (p *Prompter) readLine() (string, error) {
	input, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			// A final unterminated line still counts as input.
			if trimmed := strings.TrimSpace(input); trimmed != "" {
				return trimmed, nil
			}
			return "", ErrCancelled
		}
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(input), nil
}
