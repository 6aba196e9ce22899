// Package main is the entry point for the membank CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"membank/cmd/membank/commands"
	"membank/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))

		var exitErr *errors.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Suggestion != "" {
				fmt.Fprintln(os.Stderr, exitErr.Suggestion)
			}
			os.Exit(exitErr.Code)
		}
		os.Exit(errors.ExitUser)
	}
}
