// Package errors provides error handling conventions for the membank CLI.
//
// It re-exports the wrapping and inspection helpers from
// github.com/cockroachdb/errors so callers use a single import, and adds
// an ExitError type carrying a Unix exit code and an optional user-facing
// suggestion.
//
// Sentinel errors are checked with [Is]:
//
//	if errors.Is(err, errors.ErrInvalidConfig) {
//	    // handle invalid configuration
//	}
//
// Exit codes follow standard conventions: ExitSuccess (0), ExitUser (1) for
// invalid input or configuration, ExitSystem (2) for I/O and network failures.
package errors
