// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (backup).
package flags

// bankDir holds the effective bank directory (flag value, falling back to
// the configured one). Empty means the working directory.
var bankDir string

// retention holds the configured backup retention count.
var retention int

// remote holds the configured release base URL.
var remote string

// GetBankDir returns the effective bank directory.
func GetBankDir() string {
	return bankDir
}

// SetBankDir records the effective bank directory after flag and config
// parsing. Also used by tests.
func SetBankDir(dir string) {
	bankDir = dir
}

// GetRetention returns the configured backup retention count.
// Zero means use the built-in default.
func GetRetention() int {
	return retention
}

// SetRetention records the configured retention count.
func SetRetention(n int) {
	retention = n
}

// GetRemote returns the configured release base URL.
func GetRemote() string {
	return remote
}

// SetRemote records the configured release base URL.
func SetRemote(url string) {
	remote = url
}
