package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"membank/internal/errors"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "membank"

// Well-known file and directory names inside a memory bank.
const (
	// MarkerFile is the local version marker at the bank root.
	MarkerFile = "membank.toml"

	// StacksDir holds stack guidance documents (smart-update files).
	StacksDir = "stacks"

	// RulesDir holds assistant rule files (system files).
	RulesDir = "rules"

	// TemplatesDir holds document templates (system files).
	TemplatesDir = "templates"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
func DataHome() string {
	return xdg.DataHome
}

// ConfigDir returns the membank configuration directory.
// Returns <XDG config home>/membank
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// BackupDir returns the root directory for bank backups.
// Returns <XDG config home>/membank/backups
func BackupDir() string {
	return filepath.Join(ConfigDir(), "backups")
}

// StateDBPath returns the path of the sqlite state database.
// Returns <XDG data home>/membank/state.db
func StateDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "state.db")
}

// ResolveBankDir resolves a memory bank directory argument to an absolute path.
// An empty argument resolves to the current working directory.
func ResolveBankDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "resolving working directory")
		}
		return wd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", dir, err)
	}
	return abs, nil
}

// MarkerPath returns the path of the version marker inside a bank directory.
func MarkerPath(bankDir string) string {
	return filepath.Join(bankDir, MarkerFile)
}
