package commands

import (
	"path/filepath"

	"membank/cmd/membank/commands/flags"
	"membank/internal/backup"
	"membank/internal/errors"
	"membank/internal/paths"
	"membank/internal/project"
	"membank/internal/remote"
	"membank/internal/state"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// resolveBankDir applies flag > config > working directory precedence and
// returns an absolute bank directory.
func resolveBankDir() (string, error) {
	dir, err := paths.ResolveBankDir(flags.GetBankDir())
	if err != nil {
		return "", errors.Wrap(err, "resolving bank directory")
	}
	return dir, nil
}

// newBackupManager builds the backup manager with the configured retention.
func newBackupManager() *backup.Manager {
	return backup.NewManager(backup.WithRetentionCount(flags.GetRetention()))
}

// openState opens the persistent state store, creating its directory on
// first use. Callers own the returned store and must Close it.
func openState() (*state.Store, error) {
	dbPath := paths.StateDBPath()
	if err := paths.EnsureDir(filepath.Dir(dbPath), 0); err != nil {
		return nil, errors.Wrap(err, "creating state directory")
	}
	return state.New(dbPath)
}

// releaseClient builds the remote client for a bank. A remote override in
// the bank's marker wins over the configured base URL.
func releaseClient(marker *project.Marker) *remote.Client {
	base := flags.GetRemote()
	if marker != nil && marker.Remote != "" {
		base = marker.Remote
	}
	return remote.NewClient(remote.WithBaseURL(base))
}

// loadMarker loads the bank's version marker, converting a missing marker
// into an actionable user error.
func loadMarker(bankDir string) (*project.Marker, error) {
	marker, _, err := project.Load(bankDir)
	if err != nil {
		if errors.Is(err, project.ErrNoMarker) {
			return nil, errors.NewUserError(err,
				"Not a memory bank directory (no membank.toml). Use --bank to point at one.")
		}
		return nil, err
	}
	return marker, nil
}
