// Package project reads and writes the local version marker of a memory bank.
//
// The marker is a membank.toml file at the bank root recording the installed
// release version and, optionally, a remote base URL override for banks
// published from a fork.
package project

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"membank/internal/errors"
	"membank/internal/paths"
	"membank/internal/version"
	"membank/pkg/fileutil"
)

// ErrNoMarker indicates the bank has no membank.toml version marker.
var ErrNoMarker = errors.New("no version marker found")

// Marker is the persisted form of membank.toml.
type Marker struct {
	// Version is the installed release version as a dotted triple.
	Version string `toml:"version"`

	// Remote optionally overrides the release base URL for this bank.
	Remote string `toml:"remote,omitempty"`
}

// Load reads the marker from a bank directory.
// Returns ErrNoMarker if the file does not exist, and a version parse error
// if the recorded version is not a valid triple. Callers must not proceed
// with an update on either failure.
func Load(bankDir string) (*Marker, version.Version, error) {
	data, err := os.ReadFile(paths.MarkerPath(bankDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, version.Version{}, errors.Wrapf(ErrNoMarker, "in %s", bankDir)
		}
		return nil, version.Version{}, errors.Wrap(err, "reading version marker")
	}

	var m Marker
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, version.Version{}, errors.Wrap(err, "parsing version marker")
	}

	v, err := version.Parse(m.Version)
	if err != nil {
		return nil, version.Version{}, errors.Wrapf(err, "version marker in %s", bankDir)
	}

	return &m, v, nil
}

// Save writes the marker to a bank directory atomically.
func Save(bankDir string, m *Marker) error {
	if _, err := version.Parse(m.Version); err != nil {
		return errors.Wrap(err, "refusing to write marker")
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling version marker")
	}

	return errors.Wrap(
		fileutil.AtomicWriteFile(paths.MarkerPath(bankDir), data, 0o644),
		"writing version marker",
	)
}

// Bump updates the recorded version, preserving other marker fields.
func Bump(bankDir string, to version.Version) error {
	m, _, err := Load(bankDir)
	if err != nil {
		if !errors.Is(err, ErrNoMarker) {
			return err
		}
		m = &Marker{}
	}
	m.Version = to.String()
	return Save(bankDir, m)
}
