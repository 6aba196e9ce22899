package backup

import (
	"io/fs"
	"time"

	"membank/internal/errors"
)

// ManifestVersion is the manifest format version for forward compatibility.
const ManifestVersion = 1

// DefaultRetentionCount is the number of backups retained per bank.
// Creating a backup beyond this count prunes the oldest.
const DefaultRetentionCount = 3

// Sentinel errors for backup operations.
var (
	// ErrNoBackupsFound indicates no backups exist for the bank.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupCorrupted indicates backup file integrity verification failed.
	// This occurs when a file's SHA256 hash doesn't match the manifest.
	ErrBackupCorrupted = errors.New("backup corrupted")
)

// Manifest contains metadata about a backup.
// It is stored as manifest.json in each backup directory.
type Manifest struct {
	// Version is the manifest format version for forward compatibility.
	Version int `json:"version"`

	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// BankVersion is the memory bank version at the time of the backup.
	BankVersion string `json:"bank_version"`

	// Files contains metadata for each backed up file.
	Files []File `json:"files"`

	// ID is the backup identifier (e.g. "v1.2.0-20260823T101500").
	// This field is populated when loading from disk but not stored in JSON.
	ID string `json:"-"`
}

// File contains metadata for a single backed up file.
type File struct {
	// RelPath is the slash-separated path relative to the bank root.
	// The same path is used under the backup's files/ directory.
	RelPath string `json:"rel_path"`

	// SHA256Hash is the hex-encoded SHA256 hash of the file contents.
	SHA256Hash string `json:"sha256_hash"`

	// Mode is the file's permission bits.
	Mode fs.FileMode `json:"mode"`
}
