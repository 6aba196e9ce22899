package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"membank/internal/errors"
	"membank/internal/paths"
	"membank/pkg/fileutil"
)

// Manager handles backup creation, restoration, and retention for a
// memory bank. Each backup is a directory named by its ID containing a
// manifest.json and a files/ tree mirroring the bank layout.
type Manager struct {
	rootDir        string
	retentionCount int
	now            func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackupDir sets the root backup directory.
func WithBackupDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithRetentionCount sets the number of backups to retain.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// WithClock substitutes the time source, for tests that need distinct
// backup timestamps without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a backup Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:        paths.BackupDir(),
		retentionCount: DefaultRetentionCount,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create backs up the given bank files (paths relative to bankDir) into a
// new backup labeled with the bank version. After a successful create,
// backups beyond the retention count are pruned oldest-first.
//
// The relPaths are the AlwaysUpdate and SmartUpdate files of the bank;
// never-update files are not part of a backup.
func (m *Manager) Create(bankDir, bankVersion string, relPaths []string) (*Manifest, error) {
	if bankVersion == "" {
		return nil, errors.New("bank version is required")
	}
	if len(relPaths) == 0 {
		return nil, errors.New("no files to back up")
	}

	base := "v" + bankVersion + "-" + m.now().UTC().Format("20060102T150405")
	backupID := base
	backupPath := filepath.Join(m.rootDir, backupID)

	// Two creates in the same second must not share a directory.
	for n := 2; ; n++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupID = fmt.Sprintf("%s-%d", base, n)
		backupPath = filepath.Join(m.rootDir, backupID)
	}

	filesDir := filepath.Join(backupPath, "files")

	if err := paths.EnsureDir(filesDir, 0); err != nil {
		return nil, errors.Wrap(err, "creating backup directory")
	}

	var files []File
	for _, rel := range relPaths {
		src := filepath.Join(bankDir, filepath.FromSlash(rel))

		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				// A file listed in the release may not exist locally yet.
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", rel)
		}
		if info.IsDir() {
			continue
		}

		dst := filepath.Join(filesDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating parent directory")
		}

		hash, mode, err := copyFile(src, dst)
		if err != nil {
			return nil, errors.Wrapf(err, "backing up %s", rel)
		}

		files = append(files, File{
			RelPath:    rel,
			SHA256Hash: hash,
			Mode:       mode,
		})
	}

	if len(files) == 0 {
		os.RemoveAll(backupPath)
		return nil, errors.New("no files to back up")
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   m.now().UTC(),
		BankVersion: bankVersion,
		Files:       files,
		ID:          backupID,
	}

	manifestPath := filepath.Join(backupPath, "manifest.json")
	if err := fileutil.AtomicWriteJSON(manifestPath, manifest); err != nil {
		return nil, errors.Wrap(err, "writing manifest")
	}

	if err := m.Prune(m.retentionCount); err != nil {
		return nil, errors.Wrap(err, "pruning old backups")
	}

	return manifest, nil
}

// List returns all available backups, sorted by creation time (newest first).
func (m *Manager) List() ([]Manifest, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(entry.Name())
		if err != nil {
			// Skip invalid backup directories
			continue
		}
		manifests = append(manifests, *manifest)
	}

	if len(manifests) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return manifests, nil
}

// Get returns the manifest for a specific backup.
func (m *Manager) Get(backupID string) (*Manifest, error) {
	if backupID == "" {
		return nil, errors.New("backup ID is required")
	}

	manifestPath := filepath.Join(m.rootDir, backupID, "manifest.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoBackupsFound, "backup %s not found", backupID)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}

	manifest.ID = backupID
	return &manifest, nil
}

// Restore copies a backup's files back over the bank.
// Files not present in the backup (the user-data files) are never touched.
// Integrity of every backup file is verified before anything is written,
// so a corrupted backup leaves the bank untouched.
func (m *Manager) Restore(bankDir, backupID string) error {
	manifest, err := m.Get(backupID)
	if err != nil {
		return err
	}

	filesDir := filepath.Join(m.rootDir, backupID, "files")

	// Verify everything first; a partial restore over a live bank is
	// worse than failing outright.
	for _, bf := range manifest.Files {
		src := filepath.Join(filesDir, filepath.FromSlash(bf.RelPath))
		hash, err := hashFile(src)
		if err != nil {
			return errors.Wrapf(err, "reading backup file %s", bf.RelPath)
		}
		if hash != bf.SHA256Hash {
			return errors.Wrapf(ErrBackupCorrupted, "file %s hash mismatch", bf.RelPath)
		}
	}

	for _, bf := range manifest.Files {
		src := filepath.Join(filesDir, filepath.FromSlash(bf.RelPath))
		dst := filepath.Join(bankDir, filepath.FromSlash(bf.RelPath))

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", bf.RelPath)
		}
		if _, _, err := copyFile(src, dst); err != nil {
			return errors.Wrapf(err, "restoring %s", bf.RelPath)
		}
		if err := os.Chmod(dst, bf.Mode); err != nil {
			return errors.Wrapf(err, "setting permissions for %s", bf.RelPath)
		}
	}

	return nil
}

// RestoreLatest restores the most recently created backup.
// Returns ErrNoBackupsFound, with no files touched, when no backup exists.
func (m *Manager) RestoreLatest(bankDir string) (*Manifest, error) {
	manifests, err := m.List()
	if err != nil {
		return nil, err
	}

	latest := manifests[0]
	if err := m.Restore(bankDir, latest.ID); err != nil {
		return nil, err
	}
	return &latest, nil
}

// Prune removes old backups beyond the given count, oldest first.
func (m *Manager) Prune(keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	manifests, err := m.List()
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil // Nothing to prune
		}
		return err
	}

	// Already sorted newest first, delete everything beyond 'keep'
	for i := keep; i < len(manifests); i++ {
		backupPath := filepath.Join(m.rootDir, manifests[i].ID)
		if err := os.RemoveAll(backupPath); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
	}

	return nil
}

// hashFile computes the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies a file from src to dst, returning the SHA256 hash and mode.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating destination file")
	}

	// Compute hash while copying
	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	if _, err := io.Copy(w, srcFile); err != nil {
		dstFile.Close()
		return "", 0, errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		return "", 0, errors.Wrap(err, "closing destination file")
	}

	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}

	return hex.EncodeToString(h.Sum(nil)), mode, nil
}
