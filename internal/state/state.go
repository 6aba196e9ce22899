// Package state persists membank's update bookkeeping in SQLite.
//
// Two things are tracked: the checksum of every smart-update file as last
// applied by an update (the "unmodified since last update" test), and a
// history of applied updates backing the history command.
package state

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"membank/internal/errors"
)

// Store provides SQLite-backed state for membank.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the state database at the given path and ensures
// the schema exists. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening state database")
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling WAL mode")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Checksum is the recorded hash of a smart-update file as last applied.
type Checksum struct {
	RelPath     string
	SHA256      string
	BankVersion string
	UpdatedAt   time.Time
}

// RecordChecksum stores or replaces the applied checksum for a file.
func (s *Store) RecordChecksum(relPath, sha256, bankVersion string) error {
	query := `
		INSERT OR REPLACE INTO checksums (rel_path, sha256, bank_version, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, relPath, sha256, bankVersion, time.Now().UTC().Format(time.RFC3339))
	return errors.Wrapf(err, "recording checksum for %s", relPath)
}

// GetChecksum returns the recorded checksum for a file, or ok=false when
// the file has never been applied by an update.
func (s *Store) GetChecksum(relPath string) (Checksum, bool, error) {
	query := `
		SELECT rel_path, sha256, bank_version, updated_at
		FROM checksums WHERE rel_path = ?
	`

	var c Checksum
	var updatedAt string
	err := s.db.QueryRow(query, relPath).Scan(&c.RelPath, &c.SHA256, &c.BankVersion, &updatedAt)
	if err == sql.ErrNoRows {
		return Checksum{}, false, nil
	}
	if err != nil {
		return Checksum{}, false, errors.Wrapf(err, "looking up checksum for %s", relPath)
	}

	c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Checksum{}, false, errors.Wrapf(err, "parsing updated_at for %s", relPath)
	}

	return c, true, nil
}

// Update is one applied update in the history.
type Update struct {
	ID           int64
	FromVersion  string
	ToVersion    string
	Mode         string
	FileCount    int
	SkippedCount int
	AppliedAt    time.Time
}

// RecordUpdate appends an applied update to the history.
func (s *Store) RecordUpdate(u Update) error {
	query := `
		INSERT INTO updates (from_version, to_version, mode, file_count, skipped_count, applied_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		u.FromVersion, u.ToVersion, u.Mode, u.FileCount, u.SkippedCount,
		u.AppliedAt.UTC().Format(time.RFC3339))
	return errors.Wrap(err, "recording update")
}

// ListUpdates returns the update history, newest first.
func (s *Store) ListUpdates() ([]Update, error) {
	query := `
		SELECT id, from_version, to_version, mode, file_count, skipped_count, applied_at
		FROM updates ORDER BY applied_at DESC, id DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "querying update history")
	}
	defer rows.Close()

	var updates []Update
	for rows.Next() {
		var u Update
		var appliedAt string
		if err := rows.Scan(&u.ID, &u.FromVersion, &u.ToVersion, &u.Mode,
			&u.FileCount, &u.SkippedCount, &appliedAt); err != nil {
			return nil, errors.Wrap(err, "scanning update row")
		}
		u.AppliedAt, err = time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			return nil, errors.Wrap(err, "parsing applied_at")
		}
		updates = append(updates, u)
	}

	return updates, errors.Wrap(rows.Err(), "iterating update history")
}
