// Package backup provides version-labeled snapshots of a memory bank.
//
// A backup is taken immediately before an update overwrites any system or
// smart-update file, and is the unit of rollback for the restore command.
// User-data files are never part of a backup, so a restore can never
// clobber them.
//
// # Layout
//
// Backups live under the membank config directory:
//
//	<config home>/membank/backups/
//	└── v1.2.0-20260823T101500/
//	    ├── manifest.json
//	    └── files/
//	        ├── CLAUDE.md
//	        ├── rules/...
//	        └── stacks/...
//
// The manifest records the bank version, creation time, and a SHA256 hash
// per file. Hashes are verified before a restore writes anything; a
// corrupted backup fails the restore with [ErrBackupCorrupted] and leaves
// the bank untouched.
//
// # Retention
//
// At most [DefaultRetentionCount] backups are kept. Creating one beyond the
// count prunes the oldest by creation time, so version labels that regress
// cannot confuse the ordering.
package backup
