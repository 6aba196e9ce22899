package state

const schema = `
CREATE TABLE IF NOT EXISTS checksums (
    rel_path TEXT PRIMARY KEY,
    sha256 TEXT NOT NULL,
    bank_version TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS updates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_version TEXT NOT NULL,
    to_version TEXT NOT NULL,
    mode TEXT NOT NULL,
    file_count INTEGER NOT NULL,
    skipped_count INTEGER NOT NULL DEFAULT 0,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_updates_applied ON updates(applied_at);
`
