package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"membank/internal/errors"
)

// testClock returns a clock that advances one second per call, so
// consecutive backups get distinct IDs without sleeping.
func testClock() func() time.Time {
	t := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestBank(t *testing.T, files map[string]string) string {
	t.Helper()
	bank := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(bank, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
	return bank
}

func TestCreate(t *testing.T) {
	bank := newTestBank(t, map[string]string{
		"CLAUDE.md":        "# system",
		"rules/writing.md": "rule",
		"stacks/a/doc.md":  "stack",
	})
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))

	manifest, err := mgr.Create(bank, "1.2.0", []string{
		"CLAUDE.md", "rules/writing.md", "stacks/a/doc.md",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if manifest.BankVersion != "1.2.0" {
		t.Errorf("BankVersion = %q", manifest.BankVersion)
	}
	if len(manifest.Files) != 3 {
		t.Errorf("Files = %d, want 3", len(manifest.Files))
	}
	if manifest.ID == "" || manifest.ID[:7] != "v1.2.0-" {
		t.Errorf("ID = %q, want v1.2.0-<timestamp>", manifest.ID)
	}
}

func TestCreate_SameSecondGetsDistinctIDs(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "x"})

	// A frozen clock forces the timestamp collision.
	frozen := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(func() time.Time { return frozen }))

	first, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md"})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md"})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("both backups got ID %q", first.ID)
	}

	manifests, err := mgr.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(manifests) != 2 {
		t.Errorf("backups = %d, want 2", len(manifests))
	}
}

func TestCreate_SkipsMissingFiles(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "x"})
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))

	manifest, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md", "rules/not-yet.md"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(manifest.Files) != 1 {
		t.Errorf("Files = %d, want 1", len(manifest.Files))
	}
}

func TestCreate_NothingToBackUp(t *testing.T) {
	bank := newTestBank(t, nil)
	dir := t.TempDir()
	mgr := NewManager(WithBackupDir(dir), WithClock(testClock()))

	_, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md"})
	if err == nil {
		t.Fatal("expected error when no files exist")
	}

	// No empty backup directory should remain.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty backup root, found %d entries", len(entries))
	}
}

func TestRetention_FourthCreateEvictsEarliest(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "x"})
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))

	var ids []string
	for _, v := range []string{"1.0.0", "1.0.1", "1.0.2", "1.0.3"} {
		m, err := mgr.Create(bank, v, []string{"CLAUDE.md"})
		if err != nil {
			t.Fatalf("Create %s: %v", v, err)
		}
		ids = append(ids, m.ID)
	}

	manifests, err := mgr.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(manifests) != 3 {
		t.Fatalf("expected exactly 3 backups, got %d", len(manifests))
	}
	for _, m := range manifests {
		if m.ID == ids[0] {
			t.Errorf("earliest backup %s should have been evicted", ids[0])
		}
	}
}

func TestList_NewestFirst(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "x"})
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))

	for _, v := range []string{"1.0.0", "1.1.0"} {
		if _, err := mgr.Create(bank, v, []string{"CLAUDE.md"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	manifests, err := mgr.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if manifests[0].BankVersion != "1.1.0" {
		t.Errorf("newest first expected, got %s", manifests[0].BankVersion)
	}
}

func TestList_Empty(t *testing.T) {
	mgr := NewManager(WithBackupDir(filepath.Join(t.TempDir(), "none")))

	_, err := mgr.List()
	if !errors.Is(err, ErrNoBackupsFound) {
		t.Errorf("expected ErrNoBackupsFound, got %v", err)
	}
}

func TestRestoreLatest(t *testing.T) {
	bank := newTestBank(t, map[string]string{
		"CLAUDE.md":       "original",
		"projectbrief.md": "user data",
	})
	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))

	if _, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Clobber the system file and the user file.
	os.WriteFile(filepath.Join(bank, "CLAUDE.md"), []byte("broken"), 0o644)
	os.WriteFile(filepath.Join(bank, "projectbrief.md"), []byte("user edit"), 0o644)

	if _, err := mgr.RestoreLatest(bank); err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(bank, "CLAUDE.md"))
	if string(got) != "original" {
		t.Errorf("CLAUDE.md = %q, want original", got)
	}

	// User-data files are never part of a backup, so never restored over.
	user, _ := os.ReadFile(filepath.Join(bank, "projectbrief.md"))
	if string(user) != "user edit" {
		t.Errorf("projectbrief.md = %q, restore must not touch user files", user)
	}
}

func TestRestoreLatest_NoBackups_TreeUntouched(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "content"})
	mgr := NewManager(WithBackupDir(filepath.Join(t.TempDir(), "none")))

	before, _ := os.ReadFile(filepath.Join(bank, "CLAUDE.md"))

	_, err := mgr.RestoreLatest(bank)
	if !errors.Is(err, ErrNoBackupsFound) {
		t.Fatalf("expected ErrNoBackupsFound, got %v", err)
	}

	after, _ := os.ReadFile(filepath.Join(bank, "CLAUDE.md"))
	if !bytes.Equal(before, after) {
		t.Error("file tree must be byte-identical after a failed restore")
	}
}

func TestRestore_CorruptedBackup(t *testing.T) {
	bank := newTestBank(t, map[string]string{"CLAUDE.md": "original"})
	backupDir := t.TempDir()
	mgr := NewManager(WithBackupDir(backupDir), WithClock(testClock()))

	manifest, err := mgr.Create(bank, "1.0.0", []string{"CLAUDE.md"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Tamper with the backed up file.
	tampered := filepath.Join(backupDir, manifest.ID, "files", "CLAUDE.md")
	if err := os.WriteFile(tampered, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tampering: %v", err)
	}

	// Modify the bank so we can detect a partial restore.
	os.WriteFile(filepath.Join(bank, "CLAUDE.md"), []byte("current"), 0o644)

	err = mgr.Restore(bank, manifest.ID)
	if !errors.Is(err, ErrBackupCorrupted) {
		t.Fatalf("expected ErrBackupCorrupted, got %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(bank, "CLAUDE.md"))
	if string(got) != "current" {
		t.Error("corrupted backup must not be partially applied")
	}
}

func TestRestore_PreservesPermissions(t *testing.T) {
	bank := newTestBank(t, nil)
	script := filepath.Join(bank, "rules", "hook.md")
	os.MkdirAll(filepath.Dir(script), 0o755)
	if err := os.WriteFile(script, []byte("x"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	mgr := NewManager(WithBackupDir(t.TempDir()), WithClock(testClock()))
	manifest, err := mgr.Create(bank, "1.0.0", []string{"rules/hook.md"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	os.Remove(script)
	if err := mgr.Restore(bank, manifest.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	info, err := os.Stat(script)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}
}

func TestPrune_NegativeKeep(t *testing.T) {
	mgr := NewManager(WithBackupDir(t.TempDir()))
	if err := mgr.Prune(-1); err == nil {
		t.Error("expected error for negative keep")
	}
}
