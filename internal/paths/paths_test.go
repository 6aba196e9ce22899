package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("first EnsureDir: %v", err)
	}
	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("second EnsureDir: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != DefaultDirPerm {
		t.Errorf("perm = %o, want %o", info.Mode().Perm(), DefaultDirPerm)
	}
}

func TestResolveBankDir_Empty(t *testing.T) {
	got, err := ResolveBankDir("")
	if err != nil {
		t.Fatalf("ResolveBankDir: %v", err)
	}
	wd, _ := os.Getwd()
	if got != wd {
		t.Errorf("got %q, want working directory %q", got, wd)
	}
}

func TestResolveBankDir_Relative(t *testing.T) {
	got, err := ResolveBankDir("some/bank")
	if err != nil {
		t.Fatalf("ResolveBankDir: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}
	if !strings.HasSuffix(got, filepath.Join("some", "bank")) {
		t.Errorf("unexpected resolution: %q", got)
	}
}

func TestBackupDir_UnderConfigDir(t *testing.T) {
	if !strings.HasPrefix(BackupDir(), ConfigDir()) {
		t.Errorf("BackupDir %q should live under ConfigDir %q", BackupDir(), ConfigDir())
	}
}

func TestMarkerPath(t *testing.T) {
	got := MarkerPath("/tmp/bank")
	want := filepath.Join("/tmp/bank", MarkerFile)
	if got != want {
		t.Errorf("MarkerPath = %q, want %q", got, want)
	}
}
