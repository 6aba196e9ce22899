package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membank/internal/backup"
	"membank/internal/classify"
	"membank/internal/errors"
	"membank/internal/logging"
	"membank/internal/project"
	"membank/internal/remote"
	"membank/internal/state"
	"membank/internal/version"
	"membank/pkg/fileutil"
)

type fakeSource struct {
	manifest    *remote.Manifest
	manifestErr error
	files       map[string][]byte
	version     string
}

func (f *fakeSource) FetchManifest(_ context.Context) (*remote.Manifest, error) {
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	return f.manifest, nil
}

func (f *fakeSource) FetchFile(_ context.Context, relPath string) ([]byte, error) {
	data, ok := f.files[relPath]
	if !ok {
		return nil, errors.Newf("no such release file %s", relPath)
	}
	return data, nil
}

func (f *fakeSource) FetchVersion(_ context.Context) (version.Version, error) {
	if f.version == "" {
		return version.Version{}, remote.ErrUnavailable
	}
	return version.Parse(f.version)
}

// newRelease builds a source whose manifest checksums match its files.
func newRelease(v string, files map[string][]byte) *fakeSource {
	m := &remote.Manifest{Version: v}
	for path, data := range files {
		sum := sha256.Sum256(data)
		m.Files = append(m.Files, remote.ManifestFile{
			Path:   path,
			SHA256: hex.EncodeToString(sum[:]),
		})
	}
	return &fakeSource{manifest: m, files: files}
}

type fakeUI struct {
	mode     Mode
	confirm  map[string]bool
	prompted []string
}

func (f *fakeUI) ChooseMode(version.Delta) (Mode, error) {
	return f.mode, nil
}

func (f *fakeUI) ConfirmOverwrite(relPath, diff string) (bool, error) {
	f.prompted = append(f.prompted, relPath)
	return f.confirm[relPath], nil
}

func newTestBank(t *testing.T, markerVersion string, files map[string]string) string {
	t.Helper()
	bankDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(bankDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, project.Save(bankDir, &project.Marker{Version: markerVersion}))
	return bankDir
}

func newTestEngine(t *testing.T, bankDir string, src Source, ui Interaction) (*Engine, *state.Store) {
	t.Helper()

	store, err := state.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng, err := New(Config{
		BankDir: bankDir,
		Rules:   classify.DefaultRules,
		Backups: backup.NewManager(backup.WithBackupDir(t.TempDir())),
		State:   store,
		Source:  src,
		UI:      ui,
		Logger:  logging.ForTest(t),
	})
	require.NoError(t, err)
	return eng, store
}

func readBank(t *testing.T, bankDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(bankDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCheck(t *testing.T) {
	bankDir := newTestBank(t, "1.2.0", map[string]string{"CLAUDE.md": "old"})
	src := newRelease("1.3.0", map[string][]byte{"CLAUDE.md": []byte("new")})
	src.manifest.Notes = "notes here"

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{})
	res, err := eng.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", res.Current.String())
	assert.Equal(t, "1.3.0", res.Remote.String())
	assert.Equal(t, version.DeltaMinor, res.Delta)
	assert.Equal(t, "notes here", res.Notes)
}

func TestCheck_FallsBackWithoutManifest(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", nil)
	src := &fakeSource{manifestErr: remote.ErrUnavailable, version: "2.0.0"}

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{})
	res, err := eng.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, version.DeltaMajor, res.Delta)
	assert.Nil(t, res.Manifest)
}

func TestCheck_NoMarker(t *testing.T) {
	eng, _ := newTestEngine(t, t.TempDir(),
		newRelease("1.0.0", nil), &fakeUI{})

	_, err := eng.Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, project.ErrNoMarker))
	assert.Equal(t, PhaseFailed, eng.Phase())
}

func TestApply_UpToDate(t *testing.T) {
	bankDir := newTestBank(t, "1.3.0", map[string]string{"CLAUDE.md": "current"})
	src := newRelease("1.3.0", map[string][]byte{"CLAUDE.md": []byte("current")})

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{})
	_, err := eng.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpToDate))
	assert.Equal(t, PhaseDone, eng.Phase())
}

func TestApply_RemoteOlderIsUpToDate(t *testing.T) {
	bankDir := newTestBank(t, "2.0.0", map[string]string{"CLAUDE.md": "current"})
	src := newRelease("1.9.9", map[string][]byte{"CLAUDE.md": []byte("older")})

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{})
	_, err := eng.Apply(context.Background())
	assert.True(t, errors.Is(err, ErrUpToDate))
	assert.Equal(t, "current", readBank(t, bankDir, "CLAUDE.md"))
}

func TestApply_StandardFlow(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"projectbrief.md":         "my brief",
		"CLAUDE.md":               "old system, locally edited",
		"rules/style.md":          "old rule",
		"stacks/web/nextjs.md":    "stack doc as shipped",
		"stacks/auth/clerk.md":    "stack doc with my edits",
		"stacks/extra/mine.md":    "purely local stack note",
	})

	release := map[string][]byte{
		"projectbrief.md":      []byte("template brief"),
		"CLAUDE.md":            []byte("new system"),
		"rules/style.md":       []byte("new rule"),
		"stacks/web/nextjs.md": []byte("updated nextjs doc"),
		"stacks/auth/clerk.md": []byte("updated clerk doc"),
		"stacks/db/drizzle.md": []byte("brand new doc"),
	}
	src := newRelease("1.1.0", release)

	ui := &fakeUI{mode: ModeStandard, confirm: map[string]bool{
		"stacks/auth/clerk.md": false,
	}}
	eng, store := newTestEngine(t, bankDir, src, ui)

	// The nextjs doc is unmodified since the last update.
	shippedSum := sha256.Sum256([]byte("stack doc as shipped"))
	require.NoError(t, store.RecordChecksum(
		"stacks/web/nextjs.md", hex.EncodeToString(shippedSum[:]), "1.0.0"))

	res, err := eng.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, eng.Phase())

	// User-data files are untouched even though the release ships them.
	assert.Equal(t, "my brief", readBank(t, bankDir, "projectbrief.md"))

	// System files are overwritten despite local edits.
	assert.Equal(t, "new system", readBank(t, bankDir, "CLAUDE.md"))
	assert.Equal(t, "new rule", readBank(t, bankDir, "rules/style.md"))

	// Unmodified smart file replaced without prompting.
	assert.Equal(t, "updated nextjs doc", readBank(t, bankDir, "stacks/web/nextjs.md"))
	assert.NotContains(t, ui.prompted, "stacks/web/nextjs.md")

	// Modified smart file prompted and declined: kept.
	assert.Contains(t, ui.prompted, "stacks/auth/clerk.md")
	assert.Equal(t, "stack doc with my edits", readBank(t, bankDir, "stacks/auth/clerk.md"))
	assert.Contains(t, res.Skipped, "stacks/auth/clerk.md")

	// New smart file created without prompting.
	assert.Equal(t, "brand new doc", readBank(t, bankDir, "stacks/db/drizzle.md"))

	// Local-only files survive.
	assert.Equal(t, "purely local stack note", readBank(t, bankDir, "stacks/extra/mine.md"))

	// Marker bumped.
	_, v, err := project.Load(bankDir)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())

	// Backup exists and covers the replaceable files.
	require.NotEmpty(t, res.BackupID)

	// Checksums recorded for applied smart files, not the skipped one.
	c, ok, err := store.GetChecksum("stacks/web/nextjs.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.1.0", c.BankVersion)

	c, ok, err = store.GetChecksum("stacks/auth/clerk.md")
	require.NoError(t, err)
	assert.False(t, ok, "declined file must not be recorded as applied: %+v", c)

	// History recorded.
	updates, err := store.ListUpdates()
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "1.0.0", updates[0].FromVersion)
	assert.Equal(t, "1.1.0", updates[0].ToVersion)
	assert.Equal(t, "standard", updates[0].Mode)
	assert.Equal(t, 1, updates[0].SkippedCount)
}

func TestApply_ConfirmedOverwrite(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"stacks/auth/clerk.md": "edited locally",
	})
	src := newRelease("1.0.1", map[string][]byte{
		"stacks/auth/clerk.md": []byte("release copy"),
	})

	ui := &fakeUI{mode: ModeStandard, confirm: map[string]bool{
		"stacks/auth/clerk.md": true,
	}}
	eng, store := newTestEngine(t, bankDir, src, ui)

	res, err := eng.Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "release copy", readBank(t, bankDir, "stacks/auth/clerk.md"))
	assert.Contains(t, res.Applied, "stacks/auth/clerk.md")

	_, ok, err := store.GetChecksum("stacks/auth/clerk.md")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApply_ForceSkipsPrompts(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"stacks/auth/clerk.md": "edited locally",
	})
	src := newRelease("1.0.1", map[string][]byte{
		"stacks/auth/clerk.md": []byte("release copy"),
	})

	ui := &fakeUI{mode: ModeForce}
	eng, _ := newTestEngine(t, bankDir, src, ui)

	_, err := eng.Apply(context.Background())
	require.NoError(t, err)

	assert.Empty(t, ui.prompted)
	assert.Equal(t, "release copy", readBank(t, bankDir, "stacks/auth/clerk.md"))
}

func TestApply_UnchangedFilesNotRewritten(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"CLAUDE.md": "same content",
	})
	src := newRelease("1.0.1", map[string][]byte{
		"CLAUDE.md": []byte("same content"),
	})

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{mode: ModeStandard})
	res, err := eng.Apply(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	assert.Contains(t, res.Unchanged, "CLAUDE.md")
}

func TestApply_VerificationFailure(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"CLAUDE.md": "old",
	})

	// Manifest checksum disagrees with the served file.
	src := newRelease("1.0.1", map[string][]byte{
		"CLAUDE.md": []byte("served content"),
	})
	src.manifest.Files[0].SHA256 = "0000000000000000000000000000000000000000000000000000000000000000"

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{mode: ModeStandard})
	_, err := eng.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
	assert.Contains(t, err.Error(), "can be restored")
	assert.Equal(t, PhaseFailed, eng.Phase())
}

func TestApply_RefusesToDiffOversizedFile(t *testing.T) {
	huge := string(make([]byte, fileutil.MaxFileSize+1))
	bankDir := newTestBank(t, "1.0.0", map[string]string{
		"stacks/auth/clerk.md": huge,
	})
	src := newRelease("1.0.1", map[string][]byte{
		"stacks/auth/clerk.md": []byte("release copy"),
	})

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{mode: ModeStandard})
	_, err := eng.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fileutil.ErrFileTooLarge))
}

func TestApply_WithoutManifestRefusesToUpdate(t *testing.T) {
	bankDir := newTestBank(t, "1.0.0", map[string]string{"CLAUDE.md": "old"})
	src := &fakeSource{manifestErr: remote.ErrUnavailable, version: "2.0.0"}

	eng, _ := newTestEngine(t, bankDir, src, &fakeUI{})
	_, err := eng.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrUnavailable))
	assert.Equal(t, "old", readBank(t, bankDir, "CLAUDE.md"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestUnifiedDiff(t *testing.T) {
	diff := unifiedDiff("stacks/web/nextjs.md",
		[]byte("line one\nline two\n"),
		[]byte("line one\nline 2\n"))

	assert.Contains(t, diff, "-line two")
	assert.Contains(t, diff, "+line 2")
	assert.Contains(t, diff, "stacks/web/nextjs.md (local)")
}
