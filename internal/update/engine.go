// Package update orchestrates the memory bank update workflow.
//
// An update runs as a forward-only state machine: check the remote version,
// choose a mode, back up the replaceable files, copy the release files in
// by category, verify what was written, then record the result. User-data
// files are never written; smart-update files are overwritten silently only
// when unmodified since the last update, otherwise the user sees a diff and
// decides per file.
package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"membank/internal/backup"
	"membank/internal/classify"
	"membank/internal/errors"
	"membank/internal/project"
	"membank/internal/remote"
	"membank/internal/state"
	"membank/internal/version"
	"membank/pkg/fileutil"
)

// ErrUpToDate indicates the bank already matches (or is newer than) the
// published release, so there is nothing to apply.
var ErrUpToDate = errors.New("memory bank is up to date")

// Source provides release data. *remote.Client satisfies it; tests supply
// an in-memory implementation.
type Source interface {
	FetchManifest(ctx context.Context) (*remote.Manifest, error)
	FetchFile(ctx context.Context, relPath string) ([]byte, error)
}

// Interaction covers the two decisions an update may need from the user.
type Interaction interface {
	// ChooseMode picks the update mode once a newer release is confirmed.
	ChooseMode(delta version.Delta) (Mode, error)

	// ConfirmOverwrite decides whether a locally modified smart-update file
	// should be replaced. The diff shows local content against the release.
	ConfirmOverwrite(relPath, diff string) (bool, error)
}

// Config wires an Engine's collaborators.
type Config struct {
	BankDir string
	Rules   classify.Rules
	Backups *backup.Manager
	State   *state.Store
	Source  Source
	UI      Interaction
	Logger  *slog.Logger
}

// Engine runs update checks and updates against one bank directory.
type Engine struct {
	cfg   Config
	phase Phase
}

// New validates the configuration and returns an Engine in PhaseIdle.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.BankDir == "":
		return nil, errors.New("bank directory is required")
	case cfg.Backups == nil:
		return nil, errors.New("backup manager is required")
	case cfg.State == nil:
		return nil, errors.New("state store is required")
	case cfg.Source == nil:
		return nil, errors.New("release source is required")
	case cfg.UI == nil:
		return nil, errors.New("interaction is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{cfg: cfg, phase: PhaseIdle}, nil
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// CheckResult is the outcome of a version check.
type CheckResult struct {
	Current version.Version
	Remote  version.Version
	Delta   version.Delta
	Notes   string

	// Manifest is the fetched release manifest, nil when only the fallback
	// version document was available.
	Manifest *remote.Manifest
}

// Check compares the local marker version against the published release.
// It never writes anything.
func (e *Engine) Check(ctx context.Context) (*CheckResult, error) {
	e.setPhase(PhaseCheckingVersion)

	_, current, err := project.Load(e.cfg.BankDir)
	if err != nil {
		return nil, e.fail(err)
	}

	res := &CheckResult{Current: current}

	m, err := e.cfg.Source.FetchManifest(ctx)
	if err == nil {
		remoteVersion, perr := version.Parse(m.Version)
		if perr != nil {
			return nil, e.fail(perr)
		}
		res.Remote = remoteVersion
		res.Notes = m.Notes
		res.Manifest = m
	} else {
		// No manifest; a remote.Client can still recover the bare version.
		fetcher, ok := e.cfg.Source.(interface {
			FetchVersion(context.Context) (version.Version, error)
		})
		if !ok {
			return nil, e.fail(err)
		}
		res.Remote, err = fetcher.FetchVersion(ctx)
		if err != nil {
			return nil, e.fail(err)
		}
	}

	res.Delta = version.Compare(res.Current, res.Remote)
	e.cfg.Logger.Debug("version check",
		"current", res.Current.String(),
		"remote", res.Remote.String(),
		"delta", int(res.Delta))
	return res, nil
}

// Result summarizes an applied update.
type Result struct {
	From version.Version
	To   version.Version
	Mode Mode

	// BackupID names the backup taken before copying, for manual restore.
	BackupID string

	// Applied lists the files written, Skipped the smart-update files the
	// user declined, Unchanged the files already matching the release.
	Applied   []string
	Skipped   []string
	Unchanged []string
}

// Apply runs the full update workflow. It returns ErrUpToDate (wrapped)
// when the remote release is not strictly newer than the local bank, and
// otherwise an error naming the phase that failed. Once a backup has been
// taken its ID is included in any failure so the user can restore.
func (e *Engine) Apply(ctx context.Context) (*Result, error) {
	check, err := e.Check(ctx)
	if err != nil {
		return nil, err
	}
	if check.Delta == version.DeltaNone {
		e.setPhase(PhaseDone)
		return nil, errors.Wrapf(ErrUpToDate, "local %s, remote %s", check.Current, check.Remote)
	}
	if check.Manifest == nil {
		return nil, e.fail(errors.Wrap(remote.ErrUnavailable,
			"release has no manifest; cannot update safely"))
	}

	e.setPhase(PhaseAwaitingModeChoice)
	mode, err := e.cfg.UI.ChooseMode(check.Delta)
	if err != nil {
		return nil, e.fail(err)
	}

	res := &Result{
		From: check.Current,
		To:   check.Remote,
		Mode: mode,
	}

	if err := e.backUp(check, res); err != nil {
		return nil, e.fail(err)
	}

	if err := e.copy(ctx, check, mode, res); err != nil {
		return nil, e.failWithBackup(err, res.BackupID)
	}

	if err := e.verify(check, res); err != nil {
		return nil, e.failWithBackup(err, res.BackupID)
	}

	if err := e.record(check, res); err != nil {
		return nil, e.failWithBackup(err, res.BackupID)
	}

	e.setPhase(PhaseDone)
	e.cfg.Logger.Info("update applied",
		"from", res.From.String(),
		"to", res.To.String(),
		"mode", res.Mode.String(),
		"applied", len(res.Applied),
		"skipped", len(res.Skipped))
	return res, nil
}

// backUp snapshots every replaceable local file before anything is written.
func (e *Engine) backUp(check *CheckResult, res *Result) error {
	e.setPhase(PhaseBackingUp)

	files, err := classify.Walk(e.cfg.BankDir, e.cfg.Rules)
	if err != nil {
		return err
	}

	var rels []string
	for _, f := range classify.Select(files, classify.AlwaysUpdate, classify.SmartUpdate) {
		rels = append(rels, f.RelPath)
	}
	if len(rels) == 0 {
		// A bank with nothing replaceable has nothing to protect.
		e.cfg.Logger.Debug("no replaceable files, skipping backup")
		return nil
	}

	manifest, err := e.cfg.Backups.Create(e.cfg.BankDir, check.Current.String(), rels)
	if err != nil {
		return errors.Wrap(err, "creating pre-update backup")
	}
	res.BackupID = manifest.ID
	e.cfg.Logger.Info("backup created", "id", manifest.ID, "files", len(manifest.Files))
	return nil
}

// copy applies every release file according to its category.
func (e *Engine) copy(ctx context.Context, check *CheckResult, mode Mode, res *Result) error {
	e.setPhase(PhaseCopying)

	for _, mf := range check.Manifest.Files {
		category := e.cfg.Rules.Classify(mf.Path)

		switch category {
		case classify.NeverUpdate:
			continue

		case classify.AlwaysUpdate:
			if err := e.applyFile(ctx, mf, res); err != nil {
				return err
			}

		case classify.SmartUpdate:
			if err := e.applySmartFile(ctx, mf, mode, res); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyFile fetches a release file and writes it atomically.
func (e *Engine) applyFile(ctx context.Context, mf remote.ManifestFile, res *Result) error {
	local := filepath.Join(e.cfg.BankDir, filepath.FromSlash(mf.Path))

	if hash, err := hashLocal(local); err == nil && hash == mf.SHA256 {
		res.Unchanged = append(res.Unchanged, mf.Path)
		return nil
	}

	data, err := e.cfg.Source.FetchFile(ctx, mf.Path)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", mf.Path)
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", mf.Path)
	}
	if err := fileutil.AtomicWriteFile(local, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", mf.Path)
	}

	res.Applied = append(res.Applied, mf.Path)
	e.cfg.Logger.Debug("file applied", "path", mf.Path)
	return nil
}

// applySmartFile applies the smart-update policy to one release file.
func (e *Engine) applySmartFile(ctx context.Context, mf remote.ManifestFile, mode Mode, res *Result) error {
	local := filepath.Join(e.cfg.BankDir, filepath.FromSlash(mf.Path))

	localHash, err := hashLocal(local)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// New in this release; nothing local to protect.
		return e.applyFile(ctx, mf, res)
	case err != nil:
		return errors.Wrapf(err, "hashing %s", mf.Path)
	}

	if localHash == mf.SHA256 {
		res.Unchanged = append(res.Unchanged, mf.Path)
		return nil
	}

	if mode == ModeForce {
		return e.applyFile(ctx, mf, res)
	}

	// Unmodified since the last update means safe to replace silently.
	// A file with no recorded checksum is treated as modified: we cannot
	// prove the user didn't edit it.
	recorded, ok, err := e.cfg.State.GetChecksum(mf.Path)
	if err != nil {
		return err
	}
	if ok && recorded.SHA256 == localHash {
		return e.applyFile(ctx, mf, res)
	}

	release, err := e.cfg.Source.FetchFile(ctx, mf.Path)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", mf.Path)
	}
	localData, err := fileutil.ReadFileWithLimit(local)
	if err != nil {
		return errors.Wrapf(err, "reading %s", mf.Path)
	}

	overwrite, err := e.cfg.UI.ConfirmOverwrite(mf.Path, unifiedDiff(mf.Path, localData, release))
	if err != nil {
		return err
	}
	if !overwrite {
		res.Skipped = append(res.Skipped, mf.Path)
		e.cfg.Logger.Info("kept local changes", "path", mf.Path)
		return nil
	}

	if err := fileutil.AtomicWriteFile(local, release, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", mf.Path)
	}
	res.Applied = append(res.Applied, mf.Path)
	return nil
}

// verify re-hashes every applied file against the release manifest.
func (e *Engine) verify(check *CheckResult, res *Result) error {
	e.setPhase(PhaseVerifying)

	want := make(map[string]string, len(check.Manifest.Files))
	for _, mf := range check.Manifest.Files {
		want[mf.Path] = mf.SHA256
	}

	for _, rel := range res.Applied {
		local := filepath.Join(e.cfg.BankDir, filepath.FromSlash(rel))
		hash, err := hashLocal(local)
		if err != nil {
			return errors.Wrapf(err, "verifying %s", rel)
		}
		if expected := want[rel]; expected != "" && hash != expected {
			return errors.Newf("verification failed for %s: checksum mismatch", rel)
		}
	}

	return nil
}

// record persists checksums, the history entry, and the bumped marker.
func (e *Engine) record(check *CheckResult, res *Result) error {
	toVersion := check.Remote.String()

	for _, mf := range check.Manifest.Files {
		if e.cfg.Rules.Classify(mf.Path) != classify.SmartUpdate {
			continue
		}
		local := filepath.Join(e.cfg.BankDir, filepath.FromSlash(mf.Path))
		hash, err := hashLocal(local)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "hashing %s", mf.Path)
		}
		// Skipped files keep their old record so a later update still sees
		// them as modified.
		if hash != mf.SHA256 {
			continue
		}
		if err := e.cfg.State.RecordChecksum(mf.Path, hash, toVersion); err != nil {
			return err
		}
	}

	if err := e.cfg.State.RecordUpdate(state.Update{
		FromVersion:  check.Current.String(),
		ToVersion:    toVersion,
		Mode:         res.Mode.String(),
		FileCount:    len(res.Applied),
		SkippedCount: len(res.Skipped),
		AppliedAt:    time.Now().UTC(),
	}); err != nil {
		return err
	}

	return project.Bump(e.cfg.BankDir, check.Remote)
}

func (e *Engine) setPhase(p Phase) {
	e.phase = p
	e.cfg.Logger.Debug("phase", "phase", p.String())
}

func (e *Engine) fail(err error) error {
	failed := e.phase
	e.phase = PhaseFailed
	return errors.Wrapf(err, "update failed while %s", failed)
}

func (e *Engine) failWithBackup(err error, backupID string) error {
	if backupID == "" {
		return e.fail(err)
	}
	return errors.Wrapf(e.fail(err),
		"backup %s can be restored with 'membank restore'", backupID)
}

// hashLocal returns the SHA256 of a file, or os.ErrNotExist (wrapped) when
// it is absent.
func hashLocal(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
