package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"membank/internal/cli/prompt"
	"membank/internal/classify"
	"membank/internal/errors"
	"membank/internal/logging"
	"membank/internal/render"
	"membank/internal/update"
	"membank/internal/version"
)

var (
	updateForce bool
	updateYes   bool
)

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false,
		"replace stack files without asking, even if locally modified")
	updateCmd.Flags().BoolVar(&updateYes, "yes", false,
		"assume yes for every prompt (standard mode, accept all diffs)")
	updateCmd.AddCommand(updateCheckCmd)
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the memory bank to the latest release",
	Long: `Update the memory bank in place from the published release.

A backup of every replaceable file is taken first. System files (CLAUDE.md,
rules, templates) are always brought up to date. Stack guidance documents
are replaced silently only when unmodified since the last update; modified
ones are shown as a diff so you can keep or replace them per file. Files
you author are never touched.

If the release is not newer than the installed version, nothing happens.`,
	Example: `  # Update the bank in the current directory
  membank update

  # Update without per-file prompts
  membank update --force

  # Update a bank elsewhere
  membank update --bank ~/projects/app/memory-bank

  See Also: membank update check, membank restore, membank history`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

var updateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for a newer release without changing anything",
	Long: `Compare the installed bank version against the published release.

Shows the installed and remote versions, the kind of change (major, minor,
patch), and the release notes when available. Never writes anything.`,
	Example: `  # Check for updates
  membank update check`,
	Args: cobra.NoArgs,
	RunE: runUpdateCheck,
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	return runUpdateWithIO(cmd.Context(), os.Stdin, os.Stdout)
}

func runUpdateWithIO(ctx context.Context, in io.Reader, w io.Writer) error {
	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	marker, err := loadMarker(bankDir)
	if err != nil {
		return err
	}

	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	eng, err := update.New(update.Config{
		BankDir: bankDir,
		Rules:   classify.DefaultRules,
		Backups: newBackupManager(),
		State:   store,
		Source:  releaseClient(marker),
		UI: &consoleUI{
			prompter: prompt.NewWithIO(in, w),
			w:        w,
			force:    updateForce,
			yes:      updateYes,
		},
		Logger: slog.Default(),
	})
	if err != nil {
		return err
	}

	res, err := eng.Apply(ctx)
	if err != nil {
		if errors.Is(err, update.ErrUpToDate) {
			fmt.Fprintf(w, "%s✓ Memory bank is up to date%s\n", colorGreen, colorReset)
			return nil
		}
		if errors.Is(err, prompt.ErrCancelled) {
			return errors.NewUserError(err, "Update cancelled; nothing was recorded.")
		}
		return err
	}

	printUpdateResult(w, res)
	return nil
}

func printUpdateResult(w io.Writer, res *update.Result) {
	fmt.Fprintf(w, "%s✓ Updated %s → %s (%s mode)%s\n",
		colorGreen, res.From, res.To, res.Mode, colorReset)

	if len(res.Applied) > 0 {
		fmt.Fprintf(w, "  %d file(s) updated\n", len(res.Applied))
	}
	if len(res.Unchanged) > 0 {
		fmt.Fprintf(w, "  %d file(s) already current\n", len(res.Unchanged))
	}
	for _, rel := range res.Skipped {
		fmt.Fprintf(w, "  %skept local changes: %s%s\n", colorYellow, rel, colorReset)
	}
	if res.BackupID != "" {
		fmt.Fprintf(w, "  %sbackup: %s (membank restore to undo)%s\n",
			colorGray, res.BackupID, colorReset)
	}
}

func runUpdateCheck(cmd *cobra.Command, _ []string) error {
	return runUpdateCheckWithWriter(cmd.Context(), os.Stdout)
}

func runUpdateCheckWithWriter(ctx context.Context, w io.Writer) error {
	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	marker, err := loadMarker(bankDir)
	if err != nil {
		return err
	}
	current, err := version.Parse(marker.Version)
	if err != nil {
		return err
	}

	client := releaseClient(marker)

	var notes string
	remoteVersion, err := func() (version.Version, error) {
		m, merr := client.FetchManifest(ctx)
		if merr == nil {
			notes = m.Notes
			return version.Parse(m.Version)
		}
		return client.FetchVersion(ctx)
	}()
	if err != nil {
		return errors.NewSystemError(err,
			"Could not reach the release source. Check your network or the remote URL.")
	}

	fmt.Fprintf(w, "Installed: %s\n", current)
	fmt.Fprintf(w, "Available: %s\n", remoteVersion)

	delta := version.Compare(current, remoteVersion)
	if delta == version.DeltaNone {
		fmt.Fprintf(w, "%s✓ Up to date%s\n", colorGreen, colorReset)
		return nil
	}

	fmt.Fprintf(w, "%s%s update available%s\n", colorCyan+colorBold, delta, colorReset)
	if notes != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, render.Markdown(w, notes))
	}
	fmt.Fprintln(w, "Run 'membank update' to apply.")
	return nil
}

// consoleUI answers the update engine's questions on a terminal.
type consoleUI struct {
	prompter *prompt.Prompter
	w        io.Writer
	force    bool
	yes      bool
}

func (u *consoleUI) ChooseMode(delta version.Delta) (update.Mode, error) {
	if u.force {
		return update.ModeForce, nil
	}
	// Non-interactive runs get the safe default.
	if u.yes || !logging.IsTTY(u.w) {
		return update.ModeStandard, nil
	}

	idx, err := u.prompter.Select(
		fmt.Sprintf("A %s update is available. How should modified stack files be handled?", delta),
		[]prompt.Choice{
			{Label: "Standard", Detail: "show a diff and ask per file"},
			{Label: "Force", Detail: "replace everything replaceable"},
		})
	if err != nil {
		return update.ModeStandard, err
	}
	if idx == 1 {
		return update.ModeForce, nil
	}
	return update.ModeStandard, nil
}

func (u *consoleUI) ConfirmOverwrite(relPath, diff string) (bool, error) {
	if u.yes {
		return true, nil
	}
	fmt.Fprintf(u.w, "\n%s%s has local changes:%s\n%s\n", colorBold, relPath, colorReset, diff)
	return u.prompter.Confirm(fmt.Sprintf("Replace %s with the release version?", relPath))
}
