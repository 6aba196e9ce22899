package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"membank/internal/backup"
	"membank/internal/errors"
	"membank/internal/project"
	"membank/internal/version"
)

func init() {
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-id]",
	Short: "Restore the memory bank from a backup",
	Long: `Restore system and stack files from a backup, undoing an update.

With no argument the most recent backup is used. Files you author are not
part of backups and are left exactly as they are. Every backup file is
integrity-checked before anything is written, so a corrupted backup never
half-applies.

After a restore the bank's version marker is reset to the backed-up version.`,
	Example: `  # Undo the last update
  membank restore

  # Restore a specific backup
  membank restore v1.2.0-20260815T093000

  See Also: membank backup list, membank update`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(_ *cobra.Command, args []string) error {
	var backupID string
	if len(args) > 0 {
		backupID = args[0]
	}
	return runRestoreWithWriter(os.Stdout, newBackupManager(), backupID)
}

func runRestoreWithWriter(w io.Writer, mgr *backup.Manager, backupID string) error {
	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	var manifest *backup.Manifest
	if backupID == "" {
		manifest, err = mgr.RestoreLatest(bankDir)
	} else {
		if err = mgr.Restore(bankDir, backupID); err == nil {
			manifest, err = mgr.Get(backupID)
		}
	}
	if err != nil {
		if errors.Is(err, backup.ErrNoBackupsFound) {
			return errors.NewUserError(err, "Run: membank backup list")
		}
		if errors.Is(err, backup.ErrBackupCorrupted) {
			return errors.NewSystemError(err,
				"The backup failed its integrity check; nothing was changed.")
		}
		return err
	}

	// Wind the marker back to the restored release.
	if v, perr := version.Parse(manifest.BankVersion); perr == nil {
		if err := project.Bump(bankDir, v); err != nil {
			return errors.Wrap(err, "resetting version marker")
		}
	}

	fmt.Fprintf(w, "%s✓ Restored backup %s (%d files, bank version %s)%s\n",
		colorGreen, manifest.ID, len(manifest.Files), manifest.BankVersion, colorReset)
	return nil
}
