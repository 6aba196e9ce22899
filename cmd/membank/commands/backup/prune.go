package backup

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"membank/internal/backup"
	"membank/internal/errors"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", backup.DefaultRetentionCount,
		"Number of backups to retain")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old backups",
	Long: `Remove old backups beyond the retention count, oldest first.

Pruning also happens automatically whenever a backup is created, so this
command is only needed to tighten retention after the fact.`,
	Example: `  # Keep the default number of backups
  membank backup prune

  # Keep only the most recent backup
  membank backup prune --keep 1

  # Remove all backups
  membank backup prune --keep 0

  See Also:
    membank backup list   - List available backups
    membank backup create - Create a new backup`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(_ *cobra.Command, _ []string) error {
	return runPruneWithWriter(os.Stdout, newManager())
}

func runPruneWithWriter(w io.Writer, mgr *backup.Manager) error {
	if pruneKeep < 0 {
		return errors.New("--keep must be non-negative")
	}

	manifests, err := mgr.List()
	if err != nil {
		if errors.Is(err, backup.ErrNoBackupsFound) {
			fmt.Fprintln(w, "No backups to prune")
			return nil
		}
		return errors.Wrap(err, "listing backups")
	}

	toRemove := len(manifests) - pruneKeep
	if toRemove <= 0 {
		fmt.Fprintln(w, "No backups to prune")
		return nil
	}

	if err := mgr.Prune(pruneKeep); err != nil {
		return errors.Wrap(err, "pruning backups")
	}

	fmt.Fprintf(w, "%s✓ Removed %d old backup(s)%s\n", colorGreen, toRemove, colorReset)
	return nil
}
