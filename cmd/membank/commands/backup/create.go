package backup

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"membank/cmd/membank/commands/flags"
	"membank/internal/backup"
	"membank/internal/classify"
	"membank/internal/errors"
	"membank/internal/paths"
	"membank/internal/project"
)

func init() {
	Cmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a manual backup",
	Long: `Back up the bank's system and stack files.

Backups are created automatically before every update; this command takes
an extra one on demand, for example before hand-editing stack documents.`,
	Example: `  # Back up the bank in the current directory
  membank backup create

  # Back up a bank elsewhere
  membank backup create --bank ~/projects/app/memory-bank

  See Also:
    membank backup list - List available backups
    membank restore     - Restore from a backup`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func runCreate(_ *cobra.Command, _ []string) error {
	return runCreateWithWriter(os.Stdout, newManager())
}

func runCreateWithWriter(w io.Writer, mgr *backup.Manager) error {
	bankDir, err := paths.ResolveBankDir(flags.GetBankDir())
	if err != nil {
		return errors.Wrap(err, "resolving bank directory")
	}

	marker, _, err := project.Load(bankDir)
	if err != nil {
		if errors.Is(err, project.ErrNoMarker) {
			return errors.NewUserError(err,
				"Not a memory bank directory (no membank.toml). Use --bank to point at one.")
		}
		return err
	}

	files, err := classify.Walk(bankDir, classify.DefaultRules)
	if err != nil {
		return err
	}

	var rels []string
	for _, f := range classify.Select(files, classify.AlwaysUpdate, classify.SmartUpdate) {
		rels = append(rels, f.RelPath)
	}
	if len(rels) == 0 {
		fmt.Fprintln(w, "No replaceable files to back up")
		return nil
	}

	manifest, err := mgr.Create(bankDir, marker.Version, rels)
	if err != nil {
		return errors.Wrap(err, "creating backup")
	}

	fmt.Fprintf(w, "%s✓ Created backup %s (%d files)%s\n",
		colorGreen, manifest.ID, len(manifest.Files), colorReset)
	return nil
}

// newManager builds a backup manager with the configured retention.
func newManager() *backup.Manager {
	return backup.NewManager(backup.WithRetentionCount(flags.GetRetention()))
}
