// Package backup provides CLI commands for managing memory bank backups.
package backup

import "github.com/spf13/cobra"

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// Cmd is the root backup command.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage memory bank backups",
	Long: `Manage backups of the memory bank's replaceable files.

Before membank updates a bank, it automatically backs up every system and
stack file. This command group lets you list backups, create one manually,
and prune old ones. Files you author are not part of backups; they are
never overwritten in the first place.

Backups are stored under ~/.config/membank/backups/.`,
	Example: `  # List all backups
  membank backup list

  # Create a manual backup
  membank backup create

  # Remove old backups, keeping the 3 most recent
  membank backup prune --keep 3

  See Also:
    membank backup list   - List available backups
    membank backup create - Manually create a backup
    membank backup prune  - Remove old backups
    membank restore       - Restore from a backup`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
