package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"membank/internal/backup"
	"membank/internal/errors"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Long: `List all available backups, most recent first.

Each backup shows its ID (used with 'membank restore'), creation time,
file count, and the bank version it was taken from.`,
	Example: `  # List all backups
  membank backup list

  # Output as JSON
  membank backup list --json

  See Also:
    membank restore       - Restore from a backup
    membank backup create - Create a new backup`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// infoOutput represents a single backup in JSON output.
type infoOutput struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FileCount   int       `json:"file_count"`
	BankVersion string    `json:"bank_version"`
}

func runList(_ *cobra.Command, _ []string) error {
	return runListWithWriter(os.Stdout, newManager())
}

func runListWithWriter(w io.Writer, mgr *backup.Manager) error {
	manifests, err := mgr.List()
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.Wrap(err, "listing backups")
	}

	if listJSON {
		output := make([]infoOutput, len(manifests))
		for i, m := range manifests {
			output[i] = infoOutput{
				ID:          m.ID,
				CreatedAt:   m.CreatedAt,
				FileCount:   len(m.Files),
				BankVersion: m.BankVersion,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(output), "encoding output")
	}

	if len(manifests) == 0 {
		fmt.Fprintln(w, "No backups available")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Backups are created automatically before membank updates a bank.")
		fmt.Fprintln(w, "You can also create one manually with: membank backup create")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sID%s\t%sCREATED%s\t%sFILES%s\t%sVERSION%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, m := range manifests {
		fmt.Fprintf(tw, "%s%s%s\t%s\t%d\t%s\n",
			colorGreen, m.ID, colorReset,
			m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			len(m.Files),
			m.BankVersion)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}
