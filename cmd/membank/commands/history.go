package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"membank/internal/errors"
	"membank/internal/state"
)

var historyJSON bool

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show applied updates",
	Long: `Show the history of applied updates, newest first: the version
transition, the mode used, and how many files were updated or kept.`,
	Example: `  # Show the update history
  membank history

  # JSON output
  membank history --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// historyOutput represents one update in JSON output.
type historyOutput struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Mode      string    `json:"mode"`
	Files     int       `json:"files"`
	Skipped   int       `json:"skipped"`
	AppliedAt time.Time `json:"applied_at"`
}

func runHistory(_ *cobra.Command, _ []string) error {
	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	return runHistoryWithWriter(os.Stdout, store)
}

func runHistoryWithWriter(w io.Writer, store *state.Store) error {
	updates, err := store.ListUpdates()
	if err != nil {
		return err
	}

	if historyJSON {
		output := make([]historyOutput, len(updates))
		for i, u := range updates {
			output[i] = historyOutput{
				From:      u.FromVersion,
				To:        u.ToVersion,
				Mode:      u.Mode,
				Files:     u.FileCount,
				Skipped:   u.SkippedCount,
				AppliedAt: u.AppliedAt,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(output), "encoding output")
	}

	if len(updates) == 0 {
		fmt.Fprintln(w, "No updates applied yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sWHEN%s\t%sUPDATE%s\t%sMODE%s\t%sFILES%s\t%sKEPT%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)
	for _, u := range updates {
		fmt.Fprintf(tw, "%s\t%s%s → %s%s\t%s\t%d\t%d\n",
			u.AppliedAt.Local().Format("2006-01-02 15:04:05"),
			colorGreen, u.FromVersion, u.ToVersion, colorReset,
			u.Mode, u.FileCount, u.SkippedCount)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}
