package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"membank/cmd/membank/commands/flags"
	"membank/internal/backup"
	"membank/internal/classify"
	"membank/internal/errors"
	"membank/internal/project"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory bank overview",
	Long: `Show an overview of the memory bank: installed version, release
source, file counts per update category, and available backups.`,
	Example: `  # Show status of the bank in the current directory
  membank status

  # JSON output for scripting
  membank status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// statusOutput represents the JSON output for status.
type statusOutput struct {
	BankDir     string `json:"bank_dir"`
	Version     string `json:"version"`
	Remote      string `json:"remote"`
	UserFiles   int    `json:"user_files"`
	SystemFiles int    `json:"system_files"`
	SmartFiles  int    `json:"smart_files"`
	Backups     int    `json:"backups"`
	LastBackup  string `json:"last_backup,omitempty"`
}

func runStatus(_ *cobra.Command, _ []string) error {
	return runStatusWithWriter(os.Stdout, newBackupManager())
}

func runStatusWithWriter(w io.Writer, mgr *backup.Manager) error {
	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	out := statusOutput{BankDir: bankDir, Remote: flags.GetRemote()}

	marker, _, err := project.Load(bankDir)
	switch {
	case errors.Is(err, project.ErrNoMarker):
		out.Version = "not installed"
	case err != nil:
		return err
	default:
		out.Version = marker.Version
		if marker.Remote != "" {
			out.Remote = marker.Remote
		}
	}

	files, err := classify.Walk(bankDir, classify.DefaultRules)
	if err != nil {
		return err
	}
	for _, f := range files {
		switch f.Category {
		case classify.AlwaysUpdate:
			out.SystemFiles++
		case classify.SmartUpdate:
			out.SmartFiles++
		default:
			out.UserFiles++
		}
	}

	manifests, err := mgr.List()
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return err
	}
	out.Backups = len(manifests)
	if len(manifests) > 0 {
		out.LastBackup = manifests[0].ID
	}

	if statusJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(out), "encoding output")
	}

	fmt.Fprintf(w, "%sMemory bank:%s %s\n", colorBold, colorReset, out.BankDir)
	fmt.Fprintf(w, "%sVersion:%s     %s\n", colorBold, colorReset, out.Version)
	fmt.Fprintf(w, "%sRemote:%s      %s\n", colorBold, colorReset, out.Remote)
	fmt.Fprintf(w, "%sFiles:%s       %d user, %d system, %d smart\n",
		colorBold, colorReset, out.UserFiles, out.SystemFiles, out.SmartFiles)
	if out.Backups == 0 {
		fmt.Fprintf(w, "%sBackups:%s     %snone%s\n", colorBold, colorReset, colorGray, colorReset)
	} else {
		fmt.Fprintf(w, "%sBackups:%s     %d (latest %s)\n",
			colorBold, colorReset, out.Backups, out.LastBackup)
	}
	return nil
}
