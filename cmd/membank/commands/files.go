package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"membank/internal/classify"
	"membank/internal/errors"
)

var filesJSON bool

var filesCategory string

func init() {
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "output as JSON")
	filesCmd.Flags().StringVar(&filesCategory, "category", "",
		"only show one category: user, system, smart")
	rootCmd.AddCommand(filesCmd)
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List bank files and their update categories",
	Long: `List every file in the memory bank with its update category.

Categories decide what an update may touch:
  user    your content, never overwritten
  system  kept current on every update
  smart   replaced only when unmodified, otherwise diff-and-ask

Files matching no rule are treated as user content.`,
	Example: `  # List all files
  membank files

  # Only the files an update can replace silently
  membank files --category system

  # JSON output
  membank files --json`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

// fileOutput represents one file in JSON output.
type fileOutput struct {
	Path     string `json:"path"`
	Category string `json:"category"`
}

func runFiles(_ *cobra.Command, _ []string) error {
	return runFilesWithWriter(os.Stdout)
}

func runFilesWithWriter(w io.Writer) error {
	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	if filesCategory != "" {
		switch filesCategory {
		case "user", "system", "smart":
		default:
			return errors.NewUserError(
				errors.Newf("unknown category %q", filesCategory),
				"Valid categories: user, system, smart")
		}
	}

	files, err := classify.Walk(bankDir, classify.DefaultRules)
	if err != nil {
		return err
	}

	var selected []classify.File
	for _, f := range files {
		if filesCategory != "" && f.Category.String() != filesCategory {
			continue
		}
		selected = append(selected, f)
	}

	if filesJSON {
		output := make([]fileOutput, len(selected))
		for i, f := range selected {
			output[i] = fileOutput{Path: f.RelPath, Category: f.Category.String()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(output), "encoding output")
	}

	if len(selected) == 0 {
		fmt.Fprintln(w, "No files found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sFILE%s\t%sCATEGORY%s\n", colorBold, colorReset, colorBold, colorReset)
	for _, f := range selected {
		c := colorGray
		switch f.Category {
		case classify.AlwaysUpdate:
			c = colorGreen
		case classify.SmartUpdate:
			c = colorCyan
		}
		fmt.Fprintf(tw, "%s\t%s%s%s\n", f.RelPath, c, f.Category, colorReset)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}
