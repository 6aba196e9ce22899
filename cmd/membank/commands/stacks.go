package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"membank/internal/advisor"
	"membank/internal/errors"
	"membank/internal/logging"
	"membank/internal/render"
	"membank/pkg/fileutil"
)

var stacksList bool

func init() {
	stacksCmd.Flags().BoolVar(&stacksList, "list", false,
		"print the catalog instead of browsing interactively")
	rootCmd.AddCommand(stacksCmd)
}

var stacksCmd = &cobra.Command{
	Use:   "stacks [slug]",
	Short: "Browse the stack guidance catalog",
	Long: `Browse the catalog of stack guidance documents.

With no argument, opens a fuzzy finder over the catalog and renders the
chosen document from the bank. With a slug argument, renders that document
directly. On a non-terminal the catalog is printed as a table.`,
	Example: `  # Browse interactively
  membank stacks

  # Show a specific document
  membank stacks web-nextjs

  # Print the catalog
  membank stacks --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStacks,
}

func runStacks(_ *cobra.Command, args []string) error {
	catalog, err := advisor.LoadCatalog()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return showStack(os.Stdout, catalog, args[0])
	}

	if stacksList || !logging.IsTTY(os.Stdout) {
		return runStacksListWithWriter(os.Stdout, catalog)
	}

	return runStacksInteractive(os.Stdout, catalog)
}

func runStacksListWithWriter(w io.Writer, catalog *advisor.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sSLUG%s\t%sCATEGORY%s\t%sNAME%s\n",
		colorBold, colorReset, colorBold, colorReset, colorBold, colorReset)
	for _, s := range catalog.Stacks {
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\n", colorGreen, s.Slug, colorReset, s.Category, s.Name)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}

func runStacksInteractive(w io.Writer, catalog *advisor.Catalog) error {
	stacks := catalog.Stacks

	idx, err := fuzzyfinder.Find(
		stacks,
		func(i int) string {
			return fmt.Sprintf("%s: %s", stacks[i].Category, stacks[i].Name)
		},
		fuzzyfinder.WithPreviewWindow(func(i, width, height int) string {
			if i == -1 {
				return ""
			}
			s := stacks[i]
			return fmt.Sprintf("Name: %s\nCategory: %s\nDoc: %s\n\nTags: %s",
				s.Name, s.Category, s.Doc, strings.Join(s.Tags, ", "))
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil
		}
		return errors.Wrap(err, "browsing stacks")
	}

	return showStack(w, catalog, stacks[idx].Slug)
}

func showStack(w io.Writer, catalog *advisor.Catalog, slug string) error {
	s, ok := catalog.Find(slug)
	if !ok {
		return errors.NewUserError(
			errors.Newf("unknown stack %q", slug),
			"Run: membank stacks --list")
	}

	bankDir, err := resolveBankDir()
	if err != nil {
		return err
	}

	docPath := filepath.Join(bankDir, filepath.FromSlash(s.Doc))
	data, err := fileutil.ReadFileWithLimit(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.NewUserError(
				errors.Newf("document %s is not in the bank", s.Doc),
				"Run 'membank update' to fetch the latest stack documents.")
		}
		return errors.Wrapf(err, "reading %s", s.Doc)
	}

	fmt.Fprintln(w, render.Markdown(w, string(data)))
	return nil
}
