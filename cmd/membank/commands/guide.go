package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"membank/internal/advisor"
	"membank/internal/cli/prompt"
	"membank/internal/errors"
)

func init() {
	rootCmd.AddCommand(guideCmd)
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Find stack guidance through a short questionnaire",
	Long: `Walk through a few questions about the project and get matching
stack guidance documents from the bank's catalog.

Each answer narrows the recommendation; at the end membank names one pick
per concern (web framework, API runtime, auth, database, hosting) along
with the stacks/ document to read.`,
	Example: `  # Start the questionnaire
  membank guide

  # Then view a recommended document
  membank stacks auth-better-auth`,
	Args: cobra.NoArgs,
	RunE: runGuide,
}

func runGuide(_ *cobra.Command, _ []string) error {
	return runGuideWithIO(os.Stdin, os.Stdout)
}

func runGuideWithIO(in io.Reader, w io.Writer) error {
	questionnaire, err := advisor.LoadQuestionnaire()
	if err != nil {
		return err
	}
	catalog, err := advisor.LoadCatalog()
	if err != nil {
		return err
	}

	p := prompt.NewWithIO(in, w)
	session := advisor.NewSession(questionnaire)

	for !session.Done() {
		q := session.Current()

		if q.Free {
			answer, err := p.Ask(q.Prompt, "")
			if err != nil {
				if errors.Is(err, prompt.ErrCancelled) {
					return errors.NewUserError(err, "Questionnaire cancelled.")
				}
				return err
			}
			if err := session.AnswerText(answer); err != nil {
				return err
			}
			continue
		}

		choices := make([]prompt.Choice, len(q.Options))
		for i, opt := range q.Options {
			choices[i] = prompt.Choice{Label: opt.Label}
		}

		idx, err := p.Select(q.Prompt, choices)
		if err != nil {
			if errors.Is(err, prompt.ErrCancelled) {
				return errors.NewUserError(err, "Questionnaire cancelled.")
			}
			return err
		}
		if err := session.Answer(idx); err != nil {
			return err
		}
	}

	recs := catalog.Recommend(session.Tags())
	if len(recs) == 0 {
		fmt.Fprintln(w, "No matching stacks in the catalog.")
		return nil
	}

	if name := session.Answers()["project_name"]; name != "" {
		fmt.Fprintf(w, "\n%sRecommended stacks for %s:%s\n", colorBold, name, colorReset)
	} else {
		fmt.Fprintf(w, "\n%sRecommended stacks:%s\n", colorBold, colorReset)
	}
	printRecommendations(w, recs)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "View a document with: membank stacks <slug>")
	return nil
}

func printRecommendations(w io.Writer, recs []advisor.Recommendation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range recs {
		fmt.Fprintf(tw, "  %s%s%s\t%s\t%s%s%s\n",
			colorGreen, r.Stack.Slug, colorReset,
			r.Stack.Name,
			colorGray, filepath.ToSlash(r.Stack.Doc), colorReset)
	}
	tw.Flush()
}
