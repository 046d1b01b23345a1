package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/engine"
)

var questionsCmd = &cobra.Command{
	Use:   "questions <ref-id>",
	Short: "List fields with their generated questions in ask order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		refID, err := parseRefID(args[0])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Engine.Questions(ctx, refID)
		if err != nil {
			return err
		}

		formatQuestions(os.Stdout, items)
		return nil
	},
}

// formatQuestions writes a tabular question list to out.
func formatQuestions(out io.Writer, items []engine.QuestionItem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tTYPE\tSTATUS\tATTEMPTS\tQUESTION")
	_, _ = fmt.Fprintln(w, "-----\t----\t------\t--------\t--------")

	for _, item := range items {
		question := item.Question
		if len(question) > 70 {
			question = question[:67] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			item.FieldID, item.Type, item.Status, item.Attempts, question)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}
