package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/engine"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all references",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		refs, err := env.Engine.List(ctx)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Fprintln(os.Stderr, "No references found.")
			return nil
		}

		formatReferences(os.Stdout, refs)
		return nil
	},
}

// formatReferences writes a tabular reference list to out.
func formatReferences(out io.Writer, refs []engine.ReferenceSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tFILLED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t------\t-------")

	for _, r := range refs {
		title := r.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%s\n",
			r.ReferenceID, title, r.ValidationStatus,
			r.Progress.Filled+r.Progress.AutoFilled, r.Progress.Total,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
