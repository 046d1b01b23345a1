package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/engine"
)

var previewCmd = &cobra.Command{
	Use:   "preview <ref-id>",
	Short: "Show the marked document and current field values",
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

		report, err := env.Engine.Preview(ctx, refID)
		if err != nil {
			return err
		}

		fmt.Printf("Reference %d: %q (%d/%d filled)\n\n", report.ReferenceID, report.Title,
			report.Progress.Filled+report.Progress.AutoFilled, report.Progress.Total)
		fmt.Println(report.MarkedText)
		fmt.Println()
		formatFieldRows(os.Stdout, report.Fields)
		return nil
	},
}

// formatFieldRows writes per-field values to out.
func formatFieldRows(out io.Writer, rows []engine.FieldRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tVALUE")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t------\t-----")

	for _, f := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Type, f.Status, f.Value)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
