package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/model"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document template and detect its placeholders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read document %s", args[0])
		}

		title := ingestTitle
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		ref, err := env.Engine.Ingest(ctx, title, string(data))
		if err != nil {
			return err
		}

		fmt.Printf("Reference %d created: %q, %d fields detected\n\n", ref.ID, ref.Title, len(ref.Fields))
		formatFields(os.Stdout, ref.Fields)
		return nil
	},
}

// formatFields writes a tabular list of detected fields to out.
func formatFields(out io.Writer, fields []model.Field) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tPRIORITY\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t--------\t------")

	for i := range fields {
		f := &fields[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Name, f.ExpectedType, f.Priority, f.Status)
	}
	_ = w.Flush()
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "reference title (default: file name)")
	rootCmd.AddCommand(ingestCmd)
}
