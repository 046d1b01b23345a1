package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/model"
)

var actionsLimit int

var actionsCmd = &cobra.Command{
	Use:   "actions <ref-id>",
	Short: "Show the action log for a reference",
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

		entries, err := env.Engine.Actions(ctx, refID, actionsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No actions recorded.")
			return nil
		}

		formatActions(os.Stdout, entries)
		return nil
	},
}

// formatActions writes the action log to out.
func formatActions(out io.Writer, entries []model.ActionEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tACTION\tFIELD\tSTATUS\tMODEL\tMS\tEXTRA")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t------\t-----\t--\t-----")

	for _, e := range entries {
		extra := ""
		if len(e.Extra) > 0 {
			if b, err := json.Marshal(e.Extra); err == nil {
				extra = string(b)
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.FieldID,
			e.Status, e.Model, e.LatencyMS, extra)
	}
	_ = w.Flush()
}

func init() {
	actionsCmd.Flags().IntVar(&actionsLimit, "limit", 0, "show only the last N entries (0 = all)")
	rootCmd.AddCommand(actionsCmd)
}
