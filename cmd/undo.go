package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <ref-id> <field-id>",
	Short: "Revert a filled field to pending",
	Args:  cobra.ExactArgs(2),
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

		res, err := env.Engine.Undo(ctx, refID, args[1])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
}
