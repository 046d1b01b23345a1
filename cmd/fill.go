package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftdesk/docfill/internal/engine"
)

var fillConsent bool

var fillCmd = &cobra.Command{
	Use:   "fill <ref-id> <field-id> <value...>",
	Short: "Submit a value for a pending field",
	Long:  "Validates the value against the field's expected type. After two rejected attempts auto-suggest is offered; pass --consent to accept it, or pass --consent up front to auto-fill at the threshold.",
	Args:  cobra.MinimumNArgs(3),
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

		res, err := env.Engine.Submit(ctx, refID, args[1], strings.Join(args[2:], " "), fillConsent)
		if err != nil {
			return err
		}

		if res.Outcome == engine.OutcomeOfferAutoSuggest {
			cmd.Println("Auto-suggest available: rerun with --consent to accept a suggested value.")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	fillCmd.Flags().BoolVar(&fillConsent, "consent", false, "consent to auto-suggest for this field")
	rootCmd.AddCommand(fillCmd)
}
