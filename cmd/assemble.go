package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var assembleOutput string

var assembleCmd = &cobra.Command{
	Use:   "assemble <ref-id>",
	Short: "Substitute confirmed values and write the final document",
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

		res, err := env.Engine.Assemble(ctx, refID)
		if err != nil {
			return err
		}

		if assembleOutput != "" {
			data, err := env.Store.ReadArtifact(ctx, refID, res.ArtifactName)
			if err != nil {
				return eris.Wrapf(err, "read artifact %s", res.ArtifactName)
			}
			if err := os.WriteFile(assembleOutput, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", assembleOutput)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", assembleOutput, len(data))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "", "also write the assembled document to this path")
	rootCmd.AddCommand(assembleCmd)
}
