package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "docfill",
	Short: "Guided document placeholder filling",
	Long:  "Detects placeholders in document templates, asks targeted questions, validates answers with bounded retries and consent-gated auto-suggest, and assembles the completed document.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// parseRefID converts a positional reference-id argument.
func parseRefID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("invalid reference id %q", arg)
	}
	return id, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
