package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insights/internal/config"
	"insights/internal/logger"
	"insights/internal/snapshot"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Insights CLI - invoice analytics and AI-assisted reporting",
	Long: `Insights CLI computes analytics over an invoice/client/item snapshot:
churn risk scores, buying pattern changes, product recommendations and
AI-summarized answers to free-text questions.

The snapshot is read fresh on every run, either from a JSON file or from
a Google spreadsheet, depending on configuration.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Insights CLI executed")

		fmt.Println("Welcome to Insights CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("snapshot", "", "Path to a JSON snapshot file (overrides SNAPSHOT_SOURCE)")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// newSnapshotSource builds the configured snapshot source, honoring the
// --snapshot flag override.
func newSnapshotSource(ctx context.Context, cmd *cobra.Command) (snapshot.Source, error) {
	if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
		return snapshot.NewFileSource(path), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	switch cfg.SnapshotSource {
	case config.SourceSheets:
		return snapshot.NewSheetsSource(ctx, cfg.GoogleSheetURL)
	default:
		return snapshot.NewFileSource(cfg.SnapshotFile), nil
	}
}
