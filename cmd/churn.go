package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"insights/internal/analytics"
	"insights/internal/config"
	"insights/internal/logger"
)

var churnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Score churn risk for all active clients",
	Long: `Compute a 0-100 churn risk score for every active client by comparing
recent purchase activity against the preceding window and checking payment
behaviour. Each score comes with the risk factors that produced it.`,
	Example: `  # Score all active clients
  insights churn

  # Only show clients at or above a score of 40, as of a fixed date
  insights churn --min-score 40 --as-of 2026-06-30`,
	RunE: runChurn,
}

func init() {
	rootCmd.AddCommand(churnCmd)

	churnCmd.Flags().String("as-of", "", "Reference date for the analysis (format: YYYY-MM-DD, default: today)")
	churnCmd.Flags().Int("min-score", 1, "Only report clients with at least this risk score")
}

func runChurn(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("churn")

	asOfStr, _ := cmd.Flags().GetString("as-of")
	minScore, _ := cmd.Flags().GetInt("min-score")

	now, err := parseAsOf(asOfStr)
	if err != nil {
		return err
	}

	ctx := context.Background()

	source, err := newSnapshotSource(ctx, cmd)
	if err != nil {
		return err
	}

	snap, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	windowDays := config.AnalysisWindow()

	log.Info().
		Str("as_of", now.Format("2006-01-02")).
		Int("min_score", minScore).
		Int("window_days", windowDays).
		Int("invoices", len(snap.Invoices)).
		Int("clients", len(snap.Clients)).
		Msg("Computing churn risk")

	risks := analytics.ComputeChurnRiskWindow(snap.Invoices, snap.Clients, now, windowDays)

	results := make([]*analytics.ChurnRiskResult, 0, len(risks))
	for _, r := range risks {
		if r.RiskScore >= minScore {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].RiskScore != results[j].RiskScore {
			return results[i].RiskScore > results[j].RiskScore
		}
		return results[i].ClientID < results[j].ClientID
	})

	if len(results) == 0 {
		fmt.Println("No clients at or above the requested risk score.")
		return nil
	}

	fmt.Printf("Churn risk as of %s:\n\n", now.Format("2006-01-02"))
	for _, r := range results {
		fmt.Printf("%3d  %s (%s)\n", r.RiskScore, r.ClientName, r.ClientID)
		if len(r.RiskFactors) > 0 {
			fmt.Printf("     %s\n", strings.Join(r.RiskFactors, "; "))
		}
	}

	log.Info().Int("reported_clients", len(results)).Msg("Churn risk report completed")
	return nil
}

// parseAsOf parses the --as-of flag, defaulting to the current time.
func parseAsOf(asOf string) (time.Time, error) {
	if asOf == "" {
		return time.Now(), nil
	}
	parsed, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}
