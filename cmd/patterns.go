package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"insights/internal/analytics"
	"insights/internal/logger"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Detect significant shifts in client buying patterns",
	Long: `Compare each client's recent purchase window against the equal-length
window immediately before it and report clients whose spend or invoice
count moved by more than 20% in either direction.`,
	Example: `  # Compare the last 3 months against the 3 months before
  insights patterns

  # Use 6-month windows, as of a fixed date
  insights patterns --timeframe 6months --as-of 2026-06-30`,
	RunE: runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)

	patternsCmd.Flags().String("timeframe", string(analytics.Timeframe3Months), "Comparison window: 3months or 6months")
	patternsCmd.Flags().String("as-of", "", "Reference date for the analysis (format: YYYY-MM-DD, default: today)")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("patterns")

	timeframeStr, _ := cmd.Flags().GetString("timeframe")
	asOfStr, _ := cmd.Flags().GetString("as-of")

	timeframe, err := analytics.ParseTimeframe(timeframeStr)
	if err != nil {
		return err
	}

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

	log.Info().
		Str("timeframe", string(timeframe)).
		Str("as_of", now.Format("2006-01-02")).
		Int("invoices", len(snap.Invoices)).
		Msg("Detecting pattern changes")

	changes, err := analytics.DetectPatternChanges(snap.Invoices, timeframe, now)
	if err != nil {
		return fmt.Errorf("pattern detection failed: %w", err)
	}

	if len(changes) == 0 {
		fmt.Println("No significant pattern changes detected.")
		return nil
	}

	list := make([]*analytics.PatternChange, 0, len(changes))
	for _, c := range changes {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ClientID < list[j].ClientID })

	fmt.Printf("Pattern changes over %s windows as of %s:\n\n", timeframe, now.Format("2006-01-02"))
	for _, c := range list {
		fmt.Printf("%s (%s)\n", c.ClientName, c.ClientID)
		for _, change := range c.Changes {
			fmt.Printf("  - %s\n", change)
		}
	}

	log.Info().Int("clients_with_changes", len(list)).Msg("Pattern change report completed")
	return nil
}
