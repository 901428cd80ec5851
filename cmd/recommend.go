package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"insights/internal/analytics"
	"insights/internal/logger"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend products for a client",
	Long: `Rank up to 5 items the client has not purchased yet, based on clients
with overlapping purchase history. Each recommendation names the similar
clients whose purchases drove it.`,
	Example: `  insights recommend --client c-1042`,
	RunE:    runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().String("client", "", "Target client ID (required)")
	recommendCmd.MarkFlagRequired("client")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recommend")

	clientID, _ := cmd.Flags().GetString("client")

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
		Str("client_id", clientID).
		Int("invoices", len(snap.Invoices)).
		Int("items", len(snap.Items)).
		Msg("Computing recommendations")

	recommendations := analytics.RecommendProducts(clientID, snap.Invoices, snap.Items)

	if len(recommendations) == 0 {
		fmt.Printf("No recommendations for client %s (no overlapping purchase history found).\n", clientID)
		return nil
	}

	fmt.Printf("Recommendations for client %s:\n\n", clientID)
	for i, rec := range recommendations {
		fmt.Printf("%d. %s (%.2f) - score %.2f, %s\n",
			i+1, rec.ItemName, float64(rec.UnitPrice)/100, rec.Score, rec.Status)
		for _, reason := range rec.Reasons {
			fmt.Printf("   %s\n", reason)
		}
	}

	log.Info().Int("recommendations", len(recommendations)).Msg("Recommendation report completed")
	return nil
}
