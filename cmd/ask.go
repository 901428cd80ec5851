package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"insights/internal/analytics"
	"insights/internal/config"
	"insights/internal/insight"
	"insights/internal/logger"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a free-text analytics question with an AI summary",
	Long: `Classify a free-text question into an analysis type, compute the
matching analytics over a fresh snapshot and have the language model
summarize the result.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key (not needed with --dry-run)`,
	Example: `  insights ask "Which clients show signs of churn risk?"

  # Target the recommendation analyses at a client
  insights ask "What is client c-1042 likely to buy next?" --client c-1042

  # Inspect the assembled context without calling the model
  insights ask "How are sales trending?" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("client", "", "Target client ID for recommendation queries")
	askCmd.Flags().String("timeframe", string(analytics.Timeframe3Months), "Window for pattern queries: 3months or 6months")
	askCmd.Flags().Bool("dry-run", false, "Print the assembled context instead of calling the model")
}

func runAsk(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ask")

	query := args[0]
	clientID, _ := cmd.Flags().GetString("client")
	timeframeStr, _ := cmd.Flags().GetString("timeframe")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	timeframe, err := analytics.ParseTimeframe(timeframeStr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	source, err := newSnapshotSource(ctx, cmd)
	if err != nil {
		return err
	}

	req := insight.AnalysisRequest{
		Query:      query,
		ClientID:   clientID,
		Timeframe:  timeframe,
		WindowDays: config.AnalysisWindow(),
	}

	if dryRun {
		service := insight.NewService(source, nil)
		analysisCtx, err := service.AssembleContext(ctx, req)
		if err != nil {
			return err
		}
		encoded, err := json.MarshalIndent(analysisCtx, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode context: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	summarizer := insight.NewChatGPTSummarizer(openai.NewClient(apiKey), cfg.OpenAIModel, cfg.OpenAITemperature)
	service := insight.NewService(source, summarizer)

	log.Info().
		Str("query", query).
		Str("client_id", clientID).
		Msg("Running analysis")

	response, err := service.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("Analysis type: %s\n\n", response.Type)
	fmt.Println(response.Summary)
	if len(response.Insights) > 0 {
		fmt.Println()
		for _, ins := range response.Insights {
			fmt.Printf("- %s\n", ins)
		}
	}

	log.Info().
		Str("request_id", response.RequestID).
		Str("analysis_type", string(response.Type)).
		Msg("Analysis completed")
	return nil
}
