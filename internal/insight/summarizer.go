package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"insights/internal/logger"
)

// Summarizer is the external natural-language collaborator. It receives
// the assembled context plus the original query and returns free-form
// text; this package only splits that text, it never generates language.
type Summarizer interface {
	Summarize(ctx context.Context, query string, analysisCtx *AnalysisContext) (string, error)
}

// ChatGPTSummarizer implements Summarizer using the OpenAI chat API.
type ChatGPTSummarizer struct {
	client      *openai.Client
	model       string
	temperature float32
	log         zerolog.Logger
}

// NewChatGPTSummarizer creates a summarizer backed by the given OpenAI
// client.
func NewChatGPTSummarizer(client *openai.Client, model string, temperature float32) *ChatGPTSummarizer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &ChatGPTSummarizer{
		client:      client,
		model:       model,
		temperature: temperature,
		log:         logger.WithComponent("summarizer-chatgpt"),
	}
}

// Summarize sends the query and the JSON-encoded context to the model and
// returns its reply as plain text.
func (s *ChatGPTSummarizer) Summarize(ctx context.Context, query string, analysisCtx *AnalysisContext) (string, error) {
	const op = "Summarize"

	contextJSON, err := json.MarshalIndent(analysisCtx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: failed to marshal analysis context: %w", op, err)
	}

	prompt := fmt.Sprintf(`You are a business analyst reviewing invoice analytics for a small business.

QUESTION:
%s

ANALYTICS DATA (amounts are in cents):
%s

Answer the question based only on the data above. Write a first paragraph
with a concise summary, then one short paragraph per additional insight.
Separate paragraphs with a blank line. Plain text only, no markdown, no
headings, no bullet lists.`, query, string(contextJSON))

	s.log.Debug().
		Str("model", s.model).
		Str("analysis_type", string(analysisCtx.Type)).
		Int("context_bytes", len(contextJSON)).
		Msg("Sending summarization request")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: s.temperature,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("%s: completion request failed: %w", op, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices from model", op)
	}

	return stripCodeFences(resp.Choices[0].Message.Content), nil
}

// stripCodeFences removes a markdown code fence that some models wrap
// their reply in despite instructions.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// splitSummary extracts the first paragraph as the summary and the
// remaining paragraphs as discrete insight entries. A purely textual
// heuristic, not semantic parsing.
func splitSummary(text string) (string, []string) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if normalized == "" {
		return "", nil
	}

	var paragraphs []string
	for _, block := range strings.Split(normalized, "\n\n") {
		if p := strings.TrimSpace(block); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return "", nil
	}
	return paragraphs[0], paragraphs[1:]
}
