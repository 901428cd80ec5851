package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"insights/internal/analytics"
	"insights/internal/logger"
	"insights/internal/snapshot"
)

// AnalysisRequest is one free-text analytics query.
type AnalysisRequest struct {
	Query string

	// ClientID targets the recommendation analyses at a specific client.
	// Optional for the other analysis types.
	ClientID string

	// Timeframe for pattern analysis. Defaults to 3 months.
	Timeframe analytics.Timeframe

	// Now is the reference timestamp for all time-windowed computation.
	// Defaults to the wall clock; tests inject a fixed value.
	Now time.Time

	// WindowDays is the recent-window length for the aggregates and the
	// churn scorer. Non-positive values fall back to the default window.
	WindowDays int
}

// AnalysisResponse is the packaged result of one query.
type AnalysisResponse struct {
	RequestID string           `json:"request_id"`
	Type      AnalysisType     `json:"analysis_type"`
	Summary   string           `json:"summary"`
	Insights  []string         `json:"insights"`
	Context   *AnalysisContext `json:"context"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Service answers free-text analytics queries.
type Service interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}

// DefaultService orchestrates snapshot fetch, classification, aggregation
// and summarization. Every call recomputes from a fresh snapshot; the
// service holds no mutable state between requests, so concurrent calls do
// not interfere.
type DefaultService struct {
	source     snapshot.Source
	summarizer Summarizer
	log        zerolog.Logger
}

// NewService creates the analysis service with its two collaborators.
func NewService(source snapshot.Source, summarizer Summarizer) *DefaultService {
	return &DefaultService{
		source:     source,
		summarizer: summarizer,
		log:        logger.WithComponent("insight-service"),
	}
}

// Analyze validates the query, classifies it, assembles the matching
// context and asks the summarization collaborator for a reply. A
// collaborator failure surfaces as ErrAnalysisUnavailable.
func (s *DefaultService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	const op = "Analyze"

	requestID := uuid.NewString()
	log := logger.WithRequestID(requestID)

	if err := validateQuery(req.Query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	analysisCtx, err := s.AssembleContext(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("analysis_type", string(analysisCtx.Type)).
		Str("client_id", req.ClientID).
		Msg("Context assembled, requesting summary")

	reply, err := s.summarizer.Summarize(ctx, req.Query, analysisCtx)
	if err != nil {
		log.Error().Err(err).Msg("Summarization collaborator failed")
		return nil, unavailable(op, err, "summarizer failed")
	}

	summary, insights := splitSummary(reply)

	log.Info().
		Str("analysis_type", string(analysisCtx.Type)).
		Int("insights", len(insights)).
		Msg("Analysis completed")

	return &AnalysisResponse{
		RequestID:   requestID,
		Type:        analysisCtx.Type,
		Summary:     summary,
		Insights:    insights,
		Context:     analysisCtx,
		GeneratedAt: now,
	}, nil
}

// AssembleContext fetches a fresh snapshot, classifies the query and
// bundles the matching aggregates into the fixed-shape context object.
// Exposed separately so callers can inspect the context without invoking
// the language model.
func (s *DefaultService) AssembleContext(ctx context.Context, req AnalysisRequest) (*AnalysisContext, error) {
	const op = "AssembleContext"

	if err := validateQuery(req.Query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = analytics.Timeframe3Months
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = analytics.RecentWindowDays
	}

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Snapshot fetch failed")
		return nil, unavailable(op, err, "snapshot source failed")
	}

	analysisType := ClassifyQuery(req.Query)

	clientAggs := analytics.AggregateClientPurchasesWindow(snap.Invoices, now, windowDays)
	itemAggs := analytics.AggregateItemPerformance(snap.Invoices, snap.Items)

	analysisCtx := &AnalysisContext{
		Query:      req.Query,
		Type:       analysisType,
		Summary:    buildSummary(snap, clientAggs),
		TopClients: topClients(clientAggs),
		TopItems:   topItems(itemAggs),
	}

	switch analysisType {
	case AnalysisChurnRisk:
		risks := analytics.ComputeChurnRiskWindow(snap.Invoices, snap.Clients, now, windowDays)
		analysisCtx.ChurnRisks = sortedChurnRisks(risks)

	case AnalysisPatternAnalysis:
		changes, err := analytics.DetectPatternChanges(snap.Invoices, timeframe, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		analysisCtx.PatternChanges = sortedPatternChanges(changes)

	case AnalysisProductRecommendation, AnalysisCrossSellUpsell:
		if req.ClientID != "" {
			analysisCtx.Recommendations = analytics.RecommendProducts(req.ClientID, snap.Invoices, snap.Items)
		}

	case AnalysisGeneral:
		// The general context carries the risk list alongside the top
		// lists so the summarizer can flag at-risk clients unprompted.
		risks := analytics.ComputeChurnRiskWindow(snap.Invoices, snap.Clients, now, windowDays)
		list := sortedChurnRisks(risks)
		if len(list) > topListSize {
			list = list[:topListSize]
		}
		analysisCtx.ChurnRisks = list
	}

	return analysisCtx, nil
}

// validateQuery enforces the query length contract.
func validateQuery(query string) error {
	if query == "" {
		return ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrQueryTooLong, len(query), MaxQueryLength)
	}
	return nil
}
