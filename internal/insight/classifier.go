// Package insight turns free-text analytics queries into structured
// context for an external language model: it classifies the query into an
// analysis type, computes the matching aggregates over a fresh snapshot,
// assembles a fixed-shape context object and hands it to a summarization
// collaborator. Natural-language generation itself happens outside this
// package.
package insight

import "strings"

// AnalysisType identifies which analysis a query maps to.
type AnalysisType string

const (
	AnalysisProductRecommendation AnalysisType = "product_recommendation"
	AnalysisCrossSellUpsell       AnalysisType = "cross_sell_upsell"
	AnalysisChurnRisk             AnalysisType = "churn_risk"
	AnalysisPatternAnalysis       AnalysisType = "pattern_analysis"
	AnalysisGeneral               AnalysisType = "general_analysis"
)

// MaxQueryLength is the longest accepted query text.
const MaxQueryLength = 500

// classificationRule maps trigger keywords to an analysis type.
type classificationRule struct {
	Type     AnalysisType
	Keywords []string
}

// classificationRules is evaluated in order and the first matching rule
// wins, so precedence is explicit: a query mentioning both "recommend"
// and "churn" classifies as product_recommendation.
var classificationRules = []classificationRule{
	{AnalysisProductRecommendation, []string{"likely to buy", "recommend", "suggest"}},
	{AnalysisCrossSellUpsell, []string{"cross-sell", "up-sell"}},
	{AnalysisChurnRisk, []string{"churn", "risk"}},
	{AnalysisPatternAnalysis, []string{"pattern", "change", "trend"}},
}

// ClassifyQuery maps a free-text query to an analysis type by
// case-insensitive keyword matching. Queries matching no rule fall back
// to general_analysis.
func ClassifyQuery(query string) AnalysisType {
	lowered := strings.ToLower(query)
	for _, rule := range classificationRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowered, keyword) {
				return rule.Type
			}
		}
	}
	return AnalysisGeneral
}
