package analytics

import (
	"time"

	"insights/pkg/models"
)

// Churn risk factor labels, in the order the scorer evaluates them.
const (
	FactorVolumeDecline    = "Significant decline in purchase volume"
	FactorFrequencyDecline = "Reduced purchase frequency"
	FactorPaymentDelays    = "Extended payment delays"
	FactorNoRecentActivity = "No recent purchases"
	FactorOverdueInvoices  = "Has overdue invoices"
)

// Scoring weights for the individual risk factors. The factors are
// independent and may all fire at once; the final score is clamped to
// [0, 100].
const (
	pointsVolumeDecline    = 30
	pointsFrequencyDecline = 25
	pointsPaymentDelays    = 20
	pointsNoRecentActivity = 25
	pointsOverdueInvoices  = 15

	// paymentDelayThresholdDays is the overdue delay beyond which the
	// payment delay factor fires.
	paymentDelayThresholdDays = 30

	maxRiskScore = 100
)

// ChurnMetrics holds the window comparison figures backing a risk score.
type ChurnMetrics struct {
	RecentSpent         int64 `json:"recent_spent"`
	OlderSpent          int64 `json:"older_spent"`
	RecentInvoices      int   `json:"recent_invoices"`
	OlderInvoices       int   `json:"older_invoices"`
	OverdueInvoices     int   `json:"overdue_invoices"`
	MaxPaymentDelayDays int   `json:"max_payment_delay_days"`
}

// ChurnRiskResult is the churn assessment for a single client.
type ChurnRiskResult struct {
	ClientID    string       `json:"client_id"`
	ClientName  string       `json:"client_name"`
	RiskScore   int          `json:"risk_score"` // 0-100
	RiskFactors []string     `json:"risk_factors"`
	Metrics     ChurnMetrics `json:"metrics"`
}

// ComputeChurnRisk scores every active client by comparing its trailing
// recent window (last RecentWindowDays days) against the equal-length
// window immediately before it, plus its payment behaviour. A client with
// no invoices in either window scores 0 with no factors: absence of data
// is not evidence of risk.
func ComputeChurnRisk(invoices []models.Invoice, clients []models.Client, now time.Time) map[string]*ChurnRiskResult {
	return ComputeChurnRiskWindow(invoices, clients, now, RecentWindowDays)
}

// ComputeChurnRiskWindow is ComputeChurnRisk with an explicit recent-window
// length in days.
func ComputeChurnRiskWindow(invoices []models.Invoice, clients []models.Client, now time.Time, windowDays int) map[string]*ChurnRiskResult {
	recentCutoff := now.AddDate(0, 0, -windowDays)
	olderCutoff := now.AddDate(0, 0, -2*windowDays)

	// Window figures bucketed by client id in a single pass.
	byClient := make(map[string]*ChurnMetrics)

	for _, inv := range invoices {
		if inv.Client == nil {
			continue
		}
		m, ok := byClient[inv.Client.ID]
		if !ok {
			m = &ChurnMetrics{}
			byClient[inv.Client.ID] = m
		}

		switch {
		case inv.IssueDate.After(recentCutoff):
			m.RecentInvoices++
			m.RecentSpent += inv.Total
		case inv.IssueDate.After(olderCutoff):
			m.OlderInvoices++
			m.OlderSpent += inv.Total
		}

		if inv.IsOverdue(now) {
			m.OverdueInvoices++
			if delay := inv.DaysOverdue(now); delay > m.MaxPaymentDelayDays {
				m.MaxPaymentDelayDays = delay
			}
		}
	}

	results := make(map[string]*ChurnRiskResult, len(clients))
	for _, client := range clients {
		if !client.IsActive() {
			continue
		}

		metrics := ChurnMetrics{}
		if m, ok := byClient[client.ID]; ok {
			metrics = *m
		}

		score, factors := scoreChurnRisk(metrics)
		results[client.ID] = &ChurnRiskResult{
			ClientID:    client.ID,
			ClientName:  client.Name,
			RiskScore:   score,
			RiskFactors: factors,
			Metrics:     metrics,
		}
	}

	return results
}

// scoreChurnRisk applies the additive scoring policy to one client's
// window metrics. Raw points can exceed 100 before clamping.
func scoreChurnRisk(m ChurnMetrics) (int, []string) {
	score := 0
	var factors []string

	if m.OlderSpent > 0 && 2*m.RecentSpent < m.OlderSpent {
		score += pointsVolumeDecline
		factors = append(factors, FactorVolumeDecline)
	}

	if m.OlderInvoices > 0 && 2*m.RecentInvoices < m.OlderInvoices {
		score += pointsFrequencyDecline
		factors = append(factors, FactorFrequencyDecline)
	}

	if m.MaxPaymentDelayDays > paymentDelayThresholdDays {
		score += pointsPaymentDelays
		factors = append(factors, FactorPaymentDelays)
	}

	if m.OlderInvoices > 0 && m.RecentInvoices == 0 {
		score += pointsNoRecentActivity
		factors = append(factors, FactorNoRecentActivity)
	}

	if m.OverdueInvoices > 0 {
		score += pointsOverdueInvoices
		factors = append(factors, FactorOverdueInvoices)
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score, factors
}
