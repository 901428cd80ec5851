package insight

import (
	"sort"
	"time"

	"insights/internal/analytics"
	"insights/internal/snapshot"
)

// topListSize caps the highlight lists bundled into the context.
const topListSize = 5

// SnapshotSummary carries the headline statistics for the whole snapshot.
type SnapshotSummary struct {
	TotalClients    int   `json:"total_clients"`
	ActiveClients   int   `json:"active_clients"`
	TotalInvoices   int   `json:"total_invoices"`
	TotalItems      int   `json:"total_items"`
	TotalRevenue    int64 `json:"total_revenue"`
	UnpaidInvoices  int   `json:"unpaid_invoices"`
	OverdueInvoices int   `json:"overdue_invoices"`
	RecentInvoices  int   `json:"recent_invoices"`
	RecentRevenue   int64 `json:"recent_revenue"`
}

// ClientHighlight is one entry of the top-clients list.
type ClientHighlight struct {
	ClientID      string    `json:"client_id"`
	Name          string    `json:"name"`
	TotalSpent    int64     `json:"total_spent"`
	TotalInvoices int       `json:"total_invoices"`
	LastPurchase  time.Time `json:"last_purchase"`
}

// ItemHighlight is one entry of the top-items list.
type ItemHighlight struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	TotalRevenue int64  `json:"total_revenue"`
	UnitsSold    int    `json:"units_sold"`
}

// AnalysisContext is the fixed-shape context object handed to the
// summarization collaborator together with the original query. The
// analysis-type specific sections are populated selectively by the
// assembler.
type AnalysisContext struct {
	Query string       `json:"query"`
	Type  AnalysisType `json:"analysis_type"`

	Summary    SnapshotSummary   `json:"summary"`
	TopClients []ClientHighlight `json:"top_clients,omitempty"`
	TopItems   []ItemHighlight   `json:"top_items,omitempty"`

	ChurnRisks      []*analytics.ChurnRiskResult `json:"churn_risks,omitempty"`
	PatternChanges  []*analytics.PatternChange   `json:"pattern_changes,omitempty"`
	Recommendations []*analytics.Recommendation  `json:"recommendations,omitempty"`
}

// buildSummary computes the headline statistics from the snapshot and the
// client aggregates.
func buildSummary(snap *snapshot.Snapshot, clientAggs map[string]*analytics.ClientAggregate) SnapshotSummary {
	summary := SnapshotSummary{
		TotalClients:  len(snap.Clients),
		ActiveClients: len(snap.ActiveClients()),
		TotalInvoices: len(snap.Invoices),
		TotalItems:    len(snap.Items),
	}
	for _, agg := range clientAggs {
		summary.TotalRevenue += agg.TotalSpent
		summary.UnpaidInvoices += agg.UnpaidCount
		summary.OverdueInvoices += agg.OverdueCount
		summary.RecentInvoices += agg.RecentInvoices
		summary.RecentRevenue += agg.RecentSpent
	}
	return summary
}

// topClients returns the highest-spending clients, ties broken by client
// id for a stable ordering.
func topClients(clientAggs map[string]*analytics.ClientAggregate) []ClientHighlight {
	highlights := make([]ClientHighlight, 0, len(clientAggs))
	for _, agg := range clientAggs {
		highlights = append(highlights, ClientHighlight{
			ClientID:      agg.ClientID,
			Name:          agg.Name,
			TotalSpent:    agg.TotalSpent,
			TotalInvoices: agg.TotalInvoices,
			LastPurchase:  agg.LastPurchaseDate,
		})
	}
	sort.Slice(highlights, func(i, j int) bool {
		if highlights[i].TotalSpent != highlights[j].TotalSpent {
			return highlights[i].TotalSpent > highlights[j].TotalSpent
		}
		return highlights[i].ClientID < highlights[j].ClientID
	})
	if len(highlights) > topListSize {
		highlights = highlights[:topListSize]
	}
	return highlights
}

// topItems returns the highest-revenue items, ties broken by item id.
func topItems(itemAggs map[string]*analytics.ItemAggregate) []ItemHighlight {
	highlights := make([]ItemHighlight, 0, len(itemAggs))
	for _, agg := range itemAggs {
		highlights = append(highlights, ItemHighlight{
			ItemID:       agg.ItemID,
			Name:         agg.Name,
			TotalRevenue: agg.TotalRevenue,
			UnitsSold:    agg.TotalUnitsSold,
		})
	}
	sort.Slice(highlights, func(i, j int) bool {
		if highlights[i].TotalRevenue != highlights[j].TotalRevenue {
			return highlights[i].TotalRevenue > highlights[j].TotalRevenue
		}
		return highlights[i].ItemID < highlights[j].ItemID
	})
	if len(highlights) > topListSize {
		highlights = highlights[:topListSize]
	}
	return highlights
}

// sortedChurnRisks flattens the churn map into a list ordered by
// descending score, dropping zero-score clients, ties broken by client id.
func sortedChurnRisks(risks map[string]*analytics.ChurnRiskResult) []*analytics.ChurnRiskResult {
	var list []*analytics.ChurnRiskResult
	for _, r := range risks {
		if r.RiskScore > 0 {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].RiskScore != list[j].RiskScore {
			return list[i].RiskScore > list[j].RiskScore
		}
		return list[i].ClientID < list[j].ClientID
	})
	return list
}

// sortedPatternChanges flattens the pattern change map ordered by client id.
func sortedPatternChanges(changes map[string]*analytics.PatternChange) []*analytics.PatternChange {
	list := make([]*analytics.PatternChange, 0, len(changes))
	for _, c := range changes {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ClientID < list[j].ClientID
	})
	return list
}
