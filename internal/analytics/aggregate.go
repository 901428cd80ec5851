// Package analytics computes derived analytics from an in-memory snapshot
// of invoices, clients and catalogue items: per-client and per-item
// rollups, churn risk scores, buying pattern changes and similarity-based
// product recommendations.
//
// All functions are pure reductions over the snapshot they are given: the
// input records are never mutated, nothing is cached between calls, and
// the "now" timestamp is always an explicit parameter so results are
// deterministic under test. Cost scales linearly with invoice count per
// call (pairwise by client for recommendations).
package analytics

import (
	"sort"
	"time"

	"insights/internal/logger"
	"insights/pkg/models"
)

// RecentWindowDays is the length of the trailing activity window used by
// the client aggregator and the churn scorer. The comparison window is
// the equal-length period immediately before it.
const RecentWindowDays = 90

// ClientAggregate is a per-client rollup over all of the client's invoices.
// Recomputed from the snapshot on every call, never persisted.
type ClientAggregate struct {
	ClientID string
	Name     string

	TotalInvoices int
	TotalSpent    int64 // cents
	PaidCount     int
	UnpaidCount   int
	OverdueCount  int

	// Activity within the trailing recent window.
	RecentInvoices int
	RecentSpent    int64

	// Distinct names of items the client has purchased.
	ItemsPurchased map[string]struct{}

	LastPurchaseDate    time.Time
	MaxPaymentDelayDays int // Largest overdue delay among unpaid overdue invoices
}

// ItemNames returns the purchased item names as a sorted slice.
func (a *ClientAggregate) ItemNames() []string {
	names := make([]string, 0, len(a.ItemsPurchased))
	for name := range a.ItemsPurchased {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemAggregate is a per-item rollup over all invoices, including
// catalogue items that were never sold.
type ItemAggregate struct {
	ItemID       string
	Name         string
	UnitPrice    int64 // cents, current catalogue price
	CurrentStock int

	// TotalUnitsSold counts one unit per invoice line; per-line quantities
	// are not tracked in the invoice relationship.
	TotalUnitsSold int

	// TotalRevenue is computed from the item's current unit price, not the
	// price at sale time, so figures drift when prices change. Known
	// limitation.
	TotalRevenue int64
	InvoiceCount int
	LastSaleDate time.Time
}

// AggregateClientPurchases builds per-client rollups from the invoice list
// using the default recent window. Invoices whose client reference could
// not be resolved are skipped with a warning rather than failing the
// whole aggregation; invoices of inactive clients are skipped too, since
// only active clients participate in analytics.
func AggregateClientPurchases(invoices []models.Invoice, now time.Time) map[string]*ClientAggregate {
	return AggregateClientPurchasesWindow(invoices, now, RecentWindowDays)
}

// AggregateClientPurchasesWindow is AggregateClientPurchases with an
// explicit recent-window length in days.
func AggregateClientPurchasesWindow(invoices []models.Invoice, now time.Time, windowDays int) map[string]*ClientAggregate {
	log := logger.WithComponent("client-aggregator")
	recentCutoff := now.AddDate(0, 0, -windowDays)

	aggregates := make(map[string]*ClientAggregate)
	skipped := 0

	for _, inv := range invoices {
		if inv.Client == nil {
			skipped++
			log.Warn().
				Str("invoice_id", inv.ID).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("Invoice has no resolved client, skipping")
			continue
		}
		if !inv.Client.IsActive() {
			continue
		}

		agg, ok := aggregates[inv.Client.ID]
		if !ok {
			agg = &ClientAggregate{
				ClientID:       inv.Client.ID,
				Name:           inv.Client.Name,
				ItemsPurchased: make(map[string]struct{}),
			}
			aggregates[inv.Client.ID] = agg
		}

		agg.TotalInvoices++
		agg.TotalSpent += inv.Total

		if inv.IsPaid() {
			agg.PaidCount++
		} else {
			agg.UnpaidCount++
		}

		if inv.IsOverdue(now) {
			agg.OverdueCount++
			if delay := inv.DaysOverdue(now); delay > agg.MaxPaymentDelayDays {
				agg.MaxPaymentDelayDays = delay
			}
		}

		if inv.IssueDate.After(recentCutoff) {
			agg.RecentInvoices++
			agg.RecentSpent += inv.Total
		}

		for _, item := range inv.Items {
			agg.ItemsPurchased[item.Name] = struct{}{}
		}

		if inv.IssueDate.After(agg.LastPurchaseDate) {
			agg.LastPurchaseDate = inv.IssueDate
		}
	}

	if skipped > 0 {
		log.Warn().
			Int("skipped", skipped).
			Int("aggregated_clients", len(aggregates)).
			Msg("Some invoices were skipped due to unresolved client references")
	}

	return aggregates
}

// AggregateItemPerformance builds per-item rollups from the invoice list.
// Every catalogue item gets an aggregate, so unsold inventory stays
// visible with zero totals. Invoice lines referencing items missing from
// the catalogue are skipped.
func AggregateItemPerformance(invoices []models.Invoice, items []models.Item) map[string]*ItemAggregate {
	log := logger.WithComponent("item-aggregator")

	aggregates := make(map[string]*ItemAggregate, len(items))
	for _, item := range items {
		aggregates[item.ID] = &ItemAggregate{
			ItemID:       item.ID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			CurrentStock: item.Quantity,
		}
	}

	for _, inv := range invoices {
		// Count each item at most once per invoice for the invoice counter;
		// units sold still counts every line.
		countedInInvoice := make(map[string]bool, len(inv.Items))

		for _, line := range inv.Items {
			agg, ok := aggregates[line.ID]
			if !ok {
				log.Warn().
					Str("invoice_id", inv.ID).
					Str("item_id", line.ID).
					Msg("Invoice line references item missing from catalogue, skipping line")
				continue
			}

			agg.TotalUnitsSold++
			agg.TotalRevenue += agg.UnitPrice

			if !countedInInvoice[line.ID] {
				agg.InvoiceCount++
				countedInInvoice[line.ID] = true
			}

			if inv.IssueDate.After(agg.LastSaleDate) {
				agg.LastSaleDate = inv.IssueDate
			}
		}
	}

	return aggregates
}
