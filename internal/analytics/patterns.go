package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"insights/pkg/models"
)

// Timeframe selects the window length for pattern change detection.
type Timeframe string

const (
	Timeframe3Months Timeframe = "3months"
	Timeframe6Months Timeframe = "6months"
)

// significanceThresholdPct is the absolute percentage change above which
// a swing in spend or frequency counts as a pattern change.
const significanceThresholdPct = 20.0

// ParseTimeframe validates a timeframe selector string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case Timeframe3Months, Timeframe6Months:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownTimeframe, s, Timeframe3Months, Timeframe6Months)
}

// Days returns the window length in days for the timeframe.
func (t Timeframe) Days() int {
	if t == Timeframe6Months {
		return 180
	}
	return 90
}

// PatternMetrics holds the window comparison backing a pattern change.
type PatternMetrics struct {
	RecentSpent        int64    `json:"recent_spent"`
	OlderSpent         int64    `json:"older_spent"`
	RecentInvoices     int      `json:"recent_invoices"`
	OlderInvoices      int      `json:"older_invoices"`
	VolumeChangePct    float64  `json:"volume_change_pct"`
	FrequencyChangePct float64  `json:"frequency_change_pct"`
	RecentItems        []string `json:"recent_items"`
	OlderItems         []string `json:"older_items"`
}

// PatternChange describes a significant shift in one client's buying
// pattern between two adjacent time windows.
type PatternChange struct {
	ClientID   string         `json:"client_id"`
	ClientName string         `json:"client_name"`
	Changes    []string       `json:"changes"`
	Metrics    PatternMetrics `json:"metrics"`
}

// DetectPatternChanges partitions each active client's invoices into a recent
// window of the selected timeframe and the equal-length window immediately
// before it, then flags clients whose spend or invoice count moved by more
// than 20% between the two. Clients without a significant change in either
// metric are omitted from the result.
func DetectPatternChanges(invoices []models.Invoice, timeframe Timeframe, now time.Time) (map[string]*PatternChange, error) {
	if _, err := ParseTimeframe(string(timeframe)); err != nil {
		return nil, err
	}

	days := timeframe.Days()
	recentCutoff := now.AddDate(0, 0, -days)
	olderCutoff := now.AddDate(0, 0, -2*days)

	type windowed struct {
		name        string
		metrics     PatternMetrics
		recentItems map[string]struct{}
		olderItems  map[string]struct{}
	}
	byClient := make(map[string]*windowed)

	for _, inv := range invoices {
		if inv.Client == nil || !inv.Client.IsActive() {
			continue
		}
		w, ok := byClient[inv.Client.ID]
		if !ok {
			w = &windowed{
				name:        inv.Client.Name,
				recentItems: make(map[string]struct{}),
				olderItems:  make(map[string]struct{}),
			}
			byClient[inv.Client.ID] = w
		}

		switch {
		case inv.IssueDate.After(recentCutoff):
			w.metrics.RecentInvoices++
			w.metrics.RecentSpent += inv.Total
			for _, item := range inv.Items {
				w.recentItems[item.Name] = struct{}{}
			}
		case inv.IssueDate.After(olderCutoff):
			w.metrics.OlderInvoices++
			w.metrics.OlderSpent += inv.Total
			for _, item := range inv.Items {
				w.olderItems[item.Name] = struct{}{}
			}
		}
	}

	changes := make(map[string]*PatternChange)
	for clientID, w := range byClient {
		m := w.metrics
		m.VolumeChangePct = percentChange(float64(m.RecentSpent), float64(m.OlderSpent))
		m.FrequencyChangePct = percentChange(float64(m.RecentInvoices), float64(m.OlderInvoices))

		var descriptions []string
		if math.Abs(m.VolumeChangePct) > significanceThresholdPct {
			descriptions = append(descriptions, describeChange("Purchase volume", m.VolumeChangePct))
		}
		if math.Abs(m.FrequencyChangePct) > significanceThresholdPct {
			descriptions = append(descriptions, describeChange("Purchase frequency", m.FrequencyChangePct))
		}
		if len(descriptions) == 0 {
			continue
		}

		m.RecentItems = sortedKeys(w.recentItems)
		m.OlderItems = sortedKeys(w.olderItems)

		changes[clientID] = &PatternChange{
			ClientID:   clientID,
			ClientName: w.name,
			Changes:    descriptions,
			Metrics:    m,
		}
	}

	return changes, nil
}

// percentChange returns the percentage change from older to recent.
// A missing older window means there is nothing to compare against, so
// the change is 0%, not infinite.
func percentChange(recent, older float64) float64 {
	if older == 0 {
		return 0
	}
	return (recent - older) / older * 100
}

func describeChange(metric string, pct float64) string {
	direction := "increased"
	if pct < 0 {
		direction = "decreased"
	}
	return fmt.Sprintf("%s %s by %.1f%%", metric, direction, math.Abs(pct))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
