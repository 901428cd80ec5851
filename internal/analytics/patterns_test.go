package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/analytics"
	"insights/pkg/models"
)

func TestDetectPatternChangesVolumeIncrease(t *testing.T) {
	// Recent window spend is up 35% on the older window with the same
	// invoice count, so only the volume metric crosses the threshold.
	alice := activeClient("c1", "Alice GmbH")
	widget := item("i1", "Widget", 2500)
	gadget := item("i2", "Gadget", 5000)

	invoices := []models.Invoice{
		{ID: "r1", Client: alice, Total: 6750, Items: []models.Item{widget}, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(10)},
		{ID: "r2", Client: alice, Total: 6750, Items: []models.Item{gadget}, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(40)},
		{ID: "o1", Client: alice, Total: 5000, Items: []models.Item{widget}, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(100)},
		{ID: "o2", Client: alice, Total: 5000, Items: []models.Item{widget}, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(170)},
	}

	changes, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes["c1"]
	require.NotNil(t, change)
	assert.Equal(t, "Alice GmbH", change.ClientName)
	assert.Equal(t, []string{"Purchase volume increased by 35.0%"}, change.Changes)
	assert.InDelta(t, 35.0, change.Metrics.VolumeChangePct, 0.001)
	assert.InDelta(t, 0.0, change.Metrics.FrequencyChangePct, 0.001)
	assert.Equal(t, []string{"Gadget", "Widget"}, change.Metrics.RecentItems)
	assert.Equal(t, []string{"Widget"}, change.Metrics.OlderItems)
}

func TestDetectPatternChangesDecrease(t *testing.T) {
	bob := activeClient("c2", "Bob AG")
	invoices := []models.Invoice{
		{ID: "r1", Client: bob, Total: 5000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(20)},
		{ID: "o1", Client: bob, Total: 10000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(100)},
		{ID: "o2", Client: bob, Total: 10000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(120)},
	}

	changes, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)

	change := changes["c2"]
	require.NotNil(t, change)
	assert.Equal(t, []string{
		"Purchase volume decreased by 75.0%",
		"Purchase frequency decreased by 50.0%",
	}, change.Changes)
}

func TestDetectPatternChangesStableClientOmitted(t *testing.T) {
	// Identical windows: both changes are exactly 0%, below the 20%
	// threshold, so the client is omitted rather than reported empty.
	alice := activeClient("c1", "Alice GmbH")
	invoices := []models.Invoice{
		{ID: "r1", Client: alice, Total: 5000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(30)},
		{ID: "o1", Client: alice, Total: 5000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(120)},
	}

	changes, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetectPatternChangesNoOlderWindowIsZeroChange(t *testing.T) {
	// A client with no older-window data has nothing to compare against:
	// the change is 0%, not infinite.
	alice := activeClient("c1", "Alice GmbH")
	invoices := []models.Invoice{
		{ID: "r1", Client: alice, Total: 99999, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5)},
	}

	changes, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetectPatternChangesTimeframeSelectsWindow(t *testing.T) {
	// 120 days ago is the older window for 3-month analysis but the
	// recent window for 6-month analysis.
	alice := activeClient("c1", "Alice GmbH")
	invoices := []models.Invoice{
		{ID: "r1", Client: alice, Total: 20000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(120)},
		{ID: "o1", Client: alice, Total: 10000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(300)},
	}

	quarterly, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)
	require.NotNil(t, quarterly["c1"])
	assert.Equal(t, []string{
		"Purchase volume decreased by 100.0%",
		"Purchase frequency decreased by 100.0%",
	}, quarterly["c1"].Changes)

	halfYearly, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe6Months, testNow)
	require.NoError(t, err)
	require.NotNil(t, halfYearly["c1"])
	assert.Equal(t, []string{"Purchase volume increased by 100.0%"}, halfYearly["c1"].Changes)
}

func TestDetectPatternChangesIgnoresInactiveClients(t *testing.T) {
	// The spend doubling would be a reportable change, but the client is
	// inactive and must not appear at all.
	inactive := models.Client{ID: "ci", Name: "Gone Ltd", Status: models.ClientStatusInactive}
	invoices := []models.Invoice{
		{ID: "r1", Client: &inactive, Total: 20000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(10)},
		{ID: "o1", Client: &inactive, Total: 10000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(120)},
	}

	changes, err := analytics.DetectPatternChanges(invoices, analytics.Timeframe3Months, testNow)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetectPatternChangesRejectsUnknownTimeframe(t *testing.T) {
	_, err := analytics.DetectPatternChanges(nil, analytics.Timeframe("1year"), testNow)
	assert.ErrorIs(t, err, analytics.ErrUnknownTimeframe)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := analytics.ParseTimeframe("6months")
	require.NoError(t, err)
	assert.Equal(t, analytics.Timeframe6Months, tf)
	assert.Equal(t, 180, tf.Days())

	_, err = analytics.ParseTimeframe("weekly")
	assert.ErrorIs(t, err, analytics.ErrUnknownTimeframe)
}
