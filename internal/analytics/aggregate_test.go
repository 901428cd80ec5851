package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/analytics"
	"insights/pkg/models"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func activeClient(id, name string) *models.Client {
	return &models.Client{ID: id, Name: name, Status: models.ClientStatusActive}
}

func item(id, name string, unitPrice int64) models.Item {
	return models.Item{ID: id, Name: name, UnitPrice: unitPrice, Quantity: 10, Status: models.ItemStatusInStock}
}

// daysAgo returns a timestamp the given number of days before testNow.
func daysAgo(days int) time.Time {
	return testNow.AddDate(0, 0, -days)
}

func TestAggregateClientPurchases(t *testing.T) {
	alice := activeClient("c1", "Alice GmbH")
	bob := activeClient("c2", "Bob AG")

	widget := item("i1", "Widget", 2500)
	gadget := item("i2", "Gadget", 5000)

	invoices := []models.Invoice{
		{
			ID: "inv1", InvoiceNumber: "2026-001", Client: alice,
			Items: []models.Item{widget, gadget}, Total: 7500,
			Status:    models.InvoiceStatusPaid,
			IssueDate: daysAgo(10), DueDate: daysAgo(-20),
		},
		{
			ID: "inv2", InvoiceNumber: "2026-002", Client: alice,
			Items: []models.Item{widget}, Total: 2500,
			Status:    models.InvoiceStatusUnpaid,
			IssueDate: daysAgo(120), DueDate: daysAgo(45),
		},
		{
			ID: "inv3", InvoiceNumber: "2026-003", Client: bob,
			Items: []models.Item{gadget}, Total: 5000,
			Status:    models.InvoiceStatusPaid,
			IssueDate: daysAgo(200), DueDate: daysAgo(170),
		},
	}

	aggregates := analytics.AggregateClientPurchases(invoices, testNow)
	require.Len(t, aggregates, 2)

	aliceAgg := aggregates["c1"]
	require.NotNil(t, aliceAgg)
	assert.Equal(t, "Alice GmbH", aliceAgg.Name)
	assert.Equal(t, 2, aliceAgg.TotalInvoices)
	assert.Equal(t, int64(10000), aliceAgg.TotalSpent)
	assert.Equal(t, 1, aliceAgg.PaidCount)
	assert.Equal(t, 1, aliceAgg.UnpaidCount)
	assert.Equal(t, 1, aliceAgg.OverdueCount)
	assert.Equal(t, 45, aliceAgg.MaxPaymentDelayDays)
	assert.Equal(t, 1, aliceAgg.RecentInvoices)
	assert.Equal(t, int64(7500), aliceAgg.RecentSpent)
	assert.Equal(t, []string{"Gadget", "Widget"}, aliceAgg.ItemNames())
	assert.Equal(t, daysAgo(10), aliceAgg.LastPurchaseDate)

	bobAgg := aggregates["c2"]
	require.NotNil(t, bobAgg)
	assert.Equal(t, 0, bobAgg.RecentInvoices)
	assert.Equal(t, 0, bobAgg.OverdueCount)
	assert.Equal(t, 0, bobAgg.MaxPaymentDelayDays)
	assert.Equal(t, []string{"Gadget"}, bobAgg.ItemNames())
}

func TestAggregateClientPurchasesSkipsUnresolvedClient(t *testing.T) {
	invoices := []models.Invoice{
		{ID: "inv1", Client: nil, Total: 1000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5)},
		{ID: "inv2", Client: activeClient("c1", "Alice GmbH"), Total: 2000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5)},
	}

	aggregates := analytics.AggregateClientPurchases(invoices, testNow)
	require.Len(t, aggregates, 1)
	assert.Equal(t, int64(2000), aggregates["c1"].TotalSpent)
}

func TestAggregateClientPurchasesIgnoresInactiveClients(t *testing.T) {
	inactive := models.Client{ID: "ci", Name: "Gone Ltd", Status: models.ClientStatusInactive}
	invoices := []models.Invoice{
		{ID: "inv1", Client: &inactive, Total: 5000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5)},
		{ID: "inv2", Client: activeClient("c1", "Alice GmbH"), Total: 2000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5)},
	}

	aggregates := analytics.AggregateClientPurchases(invoices, testNow)
	require.Len(t, aggregates, 1)
	assert.NotContains(t, aggregates, "ci")
	assert.Equal(t, int64(2000), aggregates["c1"].TotalSpent)
}

func TestAggregateClientPurchasesIsIdempotent(t *testing.T) {
	invoices := []models.Invoice{
		{
			ID: "inv1", Client: activeClient("c1", "Alice GmbH"),
			Items: []models.Item{item("i1", "Widget", 2500)}, Total: 2500,
			Status: models.InvoiceStatusUnpaid, IssueDate: daysAgo(10), DueDate: daysAgo(2),
		},
	}

	first := analytics.AggregateClientPurchases(invoices, testNow)
	second := analytics.AggregateClientPurchases(invoices, testNow)
	assert.Equal(t, first, second)

	// The input records must not have been mutated.
	assert.Equal(t, "inv1", invoices[0].ID)
	assert.Equal(t, int64(2500), invoices[0].Total)
	assert.Len(t, invoices[0].Items, 1)
}

func TestAggregateClientPurchasesWindowHonorsCustomWindow(t *testing.T) {
	invoices := []models.Invoice{
		{ID: "inv1", Client: activeClient("c1", "Alice GmbH"), Total: 1000, Status: models.InvoiceStatusPaid, IssueDate: daysAgo(20)},
	}

	narrow := analytics.AggregateClientPurchasesWindow(invoices, testNow, 10)
	assert.Equal(t, 0, narrow["c1"].RecentInvoices)

	wide := analytics.AggregateClientPurchasesWindow(invoices, testNow, 30)
	assert.Equal(t, 1, wide["c1"].RecentInvoices)
}

func TestAggregateItemPerformance(t *testing.T) {
	widget := item("i1", "Widget", 2500)
	gadget := item("i2", "Gadget", 5000)
	sprocket := item("i3", "Sprocket", 100)

	alice := activeClient("c1", "Alice GmbH")
	invoices := []models.Invoice{
		{
			ID: "inv1", Client: alice, Total: 10000,
			Items:  []models.Item{widget, widget, gadget},
			Status: models.InvoiceStatusPaid, IssueDate: daysAgo(10),
		},
		{
			ID: "inv2", Client: alice, Total: 2500,
			Items:  []models.Item{widget},
			Status: models.InvoiceStatusPaid, IssueDate: daysAgo(40),
		},
	}

	aggregates := analytics.AggregateItemPerformance(invoices, []models.Item{widget, gadget, sprocket})
	require.Len(t, aggregates, 3)

	widgetAgg := aggregates["i1"]
	assert.Equal(t, 3, widgetAgg.TotalUnitsSold)
	assert.Equal(t, int64(7500), widgetAgg.TotalRevenue)
	assert.Equal(t, 2, widgetAgg.InvoiceCount)
	assert.Equal(t, daysAgo(10), widgetAgg.LastSaleDate)

	gadgetAgg := aggregates["i2"]
	assert.Equal(t, 1, gadgetAgg.TotalUnitsSold)
	assert.Equal(t, int64(5000), gadgetAgg.TotalRevenue)
	assert.Equal(t, 1, gadgetAgg.InvoiceCount)

	// Unsold catalogue items stay visible with zero totals.
	sprocketAgg := aggregates["i3"]
	require.NotNil(t, sprocketAgg)
	assert.Equal(t, 0, sprocketAgg.TotalUnitsSold)
	assert.Equal(t, int64(0), sprocketAgg.TotalRevenue)
	assert.Equal(t, 0, sprocketAgg.InvoiceCount)
	assert.True(t, sprocketAgg.LastSaleDate.IsZero())
}

func TestAggregateItemPerformanceSkipsUncataloguedLines(t *testing.T) {
	widget := item("i1", "Widget", 2500)
	ghost := item("i9", "Ghost", 999)

	invoices := []models.Invoice{
		{
			ID: "inv1", Client: activeClient("c1", "Alice GmbH"), Total: 3499,
			Items:  []models.Item{widget, ghost},
			Status: models.InvoiceStatusPaid, IssueDate: daysAgo(5),
		},
	}

	aggregates := analytics.AggregateItemPerformance(invoices, []models.Item{widget})
	require.Len(t, aggregates, 1)
	assert.Equal(t, 1, aggregates["i1"].TotalUnitsSold)
}
